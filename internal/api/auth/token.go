// Package auth holds the bearer-token check guarding the admin settings
// endpoints. The server stores only a bcrypt hash of the admin token;
// the plaintext token travels in the Authorization header.
package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashToken wraps bcrypt.GenerateFromPassword for provisioning admin tokens.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyToken wraps bcrypt.CompareHashAndPassword for admin token checks.
func VerifyToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil
}

// TokenFromRequest extracts the bearer token from the Authorization header.
// Returns an empty string when the header is absent or not a bearer scheme.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
