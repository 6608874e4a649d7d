package auth

import (
	"net/http/httptest"
	"testing"
)

func TestHashTokenAndVerify(t *testing.T) {
	token := "s3ttings-adm1n!"

	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if hash == token {
		t.Fatal("expected hash to differ from token")
	}

	if !VerifyToken(hash, token) {
		t.Fatal("expected token to verify")
	}
	if VerifyToken(hash, "wrong") {
		t.Fatal("expected token mismatch to fail")
	}
}

func TestVerifyTokenWithInvalidHash(t *testing.T) {
	if VerifyToken("not-a-valid-hash", "token") {
		t.Fatal("expected invalid hash to fail verification")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			if got := TokenFromRequest(r); got != tc.want {
				t.Fatalf("TokenFromRequest() = %q, want %q", got, tc.want)
			}
		})
	}
}
