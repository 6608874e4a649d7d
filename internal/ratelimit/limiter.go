// Package ratelimit provides rate limiting for settings write operations.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// Save limits
	SaveCooldown     time.Duration // Minimum time between saves per user (default: 1s)
	SaveMaxPerHour   int           // Max saves per user per hour (default: 120)
	SaveMaxIPPerHour int           // Max saves per IP per hour (default: 300)

	// Admin auth limits
	AuthMaxAttempts int           // Max failed token checks per IP before lockout (default: 5)
	AuthLockout     time.Duration // Lockout duration after max attempts (default: 5m)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		SaveCooldown:     1 * time.Second,
		SaveMaxPerHour:   120,
		SaveMaxIPPerHour: 300,
		AuthMaxAttempts:  5,
		AuthLockout:      5 * time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

// entry tracks request counts and timestamps.
type entry struct {
	count    int
	firstAt  time.Time // First request in window
	lastAt   time.Time // Most recent request (for cooldown)
	lockedAt time.Time // When lockout started (zero if not locked)
}

// Limiter implements multi-layer rate limiting for settings writes and
// admin token checks.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.RWMutex
	// Keyed by hash of user ID or IP
	saveByUser map[string]*entry
	saveByIP   map[string]*entry
	authByIP   map[string]*entry

	// Cleanup goroutine management
	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		saveByUser:    make(map[string]*entry),
		saveByIP:      make(map[string]*entry),
		authByIP:      make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// CheckSave checks if a settings save is allowed.
// Does NOT record the attempt - call RecordSave after the save succeeds.
func (l *Limiter) CheckSave(userID, ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	userKey := l.hashKey("save:user:", normalizeUserID(userID))
	ipKey := l.hashKey("save:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	// Check per-user cooldown
	if e := l.saveByUser[userKey]; e != nil {
		elapsed := now.Sub(e.lastAt)
		if elapsed < l.config.SaveCooldown {
			remaining := l.config.SaveCooldown - elapsed
			return LimitResult{
				Allowed:    false,
				RetryAfter: remaining,
				Reason:     "cooldown",
			}
		}

		// Check hourly limit
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.SaveMaxPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "hourly_limit",
			}
		}
	}

	// Check per-IP hourly limit
	if e := l.saveByIP[ipKey]; e != nil {
		if now.Sub(e.firstAt) < time.Hour && e.count >= l.config.SaveMaxIPPerHour {
			return LimitResult{
				Allowed:    false,
				RetryAfter: time.Hour - now.Sub(e.firstAt),
				Reason:     "ip_hourly_limit",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordSave records a successful save. Call this AFTER the write succeeds.
func (l *Limiter) RecordSave(userID, ip string) {
	now := l.clock.Now()
	userKey := l.hashKey("save:user:", normalizeUserID(userID))
	ipKey := l.hashKey("save:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Update user entry
	e := l.saveByUser[userKey]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		l.saveByUser[userKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
	}

	// Update IP entry
	e = l.saveByIP[ipKey]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		l.saveByIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
	}
}

// CheckAuth checks if an admin token attempt is allowed for this IP.
// Does NOT record the attempt - call RecordAuthFailure after a bad token.
func (l *Limiter) CheckAuth(ip string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	ipKey := l.hashKey("auth:ip:", ip)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if e := l.authByIP[ipKey]; e != nil {
		if !e.lockedAt.IsZero() {
			elapsed := now.Sub(e.lockedAt)
			if elapsed < l.config.AuthLockout {
				return LimitResult{
					Allowed:    false,
					RetryAfter: l.config.AuthLockout - elapsed,
					Reason:     "lockout",
				}
			}
			// Lockout expired - will be cleaned up, allow this request
		} else if e.count >= l.config.AuthMaxAttempts {
			// Already at max attempts, lockout should be started
			return LimitResult{
				Allowed:    false,
				RetryAfter: l.config.AuthLockout,
				Reason:     "max_attempts",
			}
		}
	}

	return LimitResult{Allowed: true}
}

// RecordAuthFailure records a failed admin token check.
// Returns true if max attempts reached and lockout was triggered.
func (l *Limiter) RecordAuthFailure(ip string) (lockedOut bool) {
	now := l.clock.Now()
	ipKey := l.hashKey("auth:ip:", ip)

	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.authByIP[ipKey]
	if e == nil {
		l.authByIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else if !e.lockedAt.IsZero() && now.Sub(e.lockedAt) >= l.config.AuthLockout {
		// Lockout expired, reset
		l.authByIP[ipKey] = &entry{count: 1, firstAt: now, lastAt: now}
	} else {
		e.count++
		e.lastAt = now
		// Check if we just hit max attempts
		if e.count >= l.config.AuthMaxAttempts && e.lockedAt.IsZero() {
			e.lockedAt = now
			lockedOut = true
		}
	}

	return lockedOut
}

// ResetAuthAttempts clears the failure counter after a valid token.
func (l *Limiter) ResetAuthAttempts(ip string) {
	ipKey := l.hashKey("auth:ip:", ip)
	l.mu.Lock()
	delete(l.authByIP, ipKey)
	l.mu.Unlock()
}

func (l *Limiter) hashKey(prefix, value string) string {
	hash := sha256.Sum256([]byte(value))
	return prefix + hex.EncodeToString(hash[:8])
}

// normalizeUserID trims and lowercases the user ID to prevent case-based bypass.
func normalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

func (l *Limiter) cleanup() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	// Clean save entries older than 1 hour
	for k, e := range l.saveByUser {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.saveByUser, k)
		}
	}
	for k, e := range l.saveByIP {
		if now.Sub(e.lastAt) > time.Hour {
			delete(l.saveByIP, k)
		}
	}

	// Clean auth entries older than lockout + 1 hour
	maxAge := l.config.AuthLockout + time.Hour
	for k, e := range l.authByIP {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.authByIP, k)
		}
	}
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost IP from X-Forwarded-For (added by your proxy).
// When trustProxy is false, ignores X-Forwarded-For entirely (prevents spoofing).
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Use RIGHTMOST IP - this is the one your proxy added, not user-supplied
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				// Skip private/internal IPs to find the real client
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// Check X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	// Fall back to RemoteAddr (direct connection or untrusted proxy)
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port (e.g., Unix socket or malformed)
		// Try to parse as IP directly, otherwise return as-is
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		// Last resort: strip anything after last colon that looks like a port
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

// privateNetworks holds parsed CIDR ranges for private/reserved IPs.
// Parsed once at package init for efficiency.
var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10", // Link-local
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP checks if an IP is in a private/reserved range.
// Handles both IPv4 and IPv4-mapped IPv6 addresses (e.g., ::ffff:192.168.1.1).
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	// Convert IPv4-mapped IPv6 to IPv4 for consistent matching
	// e.g., ::ffff:192.168.1.1 -> 192.168.1.1
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}

	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a rate limit event.
func LogRateLimitExceeded(limitType, userID, ip, reason string) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("type", limitType).
		Str("user_id", userID).
		Str("ip", ip).
		Str("reason", reason).
		Msg("Settings rate limit exceeded")
}
