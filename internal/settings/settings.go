// internal/settings/settings.go

// Package settings defines the storage boundary the theme engine reads from
// and writes to: a keyed settings backend (user records and the admin-wide
// default) plus a local fallback store for unauthenticated sessions.
package settings

import (
	"context"
	"sync"
)

// KeyThemeSettings is the settings key holding a serialized ThemeSettings.
const KeyThemeSettings = "theme_settings"

// OwnerAdmin is the reserved owner whose record holds admin-wide defaults.
const OwnerAdmin = "admin"

// Backend stores string settings per owner. Owners are user IDs, plus the
// reserved OwnerAdmin record.
type Backend interface {
	FetchAllSettings(ctx context.Context, ownerID string) (map[string]string, error)
	WriteSetting(ctx context.Context, ownerID, key, value string) error
}

// LocalStore is the fallback tier used when no authenticated backend record
// exists: plain string get/set keyed by a fixed settings key.
type LocalStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// MemoryStore is an in-memory Backend and LocalStore. Used as the local
// fallback tier and in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]map[string]string
	local  map[string]string

	// FailWrites forces WriteSetting and Set to fail; tests use it to
	// exercise persistence-error paths.
	FailWrites bool
	// FailReads forces FetchAllSettings to fail.
	FailReads bool
}

// errStoreUnavailable stands in for a backend outage in tests.
type errStoreUnavailable struct{}

func (errStoreUnavailable) Error() string { return "settings store unavailable" }

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners: make(map[string]map[string]string),
		local:  make(map[string]string),
	}
}

func (s *MemoryStore) FetchAllSettings(ctx context.Context, ownerID string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, errStoreUnavailable{}
	}
	out := make(map[string]string, len(s.owners[ownerID]))
	for key, value := range s.owners[ownerID] {
		out[key] = value
	}
	return out, nil
}

func (s *MemoryStore) WriteSetting(ctx context.Context, ownerID, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errStoreUnavailable{}
	}
	record := s.owners[ownerID]
	if record == nil {
		record = make(map[string]string)
		s.owners[ownerID] = record
	}
	record[key] = value
	return nil
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.local[key]
	return value, ok
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return errStoreUnavailable{}
	}
	s.local[key] = value
	return nil
}
