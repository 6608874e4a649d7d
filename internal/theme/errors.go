// internal/theme/errors.go
package theme

import "errors"

var (
	// ErrValidation marks a rejected input: a malformed color, an
	// out-of-range opacity, or a bad import payload. Nothing was mutated.
	ErrValidation = errors.New("theme validation failed")

	// ErrPersistence marks a backend read or write failure. On the save path
	// the draft is preserved so the caller can retry.
	ErrPersistence = errors.New("theme persistence failed")

	// ErrSessionInactive is returned by draft operations outside settings
	// mode.
	ErrSessionInactive = errors.New("no active settings session")

	// ErrSessionActive is returned by EnterSettingsMode while a draft
	// already exists.
	ErrSessionActive = errors.New("settings session already active")

	// ErrSaveInFlight rejects a save requested while another one is still
	// pending, so a half-updated draft is never written.
	ErrSaveInFlight = errors.New("save already in progress")
)
