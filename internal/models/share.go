// internal/models/share.go
package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SharePayload is the reduced shape carried in a shareable URL: colors and
// background config only, no mode or other metadata.
type SharePayload struct {
	LightTheme        ThemeColorSet `json:"lightTheme"`
	DarkTheme         ThemeColorSet `json:"darkTheme"`
	BackgroundImage   *string       `json:"backgroundImage"`
	BackgroundOpacity float64       `json:"backgroundOpacity"`
	AutoDimDark       bool          `json:"autoDimDark,omitempty"`
}

// ShareParam is the query parameter carrying an encoded SharePayload.
const ShareParam = "theme"

// NewSharePayload extracts the shareable subset of settings.
func NewSharePayload(settings ThemeSettings) SharePayload {
	return SharePayload{
		LightTheme:        settings.LightTheme,
		DarkTheme:         settings.DarkTheme,
		BackgroundImage:   settings.BackgroundImage,
		BackgroundOpacity: settings.BackgroundOpacity,
		AutoDimDark:       settings.AutoDimDark,
	}
}

// Apply overlays the shared colors and background onto base, preserving the
// base's mode.
func (p SharePayload) Apply(base ThemeSettings) ThemeSettings {
	applied := base.Clone()
	applied.LightTheme = p.LightTheme
	applied.DarkTheme = p.DarkTheme
	applied.BackgroundImage = p.BackgroundImage
	applied.BackgroundOpacity = p.BackgroundOpacity
	applied.AutoDimDark = p.AutoDimDark
	return applied
}

// EncodeShareParam encodes the payload for use as a URL query parameter value.
func EncodeShareParam(payload SharePayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeShareParam decodes a query parameter value produced by
// EncodeShareParam. Malformed input yields a descriptive error, never a panic.
func DecodeShareParam(value string) (SharePayload, error) {
	data, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return SharePayload{}, fmt.Errorf("share link is not valid base64: %w", err)
	}
	var payload SharePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return SharePayload{}, fmt.Errorf("share link payload is not valid JSON: %w", err)
	}
	if err := payload.LightTheme.Validate("lightTheme"); err != nil {
		return SharePayload{}, err
	}
	if err := payload.DarkTheme.Validate("darkTheme"); err != nil {
		return SharePayload{}, err
	}
	if payload.BackgroundOpacity < MinOpacity || payload.BackgroundOpacity > MaxOpacity {
		return SharePayload{}, fmt.Errorf("backgroundOpacity must be between %.1f and %.1f", MinOpacity, MaxOpacity)
	}
	return payload, nil
}
