// internal/models/theme.go
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinOpacity = 0.1
	MaxOpacity = 1.0
)

const (
	defaultLightBackground = "#ffffff"
	defaultLightPrimary    = "#2563eb"
	defaultLightText       = "#1f2937"
	defaultLightAccent     = "#7c3aed"
	defaultLightUserBubble = "#2563eb"
	defaultLightAIBubble   = "#e5e7eb"
	defaultLightUserText   = "#ffffff"
	defaultLightAIText     = "#1f2937"

	defaultDarkBackground = "#111827"
	defaultDarkPrimary    = "#3b82f6"
	defaultDarkText       = "#f9fafb"
	defaultDarkAccent     = "#a78bfa"
	defaultDarkUserBubble = "#3b82f6"
	defaultDarkAIBubble   = "#374151"
	defaultDarkUserText   = "#ffffff"
	defaultDarkAIText     = "#f9fafb"

	defaultBackgroundOpacity = 1.0
	defaultBubbleOpacity     = 1.0
)

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// IsHexColor reports whether value is a 3- or 6-digit hex color like #ABC or #AABBCC.
func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// Mode selects which color set is active.
type Mode string

const (
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

func (m Mode) Valid() bool {
	return m == ModeLight || m == ModeDark
}

// ThemeColorSet holds the colors for one mode. Both a light and a dark set
// always exist on a ThemeSettings, even though only one is active at a time.
type ThemeColorSet struct {
	BackgroundColor   string  `json:"backgroundColor"`
	PrimaryColor      string  `json:"primaryColor"`
	TextColor         string  `json:"textColor"`
	AccentColor       string  `json:"accentColor"`
	UserBubbleColor   string  `json:"userBubbleColor"`
	UserBubbleOpacity float64 `json:"userBubbleOpacity"`
	AIBubbleColor     string  `json:"aiBubbleColor"`
	AIBubbleOpacity   float64 `json:"aiBubbleOpacity"`
	UserTextColor     string  `json:"userTextColor"`
	AITextColor       string  `json:"aiTextColor"`
}

// Validate checks every color and opacity in the set. The prefix names the set
// in error messages (e.g. "lightTheme").
func (c ThemeColorSet) Validate(prefix string) error {
	colorFields := []struct {
		name  string
		value string
	}{
		{"backgroundColor", c.BackgroundColor},
		{"primaryColor", c.PrimaryColor},
		{"textColor", c.TextColor},
		{"accentColor", c.AccentColor},
		{"userBubbleColor", c.UserBubbleColor},
		{"aiBubbleColor", c.AIBubbleColor},
		{"userTextColor", c.UserTextColor},
		{"aiTextColor", c.AITextColor},
	}
	for _, field := range colorFields {
		if !hexColorRegex.MatchString(field.value) {
			return fmt.Errorf("%s.%s must be a 3- or 6-digit hex color like #AABBCC", prefix, field.name)
		}
	}

	opacityFields := []struct {
		name  string
		value float64
	}{
		{"userBubbleOpacity", c.UserBubbleOpacity},
		{"aiBubbleOpacity", c.AIBubbleOpacity},
	}
	for _, field := range opacityFields {
		if field.value < MinOpacity || field.value > MaxOpacity {
			return fmt.Errorf("%s.%s must be between %.1f and %.1f", prefix, field.name, MinOpacity, MaxOpacity)
		}
	}
	return nil
}

// BackgroundConfig is an optional background image layered under the chat,
// with its opacity and an optional auto-dim toggle for dark mode.
type BackgroundConfig struct {
	Image       *string `json:"image"`
	Opacity     float64 `json:"opacity"`
	AutoDimDark bool    `json:"autoDimDark,omitempty"`
}

// ThemeSettings is the persisted unit: the full serialization contract for
// storage and import/export. It must round-trip through JSON losslessly.
type ThemeSettings struct {
	Mode              Mode          `json:"mode"`
	LightTheme        ThemeColorSet `json:"lightTheme"`
	DarkTheme         ThemeColorSet `json:"darkTheme"`
	BackgroundImage   *string       `json:"backgroundImage"`
	BackgroundOpacity float64       `json:"backgroundOpacity"`
	AutoDimDark       bool          `json:"autoDimDark,omitempty"`
}

// DefaultThemeSettings returns the factory defaults: the last-resort fallback
// tier. Always valid, no null colors.
func DefaultThemeSettings() ThemeSettings {
	return ThemeSettings{
		Mode: ModeLight,
		LightTheme: ThemeColorSet{
			BackgroundColor:   defaultLightBackground,
			PrimaryColor:      defaultLightPrimary,
			TextColor:         defaultLightText,
			AccentColor:       defaultLightAccent,
			UserBubbleColor:   defaultLightUserBubble,
			UserBubbleOpacity: defaultBubbleOpacity,
			AIBubbleColor:     defaultLightAIBubble,
			AIBubbleOpacity:   defaultBubbleOpacity,
			UserTextColor:     defaultLightUserText,
			AITextColor:       defaultLightAIText,
		},
		DarkTheme: ThemeColorSet{
			BackgroundColor:   defaultDarkBackground,
			PrimaryColor:      defaultDarkPrimary,
			TextColor:         defaultDarkText,
			AccentColor:       defaultDarkAccent,
			UserBubbleColor:   defaultDarkUserBubble,
			UserBubbleOpacity: defaultBubbleOpacity,
			AIBubbleColor:     defaultDarkAIBubble,
			AIBubbleOpacity:   defaultBubbleOpacity,
			UserTextColor:     defaultDarkUserText,
			AITextColor:       defaultDarkAIText,
		},
		BackgroundImage:   nil,
		BackgroundOpacity: defaultBackgroundOpacity,
	}
}

// Validate checks the whole settings record. Returns the first violation with
// a message naming the offending field.
func (s ThemeSettings) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("mode must be %q or %q", ModeLight, ModeDark)
	}
	if err := s.LightTheme.Validate("lightTheme"); err != nil {
		return err
	}
	if err := s.DarkTheme.Validate("darkTheme"); err != nil {
		return err
	}
	if s.BackgroundImage != nil && strings.TrimSpace(*s.BackgroundImage) == "" {
		return fmt.Errorf("backgroundImage must be a URL or null")
	}
	if s.BackgroundOpacity < MinOpacity || s.BackgroundOpacity > MaxOpacity {
		return fmt.Errorf("backgroundOpacity must be between %.1f and %.1f", MinOpacity, MaxOpacity)
	}
	return nil
}

// ActiveColors returns the color set selected by Mode.
func (s ThemeSettings) ActiveColors() ThemeColorSet {
	if s.Mode == ModeDark {
		return s.DarkTheme
	}
	return s.LightTheme
}

// Background returns the settings' background as a BackgroundConfig.
func (s ThemeSettings) Background() BackgroundConfig {
	return BackgroundConfig{
		Image:       s.BackgroundImage,
		Opacity:     s.BackgroundOpacity,
		AutoDimDark: s.AutoDimDark,
	}
}

// Clone returns a deep copy. BackgroundImage is the only pointer field.
func (s ThemeSettings) Clone() ThemeSettings {
	clone := s
	if s.BackgroundImage != nil {
		image := *s.BackgroundImage
		clone.BackgroundImage = &image
	}
	return clone
}

// Equal reports deep structural equality. Two settings with the same image URL
// behind distinct pointers are equal.
func (s ThemeSettings) Equal(other ThemeSettings) bool {
	if s.Mode != other.Mode ||
		s.LightTheme != other.LightTheme ||
		s.DarkTheme != other.DarkTheme ||
		s.BackgroundOpacity != other.BackgroundOpacity ||
		s.AutoDimDark != other.AutoDimDark {
		return false
	}
	switch {
	case s.BackgroundImage == nil && other.BackgroundImage == nil:
		return true
	case s.BackgroundImage == nil || other.BackgroundImage == nil:
		return false
	default:
		return *s.BackgroundImage == *other.BackgroundImage
	}
}

// Serialize encodes the settings as the single JSON string written to storage.
func (s ThemeSettings) Serialize() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("serialize theme settings: %w", err)
	}
	return string(data), nil
}

// ParseThemeSettings decodes a stored JSON string and validates it.
func ParseThemeSettings(raw string) (ThemeSettings, error) {
	var settings ThemeSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return ThemeSettings{}, fmt.Errorf("parse theme settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return ThemeSettings{}, err
	}
	return settings, nil
}

// importEnvelope mirrors ThemeSettings with optional sub-objects so a missing
// lightTheme or darkTheme can be told apart from a zero-valued one.
type importEnvelope struct {
	Mode              *Mode          `json:"mode"`
	LightTheme        *ThemeColorSet `json:"lightTheme"`
	DarkTheme         *ThemeColorSet `json:"darkTheme"`
	BackgroundImage   *string        `json:"backgroundImage"`
	BackgroundOpacity *float64       `json:"backgroundOpacity"`
	AutoDimDark       bool           `json:"autoDimDark"`
}

// ImportThemeSettings decodes user-supplied JSON, requiring both color sets.
// On rejection no settings are returned, so callers cannot partially apply.
func ImportThemeSettings(data []byte) (ThemeSettings, error) {
	var envelope importEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ThemeSettings{}, fmt.Errorf("import is not valid JSON: %w", err)
	}
	if envelope.LightTheme == nil {
		return ThemeSettings{}, fmt.Errorf("import is missing required lightTheme")
	}
	if envelope.DarkTheme == nil {
		return ThemeSettings{}, fmt.Errorf("import is missing required darkTheme")
	}

	settings := ThemeSettings{
		Mode:        ModeLight,
		LightTheme:  *envelope.LightTheme,
		DarkTheme:   *envelope.DarkTheme,
		AutoDimDark: envelope.AutoDimDark,
	}
	if envelope.Mode != nil {
		settings.Mode = *envelope.Mode
	}
	settings.BackgroundImage = envelope.BackgroundImage
	if envelope.BackgroundOpacity != nil {
		settings.BackgroundOpacity = *envelope.BackgroundOpacity
	} else {
		settings.BackgroundOpacity = defaultBackgroundOpacity
	}

	if err := settings.Validate(); err != nil {
		return ThemeSettings{}, err
	}
	return settings, nil
}
