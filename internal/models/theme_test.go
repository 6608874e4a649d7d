package models

import (
	"strings"
	"testing"
)

func TestIsHexColor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "empty", value: "", want: false},
		{name: "whitespace", value: "   ", want: false},
		{name: "missing_hash", value: "AABBCC", want: false},
		{name: "short_hex", value: "#ABC", want: true},
		{name: "long_hex", value: "#AABBCCDD", want: false},
		{name: "invalid_char", value: "#AABBCG", want: false},
		{name: "lowercase_hex", value: "#aabbcc", want: true},
		{name: "uppercase_hex", value: "#AABBCC", want: true},
		{name: "trimmed_hex", value: "  #AABBCC  ", want: true},
		{name: "four_digit", value: "#ABCD", want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsHexColor(test.value); got != test.want {
				t.Fatalf("IsHexColor(%q) = %t, want %t", test.value, got, test.want)
			}
		})
	}
}

func TestDefaultThemeSettingsValid(t *testing.T) {
	settings := DefaultThemeSettings()
	if err := settings.Validate(); err != nil {
		t.Fatalf("factory defaults failed validation: %v", err)
	}
	if settings.LightTheme == (ThemeColorSet{}) {
		t.Fatalf("factory light theme is empty")
	}
	if settings.DarkTheme == (ThemeColorSet{}) {
		t.Fatalf("factory dark theme is empty")
	}
}

func TestThemeSettingsValidate(t *testing.T) {
	image := "https://cdn.example.com/bg.png"

	tests := []struct {
		name    string
		mutate  func(*ThemeSettings)
		wantErr string
	}{
		{name: "valid", mutate: func(s *ThemeSettings) {}},
		{
			name:    "bad_mode",
			mutate:  func(s *ThemeSettings) { s.Mode = "sepia" },
			wantErr: "mode",
		},
		{
			name:    "bad_light_color",
			mutate:  func(s *ThemeSettings) { s.LightTheme.PrimaryColor = "blue" },
			wantErr: "lightTheme.primaryColor",
		},
		{
			name:    "bad_dark_color",
			mutate:  func(s *ThemeSettings) { s.DarkTheme.AIBubbleColor = "#12345" },
			wantErr: "darkTheme.aiBubbleColor",
		},
		{
			name:    "opacity_too_low",
			mutate:  func(s *ThemeSettings) { s.BackgroundOpacity = 0.05 },
			wantErr: "backgroundOpacity",
		},
		{
			name:    "opacity_too_high",
			mutate:  func(s *ThemeSettings) { s.LightTheme.UserBubbleOpacity = 1.5 },
			wantErr: "lightTheme.userBubbleOpacity",
		},
		{
			name:    "empty_image",
			mutate:  func(s *ThemeSettings) { empty := "  "; s.BackgroundImage = &empty },
			wantErr: "backgroundImage",
		},
		{
			name:   "with_image",
			mutate: func(s *ThemeSettings) { s.BackgroundImage = &image },
		},
		{
			name:   "short_hex_ok",
			mutate: func(s *ThemeSettings) { s.DarkTheme.AccentColor = "#abc" },
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings := DefaultThemeSettings()
			test.mutate(&settings)
			err := settings.Validate()
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error naming %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate() error = %q, want mention of %q", err, test.wantErr)
			}
		})
	}
}

func TestThemeSettingsRoundTrip(t *testing.T) {
	image := "https://cdn.example.com/bg.png"

	settings := DefaultThemeSettings()
	settings.Mode = ModeDark
	settings.BackgroundImage = &image
	settings.BackgroundOpacity = 0.4
	settings.AutoDimDark = true
	settings.DarkTheme.UserBubbleOpacity = 0.75

	raw, err := settings.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	parsed, err := ParseThemeSettings(raw)
	if err != nil {
		t.Fatalf("ParseThemeSettings() error = %v", err)
	}

	if !parsed.Equal(settings) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", parsed, settings)
	}
}

func TestThemeSettingsEqual(t *testing.T) {
	base := DefaultThemeSettings()

	same := base.Clone()
	if !base.Equal(same) {
		t.Fatalf("clone should be equal to its source")
	}

	image := "https://cdn.example.com/bg.png"
	sameImage := "https://cdn.example.com/bg.png"

	withImage := base.Clone()
	withImage.BackgroundImage = &image
	withSameImage := base.Clone()
	withSameImage.BackgroundImage = &sameImage
	if !withImage.Equal(withSameImage) {
		t.Fatalf("distinct pointers to equal URLs should compare equal")
	}
	if base.Equal(withImage) {
		t.Fatalf("nil image should not equal set image")
	}

	changed := base.Clone()
	changed.LightTheme.AccentColor = "#123456"
	if base.Equal(changed) {
		t.Fatalf("color change should break equality")
	}
}

func TestCloneIsDeep(t *testing.T) {
	image := "https://cdn.example.com/bg.png"
	settings := DefaultThemeSettings()
	settings.BackgroundImage = &image

	clone := settings.Clone()
	*clone.BackgroundImage = "https://cdn.example.com/other.png"

	if *settings.BackgroundImage != image {
		t.Fatalf("mutating clone leaked into source: %q", *settings.BackgroundImage)
	}
}

func TestImportThemeSettings(t *testing.T) {
	valid, err := DefaultThemeSettings().Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "valid", input: valid},
		{name: "not_json", input: "{", wantErr: "not valid JSON"},
		{name: "missing_light", input: `{"darkTheme":{}}`, wantErr: "lightTheme"},
		{
			name:    "missing_dark",
			input:   `{"lightTheme":{"backgroundColor":"#ffffff"}}`,
			wantErr: "darkTheme",
		},
		{
			name:    "invalid_colors",
			input:   `{"lightTheme":{},"darkTheme":{}}`,
			wantErr: "lightTheme.backgroundColor",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings, err := ImportThemeSettings([]byte(test.input))
			if test.wantErr == "" {
				if err != nil {
					t.Fatalf("ImportThemeSettings() error = %v, want nil", err)
				}
				if err := settings.Validate(); err != nil {
					t.Fatalf("imported settings failed validation: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ImportThemeSettings() error = nil, want mention of %q", test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("ImportThemeSettings() error = %q, want mention of %q", err, test.wantErr)
			}
		})
	}
}

func TestImportDefaultsBackgroundOpacity(t *testing.T) {
	input := `{"lightTheme":` + mustColorSetJSON(t, DefaultThemeSettings().LightTheme) +
		`,"darkTheme":` + mustColorSetJSON(t, DefaultThemeSettings().DarkTheme) + `}`

	settings, err := ImportThemeSettings([]byte(input))
	if err != nil {
		t.Fatalf("ImportThemeSettings() error = %v", err)
	}
	if settings.BackgroundOpacity != 1.0 {
		t.Fatalf("backgroundOpacity = %v, want 1.0 default", settings.BackgroundOpacity)
	}
	if settings.Mode != ModeLight {
		t.Fatalf("mode = %q, want light default", settings.Mode)
	}
}

func mustColorSetJSON(t *testing.T, set ThemeColorSet) string {
	t.Helper()
	settings := ThemeSettings{LightTheme: set}
	raw, err := settings.Serialize()
	if err != nil {
		t.Fatalf("serialize color set: %v", err)
	}
	start := strings.Index(raw, `"lightTheme":`) + len(`"lightTheme":`)
	end := strings.Index(raw, `,"darkTheme"`)
	return raw[start:end]
}
