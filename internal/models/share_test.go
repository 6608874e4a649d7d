package models

import (
	"strings"
	"testing"
)

func TestShareParamRoundTrip(t *testing.T) {
	image := "https://cdn.example.com/bg.png"
	settings := DefaultThemeSettings()
	settings.Mode = ModeDark
	settings.BackgroundImage = &image
	settings.BackgroundOpacity = 0.6
	settings.LightTheme.AccentColor = "#ff8800"

	encoded, err := EncodeShareParam(NewSharePayload(settings))
	if err != nil {
		t.Fatalf("EncodeShareParam() error = %v", err)
	}
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("encoded share param is not URL-safe: %q", encoded)
	}

	payload, err := DecodeShareParam(encoded)
	if err != nil {
		t.Fatalf("DecodeShareParam() error = %v", err)
	}

	applied := payload.Apply(DefaultThemeSettings())
	if applied.Mode != ModeLight {
		t.Fatalf("Apply() overwrote mode: %q", applied.Mode)
	}
	if applied.LightTheme.AccentColor != "#ff8800" {
		t.Fatalf("accent color = %q, want #ff8800", applied.LightTheme.AccentColor)
	}
	if applied.BackgroundImage == nil || *applied.BackgroundImage != image {
		t.Fatalf("background image not carried through share payload")
	}
	if applied.BackgroundOpacity != 0.6 {
		t.Fatalf("background opacity = %v, want 0.6", applied.BackgroundOpacity)
	}
}

func TestDecodeShareParamErrors(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr string
	}{
		{name: "not_base64", value: "%%%", wantErr: "base64"},
		{name: "not_json", value: "bm90LWpzb24", wantErr: "JSON"},
		{name: "empty_payload", value: "e30", wantErr: "lightTheme"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DecodeShareParam(test.value)
			if err == nil {
				t.Fatalf("DecodeShareParam(%q) error = nil, want mention of %q", test.value, test.wantErr)
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("DecodeShareParam(%q) error = %q, want mention of %q", test.value, err, test.wantErr)
			}
		})
	}
}
