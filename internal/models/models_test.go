package models

import (
	"testing"
	"time"
)

func TestIsValidCategory(t *testing.T) {
	for _, c := range Categories() {
		if !IsValidCategory(c) {
			t.Errorf("category %q should be valid", c)
		}
	}
	if IsValidCategory("gambling") {
		t.Error("unknown category should be invalid")
	}
	if IsValidCategory("") {
		t.Error("empty category should be invalid")
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]Category{
		"junk-food":    CategoryJunkFood,
		"Junk_Food":    CategoryJunkFood,
		"social":       CategorySocialMedia,
		"social-media": CategorySocialMedia,
		"alcohol":      CategoryDrinking,
		"smoking":      CategorySmoking,
		"custom":       CategoryCustom,
	}
	for in, want := range cases {
		if got := NormalizeCategory(in); got != want {
			t.Errorf("NormalizeCategory(%q): got %q, want %q", in, got, want)
		}
	}

	// Unknown values pass through so validation can reject them with the
	// original spelling in the message.
	if got := NormalizeCategory("gambling"); got != Category("gambling") {
		t.Errorf("unknown category should pass through, got %q", got)
	}
}

func TestIsTempID(t *testing.T) {
	if !IsTempID("temp-abc123") {
		t.Error("temp- prefix should be recognized")
	}
	if IsTempID("abc-temp-123") {
		t.Error("temp- elsewhere in the id should not match")
	}
	if IsTempID("") {
		t.Error("empty id is not temporary")
	}
}

func TestDateString(t *testing.T) {
	d := time.Date(2025, 7, 10, 23, 59, 0, 0, time.UTC)
	if got := DateString(d); got != "2025-07-10" {
		t.Errorf("DateString: got %q, want 2025-07-10", got)
	}
}
