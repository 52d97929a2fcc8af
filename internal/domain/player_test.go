package domain

import (
	"errors"
	"testing"
)

func TestParseRiotID(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		id, err := ParseRiotID("Faker#KR1")
		if err != nil {
			t.Fatalf("ParseRiotID failed: %v", err)
		}
		if id.GameName != "Faker" || id.TagLine != "KR1" {
			t.Errorf("unexpected parse: %+v", id)
		}
		if id.String() != "Faker#KR1" {
			t.Errorf("expected round-trip, got %s", id.String())
		}
		if id.Normalized() != "faker#kr1" {
			t.Errorf("expected lowercase key, got %s", id.Normalized())
		}
	})

	t.Run("HashInName", func(t *testing.T) {
		// Only the first separator splits; the rest belongs to the tag
		id, err := ParseRiotID("Some#Name#TAG")
		if err != nil {
			t.Fatalf("ParseRiotID failed: %v", err)
		}
		if id.GameName != "Some" || id.TagLine != "Name#TAG" {
			t.Errorf("unexpected parse: %+v", id)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, raw := range []string{"", "NoSeparator", "#TAG", "Name#"} {
			_, err := ParseRiotID(raw)
			if !errors.Is(err, ErrInvalidRiotID) {
				t.Errorf("ParseRiotID(%q): expected ErrInvalidRiotID, got %v", raw, err)
			}
		}
	})
}
