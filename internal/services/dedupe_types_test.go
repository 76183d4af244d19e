package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	t.Run("short strings untouched", func(t *testing.T) {
		if got := truncate("hello", 10); got != "hello" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("long strings cut with ellipsis", func(t *testing.T) {
		got := truncate("hello world", 5)
		if got != "hello..." {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("never splits a rune", func(t *testing.T) {
		s := strings.Repeat("é", 10) // 2 bytes per rune
		for max := 1; max < len(s); max++ {
			got := truncate(s, max)
			if !utf8.ValidString(got) {
				t.Fatalf("truncate(%q, %d) = %q is not valid UTF-8", s, max, got)
			}
			if !strings.HasPrefix(s, strings.TrimSuffix(got, "...")) {
				t.Fatalf("truncate(%q, %d) = %q is not a prefix", s, max, got)
			}
		}
	})
}
