package utils

import (
	"fmt"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name  string
		parts []string
		want  string
	}{
		{"simple", []string{"Aba"}, "aba"},
		{"multi part", []string{"Aba", "Chicago"}, "aba-chicago"},
		{"punctuation collapses", []string{"Girl & The Goat"}, "girl-the-goat"},
		{"leading and trailing junk", []string{"  --Topolo!  "}, "topolo"},
		{"empty parts dropped", []string{"", "Aba", ""}, "aba"},
		{"digits kept", []string{"Next", "2024"}, "next-2024"},
		{"all punctuation", []string{"&&&"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Slugify(tc.parts...); got != tc.want {
				t.Fatalf("Slugify(%v) = %q, want %q", tc.parts, got, tc.want)
			}
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	t.Run("free base is kept", func(t *testing.T) {
		got, err := UniqueSlug("aba", func(string) (bool, error) { return false, nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "aba" {
			t.Fatalf("expected base kept, got %q", got)
		}
	})

	t.Run("taken base gets a counter", func(t *testing.T) {
		taken := map[string]bool{"aba": true, "aba-2": true}
		got, err := UniqueSlug("aba", func(slug string) (bool, error) { return taken[slug], nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "aba-3" {
			t.Fatalf("expected aba-3, got %q", got)
		}
	})

	t.Run("empty base falls back", func(t *testing.T) {
		got, err := UniqueSlug("", func(string) (bool, error) { return false, nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "untitled" {
			t.Fatalf("expected untitled fallback, got %q", got)
		}
	})

	t.Run("exists error propagates", func(t *testing.T) {
		wantErr := fmt.Errorf("db down")
		if _, err := UniqueSlug("aba", func(string) (bool, error) { return false, wantErr }); err == nil {
			t.Fatalf("expected error from exists callback")
		}
	})
}
