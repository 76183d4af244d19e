package utils

import (
	"fmt"
	"strings"
	"unicode"
)

// Slugify builds a url-safe slug from one or more name parts
// ("Aba", "Chicago" -> "aba-chicago").
func Slugify(parts ...string) string {
	var b strings.Builder
	lastHyphen := true
	for _, part := range parts {
		for _, r := range strings.ToLower(strings.TrimSpace(part)) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
				lastHyphen = false
				continue
			}
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
		if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// UniqueSlug resolves slug collisions by suffixing a counter: "aba",
// "aba-2", "aba-3", ... exists reports whether a candidate is already taken.
func UniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	if base == "" {
		base = "untitled"
	}
	taken, err := exists(base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	for n := 2; n < 1000; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not find a free slug for %q", base)
}
