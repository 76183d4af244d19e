package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DuplicateRecord carries the comparable fields of one chef or restaurant as
// seen by the verifier and strategist.
type DuplicateRecord struct {
	EntityType string
	ID         uuid.UUID
	Name       string
	Protected  bool

	// Restaurant fields
	City        string
	State       string
	Address     string
	Website     string
	Rating      float64
	ReviewCount int
	PhotoCount  int
	PlaceID     string
	Status      string

	// Chef fields
	Bio             string
	PhotoURL        string
	RestaurantCount int
	ShowNames       []string
}

func (r DuplicateRecord) describe() string {
	switch r.EntityType {
	case "restaurant":
		return fmt.Sprintf(
			"name=%q city=%q state=%q address=%q rating=%.1f reviews=%d",
			r.Name, r.City, r.State, r.Address, r.Rating, r.ReviewCount,
		)
	default:
		return fmt.Sprintf(
			"name=%q bio=%q restaurants=%d shows=[%s]",
			r.Name, truncate(r.Bio, 400), r.RestaurantCount, strings.Join(r.ShowNames, ", "),
		)
	}
}

// truncate cuts on a rune boundary so the prompt never carries a split
// UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
