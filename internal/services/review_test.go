package services

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/platewire/tvchefs-backend/internal/types"
)

func TestRestaurantCompleteness(t *testing.T) {
	cases := []struct {
		name string
		r    types.Restaurant
		want int
	}{
		{"empty record", types.Restaurant{}, 0},
		{"place id only", types.Restaurant{GooglePlaceID: "ChIJabc"}, 10},
		{"photos only", types.Restaurant{PhotoCount: 4}, 5},
		{"rating only", types.Restaurant{Rating: 4.5}, 3},
		{"website only", types.Restaurant{Website: "https://abarestaurants.com"}, 2},
		{"open only", types.Restaurant{Status: types.RestaurantStatusOpen}, 1},
		{
			"fully populated",
			types.Restaurant{
				GooglePlaceID: "ChIJabc",
				PhotoCount:    12,
				Rating:        4.6,
				Website:       "https://abarestaurants.com",
				Status:        types.RestaurantStatusOpen,
			},
			21,
		},
		{"closed gets no open point", types.Restaurant{Status: types.RestaurantStatusClosed, Rating: 4.0}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RestaurantCompleteness(&tc.r); got != tc.want {
				t.Fatalf("RestaurantCompleteness = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestChefCompleteness(t *testing.T) {
	chef := &types.Chef{PhotoURL: "https://cdn/x.jpg", Bio: "bio", Narrative: "long form"}
	if got := ChefCompleteness(chef, 3); got != 13 {
		t.Fatalf("ChefCompleteness = %d, want 13", got)
	}
	if got := ChefCompleteness(&types.Chef{}, 0); got != 0 {
		t.Fatalf("ChefCompleteness on empty chef = %d, want 0", got)
	}
}

func TestRecommendKeeper(t *testing.T) {
	richer := GroupMember{ID: uuid.New(), Name: "Aba", Score: 20}
	poorer := GroupMember{ID: uuid.New(), Name: "Aba Chicago", Score: 5}

	t.Run("highest score wins", func(t *testing.T) {
		got := RecommendKeeper([]GroupMember{poorer, richer})
		if got == nil || *got != richer.ID {
			t.Fatalf("expected richer member recommended, got %v", got)
		}
	})

	t.Run("protected beats score", func(t *testing.T) {
		protectedMember := GroupMember{ID: uuid.New(), Name: "Aba", Score: 1, Protected: true}
		got := RecommendKeeper([]GroupMember{richer, protectedMember})
		if got == nil || *got != protectedMember.ID {
			t.Fatalf("expected protected member recommended regardless of score, got %v", got)
		}
	})

	t.Run("empty group", func(t *testing.T) {
		if got := RecommendKeeper(nil); got != nil {
			t.Fatalf("expected nil for empty group, got %v", got)
		}
	})
}

func memberJSON(t *testing.T, ids ...uuid.UUID) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(ids)
	if err != nil {
		t.Fatalf("encode member ids: %v", err)
	}
	return datatypes.JSON(raw)
}

func TestValidateSelection(t *testing.T) {
	s := &reviewService{log: testLogger(t)}
	memberA := uuid.New()
	memberB := uuid.New()
	memberC := uuid.New()
	candidate := &types.DuplicateCandidate{
		ID:         uuid.New(),
		EntityType: types.EntityTypeRestaurant,
		MemberIDs:  memberJSON(t, memberA, memberB, memberC),
	}

	t.Run("valid split", func(t *testing.T) {
		if err := s.validateSelection(candidate, []uuid.UUID{memberA}, []uuid.UUID{memberB, memberC}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("no keepers", func(t *testing.T) {
		err := s.validateSelection(candidate, nil, []uuid.UUID{memberB})
		if err == nil || !strings.Contains(err.Error(), "keeper") {
			t.Fatalf("expected keeper-required error, got %v", err)
		}
	})

	t.Run("outsider keeper", func(t *testing.T) {
		err := s.validateSelection(candidate, []uuid.UUID{uuid.New()}, []uuid.UUID{memberB})
		if err == nil || !strings.Contains(err.Error(), "not a member") {
			t.Fatalf("expected membership error, got %v", err)
		}
	})

	t.Run("same id on both sides", func(t *testing.T) {
		err := s.validateSelection(candidate, []uuid.UUID{memberA}, []uuid.UUID{memberA})
		if err == nil || !strings.Contains(err.Error(), "both keeper and loser") {
			t.Fatalf("expected both-sides error, got %v", err)
		}
	})

	t.Run("group too small", func(t *testing.T) {
		small := &types.DuplicateCandidate{ID: uuid.New(), MemberIDs: memberJSON(t, memberA)}
		if err := s.validateSelection(small, []uuid.UUID{memberA}, nil); err == nil {
			t.Fatalf("expected error for a one-member group")
		}
	})
}
