package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestVerifyPair_FailsClosedOnClientError(t *testing.T) {
	client := &fakeCompletionClient{err: fmt.Errorf("api unreachable")}
	verifier := NewDedupeVerifier(testLogger(t), client, nil)

	a := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba"}
	b := DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago"}

	result := verifier.VerifyPair(context.Background(), a, b)
	if result.IsDuplicate {
		t.Fatalf("expected isDuplicate=false on client error, got true")
	}
	if result.Confidence != 0 {
		t.Fatalf("expected confidence 0 on client error, got %v", result.Confidence)
	}
	if !strings.Contains(result.Reasoning, "api unreachable") {
		t.Fatalf("expected reasoning to carry the error, got %q", result.Reasoning)
	}
	if !result.Failed {
		t.Fatalf("expected Failed set on client error")
	}
}

func TestVerifyPair_FailsClosedOnMalformedOutput(t *testing.T) {
	cases := []struct {
		name string
		obj  map[string]any
	}{
		{"missing isDuplicate", map[string]any{"confidence": 0.9, "reasoning": "x"}},
		{"isDuplicate not bool", map[string]any{"isDuplicate": "yes", "confidence": 0.9, "reasoning": "x"}},
		{"confidence not number", map[string]any{"isDuplicate": true, "confidence": "high", "reasoning": "x"}},
		{"confidence out of range", map[string]any{"isDuplicate": true, "confidence": 1.5, "reasoning": "x"}},
		{"reasoning missing", map[string]any{"isDuplicate": true, "confidence": 0.9}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeCompletionClient{obj: tc.obj}
			verifier := NewDedupeVerifier(testLogger(t), client, nil)
			result := verifier.VerifyPair(context.Background(),
				DuplicateRecord{EntityType: "chef", ID: uuid.New(), Name: "A"},
				DuplicateRecord{EntityType: "chef", ID: uuid.New(), Name: "B"},
			)
			if result.IsDuplicate || result.Confidence != 0 || !result.Failed {
				t.Fatalf("expected closed failure, got %+v", result)
			}
			if result.Reasoning == "" {
				t.Fatalf("expected reasoning to explain the rejection")
			}
		})
	}
}

func TestVerifyPair_AcceptsValidVerdict(t *testing.T) {
	client := &fakeCompletionClient{obj: map[string]any{
		"isDuplicate": true,
		"confidence":  0.95,
		"reasoning":   "same restaurant, name variant",
	}}
	verifier := NewDedupeVerifier(testLogger(t), client, nil)
	result := verifier.VerifyPair(context.Background(),
		DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba", City: "Chicago"},
		DuplicateRecord{EntityType: "restaurant", ID: uuid.New(), Name: "Aba Chicago", City: "Chicago"},
	)
	if !result.IsDuplicate {
		t.Fatalf("expected isDuplicate=true")
	}
	if result.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", result.Confidence)
	}
	if result.Failed {
		t.Fatalf("valid verdict must not be flagged as failed")
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 client call, got %d", client.calls)
	}
}
