package services

import (
	"context"
	"testing"

	"github.com/platewire/tvchefs-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

// fakeCompletionClient returns a fixed object (or error) and counts calls.
type fakeCompletionClient struct {
	obj   map[string]any
	err   error
	calls int
}

func (f *fakeCompletionClient) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, TokenUsage, error) {
	f.calls++
	if f.err != nil {
		return nil, TokenUsage{}, f.err
	}
	return f.obj, TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

func (f *fakeCompletionClient) Model() string { return "fake-model" }
