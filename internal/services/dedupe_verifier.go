package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/platewire/tvchefs-backend/internal/logger"
	"github.com/platewire/tvchefs-backend/internal/repos"
	"github.com/platewire/tvchefs-backend/internal/types"
)

// VerifyResult is the verifier's judgment on one candidate pair. Failed marks
// a closed failure (transport or schema error) as opposed to an honest
// not-a-duplicate verdict, which may legitimately carry zero confidence.
type VerifyResult struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	Failed      bool    `json:"-"`
}

// DedupeVerifier asks the completion service whether two records are the same
// real-world entity. It fails closed: any transport or schema error comes back
// as {isDuplicate: false, confidence: 0, Failed: true} with the error text as
// reasoning, and no error ever escapes VerifyPair.
type DedupeVerifier interface {
	VerifyPair(ctx context.Context, a, b DuplicateRecord) VerifyResult
}

type dedupeVerifier struct {
	log           *logger.Logger
	client        CompletionClient
	aiCallLogRepo repos.AICallLogRepo
}

func NewDedupeVerifier(baseLog *logger.Logger, client CompletionClient, aiCallLogRepo repos.AICallLogRepo) DedupeVerifier {
	serviceLog := baseLog.With("service", "DedupeVerifier")
	return &dedupeVerifier{
		log:           serviceLog,
		client:        client,
		aiCallLogRepo: aiCallLogRepo,
	}
}

const verifierSystemPrompt = `You decide whether two directory records refer to the same real-world entity.
Heuristics:
- Restaurants: name variants in the same city (e.g. "Aba" vs "Aba Chicago") are duplicates; the same name in different cities is NOT a duplicate.
- Chefs: spelling variants of the same person are duplicates; different people sharing a name are not.
- Similar review counts and ratings corroborate a duplicate; wildly different ones argue against it.
Answer honestly. If you cannot tell, say isDuplicate=false with low confidence.`

func verifierSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isDuplicate": map[string]any{"type": "boolean"},
			"confidence":  map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"reasoning":   map[string]any{"type": "string"},
		},
		"required":             []string{"isDuplicate", "confidence", "reasoning"},
		"additionalProperties": false,
	}
}

func (v *dedupeVerifier) VerifyPair(ctx context.Context, a, b DuplicateRecord) VerifyResult {
	user := fmt.Sprintf("Record A: %s\nRecord B: %s\nAre these the same %s?", a.describe(), b.describe(), a.EntityType)

	obj, usage, err := v.client.GenerateJSON(ctx, verifierSystemPrompt, user, "duplicate_verdict", verifierSchema())
	if err != nil {
		v.log.Warn("Verifier call failed, failing closed", "a", a.ID, "b", b.ID, "error", err)
		v.logCall(ctx, user, "", false, err.Error(), usage)
		return VerifyResult{IsDuplicate: false, Confidence: 0, Reasoning: fmt.Sprintf("verifier error: %v", err), Failed: true}
	}

	result, err := parseVerifyResult(obj)
	if err != nil {
		v.log.Warn("Verifier output failed validation, failing closed", "a", a.ID, "b", b.ID, "error", err)
		v.logCall(ctx, user, jsonString(obj), false, err.Error(), usage)
		return VerifyResult{IsDuplicate: false, Confidence: 0, Reasoning: fmt.Sprintf("invalid verifier output: %v", err), Failed: true}
	}

	v.logCall(ctx, user, jsonString(obj), true, "", usage)
	return result
}

// parseVerifyResult validates the completion's untyped JSON at the boundary.
// Anything outside the contract is rejected here; nothing downstream sees raw
// model output.
func parseVerifyResult(obj map[string]any) (VerifyResult, error) {
	isDup, ok := obj["isDuplicate"].(bool)
	if !ok {
		return VerifyResult{}, fmt.Errorf("isDuplicate missing or not a boolean")
	}
	confidence, ok := obj["confidence"].(float64)
	if !ok {
		return VerifyResult{}, fmt.Errorf("confidence missing or not a number")
	}
	if confidence < 0 || confidence > 1 {
		return VerifyResult{}, fmt.Errorf("confidence %v out of range [0,1]", confidence)
	}
	reasoning, ok := obj["reasoning"].(string)
	if !ok {
		return VerifyResult{}, fmt.Errorf("reasoning missing or not a string")
	}
	return VerifyResult{IsDuplicate: isDup, Confidence: confidence, Reasoning: reasoning}, nil
}

func (v *dedupeVerifier) logCall(ctx context.Context, prompt, response string, success bool, errMsg string, usage TokenUsage) {
	if v.aiCallLogRepo == nil {
		return
	}
	usageJSON, _ := json.Marshal(usage)
	_, err := v.aiCallLogRepo.Create(ctx, nil, []*types.AICallLog{{
		CallType: "dedupe_verify",
		Model:    v.client.Model(),
		Prompt:   prompt,
		Response: response,
		Success:  success,
		Error:    errMsg,
		Usage:    datatypes.JSON(usageJSON),
	}})
	if err != nil {
		v.log.Warn("Failed to record ai call log", "error", err)
	}
}

func jsonString(obj map[string]any) string {
	raw, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	return string(raw)
}
