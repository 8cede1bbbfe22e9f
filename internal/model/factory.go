package model

import (
	"time"

	"github.com/google/uuid"
)

// PatternInfo is the upstream metadata describing a stable fix pattern.
type PatternInfo struct {
	PatternID          string
	RuleID             string
	Language           string
	TransformSignature string
	Description        string
}

// FixPair is a historical fix as recorded upstream.
type FixPair struct {
	PairID   string
	Before   string
	After    string
	FilePath string
}

// NewCodemodDefinition returns a PENDING definition with a fresh ID.
func NewCodemodDefinition(patternID, ruleID, language, source, signature string) CodemodDefinition {
	return CodemodDefinition{
		CodemodID:          uuid.NewString(),
		PatternID:          patternID,
		RuleID:             ruleID,
		Language:           language,
		CodemodSource:      source,
		Status:             StatusPending,
		TransformSignature: signature,
		GeneratedAt:        time.Now().UTC(),
	}
}

// NewReplayCase builds a replay case from a before/after pair.
func NewReplayCase(pairID, before, after, filePath, ruleID string) ReplayCase {
	return ReplayCase{
		PairID:         pairID,
		InputSource:    before,
		ExpectedOutput: after,
		FilePath:       filePath,
		RuleID:         ruleID,
	}
}

// ReplayCasesFromPairs converts historical fixes into replay cases for one rule.
func ReplayCasesFromPairs(ruleID string, pairs []FixPair) []ReplayCase {
	cases := make([]ReplayCase, 0, len(pairs))
	for _, p := range pairs {
		cases = append(cases, NewReplayCase(p.PairID, p.Before, p.After, p.FilePath, ruleID))
	}
	return cases
}

// NewGeneratorSpec assembles the prompt contract for a pattern.
func NewGeneratorSpec(p PatternInfo, examples []BeforeAfter) CodemodGeneratorSpec {
	return CodemodGeneratorSpec{
		RuleID:              p.RuleID,
		Language:            p.Language,
		TransformSignature:  p.TransformSignature,
		BeforeAfterExamples: examples,
		PatternID:           p.PatternID,
		Description:         p.Description,
	}
}

// ExamplesFromPairs turns fix pairs into prompt examples.
func ExamplesFromPairs(pairs []FixPair) []BeforeAfter {
	out := make([]BeforeAfter, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, BeforeAfter{PairID: p.PairID, Before: p.Before, After: p.After})
	}
	return out
}
