package model

import (
	"errors"
	"time"
)

// ErrTerminal is returned when a verdict is applied to a definition that already has one.
var ErrTerminal = errors.New("codemod definition already has a terminal status")

// CodemodDefinition is a candidate codemod together with its latest verdict.
//
// Definitions are created PENDING by the caller. A terminal definition is never
// changed again; re-validating fixed source means building a new definition.
type CodemodDefinition struct {
	CodemodID          string        `json:"codemod_id" yaml:"codemod_id"`
	PatternID          string        `json:"pattern_id" yaml:"pattern_id" validate:"required"`
	RuleID             string        `json:"rule_id" yaml:"rule_id"`
	Language           string        `json:"language" yaml:"language"`
	CodemodSource      string        `json:"codemod_source" yaml:"codemod_source"`
	Status             CodemodStatus `json:"status" yaml:"status"`
	TransformSignature string        `json:"transform_signature,omitempty" yaml:"transform_signature,omitempty"`
	GeneratedAt        time.Time     `json:"generated_at" yaml:"generated_at"`
	ReplayResult       *ReplayResult `json:"replay_result,omitempty" yaml:"-"`
}

// WithVerdict returns a copy of d carrying the given terminal status and result.
func (d CodemodDefinition) WithVerdict(status CodemodStatus, result *ReplayResult) (CodemodDefinition, error) {
	if d.Status.IsTerminal() {
		return d, ErrTerminal
	}
	if !status.IsTerminal() {
		return d, errors.New("verdict status must be terminal")
	}
	d.Status = status
	d.ReplayResult = result
	return d, nil
}

// Active reports whether the codemod may be activated downstream.
func (d CodemodDefinition) Active() bool {
	return d.Status == StatusValidated && d.ReplayResult != nil && d.ReplayResult.Passed
}

// AntiPatternViolation is a single reintroduction of a deprecated pattern.
type AntiPatternViolation struct {
	RuleID      string `json:"rule_id"`
	FilePath    string `json:"file_path"`
	LineNumber  int    `json:"line_number"` // 1-indexed
	MatchedText string `json:"matched_text"`
	PatternID   string `json:"pattern_id"`
}
