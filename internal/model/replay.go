package model

import (
	"fmt"
	"time"
)

// ReplayCase is one historical (before, after) pair a codemod must reproduce.
type ReplayCase struct {
	PairID         string `json:"pair_id" yaml:"pair_id" validate:"required"`
	InputSource    string `json:"input_source" yaml:"input_source"`
	ExpectedOutput string `json:"expected_output" yaml:"expected_output"`
	FilePath       string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	RuleID         string `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
}

// CaseOutcome is the structured result of running a single replay case.
type CaseOutcome struct {
	PairID       string        `json:"pair_id"`
	Passed       bool          `json:"passed"`
	Failure      FailureKind   `json:"failure"`
	Detail       string        `json:"detail,omitempty"`
	ExitCode     int           `json:"exit_code"`
	Duration     time.Duration `json:"duration"`
	ActualOutput string        `json:"actual_output,omitempty"`
	Diff         string        `json:"diff,omitempty"` // unified expected-vs-actual, mismatches only
}

// FailureDetail formats the outcome as a "<pair_id>: <diagnostic>" line.
func (o CaseOutcome) FailureDetail() string {
	return fmt.Sprintf("%s: %s", o.PairID, o.Detail)
}

// ReplayResult aggregates the outcomes of one validation run.
//
// CasesPassed+CasesFailed == CasesTotal and Passed == (CasesFailed == 0 && CasesTotal > 0)
// hold for every value built by NewReplayResult or NoCasesResult.
type ReplayResult struct {
	Passed         bool          `json:"passed"`
	CasesTotal     int           `json:"cases_total"`
	CasesPassed    int           `json:"cases_passed"`
	CasesFailed    int           `json:"cases_failed"`
	FailingCaseIDs []string      `json:"failing_case_ids"`
	FailureDetails []string      `json:"failure_details"`
	ValidatedAt    time.Time     `json:"validated_at"`
	Duration       time.Duration `json:"duration"`
	Cases          []CaseOutcome `json:"cases,omitempty"`
}

// NoCasesDetail is the diagnostic recorded when validation is attempted without cases.
const NoCasesDetail = "no replay cases provided"

// NewReplayResult aggregates outcomes, preserving their order.
func NewReplayResult(outcomes []CaseOutcome, at time.Time) *ReplayResult {
	r := &ReplayResult{
		CasesTotal:     len(outcomes),
		FailingCaseIDs: []string{},
		FailureDetails: []string{},
		ValidatedAt:    at.UTC(),
		Cases:          outcomes,
	}
	for _, o := range outcomes {
		if o.Passed {
			r.CasesPassed++
			continue
		}
		r.CasesFailed++
		r.FailingCaseIDs = append(r.FailingCaseIDs, o.PairID)
		r.FailureDetails = append(r.FailureDetails, o.FailureDetail())
	}
	r.Passed = r.CasesFailed == 0 && r.CasesTotal > 0
	return r
}

// NoCasesResult is the result recorded when there was nothing to replay.
func NoCasesResult(at time.Time) *ReplayResult {
	return &ReplayResult{
		FailingCaseIDs: []string{},
		FailureDetails: []string{NoCasesDetail},
		ValidatedAt:    at.UTC(),
	}
}

// FailAll builds outcomes that fail every case with the same kind and detail.
func FailAll(cases []ReplayCase, kind FailureKind, detail string) []CaseOutcome {
	outcomes := make([]CaseOutcome, len(cases))
	for i, c := range cases {
		outcomes[i] = CaseOutcome{
			PairID:   c.PairID,
			Failure:  kind,
			Detail:   detail,
			ExitCode: -1,
		}
	}
	return outcomes
}

// Summary returns a one-line summary of the result.
func (r *ReplayResult) Summary() string {
	if r == nil {
		return "not validated"
	}
	if r.CasesTotal == 0 {
		return NoCasesDetail
	}
	return fmt.Sprintf("%d/%d cases passed", r.CasesPassed, r.CasesTotal)
}

// Outcome returns the outcome recorded for pairID, if any.
func (r *ReplayResult) Outcome(pairID string) (CaseOutcome, bool) {
	if r == nil {
		return CaseOutcome{}, false
	}
	for _, o := range r.Cases {
		if o.PairID == pairID {
			return o, true
		}
	}
	return CaseOutcome{}, false
}
