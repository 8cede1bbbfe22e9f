package model

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRiskLevelString(t *testing.T) {
	tests := []struct {
		level RiskLevel
		want  string
	}{
		{RiskInfo, "info"},
		{RiskLow, "low"},
		{RiskMedium, "medium"},
		{RiskHigh, "high"},
		{RiskCritical, "critical"},
		{RiskLevel(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("RiskLevel(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   CodemodStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusValidated, true},
		{StatusFailed, true},
		{StatusRejected, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestStatusJSON(t *testing.T) {
	d := CodemodDefinition{PatternID: "p1", Status: StatusRejected}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"status":"REJECTED"`) {
		t.Errorf("expected upper-case status on the wire, got %s", raw)
	}

	var back CodemodDefinition
	if err := json.Unmarshal([]byte(`{"pattern_id":"p1","status":"validated"}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Status != StatusValidated {
		t.Errorf("expected VALIDATED, got %s", back.Status)
	}

	if err := json.Unmarshal([]byte(`{"status":"DONE"}`), &back); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestNewReplayResultInvariants(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	outcomes := []CaseOutcome{
		{PairID: "a", Passed: true},
		{PairID: "b", Failure: FailureMismatch, Detail: "output mismatch at line 1"},
		{PairID: "c", Passed: true},
		{PairID: "d", Failure: FailureTimeout, Detail: "timeout after 1s"},
	}

	r := NewReplayResult(outcomes, at)

	if r.CasesTotal != 4 || r.CasesPassed != 2 || r.CasesFailed != 2 {
		t.Fatalf("unexpected counts: %+v", r)
	}
	if r.CasesPassed+r.CasesFailed != r.CasesTotal {
		t.Error("passed + failed must equal total")
	}
	if r.Passed {
		t.Error("result with failures must not pass")
	}
	if strings.Join(r.FailingCaseIDs, ",") != "b,d" {
		t.Errorf("failing ids = %v", r.FailingCaseIDs)
	}
	if r.FailureDetails[1] != "d: timeout after 1s" {
		t.Errorf("detail = %q", r.FailureDetails[1])
	}
	if !r.ValidatedAt.Equal(at) {
		t.Errorf("validated_at = %v", r.ValidatedAt)
	}
}

func TestNoCasesResult(t *testing.T) {
	r := NoCasesResult(time.Now())
	if r.Passed || r.CasesTotal != 0 {
		t.Errorf("empty result must not pass: %+v", r)
	}
	if len(r.FailureDetails) != 1 || r.FailureDetails[0] != NoCasesDetail {
		t.Errorf("details = %v", r.FailureDetails)
	}

	all := NewReplayResult(nil, time.Now())
	if all.Passed {
		t.Error("zero outcomes must not pass")
	}
}

func TestWithVerdict(t *testing.T) {
	d := NewCodemodDefinition("pat", "rule", "python", "package x", "")
	if d.Status != StatusPending {
		t.Fatalf("new definition should be pending, got %s", d.Status)
	}
	if d.CodemodID == "" {
		t.Error("expected generated codemod id")
	}

	r := NewReplayResult([]CaseOutcome{{PairID: "x", Passed: true}}, time.Now())
	done, err := d.WithVerdict(StatusValidated, r)
	if err != nil {
		t.Fatalf("WithVerdict: %v", err)
	}
	if d.Status != StatusPending {
		t.Error("original definition must not be mutated")
	}
	if !done.Active() {
		t.Error("validated definition with passing result should be active")
	}

	if _, err := done.WithVerdict(StatusFailed, r); !errors.Is(err, ErrTerminal) {
		t.Errorf("expected ErrTerminal, got %v", err)
	}
	if _, err := d.WithVerdict(StatusPending, r); err == nil {
		t.Error("expected error for non-terminal verdict")
	}
}

func TestPromptIncludesContract(t *testing.T) {
	spec := NewGeneratorSpec(PatternInfo{
		PatternID:          "pat-1",
		RuleID:             "E722",
		Language:           "python",
		TransformSignature: "-except:\n+except Exception:",
		Description:        "bare except clauses",
	}, ExamplesFromPairs([]FixPair{{PairID: "p1", Before: "except:\n", After: "except Exception:\n"}}))

	prompt, err := spec.Prompt()
	if err != nil {
		t.Fatalf("Prompt: %v", err)
	}
	for _, want := range []string{"func apply(source string) string", "E722", "pat-1", "pair_id: p1", "-except:"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestReplayCasesFromPairs(t *testing.T) {
	cases := ReplayCasesFromPairs("R1", []FixPair{
		{PairID: "1", Before: "a", After: "b", FilePath: "x.py"},
		{PairID: "2", Before: "c", After: "d"},
	})
	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].InputSource != "a" || cases[0].ExpectedOutput != "b" || cases[0].RuleID != "R1" {
		t.Errorf("unexpected case: %+v", cases[0])
	}
}
