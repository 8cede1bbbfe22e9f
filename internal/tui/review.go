package tui

import (
	"fmt"
	"strings"

	"github.com/aezell/codemint/internal/model"
)

// Decision is a reviewer's verdict on whether a replay case belongs in the corpus.
type Decision int

const (
	DecisionKeep Decision = iota + 1
	DecisionDrop
)

func (d Decision) String() string {
	switch d {
	case DecisionKeep:
		return "keep"
	case DecisionDrop:
		return "drop"
	default:
		return "pending"
	}
}

// ReviewResult holds the outcome of an interactive review session.
type ReviewResult struct {
	Decisions map[int]Decision
	Outcomes  []model.CaseOutcome
}

// KeptPairs returns the pair IDs marked keep.
func (r *ReviewResult) KeptPairs() []string {
	return r.pairs(func(d Decision, ok bool) bool { return ok && d == DecisionKeep })
}

// DroppedPairs returns the pair IDs marked drop.
func (r *ReviewResult) DroppedPairs() []string {
	return r.pairs(func(d Decision, ok bool) bool { return ok && d == DecisionDrop })
}

// PendingPairs returns pair IDs with no decision.
func (r *ReviewResult) PendingPairs() []string {
	return r.pairs(func(_ Decision, ok bool) bool { return !ok })
}

func (r *ReviewResult) pairs(match func(Decision, bool) bool) []string {
	var ids []string
	for i, o := range r.Outcomes {
		d, ok := r.Decisions[i]
		if match(d, ok) {
			ids = append(ids, o.PairID)
		}
	}
	return ids
}

// Summary describes the session in a few lines suitable for stderr.
func (r *ReviewResult) Summary() string {
	kept, dropped, pending := r.KeptPairs(), r.DroppedPairs(), r.PendingPairs()

	var b strings.Builder
	fmt.Fprintf(&b, "Reviewed %d case(s): %d kept, %d dropped, %d pending\n",
		len(r.Outcomes), len(kept), len(dropped), len(pending))
	if len(dropped) > 0 {
		b.WriteString("\nDropped cases:\n")
		for _, id := range dropped {
			fmt.Fprintf(&b, "  - %s\n", id)
		}
	}
	return b.String()
}
