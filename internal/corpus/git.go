package corpus

import (
	"context"
	"fmt"
	"strings"

	"github.com/aezell/codemint/internal/diff"
	"github.com/aezell/codemint/internal/model"
)

// FixRef points at one file changed by a historical fix commit.
type FixRef struct {
	Commit string `yaml:"commit" json:"commit"`
	Path   string `yaml:"path" json:"path"`
}

// ParseFixRef parses "<commit>:<path>".
func ParseFixRef(s string) (FixRef, error) {
	commit, path, ok := strings.Cut(s, ":")
	if !ok || commit == "" || path == "" {
		return FixRef{}, fmt.Errorf("invalid fix reference %q: want <commit>:<path>", s)
	}
	return FixRef{Commit: commit, Path: path}, nil
}

// CasesFromGit builds one case per ref: the file at the commit's parent is the
// input and the file at the commit is the expected output. Pair IDs are
// "<short-commit>:<path>".
func CasesFromGit(ctx context.Context, repoDir, ruleID string, refs []FixRef) ([]Case, error) {
	cases := make([]Case, 0, len(refs))
	for _, ref := range refs {
		short, err := diff.GitShortRev(ctx, repoDir, ref.Commit)
		if err != nil {
			return nil, err
		}
		before, err := diff.GitShow(ctx, repoDir, ref.Commit+"^", ref.Path)
		if err != nil {
			return nil, fmt.Errorf("reading before of %s: %w", short, err)
		}
		after, err := diff.GitShow(ctx, repoDir, ref.Commit, ref.Path)
		if err != nil {
			return nil, fmt.Errorf("reading after of %s: %w", short, err)
		}
		cases = append(cases, Case{
			PairID:   short + ":" + ref.Path,
			FilePath: ref.Path,
			RuleID:   ruleID,
			Before:   before,
			After:    after,
		})
	}
	return cases, nil
}

// FromGit builds replay cases from historical fix commits.
func FromGit(ctx context.Context, repoDir, ruleID string, refs []FixRef) ([]model.ReplayCase, error) {
	cases, err := CasesFromGit(ctx, repoDir, ruleID, refs)
	if err != nil {
		return nil, err
	}
	job := Job{Codemod: Codemod{RuleID: ruleID}, Cases: cases}
	return job.ReplayCases(), nil
}
