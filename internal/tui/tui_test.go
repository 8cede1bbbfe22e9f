package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aezell/codemint/internal/model"
)

const testDiff = `--- expected/app.py
+++ actual/app.py
@@ -1,4 +1,4 @@
 try:
     x()
-except Exception:
+except:
     pass
`

func testDefinition() (model.CodemodDefinition, []model.ReplayCase) {
	cases := []model.ReplayCase{
		model.NewReplayCase("fix-1", "try:\n    x()\nexcept:\n    pass\n", "try:\n    x()\nexcept Exception:\n    pass\n", "app.py", "PY001"),
		model.NewReplayCase("fix-2", "a = 1\n", "a = 1\n", "b.py", "PY001"),
		model.NewReplayCase("fix-3", "except:\n", "except Exception:\n", "c.py", "PY001"),
	}
	outcomes := []model.CaseOutcome{
		{
			PairID:       "fix-1",
			Failure:      model.FailureMismatch,
			Detail:       `output mismatch at line 3: expected "except Exception:\n", got "except:\n"`,
			ActualOutput: "try:\n    x()\nexcept:\n    pass\n",
			Diff:         testDiff,
			Duration:     12 * time.Millisecond,
		},
		{PairID: "fix-2", Passed: true, ActualOutput: "a = 1\n"},
		{PairID: "fix-3", Failure: model.FailureTimeout, Detail: "timeout after 10s", ExitCode: -1},
	}

	def := model.NewCodemodDefinition("pat-bare-except", "PY001", "python", "package main\n", "")
	def, _ = def.WithVerdict(model.StatusFailed, model.NewReplayResult(outcomes, time.Now()))
	return def, cases
}

func setupModel(t *testing.T) Model {
	t.Helper()
	def, cases := testDefinition()
	m := New(def, cases)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return newM.(Model)
}

func press(m Model, r rune) Model {
	newM, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return newM.(Model)
}

func TestModelInit(t *testing.T) {
	m := setupModel(t)

	if m.caseIndex != 0 {
		t.Errorf("expected caseIndex 0, got %d", m.caseIndex)
	}
	if len(m.lines) == 0 {
		t.Error("expected diff lines to be rendered")
	}
	if m.mode != viewDiff {
		t.Errorf("expected diff view by default, got %s", m.mode)
	}
}

func TestNavigation(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'n')
	if m.caseIndex != 1 {
		t.Errorf("expected caseIndex 1 after next, got %d", m.caseIndex)
	}

	m = press(m, 'n')
	m = press(m, 'n')
	if m.caseIndex != 2 {
		t.Errorf("expected caseIndex 2 at end, got %d", m.caseIndex)
	}

	m = press(m, 'N')
	if m.caseIndex != 1 {
		t.Errorf("expected caseIndex 1 after prev, got %d", m.caseIndex)
	}
}

func TestJumpToFailure(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'f')
	if m.caseIndex != 2 {
		t.Errorf("expected next failure at 2, got %d", m.caseIndex)
	}

	m = press(m, 'f')
	if m.caseIndex != 2 {
		t.Errorf("expected to stay at last failure, got %d", m.caseIndex)
	}

	m = press(m, 'F')
	if m.caseIndex != 0 {
		t.Errorf("expected previous failure at 0, got %d", m.caseIndex)
	}
}

func TestScrolling(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'j')
	if m.scrollOffset != 1 {
		t.Errorf("expected scrollOffset 1, got %d", m.scrollOffset)
	}

	m = press(m, 'k')
	m = press(m, 'k')
	if m.scrollOffset != 0 {
		t.Errorf("expected scrollOffset 0 at top, got %d", m.scrollOffset)
	}
}

func TestToggleCyclesViews(t *testing.T) {
	m := setupModel(t)

	want := []viewMode{viewInput, viewExpected, viewActual, viewDiff}
	for _, w := range want {
		m = press(m, 'v')
		if m.mode != w {
			t.Fatalf("expected %s view, got %s", w, m.mode)
		}
	}

	m = press(m, 'v')
	if len(m.lines) != 4 {
		t.Errorf("expected 4 numbered input lines, got %d", len(m.lines))
	}
	if m.lines[2].Content != "except:" {
		t.Errorf("unexpected third input line %q", m.lines[2].Content)
	}
}

func TestDecisions(t *testing.T) {
	m := setupModel(t)

	m = press(m, 'x') // drop fix-1, advance
	if m.caseIndex != 1 {
		t.Errorf("expected decision to advance to 1, got %d", m.caseIndex)
	}
	m = press(m, 'a') // keep fix-2
	m = press(m, 'a') // keep fix-3, stays on last
	m = press(m, 'u') // clear fix-3

	r := m.Result()
	if got := r.DroppedPairs(); len(got) != 1 || got[0] != "fix-1" {
		t.Errorf("unexpected dropped pairs %v", got)
	}
	if got := r.KeptPairs(); len(got) != 1 || got[0] != "fix-2" {
		t.Errorf("unexpected kept pairs %v", got)
	}
	if got := r.PendingPairs(); len(got) != 1 || got[0] != "fix-3" {
		t.Errorf("unexpected pending pairs %v", got)
	}
	if !strings.Contains(r.Summary(), "1 kept, 1 dropped, 1 pending") {
		t.Errorf("unexpected summary %q", r.Summary())
	}
}

func TestViewRenders(t *testing.T) {
	m := setupModel(t)

	view := m.View()
	for _, want := range []string{"fix-1", "fix-2", "FAIL (mismatch)", "except Exception:", "1/3 cases passed"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestViewWithoutJob(t *testing.T) {
	def, _ := testDefinition()
	m := New(def, nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = press(newM.(Model), 'v')

	if !strings.Contains(m.View(), "no job loaded") {
		t.Error("expected input view to explain the missing job")
	}
}

func TestViewWithoutResult(t *testing.T) {
	def := model.NewCodemodDefinition("p", "r", "go", "", "")
	m := New(def, nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	if !strings.Contains(newM.(Model).View(), "not validated") {
		t.Error("expected an unvalidated definition to say so")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t)

	m = press(m, '?')
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}
}

func TestRenderDiffLineNumbers(t *testing.T) {
	lines := renderDiff(testDiff)
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d", len(lines))
	}
	if !lines[0].IsHeader || !lines[1].IsHeader || !lines[2].IsHunk {
		t.Error("expected two headers then a hunk")
	}

	del, add := lines[5], lines[6]
	if del.Op != gitdiff.OpDelete || del.OldNum != 3 || del.NewNum != 0 {
		t.Errorf("unexpected deleted line %+v", del)
	}
	if add.Op != gitdiff.OpAdd || add.NewNum != 3 || add.OldNum != 0 {
		t.Errorf("unexpected added line %+v", add)
	}
	if lines[7].OldNum != 4 || lines[7].NewNum != 4 {
		t.Errorf("unexpected trailing context %+v", lines[7])
	}
}

func TestParseHunkHeader(t *testing.T) {
	tests := []struct {
		header   string
		old, new int
	}{
		{"@@ -1,4 +1,4 @@", 1, 1},
		{"@@ -3 +3 @@", 3, 3},
		{"@@ -0,0 +1,2 @@", 0, 1},
		{"@@", 0, 0},
	}
	for _, tt := range tests {
		o, n := parseHunkHeader(tt.header)
		if o != tt.old || n != tt.new {
			t.Errorf("parseHunkHeader(%q) = %d, %d; want %d, %d", tt.header, o, n, tt.old, tt.new)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo wörld", 6); got != "héllo…" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("unexpected truncation %q", got)
	}
	if got := truncate("x", 0); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
