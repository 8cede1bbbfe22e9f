package cli

import (
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aezell/codemint/internal/model"
)

const bareExceptSignature = `-except:
+except Exception:
`

const pySource = `import logging

def handler():
    try:
        work()
    except:
        logging.exception("failed")
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func wantExit(t *testing.T, err error, code int) {
	t.Helper()
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected exit code %d, got error %v", code, err)
	}
	if ee.Code != code {
		t.Fatalf("expected exit code %d, got %d", code, ee.Code)
	}
}

func TestValidateRejectedJob(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", `
codemod:
  pattern_id: pat-bare-except
  rule_id: PY001
  language: python
  source: |
    package main

    func transform(s string) string { return s }
cases:
  - pair_id: fix-1
    before: "except:\n"
    after: "except Exception:\n"
`)

	out, err := run(t, "validate", job, "--format", "text", "--save", "")
	wantExit(t, err, ExitRejected)
	if !strings.Contains(out, "REJECTED") {
		t.Errorf("expected REJECTED in output, got:\n%s", out)
	}
	if !strings.Contains(out, "static check failed") {
		t.Errorf("expected static diagnostic in output, got:\n%s", out)
	}
}

func TestValidateNoCasesJSON(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", `
codemod:
  pattern_id: pat-bare-except
  rule_id: PY001
  source: "package main\n"
`)
	saved := filepath.Join(dir, "verdict.json")

	out, err := run(t, "validate", job, "--format", "json", "--save", saved)
	wantExit(t, err, ExitFailed)

	def, err := loadDefinition(saved)
	if err != nil {
		t.Fatalf("loading saved verdict: %v", err)
	}
	if def.Status != model.StatusFailed {
		t.Errorf("expected FAILED, got %s", def.Status)
	}
	if got := def.ReplayResult.FailureDetails; len(got) != 1 || got[0] != model.NoCasesDetail {
		t.Errorf("unexpected failure details %v", got)
	}
	if !strings.Contains(out, `"status": "FAILED"`) {
		t.Errorf("expected JSON status in output, got:\n%s", out)
	}
}

func TestValidateUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", "codemod:\n  pattern_id: p\n  rule_id: r\n")

	_, err := run(t, "validate", job, "--format", "yaml", "--save", "")
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestDetectFlagsViolations(t *testing.T) {
	dir := t.TempDir()
	sig := writeFile(t, dir, "bare-except.diff", bareExceptSignature)
	src := writeFile(t, dir, "svc/handler.py", pySource)
	clean := writeFile(t, dir, "svc/clean.py", "x = 1\n")

	out, err := run(t, "detect", "--signature", sig, "--rule", "PY001", "--removed-only", "--format", "text", src, clean)
	wantExit(t, err, ExitFailed)

	want := src + ":6: [PY001] except:"
	if !strings.Contains(out, want) {
		t.Errorf("expected %q in output, got:\n%s", want, out)
	}
	if !strings.Contains(out, "1 violation(s)") {
		t.Errorf("expected a single violation, got:\n%s", out)
	}
}

func TestDetectDefaultScopeUsesAddedLines(t *testing.T) {
	dir := t.TempDir()
	sig := writeFile(t, dir, "bare-except.diff", bareExceptSignature)
	src := writeFile(t, dir, "svc/handler.py", pySource)

	out, err := run(t, "detect", "--signature", sig, "--rule", "PY001", src)
	wantExit(t, err, ExitFailed)

	// "except" from the added line also matches logging.exception.
	for _, want := range []string{src + ":6: [PY001] except:", src + ":7: [PY001] logging.exception", "2 violation(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestTokensCommand(t *testing.T) {
	dir := t.TempDir()
	sig := writeFile(t, dir, "sig.diff", bareExceptSignature)

	out, err := run(t, "tokens", sig)
	if err != nil {
		t.Fatalf("tokens failed: %v", err)
	}
	if strings.TrimSpace(out) != "except:\nexcept" {
		t.Errorf("unexpected tokens %q", out)
	}

	out, err = run(t, "tokens", "--removed-only", sig)
	if err != nil {
		t.Fatalf("tokens --removed-only failed: %v", err)
	}
	if strings.TrimSpace(out) != "except:" {
		t.Errorf("unexpected removed-only tokens %q", out)
	}
}

func TestPromptCommand(t *testing.T) {
	dir := t.TempDir()
	job := writeFile(t, dir, "job.yaml", `
codemod:
  pattern_id: pat-bare-except
  rule_id: PY001
  language: python
  description: Replace bare except clauses
cases:
  - pair_id: fix-1
    before: "except:\n"
    after: "except Exception:\n"
`)

	out, err := run(t, "prompt", job)
	if err != nil {
		t.Fatalf("prompt failed: %v", err)
	}
	for _, want := range []string{"pat-bare-except", "except Exception:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestReviewStat(t *testing.T) {
	dir := t.TempDir()
	outcomes := []model.CaseOutcome{
		{PairID: "fix-1", Passed: true},
		{PairID: "fix-2", Failure: model.FailureTimeout, Detail: "timeout after 10s", ExitCode: -1},
	}
	def := model.NewCodemodDefinition("p", "r", "python", "package main\n", "")
	def, err := def.WithVerdict(model.StatusFailed, model.NewReplayResult(outcomes, time.Now()))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "verdict.json")
	if err := saveDefinition(path, def); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "review", path, "--stat", "--job", "", "--write-job", "")
	if err != nil {
		t.Fatalf("review --stat failed: %v", err)
	}
	if !strings.Contains(out, "FAILED  1/2 cases passed") {
		t.Errorf("unexpected stat output:\n%s", out)
	}
	if !strings.Contains(out, "fix-2: timeout after 10s") {
		t.Errorf("expected failure detail, got:\n%s", out)
	}
}

func TestOutputFormats(t *testing.T) {
	outcomes := []model.CaseOutcome{
		{PairID: "fix-1", Passed: true, Duration: 3 * time.Millisecond},
		{
			PairID:  "fix-2",
			Failure: model.FailureMismatch,
			Detail:  `output mismatch at line 1: expected "b\n", got "a\n"`,
			Diff:    "--- expected/x.py\n+++ actual/x.py\n@@ -1 +1 @@\n-b\n+a\n",
		},
	}
	def := model.NewCodemodDefinition("pat|1", "r", "python", "", "")
	def, _ = def.WithVerdict(model.StatusFailed, model.NewReplayResult(outcomes, time.Now()))

	var text strings.Builder
	if err := outputText(&text, def); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "[mismatch]") || !strings.Contains(text.String(), "      +a") {
		t.Errorf("unexpected text output:\n%s", text.String())
	}

	var md strings.Builder
	if err := outputMarkdown(&md, def); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(md.String(), "| `fix-2` | fail (mismatch) |") {
		t.Errorf("unexpected markdown output:\n%s", md.String())
	}
	if !strings.Contains(md.String(), "```diff") {
		t.Error("expected markdown diff block")
	}

	var page strings.Builder
	if err := outputHTML(&page, def); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page.String(), "&#34;b\\n&#34;") {
		t.Errorf("expected escaped detail in HTML output")
	}

	var js strings.Builder
	if err := outputJSON(&js, def); err != nil {
		t.Fatal(err)
	}
	var back model.CodemodDefinition
	if err := json.Unmarshal([]byte(js.String()), &back); err != nil {
		t.Fatalf("JSON output does not decode: %v", err)
	}
	if back.ReplayResult.CasesFailed != 1 {
		t.Errorf("expected one failed case after decoding, got %d", back.ReplayResult.CasesFailed)
	}
}

func TestStatusExitCode(t *testing.T) {
	tests := map[model.CodemodStatus]int{
		model.StatusValidated: ExitOK,
		model.StatusFailed:    ExitFailed,
		model.StatusRejected:  ExitRejected,
		model.StatusPending:   ExitFailed,
	}
	for status, want := range tests {
		if got := statusExitCode(status); got != want {
			t.Errorf("statusExitCode(%s) = %d, want %d", status, got, want)
		}
	}
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1", "HOME="+dir,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
	return strings.TrimSpace(string(out))
}

func TestCorpusWritesJob(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	repo := t.TempDir()
	git(t, repo, "init", "-q")
	writeFile(t, repo, "app.py", pySource)
	git(t, repo, "add", "app.py")
	git(t, repo, "commit", "-q", "-m", "initial")
	writeFile(t, repo, "app.py", strings.Replace(pySource, "except:", "except Exception:", 1))
	git(t, repo, "commit", "-q", "-am", "fix bare except")
	head := git(t, repo, "rev-parse", "HEAD")

	jobPath := filepath.Join(t.TempDir(), "job.yaml")
	_, err := run(t, "corpus", "--repo", repo, "--pattern", "pat-bare-except", "--rule", "PY001",
		"--language", "python", "--fix", head+":app.py", "--out", jobPath)
	if err != nil {
		t.Fatalf("corpus failed: %v", err)
	}

	out, err := run(t, "prompt", jobPath)
	if err != nil {
		t.Fatalf("prompt on generated job failed: %v", err)
	}
	if !strings.Contains(out, "rewrites python source code") {
		t.Errorf("unexpected prompt:\n%s", out)
	}

	data, err := os.ReadFile(jobPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"pat-bare-except", ":app.py", "except Exception:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected job to contain %q:\n%s", want, data)
		}
	}
}
