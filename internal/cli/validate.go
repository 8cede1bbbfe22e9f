package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/aezell/codemint/internal/corpus"
	"github.com/aezell/codemint/internal/model"
	"github.com/aezell/codemint/internal/replay"
	"github.com/aezell/codemint/internal/sandbox"
)

var validateCmd = &cobra.Command{
	Use:   "validate <job.yaml>",
	Short: "Replay a job's historical fixes against its codemod",
	Long: `Build the job's codemod once in a sandbox, run it on every case input and
compare the output with the recorded fix.

Exit codes:
  0 - VALIDATED, every case reproduced
  1 - FAILED, a case failed or nothing could be replayed
  2 - REJECTED, the codemod failed the static check`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown, html")
	validateCmd.Flags().IntP("parallel", "p", 0, "cases to run concurrently (default from config)")
	validateCmd.Flags().Duration("timeout", 0, "per-case timeout (default from job, then config)")
	validateCmd.Flags().Bool("keep", false, "keep sandbox build directories for debugging")
	validateCmd.Flags().StringP("save", "o", "", "also write the JSON verdict to this file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	job, err := corpus.LoadJob(args[0])
	if err != nil {
		return err
	}

	var opts []replay.Option
	if n, _ := cmd.Flags().GetInt("parallel"); n > 0 {
		opts = append(opts, replay.WithParallelism(n))
	}
	keep, _ := cmd.Flags().GetBool("keep")
	v := newValidator(keep, opts...)

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = job.Timeout
	}

	ctx, stop := contextWithSignals(cmd.Context())
	defer stop()

	def := v.Validate(ctx, job.Definition(), job.ReplayCases(), timeout)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := saveDefinition(path, def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Verdict written to %s\n", path)
	}

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		err = outputJSON(out, def)
	case "markdown":
		err = outputMarkdown(out, def)
	case "html":
		err = outputHTML(out, def)
	case "text":
		err = outputText(out, def)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return err
	}

	if code := statusExitCode(def.Status); code != ExitOK {
		return &ExitError{Code: code}
	}
	return nil
}

// newValidator builds a replay validator from the loaded configuration.
func newValidator(keep bool, extra ...replay.Option) *replay.Validator {
	return replay.New(append(validatorOptions(keep), extra...)...)
}

// validatorOptions translates the loaded configuration into replay options.
func validatorOptions(keep bool) []replay.Option {
	sbCfg := cfg.SandboxSettings()
	if keep {
		sbCfg.KeepArtifacts = true
	}
	analysisCfg := cfg.AnalysisSettings()

	return []replay.Option{
		replay.WithLogger(logger),
		replay.WithParallelism(cfg.Replay.Parallelism),
		replay.WithDefaultTimeout(cfg.Replay.CaseTimeout),
		replay.WithAnalysisConfig(analysisCfg),
		replay.WithSandbox(sandbox.NewGoSandbox(sbCfg,
			sandbox.WithLogger(logger),
			sandbox.WithEntryPoint(analysisCfg.EntryPoint))),
	}
}

func statusExitCode(s model.CodemodStatus) int {
	switch s {
	case model.StatusValidated:
		return ExitOK
	case model.StatusRejected:
		return ExitRejected
	default:
		return ExitFailed
	}
}

func saveDefinition(path string, def model.CodemodDefinition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding verdict: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing verdict: %w", err)
	}
	return nil
}

// loadDefinition reads a verdict written by validate --save or --format json.
func loadDefinition(path string) (model.CodemodDefinition, error) {
	var def model.CodemodDefinition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("reading verdict: %w", err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("parsing verdict %s: %w", path, err)
	}
	return def, nil
}

var (
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#50fa7b"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5555"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#bd93f9"))
	diagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb86c"))
	headingStyle = lipgloss.NewStyle().Bold(true)
)

func outputText(w io.Writer, def model.CodemodDefinition) error {
	r := def.ReplayResult
	fmt.Fprintf(w, "%s codemod %s (pattern %s, rule %s)\n",
		headingStyle.Render(def.Status.String()), def.CodemodID, def.PatternID, def.RuleID)
	fmt.Fprintf(w, "Replay: %s", r.Summary())
	if r != nil && r.Duration > 0 {
		fmt.Fprintf(w, " in %s", r.Duration.Round(time.Millisecond))
	}
	fmt.Fprint(w, "\n\n")

	if r == nil {
		return nil
	}
	if r.CasesTotal == 0 {
		for _, d := range r.FailureDetails {
			fmt.Fprintf(w, "  %s\n", diagStyle.Render(d))
		}
		return nil
	}

	for _, o := range r.Cases {
		if o.Passed {
			fmt.Fprintf(w, "  %s %s  %s\n", passStyle.Render("✓"), o.PairID, o.Duration.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(w, "  %s %s  [%s] %s\n", failStyle.Render("✗"), o.PairID, o.Failure, diagStyle.Render(o.Detail))
		if o.Diff != "" {
			writeDiff(w, o.Diff, "      ")
		}
	}
	return nil
}

// writeDiff prints a unified diff with +/- coloring.
func writeDiff(w io.Writer, text, indent string) {
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "@@"):
			line = hunkStyle.Render(line)
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			line = headingStyle.Render(line)
		case strings.HasPrefix(line, "+"):
			line = passStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			line = failStyle.Render(line)
		}
		fmt.Fprintf(w, "%s%s\n", indent, line)
	}
}

func outputJSON(w io.Writer, def model.CodemodDefinition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(def)
}

func outputMarkdown(w io.Writer, def model.CodemodDefinition) error {
	r := def.ReplayResult
	fmt.Fprintf(w, "## Codemod Replay Report\n\n")
	fmt.Fprintf(w, "**Pattern:** `%s` | **Rule:** `%s` | **Status:** %s\n\n", def.PatternID, def.RuleID, def.Status)
	fmt.Fprintf(w, "**Result:** %s\n\n", r.Summary())

	if r == nil || len(r.Cases) == 0 {
		for _, d := range failureDetails(r) {
			fmt.Fprintf(w, "- %s\n", d)
		}
		return nil
	}

	fmt.Fprintln(w, "| Case | Result | Detail |")
	fmt.Fprintln(w, "|------|--------|--------|")
	for _, o := range r.Cases {
		result := "pass"
		if !o.Passed {
			result = "fail (" + o.Failure.String() + ")"
		}
		fmt.Fprintf(w, "| `%s` | %s | %s |\n", o.PairID, result, markdownCell(o.Detail))
	}

	for _, o := range r.Cases {
		if o.Diff == "" {
			continue
		}
		fmt.Fprintf(w, "\n<details><summary><code>%s</code> diff</summary>\n\n```diff\n%s```\n\n</details>\n", o.PairID, o.Diff)
	}
	return nil
}

func failureDetails(r *model.ReplayResult) []string {
	if r == nil {
		return nil
	}
	return r.FailureDetails
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func outputHTML(w io.Writer, def model.CodemodDefinition) error {
	r := def.ReplayResult

	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>codemint Replay Report</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; }
  .summary span { margin-right: 24px; }
  .status-VALIDATED { color: #50fa7b; font-weight: bold; }
  .status-FAILED, .status-REJECTED { color: #ff5555; font-weight: bold; }
  table { width: 100%; border-collapse: collapse; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; vertical-align: top; }
  .pass { color: #50fa7b; }
  .fail { color: #ff5555; }
  code, pre { background: #343746; padding: 2px 6px; border-radius: 4px; font-size: 0.9em; }
  pre { padding: 8px; overflow-x: auto; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>codemint Replay Report</h1>
`)

	fmt.Fprintf(w, `<div class="summary">
  <span>Pattern <code>%s</code></span>
  <span>Rule <code>%s</code></span>
  <span class="status-%s">%s</span>
  <span>%s</span>
</div>
`, html.EscapeString(def.PatternID), html.EscapeString(def.RuleID), def.Status, def.Status, html.EscapeString(r.Summary()))

	if r != nil && len(r.Cases) > 0 {
		fmt.Fprintln(w, `<table>
<thead><tr><th>Case</th><th>Result</th><th>Detail</th></tr></thead>
<tbody>`)
		for _, o := range r.Cases {
			class, result := "pass", "pass"
			if !o.Passed {
				class, result = "fail", "fail ("+o.Failure.String()+")"
			}
			fmt.Fprintf(w, "<tr><td><code>%s</code></td><td class=\"%s\">%s</td><td>%s",
				html.EscapeString(o.PairID), class, result, html.EscapeString(o.Detail))
			if o.Diff != "" {
				fmt.Fprintf(w, "<pre>%s</pre>", html.EscapeString(o.Diff))
			}
			fmt.Fprintln(w, "</td></tr>")
		}
		fmt.Fprintln(w, `</tbody></table>`)
	} else {
		for _, d := range failureDetails(r) {
			fmt.Fprintf(w, "<p class=\"fail\">%s</p>\n", html.EscapeString(d))
		}
	}

	fmt.Fprintln(w, `<footer>Generated by <strong>codemint</strong></footer>
</body>
</html>`)
	return nil
}

// contextWithSignals cancels on SIGINT or SIGTERM.
func contextWithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
