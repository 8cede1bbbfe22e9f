package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/antipattern"
	"github.com/aezell/codemint/internal/model"
)

var detectCmd = &cobra.Command{
	Use:   "detect --signature <file> [paths...]",
	Short: "Flag files that reintroduce a deprecated pattern",
	Long: `Build an anti-pattern detector from each transform signature and check
every file against all of them. With no paths, or "-", source is read
from stdin.

Exit codes:
  0 - clean
  1 - violations found`,
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().StringArrayP("signature", "s", nil, "transform signature file (repeatable)")
	detectCmd.Flags().String("pattern", "", "pattern ID (default: signature file name)")
	detectCmd.Flags().String("rule", "", "rule ID reported with each violation")
	detectCmd.Flags().StringP("format", "f", "text", "output format: text, json")
	detectCmd.Flags().Bool("removed-only", false, "take tokens from removed signature lines only")
	_ = detectCmd.MarkFlagRequired("signature")
}

func runDetect(cmd *cobra.Command, args []string) error {
	sigPaths, _ := cmd.Flags().GetStringArray("signature")
	patternID, _ := cmd.Flags().GetString("pattern")
	ruleID, _ := cmd.Flags().GetString("rule")
	scope := tokenScope(cmd)
	if patternID != "" && len(sigPaths) > 1 {
		return fmt.Errorf("--pattern needs exactly one --signature")
	}

	reg, err := antipattern.NewRegistry(cfg.Detectors.RegistrySize, logger)
	if err != nil {
		return err
	}
	for _, p := range sigPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading signature: %w", err)
		}
		id := patternID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
		v := antipattern.FromScopedSignature(id, ruleID, string(data), "", scope)
		if len(v.Tokens()) == 0 {
			logger.Warn("signature yields no tokens; detector never matches", zap.String("signature", p))
		}
		reg.Register(v)
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	var violations []model.AntiPatternViolation
	for _, path := range args {
		src, name, err := readSource(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		violations = append(violations, reg.CheckAll(src, name)...)
	}

	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		if violations == nil {
			violations = []model.AntiPatternViolation{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(violations); err != nil {
			return err
		}
	case "text":
		writeViolations(out, violations)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if len(violations) > 0 {
		return &ExitError{Code: ExitFailed}
	}
	return nil
}

func tokenScope(cmd *cobra.Command) antipattern.Scope {
	if removedOnly, _ := cmd.Flags().GetBool("removed-only"); removedOnly {
		return antipattern.ScopeRemoved
	}
	return antipattern.ScopeContent
}

func readSource(stdin io.Reader, path string) (source, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), path, nil
}

func writeViolations(w io.Writer, violations []model.AntiPatternViolation) {
	if len(violations) == 0 {
		fmt.Fprintln(w, "No violations found.")
		return
	}
	for _, v := range violations {
		rule := v.RuleID
		if rule == "" {
			rule = v.PatternID
		}
		fmt.Fprintf(w, "%s:%d: [%s] %s\n", v.FilePath, v.LineNumber, rule, v.MatchedText)
	}
	fmt.Fprintf(w, "\n%d violation(s)\n", len(violations))
}
