package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/corpus"
	"github.com/aezell/codemint/internal/diff"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus --pattern <id> --rule <id> --fix <commit:path>...",
	Short: "Build a replay job from historical fix commits",
	Long: `Read the before (commit^) and after (commit) version of each fixed file
from git and write them out as job cases.

Examples:
  codemint corpus --pattern bare-except --rule PY001 --fix a1b2c3d:svc/app.py
  codemint corpus --pattern bare-except --rule PY001 --commit a1b2c3d --path svc/app.py --path svc/db.py`,
	Args: cobra.NoArgs,
	RunE: runCorpus,
}

func init() {
	corpusCmd.Flags().String("repo", ".", "git repository to read fixes from")
	corpusCmd.Flags().String("pattern", "", "pattern ID for the job's codemod")
	corpusCmd.Flags().String("rule", "", "rule ID for the job's codemod")
	corpusCmd.Flags().String("language", "", "source language of the fixed files (default: guessed from the first path)")
	corpusCmd.Flags().StringArray("fix", nil, "fix reference as commit:path (repeatable)")
	corpusCmd.Flags().String("commit", "", "fix commit for every --path")
	corpusCmd.Flags().StringArray("path", nil, "file fixed by --commit (repeatable)")
	corpusCmd.Flags().String("codemod", "", "codemod source file, relative to the written job")
	corpusCmd.Flags().String("signature", "", "transform signature file, relative to the written job")
	corpusCmd.Flags().StringP("out", "o", "", "write the job here instead of stdout")
	_ = corpusCmd.MarkFlagRequired("pattern")
	_ = corpusCmd.MarkFlagRequired("rule")
}

func runCorpus(cmd *cobra.Command, args []string) error {
	refs, err := fixRefs(cmd)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no fixes given: use --fix or --commit with --path")
	}

	repo, _ := cmd.Flags().GetString("repo")
	pattern, _ := cmd.Flags().GetString("pattern")
	rule, _ := cmd.Flags().GetString("rule")
	language, _ := cmd.Flags().GetString("language")
	codemod, _ := cmd.Flags().GetString("codemod")
	signature, _ := cmd.Flags().GetString("signature")

	ctx, stop := contextWithSignals(cmd.Context())
	defer stop()

	cases, err := corpus.CasesFromGit(ctx, repo, "", refs)
	if err != nil {
		return err
	}
	logger.Info("collected fix pairs", zap.String("repo", repo), zap.Int("cases", len(cases)))

	if language == "" {
		language = diff.LanguageOf(refs[0].Path)
	}

	job := &corpus.Job{
		Codemod: corpus.Codemod{
			PatternID:     pattern,
			RuleID:        rule,
			Language:      language,
			SourceFile:    codemod,
			SignatureFile: signature,
		},
		Cases: cases,
	}
	if err := job.Validate(); err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return job.Encode(cmd.OutOrStdout())
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating job file: %w", err)
	}
	if err := job.Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing job file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d case(s) to %s\n", len(cases), out)
	return nil
}

func fixRefs(cmd *cobra.Command) ([]corpus.FixRef, error) {
	fixes, _ := cmd.Flags().GetStringArray("fix")
	commit, _ := cmd.Flags().GetString("commit")
	paths, _ := cmd.Flags().GetStringArray("path")

	var refs []corpus.FixRef
	for _, f := range fixes {
		ref, err := corpus.ParseFixRef(f)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if commit == "" && len(paths) > 0 {
		return nil, fmt.Errorf("--path needs --commit")
	}
	if commit != "" && len(paths) == 0 {
		return nil, fmt.Errorf("--commit needs at least one --path")
	}
	for _, p := range paths {
		refs = append(refs, corpus.FixRef{Commit: commit, Path: p})
	}
	return refs, nil
}
