package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aezell/codemint/internal/corpus"
	"github.com/aezell/codemint/internal/model"
	"github.com/aezell/codemint/internal/tui"
)

var reviewCmd = &cobra.Command{
	Use:   "review <verdict.json>",
	Short: "Browse a replay verdict interactively",
	Long: `Open a TUI over a verdict written by "codemint validate --save" or
"--format json". With --job, the case inputs and expected outputs are
shown too, and cases marked drop can be written out as a curated job.

Examples:
  codemint validate job.yaml --save verdict.json
  codemint review verdict.json --job job.yaml
  codemint review verdict.json --job job.yaml --write-job curated.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringP("job", "j", "", "job file the verdict came from")
	reviewCmd.Flags().StringP("write-job", "w", "", "write the job minus dropped cases to this file")
	reviewCmd.Flags().Bool("stat", false, "print the verdict summary and exit (non-interactive)")
}

func runReview(cmd *cobra.Command, args []string) error {
	def, err := loadDefinition(args[0])
	if err != nil {
		return err
	}

	if stat, _ := cmd.Flags().GetBool("stat"); stat {
		return printStat(cmd, def)
	}

	jobPath, _ := cmd.Flags().GetString("job")
	writeJob, _ := cmd.Flags().GetString("write-job")
	if writeJob != "" && jobPath == "" {
		return fmt.Errorf("--write-job needs --job")
	}

	var job *corpus.Job
	var cases []model.ReplayCase
	if jobPath != "" {
		if job, err = corpus.LoadJob(jobPath); err != nil {
			return err
		}
		cases = job.ReplayCases()
	}

	result, err := tui.Run(def, cases)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.ErrOrStderr(), result.Summary())

	if writeJob == "" {
		return nil
	}
	dropped := result.DroppedPairs()
	if len(dropped) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No cases dropped; no job written.")
		return nil
	}
	f, err := os.Create(writeJob)
	if err != nil {
		return fmt.Errorf("creating job file: %w", err)
	}
	if err := job.Without(dropped...).Encode(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing job file: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Curated job written to %s\n", writeJob)
	return nil
}

func printStat(cmd *cobra.Command, def model.CodemodDefinition) error {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s  %s\n", def.Status, def.ReplayResult.Summary())
	if def.ReplayResult == nil {
		return nil
	}
	for _, d := range def.ReplayResult.FailureDetails {
		fmt.Fprintf(w, "  %s\n", d)
	}
	return nil
}
