package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aezell/codemint/internal/corpus"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <job.yaml>",
	Short: "Render the codemod generation prompt for a job",
	Long: `Render the instructions a code generator receives for the job's pattern,
with every case included as a before/after example.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := corpus.LoadJob(args[0])
		if err != nil {
			return err
		}
		prompt, err := job.GeneratorSpec().Prompt()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		return nil
	},
}
