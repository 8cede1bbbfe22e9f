package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aezell/codemint/internal/antipattern"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens <signature-file>",
	Short: "Print the detection tokens a transform signature yields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _, err := readSource(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		toks := antipattern.ExtractScopedTokens(src, tokenScope(cmd))
		if len(toks) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No tokens: the detector would never match.")
			return nil
		}
		for _, t := range toks {
			fmt.Fprintln(cmd.OutOrStdout(), t)
		}
		return nil
	},
}

func init() {
	tokensCmd.Flags().Bool("removed-only", false, "take tokens from removed signature lines only")
}
