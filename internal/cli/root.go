// Package cli implements the codemint command-line interface.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/config"
	"github.com/aezell/codemint/internal/logging"
)

// Exit codes shared by validate and detect.
const (
	ExitOK       = 0
	ExitFailed   = 1
	ExitRejected = 2
)

// ExitError carries a non-zero exit code without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

var (
	configPath string
	logLevel   string
	devLogs    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "codemint",
	Short: "Validate candidate codemods by replaying historical fixes",
	Long: `codemint replays historical (before, after) fix pairs against a candidate
codemod in an isolated sandbox, and flags files that reintroduce a
deprecated pattern.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if cmd.Flags().Changed("dev") {
			cfg.Log.Development = devLogs
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "human-readable development logs")

	rootCmd.AddCommand(
		validateCmd,
		detectCmd,
		tokensCmd,
		promptCmd,
		corpusCmd,
		reviewCmd,
		serveCmd,
		versionCmd,
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailed
}
