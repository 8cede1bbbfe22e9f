package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aezell/codemint/internal/antipattern"
	"github.com/aezell/codemint/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP server exposing the codemint engine.

Endpoints:
  GET    /health                     Health check
  GET    /metrics                    Prometheus metrics
  POST   /api/validate               Replay cases against a codemod
  POST   /api/check                  Check a file for anti-patterns
  GET    /api/detectors              List registered detectors
  POST   /api/detectors              Register a detector from a signature
  DELETE /api/detectors/{pattern_id} Remove a detector
  POST   /api/prompt                 Render a codemod generation prompt
  GET    /api/ws                     WebSocket with per-case progress`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	serveCmd.Flags().Duration("shutdown-timeout", 30*time.Second, "grace period for in-flight requests")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	grace, _ := cmd.Flags().GetDuration("shutdown-timeout")

	reg, err := antipattern.NewRegistry(cfg.Detectors.RegistrySize, logger)
	if err != nil {
		return err
	}

	srv, err := api.New(addr,
		api.WithLogger(logger),
		api.WithRegistry(reg),
		api.WithValidatorOptions(validatorOptions(false)...),
		api.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	)
	if err != nil {
		return err
	}

	ctx, stop := contextWithSignals(cmd.Context())
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", zap.Duration("grace", grace))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
