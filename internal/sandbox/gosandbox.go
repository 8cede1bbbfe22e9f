package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/analysis"
)

// GoSandbox builds candidates with the local Go toolchain into throwaway arena
// directories and runs the resulting binary once per input.
type GoSandbox struct {
	config Config
	entry  string
	logger *zap.Logger
}

// Option configures a GoSandbox.
type Option func(*GoSandbox)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *GoSandbox) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEntryPoint changes the function the harness calls.
func WithEntryPoint(name string) Option {
	return func(s *GoSandbox) {
		if name != "" {
			s.entry = name
		}
	}
}

// NewGoSandbox creates a sandbox with the given configuration.
func NewGoSandbox(config Config, opts ...Option) *GoSandbox {
	s := &GoSandbox{
		config: config.withDefaults(),
		entry:  "apply",
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build writes the candidate, the harness and a go.mod into a fresh arena and
// compiles them. The returned Program owns the arena until Close.
func (s *GoSandbox) Build(ctx context.Context, source string) (Program, error) {
	goBin, err := exec.LookPath(s.config.GoBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoToolchain, err)
	}

	if err := os.MkdirAll(s.config.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}
	arena, err := os.MkdirTemp(s.config.WorkDir, "codemint-arena-*")
	if err != nil {
		return nil, fmt.Errorf("creating arena: %w", err)
	}

	cleanup := func() {
		if !s.config.KeepArtifacts {
			os.RemoveAll(arena)
		}
	}

	files := map[string]string{
		candidateFile: analysis.NormalizePackage(source),
		harnessFile:   harnessSource(s.entry),
		"go.mod":      goModSource(s.config.GoVersion),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(arena, name), []byte(content), 0o644); err != nil {
			cleanup()
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	binPath := filepath.Join(arena, binaryName)
	if runtime.GOOS == "windows" {
		binPath += ".exe"
	}

	buildCtx, cancel := context.WithTimeout(ctx, s.config.BuildTimeout)
	defer cancel()

	cmd := exec.CommandContext(buildCtx, goBin, "build", "-trimpath", "-o", binPath, ".")
	cmd.Dir = arena
	cmd.Env = buildEnv()
	stderr := &cappedBuffer{limit: s.config.MaxOutputBytes}
	cmd.Stderr = stderr
	cmd.Stdout = stderr
	configureProcess(cmd)
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	s.logger.Debug("building candidate", zap.String("arena", arena))
	if err := cmd.Run(); err != nil {
		cleanup()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("build canceled: %w", ctx.Err())
		}
		berr := &BuildError{
			Stderr:   strings.TrimSpace(stripArenaPaths(stderr.String(), arena)),
			TimedOut: errors.Is(buildCtx.Err(), context.DeadlineExceeded),
			Err:      err,
		}
		s.logger.Debug("candidate build failed", zap.Error(berr), zap.Duration("duration", time.Since(start)))
		return nil, berr
	}

	s.logger.Debug("candidate built", zap.String("binary", binPath), zap.Duration("duration", time.Since(start)))

	return &goProgram{
		arena:  arena,
		binary: binPath,
		config: s.config,
		logger: s.logger,
	}, nil
}

// buildEnv inherits the caller's toolchain settings but forbids cgo, network
// module fetches, workspaces and toolchain switching.
func buildEnv() []string {
	return append(os.Environ(),
		"CGO_ENABLED=0",
		"GOFLAGS=-mod=mod",
		"GOPROXY=off",
		"GOWORK=off",
		"GOTOOLCHAIN=local",
	)
}

// stripArenaPaths makes compiler output independent of the temp dir name.
func stripArenaPaths(s, arena string) string {
	s = strings.ReplaceAll(s, arena+string(filepath.Separator), "")
	return strings.ReplaceAll(s, arena, ".")
}

type goProgram struct {
	arena  string
	binary string
	config Config
	logger *zap.Logger
}

// Run executes the binary with input on stdin under a hard wall-clock timeout.
func (p *goProgram) Run(ctx context.Context, input string, timeout time.Duration) Execution {
	if err := ctx.Err(); err != nil {
		return Execution{ExitCode: -1, Canceled: true, Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.binary)
	cmd.Dir = p.arena
	cmd.Env = []string{
		"HOME=" + p.arena,
		"TMPDIR=" + p.arena,
	}
	cmd.Stdin = strings.NewReader(input)
	stdout := &cappedBuffer{limit: p.config.MaxOutputBytes}
	stderr := &cappedBuffer{limit: p.config.MaxOutputBytes}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureProcess(cmd)
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()

	res := Execution{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  0,
		Truncated: stdout.truncated,
		Duration:  time.Since(start),
	}

	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.Canceled = true
		res.ExitCode = -1
		res.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		res.ExitCode = -1
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			res.Err = err
		}
	}

	return res
}

// Close removes the arena unless artifacts are kept.
func (p *goProgram) Close() error {
	if p.config.KeepArtifacts {
		p.logger.Info("keeping sandbox artifacts", zap.String("arena", p.arena))
		return nil
	}
	return os.RemoveAll(p.arena)
}
