// Package sandbox builds candidate codemods and runs them in child processes.
//
// Untrusted source is only ever executed inside a spawned process; the parent
// writes files, invokes the Go toolchain and reads stdout, stderr and the exit
// code back.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrNoToolchain is returned when the go command cannot be found.
var ErrNoToolchain = errors.New("go toolchain not found")

// Sandbox turns candidate source into a runnable program.
type Sandbox interface {
	Build(ctx context.Context, source string) (Program, error)
}

// Program is a built candidate. Each Run is a fresh child process.
type Program interface {
	Run(ctx context.Context, input string, timeout time.Duration) Execution
	Close() error
}

// Execution is everything the parent learns about one child run.
type Execution struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	TimedOut  bool
	Canceled  bool // parent context ended before the child finished
	Truncated bool // stdout hit the output cap; Stdout holds only the first MaxOutputBytes
	Duration  time.Duration
	Err       error // spawn or host error; nil when the child ran
}

// BuildError reports a candidate that parsed but did not compile.
type BuildError struct {
	Stderr   string
	TimedOut bool
	Err      error
}

func (e *BuildError) Error() string {
	if e.TimedOut {
		return "build timed out"
	}
	if e.Stderr != "" {
		return fmt.Sprintf("build failed: %s", e.Stderr)
	}
	return fmt.Sprintf("build failed: %v", e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Config holds sandbox settings.
type Config struct {
	// GoBinary is the go command used to build candidates.
	GoBinary string
	// WorkDir is where per-build arena directories are created.
	WorkDir string
	// BuildTimeout bounds a single go build.
	BuildTimeout time.Duration
	// MaxOutputBytes caps captured stdout and stderr per run.
	MaxOutputBytes int
	// KeepArtifacts leaves arena directories behind for debugging.
	KeepArtifacts bool
	// GoVersion is written to the arena go.mod.
	GoVersion string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GoBinary:       "go",
		WorkDir:        os.TempDir(),
		BuildTimeout:   2 * time.Minute,
		MaxOutputBytes: 4 << 20,
		GoVersion:      "1.21",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.GoBinary == "" {
		c.GoBinary = d.GoBinary
	}
	if c.WorkDir == "" {
		c.WorkDir = d.WorkDir
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = d.BuildTimeout
	}
	if c.MaxOutputBytes <= 0 {
		c.MaxOutputBytes = d.MaxOutputBytes
	}
	if c.GoVersion == "" {
		c.GoVersion = d.GoVersion
	}
	return c
}
