package sandbox

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGo(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping toolchain test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}
}

func newTestSandbox(t *testing.T) *GoSandbox {
	t.Helper()
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	return NewGoSandbox(cfg)
}

func build(t *testing.T, sb *GoSandbox, source string) Program {
	t.Helper()
	prog, err := sb.Build(context.Background(), source)
	require.NoError(t, err)
	t.Cleanup(func() { _ = prog.Close() })
	return prog
}

const upperCodemod = `package tools

import "strings"

func apply(source string) string {
	return strings.ToUpper(source)
}
`

func TestBuildAndRun(t *testing.T) {
	requireGo(t)
	prog := build(t, newTestSandbox(t), upperCodemod)

	res := prog.Run(context.Background(), "hello\nworld\n", 10*time.Second)

	require.NoError(t, res.Err)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Equal(t, "HELLO\nWORLD\n", res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestBuildPackageClauseAfterComment(t *testing.T) {
	requireGo(t)
	src := "/*\npackage example\n*/\n" + upperCodemod
	prog := build(t, newTestSandbox(t), src)

	res := prog.Run(context.Background(), "ok", 10*time.Second)

	require.NoError(t, res.Err)
	assert.Equal(t, "OK", res.Stdout)
}

func TestRunStdoutPastCap(t *testing.T) {
	requireGo(t)
	cfg := DefaultConfig()
	cfg.WorkDir = t.TempDir()
	cfg.MaxOutputBytes = 4
	prog := build(t, NewGoSandbox(cfg), upperCodemod)

	res := prog.Run(context.Background(), "abcdef", 10*time.Second)

	require.NoError(t, res.Err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "ABCD", res.Stdout)

	res = prog.Run(context.Background(), "abcd", 10*time.Second)
	assert.False(t, res.Truncated)
	assert.Equal(t, "ABCD", res.Stdout)
}

func TestRunIsFreshPerCall(t *testing.T) {
	requireGo(t)
	src := `package main

var calls int

func apply(source string) string {
	calls++
	if calls > 1 {
		return "shared state"
	}
	return source
}
`
	prog := build(t, newTestSandbox(t), src)

	for i := 0; i < 3; i++ {
		res := prog.Run(context.Background(), "x", 10*time.Second)
		assert.Equal(t, "x", res.Stdout, "run %d should start from a clean process", i)
	}
}

func TestRunTimeout(t *testing.T) {
	requireGo(t)
	src := `package main

func apply(source string) string {
	for {
	}
}
`
	prog := build(t, newTestSandbox(t), src)

	start := time.Now()
	res := prog.Run(context.Background(), "x", 500*time.Millisecond)

	assert.True(t, res.TimedOut)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 5*time.Second, "timeout must not hang the caller")
}

func TestRunPanicExitCode(t *testing.T) {
	requireGo(t)
	src := `package main

func apply(source string) string {
	panic("boom")
}
`
	prog := build(t, newTestSandbox(t), src)

	res := prog.Run(context.Background(), "x", 10*time.Second)

	assert.Equal(t, 2, res.ExitCode)
	assert.Contains(t, res.Stderr, "boom")
	assert.NoError(t, res.Err)
}

func TestRunCanceledParent(t *testing.T) {
	requireGo(t)
	prog := build(t, newTestSandbox(t), upperCodemod)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := prog.Run(ctx, "x", 10*time.Second)

	assert.True(t, res.Canceled)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestBuildError(t *testing.T) {
	requireGo(t)
	src := `package main

func apply(source string) string {
	return undefinedHelper(source)
}
`
	_, err := newTestSandbox(t).Build(context.Background(), src)

	var berr *BuildError
	require.True(t, errors.As(err, &berr), "expected BuildError, got %v", err)
	assert.Contains(t, berr.Stderr, "undefinedHelper")
	assert.NotContains(t, berr.Stderr, os.TempDir()+string(os.PathSeparator)+"codemint-arena-")
}

func TestCloseRemovesArena(t *testing.T) {
	requireGo(t)
	sb := newTestSandbox(t)
	prog, err := sb.Build(context.Background(), upperCodemod)
	require.NoError(t, err)

	arena := prog.(*goProgram).arena
	_, err = os.Stat(arena)
	require.NoError(t, err)

	require.NoError(t, prog.Close())
	_, err = os.Stat(arena)
	assert.True(t, os.IsNotExist(err))
}

func TestNoToolchain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GoBinary = "definitely-not-a-go-binary"
	cfg.WorkDir = t.TempDir()

	_, err := NewGoSandbox(cfg).Build(context.Background(), upperCodemod)

	assert.ErrorIs(t, err, ErrNoToolchain)
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 5}

	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, "abcde", b.String())
	assert.True(t, b.truncated)
}

func TestHarnessCallsEntryPoint(t *testing.T) {
	src := harnessSource("rewrite")
	assert.True(t, strings.Contains(src, "out := rewrite(string(input))"))
	assert.True(t, strings.HasPrefix(src, "package main"))
}
