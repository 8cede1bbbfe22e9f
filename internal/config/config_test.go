package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10*time.Second, cfg.Replay.CaseTimeout)
	assert.Equal(t, 1, cfg.Replay.Parallelism)
	assert.Equal(t, "go", cfg.Sandbox.GoBinary)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "codemint.yaml", `
replay:
  case_timeout: 3s
  parallelism: 4
  denied_imports: [unsafe, os/exec]
sandbox:
  build_timeout: 45s
  keep_artifacts: true
server:
  addr: 127.0.0.1:9090
log:
  level: debug
`)

	cfg, err := Load(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Replay.CaseTimeout)
	assert.Equal(t, 4, cfg.Replay.Parallelism)
	assert.Equal(t, []string{"unsafe", "os/exec"}, cfg.Replay.DeniedImports)
	assert.Equal(t, 45*time.Second, cfg.Sandbox.BuildTimeout)
	assert.True(t, cfg.Sandbox.KeepArtifacts)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	sb := cfg.SandboxSettings()
	assert.Equal(t, 45*time.Second, sb.BuildTimeout)
	assert.Equal(t, []string{"unsafe", "os/exec"}, cfg.AnalysisSettings().DeniedImports)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "replay:\n  paralellism: 2\n")
	_, err := Load(path, filepath.Join(t.TempDir(), "none.env"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CODEMINT_CASE_TIMEOUT", "1500ms")
	t.Setenv("CODEMINT_PARALLELISM", "2")
	t.Setenv("CODEMINT_LOG_DEV", "true")
	t.Setenv("CODEMINT_DENIED_IMPORTS", "unsafe, net ,")

	cfg, err := Load("", filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Replay.CaseTimeout)
	assert.Equal(t, 2, cfg.Replay.Parallelism)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, []string{"unsafe", "net"}, cfg.Replay.DeniedImports)
}

func TestLoadDotEnv(t *testing.T) {
	envFile := writeFile(t, t.TempDir(), ".env", "CODEMINT_GO_VERSION=1.22\n")
	t.Cleanup(func() { os.Unsetenv("CODEMINT_GO_VERSION") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "1.22", cfg.Sandbox.GoVersion)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"CODEMINT_PARALLELISM":  "0",
		"CODEMINT_CASE_TIMEOUT": "soon",
		"CODEMINT_LOG_LEVEL":    "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("", filepath.Join(t.TempDir(), "none.env"))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnvCollectsErrors(t *testing.T) {
	env := map[string]string{
		"CODEMINT_PARALLELISM":    "many",
		"CODEMINT_KEEP_ARTIFACTS": "perhaps",
	}
	cfg := Default()
	err := cfg.applyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CODEMINT_PARALLELISM")
	assert.Contains(t, err.Error(), "CODEMINT_KEEP_ARTIFACTS")
}
