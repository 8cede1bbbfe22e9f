// Package config loads codemint settings from defaults, an optional YAML file,
// a .env file and CODEMINT_* environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aezell/codemint/internal/analysis"
	"github.com/aezell/codemint/internal/antipattern"
	"github.com/aezell/codemint/internal/replay"
	"github.com/aezell/codemint/internal/sandbox"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CODEMINT_"

// Config is the full codemint configuration.
type Config struct {
	Replay    ReplayConfig   `yaml:"replay"`
	Sandbox   SandboxConfig  `yaml:"sandbox"`
	Server    ServerConfig   `yaml:"server"`
	Detectors DetectorConfig `yaml:"detectors"`
	Log       LogConfig      `yaml:"log"`
}

// ReplayConfig tunes the replay validator.
type ReplayConfig struct {
	CaseTimeout   time.Duration `yaml:"case_timeout" validate:"gt=0"`
	Parallelism   int           `yaml:"parallelism" validate:"gte=1,lte=64"`
	DeniedImports []string      `yaml:"denied_imports"`
}

// SandboxConfig tunes candidate builds and runs.
type SandboxConfig struct {
	GoBinary       string        `yaml:"go_binary" validate:"required"`
	GoVersion      string        `yaml:"go_version" validate:"required"`
	WorkDir        string        `yaml:"work_dir"`
	BuildTimeout   time.Duration `yaml:"build_timeout" validate:"gt=0"`
	MaxOutputBytes int           `yaml:"max_output_bytes" validate:"gte=1024"`
	KeepArtifacts  bool          `yaml:"keep_artifacts"`
}

// ServerConfig configures `codemint serve`.
type ServerConfig struct {
	Addr         string `yaml:"addr" validate:"required"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" validate:"gte=1024"`
}

// DetectorConfig configures the anti-pattern registry.
type DetectorConfig struct {
	RegistrySize int `yaml:"registry_size" validate:"gte=1"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() *Config {
	sb := sandbox.DefaultConfig()
	return &Config{
		Replay: ReplayConfig{
			CaseTimeout:   replay.DefaultCaseTimeout,
			Parallelism:   1,
			DeniedImports: append([]string(nil), analysis.DefaultDeniedImports...),
		},
		Sandbox: SandboxConfig{
			GoBinary:       sb.GoBinary,
			GoVersion:      sb.GoVersion,
			WorkDir:        sb.WorkDir,
			BuildTimeout:   sb.BuildTimeout,
			MaxOutputBytes: sb.MaxOutputBytes,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 8 << 20,
		},
		Detectors: DetectorConfig{RegistrySize: antipattern.DefaultRegistrySize},
		Log:       LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty; envFiles default to ".env"
// and a missing env file is not an error.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnv overrides fields from CODEMINT_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	var errs []error
	duration := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	str := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	duration("CASE_TIMEOUT", &c.Replay.CaseTimeout)
	integer("PARALLELISM", &c.Replay.Parallelism)
	if v, ok := get("DENIED_IMPORTS"); ok {
		c.Replay.DeniedImports = splitList(v)
	}
	str("GO_BINARY", &c.Sandbox.GoBinary)
	str("GO_VERSION", &c.Sandbox.GoVersion)
	str("WORK_DIR", &c.Sandbox.WorkDir)
	duration("BUILD_TIMEOUT", &c.Sandbox.BuildTimeout)
	integer("MAX_OUTPUT_BYTES", &c.Sandbox.MaxOutputBytes)
	boolean("KEEP_ARTIFACTS", &c.Sandbox.KeepArtifacts)
	str("ADDR", &c.Server.Addr)
	integer("REGISTRY_SIZE", &c.Detectors.RegistrySize)
	str("LOG_LEVEL", &c.Log.Level)
	boolean("LOG_DEV", &c.Log.Development)

	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SandboxSettings converts to the sandbox package's configuration.
func (c *Config) SandboxSettings() sandbox.Config {
	return sandbox.Config{
		GoBinary:       c.Sandbox.GoBinary,
		WorkDir:        c.Sandbox.WorkDir,
		BuildTimeout:   c.Sandbox.BuildTimeout,
		MaxOutputBytes: c.Sandbox.MaxOutputBytes,
		KeepArtifacts:  c.Sandbox.KeepArtifacts,
		GoVersion:      c.Sandbox.GoVersion,
	}
}

// AnalysisSettings returns the static-check configuration.
func (c *Config) AnalysisSettings() analysis.Config {
	cfg := analysis.DefaultConfig()
	if c.Replay.DeniedImports != nil {
		cfg.DeniedImports = c.Replay.DeniedImports
	}
	return cfg
}
