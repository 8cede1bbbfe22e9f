// Package analysis implements the static checks run on candidate codemod source.
//
// Every pass only parses; nothing here ever executes the candidate.
package analysis

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"

	"github.com/aezell/codemint/internal/model"
)

// Finding is a single static-analysis finding on the candidate source.
type Finding struct {
	Pass     string // which analysis pass produced this
	Line     int    // 0 if not tied to a line
	Message  string
	Severity model.Severity
	Risk     model.RiskLevel
}

func (f Finding) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s", f.Pass, f.Line, f.Message)
	}
	return fmt.Sprintf("[%s] %s", f.Pass, f.Message)
}

// Blocking reports whether the finding rejects the candidate.
func (f Finding) Blocking() bool {
	return f.Severity == model.SeverityError
}

// Results holds all findings from running analysis passes.
type Results struct {
	Findings []Finding
}

// Blocking returns the findings that reject the candidate, in pass order.
func (r *Results) Blocking() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Blocking() {
			out = append(out, f)
		}
	}
	return out
}

// OK reports whether no blocking finding was produced.
func (r *Results) OK() bool {
	return len(r.Blocking()) == 0
}

// Reason joins the blocking messages into one diagnostic.
func (r *Results) Reason() string {
	var parts []string
	for _, f := range r.Blocking() {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// MaxRisk returns the highest risk level among all findings.
func (r *Results) MaxRisk() model.RiskLevel {
	max := model.RiskInfo
	for _, f := range r.Findings {
		if f.Risk > max {
			max = f.Risk
		}
	}
	return max
}

// Summary returns a one-line summary of findings.
func (r *Results) Summary() string {
	if len(r.Findings) == 0 {
		return "No issues found"
	}
	blocking := len(r.Blocking())
	return fmt.Sprintf("%d finding(s), %d blocking", len(r.Findings), blocking)
}

// Source is a parsed candidate handed to each pass.
type Source struct {
	Fset *token.FileSet
	File *ast.File
}

// Pass inspects a parsed candidate and returns findings.
type Pass func(src *Source, cfg Config) []Finding

// Config tunes the passes.
type Config struct {
	// EntryPoint is the function the harness calls.
	EntryPoint string
	// DeniedImports are rejected outright.
	DeniedImports []string
}

// DefaultDeniedImports lists packages a codemod has no business importing.
var DefaultDeniedImports = []string{
	"C",
	"unsafe",
	"syscall",
	"os/exec",
	"os/signal",
	"net",
	"net/http",
	"plugin",
	"runtime/cgo",
	"runtime/debug",
}

// DefaultConfig returns the configuration used by the replay validator.
func DefaultConfig() Config {
	return Config{
		EntryPoint:    "apply",
		DeniedImports: DefaultDeniedImports,
	}
}

// AllPasses returns the ordered list of passes run after parsing succeeds.
func AllPasses() []Pass {
	return []Pass{
		EntryPointPass,
		ImportPass,
		CallSurfacePass,
	}
}

// Run parses source and executes every pass. A parse failure short-circuits
// with a single blocking syntax finding.
func Run(source string, cfg Config) *Results {
	if cfg.EntryPoint == "" {
		cfg.EntryPoint = "apply"
	}

	results := &Results{}

	if strings.TrimSpace(source) == "" {
		results.Findings = append(results.Findings, Finding{
			Pass:     "syntax",
			Message:  "codemod source is empty",
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		})
		return results
	}

	src, finding := parseSource(source)
	if finding != nil {
		results.Findings = append(results.Findings, *finding)
		return results
	}

	for _, pass := range AllPasses() {
		results.Findings = append(results.Findings, pass(src, cfg)...)
	}
	return results
}

func parseSource(source string) (*Source, *Finding) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "codemod.go", NormalizePackage(source), parser.SkipObjectResolution)
	if err != nil {
		line := 0
		if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
			line = list[0].Pos.Line
		}
		return nil, &Finding{
			Pass:     "syntax",
			Line:     line,
			Message:  fmt.Sprintf("codemod source does not parse: %v", err),
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		}
	}
	return &Source{Fset: fset, File: file}, nil
}
