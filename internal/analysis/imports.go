package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aezell/codemint/internal/model"
)

// ImportPass rejects denied imports and anything outside the standard library.
// The sandbox builds offline with no module requirements, so third-party
// imports could never compile anyway.
func ImportPass(src *Source, cfg Config) []Finding {
	var findings []Finding

	denied := make(map[string]bool, len(cfg.DeniedImports))
	for _, p := range cfg.DeniedImports {
		denied[p] = true
	}

	for _, imp := range src.File.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			path = strings.Trim(imp.Path.Value, "`\"")
		}
		line := src.Fset.Position(imp.Pos()).Line

		switch {
		case denied[path]:
			findings = append(findings, Finding{
				Pass:     "imports",
				Line:     line,
				Message:  fmt.Sprintf("import %q is not allowed in a codemod", path),
				Severity: model.SeverityError,
				Risk:     model.RiskCritical,
			})
		case !isStdlib(path):
			findings = append(findings, Finding{
				Pass:     "imports",
				Line:     line,
				Message:  fmt.Sprintf("import %q is not a standard-library package", path),
				Severity: model.SeverityError,
				Risk:     model.RiskHigh,
			})
		case imp.Name != nil && imp.Name.Name == ".":
			findings = append(findings, Finding{
				Pass:     "imports",
				Line:     line,
				Message:  fmt.Sprintf("dot import of %q", path),
				Severity: model.SeverityWarning,
				Risk:     model.RiskLow,
			})
		}
	}

	return findings
}

// isStdlib uses the go command's rule: standard-library paths have no dot in
// their first element.
func isStdlib(path string) bool {
	if path == "" {
		return false
	}
	first := path
	if i := strings.Index(path, "/"); i >= 0 {
		first = path[:i]
	}
	return !strings.Contains(first, ".")
}
