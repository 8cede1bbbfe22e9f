package analysis

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/aezell/codemint/internal/model"
)

// Call surfaces a codemod should not touch, grouped by category.
var callSurfaces = []struct {
	category string
	calls    []string
	risk     model.RiskLevel
}{
	{
		category: "file system",
		calls: []string{
			"os.Remove", "os.RemoveAll", "os.Rename", "os.WriteFile", "os.Create",
			"os.OpenFile", "os.Chmod", "os.Chown", "os.Mkdir", "os.MkdirAll", "os.Symlink",
		},
		risk: model.RiskHigh,
	},
	{
		category: "environment",
		calls:    []string{"os.Getenv", "os.LookupEnv", "os.Setenv", "os.Environ"},
		risk:     model.RiskMedium,
	},
	{
		category: "process",
		calls:    []string{"os.Exit", "os.StartProcess", "os.FindProcess"},
		risk:     model.RiskHigh,
	},
	{
		category: "stdio",
		calls:    []string{"fmt.Print", "fmt.Printf", "fmt.Println", "os.Stdout.Write", "os.Stdout.WriteString"},
		risk:     model.RiskMedium,
	},
}

// CallSurfacePass warns about calls that step outside a pure string transform.
// Writes to stdout are flagged because the harness treats stdout as the result.
func CallSurfacePass(src *Source, cfg Config) []Finding {
	var findings []Finding
	seen := make(map[string]bool)

	ast.Inspect(src.File, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.GoStmt:
			findings = append(findings, Finding{
				Pass:     "calls",
				Line:     src.Fset.Position(node.Pos()).Line,
				Message:  "codemod starts a goroutine",
				Severity: model.SeverityWarning,
				Risk:     model.RiskLow,
			})
		case *ast.CallExpr:
			name := selectorName(node.Fun)
			if name == "" {
				return true
			}
			for _, cs := range callSurfaces {
				for _, c := range cs.calls {
					if name != c {
						continue
					}
					line := src.Fset.Position(node.Pos()).Line
					key := fmt.Sprintf("%d:%s", line, name)
					if seen[key] {
						continue
					}
					seen[key] = true
					findings = append(findings, Finding{
						Pass:     "calls",
						Line:     line,
						Message:  fmt.Sprintf("call outside a pure transform (%s): %s", cs.category, name),
						Severity: model.SeverityWarning,
						Risk:     cs.risk,
					})
				}
			}
		}
		return true
	})

	return findings
}

// selectorName flattens pkg.Func and pkg.Var.Method expressions.
func selectorName(expr ast.Expr) string {
	var parts []string
	for {
		switch e := expr.(type) {
		case *ast.SelectorExpr:
			parts = append(parts, e.Sel.Name)
			expr = e.X
		case *ast.Ident:
			parts = append(parts, e.Name)
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			return strings.Join(parts, ".")
		default:
			return ""
		}
	}
}
