package analysis

import (
	"fmt"
	"go/ast"

	"github.com/aezell/codemint/internal/model"
)

// EntryPointPass requires a package-scope func <EntryPoint>(string) string and
// forbids declarations that collide with the harness.
func EntryPointPass(src *Source, cfg Config) []Finding {
	var findings []Finding
	var entry *ast.FuncDecl

	for _, decl := range src.File.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv != nil {
			continue
		}
		switch fn.Name.Name {
		case cfg.EntryPoint:
			entry = fn
		case "main":
			findings = append(findings, Finding{
				Pass:     "entrypoint",
				Line:     src.Fset.Position(fn.Pos()).Line,
				Message:  "codemod must not declare func main",
				Severity: model.SeverityError,
				Risk:     model.RiskHigh,
			})
		case "init":
			findings = append(findings, Finding{
				Pass:     "entrypoint",
				Line:     src.Fset.Position(fn.Pos()).Line,
				Message:  "codemod declares func init; it runs before every case",
				Severity: model.SeverityWarning,
				Risk:     model.RiskLow,
			})
		}
	}

	if entry == nil {
		if declaresName(src.File, cfg.EntryPoint) {
			return append(findings, Finding{
				Pass:     "entrypoint",
				Message:  fmt.Sprintf("%s must be a function, found a non-function declaration", cfg.EntryPoint),
				Severity: model.SeverityError,
				Risk:     model.RiskHigh,
			})
		}
		return append(findings, Finding{
			Pass:     "entrypoint",
			Message:  fmt.Sprintf("missing entry point: codemod must define func %s(source string) string", cfg.EntryPoint),
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		})
	}

	if entry.Type.TypeParams != nil && len(entry.Type.TypeParams.List) > 0 {
		findings = append(findings, Finding{
			Pass:     "entrypoint",
			Line:     src.Fset.Position(entry.Pos()).Line,
			Message:  fmt.Sprintf("entry point %s must not be generic", cfg.EntryPoint),
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		})
	}

	if !isStringList(entry.Type.Params) || !isStringList(entry.Type.Results) {
		findings = append(findings, Finding{
			Pass:     "entrypoint",
			Line:     src.Fset.Position(entry.Pos()).Line,
			Message:  fmt.Sprintf("entry point has the wrong signature: want func %s(source string) string", cfg.EntryPoint),
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		})
	}

	if entry.Body == nil {
		findings = append(findings, Finding{
			Pass:     "entrypoint",
			Line:     src.Fset.Position(entry.Pos()).Line,
			Message:  fmt.Sprintf("entry point %s has no body", cfg.EntryPoint),
			Severity: model.SeverityError,
			Risk:     model.RiskHigh,
		})
	}

	return findings
}

// isStringList reports whether fields is exactly one value of type string.
func isStringList(fields *ast.FieldList) bool {
	if fields == nil || len(fields.List) != 1 {
		return false
	}
	f := fields.List[0]
	if len(f.Names) > 1 {
		return false
	}
	ident, ok := f.Type.(*ast.Ident)
	return ok && ident.Name == "string"
}

func declaresName(file *ast.File, name string) bool {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gen.Specs {
			switch s := spec.(type) {
			case *ast.ValueSpec:
				for _, n := range s.Names {
					if n.Name == name {
						return true
					}
				}
			case *ast.TypeSpec:
				if s.Name.Name == name {
					return true
				}
			}
		}
	}
	return false
}
