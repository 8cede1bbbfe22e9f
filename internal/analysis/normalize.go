package analysis

import (
	"go/scanner"
	"go/token"
)

// NormalizePackage rewrites the package clause to "package main" so the
// candidate compiles next to the harness. Source without a clause gets one
// prepended on its first line, which keeps line numbers stable.
//
// The clause is found by scanning tokens, so "package" text inside comments
// or string literals is never touched.
func NormalizePackage(source string) string {
	src := []byte(source)
	fset := token.NewFileSet()
	file := fset.AddFile("codemod.go", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, src, nil, 0)
	if _, tok, _ := s.Scan(); tok != token.PACKAGE {
		return "package main; " + source
	}
	pos, tok, name := s.Scan()
	if tok != token.IDENT || name == "main" {
		// A malformed clause is left for the parser to report.
		return source
	}
	off := file.Offset(pos)
	return source[:off] + "main" + source[off+len(name):]
}
