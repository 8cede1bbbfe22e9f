package replay

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxStderr caps how much child stderr is copied into a diagnostic.
const maxStderr = 512

// FirstDivergence describes where actual output first departs from expected.
//
// Lines keep their trailing newline, so a missing or extra final newline shows
// up as a line mismatch rather than being hidden by the split.
func FirstDivergence(expected, actual string) string {
	exp := splitLines(expected)
	act := splitLines(actual)

	n := min(len(exp), len(act))
	for i := 0; i < n; i++ {
		if exp[i] != act[i] {
			return fmt.Sprintf("output mismatch at line %d: expected %q, got %q", i+1, exp[i], act[i])
		}
	}
	if len(exp) != len(act) {
		return fmt.Sprintf("output length mismatch: expected %d lines, got %d lines", len(exp), len(act))
	}
	return "output mismatch"
}

func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
