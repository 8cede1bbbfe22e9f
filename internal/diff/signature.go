package diff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// SignatureLine is one content line of a transform signature.
type SignatureLine struct {
	Op   gitdiff.LineOp
	Text string
}

// Signature is the parsed, diff-like description of a fix pattern.
type Signature struct {
	Lines []SignatureLine
}

var headerPrefixes = []string{
	"diff --git",
	"index ",
	"---",
	"+++",
	"@@",
	"new file mode",
	"deleted file mode",
	"old mode",
	"new mode",
	"similarity index",
	"rename from",
	"rename to",
	"\\ No newline",
}

// IsHeader reports whether line is diff metadata rather than content.
func IsHeader(line string) bool {
	for _, p := range headerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// ParseSignature parses a transform signature. Full git diffs go through gitdiff;
// bare "+/-" snippets are scanned line by line.
func ParseSignature(text string) Signature {
	if ds, err := Parse(text); err == nil && len(ds.Files) > 0 {
		var sig Signature
		for _, f := range ds.Files {
			for _, frag := range f.Fragments {
				for _, line := range frag.Lines {
					sig.Lines = append(sig.Lines, SignatureLine{
						Op:   line.Op,
						Text: strings.TrimRight(line.Line, "\r\n"),
					})
				}
			}
		}
		return sig
	}
	return scanSignature(text)
}

func scanSignature(text string) Signature {
	var sig Signature
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" || IsHeader(line) {
			continue
		}
		sl := SignatureLine{Op: gitdiff.OpContext, Text: line}
		switch line[0] {
		case '-':
			sl.Op, sl.Text = gitdiff.OpDelete, line[1:]
		case '+':
			sl.Op, sl.Text = gitdiff.OpAdd, line[1:]
		case ' ':
			sl.Text = line[1:]
		}
		sig.Lines = append(sig.Lines, sl)
	}
	return sig
}

// Removed returns the text of the deleted lines.
func (s Signature) Removed() []string {
	return s.withOp(gitdiff.OpDelete)
}

// Added returns the text of the inserted lines.
func (s Signature) Added() []string {
	return s.withOp(gitdiff.OpAdd)
}

func (s Signature) withOp(op gitdiff.LineOp) []string {
	var out []string
	for _, l := range s.Lines {
		if l.Op == op {
			out = append(out, l.Text)
		}
	}
	return out
}

// ContentLines returns the text of every content line in order, markers stripped.
func (s Signature) ContentLines() []string {
	out := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, l.Text)
	}
	return out
}
