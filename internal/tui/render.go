package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/charmbracelet/lipgloss"

	"github.com/aezell/codemint/internal/diff"
)

// renderedLine is a single line of the detail pane ready for display.
type renderedLine struct {
	OldNum   int // 0 means not applicable
	NewNum   int // 0 means not applicable
	Op       gitdiff.LineOp
	Content  string // raw text content (no trailing newline)
	IsHunk   bool
	IsHeader bool // "---" / "+++" lines of a unified diff

	// Syntax highlighting tokens (nil = no highlighting)
	Tokens []diff.Token
}

// renderDiff classifies the lines of a unified expected-vs-actual diff.
func renderDiff(text string) []renderedLine {
	if text == "" {
		return nil
	}

	var lines []renderedLine
	oldLine, newLine := 0, 0
	for _, raw := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		raw = strings.TrimRight(raw, "\r")
		switch {
		case strings.HasPrefix(raw, "--- "), strings.HasPrefix(raw, "+++ "):
			lines = append(lines, renderedLine{IsHeader: true, Content: raw})
		case strings.HasPrefix(raw, "@@"):
			oldLine, newLine = parseHunkHeader(raw)
			lines = append(lines, renderedLine{IsHunk: true, Content: raw})
		case strings.HasPrefix(raw, "-"):
			lines = append(lines, renderedLine{Op: gitdiff.OpDelete, OldNum: oldLine, Content: raw[1:]})
			oldLine++
		case strings.HasPrefix(raw, "+"):
			lines = append(lines, renderedLine{Op: gitdiff.OpAdd, NewNum: newLine, Content: raw[1:]})
			newLine++
		default:
			content := strings.TrimPrefix(raw, " ")
			lines = append(lines, renderedLine{Op: gitdiff.OpContext, OldNum: oldLine, NewNum: newLine, Content: content})
			oldLine++
			newLine++
		}
	}
	return lines
}

// parseHunkHeader returns the starting old and new line numbers of "@@ -a,b +c,d @@".
func parseHunkHeader(header string) (oldStart, newStart int) {
	fields := strings.Fields(header)
	if len(fields) < 3 {
		return 0, 0
	}
	return rangeStart(fields[1], "-"), rangeStart(fields[2], "+")
}

func rangeStart(field, sign string) int {
	field = strings.TrimPrefix(field, sign)
	if i := strings.IndexByte(field, ','); i >= 0 {
		field = field[:i]
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0
	}
	return n
}

// renderSource produces numbered, syntax-highlighted lines for a whole source text.
func renderSource(language, filePath, source string) []renderedLine {
	if source == "" {
		return nil
	}
	highlighted := diff.Highlight(language, filePath, strings.TrimSuffix(source, "\n"))

	lines := make([]renderedLine, len(highlighted))
	for i, hl := range highlighted {
		lines[i] = renderedLine{
			OldNum:  i + 1,
			Op:      gitdiff.OpContext,
			Content: hl.Plain(),
			Tokens:  hl.Tokens,
		}
	}
	return lines
}

// renderHighlightedContent renders line content with its syntax tokens.
func renderHighlightedContent(rl renderedLine) string {
	if len(rl.Tokens) == 0 {
		return contextLineStyle.Render(rl.Content)
	}

	var b strings.Builder
	for _, tok := range rl.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}

// styleSourceLine renders one line of a source view.
func styleSourceLine(rl renderedLine, width int) string {
	num := lineNumberStyle.Render(fmt.Sprintf("%4d", rl.OldNum))

	maxContent := width - 6
	if maxContent > 0 && lipgloss.Width(rl.Content) > maxContent {
		return num + " " + contextLineStyle.Render(truncate(rl.Content, maxContent))
	}
	return num + " " + renderHighlightedContent(rl)
}

// styleDiffLine renders one line of the diff view.
func styleDiffLine(rl renderedLine, width int) string {
	if rl.IsHeader {
		return fileHeaderStyle.UnsetPadding().Render(truncate(rl.Content, width))
	}
	if rl.IsHunk {
		return hunkHeaderStyle.Render(truncate(rl.Content, width))
	}

	oldNum, newNum := "    ", "    "
	if rl.OldNum > 0 {
		oldNum = fmt.Sprintf("%4d", rl.OldNum)
	}
	if rl.NewNum > 0 {
		newNum = fmt.Sprintf("%4d", rl.NewNum)
	}
	lineNums := lineNumberStyle.Render(oldNum) + " " + lineNumberStyle.Render(newNum)

	var prefix string
	style := contextLineStyle
	switch rl.Op {
	case gitdiff.OpAdd:
		prefix = "+"
		style = addedLineStyle
	case gitdiff.OpDelete:
		prefix = "-"
		style = deletedLineStyle
	default:
		prefix = " "
	}

	content := prefix + rl.Content
	if maxContent := width - 11; maxContent > 0 {
		content = truncate(content, maxContent)
	}
	return lineNums + " " + style.Render(content)
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
