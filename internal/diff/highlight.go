package diff

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightedLine is one source line split into colored tokens.
type HighlightedLine struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex color, empty for default
}

// Plain returns the concatenated plain text of all tokens.
func (hl HighlightedLine) Plain() string {
	var b strings.Builder
	for _, t := range hl.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Highlight tokenizes source for display. The lexer is chosen by language name,
// then by file path; unknown languages come back as plain lines.
func Highlight(language, filePath, source string) []HighlightedLine {
	lines := strings.Split(source, "\n")

	lexer := LexerFor(language, filePath)
	if lexer == nil {
		return plainLines(lines)
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return plainLines(lines)
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	result := make([]HighlightedLine, 0, len(lines))
	current := HighlightedLine{}
	for _, token := range iterator.Tokens() {
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current)
				current = HighlightedLine{}
			}
			if part != "" {
				current.Tokens = append(current.Tokens, Token{
					Text:  part,
					Color: tokenColor(style, token.Type),
				})
			}
		}
	}
	result = append(result, current)

	for len(result) < len(lines) {
		result = append(result, HighlightedLine{})
	}
	return result[:len(lines)]
}

// LanguageOf guesses the language name for a file path, or "".
func LanguageOf(filePath string) string {
	lexer := LexerFor("", filePath)
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}

// LexerFor resolves a chroma lexer by language name or file path.
func LexerFor(language, filePath string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil && filePath != "" {
		lexer = lexers.Match(filePath)
		if lexer == nil {
			if ext := filepath.Ext(filePath); ext != "" {
				lexer = lexers.Match("file" + ext)
			}
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func plainLines(lines []string) []HighlightedLine {
	result := make([]HighlightedLine, len(lines))
	for i, line := range lines {
		result[i] = HighlightedLine{Tokens: []Token{{Text: line}}}
	}
	return result
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
