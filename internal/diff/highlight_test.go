package diff

import (
	"testing"
)

func TestHighlight(t *testing.T) {
	source := "try:\n    run()\nexcept:\n    pass"

	highlighted := Highlight("python", "handler.py", source)

	if len(highlighted) != 4 {
		t.Fatalf("expected 4 highlighted lines, got %d", len(highlighted))
	}
	if len(highlighted[0].Tokens) == 0 {
		t.Error("expected tokens in first line")
	}
	if highlighted[2].Plain() != "except:" {
		t.Errorf("plain text mismatch: %q", highlighted[2].Plain())
	}
}

func TestHighlightUnknownLanguage(t *testing.T) {
	highlighted := Highlight("", "unknown.xyz123", "some content\nmore content")

	if len(highlighted) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(highlighted))
	}
	if highlighted[0].Plain() != "some content" {
		t.Errorf("expected plain passthrough, got %q", highlighted[0].Plain())
	}
}

func TestLanguageOf(t *testing.T) {
	if got := LanguageOf("main.go"); got != "go" {
		t.Errorf("LanguageOf(main.go) = %q", got)
	}
	if got := LanguageOf("noext"); got != "" {
		t.Errorf("LanguageOf(noext) = %q, want empty", got)
	}
}
