// Package antipattern flags files that reintroduce a fixed code pattern.
//
// Detection is deliberately lightweight: a handful of literal tokens pulled
// from the pattern's transform signature, matched per line.
package antipattern

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aezell/codemint/internal/diff"
	"github.com/aezell/codemint/internal/model"
)

const (
	// MaxTokens caps how many tokens a signature contributes.
	MaxTokens = 5
	// MinTokenLength is the shortest token kept, in characters.
	MinTokenLength = 3
)

// keywords are structural words that say nothing about the pattern itself.
var keywords = map[string]bool{
	"def":      true,
	"class":    true,
	"return":   true,
	"import":   true,
	"from":     true,
	"func":     true,
	"package":  true,
	"var":      true,
	"const":    true,
	"type":     true,
	"let":      true,
	"function": true,
}

// Validator detects one anti-pattern by literal token match.
type Validator struct {
	ValidatorID string
	PatternID   string
	RuleID      string
	Description string
	tokens      []string
}

// Descriptor is the serializable view of a Validator.
type Descriptor struct {
	ValidatorID string   `json:"validator_id" yaml:"validator_id"`
	PatternID   string   `json:"pattern_id" yaml:"pattern_id"`
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tokens      []string `json:"tokens" yaml:"tokens"`
}

// New creates a validator from explicit tokens. Empty tokens are dropped.
func New(patternID, ruleID, description string, tokens []string) *Validator {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != "" {
			kept = append(kept, t)
		}
	}
	return &Validator{
		ValidatorID: uuid.NewString(),
		PatternID:   patternID,
		RuleID:      ruleID,
		Description: description,
		tokens:      kept,
	}
}

// Scope selects which signature lines contribute tokens.
type Scope int

const (
	// ScopeContent takes tokens from every content line, in order.
	ScopeContent Scope = iota
	// ScopeRemoved takes tokens from removed lines only, falling back to
	// every content line when the signature removes nothing. Replacement
	// text on added lines never becomes a token.
	ScopeRemoved
)

// FromSignature creates a validator whose tokens come from a transform signature.
func FromSignature(patternID, ruleID, signature, description string) *Validator {
	return FromScopedSignature(patternID, ruleID, signature, description, ScopeContent)
}

// FromScopedSignature is FromSignature with an explicit line scope.
func FromScopedSignature(patternID, ruleID, signature, description string, scope Scope) *Validator {
	return New(patternID, ruleID, description, ExtractScopedTokens(signature, scope))
}

// ExtractTokens picks up to MaxTokens detection tokens from a signature: the
// first non-keyword word of at least MinTokenLength characters on each content
// line, skipping diff headers.
func ExtractTokens(signature string) []string {
	return ExtractScopedTokens(signature, ScopeContent)
}

// ExtractScopedTokens is ExtractTokens restricted to the lines scope selects.
func ExtractScopedTokens(signature string, scope Scope) []string {
	sig := diff.ParseSignature(signature)
	lines := sig.ContentLines()
	if scope == ScopeRemoved {
		if removed := sig.Removed(); len(removed) > 0 {
			lines = removed
		}
	}

	var tokens []string
	for _, line := range lines {
		if len(tokens) == MaxTokens {
			break
		}
		if tok, ok := lineToken(line); ok {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func lineToken(line string) (string, bool) {
	for _, field := range strings.Fields(line) {
		if utf8.RuneCountInString(field) >= MinTokenLength && !keywords[field] {
			return field, true
		}
	}
	return "", false
}

// Tokens returns a copy of the detection tokens.
func (v *Validator) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Check scans source line by line and reports at most one violation per line,
// attributed to the first token found on it.
func (v *Validator) Check(source, filePath string) []model.AntiPatternViolation {
	if v == nil || len(v.tokens) == 0 || source == "" {
		return nil
	}

	var violations []model.AntiPatternViolation
	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSuffix(line, "\r")
		for _, tok := range v.tokens {
			if strings.Contains(line, tok) {
				violations = append(violations, model.AntiPatternViolation{
					RuleID:      v.RuleID,
					FilePath:    filePath,
					LineNumber:  i + 1,
					MatchedText: strings.TrimSpace(line),
					PatternID:   v.PatternID,
				})
				break
			}
		}
	}
	return violations
}

// Descriptor returns the serializable view of v.
func (v *Validator) Descriptor() Descriptor {
	return Descriptor{
		ValidatorID: v.ValidatorID,
		PatternID:   v.PatternID,
		RuleID:      v.RuleID,
		Description: v.Description,
		Tokens:      v.Tokens(),
	}
}
