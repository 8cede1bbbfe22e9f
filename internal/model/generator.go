package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// BeforeAfter is one historical example of the fix a codemod must reproduce.
type BeforeAfter struct {
	PairID string `json:"pair_id" yaml:"pair_id"`
	Before string `json:"before" yaml:"before"`
	After  string `json:"after" yaml:"after"`
}

// CodemodGeneratorSpec is the prompt contract handed to the code generator.
// It is assembled by the caller and never stored.
type CodemodGeneratorSpec struct {
	RuleID              string        `json:"rule_id" yaml:"rule_id" validate:"required"`
	Language            string        `json:"language" yaml:"language" validate:"required"`
	TransformSignature  string        `json:"transform_signature" yaml:"transform_signature"`
	BeforeAfterExamples []BeforeAfter `json:"before_after_examples" yaml:"before_after_examples"`
	PatternID           string        `json:"pattern_id" yaml:"pattern_id" validate:"required"`
	Description         string        `json:"description" yaml:"description"`
}

// Prompt renders the spec as generator instructions with a YAML examples block.
func (s CodemodGeneratorSpec) Prompt() (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Write a Go codemod for rule %s (pattern %s).\n", s.RuleID, s.PatternID)
	fmt.Fprintf(&b, "The codemod rewrites %s source code.\n\n", s.Language)
	if s.Description != "" {
		fmt.Fprintf(&b, "Pattern: %s\n\n", strings.TrimSpace(s.Description))
	}

	b.WriteString("Contract:\n")
	b.WriteString("  - Declare `func apply(source string) string` at package scope.\n")
	b.WriteString("  - Do not declare func main; it is provided by the harness.\n")
	b.WriteString("  - Import only standard-library packages; no exec, network, syscall or unsafe.\n")
	b.WriteString("  - apply must be deterministic and return the full rewritten source.\n\n")

	if sig := strings.TrimSpace(s.TransformSignature); sig != "" {
		b.WriteString("Transform signature:\n")
		b.WriteString(sig)
		b.WriteString("\n\n")
	}

	if len(s.BeforeAfterExamples) > 0 {
		examples, err := yaml.Marshal(struct {
			Examples []BeforeAfter `yaml:"examples"`
		}{s.BeforeAfterExamples})
		if err != nil {
			return "", fmt.Errorf("encoding examples: %w", err)
		}
		b.WriteString("Examples:\n```yaml\n")
		b.Write(examples)
		b.WriteString("```\n")
	}

	return b.String(), nil
}
