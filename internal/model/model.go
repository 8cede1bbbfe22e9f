// Package model defines the core data types shared across codemint.
package model

import (
	"fmt"
	"strings"
)

// CodemodStatus is the lifecycle state of a codemod definition.
// PENDING is the only non-terminal state.
type CodemodStatus int

const (
	StatusPending CodemodStatus = iota
	StatusValidated
	StatusFailed
	StatusRejected
)

func (s CodemodStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusValidated:
		return "VALIDATED"
	case StatusFailed:
		return "FAILED"
	case StatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further transition is allowed from s.
func (s CodemodStatus) IsTerminal() bool {
	return s == StatusValidated || s == StatusFailed || s == StatusRejected
}

// MarshalText implements encoding.TextMarshaler.
func (s CodemodStatus) MarshalText() ([]byte, error) {
	if s < StatusPending || s > StatusRejected {
		return nil, fmt.Errorf("invalid codemod status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Matching is case-insensitive.
func (s *CodemodStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus converts a status name into a CodemodStatus.
func ParseStatus(name string) (CodemodStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "PENDING":
		return StatusPending, nil
	case "VALIDATED":
		return StatusValidated, nil
	case "FAILED":
		return StatusFailed, nil
	case "REJECTED":
		return StatusRejected, nil
	default:
		return StatusPending, fmt.Errorf("unknown codemod status %q", name)
	}
}

// RiskLevel categorizes the risk of a static-analysis finding.
type RiskLevel int

const (
	RiskInfo RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskInfo:
		return "info"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Severity for findings.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// FailureKind classifies why a replay case did not pass.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureStatic
	FailureBuild
	FailureTimeout
	FailureExit
	FailureMismatch
	FailureSandbox
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureStatic:
		return "static"
	case FailureBuild:
		return "build"
	case FailureTimeout:
		return "timeout"
	case FailureExit:
		return "exit"
	case FailureMismatch:
		return "mismatch"
	case FailureSandbox:
		return "sandbox"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k FailureKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *FailureKind) UnmarshalText(text []byte) error {
	for c := FailureNone; c <= FailureCanceled; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown failure kind %q", string(text))
}
