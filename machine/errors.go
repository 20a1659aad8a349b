package machine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the cheap, expected cases: callers match these
// with errors.Is, while RuleError/PatternError below wrap them with the
// context needed to report which rule or key failed.
var (
	// ErrRuleTooLarge is returned when a rule's key count exceeds
	// Config.MaxKeysPerRule.
	ErrRuleTooLarge = errors.New("machine: rule exceeds maximum key count")

	// ErrDuplicateKey is returned by a rule compiler (see package jsonrule)
	// when the same dotted key appears twice in one rule document and
	// Config.DuplicateKeyPolicy is RejectDuplicateKey. AddPatternRule
	// itself never sees this: by the time a rule reaches it, a repeated
	// key has already been collapsed by whatever decoded the document.
	ErrDuplicateKey = errors.New("machine: duplicate key in rule under reject policy")

	// ErrRuleNotFound is returned by DeletePatternRule when no sub-rule
	// matching the given (rule_name, patterns) exists.
	ErrRuleNotFound = errors.New("machine: no matching sub-rule to delete")
)

// RuleError wraps a sentinel with the offending rule name, letting
// callers both pattern-match via errors.Is and report which rule failed.
type RuleError struct {
	RuleName string
	Err      error
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("machine: rule %q: %v", e.RuleName, e.Err)
}

func (e *RuleError) Unwrap() error { return e.Err }

// PatternError wraps a sentinel with the offending key and pattern kind.
type PatternError struct {
	Key string
	Err error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("machine: key %q: %v", e.Key, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }
