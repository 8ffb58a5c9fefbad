// Package guard implements the content-safety policy engine that gates
// incoming project requests. Evaluation is a pure, synchronous pipeline:
// normalize, match rule tables, analyze intent, validate against the
// approved-operation whitelist, then aggregate everything into a single
// auditable decision.
package guard

import "time"

// Request is the caller-supplied unit of work. Immutable once received.
type Request struct {
	// Description is the free-text request.
	Description string `json:"description"`
	// TargetUsers, Environment, Features and Constraints are optional
	// structured hints from the planning layer.
	TargetUsers []string `json:"target_users,omitempty"`
	Environment []string `json:"environment,omitempty"`
	Features    []string `json:"features,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// SafetyCheck is the decision returned to the caller. Immutable after
// construction.
type SafetyCheck struct {
	// Approved is false whenever any critical rule matched, a
	// confirmation is outstanding, or confidence fell below threshold.
	Approved bool `json:"approved"`
	// Warnings are human-readable reasons; blocked outcomes always carry
	// at least one.
	Warnings []string `json:"warnings"`
	// RequiredConfirmations are prompts the caller must put to a human
	// before proceeding.
	RequiredConfirmations []string `json:"required_confirmations"`
	// BlockedKeywords are the categories of the critical rules that
	// matched. Empty unless blocked by a critical rule.
	BlockedKeywords []string `json:"blocked_keywords"`
	// ConfidenceScore is in [0,1]; it starts at 1.0 and is only ever
	// reduced by evidence.
	ConfidenceScore float64 `json:"confidence_score"`
	// Metadata is the audit record built for this evaluation.
	Metadata AuditRecord `json:"metadata"`
}

// AuditRecord is the per-evaluation record appended to the audit sink. Its
// shape is part of the guard's contract even though persistence is external.
type AuditRecord struct {
	ID                  string    `json:"id"`
	Timestamp           time.Time `json:"timestamp"`
	Description         string    `json:"description"`
	NormalizedText      string    `json:"normalized_text"`
	PatternsMatched     []string  `json:"patterns_matched"`
	BypassAttempts      []string  `json:"bypass_attempts_detected"`
	SemanticFlags       []string  `json:"semantic_flags"`
	WhitelistViolations []string  `json:"whitelist_violations"`
	ConfidenceScore     float64   `json:"confidence_score"`
	Approved            bool      `json:"approved"`
}

// AuditSink receives one record per evaluation. Implementations must be safe
// for concurrent use; each Append is one atomic unit. A sink failure is
// never an evaluation failure.
type AuditSink interface {
	Append(rec *AuditRecord) error
}

// NopSink discards records.
type NopSink struct{}

// Append implements AuditSink.
func (NopSink) Append(*AuditRecord) error { return nil }
