package guard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/codefactory/guard/internal/normalize"
	"github.com/codefactory/guard/internal/rules"
	"github.com/codefactory/guard/internal/semantic"
	"github.com/codefactory/guard/internal/whitelist"
)

// state is the aggregator's verdict. Pending transitions to exactly one of
// the terminal states, evaluated in strict order: critical match, confirm
// match, low confidence, approved.
type state int

const (
	statePending state = iota
	stateBlocked
	stateConfirmRequired
	stateApproved
)

// Engine evaluates requests. Construct with New; the zero value is not
// usable. An Engine is immutable after construction and safe for concurrent
// use.
type Engine struct {
	norm      *normalize.Normalizer
	rules     *rules.Set
	weights   Weights
	threshold float64
	sink      AuditSink
	logger    *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the builtin rule set.
func WithRules(set *rules.Set) Option {
	return func(e *Engine) { e.rules = set }
}

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(e *Engine) { e.norm = n }
}

// WithWeights sets the per-evidence confidence penalties.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithThreshold sets the minimum confidence for approval.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithAuditSink sets the audit sink.
func WithAuditSink(sink AuditSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithLogger sets the structured logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine with builtin rules, default weights and threshold,
// and a discarding audit sink.
func New(opts ...Option) *Engine {
	e := &Engine{
		norm:      normalize.New(),
		rules:     rules.Builtin(),
		weights:   DefaultWeights(),
		threshold: DefaultThreshold,
		sink:      NopSink{},
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the full pipeline over one request. It never fails: "I don't
// know" defaults to a non-approving outcome instead of an error a caller
// might mishandle as approval. Exactly one audit record is produced per
// call; a sink write failure is logged, not propagated.
func (e *Engine) Evaluate(req Request) SafetyCheck {
	raw := combinedText(req)
	normalized := e.norm.Normalize(raw)

	ev := &Evidence{NormalizedText: normalized}

	match := e.rules.Match(normalized)
	for _, r := range match.Critical {
		ev.PatternsMatched = append(ev.PatternsMatched, r.ID)
	}
	for _, r := range match.Confirm {
		ev.PatternsMatched = append(ev.PatternsMatched, r.ID)
	}

	ev.BypassAttempts = rules.DetectBypass(raw)

	// A critical match already decides the verdict, but the remaining
	// stages still run so the audit record is complete.
	ev.SemanticFlags = semantic.Analyze(semantic.Input{
		Normalized:     normalized,
		Environment:    req.Environment,
		TargetUsers:    req.TargetUsers,
		ConfirmMatches: ruleIDs(match.Confirm),
	})

	wl := whitelist.Validate(normalized)
	ev.WhitelistViolations = wl.Violations

	check := e.aggregate(ev, match)
	check.Metadata = e.record(req, ev, check)

	if err := e.sink.Append(&check.Metadata); err != nil {
		// The decision is already made; a sink failure only concerns
		// operators.
		e.logger.Warn("audit sink write failed", "id", check.Metadata.ID, "err", err)
	}

	e.logger.Info("safety check",
		"id", check.Metadata.ID,
		"approved", check.Approved,
		"confidence", check.ConfidenceScore,
		"critical", len(match.Critical),
		"confirm", len(match.Confirm),
	)

	return check
}

// aggregate reduces the evidence to a SafetyCheck via the verdict state
// machine.
func (e *Engine) aggregate(ev *Evidence, match rules.MatchResult) SafetyCheck {
	confidence := ev.Confidence(e.weights)

	// Empty normalized text means nothing recognizable survived
	// normalization; there is no safe operation to approve.
	if ev.NormalizedText == "" {
		confidence = 0
	}

	verdict := statePending
	switch {
	case len(match.Critical) > 0:
		verdict = stateBlocked
	case len(match.Confirm) > 0:
		verdict = stateConfirmRequired
	case confidence < e.threshold:
		verdict = stateBlocked
	default:
		verdict = stateApproved
	}

	check := SafetyCheck{
		Warnings:              []string{},
		RequiredConfirmations: []string{},
		BlockedKeywords:       []string{},
		ConfidenceScore:       confidence,
	}

	switch verdict {
	case stateBlocked:
		check.Approved = false
		if len(match.Critical) > 0 {
			seen := make(map[string]bool)
			for _, r := range match.Critical {
				check.Warnings = append(check.Warnings,
					fmt.Sprintf("blocked: %s (rule %s)", r.Description, r.ID))
				if !seen[r.Category] {
					seen[r.Category] = true
					check.BlockedKeywords = append(check.BlockedKeywords, r.Category)
				}
			}
		} else {
			check.Warnings = append(check.Warnings,
				fmt.Sprintf("insufficient confidence in request safety (%.2f < %.2f)", confidence, e.threshold))
		}

	case stateConfirmRequired:
		check.Approved = false
		for _, r := range match.Confirm {
			check.RequiredConfirmations = append(check.RequiredConfirmations,
				fmt.Sprintf("This will perform: %s. Proceed?", r.Description))
		}

	case stateApproved:
		check.Approved = true
	}

	// Non-blocking evidence still surfaces as warnings so reviewers never
	// have to reverse-engineer the score.
	for _, flag := range ev.SemanticFlags {
		check.Warnings = append(check.Warnings, "note: "+flag)
	}
	for _, v := range ev.WhitelistViolations {
		check.Warnings = append(check.Warnings, "note: "+v)
	}

	return check
}

// record builds the audit record for one evaluation.
func (e *Engine) record(req Request, ev *Evidence, check SafetyCheck) AuditRecord {
	return AuditRecord{
		ID:                  uuid.New().String(),
		Timestamp:           time.Now().UTC(),
		Description:         req.Description,
		NormalizedText:      ev.NormalizedText,
		PatternsMatched:     append([]string{}, ev.PatternsMatched...),
		BypassAttempts:      append([]string{}, ev.BypassAttempts...),
		SemanticFlags:       append([]string{}, ev.SemanticFlags...),
		WhitelistViolations: append([]string{}, ev.WhitelistViolations...),
		ConfidenceScore:     check.ConfidenceScore,
		Approved:            check.Approved,
	}
}

// combinedText joins the description and every structured hint into the one
// string the pipeline analyzes. Target users are included too: a phrase
// smuggled into any field must face the same rule tables.
func combinedText(req Request) string {
	parts := make([]string, 0, 1+len(req.Features)+len(req.Constraints)+len(req.Environment)+len(req.TargetUsers))
	parts = append(parts, req.Description)
	parts = append(parts, req.Features...)
	parts = append(parts, req.Constraints...)
	parts = append(parts, req.Environment...)
	parts = append(parts, req.TargetUsers...)
	return strings.Join(parts, " ")
}

func ruleIDs(list []*rules.Rule) []string {
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	return ids
}
