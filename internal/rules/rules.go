// Package rules implements the static rule tables and pattern matching for
// the guard. Rule sets are compiled once at startup and are read-only
// afterwards, so they are safely shared across concurrent evaluations.
package rules

import (
	"fmt"
	"regexp"
)

// Severity classifies what a rule match means for the verdict.
type Severity string

const (
	// SeverityCritical blocks the request unconditionally.
	SeverityCritical Severity = "critical"
	// SeverityConfirm requires explicit human confirmation before the
	// request may proceed, but does not block outright.
	SeverityConfirm Severity = "confirm"
)

// Rule is a named entry in a static rule table. Patterns match against
// normalized text, so they are lowercase and use \s* between phrase parts to
// tolerate both zero-space and single-space variants.
type Rule struct {
	// ID is the stable identifier recorded in audit trails.
	ID string
	// Pattern is the regex source.
	Pattern string
	// Severity is critical or confirm.
	Severity Severity
	// Category is a free label grouping related rules.
	Category string
	// Description is the human-readable explanation used in warnings
	// and confirmation prompts.
	Description string

	compiled *regexp.Regexp
}

// builtinCritical are the patterns that unconditionally block a request.
func builtinCritical() []*Rule {
	return []*Rule{
		// Physical system control
		{ID: "control-equipment", Pattern: `control\s*equipment`, Category: "equipment-control", Description: "physical equipment control"},
		{ID: "actuate", Pattern: `\bactuat(?:e|es|ed|ing|or)\b`, Category: "equipment-control", Description: "actuator control"},
		{ID: "bypass-interlock", Pattern: `bypass\s*interlocks?\b`, Category: "equipment-control", Description: "safety interlock bypass"},
		{ID: "override-safety", Pattern: `overrid(?:e|es|ing)\s*safety`, Category: "equipment-control", Description: "safety override"},
		{ID: "disable-alarm", Pattern: `disabl(?:e|es|ing)\s*alarms?\b`, Category: "equipment-control", Description: "alarm disabling"},
		{ID: "physical-control", Pattern: `physical\s*control`, Category: "equipment-control", Description: "physical control system"},

		// Security violations (word boundaries avoid false positives)
		{ID: "hack", Pattern: `\bhack(?:s|ed|ing|er)?\b`, Category: "exploit", Description: "hacking / unauthorized access"},
		{ID: "exploit", Pattern: `\bexploit(?:s|ed|ing)?\b`, Category: "exploit", Description: "exploit development"},
		{ID: "crack-password", Pattern: `crack\s*passwords?\b`, Category: "exploit", Description: "password cracking"},
		{ID: "inject", Pattern: `\binject(?:s|ed|ing|ion)?\b`, Category: "exploit", Description: "code or SQL injection"},
		{ID: "malware", Pattern: `\bmalware\b`, Category: "exploit", Description: "malware development"},
		{ID: "virus", Pattern: `\bvirus(?:es)?\b`, Category: "exploit", Description: "virus development"},
		{ID: "backdoor", Pattern: `\bbackdoors?\b`, Category: "exploit", Description: "backdoor installation"},
		{ID: "privilege-escalation", Pattern: `privilege\s*escalation`, Category: "exploit", Description: "privilege escalation"},

		// Destructive filesystem / database operations. Separators are
		// already collapsed to spaces, so "rm -rf" arrives as "rm rf".
		{ID: "rm-rf", Pattern: `\brm\s+(?:rf|fr|r|f)\b`, Category: "destructive-fs", Description: "recursive deletion (rm -rf)"},
		{ID: "format-drive", Pattern: `format\s*drives?\b`, Category: "destructive-fs", Description: "drive formatting"},
		{ID: "delete-all", Pattern: `delete\s*all\b`, Category: "destructive-fs", Description: "mass deletion"},
		{ID: "drop-database", Pattern: `drop\s*databases?\b`, Category: "destructive-db", Description: "database deletion"},
		{ID: "truncate-table", Pattern: `truncate\s*tables?\b`, Category: "destructive-db", Description: "table truncation"},

		// Code-level obfuscation primitives
		{ID: "base64-decode", Pattern: `base\s*64\b.{0,40}?\bdecod(?:e|es|ed|ing)\b`, Category: "obfuscation", Description: "base64 decoding of hidden payloads"},
		{ID: "eval-call", Pattern: `\beval\s*\(`, Category: "obfuscation", Description: "dynamic code evaluation"},
		{ID: "exec-call", Pattern: `\bexec\s*\(`, Category: "obfuscation", Description: "dynamic code execution"},
	}
}

// builtinConfirm are the patterns that require explicit human confirmation.
func builtinConfirm() []*Rule {
	return []*Rule{
		{ID: "delete-file", Pattern: `delet(?:e|es|ing)\s*files?\b`, Category: "file-ops", Description: "file deletion"},
		{ID: "send-email", Pattern: `\bsend(?:s|ing)?\b.{0,30}?\bemails?\b`, Category: "network", Description: "email sending"},
		{ID: "network-call", Pattern: `network\s*calls?\b`, Category: "network", Description: "outbound network communication"},
		{ID: "api-request", Pattern: `api\s*requests?\b`, Category: "network", Description: "external API requests"},
		{ID: "modify-database", Pattern: `modif(?:y|ies|ying)\s*databases?\b`, Category: "database", Description: "database modification"},
		{ID: "sudo", Pattern: `\bsudo\b`, Category: "privilege", Description: "elevated privileges (sudo)"},
		{ID: "admin-privilege", Pattern: `admin\s*privileges?\b`, Category: "privilege", Description: "administrator privileges"},
		{ID: "system-call", Pattern: `system\s*calls?\b`, Category: "system", Description: "raw system call invocation"},
		{ID: "subprocess", Pattern: `\bsubprocess(?:es)?\b`, Category: "system", Description: "subprocess execution"},
	}
}

// Set holds the compiled rule tables. Immutable after construction.
type Set struct {
	critical []*Rule
	confirm  []*Rule
}

// Builtin compiles the builtin rule tables. Builtin patterns must always be
// valid, so a compile failure panics at startup rather than surfacing at
// request time.
func Builtin() *Set {
	return &Set{
		critical: compileRules(SeverityCritical, builtinCritical()),
		confirm:  compileRules(SeverityConfirm, builtinConfirm()),
	}
}

// WithExtra returns a new Set extending s with caller-supplied patterns.
// Extra patterns come from configuration, so an invalid one is a load-time
// error, never a panic.
func (s *Set) WithExtra(critical, confirm []string) (*Set, error) {
	out := &Set{
		critical: append([]*Rule(nil), s.critical...),
		confirm:  append([]*Rule(nil), s.confirm...),
	}

	for i, p := range critical {
		r, err := compileExtra(p, SeverityCritical, i)
		if err != nil {
			return nil, err
		}
		out.critical = append(out.critical, r)
	}
	for i, p := range confirm {
		r, err := compileExtra(p, SeverityConfirm, i)
		if err != nil {
			return nil, err
		}
		out.confirm = append(out.confirm, r)
	}

	return out, nil
}

func compileRules(sev Severity, rules []*Rule) []*Rule {
	for _, r := range rules {
		r.Severity = sev
		compiled, err := regexp.Compile(r.Pattern)
		if err != nil {
			panic(fmt.Sprintf("invalid builtin rule %q: %v", r.ID, err))
		}
		r.compiled = compiled
	}
	return rules
}

func compileExtra(pattern string, sev Severity, idx int) (*Rule, error) {
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling extra %s rule %q: %w", sev, pattern, err)
	}
	return &Rule{
		ID:          fmt.Sprintf("extra-%s-%d", sev, idx),
		Pattern:     pattern,
		Severity:    sev,
		Category:    "custom",
		Description: fmt.Sprintf("custom %s pattern %q", sev, pattern),
		compiled:    compiled,
	}, nil
}

// MatchResult lists every rule that fired, grouped by severity. All matches
// are collected, not just the first, so the audit record shows the full
// picture.
type MatchResult struct {
	Critical []*Rule
	Confirm  []*Rule
}

// Match runs both rule tables against normalized text. An empty string
// matches nothing; it is the whitelist validator's job to flag the absence
// of any recognizable safe operation.
func (s *Set) Match(normalized string) MatchResult {
	var res MatchResult
	for _, r := range s.critical {
		if r.compiled.MatchString(normalized) {
			res.Critical = append(res.Critical, r)
		}
	}
	for _, r := range s.confirm {
		if r.compiled.MatchString(normalized) {
			res.Confirm = append(res.Confirm, r)
		}
	}
	return res
}

// Critical returns the critical rule table.
func (s *Set) Critical() []*Rule { return s.critical }

// Confirm returns the confirm rule table.
func (s *Set) Confirm() []*Rule { return s.confirm }
