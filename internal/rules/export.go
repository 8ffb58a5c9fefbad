package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Export represents the full rule set in a stable format for external
// tooling and change tracking.
type Export struct {
	Version     string                   `json:"version"`
	GeneratedAt time.Time                `json:"generated_at"`
	SHA256      string                   `json:"sha256"`
	Severities  map[string]SeverityExport `json:"severities"`
}

// SeverityExport is one severity tier of an Export.
type SeverityExport struct {
	Description string       `json:"description"`
	Rules       []RuleExport `json:"rules"`
}

// RuleExport is a single rule in an Export.
type RuleExport struct {
	ID          string `json:"id"`
	Pattern     string `json:"pattern"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Export returns the rule set in a deterministic, hash-stamped form.
func (s *Set) Export() *Export {
	out := &Export{
		Version:     "1.0.0",
		GeneratedAt: time.Now().UTC(),
		SHA256:      s.Hash(),
		Severities:  make(map[string]SeverityExport),
	}

	tiers := []struct {
		name        string
		rules       []*Rule
		description string
	}{
		{string(SeverityCritical), s.critical, "Patterns that unconditionally block a request"},
		{string(SeverityConfirm), s.confirm, "Patterns that require explicit human confirmation"},
	}

	for _, tier := range tiers {
		exports := make([]RuleExport, 0, len(tier.rules))
		for _, r := range tier.rules {
			exports = append(exports, RuleExport{
				ID:          r.ID,
				Pattern:     r.Pattern,
				Category:    r.Category,
				Description: r.Description,
			})
		}
		sort.Slice(exports, func(i, j int) bool { return exports[i].ID < exports[j].ID })
		out.Severities[tier.name] = SeverityExport{
			Description: tier.description,
			Rules:       exports,
		}
	}

	return out
}

// Hash returns a deterministic SHA256 over every rule, for change detection.
func (s *Set) Hash() string {
	var entries []string
	for _, r := range s.critical {
		entries = append(entries, fmt.Sprintf("%s:%s:%s", r.Severity, r.ID, r.Pattern))
	}
	for _, r := range s.confirm {
		entries = append(entries, fmt.Sprintf("%s:%s:%s", r.Severity, r.ID, r.Pattern))
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ExportJSON returns the export as indented JSON.
func (s *Set) ExportJSON() (string, error) {
	data, err := json.MarshalIndent(s.Export(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
