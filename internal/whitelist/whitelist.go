// Package whitelist validates requests against the approved-operation
// vocabulary. Violations lower confidence but never block by themselves.
package whitelist

import "strings"

// categories maps each approved-operation category to its verb stems. The
// table is read-only after initialization and shared across evaluations.
var categories = map[string][]string{
	"read":    {"read", "display", "show", "list", "view", "get", "fetch"},
	"compute": {"calculate", "compute", "analyze", "parse", "validate"},
	"convert": {"format", "convert", "transform", "encode", "decode"},
	"monitor": {"log", "track", "monitor", "measure", "report"},
	"search":  {"search", "find", "filter", "sort", "query"},
	"create":  {"create", "generate", "build", "make", "initialize"},
	"test":    {"test", "verify", "check", "inspect", "scan"},
	"update":  {"update", "modify", "edit", "change", "adjust"},
	"help":    {"help", "guide", "assist", "support", "document"},
}

// stemToCategory is the inverted index, built once at init.
var stemToCategory = func() map[string]string {
	idx := make(map[string]string)
	for cat, stems := range categories {
		for _, stem := range stems {
			idx[stem] = cat
		}
	}
	return idx
}()

// stopWords are function words skipped when hunting for the head verb.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "to": true, "for": true,
	"with": true, "and": true, "or": true, "in": true, "on": true,
	"at": true, "of": true, "that": true, "this": true, "it": true,
	"is": true, "are": true, "be": true, "will": true, "can": true,
	"tool": true, "app": true, "system": true, "program": true,
}

// Result is the outcome of whitelist validation.
type Result struct {
	// MatchedCategories lists the approved categories whose stems appear
	// in the text, in table-independent sorted-by-first-hit order.
	MatchedCategories []string
	// Violations are human-readable notes about unrecognized operations.
	Violations []string
}

// Validate checks normalized text against the approved verb-stem table.
//
// The head-verb heuristic is deliberately permissive: only the first
// verb-like token of the text is judged, because that is where the request's
// grammatical head almost always sits ("Frobnicate the sensor data" vs
// "Parse logs and frobnicate them").
func Validate(normalized string) Result {
	var res Result

	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		res.Violations = append(res.Violations, "no recognized safe operation in request")
		return res
	}

	seen := make(map[string]bool)
	for _, tok := range tokens {
		if cat, ok := stemToCategory[stemOf(tok)]; ok && !seen[cat] {
			seen[cat] = true
			res.MatchedCategories = append(res.MatchedCategories, cat)
		}
	}

	if head, ok := headVerb(tokens); ok {
		if _, approved := stemToCategory[stemOf(head)]; !approved {
			res.Violations = append(res.Violations,
				"unrecognized operation \""+head+"\" leads the request")
		}
	}

	if len(res.MatchedCategories) == 0 {
		res.Violations = append(res.Violations, "no recognized safe operation in request")
	}

	return res
}

// ContainsApprovedStem reports whether any approved verb stem appears in the
// normalized text. Used by the semantic analyzer's missing-safe-operation
// check.
func ContainsApprovedStem(normalized string) bool {
	for _, tok := range strings.Fields(normalized) {
		if _, ok := stemToCategory[stemOf(tok)]; ok {
			return true
		}
	}
	return false
}

// headVerb returns the first verb-like token: skips stop words and anything
// too short to carry intent.
func headVerb(tokens []string) (string, bool) {
	for _, tok := range tokens {
		if stopWords[tok] || len(tok) <= 3 {
			continue
		}
		if !isAlpha(tok) {
			continue
		}
		return tok, true
	}
	return "", false
}

// stemOf reduces common verb inflections so "parsing" and "parsed" land on
// the "parse" stem. This is a fixed suffix table, not a stemmer.
func stemOf(tok string) string {
	if _, ok := stemToCategory[tok]; ok {
		return tok
	}
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		base, found := strings.CutSuffix(tok, suffix)
		if !found || len(base) < 3 {
			continue
		}
		if _, ok := stemToCategory[base]; ok {
			return base
		}
		// parse -> parsing drops the final e
		if _, ok := stemToCategory[base+"e"]; ok {
			return base + "e"
		}
	}
	return tok
}

func isAlpha(tok string) bool {
	for _, r := range tok {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
