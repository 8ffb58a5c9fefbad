// Package semantic looks for intent signals that regex rules alone cannot
// reliably express: destructive verbs, risky keyword combinations, and
// privileged execution contexts. The analyzer only reports flags; turning
// flags into a score is the aggregator's job.
package semantic

import (
	"sort"
	"strings"

	"github.com/codefactory/guard/internal/whitelist"
)

// destructiveVerbs are flagged whenever present, regardless of object. Their
// combination with any target is concerning.
var destructiveVerbs = []string{
	"destroy", "wipe", "erase", "corrupt", "damage", "break",
	"crash", "kill", "terminate", "circumvent", "evade",
}

// riskyPairs are only flagged when both members appear in the same text, to
// avoid over-triggering on either term alone. The obfuscation half is the
// full source x target grid: any hiding verb next to any execution verb.
var riskyPairs = func() [][2]string {
	pairs := [][2]string{
		{"system", "control"},
		{"system", "access"},
		{"system", "override"},
	}
	for _, src := range []string{"obfuscate", "encode", "decode", "hide"} {
		for _, dst := range []string{"execute", "eval", "run", "exec"} {
			pairs = append(pairs, [2]string{src, dst})
		}
	}
	return pairs
}()

// privilegedTerms mark an execution context where confirm-level operations
// deserve extra scrutiny.
var privilegedTerms = []string{
	"admin", "administrator", "root", "superuser", "production",
	"privileged",
}

// Input carries everything the analyzer inspects for one evaluation.
type Input struct {
	// Normalized is the canonicalized request text.
	Normalized string
	// Environment and TargetUsers are the caller-declared context hints.
	Environment []string
	TargetUsers []string
	// ConfirmMatches are the IDs of confirm-severity rules that fired;
	// privileged contexts amplify them.
	ConfirmMatches []string
}

// Analyze returns the ordered list of semantic flags for one request. Flags
// are stable strings suitable for audit records; each one costs a fixed
// confidence penalty in the aggregator.
func Analyze(in Input) []string {
	var flags []string

	words := tokenSet(in.Normalized)

	if found := intersect(words, destructiveVerbs); len(found) > 0 {
		flags = append(flags, "destructive-verbs: "+strings.Join(found, ", "))
	}

	for _, pair := range riskyPairs {
		if words[pair[0]] && words[pair[1]] {
			flags = append(flags, "risky-pair: "+pair[0]+"+"+pair[1])
		}
	}

	if ctx, privileged := privilegedContext(in.Environment, in.TargetUsers); privileged {
		for _, id := range in.ConfirmMatches {
			flags = append(flags, "privileged-context: "+ctx+" amplifies "+id)
		}
	}

	// Absence of any approved verb stem is suspicious by absence, not by
	// presence: a request with no recognizable safe action has to explain
	// itself through confidence.
	if in.Normalized != "" && !whitelist.ContainsApprovedStem(in.Normalized) {
		flags = append(flags, "no-approved-operation")
	}

	return flags
}

func tokenSet(normalized string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		set[tok] = true
	}
	return set
}

func intersect(words map[string]bool, list []string) []string {
	var found []string
	for _, w := range list {
		if words[w] {
			found = append(found, w)
		}
	}
	sort.Strings(found)
	return found
}

// privilegedContext reports whether any declared environment or target-user
// hint mentions a privileged term, and which term it was.
func privilegedContext(environment, users []string) (string, bool) {
	for _, field := range [][]string{environment, users} {
		for _, entry := range field {
			lower := strings.ToLower(entry)
			for _, term := range privilegedTerms {
				if strings.Contains(lower, term) {
					return term, true
				}
			}
		}
	}
	return "", false
}
