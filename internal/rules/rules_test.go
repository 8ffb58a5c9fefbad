package rules

import (
	"testing"

	"github.com/codefactory/guard/internal/normalize"
)

func ruleIDs(list []*Rule) []string {
	ids := make([]string, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	return ids
}

func hasID(list []*Rule, id string) bool {
	for _, r := range list {
		if r.ID == id {
			return true
		}
	}
	return false
}

func TestBuiltin_Compiles(t *testing.T) {
	set := Builtin()
	if len(set.Critical()) == 0 {
		t.Fatalf("no critical rules")
	}
	if len(set.Confirm()) == 0 {
		t.Fatalf("no confirm rules")
	}
	for _, r := range set.Critical() {
		if r.Severity != SeverityCritical {
			t.Fatalf("rule %s: severity = %s, want critical", r.ID, r.Severity)
		}
	}
	for _, r := range set.Confirm() {
		if r.Severity != SeverityConfirm {
			t.Fatalf("rule %s: severity = %s, want confirm", r.ID, r.Severity)
		}
	}
}

func TestMatch_CriticalPatterns(t *testing.T) {
	set := Builtin()

	tests := []struct {
		text string
		want string
	}{
		{"control equipment in the plant", "control-equipment"},
		{"actuate the valve", "actuate"},
		{"bypass interlocks on startup", "bypass-interlock"},
		{"override safety checks", "override-safety"},
		{"disable alarms during maintenance", "disable-alarm"},
		{"hack the server", "hack"},
		{"hacking tools", "hack"},
		{"exploit vulnerabilities", "exploit"},
		{"crack passwords offline", "crack-password"},
		{"inject sql into the form", "inject"},
		{"ship malware", "malware"},
		{"write a virus", "virus"},
		{"install a backdoor", "backdoor"},
		{"privilege escalation path", "privilege-escalation"},
		{"rm rf the directory", "rm-rf"},
		{"format drives before disposal", "format-drive"},
		{"delete all records", "delete-all"},
		{"drop database prod", "drop-database"},
		{"truncate tables nightly", "truncate-table"},
		{"base 64 decode the payload", "base64-decode"},
		{"call eval (user input)", "eval-call"},
		{"run exec (command)", "exec-call"},
	}

	for _, tt := range tests {
		res := set.Match(tt.text)
		if !hasID(res.Critical, tt.want) {
			t.Fatalf("Match(%q).Critical = %v, want to include %s",
				tt.text, ruleIDs(res.Critical), tt.want)
		}
	}
}

func TestMatch_ConfirmPatterns(t *testing.T) {
	set := Builtin()

	tests := []struct {
		text string
		want string
	}{
		{"delete files older than a week", "delete-file"},
		{"send alert emails when alarms fire", "send-email"},
		{"make a network call to the upstream", "network-call"},
		{"issue api requests on a schedule", "api-request"},
		{"modify database rows in place", "modify-database"},
		{"run it with sudo", "sudo"},
		{"needs admin privileges", "admin-privilege"},
		{"trace each system call", "system-call"},
		{"spawn a subprocess per job", "subprocess"},
	}

	for _, tt := range tests {
		res := set.Match(tt.text)
		if !hasID(res.Confirm, tt.want) {
			t.Fatalf("Match(%q).Confirm = %v, want to include %s",
				tt.text, ruleIDs(res.Confirm), tt.want)
		}
	}
}

func TestMatch_CollectsAll(t *testing.T) {
	set := Builtin()

	res := set.Match("hack into systems and exploit vulnerabilities")
	if !hasID(res.Critical, "hack") || !hasID(res.Critical, "exploit") {
		t.Fatalf("Match collected %v, want both hack and exploit", ruleIDs(res.Critical))
	}
}

func TestMatch_WordBoundaries(t *testing.T) {
	set := Builtin()

	// Substrings inside ordinary words must not fire.
	for _, text := range []string{
		"thack is a surname",
		"execute the plan",      // not "exec ("
		"evaluation of results", // not "eval ("
		"confirm the schedule",
		"parse alarm logs and identify patterns in critical events",
	} {
		res := set.Match(text)
		if len(res.Critical) != 0 {
			t.Fatalf("Match(%q).Critical = %v, want none", text, ruleIDs(res.Critical))
		}
	}
}

func TestMatch_EmptyText(t *testing.T) {
	set := Builtin()

	res := set.Match("")
	if len(res.Critical) != 0 || len(res.Confirm) != 0 {
		t.Fatalf("Match(\"\") fired rules: %v %v", ruleIDs(res.Critical), ruleIDs(res.Confirm))
	}
}

// Obfuscated and plain spellings must resolve to the same rule ID once the
// text has been normalized.
func TestMatch_NormalizedVariantsSameRule(t *testing.T) {
	set := Builtin()
	n := normalize.New()

	variants := []string{
		"control equipment",
		"Control Equipment",
		"control_equipment",
		"c-o-n-t-r-o-l equipment",
		"ｃｏｎｔｒｏｌ equipment",
		"contrôl equipment",
		"c0ntr0l equipment",
		"con​trol equipment", // zero-width insertion
	}

	for _, v := range variants {
		res := set.Match(n.Normalize(v))
		if !hasID(res.Critical, "control-equipment") {
			t.Fatalf("variant %q: matched %v, want control-equipment", v, ruleIDs(res.Critical))
		}
	}
}

func TestWithExtra(t *testing.T) {
	set, err := Builtin().WithExtra([]string{`\bfrobnicate\b`}, []string{`\breboot\b`})
	if err != nil {
		t.Fatalf("WithExtra: %v", err)
	}

	res := set.Match("frobnicate the sensor then reboot")
	if !hasID(res.Critical, "extra-critical-0") {
		t.Fatalf("extra critical rule did not fire: %v", ruleIDs(res.Critical))
	}
	if !hasID(res.Confirm, "extra-confirm-0") {
		t.Fatalf("extra confirm rule did not fire: %v", ruleIDs(res.Confirm))
	}

	// The base set is unchanged.
	base := Builtin()
	if got := len(base.Critical()); got >= len(set.Critical()) {
		t.Fatalf("extra rules leaked into builtin set")
	}
}

func TestWithExtra_InvalidPattern(t *testing.T) {
	if _, err := Builtin().WithExtra([]string{`(`}, nil); err == nil {
		t.Fatalf("expected error for invalid extra pattern")
	}
	if _, err := Builtin().WithExtra(nil, []string{`[`}); err == nil {
		t.Fatalf("expected error for invalid extra confirm pattern")
	}
}
