package rules

import "testing"

func hasAttempt(attempts []string, name string) bool {
	for _, a := range attempts {
		if a == name {
			return true
		}
	}
	return false
}

func TestDetectBypass(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"zero width", "con​trol equipment", BypassZeroWidth},
		{"bidi override", "control ‮equipment", BypassZeroWidth},
		{"accented", "contrôl équipment", BypassHomoglyph},
		{"fullwidth", "ｃｏｎｔｒｏｌ equipment", BypassHomoglyph},
		{"dash spelled", "c-o-n-t-r-o-l equipment", BypassSeparator},
		{"space spelled", "c o n t r o l equipment", BypassSeparator},
		{"leet digits", "h4ck the system", BypassLeet},
		{"leet dollar", "pa$$word cracking", BypassLeet},
		{"case mixing", "CoNtRoL equipment", BypassCaseMixing},
		{"cyrillic o", "cоntrol equipment", BypassMixedScript},
		{"symbol heavy", "@@## $$%% ^^&&", BypassSymbolDensity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectBypass(tt.raw)
			if !hasAttempt(got, tt.want) {
				t.Fatalf("DetectBypass(%q) = %v, want to include %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDetectBypass_CleanText(t *testing.T) {
	for _, raw := range []string{
		"",
		"Parse alarm logs and identify patterns in critical events",
		"Create a report generator for weekly summaries",
	} {
		if got := DetectBypass(raw); len(got) != 0 {
			t.Fatalf("DetectBypass(%q) = %v, want none", raw, got)
		}
	}
}

func TestDetectBypass_OrdinaryUsageNotFlagged(t *testing.T) {
	tests := []struct {
		raw  string
		skip string
	}{
		// Ordinary capitalization is one transition, not case mixing.
		{"Parse The Alarm Logs Now", BypassCaseMixing},
		// Numbers that never touch letters are not leet.
		{"listen on port 8080 and 9090", BypassLeet},
		// A short fragment is exempt from symbol density.
		{"a+b", BypassSymbolDensity},
	}

	for _, tt := range tests {
		if got := DetectBypass(tt.raw); hasAttempt(got, tt.skip) {
			t.Fatalf("DetectBypass(%q) = %v, must not include %s", tt.raw, got, tt.skip)
		}
	}
}

func TestDetectBypass_Multiple(t *testing.T) {
	got := DetectBypass("c-0-n-t-r-0-l equipment")
	if !hasAttempt(got, BypassSeparator) {
		t.Fatalf("DetectBypass = %v, want separator insertion", got)
	}
}
