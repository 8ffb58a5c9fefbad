package rules

import (
	"encoding/json"
	"sort"
	"testing"
)

func TestExport_Deterministic(t *testing.T) {
	set := Builtin()

	a := set.Export()
	b := set.Export()

	if a.SHA256 != b.SHA256 {
		t.Fatalf("hash not deterministic: %s != %s", a.SHA256, b.SHA256)
	}
	if len(a.SHA256) != 64 {
		t.Fatalf("hash length = %d, want 64 hex chars", len(a.SHA256))
	}

	for _, sev := range []string{"critical", "confirm"} {
		tier, ok := a.Severities[sev]
		if !ok {
			t.Fatalf("export missing %s tier", sev)
		}
		if len(tier.Rules) == 0 {
			t.Fatalf("%s tier is empty", sev)
		}
		if !sort.SliceIsSorted(tier.Rules, func(i, j int) bool {
			return tier.Rules[i].ID < tier.Rules[j].ID
		}) {
			t.Fatalf("%s tier not sorted by ID", sev)
		}
	}
}

func TestHash_ChangesWithRules(t *testing.T) {
	base := Builtin()
	extended, err := base.WithExtra([]string{`\bfrobnicate\b`}, nil)
	if err != nil {
		t.Fatalf("WithExtra: %v", err)
	}

	if base.Hash() == extended.Hash() {
		t.Fatalf("hash did not change when rules changed")
	}
}

func TestExportJSON_RoundTrips(t *testing.T) {
	data, err := Builtin().ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	var decoded Export
	if err := json.Unmarshal([]byte(data), &decoded); err != nil {
		t.Fatalf("decoding export: %v", err)
	}
	if decoded.Version == "" || decoded.SHA256 == "" {
		t.Fatalf("export missing version or hash: %+v", decoded)
	}
	if decoded.SHA256 != Builtin().Hash() {
		t.Fatalf("embedded hash %s != recomputed %s", decoded.SHA256, Builtin().Hash())
	}
}
