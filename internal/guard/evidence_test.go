package guard

import (
	"math"
	"testing"
)

func TestConfidence_Weights(t *testing.T) {
	w := DefaultWeights()

	tests := []struct {
		name      string
		bypass    int
		semantic  int
		whitelist int
		want      float64
	}{
		{"clean", 0, 0, 0, 1.0},
		{"one bypass", 1, 0, 0, 0.8},
		{"one semantic", 0, 1, 0, 0.9},
		{"one whitelist", 0, 0, 1, 0.95},
		{"one of each", 1, 1, 1, 0.65},
		{"clamped at zero", 5, 2, 1, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &Evidence{
				BypassAttempts:      make([]string, tt.bypass),
				SemanticFlags:       make([]string, tt.semantic),
				WhitelistViolations: make([]string, tt.whitelist),
			}
			got := ev.Confidence(w)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Confidence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidence_Monotonic(t *testing.T) {
	w := DefaultWeights()

	ev := &Evidence{}
	prev := ev.Confidence(w)

	// Adding evidence can only ever lower the score.
	for i := 0; i < 10; i++ {
		ev.SemanticFlags = append(ev.SemanticFlags, "flag")
		got := ev.Confidence(w)
		if got > prev {
			t.Fatalf("confidence rose from %v to %v after adding evidence", prev, got)
		}
		prev = got
	}
}

func TestConfidence_CustomWeights(t *testing.T) {
	ev := &Evidence{BypassAttempts: []string{"a", "b"}}

	got := ev.Confidence(Weights{Bypass: 0.5})
	if got != 0 {
		t.Fatalf("Confidence = %v, want 0 (two bypasses at 0.5 each)", got)
	}
}
