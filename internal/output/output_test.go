package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/codefactory/guard/internal/guard"
)

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := New(FormatJSON, WithOutput(&buf))

	check := guard.SafetyCheck{
		Approved:        true,
		ConfidenceScore: 1.0,
		Warnings:        []string{},
	}
	if err := w.Write(check); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["approved"] != true {
		t.Fatalf("approved = %v", decoded["approved"])
	}
	if _, ok := decoded["confidence_score"]; !ok {
		t.Fatalf("JSON keys are not snake_case: %v", decoded)
	}
}

func TestWriter_YAMLUsesJSONTags(t *testing.T) {
	var buf bytes.Buffer
	w := New(FormatYAML, WithOutput(&buf))

	if err := w.Write(guard.SafetyCheck{ConfidenceScore: 0.8}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	text := buf.String()
	if !strings.Contains(text, "confidence_score:") {
		t.Fatalf("YAML output does not honor JSON tags:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Fatalf("YAML output missing trailing newline")
	}
}

func TestWriter_UnsupportedFormat(t *testing.T) {
	w := New(Format("xml"), WithOutput(&bytes.Buffer{}))
	if err := w.Write("data"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWriter_ErrorGoesToErrOut(t *testing.T) {
	var out, errOut bytes.Buffer
	w := New(FormatText, WithOutput(&out), WithErrorOutput(&errOut))

	w.Error(errors.New("boom"))
	if out.Len() != 0 {
		t.Fatalf("error leaked to stdout: %q", out.String())
	}
	if !strings.Contains(errOut.String(), "boom") {
		t.Fatalf("stderr = %q", errOut.String())
	}
}

func TestRenderCheck(t *testing.T) {
	tests := []struct {
		name  string
		check guard.SafetyCheck
		want  string
	}{
		{
			"approved",
			guard.SafetyCheck{Approved: true, ConfidenceScore: 1.0},
			"APPROVED",
		},
		{
			"confirm",
			guard.SafetyCheck{
				RequiredConfirmations: []string{"This will perform: email sending. Proceed?"},
				ConfidenceScore:       0.8,
			},
			"CONFIRMATION REQUIRED",
		},
		{
			"blocked",
			guard.SafetyCheck{
				Warnings:        []string{"blocked: hacking / unauthorized access (rule hack)"},
				BlockedKeywords: []string{"exploit"},
				ConfidenceScore: 0.8,
			},
			"BLOCKED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCheck(&tt.check)
			if !strings.Contains(got, tt.want) {
				t.Fatalf("RenderCheck = %q, want to contain %q", got, tt.want)
			}
		})
	}
}

func TestRenderCheck_ShowsDetails(t *testing.T) {
	check := guard.SafetyCheck{
		Warnings:        []string{"note: no-approved-operation"},
		BlockedKeywords: []string{"exploit"},
		ConfidenceScore: 0.4,
	}
	check.Metadata.ID = "abc-123"

	got := RenderCheck(&check)
	for _, want := range []string{"exploit", "no-approved-operation", "0.40", "abc-123"} {
		if !strings.Contains(got, want) {
			t.Fatalf("RenderCheck missing %q:\n%s", want, got)
		}
	}
}
