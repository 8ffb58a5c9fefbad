// Package testutil provides shared helpers for guard tests.
package testutil

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

// TestLogger returns the injected logger guard components expect, prefixed
// with the test name so interleaved engine and sink output stays readable.
//
// Output is discarded unless `go test -v` is used.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	var out io.Writer = io.Discard
	if testing.Verbose() {
		out = os.Stderr
	}

	return log.NewWithOptions(out, log.Options{
		Level:  log.DebugLevel,
		Prefix: strings.TrimPrefix(t.Name(), "Test"),
	})
}
