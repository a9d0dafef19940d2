// Package testutil holds helpers shared by tests.
package testutil

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestLogger returns a debug logger writing each entry to t.Log, so
// registry and loader decisions show up next to a failing test.
func NewTestLogger(t testing.TB) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.ConsoleWriter{Out: testLogWriter{t}, NoColor: true}).
		Level(zerolog.DebugLevel)
}

type testLogWriter struct {
	t testing.TB
}

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
