package logging

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, false)

	l.Info("hello %s", "world")
	l.Warn("careful")
	l.Error("broken")
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "✓ hello world")
	assert.Contains(t, out, "⚠ careful")
	assert.Contains(t, out, "✗ broken")
	assert.NotContains(t, out, "hidden", "debug suppressed unless enabled")
}

func TestLoggerDebugEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := NewWithWriter(&buf, true)
	l.Debug("visible")
	assert.Contains(t, buf.String(), "[DEBUG] visible")
}

func TestSecretRedaction(t *testing.T) {
	t.Parallel()

	s := Secret("hunter2")
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%#v", s))
}

func TestRedact(t *testing.T) {
	t.Parallel()

	out := Redact("password is hunter2, token is abc", []string{"hunter2", "abc"})
	assert.Equal(t, "password is [REDACTED], token is abc", out,
		"short values are left alone to avoid shredding ordinary text")
}
