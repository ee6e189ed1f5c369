package logx

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func bufLogger(buf *bytes.Buffer, level zerolog.Level) Logger {
	zl := zerolog.New(buf).Level(level)
	return Logger{base: zl, hasBase: true}
}

func TestLoggerEmitsEveryLevel(t *testing.T) {
	var buf bytes.Buffer
	l := bufLogger(&buf, zerolog.TraceLevel)

	l.Trace("t")
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	out := buf.String()
	for _, want := range []string{
		`"level":"trace"`, `"level":"debug"`, `"level":"info"`,
		`"level":"warn"`, `"level":"error"`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := bufLogger(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := bufLogger(&buf, zerolog.InfoLevel).With(String("comp", "engine"))

	l.Info("run", Int("attempt", 2))

	out := buf.String()
	assert.Contains(t, out, `"comp":"engine"`)
	assert.Contains(t, out, `"attempt":2`)
	assert.Contains(t, out, `"message":"run"`)
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	assert.True(t, l.IsZero())
	// Must not panic.
	l.Info("dropped")
}
