package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{FormatJSON, func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, "hello", m["msg"])
			assert.Equal(t, "v", m["k"])
		}},
		{FormatText, func(t *testing.T, out string) {
			assert.Contains(t, out, "msg=hello")
			assert.Contains(t, out, "k=v")
		}},
		{FormatZap, func(t *testing.T, out string) {
			var m map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &m))
			assert.Equal(t, "hello", m["msg"])
			assert.Equal(t, "v", m["k"])
			assert.Equal(t, "info", m["level"])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(&buf, tt.format, "info")
			require.NoError(t, err)

			l.Debug(context.Background(), "hidden")
			l.Info(context.Background(), "hello", "k", "v")

			out := strings.TrimSpace(buf.String())
			assert.NotContains(t, out, "hidden")
			tt.check(t, out)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "xml", "info")
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, FormatJSON, "loud")
	assert.Error(t, err)
}

func TestZapLogger_LevelsWithAndRedaction(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, FormatZap, "debug")
	require.NoError(t, err)
	ctx := context.Background()

	child := l.With("module", "test")
	child.Debug(ctx, "dbg")
	child.Warn(ctx, "wrn", "password", "hunter22")
	child.Error(ctx, "err")
	require.NoError(t, l.(*ZapLogger).Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	levels := []string{"debug", "warn", "error"}
	for i, line := range lines {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		assert.Equal(t, levels[i], m["level"])
		assert.Equal(t, "test", m["module"])
	}
	assert.NotContains(t, buf.String(), "hunter22")
	assert.Contains(t, buf.String(), redactedValue)
}

func TestRedactArgs_DoesNotMutateInput(t *testing.T) {
	in := []any{"token", "abc", "user_id", "1"}
	out := redactArgs(in)

	assert.Equal(t, "abc", in[1])
	assert.Equal(t, redactedValue, out[1])
	assert.Equal(t, "1", out[3])

	plain := []any{"user_id", "1"}
	assert.Equal(t, plain, redactArgs(plain))
}

func TestNop(t *testing.T) {
	var l Logger = Nop{}
	l.With("a", 1).Info(context.Background(), "nothing")
}
