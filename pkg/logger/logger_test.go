package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lastEntry 解析缓冲区中最后一行 JSON 日志
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	return entry
}

func newJSONLogger(t *testing.T, buf *bytes.Buffer, level Level) *BaseLogger {
	t.Helper()
	l, err := New(&Config{Level: level, Format: JSONFormat}, WithWriter(buf))
	require.NoError(t, err)
	return l
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{name: "nil config uses default", config: nil},
		{name: "json console", config: &Config{Format: JSONFormat}},
		{name: "file without path", config: &Config{EnableFile: true}, wantErr: ErrInvalidOutputPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	assert.ErrorIs(t, (&Config{}).Validate(), ErrNoOutputEnabled)
	assert.NoError(t, (&Config{EnableFile: true, OutputPath: "x.log"}).Validate())
}

func TestKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf, DebugLevel)

	l.Info("reservation committed", "resource", 12, "user", "7", "err", errors.New("boom"))

	entry := lastEntry(t, &buf)
	assert.Equal(t, "reservation committed", entry["msg"])
	assert.Equal(t, float64(12), entry["resource"])
	assert.Equal(t, "7", entry["user"])
	assert.Equal(t, "boom", entry["err"])
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf, InfoLevel)
	child := l.Named("dispatcher")

	child.Debug("hidden")
	assert.Empty(t, buf.String())

	// 父 logger 调整等级后子 logger 同步生效
	l.SetLevel(DebugLevel)
	child.Debug("visible")
	entry := lastEntry(t, &buf)
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "dispatcher", entry["logger"])
}

func TestContextFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf, InfoLevel)

	ctx := ContextWithFields(context.Background(), "conn_id", "c-1")
	ctx = ContextWithFields(ctx, "user", "42")
	l.WithFields("component", "session").InfoContext(ctx, "login", "attempt", 1)

	entry := lastEntry(t, &buf)
	assert.Equal(t, "c-1", entry["conn_id"])
	assert.Equal(t, "42", entry["user"])
	assert.Equal(t, "session", entry["component"])
	assert.Equal(t, float64(1), entry["attempt"])
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beachd.log")
	l, err := New(&Config{EnableFile: true, OutputPath: path, Format: JSONFormat})
	require.NoError(t, err)

	l.Info("to file")
	_ = l.Sync()
	assert.FileExists(t, path)
}

func TestNoop(t *testing.T) {
	var l Logger = NewNoop()
	l.Info("nothing")
	assert.Same(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}
