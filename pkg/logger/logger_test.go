package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelsAndFormatting(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions("facade", "1.0.0", Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	l.Info("hidden %d", 1)
	l.Warn("lock %s not acquired", "jobs")
	l.Errorf("connect failed: %v", "refused")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "lock jobs not acquired")
	assert.Contains(t, out, "connect failed: refused")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "facade")
}

func TestPercentWithoutArgsIsLiteral(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions("facade", "1.0.0", Options{Output: &buf})
	require.NoError(t, err)

	l.Info("100% done")
	assert.Contains(t, buf.String(), "100% done")
}

func TestJSONFormatWithFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions("facade", "1.0.0", Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	l.WithFields(map[string]string{"adapter": "redis", "db": "2"}).Info("connected")

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "connected", rec["msg"])
	assert.Equal(t, "redis", rec["adapter"])
	assert.Equal(t, "2", rec["db"])
	assert.Equal(t, "1.0.0", rec["version"])
}

func TestInvalidOptions(t *testing.T) {
	_, err := NewWithOptions("facade", "1.0.0", Options{Level: "loud"})
	assert.Error(t, err)

	_, err = NewWithOptions("facade", "1.0.0", Options{Format: "xml"})
	assert.Error(t, err)
}

func TestSubscribe(t *testing.T) {
	l := NewNop()
	ch := l.Subscribe()

	l.WithFields(map[string]string{"key": "k"}).Warn("expired")

	entry := <-ch
	assert.Equal(t, "WARN", entry.Level)
	assert.Equal(t, "expired", entry.Message)
	assert.Equal(t, "k", entry.Fields["key"])
}

func TestDisableConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithOptions("facade", "1.0.0", Options{Output: &buf})
	require.NoError(t, err)
	ch := l.Subscribe()

	l.DisableConsoleOutput()
	l.Info("quiet")
	assert.Empty(t, buf.String())
	assert.Equal(t, "quiet", (<-ch).Message)

	l.EnableConsoleOutput()
	l.Info("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestFileOutputAndRotate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "facade.log")

	var buf bytes.Buffer
	l, err := NewWithOptions("facade", "1.0.0", Options{Output: &buf, File: file})
	require.NoError(t, err)

	l.Info("to file")
	require.NoError(t, l.Rotate())
	l.Info("after rotate")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotate")
	assert.NotContains(t, string(data), "to file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2)
}

func TestRotateWithoutFile(t *testing.T) {
	assert.NoError(t, New("facade", "dev").Rotate())
}

func TestFormatServiceName(t *testing.T) {
	assert.Equal(t, "short", formatServiceName("short"))
	long := formatServiceName(strings.Repeat("x", 30))
	assert.Len(t, long, ServiceNameWidth)
	assert.True(t, strings.HasSuffix(long, "~"))
}
