package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("verbose"))
}

func TestInitializeWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, Initialize("info", path))
	t.Cleanup(func() { _ = Initialize("error", "") })

	Log.Info("group created", WithGroupID("g1"), WithUserID("u1"))
	WarnWithFields("cache miss storm", errors.New("redis down"))
	Log.Debug("dropped below level")
	_ = Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped below level")

	var found bool
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var entry map[string]interface{}
		require.NoError(t, dec.Decode(&entry))
		if entry["msg"] == "group created" {
			found = true
			assert.Equal(t, "g1", entry["group_id"])
			assert.Equal(t, "u1", entry["user_id"])
		}
		if entry["msg"] == "cache miss storm" {
			assert.Equal(t, "redis down", entry["error"])
		}
	}
	assert.True(t, found)
}
