package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/promptfan/internal/config"
)

// syncBuffer adapts a bytes.Buffer to the zapcore.WriteSyncer the console
// core expects, so tests can read back what was logged.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func initTestLogger(t *testing.T, cfg config.LoggerConfig) *syncBuffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	buf := &syncBuffer{}
	Initialize(cfg, zapcore.Lock(buf))
	return buf
}

func TestInitializeConsoleLoggerWithColors(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "testservice",
		Colors:      config.ColorConfig{Info: "green"},
	})

	GetLogger().Info("console message")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "console message")
	assert.Contains(t, output, colorGreen, "info level is colorized per config")
	assert.Contains(t, output, colorReset)
}

func TestInitializeJSONLogger(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "jsontest",
	})

	GetLogger().Warn("structured message", zap.String("provider", "chatgpt"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output must be valid JSON")
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "jsontest", entry["logger"])
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "chatgpt", entry["provider"])
}

func TestLevelFiltering(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "warn",
		Format: "json",
	})

	GetLogger().Info("filtered out")
	GetLogger().Warn("kept")

	output := buf.String()
	assert.NotContains(t, output, "filtered out")
	assert.Contains(t, output, "kept")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:  "verbose",
		Format: "json",
	})

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "shown")
}

func TestLogFileCore(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "promptfan-test.log")
	initTestLogger(t, config.LoggerConfig{
		Level:   "debug",
		Format:  "json",
		LogFile: logFile,
		MaxSize: 1,
	})

	GetLogger().Error("this should reach the file")
	_ = GetLogger().Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "this should reach the file")
}

func TestInitializeOnlyOnce(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "first",
	})

	// The second call must be a no-op; the singleton keeps the first config.
	Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.Lock(&syncBuffer{}))

	GetLogger().Info("still the first logger")
	assert.Contains(t, buf.String(), "first")
	assert.NotContains(t, buf.String(), "second")
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger, "uninitialized GetLogger returns a usable fallback")
}
