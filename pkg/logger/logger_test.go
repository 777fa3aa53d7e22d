package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/exporter-installer/pkg/config"
	"github.com/exporter-installer/pkg/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel("dbg"))
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, logger.ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, logger.ParseLevel("err"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel("whatever"))
}

func TestLoggerInitWritesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig().Log
	cfg.Level = "debug"
	cfg.Path = dir

	require.NoError(t, logger.Init(cfg))

	logger.SetDefaultArtifact("process-agent")
	assert.Equal(t, "process-agent", logger.GetDefaultArtifact())

	logger.Debug("debug msg")
	logger.Info("info msg", zap.String("path", "/opt/prometheus"))
	logger.Warn("warn msg", zap.String("artifact", "node-exporter"))
	logger.Error("error msg")
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"artifact":"process-agent"`)
	assert.Contains(t, string(data), "info msg")
	assert.NotNil(t, logger.GetLogger())
}
