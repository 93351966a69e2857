package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cashflow/card-gateway/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log, err := logger.New(logger.Config{Level: "warn", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	// unknown levels fall back to info
	log, err = logger.New(logger.Config{Level: "chatty", Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gateway.log")

	log, err := logger.New(logger.Config{Level: "info", Format: "json", Output: "file", FilePath: path})
	require.NoError(t, err)

	log.Info("Payment successful")
	_ = log.Sync()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"Payment successful"`)
	assert.Contains(t, string(content), `"log.level":"info"`)
}
