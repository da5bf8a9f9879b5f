package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"superstore/internal/config"
)

func TestConfig(t *testing.T) {
	zc, err := Config(config.LoggingConfig{Level: "warn", Format: "json"}, false)
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, zc.Level.Level())
	assert.Equal(t, "json", zc.Encoding)

	zc, err = Config(config.LoggingConfig{Level: "warn", Format: "console"}, true)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, zc.Level.Level())
	assert.Equal(t, "console", zc.Encoding)
}

func TestConfig_BadLevel(t *testing.T) {
	_, err := Config(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	logger, err := New(config.LoggingConfig{}, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
