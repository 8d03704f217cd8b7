package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/pharmacy/internal/infrastructure/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		Log:    config.LogConfig{Level: "WARN", Format: "json", Output: "stderr"},
	}

	log, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.Same(t, log, zap.L(), "全局日志器已替换")
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := &config.Config{Log: config.LogConfig{Level: "verbose"}}

	_, err := New(cfg)
	assert.Error(t, err)
}
