package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"frigo/internal/config"
	"frigo/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		level zapcore.Level
	}{
		{"debug_console", config.LogConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"warn_json", config.LogConfig{Level: "warn", Format: "json"}, zapcore.WarnLevel},
		{"unknown_level_defaults_to_info", config.LogConfig{Level: "chatty"}, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.New(&tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level))
			if tt.level > zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.level-1))
			}
		})
	}
}
