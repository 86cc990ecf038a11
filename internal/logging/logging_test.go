package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		json  bool
		want  zapcore.Level
	}{
		{"debug", false, zapcore.DebugLevel},
		{"info", true, zapcore.InfoLevel},
		{"WARN", false, zapcore.WarnLevel},
		{"error", true, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, tt.json)
		require.NoError(t, err, tt.level)
		assert.True(t, logger.Core().Enabled(tt.want), tt.level)
		if tt.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tt.want-1), tt.level)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("chatty", false)
	assert.Error(t, err)
}
