package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("api", Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewWritesNamedLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New("api", Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	require.Equal(t, "api", logger.Name())
}

func TestMustFallsBackToNop(t *testing.T) {
	logger := Must("api", Config{Level: "loud"})
	require.NotNil(t, logger)
	require.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}
