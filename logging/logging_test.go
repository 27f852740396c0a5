package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightbook/config"
)

func TestNew_NoFileIsNop(t *testing.T) {
	logger, err := New(config.Log{Level: "debug"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "flightbook.log")
	logger, err := New(config.Log{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("search started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "search started")
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(config.Log{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}
