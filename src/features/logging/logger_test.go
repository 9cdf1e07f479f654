package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/contre95/dropzone/src/features/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger_WritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropzone.log")
	cfg := config.NewManager(&config.Config{
		Logger: config.Logger{Level: "debug", Format: "logfmt", File: path},
	})

	logger, closer, err := SetupLogger(cfg)
	require.NoError(t, err)
	logger.Warn("Timed out waiting for file to stabilize", "path", "/tmp/a.png")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Timed out waiting for file to stabilize")
	assert.Contains(t, string(data), "/tmp/a.png")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, log.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
}
