package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(50<<20), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "data", cfg.Storage.Local.BasePath)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, "backtest-events", cfg.Events.Topic)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 0.0, cfg.Analysis.EquityJitter)
	require.Len(t, cfg.Images.ThumbnailSizes, 3)
	assert.Equal(t, ThumbnailSize{Name: "small", Width: 320, Height: 180}, cfg.Images.ThumbnailSizes[0])
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: "9090"
storage:
  type: s3
  s3:
    bucket: backtests
analysis:
  equityJitter: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "backtests", cfg.Storage.S3.Bucket)
	assert.Equal(t, "backtests/", cfg.Storage.S3.Prefix)
	assert.Equal(t, 10.0, cfg.Analysis.EquityJitter)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
