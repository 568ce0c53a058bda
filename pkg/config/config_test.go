package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viperlog.yaml")
	data := []byte(`
logging:
  level: DEBUG
storage:
  rotationSize: 1048576
  retentionAge: 72h
search:
  defaultFuzzyThreshold: 0.6
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, int64(1<<20), cfg.Storage.RotationSize)
	assert.Equal(t, 72*time.Hour, cfg.Storage.RetentionAge)
	assert.Equal(t, 0.6, cfg.Search.DefaultFuzzyThreshold)
	// Untouched values keep their defaults.
	assert.Equal(t, 512, cfg.Search.QueryCacheSize)
	assert.True(t, cfg.Index.RebuildOnOpen)
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("VIPERLOG_LOG_LEVEL", "ERROR")
	t.Setenv("VIPERLOG_RETENTION_AGE", "48h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, 48*time.Hour, cfg.Storage.RetentionAge)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viperlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  defaultFuzzyThreshold: 1.5\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
