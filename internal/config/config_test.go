package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Definitions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.False(t, cfg.KeepGoing)

	assert.ErrorContains(t, cfg.Validate(), "definitions is required")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
definitions: " flows/*.yml "
output: plan.yaml
workers: 3
keep_going: true
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, "flows/*.yml", cfg.Definitions)
	assert.Equal(t, "plan.yaml", cfg.Output)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.KeepGoing)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDiscoveredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "nthflow.yaml"), []byte("definitions: flows\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "flows", cfg.Definitions)
}

func TestLoadEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NTHFLOW_DEFINITIONS", "env/*.yaml")
	t.Setenv("NTHFLOW_LOG_LEVEL", "warn")
	t.Setenv("NTHFLOW_STABLE_IDS", "true")

	cfg, err := Load(NewViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "env/*.yaml", cfg.Definitions)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.StableIDs)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config")
}

func TestValidateWorkers(t *testing.T) {
	cfg := &Config{Definitions: "flows", Workers: 0}
	assert.ErrorContains(t, cfg.Validate(), "workers must be at least 1")
}
