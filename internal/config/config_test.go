package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codehealer/autofix-engine/internal/config"
)

func TestLoad_DefaultsWithNoFiles(t *testing.T) {
	cfg := config.Load("", "")
	assert.Equal(t, 5, cfg.MaxIterations)
	assert.Equal(t, 10*time.Second, cfg.SandboxTimeout)
	assert.Equal(t, "openai", cfg.ModelBackend)
}

func TestLoad_TomlOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_iterations = 8\nmodel_backend = \"anthropic\"\n"), 0o644))

	cfg := config.Load("", path)
	assert.Equal(t, 8, cfg.MaxIterations)
	assert.Equal(t, "anthropic", cfg.ModelBackend)
}

func TestLoad_EnvOverridesToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_iterations = 8\n"), 0o644))

	t.Setenv("MAX_ITERATIONS", "12")
	cfg := config.Load("", path)
	assert.Equal(t, 12, cfg.MaxIterations)
}

func TestLoad_DebugFlagParsesBool(t *testing.T) {
	t.Setenv("DEBUG", "true")
	cfg := config.Load("", "")
	assert.True(t, cfg.Debug)
}
