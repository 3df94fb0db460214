package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codehealer/autofix-engine/internal/executor"
)

func TestNewExecutor_DefaultsToYaegi(t *testing.T) {
	exec, err := newExecutor("")
	assert.NoError(t, err)
	_, ok := exec.(*executor.YaegiExecutor)
	assert.True(t, ok)
}

func TestNewExecutor_SupportsSubprocess(t *testing.T) {
	exec, err := newExecutor("subprocess")
	assert.NoError(t, err)
	_, ok := exec.(*executor.SubprocessExecutor)
	assert.True(t, ok)
}

func TestNewExecutor_RejectsUnknownBackend(t *testing.T) {
	_, err := newExecutor("quantum")
	assert.Error(t, err)
}

func TestApiKeyEnvFor_MapsKnownProviders(t *testing.T) {
	assert.Equal(t, "ANTHROPIC_API_KEY", apiKeyEnvFor("anthropic"))
	assert.Equal(t, "OPENAI_API_KEY", apiKeyEnvFor("openai"))
	assert.Equal(t, "OPENAI_API_KEY", apiKeyEnvFor("unknown"))
}

func TestMaskSecret_MasksLongValues(t *testing.T) {
	assert.Equal(t, "ghp_***7890", maskSecret("ghp_1234567890"))
}

func TestMaskSecret_HandlesEmptyAndShortValues(t *testing.T) {
	assert.Equal(t, "", maskSecret(""))
	assert.Equal(t, "***", maskSecret("short"))
}
