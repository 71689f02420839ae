package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestDefaultEngineConfigs(t *testing.T) {
	configs := DefaultEngineConfigs("gpt-4o-mini")

	require.Len(t, configs, 4)
	assert.Equal(t, EngineChatGPT, configs[0].Name)
	assert.Equal(t, EnginePerplexity, configs[1].Name)
	assert.Equal(t, EngineGemini, configs[2].Name)
	assert.Equal(t, EngineClaude, configs[3].Name)
	for _, c := range configs {
		assert.Equal(t, "gpt-4o-mini", c.Model)
	}
}

func TestValidateEngineConfig(t *testing.T) {
	assert.NoError(t, ValidateEngineConfig(EngineConfig{Name: EngineGemini, Model: "gpt-4o"}))
	assert.Error(t, ValidateEngineConfig(EngineConfig{Model: "gpt-4o"}))
	assert.Error(t, ValidateEngineConfig(EngineConfig{Name: EngineGemini}))
}

func TestWindowContains(t *testing.T) {
	from := mustTime(t, "2026-03-01T00:00:00Z")
	to := mustTime(t, "2026-03-08T00:00:00Z")
	w := Window{From: from, To: to}

	assert.True(t, w.Contains(from))
	assert.True(t, w.Contains(to))
	assert.True(t, w.Contains(from.Add(24*time.Hour)))
	assert.False(t, w.Contains(from.Add(-1)))
	assert.False(t, w.Contains(to.Add(1)))
}
