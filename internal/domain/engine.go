package domain

import "fmt"

// Engine identifies an AI answering service being measured
type Engine string

// Engines measured by default. The active set is configuration, not a fixed
// enum: engines appear and disappear faster than release cycles.
const (
	EngineChatGPT    Engine = "ChatGPT"
	EnginePerplexity Engine = "Perplexity"
	EngineGemini     Engine = "Gemini"
	EngineClaude     Engine = "Claude"
)

// EngineConfig binds an engine name to the model used to emulate it
type EngineConfig struct {
	Name  Engine
	Model string
}

// ValidateEngineConfig validates an EngineConfig instance
func ValidateEngineConfig(e EngineConfig) error {
	if e.Name == "" {
		return fmt.Errorf("engine name is required")
	}

	if e.Model == "" {
		return fmt.Errorf("engine %q model is required", e.Name)
	}

	return nil
}

// DefaultEngineConfigs returns the four engines the dashboard ships with,
// all emulated through the same answering backend.
func DefaultEngineConfigs(model string) []EngineConfig {
	return []EngineConfig{
		{Name: EngineChatGPT, Model: model},
		{Name: EnginePerplexity, Model: model},
		{Name: EngineGemini, Model: model},
		{Name: EngineClaude, Model: model},
	}
}
