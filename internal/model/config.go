package model

// Config is the resolved runtime configuration consumed by the completion
// client. It mirrors the original implementation's dataclass exactly so the
// reasoning toggle and proxy fields have a stable home.
type Config struct {
	APIKey        string  `yaml:"api_key"`
	Proxy         string  `yaml:"proxy"`
	Model         string  `yaml:"model"`
	Debug         bool    `yaml:"debug"`
	BaseURL       string  `yaml:"base_url"`
	Temperature   float64 `yaml:"temperature"`
	SystemPrompt  string  `yaml:"system_prompt"`
	Reasoning     bool    `yaml:"reasoning"`
	FallbackModel string  `yaml:"fallback_model,omitempty"`
}

// DefaultConfig returns the zero-value-safe defaults matching the original
// Config dataclass (temperature 0.4, reasoning off).
func DefaultConfig() Config {
	return Config{
		Temperature: 0.4,
	}
}
