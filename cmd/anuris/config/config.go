// Package config implements the host's on-disk configuration file,
// grounded on original_source/V1/anuris/config.py's ConfigManager: a single
// TOML file at ~/.anuris_config.toml, loaded by merging saved values over
// defaults and written back with restrictive permissions.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/anuris/anuris/internal/model"
)

const fileName = ".anuris_config.toml"

// File mirrors model.Config with toml tags; model.Config itself carries
// yaml tags for the in-runtime config the original's dataclass inspired,
// so the host config file gets its own tagged mirror rather than retagging
// the shared runtime type.
type File struct {
	APIKey       string  `toml:"api_key"`
	Proxy        string  `toml:"proxy"`
	Model        string  `toml:"model"`
	Debug        bool    `toml:"debug"`
	BaseURL      string  `toml:"base_url"`
	Temperature  float64 `toml:"temperature"`
	SystemPrompt string  `toml:"system_prompt"`
	Reasoning    bool    `toml:"reasoning"`
}

// Default returns the zero-value-safe defaults, matching Config()'s
// dataclass defaults (temperature 0.4, everything else empty).
func Default() File {
	return File{Temperature: 0.4}
}

// ToModelConfig converts the loaded file into the runtime Config the
// completion client consumes.
func (f File) ToModelConfig() model.Config {
	return model.Config{
		APIKey:       f.APIKey,
		Proxy:        f.Proxy,
		Model:        f.Model,
		Debug:        f.Debug,
		BaseURL:      f.BaseURL,
		Temperature:  f.Temperature,
		SystemPrompt: f.SystemPrompt,
		Reasoning:    f.Reasoning,
	}
}

// Path returns the default config file location, ~/.anuris_config.toml.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, fileName), nil
}

// Load reads path, returning Default() (not an error) when the file
// doesn't exist yet, matching load_config's "return self.default_config"
// branch.
func Load(path string) (File, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return File{}, fmt.Errorf("load config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML with 0600 permissions, matching
// save_config's chmod(0o600) (the file may hold a plaintext api_key).
func Save(path string, cfg File) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encode config %q: %w", path, err)
	}
	return f.Chmod(0o600)
}
