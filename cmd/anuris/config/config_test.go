package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.toml")

	cfg := File{
		APIKey:      "sk-test",
		Model:       "gpt-4o",
		BaseURL:     "https://api.openai.com",
		Temperature: 0.7,
		Reasoning:   true,
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestToModelConfig_CopiesFields(t *testing.T) {
	cfg := File{APIKey: "sk-x", Model: "m", Temperature: 0.4}
	mc := cfg.ToModelConfig()

	require.Equal(t, cfg.APIKey, mc.APIKey)
	require.Equal(t, cfg.Model, mc.Model)
	require.Equal(t, cfg.Temperature, mc.Temperature)
}
