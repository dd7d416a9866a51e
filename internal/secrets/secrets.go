// Package secrets resolves and stores the LLM provider API key, grounded
// on the teacher's keyring.go. The resolution priority is simplified from
// the teacher's vault→keyring→env→config chain (this runtime has no
// password-protected vault): OS keyring, then a provider-specific
// environment variable, then whatever value the caller already resolved
// from its config file.
package secrets

import (
	"fmt"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "anuris"
	keyringAPIKey  = "api_key"
)

// envVarsByProvider lists the environment variables ResolveAPIKey checks
// for each provider family, in priority order.
var envVarsByProvider = map[string][]string{
	"openai":    {"ANURIS_API_KEY", "OPENAI_API_KEY"},
	"anthropic": {"ANURIS_API_KEY", "ANTHROPIC_API_KEY"},
	"deepseek":  {"ANURIS_API_KEY", "DEEPSEEK_API_KEY"},
	"google":    {"ANURIS_API_KEY", "GOOGLE_API_KEY"},
	"groq":      {"ANURIS_API_KEY", "GROQ_API_KEY"},
}

func envVarsFor(provider string) []string {
	if vars, ok := envVarsByProvider[provider]; ok {
		return vars
	}
	return []string{"ANURIS_API_KEY"}
}

// Store saves the API key to the OS keyring.
func Store(apiKey string) error {
	return keyring.Set(keyringService, keyringAPIKey, apiKey)
}

// Get retrieves the API key from the OS keyring, returning "" if absent.
func Get() string {
	val, err := keyring.Get(keyringService, keyringAPIKey)
	if err != nil {
		return ""
	}
	return val
}

// Delete removes the API key from the OS keyring.
func Delete() error {
	return keyring.Delete(keyringService, keyringAPIKey)
}

// Available reports whether the OS keyring is reachable, by performing a
// set+delete round trip against a throwaway key.
func Available() bool {
	const probeKey = "__anuris_probe__"
	if err := keyring.Set(keyringService, probeKey, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probeKey)
	return true
}

// ResolveAPIKey applies the priority chain: OS keyring, then the
// provider's environment variable(s), then configValue (whatever the
// caller already loaded from its config file). Returns the resolved key
// and which source it came from ("keyring", "env:NAME", or "config").
func ResolveAPIKey(provider, configValue string) (key string, source string) {
	if val := Get(); val != "" {
		return val, "keyring"
	}
	for _, name := range envVarsFor(provider) {
		if val := os.Getenv(name); val != "" {
			return val, fmt.Sprintf("env:%s", name)
		}
	}
	if configValue != "" {
		return configValue, "config"
	}
	return "", "none"
}

// Migrate moves an API key into the OS keyring so future resolutions no
// longer depend on an env var or plaintext config value.
func Migrate(apiKey string) error {
	if err := Store(apiKey); err != nil {
		return fmt.Errorf("store in keyring: %w", err)
	}
	return nil
}
