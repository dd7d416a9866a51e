package llm

import "strings"

// Provider identifies the family of chat-completion API this client is
// talking to. Detection drives provider-specific payload extras (currently:
// the DeepSeek reasoning toggle) and, through DetectProvider, the host's
// choice of API-key environment variable; it never changes transport
// behavior.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderOpenRouter Provider = "openrouter"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGeneric    Provider = "generic"
)

// DetectProvider exposes detectProvider's family classification to callers
// outside this package (the host CLI uses it to pick which provider-
// specific environment variable secrets.ResolveAPIKey should check).
func DetectProvider(baseURL, modelName string) Provider {
	return detectProvider(baseURL, modelName)
}

// detectProvider matches the lowercased base URL and model name against a
// fixed precedence order. OpenRouter is checked before openai.com since
// OpenRouter proxies OpenAI-shaped requests through its own domain.
func detectProvider(baseURL, modelName string) Provider {
	base := strings.ToLower(baseURL)
	model := strings.ToLower(modelName)

	switch {
	case strings.Contains(base, "openrouter"):
		return ProviderOpenRouter
	case strings.Contains(base, "api.openai.com") || strings.Contains(base, "openai.com"):
		return ProviderOpenAI
	case strings.Contains(base, "deepseek") || strings.Contains(model, "deepseek"):
		return ProviderDeepSeek
	case strings.Contains(base, "anthropic"):
		return ProviderAnthropic
	default:
		return ProviderGeneric
	}
}
