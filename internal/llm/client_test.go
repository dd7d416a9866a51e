package llm

import "testing"

func TestReduceRequest_Order(t *testing.T) {
	temp := 0.4
	req := Request{
		ExtraBody:  map[string]any{"thinking": map[string]any{"type": "enabled"}},
		Tools:      []ToolDef{{Type: "function", Function: ToolFuncSpec{Name: "bash"}}},
		ToolChoice: "auto",
		Temperature: &temp,
	}

	next, label, ok := reduceRequest(req)
	if !ok || label != "extra_body" || next.ExtraBody != nil {
		t.Fatalf("expected first reduction to drop extra_body, got label=%q ok=%v", label, ok)
	}

	next, label, ok = reduceRequest(next)
	if !ok || label != "tools+tool_choice" || len(next.Tools) != 0 || next.ToolChoice != "" {
		t.Fatalf("expected second reduction to drop tools+tool_choice, got label=%q ok=%v", label, ok)
	}

	next, label, ok = reduceRequest(next)
	if !ok || label != "temperature" || next.Temperature != nil {
		t.Fatalf("expected third reduction to drop temperature, got label=%q ok=%v", label, ok)
	}

	_, _, ok = reduceRequest(next)
	if ok {
		t.Fatalf("expected no reduction left")
	}
}

func TestIsRetriableShapeError(t *testing.T) {
	cases := []struct {
		name string
		err  *RequestError
		want bool
	}{
		{"auth error never retries", &RequestError{StatusCode: 401, Text: "Unauthorized: bad api key"}, false},
		{"rate limit never retries", &RequestError{StatusCode: 429, Text: "rate limit exceeded"}, false},
		{"400 with tool hint retries", &RequestError{StatusCode: 400, Text: "unsupported parameter: tools"}, true},
		{"400 without hint does not retry", &RequestError{StatusCode: 400, Text: "something else entirely"}, false},
		{"model-unsupported does not retry (no token match)", &RequestError{StatusCode: 404, Text: "model not found"}, false},
		{"unknown status with hint retries", &RequestError{StatusCode: 0, Text: "invalid schema"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := isRetriableShapeError(tc.err)
			if got != tc.want {
				t.Fatalf("isRetriableShapeError(%+v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestDetectProvider(t *testing.T) {
	cases := []struct {
		base, model string
		want        Provider
	}{
		{"https://openrouter.ai/api/v1", "deepseek/deepseek-chat", ProviderOpenRouter},
		{"https://api.openai.com/v1", "gpt-4o", ProviderOpenAI},
		{"https://api.deepseek.com", "deepseek-chat", ProviderDeepSeek},
		{"https://api.anthropic.com", "claude-3", ProviderAnthropic},
		{"https://my-gateway.example.com/v1", "custom-model", ProviderGeneric},
	}
	for _, tc := range cases {
		got := detectProvider(tc.base, tc.model)
		if got != tc.want {
			t.Fatalf("detectProvider(%q, %q) = %q, want %q", tc.base, tc.model, got, tc.want)
		}
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"https://api.deepseek.com":     "https://api.deepseek.com/v1",
		"https://api.deepseek.com/":    "https://api.deepseek.com/v1",
		"https://api.openai.com/v1":    "https://api.openai.com/v1",
		"https://api.openai.com/v1/":   "https://api.openai.com/v1",
		"":                             "",
	}
	for in, want := range cases {
		if got := normalizeBaseURL(in); got != want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
