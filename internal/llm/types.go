package llm

import "github.com/anuris/anuris/internal/model"

// ToolDef is a JSON-Schema-ish function description sent in a completion
// request's "tools" array.
type ToolDef struct {
	Type     string       `json:"type"`
	Function ToolFuncSpec `json:"function"`
}

type ToolFuncSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Request is the normalized completion request payload. The shape-fallback
// retry loop progressively drops ExtraBody, then Tools and ToolChoice
// together, then Temperature.
type Request struct {
	Model       string           `json:"model"`
	Messages    []model.Message  `json:"messages"`
	Temperature *float64         `json:"temperature,omitempty"`
	Stream      bool             `json:"stream"`
	Tools       []ToolDef        `json:"tools,omitempty"`
	ToolChoice  string           `json:"tool_choice,omitempty"`
	ExtraBody   map[string]any   `json:"extra_body,omitempty"`
}

// Response is the normalized, non-streaming completion result, decoded from
// an OpenAI-style "choices" body.
type Response struct {
	Content          string
	ReasoningContent string
	ToolCalls        []model.ToolCall
}
