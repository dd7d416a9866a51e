package llm

import (
	"encoding/json"
	"fmt"

	"github.com/anuris/anuris/internal/model"
)

type rawCompletion struct {
	Choices []struct {
		Message struct {
			Content          string           `json:"content"`
			ReasoningContent string           `json:"reasoning_content"`
			ToolCalls        []model.ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
}

// decodeResponse normalizes a non-streaming OpenAI-shaped completion body
// into the tagged Response record. This is the provider response union
// SPEC_FULL.md §9 requires: everything downstream of this function only
// ever sees {Content, ReasoningContent, ToolCalls}.
func decodeResponse(body []byte) (*Response, error) {
	var raw rawCompletion
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode completion response: %w", err)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("llm: empty response from API")
	}
	choice := raw.Choices[0].Message
	return &Response{
		Content:          choice.Content,
		ReasoningContent: choice.ReasoningContent,
		ToolCalls:        choice.ToolCalls,
	}, nil
}
