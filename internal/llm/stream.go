package llm

import (
	"encoding/json"
	"strings"
)

// StreamResult is the processed output of a streaming completion response:
// the final answer text with any <think> tags removed, the concatenated
// reasoning text, and whether consumption was interrupted by the caller.
type StreamResult struct {
	FullResponse     string
	ReasoningContent string
	Interrupted      bool
}

// OpenAIDelta is one chunk's choices[0].delta in the OpenAI streaming shape.
type OpenAIDelta struct {
	Content          string                   `json:"content,omitempty"`
	ReasoningContent string                   `json:"reasoning_content,omitempty"`
	ReasoningDetails []map[string]any         `json:"reasoning_details,omitempty"`
	ToolCalls        []map[string]any         `json:"tool_calls,omitempty"`
}

type openAIChunk struct {
	Choices []struct {
		Delta OpenAIDelta `json:"delta"`
	} `json:"choices"`
}

// renderState accumulates parser state across an arbitrary chunking of the
// stream, mirroring the original implementation's _RenderState exactly so
// the think-tag split behaves identically under any chunk boundary.
type renderState struct {
	fullResponse           strings.Builder
	reasoningContent       strings.Builder
	isReasoning            bool
	isFirstContent         bool
	inThinkTag             bool
	bufferedContent        string
	reasoningDetailBuffers map[int]string
}

func newRenderState() *renderState {
	return &renderState{
		isFirstContent:         true,
		reasoningDetailBuffers: map[int]string{},
	}
}

// StreamRenderer consumes raw stream chunks (already split one-per-call by
// the transport layer) in either OpenAI delta or Anthropic event shape and
// emits a unified (answer, reasoning) pair.
type StreamRenderer struct{}

func NewStreamRenderer() *StreamRenderer { return &StreamRenderer{} }

// Process consumes chunks from the given channel until it closes or the
// cancel channel fires; a cancel returns the partial result with
// Interrupted set.
// Each element of chunks is one raw JSON chunk payload (SSE "data:" line
// body, already stripped of the "data: " prefix and any "[DONE]" sentinel
// by the caller).
func (r *StreamRenderer) Process(chunks <-chan []byte, cancel <-chan struct{}) StreamResult {
	state := newRenderState()

	for {
		select {
		case <-cancel:
			return r.result(state, true)
		case chunk, ok := <-chunks:
			if !ok {
				r.flushBuffered(state)
				return r.result(state, false)
			}
			r.processChunk(chunk, state)
		}
	}
}

func (r *StreamRenderer) result(state *renderState, interrupted bool) StreamResult {
	return StreamResult{
		FullResponse:     state.fullResponse.String(),
		ReasoningContent: state.reasoningContent.String(),
		Interrupted:      interrupted,
	}
}

func (r *StreamRenderer) processChunk(raw []byte, state *renderState) {
	var chunk openAIChunk
	if err := json.Unmarshal(raw, &chunk); err == nil && len(chunk.Choices) > 0 {
		delta := chunk.Choices[0].Delta
		if delta.ReasoningContent != "" {
			r.enterReasoningMode(state)
			r.appendReasoningText(delta.ReasoningContent, state)
		}
		if len(delta.ReasoningDetails) > 0 {
			r.processReasoningDetails(delta.ReasoningDetails, state)
		}
		if delta.Content != "" {
			r.processContentDelta(delta.Content, state)
		}
		return
	}
	r.processAnthropicChunk(raw, state)
}

// processContentDelta implements the four think-tag buffer cases exactly as
// original_source/V1/anuris/streaming.py's _process_content_delta does.
func (r *StreamRenderer) processContentDelta(content string, state *renderState) {
	state.bufferedContent += content

	if !state.inThinkTag && strings.Contains(state.bufferedContent, "<think>") {
		r.handleThinkStart(state)
		return
	}
	if state.inThinkTag && strings.Contains(state.bufferedContent, "</think>") {
		r.handleThinkEnd(state)
		return
	}
	if !state.inThinkTag && !strings.Contains(state.bufferedContent, "<think>") {
		r.switchToAnswerMode(state, true)
		r.appendAnswerText(content, state)
		state.bufferedContent = ""
		return
	}
	if state.inThinkTag && !strings.Contains(state.bufferedContent, "</think>") {
		r.enterReasoningMode(state)
		r.appendReasoningText(content, state)
		state.bufferedContent = ""
	}
}

func (r *StreamRenderer) handleThinkStart(state *renderState) {
	tagPos := strings.Index(state.bufferedContent, "<think>")
	preTag := state.bufferedContent[:tagPos]

	if preTag != "" {
		r.switchToAnswerMode(state, true)
		r.appendAnswerText(preTag, state)
	}

	state.inThinkTag = true
	r.enterReasoningMode(state)

	thinkContent := state.bufferedContent[tagPos+len("<think>"):]
	state.bufferedContent = ""
	if thinkContent != "" {
		r.processContentDelta(thinkContent, state)
	}
}

func (r *StreamRenderer) handleThinkEnd(state *renderState) {
	tagPos := strings.Index(state.bufferedContent, "</think>")
	thinkPart := state.bufferedContent[:tagPos]

	if thinkPart != "" {
		r.enterReasoningMode(state)
		r.appendReasoningText(thinkPart, state)
	}

	state.inThinkTag = false
	state.isReasoning = true

	postTag := state.bufferedContent[tagPos+len("</think>"):]
	state.bufferedContent = ""
	if postTag != "" {
		r.processContentDelta(postTag, state)
	}
}

func (r *StreamRenderer) flushBuffered(state *renderState) {
	if state.bufferedContent != "" && !state.inThinkTag {
		r.switchToAnswerMode(state, false)
		r.appendAnswerText(state.bufferedContent, state)
		state.bufferedContent = ""
	}
}

func (r *StreamRenderer) enterReasoningMode(state *renderState) {
	state.isReasoning = true
}

func (r *StreamRenderer) switchToAnswerMode(state *renderState, resetFirstContent bool) {
	if state.isReasoning {
		state.isReasoning = false
		if resetFirstContent {
			state.isFirstContent = true
		}
	}
}

func (r *StreamRenderer) appendReasoningText(content string, state *renderState) {
	state.reasoningContent.WriteString(content)
}

func (r *StreamRenderer) appendAnswerText(content string, state *renderState) {
	if state.isFirstContent && state.fullResponse.Len() == 0 {
		state.isFirstContent = false
	}
	state.fullResponse.WriteString(content)
}

// processReasoningDetails handles the OpenRouter-style reasoning_details
// list, where each element at a given index carries a running prefix
// rather than a delta; only the suffix beyond the previously-seen prefix
// is emitted.
func (r *StreamRenderer) processReasoningDetails(details []map[string]any, state *renderState) {
	for index, detail := range details {
		text, _ := detail["text"].(string)
		if text == "" {
			continue
		}
		previous := state.reasoningDetailBuffers[index]
		var deltaText string
		if strings.HasPrefix(text, previous) {
			deltaText = text[len(previous):]
		} else {
			deltaText = text
		}
		state.reasoningDetailBuffers[index] = text
		if deltaText != "" {
			r.enterReasoningMode(state)
			r.appendReasoningText(deltaText, state)
		}
	}
}

// anthropicEvent models the subset of Anthropic's SSE event shape the
// parser needs: content_block_start / content_block_delta / message_start.
type anthropicEvent struct {
	Type         string `json:"type"`
	ContentBlock struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Thinking string `json:"thinking"`
	} `json:"content_block"`
	Delta struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		Thinking string `json:"thinking"`
	} `json:"delta"`
	Message struct {
		Content []struct {
			Type     string `json:"type"`
			Text     string `json:"text"`
			Thinking string `json:"thinking"`
		} `json:"content"`
	} `json:"message"`
}

func (r *StreamRenderer) processAnthropicChunk(raw []byte, state *renderState) {
	var event anthropicEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return
	}
	switch event.Type {
	case "content_block_start":
		r.processAnthropicBlock(event.ContentBlock.Type, event.ContentBlock.Text, event.ContentBlock.Thinking, state)
	case "content_block_delta":
		r.processAnthropicDelta(event.Delta.Type, event.Delta.Text, event.Delta.Thinking, state)
	case "message_start":
		for _, block := range event.Message.Content {
			r.processAnthropicBlock(block.Type, block.Text, block.Thinking, state)
		}
	}
}

func (r *StreamRenderer) processAnthropicBlock(blockType, text, thinking string, state *renderState) {
	switch blockType {
	case "text":
		if text != "" {
			r.processContentDelta(text, state)
		}
	case "thinking", "redacted_thinking":
		content := thinking
		if content == "" {
			content = text
		}
		if content != "" {
			r.enterReasoningMode(state)
			r.appendReasoningText(content, state)
		}
	}
}

func (r *StreamRenderer) processAnthropicDelta(deltaType, text, thinking string, state *renderState) {
	switch deltaType {
	case "text_delta":
		if text != "" {
			r.processContentDelta(text, state)
		}
	case "thinking_delta", "signature_delta":
		content := thinking
		if content == "" {
			content = text
		}
		if content != "" {
			r.enterReasoningMode(state)
			r.appendReasoningText(content, state)
		}
	}
}
