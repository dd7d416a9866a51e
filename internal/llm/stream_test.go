package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func chunkBytes(t *testing.T, content string) []byte {
	t.Helper()
	payload := map[string]any{
		"choices": []map[string]any{
			{"delta": map[string]any{"content": content}},
		},
	}
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return b
}

func TestStreamRenderer_ThinkTagSplitAcrossChunks(t *testing.T) {
	pieces := []string{"Hello ", "<think>", "secret", "</think>", "World"}

	renderer := NewStreamRenderer()
	chunks := make(chan []byte, len(pieces))
	for _, p := range pieces {
		chunks <- chunkBytes(t, p)
	}
	close(chunks)

	result := renderer.Process(chunks, nil)

	require.Equal(t, "Hello World", result.FullResponse)
	require.Equal(t, "secret", result.ReasoningContent)
	require.False(t, result.Interrupted)
}

func TestStreamRenderer_ThinkTagSplitSingleChunk(t *testing.T) {
	renderer := NewStreamRenderer()
	chunks := make(chan []byte, 1)
	chunks <- chunkBytes(t, "Hello <think>secret</think>World")
	close(chunks)

	result := renderer.Process(chunks, nil)

	require.Equal(t, "Hello World", result.FullResponse)
	require.Equal(t, "secret", result.ReasoningContent)
}

func TestStreamRenderer_NoThinkTag(t *testing.T) {
	renderer := NewStreamRenderer()
	chunks := make(chan []byte, 2)
	chunks <- chunkBytes(t, "just ")
	chunks <- chunkBytes(t, "text")
	close(chunks)

	result := renderer.Process(chunks, nil)

	require.Equal(t, "just text", result.FullResponse)
	require.Empty(t, result.ReasoningContent)
}

func TestStreamRenderer_Interrupted(t *testing.T) {
	renderer := NewStreamRenderer()
	chunks := make(chan []byte)
	cancel := make(chan struct{})
	close(cancel)

	result := renderer.Process(chunks, cancel)

	require.True(t, result.Interrupted)
}

func TestStreamRenderer_ReasoningDetailsRunningPrefix(t *testing.T) {
	renderer := NewStreamRenderer()
	mk := func(text string) []byte {
		payload := map[string]any{
			"choices": []map[string]any{
				{"delta": map[string]any{
					"reasoning_details": []map[string]any{{"text": text}},
				}},
			},
		}
		b, _ := json.Marshal(payload)
		return b
	}

	chunks := make(chan []byte, 2)
	chunks <- mk("thinking")
	chunks <- mk("thinking about it")
	close(chunks)

	result := renderer.Process(chunks, nil)

	require.Equal(t, "thinking about it", result.ReasoningContent)
}
