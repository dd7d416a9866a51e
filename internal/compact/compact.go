// Package compact implements the two-level context-compaction strategy,
// grounded on original_source/V1/anuris/agent/compact.py's
// ContextCompactor. MicroCompact rewrites old tool messages in place;
// AutoCompact returns a new message list; the caller owns storage.
package compact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/model"
)

const (
	defaultKeepRecentToolMessages = 3
	defaultThresholdTokens        = 50_000
	microCompactMinLength         = 120
	transcriptCharCap             = 120_000
)

// Completer is the subset of the completion client the compactor needs:
// one non-streaming summarization call.
type Completer interface {
	CreateCompletion(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Compactor owns micro-compact (in-place trim) and auto-compact (summarize
// + replace) over a conversation.
type Compactor struct {
	model                  Completer
	transcriptDir          string
	keepRecentToolMessages int
	thresholdTokens        int
}

func New(model Completer, transcriptDir string) *Compactor {
	return &Compactor{
		model:                  model,
		transcriptDir:          transcriptDir,
		keepRecentToolMessages: defaultKeepRecentToolMessages,
		thresholdTokens:        defaultThresholdTokens,
	}
}

// EstimateTokens approximates token count as serialized-length/4, matching
// the original's estimate_tokens.
func EstimateTokens(messages []model.Message) int {
	data, err := json.Marshal(messages)
	if err != nil {
		return 0
	}
	return len(data) / 4
}

func (c *Compactor) ShouldAutoCompact(messages []model.Message) bool {
	return EstimateTokens(messages) > c.thresholdTokens
}

// MicroCompact rewrites older tool-role messages in place: if the count of
// tool messages exceeds keepRecentToolMessages, every tool message before
// the most recent keepRecentToolMessages has its content (if over 120
// characters) replaced with an omission marker.
func (c *Compactor) MicroCompact(messages []model.Message) {
	var toolIndices []int
	for i, m := range messages {
		if m.Role == model.RoleTool {
			toolIndices = append(toolIndices, i)
		}
	}
	if len(toolIndices) <= c.keepRecentToolMessages {
		return
	}

	toClear := toolIndices[:len(toolIndices)-c.keepRecentToolMessages]
	for _, idx := range toClear {
		if len(messages[idx].Content) > microCompactMinLength {
			toolID := messages[idx].ToolCallID
			if toolID == "" {
				toolID = "unknown"
			}
			messages[idx].Content = fmt.Sprintf("[Previous tool output omitted: %s]", toolID)
		}
	}
}

// AutoCompact writes the full transcript to disk, summarizes it via a
// single non-streaming completion call, and returns a replacement
// three-message skeleton. The transcript is written before the
// summarization call so it survives summarizer failures.
func (c *Compactor) AutoCompact(ctx context.Context, messages []model.Message, focus string) ([]model.Message, error) {
	if err := os.MkdirAll(c.transcriptDir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	transcriptPath := filepath.Join(c.transcriptDir, fmt.Sprintf("transcript_%d.jsonl", time.Now().Unix()))
	if err := writeTranscript(transcriptPath, messages); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}

	systemMessage := defaultSystemMessage()
	if len(messages) > 0 && messages[0].Role == model.RoleSystem {
		systemMessage = messages[0]
	}

	conversationText := serializeForSummary(messages)
	focusHint := ""
	if focus != "" {
		focusHint = "\nFocus: " + focus
	}
	summaryPrompt := "Summarize this conversation for continuity. " +
		"Include: completed work, current state, open decisions, and next actions." +
		focusHint + "\n\n" + conversationText

	resp, err := c.model.CreateCompletion(ctx, llm.Request{
		Stream: false,
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "You summarize coding conversations faithfully and concisely."},
			{Role: model.RoleUser, Content: summaryPrompt},
		},
	})
	summaryText := "(summary unavailable)"
	if err == nil && resp.Content != "" {
		summaryText = resp.Content
	}

	compactedUser := model.Message{
		Role:    model.RoleUser,
		Content: fmt.Sprintf("[Conversation compacted. Transcript: %s]\n%s", transcriptPath, summaryText),
	}
	compactedAssistant := model.Message{
		Role:    model.RoleAssistant,
		Content: "Understood. Continuing from compacted context.",
	}

	return []model.Message{systemMessage, compactedUser, compactedAssistant}, nil
}

func defaultSystemMessage() model.Message {
	return model.Message{Role: model.RoleSystem, Content: "You are a coding assistant."}
}

func serializeForSummary(messages []model.Message) string {
	data, err := json.Marshal(messages)
	if err != nil {
		return ""
	}
	text := string(data)
	if len(text) > transcriptCharCap {
		return text[:transcriptCharCap]
	}
	return text
}

func writeTranscript(path string, messages []model.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, m := range messages {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}
