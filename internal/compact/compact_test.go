package compact

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/model"
)

type stubCompleter struct {
	resp *llm.Response
	err  error
}

func (s *stubCompleter) CreateCompletion(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return s.resp, s.err
}

func TestEstimateTokens(t *testing.T) {
	messages := []model.Message{{Role: model.RoleUser, Content: "hello world"}}
	tokens := EstimateTokens(messages)
	require.Greater(t, tokens, 0)
}

func TestShouldAutoCompact(t *testing.T) {
	c := New(&stubCompleter{}, t.TempDir())
	require.False(t, c.ShouldAutoCompact([]model.Message{{Role: model.RoleUser, Content: "short"}}))

	big := strings.Repeat("x", 300_000)
	require.True(t, c.ShouldAutoCompact([]model.Message{{Role: model.RoleUser, Content: big}}))
}

func TestMicroCompact_KeepsRecentToolMessages(t *testing.T) {
	c := New(&stubCompleter{}, t.TempDir())
	longOutput := strings.Repeat("result line\n", 20)

	messages := []model.Message{
		{Role: model.RoleUser, Content: "do things"},
		{Role: model.RoleTool, ToolCallID: "call_1", Content: longOutput},
		{Role: model.RoleTool, ToolCallID: "call_2", Content: longOutput},
		{Role: model.RoleTool, ToolCallID: "call_3", Content: longOutput},
		{Role: model.RoleTool, ToolCallID: "call_4", Content: longOutput},
	}

	c.MicroCompact(messages)

	require.Equal(t, "[Previous tool output omitted: call_1]", messages[1].Content)
	require.Equal(t, longOutput, messages[2].Content)
	require.Equal(t, longOutput, messages[3].Content)
	require.Equal(t, longOutput, messages[4].Content)
}

func TestMicroCompact_SkipsShortOutputs(t *testing.T) {
	c := New(&stubCompleter{}, t.TempDir())
	messages := []model.Message{
		{Role: model.RoleTool, ToolCallID: "call_1", Content: "ok"},
		{Role: model.RoleTool, ToolCallID: "call_2", Content: "ok"},
		{Role: model.RoleTool, ToolCallID: "call_3", Content: "ok"},
		{Role: model.RoleTool, ToolCallID: "call_4", Content: "ok"},
	}
	c.MicroCompact(messages)
	require.Equal(t, "ok", messages[0].Content)
}

func TestMicroCompact_NoopUnderThreshold(t *testing.T) {
	c := New(&stubCompleter{}, t.TempDir())
	messages := []model.Message{
		{Role: model.RoleTool, ToolCallID: "call_1", Content: strings.Repeat("x", 200)},
	}
	c.MicroCompact(messages)
	require.Equal(t, strings.Repeat("x", 200), messages[0].Content)
}

func TestAutoCompact_WritesTranscriptAndReplacesMessages(t *testing.T) {
	dir := t.TempDir()
	completer := &stubCompleter{resp: &llm.Response{Content: "Did X, then Y. Next: Z."}}
	c := New(completer, dir)

	messages := []model.Message{
		{Role: model.RoleSystem, Content: "You are a careful assistant."},
		{Role: model.RoleUser, Content: "build a thing"},
		{Role: model.RoleAssistant, Content: "done"},
	}

	result, err := c.AutoCompact(context.Background(), messages, "")
	require.NoError(t, err)
	require.Len(t, result, 3)
	require.Equal(t, model.RoleSystem, result[0].Role)
	require.Equal(t, "You are a careful assistant.", result[0].Content)
	require.Contains(t, result[1].Content, "[Conversation compacted. Transcript:")
	require.Contains(t, result[1].Content, "Did X, then Y. Next: Z.")
	require.Equal(t, "Understood. Continuing from compacted context.", result[2].Content)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, strings.HasPrefix(entries[0].Name(), "transcript_"))

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(data), "build a thing")
}

func TestAutoCompact_DefaultsSystemMessageWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	completer := &stubCompleter{resp: &llm.Response{Content: "summary"}}
	c := New(completer, dir)

	messages := []model.Message{{Role: model.RoleUser, Content: "hi"}}
	result, err := c.AutoCompact(context.Background(), messages, "")
	require.NoError(t, err)
	require.Equal(t, "You are a coding assistant.", result[0].Content)
}

func TestAutoCompact_SurvivesSummarizerError(t *testing.T) {
	dir := t.TempDir()
	completer := &stubCompleter{err: context.DeadlineExceeded}
	c := New(completer, dir)

	messages := []model.Message{{Role: model.RoleUser, Content: "hi"}}
	result, err := c.AutoCompact(context.Background(), messages, "")
	require.NoError(t, err)
	require.Contains(t, result[1].Content, "(summary unavailable)")
}
