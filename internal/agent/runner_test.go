package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anuris/anuris/internal/background"
	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/model"
	"github.com/anuris/anuris/internal/tools"
	"github.com/anuris/anuris/internal/workspace"
)

// scriptedCompleter returns one canned *llm.Response per call, in order.
type scriptedCompleter struct {
	responses []*llm.Response
	calls     int
}

func (s *scriptedCompleter) CreateCompletion(ctx context.Context, req llm.Request) (*llm.Response, error) {
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func newTestExecutor(t *testing.T) *tools.Executor {
	t.Helper()
	sb, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	return tools.New(tools.Deps{Sandbox: sb}, tools.Options{EnableFiles: true}, nil)
}

func TestRunner_StopsOnFirstNoToolCallResponse(t *testing.T) {
	completer := &scriptedCompleter{responses: []*llm.Response{
		{Content: "all done"},
	}}
	r := New(completer, newTestExecutor(t), nil, nil, nil, Options{})

	result, err := r.Run(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "do the thing"},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, "all done", result.FinalText)
	require.Equal(t, 1, result.Rounds)
	require.Empty(t, result.ToolEvents)
}

func TestRunner_ExecutesToolCallsAcrossRounds(t *testing.T) {
	writeArgs := `{"path":"out.txt","content":"hi"}`
	completer := &scriptedCompleter{responses: []*llm.Response{
		{ToolCalls: []model.ToolCall{
			{ID: "1", Function: model.ToolCallFunc{Name: "write_file", Arguments: writeArgs}},
		}},
		{Content: "wrote the file"},
	}}
	r := New(completer, newTestExecutor(t), nil, nil, nil, Options{})

	result, err := r.Run(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "write a file"},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, "wrote the file", result.FinalText)
	require.Equal(t, 2, result.Rounds)

	var sawToolMessage bool
	for _, m := range result.Messages {
		if m.Role == model.RoleTool && m.ToolCallID == "1" {
			sawToolMessage = true
		}
	}
	require.True(t, sawToolMessage)

	require.Equal(t, []string{"write_file -> Wrote 2 bytes to out.txt"}, result.ToolEvents)
}

func TestRunner_FailsWhenMaxRoundsExceeded(t *testing.T) {
	var responses []*llm.Response
	for i := 0; i < 3; i++ {
		responses = append(responses, &llm.Response{ToolCalls: []model.ToolCall{
			{ID: "x", Function: model.ToolCallFunc{Name: "read_file", Arguments: `{"path":"missing.txt"}`}},
		}})
	}
	completer := &scriptedCompleter{responses: responses}
	r := New(completer, newTestExecutor(t), nil, nil, nil, Options{MaxRounds: 3})

	_, err := r.Run(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "loop forever"},
	}, nil)

	require.ErrorIs(t, err, ErrMaxRoundsExceeded)
}

func TestRunner_SplicesBackgroundNotifications(t *testing.T) {
	bg := background.New(t.TempDir())
	started := bg.Run("echo hi", 0)
	id := strings.Fields(started)[2]

	// Wait for the task to finish so its notification is pending before the
	// first round drains it.
	require.Eventually(t, func() bool {
		return strings.HasPrefix(bg.Check(id), "[completed]")
	}, 5*time.Second, 10*time.Millisecond)

	completer := &scriptedCompleter{responses: []*llm.Response{
		{Content: "ack"},
	}}
	r := New(completer, newTestExecutor(t), nil, bg, nil, Options{})

	result, err := r.Run(context.Background(), []model.Message{
		{Role: model.RoleSystem, Content: "sys"},
		{Role: model.RoleUser, Content: "hi"},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "ack", result.FinalText)

	var spliced bool
	for _, m := range result.Messages {
		if m.Role == model.RoleUser && strings.Contains(m.Content, "<background-results>") {
			spliced = true
		}
	}
	require.True(t, spliced)
}

func TestBuildPreamble_EmptyWithoutSkills(t *testing.T) {
	require.Equal(t, "", BuildPreamble(nil))
}
