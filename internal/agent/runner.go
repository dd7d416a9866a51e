// Package agent implements the bounded-round agent loop that ties the
// completion client, tool executor, and context compactor together,
// grounded on original_source/V1/anuris/agent/loop.py's AgentLoopRunner.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/anuris/anuris/internal/background"
	"github.com/anuris/anuris/internal/compact"
	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/model"
	"github.com/anuris/anuris/internal/skills"
	"github.com/anuris/anuris/internal/tools"
)

const defaultMaxRounds = 40

// ErrMaxRoundsExceeded is returned when a turn doesn't converge to a
// no-tool-call response within MaxRounds.
var ErrMaxRoundsExceeded = fmt.Errorf("agent: max rounds exceeded")

// Completer is the subset of *llm.Client the runner needs.
type Completer interface {
	CreateCompletion(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Result is what one Run call produces.
type Result struct {
	FinalText  string
	Rounds     int
	Messages   []model.Message
	ToolEvents []string
}

// Options configures one Runner. MaxRounds defaults to 40 when zero.
type Options struct {
	MaxRounds int
}

// Runner drives the per-round loop: drain background notifications,
// compact, call the model, execute any tool calls, repeat until a
// response carries no tool calls.
type Runner struct {
	model      Completer
	toolExec   *tools.Executor
	compactor  *compact.Compactor
	background *background.Manager
	skillsLib  *skills.Loader
	maxRounds  int
}

func New(model Completer, toolExec *tools.Executor, compactor *compact.Compactor, bg *background.Manager, skillsLib *skills.Loader, opts Options) *Runner {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}
	return &Runner{
		model:      model,
		toolExec:   toolExec,
		compactor:  compactor,
		background: bg,
		skillsLib:  skillsLib,
		maxRounds:  maxRounds,
	}
}

// Run executes the round loop over messages (which must already include a
// system message and the user's turn) until the model responds with no
// tool calls, or MaxRounds is exceeded.
func (r *Runner) Run(ctx context.Context, messages []model.Message, progress ProgressFunc) (Result, error) {
	var toolEvents []string

	for round := 1; round <= r.maxRounds; round++ {
		messages = r.spliceBackgroundNotifications(messages, progress)

		if r.compactor != nil {
			r.compactor.MicroCompact(messages)
			if r.compactor.ShouldAutoCompact(messages) {
				compacted, err := r.compactor.AutoCompact(ctx, messages, "")
				if err == nil {
					messages = compacted
					emit(progress, Event{Kind: EventCompacted, Round: round, Message: "conversation compacted"})
				}
			}
		}

		emit(progress, Event{Kind: EventRoundStarted, Round: round})

		req := llm.Request{Messages: messages, Stream: false, ToolChoice: "auto"}
		if r.toolExec != nil {
			req.Tools = r.toolExec.Definitions()
		}

		resp, err := r.model.CreateCompletion(ctx, req)
		if err != nil {
			return Result{Messages: messages, ToolEvents: toolEvents}, fmt.Errorf("completion round %d: %w", round, err)
		}

		assistantMsg := model.Message{
			Role:             model.RoleAssistant,
			Content:          resp.Content,
			ReasoningContent: resp.ReasoningContent,
			ToolCalls:        resp.ToolCalls,
		}
		messages = append(messages, assistantMsg)

		if len(resp.ToolCalls) == 0 {
			emit(progress, Event{Kind: EventDone, Round: round})
			return Result{FinalText: resp.Content, Rounds: round, Messages: messages, ToolEvents: toolEvents}, nil
		}

		results := r.toolExec.Execute(ctx, resp.ToolCalls)
		for _, res := range results {
			messages = append(messages, model.Message{
				Role:       model.RoleTool,
				Content:    res.Content,
				ToolCallID: res.ToolCallID,
			})
			event := fmt.Sprintf("%s -> %s", res.Name, truncateEvent(res.Content))
			toolEvents = append(toolEvents, event)
			emit(progress, Event{Kind: EventToolExecuted, Round: round, Message: event})
		}
	}

	return Result{Messages: messages, Rounds: r.maxRounds, ToolEvents: toolEvents},
		fmt.Errorf("%w: Agent loop exceeded max rounds (%d)", ErrMaxRoundsExceeded, r.maxRounds)
}

// truncateEvent caps a tool result to 200 characters for the tool_events
// log, matching loop.py's `tool_output[:200]` event formatting.
func truncateEvent(content string) string {
	if len(content) <= 200 {
		return content
	}
	return content[:200]
}

// spliceBackgroundNotifications drains any completed background task
// notifications and injects them as a synthetic user/assistant exchange so
// the model sees them on its next turn, mirroring loop.py's behavior of
// surfacing async task completion without the user having to ask.
func (r *Runner) spliceBackgroundNotifications(messages []model.Message, progress ProgressFunc) []model.Message {
	if r.background == nil {
		return messages
	}
	notifications := r.background.DrainNotifications()
	if len(notifications) == 0 {
		return messages
	}

	var b strings.Builder
	b.WriteString("<background-results>\n")
	for i, n := range notifications {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s): %s -> %s", n.TaskID, n.Command, n.Status, n.Result)
		emit(progress, Event{Kind: EventBackgroundUpdate, Message: n.TaskID})
	}
	b.WriteString("\n</background-results>")

	messages = append(messages,
		model.Message{Role: model.RoleUser, Content: b.String()},
		model.Message{Role: model.RoleAssistant, Content: "Noted."},
	)
	return messages
}

// BuildPreamble renders the system-prompt addendum describing available
// skills, mirroring _inject_agent_instruction's skill-catalog injection.
func BuildPreamble(skillsLib *skills.Loader) string {
	if skillsLib == nil {
		return ""
	}
	descriptions := skillsLib.Descriptions()
	if descriptions == "" || descriptions == "(no skills available)" {
		return ""
	}
	return "Available skills (load_skill to read the full body):\n" + descriptions
}
