package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/model"
	"github.com/anuris/anuris/internal/tasks"
	"github.com/anuris/anuris/internal/team"
	"github.com/anuris/anuris/internal/tools"
	"github.com/anuris/anuris/internal/workspace"
)

// readonlyRoleKeywords matches SPEC_FULL.md §4.9's read-only role set.
var readonlyRoleKeywords = []string{
	"readonly", "read-only", "review", "reviewer", "qa", "research", "auditor", "observer",
}

func isReadonlyRole(role string) bool {
	role = strings.ToLower(role)
	for _, kw := range readonlyRoleKeywords {
		if strings.Contains(role, kw) {
			return true
		}
	}
	return false
}

// Budgets bounds one teammate worker's lifetime: wall-clock runtime, round
// count, tool-call count, and time spent idle-polling.
type Budgets struct {
	MaxRuntime   time.Duration
	MaxRounds    int
	MaxToolCalls int
	IdleTimeout  time.Duration
	PollInterval time.Duration
}

func defaultBudgets() Budgets {
	return Budgets{
		MaxRuntime:   30 * time.Minute,
		MaxRounds:    200,
		MaxToolCalls: 400,
		IdleTimeout:  5 * time.Minute,
		PollInterval: 5 * time.Second,
	}
}

// budgetTracker holds the live counters checked before every round and
// every tool call, per spec.md's "single BudgetTracker holding start-time,
// round count, tool-call count" redesign note.
type budgetTracker struct {
	budgets    Budgets
	startedAt  time.Time
	rounds     int
	toolCalls  int
	idleSince  time.Time
	polling    bool
}

// violation reports the first exceeded budget, if any.
func (b *budgetTracker) violation() (string, bool) {
	if time.Since(b.startedAt) > b.budgets.MaxRuntime {
		return fmt.Sprintf("wall-clock runtime budget exceeded (%s)", b.budgets.MaxRuntime), true
	}
	if b.rounds > b.budgets.MaxRounds {
		return fmt.Sprintf("round budget exceeded (%d)", b.budgets.MaxRounds), true
	}
	if b.toolCalls > b.budgets.MaxToolCalls {
		return fmt.Sprintf("tool-call budget exceeded (%d)", b.budgets.MaxToolCalls), true
	}
	if b.polling && time.Since(b.idleSince) > b.budgets.IdleTimeout {
		return fmt.Sprintf("idle-timeout exceeded (%s)", b.budgets.IdleTimeout), true
	}
	return "", false
}

// TeammateWorker runs one spawned teammate's bounded loop: restricted tool
// set, role-gated read-only restrictions, budget enforcement, and an
// idle-poll-then-claim cycle once a turn produces no tool calls.
type TeammateWorker struct {
	Model     Completer
	Sandbox   *workspace.Sandbox
	TaskBoard *tasks.Manager
	Team      *team.Manager
	Logger    *slog.Logger
	Budgets   Budgets
}

// Run implements team.WorkerRunner. It blocks until the worker shuts down,
// either by explicit shutdown approval, an idle-timeout with no new work,
// or a budget violation.
func (w *TeammateWorker) Run(name, role, prompt string) {
	budgets := w.Budgets
	if budgets == (Budgets{}) {
		budgets = defaultBudgets()
	}
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}

	readonly := isReadonlyRole(role)
	exec := tools.New(tools.Deps{
		Sandbox:    w.Sandbox,
		TaskBoard:  w.TaskBoard,
		Team:       w.Team,
		WorkerName: name,
	}, tools.Options{
		EnableBash:      true,
		EnableFiles:     true,
		EnableTaskBoard: false,
		EnableTeammate:  true,
		Readonly:        readonly,
		Role:            role,
	}, logger)

	messages := []model.Message{
		{Role: model.RoleSystem, Content: teammateSystemPrompt(name, role, readonly)},
		{Role: model.RoleUser, Content: prompt},
	}

	tracker := &budgetTracker{budgets: budgets, startedAt: time.Now()}
	ctx := context.Background()

	for {
		if reason, violated := tracker.violation(); violated {
			w.autoStop(name, reason)
			return
		}
		tracker.rounds++

		req := llm.Request{Messages: messages, Stream: false, ToolChoice: "auto", Tools: exec.Definitions()}
		resp, err := w.Model.CreateCompletion(ctx, req)
		if err != nil {
			w.autoStop(name, fmt.Sprintf("completion error: %s", err))
			return
		}

		messages = append(messages, model.Message{
			Role:             model.RoleAssistant,
			Content:          resp.Content,
			ReasoningContent: resp.ReasoningContent,
			ToolCalls:        resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			next, done := w.idlePoll(ctx, name, messages, tracker)
			if done {
				return
			}
			messages = next
			continue
		}

		shutdown := false
		idle := false
		for _, call := range resp.ToolCalls {
			if reason, violated := tracker.violation(); violated {
				w.autoStop(name, reason)
				return
			}
			tracker.toolCalls++

			results := exec.Execute(ctx, []model.ToolCall{call})
			res := results[0]
			messages = append(messages, model.Message{
				Role:       model.RoleTool,
				Content:    res.Content,
				ToolCallID: res.ToolCallID,
			})

			if call.Function.Name == "shutdown_response" && res.Error == nil && approvedShutdown(call) {
				shutdown = true
			}
			if call.Function.Name == "idle" {
				idle = true
			}
		}
		if shutdown {
			return
		}
		if idle {
			next, done := w.idlePoll(ctx, name, messages, tracker)
			if done {
				return
			}
			messages = next
		}
	}
}

func approvedShutdown(call model.ToolCall) bool {
	var args tools.ShutdownResponseArgs
	if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
		return false
	}
	return args.Approve
}

// idlePoll implements the poll-inbox-then-claim-task cycle: new inbox
// messages resume the loop immediately; otherwise claim_next_unblocked is
// attempted; otherwise it sleeps poll_interval and retries until the
// budget's idle-timeout fires.
func (w *TeammateWorker) idlePoll(ctx context.Context, name string, messages []model.Message, tracker *budgetTracker) ([]model.Message, bool) {
	if w.Team != nil {
		w.Team.SetMemberStatus(name, team.StatusIdle)
	}
	tracker.polling = true
	tracker.idleSince = time.Now()

	for {
		if reason, violated := tracker.violation(); violated {
			w.autoStop(name, reason)
			return messages, true
		}

		if w.Team != nil {
			inbox := w.Team.ReadInbox(name)
			if len(inbox) > 0 {
				tracker.polling = false
				if w.Team != nil {
					w.Team.SetMemberStatus(name, team.StatusWorking)
				}
				return appendInboxMessages(messages, inbox), false
			}
		}

		if w.TaskBoard != nil {
			task, err := w.TaskBoard.ClaimNextUnblocked(name)
			if err == nil && task != nil {
				tracker.polling = false
				if w.Team != nil {
					w.Team.SetMemberStatus(name, team.StatusWorking)
				}
				messages = maybeInjectIdentityReminder(messages, name, task.ID, task.Subject)
				claimed := fmt.Sprintf("<auto-claimed>Task #%d: %s\n%s</auto-claimed>", task.ID, task.Subject, task.Description)
				return append(messages, model.Message{Role: model.RoleUser, Content: claimed}), false
			}
		}

		select {
		case <-ctx.Done():
			return messages, true
		case <-time.After(tracker.budgets.nonZeroPollInterval()):
		}
	}
}

func (b *Budgets) nonZeroPollInterval() time.Duration {
	if b.PollInterval <= 0 {
		return defaultBudgets().PollInterval
	}
	return b.PollInterval
}

// maybeInjectIdentityReminder re-states who this worker is when the
// conversation has been aggressively compacted (very few messages left),
// so the claimed task is grounded in the worker's original role.
func maybeInjectIdentityReminder(messages []model.Message, name string, taskID int, subject string) []model.Message {
	if len(messages) > 4 {
		return messages
	}
	reminder := fmt.Sprintf("[Reminder] You are teammate %q. You are about to pick up task #%d: %s.", name, taskID, subject)
	return append(messages, model.Message{Role: model.RoleUser, Content: reminder})
}

func appendInboxMessages(messages []model.Message, inbox []team.InboxMessage) []model.Message {
	data, _ := json.MarshalIndent(inbox, "", "  ")
	return append(messages, model.Message{
		Role:    model.RoleUser,
		Content: fmt.Sprintf("<inbox>\n%s\n</inbox>", string(data)),
	})
}

func (w *TeammateWorker) autoStop(name, reason string) {
	if w.Team != nil {
		w.Team.SendMessage(name, "lead", fmt.Sprintf("[auto-stop] %s", reason), team.MsgMessage)
		w.Team.SetMemberStatus(name, team.StatusShutdown)
	}
	if w.Logger != nil {
		w.Logger.Warn("teammate auto-stopped", "name", name, "reason", reason)
	}
}

func teammateSystemPrompt(name, role string, readonly bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %q, a teammate worker with role %q.\n", name, role)
	b.WriteString("Work your assigned task to completion, then call `idle` to signal you are done and wait for new work. ")
	b.WriteString("Use `send_message` to reach `lead`, and `claim_task` to pick up unblocked work when idle.\n")
	if readonly {
		b.WriteString("Your role is read-only: you cannot write or edit files, and your shell commands are limited to a safe read-only allowlist.\n")
	}
	return b.String()
}
