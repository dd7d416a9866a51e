package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anuris/anuris/internal/background"
	"github.com/anuris/anuris/internal/model"
	"github.com/anuris/anuris/internal/skills"
	"github.com/anuris/anuris/internal/tasks"
	"github.com/anuris/anuris/internal/team"
	"github.com/anuris/anuris/internal/todo"
	"github.com/anuris/anuris/internal/workspace"
)

// HardMaxToolResultChars caps a single tool result before it enters the
// conversation, matching the teacher's tool_executor.go size guard.
const HardMaxToolResultChars = 400_000

// sequentialTools must not run concurrently within one round because they
// mutate shared state (filesystem or team roster).
var sequentialTools = map[string]bool{
	"bash": true, "write_file": true, "edit_file": true,
	"spawn_teammate": true, "shutdown_request": true, "shutdown_response": true,
	"plan_review": true, "plan_submit": true,
}

// SubagentRunner invokes a fresh-context child agent loop for the `task`
// tool. Returns the subagent's final text.
type SubagentRunner func(ctx context.Context, prompt, agentType string) (string, error)

// Executor owns the tool catalog and dispatches decoded tool calls to their
// handlers, grounded on the teacher's ToolExecutor registry/dispatch shape.
type Executor struct {
	opts Options

	sandbox    *workspace.Sandbox
	todoMgr    *todo.Manager
	taskBoard  *tasks.Manager
	skillsLib  *skills.Loader
	background *background.Manager
	teamMgr    *team.Manager
	subagent   SubagentRunner

	// workerName attributes send_message/plan_submit/claim_task calls made
	// from a teammate's restricted tool set back to that teammate.
	workerName string

	logger *slog.Logger
	mu     sync.Mutex
}

// Deps bundles the collaborators an Executor may need; unused fields are
// left nil when the corresponding Options flag is false.
type Deps struct {
	Sandbox    *workspace.Sandbox
	Todo       *todo.Manager
	TaskBoard  *tasks.Manager
	Skills     *skills.Loader
	Background *background.Manager
	Team       *team.Manager
	Subagent   SubagentRunner
	WorkerName string
}

func New(deps Deps, opts Options, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		opts:       opts,
		sandbox:    deps.Sandbox,
		todoMgr:    deps.Todo,
		taskBoard:  deps.TaskBoard,
		skillsLib:  deps.Skills,
		background: deps.Background,
		teamMgr:    deps.Team,
		subagent:   deps.Subagent,
		workerName: deps.WorkerName,
		logger:     logger.With("component", "tool_executor"),
	}
}

// Execute dispatches a batch of tool calls: if the batch contains any
// sequential-only tool, every call runs one at a time in order; otherwise
// the calls run concurrently. Results are returned in the original order.
func (e *Executor) Execute(ctx context.Context, calls []model.ToolCall) []ToolResult {
	if len(calls) <= 1 || e.hasSequentialTool(calls) {
		return e.executeSequential(ctx, calls)
	}
	return e.executeParallel(ctx, calls)
}

func (e *Executor) hasSequentialTool(calls []model.ToolCall) bool {
	for _, c := range calls {
		if sequentialTools[c.Function.Name] {
			return true
		}
	}
	return false
}

func (e *Executor) executeSequential(ctx context.Context, calls []model.ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	for i, call := range calls {
		results[i] = e.executeSingle(ctx, call)
	}
	return results
}

func (e *Executor) executeParallel(ctx context.Context, calls []model.ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c model.ToolCall) {
			defer wg.Done()
			results[idx] = e.executeSingle(ctx, c)
		}(i, call)
	}
	wg.Wait()
	return results
}

func (e *Executor) executeSingle(ctx context.Context, call model.ToolCall) ToolResult {
	result := ToolResult{ToolCallID: call.ID, Name: call.Function.Name}

	content, err := e.dispatch(ctx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		result.Content = formatToolError(err)
		result.Error = err
		e.logger.Warn("tool execution failed", "name", call.Function.Name, "error", err)
		return result
	}

	if len(content) > HardMaxToolResultChars {
		original := len(content)
		content = content[:HardMaxToolResultChars] +
			fmt.Sprintf("\n\n... [truncated: result was %d chars, capped at %d]", original, HardMaxToolResultChars)
	}
	result.Content = content
	return result
}

func (e *Executor) dispatch(ctx context.Context, name, rawArgs string) (string, error) {
	switch name {
	case "bash":
		var args BashArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		return e.runBash(ctx, args.Command)

	case "read_file":
		var args ReadFileArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		return e.readFile(args)

	case "write_file":
		if e.opts.Readonly {
			return "", fmt.Errorf("Role '%s' is read-only; write_file is blocked", e.opts.Role)
		}
		var args WriteFileArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		return e.writeFile(args)

	case "edit_file":
		if e.opts.Readonly {
			return "", fmt.Errorf("Role '%s' is read-only; edit_file is blocked", e.opts.Role)
		}
		var args EditFileArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		return e.editFile(args)

	case "TodoWrite":
		var args TodoWriteArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.todoMgr == nil {
			return "", fmt.Errorf("todo manager unavailable")
		}
		return e.todoMgr.Update(args.Items)

	case "task":
		var args TaskArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.subagent == nil {
			return "", fmt.Errorf("subagent delegation unavailable")
		}
		return e.subagent(ctx, args.Prompt, args.AgentType)

	case "task_create":
		var args TaskCreateArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.taskBoard == nil {
			return "", fmt.Errorf("task board unavailable")
		}
		t, err := e.taskBoard.Create(args.Subject, args.Description)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Created task #%d: %s", t.ID, t.Subject), nil

	case "task_get":
		var args TaskGetArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.taskBoard == nil {
			return "", fmt.Errorf("task board unavailable")
		}
		t, err := e.taskBoard.Get(args.ID)
		if err != nil {
			return "", err
		}
		b, _ := json.MarshalIndent(t, "", "  ")
		return string(b), nil

	case "task_update":
		var args TaskUpdateArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.taskBoard == nil {
			return "", fmt.Errorf("task board unavailable")
		}
		t, err := e.taskBoard.Update(args.ID, taskToParams(args))
		if err != nil {
			return "", err
		}
		if t == nil {
			return fmt.Sprintf("Deleted task #%d", args.ID), nil
		}
		return fmt.Sprintf("Updated task #%d: status=%s owner=%s", t.ID, t.Status, t.Owner), nil

	case "task_list":
		if e.taskBoard == nil {
			return "", fmt.Errorf("task board unavailable")
		}
		return e.taskBoard.RenderList()

	case "claim_task":
		var args ClaimTaskArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.taskBoard == nil {
			return "", fmt.Errorf("task board unavailable")
		}
		owner := e.workerName
		if owner == "" {
			owner = "lead"
		}
		var t *tasks.Task
		var err error
		if args.ID != 0 {
			t, err = e.taskBoard.ClaimTask(args.ID, owner)
		} else {
			t, err = e.taskBoard.ClaimNextUnblocked(owner)
		}
		if err != nil {
			return "", err
		}
		if t == nil {
			return "No unblocked tasks available.", nil
		}
		return fmt.Sprintf("Claimed task #%d: %s", t.ID, t.Subject), nil

	case "load_skill":
		var args LoadSkillArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.skillsLib == nil {
			return "", fmt.Errorf("skill loader unavailable")
		}
		return e.skillsLib.Load(args.Name), nil

	case "background_run":
		var args BackgroundRunArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.background == nil {
			return "", fmt.Errorf("background runner unavailable")
		}
		timeout := time.Duration(args.TimeoutSeconds) * time.Second
		return e.background.Run(args.Command, timeout), nil

	case "check_background":
		var args CheckBackgroundArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.background == nil {
			return "", fmt.Errorf("background runner unavailable")
		}
		return e.background.Check(args.TaskID), nil

	case "spawn_teammate":
		var args SpawnTeammateArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.Spawn(args.Name, args.Role, args.Prompt), nil

	case "list_teammates":
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.ListMembers(), nil

	case "send_message":
		var args SendMessageArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		sender := e.workerName
		if sender == "" {
			sender = "lead"
		}
		return e.teamMgr.SendMessage(sender, args.To, args.Content, team.MsgMessage), nil

	case "read_inbox":
		var args ReadInboxArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		name := args.Name
		if name == "" {
			name = e.workerName
		}
		if name == "" {
			name = "lead"
		}
		return e.teamMgr.ReadInboxText(name), nil

	case "broadcast":
		var args BroadcastArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.BroadcastFromLead(args.Content), nil

	case "shutdown_request":
		var args ShutdownRequestArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.RequestShutdown(args.Teammate), nil

	case "shutdown_response":
		var args ShutdownResponseArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		sender := e.workerName
		if sender == "" {
			sender = "unknown"
		}
		return e.teamMgr.RecordShutdownResponse(sender, args.RequestID, args.Approve, args.Reason), nil

	case "shutdown_status":
		var args ShutdownStatusArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.CheckShutdown(args.RequestID), nil

	case "shutdown_list":
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.ListShutdownRequests(), nil

	case "plan_submit":
		var args PlanSubmitArgs
		if err := decode(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		sender := e.workerName
		if sender == "" {
			sender = "unknown"
		}
		return e.teamMgr.SubmitPlan(sender, args.Plan), nil

	case "plan_review":
		var args PlanReviewArgs
		if err := decodeStrict(rawArgs, &args); err != nil {
			return "", err
		}
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.ReviewPlan(args.RequestID, args.Approve, args.Feedback), nil

	case "plan_list":
		if e.teamMgr == nil {
			return "", fmt.Errorf("team manager unavailable")
		}
		return e.teamMgr.ListPlanRequests(), nil

	case "idle":
		return "idle", nil

	default:
		return "", fmt.Errorf("Unknown tool '%s'", name)
	}
}

func decode(raw string, v any) error {
	if raw == "" || raw == "{}" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// decodeStrict rejects unknown fields, used for tools whose edge cases
// require exact argument shapes (task/todo identifiers).
func decodeStrict(raw string, v any) error {
	if raw == "" || raw == "{}" {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// formatToolError converts a tool handler's error into the plain-string
// wire format the model sees and self-corrects on: "Error: <message>".
func formatToolError(err error) string {
	errMsg := err.Error()
	if len(errMsg) > 2000 {
		errMsg = errMsg[:2000] + "... (truncated)"
	}
	return "Error: " + errMsg
}
