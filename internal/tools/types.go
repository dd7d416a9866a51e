// Package tools implements the Tool Executor: a fixed catalog of named
// tools whose handlers turn decoded JSON arguments into string results,
// grounded on the teacher's tool_executor.go (registry, sequential-vs-
// parallel dispatch, truncation guard, structured error format) generalized
// from its open chat-platform catalog to the closed catalog this runtime
// exposes.
package tools

import (
	"github.com/anuris/anuris/internal/tasks"
	"github.com/anuris/anuris/internal/todo"
)

// ToolResult is the outcome of one tool call, ready to fold into a
// tool-role message.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	Error      error
}

// Argument structs. Each is decoded with json.DisallowUnknownFields where
// the tool's edge cases demand strictness (task/todo identifiers).

type BashArgs struct {
	Command string `json:"command"`
}

type ReadFileArgs struct {
	Path     string `json:"path"`
	MaxLines int    `json:"max_lines,omitempty"`
}

type WriteFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type EditFileArgs struct {
	Path    string `json:"path"`
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

type TodoWriteArgs struct {
	Items []todo.Item `json:"items"`
}

type TaskArgs struct {
	Prompt    string `json:"prompt"`
	AgentType string `json:"agent_type"`
}

type TaskCreateArgs struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type TaskGetArgs struct {
	ID int `json:"id"`
}

type TaskUpdateArgs struct {
	ID           int      `json:"id"`
	Status       *string  `json:"status,omitempty"`
	Owner        *string  `json:"owner,omitempty"`
	AddBlockedBy []int    `json:"add_blocked_by,omitempty"`
	AddBlocks    []int    `json:"add_blocks,omitempty"`
}

type ClaimTaskArgs struct {
	ID int `json:"id"`
}

type LoadSkillArgs struct {
	Name string `json:"name"`
}

type BackgroundRunArgs struct {
	Command        string `json:"command"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

type CheckBackgroundArgs struct {
	TaskID string `json:"task_id,omitempty"`
}

type SpawnTeammateArgs struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Prompt string `json:"prompt"`
}

type SendMessageArgs struct {
	To      string `json:"to"`
	Content string `json:"content"`
}

type ReadInboxArgs struct {
	Name string `json:"name,omitempty"`
}

type BroadcastArgs struct {
	Content string `json:"content"`
}

type ShutdownRequestArgs struct {
	Teammate string `json:"teammate"`
}

type ShutdownResponseArgs struct {
	RequestID string `json:"request_id"`
	Approve   bool   `json:"approve"`
	Reason    string `json:"reason,omitempty"`
}

type ShutdownStatusArgs struct {
	RequestID string `json:"request_id"`
}

type PlanSubmitArgs struct {
	Plan string `json:"plan"`
}

type PlanReviewArgs struct {
	RequestID string `json:"request_id"`
	Approve   bool   `json:"approve"`
	Feedback  string `json:"feedback,omitempty"`
}

// taskToParams converts the wire update args into tasks.UpdateParams.
func taskToParams(a TaskUpdateArgs) tasks.UpdateParams {
	return tasks.UpdateParams{
		Status:       a.Status,
		Owner:        a.Owner,
		AddBlockedBy: a.AddBlockedBy,
		AddBlocks:    a.AddBlocks,
	}
}
