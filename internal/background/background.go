// Package background implements the async shell task runner with
// notification draining, grounded on
// original_source/V1/anuris/agent/background.py's BackgroundManager.
package background

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const maxOutputBytes = 50_000

var dangerousSubstrings = []string{"rm -rf /", "sudo", "shutdown", "reboot", "> /dev/"}

// IsDangerous reports whether command contains any substring the shell-
// safety policy blocks, shared with the bash tool.
func IsDangerous(command string) bool {
	for _, s := range dangerousSubstrings {
		if strings.Contains(command, s) {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
)

// Task is one background shell invocation.
type Task struct {
	ID      string
	Command string
	Status  Status
	Result  string
}

// Notification is appended to the drain queue on task completion.
type Notification struct {
	TaskID  string
	Status  Status
	Command string // truncated to 80 chars
	Result  string // truncated to 500 chars
}

// Manager runs shell commands under a workspace root asynchronously,
// recording status and draining completion notifications for the agent
// loop to splice into the conversation.
type Manager struct {
	root string

	mu            sync.Mutex
	tasks         map[string]*Task
	notifications []Notification
}

func New(root string) *Manager {
	return &Manager{
		root:  root,
		tasks: map[string]*Task{},
	}
}

// Run launches command under a timeout (default 300s) and returns
// immediately with a started-task message.
func (m *Manager) Run(command string, timeout time.Duration) string {
	if IsDangerous(command) {
		return "Error: Dangerous command blocked"
	}
	if timeout <= 0 {
		timeout = 300 * time.Second
	}

	id := uuid.NewString()[:8]
	m.mu.Lock()
	m.tasks[id] = &Task{ID: id, Command: command, Status: StatusRunning}
	m.mu.Unlock()

	go m.execute(id, command, timeout)

	return fmt.Sprintf("Background task %s started: %s", id, truncate(command, 80))
}

func (m *Manager) execute(id, command string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = m.root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()

	var status Status
	var result string
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		status = StatusTimeout
		result = fmt.Sprintf("Error: Timeout (%ds)", int(timeout.Seconds()))
	case err != nil:
		status = StatusError
		result = fmt.Sprintf("Error: %s", err)
	default:
		status = StatusCompleted
		result = truncate(strings.TrimSpace(out.String()), maxOutputBytes)
		if result == "" {
			result = "(no output)"
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return
	}
	task.Status = status
	task.Result = result
	m.notifications = append(m.notifications, Notification{
		TaskID:  id,
		Status:  status,
		Command: truncate(command, 80),
		Result:  truncate(result, 500),
	})
}

// Check returns a snapshot of one task, or a multi-line summary of all
// tasks when taskID is empty.
func (m *Manager) Check(taskID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if taskID != "" {
		task, ok := m.tasks[taskID]
		if !ok {
			return fmt.Sprintf("Error: Unknown task %s", taskID)
		}
		result := task.Result
		if result == "" {
			result = "(running)"
		}
		return fmt.Sprintf("[%s] %s\n%s", task.Status, truncate(task.Command, 60), result)
	}

	if len(m.tasks) == 0 {
		return "No background tasks."
	}
	var b strings.Builder
	first := true
	for _, id := range m.sortedIDsLocked() {
		task := m.tasks[id]
		if !first {
			b.WriteString("\n")
		}
		first = false
		b.WriteString(fmt.Sprintf("%s: [%s] %s", task.ID, task.Status, truncate(task.Command, 60)))
	}
	return b.String()
}

func (m *Manager) sortedIDsLocked() []string {
	ids := make([]string, 0, len(m.tasks))
	for id := range m.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DrainNotifications atomically removes and returns all pending
// notifications.
func (m *Manager) DrainNotifications() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	drained := m.notifications
	m.notifications = nil
	return drained
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
