// Package todo implements the in-memory todo list manager: overwrite
// semantics on every TodoWrite, grounded on
// original_source/V1/anuris/agent/todo.py.
package todo

import (
	"fmt"
	"strings"
	"sync"
)

const maxItems = 20

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Item is one todo entry. ActiveForm is the present-continuous label shown
// while the item is in progress.
type Item struct {
	Content    string `json:"content"`
	Status     Status `json:"status"`
	ActiveForm string `json:"activeForm"`
}

// Manager holds the current todo list in process memory. It is replaced
// wholesale on every Update call; there is no persistence across runs.
type Manager struct {
	mu    sync.Mutex
	items []Item
}

func New() *Manager {
	return &Manager{}
}

// Update validates and replaces the entire list, matching
// TodoManager.update's invariants exactly: at most 20 items, each with
// non-empty content and a recognized status, at most one item in_progress,
// and a non-empty activeForm for that item.
func (m *Manager) Update(items []Item) (string, error) {
	if len(items) > maxItems {
		return "", fmt.Errorf("max %d todos", maxItems)
	}

	validated := make([]Item, 0, len(items))
	inProgressCount := 0
	for i, item := range items {
		content := strings.TrimSpace(item.Content)
		if content == "" {
			return "", fmt.Errorf("item %d: content required", i)
		}
		status := item.Status
		switch status {
		case StatusPending, StatusInProgress, StatusCompleted:
		default:
			return "", fmt.Errorf("item %d: invalid status '%s'", i, status)
		}
		activeForm := strings.TrimSpace(item.ActiveForm)
		if status == StatusInProgress {
			inProgressCount++
			if activeForm == "" {
				return "", fmt.Errorf("item %d: activeForm required for in_progress", i)
			}
		}
		if activeForm == "" {
			activeForm = content
		}
		validated = append(validated, Item{Content: content, Status: status, ActiveForm: activeForm})
	}

	if inProgressCount > 1 {
		return "", fmt.Errorf("only one in_progress allowed")
	}

	m.mu.Lock()
	m.items = validated
	m.mu.Unlock()

	return m.Render(), nil
}

// Render formats the current list for a tool result: one marker-prefixed
// line per item, suffixed with the active form while in progress, followed
// by a "(done/total completed)" summary line.
func (m *Manager) Render() string {
	m.mu.Lock()
	items := append([]Item(nil), m.items...)
	m.mu.Unlock()

	if len(items) == 0 {
		return "No todos."
	}

	var b strings.Builder
	done := 0
	for _, item := range items {
		marker := marker(item.Status)
		b.WriteString(marker)
		b.WriteString(" ")
		b.WriteString(item.Content)
		if item.Status == StatusInProgress {
			b.WriteString(" <- ")
			b.WriteString(item.ActiveForm)
		}
		b.WriteString("\n")
		if item.Status == StatusCompleted {
			done++
		}
	}
	b.WriteString(fmt.Sprintf("\n(%d/%d completed)", done, len(items)))
	return b.String()
}

func marker(s Status) string {
	switch s {
	case StatusCompleted:
		return "[x]"
	case StatusInProgress:
		return "[>]"
	case StatusPending:
		return "[ ]"
	default:
		return "[?]"
	}
}
