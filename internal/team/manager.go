package team

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemberStatus string

const (
	StatusWorking  MemberStatus = "working"
	StatusIdle     MemberStatus = "idle"
	StatusShutdown MemberStatus = "shutdown"
	StatusError    MemberStatus = "error"
)

// Member is one teammate's roster entry.
type Member struct {
	Name     string       `json:"name"`
	Role     string       `json:"role"`
	Status   MemberStatus `json:"status"`
	LastSeen time.Time    `json:"-"`
}

type teamConfig struct {
	TeamName string    `json:"team_name"`
	Members  []*Member `json:"members"`
}

// WorkerRunner is invoked by Spawn in its own goroutine; it runs the
// teammate's own bounded loop (internal/agent.TeammateWorker.Run).
type WorkerRunner func(name, role, prompt string)

type shutdownRequest struct {
	Target string `json:"target"`
	Status string `json:"status"`
}

type planRequest struct {
	From   string `json:"from"`
	Plan   string `json:"plan"`
	Status string `json:"status"`
}

// Manager persists the team roster and owns the inbox bus plus the
// shutdown/plan protocol trackers (in-memory only, per spec.md §3).
type Manager struct {
	root       string
	configPath string
	Bus        *MessageBus

	mu               sync.Mutex
	cfg              teamConfig
	runner           WorkerRunner
	shutdownRequests map[string]*shutdownRequest
	planRequests     map[string]*planRequest
}

// New creates (or loads) the team directory under workspaceRoot/.anuris_team.
func New(workspaceRoot string) (*Manager, error) {
	teamDir := filepath.Join(workspaceRoot, ".anuris_team")
	if err := os.MkdirAll(teamDir, 0o755); err != nil {
		return nil, fmt.Errorf("create team dir: %w", err)
	}
	bus, err := NewMessageBus(filepath.Join(teamDir, "inbox"))
	if err != nil {
		return nil, err
	}

	m := &Manager{
		root:             workspaceRoot,
		configPath:       filepath.Join(teamDir, "config.json"),
		Bus:              bus,
		shutdownRequests: map[string]*shutdownRequest{},
		planRequests:     map[string]*planRequest{},
	}
	m.cfg = m.loadConfig()
	return m, nil
}

func (m *Manager) SetWorkerRunner(r WorkerRunner) { m.runner = r }

func (m *Manager) loadConfig() teamConfig {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return teamConfig{TeamName: "default"}
	}
	var cfg teamConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return teamConfig{TeamName: "default"}
	}
	if cfg.TeamName == "" {
		cfg.TeamName = "default"
	}
	return cfg
}

func (m *Manager) saveConfigLocked() error {
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0o644)
}

func (m *Manager) findMemberLocked(name string) *Member {
	for _, mem := range m.cfg.Members {
		if mem.Name == name {
			return mem
		}
	}
	return nil
}

// Spawn upserts a member and starts its worker goroutine. Rejects spawning
// over a currently-working member.
func (m *Manager) Spawn(name, role, prompt string) string {
	name = strings.TrimSpace(name)
	role = strings.TrimSpace(role)
	if role == "" {
		role = "teammate"
	}
	if name == "" {
		return "Error: teammate name is required"
	}
	if strings.TrimSpace(prompt) == "" {
		return "Error: prompt is required"
	}
	if m.runner == nil {
		return "Error: Team worker runner unavailable"
	}

	m.mu.Lock()
	member := m.findMemberLocked(name)
	if member != nil {
		if member.Status == StatusWorking {
			m.mu.Unlock()
			return fmt.Sprintf("Error: '%s' is currently %s", name, member.Status)
		}
		member.Role = role
		member.Status = StatusWorking
	} else {
		member = &Member{Name: name, Role: role, Status: StatusWorking}
		m.cfg.Members = append(m.cfg.Members, member)
	}
	_ = m.saveConfigLocked()
	m.mu.Unlock()

	go m.runWorker(name, role, prompt)

	return fmt.Sprintf("Spawned '%s' (role: %s)", name, role)
}

func (m *Manager) runWorker(name, role, prompt string) {
	defer func() {
		if r := recover(); r != nil {
			m.SetMemberStatus(name, StatusError)
			m.Bus.Send("system", "lead", fmt.Sprintf("%s panicked: %v", name, r), MsgMessage, nil)
		}
	}()

	m.runner(name, role, prompt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if member := m.findMemberLocked(name); member != nil && member.Status == StatusWorking {
		member.Status = StatusIdle
		_ = m.saveConfigLocked()
	}
}

func (m *Manager) SetMemberStatus(name string, status MemberStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member := m.findMemberLocked(name)
	if member == nil {
		return
	}
	member.Status = status
	member.LastSeen = time.Now()
	_ = m.saveConfigLocked()
}

// Touch refreshes LastSeen without changing status.
func (m *Manager) Touch(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if member := m.findMemberLocked(name); member != nil {
		member.LastSeen = time.Now()
	}
}

func (m *Manager) MemberNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.cfg.Members))
	for _, mem := range m.cfg.Members {
		if mem.Name != "" {
			names = append(names, mem.Name)
		}
	}
	return names
}

func (m *Manager) ListMembers() string {
	m.mu.Lock()
	members := append([]*Member(nil), m.cfg.Members...)
	teamName := m.cfg.TeamName
	m.mu.Unlock()

	if len(members) == 0 {
		return "No teammates."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Team: %s", teamName))
	for _, mem := range members {
		role := mem.Role
		if role == "" {
			role = "teammate"
		}
		b.WriteString(fmt.Sprintf("\n- %s (%s): %s", mem.Name, role, mem.Status))
	}
	return b.String()
}

func (m *Manager) SendMessage(sender, to, content string, msgType MessageType) string {
	return m.Bus.Send(sender, to, content, msgType, nil)
}

func (m *Manager) SendFromLead(to, content string, msgType MessageType) string {
	return m.SendMessage("lead", to, content, msgType)
}

func (m *Manager) BroadcastFromLead(content string) string {
	sent := 0
	for _, name := range m.MemberNames() {
		if name == "lead" {
			continue
		}
		m.Bus.Send("lead", name, content, MsgBroadcast, nil)
		sent++
	}
	return fmt.Sprintf("Broadcast to %d teammate(s)", sent)
}

func (m *Manager) ReadInbox(name string) []InboxMessage {
	return m.Bus.Read(name)
}

func (m *Manager) ReadInboxText(name string) string {
	data, _ := json.MarshalIndent(m.ReadInbox(name), "", "  ")
	return string(data)
}

func newRequestID() string {
	return uuid.NewString()[:8]
}

func (m *Manager) RequestShutdown(teammate string) string {
	teammate = strings.TrimSpace(teammate)
	if teammate == "" {
		return "Error: teammate is required"
	}
	requestID := newRequestID()
	m.mu.Lock()
	m.shutdownRequests[requestID] = &shutdownRequest{Target: teammate, Status: "pending"}
	m.mu.Unlock()

	m.Bus.Send("lead", teammate, "Please shutdown gracefully when safe.", MsgShutdownRequest,
		map[string]any{"request_id": requestID})
	return fmt.Sprintf("Shutdown request %s sent to %s", requestID, teammate)
}

func (m *Manager) RecordShutdownResponse(sender, requestID string, approve bool, reason string) string {
	m.mu.Lock()
	if req, ok := m.shutdownRequests[requestID]; ok {
		if approve {
			req.Status = "approved"
		} else {
			req.Status = "rejected"
		}
	}
	if approve {
		if member := m.findMemberLocked(sender); member != nil {
			member.Status = StatusShutdown
			_ = m.saveConfigLocked()
		}
	}
	m.mu.Unlock()

	m.Bus.Send(sender, "lead", reason, MsgShutdownResponse,
		map[string]any{"request_id": requestID, "approve": approve})

	if approve {
		return "Shutdown approved"
	}
	return "Shutdown rejected"
}

func (m *Manager) CheckShutdown(requestID string) string {
	m.mu.Lock()
	req, ok := m.shutdownRequests[requestID]
	m.mu.Unlock()
	if !ok {
		return fmt.Sprintf("Error: Unknown request_id '%s'", requestID)
	}
	data, _ := json.MarshalIndent(req, "", "  ")
	return string(data)
}

func (m *Manager) ListShutdownRequests() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.shutdownRequests) == 0 {
		return "No shutdown requests."
	}
	ids := make([]string, 0, len(m.shutdownRequests))
	for id := range m.shutdownRequests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		req := m.shutdownRequests[id]
		b.WriteString(fmt.Sprintf("- %s: %s [%s]", id, req.Target, req.Status))
	}
	return b.String()
}

func (m *Manager) SubmitPlan(sender, plan string) string {
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return "Error: plan is required"
	}
	requestID := newRequestID()
	m.mu.Lock()
	m.planRequests[requestID] = &planRequest{From: sender, Plan: plan, Status: "pending"}
	m.mu.Unlock()

	m.Bus.Send(sender, "lead", plan, MsgPlanApprovalRequest,
		map[string]any{"request_id": requestID, "plan": plan})
	return fmt.Sprintf("Plan submitted (request_id=%s)", requestID)
}

func (m *Manager) ReviewPlan(requestID string, approve bool, feedback string) string {
	m.mu.Lock()
	req, ok := m.planRequests[requestID]
	if !ok {
		m.mu.Unlock()
		return fmt.Sprintf("Error: Unknown request_id '%s'", requestID)
	}
	if approve {
		req.Status = "approved"
	} else {
		req.Status = "rejected"
	}
	target := req.From
	status := req.Status
	m.mu.Unlock()

	m.Bus.Send("lead", target, feedback, MsgPlanApprovalResponse,
		map[string]any{"request_id": requestID, "approve": approve, "feedback": feedback})
	return fmt.Sprintf("Plan %s marked as %s", requestID, status)
}

func (m *Manager) ListPlanRequests() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.planRequests) == 0 {
		return "No plan requests."
	}
	ids := make([]string, 0, len(m.planRequests))
	for id := range m.planRequests {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		req := m.planRequests[id]
		b.WriteString(fmt.Sprintf("- %s: from=%s [%s]", id, req.From, req.Status))
	}
	return b.String()
}
