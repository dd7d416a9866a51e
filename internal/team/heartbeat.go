package team

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Heartbeat periodically checks each working teammate's LastSeen (refreshed
// on every status change) independent of each worker's own round loop, and
// logs a warning when it is more than two minutes old. It does not update
// LastSeen itself, and ListMembers does not show it. It never force-kills a
// worker; enforcement remains the worker's own BudgetTracker
// (internal/agent), matching spec.md §4.9's "self-terminate on budget
// violation". An enrichment over the teacher's team_manager.go scheduling
// idea, built on github.com/robfig/cron/v3.
type Heartbeat struct {
	cron *cron.Cron
	mgr  *Manager
	log  *slog.Logger
}

// NewHeartbeat schedules a liveness check every 10 seconds.
func NewHeartbeat(mgr *Manager, log *slog.Logger) *Heartbeat {
	if log == nil {
		log = slog.Default()
	}
	c := cron.New(cron.WithSeconds())
	h := &Heartbeat{cron: c, mgr: mgr, log: log}
	return h
}

// Start registers the heartbeat job and begins the cron scheduler.
func (h *Heartbeat) Start() error {
	_, err := h.cron.AddFunc("*/10 * * * * *", h.tick)
	if err != nil {
		return err
	}
	h.cron.Start()
	return nil
}

func (h *Heartbeat) Stop() {
	ctx := h.cron.Stop()
	<-ctx.Done()
}

func (h *Heartbeat) tick() {
	now := time.Now()
	for _, name := range h.mgr.MemberNames() {
		h.mgr.mu.Lock()
		member := h.mgr.findMemberLocked(name)
		var stale bool
		if member != nil && member.Status == StatusWorking {
			stale = !member.LastSeen.IsZero() && now.Sub(member.LastSeen) > 2*time.Minute
		}
		h.mgr.mu.Unlock()
		if stale {
			h.log.Warn("teammate heartbeat stale", "name", name)
		}
	}
}
