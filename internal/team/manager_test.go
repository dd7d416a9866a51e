package team

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_SpawnRunsWorkerAndUpdatesStatus(t *testing.T) {
	mgr, err := New(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	mgr.SetWorkerRunner(func(name, role, prompt string) {
		defer wg.Done()
		require.Equal(t, "researcher", name)
	})

	msg := mgr.Spawn("researcher", "teammate", "go research x")
	require.Contains(t, msg, "Spawned 'researcher'")

	wg.Wait()
	require.Eventually(t, func() bool {
		return mgr.ListMembers() != "No teammates."
	}, time.Second, 5*time.Millisecond)
}

func TestManager_SpawnRejectsWhileWorking(t *testing.T) {
	mgr, err := New(t.TempDir())
	require.NoError(t, err)

	block := make(chan struct{})
	mgr.SetWorkerRunner(func(name, role, prompt string) {
		<-block
	})

	mgr.Spawn("worker-1", "teammate", "task")
	msg := mgr.Spawn("worker-1", "teammate", "another task")
	require.Contains(t, msg, "is currently working")

	close(block)
}

func TestManager_ShutdownRequestFlow(t *testing.T) {
	mgr, err := New(t.TempDir())
	require.NoError(t, err)

	msg := mgr.RequestShutdown("worker-1")
	require.Contains(t, msg, "Shutdown request")

	inbox := mgr.ReadInbox("worker-1")
	require.Len(t, inbox, 1)
	require.Equal(t, MsgShutdownRequest, inbox[0].Type)
	requestID, _ := inbox[0].Extra["request_id"].(string)
	require.NotEmpty(t, requestID)

	mgr.cfg.Members = append(mgr.cfg.Members, &Member{Name: "worker-1", Status: StatusWorking})
	resp := mgr.RecordShutdownResponse("worker-1", requestID, true, "done")
	require.Equal(t, "Shutdown approved", resp)

	status := mgr.CheckShutdown(requestID)
	require.Contains(t, status, "approved")
}

func TestManager_PlanReviewFlow(t *testing.T) {
	mgr, err := New(t.TempDir())
	require.NoError(t, err)

	msg := mgr.SubmitPlan("worker-1", "do the thing")
	require.Contains(t, msg, "Plan submitted")

	inbox := mgr.ReadInbox("lead")
	require.Len(t, inbox, 1)
	requestID, _ := inbox[0].Extra["request_id"].(string)

	resp := mgr.ReviewPlan(requestID, true, "looks good")
	require.Contains(t, resp, "approved")

	workerInbox := mgr.ReadInbox("worker-1")
	require.Len(t, workerInbox, 1)
	require.Equal(t, MsgPlanApprovalResponse, workerInbox[0].Type)
}

func TestManager_BroadcastExcludesLead(t *testing.T) {
	mgr, err := New(t.TempDir())
	require.NoError(t, err)

	mgr.cfg.Members = []*Member{{Name: "lead"}, {Name: "worker-1"}, {Name: "worker-2"}}
	msg := mgr.BroadcastFromLead("stand down")
	require.Equal(t, "Broadcast to 2 teammate(s)", msg)

	require.Len(t, mgr.ReadInbox("worker-1"), 1)
	require.Len(t, mgr.ReadInbox("worker-2"), 1)
	require.Empty(t, mgr.ReadInbox("lead"))
}
