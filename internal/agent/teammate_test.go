package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anuris/anuris/internal/llm"
	"github.com/anuris/anuris/internal/workspace"
)

func TestIsReadonlyRole(t *testing.T) {
	require.True(t, isReadonlyRole("Code Reviewer"))
	require.True(t, isReadonlyRole("qa-engineer"))
	require.True(t, isReadonlyRole("read-only auditor"))
	require.False(t, isReadonlyRole("backend engineer"))
}

func TestTeammateWorker_IdleTimeoutShutsDownWithNoWork(t *testing.T) {
	sb, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	completer := &scriptedCompleter{responses: []*llm.Response{
		{Content: "nothing left to do"},
	}}
	w := &TeammateWorker{
		Model:   completer,
		Sandbox: sb,
		Budgets: Budgets{
			MaxRuntime:   time.Minute,
			MaxRounds:    10,
			MaxToolCalls: 10,
			IdleTimeout:  30 * time.Millisecond,
			PollInterval: 10 * time.Millisecond,
		},
	}

	done := make(chan struct{})
	go func() {
		w.Run("scout", "researcher", "look for flaky tests")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("teammate worker did not shut down within idle-timeout")
	}
}

func TestBudgetTracker_ViolatesOnRoundOverflow(t *testing.T) {
	tr := &budgetTracker{
		budgets:   Budgets{MaxRuntime: time.Hour, MaxRounds: 1, MaxToolCalls: 100, IdleTimeout: time.Hour},
		startedAt: time.Now(),
		rounds:    2,
	}
	reason, violated := tr.violation()
	require.True(t, violated)
	require.Contains(t, reason, "round budget")
}

func TestBudgetTracker_OKWithinBudgets(t *testing.T) {
	tr := &budgetTracker{
		budgets:   Budgets{MaxRuntime: time.Hour, MaxRounds: 10, MaxToolCalls: 10, IdleTimeout: time.Hour},
		startedAt: time.Now(),
		rounds:    1,
		toolCalls: 1,
	}
	_, violated := tr.violation()
	require.False(t, violated)
}
