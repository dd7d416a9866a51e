package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_CreateAssignsSequentialIDs(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	a, err := m.Create("Ship feature", "")
	require.NoError(t, err)
	require.Equal(t, 1, a.ID)

	b, err := m.Create("Write docs", "")
	require.NoError(t, err)
	require.Equal(t, 2, b.ID)
}

func TestManager_UpdateAndList(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	task, err := m.Create("Ship feature", "")
	require.NoError(t, err)

	status := string(StatusInProgress)
	owner := "lead"
	updated, err := m.Update(task.ID, UpdateParams{Status: &status, Owner: &owner})
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
	require.Equal(t, "lead", updated.Owner)

	list, err := m.RenderList()
	require.NoError(t, err)
	require.Equal(t, "[>] #1: Ship feature @lead", list)
}

func TestManager_DependencyClosure(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	a, err := m.Create("A", "")
	require.NoError(t, err)
	b, err := m.Create("B", "")
	require.NoError(t, err)

	_, err = m.Update(a.ID, UpdateParams{AddBlocks: []int{b.ID}})
	require.NoError(t, err)

	refreshedB, err := m.Get(b.ID)
	require.NoError(t, err)
	require.Equal(t, []int{a.ID}, refreshedB.BlockedBy)

	status := string(StatusCompleted)
	_, err = m.Update(a.ID, UpdateParams{Status: &status})
	require.NoError(t, err)

	refreshedB, err = m.Get(b.ID)
	require.NoError(t, err)
	require.Empty(t, refreshedB.BlockedBy)
}

func TestManager_DeleteRemovesFile(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	task, err := m.Create("Temp", "")
	require.NoError(t, err)

	status := "deleted"
	result, err := m.Update(task.ID, UpdateParams{Status: &status})
	require.NoError(t, err)
	require.Nil(t, result)

	_, err = m.Get(task.ID)
	require.Error(t, err)
}

func TestManager_ClaimNextUnblockedSkipsBlockedTasks(t *testing.T) {
	m, err := New(t.TempDir())
	require.NoError(t, err)

	a, err := m.Create("A", "")
	require.NoError(t, err)
	b, err := m.Create("B", "")
	require.NoError(t, err)
	_, err = m.Update(b.ID, UpdateParams{AddBlockedBy: []int{a.ID}})
	require.NoError(t, err)

	claimed, err := m.ClaimNextUnblocked("worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, a.ID, claimed.ID)
	require.Equal(t, StatusInProgress, claimed.Status)
}
