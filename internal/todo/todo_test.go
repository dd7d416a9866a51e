package todo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManager_UpdateRendersMarkers(t *testing.T) {
	m := New()
	out, err := m.Update([]Item{
		{Content: "write spec", Status: StatusCompleted},
		{Content: "build parser", Status: StatusInProgress, ActiveForm: "Building parser"},
		{Content: "ship it", Status: StatusPending},
	})
	require.NoError(t, err)
	require.Contains(t, out, "[x] write spec")
	require.Contains(t, out, "[>] build parser <- Building parser")
	require.Contains(t, out, "[ ] ship it")
	require.Contains(t, out, "(1/3 completed)")
}

func TestManager_UpdateRejectsTooManyItems(t *testing.T) {
	m := New()
	items := make([]Item, 21)
	for i := range items {
		items[i] = Item{Content: "x", Status: StatusPending}
	}
	_, err := m.Update(items)
	require.Error(t, err)
}

func TestManager_UpdateRejectsMultipleInProgress(t *testing.T) {
	m := New()
	_, err := m.Update([]Item{
		{Content: "a", Status: StatusInProgress, ActiveForm: "Doing a"},
		{Content: "b", Status: StatusInProgress, ActiveForm: "Doing b"},
	})
	require.Error(t, err)
}

func TestManager_UpdateRejectsEmptyContent(t *testing.T) {
	m := New()
	_, err := m.Update([]Item{{Content: "  ", Status: StatusPending}})
	require.Error(t, err)
}

func TestManager_RenderEmpty(t *testing.T) {
	m := New()
	require.Equal(t, "No todos.", m.Render())
}

func TestManager_UpdateOverwritesPreviousList(t *testing.T) {
	m := New()
	_, err := m.Update([]Item{{Content: "first", Status: StatusPending}})
	require.NoError(t, err)

	out, err := m.Update([]Item{{Content: "second", Status: StatusPending}})
	require.NoError(t, err)
	require.NotContains(t, out, "first")
	require.Contains(t, out, "second")
}
