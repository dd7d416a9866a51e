package background

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_RunAndDrainNotification(t *testing.T) {
	m := New(t.TempDir())

	msg := m.Run("echo hello", time.Second)
	require.Contains(t, msg, "Background task")

	var notes []Notification
	require.Eventually(t, func() bool {
		notes = m.DrainNotifications()
		return len(notes) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, StatusCompleted, notes[0].Status)
	require.Contains(t, notes[0].Result, "hello")

	// drained once, stays empty
	require.Empty(t, m.DrainNotifications())
}

func TestManager_DangerousCommandBlocked(t *testing.T) {
	m := New(t.TempDir())
	msg := m.Run("sudo rm -rf /", time.Second)
	require.Equal(t, "Error: Dangerous command blocked", msg)
}

func TestManager_CheckUnknownTask(t *testing.T) {
	m := New(t.TempDir())
	require.Contains(t, m.Check("deadbeef"), "Unknown task")
}

func TestManager_TimeoutProducesTimeoutStatus(t *testing.T) {
	m := New(t.TempDir())
	m.Run("sleep 5", 50*time.Millisecond)

	require.Eventually(t, func() bool {
		notes := m.DrainNotifications()
		if len(notes) == 0 {
			return false
		}
		return notes[0].Status == StatusTimeout && strings.Contains(notes[0].Result, "Timeout")
	}, 2*time.Second, 10*time.Millisecond)
}
