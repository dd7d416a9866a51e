package team

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageBus_SendAndReadDrains(t *testing.T) {
	bus, err := NewMessageBus(t.TempDir())
	require.NoError(t, err)

	msg := bus.Send("lead", "worker-1", "hello", MsgMessage, nil)
	require.Equal(t, "Sent message to worker-1", msg)

	messages := bus.Read("worker-1")
	require.Len(t, messages, 1)
	require.Equal(t, "hello", messages[0].Content)
	require.Equal(t, "lead", messages[0].From)

	// second read is empty: drain-on-read
	require.Empty(t, bus.Read("worker-1"))
}

func TestMessageBus_FIFOOrder(t *testing.T) {
	bus, err := NewMessageBus(t.TempDir())
	require.NoError(t, err)

	bus.Send("lead", "worker-1", "first", MsgMessage, nil)
	bus.Send("lead", "worker-1", "second", MsgMessage, nil)
	bus.Send("lead", "worker-1", "third", MsgMessage, nil)

	messages := bus.Read("worker-1")
	require.Len(t, messages, 3)
	require.Equal(t, "first", messages[0].Content)
	require.Equal(t, "second", messages[1].Content)
	require.Equal(t, "third", messages[2].Content)
}

func TestMessageBus_RejectsInvalidType(t *testing.T) {
	bus, err := NewMessageBus(t.TempDir())
	require.NoError(t, err)

	msg := bus.Send("lead", "worker-1", "hi", MessageType("bogus"), nil)
	require.Contains(t, msg, "Invalid message type")
}

func TestMessageBus_ReadEmptyInboxIsEmptySlice(t *testing.T) {
	bus, err := NewMessageBus(t.TempDir())
	require.NoError(t, err)

	require.Empty(t, bus.Read("nobody"))
}
