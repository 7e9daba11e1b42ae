package livelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
)

// newTestClient wires up a Client whose out channel can be inspected
// directly, without going through a real network connection.
func newTestClient(hub *Hub) *Client {
	c := &Client{hub: hub, out: make(chan *Message, sendBufferSize)}
	hub.register(c)

	return c
}

func TestLogSinkBroadcastsToClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	client := newTestClient(hub)

	sink := hub.LogSink()
	sink(actors.LogRecord{
		Kind:   "SendEvent",
		Actor:  actorid.ID{},
		Fields: map[string]any{"target": "Pong#1"},
	})

	select {
	case msg := <-client.out:
		require.Equal(t, MsgTypeLog, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast log message")
	}
}

func TestFailureSinkBroadcastsToClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	client := newTestClient(hub)

	sink := hub.FailureSink()
	sink(actorid.ID{}, "boom")

	select {
	case msg := <-client.out:
		require.Equal(t, MsgTypeFailure, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast failure message")
	}
}

func TestClientCountTracksRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	require.Equal(t, 0, hub.ClientCount())

	client := newTestClient(hub)
	require.Equal(t, 1, hub.ClientCount())

	hub.unregister(client)
	require.Equal(t, 0, hub.ClientCount())
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	// Deliberately not running Run(), so the broadcast channel never
	// drains and eventually fills.
	for i := 0; i < 300; i++ {
		hub.Broadcast(&Message{Type: MsgTypeLog})
	}

	require.LessOrEqual(t, len(hub.broadcast), cap(hub.broadcast))
}
