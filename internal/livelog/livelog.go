// Package livelog fans out the log records emitted by a running schedule
// (spec.md §6 "log stream") to any number of connected websocket clients,
// so a browser-based viewer can watch a schedule unfold live.
package livelog

import (
	"context"
	"sync"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/runtime"
)

// Message is one event pushed to a connected client.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const (
	// MsgTypeConnected is sent once, right after a client connects.
	MsgTypeConnected = "connected"

	// MsgTypeLog carries one actors.LogRecord.
	MsgTypeLog = "log"

	// MsgTypeFailure carries an assertion/deadlock/monitor failure.
	MsgTypeFailure = "failure"
)

// Hub maintains the set of connected clients and broadcasts messages to
// all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast chan *Message

	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub constructs a Hub; call Run to start its dispatch loop.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan *Message, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Run drives the hub's dispatch loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.close()
			}
			h.mu.Unlock()

			return

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				c.send(msg)
			}
			h.mu.RUnlock()
		}
	}
}

// Stop shuts the hub down, closing every connected client.
func (h *Hub) Stop() { h.cancel() }

// ClientCount reports how many clients are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Broadcast queues msg for delivery to every connected client, dropping it
// if the hub's buffer is full rather than blocking the caller.
func (h *Hub) Broadcast(msg *Message) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
}

// LogSink returns a runtime.LogSink that forwards every record to h's
// connected clients, for wiring into runtime.Uncontrolled or
// runtime.Controlled via RegisterLog.
func (h *Hub) LogSink() runtime.LogSink {
	return func(rec actors.LogRecord) {
		h.Broadcast(&Message{
			Type: MsgTypeLog,
			Payload: map[string]any{
				"kind":   rec.Kind,
				"actor":  rec.Actor.String(),
				"fields": rec.Fields,
			},
		})
	}
}

// FailureSink returns a runtime.FailureSink that forwards every failure to
// h's connected clients.
func (h *Hub) FailureSink() runtime.FailureSink {
	return func(actorID actorid.ID, message string) {
		h.Broadcast(&Message{
			Type: MsgTypeFailure,
			Payload: map[string]any{
				"actor":   actorID.String(),
				"message": message,
			},
		})
	}
}
