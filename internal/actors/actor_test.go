package actors

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

type pingEvent struct{ events.BaseEvent }

func (pingEvent) EventType() events.Type { return "Ping" }

type pongEvent struct{ events.BaseEvent }

func (pongEvent) EventType() events.Type { return "Pong" }

type customEvent struct{ events.BaseEvent }

func (customEvent) EventType() events.Type { return "E" }

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting for test completion")
	}
}

func waitUntil(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatal("timed out waiting for condition")
}

// TestPingPongScenario implements spec.md §8 end-to-end scenario 1: Server
// sends Ping, Client replies Pong, Server sends Ping five times then
// halts.
func TestPingPongScenario(t *testing.T) {
	host := newFakeHost()

	clientID := host.reg.New("Client")
	serverID := host.reg.New("Server")

	var pongCount atomic.Int32

	var wg sync.WaitGroup
	wg.Add(1)

	clientDef := NewActorDef("Client").
		WithAction("onPing", func(actx *ActionContext, e events.Event) error {
			return actx.Send(serverID, pongEvent{})
		})
	clientDef.OnEvent("Ping", Action("onPing"))

	serverDef := NewActorDef("Server").
		WithInit(func(actx *ActionContext, initial events.Event) error {
			return actx.Send(clientID, pingEvent{})
		}).
		WithAction("onPong", func(actx *ActionContext, e events.Event) error {
			n := pongCount.Add(1)
			if n >= 5 {
				wg.Done()
				actx.Raise(events.Halt)

				return nil
			}

			return actx.Send(clientID, pingEvent{})
		})
	serverDef.OnEvent("Pong", Action("onPong"))

	client := NewActor(clientID, host, clientDef)
	server := NewActor(serverID, host, serverDef)
	host.register(client)
	host.register(server)

	ctx := context.Background()
	go client.Initialize(ctx, nil, events.Group{})
	go server.Initialize(ctx, nil, events.Group{})

	waitOrTimeout(t, &wg, 2*time.Second)
	require.Equal(t, int32(5), pongCount.Load())
	require.Empty(t, host.failures())
}

// TestIgnoreOverridesMustHandle implements spec.md §8 scenario 2: an actor
// ignores E; a driver sends E with must_handle=true then Halt. Expected:
// no failure, since the ignored event is dropped at enqueue and never
// occupies the inbox.
func TestIgnoreOverridesMustHandle(t *testing.T) {
	host := newFakeHost()
	id := host.reg.New("A")
	driver := actorid.ID{}

	def := NewActorDef("A")
	def.OnEvent("E", Ignore())

	a := NewActor(id, host, def)
	host.register(a)

	ctx := context.Background()
	go a.Initialize(ctx, nil, events.Group{})

	require.NoError(t, host.Send(ctx, driver, id, customEvent{}, events.WithMustHandle()))
	require.NoError(t, host.Send(ctx, driver, id, events.Halt))

	waitUntil(t, time.Second, func() bool {
		_, ok := host.lookup(id)
		return !ok
	})
	require.Empty(t, host.failures())
}

// TestDeferThenHaltFailsMustHandle implements spec.md §8 scenario 3: an
// actor defers E; a driver sends E with must_handle=true then Halt.
// Expected: failure naming the surviving must-handle event.
func TestDeferThenHaltFailsMustHandle(t *testing.T) {
	host := newFakeHost()
	id := host.reg.New("A")
	driver := actorid.ID{}

	def := NewActorDef("A")
	def.OnEvent("E", Defer())

	a := NewActor(id, host, def)
	host.register(a)

	ctx := context.Background()
	go a.Initialize(ctx, nil, events.Group{})

	require.NoError(t, host.Send(ctx, driver, id, customEvent{}, events.WithMustHandle()))
	require.NoError(t, host.Send(ctx, driver, id, events.Halt))

	waitUntil(t, time.Second, func() bool {
		return len(host.failures()) > 0
	})

	failures := host.failures()
	require.Len(t, failures, 1)
	require.Contains(t, failures[0], "halted before dequeueing must-handle event 'E'")
}

// TestMaxInstanceAssertFails implements spec.md §8 scenario 5: two
// same-type events sent with assert=1 while the actor is still draining
// fails with the exact message template the spec names.
func TestMaxInstanceAssertFails(t *testing.T) {
	host := newFakeHost()
	id := host.reg.New("A")

	def := NewActorDef("A")
	def.OnEvent("E", Action("onE"))
	def.WithAction("onE", func(actx *ActionContext, e events.Event) error { return nil })

	a := NewActor(id, host, def)

	info := events.NewInfo(events.WithAssertMaxInstances(1))

	_, err := a.Enqueue(customEvent{}, info)
	require.NoError(t, err)

	_, err = a.Enqueue(customEvent{}, info)
	require.Error(t, err)
	require.Contains(t, err.Error(), "more than 1 instances of 'E'")
	require.Contains(t, err.Error(), "in the input queue of A()")
}
