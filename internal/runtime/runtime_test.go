package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/runtime"
	"github.com/roasbeef/actorlab/internal/scheduler"
)

type pingEvent struct{ reply actorid.ID }

func (pingEvent) EventType() events.Type { return "Ping" }

type pongEvent struct{}

func (pongEvent) EventType() events.Type { return "Pong" }

// pingPongTypes registers a Ping actor (sends Pong to the actor named in
// its initial event) and a Pong actor (counts each Pong it handles) on
// reg; neither halts.
func pingPongTypes(reg *runtime.TypeRegistry, pongCount *int32, pongMu *sync.Mutex) {
	pongDef := actors.NewActorDef("Pong")
	pongDef.OnEvent("Pong", actors.Action("HandlePong"))
	pongDef.WithAction("HandlePong", func(actx *actors.ActionContext, e events.Event) error {
		pongMu.Lock()
		*pongCount++
		pongMu.Unlock()

		return nil
	})

	reg.Register("Pong", func(id actorid.ID, host actors.Host) runtime.LiveActor {
		return actors.NewActor(id, host, pongDef)
	})

	pingDef := actors.NewActorDef("Ping")
	pingDef.WithInit(func(actx *actors.ActionContext, initial events.Event) error {
		ev := initial.(pingEvent)
		return actx.Send(ev.reply, pongEvent{})
	})

	reg.Register("Ping", func(id actorid.ID, host actors.Host) runtime.LiveActor {
		return actors.NewActor(id, host, pingDef)
	})
}

func TestUncontrolledPingPong(t *testing.T) {
	var pongCount int32
	var pongMu sync.Mutex

	types := runtime.NewTypeRegistry()
	pingPongTypes(types, &pongCount, &pongMu)

	host := runtime.NewUncontrolled("test", types)

	ctx := context.Background()

	pongID, err := host.CreateActorAndExecute(ctx, actorid.ID{}, "Pong")
	require.NoError(t, err)

	_, err = host.CreateActorAndExecute(ctx, actorid.ID{}, "Ping",
		actors.WithInitialEvent(pingEvent{reply: pongID}))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		pongMu.Lock()
		defer pongMu.Unlock()

		return pongCount == 1
	}, time.Second, time.Millisecond)
}

func TestUncontrolledAssertFailureInvokesSink(t *testing.T) {
	types := runtime.NewTypeRegistry()

	def := actors.NewActorDef("Asserter")
	def.WithInit(func(actx *actors.ActionContext, initial events.Event) error {
		actx.Assert(false, "boom")
		return nil
	})

	types.Register("Asserter", func(id actorid.ID, host actors.Host) runtime.LiveActor {
		return actors.NewActor(id, host, def)
	})

	host := runtime.NewUncontrolled("test", types)

	var mu sync.Mutex
	var got string
	host.RegisterFailureSink(func(actorID actorid.ID, message string) {
		mu.Lock()
		got = message
		mu.Unlock()
	})

	_, err := host.CreateActorAndExecute(context.Background(), actorid.ID{}, "Asserter")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return got == "boom"
	}, time.Second, time.Millisecond)
}

func TestControlledTwoActorsRunToCompletion(t *testing.T) {
	var pongCount int32
	var pongMu sync.Mutex

	types := runtime.NewTypeRegistry()
	pingPongTypes(types, &pongCount, &pongMu)

	strat := scheduler.NewRandomStrategy(7)
	host := runtime.NewControlled("test", types, strat, 1000, nil)
	host.AcquireRoot()

	ctx := context.Background()

	pongID, err := host.CreateActor(ctx, host.Root(), "Pong")
	require.NoError(t, err)

	_, err = host.CreateActor(ctx, host.Root(), "Ping",
		actors.WithInitialEvent(pingEvent{reply: pongID}))
	require.NoError(t, err)

	require.NoError(t, host.CompleteRoot())

	require.Eventually(t, func() bool {
		return host.Quiescent()
	}, time.Second, time.Millisecond)

	pongMu.Lock()
	defer pongMu.Unlock()
	require.Equal(t, int32(1), pongCount)
}

// TestControlledReceiveDeadlock drives a single actor that blocks forever
// in Receive with nothing else enabled, reproducing spec.md §8 scenario 6:
// the scheduler should report a deadlock rather than hang.
func TestControlledReceiveDeadlock(t *testing.T) {
	types := runtime.NewTypeRegistry()

	def := actors.NewActorDef("Waiter")
	def.WithInit(func(actx *actors.ActionContext, initial events.Event) error {
		_, err := actx.Receive("Never")
		return err
	})

	types.Register("Waiter", func(id actorid.ID, host actors.Host) runtime.LiveActor {
		return actors.NewActor(id, host, def)
	})

	strat := scheduler.NewRoundRobinStrategy()
	host := runtime.NewControlled("test", types, strat, 1000, nil)
	host.AcquireRoot()

	var mu sync.Mutex
	var failures []string
	host.RegisterFailureSink(func(actorID actorid.ID, message string) {
		mu.Lock()
		failures = append(failures, message)
		mu.Unlock()
	})

	ctx := context.Background()

	_, err := host.CreateActor(ctx, host.Root(), "Waiter")
	require.NoError(t, err)

	require.NoError(t, host.CompleteRoot())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(failures) > 0
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, failures[0], "Deadlock detected")
	require.Contains(t, failures[0], "waiting to receive an event")
}
