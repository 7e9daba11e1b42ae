package runtime

import (
	"context"
	"fmt"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/inbox"
)

// Uncontrolled is the free-running execution context (spec.md §4.4): actor
// handlers run on their own goroutines with no scheduling points, random
// oracles use math/rand directly, and nothing is replayable. This is the
// context production code runs under.
type Uncontrolled struct {
	id string

	types *TypeRegistry
	reg   *actorid.Registry
	live  *registry

	logSink     LogSink
	failureSink FailureSink

	monitors *monitorSet
}

// NewUncontrolled constructs a free-running execution context. types must
// be populated (via TypeRegistry.Register) for every actor type the caller
// will create.
func NewUncontrolled(id string, types *TypeRegistry) *Uncontrolled {
	u := &Uncontrolled{id: id, types: types, live: newRegistry()}
	u.reg = actorid.NewRegistry(u)
	u.monitors = newMonitorSet()

	return u
}

// ContextID satisfies actorid.Context.
func (u *Uncontrolled) ContextID() string { return u.id }

// RegisterLog installs sink as the destination for every log record.
func (u *Uncontrolled) RegisterLog(sink LogSink) { u.logSink = sink }

// RegisterFailureSink installs sink as the destination for assertion
// failures.
func (u *Uncontrolled) RegisterFailureSink(sink FailureSink) { u.failureSink = sink }

// RegisterMonitor installs a monitor instance observing every event sent
// through Monitor (spec.md §4.6).
func (u *Uncontrolled) RegisterMonitor(name string, def *actors.StateMachineDef) error {
	id := u.reg.FromName(def.TypeName, name)

	m, err := actors.NewMonitor(id, u, def)
	if err != nil {
		return err
	}

	u.monitors.add(name, m)

	return nil
}

// Monitor delivers e to the named monitor's transition logic synchronously.
func (u *Uncontrolled) Monitor(name string, self actorid.ID, e events.Event, group events.Group) error {
	m, ok := u.monitors.get(name)
	if !ok {
		return fmt.Errorf("runtime: no monitor registered under %q", name)
	}

	return m.Observe(self, e, group)
}

// CreateActor implements spec.md §4.4 CreateActor.
func (u *Uncontrolled) CreateActor(ctx context.Context, from actorid.ID, typeName string, opts ...actors.CreateOption) (actorid.ID, error) {
	name, given, initial, group := actors.ResolveCreateOptions(opts...)

	id, err := allocateID(u.reg, typeName, name, given)
	if err != nil {
		return actorid.ID{}, err
	}

	factory, ok := u.types.lookup(typeName)
	if !ok {
		return actorid.ID{}, fmt.Errorf("runtime: unknown actor type %q", typeName)
	}

	a := factory(id, u)
	u.live.put(a)

	if group.IsZero() {
		group = events.NewGroup()
	}

	u.logRecord(actors.LogRecord{
		Kind:   "CreateActor",
		Actor:  from,
		Fields: map[string]any{"type": typeName, "id": id.String()},
	})

	go a.Initialize(ctx, initial, group)

	return id, nil
}

// CreateActorAndExecute creates an actor as CreateActor does, but suspends
// until the new actor's Initialize drain goes quiescent (spec.md §4.4).
func (u *Uncontrolled) CreateActorAndExecute(ctx context.Context, from actorid.ID, typeName string, opts ...actors.CreateOption) (actorid.ID, error) {
	id, err := u.CreateActor(ctx, from, typeName, opts...)
	if err != nil {
		return actorid.ID{}, err
	}

	u.awaitQuiescent(ctx, id)

	return id, nil
}

func (u *Uncontrolled) awaitQuiescent(ctx context.Context, id actorid.ID) {
	done := make(chan struct{})
	u.live.awaitQuiescence(id, done)

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Send implements spec.md §4.4 SendEvent.
func (u *Uncontrolled) Send(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error {
	u.logRecord(actors.LogRecord{
		Kind:   "SendEvent",
		Actor:  from,
		Fields: map[string]any{"target": target.String(), "type": e.EventType()},
	})

	a, ok := u.live.get(target)
	if !ok {
		u.logRecord(actors.LogRecord{
			Kind:   "DroppedEvent",
			Actor:  target,
			Fields: map[string]any{"type": e.EventType(), "reason": "unknown target"},
		})

		return nil
	}

	info := events.NewInfo(opts...)

	status, err := a.Enqueue(e, info)
	if err != nil {
		return err
	}

	u.logRecord(actors.LogRecord{
		Kind:   "EnqueueEvent",
		Actor:  target,
		Fields: map[string]any{"type": e.EventType()},
	})

	if status == inbox.EnqueuedAndStarted {
		go a.Resume(ctx)
	}

	return nil
}

// SendEventAndExecute sends as Send does, but suspends until target's
// resulting drain goes quiescent (spec.md §4.4).
func (u *Uncontrolled) SendEventAndExecute(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error {
	if err := u.Send(ctx, from, target, e, opts...); err != nil {
		return err
	}

	u.awaitQuiescent(ctx, target)

	return nil
}

// RandomBoolean returns true with probability 1/max, drawing from the
// process-wide math/rand source (spec.md §4.2).
func (u *Uncontrolled) RandomBoolean(self actorid.ID, max int) bool {
	if max <= 0 {
		max = 2
	}

	return randIntn(max) == 0
}

// RandomInteger returns a value in [0, max).
func (u *Uncontrolled) RandomInteger(self actorid.ID, max int) int {
	if max <= 0 {
		return 0
	}

	return randIntn(max)
}

// Assert implements spec.md §7 "User assertion failure".
func (u *Uncontrolled) Assert(self actorid.ID, cond bool, msg string) {
	if cond {
		return
	}

	u.logRecord(actors.LogRecord{
		Kind:   "AssertionFailure",
		Actor:  self,
		Fields: map[string]any{"message": msg},
	})

	if u.failureSink != nil {
		u.failureSink(self, msg)
	}
}

// Log appends rec to the installed log sink.
func (u *Uncontrolled) Log(rec actors.LogRecord) { u.logRecord(rec) }

func (u *Uncontrolled) logRecord(rec actors.LogRecord) {
	if u.logSink != nil {
		u.logSink(rec)
	}
}

// AtSchedulePoint is a no-op: the uncontrolled context has no scheduler to
// yield to (spec.md §4.4 "no scheduling points").
func (u *Uncontrolled) AtSchedulePoint(self actorid.ID, point actors.SchedulePoint) {}

// Halted drops self from the live-actor registry.
func (u *Uncontrolled) Halted(self actorid.ID) {
	u.live.remove(self)
}

// Quiesced notifies any AndExecute caller suspended on self's quiescence.
func (u *Uncontrolled) Quiesced(self actorid.ID) {
	u.live.notifyQuiescent(self)
}

var _ actors.Host = (*Uncontrolled)(nil)
