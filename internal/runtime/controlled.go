package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/inbox"
	"github.com/roasbeef/actorlab/internal/scheduler"
)

// Controlled is the scheduler-driven execution context (spec.md §4.4, §4.5):
// every scheduling-relevant step funnels through a single scheduler.Scheduler,
// so one run explores one interleaving and can be replayed exactly.
type Controlled struct {
	id string

	types *TypeRegistry
	reg   *actorid.Registry
	live  *registry

	sched *scheduler.Scheduler

	opsMu sync.Mutex
	ops   map[string]*scheduler.ControlledOperation

	rootID actorid.ID

	logSink     LogSink
	failureSink FailureSink

	monitors *monitorSet
}

// NewControlled constructs a controlled execution context exploring with
// strategy, bounding each schedule to maxSteps scheduling points (0 means
// unbounded), optionally persisting picks through rec.
func NewControlled(id string, types *TypeRegistry, strategy scheduler.Strategy, maxSteps int, rec scheduler.Recorder) *Controlled {
	c := &Controlled{
		id:    id,
		types: types,
		live:  newRegistry(),
		sched: scheduler.New(strategy, maxSteps, rec),
		ops:   make(map[string]*scheduler.ControlledOperation),
	}
	c.reg = actorid.NewRegistry(c)
	c.monitors = newMonitorSet()

	c.rootID = c.reg.New("Test")
	rootOp := c.sched.Register(c.rootID.Key(), c.rootID.String())
	c.ops[c.rootID.Key()] = rootOp
	c.sched.Bootstrap(rootOp)

	return c
}

// ContextID satisfies actorid.Context.
func (c *Controlled) ContextID() string { return c.id }

// Root returns the synthetic id representing the harness driving this
// schedule, used to attribute top-level Send/CreateActor/Assert calls that
// don't originate from inside an actor.
func (c *Controlled) Root() actorid.ID { return c.rootID }

// AcquireRoot blocks the calling goroutine (the test harness) until it
// holds the scheduling token; call this once, immediately after
// NewControlled, before issuing any CreateActor/Send/Assert calls.
func (c *Controlled) AcquireRoot() {
	c.sched.Acquire(c.opFor(c.rootID))
}

// CompleteRoot marks the harness's own operation Completed, handing the
// token to whatever actor operations remain enabled. Call this once the
// harness has issued its last top-level call and is ready for the
// schedule to run to completion on its own.
func (c *Controlled) CompleteRoot() error {
	return c.sched.Complete(c.opFor(c.rootID))
}

// AllCompleted reports whether every registered operation (including Root)
// has completed.
func (c *Controlled) AllCompleted() bool { return c.sched.AllCompleted() }

// Quiescent reports whether the schedule has reached a stable point: every
// actor has either halted or gone idle with nothing left to resume it.
func (c *Controlled) Quiescent() bool { return c.sched.Quiescent() }

// StepsExceeded reports whether the configured max_steps bound was hit.
func (c *Controlled) StepsExceeded() bool { return c.sched.StepsExceeded() }

// Steps reports how many scheduling points this schedule has consumed so
// far.
func (c *Controlled) Steps() int { return c.sched.Steps() }

func (c *Controlled) opFor(id actorid.ID) *scheduler.ControlledOperation {
	c.opsMu.Lock()
	defer c.opsMu.Unlock()

	return c.ops[id.Key()]
}

// RegisterLog installs sink as the destination for every log record.
func (c *Controlled) RegisterLog(sink LogSink) { c.logSink = sink }

// RegisterFailureSink installs sink as the destination for assertion and
// deadlock failures.
func (c *Controlled) RegisterFailureSink(sink FailureSink) { c.failureSink = sink }

// RegisterMonitor installs a monitor instance observing every event sent
// through Monitor (spec.md §4.6).
func (c *Controlled) RegisterMonitor(name string, def *actors.StateMachineDef) error {
	id := c.reg.FromName(def.TypeName, name)

	m, err := actors.NewMonitor(id, c, def)
	if err != nil {
		return err
	}

	c.monitors.add(name, m)

	return nil
}

// Monitor delivers e to the named monitor's transition logic synchronously.
func (c *Controlled) Monitor(name string, self actorid.ID, e events.Event, group events.Group) error {
	m, ok := c.monitors.get(name)
	if !ok {
		return fmt.Errorf("runtime: no monitor registered under %q", name)
	}

	return m.Observe(self, e, group)
}

// CreateActor implements spec.md §4.4 CreateActor under the controlled
// context: a scheduling point precedes registering the new operation.
func (c *Controlled) CreateActor(ctx context.Context, from actorid.ID, typeName string, opts ...actors.CreateOption) (actorid.ID, error) {
	c.yieldAt(c.opFor(from))

	name, given, initial, group := actors.ResolveCreateOptions(opts...)

	id, err := allocateID(c.reg, typeName, name, given)
	if err != nil {
		return actorid.ID{}, err
	}

	factory, ok := c.types.lookup(typeName)
	if !ok {
		return actorid.ID{}, fmt.Errorf("runtime: unknown actor type %q", typeName)
	}

	a := factory(id, c)
	c.live.put(a)

	c.opsMu.Lock()
	newOp := c.sched.Register(id.Key(), id.String())
	c.ops[id.Key()] = newOp
	c.opsMu.Unlock()

	if group.IsZero() {
		group = events.NewGroup()
	}

	c.logRecord(actors.LogRecord{
		Kind:   "CreateActor",
		Actor:  from,
		Fields: map[string]any{"type": typeName, "id": id.String()},
	})

	go func() {
		c.sched.Acquire(newOp)
		a.Initialize(ctx, initial, group)
	}()

	return id, nil
}

// CreateActorAndExecute creates an actor as CreateActor does, but suspends
// until the new actor's Initialize drain goes quiescent (spec.md §4.4).
func (c *Controlled) CreateActorAndExecute(ctx context.Context, from actorid.ID, typeName string, opts ...actors.CreateOption) (actorid.ID, error) {
	id, err := c.CreateActor(ctx, from, typeName, opts...)
	if err != nil {
		return actorid.ID{}, err
	}

	c.awaitQuiescent(ctx, id)

	return id, nil
}

func (c *Controlled) awaitQuiescent(ctx context.Context, id actorid.ID) {
	done := make(chan struct{})
	c.live.awaitQuiescence(id, done)

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Send implements spec.md §4.4 SendEvent under the controlled context.
func (c *Controlled) Send(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error {
	c.yieldAt(c.opFor(from))

	c.logRecord(actors.LogRecord{
		Kind:   "SendEvent",
		Actor:  from,
		Fields: map[string]any{"target": target.String(), "type": e.EventType()},
	})

	a, ok := c.live.get(target)
	if !ok {
		c.logRecord(actors.LogRecord{
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

	c.logRecord(actors.LogRecord{
		Kind:   "EnqueueEvent",
		Actor:  target,
		Fields: map[string]any{"type": e.EventType()},
	})

	switch status {
	case inbox.Delivered:
		if targetOp := c.opFor(target); targetOp != nil {
			c.sched.Resolve(targetOp)
		}

	case inbox.EnqueuedAndStarted:
		if targetOp := c.opFor(target); targetOp != nil {
			c.sched.Resolve(targetOp)

			go func() {
				c.sched.Acquire(targetOp)
				a.Resume(ctx)
			}()
		}
	}

	return nil
}

// SendEventAndExecute sends as Send does, but suspends until target's
// resulting drain goes quiescent (spec.md §4.4).
func (c *Controlled) SendEventAndExecute(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error {
	if err := c.Send(ctx, from, target, e, opts...); err != nil {
		return err
	}

	c.awaitQuiescent(ctx, target)

	return nil
}

// RandomBoolean asks the scheduler's random oracle, recording the result
// for replay (spec.md §4.5).
func (c *Controlled) RandomBoolean(self actorid.ID, max int) bool {
	return c.sched.RandomBoolean(c.opFor(self), max)
}

// RandomInteger asks the scheduler's random oracle for a value in [0, max).
func (c *Controlled) RandomInteger(self actorid.ID, max int) int {
	return c.sched.RandomInteger(c.opFor(self), max)
}

// Assert implements spec.md §7 "User assertion failure".
func (c *Controlled) Assert(self actorid.ID, cond bool, msg string) {
	if cond {
		return
	}

	c.logRecord(actors.LogRecord{
		Kind:   "AssertionFailure",
		Actor:  self,
		Fields: map[string]any{"message": msg},
	})

	if c.failureSink != nil {
		c.failureSink(self, msg)
	}
}

// Log appends rec to the installed log sink.
func (c *Controlled) Log(rec actors.LogRecord) { c.logRecord(rec) }

func (c *Controlled) logRecord(rec actors.LogRecord) {
	if c.logSink != nil {
		c.logSink(rec)
	}
}

// AtSchedulePoint yields or waits at point, routing a resulting Deadlock
// through Assert since the actors.Host interface has no error return here
// (spec.md §4.5 scheduling points).
func (c *Controlled) AtSchedulePoint(self actorid.ID, point actors.SchedulePoint) {
	op := c.opFor(self)
	if op == nil {
		return
	}

	var err error

	switch point {
	case actors.PointReceive:
		err = c.sched.Wait(op, scheduler.WaitCondition{
			Kind:        scheduler.AwaitingReceive,
			Description: "waiting to receive an event",
		})

	default:
		err = c.sched.Yield(op)
	}

	if err != nil {
		c.Assert(self, false, err.Error())
	}
}

func (c *Controlled) yieldAt(op *scheduler.ControlledOperation) {
	if op == nil {
		return
	}

	if err := c.sched.Yield(op); err != nil {
		c.Assert(c.rootID, false, err.Error())
	}
}

// Halted drops self from the live-actor registry.
func (c *Controlled) Halted(self actorid.ID) {
	c.live.remove(self)
}

// Quiesced notifies any AndExecute caller suspended on self's quiescence
// and hands self's operation's token onward: Completed if self just
// halted (Halted always fires first and drops it from the live registry),
// otherwise Waiting(AwaitingQuiescence) so a later Send can Resolve it
// (spec.md §4.5).
func (c *Controlled) Quiesced(self actorid.ID) {
	c.live.notifyQuiescent(self)

	op := c.opFor(self)
	if op == nil {
		return
	}

	c.sched.ResetPC(op)

	var err error

	if _, alive := c.live.get(self); alive {
		err = c.sched.Park(op, scheduler.WaitCondition{
			Kind:        scheduler.AwaitingQuiescence,
			Description: "idle, waiting for an event",
		})
	} else {
		err = c.sched.Complete(op)
	}

	if err != nil {
		c.Assert(self, false, err.Error())
	}
}

var _ actors.Host = (*Controlled)(nil)
