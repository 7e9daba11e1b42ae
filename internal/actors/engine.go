package actors

import (
	"context"
	"errors"
	"fmt"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/inbox"
)

// dispatcher is implemented by the two handler-resolution strategies this
// package provides: the flat, single-map dispatch of a base Actor and the
// state-stack dispatch of a StateMachine (spec.md §4.2 vs §4.3).
type dispatcher interface {
	initialize(actx *ActionContext, initial events.Event) error
	dispatch(actx *ActionContext, e events.Event) (halted bool, err error)
	deferredTypes() []events.Type
	ignoredTypes() []events.Type
	hasDefault() bool
}

// engine runs the dequeue/dispatch/halt loop shared by Actor and
// StateMachine (spec.md §4.2 "Event-handler loop (conceptual)"). It owns
// the inbox and delegates actual event handling to a dispatcher.
type engine struct {
	id       actorid.ID
	typeName string
	inbox    *inbox.Inbox
	host     Host
	disp     dispatcher

	halted bool
}

func newEngine(id actorid.ID, typeName string, host Host, disp dispatcher) *engine {
	e := &engine{
		id:       id,
		typeName: typeName,
		inbox:    inbox.New(),
		host:     host,
		disp:     disp,
	}
	e.syncPolicy()

	// Mark running from construction, not from Initialize: the instant
	// an id is visible to other actors (registration may race with
	// Initialize's goroutine being scheduled), a Send must observe a
	// running inbox and simply enqueue rather than believe it must
	// spawn the first drain itself (spec.md §5 "CreateActor -> first
	// action of the created actor" happens-before).
	e.inbox.MarkRunning()

	return e
}

// newActionContext builds an ActionContext wired to this engine's Receive
// implementation.
func (e *engine) newActionContext(ctx context.Context, group events.Group) *ActionContext {
	actx := newActionContext(ctx, e.id, e.host, group)
	actx.recv = e.receive

	return actx
}

// receive implements ActionContext.Receive: it completes synchronously if
// a matching event is already queued, otherwise reports the scheduling
// point and blocks on the channel the inbox fulfills once a matching
// event is enqueued (spec.md §4.4, §4.5).
func (e *engine) receive(types ...events.Type) (events.Event, error) {
	spec := inbox.ReceiveSpec{Types: make(map[events.Type]struct{}, len(types))}
	for _, t := range types {
		spec.Types[t] = struct{}{}
	}

	env, ok, ch, err := e.inbox.ReceiveAsync(spec)
	if err != nil {
		return nil, err
	}

	if ok {
		e.host.Log(LogRecord{
			Kind:   "ReceiveEvent",
			Actor:  e.id,
			Fields: map[string]any{"was_blocked": false},
		})

		return env.Event, nil
	}

	e.host.Log(LogRecord{
		Kind:   "WaitEvent",
		Actor:  e.id,
		Fields: map[string]any{"types": types},
	})
	e.host.AtSchedulePoint(e.id, PointReceive)

	received, ok := <-ch
	if !ok {
		return nil, &ActionPanicError{
			Actor: e.typeName, Cause: "receive canceled",
		}
	}

	e.host.Log(LogRecord{
		Kind:   "ReceiveEvent",
		Actor:  e.id,
		Fields: map[string]any{"was_blocked": true},
	})

	return received.Event, nil
}

func (e *engine) syncPolicy() {
	e.inbox.SetDeferred(e.disp.deferredTypes())
	e.inbox.SetIgnored(e.disp.ignoredTypes())
}

// ID returns the id of the actor this engine drives.
func (e *engine) ID() actorid.ID { return e.id }

// Inbox returns the actor's inbox, used by the owning Host to enqueue
// events sent to this actor.
func (e *engine) Inbox() *inbox.Inbox { return e.inbox }

// Enqueue feeds an externally sent event into this engine's inbox,
// translating a TooManyInstances failure into the fully qualified message
// spec.md §8 scenario 5 specifies.
func (e *engine) Enqueue(ev events.Event, info events.Info) (inbox.EnqueueStatus, error) {
	status, err := e.inbox.Enqueue(ev, info)
	if err == nil {
		return status, nil
	}

	var tooMany *inbox.TooManyInstancesError
	if errors.As(err, &tooMany) {
		return status, fmt.Errorf(
			"There are more than %d instances of '%s' in the input queue of %s()",
			tooMany.Max, tooMany.Type, e.typeName,
		)
	}

	return status, err
}

// IsHalted reports whether this engine's actor has finished halting.
func (e *engine) IsHalted() bool { return e.halted }

// Initialize runs the actor's Initialize hook and then the handler loop
// until the inbox goes idle or the actor halts (spec.md §4.2).
func (e *engine) Initialize(ctx context.Context, initial events.Event, group events.Group) {
	actx := e.newActionContext(ctx, group)

	e.host.Log(LogRecord{Kind: "CreateActor", Actor: e.id})

	if err := e.disp.initialize(actx, initial); err != nil {
		e.fail(err)
		return
	}

	e.drainRaised(actx)
	e.runLoop(ctx, true)
}

// Resume continues the handler loop after an enqueue transitioned the
// inbox from idle to running (spec.md §3 "Running <-> Idle").
func (e *engine) Resume(ctx context.Context) {
	if e.halted {
		return
	}

	e.runLoop(ctx, true)
}

// runLoop implements spec.md §4.2's handler-loop pseudocode. firstOfDrain
// tracks whether the next dequeue is the first of this drain, which
// governs whether a scheduling point is inserted (spec.md §4.5).
func (e *engine) runLoop(ctx context.Context, firstOfDrain bool) {
	for {
		if e.halted {
			return
		}

		ev, status := e.inbox.Dequeue(e.disp.hasDefault())

		if !firstOfDrain {
			e.host.AtSchedulePoint(e.id, PointDequeue)
		}
		firstOfDrain = false

		switch status {
		case inbox.NotAvailable:
			e.host.Quiesced(e.id)
			return

		case inbox.DefaultStatus:
			e.host.Log(LogRecord{
				Kind:  "DequeueEvent",
				Actor: e.id,
				Fields: map[string]any{
					"type": ev.Event.EventType(), "default": true,
				},
			})

		case inbox.Success:
			e.host.Log(LogRecord{
				Kind:   "DequeueEvent",
				Actor:  e.id,
				Fields: map[string]any{"type": ev.Event.EventType()},
			})
		}

		actx := e.newActionContext(ctx, ev.Info.Group)

		halted, err := e.disp.dispatch(actx, ev.Event)
		if err != nil {
			e.fail(err)
			return
		}

		e.syncPolicy()
		e.drainRaised(actx)

		if halted {
			e.finishHalt()
			return
		}
	}
}

func (e *engine) drainRaised(actx *ActionContext) {
	if actx.raised != nil {
		e.host.Log(LogRecord{
			Kind:   "RaiseEvent",
			Actor:  e.id,
			Fields: map[string]any{"type": (*actx.raised).EventType()},
		})
		e.inbox.RaiseEvent(*actx.raised, actx.raisedInfo)
		actx.raised = nil
	}
}

// fail surfaces any dispatch error (unhandled event, action panic, pop
// underflow) as a user assertion failure through the host, then performs
// halt housekeeping (spec.md §7 "Propagation").
func (e *engine) fail(err error) {
	e.host.Assert(e.id, false, err.Error())
	e.finishHalt()
}

func (e *engine) finishHalt() {
	if e.halted {
		return
	}

	e.halted = true
	e.host.Log(LogRecord{Kind: "Halt", Actor: e.id})

	drain := e.inbox.Halt()
	for _, env := range drain.Dropped {
		e.host.Log(LogRecord{
			Kind:   "DroppedEvent",
			Actor:  e.id,
			Fields: map[string]any{"type": env.Event.EventType()},
		})
	}

	if drain.MustHandleViolation {
		e.host.Assert(e.id, false, fmt.Sprintf(
			"%s halted before dequeueing must-handle event '%s'",
			e.typeName, drain.ViolatedType,
		))
	}

	e.host.Log(LogRecord{
		Kind:  "EventHandlerTerminated",
		Actor: e.id,
	})
	e.host.Halted(e.id)
	e.host.Quiesced(e.id)
}
