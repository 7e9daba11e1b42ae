package actors

import (
	"context"
	"fmt"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

// ActionContext is passed to every action, entry and exit function. It
// exposes the subset of Host capabilities available from inside a
// handler, plus the raise/transition helpers that apply at the current
// action's boundary (spec.md §4.2 "Each of these executes entirely inside
// the actor's own cooperative task").
type ActionContext struct {
	ctx   context.Context
	self  actorid.ID
	host  Host
	group events.Group

	raised      *events.Event
	raisedInfo  events.Info
	popRequested bool

	recv receiveFunc
}

// receiveFunc blocks the calling action until an event matching one of
// types (or any type, if empty) arrives, notifying host of the scheduling
// point if it can't be satisfied synchronously (spec.md §4.4 "Receive").
type receiveFunc func(types ...events.Type) (events.Event, error)

func newActionContext(ctx context.Context, self actorid.ID, host Host, group events.Group) *ActionContext {
	return &ActionContext{ctx: ctx, self: self, host: host, group: group}
}

// Context returns the caller-supplied context for the current drain.
func (a *ActionContext) Context() context.Context { return a.ctx }

// Self returns this actor's id.
func (a *ActionContext) Self() actorid.ID { return a.self }

// Group returns the causal group of the event currently being handled.
func (a *ActionContext) Group() events.Group { return a.group }

// Send enqueues e into target's inbox, inheriting the current group
// unless overridden (spec.md §4.4).
func (a *ActionContext) Send(target actorid.ID, e events.Event, opts ...events.SendOption) error {
	full := append([]events.SendOption{events.InheritGroup(a.group)}, opts...)
	return a.host.Send(a.ctx, a.self, target, e, full...)
}

// CreateActor constructs a new actor, returning its id.
func (a *ActionContext) CreateActor(typeName string, opts ...CreateOption) (actorid.ID, error) {
	full := append([]CreateOption{WithCreateGroup(a.group)}, opts...)
	return a.host.CreateActor(a.ctx, a.self, typeName, full...)
}

// RandomBoolean asks the strategy's random oracle for a boolean, true with
// probability 1/max (spec.md §4.2).
func (a *ActionContext) RandomBoolean(max int) bool {
	if max <= 0 {
		max = 2
	}

	return a.host.RandomBoolean(a.self, max)
}

// RandomInteger asks the strategy's random oracle for an integer in
// [0, max).
func (a *ActionContext) RandomInteger(max int) int {
	return a.host.RandomInteger(a.self, max)
}

// Assert fails the current schedule with msg if cond is false.
func (a *ActionContext) Assert(cond bool, msg string) {
	a.host.Assert(a.self, cond, msg)
}

// Raise schedules e to be delivered immediately after the current action
// completes, ahead of anything enqueued in the FIFO (spec.md §4.1, §4.3
// "Raised events are delivered immediately after the action that raised
// them completes"). At most one raise per action is meaningful; a second
// call overwrites the first.
func (a *ActionContext) Raise(e events.Event) {
	a.raised = &e
	a.raisedInfo = events.NewInfo()
}

// GotoState raises the internal GotoState(target) event.
func (a *ActionContext) GotoState(target string) {
	a.Raise(events.GotoStateEvent{Target: target})
}

// PushState raises the internal PushState(target) event.
func (a *ActionContext) PushState(target string) {
	a.Raise(events.PushStateEvent{Target: target})
}

// Pop requests that the current state frame be popped at the boundary of
// the action currently running (spec.md §4.3 "Pop may be issued inside an
// action; it takes effect only at action boundary").
func (a *ActionContext) Pop() { a.popRequested = true }

// Receive blocks until an event of one of types (any type, if none given)
// is available, returning it. If none is already queued the calling
// operation becomes AwaitingReceive at a scheduling point (spec.md §4.5);
// under the controlled context this is where a Deadlock can be detected.
func (a *ActionContext) Receive(types ...events.Type) (events.Event, error) {
	if a.recv == nil {
		return nil, fmt.Errorf("actors: Receive is not supported from this context")
	}

	return a.recv(types...)
}
