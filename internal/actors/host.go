// Package actors implements the Actor and StateMachine execution model
// (spec.md §4.2, §4.3): the event-handler loop, state-stack transition
// algorithm, handler-map inheritance, and a Future/Promise pair
// (future.go) that the rest of the module does not use.
package actors

import (
	"context"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

// SchedulePoint names a location where the owning execution context may
// yield to the scheduler (spec.md §4.5). Actor and StateMachine call
// Host.AtSchedulePoint at PointDequeue and PointReceive; an uncontrolled
// Host is a no-op, a controlled one suspends until picked again.
type SchedulePoint int

const (
	// PointDequeue marks a dequeue that is not the first of a fresh
	// drain.
	PointDequeue SchedulePoint = iota

	// PointReceive marks a Receive that could not be satisfied
	// synchronously.
	PointReceive

	// PointStop marks the handler loop exiting. The engine never passes
	// it: the end of a drain is reported through Host.Quiesced instead.
	PointStop
)

// LogRecord is a single structured entry on the runtime's log surface
// (spec.md §6). Kind names one of the well-known record types
// (CreateActor, SendEvent, EnqueueEvent, ...); Fields carries record-
// specific attributes for a structured logger (btclog) to render.
type LogRecord struct {
	Kind   string
	Actor  actorid.ID
	Fields map[string]any
}

// Host is the narrow capability surface an Actor/StateMachine needs from
// its owning execution context: sending, creating, the nondeterminism
// oracles, assertions, logging and scheduling points. internal/runtime's
// Uncontrolled and Controlled contexts both implement it; this mirrors the
// teacher's SystemContext pattern of giving actors a minimal interface
// rather than a concrete system reference.
type Host interface {
	// Send enqueues e into target's inbox, inheriting group from the
	// sender unless an option overrides it (spec.md §4.4).
	Send(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error

	// CreateActor constructs and schedules a new actor of typeName,
	// returning its id. from attributes the call for scheduling and
	// logging purposes the same way Send's from does (spec.md §4.4).
	CreateActor(ctx context.Context, from actorid.ID, typeName string, opts ...CreateOption) (actorid.ID, error)

	// RandomBoolean asks the strategy's random oracle for a boolean,
	// true with probability 1/max (spec.md §4.2, §4.5).
	RandomBoolean(self actorid.ID, max int) bool

	// RandomInteger asks the strategy's random oracle for an integer in
	// [0, max).
	RandomInteger(self actorid.ID, max int) int

	// Assert fails the current schedule with msg if cond is false
	// (spec.md §7 "User assertion failure").
	Assert(self actorid.ID, cond bool, msg string)

	// Log appends a structured record to the runtime's log surface.
	Log(rec LogRecord)

	// AtSchedulePoint yields to the scheduler, if one is attached.
	AtSchedulePoint(self actorid.ID, point SchedulePoint)

	// Halted reports that self finished halting, so the owning context
	// can drop it from its registry (spec.md §3 actor lifecycle).
	Halted(self actorid.ID)

	// Quiesced reports that self's inbox just went idle at the end of an
	// event-handler drain, the signal AndExecute callers suspend on
	// (spec.md §4.4 "the caller resumes when that token reaches its own
	// inbox").
	Quiesced(self actorid.ID)
}

// CreateOption configures a single CreateActor call.
type CreateOption func(*createOptions)

type createOptions struct {
	name    string
	id      *actorid.ID
	initial events.Event
	group   events.Group
}

// WithName requests a uniquely-named actor id (spec.md §3).
func WithName(name string) CreateOption {
	return func(o *createOptions) { o.name = name }
}

// WithID supplies a pre-allocated id for the new actor.
func WithID(id actorid.ID) CreateOption {
	return func(o *createOptions) { o.id = &id }
}

// WithInitialEvent supplies the event passed to Initialize.
func WithInitialEvent(e events.Event) CreateOption {
	return func(o *createOptions) { o.initial = e }
}

// WithCreateGroup sets the causal group for the created actor's
// initialization (spec.md §4.4).
func WithCreateGroup(g events.Group) CreateOption {
	return func(o *createOptions) { o.group = g }
}

// ResolveCreateOptions applies opts and returns the resulting options; used
// by Host implementations to parse CreateActor's variadic arguments.
func ResolveCreateOptions(opts ...CreateOption) (name string, id *actorid.ID, initial events.Event, group events.Group) {
	var o createOptions
	for _, opt := range opts {
		opt(&o)
	}

	return o.name, o.id, o.initial, o.group
}
