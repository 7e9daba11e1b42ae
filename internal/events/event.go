// Package events defines the message payloads exchanged between actors and
// the well-known internal events the runtime injects at scheduling points.
package events

import "fmt"

// Type identifies an event's runtime type for routing, handler-map lookup
// and defer/ignore-set membership. Every event reports its Type through
// its EventType method, user event types included; the well-known events
// below return fixed names such as "Halt", and Wildcard is reserved as a
// handler-map key.
type Type string

// Wildcard is the handler-map key that matches any event type not otherwise
// declared for the current state. It is never the Type of an actual Event
// instance — only a key used in state declarations (spec.md §4.3).
const Wildcard Type = "*"

// BaseEvent is embedded in user-defined event types to satisfy the sealed
// Event interface's unexported marker method.
type BaseEvent struct{}

func (BaseEvent) eventMarker() {}

// Event is a sealed interface for actor messages. Only types embedding
// BaseEvent (or declared in this package) satisfy it.
type Event interface {
	eventMarker()

	// EventType returns the runtime type used for routing, defer/ignore
	// membership and handler-map lookup.
	EventType() Type
}

// TypeOf returns the Type of an Event. It is the single place that maps a
// concrete Event value to its Type, so well-known events can report a
// stable name distinct from a Go %T representation.
func TypeOf(e Event) Type {
	return e.EventType()
}

// haltEvent is the well-known event that terminates an actor. Sent via the
// package-level Halt value.
type haltEvent struct{ BaseEvent }

func (haltEvent) EventType() Type { return "Halt" }

// Halt is the well-known event requesting actor termination.
var Halt Event = haltEvent{}

// defaultEvent is synthesized by the inbox when every queued entry is
// deferred and the current state installs a default handler (spec.md §4.1).
type defaultEvent struct{ BaseEvent }

func (defaultEvent) EventType() Type { return "Default" }

// Default is the well-known event delivered when the inbox has no
// dequeue-able entry but a default handler is installed.
var Default Event = defaultEvent{}

// GotoStateEvent is an internal event carrying a transition target, raised
// by OnEventGotoState handler declarations and user code issuing an
// explicit state change mid-action (spec.md §4.3).
type GotoStateEvent struct {
	BaseEvent

	// Target is the fully qualified name of the destination state.
	Target string
}

// EventType implements Event.
func (GotoStateEvent) EventType() Type { return "GotoState" }

func (e GotoStateEvent) String() string {
	return fmt.Sprintf("GotoState(%s)", e.Target)
}

// PushStateEvent is an internal event carrying a push target, raised by
// OnEventPushState handler declarations (spec.md §4.3).
type PushStateEvent struct {
	BaseEvent

	// Target is the fully qualified name of the state to push.
	Target string
}

// EventType implements Event.
func (PushStateEvent) EventType() Type { return "PushState" }

func (e PushStateEvent) String() string {
	return fmt.Sprintf("PushState(%s)", e.Target)
}

// TimerInfo identifies a running timer for StartPeriodicTimer/StopTimer
// (spec.md §4.2, §5).
type TimerInfo struct {
	// Name is the caller-supplied identifier for the timer.
	Name string

	// Period is the configured firing interval.
	Period int64
}

// TimerElapsedEvent is delivered by the mock timer through the normal send
// path each time a (mock) period elapses (spec.md §5).
type TimerElapsedEvent struct {
	BaseEvent

	// Info identifies which timer fired.
	Info TimerInfo
}

// EventType implements Event.
func (TimerElapsedEvent) EventType() Type { return "TimerElapsed" }
