package actors

import (
	"fmt"

	"github.com/roasbeef/actorlab/internal/events"
)

// UnhandledEventError is raised when the state stack drains (or a base
// Actor's single handler map lacks an entry) without finding a handler for
// an event (spec.md §4.2, §4.3, §7).
type UnhandledEventError struct {
	Actor string
	State string
	Type  events.Type
}

func (e *UnhandledEventError) Error() string {
	if e.State == "" {
		return fmt.Sprintf(
			"%s received event '%s' that cannot be handled",
			e.Actor, e.Type,
		)
	}

	return fmt.Sprintf(
		"%s received event '%s' that cannot be handled in state '%s'",
		e.Actor, e.Type, e.State,
	)
}

// DuplicateHandlerError is raised at StateMachineDef construction when a
// state redeclares a handler its base state already declares for the same
// event type (spec.md §4.3, §8 property 4).
type DuplicateHandlerError struct {
	State string
	Type  events.Type
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf(
		"state '%s' redeclares handler for event '%s' already declared by a base state",
		e.State, e.Type,
	)
}

// ActionPanicError wraps any non-assertion panic recovered from a handler
// action, per spec.md §7: "any other exception in an action is wrapped as
// 'Unhandled exception in <actor>, state <s>, action <a>'".
type ActionPanicError struct {
	Actor  string
	State  string
	Action string
	Cause  any
}

func (e *ActionPanicError) Error() string {
	if e.State == "" {
		return fmt.Sprintf(
			"unhandled exception in %s, action %s: %v",
			e.Actor, e.Action, e.Cause,
		)
	}

	return fmt.Sprintf(
		"unhandled exception in %s, state %s, action %s: %v",
		e.Actor, e.State, e.Action, e.Cause,
	)
}

// AssertionFailure is the general user assertion failure kind (spec.md §7).
type AssertionFailure struct {
	Message string
}

func (e *AssertionFailure) Error() string { return e.Message }
