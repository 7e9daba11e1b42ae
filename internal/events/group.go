package events

import "github.com/google/uuid"

// Group is an identifier propagated from a sender to every event it
// transitively causes, used for causality-aware coordination (spec.md
// GLOSSARY, "Event group"). The zero Group is the "no group" value.
type Group struct {
	id uuid.UUID
}

// NewGroup allocates a fresh, globally unique event group.
func NewGroup() Group {
	return Group{id: uuid.New()}
}

// IsZero reports whether g is the empty (unset) group.
func (g Group) IsZero() bool {
	return g.id == uuid.Nil
}

// String returns the group's textual representation, or "-" when unset.
func (g Group) String() string {
	if g.IsZero() {
		return "-"
	}

	return g.id.String()
}

// Info carries per-enqueue metadata about an event: its causal group, the
// must-handle flag and an optional max-instance bound (spec.md §4.1).
type Info struct {
	// Group is the causal group inherited from the sender, or a fresh
	// group if the sender did not supply one.
	Group Group

	// MustHandle asserts that the target will dequeue this event before
	// halting; surviving at halt time is a test failure (spec.md §4.1,
	// §8 property 6).
	MustHandle bool

	// Assert, when non-nil, bounds the number of same-type instances
	// that may simultaneously sit in the inbox; exceeding it raises
	// TooManyInstances at enqueue time (spec.md §4.1).
	Assert *int
}

// SendOption configures a single SendEvent call.
type SendOption func(*Info)

// WithGroup explicitly sets the causal group for this send, overriding
// inheritance from the sender.
func WithGroup(g Group) SendOption {
	return func(i *Info) { i.Group = g }
}

// WithMustHandle marks the event as must-handle (spec.md §4.1).
func WithMustHandle() SendOption {
	return func(i *Info) { i.MustHandle = true }
}

// WithAssertMaxInstances bounds the number of concurrently queued instances
// of this event's type (spec.md §4.1).
func WithAssertMaxInstances(max int) SendOption {
	return func(i *Info) { i.Assert = &max }
}

// NewInfo builds an Info from a list of SendOptions, defaulting to a fresh
// group when none is supplied via WithGroup (callers that need inheritance
// from a sender apply that before calling NewInfo, via InheritGroup).
func NewInfo(opts ...SendOption) Info {
	info := Info{Group: NewGroup()}
	for _, opt := range opts {
		opt(&info)
	}

	return info
}

// InheritGroup returns a SendOption that sets the group to senderGroup
// unless a later WithGroup option overrides it. Because options apply in
// order, pass this first among opts so an explicit WithGroup still wins.
func InheritGroup(senderGroup Group) SendOption {
	return func(i *Info) { i.Group = senderGroup }
}
