// Package actorid implements ActorId (spec.md §3): an opaque, globally
// unique, hashable handle to an actor that compares equal by name when one
// was supplied, or by numeric id otherwise.
package actorid

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Context is the minimal identity of the owning execution context an ID
// carries an immutable back-reference to. It is satisfied by
// *runtime.Uncontrolled and *runtime.Controlled without actorid importing
// runtime, avoiding an
// import cycle between the two packages.
type Context interface {
	// ContextID returns a stable identifier for the owning context,
	// used only to distinguish ids minted by different contexts.
	ContextID() string
}

// ID is an ActorId: a 64-bit monotonically allocated numeric value, an
// optional unique name, the actor's fully qualified type name, and an
// immutable back-reference to the owning context (spec.md §3).
type ID struct {
	// Numeric is the monotonically allocated handle used for equality
	// and hashing when Name is empty.
	Numeric uint64

	// Name is the optional unique name; when non-empty it takes
	// precedence over Numeric for equality and hashing.
	Name string

	// TypeName is the actor's fully qualified type name.
	TypeName string

	ctx Context
}

// Context returns the execution context that minted this id.
func (id ID) Context() Context { return id.ctx }

// IsNamed reports whether this id was allocated via a unique name.
func (id ID) IsNamed() bool { return id.Name != "" }

// Key returns a string uniquely identifying this id within its owning
// context; suitable as a map key in the actor registry.
func (id ID) Key() string {
	if id.Name != "" {
		return "name:" + id.Name
	}

	return fmt.Sprintf("num:%d", id.Numeric)
}

// Equal reports whether id and other refer to the same actor. Two ids from
// different contexts are never equal, even if their numeric values match.
func (id ID) Equal(other ID) bool {
	if id.ctx != other.ctx {
		return false
	}

	if id.Name != "" || other.Name != "" {
		return id.Name == other.Name
	}

	return id.Numeric == other.Numeric
}

// String renders the id as "<TypeName>(<name-or-number>)".
func (id ID) String() string {
	if id.Name != "" {
		return fmt.Sprintf("%s(%s)", id.TypeName, id.Name)
	}

	return fmt.Sprintf("%s(%d)", id.TypeName, id.Numeric)
}

// Registry allocates and interns ActorIds for a single execution context.
// Name-keyed ids are interned so CreateActorIdFromName(T, "x") always
// returns the same id (spec.md §3).
type Registry struct {
	ctx Context

	counter atomic.Uint64

	mu     sync.Mutex
	byName map[string]ID
}

// NewRegistry creates an id registry bound to ctx.
func NewRegistry(ctx Context) *Registry {
	return &Registry{
		ctx:    ctx,
		byName: make(map[string]ID),
	}
}

// New allocates a fresh, unnamed id for typeName.
func (r *Registry) New(typeName string) ID {
	n := r.counter.Add(1)

	return ID{Numeric: n, TypeName: typeName, ctx: r.ctx}
}

// FromName returns the interned id for (typeName, name), allocating one on
// first use. Subsequent calls with the same name return the same id
// regardless of typeName (names are unique per context).
func (r *Registry) FromName(typeName, name string) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[name]; ok {
		return id
	}

	n := r.counter.Add(1)
	id := ID{Numeric: n, Name: name, TypeName: typeName, ctx: r.ctx}
	r.byName[name] = id

	return id
}

// Lookup returns the interned id for name, if one has been allocated.
func (r *Registry) Lookup(name string) (ID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	return id, ok
}
