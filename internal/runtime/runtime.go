// Package runtime implements the two execution contexts spec.md §4.4
// describes: an Uncontrolled context that dispatches actor handlers on a
// free-running goroutine pool, and a Controlled context that funnels every
// scheduling-relevant step through internal/scheduler so a test harness can
// explore and replay interleavings. Both satisfy internal/actors.Host.
package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/actors"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/inbox"
)

// LiveActor is the subset of *actors.Actor / *actors.StateMachine a Context
// needs to drive an actor without depending on which of the two it is
// (mirrors internal/actors' own unexported liveActor test double).
type LiveActor interface {
	ID() actorid.ID
	Enqueue(events.Event, events.Info) (inbox.EnqueueStatus, error)
	Initialize(ctx context.Context, initial events.Event, group events.Group)
	Resume(ctx context.Context)
}

// Factory constructs a new actor instance of one declared type, bound to id
// and host. internal/actors.NewActor and internal/actors.NewStateMachine
// both have this shape once partially applied over a definition.
type Factory func(id actorid.ID, host actors.Host) LiveActor

// TypeRegistry maps a type name to the factory that builds it (spec.md §4.4
// "Construct the actor object via a type-keyed factory").
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]Factory
}

// NewTypeRegistry creates an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]Factory)}
}

// Register binds typeName to factory. Re-registering the same name panics,
// mirroring a programming error caught at startup rather than at runtime.
func (r *TypeRegistry) Register(typeName string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[typeName]; exists {
		panic(fmt.Sprintf("runtime: type %q already registered", typeName))
	}

	r.types[typeName] = factory
}

func (r *TypeRegistry) lookup(typeName string) (Factory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.types[typeName]

	return f, ok
}

// actorEntry is the live bookkeeping a Context keeps per created actor.
type actorEntry struct {
	actor LiveActor
}

// registry is the actor-id -> live-actor map shared by both contexts
// (spec.md §5 "The actor map ... [is] process-wide state ... all mutations
// are serialized").
type registry struct {
	mu      sync.Mutex
	byKey   map[string]*actorEntry
	waiters map[string][]chan struct{}
}

func newRegistry() *registry {
	return &registry{
		byKey:   make(map[string]*actorEntry),
		waiters: make(map[string][]chan struct{}),
	}
}

func (r *registry) put(a LiveActor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byKey[a.ID().Key()] = &actorEntry{actor: a}
}

func (r *registry) get(id actorid.ID) (LiveActor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byKey[id.Key()]
	if !ok {
		return nil, false
	}

	return e.actor, true
}

func (r *registry) remove(id actorid.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byKey, id.Key())
}

// awaitQuiescence registers ch to be closed the next time id's owner calls
// notifyQuiescent (spec.md §4.4 "…AndExecute" variants).
func (r *registry) awaitQuiescence(id actorid.ID, ch chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := id.Key()
	r.waiters[key] = append(r.waiters[key], ch)
}

func (r *registry) notifyQuiescent(id actorid.ID) {
	r.mu.Lock()
	waiters := r.waiters[id.Key()]
	delete(r.waiters, id.Key())
	r.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// allocateID implements spec.md §4.4 CreateActor step 1: allocate an id if
// none was supplied, or validate the supplied one.
func allocateID(reg *actorid.Registry, typeName, name string, given *actorid.ID) (actorid.ID, error) {
	if given != nil {
		if given.TypeName != typeName {
			return actorid.ID{}, fmt.Errorf(
				"runtime: supplied id type %q does not match requested type %q",
				given.TypeName, typeName,
			)
		}

		return *given, nil
	}

	if name != "" {
		if existing, ok := reg.Lookup(name); ok {
			return actorid.ID{}, fmt.Errorf(
				"runtime: actor name %q is already bound to %s", name, existing,
			)
		}

		return reg.FromName(typeName, name), nil
	}

	return reg.New(typeName), nil
}

// LogSink receives every structured log record a Context produces (spec.md
// §6 "Log records"). RegisterLog installs one; a nil sink discards records.
type LogSink func(actors.LogRecord)

// FailureSink receives the message of every failed assertion a Context
// observes (under Controlled, deadlocks included). It is invoked once per
// failure, so a schedule that fails more than once invokes it more than
// once.
type FailureSink func(actorID actorid.ID, message string)
