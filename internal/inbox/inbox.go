// Package inbox implements the per-actor FIFO event queue described in
// spec.md §4.1: defer/ignore/must-handle/wildcard policies, a single-slot
// raised-event holder and an at-most-one pending Receive.
package inbox

import (
	"sync"

	"github.com/roasbeef/actorlab/internal/events"
)

// EnqueueStatus is the outcome of an Enqueue call (spec.md §4.1).
type EnqueueStatus int

const (
	// Dropped means the event was not stored: the inbox is halted, the
	// event's type is ignored, or it failed a max-instance assertion.
	Dropped EnqueueStatus = iota

	// Enqueued means the event was stored (or delivered directly to a
	// pending Receive) and the handler was already running.
	Enqueued

	// EnqueuedAndStarted means the event was stored and the handler,
	// previously idle, must now be (re)started.
	EnqueuedAndStarted

	// Delivered means the event matched a pending Receive and was handed
	// directly to it rather than stored; the handler was already
	// running and needs no Resume, but a controlled host must resolve
	// the target's AwaitingReceive wait condition.
	Delivered

	// NextEventUnavailable is reserved by spec.md's enumeration of
	// Enqueue outcomes but is not produced by this implementation; see
	// DESIGN.md for the resolution of this ambiguity.
	NextEventUnavailable
)

// DequeueStatus is the outcome of a Dequeue call (spec.md §4.1).
type DequeueStatus int

const (
	// Success means an ordinary (non-deferred) event was returned.
	Success DequeueStatus = iota

	// DefaultStatus means every queued entry was deferred (or the queue
	// was empty) and a default handler is installed, so a synthesized
	// Default event was returned.
	DefaultStatus

	// NotAvailable means nothing could be dequeued; the handler becomes
	// idle.
	NotAvailable
)

// Envelope pairs an Event with the causal/delivery metadata recorded for it
// at enqueue time (spec.md §4.1: "(Event, optional EventGroup, optional
// EventInfo) triples").
type Envelope struct {
	Event events.Event
	Info  events.Info
}

type entry struct {
	env        Envelope
	mustHandle bool
}

// ReceiveSpec describes a pending Receive: the set of acceptable event
// types (empty means "any type") plus an optional extra predicate.
type ReceiveSpec struct {
	Types     map[events.Type]struct{}
	Predicate func(events.Event) bool
}

func (s ReceiveSpec) matches(e events.Event) bool {
	if len(s.Types) > 0 {
		if _, ok := s.Types[e.EventType()]; !ok {
			return false
		}
	}

	if s.Predicate != nil {
		return s.Predicate(e)
	}

	return true
}

type pendingReceive struct {
	spec   ReceiveSpec
	result chan Envelope
}

// Inbox is the per-actor event queue. All methods are safe for concurrent
// use: Enqueue is called by arbitrary sender goroutines while Dequeue,
// RaiseEvent, ReceiveAsync and Halt are called only by the owning actor's
// own processing loop, but Inbox does not rely on that discipline for
// correctness.
type Inbox struct {
	mu sync.Mutex

	entries []entry
	raised  *Envelope
	pending *pendingReceive

	deferredTypes map[events.Type]struct{}
	ignoredTypes  map[events.Type]struct{}
	typeCounts    map[events.Type]int

	running bool
	halted  bool
}

// New creates an empty, idle inbox.
func New() *Inbox {
	return &Inbox{
		deferredTypes: make(map[events.Type]struct{}),
		ignoredTypes:  make(map[events.Type]struct{}),
		typeCounts:    make(map[events.Type]int),
	}
}

// SetDeferred replaces the current deferred-type set. Called by the actor
// whenever its current state (or handler map) changes (spec.md §4.1,
// §4.3).
func (ib *Inbox) SetDeferred(types []events.Type) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	set := make(map[events.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	ib.deferredTypes = set
}

// SetIgnored replaces the current ignored-type set.
func (ib *Inbox) SetIgnored(types []events.Type) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	set := make(map[events.Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	ib.ignoredTypes = set
}

// Enqueue appends e to the inbox, applying ignore/must-handle/max-instance
// policy and completing a pending Receive directly if it matches (spec.md
// §4.1).
func (ib *Inbox) Enqueue(e events.Event, info events.Info) (EnqueueStatus, error) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	if ib.halted {
		if info.MustHandle {
			return Dropped, ErrMustHandleDropped
		}

		return Dropped, nil
	}

	t := e.EventType()

	if _, ignored := ib.ignoredTypes[t]; ignored {
		return Dropped, nil
	}

	if info.Assert != nil && ib.typeCounts[t]+1 > *info.Assert {
		return Dropped, &TooManyInstancesError{Type: t, Max: *info.Assert}
	}

	env := Envelope{Event: e, Info: info}

	if ib.pending != nil && ib.pending.spec.matches(e) {
		p := ib.pending
		ib.pending = nil
		p.result <- env
		close(p.result)

		return Delivered, nil
	}

	ib.entries = append(ib.entries, entry{env: env, mustHandle: info.MustHandle})
	ib.typeCounts[t]++

	if !ib.running {
		ib.running = true
		return EnqueuedAndStarted, nil
	}

	return Enqueued, nil
}

// RaiseEvent places e into the single-slot raised holder. A raised event is
// consumed by the very next Dequeue, ahead of anything in the FIFO, and is
// never stored there (spec.md §4.1). A second RaiseEvent before the first
// is consumed overwrites it; callers are expected to raise at most once per
// action (spec.md §4.3).
func (ib *Inbox) RaiseEvent(e events.Event, info events.Info) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	env := Envelope{Event: e, Info: info}
	ib.raised = &env
}

// MarkRunning unconditionally marks the inbox running. The owning engine
// calls this once before its very first drain (Initialize), since that
// drain is not itself triggered by an Enqueue-observed idle-to-running
// transition; without it, a concurrent Enqueue during that first drain
// would see a stale idle flag and spawn a second, racing drain.
func (ib *Inbox) MarkRunning() {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	ib.running = true
}

// Dequeue returns the next event to process. hasDefault tells Dequeue
// whether the current state installs a default handler, which controls
// whether an all-deferred (or empty) queue synthesizes a Default event
// instead of reporting NotAvailable (spec.md §4.1).
func (ib *Inbox) Dequeue(hasDefault bool) (Envelope, DequeueStatus) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	if ib.raised != nil {
		env := *ib.raised
		ib.raised = nil

		return env, Success
	}

	for i, en := range ib.entries {
		if _, deferred := ib.deferredTypes[en.env.Event.EventType()]; deferred {
			continue
		}

		ib.entries = append(ib.entries[:i:i], ib.entries[i+1:]...)
		ib.typeCounts[en.env.Event.EventType()]--

		return en.env, Success
	}

	// Every remaining entry (possibly zero of them) is deferred.
	if hasDefault {
		return Envelope{Event: events.Default}, DefaultStatus
	}

	ib.running = false

	return Envelope{}, NotAvailable
}

// ReceiveAsync looks for a matching event already queued, removing and
// returning it synchronously. Otherwise it installs spec as the pending
// receive and returns a channel that will carry the matching event once
// Enqueue delivers one. Only one Receive may be pending at a time.
func (ib *Inbox) ReceiveAsync(spec ReceiveSpec) (Envelope, bool, <-chan Envelope, error) {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	if ib.pending != nil {
		return Envelope{}, false, nil, ErrReceiveAlreadyPending
	}

	for i, en := range ib.entries {
		if !spec.matches(en.env.Event) {
			continue
		}

		ib.entries = append(ib.entries[:i:i], ib.entries[i+1:]...)
		ib.typeCounts[en.env.Event.EventType()]--

		return en.env, true, nil, nil
	}

	result := make(chan Envelope, 1)
	ib.pending = &pendingReceive{spec: spec, result: result}

	return Envelope{}, false, result, nil
}

// CancelReceive removes a pending receive without delivering a result;
// used when a Stop request or caller-context cancellation aborts a
// suspended Receive (spec.md §5).
func (ib *Inbox) CancelReceive() {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	if ib.pending != nil {
		close(ib.pending.result)
		ib.pending = nil
	}
}

// DrainResult reports the entries flushed out of a halting inbox and
// whether any of them was a surviving must-handle event.
type DrainResult struct {
	Dropped             []Envelope
	MustHandleViolation bool
	ViolatedType        events.Type
}

// Halt marks the inbox halted and flushes every remaining entry, reporting
// whether a must-handle event survived undelivered (spec.md §4.1, §4.2
// "OnHaltComplete").
func (ib *Inbox) Halt() DrainResult {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	ib.halted = true

	var res DrainResult
	for _, en := range ib.entries {
		res.Dropped = append(res.Dropped, en.env)

		if en.mustHandle && !res.MustHandleViolation {
			res.MustHandleViolation = true
			res.ViolatedType = en.env.Event.EventType()
		}
	}

	ib.entries = nil
	ib.typeCounts = make(map[events.Type]int)

	if ib.pending != nil {
		close(ib.pending.result)
		ib.pending = nil
	}

	return res
}

// IsHalted reports whether Halt has been called on this inbox.
func (ib *Inbox) IsHalted() bool {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	return ib.halted
}

// Len returns the number of entries currently queued (excluding a raised
// event). Intended for diagnostics and tests.
func (ib *Inbox) Len() int {
	ib.mu.Lock()
	defer ib.mu.Unlock()

	return len(ib.entries)
}
