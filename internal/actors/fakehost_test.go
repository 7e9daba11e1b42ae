package actors

import (
	"context"
	"fmt"
	"sync"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
	"github.com/roasbeef/actorlab/internal/inbox"
)

// liveActor is the subset of *engine (promoted by both Actor and
// StateMachine) that fakeHost needs to drive actors without depending on
// the exploration runtime.
type liveActor interface {
	ID() actorid.ID
	Inbox() *inbox.Inbox
	Enqueue(events.Event, events.Info) (inbox.EnqueueStatus, error)
	Initialize(ctx context.Context, initial events.Event, group events.Group)
	Resume(ctx context.Context)
}

// fakeHost is a minimal, free-running (uncontrolled) Host implementation
// used to exercise Actor/StateMachine end to end in tests, standing in for
// internal/runtime's real ExecutionContext.
type fakeHost struct {
	reg *actorid.Registry

	mu      sync.Mutex
	actors  map[string]liveActor
	asserts []string
	logs    []LogRecord
}

func newFakeHost() *fakeHost {
	h := &fakeHost{actors: make(map[string]liveActor)}
	h.reg = actorid.NewRegistry(h)

	return h
}

func (h *fakeHost) ContextID() string { return "fakeHost" }

func (h *fakeHost) register(a liveActor) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.actors[a.ID().Key()] = a
}

func (h *fakeHost) lookup(id actorid.ID) (liveActor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	a, ok := h.actors[id.Key()]

	return a, ok
}

func (h *fakeHost) Send(ctx context.Context, from, target actorid.ID, e events.Event, opts ...events.SendOption) error {
	a, ok := h.lookup(target)
	if !ok {
		return nil
	}

	info := events.NewInfo(opts...)

	status, err := a.Enqueue(e, info)
	if err != nil {
		return err
	}

	if status == inbox.EnqueuedAndStarted {
		go a.Resume(ctx)
	}

	return nil
}

func (h *fakeHost) CreateActor(ctx context.Context, from actorid.ID, typeName string, opts ...CreateOption) (actorid.ID, error) {
	return actorid.ID{}, fmt.Errorf("fakeHost: CreateActor not supported, register actors directly")
}

func (h *fakeHost) RandomBoolean(self actorid.ID, max int) bool { return false }

func (h *fakeHost) RandomInteger(self actorid.ID, max int) int { return 0 }

func (h *fakeHost) Assert(self actorid.ID, cond bool, msg string) {
	if cond {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.asserts = append(h.asserts, msg)
}

func (h *fakeHost) Log(rec LogRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logs = append(h.logs, rec)
}

func (h *fakeHost) AtSchedulePoint(self actorid.ID, point SchedulePoint) {}

func (h *fakeHost) Halted(self actorid.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.actors, self.Key())
}

func (h *fakeHost) Quiesced(self actorid.ID) {}

func (h *fakeHost) failures() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.asserts))
	copy(out, h.asserts)

	return out
}

func (h *fakeHost) actionLog() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]LogRecord, len(h.logs))
	copy(out, h.logs)

	return out
}
