package actors

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

type e1Event struct{ events.BaseEvent }

func (e1Event) EventType() events.Type { return "E1" }

type e2Event struct{ events.BaseEvent }

func (e2Event) EventType() events.Type { return "E2" }

type e3Event struct{ events.BaseEvent }

func (e3Event) EventType() events.Type { return "E3" }

type e4Event struct{ events.BaseEvent }

func (e4Event) EventType() events.Type { return "E4" }

func executedActions(h *fakeHost) []string {
	var out []string
	for _, rec := range h.actionLog() {
		if rec.Kind != "ExecuteAction" {
			continue
		}

		out = append(out, rec.Fields["action"].(string))
	}

	return out
}

// TestWildcardPushScenario implements spec.md §8 scenario 4 exactly: Init
// declares a specific handler for E1 alongside a wildcard catch-all; the
// catch-all pushes Ready on E2; Ready's own E3 handler runs once and goes
// back to Init, so a later E3 falls through to the wildcard it inherited
// rather than Ready's now-abandoned declaration. Driving E1, E3, E2, E3,
// E4, E3 must produce the handler-name sequence h1, catchAll, catchAll,
// h3_in_Ready, catchAll, catchAll.
func TestWildcardPushScenario(t *testing.T) {
	host := newFakeHost()
	id := host.reg.New("M")

	def := NewStateMachineDef("M")
	def.AddAction("h1", func(actx *ActionContext, e events.Event) error { return nil })
	def.AddAction("h3_in_Ready", func(actx *ActionContext, e events.Event) error {
		actx.GotoState("Init")
		return nil
	})
	def.AddAction("catchAll", func(actx *ActionContext, e events.Event) error {
		if e.EventType() == "E2" {
			actx.PushState("Ready")
		}

		return nil
	})

	def.AddState(StateDecl{
		Name:    "Init",
		IsStart: true,
		Handler: map[events.Type]HandlerDecl{
			"E1":            Action("h1"),
			events.Wildcard: Action("catchAll"),
		},
	})
	def.AddState(StateDecl{
		Name: "Ready",
		Handler: map[events.Type]HandlerDecl{
			"E3": Action("h3_in_Ready"),
		},
	})

	sm, err := NewStateMachine(id, host, def)
	require.NoError(t, err)
	host.register(sm)

	ctx := context.Background()
	go sm.Initialize(ctx, nil, events.Group{})

	waitUntil(t, time.Second, func() bool { return sm.CurrentState() == "Init" })

	driver := actorid.ID{}
	require.NoError(t, host.Send(ctx, driver, id, e1Event{}))
	require.NoError(t, host.Send(ctx, driver, id, e3Event{}))
	require.NoError(t, host.Send(ctx, driver, id, e2Event{}))

	waitUntil(t, time.Second, func() bool { return sm.CurrentState() == "Ready" })

	require.NoError(t, host.Send(ctx, driver, id, e3Event{}))

	waitUntil(t, time.Second, func() bool { return sm.CurrentState() == "Init" })

	require.NoError(t, host.Send(ctx, driver, id, e4Event{}))
	require.NoError(t, host.Send(ctx, driver, id, e3Event{}))

	waitUntil(t, time.Second, func() bool { return len(executedActions(host)) >= 6 })

	require.Equal(
		t,
		[]string{"h1", "catchAll", "catchAll", "h3_in_Ready", "catchAll", "catchAll"},
		executedActions(host),
	)
	require.Empty(t, host.failures())
}

// TestDuplicateHandlerAcrossBaseChainRejected implements spec.md §8
// property 4: a state may not redeclare a handler for an event type its
// base state already declares.
func TestDuplicateHandlerAcrossBaseChainRejected(t *testing.T) {
	def := NewStateMachineDef("Dup")
	def.AddAction("a", func(*ActionContext, events.Event) error { return nil })

	def.AddState(StateDecl{
		Name:    "Base",
		IsStart: true,
		Handler: map[events.Type]HandlerDecl{"E1": Action("a")},
	})
	def.AddState(StateDecl{
		Name:    "Child",
		Base:    "Base",
		Handler: map[events.Type]HandlerDecl{"E1": Action("a")},
	})

	_, err := compiledFor(def)
	require.Error(t, err)

	var dup *DuplicateHandlerError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "Child", dup.State)
	require.Equal(t, events.Type("E1"), dup.Type)
}

// TestHandlerMapChainComposition is a property test (spec.md §8 property
// 4): for a randomly generated chain of base states, each declaring a
// random subset of a small event-type alphabet, compile succeeds and
// merges every declaration exactly once if and only if no event type is
// declared at more than one level of the chain.
func TestHandlerMapChainComposition(t *testing.T) {
	alphabet := []events.Type{"A", "B", "C", "D"}

	rapid.Check(t, func(t *rapid.T) {
		depth := rapid.IntRange(1, 5).Draw(t, "depth")

		def := NewStateMachineDef("Chain")
		def.AddAction("a", func(*ActionContext, events.Event) error { return nil })

		seen := make(map[events.Type]string)
		expectDup := false

		var prevName string
		for i := 0; i < depth; i++ {
			name := fmt.Sprintf("S%d", i)

			handler := make(map[events.Type]HandlerDecl)
			for j, ty := range alphabet {
				include := rapid.IntRange(0, 1).Draw(t, fmt.Sprintf("include%d_%d", i, j)) == 1
				if !include {
					continue
				}

				handler[ty] = Action("a")

				if _, dup := seen[ty]; dup {
					expectDup = true
				}
				seen[ty] = name
			}

			def.AddState(StateDecl{
				Name:    name,
				Base:    prevName,
				IsStart: i == 0,
				Handler: handler,
			})

			prevName = name
		}

		leaf := prevName

		compiled, err := compile(def)
		if expectDup {
			require.Error(t, err)
			return
		}

		require.NoError(t, err)
		require.Len(t, compiled[leaf].handler, len(seen))
	})
}
