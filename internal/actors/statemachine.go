package actors

import (
	"fmt"
	"sync"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

// compiledCache memoizes compile(def) per *StateMachineDef, since the
// canonical per-state declaration table only needs computing once per
// state class, not once per instance (spec.md §4.3 "compute once").
var compiledCache sync.Map

func compiledFor(def *StateMachineDef) (map[string]compiledState, error) {
	if v, ok := compiledCache.Load(def); ok {
		return v.(map[string]compiledState), nil
	}

	c, err := compile(def)
	if err != nil {
		return nil, err
	}

	compiledCache.Store(def, c)

	return c, nil
}

type frame struct {
	stateName string
	effective map[events.Type]HandlerDecl
}

// StateMachine is a hierarchical actor: C5 of spec.md's component table.
// It extends the same engine loop as Actor with a stack of states, each
// carrying an effective handler map computed from the declaration chain
// (spec.md §4.3).
type StateMachine struct {
	*engine
	def      *StateMachineDef
	compiled map[string]compiledState
	stack    []frame
}

// NewStateMachine constructs a StateMachine bound to id, declared by def.
func NewStateMachine(id actorid.ID, host Host, def *StateMachineDef) (*StateMachine, error) {
	compiled, err := compiledFor(def)
	if err != nil {
		return nil, err
	}

	if def.Start() == "" {
		return nil, fmt.Errorf("actors: %s declares no start state", def.TypeName)
	}

	sm := &StateMachine{def: def, compiled: compiled}
	sm.engine = newEngine(id, def.TypeName, host, sm)

	return sm, nil
}

// CurrentState returns the name of the state on top of the stack, or ""
// before the machine has been initialized.
func (sm *StateMachine) CurrentState() string {
	if len(sm.stack) == 0 {
		return ""
	}

	return sm.stack[len(sm.stack)-1].stateName
}

func (sm *StateMachine) currentEffective() map[events.Type]HandlerDecl {
	if len(sm.stack) == 0 {
		return nil
	}

	return sm.stack[len(sm.stack)-1].effective
}

func (sm *StateMachine) deferredTypes() []events.Type {
	d, _ := deferredAndIgnored(sm.currentEffective())
	return d
}

func (sm *StateMachine) ignoredTypes() []events.Type {
	_, i := deferredAndIgnored(sm.currentEffective())
	return i
}

func (sm *StateMachine) hasDefault() bool {
	return hasDefaultHandler(sm.currentEffective())
}

func (sm *StateMachine) initialize(actx *ActionContext, initial events.Event) error {
	if err := sm.pushFrame(actx, sm.def.Start()); err != nil {
		return err
	}

	if initial != nil {
		actx.Raise(initial)
	}

	return nil
}

// pushFrame computes the new frame's effective map from the current top
// (or nil at the base of the stack) and runs the target state's entry
// action (spec.md §4.3 "A Push(target) creates a new frame...").
func (sm *StateMachine) pushFrame(actx *ActionContext, stateName string) error {
	cs, ok := sm.compiled[stateName]
	if !ok {
		return fmt.Errorf("actors: unknown state %q in %s", stateName, sm.def.TypeName)
	}

	var parent map[events.Type]HandlerDecl
	if len(sm.stack) > 0 {
		parent = sm.stack[len(sm.stack)-1].effective
	}

	sm.stack = append(sm.stack, frame{
		stateName: stateName,
		effective: effectiveMap(parent, cs),
	})

	sm.host.Log(LogRecord{
		Kind:   "EnterState",
		Actor:  sm.id,
		Fields: map[string]any{"state": stateName},
	})

	if cs.entry == "" {
		return nil
	}

	fn, ok := sm.def.Actions[cs.entry]
	if !ok {
		return fmt.Errorf(
			"actors: entry action %q not registered for %s", cs.entry, sm.def.TypeName,
		)
	}

	return runAction(sm.def.TypeName, stateName, cs.entry, actx, nil, fn)
}

// popFrame runs the current top's exit action, then discards it.
func (sm *StateMachine) popFrame(actx *ActionContext) error {
	if len(sm.stack) == 0 {
		return nil
	}

	top := sm.stack[len(sm.stack)-1]
	cs := sm.compiled[top.stateName]

	sm.host.Log(LogRecord{
		Kind:   "ExitState",
		Actor:  sm.id,
		Fields: map[string]any{"state": top.stateName},
	})

	if cs.exit != "" {
		fn, ok := sm.def.Actions[cs.exit]
		if !ok {
			return fmt.Errorf(
				"actors: exit action %q not registered for %s", cs.exit, sm.def.TypeName,
			)
		}

		if err := runAction(sm.def.TypeName, top.stateName, cs.exit, actx, nil, fn); err != nil {
			return err
		}
	}

	sm.stack = sm.stack[:len(sm.stack)-1]

	sm.host.Log(LogRecord{
		Kind:   "PopState",
		Actor:  sm.id,
		Fields: map[string]any{"state": top.stateName},
	})

	return nil
}

// gotoState runs the current state's exit action, the per-transition
// onExit action if any, pops the current frame and pushes target,
// running its entry action (spec.md §4.3 "goto(s, on_exit)").
func (sm *StateMachine) gotoState(actx *ActionContext, target, onExit string) error {
	if len(sm.stack) == 0 {
		return fmt.Errorf("actors: goto with empty state stack in %s", sm.def.TypeName)
	}

	top := sm.stack[len(sm.stack)-1]
	cs := sm.compiled[top.stateName]

	sm.host.Log(LogRecord{
		Kind:   "ExitState",
		Actor:  sm.id,
		Fields: map[string]any{"state": top.stateName},
	})

	if cs.exit != "" {
		fn, ok := sm.def.Actions[cs.exit]
		if ok {
			if err := runAction(sm.def.TypeName, top.stateName, cs.exit, actx, nil, fn); err != nil {
				return err
			}
		}
	}

	if onExit != "" {
		if fn, ok := sm.def.Actions[onExit]; ok {
			if err := runAction(sm.def.TypeName, top.stateName, onExit, actx, nil, fn); err != nil {
				return err
			}
		}
	}

	sm.stack = sm.stack[:len(sm.stack)-1]

	sm.host.Log(LogRecord{
		Kind:  "GotoState",
		Actor: sm.id,
		Fields: map[string]any{
			"from": top.stateName, "to": target,
		},
	})

	return sm.pushFrame(actx, target)
}

func (sm *StateMachine) pushState(actx *ActionContext, target string) error {
	var from string
	if len(sm.stack) > 0 {
		from = sm.stack[len(sm.stack)-1].stateName
	}

	sm.host.Log(LogRecord{
		Kind:  "PushState",
		Actor: sm.id,
		Fields: map[string]any{
			"from": from, "to": target,
		},
	})

	return sm.pushFrame(actx, target)
}

// dispatch implements spec.md §4.3's transition algorithm: internal
// tagged meta-events always win; otherwise the current frame's goto/push,
// then wildcard goto/push, then action/wildcard-action are tried in
// order; a Halt at stack depth 1 halts; anything else pops one frame and
// retries with the same event.
func (sm *StateMachine) dispatch(actx *ActionContext, e events.Event) (bool, error) {
	switch ev := e.(type) {
	case events.GotoStateEvent:
		return false, sm.gotoState(actx, ev.Target, "")

	case events.PushStateEvent:
		return false, sm.pushState(actx, ev.Target)
	}

	for {
		if len(sm.stack) == 0 {
			return false, &UnhandledEventError{Actor: sm.def.TypeName, Type: e.EventType()}
		}

		top := sm.stack[len(sm.stack)-1]
		eff := top.effective

		decl, ok := eff[e.EventType()]
		if !ok {
			decl, ok = eff[events.Wildcard]
		}

		if ok {
			switch decl.Kind {
			case KindGoto:
				return false, sm.gotoState(actx, decl.Target, decl.OnExit)

			case KindPush:
				return false, sm.pushState(actx, decl.Target)

			case KindAction:
				fn, exists := sm.def.Actions[decl.Action]
				if !exists {
					return false, fmt.Errorf(
						"actors: action %q not registered for %s",
						decl.Action, sm.def.TypeName,
					)
				}

				sm.host.Log(LogRecord{
					Kind:  "ExecuteAction",
					Actor: sm.id,
					Fields: map[string]any{
						"state": top.stateName, "action": decl.Action,
					},
				})

				err := runAction(
					sm.def.TypeName, top.stateName, decl.Action, actx, e, fn,
				)
				if err != nil {
					return false, err
				}

				if actx.popRequested {
					actx.popRequested = false

					if err := sm.popFrame(actx); err != nil {
						return false, err
					}

					if len(sm.stack) == 0 {
						return true, nil
					}
				}

				return false, nil
			}
		}

		if e.EventType() == events.Halt.EventType() && len(sm.stack) == 1 {
			return true, nil
		}

		if err := sm.popFrame(actx); err != nil {
			return false, err
		}

		if len(sm.stack) == 0 {
			return false, &UnhandledEventError{Actor: sm.def.TypeName, Type: e.EventType()}
		}
	}
}
