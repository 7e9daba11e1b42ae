package actors

import (
	"context"
	"fmt"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

// Monitor is a passive state machine (C6 of spec.md's component table): it
// owns no inbox and never sends, receives or halts by itself. Its
// transition logic follows §4.3 exactly as StateMachine's does, but
// Monitor(e) runs synchronously on the calling actor's own task, invoked
// from RegisterMonitor/Monitor<T> on the owning ExecutionContext (spec.md
// §4.6).
type Monitor struct {
	id       actorid.ID
	host     Host
	def      *StateMachineDef
	compiled map[string]compiledState
	stack    []frame
}

// NewMonitor constructs a Monitor instance bound to id (the monitor's own
// synthetic identity, used for Assert/Log attribution) and pushes its
// start state, running its entry action.
func NewMonitor(id actorid.ID, host Host, def *StateMachineDef) (*Monitor, error) {
	compiled, err := compiledFor(def)
	if err != nil {
		return nil, err
	}

	if def.Start() == "" {
		return nil, fmt.Errorf("actors: monitor %s declares no start state", def.TypeName)
	}

	m := &Monitor{id: id, host: host, def: def, compiled: compiled}

	actx := newActionContext(context.Background(), id, host, events.Group{})
	if err := m.pushFrame(actx, def.Start()); err != nil {
		return nil, err
	}

	return m, nil
}

// CurrentState returns the name of the monitor's current state.
func (m *Monitor) CurrentState() string {
	if len(m.stack) == 0 {
		return ""
	}

	return m.stack[len(m.stack)-1].stateName
}

// Observe delivers e to the monitor's current state, running the §4.3
// transition algorithm synchronously. Any assertion failure inside an
// action propagates as a controlled failure via host.Assert, matching
// spec.md §4.6 "assertion failures propagate as controlled failures".
func (m *Monitor) Observe(self actorid.ID, e events.Event, group events.Group) error {
	actx := newActionContext(context.Background(), m.id, m.host, group)

	m.host.Log(LogRecord{
		Kind:  "MonitorObserve",
		Actor: m.id,
		Fields: map[string]any{
			"observer": self.String(), "type": e.EventType(),
		},
	})

	for {
		if len(m.stack) == 0 {
			return &UnhandledEventError{Actor: m.def.TypeName, Type: e.EventType()}
		}

		top := m.stack[len(m.stack)-1]
		eff := top.effective

		decl, ok := eff[e.EventType()]
		if !ok {
			decl, ok = eff[events.Wildcard]
		}

		if ok {
			switch decl.Kind {
			case KindGoto:
				return m.gotoState(actx, decl.Target, decl.OnExit)

			case KindPush:
				return m.pushState(actx, decl.Target)

			case KindAction:
				fn, exists := m.def.Actions[decl.Action]
				if !exists {
					return fmt.Errorf(
						"actors: action %q not registered for monitor %s",
						decl.Action, m.def.TypeName,
					)
				}

				return runAction(m.def.TypeName, top.stateName, decl.Action, actx, e, fn)
			}
		}

		if err := m.popFrame(actx); err != nil {
			return err
		}

		if len(m.stack) == 0 {
			return &UnhandledEventError{Actor: m.def.TypeName, Type: e.EventType()}
		}
	}
}

func (m *Monitor) pushFrame(actx *ActionContext, stateName string) error {
	cs, ok := m.compiled[stateName]
	if !ok {
		return fmt.Errorf("actors: unknown state %q in monitor %s", stateName, m.def.TypeName)
	}

	var parent map[events.Type]HandlerDecl
	if len(m.stack) > 0 {
		parent = m.stack[len(m.stack)-1].effective
	}

	m.stack = append(m.stack, frame{stateName: stateName, effective: effectiveMap(parent, cs)})

	if cs.entry == "" {
		return nil
	}

	fn, ok := m.def.Actions[cs.entry]
	if !ok {
		return fmt.Errorf(
			"actors: entry action %q not registered for monitor %s", cs.entry, m.def.TypeName,
		)
	}

	return runAction(m.def.TypeName, stateName, cs.entry, actx, nil, fn)
}

func (m *Monitor) popFrame(actx *ActionContext) error {
	if len(m.stack) == 0 {
		return nil
	}

	top := m.stack[len(m.stack)-1]
	cs := m.compiled[top.stateName]

	if cs.exit != "" {
		fn, ok := m.def.Actions[cs.exit]
		if ok {
			if err := runAction(m.def.TypeName, top.stateName, cs.exit, actx, nil, fn); err != nil {
				return err
			}
		}
	}

	m.stack = m.stack[:len(m.stack)-1]

	return nil
}

func (m *Monitor) gotoState(actx *ActionContext, target, onExit string) error {
	if len(m.stack) == 0 {
		return fmt.Errorf("actors: goto with empty state stack in monitor %s", m.def.TypeName)
	}

	top := m.stack[len(m.stack)-1]
	cs := m.compiled[top.stateName]

	if cs.exit != "" {
		if fn, ok := m.def.Actions[cs.exit]; ok {
			if err := runAction(m.def.TypeName, top.stateName, cs.exit, actx, nil, fn); err != nil {
				return err
			}
		}
	}

	if onExit != "" {
		if fn, ok := m.def.Actions[onExit]; ok {
			if err := runAction(m.def.TypeName, top.stateName, onExit, actx, nil, fn); err != nil {
				return err
			}
		}
	}

	m.stack = m.stack[:len(m.stack)-1]

	return m.pushFrame(actx, target)
}

func (m *Monitor) pushState(actx *ActionContext, target string) error {
	return m.pushFrame(actx, target)
}
