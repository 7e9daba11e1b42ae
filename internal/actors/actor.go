package actors

import (
	"fmt"

	"github.com/roasbeef/actorlab/internal/actorid"
	"github.com/roasbeef/actorlab/internal/events"
)

// ActorDef is the explicit declaration table for a plain (non-state-
// machine) actor type: a flat event-type → HandlerDecl map plus the named
// action bodies it references (spec.md §4.2). Only KindAction and
// KindDefer/KindIgnore declarations are meaningful here; Goto/Push are a
// StateMachine-only concept.
type ActorDef struct {
	TypeName   string
	Handler    map[events.Type]HandlerDecl
	Actions    map[string]ActionFunc
	InitFunc   func(actx *ActionContext, initial events.Event) error
	OnHalt     func(actx *ActionContext, last events.Event) error
	hasDefault bool
}

// NewActorDef creates an empty declaration table for typeName.
func NewActorDef(typeName string) *ActorDef {
	return &ActorDef{
		TypeName: typeName,
		Handler:  make(map[events.Type]HandlerDecl),
		Actions:  make(map[string]ActionFunc),
	}
}

// OnEvent declares how t is handled.
func (d *ActorDef) OnEvent(t events.Type, decl HandlerDecl) *ActorDef {
	d.Handler[t] = decl
	if t == events.Default.EventType() {
		d.hasDefault = true
	}

	return d
}

// WithAction registers a named action body.
func (d *ActorDef) WithAction(name string, fn ActionFunc) *ActorDef {
	d.Actions[name] = fn
	return d
}

// WithInit registers the Initialize hook run once before the handler loop
// starts.
func (d *ActorDef) WithInit(fn func(actx *ActionContext, initial events.Event) error) *ActorDef {
	d.InitFunc = fn
	return d
}

// WithOnHalt registers the OnHalt hook run when the actor falls through to
// the implicit Halt handling (spec.md §4.2 "Halting emits an OnHalt
// (last_event) user callback").
func (d *ActorDef) WithOnHalt(fn func(actx *ActionContext, last events.Event) error) *ActorDef {
	d.OnHalt = fn
	return d
}

// Actor is the plain (non-hierarchical) event-loop actor: C4 of spec.md's
// component table. A StateMachine is built on the same engine with a
// richer stack-based dispatcher; Actor's dispatcher is a flat map lookup.
type Actor struct {
	*engine
	def *ActorDef
}

// NewActor constructs an Actor bound to id, driven by host and declared by
// def.
func NewActor(id actorid.ID, host Host, def *ActorDef) *Actor {
	a := &Actor{def: def}
	a.engine = newEngine(id, def.TypeName, host, a)

	return a
}

func (a *Actor) initialize(actx *ActionContext, initial events.Event) error {
	if a.def.InitFunc == nil {
		return nil
	}

	return a.def.InitFunc(actx, initial)
}

func (a *Actor) deferredTypes() []events.Type {
	var out []events.Type
	for t, d := range a.def.Handler {
		if d.Kind == KindDefer {
			out = append(out, t)
		}
	}

	return out
}

func (a *Actor) ignoredTypes() []events.Type {
	var out []events.Type
	for t, d := range a.def.Handler {
		if d.Kind == KindIgnore {
			out = append(out, t)
		}
	}

	return out
}

func (a *Actor) hasDefault() bool { return a.def.hasDefault }

func (a *Actor) dispatch(actx *ActionContext, e events.Event) (bool, error) {
	decl, ok := a.def.Handler[e.EventType()]
	if !ok {
		decl, ok = a.def.Handler[events.Wildcard]
	}

	if !ok {
		if e.EventType() == events.Halt.EventType() {
			if a.def.OnHalt != nil {
				if err := a.def.OnHalt(actx, e); err != nil {
					return false, err
				}
			}

			return true, nil
		}

		return false, &UnhandledEventError{Actor: a.def.TypeName, Type: e.EventType()}
	}

	if decl.Kind != KindAction {
		return false, &UnhandledEventError{Actor: a.def.TypeName, Type: e.EventType()}
	}

	fn, ok := a.def.Actions[decl.Action]
	if !ok {
		return false, fmt.Errorf(
			"actors: action %q not registered for %s", decl.Action, a.def.TypeName,
		)
	}

	if err := runAction(a.def.TypeName, "", decl.Action, actx, e, fn); err != nil {
		return false, err
	}

	return false, nil
}

// runAction invokes fn, converting any recovered panic into an
// ActionPanicError (spec.md §7 "any other exception in an action is
// wrapped as 'Unhandled exception in <actor>, state <s>, action <a>'").
func runAction(actor, state, action string, actx *ActionContext, e events.Event, fn ActionFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ActionPanicError{Actor: actor, State: state, Action: action, Cause: r}
		}
	}()

	return fn(actx, e)
}
