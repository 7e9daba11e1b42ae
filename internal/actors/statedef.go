package actors

import "github.com/roasbeef/actorlab/internal/events"

// HandlerKind distinguishes the handler-declaration variants a state may
// attach to an event type (spec.md §4.3).
type HandlerKind int

const (
	// KindAction invokes a named action function on the event.
	KindAction HandlerKind = iota

	// KindGoto transitions to a new state, optionally running an exit
	// action first.
	KindGoto

	// KindPush pushes a new state frame on top of the current one.
	KindPush

	// KindDefer marks the event type deferred in this state.
	KindDefer

	// KindIgnore marks the event type ignored in this state.
	KindIgnore
)

// HandlerDecl is one state's declared reaction to a single event type.
type HandlerDecl struct {
	Kind HandlerKind

	// Action names the handler function for KindAction, looked up in the
	// owning StateMachineDef's Actions table.
	Action string

	// Target names the destination state for KindGoto/KindPush.
	Target string

	// OnExit names an additional exit action to run for a KindGoto
	// transition, beyond the source state's own exit action (spec.md
	// §4.3 "Goto(target, onExitAction?)").
	OnExit string
}

// Action invokes action(name), dispatched to the current state's
// destination or fully qualified event.
func Action(name string) HandlerDecl { return HandlerDecl{Kind: KindAction, Action: name} }

// Goto transitions to target, running the source state's exit action (and
// onExit, if supplied) first.
func Goto(target string, onExit ...string) HandlerDecl {
	d := HandlerDecl{Kind: KindGoto, Target: target}
	if len(onExit) > 0 {
		d.OnExit = onExit[0]
	}

	return d
}

// Push pushes target as a new frame without running an exit action.
func Push(target string) HandlerDecl { return HandlerDecl{Kind: KindPush, Target: target} }

// Defer marks the event type deferred.
func Defer() HandlerDecl { return HandlerDecl{Kind: KindDefer} }

// Ignore marks the event type ignored.
func Ignore() HandlerDecl { return HandlerDecl{Kind: KindIgnore} }

// StateDecl is one state's own (non-inherited) declarations: its
// entry/exit action names, its event-type → HandlerDecl table and whether
// it is the start state (spec.md §3 "StateMachine extensions").
type StateDecl struct {
	Name    string
	Base    string
	Entry   string
	Exit    string
	Handler map[events.Type]HandlerDecl
	IsStart bool
}

// ActionFunc is a named action body. ctx exposes the Host capabilities plus
// Raise/Goto/Push/Pop helpers available to an action; e is the event being
// handled (nil for entry/exit actions triggered without one).
type ActionFunc func(ctx *ActionContext, e events.Event) error

// StateMachineDef is the explicit, data-driven declaration table a user
// type registers once, replacing reflection-discovered class attributes
// (spec.md §9 "Reflection-discovered declarations"). The runtime consumes
// only StateMachineDefs.
type StateMachineDef struct {
	TypeName string
	States   map[string]StateDecl
	Actions  map[string]ActionFunc
	start    string
}

// NewStateMachineDef creates an empty definition for typeName.
func NewStateMachineDef(typeName string) *StateMachineDef {
	return &StateMachineDef{
		TypeName: typeName,
		States:   make(map[string]StateDecl),
		Actions:  make(map[string]ActionFunc),
	}
}

// AddState registers decl, recording it as the start state if IsStart is
// set. Panics on a duplicate state name or a second start state: these are
// definition-time configuration failures, not runtime errors (spec.md
// §4.3).
func (d *StateMachineDef) AddState(decl StateDecl) *StateMachineDef {
	if _, exists := d.States[decl.Name]; exists {
		panic("actors: duplicate state '" + decl.Name + "' in " + d.TypeName)
	}

	if decl.Handler == nil {
		decl.Handler = make(map[events.Type]HandlerDecl)
	}

	d.States[decl.Name] = decl

	if decl.IsStart {
		if d.start != "" {
			panic("actors: duplicate start state in " + d.TypeName)
		}

		d.start = decl.Name
	}

	return d
}

// AddAction registers a named action body.
func (d *StateMachineDef) AddAction(name string, fn ActionFunc) *StateMachineDef {
	d.Actions[name] = fn
	return d
}

// Start returns the name of the declared start state.
func (d *StateMachineDef) Start() string { return d.start }
