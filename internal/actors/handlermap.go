package actors

import "github.com/roasbeef/actorlab/internal/events"

// compiledState is the canonical, once-computed declaration table for a
// single state: its own entry/exit actions plus the handler map resolved
// by walking its base-state chain root-first, rejecting any event type
// declared more than once along the chain (spec.md §4.3, §8 property 4).
type compiledState struct {
	name    string
	entry   string
	exit    string
	isStart bool
	handler map[events.Type]HandlerDecl
}

// compile resolves the canonical declaration table for every state in d,
// returning a DuplicateHandlerError if any state redeclares a handler its
// base already declares for the same event type.
func compile(d *StateMachineDef) (map[string]compiledState, error) {
	out := make(map[string]compiledState, len(d.States))

	for name := range d.States {
		cs, err := compileOne(d, name)
		if err != nil {
			return nil, err
		}

		out[name] = cs
	}

	return out, nil
}

func compileOne(d *StateMachineDef, name string) (compiledState, error) {
	var chain []StateDecl

	cur := name
	visited := make(map[string]bool)

	for cur != "" {
		if visited[cur] {
			break
		}
		visited[cur] = true

		st, ok := d.States[cur]
		if !ok {
			break
		}

		chain = append(chain, st)
		cur = st.Base
	}

	// chain is leaf-to-root; walk it root-first so rule 4.3's "subclass
	// must not redeclare a handler its base already declares" can be
	// checked as each level is merged in.
	merged := make(map[events.Type]HandlerDecl)

	for i := len(chain) - 1; i >= 0; i-- {
		for t, decl := range chain[i].Handler {
			if _, exists := merged[t]; exists {
				return compiledState{}, &DuplicateHandlerError{
					State: name,
					Type:  t,
				}
			}

			merged[t] = decl
		}
	}

	leaf := chain[0]

	return compiledState{
		name:    name,
		entry:   leaf.Entry,
		exit:    leaf.Exit,
		isStart: leaf.IsStart,
		handler: merged,
	}, nil
}

// effectiveMap computes the handler map for a freshly pushed frame of
// state cs on top of parent's effective map, per spec.md §4.3's
// precedence: a wildcard declaration of any kind clears the map and
// installs itself; any other declared type overwrites whatever the parent
// frame inherited for it, regardless of declaration kind.
func effectiveMap(parent map[events.Type]HandlerDecl, cs compiledState) map[events.Type]HandlerDecl {
	eff := make(map[events.Type]HandlerDecl, len(parent)+len(cs.handler))
	for t, d := range parent {
		eff[t] = d
	}

	if wc, ok := cs.handler[events.Wildcard]; ok {
		eff = map[events.Type]HandlerDecl{events.Wildcard: wc}
	}

	for t, d := range cs.handler {
		if t == events.Wildcard {
			continue
		}

		eff[t] = d
	}

	return eff
}

// deferredAndIgnored extracts the Defer/Ignore-kind entries of an
// effective map into the type sets the Inbox needs.
func deferredAndIgnored(eff map[events.Type]HandlerDecl) (deferred, ignored []events.Type) {
	for t, d := range eff {
		switch d.Kind {
		case KindDefer:
			deferred = append(deferred, t)
		case KindIgnore:
			ignored = append(ignored, t)
		}
	}

	return deferred, ignored
}

// hasDefaultHandler reports whether eff installs a handler for the
// well-known Default event type.
func hasDefaultHandler(eff map[events.Type]HandlerDecl) bool {
	_, ok := eff[events.Default.EventType()]
	return ok
}
