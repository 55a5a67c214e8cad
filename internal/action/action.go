// Package action implements actions (callable values): the
// (paramlist, dispatcher, details) triple, the dispatcher catalog, and the
// composition operations (specialize/adapt/chain/enclose/hijack/tighten/
// reskin) that all preserve a shared "underlying" identity.
package action

import (
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/unwind"
)

// ResultKind is what a Dispatcher returns instead of a plain Go error,
// matching the native dispatcher ABI's result-mode enum (spec.md §4.7
// step 4, §6).
type ResultKind byte

const (
	ResultNormal         ResultKind = iota // f.Out holds the result
	ResultThrown                           // f.Out holds the thrown payload; see Thrown
	ResultInvisible                        // leave the caller's prior Out untouched
	ResultRedoChecked                      // re-dispatch after the frame was modified; re-typecheck args
	ResultRedoUnchecked                    // re-dispatch, skip re-typechecking
	ResultImmediate                        // f.Out already holds a pre-checked literal value
	ResultUnhandled                        // generic fallback: let a parent composition layer try
)

// Dispatcher is the native dispatcher ABI: a function taking the frame
// pointer and returning a result mode, exactly as spec.md §6 describes. A
// thrown result additionally returns the Label identifying what is being
// thrown; f.Out carries the payload in all cases that produce one.
type Dispatcher func(f *frame.Frame) (ResultKind, unwind.Label)

// Action is the (paramlist, dispatcher, details) triple. Its identity is
// the paramlist's NodeID — two Actions over the same Paramlist id are the
// same action.
type Action struct {
	Paramlist pool.NodeID
	Dispatch  Dispatcher
	Details   pool.NodeID // -> Array; dispatcher-private leading cells (body, chainees, ...)

	// Specialization is non-nil only for an action built by DefineSpecialize:
	// it tells internal/eval's fulfillArgs to build the argument frame
	// against Target's full paramlist rather than this action's own
	// (narrower) Paramlist, filling the Exemplar's marked slots directly.
	Specialization *Specialization
}

// Registry builds and stores Actions, keyed by their paramlist id (the
// action's identity), and owns the node.Registry used to build paramlists
// and details arrays.
type Registry struct {
	Nodes   *node.Registry
	actions map[pool.NodeID]*Action
}

func NewRegistry(nodes *node.Registry) *Registry {
	return &Registry{Nodes: nodes, actions: make(map[pool.NodeID]*Action)}
}

// Define registers a freshly built action under its own paramlist identity.
func (r *Registry) Define(paramlist pool.NodeID, dispatch Dispatcher, details pool.NodeID) *Action {
	a := &Action{Paramlist: paramlist, Dispatch: dispatch, Details: details}
	r.actions[paramlist] = a
	return a
}

// Lookup returns the action registered under id's paramlist identity.
func (r *Registry) Lookup(paramlist pool.NodeID) (*Action, bool) {
	a, ok := r.actions[paramlist]
	return a, ok
}

// Underlying returns the paramlist that truly fulfills arguments for a —
// the deepest paramlist in its composition chain (spec.md §4.8).
func (r *Registry) Underlying(a *Action) pool.NodeID {
	return r.Nodes.Paramlist(a.Paramlist).Underlying
}

// UnderlyingOf is Underlying addressed directly by paramlist identity, for
// callers (internal/eval's frame-context resolution) that only have the
// identity on hand, not the *Action.
func (r *Registry) UnderlyingOf(paramlist pool.NodeID) pool.NodeID {
	return r.Nodes.Paramlist(paramlist).Underlying
}

// SameUnderlying is the composition invariant check from spec.md §8:
// "for all actions X composed from action Y: underlying(X) == underlying(Y)".
func (r *Registry) SameUnderlying(x, y *Action) bool {
	return r.Underlying(x) == r.Underlying(y)
}
