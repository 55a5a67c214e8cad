// Package eval implements the evaluator: Eval_Step's per-cell
// classification, expression-level DO, argument fulfillment, enfix
// deferral, and the dispatcher catalog that interprets every action
// composition layer (plain bodies, adapt, chain, enclose, specialize,
// hijack, tighten, reskin). It is the one package allowed to both invoke
// actions and be invoked BY an action's Dispatcher, since that mutual
// recursion (a body runs sub-expressions; a sub-expression may itself be
// an action call) is inherent to a tree-walking evaluator and cannot be
// cleanly layered apart.
package eval

import (
	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/stack"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// Evaluator bundles every subsystem a single evaluation step touches. One
// Evaluator is shared process-wide (or per-isolated-runtime embedding);
// Frames/Data are the two scratch stacks every nested Step call shares.
type Evaluator struct {
	Nodes    *node.Registry
	Syms     *symbol.Table
	Actions  *action.Registry
	Resolver *bind.Resolver
	Frames   *frame.Stack
	Data     *stack.DataStack
	Guard    *frame.StackGuard
	Errors   *rerror.Catalog
}

func New(nodes *node.Registry, syms *symbol.Table, actions *action.Registry, frames *frame.Stack, data *stack.DataStack, errors *rerror.Catalog) *Evaluator {
	return &Evaluator{
		Nodes:    nodes,
		Syms:     syms,
		Actions:  actions,
		Resolver: &bind.Resolver{Nodes: nodes, Syms: syms},
		Frames:   frames,
		Data:     data,
		Guard:    frame.NewStackGuard(),
		Errors:   errors,
	}
}

// frameContextFor is the callback Resolver needs to turn a relative
// specifier's paramlist identity into this evaluator's currently-reified
// concrete varlist for that activation: it walks the live frame stack
// looking for a frame whose Phase/Original paramlist matches.
func (e *Evaluator) frameContextFor(paramlist pool.NodeID) (pool.NodeID, bool) {
	var found pool.NodeID
	ok := false
	e.Frames.Walk(func(f *frame.Frame) bool {
		if f.Varlist == pool.InvalidNode {
			return true
		}
		underlying := e.Actions.UnderlyingOf(f.Original)
		if underlying == paramlist {
			found, ok = f.Varlist, true
			return false
		}
		return true
	})
	return found, ok
}

func matchesTypeset(k cell.Kind, types uint64) bool {
	if types == 0 {
		return true // untyped parameter accepts anything
	}
	return types&(1<<uint(k)) != 0
}

// Do evaluates every expression in f's feed to completion, f.Out holding
// the last expression's result (DO's "tail position" semantics). It stops
// early, without consuming the rest of the feed, the moment an expression
// throws.
func (e *Evaluator) Do(f *frame.Frame) (thrown bool, label unwind.Label) {
	f.Out.SetNulled()
	for !f.Feed.AtEnd() {
		thrown, label = e.Step(f)
		if thrown {
			return true, label
		}
	}
	return false, unwind.Label{}
}

// Step evaluates exactly one expression from f.Feed into f.Out, including
// any enfix call that immediately follows it per spec.md §4.7's deferral
// rule. The stack guard is checked against the frame stack's current depth.
func (e *Evaluator) Step(f *frame.Frame) (thrown bool, label unwind.Label) {
	if e.Guard.WouldOverflow(e.Frames.Depth()) {
		unwind.Fail(e.Errors.Build("internal", "stack-overflow"))
	}

	c := f.Feed.Next()
	if c == nil {
		f.Out.SetNulled()
		return false, unwind.Label{}
	}

	switch {
	case c.Kind.IsInert():
		cell.Move(&f.Out, c)
	case c.Kind == cell.KindGetWord:
		v, err := e.Resolver.Get(symbol.ID(c.Payload.A), f.Feed.Spec, e.frameContextFor)
		if err != nil {
			unwind.Fail(e.Errors.Build("script", "not-bound", e.Syms.Spelling(symbol.ID(c.Payload.A))))
		}
		f.Out = v
	case c.Kind == cell.KindLitWord:
		f.Out = cell.Cell{Kind: cell.KindWord, Payload: c.Payload}
	case c.Kind == cell.KindSetWord:
		if thrown, label = e.stepInto(f); thrown {
			return true, label
		}
		if err := e.Resolver.Set(symbol.ID(c.Payload.A), f.Feed.Spec, e.frameContextFor, f.Out); err != nil {
			unwind.Fail(e.Errors.Build("script", "not-bound", e.Syms.Spelling(symbol.ID(c.Payload.A))))
		}
	case c.Kind == cell.KindWord:
		v, err := e.Resolver.Get(symbol.ID(c.Payload.A), f.Feed.Spec, e.frameContextFor)
		if err != nil {
			unwind.Fail(e.Errors.Build("script", "not-bound", e.Syms.Spelling(symbol.ID(c.Payload.A))))
		}
		if v.Kind == cell.KindAction {
			if thrown, label = e.invokeByParamlist(f, v.Payload.Node, nil, nil); thrown {
				return true, label
			}
		} else {
			f.Out = v
		}
	case c.Kind == cell.KindGroup:
		sub := e.subFrame(f, c.Payload.Node)
		t, l := e.Do(sub)
		f.Out = sub.Out
		if t {
			return true, l
		}
	case c.Kind == cell.KindGetPath:
		v, _, t, l := e.resolvePath(f, c.Payload.Node)
		if t {
			return true, l
		}
		f.Out = v
	case c.Kind == cell.KindLitPath:
		f.Out = *c
		f.Out.Kind = cell.KindPath
	case c.Kind == cell.KindSetPath:
		if thrown, label = e.stepInto(f); thrown {
			return true, label
		}
		rhs := f.Out
		_, slot, t, l := e.resolvePath(f, c.Payload.Node)
		if t {
			return true, l
		}
		if slot.Flags&cell.FlagProtected != 0 {
			unwind.Fail(e.Errors.Build("script", "protected-key", "set-path target"))
		}
		cell.Move(slot, &rhs)
		f.Out = rhs
	case c.Kind == cell.KindPath:
		v, _, t, l := e.resolvePath(f, c.Payload.Node)
		if t {
			return true, l
		}
		if v.Kind == cell.KindAction {
			if thrown, label = e.invokeByParamlist(f, v.Payload.Node, nil, nil); thrown {
				return true, label
			}
		} else {
			f.Out = v
		}
	case c.Kind == cell.KindAction:
		if thrown, label = e.invokeByParamlist(f, c.Payload.Node, nil, nil); thrown {
			return true, label
		}
	case c.Kind.IsAnyArray():
		cell.Move(&f.Out, c)
	default:
		cell.Move(&f.Out, c)
	}

	return e.maybeEnfix(f)
}

// stepInto is Step's helper for the set-word/set-path RHS: evaluate the
// following expression as a unit.
func (e *Evaluator) stepInto(f *frame.Frame) (bool, unwind.Label) {
	if f.Feed.AtEnd() {
		unwind.Fail(e.Errors.Build("script", "no-value", "end of input"))
	}
	return e.Step(f)
}

// subFrame builds a child Feed over arr, deriving its specifier from the
// parent so nested words still resolve through the enclosing activation.
func (e *Evaluator) subFrame(f *frame.Frame, arr pool.NodeID) *frame.Frame {
	spec := bind.Derive(f.Feed.Spec, f.Feed.Spec)
	return &frame.Frame{Feed: frame.NewArrayFeed(e.Nodes, arr, 0, spec), Binding: f.Binding}
}

