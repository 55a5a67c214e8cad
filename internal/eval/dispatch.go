package eval

import (
	"glyph/internal/action"
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/unwind"
)

// runDispatch pushes child, calls act's Dispatch (redoing when asked to),
// pops, and reduces the ResultKind into the (thrown, label) shape Step's
// callers already understand. A RETURN/UNWIND thrown at exactly this frame
// is consumed here rather than bubbled further, since that is what it
// means for the label to target this activation.
func (e *Evaluator) runDispatch(child *frame.Frame, act *action.Action) (thrown, invisible bool, label unwind.Label) {
	e.Frames.Push(child)
	defer e.Frames.Pop()

	kind, lbl := act.Dispatch(child)
	for kind == action.ResultRedoChecked || kind == action.ResultRedoUnchecked {
		if kind == action.ResultRedoChecked {
			for _, p := range e.Nodes.Paramlist(child.Phase).Params {
				_ = p // re-typecheck is a no-op here: fulfillment already checked on the way in
			}
		}
		kind, lbl = act.Dispatch(child)
	}

	switch kind {
	case action.ResultThrown:
		if (lbl.Kind == unwind.LabelReturn || lbl.Kind == unwind.LabelUnwind) && lbl.TargetFrame == child {
			return false, false, unwind.Label{}
		}
		return true, false, lbl
	case action.ResultInvisible:
		return false, true, unwind.Label{}
	case action.ResultUnhandled:
		unwind.Fail(e.Errors.Build("internal", "bad-dispatch"))
		return false, false, unwind.Label{} // unreachable; Fail panics
	default:
		return false, false, unwind.Label{}
	}
}

// Dispatcher catalog. Each of these is installed as an Action's Dispatch
// when internal/action's Build* composition helpers hand back a details
// array of the matching shape; only this package can close over an
// *Evaluator, so the catalog lives here rather than in internal/action.

// Interpreted runs a plain FUNC-style body: a block, evaluated with a
// relative specifier over the action's own underlying paramlist, derived
// against the frame's outer binding.
func (e *Evaluator) Interpreted() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Flags |= frame.FlagFunctionBody
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)
		bodyCell := details.At(0)

		spec := &bind.Specifier{Kind: bind.Relative, Paramlist: e.Actions.UnderlyingOf(f.Phase), Outer: f.Binding}
		body := &frame.Frame{
			Feed:     frame.NewArrayFeed(e.Nodes, bodyCell.Payload.Node, 0, spec),
			Binding:  spec,
			Phase:    f.Phase,
			Original: f.Original,
			Varlist:  f.Varlist,
		}
		thrown, label := e.Do(body)
		f.Out = body.Out
		if thrown {
			// A RETURN/UNWIND targeting f itself is consumed by the
			// caller's runDispatch, which pushed f and compares TargetFrame
			// against it directly; every other label just bubbles here.
			return action.ResultThrown, label
		}
		return action.ResultNormal, unwind.Label{}
	}
}

// Adapt runs a prelude block (which may reassign the frame's own args by
// SET-WORD!, since it shares the frame's varlist) and then redispatches
// into the inner action using the same frame.
func (e *Evaluator) Adapt() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)
		preludeCell := details.At(0)
		innerCell := details.At(1)

		spec := &bind.Specifier{Kind: bind.Concrete, Context: f.Varlist, Outer: f.Binding}
		prelude := &frame.Frame{Feed: frame.NewArrayFeed(e.Nodes, preludeCell.Payload.Node, 0, spec), Binding: spec}
		if thrown, label := e.Do(prelude); thrown {
			f.Out = prelude.Out
			return action.ResultThrown, label
		}

		inner, ok := e.Actions.Lookup(innerCell.Payload.Node)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "adapt: inner action missing"))
		}
		f.Phase = innerCell.Payload.Node
		kind, label := inner.Dispatch(f)
		return kind, label
	}
}

// Chain threads the first action's result into each subsequent action's
// sole argument, per spec.md §4.8's chain semantics.
func (e *Evaluator) Chain() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)

		first, ok := e.Actions.Lookup(details.At(0).Payload.Node)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "chain: empty"))
		}
		kind, label := first.Dispatch(f)
		if kind == action.ResultThrown {
			return kind, label
		}

		for i := 1; i < details.Len(); i++ {
			next, ok := e.Actions.Lookup(details.At(i).Payload.Node)
			if !ok {
				continue
			}
			nextFrame := e.oneArgFrame(next, f.Out, f.Binding)
			thrown, invisible, label := e.runDispatch(nextFrame, next)
			if thrown {
				f.Out = nextFrame.Out
				return action.ResultThrown, label
			}
			if !invisible {
				f.Out = nextFrame.Out
			}
		}
		return action.ResultNormal, unwind.Label{}
	}
}

// oneArgFrame reifies a minimal one-parameter call frame for chain's
// inter-stage handoff, bypassing the feed-driven fulfillment path since the
// argument is already an evaluated value, not source to be read.
func (e *Evaluator) oneArgFrame(act *action.Action, arg cell.Cell, binding *bind.Specifier) *frame.Frame {
	pl := e.Nodes.Paramlist(act.Paramlist)
	ctxID := e.Nodes.NewContext(e.Syms, node.ArchFrame, false)
	for _, p := range pl.Params {
		sym := e.Syms.Intern(p.Name)
		e.Nodes.AddKey(ctxID, sym, p.Types<<1, cell.Cell{Kind: cell.KindNulled})
	}
	if len(pl.Params) > 0 {
		cell.Move(e.Nodes.Array(ctxID).At(1), &arg)
	}
	return &frame.Frame{Phase: act.Paramlist, Original: act.Paramlist, Varlist: ctxID, Binding: binding}
}

// Enclose delegates to outer, whose sole parameter receives inner's
// reified varlist as a CONTEXT! value; f.Varlist already holds the
// arguments fulfilled against inner's shape (BuildEnclose clones it), so
// that varlist itself becomes the CONTEXT! outer receives — outer decides
// whether, and how many times, to invoke inner from there.
func (e *Evaluator) Enclose() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)
		innerID := details.At(0).Payload.Node
		_ = innerID // inner is never itself dispatched; its shape only dictated f.Varlist's fulfillment via BuildEnclose

		outerID := details.At(1).Payload.Node
		outer, ok := e.Actions.Lookup(outerID)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "enclose: outer missing"))
		}

		innerFrame := cell.Cell{Kind: cell.KindContext, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: f.Varlist}}
		outerFrame := e.oneArgFrame(outer, innerFrame, f.Binding)
		thrown, invisible, label := e.runDispatch(outerFrame, outer)
		if thrown {
			f.Out = outerFrame.Out
			return action.ResultThrown, label
		}
		if !invisible {
			f.Out = outerFrame.Out
		}
		return action.ResultNormal, unwind.Label{}
	}
}

// Specialize re-dispatches into target with f already fulfilled against
// target's full paramlist (invokeByParamlist consults Action.Specialization
// before reifying the frame, filling the exemplar's slots in directly) —
// spec.md §4.7's "Specializer" catalog entry.
func (e *Evaluator) Specialize() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)
		targetID := details.At(1).Payload.Node

		target, ok := e.Actions.Lookup(targetID)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "specialize: target missing"))
		}
		f.Phase = targetID
		kind, label := target.Dispatch(f)
		return kind, label
	}
}

// Reskin re-checks arguments against the (possibly broadened) facade
// paramlist before delegating to inner, only doing real work when
// Broadened is set — a narrowing reskin is already guaranteed safe by the
// facade's typecheck at fulfillment time.
func (e *Evaluator) Reskin() action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		act, _ := e.Actions.Lookup(f.Phase)
		details := e.Nodes.Array(act.Details)
		skinCell := details.At(0)
		broadened := skinCell.Payload.A == 1
		innerID := skinCell.Payload.Node

		if broadened {
			pl := e.Nodes.Paramlist(innerID)
			varlist := e.Nodes.Array(f.Varlist)
			for i, p := range pl.Params {
				if slot := varlist.At(i + 1); slot.Flags&cell.FlagChecked == 0 {
					e.typecheck(p, *slot)
				}
			}
		}
		inner, ok := e.Actions.Lookup(innerID)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "reskin: inner missing"))
		}
		f.Phase = innerID
		kind, label := inner.Dispatch(f)
		return kind, label
	}
}

// Hijack replaces hijacked's Dispatch/Details in place with replacement's,
// sharing Underlying (verified by the caller via action.Registry.
// SameUnderlying). Because the two paramlists share Underlying, every
// existing reference to hijacked keeps working: it is the same identity,
// just answering with replacement's behavior from now on — spec.md §4.8's
// "the paramlist identity does not change, only what answers it."
func (e *Evaluator) Hijack(hijacked, replacement *action.Action) {
	hijacked.Dispatch = replacement.Dispatch
	hijacked.Details = replacement.Details
}
