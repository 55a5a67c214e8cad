package eval

import (
	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// invokeByParamlist is the single call-site every action invocation funnels
// through: word lookup, enfix lookahead, and path invocation all reduce to "I have a paramlist identity, an optional already-evaluated
// left-hand argument, and an optional set of active refinement names — go
// build a frame and run it."
func (e *Evaluator) invokeByParamlist(f *frame.Frame, paramlist pool.NodeID, left *cell.Cell, activeRefinements map[string]bool) (thrown bool, label unwind.Label) {
	act, ok := e.Actions.Lookup(paramlist)
	if !ok {
		unwind.Fail(e.Errors.Build("script", "no-value", "unregistered action"))
	}

	pl := e.Nodes.Paramlist(paramlist)
	var exemplar *action.Exemplar
	if act.Specialization != nil {
		// A specialized action's own Paramlist only presents the unfilled
		// slots; fulfillment must reify the frame shaped like Target and
		// fill the exemplar's slots in directly rather than reading them
		// from the feed (spec.md §4.7's "Specializer" catalog entry).
		pl = e.Nodes.Paramlist(act.Specialization.Target)
		exemplar = &act.Specialization.Exemplar
	}

	ctxID := e.Nodes.NewContext(e.Syms, node.ArchFrame, false)
	for _, p := range pl.Params {
		sym := e.Syms.Intern(p.Name)
		e.Nodes.AddKey(ctxID, sym, p.Types<<1, cell.Cell{Kind: cell.KindNulled})
	}

	child := &frame.Frame{
		Phase:    paramlist,
		Original: paramlist,
		Varlist:  ctxID,
		Binding:  f.Binding,
	}

	if thrown, label = e.fulfillArgs(f, child, pl, left, exemplar, activeRefinements); thrown {
		return true, label
	}

	prior := f.Out
	thrown, invisible, label := e.runDispatch(child, act)
	if thrown {
		f.Out = child.Out
		return true, label
	}
	if invisible {
		f.Out = prior
	} else {
		f.Out = child.Out
	}
	return false, unwind.Label{}
}

// fulfillArgs walks pl's parameters, pulling from caller's feed (f) and
// writing each fulfilled argument into child's reified varlist, per
// spec.md §4.7's per-class fulfillment rules.
func (e *Evaluator) fulfillArgs(f, child *frame.Frame, pl *node.Paramlist, left *cell.Cell, exemplar *action.Exemplar, activeRefinements map[string]bool) (thrown bool, label unwind.Label) {
	varlist := e.Nodes.Array(child.Varlist)
	start := 0
	if left != nil && len(pl.Params) > 0 {
		e.typecheck(pl.Params[0], *left)
		cell.Move(varlist.At(1), left)
		start = 1
	}

	var exemplarVarlist *node.Array
	if exemplar != nil {
		exemplarVarlist = e.Nodes.Array(e.Nodes.Context(exemplar.Context).Varlist)
	}

	for i := start; i < len(pl.Params); i++ {
		if exemplar != nil && i < len(exemplar.Filled) && exemplar.Filled[i] {
			slot := varlist.At(i + 1)
			cell.Move(slot, exemplarVarlist.At(i+1))
			slot.Flags |= cell.FlagChecked
			continue
		}

		p := pl.Params[i]
		slot := varlist.At(i + 1)

		switch p.Class {
		case node.ParamRefinement:
			active := activeRefinements != nil && activeRefinements[p.Name]
			*slot = cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: boolToA(active)}}

		case node.ParamHardQuote:
			c := f.Feed.Next()
			if c == nil {
				unwind.Fail(e.Errors.Build("script", "no-value", p.Name))
			}
			cell.Move(slot, c)
			e.typecheck(p, *slot)

		case node.ParamSoftQuote:
			c := f.Feed.Peek()
			if c == nil {
				unwind.Fail(e.Errors.Build("script", "no-value", p.Name))
			}
			if c.Kind == cell.KindGroup || c.Kind == cell.KindGetWord {
				if thrown, label = e.Step(f); thrown {
					return true, label
				}
				*slot = f.Out
			} else {
				cell.Move(slot, f.Feed.Next())
			}
			e.typecheck(p, *slot)

		case node.ParamTight:
			if f.Feed.AtEnd() {
				unwind.Fail(e.Errors.Build("script", "no-value", p.Name))
			}
			if thrown, label = e.stepNoEnfix(f); thrown {
				return true, label
			}
			*slot = f.Out
			e.typecheck(p, *slot)

		case node.ParamVariadic:
			items := collectVariadic(f)
			arr := e.Nodes.NewArray(len(items))
			a := e.Nodes.Array(arr)
			for _, it := range items {
				a.Append(it)
			}
			e.Nodes.Pool.PromoteManaged(arr)
			*slot = cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: arr}}

		default: // ParamNormal
			if f.Feed.AtEnd() {
				unwind.Fail(e.Errors.Build("script", "no-value", p.Name))
			}
			if thrown, label = e.Step(f); thrown {
				return true, label
			}
			*slot = f.Out
			e.typecheck(p, *slot)
		}
	}
	return false, unwind.Label{}
}

// stepNoEnfix evaluates one expression without permitting an immediately
// following enfix word to grab it as a left-hand argument — the "tight"
// parameter class's defining property.
func (e *Evaluator) stepNoEnfix(f *frame.Frame) (bool, unwind.Label) {
	c := f.Feed.Next()
	if c == nil {
		f.Out.SetNulled()
		return false, unwind.Label{}
	}
	if c.Kind == cell.KindWord {
		v, err := e.Resolver.Get(symbol.ID(c.Payload.A), f.Feed.Spec, e.frameContextFor)
		if err != nil {
			unwind.Fail(e.Errors.Build("script", "not-bound", ""))
		}
		if v.Kind == cell.KindAction {
			return e.invokeByParamlist(f, v.Payload.Node, nil, nil)
		}
		f.Out = v
		return false, unwind.Label{}
	}
	cell.Move(&f.Out, c)
	return false, unwind.Label{}
}

// collectVariadic gathers the remainder of the feed as literal cells,
// matching this rewrite's simplified tail-variadic model: variadic
// parameters only appear last in a paramlist.
func collectVariadic(f *frame.Frame) []cell.Cell {
	var out []cell.Cell
	for !f.Feed.AtEnd() {
		out = append(out, *f.Feed.Next())
	}
	return out
}

func (e *Evaluator) typecheck(p node.ParamSpec, v cell.Cell) {
	if v.Flags&cell.FlagChecked != 0 {
		return
	}
	if !matchesTypeset(v.Kind, p.Types) {
		unwind.Fail(e.Errors.Build("script", "expect-arg", "action", v.Kind.String(), p.Name))
	}
}

func boolToA(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

