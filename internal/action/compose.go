package action

import (
	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
)

// Every composition layer below builds a details array whose leading cells
// are dispatcher-private — interpreted by the closures internal/eval
// registers as each Action's Dispatcher, since only the evaluator package
// can re-enter evaluation (running a prelude, chaining a result, ...). This
// package only ever builds the data; internal/eval supplies the behavior.

// BuildInterpreted lays out a plain FUNC-style action's details as a
// single cell holding the body block array; the body runs bound relative
// to the action's own underlying paramlist (internal/eval's Interpreted
// derives that binding itself, so no separate context cell is needed here).
func (r *Registry) BuildInterpreted(body pool.NodeID) pool.NodeID {
	details := r.Nodes.NewArray(1)
	arr := r.Nodes.Array(details)
	arr.Append(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: body}})
	return details
}

// BuildAdapt lays out details as (prelude block, inner action) and clones
// inner's paramlist shape for the composed action's own identity, so that
// fulfillment (internal/eval's invokeByParamlist) reifies the same frame
// shape the prelude and inner both run against — the prelude may reassign
// those very slots by SET-WORD! before inner sees them (spec.md §4.8).
func (r *Registry) BuildAdapt(prelude, inner pool.NodeID) (paramlist, details pool.NodeID) {
	srcPL := r.Nodes.Paramlist(inner)
	paramlist = r.Nodes.NewParamlist(srcPL.Params)
	r.Nodes.Paramlist(paramlist).SetUnderlying(srcPL.Underlying)

	details = r.Nodes.NewArray(2)
	arr := r.Nodes.Array(details)
	arr.Append(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: prelude}})
	arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: inner}})
	return paramlist, details
}

// BuildChain lays out details as one cell per action: the first is the
// external interface, each subsequent one consumes the previous result as
// its sole input (spec.md §4.8).
func (r *Registry) BuildChain(actions []pool.NodeID) pool.NodeID {
	details := r.Nodes.NewArray(len(actions))
	arr := r.Nodes.Array(details)
	for _, a := range actions {
		arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: a}})
	}
	return details
}

// BuildEnclose lays out details as (inner action, outer action) and clones
// inner's paramlist shape for the composed action's own identity: calling
// the composed action fulfills inner's arguments exactly as calling inner
// directly would. internal/eval's Enclose hands that already-fulfilled
// frame to outer as a single CONTEXT! argument rather than invoking inner
// itself — outer decides whether, and when, to do that (spec.md §4.8).
func (r *Registry) BuildEnclose(inner, outer pool.NodeID) (paramlist, details pool.NodeID) {
	srcPL := r.Nodes.Paramlist(inner)
	paramlist = r.Nodes.NewParamlist(srcPL.Params)
	r.Nodes.Paramlist(paramlist).SetUnderlying(srcPL.Underlying)

	details = r.Nodes.NewArray(2)
	arr := r.Nodes.Array(details)
	arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: inner}})
	arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: outer}})
	return paramlist, details
}

// Exemplar is a varlist pre-filling some of an action's parameters
// (specialize). Fulfillment skips slots flagged Filled, copying their
// value straight out of Context instead of reading the feed.
type Exemplar struct {
	Context pool.NodeID // -> Context whose varlist mirrors the target paramlist shape
	Filled  []bool      // parallel to the target paramlist's parameter slots
}

// Specialization records, on a specialize-composed Action, the exemplar
// and full Target paramlist internal/eval's fulfillArgs needs: the
// composed Action's own Paramlist only presents the unfilled slots, but
// argument gathering must build a frame shaped like Target and fill the
// exemplar's slots in directly rather than reading them from the feed
// (spec.md §4.7's "Specializer" catalog entry).
type Specialization struct {
	Exemplar Exemplar
	Target   pool.NodeID // -> Paramlist, the action actually dispatched
}

// BuildSpecialize clones target's paramlist shape into a facade paramlist
// (dropping the exemplar's filled slots) and builds a details array
// recording the exemplar context plus target itself, keeping Underlying
// shared with target so relative bindings in target's body still resolve.
func (r *Registry) BuildSpecialize(target *Action, exemplar Exemplar) (paramlist, details pool.NodeID) {
	srcPL := r.Nodes.Paramlist(target.Paramlist)
	newParams := make([]node.ParamSpec, 0, len(srcPL.Params))
	for i, p := range srcPL.Params {
		if i < len(exemplar.Filled) && exemplar.Filled[i] {
			continue // filled slots vanish from the surface interface
		}
		newParams = append(newParams, p)
	}
	paramlist = r.Nodes.NewParamlist(newParams)
	r.Nodes.Paramlist(paramlist).SetUnderlying(srcPL.Underlying)

	details = r.Nodes.NewArray(2)
	arr := r.Nodes.Array(details)
	arr.Append(cell.Cell{Kind: cell.KindContext, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: exemplar.Context}})
	arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: target.Paramlist}})
	return paramlist, details
}

// DefineSpecialize registers a specialize composition the way Define
// registers any other action, additionally attaching the Specialization
// internal/eval's fulfillArgs consults before the action ever reaches
// dispatch.
func (r *Registry) DefineSpecialize(paramlist, details pool.NodeID, dispatch Dispatcher, exemplar Exemplar, target pool.NodeID) *Action {
	a := r.Define(paramlist, dispatch, details)
	a.Specialization = &Specialization{Exemplar: exemplar, Target: target}
	return a
}

// BuildTighten marks every Normal parameter of target Tight, producing an
// alias paramlist sharing target's Underlying.
func (r *Registry) BuildTighten(target *Action) pool.NodeID {
	srcPL := r.Nodes.Paramlist(target.Paramlist)
	tightened := make([]node.ParamSpec, len(srcPL.Params))
	for i, p := range srcPL.Params {
		if p.Class == node.ParamNormal {
			p.Class = node.ParamTight
		}
		tightened[i] = p
	}
	pl := r.Nodes.NewParamlist(tightened)
	r.Nodes.Paramlist(pl).SetUnderlying(srcPL.Underlying)
	return pl
}

// BuildReskin lays out details as a single cell recording inner's paramlist
// id plus a Broadened flag: Broadened marks the deferred re-check phase
// internal/eval's Reskin runs only when types widen rather than narrow,
// since narrowing is already safe by the facade's own typecheck at
// fulfillment time (spec.md §4.8).
func (r *Registry) BuildReskin(inner pool.NodeID, newParams []node.ParamSpec, broadened bool) (paramlist, details pool.NodeID) {
	srcPL := r.Nodes.Paramlist(inner)
	paramlist = r.Nodes.NewParamlist(newParams)
	r.Nodes.Paramlist(paramlist).SetUnderlying(srcPL.Underlying)

	details = r.Nodes.NewArray(1)
	arr := r.Nodes.Array(details)
	flag := byte(0)
	if broadened {
		flag = 1
	}
	arr.Append(cell.Cell{Kind: cell.KindAction, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{A: uint64(flag), Node: inner}})
	return paramlist, details
}
