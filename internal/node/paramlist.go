package node

import (
	"glyph/internal/cell"
	"glyph/internal/pool"
)

// ParamClass classifies how an action's parameter is fulfilled during
// argument gathering (spec.md §4.7).
type ParamClass byte

const (
	ParamNormal ParamClass = iota
	ParamHardQuote
	ParamSoftQuote
	ParamTight
	ParamRefinement
	ParamVariadic
)

// Paramlist is an action's identity array: element 0 is the action
// archetype cell, and the remaining elements are parameter typesets (here,
// ParamSpec values kept alongside the backing Array for convenience; the
// Array itself still holds the archetype+typeset cells so identity
// comparisons and GC enumeration stay uniform with every other array).
type Paramlist struct {
	Base
	Backing    pool.NodeID // -> Array holding archetype + typeset cells
	Meta       pool.NodeID // -> Context, for HELP; InvalidNode if absent
	Underlying pool.NodeID // -> Paramlist that truly fulfills arguments
	Facade     pool.NodeID // -> Paramlist presenting narrower types; InvalidNode if none

	Params []ParamSpec // parallel to Backing's elements 1..N
}

// ParamSpec names one parameter: its class and accepted type bitset.
type ParamSpec struct {
	Name  string
	Class ParamClass
	Types uint64
}

func (r *Registry) NewParamlist(params []ParamSpec) pool.NodeID {
	backing := r.NewArray(len(params) + 1)
	arr := r.Array(backing)
	arr.Append(cell.Cell{Kind: cell.KindAction})
	for _, p := range params {
		var typesetFlags uint64
		if p.Class == ParamRefinement {
			typesetFlags = 1
		}
		arr.Append(cell.Cell{Kind: cell.KindWord, Payload: cell.Payload{A: p.Types<<1 | typesetFlags}})
	}
	pl := &Paramlist{Base: Base{Kind: KindParamlist}, Backing: backing, Params: append([]ParamSpec(nil), params...)}
	id := r.Pool.Alloc(pl)
	pl.Link = pool.InvalidNode // set to Underlying's id by caller once known
	r.Pool.MarkManual(id)
	r.Pool.MarkManual(backing)
	// Self-reference: the archetype's binding points back at its own
	// paramlist, per spec.md §3's invariant.
	arr.At(0).Binding = id
	pl.Underlying = id // defaults to itself; composition layers override
	return id
}

func (r *Registry) Paramlist(id pool.NodeID) *Paramlist { return r.Pool.Get(id).(*Paramlist) }

// SetUnderlying records the deepest paramlist that actually fulfills
// arguments for this composition layer — the invariant that makes relative
// bindings resolve stably regardless of adapt/chain/specialize/enclose
// nesting (spec.md §4.8).
func (p *Paramlist) SetUnderlying(id pool.NodeID) { p.Underlying = id }

func (p *Paramlist) Children() []pool.NodeID {
	out := childrenFromBase(&p.Base, nil)
	out = append(out, p.Backing)
	if p.Meta != pool.InvalidNode {
		out = append(out, p.Meta)
	}
	if p.Underlying != pool.InvalidNode {
		out = append(out, p.Underlying)
	}
	if p.Facade != pool.InvalidNode {
		out = append(out, p.Facade)
	}
	return out
}
