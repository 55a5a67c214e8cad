package action

import (
	"testing"

	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

func newRegistry() (*Registry, *node.Registry) {
	p := pool.New(false)
	nodes := node.NewRegistry(p)
	return NewRegistry(nodes), nodes
}

func noopDispatch(f *frame.Frame) (ResultKind, unwind.Label) {
	return ResultNormal, unwind.Label{}
}

func TestDefineAndLookupByParamlistIdentity(t *testing.T) {
	r, nodes := newRegistry()
	pl := nodes.NewParamlist([]node.ParamSpec{{Name: "x", Class: node.ParamNormal}})
	a := r.Define(pl, noopDispatch, pool.InvalidNode)

	got, ok := r.Lookup(pl)
	if !ok || got != a {
		t.Fatalf("expected Lookup to return the defined action")
	}
}

func TestLookupMissingParamlist(t *testing.T) {
	r, _ := newRegistry()
	if _, ok := r.Lookup(pool.NodeID(999)); ok {
		t.Fatalf("expected lookup of an unregistered paramlist to fail")
	}
}

func TestUnderlyingDefaultsToSelf(t *testing.T) {
	r, nodes := newRegistry()
	pl := nodes.NewParamlist(nil)
	a := r.Define(pl, noopDispatch, pool.InvalidNode)
	if r.Underlying(a) != pl {
		t.Fatalf("expected a freshly built paramlist to be its own underlying")
	}
}

func TestTightenSharesUnderlyingWithTarget(t *testing.T) {
	r, nodes := newRegistry()
	pl := nodes.NewParamlist([]node.ParamSpec{{Name: "x", Class: node.ParamNormal}})
	target := r.Define(pl, noopDispatch, pool.InvalidNode)

	tightPL := r.BuildTighten(target)
	tightened := r.Define(tightPL, noopDispatch, pool.InvalidNode)

	if !r.SameUnderlying(target, tightened) {
		t.Fatalf("expected Tighten to preserve the underlying paramlist identity")
	}
	params := nodes.Paramlist(tightPL).Params
	if len(params) != 1 || params[0].Class != node.ParamTight {
		t.Fatalf("expected Tighten to mark the Normal parameter Tight, got %+v", params)
	}
}

func TestSpecializeDropsFilledSlotsButSharesUnderlying(t *testing.T) {
	r, nodes := newRegistry()
	pl := nodes.NewParamlist([]node.ParamSpec{
		{Name: "a", Class: node.ParamNormal},
		{Name: "b", Class: node.ParamNormal},
	})
	target := r.Define(pl, noopDispatch, pool.InvalidNode)

	syms := symbol.NewTable()
	ctxID := nodes.NewContext(syms, node.ArchObject, false)
	facadePL, _ := r.BuildSpecialize(target, Exemplar{Context: ctxID, Filled: []bool{true, false}})
	facade := r.Define(facadePL, noopDispatch, pool.InvalidNode)

	if !r.SameUnderlying(target, facade) {
		t.Fatalf("expected specialize to keep the underlying paramlist shared with target")
	}
	params := nodes.Paramlist(facadePL).Params
	if len(params) != 1 || params[0].Name != "b" {
		t.Fatalf("expected only the unfilled parameter to remain in the facade, got %+v", params)
	}
}

func TestSameUnderlyingFalseForUnrelatedActions(t *testing.T) {
	r, nodes := newRegistry()
	plA := nodes.NewParamlist(nil)
	plB := nodes.NewParamlist(nil)
	a := r.Define(plA, noopDispatch, pool.InvalidNode)
	b := r.Define(plB, noopDispatch, pool.InvalidNode)
	if r.SameUnderlying(a, b) {
		t.Fatalf("expected two independently built paramlists not to share an underlying identity")
	}
}
