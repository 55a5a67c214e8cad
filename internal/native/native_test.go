package native

import (
	"testing"

	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/eval"
	"glyph/internal/frame"
	"glyph/internal/mold"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/stack"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

func newHarness() *Registry {
	p := pool.New(false)
	nodes := node.NewRegistry(p)
	syms := symbol.NewTable()
	actions := action.NewRegistry(nodes)
	frames := frame.NewStack()
	data := stack.NewDataStack()
	errors := rerror.NewCatalog()
	ev := eval.New(nodes, syms, actions, frames, data, errors)
	molder := mold.New(nodes, syms, stack.NewMoldBuffer(), stack.NewMoldStack())
	return New(actions, nodes, syms, ev, molder)
}

func TestInstallAllReturnsCatalogCount(t *testing.T) {
	r := newHarness()
	dest := r.Nodes.NewContext(r.Syms, node.ArchModule, false)
	n := r.InstallAll(dest)
	if n != len(Catalog()) {
		t.Fatalf("expected InstallAll to report %d installed, got %d", len(Catalog()), n)
	}
	for _, s := range Catalog() {
		if _, ok := r.Nodes.FindKey(dest, r.Syms.Intern(s.Name)); !ok {
			t.Fatalf("expected %q to be bound in the destination context", s.Name)
		}
	}
}

func TestInstallBindsAnActionCell(t *testing.T) {
	r := newHarness()
	dest := r.Nodes.NewContext(r.Syms, node.ArchModule, false)
	r.install(dest, Spec{Name: "noop", Params: nil, Build: func(r *Registry) action.Dispatcher {
		return func(f *frame.Frame) (action.ResultKind, unwind.Label) { return action.ResultNormal, unwind.Label{} }
	}})

	slot, ok := r.Nodes.FindKey(dest, r.Syms.Intern("noop"))
	if !ok {
		t.Fatalf("expected noop to be installed")
	}
	cl := *r.Nodes.Array(r.Nodes.Context(dest).Varlist).At(slot)
	if cl.Kind != cell.KindAction {
		t.Fatalf("expected the installed key to hold an action! cell, got %v", cl.Kind)
	}
}

func TestTextCellBuildsManagedText(t *testing.T) {
	r := newHarness()
	c := r.textCell("hi")
	if c.Kind != cell.KindText {
		t.Fatalf("expected a TEXT! cell, got %v", c.Kind)
	}
	if r.Nodes.Text(c.Payload.Node).CodepointLen() != 2 {
		t.Fatalf("expected the text node to hold 2 codepoints")
	}
}

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		c    cell.Cell
		want bool
	}{
		{cell.Cell{Kind: cell.KindNulled}, false},
		{cell.Cell{Kind: cell.KindBlank}, false},
		{cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: 0}}, false},
		{cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: 1}}, true},
		{cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 0}}, true}, // only nulled/blank/false logic are falsy
	}
	for _, tc := range cases {
		if got := isTruthy(tc.c); got != tc.want {
			t.Fatalf("isTruthy(%+v) = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestLogicCellRoundTrip(t *testing.T) {
	if c := logicCell(true); c.Kind != cell.KindLogic || c.Payload.A != 1 {
		t.Fatalf("expected a true logic cell, got %+v", c)
	}
	if c := logicCell(false); c.Kind != cell.KindLogic || c.Payload.A != 0 {
		t.Fatalf("expected a false logic cell, got %+v", c)
	}
}
