// Package native implements the boot-time native catalog: the primitive
// actions (arithmetic, comparison, series, control flow, context
// introspection) that cannot be written as interpreted bodies because they
// either need to re-enter the evaluator directly (IF, WHILE, CATCH) or
// touch host-level resources no block of code could reach on its own.
package native

import (
	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/eval"
	"glyph/internal/frame"
	"glyph/internal/mold"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/symbol"
)

// Spec is one boot-table entry: a name, its parameter shape, and the
// dispatcher that implements it.
type Spec struct {
	Name   string
	Params []node.ParamSpec
	Build  func(r *Registry) action.Dispatcher
}

// Registry builds every native's (paramlist, dispatcher) pair and installs
// it as a key in a destination context — typically the boot "lib" module
// internal/runtime assembles (spec.md §4.12's "boot sequence").
type Registry struct {
	Actions *action.Registry
	Nodes   *node.Registry
	Syms    *symbol.Table
	Eval    *eval.Evaluator
	Mold    *mold.Molder
}

func New(actions *action.Registry, nodes *node.Registry, syms *symbol.Table, ev *eval.Evaluator, molder *mold.Molder) *Registry {
	return &Registry{Actions: actions, Nodes: nodes, Syms: syms, Eval: ev, Mold: molder}
}

// textCell builds a fresh managed TEXT! cell holding s, for natives (MOLD/
// FORM) that produce new string values rather than reusing an argument.
func (r *Registry) textCell(s string) cell.Cell {
	id := r.Nodes.NewText([]byte(s), false)
	r.Nodes.Pool.PromoteManaged(id)
	return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
}

// InstallAll builds every Catalog() entry and binds it as a key in dest
// (a CONTEXT!), returning the count installed.
func (r *Registry) InstallAll(dest pool.NodeID) int {
	n := 0
	for _, s := range Catalog() {
		r.install(dest, s)
		n++
	}
	return n
}

func (r *Registry) install(dest pool.NodeID, s Spec) {
	paramlist := r.Nodes.NewParamlist(s.Params)
	dispatch := s.Build(r)
	r.Actions.Define(paramlist, dispatch, pool.InvalidNode)

	sym := r.Syms.Intern(s.Name)
	r.Nodes.AddKey(dest, sym, 0, cell.Cell{
		Kind:  cell.KindAction,
		Flags: cell.FlagFirstIsNode,
		Payload: cell.Payload{Node: paramlist},
	})
}

// arg returns the i-th (1-based) argument slot of f's reified varlist —
// index 0 is always the archetype cell reserved for the action itself.
func arg(nodes *node.Registry, f *frame.Frame, i int) *cell.Cell {
	return nodes.Array(f.Varlist).At(i)
}

func isTruthy(c cell.Cell) bool {
	switch c.Kind {
	case cell.KindNulled, cell.KindBlank:
		return false
	case cell.KindLogic:
		return c.Payload.A != 0
	default:
		return true
	}
}

func logicCell(b bool) cell.Cell {
	v := uint64(0)
	if b {
		v = 1
	}
	return cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: v}}
}
