// Package bind implements specifiers: the virtual-binding mechanism that
// lets a single shared code array (a function body, say) be evaluated
// under many different concrete activations without rewriting a single
// word cell.
package bind

import (
	"fmt"

	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/symbol"
)

// Kind distinguishes a specifier that already names a concrete frame
// (context) from one that only names the paramlist identity the code is
// relative to — the latter needs a frame supplied at evaluation time
// before any word in that code can resolve.
type Kind byte

const (
	None Kind = iota
	Concrete
	Relative
)

// Specifier carries either a concrete context (an activation's varlist) or
// a relative paramlist identity, plus a link to an enclosing specifier so
// deeply nested arrays inherit outer binding (Derive composes this chain).
type Specifier struct {
	Kind      Kind
	Context   pool.NodeID // concrete varlist/context, when Kind == Concrete
	Paramlist pool.NodeID // relative paramlist identity, when Kind == Relative
	Outer     *Specifier
}

// Derive composes a specifier for a nested array: if inner already resolves
// concretely it is used as-is (an array can be bound tighter than its
// lexical container); otherwise inner's relative identity is kept but
// chained to outer so that a word it doesn't itself resolve can fall
// through to the enclosing activation.
func Derive(outer, inner *Specifier) *Specifier {
	if inner == nil {
		return outer
	}
	if inner.Kind == Concrete {
		return inner
	}
	return &Specifier{Kind: inner.Kind, Context: inner.Context, Paramlist: inner.Paramlist, Outer: outer}
}

// ErrUnbound is returned by Resolve when no specifier in the chain can
// locate storage for a word.
type ErrUnbound struct{ Word string }

func (e ErrUnbound) Error() string { return fmt.Sprintf("bind: word has no value: %s", e.Word) }

// Resolver ties a Specifier chain to the node registry and symbol table
// needed to actually walk context keylists.
type Resolver struct {
	Nodes *node.Registry
	Syms  *symbol.Table
}

// Resolve returns a pointer into the concrete varlist slot a word resolves
// to, walking the specifier chain outward until a context actually defines
// the symbol. frameContext, when non-nil, is consulted first for relative
// specifiers: it maps a paramlist identity to the concrete reified varlist
// for the frame currently running that paramlist (see internal/frame).
func (r *Resolver) Resolve(sym symbol.ID, spec *Specifier, frameContext func(paramlist pool.NodeID) (pool.NodeID, bool)) (*cell.Cell, error) {
	for s := spec; s != nil; s = s.Outer {
		var ctxID pool.NodeID
		switch s.Kind {
		case Concrete:
			ctxID = s.Context
		case Relative:
			resolved, ok := frameContext(s.Paramlist)
			if !ok {
				continue
			}
			ctxID = resolved
		default:
			continue
		}
		if slot, ok := r.Nodes.FindKey(ctxID, sym); ok {
			return r.Nodes.Array(r.Nodes.Context(ctxID).Varlist).At(slot), nil
		}
	}
	return nil, ErrUnbound{Word: r.Syms.Spelling(sym)}
}

// Set writes through the resolved location — the set-word assignment path.
func (r *Resolver) Set(sym symbol.ID, spec *Specifier, frameContext func(pool.NodeID) (pool.NodeID, bool), value cell.Cell) error {
	slot, err := r.Resolve(sym, spec, frameContext)
	if err != nil {
		return err
	}
	if slot.Flags&cell.FlagProtected != 0 {
		return fmt.Errorf("bind: attempt to set protected word: %s", r.Syms.Spelling(sym))
	}
	cell.Move(slot, &value)
	return nil
}

// Get retrieves without evaluating — the get-word path. Identical to
// Resolve followed by a value copy; kept as a named entry point because the
// evaluator's dispatch table treats GET-WORD! as its own case (spec.md
// §4.7 step 3).
func (r *Resolver) Get(sym symbol.ID, spec *Specifier, frameContext func(pool.NodeID) (pool.NodeID, bool)) (cell.Cell, error) {
	slot, err := r.Resolve(sym, spec, frameContext)
	if err != nil {
		return cell.Cell{}, err
	}
	return *slot, nil
}
