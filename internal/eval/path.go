package eval

import (
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/pool"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// resolvePath walks a path's backing array per spec.md §4.7 step 5: the
// head element is looked up or evaluated exactly like any other leading
// expression cell, but every element after it is a literal selector (a
// word names a context field, an integer names a 1-based block index)
// unless it is wrapped in a GROUP!, which evaluates in place to produce a
// dynamic selector. Selectors never trigger an action call themselves —
// that is what keeps `obj/field` from invoking `field` as a zero-arg
// action the way a bare WORD! reference to it would. slot is non-nil only
// when the final step landed on a context field or block index a
// SET-PATH! can write through.
func (e *Evaluator) resolvePath(f *frame.Frame, arr pool.NodeID) (value cell.Cell, slot *cell.Cell, thrown bool, label unwind.Label) {
	elems := e.Nodes.Array(arr).Slice()
	if len(elems) == 0 {
		unwind.Fail(e.Errors.Build("script", "no-value", "empty path"))
	}

	cur, thrown, label := e.pathHead(f, elems[0])
	if thrown {
		return cell.Cell{}, nil, true, label
	}

	var cursorSlot *cell.Cell
	for _, elemCell := range elems[1:] {
		key, thrown, label := e.pathKeyCell(f, elemCell)
		if thrown {
			return cell.Cell{}, nil, true, label
		}
		cursorSlot = e.pathStep(cur, key)
		cur = *cursorSlot
	}
	return cur, cursorSlot, false, unwind.Label{}
}

// pathHead evaluates the leading element of a path the same way a
// top-level word or group would, without invoking an action even if the
// resolved value turns out to be one — the caller decides whether to
// invoke, since a GET-PATH! or the non-terminal head of a longer path
// must not.
func (e *Evaluator) pathHead(f *frame.Frame, head cell.Cell) (cell.Cell, bool, unwind.Label) {
	switch head.Kind {
	case cell.KindWord:
		v, err := e.Resolver.Get(symbol.ID(head.Payload.A), f.Feed.Spec, e.frameContextFor)
		if err != nil {
			unwind.Fail(e.Errors.Build("script", "not-bound", e.Syms.Spelling(symbol.ID(head.Payload.A))))
		}
		return v, false, unwind.Label{}
	case cell.KindGroup:
		sub := e.subFrame(f, head.Payload.Node)
		t, l := e.Do(sub)
		return sub.Out, t, l
	default:
		return head, false, unwind.Label{}
	}
}

// pathKeyCell returns the selector a path element contributes: itself,
// unless it's a GROUP!, in which case it evaluates in place.
func (e *Evaluator) pathKeyCell(f *frame.Frame, elemCell cell.Cell) (cell.Cell, bool, unwind.Label) {
	if elemCell.Kind == cell.KindGroup {
		sub := e.subFrame(f, elemCell.Payload.Node)
		t, l := e.Do(sub)
		return sub.Out, t, l
	}
	return elemCell, false, unwind.Label{}
}

// pathStep indexes into cur using key, returning the slot pointer a
// following element (or a SET-PATH!) reads or writes through. Fails with a
// structured error rather than panicking on an out-of-range or
// wrong-shape access.
func (e *Evaluator) pathStep(cur cell.Cell, key cell.Cell) *cell.Cell {
	switch cur.Kind {
	case cell.KindContext:
		sym, ok := keyAsSymbol(key)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "path: context selector must be a word"))
		}
		slotIx, ok := e.Nodes.FindKey(cur.Payload.Node, sym)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "not-bound", e.Syms.Spelling(sym)))
		}
		return e.Nodes.Array(e.Nodes.Context(cur.Payload.Node).Varlist).At(slotIx)
	case cell.KindBlock, cell.KindGroup:
		idx, ok := keyAsIndex(key)
		if !ok {
			unwind.Fail(e.Errors.Build("script", "no-value", "path: block selector must be an integer"))
		}
		arr := e.Nodes.Array(cur.Payload.Node)
		if idx < 1 || idx > arr.Len() {
			unwind.Fail(e.Errors.Build("script", "no-value", "path: index out of range"))
		}
		return arr.At(idx - 1)
	default:
		unwind.Fail(e.Errors.Build("script", "no-value", "path: cannot index into "+cur.Kind.String()))
		return nil // unreachable; Fail panics
	}
}

func keyAsSymbol(c cell.Cell) (symbol.ID, bool) {
	if !c.Kind.IsAnyWord() {
		return symbol.Invalid, false
	}
	return symbol.ID(c.Payload.A), true
}

func keyAsIndex(c cell.Cell) (int, bool) {
	if c.Kind != cell.KindInteger {
		return 0, false
	}
	return int(int64(c.Payload.A)), true
}
