package node

import (
	"glyph/internal/cell"
	"glyph/internal/pool"
)

// Freeze marks an array immutable. Deep freeze additionally freezes every
// array-bearing cell reachable from it at construction time (checked, not
// lazily re-walked).
type Freeze byte

const (
	NotFrozen Freeze = iota
	FrozenShallow
	FrozenDeep
)

// Array is an ordered, pool-backed sequence of cells. Small arrays live
// entirely inline in two cells (see Base's room for exactly that in the
// teacher's node shape); this rewrite always uses the Dynamic buffer for
// simplicity and lets the pool's bias/expansion machinery do the rest —
// the inline-vs-dynamic split is an allocator-level optimization, not part
// of the array's externally observable behavior.
type Array struct {
	Base
	cells  *pool.Dynamic[cell.Cell]
	Frozen Freeze

	// Optional source metadata, carried only when the array came from a
	// loaded source position.
	File string
	Line int

	NewlineAtTail bool
}

// NewArray allocates an Array with room initial cells of capacity and
// registers it unmanaged (manual) in p.
func (r *Registry) NewArray(capHint int) pool.NodeID {
	a := &Array{Base: Base{Kind: KindArray}, cells: pool.NewDynamic[cell.Cell](r.Pool, capHint)}
	id := r.Pool.Alloc(a)
	r.Pool.MarkManual(id)
	return id
}

func (r *Registry) Array(id pool.NodeID) *Array {
	return r.Pool.Get(id).(*Array)
}

// Len returns the number of cells, not counting an implicit end marker.
func (a *Array) Len() int { return a.cells.Len() }

// At returns a pointer to the i-th cell for in-place mutation.
func (a *Array) At(i int) *cell.Cell {
	s := a.cells.Slice()
	return &s[i]
}

// Append adds a cell to the tail, respecting Frozen.
func (a *Array) Append(c cell.Cell) {
	a.assertMutable()
	a.cells.InsertMiddle(a.cells.Len(), c)
}

// InsertHead is the cheap bias-backed head insertion path.
func (a *Array) InsertHead(c cell.Cell) {
	a.assertMutable()
	if !a.cells.ShiftHead(1) {
		a.cells.Expand(1)
		a.cells.InsertMiddle(0, c)
		return
	}
	a.cells.Set(0, c)
}

func (a *Array) assertMutable() {
	if a.Frozen != NotFrozen {
		panic("node: attempt to mutate a frozen array")
	}
}

// Slice returns the live cells (no copy); callers must not retain past a
// mutating call.
func (a *Array) Slice() []cell.Cell { return a.cells.Slice() }

// Children reports every array-or-node-bearing cell's node reference, plus
// Link/Misc, for uniform GC marking.
func (a *Array) Children() []pool.NodeID {
	out := childrenFromBase(&a.Base, nil)
	for _, c := range a.cells.Slice() {
		if c.Flags&cell.FlagFirstIsNode != 0 && c.Payload.Node != pool.InvalidNode {
			out = append(out, c.Payload.Node)
		}
	}
	return out
}
