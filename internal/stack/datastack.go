// Package stack implements the two process-wide scratch stacks shared
// across all nested evaluation: the data stack (used by composition code
// to accumulate cells before committing them to a result array) and the
// mold buffer (used by text-building operations, principally MOLD/FORM).
// Both follow a push/pop-to-marker discipline so nested computations can
// drop back atomically, and both must be restored to their pre-fail
// snapshot by internal/unwind on any abnormal exit.
package stack

import "glyph/internal/cell"

// DataStack is a process-wide stack of cells. A Marker records depth so
// nested computations can truncate back to it.
type DataStack struct {
	cells []cell.Cell
}

type Marker int

func NewDataStack() *DataStack { return &DataStack{} }

// Push appends c and returns nothing; depth only ever grows by one per
// Push, matching the "stack position marker" discipline described in
// spec.md §4.6.
func (d *DataStack) Push(c cell.Cell) { d.cells = append(d.cells, c) }

// Mark returns the current depth, to be passed back to TruncateTo later.
func (d *DataStack) Mark() Marker { return Marker(len(d.cells)) }

// Depth is an alias for Mark used by invariant checks (spec.md §8: "for all
// expressions E: depth(data-stack) before == depth(data-stack) after").
func (d *DataStack) Depth() int { return len(d.cells) }

// Pop removes and returns the top cell. Popping past depth 0 is a usage bug
// in the caller (every Pop site is paired with a Push or a Mark check).
func (d *DataStack) Pop() cell.Cell {
	n := len(d.cells) - 1
	c := d.cells[n]
	d.cells = d.cells[:n]
	return c
}

// Peek returns the cell offset back from the top without popping.
func (d *DataStack) Peek(offset int) *cell.Cell {
	return &d.cells[len(d.cells)-1-offset]
}

// TruncateTo drops the stack back to a previously recorded marker — the
// atomic "drop" half of the push/pop discipline, and the exact operation a
// fail uses to restore the pre-trap snapshot (spec.md §4.11).
func (d *DataStack) TruncateTo(m Marker) {
	d.cells = d.cells[:int(m)]
}

// Slice exposes the segment from a marker to the current top, for
// composition code that wants to move a run of accumulated cells into a
// fresh array without copying one at a time.
func (d *DataStack) Slice(from Marker) []cell.Cell {
	return d.cells[int(from):]
}
