// Package frame implements the evaluator activation record and its source
// cursor (Feed), forming the singly-linked frame stack the evaluator walks.
package frame

import (
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
)

// Generator produces the next cell of a variadic feed on demand, returning
// ok=false once exhausted. Used by the variadic C-API analogue (internal/
// api) to splice host-supplied arguments into evaluation without first
// materializing them into an array.
type Generator func() (cell.Cell, bool)

// Feed is either a cursor into a concrete array (Array/Index/Spec) or a
// variadic generator. Exactly one of Array or Gen is set.
type Feed struct {
	Array pool.NodeID // InvalidNode when variadic
	Index int
	Spec  *bind.Specifier

	Gen       Generator
	genLookahead *cell.Cell // buffered one-cell lookahead for variadic feeds
	genDone   bool

	nodes *node.Registry
}

// NewArrayFeed starts a feed at the head of arr (or at index, for a
// continuation), relative to spec.
func NewArrayFeed(nodes *node.Registry, arr pool.NodeID, index int, spec *bind.Specifier) *Feed {
	return &Feed{Array: arr, Index: index, Spec: spec, nodes: nodes}
}

// NewVariadicFeed wraps a generator as a feed, per the variadic API's
// "evaluate a heterogeneous argument list" entry points.
func NewVariadicFeed(gen Generator) *Feed {
	return &Feed{Array: pool.InvalidNode, Gen: gen}
}

// AtEnd reports whether the feed has no more cells.
func (f *Feed) AtEnd() bool {
	if f.Gen != nil {
		if f.genLookahead == nil && !f.genDone {
			f.pull()
		}
		return f.genLookahead == nil
	}
	arr := f.nodes.Array(f.Array)
	return f.Index >= arr.Len()
}

func (f *Feed) pull() {
	c, ok := f.Gen()
	if !ok {
		f.genDone = true
		f.genLookahead = nil
		return
	}
	cp := c
	f.genLookahead = &cp
}

// Peek returns the leading cell without consuming it.
func (f *Feed) Peek() *cell.Cell {
	if f.Gen != nil {
		if f.genLookahead == nil && !f.genDone {
			f.pull()
		}
		return f.genLookahead
	}
	arr := f.nodes.Array(f.Array)
	if f.Index >= arr.Len() {
		return nil
	}
	return arr.At(f.Index)
}

// Next consumes and returns the leading cell, advancing the cursor.
func (f *Feed) Next() *cell.Cell {
	c := f.Peek()
	if c == nil {
		return nil
	}
	if f.Gen != nil {
		f.genLookahead = nil
	} else {
		f.Index++
	}
	return c
}

// Checkpoint/Restore save and restore an array feed's index so a reader
// can backtrack. Enfix lookahead does not use them: it inspects the next
// cell with Peek and only consumes it once it is known to be an enfix call.
type Checkpoint struct {
	index int
}

func (f *Feed) Checkpoint() Checkpoint { return Checkpoint{index: f.Index} }
func (f *Feed) Restore(c Checkpoint)   { f.Index = c.index }
