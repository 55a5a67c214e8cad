package gc

import (
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/pool"
)

type markable interface {
	Marked() bool
	SetMarked(bool)
	Children() []pool.NodeID
}

// mark walks every root uniformly and transitively marks every node it can
// reach through the node.Node.Children() enumeration, without a per-kind
// switch — the whole point of the uniform node shape (spec.md §4.5).
func (c *Collector) mark(roots Roots) {
	var gray []pool.NodeID
	push := func(id pool.NodeID) {
		if id == pool.InvalidNode {
			return
		}
		n, ok := c.nodes.Pool.Get(id).(markable)
		if !ok || n.Marked() {
			return
		}
		gray = append(gray, id)
	}

	// Live frames: argument varlists, output cells, feed arrays, specifiers.
	if roots.Frames != nil {
		roots.Frames.Walk(func(f *frame.Frame) bool {
			push(f.Varlist)
			push(f.Phase)
			push(f.Original)
			pushCell(&f.Out, push)
			if f.Feed != nil && f.Feed.Array != pool.InvalidNode {
				push(f.Feed.Array)
			}
			pushSpecifier(f.Binding, push)
			return true
		})
	}

	// The data stack, up to its current depth.
	if roots.DataStack != nil {
		for i := 0; i < roots.DataStack.Depth(); i++ {
			pushCell(roots.DataStack.Peek(i), push)
		}
	}

	// The manuals registry and the guarded-node list.
	for _, id := range roots.Pool.ManualRoots() {
		push(id)
	}
	for _, id := range roots.Pool.GuardedRoots() {
		push(id)
	}

	// Named globals (system object, lib/sys contexts, standard error
	// templates, the pre-built stack-overflow error, ...).
	if roots.Globals != nil {
		for _, id := range roots.Globals() {
			push(id)
		}
	}

	for len(gray) > 0 {
		id := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		n := c.nodes.Pool.Get(id).(markable)
		if n.Marked() {
			continue
		}
		n.SetMarked(true)
		for _, child := range n.Children() {
			push(child)
		}
	}
}

func pushCell(cl *cell.Cell, push func(pool.NodeID)) {
	if cl == nil {
		return
	}
	if cl.Flags&cell.FlagFirstIsNode != 0 && cl.Payload.Node != pool.InvalidNode {
		push(cl.Payload.Node)
	}
	if cl.Binding != pool.InvalidNode {
		push(cl.Binding)
	}
}

func pushSpecifier(s *bind.Specifier, push func(pool.NodeID)) {
	for ; s != nil; s = s.Outer {
		push(s.Context)
		push(s.Paramlist)
	}
}
