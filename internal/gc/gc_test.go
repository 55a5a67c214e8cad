package gc

import (
	"testing"

	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/stack"
	"glyph/internal/symbol"
)

func newHarness() (*pool.Pool, *node.Registry, *frame.Stack, *stack.DataStack) {
	p := pool.New(false)
	return p, node.NewRegistry(p), frame.NewStack(), stack.NewDataStack()
}

func TestCollectFreesUnreachableManagedArray(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	id := nodes.NewArray(1)
	p.PromoteManaged(id)

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected the unreferenced managed array to be swept and freed")
		}
	}()
	p.Get(id)
}

func TestCollectKeepsManagedArrayReachableFromDataStack(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	id := nodes.NewArray(1)
	p.PromoteManaged(id)
	data.Push(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}})

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if got := p.Get(id); got == nil {
		t.Fatalf("expected the data-stack-referenced array to survive collection")
	}
}

func TestCollectKeepsManagedArrayReachableFromFrameOut(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	id := nodes.NewArray(1)
	p.PromoteManaged(id)

	f := &frame.Frame{Out: cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}}
	frames.Push(f)

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if got := p.Get(id); got == nil {
		t.Fatalf("expected the frame-out-referenced array to survive collection")
	}
}

func TestCollectLeavesManualNodesAlone(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	id := nodes.NewArray(1) // left manual, never promoted

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if got := p.Get(id); got == nil {
		t.Fatalf("expected a manual (unmanaged) node not to be swept by the collector")
	}
}

func TestCollectTransitivelyMarksNestedArrays(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	innerID := nodes.NewArray(1)
	outerID := nodes.NewArray(1)
	nodes.Array(outerID).Append(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: innerID}})
	p.PromoteManaged(innerID)
	p.PromoteManaged(outerID)

	data.Push(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: outerID}})

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if got := p.Get(innerID); got == nil {
		t.Fatalf("expected the nested array reachable only through the outer array to survive")
	}
}

func TestCollectFiresHandleCleanerOnSweep(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	fired := false
	id := nodes.NewHandle("payload", func(any) { fired = true })
	p.PromoteManaged(id)

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if !fired {
		t.Fatalf("expected sweeping an unreachable handle to fire its cleaner")
	}
}

func TestCollectKeepsSpecifierChainReachable(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	syms := symbol.NewTable()
	outerCtx := nodes.NewContext(syms, node.ArchObject, false)
	innerCtx := nodes.NewContext(syms, node.ArchObject, false)
	p.PromoteManaged(outerCtx)
	p.PromoteManaged(innerCtx)

	outerSpec := &bind.Specifier{Kind: bind.Concrete, Context: outerCtx}
	innerSpec := &bind.Specifier{Kind: bind.Concrete, Context: innerCtx, Outer: outerSpec}

	f := &frame.Frame{Binding: innerSpec}
	frames.Push(f)

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	if got := p.Get(outerCtx); got == nil {
		t.Fatalf("expected the outer context reachable only through the specifier chain to survive")
	}
}

func TestLastCycleReportsSweptCount(t *testing.T) {
	p, nodes, frames, data := newHarness()
	c := New(p, nodes, 1<<30, false)

	id := nodes.NewArray(1)
	p.PromoteManaged(id)

	c.Collect(Roots{Frames: frames, DataStack: data, Pool: p})

	swept, _ := c.LastCycle()
	if swept < 1 {
		t.Fatalf("expected at least one node swept, got %d", swept)
	}
}

func TestShouldCollectHonorsBallastThreshold(t *testing.T) {
	c := New(pool.New(false), nil, 100, false)
	if c.ShouldCollect() {
		t.Fatalf("expected a fresh collector under the ballast threshold not to want collection")
	}
	c.NoteAlloc(150)
	if !c.ShouldCollect() {
		t.Fatalf("expected exceeding the ballast threshold to request collection")
	}
}

func TestShouldCollectAlwaysTrueUnderTorture(t *testing.T) {
	c := New(pool.New(false), nil, 1<<30, true)
	if !c.ShouldCollect() {
		t.Fatalf("expected torture mode to request collection unconditionally")
	}
}
