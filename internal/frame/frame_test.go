package frame

import (
	"testing"

	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
)

func TestStackPushThreadsPriorToPreviousTop(t *testing.T) {
	s := NewStack()
	bottom := &Frame{Label: "bottom"}
	s.Push(bottom)
	top := &Frame{Label: "top"}
	s.Push(top)

	if s.Top() != top {
		t.Fatalf("expected Top to be the most recently pushed frame")
	}
	if top.Prior != bottom {
		t.Fatalf("expected Push to thread Prior to the previous top")
	}
	if bottom.Prior != nil {
		t.Fatalf("expected the first-pushed frame's Prior to remain nil")
	}
}

func TestStackPopReturnsMostRecentlyPushed(t *testing.T) {
	s := NewStack()
	a := &Frame{}
	b := &Frame{}
	s.Push(a)
	s.Push(b)

	if got := s.Pop(); got != b {
		t.Fatalf("expected Pop to return the top frame")
	}
	if s.Depth() != 1 {
		t.Fatalf("expected depth 1 after popping, got %d", s.Depth())
	}
}

func TestStackBottomAndTopOnEmptyStack(t *testing.T) {
	s := NewStack()
	if s.Top() != nil || s.Bottom() != nil {
		t.Fatalf("expected Top/Bottom of an empty stack to be nil")
	}
}

func TestNearestFlaggedWalksThroughUnflaggedIntervening(t *testing.T) {
	s := NewStack()
	loopFrame := &Frame{Flags: FlagLoopBody}
	s.Push(loopFrame)
	ifFrame := &Frame{} // e.g. an IF dispatched inside the loop body, no flag of its own
	s.Push(ifFrame)

	got := ifFrame.NearestFlagged(FlagLoopBody)
	if got != loopFrame {
		t.Fatalf("expected NearestFlagged to walk past the unflagged frame to the loop frame")
	}
}

func TestNearestFlaggedReturnsNilWhenNoneMatch(t *testing.T) {
	f := &Frame{}
	if got := f.NearestFlagged(FlagFunctionBody); got != nil {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestAbortAboveUnwindsDownToBarrierAndFlagsFailed(t *testing.T) {
	s := NewStack()
	barrier := &Frame{}
	s.Push(barrier)
	mid := &Frame{}
	s.Push(mid)
	top := &Frame{}
	s.Push(top)

	s.AbortAbove(barrier)

	if s.Top() != barrier {
		t.Fatalf("expected the stack to unwind back to the barrier frame")
	}
	if mid.Flags&FlagFailed == 0 || top.Flags&FlagFailed == 0 {
		t.Fatalf("expected every aborted frame to carry FlagFailed")
	}
	if barrier.Flags&FlagFailed != 0 {
		t.Fatalf("expected the barrier frame itself to be left untouched")
	}
}

func TestWalkVisitsTopToBottomAndHonorsEarlyStop(t *testing.T) {
	s := NewStack()
	a := &Frame{Label: "a"}
	b := &Frame{Label: "b"}
	c := &Frame{Label: "c"}
	s.Push(a)
	s.Push(b)
	s.Push(c)

	var seen []string
	s.Walk(func(f *Frame) bool {
		seen = append(seen, f.Label)
		return f.Label != "b"
	})

	if len(seen) != 2 || seen[0] != "c" || seen[1] != "b" {
		t.Fatalf("expected to walk top-down and stop after b, got %v", seen)
	}
}

func TestArrayFeedPeekNextAndAtEnd(t *testing.T) {
	p := pool.New(false)
	nodes := node.NewRegistry(p)
	id := nodes.NewArray(2)
	arr := nodes.Array(id)
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})

	f := NewArrayFeed(nodes, id, 0, nil)
	if f.AtEnd() {
		t.Fatalf("expected a fresh feed over a non-empty array not to be at end")
	}
	if f.Peek().Payload.A != 1 {
		t.Fatalf("expected Peek to return the leading cell without consuming it")
	}
	if f.Next().Payload.A != 1 {
		t.Fatalf("expected Next to return the leading cell")
	}
	if f.Next().Payload.A != 2 {
		t.Fatalf("expected Next to advance the cursor")
	}
	if !f.AtEnd() {
		t.Fatalf("expected the feed to report AtEnd once exhausted")
	}
}

func TestArrayFeedCheckpointRestore(t *testing.T) {
	p := pool.New(false)
	nodes := node.NewRegistry(p)
	id := nodes.NewArray(2)
	arr := nodes.Array(id)
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})

	f := NewArrayFeed(nodes, id, 0, nil)
	cp := f.Checkpoint()
	f.Next()
	f.Restore(cp)
	if f.Next().Payload.A != 1 {
		t.Fatalf("expected Restore to rewind the cursor to the checkpoint")
	}
}

func TestVariadicFeedPullsFromGeneratorLazily(t *testing.T) {
	values := []cell.Cell{
		{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}},
		{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}},
	}
	i := 0
	gen := func() (cell.Cell, bool) {
		if i >= len(values) {
			return cell.Cell{}, false
		}
		v := values[i]
		i++
		return v, true
	}

	f := NewVariadicFeed(gen)
	if f.Next().Payload.A != 1 {
		t.Fatalf("expected the first generated value")
	}
	if f.Next().Payload.A != 2 {
		t.Fatalf("expected the second generated value")
	}
	if !f.AtEnd() {
		t.Fatalf("expected the feed to be exhausted once the generator returns ok=false")
	}
}
