package stack

import (
	"testing"

	"glyph/internal/cell"
)

func TestDataStackPushMarkTruncate(t *testing.T) {
	d := NewDataStack()
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	mark := d.Mark()
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 3}})

	if d.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", d.Depth())
	}
	d.TruncateTo(mark)
	if d.Depth() != 1 {
		t.Fatalf("expected depth 1 after truncate, got %d", d.Depth())
	}
	if d.Peek(0).Payload.A != 1 {
		t.Fatalf("expected the pre-mark cell to survive, got %+v", d.Peek(0))
	}
}

func TestDataStackPopReturnsTopAndShrinks(t *testing.T) {
	d := NewDataStack()
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 10}})
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 20}})

	got := d.Pop()
	if got.Payload.A != 20 {
		t.Fatalf("expected to pop the most recently pushed cell, got %+v", got)
	}
	if d.Depth() != 1 {
		t.Fatalf("expected depth 1 after pop, got %d", d.Depth())
	}
}

func TestDataStackSliceFromMarker(t *testing.T) {
	d := NewDataStack()
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	mark := d.Mark()
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})
	d.Push(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 3}})

	seg := d.Slice(mark)
	if len(seg) != 2 || seg[0].Payload.A != 2 || seg[1].Payload.A != 3 {
		t.Fatalf("expected the post-mark segment, got %+v", seg)
	}
}

func TestMoldBufferPushPopRoundTrip(t *testing.T) {
	b := NewMoldBuffer()
	b.WriteString("hello ")
	mark := b.Push()
	b.WriteString("world")

	got := b.Pop(mark)
	if got != "world" {
		t.Fatalf("expected the post-mark segment, got %q", got)
	}
	if b.Len() != len("hello ") {
		t.Fatalf("expected the buffer to shrink back to the mark, got len %d", b.Len())
	}
}

func TestMoldBufferDropDiscardsSegment(t *testing.T) {
	b := NewMoldBuffer()
	b.WriteString("kept")
	mark := b.Push()
	b.WriteString("discarded")
	b.Drop(mark)

	if b.Len() != len("kept") {
		t.Fatalf("expected Drop to roll back to the mark, got len %d", b.Len())
	}
}

func TestMoldBufferTruncateToRestoresSnapshot(t *testing.T) {
	b := NewMoldBuffer()
	b.WriteString("abc")
	byteLen, cpLen := b.Len(), b.CodepointLen()
	b.WriteString("日本語")

	b.TruncateTo(byteLen, cpLen)
	if b.Len() != byteLen || b.CodepointLen() != cpLen {
		t.Fatalf("expected TruncateTo to restore the snapshot exactly, got len=%d cp=%d", b.Len(), b.CodepointLen())
	}
}

func TestMoldStackEnterDetectsCycleAndLeaveUnwinds(t *testing.T) {
	s := NewMoldStack()
	if cycle := s.Enter(1); cycle {
		t.Fatalf("expected the first Enter of a fresh id not to report a cycle")
	}
	if cycle := s.Enter(1); !cycle {
		t.Fatalf("expected re-entering the same id to report a cycle")
	}
	if s.Len() != 1 {
		t.Fatalf("expected the cycle detection not to push a duplicate entry, got len %d", s.Len())
	}
	s.Leave()
	if s.Len() != 0 {
		t.Fatalf("expected Leave to pop the entry, got len %d", s.Len())
	}
}

func TestMoldStackTruncateToUnwindsTail(t *testing.T) {
	s := NewMoldStack()
	s.Enter(1)
	n := s.Len()
	s.Enter(2)
	s.Enter(3)

	s.TruncateTo(n)
	if s.Len() != n {
		t.Fatalf("expected TruncateTo to drop back to the recorded depth, got %d", s.Len())
	}
	if s.Enter(2) {
		t.Fatalf("expected id 2 to have been released by TruncateTo, but it still reports a cycle")
	}
}
