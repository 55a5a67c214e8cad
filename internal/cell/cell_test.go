package cell

import (
	"testing"

	"glyph/internal/pool"
)

func TestResetProducesTrash(t *testing.T) {
	c := Cell{Kind: KindInteger, Payload: Payload{A: 42}}
	c.Reset()
	if !c.IsTrash() {
		t.Fatalf("expected trash after Reset, got kind %v", c.Kind)
	}
}

func TestSetNulledIsDistinctFromEveryDatatype(t *testing.T) {
	c := Cell{Kind: KindInteger}
	c.SetNulled()
	if !c.IsNulled() {
		t.Fatalf("expected nulled cell")
	}
	if c.Kind == KindInteger || c.Kind == KindBlank || c.Kind == KindLogic {
		t.Fatalf("nulled must not collide with any datatype kind, got %v", c.Kind)
	}
}

func TestMoveClearsCheckedFlag(t *testing.T) {
	src := Cell{Kind: KindInteger, Flags: FlagChecked, Payload: Payload{A: 7}}
	var dst Cell
	Move(&dst, &src)
	if dst.Payload.A != 7 || dst.Kind != KindInteger {
		t.Fatalf("Move did not copy payload/kind: %+v", dst)
	}
	if dst.Flags&FlagChecked != 0 {
		t.Fatalf("Move must clear FlagChecked on the destination, a moved argument must be rechecked at its new site")
	}
}

func TestMovePreservesOtherFlags(t *testing.T) {
	src := Cell{Kind: KindText, Flags: FlagFirstIsNode | FlagConst}
	var dst Cell
	Move(&dst, &src)
	if dst.Flags&FlagFirstIsNode == 0 {
		t.Fatalf("Move must preserve FlagFirstIsNode so the GC can still enumerate the node")
	}
	if dst.Flags&FlagConst == 0 {
		t.Fatalf("Move must preserve FlagConst")
	}
}

func TestQuoteInlineThenOverflow(t *testing.T) {
	c := Cell{Kind: KindInteger, Payload: Payload{A: 5}}
	spillCalls := 0
	spill := func(inner Cell) pool.NodeID {
		spillCalls++
		return pool.NodeID(99)
	}

	for i := 0; i < maxInlineQuoteDepth; i++ {
		Quote(&c, spill)
	}
	if c.Kind != KindInteger || c.QuoteDepth != maxInlineQuoteDepth {
		t.Fatalf("expected %d inline quotes, got kind=%v depth=%d", maxInlineQuoteDepth, c.Kind, c.QuoteDepth)
	}
	if spillCalls != 0 {
		t.Fatalf("spill must not be called before the inline counter overflows")
	}

	Quote(&c, spill)
	if c.Kind != KindQuoted {
		t.Fatalf("expected overflow to KindQuoted, got %v", c.Kind)
	}
	if spillCalls != 1 {
		t.Fatalf("expected exactly one spill call on overflow, got %d", spillCalls)
	}
	if c.Payload.Node != pool.NodeID(99) {
		t.Fatalf("expected overflow cell to reference the spilled array")
	}

	// Once overflowed, further quoting increments the overflow counter in
	// place rather than re-spilling.
	Quote(&c, spill)
	if spillCalls != 1 {
		t.Fatalf("re-quoting an overflowed cell must not spill again")
	}
	if c.Payload.A != maxInlineQuoteDepth+2 {
		t.Fatalf("expected overflow depth counter to advance, got %d", c.Payload.A)
	}
}

func TestUnescapeRoundTripsInlineDepth(t *testing.T) {
	c := Cell{Kind: KindInteger, Payload: Payload{A: 3}, QuoteDepth: 2}
	inner, depth := Unescape(&c, func(pool.NodeID) (*Cell, uint64) {
		t.Fatalf("overflow callback must not run for an in-cell quote depth")
		return nil, 0
	})
	if inner != &c {
		t.Fatalf("expected Unescape to return the same cell when not overflowed")
	}
	if depth != 2 {
		t.Fatalf("expected depth 2, got %d", depth)
	}
}

func TestUnescapeDelegatesOnOverflow(t *testing.T) {
	spilled := Cell{Kind: KindText}
	c := Cell{Kind: KindQuoted, Payload: Payload{A: 300, Node: 5}}
	inner, depth := Unescape(&c, func(id pool.NodeID) (*Cell, uint64) {
		if id != 5 {
			t.Fatalf("expected overflow callback to receive the stored node id, got %d", id)
		}
		return &spilled, 300
	})
	if inner != &spilled || depth != 300 {
		t.Fatalf("expected delegated (inner, depth), got (%v, %d)", inner, depth)
	}
}

func TestDequoteInlineThenOverflow(t *testing.T) {
	c := Cell{Kind: KindInteger, QuoteDepth: 1}
	Dequote(&c, func(pool.NodeID) Cell {
		t.Fatalf("unspill must not run while depth still fits in-cell")
		return Cell{}
	})
	if c.QuoteDepth != 0 {
		t.Fatalf("expected inline depth to reach zero, got %d", c.QuoteDepth)
	}

	// Dequoting a non-quoted cell is defined as a no-op.
	before := c
	Dequote(&c, func(pool.NodeID) Cell { return Cell{} })
	if c != before {
		t.Fatalf("Dequote on a non-quoted cell must be a no-op")
	}

	overflowed := Cell{Kind: KindQuoted, Payload: Payload{A: maxInlineQuoteDepth + 2}}
	Dequote(&overflowed, func(pool.NodeID) Cell {
		t.Fatalf("decrementing an overflow counter above the threshold must not unspill")
		return Cell{}
	})
	if overflowed.Payload.A != maxInlineQuoteDepth+1 {
		t.Fatalf("expected overflow counter to decrement, got %d", overflowed.Payload.A)
	}

	atThreshold := Cell{Kind: KindQuoted, Payload: Payload{A: maxInlineQuoteDepth + 1, Node: 7}}
	restored := Cell{Kind: KindInteger, Payload: Payload{A: 11}}
	Dequote(&atThreshold, func(id pool.NodeID) Cell {
		if id != 7 {
			t.Fatalf("expected unspill to receive the stored node id")
		}
		return restored
	})
	if atThreshold != restored {
		t.Fatalf("expected Dequote at the overflow threshold to unspill the stored cell, got %+v", atThreshold)
	}
}
