package node

import (
	"testing"

	"glyph/internal/cell"
	"glyph/internal/pool"
	"glyph/internal/symbol"
)

func newRegistry() *Registry {
	return NewRegistry(pool.New(false))
}

func TestArrayAppendAndAt(t *testing.T) {
	r := newRegistry()
	id := r.NewArray(2)
	arr := r.Array(id)
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})

	if arr.Len() != 2 {
		t.Fatalf("expected len 2, got %d", arr.Len())
	}
	if arr.At(1).Payload.A != 2 {
		t.Fatalf("expected element 1 to be 2, got %+v", arr.At(1))
	}
}

func TestArrayInsertHeadShiftsPriorElements(t *testing.T) {
	r := newRegistry()
	id := r.NewArray(2)
	arr := r.Array(id)
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})
	arr.InsertHead(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})

	if arr.Len() != 2 {
		t.Fatalf("expected len 2, got %d", arr.Len())
	}
	if arr.At(0).Payload.A != 1 || arr.At(1).Payload.A != 2 {
		t.Fatalf("expected [1 2], got [%v %v]", arr.At(0).Payload.A, arr.At(1).Payload.A)
	}
}

func TestArrayMutationPanicsWhenFrozen(t *testing.T) {
	r := newRegistry()
	id := r.NewArray(1)
	arr := r.Array(id)
	arr.Frozen = FrozenShallow

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Append on a frozen array to panic")
		}
	}()
	arr.Append(cell.Cell{Kind: cell.KindInteger})
}

func TestArrayChildrenCollectsNodeBearingCells(t *testing.T) {
	r := newRegistry()
	innerID := r.NewArray(1)
	outerID := r.NewArray(1)
	r.Array(outerID).Append(cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: innerID}})
	r.Array(outerID).Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 5}})

	children := r.Array(outerID).Children()
	if len(children) != 1 || children[0] != innerID {
		t.Fatalf("expected only the node-bearing cell's target in Children, got %+v", children)
	}
}

func TestContextAddKeyKeepsVarlistAndKeylistInLockstep(t *testing.T) {
	r := newRegistry()
	syms := symbol.NewTable()
	ctxID := r.NewContext(syms, ArchObject, false)

	r.AddKey(ctxID, syms.Intern("x"), 0, cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 10}})
	r.AddKey(ctxID, syms.Intern("y"), 0, cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 20}})

	ctx := r.Context(ctxID)
	if r.Array(ctx.Varlist).Len() != r.Array(ctx.Keylist).Len() {
		t.Fatalf("expected varlist/keylist lengths to stay equal")
	}
	if r.Array(ctx.Varlist).Len() != 3 { // archetype slot + 2 keys
		t.Fatalf("expected 3 varlist slots, got %d", r.Array(ctx.Varlist).Len())
	}
}

func TestContextFindKeyLocatesSlotSkippingArchetype(t *testing.T) {
	r := newRegistry()
	syms := symbol.NewTable()
	ctxID := r.NewContext(syms, ArchObject, false)
	r.AddKey(ctxID, syms.Intern("x"), 0, cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})

	slot, ok := r.FindKey(ctxID, syms.Intern("x"))
	if !ok || slot != 1 {
		t.Fatalf("expected to find x at slot 1, got slot=%d ok=%v", slot, ok)
	}

	if _, ok := r.FindKey(ctxID, syms.Intern("missing")); ok {
		t.Fatalf("expected lookup of an absent key to fail")
	}
}

func TestForkKeylistOnSharedKeylistCopiesOnExpand(t *testing.T) {
	r := newRegistry()
	syms := symbol.NewTable()
	base := r.NewContext(syms, ArchObject, false)
	r.AddKey(base, syms.Intern("a"), 0, cell.Cell{Kind: cell.KindInteger})

	shared := r.NewContext(syms, ArchObject, false)
	sharedCtx := r.Context(shared)
	sharedCtx.Keylist = r.Context(base).Keylist
	sharedCtx.Link = sharedCtx.Keylist
	sharedCtx.SharedKeylist = true
	// Give the varlist a slot for the borrowed key "a" so varlist and
	// keylist lengths match before AddKey, as the Context invariant needs.
	r.Array(sharedCtx.Varlist).Append(cell.Cell{Kind: cell.KindInteger})

	r.AddKey(shared, syms.Intern("b"), 0, cell.Cell{Kind: cell.KindInteger})

	if r.Context(shared).SharedKeylist {
		t.Fatalf("expected AddKey on a shared keylist to fork a private copy")
	}
	if r.Context(shared).Keylist == r.Context(base).Keylist {
		t.Fatalf("expected the forked keylist to be a distinct node from the original")
	}
	if _, ok := r.FindKey(base, syms.Intern("b")); ok {
		t.Fatalf("expected the original context's keylist to be unaffected by the fork")
	}
}

func TestTextAppendTracksCodepointsNotBytes(t *testing.T) {
	r := newRegistry()
	id := r.NewText([]byte("héllo"), false)
	txt := r.Text(id)
	if txt.CodepointLen() != 5 {
		t.Fatalf("expected 5 codepoints, got %d", txt.CodepointLen())
	}
	if txt.ByteLen() != len("héllo") {
		t.Fatalf("expected byte length to match the UTF-8 encoding, got %d", txt.ByteLen())
	}

	txt.Append([]byte("!"))
	if txt.CodepointLen() != 6 {
		t.Fatalf("expected 6 codepoints after append, got %d", txt.CodepointLen())
	}
}

func TestTextByteOffsetForCodepointResolvesMultibyteRunes(t *testing.T) {
	r := newRegistry()
	id := r.NewText([]byte("héllo"), false)
	txt := r.Text(id)

	off := txt.ByteOffsetForCodepoint(2) // past the 2-byte 'é'
	want := len("h") + len("é")
	if off != want {
		t.Fatalf("expected byte offset %d, got %d", want, off)
	}
}

func TestTextBinaryDoesNotTrackCodepoints(t *testing.T) {
	r := newRegistry()
	id := r.NewText([]byte{0xff, 0x00, 0xab}, true)
	txt := r.Text(id)
	if txt.CodepointLen() != 0 {
		t.Fatalf("expected binaries not to track codepoints, got %d", txt.CodepointLen())
	}
	if off := txt.ByteOffsetForCodepoint(2); off != 2 {
		t.Fatalf("expected binary offset resolution to be the identity, got %d", off)
	}
}
