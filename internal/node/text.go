package node

import (
	"unicode/utf8"

	"glyph/internal/pool"
)

// Bookmark caches the byte offset for a codepoint index, amortizing random
// access into a UTF-8 string (spec.md §3).
type Bookmark struct {
	CodepointIndex int
	ByteOffset     int
}

const bookmarkStride = 256 // add a bookmark roughly every this many codepoints

// Text is the shared representation for STRING! and BINARY!: a UTF-8 (or
// raw, for binaries) byte sequence. Strings used as symbols are interned
// separately (see internal/symbol) and never represented as a Text node.
type Text struct {
	Base
	bytes     *pool.Dynamic[byte]
	isBinary  bool
	codepoints int
	bookmarks []Bookmark
}

func (r *Registry) NewText(initial []byte, isBinary bool) pool.NodeID {
	t := &Text{Base: Base{Kind: KindString}, bytes: pool.NewDynamic[byte](r.Pool, len(initial)), isBinary: isBinary}
	if len(initial) > 0 {
		t.bytes.InsertMiddle(0, initial...)
		if !isBinary {
			t.codepoints = utf8.RuneCount(initial)
		}
	}
	id := r.Pool.Alloc(t)
	r.Pool.MarkManual(id)
	return id
}

func (r *Registry) Text(id pool.NodeID) *Text { return r.Pool.Get(id).(*Text) }

func (t *Text) Bytes() []byte { return t.bytes.Slice() }
func (t *Text) ByteLen() int  { return t.bytes.Len() }

// CodepointLen is meaningless for binaries; callers should check IsBinary.
func (t *Text) CodepointLen() int { return t.codepoints }
func (t *Text) IsBinary() bool    { return t.isBinary }

// ByteOffsetForCodepoint resolves a codepoint index to a byte offset,
// walking forward from the nearest bookmark at or before idx and recording
// a new bookmark if the walk was long enough to be worth caching.
func (t *Text) ByteOffsetForCodepoint(idx int) int {
	if t.isBinary {
		return idx
	}
	startByte, startCP := 0, 0
	for _, bm := range t.bookmarks {
		if bm.CodepointIndex <= idx && bm.CodepointIndex > startCP {
			startByte, startCP = bm.ByteOffset, bm.CodepointIndex
		}
	}
	b := t.bytes.Slice()
	off, cp := startByte, startCP
	for cp < idx {
		_, size := utf8.DecodeRune(b[off:])
		off += size
		cp++
	}
	if idx-startCP > bookmarkStride {
		t.bookmarks = append(t.bookmarks, Bookmark{CodepointIndex: idx, ByteOffset: off})
	}
	return off
}

// Append adds raw bytes to the tail and invalidates nothing: bookmarks
// before the append point remain valid since they only cache prefix
// offsets.
func (t *Text) Append(b []byte) {
	t.bytes.InsertMiddle(t.bytes.Len(), b...)
	if !t.isBinary {
		t.codepoints += utf8.RuneCount(b)
	}
}

func (t *Text) Children() []pool.NodeID { return childrenFromBase(&t.Base, nil) }
