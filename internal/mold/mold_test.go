package mold

import (
	"testing"

	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/stack"
	"glyph/internal/symbol"
)

func newMolder() *Molder {
	p := pool.New(false)
	nodes := node.NewRegistry(p)
	syms := symbol.NewTable()
	return New(nodes, syms, stack.NewMoldBuffer(), stack.NewMoldStack())
}

func TestMoldQuotesStringsFormDoesNot(t *testing.T) {
	m := newMolder()
	id := m.Nodes.NewText([]byte("hi"), false)
	c := cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}

	if got := m.Mold(c); got != `"hi"` {
		t.Fatalf("expected molded string to be quoted, got %q", got)
	}
	if got := m.Form(c); got != "hi" {
		t.Fatalf("expected formed string to be unquoted, got %q", got)
	}
}

func TestMoldInteger(t *testing.T) {
	m := newMolder()
	var v int64 = -5
	c := cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(v)}}
	if got := m.Mold(c); got != "-5" {
		t.Fatalf("expected -5, got %q", got)
	}
}

func TestMoldBlockJoinsWithSpaces(t *testing.T) {
	m := newMolder()
	arrID := m.Nodes.NewArray(2)
	arr := m.Nodes.Array(arrID)
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 1}})
	arr.Append(cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 2}})

	c := cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: arrID}}
	if got := m.Mold(c); got != "[1 2]" {
		t.Fatalf("expected [1 2], got %q", got)
	}
}

func TestMoldCyclicalBlockEmitsEllipsis(t *testing.T) {
	m := newMolder()
	arrID := m.Nodes.NewArray(1)
	arr := m.Nodes.Array(arrID)
	selfCell := cell.Cell{Kind: cell.KindBlock, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: arrID}}
	arr.Append(selfCell)

	got := m.Mold(selfCell)
	if got != "[[...]]" {
		t.Fatalf("expected cyclical mold to terminate with an ellipsis marker, got %q", got)
	}
}

func TestMoldWordUsesInternedSpelling(t *testing.T) {
	m := newMolder()
	sym := m.Syms.Intern("foo")
	c := cell.Cell{Kind: cell.KindWord, Payload: cell.Payload{A: uint64(sym)}}
	if got := m.Mold(c); got != "foo" {
		t.Fatalf("expected %q, got %q", "foo", got)
	}

	setC := cell.Cell{Kind: cell.KindSetWord, Payload: cell.Payload{A: uint64(sym)}}
	if got := m.Mold(setC); got != "foo:" {
		t.Fatalf("expected %q, got %q", "foo:", got)
	}

	getC := cell.Cell{Kind: cell.KindGetWord, Payload: cell.Payload{A: uint64(sym)}}
	if got := m.Mold(getC); got != ":foo" {
		t.Fatalf("expected %q, got %q", ":foo", got)
	}
}

func TestMoldQuotedPrependsTicks(t *testing.T) {
	m := newMolder()
	c := cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: 3}, QuoteDepth: 2}
	if got := m.Mold(c); got != "''3" {
		t.Fatalf("expected ''3, got %q", got)
	}
}
