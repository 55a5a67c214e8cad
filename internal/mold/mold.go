// Package mold implements MOLD/FORM: turning a cell into its textual
// representation, reusing the shared mold buffer and mold-loop stack from
// internal/stack so nested and cyclical structures stay cheap and safe.
package mold

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"glyph/internal/cell"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/stack"
	"glyph/internal/symbol"
)

// Molder bundles the subsystems rendering a value to text needs: the node
// registry (to walk arrays/contexts), the symbol table (to recover word
// spellings), and the two shared mold-time scratch structures.
type Molder struct {
	Nodes *node.Registry
	Syms  *symbol.Table
	Buf   *stack.MoldBuffer
	Loop  *stack.MoldStack
}

func New(nodes *node.Registry, syms *symbol.Table, buf *stack.MoldBuffer, loop *stack.MoldStack) *Molder {
	return &Molder{Nodes: nodes, Syms: syms, Buf: buf, Loop: loop}
}

// Mold renders c the way MOLD does: machine-readable, strings quoted.
func (m *Molder) Mold(c cell.Cell) string { return m.render(c, false, false) }

// Form renders c the way FORM does: human-readable, strings unquoted.
func (m *Molder) Form(c cell.Cell) string { return m.render(c, true, false) }

// FormatAll is "mold all" construction syntax: every value round-trips
// through LOAD when possible. Kinds this rewrite hasn't proven loadable
// (actions, contexts, handles, pairings) fall back to a clearly-marked,
// non-loadable `#[kind! ...]` placeholder instead of emitting something
// that would silently fail to reload — the conservative resolution of
// spec.md §9's open question on construction syntax completeness.
func (m *Molder) FormatAll(c cell.Cell) string { return m.render(c, false, true) }

func (m *Molder) render(c cell.Cell, form, all bool) string {
	mark := m.Buf.Push()
	m.writeCell(c, form, all)
	return m.Buf.Pop(mark)
}

func (m *Molder) writeCell(c cell.Cell, form, all bool) {
	switch {
	case c.Kind == cell.KindQuoted:
		m.Buf.WriteString(strings.Repeat("'", 1))
		m.writeArchetypeQuoted(c, form, all)
		return
	case c.QuoteDepth > 0:
		m.Buf.WriteString(strings.Repeat("'", int(c.QuoteDepth)))
	}

	switch c.Kind {
	case cell.KindNulled:
		if form {
			return
		}
		m.Buf.WriteString("~null~")
	case cell.KindBlank:
		m.Buf.WriteString("_")
	case cell.KindLogic:
		if c.Payload.A != 0 {
			m.Buf.WriteString("true")
		} else {
			m.Buf.WriteString("false")
		}
	case cell.KindInteger:
		m.Buf.WriteString(strconv.FormatInt(int64(c.Payload.A), 10))
	case cell.KindDecimal:
		m.Buf.WriteString(strconv.FormatFloat(math.Float64frombits(c.Payload.A), 'g', -1, 64))
	case cell.KindText:
		m.writeText(c, form)
	case cell.KindBinary:
		m.writeBinary(c)
	case cell.KindWord:
		m.writeWordSpelling(c)
	case cell.KindGetWord:
		m.Buf.WriteString(":")
		m.writeWordSpelling(c)
	case cell.KindSetWord:
		m.writeWordSpelling(c)
		m.Buf.WriteString(":")
	case cell.KindLitWord:
		m.Buf.WriteString("'")
		m.writeWordSpelling(c)
	case cell.KindBlock:
		m.writeArray(c, "[", "]", " ", form, all)
	case cell.KindGroup:
		m.writeArray(c, "(", ")", " ", form, all)
	case cell.KindPath:
		m.writeArray(c, "", "", "/", form, all)
	case cell.KindSetPath:
		m.writeArray(c, "", "", "/", form, all)
		m.Buf.WriteString(":")
	case cell.KindGetPath:
		m.Buf.WriteString(":")
		m.writeArray(c, "", "", "/", form, all)
	case cell.KindLitPath:
		m.Buf.WriteString("'")
		m.writeArray(c, "", "", "/", form, all)
	case cell.KindAction:
		m.Buf.WriteString("#[action! ...]")
	case cell.KindContext:
		m.writeContext(c, all)
	case cell.KindPairing:
		m.Buf.WriteString("#[pairing! ...]")
	case cell.KindHandle:
		m.Buf.WriteString("#[handle! ...]")
	default:
		m.Buf.WriteString(fmt.Sprintf("#[%s]", c.Kind.String()))
	}
}

func (m *Molder) writeArchetypeQuoted(c cell.Cell, form, all bool) {
	inner, ok := m.Nodes.Pool.Get(c.Payload.Node).(*node.Array)
	if !ok || inner.Len() == 0 {
		return
	}
	m.writeCell(*inner.At(0), form, all)
}

func (m *Molder) writeText(c cell.Cell, form bool) {
	t := m.Nodes.Text(c.Payload.Node)
	s := string(t.Bytes())
	if form {
		m.Buf.WriteString(s)
		return
	}
	m.Buf.WriteString(`"`)
	m.Buf.WriteString(strings.ReplaceAll(s, `"`, `^"`))
	m.Buf.WriteString(`"`)
}

func (m *Molder) writeBinary(c cell.Cell) {
	t := m.Nodes.Text(c.Payload.Node)
	m.Buf.WriteString("#{")
	for _, b := range t.Bytes() {
		m.Buf.WriteString(fmt.Sprintf("%02X", b))
	}
	m.Buf.WriteString("}")
}

func (m *Molder) writeWordSpelling(c cell.Cell) {
	m.Buf.WriteString(m.Syms.Spelling(symbol.ID(c.Payload.A)))
}

// writeArray handles every array-backed kind uniformly: cycle-guarded via
// Loop, delimited and joined per caller-supplied bracket/separator.
func (m *Molder) writeArray(c cell.Cell, open, close, sep string, form, all bool) {
	if c.Flags&cell.FlagFirstIsNode == 0 || c.Payload.Node == pool.InvalidNode {
		m.Buf.WriteString(open + close)
		return
	}
	id := uint32(c.Payload.Node)
	if m.Loop.Enter(id) {
		m.Buf.WriteString(open + "..." + close)
		return
	}
	defer m.Loop.Leave()

	arr := m.Nodes.Array(c.Payload.Node)
	m.Buf.WriteString(open)
	for i, cc := range arr.Slice() {
		if i > 0 {
			m.Buf.WriteString(sep)
		}
		m.writeCell(cc, form, all)
	}
	m.Buf.WriteString(close)
}

// writeContext renders an object conservatively: in "mold all" mode its
// key/value pairs are emitted as a loadable construction block; otherwise
// the non-loadable summary marker, matching the rest of this package's
// round-trip-proven-or-marker rule.
func (m *Molder) writeContext(c cell.Cell, all bool) {
	if !all || c.Flags&cell.FlagFirstIsNode == 0 {
		m.Buf.WriteString("#[object! ...]")
		return
	}
	id := uint32(c.Payload.Node)
	if m.Loop.Enter(id) {
		m.Buf.WriteString("#[object! ...]")
		return
	}
	defer m.Loop.Leave()

	ctx := m.Nodes.Context(c.Payload.Node)
	varlist := m.Nodes.Array(ctx.Varlist)
	keylist := m.Nodes.Array(ctx.Keylist)
	m.Buf.WriteString("make object! [")
	for i := 1; i < varlist.Len(); i++ {
		kc := keylist.At(i)
		m.Buf.WriteString(m.Syms.Spelling(symbol.ID(kc.Payload.A >> 1)))
		m.Buf.WriteString(": ")
		m.writeCell(*varlist.At(i), false, all)
		m.Buf.WriteString(" ")
	}
	m.Buf.WriteString("]")
}
