package node

import (
	"fmt"

	"glyph/internal/cell"
	"glyph/internal/pool"
	"glyph/internal/symbol"
)

// ArchetypeKind identifies a context's subtype from its varlist's element 0
// cell kind, per spec.md §3.
type ArchetypeKind byte

const (
	ArchObject ArchetypeKind = iota
	ArchModule
	ArchPort
	ArchError
	ArchFrame
)

// Context pairs a varlist (values) with a keylist (typesets carrying a
// symbol). Varlist length always equals keylist length, including the
// reserved element-0 slot (archetype / rootkey).
type Context struct {
	Base
	Varlist       pool.NodeID // -> Array
	Keylist       pool.NodeID // -> Array
	SharedKeylist bool
	Archetype     ArchetypeKind
	Selfish       bool // optional: a hidden `self` key was auto-inserted
}

// TypesetKey is one keylist element: the symbol plus an accepted-types
// bitset compact enough to fit a cell payload word.
type TypesetKey struct {
	Sym   symbol.ID
	Types uint64 // bit i set => KindEnd+i accepted; see cell.Kind
}

// NewContext builds an empty context of the given archetype kind. When
// selfish is set, a hidden `self` key is inserted immediately, bound to
// the context's own id — spec.md §9's open question treats this as an
// optional feature, so callers that don't need it pass selfish=false and
// never pay for the extra AddKey.
func (r *Registry) NewContext(syms *symbol.Table, arch ArchetypeKind, selfish bool) pool.NodeID {
	varlistID := r.NewArray(4)
	keylistID := r.NewArray(4)
	var rootCell cell.Cell
	rootCell.Kind = cell.KindContext
	r.Array(varlistID).Append(rootCell) // element 0 == archetype placeholder
	r.Array(keylistID).Append(cell.Cell{Kind: cell.KindWord})

	ctx := &Context{Base: Base{Kind: KindContext}, Varlist: varlistID, Keylist: keylistID, Archetype: arch, Selfish: selfish}
	id := r.Pool.Alloc(ctx)
	ctx.Link = keylistID
	ctx.Misc = varlistID
	r.Pool.MarkManual(id)
	r.Pool.MarkManual(varlistID)
	r.Pool.MarkManual(keylistID)

	if selfish {
		selfSym := syms.Intern("self")
		r.AddKey(id, selfSym, 0, cell.Cell{Kind: cell.KindContext, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}})
	}
	return id
}

func (r *Registry) Context(id pool.NodeID) *Context { return r.Pool.Get(id).(*Context) }

// AddKey appends a new key/value slot, keeping varlist and keylist lengths
// in lockstep (the core invariant of §3). If the keylist is shared, it is
// forked first (copy-on-expand), matching "expanding a shared keylist
// forks a unique copy".
func (r *Registry) AddKey(ctxID pool.NodeID, sym symbol.ID, types uint64, initial cell.Cell) int {
	ctx := r.Context(ctxID)
	if ctx.SharedKeylist {
		r.forkKeylist(ctx)
	}
	keylist := r.Array(ctx.Keylist)
	varlist := r.Array(ctx.Varlist)

	var keyCell cell.Cell
	keyCell.Kind = cell.KindWord
	keyCell.Payload.A = uint64(sym)<<1 | (types & 1)
	keyCell.Binding = pool.NodeID(types >> 1) // compact encode; real types live alongside
	keylist.Append(keyCell)
	varlist.Append(initial)

	if varlist.Len() != keylist.Len() {
		panic(fmt.Sprintf("node: varlist/keylist length invariant broken for context %d", ctxID))
	}
	return varlist.Len() - 1
}

func (r *Registry) forkKeylist(ctx *Context) {
	old := r.Array(ctx.Keylist)
	fresh := r.NewArray(old.Len())
	freshArr := r.Array(fresh)
	for _, c := range old.Slice() {
		freshArr.Append(c)
	}
	ctx.Keylist = fresh
	ctx.Link = fresh
	ctx.SharedKeylist = false
}

// FindKey does a linear search for sym in the keylist — fine for the small
// keylists natives and boot objects use; hot paths (frame argument lookup)
// go through internal/bind's specifier-resolved slot index instead.
func (r *Registry) FindKey(ctxID pool.NodeID, sym symbol.ID) (slot int, ok bool) {
	keylist := r.Array(r.Context(ctxID).Keylist)
	for i, kc := range keylist.Slice() {
		if i == 0 {
			continue
		}
		if symbol.ID(kc.Payload.A>>1) == sym {
			return i, true
		}
	}
	return 0, false
}

func (c *Context) Children() []pool.NodeID {
	out := childrenFromBase(&c.Base, nil)
	out = append(out, c.Varlist, c.Keylist)
	return out
}
