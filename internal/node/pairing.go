package node

import (
	"glyph/internal/cell"
	"glyph/internal/pool"
)

// Pairing is two cells allocated as one node — used for key/value API
// handles, map entries, and cheap tuples. The first cell doubles as both
// "key" and flag-bearer (its Flags carry pairing-specific bits distinct
// from an ordinary cell's).
type Pairing struct {
	Base
	Key   cell.Cell
	Value cell.Cell
}

func (r *Registry) NewPairing(key, value cell.Cell) pool.NodeID {
	p := &Pairing{Base: Base{Kind: KindPairing}, Key: key, Value: value}
	id := r.Pool.Alloc(p)
	r.Pool.MarkManual(id)
	return id
}

func (r *Registry) Pairing(id pool.NodeID) *Pairing { return r.Pool.Get(id).(*Pairing) }

func (p *Pairing) Children() []pool.NodeID {
	out := childrenFromBase(&p.Base, nil)
	if p.Key.Flags&cell.FlagFirstIsNode != 0 && p.Key.Payload.Node != pool.InvalidNode {
		out = append(out, p.Key.Payload.Node)
	}
	if p.Value.Flags&cell.FlagFirstIsNode != 0 && p.Value.Payload.Node != pool.InvalidNode {
		out = append(out, p.Value.Payload.Node)
	}
	return out
}
