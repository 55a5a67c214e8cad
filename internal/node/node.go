// Package node implements the uniform container-node shape: arrays,
// strings/binaries, contexts, paramlists, pairings, and handles all share
// the same GC-visible envelope (Kind, Link, Misc, Managed/Marked), with
// typed accessors layered per subtype — mirroring spec.md §3's "a node
// carries four slots of metadata overloaded per node subtype".
package node

import "glyph/internal/pool"

// Kind tags which concrete node type a given NodeID's pool payload is.
type Kind byte

const (
	KindArray Kind = iota
	KindString
	KindContext
	KindParamlist
	KindPairing
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindContext:
		return "context"
	case KindParamlist:
		return "paramlist"
	case KindPairing:
		return "pairing"
	case KindHandle:
		return "handle"
	default:
		return "unknown-node"
	}
}

// Base is embedded by every concrete node type and supplies the envelope
// the collector walks uniformly, without a per-kind switch for the parts
// that are the same across kinds.
type Base struct {
	Kind    Kind
	Link    pool.NodeID // link node-pointer (e.g. array's underlying keylist)
	Misc    pool.NodeID // misc node-pointer-or-word
	MiscWord bool       // when true, Misc is reinterpreted as a symbol.ID

	managed bool
	marked  bool
}

func (b *Base) NodeKind() Kind     { return b.Kind }
func (b *Base) Managed() bool      { return b.managed }
func (b *Base) SetManaged(m bool)  { b.managed = m }
func (b *Base) Marked() bool       { return b.marked }
func (b *Base) SetMarked(m bool)   { b.marked = m }

// Node is the interface the collector uses to enumerate a node's
// referenced children uniformly, regardless of concrete subtype.
type Node interface {
	NodeKind() Kind
	Managed() bool
	SetManaged(bool)
	Marked() bool
	SetMarked(bool)
	// Children returns every live node this node references: link, misc
	// (when it is a node, not a word), and any cell payload nodes.
	Children() []pool.NodeID
}

// Registry bundles a pool with the symbol/cell-aware constructors in this
// package. Every node type in this package is created through a Registry so
// construction and GC bookkeeping stay in one place.
type Registry struct {
	Pool *pool.Pool
}

func NewRegistry(p *pool.Pool) *Registry { return &Registry{Pool: p} }

// childrenFromBase appends Link/Misc (when Misc is a node, not a word) to
// dst — the part of Children every concrete type shares.
func childrenFromBase(b *Base, dst []pool.NodeID) []pool.NodeID {
	if b.Link != pool.InvalidNode {
		dst = append(dst, b.Link)
	}
	if !b.MiscWord && b.Misc != pool.InvalidNode {
		dst = append(dst, b.Misc)
	}
	return dst
}
