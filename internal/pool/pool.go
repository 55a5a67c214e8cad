// Package pool implements the fixed-size node pools and the manual/guarded
// allocation registries that sit underneath every other subsystem. It is the
// lowest layer in the dependency order: nothing here imports cell, node, or
// anything above them.
package pool

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slices"
)

// NodeID is a typed arena index standing in for the teacher's raw node
// pointers (design note: "from pointer graphs to arena + typed indices").
// Zero is the reserved invalid/nil id.
type NodeID uint32

const InvalidNode NodeID = 0

// segmentSize is the number of node slots per freelist segment. Real
// pools use several power-of-two size classes; this rewrite keeps one
// uniform node shape (see internal/node) and one segment size, since Go's
// slice-backed arena does not need per-size-class pools to avoid
// fragmentation the way a C bump allocator does.
const segmentSize = 4096

// record is a slot in the arena: either a live node (Alive) or, when free,
// threaded onto the freelist via Next (the "freed-node sentinel").
type record struct {
	Alive bool
	Next  NodeID // freelist link when !Alive
	Data  any    // *node.Array, *node.Context, ... populated by internal/node
}

// Pool is the fixed-size node arena plus the manuals registry (unmanaged
// nodes the caller must free or promote) and the guarded-node stack (push/
// drop protocol for transient GC safety across calls that might allocate).
type Pool struct {
	segments  [][]record
	freeHead  NodeID
	live      int
	allocated uint64 // total nodes ever handed out, for accounting

	manuals []NodeID // manuals registry; truncated on fail
	guarded []NodeID // guarded-node list; truncated on fail

	alwaysMalloc bool // ALWAYS_MALLOC: freed slots never return to the freelist (debug aid)

	bytesOut int64 // process-wide dynamic-data accounting (see dynamic.go)
	softLimit int64
}

// New creates an empty pool. alwaysMalloc mirrors the ALWAYS_MALLOC env
// control: when set, Alloc never reuses a freed slot, which makes
// use-after-free bugs crash immediately instead of silently reusing memory.
func New(alwaysMalloc bool) *Pool {
	return &Pool{alwaysMalloc: alwaysMalloc, softLimit: 1 << 30}
}

// SetSoftLimit configures the accounting-based out-of-memory trip point
// (spec.md §4.1's "configurable soft limit fails an evaluator step").
func (p *Pool) SetSoftLimit(bytes int64) { p.softLimit = bytes }

// BytesOut reports current accounted dynamic-data bytes outstanding.
func (p *Pool) BytesOut() int64 { return atomic.LoadInt64(&p.bytesOut) }

// OverSoftLimit reports whether accounted bytes have crossed the configured
// soft limit; callers raise a memory-exhaustion fail when true.
func (p *Pool) OverSoftLimit() bool { return p.BytesOut() > p.softLimit }

func (p *Pool) slot(id NodeID) *record {
	idx := int(id) - 1
	seg := idx / segmentSize
	off := idx % segmentSize
	return &p.segments[seg][off]
}

func (p *Pool) grow() NodeID {
	seg := make([]record, segmentSize)
	p.segments = append(p.segments, seg)
	base := NodeID((len(p.segments)-1)*segmentSize + 1)
	// Thread the new segment onto the freelist, sentinel-first.
	for i := segmentSize - 1; i >= 1; i-- {
		seg[i].Next = base + NodeID(i) - 1
	}
	seg[0].Next = p.freeHead
	p.freeHead = base
	return base
}

// Alloc reserves a fresh node slot, born unmanaged (caller must register it
// in the manuals list via MarkManual, or free it directly).
func (p *Pool) Alloc(data any) NodeID {
	if p.alwaysMalloc || p.freeHead == InvalidNode {
		if p.freeHead == InvalidNode {
			p.grow()
		}
	}
	id := p.freeHead
	rec := p.slot(id)
	p.freeHead = rec.Next
	rec.Alive = true
	rec.Data = data
	p.live++
	p.allocated++
	return id
}

// Get returns the typed payload stored at id. Callers type-assert to the
// concrete node kind; a mismatch is a usage bug in the caller, matching the
// teacher's kind-asserting accessors.
func (p *Pool) Get(id NodeID) any {
	if id == InvalidNode {
		return nil
	}
	rec := p.slot(id)
	if !rec.Alive {
		panic(fmt.Sprintf("pool: use of freed node %d", id))
	}
	return rec.Data
}

// Free releases id back to the freelist. Freeing a freshly allocated manual
// node is O(1); the collector is the only caller allowed to free a managed
// node (see internal/gc).
func (p *Pool) Free(id NodeID) {
	rec := p.slot(id)
	rec.Alive = false
	rec.Data = nil
	p.live--
	if p.alwaysMalloc {
		// Keep the slot off the freelist so it is never handed out again.
		rec.Next = InvalidNode
		return
	}
	rec.Next = p.freeHead
	p.freeHead = id
}

// Live reports the number of currently allocated nodes.
func (p *Pool) Live() int { return p.live }

// ForEachLive calls fn for every currently allocated node id, in arena
// order. Used by the collector's sweep pass, which must visit every
// segment regardless of reachability to find unmarked managed nodes.
func (p *Pool) ForEachLive(fn func(NodeID)) {
	for segIdx, seg := range p.segments {
		base := NodeID(segIdx*segmentSize + 1)
		for off := range seg {
			if seg[off].Alive {
				fn(base + NodeID(off))
			}
		}
	}
}

// MarkManual records id in the manuals registry.
func (p *Pool) MarkManual(id NodeID) { p.manuals = append(p.manuals, id) }

// manageable is the local view of node.Node this package needs to flip the
// managed bit on promotion, kept narrow here to avoid an import cycle with
// internal/node.
type manageable interface{ SetManaged(bool) }

// PromoteManaged removes id from the manuals registry and flips its node to
// managed, transitioning ownership to the collector. No-op if id was never
// manual (idempotent, matching repeated rebind-to-managed call sites). Uses
// x/exp/slices since this predates the Go version where stdlib slices
// gained generic parity (see SPEC_FULL.md §11).
func (p *Pool) PromoteManaged(id NodeID) {
	if i := slices.Index(p.manuals, id); i >= 0 {
		p.manuals = slices.Delete(p.manuals, i, i+1)
		if m, ok := p.Get(id).(manageable); ok {
			m.SetManaged(true)
		}
	}
}

// ManualsDepth / TruncateManuals implement the fail-path snapshot/restore
// for the manuals registry (spec.md §4.11).
func (p *Pool) ManualsDepth() int { return len(p.manuals) }
func (p *Pool) TruncateManuals(mark int) {
	for _, id := range p.manuals[mark:] {
		p.Free(id)
	}
	p.manuals = p.manuals[:mark]
}

// Guard pushes id onto the guarded-node list: a C-owned-pointer-survives-
// reentrancy protocol. GuardDepth/TruncateGuarded give the fail-path
// snapshot/restore; an imbalance is a debug-build bug (spec.md §5).
func (p *Pool) Guard(id NodeID)        { p.guarded = append(p.guarded, id) }
func (p *Pool) GuardDepth() int        { return len(p.guarded) }
func (p *Pool) TruncateGuarded(mark int) {
	p.guarded = p.guarded[:mark]
}

// GuardedRoots returns the live guarded-node list for the collector's root
// enumeration.
func (p *Pool) GuardedRoots() []NodeID { return append([]NodeID(nil), p.guarded...) }

// ManualRoots returns the live manuals registry for the collector's root
// enumeration (unmanaged nodes are still tracked, not yet GC-owned, but
// must not be swept away while referenced transitively).
func (p *Pool) ManualRoots() []NodeID { return append([]NodeID(nil), p.manuals...) }

// Stats is a human-readable accounting snapshot, rendered with go-humanize
// the way an embedder's diagnostic dump would report pool pressure.
type Stats struct {
	Live      int
	Allocated uint64
	BytesOut  int64
}

func (p *Pool) Stats() Stats {
	return Stats{Live: p.live, Allocated: p.allocated, BytesOut: p.BytesOut()}
}

func (s Stats) String() string {
	return fmt.Sprintf("nodes live=%s allocated=%s dynamic=%s",
		humanize.Comma(int64(s.Live)), humanize.Comma(int64(s.Allocated)), humanize.Bytes(uint64(s.BytesOut)))
}

// WarnTorture prints a one-line notice when MEMORY_TORTURE is enabled, so a
// user staring at pathological GC pause counts has an explanation.
func WarnTorture(enabled bool) {
	if enabled {
		fmt.Fprintln(os.Stderr, "glyph: memory torture enabled, collecting on every step")
	}
}
