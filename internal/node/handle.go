package node

import (
	"github.com/google/uuid"

	"glyph/internal/pool"
)

// Handle wraps an opaque external resource (a DB connection, a port's
// socket, ...). It carries an optional Cleaner that fires at collection
// time when the handle's self-pointer still matches — the mechanism
// spec.md §4.5 uses for deterministic resource release from user-defined
// resources. ID is a uuid rather than a raw pointer so host-side code that
// squirrels away a handle's identity (for logging, for matching a pending
// async operation) has a stable, printable key.
type Handle struct {
	Base
	ID      uuid.UUID
	Data    any
	Cleaner func(any)
	self    pool.NodeID // filled in at registration; Fire checks this still matches
}

func (r *Registry) NewHandle(data any, cleaner func(any)) pool.NodeID {
	h := &Handle{Base: Base{Kind: KindHandle}, ID: uuid.New(), Data: data, Cleaner: cleaner}
	id := r.Pool.Alloc(h)
	h.self = id
	r.Pool.MarkManual(id)
	return id
}

func (r *Registry) Handle(id pool.NodeID) *Handle { return r.Pool.Get(id).(*Handle) }

// Fire invokes the cleaner exactly once, only if the handle's self-pointer
// still matches its own id (guards against firing on a stale copy).
func (h *Handle) Fire(id pool.NodeID) {
	if h.Cleaner == nil || h.self != id {
		return
	}
	cleaner := h.Cleaner
	h.Cleaner = nil
	cleaner(h.Data)
}

func (h *Handle) Children() []pool.NodeID { return childrenFromBase(&h.Base, nil) }
