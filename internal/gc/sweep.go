package gc

import "glyph/internal/pool"

// sweep walks every pool segment, freeing unmarked managed nodes (firing a
// HANDLE!'s cleaner first) and clearing the mark bit on survivors for the
// next cycle. The Dynamic buffers of freed arrays and texts are not
// released, so bytesReleased only counts what handle cleaners give back. Unmanaged (manual) nodes are left alone —
// the manuals registry, not the collector, owns their lifetime.
func (c *Collector) sweep(p *pool.Pool) (nodesSwept int, bytesReleased int64) {
	before := p.BytesOut()

	type freeable interface {
		Managed() bool
		Marked() bool
		SetMarked(bool)
	}

	var toFree []pool.NodeID
	p.ForEachLive(func(id pool.NodeID) {
		n, ok := p.Get(id).(freeable)
		if !ok {
			return
		}
		if !n.Managed() {
			return // manual node: manuals registry owns it, not us
		}
		if n.Marked() {
			n.SetMarked(false)
			return
		}
		toFree = append(toFree, id)
	})

	for _, id := range toFree {
		// An unreachable ArchFrame context is freed like any other node: no
		// collapsed form keeping its archetype is left behind, and a cell
		// that still holds its id makes Pool.Get panic with a freed-node
		// error rather than resolving to bind.ErrUnbound.
		c.collapseIfHandle(id)
		p.Free(id)
		nodesSwept++
	}

	return nodesSwept, before - p.BytesOut()
}

// collapseIfHandle fires a HANDLE!'s cleaner, if any, before the node is
// freed — spec.md §4.5's "HANDLE! values ... carry an optional user
// cleaner that fires at collection when the handle's singular-array
// self-pointer matches".
func (c *Collector) collapseIfHandle(id pool.NodeID) {
	type firer interface{ Fire(pool.NodeID) }
	if h, ok := c.nodes.Pool.Get(id).(firer); ok {
		h.Fire(id)
	}
}
