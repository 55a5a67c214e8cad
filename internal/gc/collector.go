// Package gc implements the precise mark-and-sweep collector: triggered on
// a ballast threshold or explicitly, it walks every root uniformly through
// the internal/node Node interface and sweeps unmarked managed nodes back
// to the pool's freelist.
package gc

import (
	"golang.org/x/sync/singleflight"

	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/stack"
)

// Roots bundles every root-producing collaborator the collector needs to
// enumerate, per spec.md §4.5.
type Roots struct {
	Frames    *frame.Stack
	DataStack *stack.DataStack
	Pool      *pool.Pool
	Globals   func() []pool.NodeID // named globals: system object, lib/sys contexts, standard error templates, ...
}

// Collector owns the ballast accounting and the singleflight group that
// collapses concurrent explicit-GC requests. The runtime is single-
// threaded cooperative (spec.md §5), so collapsing is defensive rather
// than load-bearing — but a native that itself triggers a nested explicit
// GC (e.g. a low-memory handler) must not re-enter Sweep from inside Mark.
type Collector struct {
	pool          *pool.Pool
	nodes         *node.Registry
	ballast       int64
	sinceGC       int64
	torture       bool
	group         singleflight.Group
	lastSwept     int
	lastBytesBack int64
}

func New(p *pool.Pool, nodes *node.Registry, ballast int64, torture bool) *Collector {
	return &Collector{pool: p, nodes: nodes, ballast: ballast, torture: torture}
}

// NoteAlloc accounts bytes toward the ballast counter; call sites are the
// same allocation paths that call pool.(*Pool).account.
func (c *Collector) NoteAlloc(bytes int64) { c.sinceGC += bytes }

// ShouldCollect reports whether the ballast threshold has been crossed, or
// MEMORY_TORTURE is forcing a collection on every step.
func (c *Collector) ShouldCollect() bool {
	return c.torture || c.sinceGC >= c.ballast
}

// Collect runs one full mark-sweep cycle against roots. It is safe to call
// reentrantly from distinct goroutines (not expected under the single-
// threaded cooperative model, but cheap to guarantee via singleflight)
// since only one physical sweep will run per overlapping burst of calls.
func (c *Collector) Collect(roots Roots) {
	_, _, _ = c.group.Do("gc", func() (any, error) {
		c.mark(roots)
		swept, bytesBack := c.sweep(roots.Pool)
		c.lastSwept, c.lastBytesBack = swept, bytesBack
		c.sinceGC = 0
		return nil, nil
	})
}

// LastCycle reports how many nodes were freed and how many bytes of
// dynamic data were released in the most recent Collect call, for
// diagnostics.
func (c *Collector) LastCycle() (nodesSwept int, bytesReleased int64) {
	return c.lastSwept, c.lastBytesBack
}
