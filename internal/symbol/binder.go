package symbol

import "fmt"

// Binder is a transient auxiliary for building or binding contexts: it
// claims the first of a symbol's two reserved bind-index slots to record symbol→slot
// while a keylist is being walked, then must be torn down on every exit
// path — success, error, or throw — so stale indices never leak. Nested
// binders are forbidden during a single collect operation; Open panics if
// one is already active on this table, matching the source invariant
// rather than silently layering bugs.
type Binder struct {
	table  *Table
	claims []ID // symbols claimed, for teardown
	active bool
}

// Open begins a binder session over t. Callers must defer Close
// unconditionally:
//
//	b := symbol.Open(table)
//	defer b.Close()
func Open(t *Table) *Binder {
	if t.binderActive {
		panic("symbol: nested binder")
	}
	t.binderActive = true
	return &Binder{table: t}
}

// Bind claims id's first reserved slot for slot, or panics if id is already
// claimed by this binder (a collect operation binding the same symbol twice
// within one pass is a compiler-level bug, not a recoverable runtime
// condition).
func (b *Binder) Bind(id ID, slot int32) {
	e := &b.table.entries[id]
	if e.bindIndex0 != 0 {
		panic(fmt.Sprintf("symbol: %q already bound in this binder session", e.spelling))
	}
	e.bindIndex0 = slot + 1 // +1 so zero still means "unbound"
	b.claims = append(b.claims, id)
}

// Lookup returns the slot bound for id, or (0, false) if unbound in this
// session.
func (b *Binder) Lookup(id ID) (int32, bool) {
	e := &b.table.entries[id]
	if e.bindIndex0 == 0 {
		return 0, false
	}
	return e.bindIndex0 - 1, true
}

// Close restores every claimed symbol's bind-index slot to zero and
// releases the table for the next binder. It runs on the fail path only
// through the caller's own deferred Close; internal/unwind's RescueGuard
// does not close binders when it restores its snapshot.
func (b *Binder) Close() {
	for _, id := range b.claims {
		b.table.entries[id].bindIndex0 = 0
	}
	b.claims = nil
	b.table.binderActive = false
}
