// Package symbol implements the canonical symbol table (interning) and the
// binder, a transient symbol→slot map built on two reserved per-symbol
// index fields.
package symbol

import (
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ID is the canonical pointer for an interned spelling: the only identity a
// symbol has. Equal spellings (case-folded) always yield equal IDs.
type ID uint32

const Invalid ID = 0

type entry struct {
	spelling string
	// bindIndex0/1 are the binder's two reserved scratch slots: a transient
	// symbol→slot-in-context map used while building or binding contexts.
	// They must read zero outside of a binder's lifetime (see Binder).
	bindIndex0 int32
	bindIndex1 int32
}

// Table is the process-wide canonical symbol table. A real embedding has
// exactly one; tests construct private ones freely.
type Table struct {
	mu      sync.Mutex
	byHash  map[[32]byte][]ID // collision chain per hash, spelling-compared
	entries []entry           // index 0 unused, IDs are 1-based

	binderActive bool // guards against nested binder sessions (see Binder)
}

func NewTable() *Table {
	return &Table{byHash: make(map[[32]byte][]ID), entries: make([]entry, 1)}
}

// canon case-folds a spelling the way the language's word! comparison does:
// ASCII-only fold, matching the teacher's identifier conventions (Rebol-
// family words are case-insensitive by convention, not full Unicode
// case-folding).
func canon(spelling string) string {
	b := []byte(spelling)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Intern returns the canonical ID for spelling, creating a new table entry
// on first sight. The hash (blake2b-256, truncated conceptually but used in
// full here since Go map keys are free-form) is only a bucket key; entries
// in the same bucket are spelling-compared to resolve collisions.
func (t *Table) Intern(spelling string) ID {
	folded := canon(spelling)
	h := blake2b.Sum256([]byte(folded))

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, id := range t.byHash[h] {
		if t.entries[id].spelling == folded {
			return id
		}
	}
	id := ID(len(t.entries))
	t.entries = append(t.entries, entry{spelling: folded})
	t.byHash[h] = append(t.byHash[h], id)
	return id
}

// Spelling returns the canonical spelling for id.
func (t *Table) Spelling(id ID) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries[id].spelling
}

// Count reports the number of interned symbols (excluding the reserved
// zero id), mostly useful for boot diagnostics.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries) - 1
}
