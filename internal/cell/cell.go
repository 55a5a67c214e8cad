package cell

import "glyph/internal/pool"

// Flags holds the header bits that are not the kind byte itself: the mirror
// byte's category, protection, and the per-cell GC enumeration hints.
type Flags uint16

const (
	FlagProtected   Flags = 1 << iota // write attempts fail
	FlagConst                         // value came from a const binding; mutation forbidden
	FlagNewlineBefore
	FlagFirstIsNode  // Payload.Node is a live node reference, enumerate it
	FlagSecondIsNode // reserved second node slot (pairings, contexts-as-extra)
	FlagChecked      // argument already typechecked by an enclosing composition layer
	FlagEnfixed      // the *binding*, not the action, marks this a lookback call
	FlagFrameFailed  // owning frame aborted mid-fulfillment; API handles must disconnect
)

// Payload is the two-word body of a cell. Which field is meaningful is
// entirely determined by Kind; accessors below assert on entry, matching the
// teacher's per-kind accessor convention.
type Payload struct {
	A uint64      // integer, decimal bits, quote-depth-overflow count, bind-index...
	Node pool.NodeID // array/context/paramlist/pairing/handle this cell refers to
}

// Cell is the universal four-word value: Kind, Mirror, Flags, Extra
// (Binding) and the two-word Payload. It is value-assignable — copying a
// Cell by assignment is the whole "move" primitive; identity lives in
// whatever node Payload.Node names, never in the Cell itself.
type Cell struct {
	Kind       Kind
	Mirror     Kind // kind preserved across quoting/aliasing tricks
	Flags      Flags
	QuoteDepth uint8        // in-cell quote count; overflow kind is KindQuoted
	Binding    pool.NodeID  // specifier/paramlist this word or array is relative to
	Payload    Payload
}

// Reset overwrites a cell in place with the trash sentinel. Every cell must
// pass through Reset before being populated; reading an un-Reset cell in a
// checked build is the same class of bug as reading freed memory.
func (c *Cell) Reset() {
	*c = Cell{Kind: KindTrash}
}

// IsTrash reports the debug poison state.
func (c *Cell) IsTrash() bool { return c.Kind == KindTrash }

// IsEnd reports the end-marker state (used both for explicit end cells and
// for arrays whose info word doubles as their end-of-array terminator).
func (c *Cell) IsEnd() bool { return c.Kind == KindEnd }

// IsNulled reports the "no value" result, distinct from every datatype.
func (c *Cell) IsNulled() bool { return c.Kind == KindNulled }

// SetNulled overwrites with the nulled value.
func (c *Cell) SetNulled() { *c = Cell{Kind: KindNulled} }

// Move copies src into dst word-for-word, preserving payload and the masked
// subset of header flags that survive a move (protected/const/newline-before
// are category-dependent — composition layers decide whether to carry them).
func Move(dst, src *Cell) {
	*dst = *src
	dst.Flags &^= FlagChecked // a moved argument must be rechecked by its new site
}

// Unescape returns the underlying (non-quoted) cell and its total quote
// depth, following the in-cell count or, past the overflow threshold, the
// depth stored on the single-cell array the cell references. Every
// cell-reading operation that must not itself dequote goes through this.
const maxInlineQuoteDepth = 255

func Unescape(c *Cell, overflow func(pool.NodeID) (*Cell, uint64)) (*Cell, uint64) {
	if c.Kind != KindQuoted {
		return c, uint64(c.QuoteDepth)
	}
	inner, extra := overflow(c.Payload.Node)
	return inner, extra
}

// Quote increments the quote depth of c in place, spilling to the overflow
// array representation when the in-cell counter would wrap. spill is called
// exactly once, only on overflow, and must return the NodeID of a new
// single-cell array holding a copy of c's pre-quote value.
func Quote(c *Cell, spill func(Cell) pool.NodeID) {
	if c.Kind == KindQuoted {
		c.Payload.A++
		return
	}
	if c.QuoteDepth < maxInlineQuoteDepth {
		c.QuoteDepth++
		return
	}
	inner := *c
	inner.QuoteDepth = 0
	id := spill(inner)
	*c = Cell{Kind: KindQuoted, Payload: Payload{A: maxInlineQuoteDepth + 1, Node: id}}
}

// Dequote decrements quote depth by one, in place. Calling it on a
// non-quoted cell is a no-op, matching actions whose `dequote` annotation
// only fires when a quoted argument actually arrived.
func Dequote(c *Cell, unspill func(pool.NodeID) Cell) {
	switch {
	case c.Kind == KindQuoted && c.Payload.A > maxInlineQuoteDepth+1:
		c.Payload.A--
	case c.Kind == KindQuoted:
		*c = unspill(c.Payload.Node)
	case c.QuoteDepth > 0:
		c.QuoteDepth--
	}
}
