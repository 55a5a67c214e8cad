package eval

import (
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// maybeEnfix peeks the next feed cell: if it names an enfixed action, the
// current f.Out becomes that action's left-hand argument, per spec.md
// §4.7's "enfix lookahead" rule. It loops so a chain of enfix calls
// (`1 + 2 * 3`, evaluated strictly left-to-right with no precedence table)
// keeps going until a non-enfix word or the feed's end stops it.
//
// The enfix call is always taken at once. "defer-lookback" is not
// modeled: an enfix word met while an enclosing action is still gathering
// an argument takes that argument as its left side, so in
// `if cond [x] else [y]` ELSE receives the block [x], not IF's result.
//
// "postpone-entirely" — an enfix action that defers even past a normally-
// binding tight argument slot — is not modeled separately here: every
// enfix call in this rewrite defers with the same priority, matching the
// common case (arithmetic and comparison ops) and leaving the rarer
// precedence-climbing forms out of scope.
func (e *Evaluator) maybeEnfix(f *frame.Frame) (thrown bool, label unwind.Label) {
	for {
		peek := f.Feed.Peek()
		if peek == nil || peek.Kind != cell.KindWord || peek.Flags&cell.FlagEnfixed == 0 {
			return false, unwind.Label{}
		}
		f.Feed.Next()
		v, err := e.Resolver.Get(symbol.ID(peek.Payload.A), f.Feed.Spec, e.frameContextFor)
		if err != nil || v.Kind != cell.KindAction {
			unwind.Fail(e.Errors.Build("syntax", "enfix-no-left", e.Syms.Spelling(symbol.ID(peek.Payload.A))))
		}
		left := f.Out
		if thrown, label = e.invokeByParamlist(f, v.Payload.Node, &left, nil); thrown {
			return true, label
		}
	}
}
