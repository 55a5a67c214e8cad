package unwind

import (
	"github.com/pkg/errors"

	"glyph/internal/frame"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/stack"
)

// failSignal is the panic payload Fail raises. It is unexported so nothing
// outside this package can produce or catch one directly — every
// RescueGuard.Run call is the only legal trap barrier, matching spec.md
// §4.11's requirement that fail always jumps to "the nearest trap
// barrier", never an ad hoc recover().
type failSignal struct {
	err *rerror.Error
}

// Fail raises err as a non-local jump to the nearest enclosing
// RescueGuard.Run. It is the Go-idiomatic substitute for the longjmp the
// design notes describe: panic/recover already is Go's lightweight
// unwinding mechanism, so Fail uses it directly rather than threading a
// result-sum-type through every call in the evaluator's hot path.
func Fail(err *rerror.Error) {
	panic(failSignal{err: err})
}

// FailHost wraps a plain Go error (e.g. a driver error surfaced by a
// native) with github.com/pkg/errors before promoting it to a structured
// Error and raising it — see SPEC_FULL.md §10.3.
func FailHost(err error, context string) {
	wrapped := errors.Wrap(err, context)
	Fail(rerror.FromHostError(wrapped))
}

// Snapshot captures every shared scratch structure's depth at a trap
// barrier (spec.md §4.11): data stack depth, guarded-node-list length,
// mold buffer length and codepoint count, mold-loop stack length, manuals
// registry length, and the current top frame. The CPU-context long-jump
// slot from the source design has no analogue here — panic/recover plays
// that role — so it is intentionally not modeled.
type Snapshot struct {
	dataStack   stack.Marker
	guarded     int
	manuals     int
	moldBytes   int
	moldCPs     int
	moldStack   int
	frame       *frame.Frame
}

// RescueGuard is a trap barrier: open it before risky work, then call Run
// with the work itself. On any abnormal exit (a Fail raised anywhere
// beneath it, including through nested RescueGuards that chose to
// re-raise) its recover restores every snapshotted structure to exactly
// where it stood at Open.
type RescueGuard struct {
	data  *stack.DataStack
	mold  *stack.MoldBuffer
	molds *stack.MoldStack
	pool  *pool.Pool
	frames *frame.Stack

	snap Snapshot
}

// Open records the current depths. Callers construct one RescueGuard per
// risky region; it is not reusable across two separate Run calls with
// different intervening state (open a fresh one each time).
func Open(data *stack.DataStack, mold *stack.MoldBuffer, molds *stack.MoldStack, p *pool.Pool, frames *frame.Stack) *RescueGuard {
	g := &RescueGuard{data: data, mold: mold, molds: molds, pool: p, frames: frames}
	g.snap = Snapshot{
		dataStack: data.Mark(),
		guarded:   p.GuardDepth(),
		manuals:   p.ManualsDepth(),
		moldBytes: mold.Len(),
		moldCPs:   mold.CodepointLen(),
		moldStack: molds.Len(),
		frame:     frames.Snapshot(),
	}
	return g
}

// Result is what Run hands back: either body's normal return value, or a
// structured error if a Fail was caught.
type Result[T any] struct {
	Value T
	Err   *rerror.Error
}

// Run executes body under this guard. If body (or anything it calls)
// invokes Fail, Run recovers the panic, restores every snapshotted
// structure, and returns the structured error instead of letting the panic
// propagate further — this is the "rescue" API (spec.md §6, and the
// `rescue [1 / 0]` scenario in §8).
func Run[T any](g *RescueGuard, body func() T) (result Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			fs, ok := r.(failSignal)
			if !ok {
				panic(r) // not one of ours: a genuine Go-level bug, let it crash
			}
			g.restore()
			result = Result[T]{Err: fs.err}
		}
	}()
	result = Result[T]{Value: body()}
	return
}

func (g *RescueGuard) restore() {
	g.frames.AbortAbove(g.snap.frame)
	g.data.TruncateTo(g.snap.dataStack)
	g.pool.TruncateGuarded(g.snap.guarded)
	g.pool.TruncateManuals(g.snap.manuals)
	g.mold.TruncateTo(g.snap.moldBytes, g.snap.moldCPs)
	g.molds.TruncateTo(g.snap.moldStack)
}

// Rescue is sugar over Run for the common "I just want (value, error)"
// call shape used by natives and the REPL.
func Rescue[T any](g *RescueGuard, body func() T) (T, *rerror.Error) {
	r := Run(g, body)
	return r.Value, r.Err
}
