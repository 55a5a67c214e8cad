// Package runtime threads every subsystem together into one embeddable
// instance: the pool, node registry, symbol table, action/evaluator pair,
// collector, error catalog, and the native modules that sit on top of them.
// It mirrors the teacher's VM flag-bag style (debug/optimized booleans read
// once at construction) for its own Config.
package runtime

import (
	"os"
	"strconv"
	"sync/atomic"

	"glyph/internal/action"
	"glyph/internal/frame"
	"glyph/internal/gc"
	"glyph/internal/eval"
	"glyph/internal/mold"
	"glyph/internal/native"
	"glyph/internal/native/dbnative"
	"glyph/internal/native/port"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/stack"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// Config bundles the startup environment controls, read once at Boot.
type Config struct {
	MemoryTorture bool // GLYPH_MEMORY_TORTURE: every CollectIfDue call collects
	ProbeFailures bool // GLYPH_PROBE_FAILURES: parsed only; no code reads it
	AlwaysMalloc  bool // GLYPH_ALWAYS_MALLOC: pool never reuses a freed slot

	GCBallast int64 // bytes allocated between automatic collections
}

// ConfigFromEnv reads the four GLYPH_* environment controls. An unset or
// unparseable boolean control defaults to off; an unset or unparseable
// GLYPH_GC_BALLAST defaults to 4 MiB.
func ConfigFromEnv() Config {
	return Config{
		MemoryTorture: envBool("GLYPH_MEMORY_TORTURE"),
		ProbeFailures: envBool("GLYPH_PROBE_FAILURES"),
		AlwaysMalloc:  envBool("GLYPH_ALWAYS_MALLOC"),
		GCBallast:     envInt64("GLYPH_GC_BALLAST", 4<<20),
	}
}

func envBool(name string) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func envInt64(name string, fallback int64) int64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// SignalMask is the HALT flag a host can set from a separate goroutine (a
// SIGINT handler, say). Evaluator.Step does not read it; ShouldHalt is
// its only reader, and a set flag stops nothing by itself. Int32 rather
// than bool so it can be flipped with a single atomic store from outside
// the cooperative evaluation goroutine.
type SignalMask struct {
	halt int32
}

func (s *SignalMask) RequestHalt()   { atomic.StoreInt32(&s.halt, 1) }
func (s *SignalMask) Clear()         { atomic.StoreInt32(&s.halt, 0) }
func (s *SignalMask) ShouldHalt() bool { return atomic.LoadInt32(&s.halt) != 0 }

// Runtime is one fully wired glyph instance: every subsystem plus the
// installed native catalogs, ready for Boot's caller to start evaluating.
type Runtime struct {
	Config Config

	Pool      *pool.Pool
	Nodes     *node.Registry
	Syms      *symbol.Table
	Actions   *action.Registry
	Frames    *frame.Stack
	Data      *stack.DataStack
	MoldBuf   *stack.MoldBuffer
	MoldStack *stack.MoldStack
	Errors    *rerror.Catalog
	Eval      *eval.Evaluator
	Collector *gc.Collector
	Mold      *mold.Molder
	Signals   *SignalMask

	Natives *native.Registry
	DB      *dbnative.Registry
	Port    *port.Registry

	Lib pool.NodeID // the boot "lib" context every native/system word lives in
}

// New constructs every subsystem and wires the cross-references between
// them (the evaluator needs the action registry, natives need the
// evaluator, and so on), but does not yet install or run anything — see
// Boot.
func New(cfg Config) *Runtime {
	p := pool.New(cfg.AlwaysMalloc)
	nodes := node.NewRegistry(p)
	syms := symbol.NewTable()
	actions := action.NewRegistry(nodes)
	frames := frame.NewStack()
	data := stack.NewDataStack()
	moldBuf := stack.NewMoldBuffer()
	moldStack := stack.NewMoldStack()
	errors := rerror.NewCatalog()
	ev := eval.New(nodes, syms, actions, frames, data, errors)
	molder := mold.New(nodes, syms, moldBuf, moldStack)
	collector := gc.New(p, nodes, cfg.GCBallast, cfg.MemoryTorture)

	return &Runtime{
		Config:    cfg,
		Pool:      p,
		Nodes:     nodes,
		Syms:      syms,
		Actions:   actions,
		Frames:    frames,
		Data:      data,
		MoldBuf:   moldBuf,
		MoldStack: moldStack,
		Errors:    errors,
		Eval:      ev,
		Collector: collector,
		Mold:      molder,
		Signals:   &SignalMask{},
		Natives:   native.New(actions, nodes, syms, ev, molder),
		DB:        dbnative.New(nodes, syms, errors),
		Port:      port.New(nodes, syms, errors, ev),
	}
}

// Roots builds the gc.Roots value for this runtime, suitable for passing to
// Collector.Collect; Globals walks exactly the one root this rewrite keeps
// (the lib context), per spec.md §4.5's root enumeration.
func (rt *Runtime) Roots() gc.Roots {
	return gc.Roots{
		Frames:    rt.Frames,
		DataStack: rt.Data,
		Pool:      rt.Pool,
		Globals: func() []pool.NodeID {
			if rt.Lib == pool.InvalidNode {
				return nil
			}
			return []pool.NodeID{rt.Lib}
		},
	}
}

// Rescue opens a trap barrier around body the way the REPL and every
// natively-invoked evaluation path do, returning a structured error instead
// of letting a Fail panic escape.
func (rt *Runtime) Rescue(body func() any) (any, *rerror.Error) {
	g := unwind.Open(rt.Data, rt.MoldBuf, rt.MoldStack, rt.Pool, rt.Frames)
	return unwind.Rescue(g, body)
}

// CollectIfDue runs a GC cycle when the collector's ballast threshold (or
// MEMORY_TORTURE) says it's time. The evaluator does not call it:
// collection happens only when the host calls CollectIfDue.
func (rt *Runtime) CollectIfDue() {
	if rt.Collector.ShouldCollect() {
		rt.Collector.Collect(rt.Roots())
	}
}

