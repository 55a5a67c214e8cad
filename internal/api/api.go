// Package api implements the variadic C-callable API analogue of
// spec.md §6: a family of entry points that accept a heterogeneous
// argument list terminated by a sentinel, classify each argument by a
// single tag byte exactly the way cell.ClassifyFirstByte describes, and
// splice the result into a frame.Generator feed without first
// materializing an array. It is the host-embedding surface — internal
// natives call into internal/eval directly and have no need of it.
package api

import (
	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/pool"
	"glyph/internal/rerror"
	"glyph/internal/runtime"
	"glyph/internal/unwind"
)

// Arg is one heterogeneous argument: the PointerClass tag plus whichever
// payload field that tag makes meaningful. There is no lexical scanner in
// this core (spec.md §1 Non-goal), so a Text arg is not re-scanned as
// source — it is spliced as a literal TEXT! value, the closest meaning
// "scanned inline into the argument stream" can carry without a scanner.
type Arg struct {
	class cell.PointerClass
	text  string
	node  pool.NodeID
	kind  cell.Kind
	val   cell.Cell
}

// Text builds a PointerUTF8 argument: a literal TEXT! value spliced into
// the feed.
func Text(s string) Arg { return Arg{class: cell.PointerUTF8, text: s} }

// Node builds a PointerNode argument: an already-allocated container node
// (typically a BLOCK!'s backing array) spliced in as a bound value of kind.
func Node(id pool.NodeID, kind cell.Kind) Arg {
	return Arg{class: cell.PointerNode, node: id, kind: kind}
}

// Value builds a PointerCell argument: a fully-formed cell, evaluated or
// taken literally depending on which entry point receives it.
func Value(c cell.Cell) Arg { return Arg{class: cell.PointerCell, val: c} }

// sentinel is the PointerEnd argument every variadic call list implicitly
// carries at its tail; callers never append one themselves (End
// classification is Next's EOF signal, not a fourth kind of payload).
var sentinel = Arg{class: cell.PointerEnd}

// feed turns args into a frame.Generator: Text args allocate a fresh
// managed TEXT! node per pull (so two equal-looking Text args don't alias
// storage), Node args splice the given node id at the given kind, and
// Value args pass their cell through unchanged.
func feed(rt *runtime.Runtime, args []Arg) frame.Generator {
	all := append(append([]Arg(nil), args...), sentinel)
	i := 0
	return func() (cell.Cell, bool) {
		if i >= len(all) {
			return cell.Cell{}, false
		}
		a := all[i]
		i++
		switch cell.ClassifyFirstByte(byte(a.class)) {
		case cell.PointerEnd:
			return cell.Cell{}, false
		case cell.PointerUTF8:
			id := rt.Nodes.NewText([]byte(a.text), false)
			rt.Pool.PromoteManaged(id)
			return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}, true
		case cell.PointerNode:
			return cell.Cell{Kind: a.kind, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: a.node}}, true
		default: // PointerCell
			return a.val, true
		}
	}
}

func specifier(rt *runtime.Runtime) *bind.Specifier {
	return &bind.Specifier{Kind: bind.Concrete, Context: rt.Lib}
}

// Eval is the raw "evaluate-to-value" entry point: it runs args to
// completion against rt's booted lib context and returns the last
// expression's value. An uncaught throw becomes a Fail (spec.md §4.11's
// "an unmatched throw ... becomes a failure"), so callers that have not
// already opened a RescueGuard should use Rescue instead.
func Eval(rt *runtime.Runtime, args ...Arg) cell.Cell {
	f := &frame.Frame{Feed: frame.NewVariadicFeed(feed(rt, args)), Binding: specifier(rt)}
	thrown, label := rt.Eval.Do(f)
	if thrown {
		unwind.Fail(unwind.NoCatch(unwind.Thrown{Label: label}, rt.Errors))
	}
	return f.Out
}

// Rescue runs args under a fresh trap barrier and returns a structured
// error instead of letting a Fail panic escape — spec.md §6's
// "evaluate-with-rescue" entry point.
func Rescue(rt *runtime.Runtime, args ...Arg) (cell.Cell, *rerror.Error) {
	value, rerr := rt.Rescue(func() any { return Eval(rt, args...) })
	if rerr != nil {
		return cell.Cell{}, rerr
	}
	return value.(cell.Cell), nil
}

// NewHandleValue allocates a managed HANDLE! value wrapping data, per
// spec.md §6's "allocate a managed value handle" entry point. cleaner, if
// non-nil, fires at collection (see node.Handle.Fire) or at ReleaseHandle,
// whichever comes first.
func NewHandleValue(rt *runtime.Runtime, data any, cleaner func(any)) cell.Cell {
	id := rt.Nodes.NewHandle(data, cleaner)
	rt.Pool.PromoteManaged(id)
	return cell.Cell{Kind: cell.KindHandle, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
}

// ReleaseHandle fires c's cleaner (if any) immediately rather than waiting
// for the collector to notice it is unreachable — "release a handle" in
// spec.md §6's terms. Calling it on a non-HANDLE! cell is a no-op.
func ReleaseHandle(rt *runtime.Runtime, c cell.Cell) {
	if c.Kind != cell.KindHandle || c.Flags&cell.FlagFirstIsNode == 0 {
		return
	}
	rt.Nodes.Pool.Get(c.Payload.Node).(*node.Handle).Fire(c.Payload.Node)
}

// ToInt64 / ToBool / ToText convert a cell to its host-primitive value —
// spec.md §6's "convert handles to/from host primitives" entry points,
// extended to cover the scalar kinds a host most often wants back.
func ToInt64(c cell.Cell) (int64, bool) {
	if c.Kind != cell.KindInteger {
		return 0, false
	}
	return int64(c.Payload.A), true
}

func ToBool(c cell.Cell) (bool, bool) {
	if c.Kind != cell.KindLogic {
		return false, false
	}
	return c.Payload.A != 0, true
}

func ToText(rt *runtime.Runtime, c cell.Cell) (string, bool) {
	if c.Kind != cell.KindText || c.Flags&cell.FlagFirstIsNode == 0 {
		return "", false
	}
	return string(rt.Nodes.Text(c.Payload.Node).Bytes()), true
}

// FromInt64 / FromBool / FromText build cells from host primitives, the
// "...and back" half of the same conversion surface.
func FromInt64(v int64) cell.Cell {
	return cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(v)}}
}

func FromBool(b bool) cell.Cell {
	var a uint64
	if b {
		a = 1
	}
	return cell.Cell{Kind: cell.KindLogic, Payload: cell.Payload{A: a}}
}

func FromText(rt *runtime.Runtime, s string) cell.Cell {
	id := rt.Nodes.NewText([]byte(s), false)
	rt.Pool.PromoteManaged(id)
	return cell.Cell{Kind: cell.KindText, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: id}}
}
