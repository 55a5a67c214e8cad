package native

import (
	"fmt"
	"math"

	"glyph/internal/action"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/node"
	"glyph/internal/symbol"
	"glyph/internal/unwind"
)

// Catalog is the boot-table of core natives. internal/runtime's boot
// sequence installs this (plus dbnative/port's demo natives) into the lib
// context before loading any user code.
func Catalog() []Spec {
	return []Spec{
		{Name: "add", Params: binaryParams(), Build: arith(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })},
		{Name: "subtract", Params: binaryParams(), Build: arith(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })},
		{Name: "multiply", Params: binaryParams(), Build: arith(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })},
		{Name: "divide", Params: binaryParams(), Build: divideDispatch},

		{Name: "equal?", Params: binaryParams(), Build: compare(func(c int) bool { return c == 0 })},
		{Name: "lesser?", Params: binaryParams(), Build: compare(func(c int) bool { return c < 0 })},
		{Name: "greater?", Params: binaryParams(), Build: compare(func(c int) bool { return c > 0 })},

		{Name: "not", Params: []node.ParamSpec{{Name: "value", Class: node.ParamNormal}}, Build: notDispatch},

		{Name: "if", Params: []node.ParamSpec{
			{Name: "condition", Class: node.ParamNormal},
			{Name: "branch", Class: node.ParamNormal, Types: 1 << cell.KindBlock},
		}, Build: ifDispatch},

		{Name: "either", Params: []node.ParamSpec{
			{Name: "condition", Class: node.ParamNormal},
			{Name: "true-branch", Class: node.ParamNormal, Types: 1 << cell.KindBlock},
			{Name: "false-branch", Class: node.ParamNormal, Types: 1 << cell.KindBlock},
		}, Build: eitherDispatch},

		{Name: "while", Params: []node.ParamSpec{
			{Name: "condition", Class: node.ParamHardQuote, Types: 1 << cell.KindBlock},
			{Name: "body", Class: node.ParamHardQuote, Types: 1 << cell.KindBlock},
		}, Build: whileDispatch},

		{Name: "return", Params: []node.ParamSpec{{Name: "value", Class: node.ParamNormal}}, Build: returnDispatch},
		{Name: "break", Params: nil, Build: breakDispatch},
		{Name: "continue", Params: nil, Build: continueDispatch},

		{Name: "throw", Params: []node.ParamSpec{
			{Name: "name", Class: node.ParamHardQuote, Types: 1 << cell.KindWord},
			{Name: "value", Class: node.ParamNormal},
		}, Build: throwDispatch},
		{Name: "catch", Params: []node.ParamSpec{
			{Name: "name", Class: node.ParamHardQuote, Types: 1 << cell.KindWord},
			{Name: "body", Class: node.ParamNormal, Types: 1 << cell.KindBlock},
		}, Build: catchDispatch},

		{Name: "print", Params: []node.ParamSpec{{Name: "value", Class: node.ParamNormal}}, Build: printDispatch},
		{Name: "mold", Params: []node.ParamSpec{{Name: "value", Class: node.ParamNormal}}, Build: moldDispatch},
		{Name: "form", Params: []node.ParamSpec{{Name: "value", Class: node.ParamNormal}}, Build: formDispatch},
	}
}

func binaryParams() []node.ParamSpec {
	return []node.ParamSpec{
		{Name: "value1", Class: node.ParamNormal},
		{Name: "value2", Class: node.ParamNormal},
	}
}

func asInt(c cell.Cell) int64 { return int64(c.Payload.A) }
func asDecimal(c cell.Cell) float64 {
	if c.Kind == cell.KindInteger {
		return float64(asInt(c))
	}
	return math.Float64frombits(c.Payload.A)
}

func intCell(v int64) cell.Cell {
	return cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(v)}}
}
func decimalCell(v float64) cell.Cell {
	return cell.Cell{Kind: cell.KindDecimal, Payload: cell.Payload{A: math.Float64bits(v)}}
}

// arith builds the four basic math ops: integer arithmetic stays integer,
// but either operand being decimal! promotes the whole call to decimal!,
// matching the language's usual numeric-tower contagion rule.
func arith(intOp func(a, b int64) int64, decOp func(a, b float64) float64) func(r *Registry) action.Dispatcher {
	return func(r *Registry) action.Dispatcher {
		return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
			a, b := *arg(r.Nodes, f, 1), *arg(r.Nodes, f, 2)
			if a.Kind == cell.KindDecimal || b.Kind == cell.KindDecimal {
				f.Out = decimalCell(decOp(asDecimal(a), asDecimal(b)))
			} else {
				f.Out = intCell(intOp(asInt(a), asInt(b)))
			}
			return action.ResultNormal, unwind.Label{}
		}
	}
}

func divideDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		a, b := *arg(r.Nodes, f, 1), *arg(r.Nodes, f, 2)
		if a.Kind == cell.KindDecimal || b.Kind == cell.KindDecimal {
			y := asDecimal(b)
			if y == 0 {
				unwind.Fail(r.Eval.Errors.Build("math", "zero-divide"))
			}
			f.Out = decimalCell(asDecimal(a) / y)
			return action.ResultNormal, unwind.Label{}
		}
		y := asInt(b)
		if y == 0 {
			unwind.Fail(r.Eval.Errors.Build("math", "zero-divide"))
		}
		f.Out = intCell(asInt(a) / y)
		return action.ResultNormal, unwind.Label{}
	}
}

func compareValues(a, b cell.Cell) int {
	if a.Kind == cell.KindDecimal || b.Kind == cell.KindDecimal {
		x, y := asDecimal(a), asDecimal(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	x, y := asInt(a), asInt(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func compare(accept func(int) bool) func(r *Registry) action.Dispatcher {
	return func(r *Registry) action.Dispatcher {
		return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
			a, b := *arg(r.Nodes, f, 1), *arg(r.Nodes, f, 2)
			f.Out = logicCell(accept(compareValues(a, b)))
			return action.ResultNormal, unwind.Label{}
		}
	}
}

func notDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Out = logicCell(!isTruthy(*arg(r.Nodes, f, 1)))
		return action.ResultNormal, unwind.Label{}
	}
}

func ifDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		cond := *arg(r.Nodes, f, 1)
		branch := arg(r.Nodes, f, 2)
		if !isTruthy(cond) {
			f.Out.SetNulled()
			return action.ResultNormal, unwind.Label{}
		}
		return r.runBlockArg(f, branch)
	}
}

func eitherDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		cond := *arg(r.Nodes, f, 1)
		if isTruthy(cond) {
			return r.runBlockArg(f, arg(r.Nodes, f, 2))
		}
		return r.runBlockArg(f, arg(r.Nodes, f, 3))
	}
}

// runBlockArg evaluates a BLOCK!-valued argument inline under f's own
// binding, for constructs (IF/EITHER) that do not need their own loop or
// function identity the way WHILE/FUNC do.
func (r *Registry) runBlockArg(f *frame.Frame, branch *cell.Cell) (action.ResultKind, unwind.Label) {
	if branch.Kind != cell.KindBlock || branch.Flags&cell.FlagFirstIsNode == 0 {
		f.Out = *branch
		return action.ResultNormal, unwind.Label{}
	}
	sub := &frame.Frame{Feed: frame.NewArrayFeed(r.Nodes, branch.Payload.Node, 0, f.Binding), Binding: f.Binding}
	thrown, label := r.Eval.Do(sub)
	f.Out = sub.Out
	if thrown {
		return action.ResultThrown, label
	}
	return action.ResultNormal, unwind.Label{}
}

// whileDispatch flags its own activation frame FlagLoopBody so nested
// BREAK/CONTINUE (however many non-loop pushed frames — IF, EITHER, a
// function call — sit between them and here) can find it by walking Prior.
func whileDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Flags |= frame.FlagLoopBody
		condCell := arg(r.Nodes, f, 1)
		bodyCell := arg(r.Nodes, f, 2)
		f.Out.SetNulled()

		for {
			condFrame := &frame.Frame{Feed: frame.NewArrayFeed(r.Nodes, condCell.Payload.Node, 0, f.Binding), Binding: f.Binding}
			thrown, label := r.Eval.Do(condFrame)
			if thrown {
				return action.ResultThrown, label
			}
			if !isTruthy(condFrame.Out) {
				return action.ResultNormal, unwind.Label{}
			}

			bodyFrame := &frame.Frame{Feed: frame.NewArrayFeed(r.Nodes, bodyCell.Payload.Node, 0, f.Binding), Binding: f.Binding}
			thrown, label = r.Eval.Do(bodyFrame)
			f.Out = bodyFrame.Out
			if thrown {
				switch {
				case label.Kind == unwind.LabelBreak && label.TargetFrame == f:
					f.Out.SetNulled()
					return action.ResultNormal, unwind.Label{}
				case label.Kind == unwind.LabelContinue && label.TargetFrame == f:
					continue
				default:
					return action.ResultThrown, label
				}
			}
		}
	}
}

// returnDispatch targets the nearest enclosing function activation, found
// by walking Prior for FlagFunctionBody rather than by binding a fresh
// per-call action into the function's locals — simpler, and it threads
// through any nesting of IF/EITHER/WHILE between the RETURN call and the
// function body exactly the same way BREAK/CONTINUE do for loops.
func returnDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Out = *arg(r.Nodes, f, 1)
		target := f.NearestFlagged(frame.FlagFunctionBody)
		if target == nil {
			unwind.Fail(r.Eval.Errors.Build("script", "no-value", "return: not inside a function"))
		}
		return action.ResultThrown, unwind.Label{Kind: unwind.LabelReturn, TargetFrame: target}
	}
}

func breakDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Out.SetNulled()
		target := f.NearestFlagged(frame.FlagLoopBody)
		if target == nil {
			unwind.Fail(r.Eval.Errors.Build("script", "no-value", "break: not inside a loop"))
		}
		return action.ResultThrown, unwind.Label{Kind: unwind.LabelBreak, TargetFrame: target}
	}
}

func continueDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		f.Out.SetNulled()
		target := f.NearestFlagged(frame.FlagLoopBody)
		if target == nil {
			unwind.Fail(r.Eval.Errors.Build("script", "no-value", "continue: not inside a loop"))
		}
		return action.ResultThrown, unwind.Label{Kind: unwind.LabelContinue, TargetFrame: target}
	}
}

func throwDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		name := *arg(r.Nodes, f, 1)
		f.Out = *arg(r.Nodes, f, 2)
		return action.ResultThrown, unwind.Label{Kind: unwind.LabelUserThrow, Name: r.Syms.Spelling(symbol.ID(name.Payload.A))}
	}
}

func catchDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		name := *arg(r.Nodes, f, 1)
		bodyCell := arg(r.Nodes, f, 2)
		want := unwind.Label{Kind: unwind.LabelUserThrow, Name: r.Syms.Spelling(symbol.ID(name.Payload.A))}

		sub := &frame.Frame{Feed: frame.NewArrayFeed(r.Nodes, bodyCell.Payload.Node, 0, f.Binding), Binding: f.Binding}
		thrown, label := r.Eval.Do(sub)
		f.Out = sub.Out
		if !thrown {
			return action.ResultNormal, unwind.Label{}
		}
		if (unwind.Thrown{Label: label}).Matches(want) {
			return action.ResultNormal, unwind.Label{}
		}
		return action.ResultThrown, label
	}
}

func printDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		v := *arg(r.Nodes, f, 1)
		fmt.Println(r.Mold.Form(v))
		f.Out.SetNulled()
		return action.ResultNormal, unwind.Label{}
	}
}

func moldDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		v := *arg(r.Nodes, f, 1)
		f.Out = r.textCell(r.Mold.Mold(v))
		return action.ResultNormal, unwind.Label{}
	}
}

func formDispatch(r *Registry) action.Dispatcher {
	return func(f *frame.Frame) (action.ResultKind, unwind.Label) {
		v := *arg(r.Nodes, f, 1)
		f.Out = r.textCell(r.Mold.Form(v))
		return action.ResultNormal, unwind.Label{}
	}
}
