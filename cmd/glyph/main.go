// cmd/glyph is a minimal embedding driver: it boots a Runtime, runs the
// handful of demo expressions a host would hand-construct as cells (there
// is no lexical scanner in this core — spec.md §1 scopes source-text
// parsing out), and prints each result the way the teacher's CLI prints a
// command's outcome. It exists to exercise internal/runtime end to end,
// not as a language front-end.
package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/mattn/go-isatty"

	"glyph/internal/bind"
	"glyph/internal/cell"
	"glyph/internal/frame"
	"glyph/internal/pool"
	"glyph/internal/runtime"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run holds every exit path main would otherwise take directly, so the
// golden-script tests (cmd/glyph/main_test.go) can drive it in-process via
// testscript.RunMain instead of needing a built binary on PATH.
func run(args []string) int {
	if len(args) > 0 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Printf("glyph %s (manifest %s)\n", version, runtime.ManifestVersion)
		return 0
	}
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
		showUsage()
		return 0
	}

	color := isatty.IsTerminal(os.Stdout.Fd())

	cfg := runtime.ConfigFromEnv()
	rt, err := runtime.Boot(cfg, runtime.ManifestVersion)
	if err != nil {
		fmt.Fprintln(os.Stderr, "glyph: boot failed:", err)
		return 1
	}

	for _, result := range runDemo(rt) {
		printResult(result, color)
	}
	return 0
}

func showUsage() {
	fmt.Println(`glyph - runtime core driver

Usage:
  glyph            run the built-in demo expressions
  glyph --version  print the version and native-manifest schema
  glyph --help     show this message

There is no source-text reader wired into this build (spec.md scopes the
lexical scanner out of the runtime core); this driver hand-constructs a
handful of cell sequences to exercise the evaluator end to end.`)
}

// demoResult pairs a label (the expression, as a human would write it, for
// display only) with the rescued outcome of actually running it.
type demoResult struct {
	label string
	value any
	err   error
}

// runDemo builds and evaluates a short fixed sequence of expressions
// against rt's booted lib context, using Rescue the same way any
// native-level re-entry into the evaluator would, per spec.md §6's
// "evaluate-with-rescue" entry point.
func runDemo(rt *runtime.Runtime) []demoResult {
	exprs := []struct {
		label string
		build func(rt *runtime.Runtime) pool.NodeID
	}{
		{"add 1 2", buildAddOneTwo},
		{"mold add 2 3", buildMoldAddTwoThree},
	}

	results := make([]demoResult, 0, len(exprs))
	for _, e := range exprs {
		arr := e.build(rt)
		value, rerr := rt.Rescue(func() any {
			spec := &bind.Specifier{Kind: bind.Concrete, Context: rt.Lib}
			f := &frame.Frame{Feed: frame.NewArrayFeed(rt.Nodes, arr, 0, spec), Binding: spec}
			thrown, label := rt.Eval.Do(f)
			if thrown {
				panic(fmt.Sprintf("uncaught throw: %s", label.Kind))
			}
			return rt.Mold.Form(f.Out)
		})
		var goErr error
		if rerr != nil {
			goErr = rerr
		}
		results = append(results, demoResult{label: e.label, value: value, err: goErr})
	}
	return results
}

func wordCell(rt *runtime.Runtime, name string) cell.Cell {
	return cell.Cell{Kind: cell.KindWord, Payload: cell.Payload{A: uint64(rt.Syms.Intern(name))}}
}

func intCell(v int64) cell.Cell {
	return cell.Cell{Kind: cell.KindInteger, Payload: cell.Payload{A: uint64(v)}}
}

func buildAddOneTwo(rt *runtime.Runtime) pool.NodeID {
	id := rt.Nodes.NewArray(3)
	arr := rt.Nodes.Array(id)
	arr.Append(wordCell(rt, "add"))
	arr.Append(intCell(1))
	arr.Append(intCell(2))
	return id
}

// buildMoldAddTwoThree builds `mold (add 2 3)`: a GROUP! argument so MOLD
// receives the already-evaluated sum, not the three-element block itself.
func buildMoldAddTwoThree(rt *runtime.Runtime) pool.NodeID {
	id := rt.Nodes.NewArray(2)
	arr := rt.Nodes.Array(id)
	arr.Append(wordCell(rt, "mold"))

	innerID := rt.Nodes.NewArray(3)
	inner := rt.Nodes.Array(innerID)
	inner.Append(wordCell(rt, "add"))
	inner.Append(intCell(2))
	inner.Append(intCell(3))

	arr.Append(cell.Cell{Kind: cell.KindGroup, Flags: cell.FlagFirstIsNode, Payload: cell.Payload{Node: innerID}})
	return id
}

func printResult(r demoResult, color bool) {
	if r.err != nil {
		if color {
			fmt.Printf("\x1b[31m%s => error\x1b[0m\n", r.label)
		} else {
			fmt.Printf("%s => error\n", r.label)
		}
		pretty.Println(r.err)
		return
	}
	if color {
		fmt.Printf("\x1b[32m%s\x1b[0m => %v\n", r.label, r.value)
	} else {
		fmt.Printf("%s => %v\n", r.label, r.value)
	}
}
