package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript drive this binary's own argument handling
// in-process (RunMain re-execs Run under a "glyph" subcommand rather than
// requiring a separately built binary on PATH), matching SPEC_FULL.md
// §10.4's golden-script test tooling commitment.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"glyph": func() int { return run(os.Args[1:]) },
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{Dir: "testdata/script"})
}
