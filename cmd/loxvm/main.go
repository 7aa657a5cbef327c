// Command loxvm is the CLI front end for the bytecode compiler and VM:
// run a script file, or drop into an interactive REPL with no
// arguments.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"

	"github.com/kristofer/loxvm/pkg/vm"
)

func main() {
	switch len(os.Args) {
	case 1:
		runREPL()
	case 2:
		runFile(os.Args[1])
	default:
		fmt.Fprintln(os.Stderr, "Usage: loxvm [script]")
		os.Exit(64)
	}
}

// runFile reads and executes path, reporting elapsed wall time to
// stderr the way the original CLI's Instant/elapsed() does.
func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrapf(err, "reading %s", path))
		os.Exit(66)
	}

	machine := vm.New(os.Stdout)
	start := time.Now()
	errs := vm.Interpret(string(source), machine)
	elapsed := time.Since(start)

	for _, e := range errs {
		fmt.Fprintln(os.Stderr, e)
	}
	fmt.Fprintf(os.Stderr, "elapsed: %s\n", elapsed)
	if len(errs) > 0 {
		os.Exit(70)
	}
}

// runREPL reads one line at a time on github.com/chzyer/readline (for
// history and line editing) and evaluates it against one persistent VM,
// so top-level `var`/`fun` declarations — which compile to globals —
// remain visible to later lines.
func runREPL() {
	rl, err := readline.New("> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "starting REPL"))
		os.Exit(74)
	}
	defer rl.Close()

	machine := vm.New(os.Stdout)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		if line == "" {
			continue
		}
		for _, e := range vm.Interpret(line, machine) {
			fmt.Fprintln(os.Stderr, e)
		}
	}
}
