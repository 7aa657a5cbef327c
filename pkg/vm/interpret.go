package vm

import (
	"github.com/kristofer/loxvm/pkg/compiler"
	"github.com/kristofer/loxvm/pkg/parser"
)

// Interpret parses, compiles, and runs source against vm, returning
// every error encountered. A scan/parse failure short-circuits before
// compilation; a compile failure short-circuits before execution —
// matching the original's three-stage pipeline, where each stage's
// errors are collected and reported without attempting the next stage.
func Interpret(source string, vm *VM) []error {
	p := parser.New(source)
	statements, errs := p.Parse()
	if len(errs) > 0 {
		return errs
	}

	c := compiler.New(vm.Heap(), compiler.TypeScript, "")
	fn, errs := c.Compile(statements)
	if len(errs) > 0 {
		return errs
	}

	if err := vm.Run(fn); err != nil {
		return []error{err}
	}
	return nil
}
