// Package patternscript exposes the single entry point that drives the
// full compile-and-run pipeline: lexer, parser, semantic analyzer, IR
// generator, optimizer, and interpreter, run strictly in sequence.
package patternscript

import (
	"patternscript/internal/diag"
	"patternscript/internal/interp"
	"patternscript/internal/ir"
	"patternscript/internal/lexer"
	"patternscript/internal/optimize"
	"patternscript/internal/parser"
	"patternscript/internal/sema"
)

// Result mirrors interp.Result: the ordered output lines, and the
// optional value passed to `give`.
type Result struct {
	Output    []string
	GiveValue *interp.Value
}

// Run compiles and executes a PatternScript program from source text.
// Every call constructs its own scanner, parser, analyzer, TAC list, and
// value store — no state is shared across invocations.
func Run(source string) (Result, *diag.Error) {
	tokens, lexErr := lexer.New(source).ScanTokens()
	if lexErr != nil {
		return Result{}, lexErr
	}

	stmts, parseErr := parser.New(tokens, source).Parse()
	if parseErr != nil {
		return Result{}, parseErr
	}

	if semaErr := sema.New().Analyze(stmts); semaErr != nil {
		return Result{}, semaErr
	}

	instrs := ir.Generate(stmts)
	instrs = optimize.Run(instrs)

	res, runErr := interp.Run(instrs)
	if runErr != nil {
		return Result{}, runErr
	}
	return Result{Output: res.Output, GiveValue: res.GiveValue}, nil
}
