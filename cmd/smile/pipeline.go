package main

import (
	"fmt"
	"strings"

	"smile/internal/compiler"
	"smile/internal/eval"
	"smile/internal/lexer"
	"smile/internal/parser"
	"smile/internal/symbol"
	"smile/internal/value"
)

// parseSource lexes and parses src into top-level forms, collecting any
// Error/Fatal-severity diagnostics produced along the way.
func parseSource(symbols *symbol.Table, filename, src string) ([]value.Value, []parser.Diagnostic) {
	lex := lexer.New(symbols, filename, src, 1, 1)
	p := parser.New(symbols, lex)
	forms, diags := p.Parse()
	return forms, diags
}

func diagnosticsHaveError(diags []parser.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity >= parser.Error {
			return true
		}
	}
	return false
}

func formatDiagnostics(diags []parser.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		fmt.Fprintf(&b, "%s:%d:%d: %s\n", d.Pos.Filename, d.Pos.Line, d.Pos.Column, d.Message)
	}
	return b.String()
}

// newMachine builds a Machine with the native builtins already installed,
// the environment every run/repl invocation shares. symbols must
// be the same table the source was parsed/compiled against, so a bare
// `throw` or `message` reference in that source resolves to the same
// symbol ID RegisterBuiltins bound its native function under.
func newMachine(symbols *symbol.Table, tables *compiler.CompiledTables) *eval.Machine {
	globals := eval.NewGlobals()
	eval.RegisterBuiltins(symbols, globals)
	return eval.NewMachine(tables, globals)
}
