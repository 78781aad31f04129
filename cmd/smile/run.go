package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"smile/internal/compiler"
	"smile/internal/symbol"
)

// runCmd executes a source file to completion: source is parsed,
// compiled to bytecode, and handed to internal/eval.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute Smile code from a source file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Compile and execute a Smile source file.
`
}
func (*runCmd) SetFlags(*flag.FlagSet) {}

func (*runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		return fail("file not provided")
	}
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		return fail("failed to read file: %v", err)
	}

	symbols := symbol.New()
	forms, diags := parseSource(symbols, filename, string(data))
	if diagnosticsHaveError(diags) {
		fmt.Fprint(os.Stderr, formatDiagnostics(diags))
		return subcommands.ExitFailure
	}

	tables, fn, errs := compiler.Compile(symbols, forms)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	m := newMachine(symbols, tables)
	result, err := m.Run(fn, nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return subcommands.ExitFailure
	}
	if result != nil {
		fmt.Println(result.String())
	}
	return subcommands.ExitSuccess
}
