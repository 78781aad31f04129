package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"smile/internal/symbol"
)

// astCmd dumps the parser's canonical list-form output for a source
// file, as a standalone command rather than an always-on REPL side
// effect.
type astCmd struct{}

func (*astCmd) Name() string     { return "ast" }
func (*astCmd) Synopsis() string { return "Dump the parsed S-expression form of a source file" }
func (*astCmd) Usage() string {
	return `ast <file>:
  Parse a Smile source file and print its canonical list-form output.
`
}
func (*astCmd) SetFlags(*flag.FlagSet) {}

func (*astCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
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
	for i, form := range forms {
		fmt.Printf("%d: %s\n", i, form.String())
	}
	if len(diags) > 0 {
		fmt.Fprint(os.Stderr, formatDiagnostics(diags))
		if diagnosticsHaveError(diags) {
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
