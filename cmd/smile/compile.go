package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"smile/internal/compiler"
	"smile/internal/symbol"
)

// compileCmd emits the compiled bytecode for a source file as a
// readable disassembly listing on stdout, or to a file with -out.
type compileCmd struct {
	outPath string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "Emit the disassembled bytecode for a source file" }
func (*compileCmd) Usage() string {
	return `compile <file>:
  Compile a Smile source file and print its disassembled bytecode.
`
}

func (cmd *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.outPath, "out", "", "write the disassembly to this file instead of stdout")
}

func (cmd *compileCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
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

	listing := disassemble(symbols, tables, fn, 0)

	if cmd.outPath == "" {
		fmt.Print(listing)
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(cmd.outPath, []byte(listing), 0o644); err != nil {
		return fail("failed to write disassembly: %v", err)
	}
	return subcommands.ExitSuccess
}

// disassemble renders fn's instructions as `pc  Op  operands` lines,
// recursing into nested function bodies discovered via OpNewFn the way a
// reader would expect a function's children to appear beneath it.
func disassemble(symbols *symbol.Table, tables *compiler.CompiledTables, fn *compiler.UserFunctionInfo, depth int) string {
	var b strings.Builder
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(&b, "%sfunction %s (args=%d locals=%d)\n", indent, fn.Name.String(), fn.NumArgs, fn.NumLocals)

	nested := map[int]bool{}
	for i, in := range fn.Segment.Instructions {
		fmt.Fprintf(&b, "%s%4d  %-10s", indent, i, in.Op.String())
		for _, op := range in.Operands {
			fmt.Fprintf(&b, " %d", op)
		}
		if in.Target != nil {
			fmt.Fprintf(&b, " -> %d", in.Target.Index)
		}
		fmt.Fprintln(&b)
		if in.Op == compiler.OpNewFn {
			nested[int(in.Operands[0])] = true
		}
	}
	for idx := range nested {
		b.WriteString(disassemble(symbols, tables, tables.Functions[idx], depth+1))
	}
	return b.String()
}
