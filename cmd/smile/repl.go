package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"smile/internal/compiler"
	"smile/internal/lexer"
	"smile/internal/symbol"
	"smile/internal/token"
)

// replCmd is an interactive read-eval-print loop. It wires
// github.com/chzyer/readline for real: a history file and a `...`
// continuation prompt driven by an open-brace/paren/bracket balance
// heuristic over token.Kind's three bracket pairs.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Smile session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive read-eval-print loop.
`
}
func (*replCmd) SetFlags(*flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = home + "/.smile_history"
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fail("failed to start REPL: %v", err)
	}
	defer rl.Close()

	fmt.Println("Welcome to Smile!")
	runRepl(rl, os.Stdout)
	return subcommands.ExitSuccess
}

// runRepl recompiles and evaluates each complete top-level form the user
// types. Values stashed in a bare top-level $set become module-closure
// locals rather than Globals entries (see internal/compiler's "global
// closure layout precomputation"), and each line's Run call gets a fresh
// closure, so unlike the bytecode-file path, top-level bindings do not
// currently survive from one REPL line to the next; only Globals-backed
// state (names a function body assigns with $set that are not declared
// at module top level) persists. Carrying module closures across
// Run calls would need the REPL to hold onto its own persistent top-level
// Closure rather than letting Run allocate one per call; left as a
// follow-up (see DESIGN.md).
func runRepl(rl *readline.Instance, out io.Writer) {
	symbols := symbol.New()
	tables := compiler.NewCompiledTables()
	m := newMachine(symbols, tables)

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			buffer.Reset()
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			return
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		forms, diags := parseSource(symbols, "<repl>", source)
		if !diagnosticsHaveError(diags) && endsMidBracket(source) {
			continue
		}
		if diagnosticsHaveError(diags) {
			fmt.Fprint(out, formatDiagnostics(diags))
			buffer.Reset()
			continue
		}

		newTables, fn, errs := compiler.Compile(symbols, forms)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(out, e)
			}
			buffer.Reset()
			continue
		}
		m.Tables = newTables

		result, err := m.Run(fn, nil, nil)
		if err != nil {
			fmt.Fprintln(out, err.Error())
			buffer.Reset()
			continue
		}
		if result != nil {
			fmt.Fprintln(out, lexer.NormalizeForDisplay(result.String()))
		}
		buffer.Reset()
	}
}

// endsMidBracket reports whether src has unbalanced brackets/braces/
// parens, so the REPL should keep collecting lines instead of trying to
// parse yet. All three Smile bracket pairs are checked since `[...]`
// forms and `(...)` groupings are just as likely to span lines as
// `{...}` scopes.
func endsMidBracket(src string) bool {
	lex := lexer.New(symbol.New(), "<repl>", src, 1, 1)
	balance := 0
	for {
		tok := lex.Next()
		switch tok.Kind {
		case token.LPAREN, token.LBRACKET, token.LBRACE:
			balance++
		case token.RPAREN, token.RBRACKET, token.RBRACE:
			balance--
		case token.EOI:
			return balance > 0
		}
	}
}
