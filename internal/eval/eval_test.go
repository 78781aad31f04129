package eval

import (
	"testing"

	"smile/internal/compiler"
	"smile/internal/symbol"
	"smile/internal/value"
)

func run(t *testing.T, forms ...value.Value) value.Value {
	t.Helper()
	symbols := symbol.New()
	tables, fn, errs := compiler.Compile(symbols, forms)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	v, err := m.Run(fn, nil, nil)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	return v
}

func TestRunLiteral(t *testing.T) {
	v := run(t, value.Int32(5))
	if n, ok := v.(value.Int32); !ok || n != 5 {
		t.Fatalf("got %v", v)
	}
}

func TestRunArithmetic(t *testing.T) {
	form := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.PLUS), value.Int32(1), value.Int32(2),
	})
	v := run(t, form)
	n, ok := v.(value.Int64)
	if !ok || n != 3 {
		t.Fatalf("got %v", v)
	}
}

func TestRunIf(t *testing.T) {
	form := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.IF), value.Bool(false), value.Int32(1), value.Int32(2),
	})
	v := run(t, form)
	n, ok := v.(value.Int32)
	if !ok || n != 2 {
		t.Fatalf("got %v", v)
	}
}

func TestRunVarAssignment(t *testing.T) {
	symbols := symbol.New()
	name := symbols.Get("x")
	setForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.SET), value.SymbolValue(name), value.Int32(7),
	})
	tables, fn, errs := compiler.Compile(symbols, []value.Value{setForm, value.SymbolValue(name)})
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	v, err := m.Run(fn, nil, nil)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	if n, ok := v.(value.Int32); !ok || n != 7 {
		t.Fatalf("got %v", v)
	}
}

func TestRunWhileAccumulates(t *testing.T) {
	symbols := symbol.New()
	i := symbols.Get("i")
	acc := symbols.Get("acc")
	forms := []value.Value{
		value.FromSlice([]value.Value{value.SymbolValue(symbol.SET), value.SymbolValue(i), value.Int32(0)}),
		value.FromSlice([]value.Value{value.SymbolValue(symbol.SET), value.SymbolValue(acc), value.Int32(0)}),
		value.FromSlice([]value.Value{
			value.SymbolValue(symbol.WHILE),
			value.FromSlice([]value.Value{value.SymbolValue(symbol.LT), value.SymbolValue(i), value.Int32(3)}),
			value.FromSlice([]value.Value{
				value.SymbolValue(symbol.PROGN),
				value.FromSlice([]value.Value{
					value.SymbolValue(symbol.SET), value.SymbolValue(acc),
					value.FromSlice([]value.Value{value.SymbolValue(symbol.PLUS), value.SymbolValue(acc), value.SymbolValue(i)}),
				}),
				value.FromSlice([]value.Value{
					value.SymbolValue(symbol.SET), value.SymbolValue(i),
					value.FromSlice([]value.Value{value.SymbolValue(symbol.PLUS), value.SymbolValue(i), value.Int32(1)}),
				}),
			}),
		}),
		value.SymbolValue(acc),
	}
	tables, fn, errs := compiler.Compile(symbols, forms)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	v, err := m.Run(fn, nil, nil)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	n, ok := v.(value.Int64)
	if !ok || n != 3 {
		t.Fatalf("got %v (want 0+1+2=3)", v)
	}
}

func TestRunTryCatchThrow(t *testing.T) {
	symbols := symbol.New()
	e := symbols.Get("e")
	message := symbols.Get("message")
	throwSym := symbols.Get("throw")

	thrownObject := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.NEW),
		nil,
		value.FromSlice([]value.Value{
			value.NewPair(value.SymbolValue(message), value.NewString("oops")),
		}),
	})
	throwCall := value.FromSlice([]value.Value{
		value.SymbolValue(throwSym), thrownObject,
	})
	catchForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.CATCH),
		throwCall,
		value.SymbolValue(e),
		value.NewPair(value.SymbolValue(e), value.SymbolValue(message)),
	})

	tables, fn, errs := compiler.Compile(symbols, []value.Value{catchForm})
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	v, err := m.Run(fn, nil, nil)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	s, ok := v.(*value.String)
	if !ok || s.String() != "oops" {
		t.Fatalf("got %v, want the string \"oops\"", v)
	}
}

func TestRunUncaughtThrowEscapesAsError(t *testing.T) {
	symbols := symbol.New()
	throwSym := symbols.Get("throw")
	throwCall := value.FromSlice([]value.Value{
		value.SymbolValue(throwSym), value.NewString("boom"),
	})
	tables, fn, errs := compiler.Compile(symbols, []value.Value{throwCall})
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	if _, err := m.Run(fn, nil, nil); err == nil {
		t.Fatalf("expected an uncaught-exception error")
	}
}

func TestRunTillWhen(t *testing.T) {
	symbols := symbol.New()
	done := symbols.Get("done")
	tillForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.TILL),
		value.FromSlice([]value.Value{value.SymbolValue(done)}),
		value.FromSlice([]value.Value{value.SymbolValue(done), value.Int32(1)}),
		value.NewPair(value.SymbolValue(done), value.Int32(2)),
	})
	v := run(t, tillForm)
	n, ok := v.(value.Int32)
	if !ok || n != 2 {
		t.Fatalf("got %v, want the when-handler's value 2", v)
	}
}

// TestRunTailCallDoesNotGrowHostStack recurses a million times through a
// self-call in tail position; without OpCallTail replacing runClosure's
// frame in place instead of recursing, this overflows the Go stack.
func TestRunTailCallDoesNotGrowHostStack(t *testing.T) {
	symbols := symbol.New()
	loop := symbols.Get("loop")
	n := symbols.Get("n")
	acc := symbols.Get("acc")

	body := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.IF),
		value.FromSlice([]value.Value{value.SymbolValue(symbol.LE), value.SymbolValue(n), value.Int32(0)}),
		value.SymbolValue(acc),
		value.FromSlice([]value.Value{
			value.SymbolValue(loop),
			value.FromSlice([]value.Value{value.SymbolValue(symbol.MINUS), value.SymbolValue(n), value.Int32(1)}),
			value.FromSlice([]value.Value{value.SymbolValue(symbol.PLUS), value.SymbolValue(acc), value.Int32(1)}),
		}),
	})
	fnForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.FN),
		value.FromSlice([]value.Value{value.SymbolValue(n), value.SymbolValue(acc)}),
		body,
	})
	setForm := value.FromSlice([]value.Value{value.SymbolValue(symbol.SET), value.SymbolValue(loop), fnForm})
	callForm := value.FromSlice([]value.Value{
		value.SymbolValue(loop), value.Int32(1000000), value.Int32(0),
	})

	tables, fn, errs := compiler.Compile(symbols, []value.Value{setForm, callForm})
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	globals := NewGlobals()
	RegisterBuiltins(symbols, globals)
	m := NewMachine(tables, globals)
	v, err := m.Run(fn, nil, nil)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	total, ok := v.(value.Int64)
	if !ok || total != 1000000 {
		t.Fatalf("got %v, want 1000000", v)
	}
}

func TestRunFnCall(t *testing.T) {
	symbols := symbol.New()
	x := symbols.Get("x")
	fnForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.FN),
		value.FromSlice([]value.Value{value.SymbolValue(x)}),
		value.FromSlice([]value.Value{value.SymbolValue(symbol.PLUS), value.SymbolValue(x), value.Int32(1)}),
	})
	callForm := value.FromSlice([]value.Value{fnForm, value.Int32(41)})
	v := run(t, callForm)
	n, ok := v.(value.Int64)
	if !ok || n != 42 {
		t.Fatalf("got %v", v)
	}
}
