package module

import (
	"testing"

	"smile/internal/compiler"
	"smile/internal/eval"
	"smile/internal/symbol"
	"smile/internal/value"
)

func compileModule(t *testing.T, symbols *symbol.Table, forms ...value.Value) (*compiler.CompiledTables, *compiler.UserFunctionInfo) {
	t.Helper()
	tables, fn, errs := compiler.Compile(symbols, forms)
	if len(errs) != 0 {
		t.Fatalf("unexpected compile errors: %v", errs)
	}
	return tables, fn
}

func TestInitForRealRunsOnce(t *testing.T) {
	symbols := symbol.New()
	x := symbols.Get("x")
	setForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.SET), value.SymbolValue(x), value.Int32(1),
	})
	tables, fn := compileModule(t, symbols, setForm, value.SymbolValue(x))

	reg := NewRegistry()
	info := reg.Register("m", tables, fn, nil)

	globals := eval.NewGlobals()
	eval.RegisterBuiltins(symbols, globals)
	m := eval.NewMachine(tables, globals)

	first := info.InitForReal(m)
	if first.Kind != ResultOk {
		t.Fatalf("unexpected result kind: %v (err %v)", first.Kind, first.Err)
	}
	n, ok := first.Value.(value.Int32)
	if !ok || n != 1 {
		t.Fatalf("got %v", first.Value)
	}

	second := info.InitForReal(m)
	if second != first {
		t.Fatalf("InitForReal re-evaluated instead of returning the cached result")
	}
}

func TestInitForRealCachesParseErrors(t *testing.T) {
	reg := NewRegistry()
	info := reg.Register("broken", compiler.NewCompiledTables(), nil, []string{"bad syntax at line 1"})

	globals := eval.NewGlobals()
	m := eval.NewMachine(compiler.NewCompiledTables(), globals)

	result := info.InitForReal(m)
	if result.Kind != ResultParseErrors {
		t.Fatalf("got kind %v, want ResultParseErrors", result.Kind)
	}
	if len(result.ParseErrors) != 1 {
		t.Fatalf("got parse errors %v", result.ParseErrors)
	}
}

func TestGetExposedValue(t *testing.T) {
	symbols := symbol.New()
	greeting := symbols.Get("greeting")
	setForm := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.SET), value.SymbolValue(greeting), value.Int32(42),
	})
	tables, fn := compileModule(t, symbols, setForm)

	reg := NewRegistry()
	info := reg.Register("m", tables, fn, nil)

	globals := eval.NewGlobals()
	eval.RegisterBuiltins(symbols, globals)
	m := eval.NewMachine(tables, globals)
	if res := info.InitForReal(m); res.Kind != ResultOk {
		t.Fatalf("unexpected result: %v %v", res.Kind, res.Err)
	}
	globals.Set(greeting, value.Int32(42))

	v, err := info.GetExposedValue(globals, greeting)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n, ok := v.(value.Int32); !ok || n != 42 {
		t.Fatalf("got %v", v)
	}

	other := symbols.Get("nope")
	if _, err := info.GetExposedValue(globals, other); err == nil {
		t.Fatalf("expected an error for an undeclared export")
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	tables, fn := compileModule(t, symbol.New(), value.Int32(1))
	a := reg.Register("a", tables, fn, nil)
	b := reg.Register("b", tables, fn, nil)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids, got %d and %d", a.ID, b.ID)
	}

	found, ok := reg.Lookup("a")
	if !ok || found != a {
		t.Fatalf("Lookup(%q) = %v, %v", "a", found, ok)
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Fatalf("Lookup of an unregistered name should fail")
	}
}
