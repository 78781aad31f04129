package compiler

import (
	"testing"

	"smile/internal/symbol"
	"smile/internal/value"
)

func ops(seg *ByteCodeSegment) []Opcode {
	out := make([]Opcode, len(seg.Instructions))
	for i, instr := range seg.Instructions {
		out[i] = instr.Op
	}
	return out
}

func assertOps(t *testing.T, got []Opcode, want ...Opcode) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("instruction count mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("instruction %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCompileLiteral(t *testing.T) {
	symbols := symbol.New()
	forms := []value.Value{value.Int32(5)}
	tables, fn, errs := Compile(symbols, forms)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	_ = tables
	assertOps(t, ops(fn.Segment), OpLd32, OpRet)
}

func TestCompileIf(t *testing.T) {
	symbols := symbol.New()
	cond := value.Bool(true)
	thenBranch := value.Int32(1)
	elseBranch := value.Int32(2)
	form := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.IF), cond, thenBranch, elseBranch,
	})
	_, fn, errs := Compile(symbols, []value.Value{form})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := ops(fn.Segment)
	want := []Opcode{OpLdBool, OpBf, OpLd32, OpJmp, OpLabel, OpLd32, OpLabel, OpRet}
	// Labels are dropped during linearization, so filter them from `want`
	// before comparing — they exist above only to document intent.
	var filtered []Opcode
	for _, o := range want {
		if o != OpLabel {
			filtered = append(filtered, o)
		}
	}
	assertOps(t, got, filtered...)
}

func TestCompileVarAssignment(t *testing.T) {
	symbols := symbol.New()
	name := symbols.Get("x")
	form := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.SET), value.SymbolValue(name), value.Int32(7),
	})
	_, fn, errs := Compile(symbols, []value.Value{form, value.SymbolValue(name)})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if fn.NumLocals != 1 {
		t.Fatalf("expected 1 local slot for the module global, got %d", fn.NumLocals)
	}
	got := ops(fn.Segment)
	assertOps(t, got, OpLd32, OpStLoc0, OpPop1, OpLdLoc0, OpRet)
}

func TestCompileCall(t *testing.T) {
	symbols := symbol.New()
	form := value.FromSlice([]value.Value{
		value.SymbolValue(symbol.PLUS), value.Int32(1), value.Int32(2),
	})
	_, fn, errs := Compile(symbols, []value.Value{form})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	assertOps(t, ops(fn.Segment), OpLdX, OpLd32, OpLd32, OpCall, OpRet)
}
