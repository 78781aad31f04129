package compiler

import "smile/internal/symbol"

// ByteCodeSegment is the linearized output of one function body: a flat
// instruction array whose branch instructions point at their destinations
// through Target, ready for
// internal/eval's fetch-decode-dispatch loop (spec.md §4.4
// "Intermediate -> bytecode").
type ByteCodeSegment struct {
	Instructions []*IntermediateInstruction // flattened, Op_Label instructions dropped
	Offsets      []int                      // not filled by linearize; branch destinations are read from Instructions[i].Target
}

// UserFunctionInfo is one compiled function: its parameter count, local
// slot count, and the code to run. Instances are referenced from
// value.Function.Code (typed `any` there to avoid an import cycle, see
// internal/value/function.go).
type UserFunctionInfo struct {
	Name       symbol.Symbol
	NumArgs    int
	NumLocals  int
	MaxStack   int
	Segment    *ByteCodeSegment
	ParentFunc *UserFunctionInfo // not set by the compiler (always nil); LdArg/LdLoc depths are resolved at compile time
}

// VarDict maps a module's top-level var/const declarations to their slot
// index in the module's global closure, computed before any bytecode is
// emitted so dependent modules can compile against exports without
// forcing evaluation (spec.md §4.4 "Global closure layout
// precomputation", §4.6 "Module System").
type VarDict struct {
	order []symbol.Symbol
	index map[symbol.Symbol]int
}

func NewVarDict() *VarDict {
	return &VarDict{index: make(map[symbol.Symbol]int)}
}

func (v *VarDict) Declare(name symbol.Symbol) int {
	if idx, ok := v.index[name]; ok {
		return idx
	}
	idx := len(v.order)
	v.order = append(v.order, name)
	v.index[name] = idx
	return idx
}

func (v *VarDict) Lookup(name symbol.Symbol) (int, bool) {
	idx, ok := v.index[name]
	return idx, ok
}

func (v *VarDict) Len() int { return len(v.order) }

func (v *VarDict) Names() []symbol.Symbol { return v.order }

// CompiledTables holds everything a compiled module or function body
// needs at evaluation time beyond its own instruction stream: the
// constant pool, the function table (for NewFn), and the string table
// (for LdStr).
type CompiledTables struct {
	Constants []any
	Functions []*UserFunctionInfo
	Strings   []string
	Globals   *VarDict
}

func NewCompiledTables() *CompiledTables {
	return &CompiledTables{Globals: NewVarDict()}
}

func (t *CompiledTables) addConstant(v any) int {
	t.Constants = append(t.Constants, v)
	return len(t.Constants) - 1
}

func (t *CompiledTables) addString(s string) int {
	for i, existing := range t.Strings {
		if existing == s {
			return i
		}
	}
	t.Strings = append(t.Strings, s)
	return len(t.Strings) - 1
}

func (t *CompiledTables) addFunction(fn *UserFunctionInfo) int {
	t.Functions = append(t.Functions, fn)
	return len(t.Functions) - 1
}
