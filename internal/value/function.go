package value

import "smile/internal/symbol"

// FunctionKind distinguishes a compiled-bytecode closure from a native
// (Go-implemented) external function.
type FunctionKind byte

const (
	FunctionBytecode FunctionKind = iota
	FunctionNative
)

// NativeFunc is the signature every native external function implements.
// It completes in one call, returning a value or an error; there is no
// state-machine variant of a native function.
type NativeFunc func(args []Value) (Value, error)

// Function is Smile's callable value: either a bytecode closure over a
// compiled function body, or a native Go function. Code and Env are typed
// `any` rather than concrete compiler/eval types to avoid an import cycle
// (value is a leaf package that compiler and eval both depend on); the
// eval package performs the type assertion back to
// *compiler.UserFunctionInfo / *eval.Closure when it dispatches a call.
type Function struct {
	Name     symbol.Symbol
	CallKind FunctionKind
	Native   NativeFunc
	Arity    int // native functions only; -1 means variadic
	Code     any // *compiler.UserFunctionInfo, when CallKind == FunctionBytecode
	Env      any // *eval.Closure (lexical parent), when CallKind == FunctionBytecode
}

func NewNativeFunction(name symbol.Symbol, arity int, fn NativeFunc) *Function {
	return &Function{Name: name, CallKind: FunctionNative, Native: fn, Arity: arity}
}

func NewBytecodeFunction(name symbol.Symbol, code, env any) *Function {
	return &Function{Name: name, CallKind: FunctionBytecode, Code: code, Env: env}
}

func (*Function) Kind() Kind { return KindFunction }

func (f *Function) Equals(other Value) bool {
	o, ok := other.(*Function)
	return ok && o == f
}
func (f *Function) DeepEquals(other Value, _ *VisitedSet) bool { return f.Equals(other) }
func (f *Function) Hash() uint64                               { return hashUint64(KindFunction, uint64(f.Name)) }
func (*Function) Truthy() bool                                 { return true }
func (*Function) TypeName() symbol.Symbol                      { return typeNameOf(KindFunction) }
func (f *Function) String() string {
	if f.Name == 0 {
		return "Fn"
	}
	return "Fn<" + f.Name.String() + ">"
}
