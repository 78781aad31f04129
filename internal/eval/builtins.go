package eval

import (
	"fmt"

	"smile/internal/symbol"
	"smile/internal/value"
)

// RegisterBuiltins installs the native arithmetic, comparison and
// exception-raising functions every compiled module needs at global
// scope: the compiler lowers operators like `+`/`<` to a plain LdX/Call
// pair against these same global symbol IDs (internal/compiler's
// compileCall has no special knowledge of arithmetic), so Globals must
// carry a callable for each one before any bytecode referencing it can
// run (spec.md §4.5 "External functions"). symbols interns the names
// (`throw`, `message`, `kind`) that have no fixed known-symbol ID of
// their own, so the binding this installs lines up with whatever ID the
// parser assigned the same bare name while compiling the calling code.
func RegisterBuiltins(symbols *symbol.Table, g *Globals) {
	g.Set(symbol.PLUS, value.NewNativeFunction(symbol.PLUS, -1, nativeArith(func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b })))
	g.Set(symbol.MINUS, value.NewNativeFunction(symbol.MINUS, -1, nativeArith(func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b })))
	g.Set(symbol.STAR, value.NewNativeFunction(symbol.STAR, -1, nativeArith(func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b })))
	g.Set(symbol.SLASH, value.NewNativeFunction(symbol.SLASH, -1, nativeDivide))

	g.Set(symbol.LT, value.NewNativeFunction(symbol.LT, 2, nativeCompare(func(c int) bool { return c < 0 })))
	g.Set(symbol.GT, value.NewNativeFunction(symbol.GT, 2, nativeCompare(func(c int) bool { return c > 0 })))
	g.Set(symbol.LE, value.NewNativeFunction(symbol.LE, 2, nativeCompare(func(c int) bool { return c <= 0 })))
	g.Set(symbol.GE, value.NewNativeFunction(symbol.GE, 2, nativeCompare(func(c int) bool { return c >= 0 })))
	g.Set(symbol.OP_EQ, value.NewNativeFunction(symbol.OP_EQ, 2, func(args []value.Value) (value.Value, error) {
		return value.Bool(args[0].Equals(args[1])), nil
	}))
	g.Set(symbol.OP_NE, value.NewNativeFunction(symbol.OP_NE, 2, func(args []value.Value) (value.Value, error) {
		return value.Bool(!args[0].Equals(args[1])), nil
	}))

	throwSym := symbols.Get("throw")
	g.Set(throwSym, value.NewNativeFunction(throwSym, 1, nativeThrow(symbols.Get("message"), symbols.Get("kind"))))
}

// thrownSignal is the sentinel nativeThrow returns so call() can recover
// the exception it built (with its payload object attached) instead of
// flattening it into a plain string the way an ordinary native-function
// error is wrapped (spec.md §7 "Runtime exceptions are thrown as
// UserObject instances with a conventional shape").
type thrownSignal struct {
	exception *value.Exception
}

func (t *thrownSignal) Error() string { return t.exception.Message }

// nativeThrow implements the `throw` builtin: raising its argument as the
// current exception (spec.md §8 scenario 5, `throw {message: "oops"}`).
// When the argument is a UserObject, it becomes the exception's Payload
// directly, so a $catch handler binding `e` sees the same object the
// caller built — `e.message` reads straight through to the field the
// caller set, with no separate wrapping layer to unwrap.
func nativeThrow(msgSym, kindSym symbol.Symbol) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		var payload value.Value = value.NullObject
		if len(args) > 0 {
			payload = args[0]
		}
		exc := &value.Exception{Message: payload.String()}
		if obj, ok := payload.(*value.UserObject); ok {
			exc.Payload = obj
			if m, ok := obj.Get(msgSym); ok {
				exc.Message = m.String()
			}
			if k, ok := obj.Get(kindSym); ok {
				if sv, ok := k.(value.SymbolValue); ok {
					exc.ExceptionKind = symbol.Symbol(sv)
				}
			}
		}
		return nil, &thrownSignal{exception: exc}
	}
}

// asFloat64 extracts a numeric value's float64 form, used by the mixed
// int/real arithmetic, division and comparison builtins; nativeArith keeps
// the result an Int64 when both operands are Int*.
func asFloat64(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int16:
		return float64(n), true
	case value.Int32:
		return float64(n), true
	case value.Int64:
		return float64(n), true
	case value.Byte:
		return float64(n), true
	case value.Real32:
		return float64(n), true
	case value.Real64:
		return float64(n), true
	case value.Float32:
		return float64(n), true
	case value.Float64:
		return float64(n), true
	}
	return 0, false
}

func asInt64(v value.Value) (int64, bool) {
	switch n := v.(type) {
	case value.Int16:
		return int64(n), true
	case value.Int32:
		return int64(n), true
	case value.Int64:
		return int64(n), true
	case value.Byte:
		return int64(n), true
	}
	return 0, false
}

func nativeArith(realOp func(a, b float64) float64, intOp func(a, b int64) int64) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Int64(0), nil
		}
		ai, aIsInt := asInt64(args[0])
		if aIsInt {
			acc := ai
			allInt := true
			for _, arg := range args[1:] {
				bi, ok := asInt64(arg)
				if !ok {
					allInt = false
					break
				}
				acc = intOp(acc, bi)
			}
			if allInt {
				return value.Int64(acc), nil
			}
		}
		af, ok := asFloat64(args[0])
		if !ok {
			return nil, fmt.Errorf("%s is not a number", args[0].TypeName())
		}
		acc := af
		for _, arg := range args[1:] {
			bf, ok := asFloat64(arg)
			if !ok {
				return nil, fmt.Errorf("%s is not a number", arg.TypeName())
			}
			acc = realOp(acc, bf)
		}
		return value.Real64(acc), nil
	}
}

func nativeDivide(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("/ requires exactly two arguments")
	}
	a, aok := asFloat64(args[0])
	b, bok := asFloat64(args[1])
	if !aok || !bok {
		return nil, fmt.Errorf("/ requires numeric arguments")
	}
	if b == 0 {
		return nil, fmt.Errorf("division by zero")
	}
	return value.Real64(a / b), nil
}

func nativeCompare(accept func(int) bool) value.NativeFunc {
	return func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("comparison requires exactly two arguments")
		}
		a, aok := asFloat64(args[0])
		b, bok := asFloat64(args[1])
		if !aok || !bok {
			return nil, fmt.Errorf("comparison requires numeric arguments")
		}
		switch {
		case a < b:
			return value.Bool(accept(-1)), nil
		case a > b:
			return value.Bool(accept(1)), nil
		default:
			return value.Bool(accept(0)), nil
		}
	}
}

// builtinMethod answers a Met dispatch no property lookup resolved. Only
// $typeof is answered, for every value regardless of type; no other
// built-in method exists.
func builtinMethod(obj value.Value, name symbol.Symbol, args []value.Value) (value.Value, bool) {
	switch name {
	case symbol.TYPEOF:
		return value.SymbolValue(obj.TypeName()), true
	}
	return nil, false
}
