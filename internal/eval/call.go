package eval

import (
	"smile/internal/compiler"
	"smile/internal/symbol"
	"smile/internal/value"
)

// call dispatches a Call/CallTail against any callable value, matching the
// bytecode closure / native function polymorphism the reference's CallKind
// switch implements (spec.md §4.5 "Call dispatch"). It never returns a Go
// error for an ordinary Smile-level failure — those come back as thrown,
// to be routed to a $catch handler the same as an explicit `throw` would
// be; err is reserved for conditions this evaluator cannot recover from at
// all (stack exhaustion, internal invariant violations).
func (m *Machine) call(callee value.Value, args []value.Value) (result value.Value, thrown *value.Exception, err error) {
	fn, ok := callee.(*value.Function)
	if !ok {
		return m.callMethod(callee, 0, args)
	}
	switch fn.CallKind {
	case value.FunctionNative:
		v, nerr := fn.Native(args)
		if nerr != nil {
			if signal, ok := nerr.(*thrownSignal); ok {
				return nil, signal.exception, nil
			}
			return nil, newException("%s", nerr.Error()), nil
		}
		return v, nil, nil
	case value.FunctionBytecode:
		return m.callBytecode(fn, args)
	default:
		return nil, newException("value of type %s is not callable", callee.TypeName()), nil
	}
}

func (m *Machine) callBytecode(fn *value.Function, args []value.Value) (value.Value, *value.Exception, error) {
	info := fn.Code.(*compiler.UserFunctionInfo)
	parent, _ := fn.Env.(*Closure)
	v, err := m.runClosure(newClosure(info, args, parent))
	if err != nil {
		if re, ok := err.(RuntimeError); ok {
			return nil, re.Exception, nil
		}
		return nil, nil, err
	}
	return v, nil, nil
}

// callMethod dispatches Met: look up methodSym as a property on obj first
// (so user objects can override built-in method names), then fall back to
// a small set of built-in methods every object responds to, then finally
// the "does not understand" throw (spec.md §4.5, reference semantics for
// unhandled Met).
func (m *Machine) callMethod(obj value.Value, methodSym symbol.Symbol, args []value.Value) (value.Value, *value.Exception, error) {
	if prop := getProperty(obj, methodSym); prop != value.NullObject {
		if fn, ok := prop.(*value.Function); ok {
			return m.call(fn, append([]value.Value{obj}, args...))
		}
	}
	if v, handled := builtinMethod(obj, methodSym, args); handled {
		return v, nil, nil
	}
	return nil, newException("%s does not understand message %s", obj.TypeName(), methodSym.String()), nil
}

func getProperty(obj value.Value, name symbol.Symbol) value.Value {
	switch o := obj.(type) {
	case *value.UserObject:
		if v, ok := o.Get(name); ok {
			return v
		}
	case *value.Pair:
		switch name {
		case symbol.GET_MEMBER:
			return o.Left
		}
	case *value.Exception:
		// A $catch-bound exception exposes whatever fields the thrower gave
		// it (spec.md §8 scenario 5: `e.message` after `throw {message:
		// "oops"}` reads straight through to the payload's own field).
		if o.Payload != nil {
			if v, ok := o.Payload.Get(name); ok {
				return v
			}
		}
	}
	return value.NullObject
}

func setProperty(obj value.Value, name symbol.Symbol, v value.Value) {
	if o, ok := obj.(*value.UserObject); ok {
		o.Set(name, v)
	}
}
