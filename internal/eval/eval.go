package eval

import (
	"smile/internal/compiler"
	"smile/internal/symbol"
	"smile/internal/value"
)

// Machine is a thread-local evaluator: one goroutine's current stack,
// exception-handler chain, and link to the shared global environment
// (spec.md §4.5 "Thread-local globals hold the current Closure,
// CompiledTables, ByteCodeSegment, and ByteCode pointer" — here those
// four are replaced by nested runClosure calls (one Go call frame per
// non-tail Call/Met) plus the explicit operand/handler stacks below,
// since Go already gives each nested call its own local variables. A
// CallTail never nests a new runClosure call — see runClosure below —
// so tail recursion costs no Go stack at all).
type Machine struct {
	Globals *Globals
	Tables  *compiler.CompiledTables

	stack   []value.Value
	handlers []handlerFrame
}

// handlerFrame records a pending `try` scope: where to resume on a throw,
// and how deep to unwind the operand stack first (spec.md §4.5 "Try label
// n pushes a handler frame recording (handler_pc, saved_stack_depth)").
type handlerFrame struct {
	target     *compiler.IntermediateInstruction
	stackDepth int
	closure    *Closure
}

// Globals is the shared, symbol-keyed variable environment every module
// and native builtin reads and writes through LdX/StX (spec.md §4.5
// "LdX sym ... named global load"). It is intentionally not a Closure:
// the top-level module body keeps its own Closure for $scope locals, and
// Globals holds only names resolved by symbol rather than by slot.
type Globals struct {
	vars map[symbol.Symbol]value.Value
}

func NewGlobals() *Globals {
	return &Globals{vars: make(map[symbol.Symbol]value.Value)}
}

func (g *Globals) Get(name symbol.Symbol) (value.Value, bool) {
	v, ok := g.vars[name]
	return v, ok
}

func (g *Globals) Set(name symbol.Symbol, v value.Value) {
	g.vars[name] = v
}

func NewMachine(tables *compiler.CompiledTables, globals *Globals) *Machine {
	return &Machine{Globals: globals, Tables: tables}
}

func (m *Machine) push(v value.Value) {
	m.stack = append(m.stack, v)
}

func (m *Machine) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *Machine) popN(n int) []value.Value {
	start := len(m.stack) - n
	out := make([]value.Value, n)
	copy(out, m.stack[start:])
	m.stack = m.stack[:start]
	return out
}

// Run evaluates fn's bytecode to completion against closure parentEnv as its
// lexical parent, returning the function's result, or a RuntimeError if
// an exception escaped every handler (spec.md §4.6 "EvalResult").
func (m *Machine) Run(fn *compiler.UserFunctionInfo, args []value.Value, parentEnv *Closure) (value.Value, error) {
	cl := newClosure(fn, args, parentEnv)
	return m.runClosure(cl)
}

// runClosure fetches and dispatches instructions for cl's segment. A
// CallTail in tail position does not recurse: it replaces cl/seg/pc in
// place and loops, so a tail-recursive Smile function runs in one Go
// stack frame no matter how many times it calls itself (spec.md §8 "for
// all CallTail invocations, the host call-stack depth does not grow").
func (m *Machine) runClosure(cl *Closure) (v value.Value, err error) {
	seg := cl.Fn.Segment
	pc := 0
	baseHandlers := len(m.handlers)
	baseStack := len(m.stack)

	for {
		if pc >= len(seg.Instructions) {
			// Fell off the end without a Ret: treat the top of stack (or
			// null) as the implicit result, matching the way an empty
			// $progn body yields null.
			if len(m.stack) > baseStack {
				return m.pop(), nil
			}
			return value.NullObject, nil
		}
		in := seg.Instructions[pc]
		next := pc + 1

		if in.Op >= compiler.OpLdArg0 && in.Op <= compiler.OpStLoc7 {
			// Fast forms LdArg0..StLoc7: the low three opcode bits are the depth.
			target, idx := cl.ancestor(int(in.Op&7)), int(in.Operands[0])
			slots := target.Args
			if in.Op&0x08 != 0 {
				slots = target.Locals
			}
			if in.Op < compiler.OpStArg0 {
				m.push(slots[idx])
			} else {
				slots[idx] = m.stack[len(m.stack)-1]
			}
			pc = next
			continue
		}

		switch in.Op {
		case compiler.OpNop, compiler.OpBrk:
			// no-op

		case compiler.OpDup1:
			top := m.stack[len(m.stack)-1]
			m.push(top)
		case compiler.OpDup2:
			top := m.stack[len(m.stack)-2]
			m.push(top)
		case compiler.OpPop1:
			m.pop()
		case compiler.OpPop2:
			m.pop()
			m.pop()

		case compiler.OpLdNull:
			m.push(value.NullObject)
		case compiler.OpLdBool:
			m.push(value.Bool(in.Operands[0] != 0))
		case compiler.OpLdCh:
			m.push(value.Char(in.Operands[0]))
		case compiler.OpLdUCh:
			m.push(value.Uni(m.Tables.Constants[in.Operands[0]].(rune)))
		case compiler.OpLdStr:
			m.push(value.NewString(m.Tables.Strings[in.Operands[0]]))
		case compiler.OpLdSym:
			m.push(value.SymbolValue(in.Operands[0]))
		case compiler.OpLdObj:
			m.push(m.Tables.Constants[in.Operands[0]].(value.Value))

		case compiler.OpLd8:
			m.push(value.Byte(in.Operands[0]))
		case compiler.OpLd16:
			m.push(value.Int16(in.Operands[0]))
		case compiler.OpLd32:
			m.push(value.Int32(in.Operands[0]))
		case compiler.OpLd64:
			m.push(value.Int64(m.Tables.Constants[in.Operands[0]].(int64)))

		case compiler.OpLdR32:
			m.push(value.Real32(m.Tables.Constants[in.Operands[0]].(float32)))
		case compiler.OpLdR64:
			m.push(value.Real64(m.Tables.Constants[in.Operands[0]].(float64)))
		case compiler.OpLdF32:
			m.push(value.Float32(m.Tables.Constants[in.Operands[0]].(float32)))
		case compiler.OpLdF64:
			m.push(value.Float64(m.Tables.Constants[in.Operands[0]].(float64)))

		case compiler.OpLdLoc:
			depth, idx := int(in.Operands[0]), int(in.Operands[1])
			m.push(cl.ancestor(depth).Locals[idx])
		case compiler.OpStLoc:
			depth, idx := int(in.Operands[0]), int(in.Operands[1])
			cl.ancestor(depth).Locals[idx] = m.stack[len(m.stack)-1]
		case compiler.OpLdArg:
			depth, idx := int(in.Operands[0]), int(in.Operands[1])
			m.push(cl.ancestor(depth).Args[idx])
		case compiler.OpStArg:
			depth, idx := int(in.Operands[0]), int(in.Operands[1])
			cl.ancestor(depth).Args[idx] = m.stack[len(m.stack)-1]

		case compiler.OpLdX:
			name := symbol.Symbol(in.Operands[0])
			v, ok := m.Globals.Get(name)
			if !ok {
				v = value.NullObject
			}
			m.push(v)
		case compiler.OpStX:
			name := symbol.Symbol(in.Operands[0])
			m.Globals.Set(name, m.stack[len(m.stack)-1])

		case compiler.OpLdProp:
			obj := m.pop()
			m.push(getProperty(obj, symbol.Symbol(in.Operands[0])))
		case compiler.OpStProp:
			val := m.pop()
			obj := m.pop()
			setProperty(obj, symbol.Symbol(in.Operands[0]), val)
			m.push(val)
		case compiler.OpLdMember:
			member := m.pop()
			obj := m.pop()
			if sv, ok := member.(value.SymbolValue); ok {
				m.push(getProperty(obj, symbol.Symbol(sv)))
			} else {
				m.push(value.NullObject)
			}
		case compiler.OpStMember:
			val := m.pop()
			member := m.pop()
			obj := m.pop()
			if sv, ok := member.(value.SymbolValue); ok {
				setProperty(obj, symbol.Symbol(sv), val)
			}
			m.push(val)

		case compiler.OpJmp:
			next = in.Target.Index
		case compiler.OpBt:
			if m.pop().Truthy() {
				next = in.Target.Index
			}
		case compiler.OpBf:
			if !m.pop().Truthy() {
				next = in.Target.Index
			}

		case compiler.OpLocalAlloc:
			cl.growLocals(int(in.Operands[0]))
		case compiler.OpLocalFree:
			cl.shrinkLocals(int(in.Operands[0]))
		case compiler.OpArgs:
			// Argument count is already fixed up by the caller in this
			// implementation (see call.go); nothing to pad here.
		case compiler.OpRet:
			return m.pop(), nil

		case compiler.OpCall:
			n := int(in.Operands[0])
			args := m.popN(n)
			callee := m.pop()
			result, thrown, err := m.call(callee, args)
			if err != nil {
				return nil, err
			}
			if thrown != nil {
				target, ok := m.catchWithin(cl, baseHandlers)
				if !ok {
					return nil, RuntimeError{Exception: thrown}
				}
				m.push(thrown)
				next = target.Index
				break
			}
			m.push(result)

		case compiler.OpCallTail:
			n := int(in.Operands[0])
			args := m.popN(n)
			callee := m.pop()
			if fn, ok := callee.(*value.Function); ok && fn.CallKind == value.FunctionBytecode {
				// Replace this frame instead of recursing: the call being
				// made is in tail position, so nothing in the current
				// closure is still needed once it runs (compileCatch never
				// puts a call in tail position inside a try body, so there
				// is never a handlerFrame referencing cl left to orphan
				// here).
				info := fn.Code.(*compiler.UserFunctionInfo)
				parent, _ := fn.Env.(*Closure)
				cl = newClosure(info, args, parent)
				seg = cl.Fn.Segment
				pc = 0
				baseHandlers = len(m.handlers)
				baseStack = len(m.stack)
				continue
			}
			// Native functions and method fallback never recurse into
			// runClosure, so calling them here grows no Go stack; a plain
			// call is as safe as the tail-call optimization would be.
			result, thrown, err := m.call(callee, args)
			if err != nil {
				return nil, err
			}
			if thrown != nil {
				target, ok := m.catchWithin(cl, baseHandlers)
				if !ok {
					return nil, RuntimeError{Exception: thrown}
				}
				m.push(thrown)
				next = target.Index
				break
			}
			m.push(result)
		case compiler.OpMet:
			methodSym := symbol.Symbol(in.Operands[0])
			n := int(in.Operands[1])
			args := m.popN(n)
			obj := m.pop()
			result, thrown, err := m.callMethod(obj, methodSym, args)
			if err != nil {
				return nil, err
			}
			if thrown != nil {
				target, ok := m.catchWithin(cl, baseHandlers)
				if !ok {
					return nil, RuntimeError{Exception: thrown}
				}
				m.push(thrown)
				next = target.Index
				break
			}
			m.push(result)

		case compiler.OpTry:
			m.handlers = append(m.handlers, handlerFrame{target: in.Target, stackDepth: len(m.stack), closure: cl})
		case compiler.OpEndTry:
			m.handlers = m.handlers[:len(m.handlers)-1]

		case compiler.OpSuperEq:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(a.Equals(b)))
		case compiler.OpSuperNe:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(!a.Equals(b)))
		case compiler.OpNot:
			m.push(value.Bool(!m.pop().Truthy()))
		case compiler.OpBool:
			m.push(value.Bool(m.pop().Truthy()))
		case compiler.OpIs:
			b, a := m.pop(), m.pop()
			m.push(value.Bool(a.TypeName() == b.TypeName()))
		case compiler.OpTypeOf:
			m.push(value.SymbolValue(m.pop().TypeName()))

		case compiler.OpCons:
			d, a := m.pop(), m.pop()
			m.push(value.Cons(a, d))
		case compiler.OpCar:
			l := m.pop().(*value.List)
			m.push(l.A)
		case compiler.OpCdr:
			l := m.pop().(*value.List)
			m.push(l.D)
		case compiler.OpNewPair:
			right, left := m.pop(), m.pop()
			m.push(value.NewPair(left, right))
		case compiler.OpLeft:
			p := m.pop().(*value.Pair)
			m.push(p.Left)
		case compiler.OpRight:
			p := m.pop().(*value.Pair)
			m.push(p.Right)
		case compiler.OpNewFn:
			info := m.Tables.Functions[in.Operands[0]]
			m.push(value.NewBytecodeFunction(info.Name, info, cl))
		case compiler.OpNewObj:
			n := int(in.Operands[0])
			props := m.popN(n * 2)
			baseVal := m.pop()
			baseObj, _ := baseVal.(*value.UserObject)
			obj := value.NewUserObject(baseObj)
			for i := 0; i+1 < len(props); i += 2 {
				sym, ok := props[i].(value.SymbolValue)
				if ok {
					obj.Set(symbol.Symbol(sym), props[i+1])
				}
			}
			m.push(obj)
		case compiler.OpNewRange:
			end, start := m.pop(), m.pop()
			m.push(&value.Range{Start: start, End: end})

		default:
			thrown := newException("unimplemented opcode %s", in.Op)
			target, ok := m.catchWithin(cl, baseHandlers)
			if !ok {
				return nil, RuntimeError{Exception: thrown}
			}
			m.push(thrown)
			pc = target.Index
			continue
		}

		pc = next
	}
}

// catchWithin pops handler frames down to (but not below) baseHandlers —
// the handler-stack depth runClosure started with, so a $catch never
// catches an exception meant for a handler installed by a different,
// already-returned call frame — looking for one registered against this
// same closure (spec.md §4.5 "Exception handling"). It truncates the
// operand stack to the handler's recorded depth and reports the resolved
// instruction to resume at.
func (m *Machine) catchWithin(cl *Closure, baseHandlers int) (*compiler.IntermediateInstruction, bool) {
	for len(m.handlers) > baseHandlers {
		frame := m.handlers[len(m.handlers)-1]
		m.handlers = m.handlers[:len(m.handlers)-1]
		if frame.closure != cl {
			continue
		}
		m.stack = m.stack[:frame.stackDepth]
		return frame.target, true
	}
	return nil, false
}
