// Package eval runs compiled bytecode (internal/compiler) over Smile
// values (internal/value) (spec.md §4.5).
package eval

import (
	"smile/internal/compiler"
	"smile/internal/value"
)

// Closure is one activation record: a bytecode function's argument and
// local-variable slots, plus a link to the lexically enclosing closure so
// nested functions can reach outer arguments/locals by depth (spec.md
// §4.5 "each local closure owns a region sized numArgs + numVariables +
// tempSize"). The operand stack is not part of Closure here — it lives on
// the Machine that's actually running, one shared Go slice per call
// chain, since Go's own call stack already gives each nested Run() frame
// its own locals and there is no benefit to re-deriving that inside the
// Closure struct too.
type Closure struct {
	Args   []value.Value
	Locals []value.Value
	Parent *Closure
	Fn     *compiler.UserFunctionInfo
}

func newClosure(fn *compiler.UserFunctionInfo, args []value.Value, parent *Closure) *Closure {
	c := &Closure{
		Args:   make([]value.Value, fn.NumArgs),
		Locals: make([]value.Value, fn.NumLocals),
		Parent: parent,
		Fn:     fn,
	}
	for i := range c.Locals {
		c.Locals[i] = value.NullObject
	}
	for i := 0; i < fn.NumArgs; i++ {
		if i < len(args) {
			c.Args[i] = args[i]
		} else {
			c.Args[i] = value.NullObject
		}
	}
	return c
}

func (c *Closure) ancestor(depth int) *Closure {
	cur := c
	for i := 0; i < depth && cur != nil; i++ {
		cur = cur.Parent
	}
	return cur
}

func (c *Closure) growLocals(n int) {
	for i := 0; i < n; i++ {
		c.Locals = append(c.Locals, value.NullObject)
	}
}

func (c *Closure) shrinkLocals(n int) {
	c.Locals = c.Locals[:len(c.Locals)-n]
}
