// Package value implements Smile's tagged value model: a small set of
// unboxed primitive kinds plus a family of heap objects, dispatched
// polymorphically through the Value interface rather than through the
// C reference implementation's per-kind vtable struct (see spec.md §9,
// "Virtual-method dispatch on values" — Go interface dispatch is the
// idiomatic substitute).
package value

import "smile/internal/symbol"

// Kind discriminates the concrete representation behind a Value. It plays
// the role of the one-byte kind tag the reference implementation stores
// alongside every heap object.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindByte
	KindInt16
	KindInt32
	KindInt64
	KindReal32
	KindReal64
	KindReal128
	KindFloat32
	KindFloat64
	KindFloat128
	KindChar
	KindUni
	KindSymbol
	KindString
	KindList
	KindPair
	KindUserObject
	KindFunction
	KindHandle
	KindByteArray
	KindSyntax
	KindLoanword
	KindNonterminal
	KindRange
	KindException
)

var kindNames = map[Kind]string{
	KindNull: "Null", KindBool: "Bool", KindByte: "Byte",
	KindInt16: "Integer16", KindInt32: "Integer32", KindInt64: "Integer64",
	KindReal32: "Real32", KindReal64: "Real64", KindReal128: "Real128",
	KindFloat32: "Float32", KindFloat64: "Float64", KindFloat128: "Float128",
	KindChar: "Char", KindUni: "Uni", KindSymbol: "Symbol", KindString: "String",
	KindList: "List", KindPair: "Pair", KindUserObject: "UserObject",
	KindFunction: "Fn", KindHandle: "Handle", KindByteArray: "ByteArray",
	KindSyntax: "Syntax", KindLoanword: "Loanword", KindNonterminal: "Nonterminal",
	KindRange: "Range", KindException: "Exception",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Value is implemented by every primitive and heap object kind. Methods
// mirror the reference vtable's method list (spec.md §9): equality
// (shallow and deep), hash, coercion to bool, and a source-agnostic string
// form used by the printer and REPL.
type Value interface {
	Kind() Kind

	// Equals implements shallow ("super") equality: identical reference or
	// identical unboxed value, with no user-overridable semantics. This is
	// the comparison Op_SuperEq/Op_SuperNe perform.
	Equals(other Value) bool

	// DeepEquals implements structural equality, recursing into heap
	// objects. visited guards against cycles (closures referencing their
	// own enclosing scope, self-referential quoted lists): a pair of
	// values already being compared is assumed equal without recursing
	// further into it.
	DeepEquals(other Value, visited *VisitedSet) bool

	// Hash returns a hash consistent with Equals: h(v) is stable across
	// calls and h(a) == h(b) whenever a.Equals(b).
	Hash() uint64

	// Truthy reports this value's boolean coercion. Every value is true
	// except #f, null, and an empty String or ByteArray.
	Truthy() bool

	// TypeName returns the known symbol naming this value's formal type,
	// the value Op_TypeOf pushes.
	TypeName() symbol.Symbol

	String() string
}

// VisitedSet tracks the (a, b) pairs already assumed equal during a
// DeepEquals recursion, so cyclic structures terminate instead of
// recursing forever. Keyed on pointer identity of the left-hand operand
// only: within one DeepEquals call a given left-hand pointer is only ever
// compared against one right-hand value at a time.
type VisitedSet struct {
	seen map[Value]Value
}

// NewVisitedSet creates an empty cycle-detection set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[Value]Value)}
}

// Enter records that a is being compared against b. It returns true if
// this exact pair (or a itself) was already being compared, in which case
// the caller should treat the pair as equal and not recurse further.
func (vs *VisitedSet) Enter(a, b Value) bool {
	if prior, ok := vs.seen[a]; ok {
		return prior == b
	}
	vs.seen[a] = b
	return false
}

// primitive is a Value whose equality depends only on Kind() and an
// underlying Go-comparable payload compared by rawEqual; no type in this
// package implements it.
type primitive interface {
	Value
	rawEqual(other Value) bool
}
