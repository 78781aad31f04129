package value

import (
	"strings"

	"smile/internal/symbol"
)

// LexerPosition records a source location: the file, 1-based line, 0-based
// column, the byte offset of the start of that line, and the length of the
// token/expression it belongs to. Once attached to a token or AST node it
// is never mutated, so it may be shared by reference (spec.md §3).
type LexerPosition struct {
	Filename    string
	Line        int
	Column      int
	LineStart   int
	Length      int
}

// List is a cons cell: the fundamental building block of both Smile source
// (parsed programs are S-expression lists) and of Smile's one built-in
// sequence type. A is the "car"/head; D is the "cdr"/tail, conventionally
// NullObject-terminated.
type List struct {
	A, D Value
	Pos  *LexerPosition // nil for position-less lists
}

// Cons constructs a new List cell.
func Cons(a, d Value) *List { return &List{A: a, D: d} }

// ConsPos constructs a new List cell carrying a source position.
func ConsPos(a, d Value, pos *LexerPosition) *List { return &List{A: a, D: d, Pos: pos} }

func (*List) Kind() Kind { return KindList }
func (l *List) Equals(other Value) bool {
	o, ok := other.(*List)
	return ok && o == l
}
func (l *List) DeepEquals(other Value, visited *VisitedSet) bool {
	o, ok := other.(*List)
	if !ok {
		return false
	}
	if visited == nil {
		visited = NewVisitedSet()
	}
	var a, b Value = l, o
	for {
		if visited.Enter(a, b) {
			return true
		}
		al, aIsList := a.(*List)
		bl, bIsList := b.(*List)
		if aIsList != bIsList {
			return false
		}
		if !aIsList {
			return a.DeepEquals(b, visited)
		}
		if !al.A.DeepEquals(bl.A, visited) {
			return false
		}
		a, b = al.D, bl.D
	}
}
func (l *List) Hash() uint64 {
	// Bounded traversal: well-formedness is not guaranteed for every List
	// that might be hashed (e.g. during construction), so cap the walk.
	h := hashUint64(KindList, 0)
	cur := Value(l)
	for i := 0; i < 64; i++ {
		cl, ok := cur.(*List)
		if !ok {
			break
		}
		h ^= cl.A.Hash()*1099511628211 + uint64(i)
		cur = cl.D
	}
	return h
}
func (*List) Truthy() bool            { return true }
func (*List) TypeName() symbol.Symbol { return typeNameOf(KindList) }

func (l *List) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	cur := Value(l)
	first := true
	for {
		cl, ok := cur.(*List)
		if !ok {
			if cur != Value(NullObject) {
				sb.WriteString(" . ")
				sb.WriteString(cur.String())
			}
			break
		}
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		sb.WriteString(cl.A.String())
		cur = cl.D
	}
	sb.WriteByte(']')
	return sb.String()
}

// IsWellFormed reports whether following D pointers from l reaches
// NullObject without entering a cycle, using Floyd's tortoise-and-hare
// algorithm so the check runs in O(n) time and O(1) space regardless of
// list length (spec.md §3, §8).
func IsWellFormed(l Value) bool {
	slow, fast := l, l
	for {
		fastList, ok := fast.(*List)
		if !ok {
			return fast == Value(NullObject)
		}
		fast = fastList.D
		fastList2, ok := fast.(*List)
		if !ok {
			return fast == Value(NullObject)
		}
		fast = fastList2.D

		slowList := slow.(*List)
		slow = slowList.D

		if fast == slow {
			return false
		}
	}
}

// Length returns the number of cons cells from l to NullObject. l must be
// well-formed; callers should check IsWellFormed first if that is not
// already known (spec.md §8, "For all well-formed lists L...").
func Length(l Value) int {
	n := 0
	cur := l
	for {
		cl, ok := cur.(*List)
		if !ok {
			break
		}
		n++
		cur = cl.D
	}
	return n
}

// ToSlice collects a well-formed list's elements into a Go slice, for
// callers (the compiler, the printer) that want random access instead of
// a cons-cell walk.
func ToSlice(l Value) []Value {
	var out []Value
	cur := l
	for {
		cl, ok := cur.(*List)
		if !ok {
			break
		}
		out = append(out, cl.A)
		cur = cl.D
	}
	return out
}

// FromSlice builds a well-formed list from vs, NullObject-terminated.
func FromSlice(vs []Value) Value {
	var result Value = NullObject
	for i := len(vs) - 1; i >= 0; i-- {
		result = Cons(vs[i], result)
	}
	return result
}

// FirstSymbol reports whether l is a non-empty list whose head (A) is the
// given symbol — the dispatch primitive both parser output classification
// and compiler per-node-kind dispatch use to recognize special forms like
// `[$if ...]` (spec.md §4.3 "Output shape").
func FirstSymbol(l Value, want symbol.Symbol) (*List, bool) {
	cl, ok := l.(*List)
	if !ok {
		return nil, false
	}
	sv, ok := cl.A.(SymbolValue)
	if !ok || symbol.Symbol(sv) != want {
		return nil, false
	}
	return cl, true
}
