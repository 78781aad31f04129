package value

import (
	"fmt"
	"regexp"

	"smile/internal/symbol"
)

// Handle is an opaque external resource reference (a file descriptor, a
// compiled pattern not otherwise represented, etc.) with no Smile-visible
// structure beyond its Data payload.
type Handle struct {
	Data any
}

func (*Handle) Kind() Kind { return KindHandle }
func (h *Handle) Equals(other Value) bool {
	o, ok := other.(*Handle)
	return ok && o == h
}
func (h *Handle) DeepEquals(other Value, _ *VisitedSet) bool { return h.Equals(other) }
func (h *Handle) Hash() uint64                                { return hashUint64(KindHandle, uint64(uintptr(0))) }
func (*Handle) Truthy() bool                                  { return true }
func (*Handle) TypeName() symbol.Symbol                       { return typeNameOf(KindHandle) }
func (h *Handle) String() string                              { return fmt.Sprintf("Handle<%v>", h.Data) }

// ByteArray is a mutable, fixed-layout array of raw bytes.
type ByteArray struct {
	Bytes []byte
}

func NewByteArray(n int) *ByteArray { return &ByteArray{Bytes: make([]byte, n)} }

func (*ByteArray) Kind() Kind { return KindByteArray }
func (b *ByteArray) Equals(other Value) bool {
	o, ok := other.(*ByteArray)
	return ok && o == b
}
func (b *ByteArray) DeepEquals(other Value, _ *VisitedSet) bool {
	o, ok := other.(*ByteArray)
	return ok && string(o.Bytes) == string(b.Bytes)
}
func (b *ByteArray) Hash() uint64            { return hashBytes(b.Bytes) }
func (b *ByteArray) Truthy() bool            { return len(b.Bytes) > 0 }
func (*ByteArray) TypeName() symbol.Symbol   { return typeNameOf(KindByteArray) }
func (b *ByteArray) String() string          { return fmt.Sprintf("ByteArray[%d]", len(b.Bytes)) }

// SyntaxRule is one rule of a user #syntax class: a pattern
// (stored in the parser's SyntaxTable, not here) paired with the
// replacement template and the list of template variable names the
// pattern binds, in the order they must be substituted.
type SyntaxRule struct {
	Class            symbol.Symbol
	ReplacementVars  []symbol.Symbol
	Template         Value
}

// Syntax is the first-class value form of a compiled #syntax declaration,
// returned so syntax rules can be introspected or re-registered
// programmatically.
type Syntax struct {
	Class symbol.Symbol
	Rule  *SyntaxRule
}

func (*Syntax) Kind() Kind { return KindSyntax }
func (s *Syntax) Equals(other Value) bool {
	o, ok := other.(*Syntax)
	return ok && o == s
}
func (s *Syntax) DeepEquals(other Value, _ *VisitedSet) bool { return s.Equals(other) }
func (s *Syntax) Hash() uint64                               { return hashUint64(KindSyntax, uint64(s.Class)) }
func (*Syntax) Truthy() bool                                 { return true }
func (*Syntax) TypeName() symbol.Symbol                      { return typeNameOf(KindSyntax) }
func (s *Syntax) String() string                             { return "Syntax<" + s.Class.String() + ">" }

// Loanword is the first-class value form of a compiled #loanword
// declaration: a precompiled regex plus its replacement template. The
// lexer stores a *Loanword in a LOANWORD_REGEX token's data.ptr slot
// (spec.md §4.2).
type Loanword struct {
	Name        symbol.Symbol
	Pattern     *regexp.Regexp
	Template    Value
	GroupNames  []string
}

func (*Loanword) Kind() Kind { return KindLoanword }
func (l *Loanword) Equals(other Value) bool {
	o, ok := other.(*Loanword)
	return ok && o == l
}
func (l *Loanword) DeepEquals(other Value, _ *VisitedSet) bool { return l.Equals(other) }
func (l *Loanword) Hash() uint64                               { return hashUint64(KindLoanword, uint64(l.Name)) }
func (*Loanword) Truthy() bool                                 { return true }
func (*Loanword) TypeName() symbol.Symbol                      { return typeNameOf(KindLoanword) }
func (l *Loanword) String() string                             { return "Loanword<" + l.Name.String() + ">" }

// Nonterminal is a named grammar-category placeholder appearing inside a
// #syntax pattern or template, e.g. `[EXPR x]` (spec.md glossary).
type Nonterminal struct {
	Class symbol.Symbol
	Name  symbol.Symbol
}

func (*Nonterminal) Kind() Kind { return KindNonterminal }
func (n *Nonterminal) Equals(other Value) bool {
	o, ok := other.(*Nonterminal)
	return ok && o == n
}
func (n *Nonterminal) DeepEquals(other Value, _ *VisitedSet) bool {
	o, ok := other.(*Nonterminal)
	return ok && o.Class == n.Class && o.Name == n.Name
}
func (n *Nonterminal) Hash() uint64 {
	return hashUint64(KindNonterminal, uint64(n.Class)^uint64(n.Name)<<32)
}
func (*Nonterminal) Truthy() bool            { return true }
func (*Nonterminal) TypeName() symbol.Symbol { return typeNameOf(KindNonterminal) }
func (n *Nonterminal) String() string        { return "Nonterminal<" + n.Name.String() + ">" }

// Range represents one of Smile's Range variants (IntegerRange,
// Real64Range, ...): a half-described iteration from Start to End with an
// optional Stepping value. Kind names which concrete element type the
// range holds (e.g. typeNameOf(KindInt64)), since Range itself is
// type-parametric at the value level rather than at the Go type level.
type Range struct {
	ElementType symbol.Symbol
	Start, End  Value
	Stepping    Value
}

func (*Range) Kind() Kind { return KindRange }
func (r *Range) Equals(other Value) bool {
	o, ok := other.(*Range)
	return ok && o == r
}
func (r *Range) DeepEquals(other Value, visited *VisitedSet) bool {
	o, ok := other.(*Range)
	if !ok {
		return false
	}
	return r.ElementType == o.ElementType &&
		r.Start.DeepEquals(o.Start, visited) &&
		r.End.DeepEquals(o.End, visited)
}
func (r *Range) Hash() uint64 {
	return hashUint64(KindRange, r.Start.Hash()^r.End.Hash())
}
func (*Range) Truthy() bool            { return true }
func (*Range) TypeName() symbol.Symbol { return typeNameOf(KindRange) }
func (r *Range) String() string        { return r.Start.String() + ".." + r.End.String() }

// Exception is the conventional-shaped object (kind, message, stack-trace)
// that every thrown value is wrapped as (spec.md §7). Payload carries any
// additional user-supplied fields from `throw {message: ..., ...}`.
type Exception struct {
	ExceptionKind symbol.Symbol
	Message       string
	StackTrace    []string
	Payload       *UserObject
}

func (*Exception) Kind() Kind { return KindException }
func (e *Exception) Equals(other Value) bool {
	o, ok := other.(*Exception)
	return ok && o == e
}
func (e *Exception) DeepEquals(other Value, _ *VisitedSet) bool { return e.Equals(other) }
func (e *Exception) Hash() uint64 {
	return hashUint64(KindException, uint64(e.ExceptionKind))
}
func (*Exception) Truthy() bool            { return true }
func (*Exception) TypeName() symbol.Symbol { return typeNameOf(KindException) }
func (e *Exception) String() string        { return "Exception<" + e.Message + ">" }
