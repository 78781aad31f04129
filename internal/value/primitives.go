package value

import (
	"fmt"
	"hash/fnv"
	"math"

	"smile/internal/symbol"
)

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}

func hashUint64(kind Kind, bits uint64) uint64 {
	var buf [9]byte
	buf[0] = byte(kind)
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(bits >> (8 * i))
	}
	return hashBytes(buf[:])
}

// NullType is the single distinguished "no value" object. NullObject is
// its only instance and also serves as the empty list, so following a
// well-formed list's 'd' chain to its end always yields a
// pointer-identical sentinel (spec.md §3, "List well-formedness").
type NullType struct{}

// NullObject is the sole instance of NullType, and the empty list.
var NullObject = &NullType{}

func (*NullType) Kind() Kind                           { return KindNull }
func (n *NullType) Equals(other Value) bool            { return other == Value(n) }
func (n *NullType) DeepEquals(other Value, _ *VisitedSet) bool {
	_, ok := other.(*NullType)
	return ok
}
func (*NullType) Hash() uint64             { return hashUint64(KindNull, 0) }
func (*NullType) Truthy() bool             { return false }
func (*NullType) TypeName() symbol.Symbol  { return typeNameOf(KindNull) }
func (*NullType) String() string           { return "null" }

// Bool is Smile's boolean primitive.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) Equals(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}
func (b Bool) DeepEquals(other Value, _ *VisitedSet) bool { return b.Equals(other) }
func (b Bool) Hash() uint64 {
	if b {
		return hashUint64(KindBool, 1)
	}
	return hashUint64(KindBool, 0)
}
func (b Bool) Truthy() bool            { return bool(b) }
func (Bool) TypeName() symbol.Symbol   { return typeNameOf(KindBool) }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Byte is an 8-bit unsigned integer primitive.
type Byte byte

func (Byte) Kind() Kind { return KindByte }
func (b Byte) Equals(other Value) bool {
	o, ok := other.(Byte)
	return ok && o == b
}
func (b Byte) DeepEquals(other Value, _ *VisitedSet) bool { return b.Equals(other) }
func (b Byte) Hash() uint64                               { return hashUint64(KindByte, uint64(b)) }
func (b Byte) Truthy() bool                                { return true }
func (Byte) TypeName() symbol.Symbol                       { return typeNameOf(KindByte) }
func (b Byte) String() string                              { return fmt.Sprintf("%d", byte(b)) }

// Int16, Int32, Int64 are signed integer primitives of the named width.
type Int16 int16
type Int32 int32
type Int64 int64

func (Int16) Kind() Kind { return KindInt16 }
func (i Int16) Equals(other Value) bool {
	o, ok := other.(Int16)
	return ok && o == i
}
func (i Int16) DeepEquals(other Value, _ *VisitedSet) bool { return i.Equals(other) }
func (i Int16) Hash() uint64                               { return hashUint64(KindInt16, uint64(uint16(i))) }
func (i Int16) Truthy() bool                                { return true }
func (Int16) TypeName() symbol.Symbol                       { return typeNameOf(KindInt16) }
func (i Int16) String() string                              { return fmt.Sprintf("%d", int16(i)) }

func (Int32) Kind() Kind { return KindInt32 }
func (i Int32) Equals(other Value) bool {
	o, ok := other.(Int32)
	return ok && o == i
}
func (i Int32) DeepEquals(other Value, _ *VisitedSet) bool { return i.Equals(other) }
func (i Int32) Hash() uint64                               { return hashUint64(KindInt32, uint64(uint32(i))) }
func (i Int32) Truthy() bool                                { return true }
func (Int32) TypeName() symbol.Symbol                       { return typeNameOf(KindInt32) }
func (i Int32) String() string                              { return fmt.Sprintf("%d", int32(i)) }

func (Int64) Kind() Kind { return KindInt64 }
func (i Int64) Equals(other Value) bool {
	o, ok := other.(Int64)
	return ok && o == i
}
func (i Int64) DeepEquals(other Value, _ *VisitedSet) bool { return i.Equals(other) }
func (i Int64) Hash() uint64                               { return hashUint64(KindInt64, uint64(i)) }
func (i Int64) Truthy() bool                                { return true }
func (Int64) TypeName() symbol.Symbol                       { return typeNameOf(KindInt64) }
func (i Int64) String() string                              { return fmt.Sprintf("%d", int64(i)) }

// Real32, Real64 are IEEE binary floating point ("real" in Smile's
// terminology refers to the scientific/engineering float types, as
// opposed to Float32/Float64 which are the decimal-flavored types whose
// arithmetic is delegated to an external decimal library per spec.md §1).
type Real32 float32
type Real64 float64

func (Real32) Kind() Kind { return KindReal32 }
func (r Real32) Equals(other Value) bool {
	o, ok := other.(Real32)
	return ok && o == r
}
func (r Real32) DeepEquals(other Value, _ *VisitedSet) bool { return r.Equals(other) }
func (r Real32) Hash() uint64 {
	return hashUint64(KindReal32, uint64(math.Float32bits(float32(r))))
}
func (r Real32) Truthy() bool              { return true }
func (Real32) TypeName() symbol.Symbol     { return typeNameOf(KindReal32) }
func (r Real32) String() string            { return fmt.Sprintf("%gr32", float32(r)) }

func (Real64) Kind() Kind { return KindReal64 }
func (r Real64) Equals(other Value) bool {
	o, ok := other.(Real64)
	return ok && o == r
}
func (r Real64) DeepEquals(other Value, _ *VisitedSet) bool { return r.Equals(other) }
func (r Real64) Hash() uint64 {
	return hashUint64(KindReal64, math.Float64bits(float64(r)))
}
func (r Real64) Truthy() bool              { return true }
func (Real64) TypeName() symbol.Symbol     { return typeNameOf(KindReal64) }
func (r Real64) String() string            { return fmt.Sprintf("%gr64", float64(r)) }

// Real128 is a decimal-precision real constant. Its arithmetic is an
// external collaborator (spec.md §1, "decimal floating-point arithmetic");
// here it is carried opaquely as its canonical decimal text, the same way
// the compiler's constant table stores it by index rather than inline.
type Real128 struct{ Text string }

func (Real128) Kind() Kind                                   { return KindReal128 }
func (r Real128) Equals(other Value) bool                    { o, ok := other.(Real128); return ok && o.Text == r.Text }
func (r Real128) DeepEquals(other Value, _ *VisitedSet) bool { return r.Equals(other) }
func (r Real128) Hash() uint64                               { return hashBytes([]byte(r.Text)) }
func (Real128) Truthy() bool                                 { return true }
func (Real128) TypeName() symbol.Symbol                      { return typeNameOf(KindReal128) }
func (r Real128) String() string                             { return r.Text + "r128" }

// Float32, Float64, Float128 are decimal floating-point primitives
// (external arithmetic collaborator, as Real128 above); Float32/64 are
// still representable in binary64 without loss for the constant-folding
// and printing the core needs, so they are stored that way.
type Float32 float32
type Float64 float64
type Float128 struct{ Text string }

func (Float32) Kind() Kind { return KindFloat32 }
func (f Float32) Equals(other Value) bool {
	o, ok := other.(Float32)
	return ok && o == f
}
func (f Float32) DeepEquals(other Value, _ *VisitedSet) bool { return f.Equals(other) }
func (f Float32) Hash() uint64 {
	return hashUint64(KindFloat32, uint64(math.Float32bits(float32(f))))
}
func (f Float32) Truthy() bool          { return true }
func (Float32) TypeName() symbol.Symbol { return typeNameOf(KindFloat32) }
func (f Float32) String() string        { return fmt.Sprintf("%gf32", float32(f)) }

func (Float64) Kind() Kind { return KindFloat64 }
func (f Float64) Equals(other Value) bool {
	o, ok := other.(Float64)
	return ok && o == f
}
func (f Float64) DeepEquals(other Value, _ *VisitedSet) bool { return f.Equals(other) }
func (f Float64) Hash() uint64 {
	return hashUint64(KindFloat64, math.Float64bits(float64(f)))
}
func (f Float64) Truthy() bool          { return true }
func (Float64) TypeName() symbol.Symbol { return typeNameOf(KindFloat64) }
func (f Float64) String() string        { return fmt.Sprintf("%gf64", float64(f)) }

func (Float128) Kind() Kind                                   { return KindFloat128 }
func (f Float128) Equals(other Value) bool                    { o, ok := other.(Float128); return ok && o.Text == f.Text }
func (f Float128) DeepEquals(other Value, _ *VisitedSet) bool { return f.Equals(other) }
func (f Float128) Hash() uint64                               { return hashBytes([]byte(f.Text)) }
func (Float128) Truthy() bool                                 { return true }
func (Float128) TypeName() symbol.Symbol                      { return typeNameOf(KindFloat128) }
func (f Float128) String() string                             { return f.Text + "f128" }

// Char is an 8-bit character primitive (a raw byte, as opposed to Uni).
type Char byte

func (Char) Kind() Kind { return KindChar }
func (c Char) Equals(other Value) bool {
	o, ok := other.(Char)
	return ok && o == c
}
func (c Char) DeepEquals(other Value, _ *VisitedSet) bool { return c.Equals(other) }
func (c Char) Hash() uint64                               { return hashUint64(KindChar, uint64(c)) }
func (Char) Truthy() bool                                 { return true }
func (Char) TypeName() symbol.Symbol                      { return typeNameOf(KindChar) }
func (c Char) String() string                             { return fmt.Sprintf("'%c", byte(c)) }

// Uni is a Unicode code point primitive.
type Uni rune

func (Uni) Kind() Kind { return KindUni }
func (u Uni) Equals(other Value) bool {
	o, ok := other.(Uni)
	return ok && o == u
}
func (u Uni) DeepEquals(other Value, _ *VisitedSet) bool { return u.Equals(other) }
func (u Uni) Hash() uint64                               { return hashUint64(KindUni, uint64(u)) }
func (Uni) Truthy() bool                                 { return true }
func (Uni) TypeName() symbol.Symbol                      { return typeNameOf(KindUni) }
func (u Uni) String() string                             { return fmt.Sprintf("\\u{%x}", rune(u)) }

// SymbolValue wraps an interned symbol.Symbol as a first-class Value (a
// bare variable reference or a quoted symbol literal).
type SymbolValue symbol.Symbol

func (SymbolValue) Kind() Kind { return KindSymbol }
func (s SymbolValue) Equals(other Value) bool {
	o, ok := other.(SymbolValue)
	return ok && o == s
}
func (s SymbolValue) DeepEquals(other Value, _ *VisitedSet) bool { return s.Equals(other) }
func (s SymbolValue) Hash() uint64                               { return hashUint64(KindSymbol, uint64(s)) }
func (SymbolValue) Truthy() bool                                 { return true }
func (SymbolValue) TypeName() symbol.Symbol                      { return typeNameOf(KindSymbol) }
func (s SymbolValue) String() string                             { return fmt.Sprintf("#%d", symbol.Symbol(s)) }
