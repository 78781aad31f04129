package value

import "smile/internal/symbol"

// String is Smile's immutable byte-sequence string object.
type String struct {
	Bytes []byte
}

// NewString allocates a String from a Go string.
func NewString(s string) *String { return &String{Bytes: []byte(s)} }

func (*String) Kind() Kind { return KindString }
func (s *String) Equals(other Value) bool {
	o, ok := other.(*String)
	return ok && o == s
}
func (s *String) DeepEquals(other Value, _ *VisitedSet) bool {
	o, ok := other.(*String)
	return ok && string(o.Bytes) == string(s.Bytes)
}
func (s *String) Hash() uint64            { return hashBytes(s.Bytes) }
func (s *String) Truthy() bool            { return len(s.Bytes) > 0 }
func (*String) TypeName() symbol.Symbol   { return typeNameOf(KindString) }
func (s *String) String() string          { return string(s.Bytes) }
