package value

import "smile/internal/symbol"

// Pair is a left/right value pair. The parser emits Pairs for property
// access: `(obj . symbol)` lowers to a Pair whose Right is a SymbolValue
// (spec.md §4.3, "Output shape").
type Pair struct {
	Left, Right Value
}

func NewPair(left, right Value) *Pair { return &Pair{Left: left, Right: right} }

func (*Pair) Kind() Kind { return KindPair }
func (p *Pair) Equals(other Value) bool {
	o, ok := other.(*Pair)
	return ok && o == p
}
func (p *Pair) DeepEquals(other Value, visited *VisitedSet) bool {
	o, ok := other.(*Pair)
	if !ok {
		return false
	}
	if visited == nil {
		visited = NewVisitedSet()
	}
	if visited.Enter(p, o) {
		return true
	}
	return p.Left.DeepEquals(o.Left, visited) && p.Right.DeepEquals(o.Right, visited)
}
func (p *Pair) Hash() uint64 {
	return hashUint64(KindPair, p.Left.Hash()^(p.Right.Hash()*31))
}
func (*Pair) Truthy() bool            { return true }
func (*Pair) TypeName() symbol.Symbol { return typeNameOf(KindPair) }
func (p *Pair) String() string        { return "(" + p.Left.String() + " . " + p.Right.String() + ")" }
