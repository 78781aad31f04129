package value

import (
	"sort"
	"strings"

	"smile/internal/symbol"
)

// SecurityLevel controls what a property of a UserObject permits: plain
// read-only data, read-write mutation, or read-append (new properties may
// be added but existing ones cannot be overwritten) — the security flags
// named in spec.md §3.
type SecurityLevel byte

const (
	SecurityReadWriteAppend SecurityLevel = iota
	SecurityReadOnly
	SecurityReadWrite
	SecurityReadAppend
)

// UserObject is Smile's generic symbol-to-value mapping: the runtime
// representation of `{a: 1, b: 2}` object literals, exception payloads,
// and ad hoc records. Base lets one UserObject extend another's
// properties (looked up when a key is missing locally), the mechanism
// `[$new base [...]]` uses (spec.md §4.3 special-form grammar).
type UserObject struct {
	Base     *UserObject
	fields   map[symbol.Symbol]Value
	security map[symbol.Symbol]SecurityLevel
}

// NewUserObject creates an empty UserObject, optionally extending base.
func NewUserObject(base *UserObject) *UserObject {
	return &UserObject{
		Base:     base,
		fields:   make(map[symbol.Symbol]Value),
		security: make(map[symbol.Symbol]SecurityLevel),
	}
}

func (*UserObject) Kind() Kind { return KindUserObject }
func (u *UserObject) Equals(other Value) bool {
	o, ok := other.(*UserObject)
	return ok && o == u
}
func (u *UserObject) DeepEquals(other Value, visited *VisitedSet) bool {
	o, ok := other.(*UserObject)
	if !ok {
		return false
	}
	if visited == nil {
		visited = NewVisitedSet()
	}
	if visited.Enter(u, o) {
		return true
	}
	if len(u.fields) != len(o.fields) {
		return false
	}
	for k, v := range u.fields {
		ov, ok := o.fields[k]
		if !ok || !v.DeepEquals(ov, visited) {
			return false
		}
	}
	return true
}
func (u *UserObject) Hash() uint64 {
	h := hashUint64(KindUserObject, uint64(len(u.fields)))
	for k, v := range u.fields {
		h ^= uint64(k)*2654435761 + v.Hash()
	}
	return h
}
func (*UserObject) Truthy() bool { return true }
func (u *UserObject) TypeName() symbol.Symbol {
	return typeNameOf(KindUserObject)
}
func (u *UserObject) String() string {
	names := u.PropertyNames()
	parts := make([]string, 0, len(names))
	for _, n := range names {
		v, _ := u.Get(n)
		parts = append(parts, v.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Get returns the value bound to name, checking Base if name is not set
// directly on u. ok is false if name is unbound anywhere in the chain —
// callers implementing "unknown property reads return null" (spec.md §7)
// should substitute NullObject themselves rather than treat !ok as an error.
func (u *UserObject) Get(name symbol.Symbol) (Value, bool) {
	if v, ok := u.fields[name]; ok {
		return v, true
	}
	if u.Base != nil {
		return u.Base.Get(name)
	}
	return nil, false
}

// Has reports whether name is bound on u or any object it extends.
func (u *UserObject) Has(name symbol.Symbol) bool {
	_, ok := u.Get(name)
	return ok
}

// Set binds name to v on u directly (never on Base), honoring security
// flags: a read-only property cannot be overwritten once set; a
// read-append property can be created but not mutated after creation.
// It returns ObjectSecurityError-worthy false on a forbidden write.
func (u *UserObject) Set(name symbol.Symbol, v Value) bool {
	if lvl, ok := u.security[name]; ok {
		switch lvl {
		case SecurityReadOnly:
			return false
		case SecurityReadAppend:
			if _, exists := u.fields[name]; exists {
				return false
			}
		}
	}
	u.fields[name] = v
	return true
}

// SetSecurity assigns the security level enforced for future Set calls on
// name. It does not itself check or change the current value.
func (u *UserObject) SetSecurity(name symbol.Symbol, level SecurityLevel) {
	u.security[name] = level
}

// PropertyNames returns this object's own property names (not Base's), in
// a stable (sorted-by-ID) order so printing and iteration are deterministic.
func (u *UserObject) PropertyNames() []symbol.Symbol {
	names := make([]symbol.Symbol, 0, len(u.fields))
	for k := range u.fields {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
