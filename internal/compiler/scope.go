package compiler

import "smile/internal/symbol"

// DeclKind classifies a name as the compiler's scope chain sees it,
// mirroring internal/parser.DeclKind but kept as the compiler's own type
// since the compiler rebuilds scope structure from the plain $scope/$fn
// forms the parser emitted rather than sharing the parser's live
// ParseScope objects (spec.md §4.3/§4.4 describe parsing and compiling as
// separate passes communicating only through the parsed form).
type DeclKind int

const (
	DeclGlobal DeclKind = iota
	DeclArgument
	DeclVariable
	DeclTillFlag
)

type declInfo struct {
	kind  DeclKind
	index int   // slot index within its function/scope
	depth int   // function-nesting depth where this name is homed, 0 = current function
	label *IntermediateInstruction // for till-flags: the enclosing when-label, once known
}

// funcScope tracks one nested function's compile-time environment: its
// argument/local names and the running counters used to assign slot
// indices. scopeChain nodes within the same function share a funcScope;
// nested $scope blocks only add to its locals counter, they don't open a
// new function depth (spec.md §4.4, "$scope allocates slots... LocalAlloc
// n ... LocalFree n").
type funcScope struct {
	parent   *funcScope
	depth    int
	numArgs  int
	numLocal int
	till     []*IntermediateInstruction // active till-flag when-labels, stack of enclosing tills
}

// scope is one lexical block (function body, $scope body, till body).
// decls holds only the names declared directly in this block; lookups
// walk outward through parent blocks and then outward through parent
// functions.
type scope struct {
	parent *scope
	fn     *funcScope
	decls  map[symbol.Symbol]*declInfo
}

func newFuncScope(parent *funcScope) *funcScope {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	return &funcScope{parent: parent, depth: depth}
}

func newScope(parent *scope, fn *funcScope) *scope {
	return &scope{parent: parent, fn: fn, decls: make(map[symbol.Symbol]*declInfo)}
}

func (s *scope) declareArgument(name symbol.Symbol) int {
	idx := s.fn.numArgs
	s.fn.numArgs++
	s.decls[name] = &declInfo{kind: DeclArgument, index: idx}
	return idx
}

func (s *scope) declareVariable(name symbol.Symbol) int {
	idx := s.fn.numLocal
	s.fn.numLocal++
	s.decls[name] = &declInfo{kind: DeclVariable, index: idx}
	return idx
}

func (s *scope) declareTillFlag(name symbol.Symbol, label *IntermediateInstruction) {
	s.decls[name] = &declInfo{kind: DeclTillFlag, label: label}
}

// lookup resolves name, walking outward through enclosing blocks first and
// then outward through enclosing functions, returning the declaration and
// how many function-levels away it was found (0 = current function).
func (s *scope) lookup(name symbol.Symbol) (*declInfo, int) {
	depth := 0
	fn := s.fn
	for blk := s; blk != nil; blk = blk.parent {
		if blk.fn != fn {
			depth++
			fn = blk.fn
		}
		if d, ok := blk.decls[name]; ok {
			return d, depth
		}
	}
	return nil, 0
}
