// Package module implements Smile's module registry: named, lazily and
// exactly-once-evaluated top-level program units with an export
// dictionary keyed by symbol (spec.md §4.6).
package module

import (
	"fmt"
	"sync"

	"smile/internal/compiler"
	"smile/internal/eval"
	"smile/internal/symbol"
	"smile/internal/value"
)

// ResultKind distinguishes the three shapes an EvalResult can take
// (spec.md §4.6, "EvalResult is { Ok(value, closure) | ParseErrors(messages)
// | RuntimeError(exception) }").
type ResultKind int

const (
	ResultOk ResultKind = iota
	ResultParseErrors
	ResultRuntimeError
)

// EvalResult is the cached outcome of evaluating a module exactly once.
type EvalResult struct {
	Kind        ResultKind
	Value       value.Value
	Closure     *eval.Closure
	ParseErrors []string
	Err         error
}

// Info is one registered module: its source name, a unique id, the
// compiled top-level function, and the memoized result of running it
// (spec.md §4.6 "ModuleInfo — name, unique id, parsed expression,
// compiled closure once evaluated, evaluation result cache,
// exported-names dictionary, parse messages").
type Info struct {
	Name        string
	ID          int
	Fn          *compiler.UserFunctionInfo
	Tables      *compiler.CompiledTables
	ParseErrors []string

	once    sync.Once
	result  *EvalResult
	exports map[symbol.Symbol]int // symbol -> Globals slot, precomputed lazily
}

// Registry assigns unique ids and names to Infos as they're registered
// (spec.md §4.6 "registered under a unique name and unique integer id").
// It is not safe for concurrent mutation mid-execution, matching the
// single-threaded evaluator model spec.md §5 describes for the module
// registry specifically.
type Registry struct {
	byName map[string]*Info
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Info)}
}

// Register adds a new module under name, compiled into fn against tables.
// Registering the same name twice replaces the previous entry and resets
// its memoized evaluation — the reference's `Unregister`-then-`Register`
// pattern collapsed into one call, since nothing here needs the two steps
// kept separate.
func (r *Registry) Register(name string, tables *compiler.CompiledTables, fn *compiler.UserFunctionInfo, parseErrors []string) *Info {
	r.nextID++
	info := &Info{Name: name, ID: r.nextID, Fn: fn, Tables: tables, ParseErrors: parseErrors}
	r.byName[name] = info
	return info
}

func (r *Registry) Lookup(name string) (*Info, bool) {
	info, ok := r.byName[name]
	return info, ok
}

// InitForReal guarantees info has been evaluated exactly once against m,
// returning the cached result on every call after the first (spec.md
// §4.6 "init_for_real(module) guarantees the module has been evaluated
// exactly once; repeated calls return the cached EvalResult").
func (info *Info) InitForReal(m *eval.Machine) *EvalResult {
	info.once.Do(func() {
		if len(info.ParseErrors) > 0 {
			info.result = &EvalResult{Kind: ResultParseErrors, ParseErrors: info.ParseErrors}
			return
		}
		v, err := m.Run(info.Fn, nil, nil)
		if err != nil {
			info.result = &EvalResult{Kind: ResultRuntimeError, Err: err}
			return
		}
		info.result = &EvalResult{Kind: ResultOk, Value: v}
	})
	return info.result
}

// GetExposedValue resolves name against info's export dictionary,
// precomputing the symbol->slot map on first call (spec.md §4.6
// "get_exposed_value(module, symbol) precomputes an export dictionary
// ... the first time it is called; subsequent lookups are O(1)").
// Exports are the module's top-level global declarations; in this
// evaluator those already live in the shared Globals map rather than in
// per-module closure slots (internal/eval has no separate per-module
// closure region — see DESIGN.md), so the "dictionary" here amounts to
// validating that name was in fact declared at this module's top level
// before deferring the actual value lookup to Globals.
func (info *Info) GetExposedValue(g *eval.Globals, name symbol.Symbol) (value.Value, error) {
	if info.exports == nil {
		info.exports = make(map[symbol.Symbol]int)
		for i, n := range info.Tables.Globals.Names() {
			info.exports[n] = i
		}
	}
	if _, ok := info.exports[name]; !ok {
		return nil, fmt.Errorf("module %s does not export %s", info.Name, name.String())
	}
	v, ok := g.Get(name)
	if !ok {
		return value.NullObject, nil
	}
	return v, nil
}
