// Package parser implements Smile's recursive-descent, precedence-climbing
// expression parser (spec.md §4.3). It consumes tokens from a
// smile/internal/lexer.Lexer and produces canonical list-form values
// (smile/internal/value) rather than a bespoke AST type — per spec.md
// §4.3's "Output shape", a parsed program already *is* Smile data.
package parser

import (
	"fmt"

	"smile/internal/lexer"
	"smile/internal/symbol"
	"smile/internal/token"
	"smile/internal/value"
)

// Severity classifies a parse diagnostic (spec.md §7).
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	Fatal
)

// Diagnostic is one parser-reported problem.
type Diagnostic struct {
	Message  string
	Pos      token.Position
	Severity Severity
}

// DeclKind classifies a name declared within a ParseScope.
type DeclKind int

const (
	DeclArgument DeclKind = iota
	DeclVariable
	DeclConst
	DeclTillFlag
)

// ParseScope is one lexical nesting level: a `{…}`, `[$scope …]`, `|…|`
// function body, or syntax-rule template expansion (spec.md §4.3, "Scope
// management"). Declarations record their kind and first-appearance
// position so redeclaring a symbol with an incompatible kind can be
// reported as an error.
type ParseScope struct {
	Kind    symbol.Symbol // SCOPE, FN, TILL, ...
	Parent  *ParseScope
	Decls   map[symbol.Symbol]DeclKind
	DeclPos map[symbol.Symbol]token.Position
}

func newParseScope(kind symbol.Symbol, parent *ParseScope) *ParseScope {
	return &ParseScope{Kind: kind, Parent: parent, Decls: map[symbol.Symbol]DeclKind{}, DeclPos: map[symbol.Symbol]token.Position{}}
}

// Declare records name as bound with the given kind in this scope. It
// returns false (without modifying the scope) if name is already declared
// here with a different, incompatible kind.
func (s *ParseScope) Declare(name symbol.Symbol, kind DeclKind, pos token.Position) bool {
	if existing, ok := s.Decls[name]; ok && existing != kind {
		return false
	}
	s.Decls[name] = kind
	s.DeclPos[name] = pos
	return true
}

// Lookup searches this scope and its ancestors for name, returning its
// declaration kind and whether it was found (a global, per spec.md §4.4's
// symbol-resolution rule for "global / not found").
func (s *ParseScope) Lookup(name symbol.Symbol) (DeclKind, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if kind, ok := sc.Decls[name]; ok {
			return kind, true
		}
	}
	return 0, false
}

// Parser holds all state for one parse of a token stream: the lexer it
// pulls from, the symbol table tokens are interned against, the current
// ParseScope stack, and the user-extensible syntax/loanword tables.
type Parser struct {
	lex     *lexer.Lexer
	symbols *symbol.Table
	scope   *ParseScope
	syntax  *SyntaxTable
	loan    *LoanwordTable

	diagnostics []Diagnostic
}

// New creates a Parser reading from lex.
func New(symbols *symbol.Table, lex *lexer.Lexer) *Parser {
	return &Parser{
		lex:     lex,
		symbols: symbols,
		scope:   newParseScope(symbols.Get("$module"), nil),
		syntax:  NewSyntaxTable(),
		loan:    NewLoanwordTable(),
	}
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	p.diagnostics = append(p.diagnostics, Diagnostic{Message: fmt.Sprintf(format, args...), Pos: pos, Severity: Error})
}

// Diagnostics returns every diagnostic accumulated so far.
func (p *Parser) Diagnostics() []Diagnostic { return p.diagnostics }

// Parse parses the entire remaining input as a sequence of top-level
// expressions, recovering from errors by resynchronizing at the next `{
// } [ ] ( ) |` token (spec.md §4.3, "Scope management"). Parsing an empty
// input yields a single NullObject result with no errors (spec.md §8,
// "Boundary behaviors").
func (p *Parser) Parse() ([]value.Value, []Diagnostic) {
	var exprs []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == token.EOI {
			break
		}
		p.lex.Unget(tok)

		v, ok := p.parseExprRecovering()
		if ok {
			exprs = append(exprs, v)
		}
	}
	if len(exprs) == 0 {
		return []value.Value{value.NullObject}, p.diagnostics
	}
	return exprs, p.diagnostics
}

func (p *Parser) parseExprRecovering() (value.Value, bool) {
	v, err := p.parseExpr()
	if err != nil {
		p.errorf(err.pos, "%s", err.msg)
		p.resync()
		return nil, false
	}
	return v, true
}

// resync scans forward to the next synchronizing token after a parse
// error, matching spec.md §4.3's recovery rule.
func (p *Parser) resync() {
	for {
		tok := p.lex.Next()
		switch tok.Kind {
		case token.EOI:
			return
		case token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET, token.LPAREN, token.RPAREN, token.BAR:
			return
		}
	}
}

type parseError struct {
	pos token.Position
	msg string
}

func (e *parseError) Error() string { return e.msg }

func perr(pos token.Position, format string, args ...any) *parseError {
	return &parseError{pos: pos, msg: fmt.Sprintf(format, args...)}
}
