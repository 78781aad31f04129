package parser

import (
	"smile/internal/symbol"
	"smile/internal/token"
	"smile/internal/value"
)

// parseTerm handles the `term` production: parenthesized expressions,
// scopes, functions, bracketed lists/special-forms, quotes, names, and
// literals (spec.md §4.3).
func (p *Parser) parseTerm() (value.Value, *parseError) {
	tok := p.lex.Next()

	switch tok.Kind {
	case token.LPAREN:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if close := p.lex.Next(); close.Kind != token.RPAREN {
			return nil, perr(close.Pos, "expected ')'")
		}
		return inner, nil

	case token.LBRACE:
		return p.parseScopeBody(tok)

	case token.BAR:
		return p.parseFunc(tok)

	case token.LBRACKET:
		return p.parseBracket(tok)

	case token.BACKTICK:
		quoted, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$quote")), quoted}), nil

	case token.ALPHANAME:
		return p.parseKeywordOrName(tok)

	case token.UNKNOWNALPHANAME:
		return value.SymbolValue(p.symbols.Get(tok.Text)), nil

	case token.RAWSTRING, token.DYNAMICSTRING, token.CHAR, token.UNI,
		token.BYTE, token.INTEGER16, token.INTEGER32, token.INTEGER64,
		token.REAL32, token.REAL64, token.REAL128, token.FLOAT32, token.FLOAT64, token.FLOAT128:
		if v, ok := tok.Data.(value.Value); ok {
			return v, nil
		}
		return nil, perr(tok.Pos, "internal error: literal token %v missing value payload", tok)

	case token.LOANWORD_SYNTAX:
		return p.parseSyntaxDecl()

	case token.LOANWORD_LOANWORD:
		return p.parseLoanwordDecl()

	case token.LOANWORD_REGEX:
		return tok.Data.(value.Value), nil

	case token.LOANWORD_CUSTOM:
		return p.applyCustomLoanword(tok)

	case token.ERROR:
		return nil, perr(tok.Pos, "%s", tok.Text)

	default:
		return nil, perr(tok.Pos, "unexpected token %s", tok)
	}
}

// parseKeywordOrName distinguishes Smile's bare keywords (if/unless/while/
// till/try/new/is/typeof/...) which open special-form syntax, from plain
// variable references.
func (p *Parser) parseKeywordOrName(tok token.Token) (value.Value, *parseError) {
	switch tok.Text {
	case "if", "unless":
		return p.parseIf(tok.Text == "unless")
	case "while", "until":
		return p.parseWhile(tok.Text == "until")
	case "till":
		return p.parseTill()
	case "try":
		return p.parseTry()
	case "new":
		return p.parseNew()
	case "var", "const":
		return p.parseVarDecl(tok.Text == "const")
	case "return":
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$return")), val}), nil
	default:
		return value.SymbolValue(tok.Symbol), nil
	}
}

// parseScopeBody parses `{ exprs_opt }`, pushing a fresh ParseScope so
// `var`/`const` declarations inside are scoped to it (spec.md §4.3, "Scope
// management"). The body lowers to `[$scope [vars] expr...]`.
func (p *Parser) parseScopeBody(openTok token.Token) (value.Value, *parseError) {
	p.scope = newParseScope(symbol.SCOPE, p.scope)
	defer func() { p.scope = p.scope.Parent }()

	var body []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == token.RBRACE {
			break
		}
		if tok.Kind == token.EOI {
			return nil, perr(openTok.Pos, "unclosed '{'")
		}
		p.lex.Unget(tok)
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, e)
	}

	varsList := p.declaredVarsList()
	elems := append([]value.Value{value.SymbolValue(symbol.SCOPE), varsList}, body...)
	return value.FromSlice(elems), nil
}

func (p *Parser) declaredVarsList() value.Value {
	var names []value.Value
	for sym, kind := range p.scope.Decls {
		if kind == DeclVariable || kind == DeclConst {
			names = append(names, value.SymbolValue(sym))
		}
	}
	return value.FromSlice(names)
}

// parseVarDecl handles `var name = init` / `const name = init`, declaring
// name in the current scope and lowering to `[$set name init]`.
func (p *Parser) parseVarDecl(isConst bool) (value.Value, *parseError) {
	nameTok := p.lex.Next()
	if nameTok.Kind != token.ALPHANAME && nameTok.Kind != token.UNKNOWNALPHANAME {
		return nil, perr(nameTok.Pos, "expected variable name after 'var'/'const'")
	}
	name := p.symbols.Get(nameTok.Text)
	kind := DeclVariable
	if isConst {
		kind = DeclConst
	}
	if !p.scope.Declare(name, kind, nameTok.Pos) {
		p.errorf(nameTok.Pos, "'%s' redeclared with incompatible kind", nameTok.Text)
	}

	eqTok := p.lex.Next()
	var init value.Value = value.NullObject
	if eqTok.Kind == token.EQUAL {
		var err *parseError
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	} else {
		p.lex.Unget(eqTok)
	}
	return value.FromSlice([]value.Value{value.SymbolValue(symbol.SET), value.SymbolValue(name), init}), nil
}

// parseFunc handles `| params | expr`, lowering to `[$fn [params] body]`.
func (p *Parser) parseFunc(openTok token.Token) (value.Value, *parseError) {
	p.scope = newParseScope(symbol.FN, p.scope)
	defer func() { p.scope = p.scope.Parent }()

	var params []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == token.BAR {
			break
		}
		if tok.Kind == token.COMMA {
			continue
		}
		if tok.Kind != token.ALPHANAME && tok.Kind != token.UNKNOWNALPHANAME {
			return nil, perr(tok.Pos, "expected parameter name")
		}
		name := p.symbols.Get(tok.Text)
		p.scope.Declare(name, DeclArgument, tok.Pos)
		params = append(params, value.SymbolValue(name))
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	semi := p.lex.Next()
	if semi.Kind != token.SEMICOLON {
		p.lex.Unget(semi)
	}

	_ = openTok
	return value.FromSlice([]value.Value{
		value.SymbolValue(symbol.FN), value.FromSlice(params), body,
	}), nil
}

// parseBracket handles `[ args ]`: either a call `[fn arg...]` or a
// special form whose head is a known symbol with ID < 32 (spec.md §4.3,
// "Output shape"). The parser does not distinguish them structurally —
// both are plain lists — the compiler dispatches on the head symbol.
func (p *Parser) parseBracket(openTok token.Token) (value.Value, *parseError) {
	elems, err := p.parseArgList(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	_ = openTok
	return value.FromSlice(elems), nil
}

func (p *Parser) parseIf(negate bool) (value.Value, *parseError) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if negate {
		cond = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$not")), cond})
	}
	p.expectKeyword("then")
	thenExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	elseExpr := value.Value(value.NullObject)
	if p.peekIsKeyword("else") {
		p.lex.Next()
		elseExpr, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return value.FromSlice([]value.Value{value.SymbolValue(symbol.IF), cond, thenExpr, elseExpr}), nil
}

func (p *Parser) parseWhile(negate bool) (value.Value, *parseError) {
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if negate {
		cond = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$not")), cond})
	}
	p.expectKeyword("do")
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return value.FromSlice([]value.Value{value.SymbolValue(symbol.WHILE), cond, body}), nil
}

// parseTill handles `till flag... do body (when flag: handler)*`
// (spec.md §4.3, end-to-end scenario 3).
func (p *Parser) parseTill() (value.Value, *parseError) {
	p.scope = newParseScope(symbol.TILL, p.scope)
	defer func() { p.scope = p.scope.Parent }()

	var flags []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == token.ALPHANAME && tok.Text == "do" {
			break
		}
		if tok.Kind != token.ALPHANAME && tok.Kind != token.UNKNOWNALPHANAME {
			return nil, perr(tok.Pos, "expected till flag name")
		}
		name := p.symbols.Get(tok.Text)
		p.scope.Declare(name, DeclTillFlag, tok.Pos)
		flags = append(flags, value.SymbolValue(name))
	}

	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var whens []value.Value
	for p.peekIsKeyword("when") {
		p.lex.Next()
		nameTok := p.lex.Next()
		if nameTok.Kind != token.ALPHANAME && nameTok.Kind != token.UNKNOWNALPHANAME {
			return nil, perr(nameTok.Pos, "expected flag name after 'when'")
		}
		flagName := p.symbols.Get(nameTok.Text)
		colon := p.lex.Next()
		if colon.Kind != token.COLON {
			return nil, perr(colon.Pos, "expected ':' after when-flag")
		}
		handler, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		whens = append(whens, value.NewPair(value.SymbolValue(flagName), handler))
	}

	elems := append([]value.Value{value.SymbolValue(symbol.TILL), value.FromSlice(flags), body}, whens...)
	return value.FromSlice(elems), nil
}

func (p *Parser) parseTry() (value.Value, *parseError) {
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.peekIsKeyword("catch") {
		tok := p.lex.Next()
		return nil, perr(tok.Pos, "expected 'catch' after try body")
	}
	p.lex.Next()

	bar := p.lex.Next()
	var handlerVar symbol.Symbol
	if bar.Kind == token.BAR {
		nameTok := p.lex.Next()
		handlerVar = p.symbols.Get(nameTok.Text)
		closeBar := p.lex.Next()
		if closeBar.Kind != token.BAR {
			return nil, perr(closeBar.Pos, "expected '|' after catch parameter")
		}
	} else {
		p.lex.Unget(bar)
	}

	handler, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return value.FromSlice([]value.Value{
		value.SymbolValue(symbol.CATCH), body, value.SymbolValue(handlerVar), handler,
	}), nil
}

// parseNew handles `new base [ member: value, ... ]`, lowering to `[$new
// base [members]]` (spec.md §4.3 grammar).
func (p *Parser) parseNew() (value.Value, *parseError) {
	base, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	open := p.lex.Next()
	if open.Kind != token.LBRACKET {
		return nil, perr(open.Pos, "expected '[' after new base")
	}
	var members []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == token.RBRACKET {
			break
		}
		if tok.Kind != token.ALPHANAME && tok.Kind != token.UNKNOWNALPHANAME {
			return nil, perr(tok.Pos, "expected member name")
		}
		name := p.symbols.Get(tok.Text)
		colon := p.lex.Next()
		if colon.Kind != token.COLON {
			return nil, perr(colon.Pos, "expected ':' after member name")
		}
		v, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		members = append(members, value.NewPair(value.SymbolValue(name), v))
		sep := p.lex.Next()
		if sep.Kind == token.COMMA {
			continue
		}
		if sep.Kind == token.RBRACKET {
			break
		}
		p.lex.Unget(sep)
	}
	return value.FromSlice([]value.Value{value.SymbolValue(symbol.NEW), base, value.FromSlice(members)}), nil
}

func (p *Parser) expectKeyword(kw string) {
	tok := p.lex.Next()
	if tok.Kind != token.ALPHANAME || tok.Text != kw {
		p.errorf(tok.Pos, "expected '%s'", kw)
		p.lex.Unget(tok)
	}
}
