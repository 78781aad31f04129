package parser

import (
	"smile/internal/symbol"
	"smile/internal/token"
	"smile/internal/value"
)

// patternElem is one element of a #syntax rule's pattern: either a literal
// terminal (matched against a token's text) or a nonterminal placeholder
// `[class name]` (spec.md §4.3, "A pattern is a sequence of terminals...
// and nonterminal placeholders").
type patternElem struct {
	terminal string // non-empty for terminal elements
	class    symbol.Symbol
	name     symbol.Symbol
	optional bool
	repeat   bool
}

// syntaxRule is one registered #syntax class rule.
type syntaxRule struct {
	class    symbol.Symbol
	pattern  []patternElem
	template value.Value
}

// SyntaxTable holds every #syntax rule registered so far, keyed by class,
// in per-class registration-order slices. No parse step consults these
// rules: registering a rule does not change how later input parses.
type SyntaxTable struct {
	rules map[symbol.Symbol][]*syntaxRule
}

func NewSyntaxTable() *SyntaxTable {
	return &SyntaxTable{rules: make(map[symbol.Symbol][]*syntaxRule)}
}

func (st *SyntaxTable) register(r *syntaxRule) {
	st.rules[r.class] = append(st.rules[r.class], r)
}

// LoanwordTable holds every #loanword rule registered so far, keyed by
// name.
type LoanwordTable struct {
	rules map[symbol.Symbol]*value.Loanword
}

func NewLoanwordTable() *LoanwordTable {
	return &LoanwordTable{rules: make(map[symbol.Symbol]*value.Loanword)}
}

// parseSyntaxDecl handles `#syntax classname: [ pattern ] => template`
// (spec.md §4.3). The `#syntax` token itself has already been consumed.
func (p *Parser) parseSyntaxDecl() (value.Value, *parseError) {
	classTok := p.lex.Next()
	if classTok.Kind != token.ALPHANAME && classTok.Kind != token.UNKNOWNALPHANAME {
		return nil, perr(classTok.Pos, "expected syntax class name after #syntax")
	}
	class := p.symbols.Get(classTok.Text)

	if colon := p.lex.Next(); colon.Kind != token.COLON {
		return nil, perr(colon.Pos, "expected ':' after syntax class name")
	}
	if open := p.lex.Next(); open.Kind != token.LBRACKET {
		return nil, perr(open.Pos, "expected '[' to start syntax pattern")
	}

	pattern, err := p.parseSyntaxPattern()
	if err != nil {
		return nil, err
	}

	implies := p.lex.Next()
	if implies.Kind != token.PUNCTNAME || implies.Text != "=>" {
		return nil, perr(implies.Pos, "expected '=>' after syntax pattern")
	}

	template, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.syntax.register(&syntaxRule{class: class, pattern: pattern, template: template})
	return value.NullObject, nil
}

func (p *Parser) parseSyntaxPattern() ([]patternElem, *parseError) {
	var elems []patternElem
	for {
		tok := p.lex.Next()
		if tok.Kind == token.RBRACKET {
			return elems, nil
		}
		if tok.Kind == token.LBRACKET {
			classTok := p.lex.Next()
			optional := false
			className := classTok.Text
			if len(className) > 0 && className[len(className)-1] == '?' {
				optional = true
				className = className[:len(className)-1]
			}
			class := p.symbols.Get(className)
			nameTok := p.lex.Next()
			name := p.symbols.Get(nameTok.Text)
			elem := patternElem{class: class, name: name, optional: optional}

			next := p.lex.Next()
			if next.Kind == token.COMMA {
				elem.repeat = true
				closeTok := p.lex.Next()
				if closeTok.Kind != token.RBRACKET {
					return nil, perr(closeTok.Pos, "expected ']' after repeat separator")
				}
			} else if next.Kind == token.RBRACKET {
				// plain [class name]
			} else {
				return nil, perr(next.Pos, "expected ']' in pattern nonterminal")
			}
			elems = append(elems, elem)
			continue
		}
		elems = append(elems, patternElem{terminal: tok.Text})
	}
}

// parseLoanwordDecl handles `#loanword name: regex => template`.
func (p *Parser) parseLoanwordDecl() (value.Value, *parseError) {
	nameTok := p.lex.Next()
	if nameTok.Kind != token.ALPHANAME && nameTok.Kind != token.UNKNOWNALPHANAME {
		return nil, perr(nameTok.Pos, "expected loanword name after #loanword")
	}
	name := p.symbols.Get(nameTok.Text)

	if colon := p.lex.Next(); colon.Kind != token.COLON {
		return nil, perr(colon.Pos, "expected ':' after loanword name")
	}

	regexTok := p.lex.Next()
	lw, ok := regexTok.Data.(*value.Loanword)
	if regexTok.Kind != token.LOANWORD_REGEX || !ok {
		return nil, perr(regexTok.Pos, "expected a #/regex/ after loanword name")
	}
	lw.Name = name

	implies := p.lex.Next()
	if implies.Kind != token.PUNCTNAME || implies.Text != "=>" {
		return nil, perr(implies.Pos, "expected '=>' after loanword regex")
	}
	template, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	lw.Template = template

	p.loan.rules[name] = lw
	return value.NullObject, nil
}

// applyCustomLoanword handles a LOANWORD_CUSTOM token: consumes whitespace
// up to and including the next newline, then matches the loanword's regex
// against the input starting there, binding numbered/named captures as
// template variables (spec.md §4.3). Since this implementation's lexer
// works over an already-decoded []rune buffer rather than exposing a raw
// byte cursor to match against, the regex is run against the remainder of
// the current line only — sufficient for single-line loanword forms,
// which covers every loanword example in spec.md; multi-line loanword
// bodies are not supported (see DESIGN.md).
func (p *Parser) applyCustomLoanword(tok token.Token) (value.Value, *parseError) {
	lw, ok := p.loan.rules[tok.Symbol]
	if !ok {
		return nil, perr(tok.Pos, "unknown loanword #%s", tok.Text[1:])
	}
	rest := p.lex.RestOfLine()
	loc := lw.Pattern.FindStringSubmatchIndex(rest)
	if loc == nil || loc[0] != 0 {
		return nil, perr(tok.Pos, "loanword #%s: input does not match its regex", tok.Text[1:])
	}
	matched := rest[loc[0]:loc[1]]
	p.lex.Advance(len(matched))

	captures := lw.Pattern.FindStringSubmatch(rest)
	names := lw.Pattern.SubexpNames()
	bindings := map[string]value.Value{"0": value.NewString(captures[0])}
	for i := 1; i < len(captures); i++ {
		bindings[itoa(i)] = value.NewString(captures[i])
		if names[i] != "" {
			bindings[names[i]] = value.NewString(captures[i])
		}
	}
	return p.substituteLoanwordTemplate(lw.Template, bindings), nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// substituteLoanwordTemplate walks tmpl, replacing any bare symbol whose
// name matches a capture-group binding ($0, $1, ..., or a named group)
// with the captured string. List cells are rebuilt on every walk, but
// every occurrence of a capture variable receives the same captured
// *value.String from bindings.
func (p *Parser) substituteLoanwordTemplate(tmpl value.Value, bindings map[string]value.Value) value.Value {
	if sv, ok := tmpl.(value.SymbolValue); ok {
		name := p.symbols.Name(symbol.Symbol(sv))
		if name != "" && len(name) > 1 && name[0] == '$' {
			if bound, ok := bindings[name[1:]]; ok {
				return bound
			}
		}
		return tmpl
	}
	if l, ok := tmpl.(*value.List); ok {
		return value.ConsPos(p.substituteLoanwordTemplate(l.A, bindings), p.substituteLoanwordTemplate(l.D, bindings), l.Pos)
	}
	return tmpl
}
