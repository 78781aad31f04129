package parser

import (
	"smile/internal/token"
	"smile/internal/value"
)

// parseExpr is the top-level expression entry point: `expr := stmt | scope
// | func | term | dot-chain | call` (spec.md §4.3). Binary operators bind
// according to the precedence ladder or/and > equality/comparison >
// add/sub > mul/div > unary > postfix(call/dot/index) > term.
func (p *Parser) parseExpr() (value.Value, *parseError) {
	return p.parseOr()
}

func (p *Parser) parseOr() (value.Value, *parseError) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekIsKeyword("or") {
		p.lex.Next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$or")), left, right})
	}
	return left, nil
}

func (p *Parser) parseAnd() (value.Value, *parseError) {
	left, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.peekIsKeyword("and") {
		p.lex.Next()
		right, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		left = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$and")), left, right})
	}
	return left, nil
}

var cmpKinds = []token.Kind{
	token.EQUALEQUAL, token.EQUALEQUALEQUAL, token.NOTEQUAL, token.NOTEQUALEQUAL,
	token.LESSEQUAL, token.GREATEREQUAL,
}

func (p *Parser) parseCmp() (value.Value, *parseError) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.lex.Next()
		if !kindIn(tok.Kind, cmpKinds) && !(tok.Kind == token.PUNCTNAME && (tok.Text == "<" || tok.Text == ">")) {
			p.lex.Unget(tok)
			break
		}
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		left = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get(tok.Text)), left, right})
	}
	return left, nil
}

func (p *Parser) parseAddSub() (value.Value, *parseError) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.lex.Next()
		if tok.Kind != token.PUNCTNAME || (tok.Text != "+" && tok.Text != "-") {
			p.lex.Unget(tok)
			break
		}
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get(tok.Text)), left, right})
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (value.Value, *parseError) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.lex.Next()
		if tok.Kind != token.PUNCTNAME || (tok.Text != "*" && tok.Text != "/") {
			p.lex.Unget(tok)
			break
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get(tok.Text)), left, right})
	}
	return left, nil
}

func (p *Parser) parseUnary() (value.Value, *parseError) {
	tok := p.lex.Next()
	if tok.Kind == token.PUNCTNAME && tok.Text == "-" {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("-")), operand}), nil
	}
	if tok.Kind == token.ALPHANAME && tok.Text == "not" {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return value.FromSlice([]value.Value{value.SymbolValue(p.symbols.Get("$not")), operand}), nil
	}
	p.lex.Unget(tok)
	return p.parsePostfix()
}

// parsePostfix handles member access (`.name`), `[...]` after a term (which
// lowers to the list `[head args...]`, the same shape as a call; no
// separate index form is produced), and function application by juxtaposition (`f a b` per spec.md's end-to-end
// arithmetic/call scenarios). Juxtaposed terms greedily become call
// arguments as long as the next token can begin a term.
func (p *Parser) parsePostfix() (value.Value, *parseError) {
	head, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.lex.Next()
		switch {
		case tok.Kind == token.DOT:
			nameTok := p.lex.Next()
			if nameTok.Kind != token.ALPHANAME && nameTok.Kind != token.UNKNOWNALPHANAME {
				return nil, perr(nameTok.Pos, "expected member name after '.'")
			}
			member := p.symbols.Get(nameTok.Text)
			head = value.NewPair(head, value.SymbolValue(member))
		case tok.Kind == token.LBRACKET:
			args, perr2 := p.parseArgList(token.RBRACKET)
			if perr2 != nil {
				return nil, perr2
			}
			elems := append([]value.Value{head}, args...)
			head = value.FromSlice(elems)
		default:
			p.lex.Unget(tok)
			if !p.startsTerm(tok) {
				return head, nil
			}
			// Juxtaposition call: collect further terms as arguments.
			args, perr2 := p.parseApplicationArgs()
			if perr2 != nil {
				return nil, perr2
			}
			if len(args) == 0 {
				return head, nil
			}
			elems := append([]value.Value{head}, args...)
			return value.FromSlice(elems), nil
		}
	}
}

func (p *Parser) parseApplicationArgs() ([]value.Value, *parseError) {
	var args []value.Value
	for {
		tok := p.lex.Next()
		p.lex.Unget(tok)
		if !p.startsTerm(tok) {
			break
		}
		arg, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func (p *Parser) parseArgList(closing token.Kind) ([]value.Value, *parseError) {
	var args []value.Value
	for {
		tok := p.lex.Next()
		if tok.Kind == closing {
			return args, nil
		}
		p.lex.Unget(tok)
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok = p.lex.Next()
		if tok.Kind == token.COMMA {
			continue
		}
		if tok.Kind == closing {
			return args, nil
		}
		p.lex.Unget(tok)
	}
}

// startsTerm reports whether tok could begin a term, used to decide
// whether juxtaposed input continues a call-application chain.
func (p *Parser) startsTerm(tok token.Token) bool {
	switch tok.Kind {
	case token.LPAREN, token.LBRACE, token.BAR, token.BACKTICK,
		token.ALPHANAME, token.UNKNOWNALPHANAME,
		token.RAWSTRING, token.DYNAMICSTRING, token.CHAR, token.UNI,
		token.BYTE, token.INTEGER16, token.INTEGER32, token.INTEGER64,
		token.REAL32, token.REAL64, token.REAL128, token.FLOAT32, token.FLOAT64, token.FLOAT128,
		token.LOANWORD_SYNTAX, token.LOANWORD_LOANWORD, token.LOANWORD_REGEX, token.LOANWORD_CUSTOM:
		return true
	default:
		return false
	}
}

func (p *Parser) peekIsKeyword(kw string) bool {
	tok := p.lex.Next()
	ok := tok.Kind == token.ALPHANAME && tok.Text == kw
	p.lex.Unget(tok)
	return ok
}

func kindIn(k token.Kind, ks []token.Kind) bool {
	for _, x := range ks {
		if k == x {
			return true
		}
	}
	return false
}
