// Package token defines the lexical token vocabulary the lexer produces
// and the parser consumes (spec.md §4.2).
package token

import "smile/internal/symbol"

// Kind classifies a Token. Rather than a closed set of fixed
// punctuation/keyword strings, Smile's token kinds distinguish
// known-in-symbol-table names from unknown ones (ALPHANAME vs
// UNKNOWNALPHANAME) because the parser treats a bare identifier
// differently depending on whether it could possibly name a known
// special form.
type Kind int

const (
	EOI Kind = iota
	ERROR

	// Delimiters
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	LBRACE
	RBRACE
	BAR
	COLON
	SEMICOLON
	COMMA
	BACKTICK
	DOT

	// Names
	ALPHANAME        // identifier matching a known symbol
	UNKNOWNALPHANAME // identifier not yet interned
	PUNCTNAME        // punctuation run matching a known symbol
	UNKNOWNPUNCTNAME // punctuation run not yet interned

	// Punctuation operators recognized upfront
	EQUAL
	EQUALEQUAL
	EQUALEQUALEQUAL
	NOTEQUAL
	NOTEQUALEQUAL
	LESSEQUAL
	GREATEREQUAL

	// Numbers
	BYTE
	INTEGER16
	INTEGER32
	INTEGER64
	REAL32
	REAL64
	REAL128
	FLOAT32
	FLOAT64
	FLOAT128

	// Strings and characters
	RAWSTRING
	DYNAMICSTRING
	CHAR
	UNI

	// Loanwords
	LOANWORD_SYNTAX
	LOANWORD_LOANWORD
	LOANWORD_REGEX
	LOANWORD_CUSTOM
)

var kindNames = [...]string{
	EOI: "EOI", ERROR: "ERROR",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]",
	LBRACE: "{", RBRACE: "}", BAR: "|", COLON: ":", SEMICOLON: ";",
	COMMA: ",", BACKTICK: "`", DOT: ".",
	ALPHANAME: "ALPHANAME", UNKNOWNALPHANAME: "UNKNOWNALPHANAME",
	PUNCTNAME: "PUNCTNAME", UNKNOWNPUNCTNAME: "UNKNOWNPUNCTNAME",
	EQUAL: "=", EQUALEQUAL: "==", EQUALEQUALEQUAL: "===",
	NOTEQUAL: "!=", NOTEQUALEQUAL: "!==",
	LESSEQUAL: "<=", GREATEREQUAL: ">=",
	BYTE: "BYTE", INTEGER16: "INTEGER16", INTEGER32: "INTEGER32",
	INTEGER64: "INTEGER64", REAL32: "REAL32", REAL64: "REAL64",
	REAL128: "REAL128", FLOAT32: "FLOAT32", FLOAT64: "FLOAT64",
	FLOAT128: "FLOAT128",
	RAWSTRING: "RAWSTRING", DYNAMICSTRING: "DYNAMICSTRING",
	CHAR: "CHAR", UNI: "UNI",
	LOANWORD_SYNTAX: "LOANWORD_SYNTAX", LOANWORD_LOANWORD: "LOANWORD_LOANWORD",
	LOANWORD_REGEX: "LOANWORD_REGEX", LOANWORD_CUSTOM: "LOANWORD_CUSTOM",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Position locates a token (or a list cell, see value.LexerPosition) in its
// source file.
type Position struct {
	Filename  string
	Line      int
	Column    int
	LineStart int // byte offset of the start of Line, for column recovery
}

// Token is one lexical unit. Text holds the raw source text (for ERROR,
// the diagnostic message instead); Symbol is populated for ALPHANAME,
// UNKNOWNALPHANAME, PUNCTNAME, UNKNOWNPUNCTNAME, and LOANWORD_CUSTOM;
// Data carries the kind-specific parsed payload (see the NewXxx
// constructors) — the literal's value.Value for numeric, string and char
// kinds (value.Int32, value.Real64, *value.String, value.Char, value.Uni,
// ...), and a *value.Loanword (stored as `any` to avoid an import cycle
// with the value package) for LOANWORD_REGEX.
type Token struct {
	Kind     Kind
	Text     string
	Symbol   symbol.Symbol
	Data     any
	Pos      Position
	// FirstOnLine records whether this token is the first non-whitespace
	// token on its source line, used by the parser's statement-boundary
	// heuristics (spec.md §4.2, "is_first_content_on_line").
	FirstOnLine bool
}

// NewToken constructs a delimiter/punctuation-operator token carrying no
// extra payload.
func NewToken(kind Kind, text string, pos Position, firstOnLine bool) Token {
	return Token{Kind: kind, Text: text, Pos: pos, FirstOnLine: firstOnLine}
}

// NewNameToken constructs an ALPHANAME/UNKNOWNALPHANAME/PUNCTNAME/
// UNKNOWNPUNCTNAME token.
func NewNameToken(kind Kind, text string, sym symbol.Symbol, pos Position, firstOnLine bool) Token {
	return Token{Kind: kind, Text: text, Symbol: sym, Pos: pos, FirstOnLine: firstOnLine}
}

// NewDataToken constructs a number/string/char/loanword token, where data
// is the kind-specific parsed payload.
func NewDataToken(kind Kind, text string, data any, pos Position, firstOnLine bool) Token {
	return Token{Kind: kind, Text: text, Data: data, Pos: pos, FirstOnLine: firstOnLine}
}

// NewErrorToken constructs an ERROR token. The lexer never throws (spec.md
// §4.2, "Error policy"); it reports lexical problems this way and leaves
// recovery to the parser.
func NewErrorToken(message string, pos Position) Token {
	return Token{Kind: ERROR, Text: message, Pos: pos}
}

func (t Token) String() string {
	if t.Text != "" {
		return t.Kind.String() + "(" + t.Text + ")"
	}
	return t.Kind.String()
}
