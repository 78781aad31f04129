// Package lexer turns Smile source text into a stream of tokens
// (spec.md §4.2). Scanning is pull-based: the parser calls Next
// repeatedly, and may Unget up to 15 times to put tokens back.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"

	"smile/internal/symbol"
	"smile/internal/token"
	"smile/internal/value"
)

const (
	commentChar  = '#'
	ungetBufSize = 16 // supports up to 15 unget operations
)

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentContinue(r rune) bool {
	return unicode.IsLetter(r) || isDigit(r) ||
		r == '!' || r == '?' || r == '\'' || r == '"' || r == '~' || r == '-'
}

const punctChars = "~!?@%^&*=+<>/-"

func isPunctChar(r rune) bool { return strings.ContainsRune(punctChars, r) }

// Lexer scans one source file's worth of runes. Rather than eagerly
// scanning the whole input into a []token.Token up front, Smile's grammar
// needs look-ahead-then-unget driven by the parser instead (spec.md
// §4.2), so Next produces one token per call and a ring buffer remembers
// ungotten ones.
type Lexer struct {
	filename string
	src      []rune
	pos      int // index of the next unread rune
	line     int
	lineStart int // rune index where the current line began

	firstOnLine bool

	symbols *symbol.Table

	// ungetBuf is a fixed-size ring buffer of previously produced tokens,
	// replayed by Next before any new scanning happens (spec.md §4.2,
	// "16-slot ring buffer... supports up to 15 unget operations").
	ungetBuf [ungetBufSize]token.Token
	ungetLen int
}

// New creates a Lexer over src, attributed to filename for diagnostics,
// starting at the given 1-based line/column.
func New(symbols *symbol.Table, filename string, src string, startLine, startColumn int) *Lexer {
	l := &Lexer{
		filename:    filename,
		src:         []rune(src),
		line:        startLine,
		lineStart:   1 - startColumn, // so column() reports startColumn at rune 0
		firstOnLine: true,
		symbols:     symbols,
	}
	return l
}

func (l *Lexer) atEnd() bool { return l.pos >= len(l.src) }

func (l *Lexer) peek() rune {
	if l.atEnd() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(offset int) rune {
	i := l.pos + offset
	if i < 0 || i >= len(l.src) {
		return 0
	}
	return l.src[i]
}

func (l *Lexer) advance() rune {
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.lineStart = l.pos
	}
	return r
}

func (l *Lexer) column() int { return l.pos - l.lineStart + 1 }

func (l *Lexer) position() token.Position {
	return token.Position{Filename: l.filename, Line: l.line, Column: l.column(), LineStart: l.lineStart}
}

// Unget pushes tok back so the next Next call returns it again. Panics if
// more than ungetBufSize-1 tokens are ungotten without an intervening Next,
// the same hard limit the reference ring buffer enforces.
func (l *Lexer) Unget(tok token.Token) {
	if l.ungetLen >= ungetBufSize-1 {
		panic("lexer: unget buffer exhausted")
	}
	l.ungetBuf[l.ungetLen] = tok
	l.ungetLen++
}

// RestOfLine returns the as-yet-unconsumed runes of the current source
// line, used by a custom loanword's regex match (spec.md §4.3). It first
// skips whitespace up to and including a following newline, as the
// loanword application rule requires.
func (l *Lexer) RestOfLine() string {
	for !l.atEnd() && (l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\r') {
		l.advance()
	}
	if !l.atEnd() && l.peek() == '\n' {
		l.advance()
	}
	end := l.pos
	for end < len(l.src) && l.src[end] != '\n' {
		end++
	}
	return string(l.src[l.pos:end])
}

// Advance consumes the runes corresponding to the first byteLen bytes of
// RestOfLine's UTF-8 encoding, used after a loanword regex match (whose
// match indices are byte offsets) to skip over the matched text.
func (l *Lexer) Advance(byteLen int) {
	consumed := 0
	for consumed < byteLen && !l.atEnd() {
		consumed += len(string(l.peek()))
		l.advance()
	}
}

// Next returns the next token, replaying the unget buffer first.
func (l *Lexer) Next() token.Token {
	if l.ungetLen > 0 {
		l.ungetLen--
		return l.ungetBuf[l.ungetLen]
	}
	return l.scan()
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		r := l.peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.advance()
			if r == '\n' {
				l.firstOnLine = true
			}
		case r == commentChar && l.peekAt(1) != '!' && l.peekAt(1) != '/' && !isIdentStart(l.peekAt(1)):
			for !l.atEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) scan() token.Token {
	l.skipWhitespaceAndComments()
	firstOnLine := l.firstOnLine
	l.firstOnLine = false
	pos := l.position()

	if l.atEnd() {
		return token.NewToken(token.EOI, "", pos, firstOnLine)
	}

	r := l.peek()
	switch {
	case r == '(':
		l.advance()
		return token.NewToken(token.LPAREN, "(", pos, firstOnLine)
	case r == ')':
		l.advance()
		return token.NewToken(token.RPAREN, ")", pos, firstOnLine)
	case r == '[':
		l.advance()
		return token.NewToken(token.LBRACKET, "[", pos, firstOnLine)
	case r == ']':
		l.advance()
		return token.NewToken(token.RBRACKET, "]", pos, firstOnLine)
	case r == '{':
		l.advance()
		return token.NewToken(token.LBRACE, "{", pos, firstOnLine)
	case r == '}':
		l.advance()
		return token.NewToken(token.RBRACE, "}", pos, firstOnLine)
	case r == '|':
		l.advance()
		return token.NewToken(token.BAR, "|", pos, firstOnLine)
	case r == ':':
		l.advance()
		return token.NewToken(token.COLON, ":", pos, firstOnLine)
	case r == ';':
		l.advance()
		return token.NewToken(token.SEMICOLON, ";", pos, firstOnLine)
	case r == ',':
		l.advance()
		return token.NewToken(token.COMMA, ",", pos, firstOnLine)
	case r == '`':
		l.advance()
		return token.NewToken(token.BACKTICK, "`", pos, firstOnLine)
	case r == '\'':
		return l.scanRawStringOrChar(pos, firstOnLine)
	case r == '"':
		return l.scanDynamicString(pos, firstOnLine)
	case r == '#':
		return l.scanLoanword(pos, firstOnLine)
	case isDigit(r) || (r == '.' && isDigit(l.peekAt(1))):
		return l.scanNumber(pos, firstOnLine)
	case r == '.':
		l.advance()
		return token.NewToken(token.DOT, ".", pos, firstOnLine)
	case isIdentStart(r):
		return l.scanIdentifier(pos, firstOnLine)
	case isPunctChar(r):
		return l.scanPunctRun(pos, firstOnLine)
	default:
		l.advance()
		return token.NewErrorToken(fmt.Sprintf("unexpected character %q", r), pos)
	}
}

// scanIdentifier reads an alphabetic name, validating that every character
// belongs to the same Unicode script (spec.md §4.2, "An identifier may
// contain characters from exactly one script... mixing scripts is an
// error") and resolving escapes (`\xHH`, `\uHHHH`, `\n`, ...) inline.
func (l *Lexer) scanIdentifier(pos token.Position, firstOnLine bool) token.Token {
	var sb strings.Builder
	var script *unicode.RangeTable
	mixedScript := false

	for !l.atEnd() {
		r := l.peek()
		if r == '\\' {
			decoded, ok := l.decodeEscape()
			if !ok {
				return token.NewErrorToken("invalid escape in identifier", pos)
			}
			sb.WriteRune(decoded)
			continue
		}
		if r == '-' {
			// a '-' only continues the identifier if followed by another
			// valid identifier character; otherwise it is punctuation.
			if !isIdentContinue(l.peekAt(1)) && !isIdentStart(l.peekAt(1)) {
				break
			}
		} else if !isIdentContinue(r) {
			break
		}
		if s := identifierScript(r); s != nil {
			if script == nil {
				script = s
			} else if script != s {
				mixedScript = true
			}
		}
		sb.WriteRune(r)
		l.advance()
	}

	text := sb.String()
	if mixedScript {
		return token.NewErrorToken(fmt.Sprintf("identifier %q mixes scripts", text), pos)
	}

	if sym := l.symbols.TryGet(text); sym != 0 {
		return token.NewNameToken(token.ALPHANAME, text, sym, pos, firstOnLine)
	}
	return token.NewNameToken(token.UNKNOWNALPHANAME, text, 0, pos, firstOnLine)
}

// identifierScript returns the Unicode script range table r belongs to, or
// nil for script-agnostic characters (digits, punctuation) that do not
// participate in the mixed-script check.
func identifierScript(r rune) *unicode.RangeTable {
	scripts := []struct {
		name string
		tab  *unicode.RangeTable
	}{
		{"Latin", unicode.Latin}, {"Cyrillic", unicode.Cyrillic}, {"Greek", unicode.Greek},
		{"Han", unicode.Han}, {"Hiragana", unicode.Hiragana}, {"Katakana", unicode.Katakana},
		{"Hebrew", unicode.Hebrew}, {"Arabic", unicode.Arabic},
	}
	for _, s := range scripts {
		if unicode.Is(s.tab, r) {
			return s.tab
		}
	}
	return nil
}

func (l *Lexer) decodeEscape() (rune, bool) {
	l.advance() // consume '\'
	if l.atEnd() {
		return 0, false
	}
	switch c := l.advance(); c {
	case 'n':
		return '\n', true
	case 't':
		return '\t', true
	case 'r':
		return '\r', true
	case '\\':
		return '\\', true
	case 'x':
		return l.decodeHexEscape(2)
	case 'u':
		if l.peek() == '{' {
			l.advance()
			var sb strings.Builder
			for !l.atEnd() && l.peek() != '}' {
				sb.WriteRune(l.advance())
			}
			if l.atEnd() {
				return 0, false
			}
			l.advance() // consume '}'
			n, err := strconv.ParseInt(sb.String(), 16, 32)
			if err != nil {
				return 0, false
			}
			return rune(n), true
		}
		return l.decodeHexEscape(4)
	case 'U':
		return l.decodeHexEscape(8)
	default:
		return c, true
	}
}

func (l *Lexer) decodeHexEscape(digits int) (rune, bool) {
	var sb strings.Builder
	for i := 0; i < digits && !l.atEnd(); i++ {
		sb.WriteRune(l.advance())
	}
	n, err := strconv.ParseInt(sb.String(), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

// scanPunctRun reads a run of operator-punctuation characters, recognizing
// the equality/comparison tokens upfront and un-consuming a trailing '='
// when it should split off as its own EQUAL token (spec.md §4.2).
func (l *Lexer) scanPunctRun(pos token.Position, firstOnLine bool) token.Token {
	switch {
	case l.peekAt(0) == '=' && l.peekAt(1) == '=' && l.peekAt(2) == '=':
		l.advance()
		l.advance()
		l.advance()
		return token.NewToken(token.EQUALEQUALEQUAL, "===", pos, firstOnLine)
	case l.peekAt(0) == '!' && l.peekAt(1) == '=' && l.peekAt(2) == '=':
		l.advance()
		l.advance()
		l.advance()
		return token.NewToken(token.NOTEQUALEQUAL, "!==", pos, firstOnLine)
	case l.peekAt(0) == '=' && l.peekAt(1) == '=':
		l.advance()
		l.advance()
		return token.NewToken(token.EQUALEQUAL, "==", pos, firstOnLine)
	case l.peekAt(0) == '!' && l.peekAt(1) == '=':
		l.advance()
		l.advance()
		return token.NewToken(token.NOTEQUAL, "!=", pos, firstOnLine)
	case l.peekAt(0) == '<' && l.peekAt(1) == '=':
		l.advance()
		l.advance()
		return token.NewToken(token.LESSEQUAL, "<=", pos, firstOnLine)
	case l.peekAt(0) == '>' && l.peekAt(1) == '=':
		l.advance()
		l.advance()
		return token.NewToken(token.GREATEREQUAL, ">=", pos, firstOnLine)
	case l.peekAt(0) == '=' && !isPunctChar(l.peekAt(1)):
		l.advance()
		return token.NewToken(token.EQUAL, "=", pos, firstOnLine)
	}

	var sb strings.Builder
	for !l.atEnd() && isPunctChar(l.peek()) {
		sb.WriteRune(l.advance())
	}
	text := sb.String()
	// A run ending in '=' that isn't one of the upfront-recognized forms
	// is un-consumed so the trailing '=' can be relexed as its own EQUAL
	// (spec.md §4.2: "`^=` stays splittable into `^` and `=`").
	if len(text) > 1 && strings.HasSuffix(text, "=") {
		l.pos--
		text = text[:len(text)-1]
	}

	if sym := l.symbols.TryGet(text); sym != 0 {
		return token.NewNameToken(token.PUNCTNAME, text, sym, pos, firstOnLine)
	}
	return token.NewNameToken(token.UNKNOWNPUNCTNAME, text, 0, pos, firstOnLine)
}

// scanNumber reads decimal, octal (leading 0), hex (leading 0x), real
// (contains '.'), and float (real with an 'f' suffix) literals, with
// base-consistent width suffixes and '_'/'\''/'"'-separated digit groups
// (spec.md §4.2).
func (l *Lexer) scanNumber(pos token.Position, firstOnLine bool) token.Token {
	start := l.pos
	base := 10
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		base = 16
		l.advance()
		l.advance()
	} else if l.peek() == '0' && isDigit(l.peekAt(1)) {
		base = 8
		l.advance()
	}

	isReal := false
	digitsEnd := func(r rune) bool {
		if r == '_' || r == '\'' || r == '"' {
			return false
		}
		if base == 16 {
			return !isHexDigit(r)
		}
		return !isDigit(r)
	}

	for !l.atEnd() && !digitsEnd(l.peek()) {
		l.advance()
	}
	if base != 16 && l.peek() == '.' && isDigit(l.peekAt(1)) {
		isReal = true
		l.advance()
		for !l.atEnd() && isDigit(l.peek()) {
			l.advance()
		}
	}

	raw := string(l.src[start:l.pos])
	digits := strings.NewReplacer("_", "", "'", "", "\"", "").Replace(raw)
	if base == 16 {
		digits = digits[2:] // ParseInt takes no 0x prefix with an explicit base
	}

	suffix := rune(0)
	if !l.atEnd() && (isSuffixLetter(l.peek()) || (isReal && l.peek() == 'f')) {
		suffix = l.advance()
	}
	if !l.atEnd() && (unicode.IsLetter(l.peek()) || isDigit(l.peek())) {
		return token.NewErrorToken(fmt.Sprintf("invalid trailing characters after number %q", raw), pos)
	}

	text := string(l.src[start:l.pos])

	if isReal {
		f, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return token.NewErrorToken(fmt.Sprintf("invalid number %q", text), pos)
		}
		if suffix == 'f' {
			return token.NewDataToken(token.FLOAT64, text, value.Float64(f), pos, firstOnLine)
		}
		return token.NewDataToken(token.REAL64, text, value.Real64(f), pos, firstOnLine)
	}

	n, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		return token.NewErrorToken(fmt.Sprintf("invalid number %q", text), pos)
	}
	switch suffix {
	case 'b':
		return token.NewDataToken(token.BYTE, text, value.Byte(n), pos, firstOnLine)
	case 'h':
		return token.NewDataToken(token.INTEGER16, text, value.Int16(n), pos, firstOnLine)
	case 'L':
		return token.NewDataToken(token.INTEGER64, text, value.Int64(n), pos, firstOnLine)
	case 'x':
		return token.NewDataToken(token.BYTE, text, value.Byte(n), pos, firstOnLine)
	default:
		return token.NewDataToken(token.INTEGER32, text, value.Int32(n), pos, firstOnLine)
	}
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isSuffixLetter(r rune) bool {
	return r == 'b' || r == 'h' || r == 'L' || r == 'x'
}

// scanRawStringOrChar handles '…' raw strings ('' encodes a literal quote)
// and 'c / \u{...} character literals.
func (l *Lexer) scanRawStringOrChar(pos token.Position, firstOnLine bool) token.Token {
	l.advance() // consume opening quote

	if l.peek() == '\\' && l.peekAt(1) == 'u' {
		l.advance()
		r, ok := l.decodeEscape()
		if !ok {
			return token.NewErrorToken("invalid unicode character literal", pos)
		}
		return token.NewDataToken(token.UNI, string(r), value.Uni(r), pos, firstOnLine)
	}
	if !l.atEnd() && l.peekAt(1) != '\'' {
		c := l.advance()
		return token.NewDataToken(token.CHAR, string(c), value.Char(byte(c)), pos, firstOnLine)
	}

	var sb strings.Builder
	for !l.atEnd() {
		r := l.advance()
		if r == '\'' {
			if l.peek() == '\'' {
				l.advance()
				sb.WriteRune('\'')
				continue
			}
			return token.NewDataToken(token.RAWSTRING, sb.String(), value.NewString(sb.String()), pos, firstOnLine)
		}
		sb.WriteRune(r)
	}
	return token.NewErrorToken("unclosed raw string literal", pos)
}

// scanDynamicString handles "…" strings with escapes (interpolation
// segments are left in the raw text for the parser to split, per spec.md
// §4.2 "`{…}` interpolation").
func (l *Lexer) scanDynamicString(pos token.Position, firstOnLine bool) token.Token {
	l.advance() // consume opening quote
	var sb strings.Builder
	for {
		if l.atEnd() {
			return token.NewErrorToken("unclosed string literal", pos)
		}
		r := l.peek()
		if r == '"' {
			l.advance()
			break
		}
		if r == '\\' {
			decoded, ok := l.decodeEscape()
			if !ok {
				return token.NewErrorToken("invalid escape in string literal", pos)
			}
			sb.WriteRune(decoded)
			continue
		}
		sb.WriteRune(l.advance())
	}
	return token.NewDataToken(token.DYNAMICSTRING, sb.String(), value.NewString(sb.String()), pos, firstOnLine)
}

// scanLoanword handles `#name`: the three lexer-recognized built-ins
// (#syntax, #loanword, #/pattern/flags) and the LOANWORD_CUSTOM fallback
// left for the parser to interpret against the current scope's loanword
// table (spec.md §4.2).
func (l *Lexer) scanLoanword(pos token.Position, firstOnLine bool) token.Token {
	l.advance() // consume '#'

	if l.peek() == '/' {
		l.advance()
		var pattern strings.Builder
		for !l.atEnd() && l.peek() != '/' {
			if l.peek() == '\\' {
				pattern.WriteRune(l.advance())
			}
			pattern.WriteRune(l.advance())
		}
		if l.atEnd() {
			return token.NewErrorToken("unclosed loanword regex", pos)
		}
		l.advance() // consume closing '/'
		var flags strings.Builder
		for !l.atEnd() && unicode.IsLetter(l.peek()) {
			flags.WriteRune(l.advance())
		}
		goPattern := translateRegexFlags(pattern.String(), flags.String())
		re, err := regexpCompile(goPattern)
		if err != nil {
			return token.NewErrorToken(fmt.Sprintf("invalid loanword regex: %v", err), pos)
		}
		lw := &value.Loanword{Pattern: re}
		return token.NewDataToken(token.LOANWORD_REGEX, "#/"+pattern.String()+"/"+flags.String(), lw, pos, firstOnLine)
	}

	var sb strings.Builder
	for !l.atEnd() && isIdentContinue(l.peek()) {
		sb.WriteRune(l.advance())
	}
	name := sb.String()
	switch name {
	case "syntax":
		return token.NewToken(token.LOANWORD_SYNTAX, "#syntax", pos, firstOnLine)
	case "loanword":
		return token.NewToken(token.LOANWORD_LOANWORD, "#loanword", pos, firstOnLine)
	default:
		sym := l.symbols.Get(name)
		return token.NewNameToken(token.LOANWORD_CUSTOM, "#"+name, sym, pos, firstOnLine)
	}
}

// runeScriptFilter strips Unicode combining marks (Mn) from a string.
// identifierScript above does the mixed-script check itself with stdlib
// unicode.RangeTable lookups; this filter is the complementary half of the
// same Unicode-tables concern (spec.md §1 names "Unicode tables" as an
// externally-collaborated-with concern rather than something to hand-roll):
// values printed back to a user should look the same regardless of how
// their accents were composed.
var runeScriptFilter = runes.Remove(runes.In(unicode.Mn))

// NormalizeForDisplay strips combining marks (category Mn) from s. It does
// not decompose s first, so a precomposed letter such as "é" keeps its
// accent while a decomposed "é" prints as a bare "e". cmd/smile's
// REPL (repl.go) applies this to every printed result.
func NormalizeForDisplay(s string) string {
	out, _, _ := transformString(runeScriptFilter, s)
	return out
}
