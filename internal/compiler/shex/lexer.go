package shex

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokEOF     tokenType = iota
	tokIRI               // <...>
	tokPName             // prefix:local
	tokBlank             // _:label
	tokString            // unescaped content
	tokLangTag           // @en directly after a string
	tokInteger
	tokDecimal
	tokDouble
	tokRegex   // /pattern/flags, Value is the pattern, Flags the flags
	tokKeyword // upper-cased ShExC keyword, or a / true / false
	tokAt      // @ before a shape reference
	tokCaret   // ^ inverse
	tokCaretCaret
	tokAnnot // //
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokSemicolon
	tokComma
	tokPipe
	tokDot
	tokStar
	tokPlus
	tokQuestion
	tokEquals
)

var tokenNames = map[tokenType]string{
	tokEOF:        "end of input",
	tokIRI:        "IRI",
	tokPName:      "prefixed name",
	tokBlank:      "blank node label",
	tokString:     "string",
	tokLangTag:    "language tag",
	tokInteger:    "integer",
	tokDecimal:    "decimal",
	tokDouble:     "double",
	tokRegex:      "regular expression",
	tokKeyword:    "keyword",
	tokAt:         "'@'",
	tokCaret:      "'^'",
	tokCaretCaret: "'^^'",
	tokAnnot:      "'//'",
	tokLBrace:     "'{'",
	tokRBrace:     "'}'",
	tokLParen:     "'('",
	tokRParen:     "')'",
	tokLBracket:   "'['",
	tokRBracket:   "']'",
	tokSemicolon:  "';'",
	tokComma:      "','",
	tokPipe:       "'|'",
	tokDot:        "'.'",
	tokStar:       "'*'",
	tokPlus:       "'+'",
	tokQuestion:   "'?'",
	tokEquals:     "'='",
}

func (t tokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "token"
}

// keywords are matched case-insensitively and stored upper-cased.
var keywords = map[string]bool{
	"PREFIX": true, "BASE": true, "START": true, "IMPORT": true, "EXTERNAL": true,
	"CLOSED": true, "EXTRA": true,
	"AND": true, "OR": true, "NOT": true,
	"LITERAL": true, "IRI": true, "BNODE": true, "NONLITERAL": true,
	"LENGTH": true, "MINLENGTH": true, "MAXLENGTH": true, "PATTERN": true,
	"MININCLUSIVE": true, "MAXINCLUSIVE": true, "MINEXCLUSIVE": true, "MAXEXCLUSIVE": true,
	"TOTALDIGITS": true, "FRACTIONDIGITS": true,
}

type token struct {
	Type  tokenType
	Value string
	Flags string
	Line  int
	Col   int
}

// SyntaxError reports malformed ShExC input.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("shexc: line %d, col %d: %s", e.Line, e.Col, e.Message)
}

type lexer struct {
	input  string
	pos    int
	line   int
	col    int
	tokens []token
}

func newLexer(input string) *lexer {
	return &lexer{input: input, line: 1, col: 1}
}

func (l *lexer) tokenize() ([]token, error) {
	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		ch := l.input[l.pos]
		var err error

		switch {
		case ch == '<':
			err = l.lexIRI()
		case ch == '"' || ch == '\'':
			err = l.lexString()
		case ch == '@':
			l.emit(tokAt, "@", 1)
		case ch == '_' && l.peekAt(1) == ':':
			l.lexBlank()
		case ch == '^' && l.peekAt(1) == '^':
			l.emit(tokCaretCaret, "^^", 2)
		case ch == '^':
			l.emit(tokCaret, "^", 1)
		case ch == '/' && l.peekAt(1) == '/':
			l.emit(tokAnnot, "//", 2)
		case ch == '/':
			err = l.lexRegex()
		case ch == '{':
			l.emit(tokLBrace, "{", 1)
		case ch == '}':
			l.emit(tokRBrace, "}", 1)
		case ch == '(':
			l.emit(tokLParen, "(", 1)
		case ch == ')':
			l.emit(tokRParen, ")", 1)
		case ch == '[':
			l.emit(tokLBracket, "[", 1)
		case ch == ']':
			l.emit(tokRBracket, "]", 1)
		case ch == ';':
			l.emit(tokSemicolon, ";", 1)
		case ch == ',':
			l.emit(tokComma, ",", 1)
		case ch == '|':
			l.emit(tokPipe, "|", 1)
		case ch == '*':
			l.emit(tokStar, "*", 1)
		case ch == '?':
			l.emit(tokQuestion, "?", 1)
		case ch == '=':
			l.emit(tokEquals, "=", 1)
		case ch == '.' && !isDigit(l.peekAt(1)):
			l.emit(tokDot, ".", 1)
		case ch == '+' && !isDigit(l.peekAt(1)) && l.peekAt(1) != '.':
			l.emit(tokPlus, "+", 1)
		case isDigit(ch) || ch == '+' || ch == '-' || ch == '.':
			err = l.lexNumber()
		case ch == '$' || ch == '&' || ch == '%' || ch == '~':
			err = l.errorf("%q is not supported", ch)
		default:
			err = l.lexName()
		}
		if err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, token{Type: tokEOF, Line: l.line, Col: l.col})
	return l.tokens, nil
}

func (l *lexer) peekAt(off int) byte {
	if l.pos+off < len(l.input) {
		return l.input[l.pos+off]
	}
	return 0
}

func (l *lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.line, Col: l.col, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) emit(typ tokenType, val string, n int) {
	l.tokens = append(l.tokens, token{Type: typ, Value: val, Line: l.line, Col: l.col})
	l.pos += n
	l.col += n
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *lexer) lexIRI() error {
	line, col := l.line, l.col
	l.advance() // <
	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			return &SyntaxError{Line: line, Col: col, Message: "unterminated IRI"}
		}
		r := l.advance()
		switch r {
		case '>':
			l.tokens = append(l.tokens, token{Type: tokIRI, Value: b.String(), Line: line, Col: col})
			return nil
		case '\\':
			u, err := l.lexUnicodeEscape()
			if err != nil {
				return err
			}
			b.WriteRune(u)
		case ' ', '\n', '\t', '<', '"', '{', '}', '|', '^', '`':
			return &SyntaxError{Line: line, Col: col, Message: fmt.Sprintf("invalid character %q in IRI", r)}
		default:
			b.WriteRune(r)
		}
	}
}

func (l *lexer) lexUnicodeEscape() (rune, error) {
	if l.pos >= len(l.input) {
		return 0, l.errorf("unterminated escape")
	}
	var n int
	switch l.input[l.pos] {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, l.errorf("invalid escape \\%c", l.input[l.pos])
	}
	l.advance()
	if l.pos+n > len(l.input) {
		return 0, l.errorf("truncated unicode escape")
	}
	hex := l.input[l.pos : l.pos+n]
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, l.errorf("invalid unicode escape %q", hex)
	}
	for i := 0; i < n; i++ {
		l.advance()
	}
	return rune(v), nil
}

// lexString reads a short or long string and, when an '@' follows
// without whitespace, its language tag.
func (l *lexer) lexString() error {
	line, col := l.line, l.col
	quote := l.input[l.pos]
	long := l.peekAt(1) == quote && l.peekAt(2) == quote
	n := 1
	if long {
		n = 3
	}
	for i := 0; i < n; i++ {
		l.advance()
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			return &SyntaxError{Line: line, Col: col, Message: "unterminated string"}
		}
		ch := l.input[l.pos]
		if ch == quote && (!long || (l.peekAt(1) == quote && l.peekAt(2) == quote)) {
			for i := 0; i < n; i++ {
				l.advance()
			}
			break
		}
		if !long && (ch == '\n' || ch == '\r') {
			return &SyntaxError{Line: line, Col: col, Message: "newline in short string"}
		}
		if ch == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				return l.errorf("unterminated escape")
			}
			esc := l.input[l.pos]
			switch esc {
			case 't':
				b.WriteByte('\t')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '"', '\'', '\\':
				b.WriteByte(esc)
			case 'u', 'U':
				r, err := l.lexUnicodeEscape()
				if err != nil {
					return err
				}
				b.WriteRune(r)
				continue
			default:
				return l.errorf("invalid escape \\%c", esc)
			}
			l.advance()
			continue
		}
		b.WriteRune(l.advance())
	}
	l.tokens = append(l.tokens, token{Type: tokString, Value: b.String(), Line: line, Col: col})

	if l.peekAt(0) == '@' && isAlpha(l.peekAt(1)) {
		tagLine, tagCol := l.line, l.col
		l.advance()
		start := l.pos
		for l.pos < len(l.input) && (isAlpha(l.input[l.pos]) || isDigit(l.input[l.pos]) || l.input[l.pos] == '-') {
			l.advance()
		}
		l.tokens = append(l.tokens, token{Type: tokLangTag, Value: l.input[start:l.pos], Line: tagLine, Col: tagCol})
	}
	return nil
}

// lexRegex reads /pattern/flags. Escaped slashes are unescaped; every
// other escape is kept for the regex engine.
func (l *lexer) lexRegex() error {
	line, col := l.line, l.col
	l.advance() // /
	var b strings.Builder
	for {
		if l.pos >= len(l.input) || l.input[l.pos] == '\n' {
			return &SyntaxError{Line: line, Col: col, Message: "unterminated regular expression"}
		}
		ch := l.input[l.pos]
		if ch == '/' {
			l.advance()
			break
		}
		if ch == '\\' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			b.WriteByte('/')
			continue
		}
		if ch == '\\' && l.peekAt(1) != 0 {
			b.WriteRune(l.advance())
		}
		b.WriteRune(l.advance())
	}
	start := l.pos
	for l.pos < len(l.input) && strings.IndexByte("smix", l.input[l.pos]) >= 0 {
		l.advance()
	}
	l.tokens = append(l.tokens, token{Type: tokRegex, Value: b.String(), Flags: l.input[start:l.pos], Line: line, Col: col})
	return nil
}

func (l *lexer) lexBlank() {
	line, col := l.line, l.col
	l.advance() // _
	l.advance() // :
	start := l.pos
	for l.pos < len(l.input) && isNameByte(l.input, l.pos) {
		l.advance()
	}
	for l.pos > start && l.input[l.pos-1] == '.' {
		l.pos--
		l.col--
	}
	l.tokens = append(l.tokens, token{Type: tokBlank, Value: l.input[start:l.pos], Line: line, Col: col})
}

func (l *lexer) lexNumber() error {
	line, col := l.line, l.col
	start := l.pos
	if ch := l.input[l.pos]; ch == '+' || ch == '-' {
		l.advance()
	}
	typ := tokInteger
	digits := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
		digits++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' && isDigit(l.peekAt(1)) {
		typ = tokDecimal
		l.advance()
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
			digits++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		typ = tokDouble
		l.advance()
		if ch := l.peekAt(0); ch == '+' || ch == '-' {
			l.advance()
		}
		exp := 0
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
			exp++
		}
		if exp == 0 {
			return &SyntaxError{Line: line, Col: col, Message: "malformed exponent"}
		}
	}
	if digits == 0 {
		return &SyntaxError{Line: line, Col: col, Message: fmt.Sprintf("unexpected character %q", l.input[start])}
	}
	l.tokens = append(l.tokens, token{Type: typ, Value: l.input[start:l.pos], Line: line, Col: col})
	return nil
}

// lexName reads a prefixed name or a keyword.
func (l *lexer) lexName() error {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.input) && (isNameByte(l.input, l.pos) || l.input[l.pos] == ':' || l.input[l.pos] == '\\') {
		if l.input[l.pos] == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				break
			}
		}
		l.advance()
	}
	for l.pos > start && l.input[l.pos-1] == '.' && (l.pos-2 < start || l.input[l.pos-2] != '\\') {
		l.pos--
		l.col--
	}
	word := l.input[start:l.pos]
	if word == "" {
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		return &SyntaxError{Line: line, Col: col, Message: fmt.Sprintf("unexpected character %q", r)}
	}
	if strings.Contains(word, ":") {
		l.tokens = append(l.tokens, token{Type: tokPName, Value: word, Line: line, Col: col})
		return nil
	}
	switch upper := strings.ToUpper(word); {
	case word == "a", word == "true", word == "false":
		l.tokens = append(l.tokens, token{Type: tokKeyword, Value: word, Line: line, Col: col})
	case keywords[upper]:
		l.tokens = append(l.tokens, token{Type: tokKeyword, Value: upper, Line: line, Col: col})
	default:
		return &SyntaxError{Line: line, Col: col, Message: fmt.Sprintf("unexpected word %q", word)}
	}
	return nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

func isNameByte(s string, i int) bool {
	ch := s[i]
	if ch < utf8.RuneSelf {
		return isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '.'
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '·'
}
