package rdf

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokEOF      tokenType = iota
	tokIRI                // <...>, Value is the unescaped IRI text
	tokPName              // prefix:local, Value is the raw name
	tokBlank              // _:label, Value is the label
	tokString             // Value is the unescaped content
	tokLangTag            // @en, Value is the tag
	tokInteger
	tokDecimal
	tokDouble
	tokKeyword // a, true, false, PREFIX, BASE, @prefix, @base
	tokDot
	tokSemicolon
	tokComma
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokCaretCaret
)

func (t tokenType) String() string {
	switch t {
	case tokEOF:
		return "end of input"
	case tokIRI:
		return "IRI"
	case tokPName:
		return "prefixed name"
	case tokBlank:
		return "blank node"
	case tokString:
		return "string"
	case tokLangTag:
		return "language tag"
	case tokInteger, tokDecimal, tokDouble:
		return "number"
	case tokKeyword:
		return "keyword"
	case tokDot:
		return "'.'"
	case tokSemicolon:
		return "';'"
	case tokComma:
		return "','"
	case tokLBracket:
		return "'['"
	case tokRBracket:
		return "']'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokCaretCaret:
		return "'^^'"
	}
	return "token"
}

type token struct {
	Type  tokenType
	Value string
	Line  int
	Col   int
}

// SyntaxError reports malformed Turtle input.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("turtle: line %d, col %d: %s", e.Line, e.Col, e.Message)
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
			err = l.lexAt()
		case ch == '_' && l.peekAt(1) == ':':
			l.lexBlank()
		case ch == '^' && l.peekAt(1) == '^':
			l.emit(tokCaretCaret, "^^", 2)
		case ch == '.' && !isDigit(l.peekAt(1)):
			l.emit(tokDot, ".", 1)
		case ch == ';':
			l.emit(tokSemicolon, ";", 1)
		case ch == ',':
			l.emit(tokComma, ",", 1)
		case ch == '[':
			l.emit(tokLBracket, "[", 1)
		case ch == ']':
			l.emit(tokRBracket, "]", 1)
		case ch == '(':
			l.emit(tokLParen, "(", 1)
		case ch == ')':
			l.emit(tokRParen, ")", 1)
		case isDigit(ch) || ch == '+' || ch == '-' || ch == '.':
			err = l.lexNumber()
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

// emit appends a token of n bytes that contains no newline.
func (l *lexer) emit(typ tokenType, val string, n int) {
	l.tokens = append(l.tokens, token{Type: typ, Value: val, Line: l.line, Col: l.col})
	l.pos += n
	l.col += n
}

// advance consumes one rune, tracking line and column.
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

// lexUnicodeEscape reads the body of \uXXXX or \UXXXXXXXX after the
// backslash.
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

func (l *lexer) lexString() error {
	line, col := l.line, l.col
	quote := l.input[l.pos]
	long := l.peekAt(1) == quote && l.peekAt(2) == quote
	if long {
		l.advance()
		l.advance()
		l.advance()
	} else {
		l.advance()
	}

	var b strings.Builder
	for {
		if l.pos >= len(l.input) {
			return &SyntaxError{Line: line, Col: col, Message: "unterminated string"}
		}
		ch := l.input[l.pos]
		if ch == quote {
			if !long {
				l.advance()
				break
			}
			if l.peekAt(1) == quote && l.peekAt(2) == quote {
				// Quotes directly before the closing delimiter belong
				// to the content.
				for l.peekAt(3) == quote {
					b.WriteByte(quote)
					l.advance()
				}
				l.advance()
				l.advance()
				l.advance()
				break
			}
			b.WriteByte(quote)
			l.advance()
			continue
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
			case 'b':
				b.WriteByte('\b')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
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
	return nil
}

// lexAt handles @prefix, @base and language tags.
func (l *lexer) lexAt() error {
	line, col := l.line, l.col
	l.advance() // @
	start := l.pos
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if isAlpha(ch) || isDigit(ch) || ch == '-' {
			l.advance()
			continue
		}
		break
	}
	word := l.input[start:l.pos]
	if word == "" {
		return &SyntaxError{Line: line, Col: col, Message: "empty language tag"}
	}
	switch word {
	case "prefix", "base":
		l.tokens = append(l.tokens, token{Type: tokKeyword, Value: "@" + word, Line: line, Col: col})
	default:
		l.tokens = append(l.tokens, token{Type: tokLangTag, Value: word, Line: line, Col: col})
	}
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
	// A label cannot end with '.'.
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

// lexName reads a prefixed name or a bare keyword.
func (l *lexer) lexName() error {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.input) && (isNameByte(l.input, l.pos) || l.input[l.pos] == ':' ||
		l.input[l.pos] == '%' || l.input[l.pos] == '\\') {
		if l.input[l.pos] == '\\' {
			l.advance()
			if l.pos >= len(l.input) {
				break
			}
		}
		l.advance()
	}
	// Trailing dots terminate the statement rather than the name.
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
	switch {
	case word == "a", word == "true", word == "false":
		l.tokens = append(l.tokens, token{Type: tokKeyword, Value: word, Line: line, Col: col})
	case strings.EqualFold(word, "PREFIX"), strings.EqualFold(word, "BASE"):
		l.tokens = append(l.tokens, token{Type: tokKeyword, Value: strings.ToUpper(word), Line: line, Col: col})
	default:
		return &SyntaxError{Line: line, Col: col, Message: fmt.Sprintf("unexpected word %q", word)}
	}
	return nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isAlpha(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

// isNameByte reports whether the rune at s[i] can appear inside a
// prefixed name or blank node label.
func isNameByte(s string, i int) bool {
	ch := s[i]
	if ch < utf8.RuneSelf {
		return isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '.'
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '·'
}
