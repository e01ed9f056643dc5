package shex

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/graphlint/internal/rdf"
)

// ParseSchema parses ShExC text into an AST.
//
// Supported: PREFIX/BASE, start=, shape declarations with AND/OR/NOT,
// shape references, CLOSED and EXTRA, EachOf (';') and OneOf ('|')
// triple expressions with the cardinalities ? * + {m} {m,} {m,n},
// inverse predicates, node kinds, datatypes, value sets and the string
// and numeric facets. Annotations are read and dropped. Semantic
// actions, imports, stems and includes are rejected.
func ParseSchema(input string) (*Schema, error) {
	toks, err := newLexer(input).tokenize()
	if err != nil {
		return nil, err
	}
	p := &parser{
		toks:   toks,
		schema: &Schema{Prefixes: make(map[string]string)},
	}
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return p.schema, nil
}

type parser struct {
	toks   []token
	pos    int
	schema *Schema
	base   *url.URL
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekN(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.Type != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.Line, Col: t.Col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(typ tokenType) (token, error) {
	t := p.next()
	if t.Type != typ {
		return t, p.errorf(t, "expected %s, found %s", typ, describe(t))
	}
	return t, nil
}

func (p *parser) isKeyword(words ...string) bool {
	t := p.peek()
	if t.Type != tokKeyword {
		return false
	}
	for _, w := range words {
		if t.Value == w {
			return true
		}
	}
	return false
}

func describe(t token) string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %q", t.Type, t.Value)
}

func (p *parser) parseDocument() error {
	for p.peek().Type != tokEOF {
		switch {
		case p.isKeyword("PREFIX"):
			if err := p.parsePrefix(); err != nil {
				return err
			}
		case p.isKeyword("BASE"):
			if err := p.parseBase(); err != nil {
				return err
			}
		case p.isKeyword("IMPORT"):
			return p.errorf(p.peek(), "IMPORT is not supported")
		case p.isKeyword("START"):
			p.next()
			if _, err := p.expect(tokEquals); err != nil {
				return err
			}
			e, err := p.parseShapeExpr()
			if err != nil {
				return err
			}
			p.schema.Start = e
		default:
			if err := p.parseShapeDecl(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *parser) parsePrefix() error {
	p.next()
	name, err := p.expect(tokPName)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(name.Value, ":") {
		return p.errorf(name, "expected prefix name ending in ':', found %q", name.Value)
	}
	iri, err := p.expect(tokIRI)
	if err != nil {
		return err
	}
	resolved, err := p.resolve(iri)
	if err != nil {
		return err
	}
	p.schema.Prefixes[strings.TrimSuffix(name.Value, ":")] = resolved
	return nil
}

func (p *parser) parseBase() error {
	p.next()
	iri, err := p.expect(tokIRI)
	if err != nil {
		return err
	}
	resolved, err := p.resolve(iri)
	if err != nil {
		return err
	}
	u, err := url.Parse(resolved)
	if err != nil {
		return p.errorf(iri, "invalid base IRI %q", resolved)
	}
	p.base = u
	p.schema.Base = resolved
	return nil
}

func (p *parser) parseShapeDecl() error {
	t := p.peek()
	label, err := p.parseLabel()
	if err != nil {
		return err
	}
	if _, dup := p.schema.Lookup(label); dup {
		return p.errorf(t, "duplicate shape %s", label)
	}
	var expr ShapeExpr
	if p.isKeyword("EXTERNAL") {
		p.next()
	} else {
		expr, err = p.parseShapeExpr()
		if err != nil {
			return err
		}
	}
	p.schema.Shapes = append(p.schema.Shapes, &ShapeDecl{Label: label, Expr: expr, Line: t.Line})
	return nil
}

func (p *parser) parseLabel() (string, error) {
	t := p.peek()
	if t.Type == tokBlank {
		p.next()
		return "_:" + t.Value, nil
	}
	return p.parseIRI()
}

// parseShapeExpr parses OR over AND over NOT, the ShExC precedence.
func (p *parser) parseShapeExpr() (ShapeExpr, error) {
	first, err := p.parseShapeAnd()
	if err != nil {
		return nil, err
	}
	ops := []ShapeExpr{first}
	for p.isKeyword("OR") {
		p.next()
		e, err := p.parseShapeAnd()
		if err != nil {
			return nil, err
		}
		ops = append(ops, e)
	}
	if len(ops) == 1 {
		return first, nil
	}
	return &ShapeOr{Operands: ops}, nil
}

func (p *parser) parseShapeAnd() (ShapeExpr, error) {
	first, err := p.parseShapeNot()
	if err != nil {
		return nil, err
	}
	ops := []ShapeExpr{first}
	for p.isKeyword("AND") {
		p.next()
		e, err := p.parseShapeNot()
		if err != nil {
			return nil, err
		}
		ops = append(ops, e)
	}
	if len(ops) == 1 {
		return first, nil
	}
	return &ShapeAnd{Operands: ops}, nil
}

func (p *parser) parseShapeNot() (ShapeExpr, error) {
	if p.isKeyword("NOT") {
		p.next()
		e, err := p.parseShapeAtom()
		if err != nil {
			return nil, err
		}
		return &ShapeNot{Operand: e}, nil
	}
	return p.parseShapeAtom()
}

func (p *parser) parseShapeAtom() (ShapeExpr, error) {
	t := p.peek()
	switch {
	case t.Type == tokLParen:
		p.next()
		e, err := p.parseShapeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case t.Type == tokAt:
		return p.parseShapeRef()
	case t.Type == tokDot:
		p.next()
		return &AnyShape{}, nil
	case p.startsShape():
		return p.parseShape()
	case p.startsNodeConstraint():
		nc, err := p.parseNodeConstraint()
		if err != nil {
			return nil, err
		}
		// A node constraint may be followed by a shape or a reference,
		// which must both hold.
		switch {
		case p.startsShape():
			s, err := p.parseShape()
			if err != nil {
				return nil, err
			}
			return &ShapeAnd{Operands: []ShapeExpr{nc, s}}, nil
		case p.peek().Type == tokAt:
			r, err := p.parseShapeRef()
			if err != nil {
				return nil, err
			}
			return &ShapeAnd{Operands: []ShapeExpr{nc, r}}, nil
		}
		return nc, nil
	}
	return nil, p.errorf(t, "expected shape expression, found %s", describe(t))
}

func (p *parser) parseShapeRef() (ShapeExpr, error) {
	p.next() // @
	label, err := p.parseLabel()
	if err != nil {
		return nil, err
	}
	return &ShapeRef{Label: label}, nil
}

// startsShape reports whether the next tokens open a shape rather than a
// repetition like {2,3}.
func (p *parser) startsShape() bool {
	if p.isKeyword("CLOSED", "EXTRA") {
		return true
	}
	return p.peek().Type == tokLBrace && p.peekN(1).Type != tokInteger
}

func (p *parser) startsNodeConstraint() bool {
	t := p.peek()
	switch t.Type {
	case tokIRI, tokPName, tokLBracket:
		return true
	case tokKeyword:
		switch t.Value {
		case "LITERAL", "IRI", "BNODE", "NONLITERAL":
			return true
		}
		return isFacet(t.Value)
	}
	return false
}

func isFacet(kw string) bool {
	switch kw {
	case "LENGTH", "MINLENGTH", "MAXLENGTH", "PATTERN",
		"MININCLUSIVE", "MAXINCLUSIVE", "MINEXCLUSIVE", "MAXEXCLUSIVE",
		"TOTALDIGITS", "FRACTIONDIGITS":
		return true
	}
	return false
}

func (p *parser) parseShape() (ShapeExpr, error) {
	s := &Shape{}
	for {
		switch {
		case p.isKeyword("CLOSED"):
			p.next()
			s.Closed = true
			continue
		case p.isKeyword("EXTRA"):
			p.next()
			for p.peek().Type == tokIRI || p.peek().Type == tokPName || p.isKeyword("a") {
				pred, err := p.parsePredicate()
				if err != nil {
					return nil, err
				}
				s.Extra = append(s.Extra, pred)
			}
			continue
		}
		break
	}
	if _, err := p.expect(tokLBrace); err != nil {
		return nil, err
	}
	if p.peek().Type != tokRBrace {
		e, err := p.parseTripleExpr()
		if err != nil {
			return nil, err
		}
		s.Expr = e
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return nil, err
	}
	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseTripleExpr() (TripleExpr, error) {
	first, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	exprs := []TripleExpr{first}
	for p.peek().Type == tokPipe {
		p.next()
		e, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if len(exprs) == 1 {
		return first, nil
	}
	return &OneOf{Exprs: exprs, Card: One}, nil
}

func (p *parser) parseGroup() (TripleExpr, error) {
	first, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	exprs := []TripleExpr{first}
	for p.peek().Type == tokSemicolon {
		p.next()
		switch p.peek().Type {
		case tokRBrace, tokRParen, tokPipe:
			// trailing ';'
		default:
			e, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
			continue
		}
		break
	}
	if len(exprs) == 1 {
		return first, nil
	}
	return &EachOf{Exprs: exprs, Card: One}, nil
}

func (p *parser) parseUnary() (TripleExpr, error) {
	if p.peek().Type != tokLParen {
		return p.parseTripleConstraint()
	}
	p.next()
	inner, err := p.parseTripleExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}
	card, err := p.parseCardinality()
	if err != nil {
		return nil, err
	}
	switch e := inner.(type) {
	case *EachOf:
		e.Card = card
	case *OneOf:
		e.Card = card
	case *TripleConstraint:
		if card != One {
			return &EachOf{Exprs: []TripleExpr{e}, Card: card}, nil
		}
	}
	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *parser) parseTripleConstraint() (TripleExpr, error) {
	start := p.peek()
	tc := &TripleConstraint{Line: start.Line}
	if start.Type == tokCaret {
		p.next()
		tc.Inverse = true
	}
	pred, err := p.parsePredicate()
	if err != nil {
		return nil, err
	}
	tc.Predicate = pred

	switch t := p.peek(); {
	case t.Type == tokDot:
		p.next()
	case t.Type == tokSemicolon, t.Type == tokRBrace, t.Type == tokRParen, t.Type == tokPipe:
		return nil, p.errorf(t, "missing value expression for %s", pred)
	default:
		ve, err := p.parseShapeExpr()
		if err != nil {
			return nil, err
		}
		tc.ValueExpr = ve
	}

	card, err := p.parseCardinality()
	if err != nil {
		return nil, err
	}
	tc.Card = card
	if err := p.skipAnnotations(); err != nil {
		return nil, err
	}
	return tc, nil
}

func (p *parser) parsePredicate() (string, error) {
	if p.isKeyword("a") {
		p.next()
		return string(rdf.RDFType), nil
	}
	return p.parseIRI()
}

func (p *parser) parseCardinality() (Cardinality, error) {
	t := p.peek()
	switch t.Type {
	case tokStar:
		p.next()
		return Cardinality{Min: 0, Max: Unbounded}, nil
	case tokPlus:
		p.next()
		return Cardinality{Min: 1, Max: Unbounded}, nil
	case tokQuestion:
		p.next()
		return Cardinality{Min: 0, Max: 1}, nil
	case tokLBrace:
		if p.peekN(1).Type != tokInteger {
			return One, nil
		}
	default:
		return One, nil
	}

	p.next() // {
	minTok := p.next()
	lo, err := strconv.Atoi(minTok.Value)
	if err != nil || lo < 0 {
		return One, p.errorf(minTok, "invalid repetition %q", minTok.Value)
	}
	card := Cardinality{Min: lo, Max: lo}
	if p.peek().Type == tokComma {
		p.next()
		switch t := p.peek(); t.Type {
		case tokStar:
			p.next()
			card.Max = Unbounded
		case tokInteger:
			p.next()
			hi, err := strconv.Atoi(t.Value)
			if err != nil || hi < lo {
				return One, p.errorf(t, "invalid repetition {%d,%s}", lo, t.Value)
			}
			card.Max = hi
		default:
			card.Max = Unbounded
		}
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return One, err
	}
	return card, nil
}

// skipAnnotations consumes "// predicate object" annotations.
func (p *parser) skipAnnotations() error {
	for p.peek().Type == tokAnnot {
		p.next()
		if _, err := p.parsePredicate(); err != nil {
			return err
		}
		if p.peek().Type == tokIRI || p.peek().Type == tokPName {
			if _, err := p.parseIRI(); err != nil {
				return err
			}
			continue
		}
		if _, err := p.parseLiteral(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseNodeConstraint() (*NodeConstraint, error) {
	nc := &NodeConstraint{}
	t := p.peek()
	switch {
	case t.Type == tokKeyword && (t.Value == "LITERAL" || t.Value == "IRI" || t.Value == "BNODE" || t.Value == "NONLITERAL"):
		p.next()
		nc.Kind = NodeKind(t.Value)
	case t.Type == tokIRI || t.Type == tokPName:
		dt, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		nc.Datatype = dt
	case t.Type == tokLBracket:
		values, err := p.parseValueSet()
		if err != nil {
			return nil, err
		}
		nc.Values = values
	}
	if err := p.parseFacets(&nc.Facets); err != nil {
		return nil, err
	}
	return nc, nil
}

func (p *parser) parseValueSet() ([]rdf.Term, error) {
	p.next() // [
	var values []rdf.Term
	for {
		t := p.peek()
		switch t.Type {
		case tokRBracket:
			p.next()
			return values, nil
		case tokIRI, tokPName:
			iri, err := p.parseIRI()
			if err != nil {
				return nil, err
			}
			values = append(values, rdf.IRI(iri))
		case tokEOF:
			return nil, p.errorf(t, "unterminated value set")
		default:
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			values = append(values, lit)
		}
	}
}

func (p *parser) parseLiteral() (rdf.Literal, error) {
	t := p.next()
	switch t.Type {
	case tokString:
		switch p.peek().Type {
		case tokLangTag:
			return rdf.NewLang(t.Value, p.next().Value), nil
		case tokCaretCaret:
			p.next()
			dt, err := p.parseIRI()
			if err != nil {
				return rdf.Literal{}, err
			}
			return rdf.NewTyped(t.Value, rdf.IRI(dt)), nil
		}
		return rdf.NewString(t.Value), nil
	case tokInteger:
		return rdf.NewTyped(t.Value, rdf.XSDInteger), nil
	case tokDecimal:
		return rdf.NewTyped(t.Value, rdf.XSDDecimal), nil
	case tokDouble:
		return rdf.NewTyped(t.Value, rdf.XSDDouble), nil
	case tokKeyword:
		if t.Value == "true" || t.Value == "false" {
			return rdf.NewTyped(t.Value, rdf.XSDBoolean), nil
		}
	}
	return rdf.Literal{}, p.errorf(t, "expected literal, found %s", describe(t))
}

func (p *parser) parseFacets(f *Facets) error {
	for p.peek().Type == tokKeyword && isFacet(p.peek().Value) {
		kw := p.next()
		switch kw.Value {
		case "LENGTH", "MINLENGTH", "MAXLENGTH", "TOTALDIGITS", "FRACTIONDIGITS":
			t, err := p.expect(tokInteger)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(t.Value)
			if err != nil {
				return p.errorf(t, "invalid %s %q", kw.Value, t.Value)
			}
			switch kw.Value {
			case "LENGTH":
				f.Length = &n
			case "MINLENGTH":
				f.MinLength = &n
			case "MAXLENGTH":
				f.MaxLength = &n
			}
		case "PATTERN":
			t := p.next()
			switch t.Type {
			case tokRegex:
				f.Pattern, f.Flags = t.Value, t.Flags
			case tokString:
				f.Pattern = t.Value
			default:
				return p.errorf(t, "expected pattern, found %s", describe(t))
			}
			f.HasPattern = true
		default:
			t := p.next()
			if t.Type != tokInteger && t.Type != tokDecimal && t.Type != tokDouble {
				return p.errorf(t, "expected number after %s, found %s", kw.Value, describe(t))
			}
			v, err := strconv.ParseFloat(t.Value, 64)
			if err != nil {
				return p.errorf(t, "invalid number %q", t.Value)
			}
			switch kw.Value {
			case "MININCLUSIVE":
				f.MinInclusive = &v
			case "MAXINCLUSIVE":
				f.MaxInclusive = &v
			case "MINEXCLUSIVE":
				f.MinExclusive = &v
			case "MAXEXCLUSIVE":
				f.MaxExclusive = &v
			}
		}
	}
	return nil
}

func (p *parser) parseIRI() (string, error) {
	t := p.next()
	switch t.Type {
	case tokIRI:
		return p.resolve(t)
	case tokPName:
		i := strings.IndexByte(t.Value, ':')
		prefix, local := t.Value[:i], t.Value[i+1:]
		ns, ok := p.schema.Prefixes[prefix]
		if !ok {
			return "", p.errorf(t, "undefined prefix %q", prefix)
		}
		return ns + rdf.UnescapeLocal(local), nil
	}
	return "", p.errorf(t, "expected IRI, found %s", describe(t))
}

func (p *parser) resolve(t token) (string, error) {
	s, err := rdf.ResolveIRI(p.base, t.Value)
	if err != nil {
		return "", p.errorf(t, "%v", err)
	}
	return s, nil
}
