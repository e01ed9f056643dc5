package rdf

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseTurtle parses a Turtle document into a new Graph.
//
// Supported: @prefix/@base and SPARQL-style PREFIX/BASE directives, the
// 'a' keyword, predicate lists (';'), object lists (','), blank node
// property lists ('[ ... ]'), collections ('( ... )'), typed and
// language-tagged literals, long strings, numbers and booleans.
// Relative IRIs resolve against the current base.
func ParseTurtle(input string) (*Graph, error) {
	return ParseTurtleWithBase(input, "")
}

// ParseTurtleWithBase parses input with an initial base IRI.
func ParseTurtleWithBase(input, base string) (*Graph, error) {
	toks, err := newLexer(input).tokenize()
	if err != nil {
		return nil, err
	}
	p := &turtleParser{
		toks:     toks,
		graph:    NewGraph(),
		prefixes: make(map[string]string),
		labels:   make(map[string]BlankNode),
	}
	if base != "" {
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base IRI %q: %w", base, err)
		}
		p.base = u
	}
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

// Prefixes returns the prefix map declared by a Turtle document, without
// building the graph. Used by format detection and diagnostics.
func Prefixes(input string) (map[string]string, error) {
	toks, err := newLexer(input).tokenize()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for i := 0; i+2 < len(toks); i++ {
		t := toks[i]
		if t.Type == tokKeyword && (t.Value == "@prefix" || t.Value == "PREFIX") &&
			toks[i+1].Type == tokPName && toks[i+2].Type == tokIRI {
			out[strings.TrimSuffix(toks[i+1].Value, ":")] = toks[i+2].Value
		}
	}
	return out, nil
}

type turtleParser struct {
	toks     []token
	pos      int
	graph    *Graph
	prefixes map[string]string
	base     *url.URL
	labels   map[string]BlankNode
	nextBN   int
}

func (p *turtleParser) peek() token { return p.toks[p.pos] }

func (p *turtleParser) next() token {
	t := p.toks[p.pos]
	if t.Type != tokEOF {
		p.pos++
	}
	return t
}

func (p *turtleParser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Line: t.Line, Col: t.Col, Message: fmt.Sprintf(format, args...)}
}

func (p *turtleParser) expect(typ tokenType) (token, error) {
	t := p.next()
	if t.Type != typ {
		return t, p.errorf(t, "expected %s, found %s", typ, describe(t))
	}
	return t, nil
}

func describe(t token) string {
	if t.Value == "" {
		return t.Type.String()
	}
	return fmt.Sprintf("%s %q", t.Type, t.Value)
}

func (p *turtleParser) freshBlank() BlankNode {
	p.nextBN++
	// ":" cannot occur in document labels, so generated ids never clash.
	return BlankNode(fmt.Sprintf("genid:%d", p.nextBN))
}

func (p *turtleParser) parseDocument() error {
	for p.peek().Type != tokEOF {
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	return nil
}

func (p *turtleParser) parseStatement() error {
	t := p.peek()
	if t.Type == tokKeyword {
		switch t.Value {
		case "@prefix", "PREFIX":
			return p.parsePrefix(t.Value == "@prefix")
		case "@base", "BASE":
			return p.parseBase(t.Value == "@base")
		}
	}
	if err := p.parseTriples(); err != nil {
		return err
	}
	_, err := p.expect(tokDot)
	return err
}

func (p *turtleParser) parsePrefix(needsDot bool) error {
	p.next()
	name, err := p.expect(tokPName)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(name.Value, ":") || strings.Count(name.Value, ":") != 1 {
		return p.errorf(name, "invalid prefix declaration %q", name.Value)
	}
	iri, err := p.expect(tokIRI)
	if err != nil {
		return err
	}
	resolved, err := p.resolve(iri)
	if err != nil {
		return err
	}
	p.prefixes[strings.TrimSuffix(name.Value, ":")] = resolved
	if needsDot {
		_, err = p.expect(tokDot)
	}
	return err
}

func (p *turtleParser) parseBase(needsDot bool) error {
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
		return p.errorf(iri, "invalid base IRI: %v", err)
	}
	p.base = u
	if needsDot {
		_, err = p.expect(tokDot)
	}
	return err
}

func (p *turtleParser) parseTriples() error {
	if p.peek().Type == tokLBracket {
		subj, err := p.parseBlankNodePropertyList()
		if err != nil {
			return err
		}
		// "[ ... ] ." is a complete statement on its own.
		if p.peek().Type == tokDot {
			return nil
		}
		return p.parsePredicateObjectList(subj)
	}
	subj, err := p.parseSubject()
	if err != nil {
		return err
	}
	return p.parsePredicateObjectList(subj)
}

func (p *turtleParser) parseSubject() (Term, error) {
	t := p.peek()
	switch t.Type {
	case tokIRI, tokPName:
		return p.parseIRI()
	case tokBlank:
		p.next()
		return p.blankFor(t.Value), nil
	case tokLParen:
		return p.parseCollection()
	}
	return nil, p.errorf(t, "expected subject, found %s", describe(t))
}

func (p *turtleParser) parsePredicateObjectList(subj Term) error {
	for {
		pred, err := p.parseVerb()
		if err != nil {
			return err
		}
		if err := p.parseObjectList(subj, pred); err != nil {
			return err
		}
		if p.peek().Type != tokSemicolon {
			return nil
		}
		for p.peek().Type == tokSemicolon {
			p.next()
		}
		// A trailing ';' may end the list.
		switch p.peek().Type {
		case tokDot, tokRBracket, tokEOF:
			return nil
		}
	}
}

func (p *turtleParser) parseVerb() (IRI, error) {
	t := p.peek()
	if t.Type == tokKeyword && t.Value == "a" {
		p.next()
		return RDFType, nil
	}
	if t.Type != tokIRI && t.Type != tokPName {
		return "", p.errorf(t, "expected predicate, found %s", describe(t))
	}
	term, err := p.parseIRI()
	if err != nil {
		return "", err
	}
	return term.(IRI), nil
}

func (p *turtleParser) parseObjectList(subj Term, pred IRI) error {
	for {
		obj, err := p.parseObject()
		if err != nil {
			return err
		}
		p.graph.Add(subj, pred, obj)
		if p.peek().Type != tokComma {
			return nil
		}
		p.next()
	}
}

func (p *turtleParser) parseObject() (Term, error) {
	t := p.peek()
	switch t.Type {
	case tokIRI, tokPName:
		return p.parseIRI()
	case tokBlank:
		p.next()
		return p.blankFor(t.Value), nil
	case tokLBracket:
		return p.parseBlankNodePropertyList()
	case tokLParen:
		return p.parseCollection()
	case tokString:
		return p.parseRDFLiteral()
	case tokInteger:
		p.next()
		return NewTyped(t.Value, XSDInteger), nil
	case tokDecimal:
		p.next()
		return NewTyped(t.Value, XSDDecimal), nil
	case tokDouble:
		p.next()
		return NewTyped(t.Value, XSDDouble), nil
	case tokKeyword:
		if t.Value == "true" || t.Value == "false" {
			p.next()
			return NewTyped(t.Value, XSDBoolean), nil
		}
	}
	return nil, p.errorf(t, "expected object, found %s", describe(t))
}

func (p *turtleParser) parseRDFLiteral() (Term, error) {
	s := p.next()
	switch p.peek().Type {
	case tokLangTag:
		lang := p.next()
		return NewLang(s.Value, lang.Value), nil
	case tokCaretCaret:
		p.next()
		dt, err := p.parseIRI()
		if err != nil {
			return nil, err
		}
		return NewTyped(s.Value, dt.(IRI)), nil
	}
	return NewString(s.Value), nil
}

func (p *turtleParser) parseBlankNodePropertyList() (Term, error) {
	p.next() // [
	node := p.freshBlank()
	if p.peek().Type == tokRBracket {
		p.next()
		return node, nil
	}
	if err := p.parsePredicateObjectList(node); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *turtleParser) parseCollection() (Term, error) {
	p.next() // (
	var items []Term
	for p.peek().Type != tokRParen {
		if p.peek().Type == tokEOF {
			return nil, p.errorf(p.peek(), "unterminated collection")
		}
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		items = append(items, obj)
	}
	p.next() // )

	if len(items) == 0 {
		return RDFNil, nil
	}
	head := p.freshBlank()
	node := head
	for i, item := range items {
		p.graph.Add(node, RDFFirst, item)
		if i == len(items)-1 {
			p.graph.Add(node, RDFRest, RDFNil)
			break
		}
		rest := p.freshBlank()
		p.graph.Add(node, RDFRest, rest)
		node = rest
	}
	return head, nil
}

func (p *turtleParser) parseIRI() (Term, error) {
	t := p.next()
	switch t.Type {
	case tokIRI:
		s, err := p.resolve(t)
		if err != nil {
			return nil, err
		}
		return IRI(s), nil
	case tokPName:
		i := strings.IndexByte(t.Value, ':')
		prefix, local := t.Value[:i], t.Value[i+1:]
		ns, ok := p.prefixes[prefix]
		if !ok {
			return nil, p.errorf(t, "undefined prefix %q", prefix)
		}
		return IRI(ns + UnescapeLocal(local)), nil
	}
	return nil, p.errorf(t, "expected IRI, found %s", describe(t))
}

func (p *turtleParser) resolve(t token) (string, error) {
	if p.base == nil {
		return t.Value, nil
	}
	resolved, err := ResolveIRI(p.base, t.Value)
	if err != nil {
		return "", p.errorf(t, "%v", err)
	}
	return resolved, nil
}

// ResolveIRI resolves ref against base. Absolute references are returned
// unchanged.
func ResolveIRI(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid IRI %q: %w", ref, err)
	}
	if base == nil || u.IsAbs() {
		return ref, nil
	}
	resolved := base.ResolveReference(u).String()
	// net/url drops empty fragments; namespace IRIs rely on them.
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(resolved, "#") {
		resolved += "#"
	}
	return resolved, nil
}

func (p *turtleParser) blankFor(label string) BlankNode {
	if bn, ok := p.labels[label]; ok {
		return bn
	}
	bn := BlankNode(label)
	p.labels[label] = bn
	return bn
}

// UnescapeLocal removes reserved-character escapes from a local name.
func UnescapeLocal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
