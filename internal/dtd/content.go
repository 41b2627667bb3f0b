package dtd

import (
	"errors"
	"fmt"

	"qbxml-mapper/internal/schema"
)

var errUnsupported = errors.New("not supported")

// contentKind is the category of an element's content specification.
type contentKind int

const (
	contentChildren contentKind = iota
	contentText
	contentEmpty
)

// particle is a node of a parsed content model: either a named element
// reference or a sequence/choice group.
type particle struct {
	name    string
	choice  bool
	members []*particle
	card    schema.Cardinality
}

// member is a flattened content model entry.
type member struct {
	name string
	card schema.Cardinality
}

// contentParser is a recursive-descent parser over the tokens of a contentspec.
type contentParser struct {
	toks []token
	pos  int
}

// parseContentSpec parses everything after the element name of an ELEMENT
// declaration and returns the flattened members of its content model.
func parseContentSpec(toks []token) (contentKind, []member, error) {
	if len(toks) == 0 {
		return 0, nil, fmt.Errorf("missing content specification")
	}

	if toks[0].kind == tokName {
		if len(toks) != 1 {
			return 0, nil, fmt.Errorf("unexpected %q after %s", toks[1].text, toks[0].text)
		}

		switch toks[0].text {
		case "EMPTY":
			return contentEmpty, nil, nil
		case "ANY":
			return 0, nil, fmt.Errorf("ANY content is %w", errUnsupported)
		default:
			return 0, nil, fmt.Errorf("content specification must be EMPTY or a group, got %q", toks[0].text)
		}
	}

	if len(toks) >= 2 && toks[1].kind == tokKeyword {
		return parsePCData(toks)
	}

	p := &contentParser{toks: toks}

	root, err := p.group()
	if err != nil {
		return 0, nil, err
	}

	if err := p.occurrence(root); err != nil {
		return 0, nil, err
	}

	if p.pos != len(p.toks) {
		return 0, nil, fmt.Errorf("unexpected %q after content model", p.toks[p.pos].text)
	}

	var out []member

	flatten(root, &out)

	return contentChildren, out, nil
}

// parsePCData accepts (#PCDATA) and (#PCDATA)* and rejects mixed content.
func parsePCData(toks []token) (contentKind, []member, error) {
	if toks[0].text != "(" || toks[1].text != "#PCDATA" {
		return 0, nil, fmt.Errorf("unexpected keyword %q", toks[1].text)
	}

	rest := toks[2:]
	if len(rest) > 0 && rest[0].text == "|" {
		return 0, nil, fmt.Errorf("mixed content is %w", errUnsupported)
	}

	if len(rest) == 0 || rest[0].text != ")" {
		return 0, nil, fmt.Errorf("expected ')' after #PCDATA")
	}

	rest = rest[1:]
	if len(rest) == 1 && rest[0].text == "*" {
		rest = rest[1:]
	}

	if len(rest) != 0 {
		return 0, nil, fmt.Errorf("unexpected %q after (#PCDATA)", rest[0].text)
	}

	return contentText, nil, nil
}

func (p *contentParser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}

	return p.toks[p.pos], true
}

func (p *contentParser) expect(text string) error {
	t, ok := p.peek()
	if !ok {
		return fmt.Errorf("expected %q, got end of declaration", text)
	}

	if t.kind != tokPunct || t.text != text {
		return fmt.Errorf("expected %q, got %q", text, t.text)
	}

	p.pos++

	return nil
}

// group parses '(' cp ((',' cp)* | ('|' cp)*) ')'.
func (p *contentParser) group() (*particle, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}

	g := &particle{}
	sep := ""

	for {
		cp, err := p.cp()
		if err != nil {
			return nil, err
		}

		g.members = append(g.members, cp)

		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated group")
		}

		if t.text == ")" {
			p.pos++

			break
		}

		if t.text != "," && t.text != "|" {
			return nil, fmt.Errorf("expected ',', '|' or ')', got %q", t.text)
		}

		if sep != "" && sep != t.text {
			return nil, fmt.Errorf("cannot mix ',' and '|' in one group")
		}

		sep = t.text
		p.pos++
	}

	g.choice = sep == "|"

	return g, nil
}

// cp parses one content particle: a name or a nested group, plus its
// occurrence indicator.
func (p *contentParser) cp() (*particle, error) {
	t, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of content model")
	}

	var part *particle

	switch {
	case t.kind == tokName:
		p.pos++
		part = &particle{name: t.text}
	case t.kind == tokPunct && t.text == "(":
		g, err := p.group()
		if err != nil {
			return nil, err
		}

		part = g
	case t.kind == tokKeyword:
		return nil, fmt.Errorf("%s is only allowed as (#PCDATA)", t.text)
	default:
		return nil, fmt.Errorf("unexpected %q in content model", t.text)
	}

	if err := p.occurrence(part); err != nil {
		return nil, err
	}

	return part, nil
}

func (p *contentParser) occurrence(part *particle) error {
	t, ok := p.peek()
	if !ok || t.kind != tokPunct {
		return nil
	}

	switch t.text {
	case "?":
		part.card = schema.CardinalityOptional
	case "*", "+":
		part.card = schema.CardinalityRepeated
	default:
		return nil
	}

	p.pos++

	return nil
}

// occurs bounds how often a name may appear in one valid instance.
// max saturates at many.
type occurs struct {
	min, max int
}

const many = 2

// flatten records every referenced name in first-reference order with its
// effective cardinality. Occurrences add up across a sequence and take the
// widest bounds across the branches of a choice, so a name becomes Repeated
// only when it can appear more than once in one instance.
func flatten(p *particle, out *[]member) {
	counts := p.occurrences()

	seen := map[string]bool{}

	var walk func(*particle)

	walk = func(q *particle) {
		if q.name != "" {
			if !seen[q.name] {
				seen[q.name] = true
				*out = append(*out, member{name: q.name, card: counts[q.name].cardinality()})
			}

			return
		}

		for _, m := range q.members {
			walk(m)
		}
	}

	walk(p)
}

func (p *particle) occurrences() map[string]occurs {
	var counts map[string]occurs

	switch {
	case p.name != "":
		counts = map[string]occurs{p.name: {min: 1, max: 1}}
	case p.choice:
		counts = map[string]occurs{}

		for i, m := range p.members {
			branch := m.occurrences()

			for name, o := range counts {
				if _, ok := branch[name]; !ok {
					counts[name] = occurs{min: 0, max: o.max}
				}
			}

			for name, o := range branch {
				prev, ok := counts[name]
				if !ok {
					if i > 0 {
						o.min = 0
					}

					counts[name] = o

					continue
				}

				counts[name] = occurs{min: min(prev.min, o.min), max: max(prev.max, o.max)}
			}
		}
	default:
		counts = map[string]occurs{}

		for _, m := range p.members {
			for name, o := range m.occurrences() {
				prev := counts[name]
				counts[name] = occurs{min: prev.min + o.min, max: min(prev.max+o.max, many)}
			}
		}
	}

	for name, o := range counts {
		switch p.card {
		case schema.CardinalityOptional:
			o.min = 0
		case schema.CardinalityRepeated:
			o.max = many
		}

		counts[name] = o
	}

	return counts
}

func (o occurs) cardinality() schema.Cardinality {
	switch {
	case o.max >= many:
		return schema.CardinalityRepeated
	case o.min == 0:
		return schema.CardinalityOptional
	default:
		return schema.CardinalityOne
	}
}
