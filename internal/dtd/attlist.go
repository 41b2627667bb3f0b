package dtd

import (
	"fmt"

	"qbxml-mapper/internal/schema"
)

// attrDef is one attribute definition from an ATTLIST declaration.
type attrDef struct {
	name     string
	required bool
}

var attrTypes = map[string]bool{
	"CDATA":    true,
	"ID":       true,
	"IDREF":    true,
	"IDREFS":   true,
	"ENTITY":   true,
	"ENTITIES": true,
	"NMTOKEN":  true,
	"NMTOKENS": true,
}

// parseAttlist parses "Element attr TYPE DEFAULT ..." and returns the element
// name with its attribute definitions in declaration order.
func parseAttlist(toks []token) (string, []attrDef, error) {
	if len(toks) == 0 || toks[0].kind != tokName {
		return "", nil, fmt.Errorf("ATTLIST requires an element name")
	}

	element := toks[0].text
	rest := toks[1:]

	var defs []attrDef

	for len(rest) > 0 {
		def, n, err := parseAttrDef(rest)
		if err != nil {
			return element, nil, err
		}

		defs = append(defs, def)
		rest = rest[n:]
	}

	return element, defs, nil
}

func parseAttrDef(toks []token) (attrDef, int, error) {
	if toks[0].kind != tokName {
		return attrDef{}, 0, fmt.Errorf("expected attribute name, got %q", toks[0].text)
	}

	def := attrDef{name: toks[0].text}
	pos := 1

	if pos >= len(toks) {
		return attrDef{}, 0, fmt.Errorf("attribute %q has no type", def.name)
	}

	switch t := toks[pos]; {
	case t.kind == tokName && t.text == "NOTATION":
		pos++

		n, err := parseEnumeration(toks[pos:])
		if err != nil {
			return attrDef{}, 0, fmt.Errorf("attribute %q: %w", def.name, err)
		}

		pos += n
	case t.kind == tokName && attrTypes[t.text]:
		pos++
	case t.kind == tokPunct && t.text == "(":
		n, err := parseEnumeration(toks[pos:])
		if err != nil {
			return attrDef{}, 0, fmt.Errorf("attribute %q: %w", def.name, err)
		}

		pos += n
	default:
		return attrDef{}, 0, fmt.Errorf("attribute %q has unknown type %q", def.name, t.text)
	}

	if pos >= len(toks) {
		return attrDef{}, 0, fmt.Errorf("attribute %q has no default declaration", def.name)
	}

	switch t := toks[pos]; {
	case t.kind == tokKeyword && t.text == "#REQUIRED":
		def.required = true
		pos++
	case t.kind == tokKeyword && t.text == "#IMPLIED":
		pos++
	case t.kind == tokKeyword && t.text == "#FIXED":
		pos++
		if pos >= len(toks) || toks[pos].kind != tokLiteral {
			return attrDef{}, 0, fmt.Errorf("attribute %q: #FIXED requires a value", def.name)
		}

		pos++
	case t.kind == tokLiteral:
		pos++
	default:
		return attrDef{}, 0, fmt.Errorf("attribute %q has invalid default %q", def.name, t.text)
	}

	return def, pos, nil
}

// parseEnumeration checks "(a | b | c)" and returns the number of tokens it
// spans. Enumerated values are not kept; the model treats them as text.
func parseEnumeration(toks []token) (int, error) {
	if len(toks) == 0 || toks[0].text != "(" {
		return 0, fmt.Errorf("expected enumeration")
	}

	pos := 1
	for {
		if pos >= len(toks) || toks[pos].kind != tokName {
			return 0, fmt.Errorf("malformed enumeration")
		}

		pos++

		if pos >= len(toks) {
			return 0, fmt.Errorf("unterminated enumeration")
		}

		switch toks[pos].text {
		case "|":
			pos++
		case ")":
			return pos + 1, nil
		default:
			return 0, fmt.Errorf("unexpected %q in enumeration", toks[pos].text)
		}
	}
}

func (d attrDef) field() schema.Field {
	card := schema.CardinalityOptional
	if d.required {
		card = schema.CardinalityOne
	}

	return schema.Field{Name: d.name, Kind: schema.FieldAttribute, Cardinality: card}
}
