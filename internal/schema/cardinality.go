package schema

import (
	"fmt"
	"strings"
)

//go:generate go tool stringer -type=Cardinality,FieldKind -trimprefix=Cardinality -output=enum_string.go

// Cardinality describes how many times a field or child may occur inside its parent.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityOptional
	CardinalityRepeated
)

// IsRepeated reports whether more than one occurrence is allowed.
func (c Cardinality) IsRepeated() bool {
	return c == CardinalityRepeated
}

// IsRequired reports whether at least one occurrence is required.
func (c Cardinality) IsRequired() bool {
	return c == CardinalityOne
}

// Suffix returns the grammar occurrence indicator for the cardinality.
func (c Cardinality) Suffix() string {
	switch c {
	case CardinalityOptional:
		return "?"
	case CardinalityRepeated:
		return "*"
	default:
		return ""
	}
}

// ParseCardinality parses the lowercase name produced by Cardinality.String.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(s) {
	case "one":
		return CardinalityOne, nil
	case "optional":
		return CardinalityOptional, nil
	case "repeated":
		return CardinalityRepeated, nil
	default:
		return CardinalityOne, fmt.Errorf("unknown cardinality %q", s)
	}
}

// FieldKind tells how a scalar field is encoded on the wire.
type FieldKind int

const (
	// FieldElement is a leaf child element: <Amount>42</Amount>.
	FieldElement FieldKind = iota
	// FieldAttribute is a markup attribute: <InvoiceAddRq requestID="1">.
	FieldAttribute
)

// ParseFieldKind parses the name produced by FieldKind.String.
func ParseFieldKind(s string) (FieldKind, error) {
	switch s {
	case "FieldElement", "element":
		return FieldElement, nil
	case "FieldAttribute", "attribute":
		return FieldAttribute, nil
	default:
		return FieldElement, fmt.Errorf("unknown field kind %q", s)
	}
}
