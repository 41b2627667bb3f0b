package api

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrSchemaType is returned for an unknown schema type.
var ErrSchemaType = errors.New("schema type required")

// SchemaType describes one of the bundled qbXML grammars.
type SchemaType struct {
	// File is the grammar file name inside the schema directory.
	File string
	// Version is the default document version for output.
	Version string
	// Instruction is the processing instruction carrying the version.
	Instruction string
}

var schemaTypes = map[string]SchemaType{
	"qb":    {File: "qbxmlops70.xml", Version: "7.0", Instruction: "qbxml"},
	"qbpos": {File: "qbposxmlops30.xml", Version: "3.0", Instruction: "qbposxml"},
}

// LookupSchemaType returns the grammar description for name ("qb" or "qbpos").
func LookupSchemaType(name string) (SchemaType, error) {
	st, ok := schemaTypes[strings.ToLower(name)]
	if !ok {
		return SchemaType{}, fmt.Errorf("%w, must be one of [%s], got %q",
			ErrSchemaType, strings.Join(SchemaTypes(), " | "), name)
	}

	return st, nil
}

// SchemaTypes lists the known schema type names.
func SchemaTypes() []string {
	return slices.Sorted(maps.Keys(schemaTypes))
}
