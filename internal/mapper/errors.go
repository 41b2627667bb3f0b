package mapper

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMultipleKeys is returned when the map does not have exactly one
	// top-level key.
	ErrMultipleKeys = errors.New("expected exactly one top-level key")
	// ErrUnknownKey is returned for a key that names no reachable type, or
	// no field or child of the type being filled.
	ErrUnknownKey = errors.New("unknown key")
	// ErrAmbiguousKey is returned under the strict policy when a key
	// matches several positions in the template tree.
	ErrAmbiguousKey = errors.New("ambiguous key")
	// ErrShapeMismatch is returned when a value's shape disagrees with the
	// schema, such as a scalar where a nested structure is declared.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// MappingError describes why a map could not be wrapped.
type MappingError struct {
	// Key is the offending map key.
	Key string
	// Path is where the key was being applied, e.g. "QBXML/QBXMLMsgsRq".
	Path string
	// Suggestions lists declared names close to Key.
	Suggestions []string
	Err         error
}

func (e *MappingError) Error() string {
	var b strings.Builder

	b.WriteString("failed to map")

	if e.Key != "" {
		fmt.Fprintf(&b, " key %q", e.Key)
	}

	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}

	fmt.Fprintf(&b, ": %v", e.Err)

	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}

	return b.String()
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
