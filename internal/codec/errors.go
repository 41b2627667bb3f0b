package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownElement is returned for an element its parent does not declare.
	ErrUnknownElement = errors.New("unknown element")
	// ErrUnknownAttribute is returned for an attribute its element does not declare.
	ErrUnknownAttribute = errors.New("unknown attribute")
	// ErrUnexpectedRoot is returned when the document element is not the
	// container type, or when a second document element follows it.
	ErrUnexpectedRoot = errors.New("unexpected document element")
	// ErrRepeated is returned when a single-occurrence member appears twice.
	ErrRepeated = errors.New("repeated")
	// ErrUnexpectedText is returned for non-space text outside text-only elements.
	ErrUnexpectedText = errors.New("unexpected text")
	// ErrMalformed is returned when the input is not well-formed markup.
	ErrMalformed = errors.New("malformed document")
	// ErrEmptyDocument is returned when the input holds no element.
	ErrEmptyDocument = errors.New("empty document")
	// ErrTooLarge is returned when the input exceeds ParseOptions.MaxBytes.
	ErrTooLarge = errors.New("document too large")
)

// ParseError reports where parsing stopped.
type ParseError struct {
	// Element is the innermost element being read, if any.
	Element string
	// Line is the 1-based input line, or 0 when unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	switch {
	case e.Element != "" && e.Line > 0:
		return fmt.Sprintf("line %d <%s>: %v", e.Line, e.Element, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	case e.Element != "":
		return fmt.Sprintf("<%s>: %v", e.Element, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
