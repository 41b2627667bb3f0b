package template

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the segments of a qualified key.
const Separator = "/"

// ParseKey splits a lookup key into type-name segments.
// Supports: "Name" and "Parent/Name" with any number of ancestors.
func ParseKey(key string) ([]string, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}

	segments := strings.Split(key, Separator)

	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("invalid key %q: empty segment", key)
		}

		if !isValidName(seg) {
			return nil, fmt.Errorf("invalid key %q: invalid name %q", key, seg)
		}
	}

	return segments, nil
}

// isValidName checks if a string is a valid element name.
func isValidName(s string) bool {
	for i, r := range s {
		if i == 0 {
			// First character must be letter, underscore or colon
			if !isLetter(r) && r != '_' && r != ':' {
				return false
			}
		} else {
			// Subsequent characters may also be digits, '-' or '.'
			if !isLetter(r) && !isDigit(r) && r != '_' && r != ':' && r != '-' && r != '.' {
				return false
			}
		}
	}

	return s != ""
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
