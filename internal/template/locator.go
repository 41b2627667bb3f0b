package template

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"qbxml-mapper/internal/schema"
)

var (
	// ErrNotFound is returned when a key names no reachable position.
	ErrNotFound = errors.New("no schema path")
	// ErrAmbiguous is returned under the Strict policy when a key matches
	// more than one position.
	ErrAmbiguous = errors.New("ambiguous key")
	// ErrInvalidKey is returned for keys that are not well-formed.
	ErrInvalidKey = errors.New("invalid key")
)

// Policy decides how a key with several matching positions is resolved.
type Policy int

const (
	// FirstMatch picks the first position in depth-first order.
	FirstMatch Policy = iota
	// Strict rejects ambiguous keys.
	Strict
)

// String returns the policy name used in configuration.
func (p Policy) String() string {
	switch p {
	case FirstMatch:
		return "first"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses "first" or "strict".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "first", "first-match":
		return FirstMatch, nil
	case "strict":
		return Strict, nil
	default:
		return FirstMatch, fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

// Locator finds schema paths for keys. The template tree is built on first
// use, or by Warm, exactly once; a Locator is safe for concurrent use.
type Locator struct {
	model  *schema.Model
	policy Policy

	once sync.Once
	tree *Tree
}

// NewLocator returns a locator over m.
func NewLocator(m *schema.Model, policy Policy) *Locator {
	return &Locator{model: m, policy: policy}
}

// Warm builds the template tree now instead of on the first lookup.
func (l *Locator) Warm() *Tree {
	l.once.Do(func() {
		l.tree = Build(l.model)
	})

	return l.tree
}

// Model returns the schema the locator searches.
func (l *Locator) Model() *schema.Model {
	return l.model
}

// Policy returns the ambiguity policy in effect.
func (l *Locator) Policy() Policy {
	return l.policy
}

// Locate returns the path from the container root to the position named by
// key. Repeated calls with the same key return the same path.
func (l *Locator) Locate(key string) (Path, error) {
	matches, err := l.Candidates(key)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for %q under %q", ErrNotFound, key, l.model.Root())
	}

	if len(matches) > 1 && l.policy == Strict {
		alts := make([]string, len(matches))
		for i, p := range matches {
			alts[i] = p.String()
		}

		return nil, fmt.Errorf("%w %q matches %s", ErrAmbiguous, key, strings.Join(alts, ", "))
	}

	return matches[0], nil
}

// Candidates returns every path matching key in depth-first order.
func (l *Locator) Candidates(key string) ([]Path, error) {
	segments, err := ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	tree := l.Warm()
	target := segments[len(segments)-1]
	ancestors := segments[:len(segments)-1]

	var out []Path

	for _, pos := range tree.Positions(target) {
		if hasAncestors(pos, ancestors) {
			out = append(out, pos.Path())
		}
	}

	return out, nil
}

// hasAncestors reports whether the nearest ancestors of n carry the given
// names, innermost last.
func hasAncestors(n *Node, names []string) bool {
	cur := n.Parent

	for i := len(names) - 1; i >= 0; i-- {
		if cur == nil || cur.Type.Name != names[i] {
			return false
		}

		cur = cur.Parent
	}

	return true
}
