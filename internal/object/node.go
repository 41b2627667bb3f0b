package object

import (
	"errors"
	"fmt"

	"qbxml-mapper/internal/schema"
)

var (
	// ErrUnknownMember is returned for a field or child the descriptor does not declare.
	ErrUnknownMember = errors.New("not declared")
	// ErrNotRepeatable is returned when a single-occurrence member is set twice.
	ErrNotRepeatable = errors.New("may occur only once")
	// ErrNotScalar is returned when a field value is not a scalar.
	ErrNotScalar = errors.New("not a scalar")
	// ErrMissing is returned by Validate for absent required members.
	ErrMissing = errors.New("required but missing")
)

// Node is one instance of a node type.
type Node struct {
	typ      *schema.NodeType
	values   map[string]any
	children map[string][]*Node
}

// New returns an empty instance of t.
func New(t *schema.NodeType) *Node {
	return &Node{
		typ:      t,
		values:   map[string]any{},
		children: map[string][]*Node{},
	}
}

// Type returns the descriptor the node instantiates.
func (n *Node) Type() *schema.NodeType {
	return n.typ
}

// Name returns the node type name.
func (n *Node) Name() string {
	return n.typ.Name
}

// AddValue stores a scalar in the named field. Repeated fields accumulate
// values in call order; other fields accept a single value.
func (n *Node) AddValue(name string, v any) error {
	f, ok := n.typ.Field(name)
	if !ok {
		return fmt.Errorf("field %q of %q: %w", name, n.typ.Name, ErrUnknownMember)
	}

	if !IsScalar(v) {
		return fmt.Errorf("field %q of %q: %T is %w", name, n.typ.Name, v, ErrNotScalar)
	}

	if f.Cardinality.IsRepeated() {
		list, _ := n.values[name].([]any)
		n.values[name] = append(list, v)

		return nil
	}

	if _, set := n.values[name]; set {
		return fmt.Errorf("field %q of %q %w", name, n.typ.Name, ErrNotRepeatable)
	}

	n.values[name] = v

	return nil
}

// Value returns the value of the named field. Repeated fields yield []any.
func (n *Node) Value(name string) (any, bool) {
	v, ok := n.values[name]

	return v, ok
}

// AddChild attaches c under n. Repeated children keep insertion order.
func (n *Node) AddChild(c *Node) error {
	name := c.Name()

	ch, ok := n.typ.Child(name)
	if !ok {
		return fmt.Errorf("child %q of %q: %w", name, n.typ.Name, ErrUnknownMember)
	}

	if !ch.Cardinality.IsRepeated() && len(n.children[name]) > 0 {
		return fmt.Errorf("child %q of %q %w", name, n.typ.Name, ErrNotRepeatable)
	}

	n.children[name] = append(n.children[name], c)

	return nil
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if list := n.children[name]; len(list) > 0 {
		return list[0]
	}

	return nil
}

// Children returns every child with the given name in insertion order.
func (n *Node) Children(name string) []*Node {
	return n.children[name]
}

// IsEmpty reports whether the node holds no values and no children.
func (n *Node) IsEmpty() bool {
	return len(n.values) == 0 && len(n.children) == 0
}

// Equal reports whether two graphs have the same types, values and children.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}

	if n.typ.Name != o.typ.Name || len(n.values) != len(o.values) || len(n.children) != len(o.children) {
		return false
	}

	for k, v := range n.values {
		ov, ok := o.values[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}

	for k, list := range n.children {
		olist := o.children[k]
		if len(list) != len(olist) {
			return false
		}

		for i := range list {
			if !list[i].Equal(olist[i]) {
				return false
			}
		}
	}

	return true
}

func valueEqual(a, b any) bool {
	al, aList := a.([]any)
	bl, bList := b.([]any)

	if aList != bList {
		return false
	}

	if !aList {
		return a == b
	}

	if len(al) != len(bl) {
		return false
	}

	for i := range al {
		if al[i] != bl[i] {
			return false
		}
	}

	return true
}

// Validate checks that every required field and child is present,
// recursively. All missing members are reported together.
func (n *Node) Validate() error {
	var errs []error

	n.validate(n.Name(), &errs)

	return errors.Join(errs...)
}

func (n *Node) validate(path string, errs *[]error) {
	for _, f := range n.typ.Fields {
		if _, ok := n.values[f.Name]; f.Cardinality.IsRequired() && !ok {
			*errs = append(*errs, fmt.Errorf("%s: field %q %w", path, f.Name, ErrMissing))
		}
	}

	for _, c := range n.typ.Children {
		list := n.children[c.Name]
		if c.Cardinality.IsRequired() && len(list) == 0 {
			*errs = append(*errs, fmt.Errorf("%s: child %q %w", path, c.Name, ErrMissing))
		}

		for _, child := range list {
			child.validate(path+"/"+c.Name, errs)
		}
	}
}
