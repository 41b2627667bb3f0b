package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrDuplicateType is returned when two descriptors share a name.
	ErrDuplicateType = errors.New("duplicate type")
	// ErrUndeclaredType is returned when a child references an unknown descriptor.
	ErrUndeclaredType = errors.New("undeclared type")
	// ErrCycle is returned when descriptors nest into themselves.
	ErrCycle = errors.New("cyclic nesting")
	// ErrUnknownRoot is returned when the root type is not declared.
	ErrUnknownRoot = errors.New("unknown root type")
	// ErrNameClash is returned when a field and a child (or two fields) share a name.
	ErrNameClash = errors.New("name clash")
	// ErrSequence is returned when a member sequence does not list every
	// element field and child exactly once.
	ErrSequence = errors.New("invalid member sequence")
)

// Field is a scalar slot of a node type.
type Field struct {
	Name        string
	Kind        FieldKind
	Cardinality Cardinality
}

// Child references a nested node type by name.
type Child struct {
	Name        string
	Cardinality Cardinality
}

// NodeType describes one named grammar entity.
// A NodeType must not be modified once it has been passed to NewModel.
type NodeType struct {
	Name     string
	Fields   []Field
	Children []Child
	// Sequence lists element fields and children in content-model order.
	// When empty, element fields come first, then children.
	Sequence []string

	fieldIdx map[string]int
	childIdx map[string]int
}

// Field returns the scalar field with the given name.
func (t *NodeType) Field(name string) (Field, bool) {
	i, ok := t.fieldIdx[name]
	if !ok {
		return Field{}, false
	}

	return t.Fields[i], true
}

// Child returns the child reference with the given name.
func (t *NodeType) Child(name string) (Child, bool) {
	i, ok := t.childIdx[name]
	if !ok {
		return Child{}, false
	}

	return t.Children[i], true
}

// Has reports whether name is a field or a child of the type.
func (t *NodeType) Has(name string) bool {
	_, isField := t.fieldIdx[name]
	_, isChild := t.childIdx[name]

	return isField || isChild
}

// Members returns the names of all fields followed by all children.
func (t *NodeType) Members() []string {
	out := make([]string, 0, len(t.Fields)+len(t.Children))
	for _, f := range t.Fields {
		out = append(out, f.Name)
	}

	for _, c := range t.Children {
		out = append(out, c.Name)
	}

	return out
}

// String returns a compact grammar-like rendering, e.g. "Invoice(Amount, Line*)".
func (t *NodeType) String() string {
	return t.Name + "(" + strings.Join(t.memberSpecs(), ", ") + ")"
}

func (t *NodeType) memberSpecs() []string {
	specs := make([]string, 0, len(t.Fields)+len(t.Children))
	for _, f := range t.Fields {
		prefix := ""
		if f.Kind == FieldAttribute {
			prefix = "@"
		}

		specs = append(specs, prefix+f.Name+f.Cardinality.Suffix())
	}

	for _, c := range t.Children {
		specs = append(specs, c.Name+c.Cardinality.Suffix())
	}

	return specs
}

func (t *NodeType) index() error {
	t.fieldIdx = make(map[string]int, len(t.Fields))
	t.childIdx = make(map[string]int, len(t.Children))

	for i, f := range t.Fields {
		if _, ok := t.fieldIdx[f.Name]; ok {
			return fmt.Errorf("%w: field %q declared twice in %q", ErrNameClash, f.Name, t.Name)
		}

		t.fieldIdx[f.Name] = i
	}

	for i, c := range t.Children {
		if _, ok := t.fieldIdx[c.Name]; ok {
			return fmt.Errorf("%w: %q is both a field and a child of %q", ErrNameClash, c.Name, t.Name)
		}

		if _, ok := t.childIdx[c.Name]; ok {
			return fmt.Errorf("%w: child %q declared twice in %q", ErrNameClash, c.Name, t.Name)
		}

		t.childIdx[c.Name] = i
	}

	if len(t.Sequence) == 0 {
		t.Sequence = t.defaultSequence()

		return nil
	}

	return t.checkSequence()
}

func (t *NodeType) defaultSequence() []string {
	seq := make([]string, 0, len(t.Fields)+len(t.Children))
	for _, f := range t.Fields {
		if f.Kind == FieldElement {
			seq = append(seq, f.Name)
		}
	}

	for _, c := range t.Children {
		seq = append(seq, c.Name)
	}

	return seq
}

func (t *NodeType) checkSequence() error {
	want := t.defaultSequence()
	if len(t.Sequence) != len(want) {
		return fmt.Errorf("%w in %q: got %d members, want %d", ErrSequence, t.Name, len(t.Sequence), len(want))
	}

	seen := make(map[string]bool, len(t.Sequence))

	for _, name := range t.Sequence {
		f, isField := t.Field(name)
		_, isChild := t.childIdx[name]

		if seen[name] || (!isChild && (!isField || f.Kind != FieldElement)) {
			return fmt.Errorf("%w in %q: unexpected %q", ErrSequence, t.Name, name)
		}

		seen[name] = true
	}

	return nil
}

// Model is the compiled grammar: every node type plus the designated root.
type Model struct {
	root  string
	types map[string]*NodeType
	order []string
}

// NewModel validates the descriptors and assembles them into a Model.
// Types keep their given order, which is the grammar declaration order.
func NewModel(root string, types []*NodeType) (*Model, error) {
	m := &Model{
		root:  root,
		types: make(map[string]*NodeType, len(types)),
		order: make([]string, 0, len(types)),
	}

	for _, t := range types {
		if _, ok := m.types[t.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateType, t.Name)
		}

		if err := t.index(); err != nil {
			return nil, err
		}

		m.types[t.Name] = t
		m.order = append(m.order, t.Name)
	}

	for _, t := range types {
		for _, c := range t.Children {
			if _, ok := m.types[c.Name]; !ok {
				return nil, fmt.Errorf("%w: %q referenced by %q", ErrUndeclaredType, c.Name, t.Name)
			}
		}
	}

	if _, ok := m.types[root]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoot, root)
	}

	if cycle := DetectCycle(types); len(cycle) > 0 {
		return nil, fmt.Errorf("%w between %s", ErrCycle, strings.Join(cycle, ", "))
	}

	return m, nil
}

// Root returns the name of the container type.
func (m *Model) Root() string {
	return m.root
}

// RootType returns the container type descriptor.
func (m *Model) RootType() *NodeType {
	return m.types[m.root]
}

// Type returns the descriptor with the given name.
func (m *Model) Type(name string) (*NodeType, bool) {
	t, ok := m.types[name]

	return t, ok
}

// Types returns all descriptors in declaration order.
func (m *Model) Types() []*NodeType {
	out := make([]*NodeType, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.types[name])
	}

	return out
}

// Names returns all type names in declaration order.
func (m *Model) Names() []string {
	return append([]string(nil), m.order...)
}

// Len returns the number of node types.
func (m *Model) Len() int {
	return len(m.order)
}

// Equal reports whether two models declare the same types with the same
// fields, children and cardinalities, and share the same root.
func (m *Model) Equal(other *Model) bool {
	if m == nil || other == nil {
		return m == other
	}

	if m.root != other.root || len(m.types) != len(other.types) {
		return false
	}

	for name, t := range m.types {
		o, ok := other.types[name]
		if !ok || !typeEqual(t, o) {
			return false
		}
	}

	return true
}

func typeEqual(a, b *NodeType) bool {
	if a.Name != b.Name || len(a.Fields) != len(b.Fields) || len(a.Children) != len(b.Children) {
		return false
	}

	for i := range a.Fields {
		if a.Fields[i] != b.Fields[i] {
			return false
		}
	}

	for i := range a.Children {
		if a.Children[i] != b.Children[i] {
			return false
		}
	}

	return slices.Equal(a.Sequence, b.Sequence)
}
