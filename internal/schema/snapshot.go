package schema

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Snapshot is the serializable form of a Model. It is shared by the cache
// codecs and the YAML schema export.
type Snapshot struct {
	Root  string         `yaml:"root"  msgpack:"root"`
	Types []TypeSnapshot `yaml:"types" msgpack:"types"`
}

// TypeSnapshot is the serializable form of a NodeType.
type TypeSnapshot struct {
	Name     string          `yaml:"name"               msgpack:"name"`
	Fields   []FieldSnapshot `yaml:"fields,omitempty"   msgpack:"fields,omitempty"`
	Children []ChildSnapshot `yaml:"children,omitempty" msgpack:"children,omitempty"`
	Sequence []string        `yaml:"sequence,omitempty" msgpack:"sequence,omitempty"`
}

// FieldSnapshot is the serializable form of a Field.
type FieldSnapshot struct {
	Name        string `yaml:"name"        msgpack:"name"`
	Kind        string `yaml:"kind"        msgpack:"kind"`
	Cardinality string `yaml:"cardinality" msgpack:"cardinality"`
}

// ChildSnapshot is the serializable form of a Child.
type ChildSnapshot struct {
	Name        string `yaml:"name"        msgpack:"name"`
	Cardinality string `yaml:"cardinality" msgpack:"cardinality"`
}

// Snapshot converts the model into its serializable form.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Root:  m.root,
		Types: make([]TypeSnapshot, 0, len(m.order)),
	}

	for _, t := range m.Types() {
		ts := TypeSnapshot{Name: t.Name, Sequence: slices.Clone(t.Sequence)}

		for _, f := range t.Fields {
			ts.Fields = append(ts.Fields, FieldSnapshot{
				Name:        f.Name,
				Kind:        kindName(f.Kind),
				Cardinality: strings.ToLower(f.Cardinality.String()),
			})
		}

		for _, c := range t.Children {
			ts.Children = append(ts.Children, ChildSnapshot{
				Name:        c.Name,
				Cardinality: strings.ToLower(c.Cardinality.String()),
			})
		}

		s.Types = append(s.Types, ts)
	}

	return s
}

// FromSnapshot rebuilds and validates a Model from its serializable form.
func FromSnapshot(s Snapshot) (*Model, error) {
	types := make([]*NodeType, 0, len(s.Types))

	for _, ts := range s.Types {
		t := &NodeType{Name: ts.Name, Sequence: slices.Clone(ts.Sequence)}

		for _, fs := range ts.Fields {
			kind, err := ParseFieldKind(fs.Kind)
			if err != nil {
				return nil, fmt.Errorf("type %q field %q: %w", ts.Name, fs.Name, err)
			}

			card, err := ParseCardinality(fs.Cardinality)
			if err != nil {
				return nil, fmt.Errorf("type %q field %q: %w", ts.Name, fs.Name, err)
			}

			t.Fields = append(t.Fields, Field{Name: fs.Name, Kind: kind, Cardinality: card})
		}

		for _, cs := range ts.Children {
			card, err := ParseCardinality(cs.Cardinality)
			if err != nil {
				return nil, fmt.Errorf("type %q child %q: %w", ts.Name, cs.Name, err)
			}

			t.Children = append(t.Children, Child{Name: cs.Name, Cardinality: card})
		}

		types = append(types, t)
	}

	return NewModel(s.Root, types)
}

// Marshal serializes a Model to YAML.
func Marshal(m *Model) ([]byte, error) {
	return yaml.Marshal(m.Snapshot())
}

// Unmarshal parses YAML produced by Marshal back into a Model.
func Unmarshal(data []byte) (*Model, error) {
	var s Snapshot

	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}

	return FromSnapshot(s)
}

func kindName(k FieldKind) string {
	if k == FieldAttribute {
		return "attribute"
	}

	return "element"
}
