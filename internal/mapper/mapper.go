package mapper

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"qbxml-mapper/internal/match"
	"qbxml-mapper/internal/object"
	"qbxml-mapper/internal/schema"
	"qbxml-mapper/internal/template"
)

const maxSuggestions = 3

// Mapper wraps raw maps into graphs of one schema. It holds no mutable
// state beyond the locator's template tree and is safe for concurrent use.
type Mapper struct {
	model   *schema.Model
	locator *template.Locator
}

// New returns a mapper that discovers paths with loc.
func New(loc *template.Locator) *Mapper {
	return &Mapper{model: loc.Model(), locator: loc}
}

// Wrap converts a single-key map into a graph rooted at the container type.
// On failure it returns a *MappingError and no graph.
func (m *Mapper) Wrap(h map[string]any) (*object.Node, error) {
	if len(h) != 1 {
		keys := slices.Sorted(maps.Keys(h))

		return nil, &MappingError{
			Path: m.model.Root(),
			Err:  fmt.Errorf("%w, got %d %v", ErrMultipleKeys, len(keys), keys),
		}
	}

	var (
		key   string
		value any
	)

	for k, v := range h {
		key, value = k, v
	}

	path, err := m.locate(key)
	if err != nil {
		return nil, err
	}

	if len(path) == 1 {
		return m.build(path.Target(), value, key, path.String())
	}

	root := object.New(path[0])
	parent := root

	for _, t := range path[1 : len(path)-1] {
		n := object.New(t)
		if err := parent.AddChild(n); err != nil {
			return nil, &MappingError{Key: key, Path: path.String(), Err: err}
		}

		parent = n
	}

	if err := m.attach(parent, path.Target(), value, key, path[:len(path)-1].String()); err != nil {
		return nil, err
	}

	return root, nil
}

func (m *Mapper) locate(key string) (template.Path, error) {
	path, err := m.locator.Locate(key)

	switch {
	case err == nil:
		return path, nil
	case errors.Is(err, template.ErrAmbiguous):
		return nil, &MappingError{Key: key, Path: m.model.Root(), Err: fmt.Errorf("%w: %w", ErrAmbiguousKey, err)}
	default:
		return nil, &MappingError{
			Key:         key,
			Path:        m.model.Root(),
			Suggestions: match.Suggest(key, m.model.Names(), maxSuggestions),
			Err:         fmt.Errorf("%w: %w", ErrUnknownKey, err),
		}
	}
}

// attach wraps v as one or more instances of t and adds them to parent.
// A list is accepted only where t repeats under parent.
func (m *Mapper) attach(parent *object.Node, t *schema.NodeType, v any, key, at string) error {
	ch, _ := parent.Type().Child(t.Name)

	if items, ok := asList(v); ok {
		if !ch.Cardinality.IsRepeated() {
			return &MappingError{
				Key:  key,
				Path: at,
				Err:  fmt.Errorf("%w: %q occurs once in %q, got a list", ErrShapeMismatch, t.Name, parent.Name()),
			}
		}

		for i, item := range items {
			n, err := m.build(t, item, key, fmt.Sprintf("%s/%s[%d]", at, t.Name, i))
			if err != nil {
				return err
			}

			if err := parent.AddChild(n); err != nil {
				return &MappingError{Key: key, Path: at, Err: err}
			}
		}

		return nil
	}

	n, err := m.build(t, v, key, at+template.Separator+t.Name)
	if err != nil {
		return err
	}

	if err := parent.AddChild(n); err != nil {
		return &MappingError{Key: key, Path: at, Err: err}
	}

	return nil
}

// build wraps a map (or nil, for an empty instance) as an instance of t.
// Keys are applied in sorted order so errors are reported deterministically.
func (m *Mapper) build(t *schema.NodeType, v any, key, at string) (*object.Node, error) {
	n := object.New(t)

	if v == nil {
		return n, nil
	}

	body, ok := asMap(v)
	if !ok {
		return nil, &MappingError{
			Key:  key,
			Path: at,
			Err:  fmt.Errorf("%w: %q is a nested structure, got %s", ErrShapeMismatch, t.Name, describe(v)),
		}
	}

	for _, k := range slices.Sorted(maps.Keys(body)) {
		val := body[k]

		if f, ok := t.Field(k); ok {
			if err := setField(n, f, val); err != nil {
				return nil, &MappingError{Key: k, Path: at, Err: err}
			}

			continue
		}

		if _, ok := t.Child(k); ok {
			ct, _ := m.model.Type(k)
			if err := m.attach(n, ct, val, k, at); err != nil {
				return nil, err
			}

			continue
		}

		return nil, &MappingError{
			Key:         k,
			Path:        at,
			Suggestions: match.Suggest(k, t.Members(), maxSuggestions),
			Err:         fmt.Errorf("%w: %q declares no field or child %q", ErrUnknownKey, t.Name, k),
		}
	}

	return n, nil
}

func setField(n *object.Node, f schema.Field, v any) error {
	if items, ok := asList(v); ok {
		if !f.Cardinality.IsRepeated() {
			return fmt.Errorf("%w: field %q occurs once, got a list", ErrShapeMismatch, f.Name)
		}

		for _, item := range items {
			if err := setScalar(n, f, item); err != nil {
				return err
			}
		}

		return nil
	}

	return setScalar(n, f, v)
}

func setScalar(n *object.Node, f schema.Field, v any) error {
	if !object.IsScalar(v) {
		return fmt.Errorf("%w: field %q is a scalar, got %s", ErrShapeMismatch, f.Name, describe(v))
	}

	return n.AddValue(f.Name, v)
}

// asMap accepts any map with string keys.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}

	out := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}

	return out, true
}

// asList accepts any slice or array.
func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, true
}

func describe(v any) string {
	if v == nil {
		return "nothing"
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Map:
		return "a map"
	case reflect.Slice, reflect.Array:
		return "a list"
	default:
		return fmt.Sprintf("%T", v)
	}
}
