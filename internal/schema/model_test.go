package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceTypes() []*NodeType {
	return []*NodeType{
		{
			Name: "QBXML",
			Children: []Child{
				{Name: "Invoice", Cardinality: CardinalityOptional},
			},
		},
		{
			Name: "Invoice",
			Fields: []Field{
				{Name: "amount", Kind: FieldElement, Cardinality: CardinalityOne},
				{Name: "RefNumber", Kind: FieldElement, Cardinality: CardinalityOptional},
				{Name: "requestID", Kind: FieldAttribute, Cardinality: CardinalityOptional},
			},
			Children: []Child{
				{Name: "Line", Cardinality: CardinalityRepeated},
			},
		},
		{
			Name: "Line",
			Fields: []Field{
				{Name: "Desc", Kind: FieldElement, Cardinality: CardinalityOptional},
			},
		},
	}
}

func TestNewModel(t *testing.T) {
	m, err := NewModel("QBXML", invoiceTypes())
	require.NoError(t, err)

	assert.Equal(t, "QBXML", m.Root())
	assert.Equal(t, "QBXML", m.RootType().Name)
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"QBXML", "Invoice", "Line"}, m.Names())

	inv, ok := m.Type("Invoice")
	require.True(t, ok)

	f, ok := inv.Field("requestID")
	require.True(t, ok)
	assert.Equal(t, FieldAttribute, f.Kind)

	c, ok := inv.Child("Line")
	require.True(t, ok)
	assert.True(t, c.Cardinality.IsRepeated())

	assert.True(t, inv.Has("amount"))
	assert.True(t, inv.Has("Line"))
	assert.False(t, inv.Has("Customer"))
	assert.Equal(t, []string{"amount", "RefNumber", "requestID", "Line"}, inv.Members())
	assert.Equal(t, "Invoice(amount, RefNumber?, @requestID?, Line*)", inv.String())
	assert.Equal(t, []string{"amount", "RefNumber", "Line"}, inv.Sequence)

	_, ok = m.Type("Missing")
	assert.False(t, ok)
}

func TestNewModelErrors(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		mutate  func([]*NodeType) []*NodeType
		wantErr error
	}{
		{
			name: "duplicate type",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				return append(ts, &NodeType{Name: "Line"})
			},
			wantErr: ErrDuplicateType,
		},
		{
			name: "undeclared child",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				ts[2].Children = append(ts[2].Children, Child{Name: "Item"})
				return ts
			},
			wantErr: ErrUndeclaredType,
		},
		{
			name:    "unknown root",
			root:    "QBPOSXML",
			mutate:  func(ts []*NodeType) []*NodeType { return ts },
			wantErr: ErrUnknownRoot,
		},
		{
			name: "cycle",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				ts[2].Children = append(ts[2].Children, Child{Name: "Invoice"})
				return ts
			},
			wantErr: ErrCycle,
		},
		{
			name: "field and child share a name",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				ts[1].Fields = append(ts[1].Fields, Field{Name: "Line"})
				return ts
			},
			wantErr: ErrNameClash,
		},
		{
			name: "sequence names an attribute",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				ts[1].Sequence = []string{"Line", "requestID", "amount"}
				return ts
			},
			wantErr: ErrSequence,
		},
		{
			name: "sequence misses a member",
			root: "QBXML",
			mutate: func(ts []*NodeType) []*NodeType {
				ts[1].Sequence = []string{"Line", "amount"}
				return ts
			},
			wantErr: ErrSequence,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.root, tt.mutate(invoiceTypes()))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestModelEqual(t *testing.T) {
	a, err := NewModel("QBXML", invoiceTypes())
	require.NoError(t, err)

	b, err := NewModel("QBXML", invoiceTypes())
	require.NoError(t, err)

	assert.True(t, a.Equal(b))

	changed := invoiceTypes()
	changed[2].Fields[0].Cardinality = CardinalityRepeated
	c, err := NewModel("QBXML", changed)
	require.NoError(t, err)

	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))

	reordered := invoiceTypes()
	reordered[1].Sequence = []string{"Line", "amount", "RefNumber"}
	d, err := NewModel("QBXML", reordered)
	require.NoError(t, err)

	assert.False(t, a.Equal(d))
}

func TestDetectCycle(t *testing.T) {
	types := []*NodeType{
		{Name: "Root", Children: []Child{{Name: "A"}}},
		{Name: "A", Children: []Child{{Name: "B"}}},
		{Name: "B", Children: []Child{{Name: "C"}, {Name: "Leaf"}}},
		{Name: "C", Children: []Child{{Name: "A"}}},
		{Name: "Leaf"},
	}

	assert.Equal(t, []string{"A", "B", "C"}, DetectCycle(types))
	assert.Nil(t, DetectCycle(invoiceTypes()))

	self := []*NodeType{{Name: "Self", Children: []Child{{Name: "Self"}}}}
	assert.Equal(t, []string{"Self"}, DetectCycle(self))
}

func TestCardinality(t *testing.T) {
	assert.Equal(t, "One", CardinalityOne.String())
	assert.Equal(t, "Repeated", CardinalityRepeated.String())
	assert.Equal(t, "Cardinality(7)", Cardinality(7).String())

	for _, c := range []Cardinality{CardinalityOne, CardinalityOptional, CardinalityRepeated} {
		parsed, err := ParseCardinality(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCardinality("some")
	assert.Error(t, err)

	assert.True(t, CardinalityOne.IsRequired())
	assert.False(t, CardinalityOptional.IsRequired())
	assert.Equal(t, "?", CardinalityOptional.Suffix())
}
