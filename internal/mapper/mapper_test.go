package mapper_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"qbxml-mapper/internal/mapper"
	"qbxml-mapper/internal/object"
	"qbxml-mapper/internal/schema"
	"qbxml-mapper/internal/template"
	"qbxml-mapper/internal/testutil"
)

func newMapper(m *schema.Model, policy template.Policy) *mapper.Mapper {
	return mapper.New(template.NewLocator(m, policy))
}

func TestWrapInvoice(t *testing.T) {
	m := testutil.Invoice(t)

	g, err := newMapper(m, template.FirstMatch).Wrap(map[string]any{
		"Invoice": map[string]any{"amount": 42, "RefNumber": "A1"},
	})
	require.NoError(t, err)

	invType, _ := m.Type("Invoice")
	want := object.New(m.RootType())
	inv := object.New(invType)
	require.NoError(t, inv.AddValue("amount", 42))
	require.NoError(t, inv.AddValue("RefNumber", "A1"))
	require.NoError(t, want.AddChild(inv))

	assert.True(t, want.Equal(g))
	assert.Equal(t, "C", g.Name())

	if diff := cmp.Diff(map[string]any{
		"C": map[string]any{
			"Invoice": []any{map[string]any{"amount": 42, "RefNumber": "A1"}},
		},
	}, g.ToHash(true)); diff != "" {
		t.Errorf("hash mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapSynthesizesIntermediates(t *testing.T) {
	m := testutil.QBXML(t)

	g, err := newMapper(m, template.FirstMatch).Wrap(map[string]any{
		"InvoiceAdd": map[string]any{
			"CustomerRef": map[string]any{"FullName": "Abercrombie, Kristy"},
			"RefNumber":   "A1",
			"InvoiceLineAdd": []any{
				map[string]any{"Desc": "Hours", "Quantity": 3},
				map[string]any{"ItemRef": map[string]any{"ListID": "10000-1"}},
			},
		},
	})
	require.NoError(t, err)

	want := map[string]any{
		"QBXML": map[string]any{
			"QBXMLMsgsRq": map[string]any{
				"InvoiceAddRq": []any{
					map[string]any{
						"InvoiceAdd": map[string]any{
							"CustomerRef": map[string]any{"FullName": "Abercrombie, Kristy"},
							"RefNumber":   "A1",
							"InvoiceLineAdd": []any{
								map[string]any{"Desc": "Hours", "Quantity": 3},
								map[string]any{"ItemRef": map[string]any{"ListID": "10000-1"}},
							},
						},
					},
				},
			},
		},
	}

	if diff := cmp.Diff(want, g.ToHash(true)); diff != "" {
		t.Errorf("hash mismatch (-want +got):\n%s", diff)
	}

	rq := g.Child("QBXMLMsgsRq")
	require.NotNil(t, rq)
	assert.True(t, rq.Children("InvoiceAddRq")[0].Child("InvoiceAdd") != nil)
	_, hasOnError := rq.Value("onError")
	assert.False(t, hasOnError, "intermediates carry no values")
}

func TestWrapTopLevelList(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	g, err := mp.Wrap(map[string]any{
		"InvoiceAddRq": []map[string]any{
			{"requestID": "1", "InvoiceAdd": map[string]any{"Memo": "first"}},
			{"requestID": "2", "InvoiceAdd": map[string]any{"Memo": "second"}},
		},
	})
	require.NoError(t, err)

	reqs := g.Child("QBXMLMsgsRq").Children("InvoiceAddRq")
	require.Len(t, reqs, 2)

	id, _ := reqs[1].Value("requestID")
	assert.Equal(t, "2", id)

	_, err = mp.Wrap(map[string]any{"InvoiceAdd": []any{map[string]any{}}})
	assert.ErrorIs(t, err, mapper.ErrShapeMismatch)
}

func TestWrapRootAndNil(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	g, err := mp.Wrap(map[string]any{
		"QBXML": map[string]any{
			"QBXMLMsgsRq": map[string]any{"onError": "stopOnError"},
		},
	})
	require.NoError(t, err)

	v, ok := g.Child("QBXMLMsgsRq").Value("onError")
	require.True(t, ok)
	assert.Equal(t, "stopOnError", v)

	g, err = mp.Wrap(map[string]any{"InvoiceAdd": nil})
	require.NoError(t, err)
	assert.True(t, g.Child("QBXMLMsgsRq").Children("InvoiceAddRq")[0].Child("InvoiceAdd").IsEmpty())
}

func TestWrapRepeatedField(t *testing.T) {
	m := testutil.QBXML(t)

	g, err := newMapper(m, template.FirstMatch).Wrap(map[string]any{
		"InvoiceAddRq": map[string]any{
			"IncludeRetElement": []string{"TxnID", "RefNumber"},
		},
	})
	require.NoError(t, err)

	v, _ := g.Child("QBXMLMsgsRq").Children("InvoiceAddRq")[0].Value("IncludeRetElement")
	assert.Equal(t, []any{"TxnID", "RefNumber"}, v)
}

func TestWrapTypedCollections(t *testing.T) {
	mp := newMapper(testutil.QBXML(t), template.FirstMatch)

	g, err := mp.Wrap(map[string]any{
		"InvoiceAdd": map[string]any{
			"CustomerRef":    map[string]string{"FullName": "Abercrombie, Kristy"},
			"InvoiceLineAdd": []map[string]string{{"Desc": "Hours"}, {"Desc": "Travel"}},
		},
	})
	require.NoError(t, err)

	add := g.Child("QBXMLMsgsRq").Children("InvoiceAddRq")[0].Child("InvoiceAdd")
	name, _ := add.Child("CustomerRef").Value("FullName")
	assert.Equal(t, "Abercrombie, Kristy", name)
	assert.Len(t, add.Children("InvoiceLineAdd"), 2)

	tests := []struct {
		name  string
		value any
		want  []any
	}{
		{name: "int slice", value: []int{1, 2}, want: []any{1, 2}},
		{name: "string array", value: [2]string{"a", "b"}, want: []any{"a", "b"}},
		{name: "float slice", value: []float64{1.5}, want: []any{1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := mp.Wrap(map[string]any{
				"CustomerQueryRq": map[string]any{"FullName": tt.value},
			})
			require.NoError(t, err)

			v, _ := g.Child("QBXMLMsgsRq").Children("CustomerQueryRq")[0].Value("FullName")
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestWrapQualifiedAndStrict(t *testing.T) {
	m := testutil.QBXML(t)

	strict := newMapper(m, template.Strict)

	_, err := strict.Wrap(map[string]any{"CustomerRef": map[string]any{}})
	require.ErrorIs(t, err, mapper.ErrAmbiguousKey)

	g, err := strict.Wrap(map[string]any{
		"InvoiceRet/CustomerRef": map[string]any{"ListID": "80000001"},
	})
	require.NoError(t, err)

	ref := g.Child("QBXMLMsgsRs").Child("InvoiceAddRs").Child("InvoiceRet").Child("CustomerRef")
	require.NotNil(t, ref)

	v, _ := ref.Value("ListID")
	assert.Equal(t, "80000001", v)

	g, err = newMapper(m, template.FirstMatch).Wrap(map[string]any{"CustomerRef": map[string]any{}})
	require.NoError(t, err)
	assert.NotNil(t, g.Child("QBXMLMsgsRq"), "first match is the request side")
}

func TestWrapErrors(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	tests := []struct {
		name     string
		input    map[string]any
		wantErr  error
		wantKey  string
		wantPath string
	}{
		{
			name:    "unknown top-level key",
			input:   map[string]any{"unknownKey": 1},
			wantErr: mapper.ErrUnknownKey,
			wantKey: "unknownKey",
		},
		{
			name:    "two top-level keys",
			input:   map[string]any{"InvoiceAdd": map[string]any{}, "InvoiceAddRq": map[string]any{}},
			wantErr: mapper.ErrMultipleKeys,
		},
		{
			name:    "no keys",
			input:   map[string]any{},
			wantErr: mapper.ErrMultipleKeys,
		},
		{
			name:     "scalar for structure",
			input:    map[string]any{"InvoiceAdd": 5},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "InvoiceAdd",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "scalar for child",
			input:    map[string]any{"InvoiceAdd": map[string]any{"CustomerRef": "Kristy"}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "CustomerRef",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd/CustomerRef",
		},
		{
			name:     "map for field",
			input:    map[string]any{"InvoiceAdd": map[string]any{"Memo": map[string]any{"text": "x"}}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "Memo",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "list for single field",
			input:    map[string]any{"InvoiceAdd": map[string]any{"Memo": []any{"a", "b"}}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "Memo",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "map with non-string keys",
			input:    map[string]any{"InvoiceAdd": map[int]any{1: "x"}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "InvoiceAdd",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "typed map for field",
			input:    map[string]any{"InvoiceAdd": map[string]any{"Memo": map[string]string{"text": "x"}}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "Memo",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "typed list for single field",
			input:    map[string]any{"InvoiceAdd": map[string]any{"Memo": []int{1, 2}}},
			wantErr:  mapper.ErrShapeMismatch,
			wantKey:  "Memo",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
		{
			name:     "undeclared nested key",
			input:    map[string]any{"InvoiceAdd": map[string]any{"Color": "red"}},
			wantErr:  mapper.ErrUnknownKey,
			wantKey:  "Color",
			wantPath: "QBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := mp.Wrap(tt.input)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.ErrorIs(t, err, tt.wantErr)

			var me *mapper.MappingError
			require.True(t, errors.As(err, &me))

			if tt.wantKey != "" {
				assert.Equal(t, tt.wantKey, me.Key)
			}

			if tt.wantPath != "" {
				assert.Equal(t, tt.wantPath, me.Path)
			}
		})
	}
}

func TestWrapSuggestions(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	_, err := mp.Wrap(map[string]any{"InvoiceAd": map[string]any{}})

	var me *mapper.MappingError
	require.ErrorAs(t, err, &me)
	require.NotEmpty(t, me.Suggestions)
	assert.Equal(t, "InvoiceAdd", me.Suggestions[0])
	assert.Contains(t, err.Error(), "did you mean InvoiceAdd")

	_, err = mp.Wrap(map[string]any{"InvoiceAdd": map[string]any{"Memmo": "x"}})
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"Memo"}, me.Suggestions)
}

func TestWrapRoundTrip(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	inputs := []map[string]any{
		{"InvoiceAdd": map[string]any{
			"CustomerRef":    map[string]any{"ListID": "80000001"},
			"TxnDate":        "2026-10-19",
			"InvoiceLineAdd": []any{map[string]any{"Rate": 12.5}},
		}},
		{"CustomerQueryRq": map[string]any{"FullName": []any{"A", "B"}, "MaxReturned": 10}},
		{"InvoiceRet": map[string]any{"TxnID": "1-2", "CustomerRef": map[string]any{}}},
		{"CustomerRet": []any{map[string]any{"Name": "x"}, map[string]any{"Name": "y"}}},
	}

	for _, in := range inputs {
		g, err := mp.Wrap(in)
		require.NoError(t, err)

		again, err := mp.Wrap(g.ToHash(true))
		require.NoError(t, err)
		assert.True(t, g.Equal(again), "round trip of %v", in)
	}
}

func TestWrapConcurrent(t *testing.T) {
	m := testutil.QBXML(t)
	mp := newMapper(m, template.FirstMatch)

	in := map[string]any{"ItemRef": map[string]any{"FullName": "Labor"}}

	want, err := mp.Wrap(in)
	require.NoError(t, err)

	var g errgroup.Group

	for range 16 {
		g.Go(func() error {
			got, err := mp.Wrap(in)
			if err != nil {
				return err
			}

			if !got.Equal(want) {
				return errors.New("graphs differ")
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())
}
