package dtd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbxml-mapper/internal/dtd"
	"qbxml-mapper/internal/schema"
	"qbxml-mapper/internal/testutil"
)

func TestCompileQBXML(t *testing.T) {
	m, err := dtd.Compile([]byte(testutil.QBXMLGrammar), dtd.Options{})
	require.NoError(t, err)

	assert.Equal(t, "QBXML", m.Root())

	root := m.RootType()
	assert.Equal(t, []schema.Child{
		{Name: "QBXMLMsgsRq", Cardinality: schema.CardinalityOptional},
		{Name: "QBXMLMsgsRs", Cardinality: schema.CardinalityOptional},
	}, root.Children)

	rq, ok := m.Type("QBXMLMsgsRq")
	require.True(t, ok)
	assert.Equal(t, []schema.Child{
		{Name: "InvoiceAddRq", Cardinality: schema.CardinalityRepeated},
		{Name: "CustomerQueryRq", Cardinality: schema.CardinalityRepeated},
	}, rq.Children)
	assert.Equal(t, []schema.Field{
		{Name: "onError", Kind: schema.FieldAttribute, Cardinality: schema.CardinalityOne},
	}, rq.Fields)

	add, ok := m.Type("InvoiceAdd")
	require.True(t, ok)
	assert.Equal(t, []schema.Field{
		{Name: "TxnDate", Kind: schema.FieldElement, Cardinality: schema.CardinalityOptional},
		{Name: "RefNumber", Kind: schema.FieldElement, Cardinality: schema.CardinalityOptional},
		{Name: "Memo", Kind: schema.FieldElement, Cardinality: schema.CardinalityOptional},
	}, add.Fields)
	assert.Equal(t, []schema.Child{
		{Name: "CustomerRef", Cardinality: schema.CardinalityOne},
		{Name: "InvoiceLineAdd", Cardinality: schema.CardinalityRepeated},
	}, add.Children)
	assert.Equal(t, []string{"CustomerRef", "TxnDate", "RefNumber", "Memo", "InvoiceLineAdd"}, add.Sequence)

	q, ok := m.Type("CustomerQueryRq")
	require.True(t, ok)

	listID, ok := q.Field("ListID")
	require.True(t, ok)
	assert.Equal(t, schema.CardinalityRepeated, listID.Cardinality)

	rs, ok := m.Type("InvoiceAddRs")
	require.True(t, ok)
	assert.Len(t, rs.Fields, 4)

	_, isType := m.Type("ListID")
	assert.False(t, isType, "leaf elements are fields, not types")
}

func TestCompileInvoice(t *testing.T) {
	m := testutil.Invoice(t)

	assert.Equal(t, "C", m.Root())
	assert.Equal(t, []string{"C", "Invoice"}, m.Names())

	inv, ok := m.Type("Invoice")
	require.True(t, ok)
	assert.Equal(t, "Invoice(amount, RefNumber)", inv.String())
}

func TestCompileExclusiveBranches(t *testing.T) {
	m := testutil.Compile(t, `
<!ELEMENT R ((A, B) | (C, B))>
<!ELEMENT A (#PCDATA)>
<!ELEMENT B (#PCDATA)>
<!ELEMENT C (#PCDATA)>
`)

	assert.Equal(t, "R(A?, B, C?)", m.RootType().String())
	assert.Equal(t, []string{"A", "B", "C"}, m.RootType().Sequence)
}

func TestCompileExplicitRoot(t *testing.T) {
	grammar := `
<!ELEMENT A (B?)>
<!ELEMENT B (v)>
<!ELEMENT Other (v)>
<!ELEMENT v (#PCDATA)>
`
	_, err := dtd.Compile([]byte(grammar), dtd.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), dtd.CodeRoot)

	m, diags := dtd.Analyze([]byte(grammar), dtd.Options{Root: "A"})
	require.NotNil(t, m)
	assert.Equal(t, "A", m.Root())
	require.Len(t, diags.Warnings, 1)
	assert.Equal(t, dtd.CodeUnreachable, diags.Warnings[0].Code)
	assert.Equal(t, "Other", diags.Warnings[0].Element)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name     string
		grammar  string
		opts     dtd.Options
		wantCode string
		wantLine int
	}{
		{
			name:     "duplicate type",
			grammar:  "<!ELEMENT R (A)>\n<!ELEMENT A EMPTY>\n<!ELEMENT A EMPTY>",
			wantCode: dtd.CodeDuplicateType,
			wantLine: 3,
		},
		{
			name:     "undeclared reference",
			grammar:  "<!ELEMENT R (A, Missing)>\n<!ELEMENT A EMPTY>",
			wantCode: dtd.CodeUndeclared,
			wantLine: 1,
		},
		{
			name:     "cycle",
			grammar:  "<!ELEMENT R (A)>\n<!ELEMENT A (B)>\n<!ELEMENT B (A?)>",
			wantCode: dtd.CodeCycle,
			wantLine: 2,
		},
		{
			name:     "malformed group",
			grammar:  "<!ELEMENT R (A, B | C)>",
			wantCode: dtd.CodeMalformed,
			wantLine: 1,
		},
		{
			name:     "unterminated declaration",
			grammar:  "<!ELEMENT R (A)",
			wantCode: dtd.CodeMalformed,
			wantLine: 1,
		},
		{
			name:     "mixed content",
			grammar:  "<!ELEMENT R (#PCDATA | A)*>\n<!ELEMENT A EMPTY>",
			wantCode: dtd.CodeUnsupported,
			wantLine: 1,
		},
		{
			name:     "ANY content",
			grammar:  "<!ELEMENT R ANY>",
			wantCode: dtd.CodeUnsupported,
			wantLine: 1,
		},
		{
			name:     "undefined entity",
			grammar:  "<!ELEMENT R %nothing;>",
			wantCode: dtd.CodeUndefinedRef,
			wantLine: 1,
		},
		{
			name:     "attlist on undeclared element",
			grammar:  "<!ELEMENT R EMPTY>\n<!ATTLIST Ghost id CDATA #IMPLIED>",
			wantCode: dtd.CodeUndeclared,
			wantLine: 2,
		},
		{
			name:     "attlist on leaf",
			grammar:  "<!ELEMENT R (v)>\n<!ELEMENT v (#PCDATA)>\n<!ATTLIST v id CDATA #IMPLIED>",
			wantCode: dtd.CodeUnsupported,
			wantLine: 3,
		},
		{
			name:     "bad attribute default",
			grammar:  "<!ELEMENT R EMPTY>\n<!ATTLIST R id CDATA #SOMETIMES>",
			wantCode: dtd.CodeMalformed,
			wantLine: 2,
		},
		{
			name:     "stray text",
			grammar:  "<!ELEMENT R EMPTY>\nhello",
			wantCode: dtd.CodeMalformed,
			wantLine: 2,
		},
		{
			name:     "unknown explicit root",
			grammar:  "<!ELEMENT R EMPTY>",
			opts:     dtd.Options{Root: "Nope"},
			wantCode: dtd.CodeRoot,
		},
		{
			name:     "empty grammar",
			grammar:  "<!-- nothing here -->",
			wantCode: dtd.CodeRoot,
		},
		{
			name:     "field and attribute clash",
			grammar:  "<!ELEMENT R (v)>\n<!ELEMENT v (#PCDATA)>\n<!ATTLIST R v CDATA #IMPLIED>",
			wantCode: dtd.CodeInvalidModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := dtd.Compile([]byte(tt.grammar), tt.opts)
			require.Error(t, err)
			assert.Nil(t, m)

			var ge *dtd.GrammarError
			require.ErrorAs(t, err, &ge)
			assert.Contains(t, ge.Diagnostics.Codes(), tt.wantCode)

			if tt.wantLine > 0 {
				found := false

				for _, d := range ge.Diagnostics.Errors {
					if d.Code == tt.wantCode && d.Line == tt.wantLine {
						found = true
					}
				}

				assert.True(t, found, "no %s diagnostic on line %d: %v", tt.wantCode, tt.wantLine, ge)
			}
		})
	}
}

func TestCompileReportsAllErrors(t *testing.T) {
	grammar := `
<!ELEMENT R (A, B)>
<!ELEMENT A (Missing1)>
<!ELEMENT B (Missing2)>
`
	_, err := dtd.Compile([]byte(grammar), dtd.Options{})

	var ge *dtd.GrammarError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, []string{dtd.CodeUndeclared, dtd.CodeUndeclared}, ge.Diagnostics.Codes())
}

func TestCompileFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qbxmlops70.xml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.InvoiceGrammar), 0o644))

	m, err := dtd.CompileFile(path, dtd.Options{})
	require.NoError(t, err)
	assert.Equal(t, "C", m.Root())

	bad := filepath.Join(dir, "bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte("<!ELEMENT R (A)>"), 0o644))

	_, err = dtd.CompileFile(bad, dtd.Options{})

	var ge *dtd.GrammarError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, bad, ge.Source)
	assert.Contains(t, err.Error(), "grammar "+bad)

	_, err = dtd.CompileFile(filepath.Join(dir, "missing.xml"), dtd.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read grammar")
}
