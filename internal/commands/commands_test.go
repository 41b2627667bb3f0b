package commands_test

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"qbxml-mapper/api"
	"qbxml-mapper/internal/commands"
	"qbxml-mapper/internal/template"
	"qbxml-mapper/internal/testutil"
)

const invoiceDoc = `<C><Invoice amount="42" RefNumber="A1"/></C>`

// workspace switches into a temporary directory holding the grammar as g.dtd.
func workspace(t *testing.T, grammar string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "g.dtd"), []byte(grammar), 0o600))
	t.Chdir(dir)

	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := commands.RootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.Execute()

	return out.String(), err
}

func TestRootCmdFlags(t *testing.T) {
	var cmd *cobra.Command

	require.NotPanics(t, func() { cmd = commands.RootCmd() })

	for _, name := range []string{"schema", "grammar", "cache", "ambiguity", "max-bytes", "log-format"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestParse(t *testing.T) {
	workspace(t, testutil.InvoiceGrammar)

	body := map[string]any{
		"Invoice": []any{map[string]any{"amount": "42", "RefNumber": "A1"}},
	}

	tests := []struct {
		name   string
		args   []string
		decode func([]byte, any) error
		want   map[string]any
	}{
		{
			name:   "json with root",
			args:   []string{"parse", "--grammar", "g.dtd"},
			decode: json.Unmarshal,
			want:   map[string]any{"C": body},
		},
		{
			name:   "yaml without root",
			args:   []string{"parse", "--grammar", "g.dtd", "-f", "yaml", "--with-root=false", "-"},
			decode: yaml.Unmarshal,
			want:   body,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, invoiceDoc, tt.args...)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, tt.decode([]byte(out), &got))

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("parse output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := workspace(t, testutil.InvoiceGrammar)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.xml"), []byte(invoiceDoc), 0o600))

	out, err := run(t, "", "parse", "--grammar", "g.dtd", "in.xml")
	require.NoError(t, err)
	assert.Contains(t, out, `"RefNumber": "A1"`)

	_, err = run(t, "", "parse", "--grammar", "g.dtd", "missing.xml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, `<C><Bill/></C>`, "parse", "--grammar", "g.dtd")
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	dir := workspace(t, testutil.InvoiceGrammar)
	want := "<C><Invoice><amount>42</amount><RefNumber>A1</RefNumber></Invoice></C>\n"

	out, err := run(t, `{"Invoice": {"amount": 42, "RefNumber": "A1"}}`,
		"render", "--grammar", "g.dtd", "--compact")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.True(t, strings.HasSuffix(out, want), out)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.yaml"),
		[]byte("Invoice:\n  amount: 42\n  RefNumber: A1\n"), 0o600))

	fromYAML, err := run(t, "", "render", "--grammar", "g.dtd", "--compact", "in.yaml")
	require.NoError(t, err)
	assert.Equal(t, out, fromYAML)

	_, err = run(t, `{"Bill": {}}`, "render", "--grammar", "g.dtd")
	assert.Error(t, err)

	_, err = run(t, `not json`, "render", "--grammar", "g.dtd")
	assert.ErrorContains(t, err, "failed to decode JSON input")

	_, err = run(t, `{}`, "render", "--grammar", "g.dtd", "-f", "toml")
	assert.ErrorContains(t, err, `unknown format "toml"`)
}

func TestLocate(t *testing.T) {
	workspace(t, testutil.QBXMLGrammar)

	out, err := run(t, "", "locate", "--grammar", "g.dtd", "InvoiceAdd", "ItemRef")
	require.NoError(t, err)
	assert.Equal(t,
		"InvoiceAdd\tQBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd\n"+
			"ItemRef\tQBXML/QBXMLMsgsRq/InvoiceAddRq/InvoiceAdd/InvoiceLineAdd/ItemRef\n", out)

	_, err = run(t, "", "locate", "--grammar", "g.dtd", "Bill")
	assert.ErrorIs(t, err, template.ErrNotFound)

	_, err = run(t, "", "locate", "--grammar", "g.dtd", "--ambiguity", "strict", "CustomerRef")
	assert.ErrorIs(t, err, template.ErrAmbiguous)

	_, err = run(t, "", "locate", "--grammar", "g.dtd")
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	dir := workspace(t, testutil.InvoiceGrammar)

	out, err := run(t, "", "compile", "--grammar", "g.dtd", "--cache-dir", "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "compiled 2 types, root C\n")
	assert.FileExists(t, filepath.Join(dir, "cache", "qb.msgpack.zst"))

	_, err = run(t, "", "compile", "--grammar", "g.dtd", "--cache-format", "yaml", "--cache-dir", "cache")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "cache", "qb.yaml"))

	_, err = run(t, "", "compile", "--grammar", "g.dtd", "--cache-format", "gob")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	workspace(t, testutil.InvoiceGrammar)

	out, err := run(t, "", "schema", "--grammar", "g.dtd", "--brief")
	require.NoError(t, err)
	assert.Equal(t, "C(Invoice*)\nInvoice(amount, RefNumber)\n", out)

	out, err = run(t, "", "schema", "--grammar", "g.dtd")
	require.NoError(t, err)

	var snap struct {
		Root  string `yaml:"root"`
		Types []struct {
			Name string `yaml:"name"`
		} `yaml:"types"`
	}

	require.NoError(t, yaml.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "C", snap.Root)
	require.Len(t, snap.Types, 2)
	assert.Equal(t, "Invoice", snap.Types[1].Name)
}

func TestDump(t *testing.T) {
	workspace(t, testutil.QBXMLGrammar)

	doc := `<?xml version="1.0"?>
<?qbxml version="7.0"?>
<QBXML><QBXMLMsgsRq onError="stopOnError"><CustomerQueryRq><FullName>Kristy</FullName></CustomerQueryRq></QBXMLMsgsRq></QBXML>`

	out, err := run(t, doc, "dump", "--grammar", "g.dtd")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "version 7.0\n"), out)
	assert.Contains(t, out, `"QBXML"`)
	assert.Contains(t, out, `"Kristy"`)
	assert.NotContains(t, out, "0x")
}

func TestConfigFile(t *testing.T) {
	dir := workspace(t, testutil.QBXMLGrammar)

	cfg := "schema:\n  file: g.dtd\nmapping:\n  ambiguity: strict\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "qbxml-mapper.yaml"), []byte(cfg), 0o600))

	_, err := run(t, "", "locate", "CustomerRef")
	assert.ErrorIs(t, err, template.ErrAmbiguous)

	out, err := run(t, "", "locate", "--ambiguity", "first", "CustomerRef")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "CustomerRef\tQBXML/"), out)

	_, err = run(t, "", "locate", "--config", "missing.yaml", "CustomerRef")
	assert.ErrorContains(t, err, "failed to read config")
}

func TestSchemaTypeErrors(t *testing.T) {
	workspace(t, testutil.InvoiceGrammar)

	_, err := run(t, "", "schema", "--schema", "qbfr")
	assert.ErrorIs(t, err, api.ErrSchemaType)

	_, err = run(t, "", "schema", "--schema-dir", "nowhere")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "", "schema", "--grammar", "g.dtd", "--max-bytes", "-1")
	assert.ErrorContains(t, err, "must not be negative")
}
