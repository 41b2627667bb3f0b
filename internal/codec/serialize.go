package codec

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"qbxml-mapper/internal/object"
	"qbxml-mapper/internal/schema"
)

// DefaultIndent is the indentation used when SerializeOptions.Indent is unset
// and Compact is false.
const DefaultIndent = "  "

const xmlHeader = `<?xml version="1.0" encoding="utf-8"?>`

// DefaultInstruction is the processing instruction that carries the
// document version.
const DefaultInstruction = "qbxml"

// SerializeOptions tune document output.
type SerializeOptions struct {
	// Version, when set, emits <?qbxml version="..."?> after the XML header.
	Version string
	// Instruction overrides DefaultInstruction, e.g. "qbposxml".
	Instruction string
	// Indent overrides DefaultIndent.
	Indent string
	// Compact writes everything on one line.
	Compact bool
	// OmitHeader drops the XML declaration and the qbxml instruction.
	OmitHeader bool
}

// Serialize renders the graph rooted at n as a document.
func Serialize(n *object.Node, opts SerializeOptions) (string, error) {
	var b strings.Builder

	if err := Encode(&b, n, opts); err != nil {
		return "", err
	}

	return b.String(), nil
}

// Encode writes the graph rooted at n to w.
func Encode(w io.Writer, n *object.Node, opts SerializeOptions) error {
	bw := bufio.NewWriter(w)

	if !opts.OmitHeader {
		bw.WriteString(xmlHeader)
		bw.WriteByte('\n')

		if opts.Version != "" {
			target := opts.Instruction
			if target == "" {
				target = DefaultInstruction
			}

			fmt.Fprintf(bw, "<?%s version=%q?>\n", target, opts.Version)
		}
	}

	enc := xml.NewEncoder(bw)

	if !opts.Compact {
		indent := opts.Indent
		if indent == "" {
			indent = DefaultIndent
		}

		enc.Indent("", indent)
	}

	if err := encodeNode(enc, n); err != nil {
		return fmt.Errorf("failed to encode %s: %w", n.Name(), err)
	}

	if err := enc.Flush(); err != nil {
		return fmt.Errorf("failed to encode %s: %w", n.Name(), err)
	}

	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	return nil
}

func encodeNode(enc *xml.Encoder, n *object.Node) error {
	t := n.Type()
	start := xml.StartElement{Name: xml.Name{Local: t.Name}}

	for _, f := range t.Fields {
		if f.Kind != schema.FieldAttribute {
			continue
		}

		if v, ok := n.Value(f.Name); ok {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: f.Name}, Value: attrText(v)})
		}
	}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	var repeated []string

	for _, name := range t.Sequence {
		if c, ok := t.Child(name); ok {
			if c.Cardinality.IsRepeated() {
				repeated = append(repeated, name)

				continue
			}

			if err := encodeChildren(enc, n.Children(name)); err != nil {
				return err
			}

			continue
		}

		v, ok := n.Value(name)
		if !ok {
			continue
		}

		for _, item := range values(v) {
			if err := encodeLeaf(enc, name, object.FormatScalar(item)); err != nil {
				return err
			}
		}
	}

	for _, name := range repeated {
		if err := encodeChildren(enc, n.Children(name)); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func encodeChildren(enc *xml.Encoder, children []*object.Node) error {
	for _, c := range children {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}

	return nil
}

func encodeLeaf(enc *xml.Encoder, name, text string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}

	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	if text != "" {
		if err := enc.EncodeToken(xml.CharData(text)); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func values(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}

	return []any{v}
}

// attrText renders an attribute value; a list becomes a space-separated
// token list.
func attrText(v any) string {
	list := values(v)
	parts := make([]string, len(list))

	for i, item := range list {
		parts[i] = object.FormatScalar(item)
	}

	return strings.Join(parts, " ")
}
