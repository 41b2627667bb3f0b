package codec

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"qbxml-mapper/internal/object"
	"qbxml-mapper/internal/schema"
)

// ParseOptions tune document parsing.
type ParseOptions struct {
	// Strict requires every mandatory field and child to be present.
	Strict bool
	// MaxBytes bounds the input size; zero means unlimited.
	MaxBytes int64
}

// Document is a parsed qbXML document.
type Document struct {
	Root *object.Node
	// Version is taken from the <?qbxml version="..."?> or
	// <?qbposxml version="..."?> instruction, if any.
	Version string
}

// frame is one open element. Text-only elements have a nil node and fill
// field of the node beneath them.
type frame struct {
	name  string
	node  *object.Node
	field schema.Field
	text  strings.Builder
}

type parser struct {
	model   *schema.Model
	dec     *xml.Decoder
	stack   []*frame
	root    *object.Node
	closed  bool
	version string
}

// Parse reads one document conforming to m. Either the whole document is
// accepted or a *ParseError is returned with no graph.
func Parse(m *schema.Model, r io.Reader, opts ParseOptions) (*Document, error) {
	if opts.MaxBytes > 0 {
		r = &limitedReader{r: r, n: opts.MaxBytes}
	}

	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	p := &parser{model: m, dec: dec}

	if err := p.run(); err != nil {
		return nil, err
	}

	if p.root == nil {
		return nil, &ParseError{Err: ErrEmptyDocument}
	}

	if opts.Strict {
		if err := p.root.Validate(); err != nil {
			return nil, &ParseError{Element: p.root.Name(), Err: err}
		}
	}

	return &Document{Root: p.root, Version: p.version}, nil
}

func (p *parser) run() error {
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return p.readError(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			err = p.start(t)
		case xml.EndElement:
			err = p.end()
		case xml.CharData:
			err = p.text(t)
		case xml.ProcInst:
			if t.Target == DefaultInstruction || t.Target == "qbposxml" {
				p.version = procInstParam(string(t.Inst), "version")
			}
		}

		if err != nil {
			return err
		}
	}
}

func (p *parser) start(t xml.StartElement) error {
	name := t.Name.Local

	if len(p.stack) == 0 {
		if p.closed {
			return p.fail(name, fmt.Errorf("%w: %q after the end of %q", ErrUnexpectedRoot, name, p.root.Name()))
		}

		if name != p.model.Root() {
			return p.fail(name, fmt.Errorf("%w: got %q, want %q", ErrUnexpectedRoot, name, p.model.Root()))
		}

		p.root = object.New(p.model.RootType())
		p.stack = append(p.stack, &frame{name: name, node: p.root})

		return p.attrs(p.root, t.Attr)
	}

	top := p.stack[len(p.stack)-1]
	if top.node == nil {
		return p.fail(name, fmt.Errorf("%w: %q is text-only", ErrUnknownElement, top.name))
	}

	parent := top.node.Type()

	if f, ok := parent.Field(name); ok {
		if f.Kind != schema.FieldElement {
			return p.fail(name, fmt.Errorf("%w: %q is an attribute of %q", ErrUnknownElement, name, parent.Name))
		}

		if len(t.Attr) > 0 {
			return p.fail(name, fmt.Errorf("%w %q on text-only element", ErrUnknownAttribute, t.Attr[0].Name.Local))
		}

		p.stack = append(p.stack, &frame{name: name, field: f})

		return nil
	}

	if _, ok := parent.Child(name); !ok {
		return p.fail(name, fmt.Errorf("%w: %q is not declared in %q", ErrUnknownElement, name, parent.Name))
	}

	ct, _ := p.model.Type(name)
	n := object.New(ct)

	if err := top.node.AddChild(n); err != nil {
		return p.fail(name, p.memberError(err))
	}

	p.stack = append(p.stack, &frame{name: name, node: n})

	return p.attrs(n, t.Attr)
}

// attrs fills fields from markup attributes. Element fields given as
// attributes are accepted as well.
func (p *parser) attrs(n *object.Node, attrs []xml.Attr) error {
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}

		if _, ok := n.Type().Field(a.Name.Local); !ok {
			return p.fail(n.Name(), fmt.Errorf("%w %q", ErrUnknownAttribute, a.Name.Local))
		}

		if err := n.AddValue(a.Name.Local, a.Value); err != nil {
			return p.fail(n.Name(), p.memberError(err))
		}
	}

	return nil
}

func (p *parser) end() error {
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	if top.node == nil {
		owner := p.stack[len(p.stack)-1].node
		if err := owner.AddValue(top.field.Name, top.text.String()); err != nil {
			return p.fail(top.name, p.memberError(err))
		}

		return nil
	}

	if len(p.stack) == 0 {
		p.closed = true
	}

	return nil
}

func (p *parser) text(t xml.CharData) error {
	if len(p.stack) > 0 {
		if top := p.stack[len(p.stack)-1]; top.node == nil {
			top.text.Write(t)

			return nil
		}
	}

	if isSpace(t) {
		return nil
	}

	name := ""
	if len(p.stack) > 0 {
		name = p.stack[len(p.stack)-1].name
	}

	return p.fail(name, fmt.Errorf("%w %q", ErrUnexpectedText, snippet(string(t))))
}

func (p *parser) memberError(err error) error {
	if errors.Is(err, object.ErrNotRepeatable) {
		return fmt.Errorf("%w: %w", ErrRepeated, err)
	}

	return err
}

func (p *parser) fail(element string, err error) error {
	line, _ := p.dec.InputPos()

	return &ParseError{Element: element, Line: line, Err: err}
}

func (p *parser) readError(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Element: p.current(), Line: se.Line, Err: fmt.Errorf("%w: %s", ErrMalformed, se.Msg)}
	}

	line, _ := p.dec.InputPos()

	return &ParseError{Element: p.current(), Line: line, Err: err}
}

func (p *parser) current() string {
	if len(p.stack) == 0 {
		return ""
	}

	return p.stack[len(p.stack)-1].name
}

// procInstParam returns the value of param in a processing instruction
// body such as `version="7.0"`.
func procInstParam(inst, param string) string {
	idx := strings.Index(inst, param)
	for idx >= 0 {
		rest := strings.TrimLeftFunc(inst[idx+len(param):], unicode.IsSpace)
		if value, ok := strings.CutPrefix(rest, "="); ok {
			value = strings.TrimLeftFunc(value, unicode.IsSpace)
			if len(value) > 0 && (value[0] == '"' || value[0] == '\'') {
				if end := strings.IndexByte(value[1:], value[0]); end >= 0 {
					return value[1 : end+1]
				}
			}
		}

		next := strings.Index(inst[idx+len(param):], param)
		if next < 0 {
			break
		}

		idx += len(param) + next
	}

	return ""
}

// charsetReader lets documents that declare an ASCII encoding through; any
// other non-UTF-8 encoding is rejected.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", charset)
	}
}

func isSpace(b []byte) bool {
	for _, r := range string(b) {
		if r != '\uFEFF' && !unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 24 {
		s = s[:24] + "..."
	}

	return s
}

type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(b []byte) (int, error) {
	if l.n <= 0 {
		// Probe for one more byte to tell an exact fit from an overflow.
		var probe [1]byte

		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrTooLarge
		}

		return 0, err
	}

	if int64(len(b)) > l.n {
		b = b[:l.n]
	}

	n, err := l.r.Read(b)
	l.n -= int64(n)

	return n, err
}
