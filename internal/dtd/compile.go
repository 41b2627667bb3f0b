package dtd

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"qbxml-mapper/internal/diagnostic"
	"qbxml-mapper/internal/schema"
)

// Diagnostic codes reported by the compiler.
const (
	CodeMalformed      = "malformed_declaration"
	CodeUnsupported    = "unsupported_declaration"
	CodeDuplicateType  = "duplicate_type"
	CodeUndeclared     = "undeclared_type"
	CodeUndefinedRef   = "undefined_entity"
	CodeCycle          = "cyclic_nesting"
	CodeRoot           = "invalid_root"
	CodeInvalidModel   = "invalid_model"
	CodeDuplicateAttr  = "duplicate_attribute"
	CodeUnreachable    = "unreachable_element"
	CodeGeneralEntity  = "general_entity_ignored"
	maxEntityExpansion = 16
)

// Options tune grammar compilation.
type Options struct {
	// Root names the container type. When empty, the single non-leaf element
	// that no other element references is used.
	Root string
}

// GrammarError reports why a grammar could not be compiled.
type GrammarError struct {
	// Source is the grammar file path, when known.
	Source      string
	Diagnostics diagnostic.Diagnostics
}

func (e *GrammarError) Error() string {
	msg := e.Diagnostics.Error().Error()
	if e.Source != "" {
		return fmt.Sprintf("grammar %s: %s", e.Source, msg)
	}

	return "grammar: " + msg
}

// elementDecl is a parsed ELEMENT declaration.
type elementDecl struct {
	name    string
	line    int
	kind    contentKind
	members []member
}

// attlistDecl is a parsed ATTLIST declaration.
type attlistDecl struct {
	element string
	line    int
	defs    []attrDef
}

var entityRef = regexp.MustCompile(`%([A-Za-z_:][A-Za-z0-9._:-]*);`)

// CompileFile reads and compiles the grammar at path.
func CompileFile(path string, opts Options) (*schema.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar %s: %w", path, err)
	}

	m, err := Compile(data, opts)

	var ge *GrammarError
	if errors.As(err, &ge) {
		ge.Source = path
	}

	return m, err
}

// Compile compiles grammar source into a schema model. Either every declared
// type compiles or a *GrammarError listing every problem is returned.
func Compile(src []byte, opts Options) (*schema.Model, error) {
	m, diags := Analyze(src, opts)
	if diags.HasErrors() {
		return nil, &GrammarError{Diagnostics: diags}
	}

	return m, nil
}

// Analyze compiles grammar source and returns the model together with every
// warning and error found. The model is nil whenever errors are present.
func Analyze(src []byte, opts Options) (*schema.Model, diagnostic.Diagnostics) {
	c := &compiler{
		entities: map[string]string{},
		elements: map[string]*elementDecl{},
	}

	c.scan(string(src))
	c.parseDeclarations()

	types := c.buildTypes()
	root := c.selectRoot(opts.Root)

	if cycle := schema.DetectCycle(types); len(cycle) > 0 {
		c.diags.AddError(CodeCycle,
			fmt.Sprintf("elements nest into themselves: %s", strings.Join(cycle, " -> ")),
			cycle[0], c.lineOf(cycle[0]))
	}

	if c.diags.HasErrors() {
		return nil, c.diags
	}

	m, err := schema.NewModel(root, types)
	if err != nil {
		c.diags.AddError(CodeInvalidModel, err.Error(), "", 0)

		return nil, c.diags
	}

	c.warnUnreachable(m)

	return m, c.diags
}

type compiler struct {
	diags    diagnostic.Diagnostics
	raw      []decl
	entities map[string]string
	elements map[string]*elementDecl
	order    []*elementDecl
	attlists []attlistDecl
}

// scan splits the source into declarations and records parameter entities.
func (c *compiler) scan(src string) {
	s := newScanner(src)

	for {
		d, ok, err := s.next()
		if !ok {
			return
		}

		if err != nil {
			line := 0

			var se *scanError
			if errors.As(err, &se) {
				line = se.line
			}

			c.diags.AddError(CodeMalformed, err.Error(), "", line)

			continue
		}

		if d.kind == declEntity {
			c.entity(d)

			continue
		}

		c.raw = append(c.raw, d)
	}
}

func (c *compiler) entity(d decl) {
	toks, err := tokenize(d.body)
	if err != nil {
		c.diags.AddError(CodeMalformed, "ENTITY: "+err.Error(), "", d.line)

		return
	}

	if len(toks) == 0 || toks[0].text != "%" {
		c.diags.AddWarning(CodeGeneralEntity, "general entities are not expanded", "", d.line)

		return
	}

	if len(toks) != 3 || toks[1].kind != tokName || toks[2].kind != tokLiteral {
		c.diags.AddError(CodeUnsupported, "only internal parameter entities are supported", "", d.line)

		return
	}

	// First declaration binds, as in XML.
	if _, ok := c.entities[toks[1].text]; !ok {
		c.entities[toks[1].text] = toks[2].text
	}
}

// expand replaces %name; references in body.
func (c *compiler) expand(body string) (string, error) {
	for range maxEntityExpansion {
		if !strings.Contains(body, "%") {
			return body, nil
		}

		var missing string

		body = entityRef.ReplaceAllStringFunc(body, func(ref string) string {
			name := ref[1 : len(ref)-1]

			v, ok := c.entities[name]
			if !ok {
				missing = name

				return ref
			}

			return v
		})

		if missing != "" {
			return "", fmt.Errorf("parameter entity %%%s; is not declared", missing)
		}

		if !entityRef.MatchString(body) {
			return body, nil
		}
	}

	return "", fmt.Errorf("parameter entities nest deeper than %d levels", maxEntityExpansion)
}

func (c *compiler) parseDeclarations() {
	for _, d := range c.raw {
		body, err := c.expand(d.body)
		if err != nil {
			c.diags.AddError(CodeUndefinedRef, err.Error(), "", d.line)

			continue
		}

		toks, err := tokenize(body)
		if err != nil {
			c.diags.AddError(CodeMalformed, fmt.Sprintf("%s: %v", d.kind, err), "", d.line)

			continue
		}

		switch d.kind {
		case declElement:
			c.element(toks, d.line)
		case declAttlist:
			element, defs, err := parseAttlist(toks)
			if err != nil {
				c.diags.AddError(CodeMalformed, "ATTLIST: "+err.Error(), element, d.line)

				continue
			}

			c.attlists = append(c.attlists, attlistDecl{element: element, line: d.line, defs: defs})
		case declNotation:
			// Notations carry no structure.
		}
	}
}

func (c *compiler) element(toks []token, line int) {
	if len(toks) == 0 || toks[0].kind != tokName {
		c.diags.AddError(CodeMalformed, "ELEMENT requires a name", "", line)

		return
	}

	name := toks[0].text

	kind, members, err := parseContentSpec(toks[1:])
	if err != nil {
		code := CodeMalformed
		if errors.Is(err, errUnsupported) {
			code = CodeUnsupported
		}

		c.diags.AddError(code, err.Error(), name, line)

		return
	}

	if prev, ok := c.elements[name]; ok {
		c.diags.AddError(CodeDuplicateType,
			fmt.Sprintf("element %q already declared on line %d", name, prev.line), name, line)

		return
	}

	ed := &elementDecl{name: name, line: line, kind: kind, members: members}
	c.elements[name] = ed
	c.order = append(c.order, ed)
}

// buildTypes turns non-leaf elements into node types. Leaf references
// become element fields; ATTLIST entries become attribute fields. The
// content-model order of both is kept as the type's sequence.
func (c *compiler) buildTypes() []*schema.NodeType {
	types := make([]*schema.NodeType, 0, len(c.order))
	byName := make(map[string]*schema.NodeType, len(c.order))

	for _, ed := range c.order {
		if ed.kind == contentText {
			continue
		}

		t := &schema.NodeType{Name: ed.name}

		for _, m := range ed.members {
			ref, ok := c.elements[m.name]
			if !ok {
				c.diags.AddError(CodeUndeclared,
					fmt.Sprintf("element %q is referenced but never declared", m.name), ed.name, ed.line)

				continue
			}

			if ref.kind == contentText {
				t.Fields = append(t.Fields, schema.Field{Name: m.name, Kind: schema.FieldElement, Cardinality: m.card})
			} else {
				t.Children = append(t.Children, schema.Child{Name: m.name, Cardinality: m.card})
			}

			t.Sequence = append(t.Sequence, m.name)
		}

		types = append(types, t)
		byName[t.Name] = t
	}

	for _, al := range c.attlists {
		ed, ok := c.elements[al.element]
		if !ok {
			c.diags.AddError(CodeUndeclared,
				fmt.Sprintf("ATTLIST for undeclared element %q", al.element), al.element, al.line)

			continue
		}

		if ed.kind == contentText {
			c.diags.AddError(CodeUnsupported,
				fmt.Sprintf("attributes on text-only element %q are not supported", al.element), al.element, al.line)

			continue
		}

		t := byName[al.element]

		for _, def := range al.defs {
			if hasAttribute(t, def.name) {
				c.diags.AddWarning(CodeDuplicateAttr,
					fmt.Sprintf("attribute %q already defined; first definition wins", def.name), al.element, al.line)

				continue
			}

			t.Fields = append(t.Fields, def.field())
		}
	}

	return types
}

func hasAttribute(t *schema.NodeType, name string) bool {
	for _, f := range t.Fields {
		if f.Name == name && f.Kind == schema.FieldAttribute {
			return true
		}
	}

	return false
}

// selectRoot validates an explicit root or infers the single unreferenced
// non-leaf element.
func (c *compiler) selectRoot(explicit string) string {
	if explicit != "" {
		ed, ok := c.elements[explicit]

		switch {
		case !ok:
			c.diags.AddError(CodeRoot, fmt.Sprintf("root element %q is not declared", explicit), explicit, 0)
		case ed.kind == contentText:
			c.diags.AddError(CodeRoot, fmt.Sprintf("root element %q is text-only", explicit), explicit, ed.line)
		}

		return explicit
	}

	referenced := map[string]bool{}

	for _, ed := range c.order {
		for _, m := range ed.members {
			if m.name != ed.name {
				referenced[m.name] = true
			}
		}
	}

	var candidates []string

	for _, ed := range c.order {
		if ed.kind != contentText && !referenced[ed.name] {
			candidates = append(candidates, ed.name)
		}
	}

	switch len(candidates) {
	case 1:
		return candidates[0]
	case 0:
		if len(c.order) > 0 {
			c.diags.AddError(CodeRoot, "no element qualifies as the container root", "", 0)
		} else {
			c.diags.AddError(CodeRoot, "grammar declares no elements", "", 0)
		}
	default:
		c.diags.AddError(CodeRoot,
			fmt.Sprintf("several elements could be the container root: %s", strings.Join(candidates, ", ")), "", 0)
	}

	return ""
}

// warnUnreachable flags node types that cannot be reached from the root.
func (c *compiler) warnUnreachable(m *schema.Model) {
	seen := map[string]bool{}
	stack := []string{m.Root()}

	for len(stack) > 0 {
		name := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[name] {
			continue
		}

		seen[name] = true

		t, _ := m.Type(name)
		for _, ch := range t.Children {
			stack = append(stack, ch.Name)
		}
	}

	for _, t := range m.Types() {
		if !seen[t.Name] {
			c.diags.AddWarning(CodeUnreachable,
				fmt.Sprintf("element %q is not reachable from %q", t.Name, m.Root()), t.Name, c.lineOf(t.Name))
		}
	}
}

func (c *compiler) lineOf(name string) int {
	if ed, ok := c.elements[name]; ok {
		return ed.line
	}

	return 0
}
