package dtd

import (
	"fmt"
	"strings"
)

// declKind identifies a markup declaration keyword.
type declKind string

const (
	declElement  declKind = "ELEMENT"
	declAttlist  declKind = "ATTLIST"
	declEntity   declKind = "ENTITY"
	declNotation declKind = "NOTATION"
)

// decl is one <!KEYWORD body> markup declaration.
type decl struct {
	kind declKind
	body string
	line int
}

// scanner splits grammar source into markup declarations, skipping comments,
// processing instructions and whitespace.
type scanner struct {
	src  string
	pos  int
	line int
}

func newScanner(src string) *scanner {
	return &scanner{src: strings.TrimPrefix(src, "\uFEFF"), line: 1}
}

// next returns the next declaration. ok is false at end of input.
// A malformed construct yields ok and a non-nil error; the scanner
// resynchronizes on the next '<' so later declarations are still reported.
func (s *scanner) next() (decl, bool, error) {
	for {
		s.skipSpace()

		if s.pos >= len(s.src) {
			return decl{}, false, nil
		}

		rest := s.src[s.pos:]

		switch {
		case strings.HasPrefix(rest, "<!--"):
			if err := s.skipPast("-->"); err != nil {
				return decl{}, true, err
			}

			continue
		case strings.HasPrefix(rest, "<?"):
			if err := s.skipPast("?>"); err != nil {
				return decl{}, true, err
			}

			continue
		case strings.HasPrefix(rest, "<!"):
			return s.declaration()
		default:
			line := s.line
			s.resync()

			return decl{}, true, &scanError{line: line, msg: fmt.Sprintf("unexpected text %q", snippet(rest))}
		}
	}
}

func (s *scanner) declaration() (decl, bool, error) {
	line := s.line
	s.advance(2)

	start := s.pos
	for s.pos < len(s.src) && isNameByte(s.src[s.pos]) {
		s.pos++
	}

	keyword := s.src[start:s.pos]

	body, err := s.readBody()
	if err != nil {
		return decl{}, true, &scanError{line: line, msg: err.Error()}
	}

	switch k := declKind(keyword); k {
	case declElement, declAttlist, declEntity, declNotation:
		return decl{kind: k, body: strings.TrimSpace(body), line: line}, true, nil
	default:
		return decl{}, true, &scanError{line: line, msg: fmt.Sprintf("unknown declaration <!%s", keyword)}
	}
}

// readBody consumes up to and including the closing '>' that is not inside
// a quoted literal and returns the text before it.
func (s *scanner) readBody() (string, error) {
	start := s.pos
	var quote byte

	for s.pos < len(s.src) {
		c := s.src[s.pos]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			body := s.src[start:s.pos]
			s.advance(1)

			return body, nil
		case c == '<':
			return "", fmt.Errorf("declaration not terminated by '>'")
		}

		s.advance(1)
	}

	return "", fmt.Errorf("unexpected end of grammar inside declaration")
}

func (s *scanner) skipPast(terminator string) error {
	line := s.line

	i := strings.Index(s.src[s.pos:], terminator)
	if i < 0 {
		s.advance(len(s.src) - s.pos)

		return &scanError{line: line, msg: fmt.Sprintf("missing %q", terminator)}
	}

	s.advance(i + len(terminator))

	return nil
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.advance(1)
	}
}

func (s *scanner) resync() {
	s.advance(1)

	for s.pos < len(s.src) && s.src[s.pos] != '<' {
		s.advance(1)
	}
}

func (s *scanner) advance(n int) {
	for range n {
		if s.src[s.pos] == '\n' {
			s.line++
		}

		s.pos++
	}
}

type scanError struct {
	line int
	msg  string
}

func (e *scanError) Error() string {
	return e.msg
}

func snippet(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}

	if len(s) > 24 {
		s = s[:24] + "..."
	}

	return s
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == ':'
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') || c == '-' || c == '.'
}

// tokenKind classifies the pieces of a declaration body.
type tokenKind int

const (
	tokName tokenKind = iota
	tokKeyword
	tokLiteral
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits a declaration body into names, #KEYWORDS, quoted literals
// and single-character punctuation.
func tokenize(body string) ([]token, error) {
	var toks []token

	for i := 0; i < len(body); {
		c := body[i]

		switch {
		case isSpace(c):
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(body[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated literal")
			}

			toks = append(toks, token{kind: tokLiteral, text: body[i+1 : i+1+end]})
			i += end + 2
		case c == '#':
			j := i + 1
			for j < len(body) && isNameByte(body[j]) {
				j++
			}

			if j == i+1 {
				return nil, fmt.Errorf("'#' without keyword")
			}

			toks = append(toks, token{kind: tokKeyword, text: body[i:j]})
			i = j
		case isNameByte(c):
			j := i
			for j < len(body) && isNameByte(body[j]) {
				j++
			}

			toks = append(toks, token{kind: tokName, text: body[i:j]})
			i = j
		case strings.IndexByte("()|,?*+%", c) >= 0:
			toks = append(toks, token{kind: tokPunct, text: string(c)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}

	return toks, nil
}
