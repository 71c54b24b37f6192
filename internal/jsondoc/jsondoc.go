// Package jsondoc implements the flat JSON document codec: parsing a JSON
// object into a name-to-textual-value mapping, and serializing it back.
// Nested objects and arrays are carried as their exact source substring so
// higher layers (query, collection) can recursively parse them on demand.
package jsondoc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Map is a flat document: every value is its textual JSON representation.
// A string value has already been unescaped; a number, bool, null, object,
// or array value is kept verbatim as it appeared in the source.
type Map map[string]string

// Parse parses a single JSON object into a Map. "{}" parses to an empty,
// non-nil Map without error. Unbalanced brackets or an unterminated string
// return an error.
func Parse(s string) (Map, error) {
	p := &parser{s: s}
	p.skipSpace()
	v, err := p.parseObject()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	return v, nil
}

// ParseArray parses a JSON array of objects into an ordered sequence of
// flat Maps.
func ParseArray(s string) ([]Map, error) {
	p := &parser{s: s}
	p.skipSpace()
	return p.parseArray()
}

type parser struct {
	s   string
	pos int
}

func (p *parser) errf(format string, args ...any) error {
	return fmt.Errorf("jsondoc: at byte %d: %s", p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) expect(c byte) error {
	if p.eof() || p.s[p.pos] != c {
		return p.errf("expected %q", c)
	}
	p.pos++
	return nil
}

func (p *parser) parseObject() (Map, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	out := Map{}
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		p.skipSpace()
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[key] = val
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, p.errf("expected ',' or '}'")
		}
	}
}

func (p *parser) parseArray() ([]Map, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	var out []Map
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		obj, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		out = append(out, obj)
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			continue
		case ']':
			p.pos++
			return out, nil
		default:
			return nil, p.errf("expected ',' or ']'")
		}
	}
}

// parseValue returns the textual form of any JSON value. Strings are
// unescaped; everything else (number, bool, null, object, array) is
// returned as its raw substring.
func (p *parser) parseValue() (string, error) {
	if p.eof() {
		return "", p.errf("unexpected end of input")
	}
	switch p.peek() {
	case '"':
		return p.parseString()
	case '{':
		return p.parseRawBalanced('{', '}')
	case '[':
		return p.parseRawBalanced('[', ']')
	default:
		return p.parseScalar()
	}
}

// parseRawBalanced captures the exact substring of a balanced {...} or
// [...] run, tolerating nested brackets and quoted strings within it, and
// validating that it parses as an object/array so malformed input is
// rejected rather than silently retained.
func (p *parser) parseRawBalanced(open, close byte) (string, error) {
	start := p.pos
	depth := 0
	inString := false
	escaped := false
	for !p.eof() {
		c := p.s[p.pos]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			p.pos++
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				p.pos++
				return p.s[start:p.pos], nil
			}
		}
		p.pos++
	}
	return "", p.errf("unbalanced %q/%q", open, close)
}

func (p *parser) parseScalar() (string, error) {
	start := p.pos
	for !p.eof() {
		switch p.s[p.pos] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			if p.pos == start {
				return "", p.errf("unexpected character %q", p.s[p.pos])
			}
			return p.s[start:p.pos], nil
		default:
			p.pos++
		}
	}
	if p.pos == start {
		return "", p.errf("unexpected end of input")
	}
	return p.s[start:p.pos], nil
}

func (p *parser) parseString() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errf("unterminated string")
		}
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.eof() {
				return "", p.errf("unterminated escape")
			}
			switch p.s[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			default:
				return "", p.errf("invalid escape %q", p.s[p.pos])
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
}

// escapeString escapes the control characters the codec contract covers.
func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// isLiteralValue reports whether v should be emitted unquoted: a nested
// object/array, a number, or true/false/null.
func isLiteralValue(v string) bool {
	if v == "" {
		return false
	}
	if v[0] == '{' || v[0] == '[' {
		return true
	}
	if v == "true" || v == "false" || v == "null" {
		return true
	}
	c := v[0]
	if c == '-' || (c >= '0' && c <= '9') {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
		return strings.Trim(v, "0123456789+-.eE") == ""
	}
	return false
}

// Serialize emits m as a JSON object. Keys are sorted for deterministic
// output; values that look like a nested object/array/number/bool/null are
// emitted verbatim, everything else is quoted and escaped.
func Serialize(m Map) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(escapeString(k))
		b.WriteString(`":`)
		v := m[k]
		if isLiteralValue(v) {
			b.WriteString(v)
		} else {
			b.WriteByte('"')
			b.WriteString(escapeString(v))
			b.WriteByte('"')
		}
	}
	b.WriteByte('}')
	return b.String()
}

// SerializeArray emits a JSON array of objects in order.
func SerializeArray(ms []Map) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, m := range ms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Serialize(m))
	}
	b.WriteByte(']')
	return b.String()
}

// IsJSONLiteral reports whether s looks like a JSON object or array literal
// (starts with '{'/'[' and ends with the matching close), per §4.6's rule
// for distinguishing data elements that are JSON literals from plain
// strings.
func IsJSONLiteral(s string) bool {
	if len(s) < 2 {
		return false
	}
	return (s[0] == '{' && s[len(s)-1] == '}') || (s[0] == '[' && s[len(s)-1] == ']')
}
