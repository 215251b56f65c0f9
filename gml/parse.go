package gml

import "strings"

// Parse preprocesses text and parses one top-level tag.
func Parse(text string) (*Body, error) {
	stripped, err := Preprocess(text)
	if err != nil {
		return nil, err
	}
	p := &parser{src: stripped, line: 1}
	p.skipSpace()
	b, err := p.tag()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return nil, p.errorf("trailing content after top-level tag")
	}
	return b, nil
}

// ParseAttr parses a single key=value attribute. No preprocessing is done;
// the input is the attribute text itself.
func ParseAttr(text string) (Attr, error) {
	p := &parser{src: text, line: 1}
	p.skipSpace()
	attrs, err := p.attribute()
	if err != nil {
		return Attr{}, err
	}
	p.skipSpace()
	if p.pos < len(p.src) {
		return Attr{}, p.errorf("trailing content after attribute")
	}
	return attrs[0], nil
}

type parser struct {
	src  string
	pos  int
	line int
}

func (p *parser) errorf(msg string) *ParseError {
	rest := p.src[p.pos:]
	if len(rest) > excerptLen {
		rest = rest[:excerptLen]
	}
	return &ParseError{Line: p.line, Excerpt: rest, Msg: msg}
}

// advance consumes one byte, tracking line numbers.
func (p *parser) advance() byte {
	c := p.src[p.pos]
	p.pos++
	if c == '\n' {
		p.line++
	}
	return c
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

// skipSpace consumes whitespace, including newlines.
func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.advance()
		default:
			return
		}
	}
}

// skipBlank consumes whitespace within a line only.
func (p *parser) skipBlank() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r':
			p.pos++
		default:
			return
		}
	}
}

func isKeyStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKeyByte(c byte) bool {
	return isKeyStart(c) || (c >= '0' && c <= '9')
}

// name consumes a tag or attribute identifier.
func (p *parser) name() (string, error) {
	start := p.pos
	if c, ok := p.peek(); !ok || !isKeyStart(c) {
		return "", p.errorf("expected identifier")
	}
	for p.pos < len(p.src) && isKeyByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

// tag parses `[` `+`? name `]` children `[/` name `]`. The cursor must sit on
// the opening bracket.
func (p *parser) tag() (*Body, error) {
	if c, ok := p.peek(); !ok || c != '[' {
		return nil, p.errorf("expected '['")
	}
	p.advance()
	if c, ok := p.peek(); ok && c == '+' {
		// Merge marker; the stored name drops it.
		p.advance()
	}
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	if c, ok := p.peek(); !ok || c != ']' {
		return nil, p.errorf("expected ']' after tag name")
	}
	p.advance()

	b := &Body{Name: name}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("missing closing tag [/" + name + "]")
		}
		if c == '[' {
			if strings.HasPrefix(p.src[p.pos:], "[/") {
				break
			}
			child, err := p.tag()
			if err != nil {
				return nil, err
			}
			b.Children = append(b.Children, child)
			continue
		}
		attrs, err := p.attribute()
		if err != nil {
			return nil, err
		}
		for _, a := range attrs {
			b.Children = append(b.Children, a)
		}
	}

	p.advance() // '['
	p.advance() // '/'
	closer, err := p.name()
	if err != nil {
		return nil, err
	}
	if closer != name {
		return nil, p.errorf("closing tag [/" + closer + "] does not match [" + name + "]")
	}
	if c, ok := p.peek(); !ok || c != ']' {
		return nil, p.errorf("expected ']' after closing tag name")
	}
	p.advance()
	return b, nil
}

// attribute parses key-list `=` value up to the end of the line. Every key in
// the list yields an Attr with the shared value.
func (p *parser) attribute() ([]Attr, error) {
	var keys []string
	for {
		key, err := p.name()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		p.skipBlank()
		c, ok := p.peek()
		if !ok {
			return nil, p.errorf("expected '=' after attribute key")
		}
		if c == ',' {
			p.advance()
			p.skipBlank()
			continue
		}
		if c != '=' {
			return nil, p.errorf("expected '=' after attribute key")
		}
		p.advance()
		break
	}
	value, err := p.value()
	if err != nil {
		return nil, err
	}
	attrs := make([]Attr, len(keys))
	for i, key := range keys {
		attrs[i] = Attr{Key: key, Value: value}
	}
	return attrs, nil
}

// value parses an attribute value: an optional translatability marker, then
// one or more segments of angle-string, quoted string, or raw text. The value
// ends at the line's newline (quoted segments may span newlines).
func (p *parser) value() (string, error) {
	p.skipBlank()
	var out strings.Builder
	first := true
	for {
		c, ok := p.peek()
		if !ok || c == '\n' {
			if ok {
				p.advance()
			}
			if first {
				return "", nil
			}
			return out.String(), nil
		}
		if first && c == '_' {
			// Translatability marker, dropped.
			p.advance()
			p.skipBlank()
			first = false
			continue
		}
		first = false
		switch {
		case strings.HasPrefix(p.src[p.pos:], "<<"):
			seg, err := p.angleString()
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
		case c == '"':
			seg, err := p.quotedString()
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
		case c == '[':
			return "", p.errorf("unexpected '[' in attribute value")
		default:
			out.WriteString(p.rawSegment())
		}
		p.skipBlank()
	}
}

// angleString consumes `<<…>>`; the contents are verbatim.
func (p *parser) angleString() (string, error) {
	p.pos += 2
	end := strings.Index(p.src[p.pos:], ">>")
	if end < 0 {
		return "", p.errorf("unterminated '<<' string")
	}
	seg := p.src[p.pos : p.pos+end]
	p.line += strings.Count(seg, "\n")
	p.pos += end + 2
	return seg, nil
}

// quotedString consumes `"…"`; the contents may span newlines but may not
// contain a double quote.
func (p *parser) quotedString() (string, error) {
	p.advance()
	start := p.pos
	for p.pos < len(p.src) {
		if p.src[p.pos] == '"' {
			seg := p.src[start:p.pos]
			p.advance()
			return seg, nil
		}
		p.advance()
	}
	return "", p.errorf("unterminated '\"' string")
}

// rawSegment consumes unquoted text up to a newline, quote, angle-string
// opener, or tag bracket. Surrounding blanks are trimmed.
func (p *parser) rawSegment() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\n' || c == '"' || c == '[' || strings.HasPrefix(p.src[p.pos:], "<<") {
			break
		}
		p.pos++
	}
	return strings.TrimRight(p.src[start:p.pos], " \t\r")
}
