// Package jsx converts element and fragment syntax into factory calls of
// the shape factory(type, props, ...children). Detection is span-driven:
// a '<' only opens an element in Code context and in expression position,
// so comparisons, generics leftovers and operators in strings never match.
package jsx

import (
	"strings"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

// DefaultFactory is the runtime function rewritten elements call.
const DefaultFactory = "__hook_jsx_runtime.jsx"

type Options struct {
	// Factory overrides DefaultFactory when non-empty.
	Factory string
}

func (o Options) factory() string {
	if o.Factory != "" {
		return o.Factory
	}
	return DefaultFactory
}

// Transform rewrites every element in src and reports whether any was
// found. Element text may contain bytes (an apostrophe in prose, say) that
// desynchronize the span map past the element, so the remainder is
// re-scanned after each rewrite.
func Transform(src []byte, spans scan.Spans, opts Options, dbg *debug.Context) (string, bool, error) {
	t := &transformer{opts: opts, dbg: dbg}
	out, found, err := t.run(src, spans, 0)
	if err != nil {
		return "", false, err
	}
	if found && t.dbg.Enabled(debug.LevelTrace) {
		t.dbg.Tracef("jsx transform rewrote %d elements", t.elements)
	}
	return out, found, nil
}

type transformer struct {
	out      strings.Builder
	opts     Options
	dbg      *debug.Context
	found    bool
	elements int
}

// findStart returns the offset of the first element-opening '<' in a Code
// span of cur.
func findStart(cur []byte, spans scan.Spans) (uint32, bool) {
	for si, sp := range spans {
		if sp.Ctx != scan.Code {
			continue
		}
		for i := sp.Start; i < sp.End; i++ {
			if cur[i] != '<' {
				continue
			}
			if i+1 >= uint32(len(cur)) {
				continue
			}
			nxt := cur[i+1]
			if !isTagStart(nxt) && nxt != '>' {
				continue
			}
			if expressionPosition(cur, spans, si, i) {
				return i, true
			}
		}
	}
	return 0, false
}

// expressionPosition reports whether a '<' at off can begin an element:
// the previous significant token must not be a value. Comment spans are
// skipped entirely, string and template ends count as values.
func expressionPosition(cur []byte, spans scan.Spans, si int, off uint32) bool {
	i := off
	for {
		sp := spans[si]
		for i > sp.Start {
			b := cur[i-1]
			if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
				i--
				continue
			}
			if isWordByte(b) {
				return keywordBefore(cur, sp.Start, i)
			}
			switch b {
			case ')', ']':
				return false
			case '>':
				// Only as the tail of an arrow.
				return i >= 2 && cur[i-2] == '='
			default:
				return true
			}
		}
		// Ran off the front of this span.
		si--
		for si >= 0 && (spans[si].Ctx == scan.LineComment || spans[si].Ctx == scan.BlockComment) {
			si--
		}
		if si < 0 {
			return true
		}
		if spans[si].Ctx != scan.Code {
			return false // string or template end is a value
		}
		i = spans[si].End
	}
}

// keywordBefore extracts the identifier ending at end and reports whether
// it is a keyword that an expression may follow.
func keywordBefore(cur []byte, lo, end uint32) bool {
	start := end
	for start > lo && isWordByte(cur[start-1]) {
		start--
	}
	switch string(cur[start:end]) {
	case "return", "default", "case", "do", "else", "typeof", "void",
		"yield", "await", "new", "in", "of", "instanceof", "delete":
		return true
	}
	return false
}

// element parses the element opening at rel and returns the factory call
// plus the offset just past the element. base is the absolute offset of
// cur[0], used only for error positions.
func (t *transformer) element(cur []byte, base, rel uint32) (string, uint32, error) {
	i := rel + 1 // '<'
	n := uint32(len(cur))

	if i < n && cur[i] == '>' {
		return t.fragment(cur, base, i+1)
	}
	if i < n && cur[i] == '/' {
		return "", 0, diag.Errorf(diag.JsxUnexpectedClosing, base+rel, "unexpected closing tag")
	}

	tagStart := i
	for i < n && isTagByte(cur[i]) {
		i++
	}
	tag := string(cur[tagStart:i])
	if tag == "" {
		return "", 0, diag.Errorf(diag.JsxUnterminatedTag, base+rel, "element without a tag name")
	}
	i = skipSpace(cur, i)

	props, i, err := t.props(cur, base, i)
	if err != nil {
		return "", 0, err
	}
	i = skipSpace(cur, i)

	if i < n && cur[i] == '/' {
		i++
		if i >= n || cur[i] != '>' {
			return "", 0, diag.Errorf(diag.JsxUnterminatedTag, base+i, "expected '>' after '/' in tag <%s>", tag)
		}
		t.elements++
		return t.call(tagValue(tag), props, nil), i + 1, nil
	}
	if i >= n || cur[i] != '>' {
		return "", 0, diag.Errorf(diag.JsxUnterminatedTag, base+rel, "unterminated tag <%s>", tag)
	}
	i++

	children, i, err := t.children(cur, base, i, tag)
	if err != nil {
		return "", 0, err
	}
	t.elements++
	return t.call(tagValue(tag), props, children), i, nil
}

func (t *transformer) fragment(cur []byte, base, i uint32) (string, uint32, error) {
	children, i, err := t.children(cur, base, i, "")
	if err != nil {
		return "", 0, err
	}
	t.elements++
	return t.call("null", "null", children), i, nil
}

func (t *transformer) call(typ, props string, children []string) string {
	var b strings.Builder
	b.WriteString(t.opts.factory())
	b.WriteByte('(')
	b.WriteString(typ)
	b.WriteString(", ")
	b.WriteString(props)
	for _, c := range children {
		b.WriteString(", ")
		b.WriteString(c)
	}
	b.WriteByte(')')
	return b.String()
}

// tagValue quotes intrinsic (lowercase) tags; capitalized or dotted tags
// are component references and stay identifiers.
func tagValue(tag string) string {
	first := tag[0]
	if first >= 'A' && first <= 'Z' || strings.ContainsRune(tag, '.') {
		return tag
	}
	return `"` + tag + `"`
}

// props parses the attribute list up to '/' or '>' and returns a JS object
// literal, or "null" when the element has no props.
func (t *transformer) props(cur []byte, base, i uint32) (string, uint32, error) {
	n := uint32(len(cur))
	var entries []string
	for {
		i = skipSpace(cur, i)
		if i >= n {
			return "", 0, diag.Errorf(diag.JsxUnterminatedTag, base+i, "unterminated attribute list")
		}
		if cur[i] == '>' || cur[i] == '/' {
			break
		}

		if cur[i] == '{' {
			// Spread: {...expr}
			j := skipSpace(cur, i+1)
			if j+2 < n && cur[j] == '.' && cur[j+1] == '.' && cur[j+2] == '.' {
				expr, next, err := t.expression(cur, base, j+3)
				if err != nil {
					return "", 0, err
				}
				entries = append(entries, "..."+strings.TrimSpace(expr))
				i = next
				continue
			}
			return "", 0, diag.Errorf(diag.JsxExpectedPropValue, base+i, "expected spread attribute")
		}

		nameStart := i
		for i < n && (isWordByte(cur[i]) || cur[i] == '-') {
			i++
		}
		name := string(cur[nameStart:i])
		if name == "" {
			return "", 0, diag.Errorf(diag.JsxExpectedPropValue, base+i, "expected attribute name")
		}
		if strings.ContainsRune(name, '-') {
			name = `"` + name + `"`
		}
		i = skipSpace(cur, i)

		if i < n && cur[i] == '=' {
			i = skipSpace(cur, i+1)
			value, next, err := t.propValue(cur, base, i)
			if err != nil {
				return "", 0, err
			}
			entries = append(entries, name+": "+value)
			i = next
		} else {
			entries = append(entries, name+": true")
		}
	}
	if len(entries) == 0 {
		return "null", i, nil
	}
	return "{ " + strings.Join(entries, ", ") + " }", i, nil
}

func (t *transformer) propValue(cur []byte, base, i uint32) (string, uint32, error) {
	n := uint32(len(cur))
	if i >= n {
		return "", 0, diag.Errorf(diag.JsxExpectedPropValue, base+i, "attribute without a value")
	}
	switch cur[i] {
	case '"', '\'':
		raw, next, err := stringLiteral(cur, base, i)
		if err != nil {
			return "", 0, err
		}
		return `"` + escapeString(raw) + `"`, next, nil
	case '{':
		expr, next, err := t.expression(cur, base, i+1)
		if err != nil {
			return "", 0, err
		}
		inner, err := t.nested(expr, base+i+1)
		if err != nil {
			return "", 0, err
		}
		return strings.TrimSpace(inner), next, nil
	case '<':
		// <Wrap frame=<Frame />> is not legal syntax; callers wrap in braces.
		return "", 0, diag.Errorf(diag.JsxExpectedPropValue, base+i, "element attribute values must be wrapped in braces")
	}
	return "", 0, diag.Errorf(diag.JsxExpectedPropValue, base+i, "expected string or brace-wrapped attribute value")
}

// children parses until the matching closing tag (or </> when parent is a
// fragment) and returns each child's emitted form.
func (t *transformer) children(cur []byte, base, i uint32, parent string) ([]string, uint32, error) {
	n := uint32(len(cur))
	var children []string
	for {
		i = skipSpace(cur, i)
		if i >= n {
			return nil, 0, diag.Errorf(diag.JsxUnterminatedElement, base+i, "unterminated element <%s>", parent)
		}

		if cur[i] == '<' && i+1 < n && cur[i+1] == '/' {
			j := i + 2
			closeStart := j
			for j < n && isTagByte(cur[j]) {
				j++
			}
			closeName := string(cur[closeStart:j])
			j = skipSpace(cur, j)
			if j >= n || cur[j] != '>' {
				return nil, 0, diag.Errorf(diag.JsxUnterminatedTag, base+i, "unterminated closing tag </%s>", closeName)
			}
			if closeName != parent {
				return nil, 0, diag.Errorf(diag.JsxMismatchedClosing, base+i, "expected </%s> but found </%s>", parent, closeName)
			}
			return children, j + 1, nil
		}

		if cur[i] == '<' && i+1 < n && (isTagStart(cur[i+1]) || cur[i+1] == '>') {
			call, next, err := t.element(cur, base, i)
			if err != nil {
				return nil, 0, err
			}
			children = append(children, call)
			i = next
			continue
		}

		if cur[i] == '{' {
			expr, next, err := t.expression(cur, base, i+1)
			if err != nil {
				return nil, 0, err
			}
			inner, err := t.nested(expr, base+i+1)
			if err != nil {
				return nil, 0, err
			}
			if s := strings.TrimSpace(inner); s != "" {
				children = append(children, s)
			}
			i = next
			continue
		}

		textStart := i
		for i < n && cur[i] != '<' && cur[i] != '{' {
			i++
		}
		if text := strings.TrimSpace(string(cur[textStart:i])); text != "" {
			children = append(children, `"`+escapeString(text)+`"`)
		}
	}
}

// nested re-runs the transform over an attribute or child expression so
// elements inside braces are rewritten too. off is the expression's
// absolute start, used to relocate error positions.
func (t *transformer) nested(expr string, off uint32) (string, error) {
	if !strings.ContainsRune(expr, '<') {
		return expr, nil
	}
	src := []byte(expr)
	spans, err := scan.Scan(src)
	if err != nil {
		if pe, isPos := err.(*diag.PosError); isPos {
			pe.Offset += off
		}
		return "", err
	}
	inner := &transformer{opts: t.opts, dbg: t.dbg}
	out, _, err := inner.run(src, spans, off)
	if err != nil {
		return "", err
	}
	t.elements += inner.elements
	return out, nil
}

// run is the outer rewrite loop: copy up to the next element start, parse
// and emit the element, re-scan the remainder. off relocates error
// positions when run covers an inner expression.
func (t *transformer) run(src []byte, spans scan.Spans, off uint32) (string, bool, error) {
	cur := src
	curSpans := spans
	base := uint32(0)
	for {
		rel, ok := findStart(cur, curSpans)
		if !ok {
			t.out.Write(cur)
			break
		}
		t.out.Write(cur[:rel])
		call, next, err := t.element(cur, off+base, rel)
		if err != nil {
			return "", false, err
		}
		t.out.WriteString(call)
		t.found = true
		base += next
		cur = cur[next:]
		var serr error
		curSpans, serr = scan.Scan(cur)
		if serr != nil {
			if pe, isPos := serr.(*diag.PosError); isPos {
				pe.Offset += off + base
			}
			return "", false, serr
		}
	}
	return t.out.String(), t.found, nil
}

// expression consumes a brace-wrapped JS expression starting just past the
// '{' and returns the raw text plus the offset past the closing '}'.
// Strings are skipped whole so braces inside them do not count.
func (t *transformer) expression(cur []byte, base, i uint32) (string, uint32, error) {
	n := uint32(len(cur))
	start := i
	depth := 0
	for i < n {
		b := cur[i]
		switch b {
		case '"', '\'', '`':
			j := i + 1
			for j < n {
				if cur[j] == '\\' {
					j += 2
					continue
				}
				if cur[j] == b {
					break
				}
				j++
			}
			if j >= n {
				return "", 0, diag.Errorf(diag.JsxUnterminatedExpr, base+start, "unterminated string in expression")
			}
			i = j + 1
			continue
		case '{', '[', '(':
			depth++
		case ']', ')':
			depth--
		case '}':
			if depth == 0 {
				return string(cur[start:i]), i + 1, nil
			}
			depth--
		}
		i++
	}
	return "", 0, diag.Errorf(diag.JsxUnterminatedExpr, base+start, "unterminated expression container")
}

func stringLiteral(cur []byte, base, i uint32) (string, uint32, error) {
	quote := cur[i]
	n := uint32(len(cur))
	j := i + 1
	var b strings.Builder
	for j < n {
		c := cur[j]
		if c == '\\' && j+1 < n {
			b.WriteByte(cur[j+1])
			j += 2
			continue
		}
		if c == quote {
			return b.String(), j + 1, nil
		}
		b.WriteByte(c)
		j++
	}
	return "", 0, diag.Errorf(diag.JsxUnterminatedTag, base+i, "unterminated attribute string")
}

func escapeString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

func skipSpace(cur []byte, i uint32) uint32 {
	for i < uint32(len(cur)) && (cur[i] == ' ' || cur[i] == '\t' || cur[i] == '\r' || cur[i] == '\n') {
		i++
	}
	return i
}

func isTagStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isTagByte(b byte) bool {
	return isTagStart(b) || (b >= '0' && b <= '9') || b == '-' || b == '.'
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
