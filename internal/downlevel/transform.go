// Package downlevel rewrites optional chaining and nullish coalescing into
// conditional expressions runnable on engines without ES2020 support.
package downlevel

import (
	"strings"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

// Options controls the downlevel pass.
type Options struct {
	// RewriteDeclarations turns const/let into var for pre-ES2015 engines.
	RewriteDeclarations bool
}

// Transform rewrites src, guided by spans: only Code and TemplateSub regions
// are touched; String, Comment and TemplateText bytes are copied verbatim.
// Returns the rewritten text and the number of operators rewritten. The
// transform is idempotent: running it on its own output changes nothing.
func Transform(src []byte, spans scan.Spans, opts Options, dbg *debug.Context) (string, int, error) {
	t := &transformer{src: src, opts: opts, dbg: dbg}
	for _, sp := range spans {
		if err := t.span(sp); err != nil {
			return "", 0, err
		}
	}
	// Close anything still open at end of input.
	t.settleAll()
	return t.out.String(), t.rewrites, nil
}

// pendingKind says what closing text a pending rewrite still owes.
type pendingKind uint8

const (
	pendingNullish pendingKind = iota // close at terminator: ")"
	pendingCall                       // close after matching ")": " : undefined)"
	pendingIndex                      // close after matching "]": " : undefined)"
)

type pending struct {
	kind  pendingKind
	depth int // bracket depth the closing condition triggers at
}

type transformer struct {
	src      []byte
	out      strings.Builder
	opts     Options
	dbg      *debug.Context
	depth    int // combined ()/[]/{} depth inside Code regions
	pendings []pending
	rewrites int
}

func (t *transformer) span(sp scan.Span) error {
	switch sp.Ctx {
	case scan.Code:
		return t.code(sp.Start, sp.End)
	case scan.TemplateSub:
		return t.substitution(sp)
	default:
		t.out.Write(t.src[sp.Start:sp.End])
		return nil
	}
}

// substitution recurses into the ${...} body: the inner text is raw, so it
// gets its own scan before rewriting, then the result is re-wrapped.
func (t *transformer) substitution(sp scan.Span) error {
	inner := t.src[sp.Start+2 : sp.End-1]
	spans, err := scan.Scan(inner)
	if err != nil {
		// The outer scan already balanced this region.
		if pe, ok := err.(*diag.PosError); ok {
			return diag.Errorf(diag.IntSpanCoverageBroken, sp.Start+2+pe.Offset,
				"template substitution rescan failed: %s", pe.Msg)
		}
		return err
	}
	code, n, err := Transform(inner, spans, t.opts, t.dbg)
	if err != nil {
		if pe, ok := err.(*diag.PosError); ok {
			return diag.Errorf(pe.Code, sp.Start+2+pe.Offset, "%s", pe.Msg)
		}
		return err
	}
	t.rewrites += n
	t.out.WriteString("${")
	t.out.WriteString(code)
	t.out.WriteByte('}')
	return nil
}

func (t *transformer) code(start, end uint32) error {
	i := start
	for i < end {
		b := t.src[i]
		switch {
		case b == '?' && i+1 < end && t.src[i+1] == '.':
			// "?." followed by a digit is a conditional with a leading-dot
			// number (x ? .5 : y), not optional chaining.
			if i+2 < end && isDigit(t.src[i+2]) {
				t.out.WriteByte('?')
				i++
				continue
			}
			if !t.chainContext() {
				t.out.WriteByte('?')
				i++
				continue
			}
			ni, err := t.optionalChain(i, end)
			if err != nil {
				return err
			}
			i = ni

		case b == '?' && i+1 < end && t.src[i+1] == '?':
			if i+2 < end && t.src[i+2] == '=' {
				return diag.Errorf(diag.DownUnsafeRewrite, i,
					"logical assignment ??= cannot be rewritten safely")
			}
			ni, err := t.nullish(i, end)
			if err != nil {
				return err
			}
			i = ni

		case b == '(' || b == '[' || b == '{':
			t.depth++
			t.out.WriteByte(b)
			i++

		case b == ')' || b == ']' || b == '}':
			t.closer(b)
			i++

		case b == ';' || b == ',' || b == '\n' || b == '?' || b == ':':
			// A bare '?' here is a conditional: nullish binds tighter, so a
			// pending right-hand side ends before it (and before its ':').
			t.settleNullish()
			t.out.WriteByte(b)
			i++

		case t.opts.RewriteDeclarations && (b == 'c' || b == 'l') && t.declKeyword(i, end):
			n := uint32(3)
			if b == 'c' {
				n = 5
			}
			t.out.WriteString("var")
			i += n

		default:
			t.out.WriteByte(b)
			i++
		}
	}
	return nil
}

// declKeyword reports whether a const/let keyword starts at i, with word
// boundaries on both sides and no property access before it.
func (t *transformer) declKeyword(i, end uint32) bool {
	if i > 0 {
		prev := t.src[i-1]
		if isWordByte(prev) || prev == '.' {
			return false
		}
	}
	rest := t.src[i:end]
	if len(rest) >= 5 && string(rest[:5]) == "const" {
		return i+5 >= end || !isWordByte(t.src[i+5])
	}
	if len(rest) >= 3 && string(rest[:3]) == "let" {
		return i+3 >= end || !isWordByte(t.src[i+3])
	}
	return false
}

// chainContext checks the emitted output: optional chaining needs a value
// reference on the left, otherwise the "?" belongs to a conditional.
func (t *transformer) chainContext() bool {
	o := t.out.String()
	j := len(o) - 1
	for j >= 0 && isSpaceByte(o[j]) {
		j--
	}
	if j < 0 {
		return false
	}
	c := o[j]
	return isWordByte(c) || c == ')' || c == ']'
}

// optionalChain rewrites the "?." starting at i. The object expression is
// taken back off the already-emitted output, so chained forms resolve
// against the previous rewrite's parenthesized result.
func (t *transformer) optionalChain(i, end uint32) (uint32, error) {
	obj, keywords, lead := t.takeObject()
	if obj == "" {
		return 0, diag.Errorf(diag.DownUnsafeRewrite, i, "optional chaining with no left-hand value")
	}
	t.out.WriteString(lead)
	for _, kw := range keywords {
		t.out.WriteString(kw)
		t.out.WriteByte(' ')
	}
	i += 2 // "?."

	if i >= end {
		return 0, diag.Errorf(diag.DownMissingRHS, i, "optional chaining at end of input")
	}

	t.rewrites++
	switch b := t.src[i]; {
	case b == '(':
		// obj?.(args) -> (obj != null ? obj(args) : undefined)
		t.out.WriteByte('(')
		t.out.WriteString(obj)
		t.out.WriteString(" != null ? ")
		t.out.WriteString(obj)
		t.out.WriteByte('(')
		t.pendings = append(t.pendings, pending{kind: pendingCall, depth: t.depth})
		t.depth++
		return i + 1, nil

	case b == '[':
		// obj?.[k] -> (obj != null ? obj[k] : undefined)
		t.out.WriteByte('(')
		t.out.WriteString(obj)
		t.out.WriteString(" != null ? ")
		t.out.WriteString(obj)
		t.out.WriteByte('[')
		t.pendings = append(t.pendings, pending{kind: pendingIndex, depth: t.depth})
		t.depth++
		return i + 1, nil

	case isIdentStart(b):
		// obj?.prop -> (obj != null ? obj.prop : undefined)
		j := i
		for j < end && isWordByte(t.src[j]) {
			j++
		}
		t.out.WriteByte('(')
		t.out.WriteString(obj)
		t.out.WriteString(" != null ? ")
		t.out.WriteString(obj)
		t.out.WriteByte('.')
		t.out.Write(t.src[i:j])
		t.out.WriteString(" : undefined)")
		return j, nil

	default:
		return 0, diag.Errorf(diag.DownUnsafeRewrite, i,
			"optional chaining followed by %q has no resolvable right-hand side", string(b))
	}
}

// nullish rewrites "a ?? b" into "(a != null ? a : b)". The right operand is
// not copied here: a pending close is registered and the main loop keeps
// rewriting, so operators inside the right-hand side are handled too.
func (t *transformer) nullish(i, end uint32) (uint32, error) {
	left, keywords, lead := t.takeObject()
	if left == "" {
		return 0, diag.Errorf(diag.DownUnsafeRewrite, i, "nullish coalescing with no left-hand value")
	}
	i += 2 // "??"
	for i < end && isSpaceByte(t.src[i]) {
		i++
	}
	if i >= end || t.src[i] == ';' || t.src[i] == ',' || t.src[i] == ')' ||
		t.src[i] == '}' || t.src[i] == ']' || t.src[i] == '\n' {
		return 0, diag.Errorf(diag.DownMissingRHS, i, "nullish coalescing without right-hand side")
	}

	t.rewrites++
	t.out.WriteString(lead)
	for _, kw := range keywords {
		t.out.WriteString(kw)
		t.out.WriteByte(' ')
	}
	t.out.WriteByte('(')
	t.out.WriteString(left)
	t.out.WriteString(" != null ? ")
	t.out.WriteString(left)
	t.out.WriteString(" : ")
	t.pendings = append(t.pendings, pending{kind: pendingNullish, depth: t.depth})
	return i, nil
}

// closer handles a closing bracket: nullish pendings living at the current
// depth are settled first, then the bracket either completes an optional
// call/index rewrite or is emitted as-is.
func (t *transformer) closer(b byte) {
	t.settleNullish()
	if len(t.pendings) > 0 {
		p := t.pendings[len(t.pendings)-1]
		matches := (p.kind == pendingCall && b == ')') || (p.kind == pendingIndex && b == ']')
		if matches && p.depth == t.depth-1 {
			t.pendings = t.pendings[:len(t.pendings)-1]
			if b == ')' {
				t.out.WriteString(") : undefined)")
			} else {
				t.out.WriteString("] : undefined)")
			}
			t.depth--
			return
		}
	}
	t.out.WriteByte(b)
	t.depth--
}

// settleNullish closes nullish pendings whose right-hand side ends at the
// current depth.
func (t *transformer) settleNullish() {
	for len(t.pendings) > 0 {
		p := t.pendings[len(t.pendings)-1]
		if p.kind != pendingNullish || p.depth != t.depth {
			return
		}
		t.out.WriteByte(')')
		t.pendings = t.pendings[:len(t.pendings)-1]
	}
}

// settleAll closes every pending still open at end of input.
func (t *transformer) settleAll() {
	for len(t.pendings) > 0 {
		p := t.pendings[len(t.pendings)-1]
		t.pendings = t.pendings[:len(t.pendings)-1]
		switch p.kind {
		case pendingNullish:
			t.out.WriteByte(')')
		case pendingCall:
			t.out.WriteString(") : undefined)")
		case pendingIndex:
			t.out.WriteString("] : undefined)")
		}
	}
}

// takeObject removes the rightmost complete value expression from the output
// and returns it together with any statement keywords (return, throw, await,
// yield) that the backscan swallowed, plus the whitespace that preceded it.
func (t *transformer) takeObject() (obj string, keywords []string, lead string) {
	o := t.out.String()
	start := objectStart(o)
	seg := o[start:]
	trimmed := strings.TrimRight(seg, " \t")
	n := 0
	for n < len(trimmed) && isSpaceByte(trimmed[n]) {
		n++
	}
	lead = trimmed[:n]
	obj = trimmed[n:]

	for {
		found := false
		for _, kw := range [...]string{"return", "throw", "await", "yield"} {
			rest, ok := strings.CutPrefix(obj, kw)
			if !ok {
				continue
			}
			if rest == "" || !(isSpaceByte(rest[0]) || rest[0] == '(' || rest[0] == '{') {
				continue
			}
			keywords = append(keywords, kw)
			obj = strings.TrimLeft(rest, " \t")
			found = true
			break
		}
		if !found {
			break
		}
	}

	// Truncate the builder back to start. Reset keeps the receiver usable;
	// assigning a fresh Builder into the field would copy it by value.
	t.out.Reset()
	t.out.WriteString(o[:start])
	return obj, keywords, lead
}

// objectStart scans the emitted output backwards for the start of the value
// expression ending at its tail: identifiers, property chains, and balanced
// ()/[] groups all belong to it.
func objectStart(o string) int {
	started := false
	depth := 0
	for i := len(o) - 1; i >= 0; i-- {
		c := o[i]
		if !started {
			switch {
			case isSpaceByte(c):
				continue
			case c == ')' || c == ']':
				started = true
				depth = 1
			case isWordByte(c):
				started = true
			default:
				return i + 1
			}
			continue
		}
		switch {
		case c == ')' || c == ']':
			depth++
		case c == '(' || c == '[':
			if depth > 0 {
				depth--
				if depth == 0 {
					// closed the outermost wrapping group; keep collecting a
					// possible callee/property chain before it
					continue
				}
				continue
			}
			return i + 1
		default:
			if depth > 0 {
				continue
			}
			if isWordByte(c) || c == '.' {
				continue
			}
			return i + 1
		}
	}
	return 0
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isWordByte(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}
