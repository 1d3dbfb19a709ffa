// Package tstrip removes TypeScript-only syntax before the JSX transform:
// interface and type-alias declarations, annotations, generic parameter
// lists, as-casts, and non-null assertions. Runtime code is preserved
// byte-for-byte; the pass covers the construct surface of UI hook
// components, not the full language.
package tstrip

import (
	"strings"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

// Strip removes type-only syntax from src guided by spans.
func Strip(src []byte, spans scan.Spans, dbg *debug.Context) (string, error) {
	s := &stripper{src: src, dbg: dbg}
	for _, sp := range spans {
		// Type text may contain string literals, which scan as their own
		// spans; a skip that crossed the boundary already consumed them.
		if s.skipTo >= sp.End {
			continue
		}
		if s.skipTo > sp.Start {
			sp.Start = s.skipTo
		}
		if err := s.span(sp); err != nil {
			return "", err
		}
	}
	return s.out.String(), nil
}

type stripper struct {
	src     []byte
	out     strings.Builder
	dbg     *debug.Context
	removed int

	parenDepth int    // ( ) nesting inside Code
	braceDepth int    // { } nesting inside Code
	ternaries  int    // pending bare '?' at statement level
	declStmt   bool   // current statement started with const/let/var
	inModule   bool   // inside an import/export statement head
	skipTo     uint32 // resume offset after a skip crossed a span boundary
}

func (s *stripper) span(sp scan.Span) error {
	if sp.Ctx != scan.Code {
		// Strings, comments and templates pass through. Substitution bodies
		// may carry casts, but rewriting them is not worth re-lexing here:
		// the runtime ignores nothing inside ${} that this pass strips.
		s.out.Write(s.src[sp.Start:sp.End])
		return nil
	}
	return s.code(sp.Start, sp.End)
}

func (s *stripper) code(start, end uint32) error {
	i := start
	// Type skips read through span boundaries: their literals are handled
	// locally, so they run against the full input.
	n := uint32(len(s.src))
	for i < end {
		b := s.src[i]
		switch {
		case isIdentStart(b) && s.wordBoundaryBefore(i):
			word, wend := s.word(i)
			ni, handled, err := s.keyword(word, i, wend, n)
			if err != nil {
				return err
			}
			if handled {
				i = ni
				continue
			}
			s.out.Write(s.src[i:wend])
			i = wend

		case b == ':' && !s.inModule && s.annotationContext():
			ni, err := s.annotation(i, n)
			if err != nil {
				return err
			}
			i = ni

		case b == '<' && !s.inModule && s.genericsContext():
			if ni, ok := s.generics(i, n); ok {
				i = ni
				continue
			}
			s.out.WriteByte(b)
			i++

		case b == '!' && s.nonNullContext(i, end):
			i++ // drop the assertion

		case b == '?':
			// Count bare ternaries so their ':' is not taken for an
			// annotation. "?." and "??" never introduce a ':'.
			if i+1 < end && (s.src[i+1] == '.' || s.src[i+1] == '?') {
				s.out.WriteByte(b)
				s.out.WriteByte(s.src[i+1])
				i += 2
				continue
			}
			s.ternaries++
			s.out.WriteByte(b)
			i++

		case b == ':' && s.ternaries > 0:
			s.ternaries--
			s.out.WriteByte(b)
			i++

		case b == '(':
			s.parenDepth++
			s.out.WriteByte(b)
			i++

		case b == ')':
			if s.parenDepth > 0 {
				s.parenDepth--
			}
			s.out.WriteByte(b)
			i++

		case b == '{':
			s.braceDepth++
			s.out.WriteByte(b)
			i++

		case b == '}':
			if s.braceDepth > 0 {
				s.braceDepth--
			}
			s.out.WriteByte(b)
			i++

		case b == ';' || b == '\n':
			s.ternaries = 0
			s.declStmt = false
			s.inModule = false
			s.out.WriteByte(b)
			i++

		case b == '=':
			s.declStmt = false
			s.out.WriteByte(b)
			i++

		default:
			s.out.WriteByte(b)
			i++
		}
	}
	s.skipTo = i
	return nil
}

// keyword handles reserved words that start type-only declarations or flip
// statement state. Returns handled=false when the word is ordinary code.
func (s *stripper) keyword(word string, i, wend, end uint32) (uint32, bool, error) {
	switch word {
	case "interface":
		if !s.declarationPosition(i) {
			return 0, false, nil
		}
		ni, err := s.skipInterface(i, end)
		return ni, err == nil, err

	case "type":
		if !s.declarationPosition(i) || !s.typeAliasAhead(wend, end) {
			return 0, false, nil
		}
		ni, err := s.skipTypeAlias(i, end)
		return ni, err == nil, err

	case "export":
		// "export interface"/"export type X =" vanish entirely; other
		// exports are runtime and stay for the module pass.
		next, nend := s.nextWord(wend, end)
		switch {
		case next == "interface":
			ni, err := s.skipInterface(i, end)
			return ni, err == nil, err
		case next == "type" && s.typeAliasAhead(nend, end):
			ni, err := s.skipTypeAlias(i, end)
			return ni, err == nil, err
		}
		// Only the list and star forms carry clause syntax ("as") that
		// must survive; exported declarations still get stripped.
		j := wend
		for j < end && isSpaceByte(s.src[j]) {
			j++
		}
		if j < end && (s.src[j] == '{' || s.src[j] == '*') {
			s.inModule = true
		}
		return 0, false, nil

	case "import":
		// Import clauses contain "as" and braces that must not be touched;
		// the import passes own them.
		if wend < end && s.src[wend] != '.' && s.src[wend] != '(' {
			s.inModule = true
		}
		return 0, false, nil

	case "const", "let", "var":
		s.declStmt = true
		return 0, false, nil

	case "as":
		if s.inModule || !s.castContext() {
			return 0, false, nil
		}
		ni, err := s.skipCast(i, end)
		return ni, err == nil, err
	}
	return 0, false, nil
}

func (s *stripper) word(i uint32) (string, uint32) {
	j := i
	for j < uint32(len(s.src)) && isWordByte(s.src[j]) {
		j++
	}
	return string(s.src[i:j]), j
}

func (s *stripper) nextWord(i, end uint32) (string, uint32) {
	for i < end && isSpaceByte(s.src[i]) {
		i++
	}
	if i >= end || !isIdentStart(s.src[i]) {
		return "", i
	}
	return s.word(i)
}

func (s *stripper) wordBoundaryBefore(i uint32) bool {
	if i == 0 {
		return true
	}
	prev := s.src[i-1]
	return !isWordByte(prev) && prev != '.'
}

// declarationPosition requires statement-ish context: top of file, or after
// a separator, so "x.interface" or "foo(type)" stay untouched.
func (s *stripper) declarationPosition(uint32) bool {
	c, ok := s.lastSignificant()
	if !ok {
		return true
	}
	switch c {
	case ';', '{', '}', '\n', ')':
		return true
	}
	return false
}

// typeAliasAhead checks for "type IDENT [<...>] =" so that "type" used as a
// plain identifier survives.
func (s *stripper) typeAliasAhead(i, end uint32) bool {
	name, nend := s.nextWord(i, end)
	if name == "" {
		return false
	}
	j := nend
	for j < end && isSpaceByte(s.src[j]) {
		j++
	}
	if j < end && s.src[j] == '<' {
		depth := 0
		for j < end {
			switch s.src[j] {
			case '<':
				depth++
			case '>':
				depth--
			}
			j++
			if depth == 0 {
				break
			}
		}
		for j < end && isSpaceByte(s.src[j]) {
			j++
		}
	}
	return j < end && s.src[j] == '=' && (j+1 >= end || s.src[j+1] != '=')
}

func (s *stripper) lastSignificant() (byte, bool) {
	o := s.out.String()
	for j := len(o) - 1; j >= 0; j-- {
		c := o[j]
		if c == '\n' {
			return '\n', true
		}
		if c == ' ' || c == '\t' || c == '\r' {
			continue
		}
		return c, true
	}
	return 0, false
}

// annotationContext: a ':' forms a type annotation when the previous
// significant byte is an identifier, ')' or ']', no ternary is pending, and
// we are in a parameter list, after a parameter list (return type), or in a
// const/let/var declarator outside braces. Object-literal keys and
// destructuring renames live inside braces and are left alone.
func (s *stripper) annotationContext() bool {
	c, ok := s.lastSignificant()
	if !ok {
		return false
	}
	// A '?' directly before the ':' is an optional-parameter marker that
	// was provisionally counted as a ternary.
	if s.ternaries > 0 && c != '?' {
		return false
	}
	if !(isWordByte(c) || c == ')' || c == ']' || c == '?') {
		return false
	}
	if s.parenDepth > 0 && s.braceDepth == 0 {
		return true // parameter annotation
	}
	if c == ')' {
		return true // return type
	}
	return s.declStmt && s.braceDepth == 0
}

// annotation drops ": T" (plus a directly preceding optional '?'), leaving
// the terminator for the main loop.
func (s *stripper) annotation(i, end uint32) (uint32, error) {
	s.dropTrailingOptionalMarker()
	i++ // ':'
	stop := stopDecl
	if s.parenDepth > 0 {
		stop = stopParam
	} else if c, _ := s.lastSignificant(); c == ')' {
		stop = stopReturn
	}
	ni, err := s.skipType(i, end, stop)
	if err != nil {
		return 0, err
	}
	// The type text swallowed the space before a following '='.
	if ni < end && s.src[ni] == '=' && isSpaceByte(s.src[ni-1]) {
		s.out.WriteByte(' ')
	}
	return ni, nil
}

func (s *stripper) dropTrailingOptionalMarker() {
	o := s.out.String()
	j := len(o)
	for j > 0 && isSpaceByte(o[j-1]) {
		j--
	}
	if j > 0 && o[j-1] == '?' {
		s.out.Reset()
		s.out.WriteString(o[:j-1])
		s.out.WriteString(o[j:])
		if s.ternaries > 0 {
			s.ternaries--
		}
	}
}

// genericsContext: '<' directly after an identifier may open a type
// parameter list.
func (s *stripper) genericsContext() bool {
	o := s.out.String()
	if len(o) == 0 {
		return false
	}
	return isWordByte(o[len(o)-1])
}

// generics strips "<...>" when the balanced list contains only type-ish
// characters and is followed by '('. Comparisons like "a < b" never match.
func (s *stripper) generics(i, end uint32) (uint32, bool) {
	depth := 0
	j := i
	for j < end {
		b := s.src[j]
		switch {
		case b == '<':
			depth++
		case b == '>':
			depth--
			if depth == 0 {
				k := j + 1
				for k < end && isSpaceByte(s.src[k]) {
					k++
				}
				if k < end && s.src[k] == '(' {
					s.removed++
					return j + 1, true
				}
				return 0, false
			}
		case isWordByte(b) || isSpaceByte(b):
		case strings.IndexByte(",.|&?:[]{}()='\"", b) >= 0:
		default:
			return 0, false
		}
		j++
	}
	return 0, false
}

// castContext: "as" after a value expression. After a declaration or
// definition keyword "as" is the binding name instead.
func (s *stripper) castContext() bool {
	c, ok := s.lastSignificant()
	if !ok {
		return false
	}
	if isWordByte(c) {
		switch s.lastWord() {
		case "const", "let", "var", "function", "class":
			return false
		}
		return true
	}
	return c == ')' || c == ']' || c == '\'' || c == '"' || c == '`'
}

// lastWord returns the word ending at the last significant byte of the
// emitted output.
func (s *stripper) lastWord() string {
	o := s.out.String()
	j := len(o)
	for j > 0 && isSpaceByte(o[j-1]) {
		j--
	}
	k := j
	for k > 0 && isWordByte(o[k-1]) {
		k--
	}
	return o[k:j]
}

// skipCast drops " as T". The space already emitted before "as" stays.
func (s *stripper) skipCast(i, end uint32) (uint32, error) {
	i += 2 // "as"
	ni, err := s.skipType(i, end, stopCast)
	if err != nil {
		return 0, err
	}
	s.trimTrailingSpace()
	return ni, nil
}

func (s *stripper) trimTrailingSpace() {
	o := s.out.String()
	j := len(o)
	for j > 0 && (o[j-1] == ' ' || o[j-1] == '\t') {
		j--
	}
	if j != len(o) {
		s.out.Reset()
		s.out.WriteString(o[:j])
	}
}

// nonNullContext: a postfix '!' assertion, never the != / !== operators and
// never prefix negation.
func (s *stripper) nonNullContext(i, end uint32) bool {
	if i+1 < end && s.src[i+1] == '=' {
		return false
	}
	if i == 0 {
		return false
	}
	prev := s.src[i-1]
	if !(isWordByte(prev) || prev == ')' || prev == ']') {
		return false
	}
	if i+1 >= end {
		return true
	}
	switch s.src[i+1] {
	case '.', ')', ']', ',', ';', '\n', ' ':
		return true
	}
	return false
}

type stopSet uint8

const (
	stopParam  stopSet = iota // ',' ')' '=' (not "=>")
	stopReturn                // '{' ';' '=' '\n'
	stopDecl                  // '=' ';' ',' '\n' ')'
	stopCast                  // value boundary
)

// skipType consumes a type expression: qualified names, generics, tuples,
// object types, literal types, unions and intersections. Bracketed groups
// are balanced; strings inside are skipped whole.
func (s *stripper) skipType(i, end uint32, stop stopSet) (uint32, error) {
	start := i
	depth := 0
	for i < end {
		b := s.src[i]
		if depth == 0 {
			switch stop {
			case stopParam:
				if b == ',' || b == ')' {
					s.removed++
					return i, nil
				}
				if b == '=' && (i+1 >= end || s.src[i+1] != '>') {
					s.removed++
					return i, nil
				}
			case stopReturn:
				if b == '{' || b == ';' || b == '\n' {
					s.removed++
					return i, nil
				}
				if b == '=' && i+1 < end && s.src[i+1] == '>' {
					s.removed++
					return i, nil
				}
			case stopDecl:
				if b == '=' && (i+1 >= end || s.src[i+1] != '>') {
					s.removed++
					return i, nil
				}
				if b == ';' || b == ',' || b == '\n' || b == ')' {
					s.removed++
					return i, nil
				}
			case stopCast:
				if b == ';' || b == ',' || b == ')' || b == ']' || b == '}' || b == '\n' || b == ':' || b == '?' {
					s.removed++
					return i, nil
				}
			}
		}
		switch b {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case '\'', '"', '`':
			j := s.skipLiteral(i, end, b)
			if j == i {
				return 0, diag.Errorf(diag.TsUnterminatedTypeDecl, i, "unterminated literal in type position")
			}
			i = j
			continue
		}
		i++
	}
	if stop == stopCast || stop == stopDecl || stop == stopReturn {
		s.removed++
		return end, nil // type runs to end of input
	}
	return 0, diag.Errorf(diag.TsUnterminatedTypeDecl, start, "unterminated type annotation")
}

func (s *stripper) skipLiteral(i, end uint32, quote byte) uint32 {
	j := i + 1
	for j < end {
		if s.src[j] == '\\' {
			j += 2
			continue
		}
		if s.src[j] == quote {
			return j + 1
		}
		j++
	}
	return i
}

// skipInterface drops "interface Name [extends ...] { ... }" entirely,
// including a trailing newline so no blank hole is left.
func (s *stripper) skipInterface(i, end uint32) (uint32, error) {
	start := i
	for i < end && s.src[i] != '{' {
		i++
	}
	if i >= end {
		return 0, diag.Errorf(diag.TsUnterminatedInterface, start, "interface declaration without body")
	}
	depth := 0
	for i < end {
		b := s.src[i]
		switch b {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				i++
				if i < end && s.src[i] == '\n' {
					i++
				}
				s.removed++
				s.noteRemoval("interface", start)
				return i, nil
			}
		case '\'', '"', '`':
			j := s.skipLiteral(i, end, b)
			if j == i {
				return 0, diag.Errorf(diag.TsUnterminatedInterface, i, "unterminated literal in interface body")
			}
			i = j
			continue
		}
		i++
	}
	return 0, diag.Errorf(diag.TsUnterminatedInterface, start, "unterminated interface body")
}

// skipTypeAlias drops "type Name = ..." through its depth-zero ';' or the
// end of the line.
func (s *stripper) skipTypeAlias(i, end uint32) (uint32, error) {
	start := i
	depth := 0
	for i < end {
		b := s.src[i]
		switch b {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case '\'', '"', '`':
			j := s.skipLiteral(i, end, b)
			if j == i {
				return 0, diag.Errorf(diag.TsUnterminatedTypeDecl, i, "unterminated literal in type alias")
			}
			i = j
			continue
		case ';':
			if depth <= 0 {
				i++
				if i < end && s.src[i] == '\n' {
					i++
				}
				s.removed++
				s.noteRemoval("type alias", start)
				return i, nil
			}
		case '\n':
			if depth <= 0 {
				s.removed++
				s.noteRemoval("type alias", start)
				return i, nil
			}
		}
		i++
	}
	s.removed++
	s.noteRemoval("type alias", start)
	return end, nil
}

func (s *stripper) noteRemoval(what string, off uint32) {
	if s.dbg.Enabled(debug.LevelTrace) {
		s.dbg.Tracef("stripped %s at offset %d", what, off)
	}
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
