package imports

import (
	"bytes"
	"strings"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/scan"
)

// ConvertExports rewrites ES module export syntax into module.exports
// assignments for the host-bridge format. Declarations stay in place and
// their exported names are assigned at the end of the unit; export lists
// and re-exports are rewritten where they stand.
func ConvertExports(src []byte, spans scan.Spans, dbg *debug.Context) (string, error) {
	c := &converter{src: src, dbg: dbg}
	n := uint32(len(src))
	si := 0
	pos := uint32(0)
	for i := uint32(0); i < n; {
		for si < len(spans) && spans[si].End <= i {
			si++
		}
		if si >= len(spans) {
			break
		}
		sp := spans[si]
		if sp.Ctx != scan.Code {
			i = sp.End
			continue
		}
		if i < sp.Start {
			i = sp.Start
		}
		kw, found := findExport(src, i, sp.End)
		if !found {
			i = sp.End
			continue
		}
		c.out.Write(src[pos:kw])
		next, err := c.export(kw)
		if err != nil {
			return "", err
		}
		pos = next
		i = next
	}
	c.out.Write(src[pos:])
	c.appendDeferred()
	if c.converted > 0 && dbg.Enabled(debug.LevelTrace) {
		dbg.Tracef("module conversion rewrote %d exports", c.converted)
	}
	return c.out.String(), nil
}

type converter struct {
	src       []byte
	out       strings.Builder
	dbg       *debug.Context
	deferred  []string
	converted int
}

func findExport(src []byte, i, end uint32) (uint32, bool) {
	for i+6 <= end {
		k := bytes.Index(src[i:end], []byte("export"))
		if k < 0 {
			return 0, false
		}
		j := i + uint32(k)
		boundedLeft := j == 0 || (!isWord(src[j-1]) && src[j-1] != '.')
		boundedRight := j+6 >= uint32(len(src)) || !isWord(src[j+6])
		if boundedLeft && boundedRight {
			return j, true
		}
		i = j + 6
	}
	return 0, false
}

// export rewrites one export construct starting at the keyword and returns
// the offset processing resumes at.
func (c *converter) export(kw uint32) (uint32, error) {
	i := skipWS(c.src, kw+6)
	n := uint32(len(c.src))
	if i >= n {
		c.out.Write(c.src[kw:])
		return n, nil
	}

	if c.src[i] == '{' {
		return c.exportList(kw, i+1)
	}
	if c.src[i] == '*' {
		return c.exportStar(kw, i+1)
	}

	word, wend := scanWord(c.src, i)
	switch word {
	case "default":
		c.out.WriteString("module.exports.default =")
		c.converted++
		return wend, nil

	case "async":
		if nw, _ := scanWord(c.src, skipWS(c.src, wend)); nw != "function" {
			break
		}
		fallthrough
	case "function", "class", "const", "let", "var":
		name := c.declaredName(wend)
		if name == "" {
			break
		}
		c.deferred = append(c.deferred, name)
		c.converted++
		return i, nil // drop "export ", keep the declaration
	}

	// Unrecognized form, leave it alone.
	c.out.Write(c.src[kw : kw+6])
	return kw + 6, nil
}

// declaredName finds the identifier a declaration introduces, skipping the
// function keyword of "async function".
func (c *converter) declaredName(i uint32) string {
	i = skipWS(c.src, i)
	word, wend := scanWord(c.src, i)
	if word == "function" {
		i = skipWS(c.src, wend)
		word, _ = scanWord(c.src, i)
	}
	return word
}

// exportList handles "export { a, b as c }" with an optional re-export
// source: without one, locals are assigned; with one, members are pulled
// straight off the required module.
func (c *converter) exportList(kw, i uint32) (uint32, error) {
	type pair struct{ local, exported string }
	var pairs []pair
	n := uint32(len(c.src))
	for {
		i = skipWS(c.src, i)
		if i >= n {
			return 0, diag.Errorf(diag.ImpUnterminatedClause, kw, "unterminated export list")
		}
		if c.src[i] == '}' {
			i++
			break
		}
		local, wend := scanWord(c.src, i)
		if local == "" {
			return 0, diag.Errorf(diag.ImpUnterminatedClause, i, "expected name in export list")
		}
		exported := local
		i = skipWS(c.src, wend)
		if word, aend := scanWord(c.src, i); word == "as" {
			exported, i = scanWord(c.src, skipWS(c.src, aend))
			if exported == "" {
				return 0, diag.Errorf(diag.ImpUnterminatedClause, aend, "expected alias after as")
			}
		}
		pairs = append(pairs, pair{local, exported})
		i = skipWS(c.src, i)
		if i < n && c.src[i] == ',' {
			i++
		}
	}

	i = skipWS(c.src, i)
	source := ""
	if word, wend := scanWord(c.src, i); word == "from" {
		j := skipWS(c.src, wend)
		if j >= n || !isQuote(c.src[j]) {
			return 0, diag.Errorf(diag.ImpBadSpecifier, j, "expected quoted specifier after from")
		}
		spec, next, err := readSpecifier(c.src, j)
		if err != nil {
			return 0, err
		}
		source = spec
		i = next
	}
	i = swallowSemi(c.src, i)

	var stmts []string
	for _, p := range pairs {
		if source != "" {
			stmts = append(stmts, "module.exports."+p.exported+" = require('"+escapeSpecifier(source)+"')."+p.local+";")
		} else {
			stmts = append(stmts, "module.exports."+p.exported+" = "+p.local+";")
		}
	}
	c.out.WriteString(strings.Join(stmts, " "))
	c.converted++
	return i, nil
}

// exportStar handles "export * from 'm'".
func (c *converter) exportStar(kw, i uint32) (uint32, error) {
	i = skipWS(c.src, i)
	word, wend := scanWord(c.src, i)
	if word != "from" {
		return 0, diag.Errorf(diag.ImpMissingFrom, kw, "export * without a from specifier")
	}
	j := skipWS(c.src, wend)
	if j >= uint32(len(c.src)) || !isQuote(c.src[j]) {
		return 0, diag.Errorf(diag.ImpBadSpecifier, j, "expected quoted specifier after from")
	}
	spec, next, err := readSpecifier(c.src, j)
	if err != nil {
		return 0, err
	}
	next = swallowSemi(c.src, next)
	c.out.WriteString("Object.assign(module.exports, require('" + escapeSpecifier(spec) + "'));")
	c.converted++
	return next, nil
}

func (c *converter) appendDeferred() {
	if len(c.deferred) == 0 {
		return
	}
	s := c.out.String()
	if len(s) > 0 && s[len(s)-1] != '\n' {
		c.out.WriteByte('\n')
	}
	for _, name := range c.deferred {
		c.out.WriteString("module.exports." + name + " = " + name + ";\n")
	}
}

// readSpecifier parses a quoted module path at i, unescaping backslashes.
func readSpecifier(src []byte, i uint32) (string, uint32, error) {
	quote := src[i]
	n := uint32(len(src))
	var b strings.Builder
	j := i + 1
	for j < n {
		c := src[j]
		if c == '\\' && j+1 < n {
			b.WriteByte(src[j+1])
			j += 2
			continue
		}
		if c == quote {
			return b.String(), j + 1, nil
		}
		if c == '\n' {
			break
		}
		b.WriteByte(c)
		j++
	}
	return "", 0, diag.Errorf(diag.ImpBadSpecifier, i, "unterminated specifier")
}

func swallowSemi(src []byte, i uint32) uint32 {
	n := uint32(len(src))
	j := i
	for j < n && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < n && src[j] == ';' {
		return j + 1
	}
	return i
}

func skipWS(src []byte, i uint32) uint32 {
	n := uint32(len(src))
	for i < n {
		switch src[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func scanWord(src []byte, i uint32) (string, uint32) {
	n := uint32(len(src))
	if i >= n || !isWordStart(src[i]) {
		return "", i
	}
	j := i
	for j < n && isWord(src[j]) {
		j++
	}
	return string(src[i:j]), j
}
