package imports

import (
	"strings"

	"hookc/internal/debug"
)

// Rewrite replaces every recorded import with its host-bridge form:
// static statements become require accessor calls keyed by specifier,
// dynamic calls become __hook_import with their argument text untouched.
// Type-only statements vanish; the runtime has nothing to load for them.
// records must be ordered by Start and refer to offsets in src.
func Rewrite(src []byte, records []Record, dbg *debug.Context) string {
	if len(records) == 0 {
		return string(src)
	}
	var out strings.Builder
	pos := uint32(0)
	rewritten := 0
	for _, rec := range records {
		out.Write(src[pos:rec.Start])
		pos = rec.End
		if rec.TypeOnly {
			pos = skipLineRemainder(src, pos)
			continue
		}
		if rec.Dynamic {
			out.WriteString("__hook_import(")
			out.WriteString(rec.ArgText)
			out.WriteString(")")
		} else {
			out.WriteString(requireForm(rec))
		}
		rewritten++
	}
	out.Write(src[pos:])
	if dbg.Enabled(debug.LevelTrace) {
		dbg.Tracef("import rewrite converted %d statements", rewritten)
	}
	return out.String()
}

// requireForm renders the accessor statement(s) for one static record.
func requireForm(rec Record) string {
	req := "require('" + escapeSpecifier(rec.Specifier) + "')"

	var defaultLocal, nsLocal string
	var named []Binding
	for _, b := range rec.Bindings {
		switch b.Kind {
		case BindDefault:
			defaultLocal = b.Local
		case BindNamespace:
			nsLocal = b.Local
		case BindNamed:
			named = append(named, b)
		}
	}

	var stmts []string
	if nsLocal != "" {
		stmts = append(stmts, "const "+nsLocal+" = "+req+";")
	}
	if defaultLocal != "" {
		stmts = append(stmts, "const "+defaultLocal+" = "+req+";")
	}
	if len(named) > 0 {
		parts := make([]string, len(named))
		for i, b := range named {
			if b.Local != b.Imported {
				parts[i] = b.Imported + ": " + b.Local
			} else {
				parts[i] = b.Imported
			}
		}
		stmts = append(stmts, "const { "+strings.Join(parts, ", ")+" } = "+req+";")
	}
	if len(stmts) == 0 {
		return req + ";"
	}
	return strings.Join(stmts, " ")
}

func escapeSpecifier(spec string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(spec)
}

// skipLineRemainder drops horizontal whitespace and a newline so a removed
// type-only import leaves no blank line behind.
func skipLineRemainder(src []byte, i uint32) uint32 {
	n := uint32(len(src))
	for i < n && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	if i < n && src[i] == '\n' {
		i++
	}
	return i
}
