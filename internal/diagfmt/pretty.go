package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"hookc/internal/debug"
	"hookc/internal/pipeline"
	"hookc/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	kindColor = color.New(color.FgMagenta)
	posColor  = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen)
	dimColor  = color.New(color.Faint)
)

// Error renders a structured pipeline error with the offending source
// line and a caret under the reported column.
// Format: <path>:<line>:<col>: error [<kind>]: <message>
func Error(w io.Writer, path string, src []byte, perr *pipeline.Error, opts PrettyOpts) {
	pos := path
	if perr.Line > 0 {
		pos = fmt.Sprintf("%s:%d:%d", path, perr.Line, perr.Column)
	}
	if opts.Color {
		fmt.Fprintf(w, "%s: %s [%s]: %s\n",
			posColor.Sprint(pos), errColor.Sprint("error"), kindColor.Sprint(perr.Kind), perr.Message)
	} else {
		fmt.Fprintf(w, "%s: error [%s]: %s\n", pos, perr.Kind, perr.Message)
	}
	if perr.Line == 0 || len(src) == 0 {
		return
	}

	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(path, src))

	first := perr.Line
	if opts.Context > 0 && first > uint32(opts.Context) {
		first = perr.Line - uint32(opts.Context)
	}
	for ln := first; ln <= perr.Line; ln++ {
		line := file.GetLine(ln)
		fmt.Fprintf(w, "%5d | %s\n", ln, line)
		if ln != perr.Line {
			continue
		}
		col := int(perr.Column)
		if col < 1 {
			col = 1
		}
		// Pad by display width so the caret lands under wide runes too.
		prefix := line
		if col-1 <= len(line) {
			prefix = line[:col-1]
		}
		pad := strings.Repeat(" ", runewidth.StringWidth(prefix))
		caret := "^"
		if opts.Color {
			caret = errColor.Sprint(caret)
		}
		fmt.Fprintf(w, "      | %s%s\n", pad, caret)
	}
}

// Result renders a one-unit success summary.
func Result(w io.Writer, path string, res *pipeline.Result, opts PrettyOpts) {
	status := "ok"
	if opts.Color {
		status = okColor.Sprint(status)
	}
	fmt.Fprintf(w, "%s: %s (%d bytes", path, status, len(res.Code))
	var traits []string
	if res.HasJSX {
		traits = append(traits, "jsx")
	}
	if res.HasDynamicImport {
		traits = append(traits, "dynamic-import")
	}
	if len(traits) > 0 {
		fmt.Fprintf(w, ", %s", strings.Join(traits, ", "))
	}
	fmt.Fprintf(w, ", %d imports)\n", len(res.Imports))

	for _, rec := range res.Imports {
		spec := "(unresolved)"
		if rec.HasSpecifier {
			spec = rec.Specifier
		}
		line := fmt.Sprintf("  %-10s %-8s %s", rec.Kind, rec.Class, spec)
		if opts.Color {
			line = dimColor.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
	if opts.ShowDebug {
		Debug(w, res.Debug, opts)
	}
}

// Debug renders retained trace entries, one per line.
func Debug(w io.Writer, entries []debug.Entry, opts PrettyOpts) {
	for _, e := range entries {
		line := fmt.Sprintf("  [%s] %s", e.Level, e.Message)
		if e.Line > 0 {
			line = fmt.Sprintf("  [%s] %d:%d %s", e.Level, e.Line, e.Col, e.Message)
		}
		if opts.Color {
			line = dimColor.Sprint(line)
		}
		fmt.Fprintln(w, line)
	}
}
