// Package pipeline orchestrates the transpile passes. A run is a pure
// function of (source unit, options): it performs no I/O, holds no state
// between calls, and either reaches the Emitted state or halts at the
// first failing pass with a structured error and no partial output.
package pipeline

import (
	"errors"

	"hookc/internal/debug"
	"hookc/internal/diag"
	"hookc/internal/downlevel"
	"hookc/internal/imports"
	"hookc/internal/jsx"
	"hookc/internal/scan"
	"hookc/internal/source"
	"hookc/internal/tstrip"
	"hookc/internal/version"
)

// Transpile runs the full pass order over one source unit.
func Transpile(src, filename string, opts Options) (*Result, error) {
	backend := opts.Backend
	if backend == nil {
		backend = DefaultBackend()
	}
	r := &run{
		filename: filename,
		dbg:      opts.Debug,
		opts:     opts,
	}

	// Parsed: normalize and establish span coverage.
	fs := source.NewFileSet()
	id := fs.AddVirtual(filename, []byte(src))
	r.text = fs.Get(id).Content
	if err := r.rescan(); err != nil {
		return nil, r.fail(err)
	}
	r.enter(StateParsed)

	// TypesStripped.
	if opts.TypeScript {
		out, err := tstrip.Strip(r.text, r.spans, r.dbg)
		if err != nil {
			return nil, r.fail(err)
		}
		if err := r.swap(out); err != nil {
			return nil, r.fail(err)
		}
		r.enter(StateTypesStripped)
	}

	// JsxTransformed.
	out, hasJSX, err := backend.Transform(r.text, r.spans, jsx.Options{Factory: opts.Factory}, r.dbg)
	if err != nil {
		return nil, r.fail(err)
	}
	if err := r.swap(out); err != nil {
		return nil, r.fail(err)
	}
	r.enter(StateJsxTransformed)

	// ImportsProcessed: extraction always, rewrite only for host-bridge.
	records, err := imports.Extract(r.text, r.spans, r.dbg)
	if err != nil {
		return nil, r.fail(err)
	}
	hasDynamic := false
	for _, rec := range records {
		if rec.Dynamic {
			hasDynamic = true
			break
		}
	}
	if opts.ModuleFormat == FormatHostBridge {
		if err := r.swap(imports.Rewrite(r.text, records, r.dbg)); err != nil {
			return nil, r.fail(err)
		}
	}
	r.enter(StateImportsProcessed)

	// Downleveled: only for engines without native ?. and ??.
	if !opts.Target.Modern() {
		out, rewrites, err := downlevel.Transform(r.text, r.spans, downlevel.Options{RewriteDeclarations: true}, r.dbg)
		if err != nil {
			return nil, r.fail(err)
		}
		if r.dbg.Enabled(debug.LevelTrace) {
			r.dbg.Tracef("downlevel rewrote %d operators", rewrites)
		}
		if err := r.swap(out); err != nil {
			return nil, r.fail(err)
		}
		r.enter(StateDownleveled)
	}

	// ModuleConverted: exports become module.exports assignments.
	if opts.ModuleFormat != FormatSourcePassthrough {
		out, err := imports.ConvertExports(r.text, r.spans, r.dbg)
		if err != nil {
			return nil, r.fail(err)
		}
		if err := r.swap(out); err != nil {
			return nil, r.fail(err)
		}
		r.enter(StateModuleConverted)
	}

	r.enter(StateEmitted)
	return &Result{
		Code:             string(r.text),
		Imports:          records,
		HasJSX:           hasJSX,
		HasDynamicImport: hasDynamic,
		Version:          version.Version,
		Debug:            r.dbg.Entries(),
	}, nil
}

type run struct {
	filename string
	text     []byte
	spans    scan.Spans
	state    State
	dbg      *debug.Context
	opts     Options
}

func (r *run) enter(s State) {
	r.state = s
	if r.dbg.Enabled(debug.LevelTrace) {
		r.dbg.Tracef("pipeline: %s entered %s (%d bytes)", r.filename, s, len(r.text))
	}
}

// swap installs a pass's output as the next pass's input and re-derives
// span coverage for it.
func (r *run) swap(out string) error {
	r.text = []byte(out)
	return r.rescan()
}

func (r *run) rescan() error {
	spans, err := scan.Scan(r.text)
	if err != nil {
		return err
	}
	if err := spans.Validate(uint32(len(r.text))); err != nil {
		return err
	}
	r.spans = spans
	return nil
}

// fail converts a pass error into the public taxonomy, resolving byte
// offsets into positions within the failing pass's input.
func (r *run) fail(err error) error {
	var pe *diag.PosError
	if errors.As(err, &pe) {
		fs := source.NewFileSet()
		id := fs.AddVirtual(r.filename, r.text)
		lc := fs.Pos(id, pe.Offset)
		perr := &Error{Kind: kindOf(pe.Code), Message: pe.Msg, Line: lc.Line, Column: lc.Col}
		r.dbg.Errorf("pipeline halted at %s: %s", r.state, perr)
		return perr
	}
	perr := &Error{Kind: KindInternal, Message: err.Error()}
	r.dbg.Errorf("pipeline halted at %s: %s", r.state, perr)
	return perr
}
