package diagfmt

import (
	"encoding/json"
	"io"

	"hookc/internal/debug"
	"hookc/internal/imports"
	"hookc/internal/pipeline"
)

// The JSON shapes are the host contract: native and web embedders parse
// this to pre-fetch imports before executing a unit.

type jsonResult struct {
	Code             string        `json:"code,omitempty"`
	Version          string        `json:"version"`
	HasJSX           bool          `json:"hasJsx"`
	HasDynamicImport bool          `json:"hasDynamicImport"`
	Imports          []jsonImport  `json:"imports"`
	Debug            []jsonEntry   `json:"debug,omitempty"`
	Error            *jsonError    `json:"error,omitempty"`
}

type jsonImport struct {
	Specifier string        `json:"specifier,omitempty"`
	Resolved  bool          `json:"resolved"`
	Kind      string        `json:"kind"`
	Class     string        `json:"class"`
	TypeOnly  bool          `json:"typeOnly,omitempty"`
	Dynamic   bool          `json:"dynamic,omitempty"`
	Bindings  []jsonBinding `json:"bindings,omitempty"`
}

type jsonBinding struct {
	Kind     string `json:"kind"`
	Imported string `json:"imported"`
	Local    string `json:"local"`
}

type jsonEntry struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Line    uint32 `json:"line,omitempty"`
	Col     uint32 `json:"col,omitempty"`
}

type jsonError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Line    uint32 `json:"line,omitempty"`
	Column  uint32 `json:"column,omitempty"`
}

// ResultJSON writes a result as one JSON document.
func ResultJSON(w io.Writer, res *pipeline.Result, opts JSONOpts) error {
	doc := jsonResult{
		Version:          res.Version,
		HasJSX:           res.HasJSX,
		HasDynamicImport: res.HasDynamicImport,
		Imports:          jsonImports(res.Imports),
	}
	if opts.IncludeCode {
		doc.Code = res.Code
	}
	if opts.IncludeDebug {
		doc.Debug = jsonEntries(res.Debug)
	}
	return encode(w, doc, opts)
}

// ErrorJSON writes a structured failure as one JSON document.
func ErrorJSON(w io.Writer, perr *pipeline.Error, entries []debug.Entry, opts JSONOpts) error {
	doc := jsonResult{
		Imports: []jsonImport{},
		Error: &jsonError{
			Kind:    perr.Kind.String(),
			Message: perr.Message,
			Line:    perr.Line,
			Column:  perr.Column,
		},
	}
	if opts.IncludeDebug {
		doc.Debug = jsonEntries(entries)
	}
	return encode(w, doc, opts)
}

// ImportsJSON writes just the import records, for host pre-fetchers.
func ImportsJSON(w io.Writer, records []imports.Record, opts JSONOpts) error {
	return encode(w, jsonImports(records), opts)
}

func jsonImports(records []imports.Record) []jsonImport {
	out := make([]jsonImport, len(records))
	for i, rec := range records {
		ji := jsonImport{
			Specifier: rec.Specifier,
			Resolved:  rec.HasSpecifier,
			Kind:      rec.Kind.String(),
			Class:     rec.Class.String(),
			TypeOnly:  rec.TypeOnly,
			Dynamic:   rec.Dynamic,
		}
		for _, b := range rec.Bindings {
			ji.Bindings = append(ji.Bindings, jsonBinding{
				Kind:     b.Kind.String(),
				Imported: b.Imported,
				Local:    b.Local,
			})
		}
		out[i] = ji
	}
	return out
}

func jsonEntries(entries []debug.Entry) []jsonEntry {
	out := make([]jsonEntry, len(entries))
	for i, e := range entries {
		out[i] = jsonEntry{Level: e.Level.String(), Message: e.Message, Line: e.Line, Col: e.Col}
	}
	return out
}

func encode(w io.Writer, v any, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
