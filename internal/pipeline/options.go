package pipeline

import (
	"fmt"
	"strings"

	"hookc/internal/debug"
	"hookc/internal/imports"
	"hookc/internal/jsx"
	"hookc/internal/scan"
)

// Platform is the runtime the emitted code targets. Web engines support
// optional chaining and nullish coalescing natively; the embedded native
// hosts do not and additionally reject block-scoped declarations.
type Platform uint8

const (
	PlatformWeb Platform = iota
	PlatformAndroid
	PlatformIOS
)

func (p Platform) String() string {
	switch p {
	case PlatformWeb:
		return "web"
	case PlatformAndroid:
		return "android"
	case PlatformIOS:
		return "ios"
	}
	return "unknown"
}

// Modern reports whether the platform's engine needs no downlevel pass.
func (p Platform) Modern() bool { return p == PlatformWeb }

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(s) {
	case "web", "":
		return PlatformWeb, nil
	case "android":
		return PlatformAndroid, nil
	case "ios":
		return PlatformIOS, nil
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// Format selects what happens to module syntax.
type Format uint8

const (
	// FormatHostBridge rewrites imports and exports into the runtime's
	// require/__hook_import/module.exports accessors.
	FormatHostBridge Format = iota
	// FormatSourcePassthrough leaves module syntax untouched; extraction
	// still runs for metadata.
	FormatSourcePassthrough
)

func (f Format) String() string {
	switch f {
	case FormatHostBridge:
		return "host-bridge"
	case FormatSourcePassthrough:
		return "source-passthrough"
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "host-bridge", "":
		return FormatHostBridge, nil
	case "source-passthrough", "passthrough":
		return FormatSourcePassthrough, nil
	}
	return 0, fmt.Errorf("unknown module format %q", s)
}

// Backend is a JSX transform implementation. The scanner-driven transform
// is the default; alternates are selected per call, so the choice is
// testable without rebuilding.
type Backend interface {
	Name() string
	Transform(src []byte, spans scan.Spans, opts jsx.Options, dbg *debug.Context) (out string, found bool, err error)
}

type scannerBackend struct{}

func (scannerBackend) Name() string { return "scanner" }

func (scannerBackend) Transform(src []byte, spans scan.Spans, opts jsx.Options, dbg *debug.Context) (string, bool, error) {
	return jsx.Transform(src, spans, opts, dbg)
}

// DefaultBackend returns the scanner-driven JSX transform.
func DefaultBackend() Backend { return scannerBackend{} }

type Options struct {
	// TypeScript enables the type-stripping pass.
	TypeScript   bool
	Target       Platform
	ModuleFormat Format
	// Factory overrides the JSX factory function name.
	Factory string
	// Debug collects trace entries for this call; nil disables tracing.
	Debug *debug.Context
	// Backend overrides the JSX transform implementation.
	Backend Backend
}

// Result is the terminal output of a successful run. The caller owns it.
type Result struct {
	Code             string
	Imports          []imports.Record
	HasJSX           bool
	HasDynamicImport bool
	Version          string
	Debug            []debug.Entry
}
