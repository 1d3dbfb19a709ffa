// Package imports extracts import metadata from source units and, for the
// host-bridge module format, rewrites import and export syntax into the
// runtime's require/__hook_import accessor calls.
package imports

import "strings"

// Kind describes the dominant shape of an import statement. A statement
// mixing a default binding with a named list reports the stronger kind,
// in the order Namespace > Default > Named > SideEffect.
type Kind uint8

const (
	KindSideEffect Kind = iota
	KindNamed
	KindDefault
	KindNamespace
	KindDynamic
)

func (k Kind) String() string {
	switch k {
	case KindSideEffect:
		return "side-effect"
	case KindNamed:
		return "named"
	case KindDefault:
		return "default"
	case KindNamespace:
		return "namespace"
	case KindDynamic:
		return "dynamic"
	}
	return "unknown"
}

type BindingKind uint8

const (
	BindDefault BindingKind = iota
	BindNamed
	BindNamespace
)

func (k BindingKind) String() string {
	switch k {
	case BindDefault:
		return "default"
	case BindNamed:
		return "named"
	case BindNamespace:
		return "namespace"
	}
	return "unknown"
}

// Binding is one (imported, local) pair. For default bindings Imported is
// "default"; for namespaces it is "*".
type Binding struct {
	Kind     BindingKind
	Imported string
	Local    string
}

// Class categorizes a specifier for host-side resolution.
type Class uint8

const (
	ClassRelative Class = iota
	ClassPackage
	ClassScoped
	ClassBuiltin
)

func (c Class) String() string {
	switch c {
	case ClassRelative:
		return "relative"
	case ClassPackage:
		return "package"
	case ClassScoped:
		return "scoped"
	case ClassBuiltin:
		return "builtin"
	}
	return "unknown"
}

// builtinScope is the runtime's own package scope; everything under it is
// provided by the host, as are the platform UI packages.
const builtinScope = "@hookrt/"

var builtinPackages = map[string]bool{
	"react":        true,
	"react-dom":    true,
	"react-native": true,
}

// Classify maps a specifier onto the resolution class the host needs.
func Classify(spec string) Class {
	switch {
	case builtinPackages[spec] || strings.HasPrefix(spec, builtinScope):
		return ClassBuiltin
	case strings.HasPrefix(spec, "."), strings.HasPrefix(spec, "/"):
		return ClassRelative
	case strings.HasPrefix(spec, "@"):
		return ClassScoped
	default:
		return ClassPackage
	}
}

// Record is the metadata for one import statement or dynamic import call.
// Start and End are byte offsets into the pass input covering the whole
// statement (or the whole call expression for dynamic imports).
type Record struct {
	Specifier    string
	HasSpecifier bool
	Kind         Kind
	Class        Class
	Bindings     []Binding
	TypeOnly     bool
	Dynamic      bool

	// ArgText is the verbatim argument list of a dynamic import call,
	// preserved so the rewrite never alters non-literal expressions.
	ArgText string

	Start uint32
	End   uint32
}
