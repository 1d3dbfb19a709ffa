package scan

// Context classifies a region of source text.
type Context uint8

const (
	// Code is anything executable: identifiers, operators, punctuation.
	Code Context = iota
	// String is a single- or double-quoted literal, quotes included.
	String
	// LineComment is a // comment, newline excluded.
	LineComment
	// BlockComment is a /* */ comment, delimiters included.
	BlockComment
	// TemplateText is the literal text of a backtick template, backticks
	// included, substitutions excluded.
	TemplateText
	// TemplateSub is a ${...} substitution inside a template, markers
	// included. The inner text is raw: transforms that care about nested
	// strings or comments re-scan it.
	TemplateSub
)

func (c Context) String() string {
	switch c {
	case Code:
		return "code"
	case String:
		return "string"
	case LineComment:
		return "line-comment"
	case BlockComment:
		return "block-comment"
	case TemplateText:
		return "template-text"
	case TemplateSub:
		return "template-sub"
	default:
		return "unknown"
	}
}

// Rewritable reports whether transform passes may touch bytes in this
// context. Strings, comments and raw template text are never rewritten.
func (c Context) Rewritable() bool {
	return c == Code || c == TemplateSub
}
