package diagfmt

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color bool
	// Context is the number of source lines shown around an error line.
	Context int
	// ShowDebug appends retained trace entries after the main output.
	ShowDebug bool
}

// JSONOpts configures machine-readable output.
type JSONOpts struct {
	// IncludeCode embeds the emitted code alongside the metadata.
	IncludeCode bool
	// IncludeDebug embeds retained trace entries.
	IncludeDebug bool
	Indent       bool
}
