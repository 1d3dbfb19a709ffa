package source

type (
	// FileID uniquely identifies a source unit within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source unit.
	FileFlags uint8
)

const (
	// FileVirtual indicates the unit was added from memory (API call, test, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures metadata and content for a single source unit.
// Content is immutable once the file has been added to a FileSet.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source unit.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}
