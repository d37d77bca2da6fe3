package domain

// Artifact is a file copied or downloaded from a source URL as part of
// installing a module. Equality and map-keying use FilePath only, mirroring
// the source model this engine is based on: two artifacts that land on the
// same path are the same artifact regardless of which module planned them.
type Artifact struct {
	// FilePath is the absolute destination path on disk.
	FilePath string

	// SourceURL is where the artifact's content comes from.
	SourceURL string

	// Volatile artifacts are expected to be edited by the user after
	// install; the installer preserves their on-disk content rather than
	// overwriting it on later runs.
	Volatile bool

	// Digest is the lowercase hex digest of the file's content at last
	// successful install, under the engine's configured algorithm. Empty
	// means unknown (never installed, or state predates digesting).
	Digest string
}

// Equal reports whether two artifacts occupy the same file path.
func (a Artifact) Equal(other Artifact) bool {
	return a.FilePath == other.FilePath
}

// DebugString renders an artifact for diagnostics.
func (a Artifact) DebugString() string {
	s := a.FilePath + " <- " + a.SourceURL
	if a.Volatile {
		s += " (volatile)"
	}
	if a.Digest != "" {
		s += " [" + a.Digest + "]"
	}
	return s
}
