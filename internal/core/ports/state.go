package ports

import "github.com/threecrickets/resolve/internal/core/domain"

// StateStore loads and persists the artifact records the installer diffs
// against across runs.
type StateStore interface {
	// Load reads the state file at path, resolving the relative file paths
	// recorded in it against root. A missing file
	// is not an error: it returns a nil slice and an empty algorithm. A
	// corrupt file is reported via notifier as a warning and treated as
	// absent, per domain.ErrStateFileCorrupt. The returned algorithm is the
	// digest algorithm the file was written under ("" for a file predating
	// that header or one that does not exist); callers must treat a
	// mismatch against the run's configured algorithm as "all artifacts
	// modified".
	Load(path, root string) ([]domain.Artifact, string, error)

	// Save writes records, sorted by file path, to path atomically
	// (temp file + rename), tagged with the digest algorithm they were
	// computed under. File paths are recorded relative to root.
	Save(path, root, algorithm string, records []domain.Artifact) error
}
