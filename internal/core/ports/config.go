package ports

import "github.com/threecrickets/resolve/internal/core/domain"

// RunConfig is the fully-parsed configuration for one engine run: what to
// resolve, where to look, and how to resolve conflicts.
type RunConfig struct {
	// Specifications are the top-level module specifications, in file
	// order, together with their explicit flag.
	Specifications []SpecificationConfig

	// Exclusions are specifications that remove a module (and its orphaned
	// descendants) from the graph entirely.
	Exclusions []domain.Specification

	// Repositories are built in declared order; that order is the
	// tie-break used by the identification engine for "first non-null
	// wins."
	Repositories []domain.Repository

	// Policy selects the conflict resolution strategy.
	Policy domain.ConflictPolicy

	// Root is the directory artifacts install into.
	Root string

	// StateFile is where persisted state is read from and written to.
	StateFile string

	// DigestAlgorithm names the configured Digest implementation.
	DigestAlgorithm string
}

// SpecificationConfig pairs a specification with whether it was explicitly
// requested by the user (as opposed to discovered as a dependency).
type SpecificationConfig struct {
	Specification domain.Specification
	Explicit      bool
}

// ConfigLoader loads a RunConfig from a project configuration file.
type ConfigLoader interface {
	Load(path string) (*RunConfig, error)
}
