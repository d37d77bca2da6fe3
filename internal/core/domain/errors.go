package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateArtifact is returned when two chosen modules plan artifacts to the
	// same file path.
	ErrDuplicateArtifact = zerr.New("duplicate artifact file path")

	// ErrArtifactTransferFailed is returned when an artifact could not be copied or
	// downloaded after all retries.
	ErrArtifactTransferFailed = zerr.New("artifact transfer failed")

	// ErrDigestAlgorithmUnavailable is returned when the configured digest algorithm
	// is not registered.
	ErrDigestAlgorithmUnavailable = zerr.New("digest algorithm unavailable")

	// ErrStateFileCorrupt is returned when the persisted state file cannot be parsed.
	// Callers should treat this as "no prior state" rather than propagate it.
	ErrStateFileCorrupt = zerr.New("state file corrupt")

	// ErrUnknownRepositoryType is returned when a repository configuration names a
	// type with no registered factory.
	ErrUnknownRepositoryType = zerr.New("unknown repository type")

	// ErrCancelled is returned when a run is aborted via its cancellation signal.
	ErrCancelled = zerr.New("run cancelled")

	// ErrConfigInvalid is returned when a project configuration file is missing or
	// malformed.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrMalformedModule is returned when a repository returns a module lacking an
	// identifier or a logical identity key.
	ErrMalformedModule = zerr.New("malformed module from repository")

	// ErrNoTargetsSpecified is returned when an engine run has no explicit
	// specifications to resolve.
	ErrNoTargetsSpecified = zerr.New("no module specifications provided")
)
