// Package ports declares the interfaces the engine consumes from its
// adapters: notification, digesting, configuration loading, and persisted
// state storage. The engine depends only on these interfaces, never on the
// concrete adapters in internal/adapters.
package ports

import "github.com/threecrickets/resolve/internal/core/domain"

// Notifier is how the engine reports progress to its caller. Implementations
// must be safe to call concurrently: identification workers and installer
// workers both call it from multiple goroutines.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	// Progress reports that bytesDone of bytesTotal have transferred for
	// artifact. bytesTotal is 0 when the source did not report a size.
	Progress(artifact domain.Artifact, bytesDone, bytesTotal int64)

	// Cached reports that artifact was skipped by the incremental-install
	// check, rendered as a cache hit rather than a completed transfer.
	Cached(artifact domain.Artifact)
}

// NullNotifier discards every notification. It is the engine's default,
// matching the source's NullEventHandler.
type NullNotifier struct{}

var _ Notifier = NullNotifier{}

func (NullNotifier) Info(string)  {}
func (NullNotifier) Warn(string)  {}
func (NullNotifier) Error(string) {}
func (NullNotifier) Progress(domain.Artifact, int64, int64) {}
func (NullNotifier) Cached(domain.Artifact)                {}
