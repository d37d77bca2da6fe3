// Package notifier implements ports.Notifier as a progress tree rendered by
// github.com/vito/progrock, grounded on this engine's progrock-backed
// telemetry adapter: a Recorder wraps a progrock.Tape and
// progrock.Recorder, and every unit of work becomes a Vertex that receives
// log lines and a completion signal.
package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
)

// Notifier implements ports.Notifier on top of a progrock recording
// session. All log-style calls are rendered against a single root vertex;
// Progress calls get their own vertex per artifact file path, so a
// terminal renderer can show one progress line per transferring file.
type Notifier struct {
	w    progrock.Writer
	rec  *progrock.Recorder
	root *progrock.VertexRecorder

	mu       sync.Mutex
	vertices map[string]*progrock.VertexRecorder
}

// New creates a Notifier writing to w (typically a progrock.Tape attached
// to a terminal renderer).
func New(w progrock.Writer) *Notifier {
	rec := progrock.NewRecorder(w)
	root := rec.Vertex(digest.FromString("run"), "run")
	return &Notifier{
		w:        w,
		rec:      rec,
		root:     root,
		vertices: make(map[string]*progrock.VertexRecorder),
	}
}

var _ ports.Notifier = (*Notifier)(nil)

// Info logs an informational line against the root vertex.
func (n *Notifier) Info(msg string) {
	n.log(n.root.Stdout(), "INFO", msg)
}

// Warn logs a warning line against the root vertex.
func (n *Notifier) Warn(msg string) {
	n.log(n.root.Stdout(), "WARN", msg)
}

// Error logs an error line against the root vertex.
func (n *Notifier) Error(msg string) {
	n.log(n.root.Stderr(), "ERROR", msg)
}

func (n *Notifier) log(w io.Writer, level, msg string) {
	_, _ = fmt.Fprintf(w, "[%s] %s\n", level, msg)
}

// Progress reports transfer progress for artifact, rendered as its own
// vertex keyed by file path so a renderer can show one line per in-flight
// artifact. A call with bytesDone == bytesTotal marks the vertex done.
func (n *Notifier) Progress(artifact domain.Artifact, bytesDone, bytesTotal int64) {
	v := n.vertexFor(artifact)
	if bytesTotal > 0 {
		_, _ = fmt.Fprintf(v.Stdout(), "%s: %d/%d bytes\n", artifact.FilePath, bytesDone, bytesTotal)
	} else {
		_, _ = fmt.Fprintf(v.Stdout(), "%s: %d bytes\n", artifact.FilePath, bytesDone)
	}
	if bytesTotal > 0 && bytesDone >= bytesTotal {
		v.Done(nil)
	}
}

// Cached marks artifact's vertex as a cache hit (incremental skip), rather
// than a completed transfer.
func (n *Notifier) Cached(artifact domain.Artifact) {
	n.vertexFor(artifact).Cached()
}

func (n *Notifier) vertexFor(artifact domain.Artifact) *progrock.VertexRecorder {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, ok := n.vertices[artifact.FilePath]
	if !ok {
		v = n.rec.Vertex(digest.FromString(artifact.FilePath), artifact.FilePath)
		n.vertices[artifact.FilePath] = v
	}
	return v
}

// Close flushes and closes the recording session.
func (n *Notifier) Close() error {
	n.root.Done(nil)
	if c, ok := n.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
