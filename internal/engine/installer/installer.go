// Package installer implements the artifact installer: given the chosen
// modules from conflict resolution, it materializes their artifacts on
// disk with content-addressed integrity, incremental skip logic, volatile
// file preservation, and cleanup of orphans left by previous runs.
package installer

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	maxAttempts  = 3
	retryBase    = 250 * time.Millisecond
)

// FailedArtifact pairs an artifact with why its transfer failed after all
// retries.
type FailedArtifact struct {
	Artifact domain.Artifact
	Cause    error
}

// Result summarizes one installer run.
type Result struct {
	Installed []domain.Artifact
	Skipped   []domain.Artifact
	Failed    []FailedArtifact
	Removed   []domain.Artifact
}

// Installer materializes chosen modules' artifacts on disk.
type Installer struct {
	Root        string
	StateFile   string
	Concurrency int
	Overwrite   bool
	Digest      ports.Digest
	State       ports.StateStore
	Notifier    ports.Notifier
	HTTPClient  *http.Client
}

// New builds an Installer. A concurrency of 0 defaults to the logical CPU
// count.
func New(root, stateFile string, concurrency int, overwrite bool, digestPort ports.Digest, state ports.StateStore, notifier ports.Notifier) *Installer {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if notifier == nil {
		notifier = ports.NullNotifier{}
	}
	return &Installer{
		Root:        root,
		StateFile:   stateFile,
		Concurrency: concurrency,
		Overwrite:   overwrite,
		Digest:      digestPort,
		State:       state,
		Notifier:    notifier,
		HTTPClient:  http.DefaultClient,
	}
}

// Run plans, diffs, installs, cleans up, and persists state for chosen.
func (in *Installer) Run(ctx context.Context, chosen []*domain.Module) (*Result, error) {
	planned, err := in.plan(ctx, chosen)
	if err != nil {
		return nil, err
	}

	previous, prevAlgorithm, err := in.State.Load(in.StateFile, in.Root)
	if err != nil {
		in.Notifier.Warn("persisted state unreadable, treating as absent: " + err.Error())
		previous = nil
	}
	algorithmChanged := prevAlgorithm != "" && prevAlgorithm != in.Digest.Algorithm()
	if algorithmChanged {
		in.Notifier.Warn("digest algorithm changed from " + prevAlgorithm + " to " + in.Digest.Algorithm() + ", treating all artifacts as modified")
	}
	previousByPath := make(map[string]domain.Artifact, len(previous))
	if !algorithmChanged {
		for _, a := range previous {
			previousByPath[a.FilePath] = a
		}
	}

	toInstall, toKeep := in.diff(planned, previousByPath)
	toRemove := in.orphans(planned, previous)

	result := &Result{}
	installed, failed := in.install(ctx, toInstall)
	result.Installed = installed
	result.Failed = failed
	result.Skipped = toKeep

	for _, a := range toRemove {
		if err := in.delete(a); err != nil {
			in.Notifier.Warn("failed to remove orphaned artifact " + a.FilePath + ": " + err.Error())
			continue
		}
		result.Removed = append(result.Removed, a)
	}

	final := make([]domain.Artifact, 0, len(result.Installed)+len(result.Skipped))
	final = append(final, result.Installed...)
	final = append(final, result.Skipped...)
	if err := in.State.Save(in.StateFile, in.Root, in.Digest.Algorithm(), final); err != nil {
		return result, zerr.Wrap(err, "persist state")
	}

	return result, nil
}

// plan requests each chosen module's artifact list and resolves their
// repository-relative file paths into absolute paths under Root. Two
// distinct planned artifacts landing on the same file path is fatal.
func (in *Installer) plan(ctx context.Context, chosen []*domain.Module) (map[string]domain.Artifact, error) {
	planned := make(map[string]domain.Artifact)
	for _, m := range chosen {
		if m.Identifier == nil || m.Identifier.Repository == nil {
			continue
		}
		artifacts, err := m.Identifier.Repository.GetArtifacts(ctx, m)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "get artifacts"), "module", m.Identifier.String())
		}
		for _, a := range artifacts {
			abs := a
			if !filepath.IsAbs(abs.FilePath) {
				abs.FilePath = filepath.Join(in.Root, abs.FilePath)
			}
			if _, ok := planned[abs.FilePath]; ok {
				return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateArtifact, "plan artifacts"), "file", abs.FilePath)
			}
			planned[abs.FilePath] = abs
		}
	}
	return planned, nil
}

// diff splits planned artifacts into those that need installing and those
// that can be skipped unchanged, per the incremental-skip rules.
func (in *Installer) diff(planned map[string]domain.Artifact, previous map[string]domain.Artifact) (install, keep []domain.Artifact) {
	for path, a := range planned {
		prev, hadPrev := previous[path]
		_, statErr := os.Stat(path)
		exists := statErr == nil

		switch {
		case in.Overwrite:
			install = append(install, a)
		case !exists:
			install = append(install, a)
		case a.Volatile:
			// Volatile files are never overwritten once present; the
			// installer only refreshes their recorded digest to match
			// whatever is on disk now.
			if currentDigest, err := in.Digest.SumFile(path); err == nil {
				a.Digest = currentDigest
			} else {
				a.Digest = prev.Digest
			}
			in.Notifier.Cached(a)
			keep = append(keep, a)
		case !hadPrev || prev.Digest == "":
			install = append(install, a)
		default:
			currentDigest, err := in.Digest.SumFile(path)
			if err != nil || currentDigest != prev.Digest {
				install = append(install, a)
			} else {
				a.Digest = currentDigest
				in.Notifier.Cached(a)
				keep = append(keep, a)
			}
		}
	}
	return install, keep
}

// orphans returns previously-installed artifacts with no counterpart in the
// current plan.
func (in *Installer) orphans(planned map[string]domain.Artifact, previous []domain.Artifact) []domain.Artifact {
	var removed []domain.Artifact
	for _, a := range previous {
		if _, ok := planned[a.FilePath]; !ok {
			removed = append(removed, a)
		}
	}
	return removed
}

// install materializes every artifact in toInstall concurrently, bounded by
// Concurrency. Volatile artifacts that already exist on disk have their
// digest refreshed from current content rather than being overwritten;
// everything else is fetched fresh.
func (in *Installer) install(ctx context.Context, toInstall []domain.Artifact) ([]domain.Artifact, []FailedArtifact) {
	installed := make([]domain.Artifact, len(toInstall))
	failed := make([]FailedArtifact, len(toInstall))
	ok := make([]bool, len(toInstall))
	hasFailure := make([]bool, len(toInstall))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(in.Concurrency)

	for i, a := range toInstall {
		i, a := i, a
		g.Go(func() error {
			result, err := in.installOne(groupCtx, a)
			if err != nil {
				failed[i] = FailedArtifact{Artifact: a, Cause: err}
				hasFailure[i] = true
				return nil
			}
			installed[i] = result
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait() // per-artifact errors are captured above; other artifacts always continue

	var installedOut []domain.Artifact
	var failedOut []FailedArtifact
	for i := range toInstall {
		if ok[i] {
			installedOut = append(installedOut, installed[i])
		}
		if hasFailure[i] {
			failedOut = append(failedOut, failed[i])
		}
	}
	return installedOut, failedOut
}

// installOne installs a single artifact, retrying transient failures up to
// maxAttempts times with exponential backoff.
func (in *Installer) installOne(ctx context.Context, a domain.Artifact) (domain.Artifact, error) {
	if a.Volatile {
		if _, err := os.Stat(a.FilePath); err == nil {
			digest, err := in.Digest.SumFile(a.FilePath)
			if err != nil {
				return domain.Artifact{}, zerr.Wrap(err, "digest existing volatile artifact")
			}
			a.Digest = digest
			return a, nil
		}
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Artifact{}, zerr.Wrap(domain.ErrCancelled, "artifact transfer cancelled")
			case <-time.After(retryBase << uint(attempt-1)):
			}
		}
		digest, err := in.transfer(ctx, a)
		if err == nil {
			a.Digest = digest
			return a, nil
		}
		lastErr = err
	}
	return domain.Artifact{}, zerr.With(zerr.Wrap(domain.ErrArtifactTransferFailed, lastErr.Error()), "file", a.FilePath)
}

// transfer downloads or copies a into place via a temp file + rename, and
// reports progress through the notifier as it goes.
func (in *Installer) transfer(ctx context.Context, a domain.Artifact) (string, error) {
	src, size, err := in.open(ctx, a.SourceURL)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Dir(a.FilePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", zerr.Wrap(err, "create artifact directory")
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*.tmp")
	if err != nil {
		return "", zerr.Wrap(err, "create temp artifact file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	counter := &progressWriter{notifier: in.Notifier, artifact: a, total: size}
	digester, err := in.Digest.Sum(io.TeeReader(src, io.MultiWriter(tmp, counter)))
	if err != nil {
		tmp.Close()
		return "", zerr.Wrap(err, "transfer artifact")
	}
	if err := tmp.Close(); err != nil {
		return "", zerr.Wrap(err, "close temp artifact file")
	}
	if err := os.Rename(tmpPath, a.FilePath); err != nil {
		return "", zerr.Wrap(err, "rename artifact into place")
	}
	return digester, nil
}

// open returns a reader for sourceURL and its declared size (0 if unknown),
// supporting file:// and http(s):// schemes.
func (in *Installer) open(ctx context.Context, sourceURL string) (io.ReadCloser, int64, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, 0, zerr.Wrap(err, "parse source url")
	}
	switch u.Scheme {
	case "", "file":
		path := u.Path
		if path == "" {
			path = sourceURL
		}
		//nolint:gosec // path originates from the engine's own repository-declared artifact list
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, zerr.Wrap(err, "open source file")
		}
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, 0, zerr.Wrap(err, "stat source file")
		}
		return f, info.Size(), nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
		if err != nil {
			return nil, 0, zerr.Wrap(err, "build download request")
		}
		resp, err := in.HTTPClient.Do(req)
		if err != nil {
			return nil, 0, zerr.Wrap(err, "download artifact")
		}
		if resp.StatusCode/100 != 2 {
			resp.Body.Close()
			return nil, 0, zerr.With(zerr.New("unexpected response status"), "status", resp.StatusCode)
		}
		return resp.Body, resp.ContentLength, nil
	default:
		return nil, 0, zerr.With(zerr.New("unsupported source url scheme"), "scheme", u.Scheme)
	}
}

// delete removes a's file and walks up removing empty parent directories,
// stopping at (and never beyond) Root.
func (in *Installer) delete(a domain.Artifact) error {
	if err := os.Remove(a.FilePath); err != nil && !os.IsNotExist(err) {
		return zerr.Wrap(err, "remove artifact file")
	}
	dir := filepath.Dir(a.FilePath)
	root := filepath.Clean(in.Root)
	for dir != root && len(dir) > len(root) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			break
		}
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// progressWriter reports every write to the notifier as transfer progress.
type progressWriter struct {
	notifier ports.Notifier
	artifact domain.Artifact
	total    int64
	done     int64
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.done += int64(len(b))
	p.notifier.Progress(p.artifact, p.done, p.total)
	return len(b), nil
}

// sortedPaths returns the file paths of artifacts in sorted order.
func sortedPaths(artifacts []domain.Artifact) []string {
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.FilePath
	}
	sort.Strings(paths)
	return paths
}
