// Package state implements ports.StateStore as a flat, ordered text file,
// grounded on the atomic temp-file-then-rename write this engine is
// modeled on for its build-info cache, but against the record format
// specified for persisted artifact state (component G): one small
// key-value block per artifact, blank-line separated.
package state

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.StateStore.
type Store struct{}

// New creates a Store.
func New() *Store {
	return &Store{}
}

var _ ports.StateStore = (*Store)(nil)

// Load reads the state file at path. A missing file returns (nil, "", nil).
// A corrupt file is reported as domain.ErrStateFileCorrupt and the caller is
// expected to treat the run as having no prior state.
func (s *Store) Load(path, root string) ([]domain.Artifact, string, error) {
	//nolint:gosec // path is the engine's own configured state file, not untrusted input
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", zerr.Wrap(err, "open state file")
	}
	defer f.Close()

	algorithm, records, err := parse(f)
	if err != nil {
		return nil, "", zerr.With(zerr.Wrap(domain.ErrStateFileCorrupt, "parse state file"), "error", err.Error())
	}

	artifacts := make([]domain.Artifact, len(records))
	for i, r := range records {
		filePath := r.FilePath
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(root, filePath)
		}
		artifacts[i] = domain.Artifact{
			FilePath:  filePath,
			SourceURL: r.URL,
			Volatile:  r.Volatile,
			Digest:    r.Digest,
		}
	}
	return artifacts, algorithm, nil
}

// Save writes records sorted by (root-relative) file path to path,
// atomically via a temp file in the same directory followed by a rename.
// The leading block records the digest algorithm records were computed
// under, so a later Load can detect an algorithm change across runs.
func (s *Store) Save(path, root, algorithm string, records []domain.Artifact) error {
	sorted := make([]domain.Artifact, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FilePath < sorted[j].FilePath })

	var b strings.Builder
	if algorithm != "" {
		fmt.Fprintf(&b, "algorithm=%s\n\n", algorithm)
	}
	for i, a := range sorted {
		if i > 0 {
			b.WriteString("\n")
		}
		relFile := a.FilePath
		if rel, err := filepath.Rel(root, a.FilePath); err == nil {
			relFile = rel
		}
		fmt.Fprintf(&b, "url=%s\n", a.SourceURL)
		fmt.Fprintf(&b, "file=%s\n", relFile)
		if a.Volatile {
			fmt.Fprintf(&b, "volatile=%t\n", a.Volatile)
		}
		if a.Digest != "" {
			fmt.Fprintf(&b, "digest=%s\n", a.Digest)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return zerr.Wrap(err, "create state directory")
	}
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return zerr.Wrap(err, "create temp state file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // best-effort cleanup; rename below is the success path

	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		return zerr.Wrap(err, "write temp state file")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "close temp state file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return zerr.Wrap(err, "rename temp state file into place")
	}
	return nil
}

type record struct {
	URL      string
	FilePath string
	Volatile bool
	Digest   string
}

// parse reads the blank-line-separated key=value block format. A leading
// block containing only "algorithm" is the digest-algorithm header and is
// not an artifact record. Unknown keys are ignored for forward
// compatibility; a missing "digest" leaves Digest empty (treated by the
// installer as "modified"); a missing "volatile" defaults to false.
func parse(f *os.File) (string, []record, error) {
	var records []record
	var algorithm string
	cur := record{}
	curAlgorithm := ""
	hasContent := false
	first := true

	scanner := bufio.NewScanner(f)
	flush := func() {
		if !hasContent {
			first = false
			return
		}
		if first && curAlgorithm != "" && cur.FilePath == "" && cur.URL == "" {
			algorithm = curAlgorithm
		} else {
			records = append(records, cur)
		}
		cur = record{}
		curAlgorithm = ""
		hasContent = false
		first = false
	}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		hasContent = true
		switch key {
		case "algorithm":
			curAlgorithm = value
		case "url":
			cur.URL = value
		case "file":
			cur.FilePath = value
		case "volatile":
			v, err := strconv.ParseBool(value)
			if err == nil {
				cur.Volatile = v
			}
		case "digest":
			cur.Digest = value
		default:
			// unknown key, ignored
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return "", nil, err
	}
	return algorithm, records, nil
}
