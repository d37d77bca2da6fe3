// Package digest implements ports.Digest over the standard library's
// cryptographic hash functions, grounded on the build-cache hasher this
// engine is modeled on (open file, copy into a running hash, hex-encode)
// but swapping the non-cryptographic xxhash used there for a pluggable
// crypto/sha1 or crypto/sha256 factory, per the engine-scoped digest
// configuration design note.
package digest

import (
	"crypto/sha1"  //nolint:gosec // SHA-1 is the documented default algorithm, not used for security
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"go.trai.ch/zerr"
)

// Factories maps a configured algorithm name to the hash.Hash constructor
// backing it. Additional algorithms can be added by editing this map; there
// is no plugin registry for digests since, unlike repositories, the set of
// algorithms is small and fixed at compile time.
var Factories = map[string]func() hash.Hash{
	"SHA-1":   sha1.New,
	"SHA-256": sha256.New,
}

// Digest implements ports.Digest for one fixed algorithm, selected once at
// engine construction and never changed for the lifetime of a run.
type Digest struct {
	algorithm string
	newHash   func() hash.Hash
}

// New builds a Digest for algorithm, or domain.ErrDigestAlgorithmUnavailable
// if it is not registered in Factories.
func New(algorithm string) (*Digest, error) {
	newHash, ok := Factories[algorithm]
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrDigestAlgorithmUnavailable, "build digest"), "algorithm", algorithm)
	}
	return &Digest{algorithm: algorithm, newHash: newHash}, nil
}

var _ ports.Digest = (*Digest)(nil)

// Algorithm returns the configured algorithm's name.
func (d *Digest) Algorithm() string {
	return d.algorithm
}

// Sum reads r to EOF and returns its lowercase hex digest.
func (d *Digest) Sum(r io.Reader) (string, error) {
	h := d.newHash()
	if _, err := io.Copy(h, r); err != nil {
		return "", zerr.Wrap(err, "compute digest")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile computes the digest of the file at path.
func (d *Digest) SumFile(path string) (string, error) {
	//nolint:gosec // path is supplied by the engine's own artifact plan, not directly by untrusted input
	f, err := os.Open(path)
	if err != nil {
		return "", zerr.Wrap(err, "open file for digest")
	}
	defer f.Close()
	sum, err := d.Sum(f)
	if err != nil {
		return "", zerr.With(err, "file", path)
	}
	return sum, nil
}
