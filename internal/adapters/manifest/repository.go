// Package manifest implements the one concrete, generic Repository shipped
// in-tree: a declarative YAML document mapping group/name/version triples
// to their dependency specifications and artifact lists. It is deliberately
// not tied to any specific ecosystem's wire format, so that the
// identification, conflict, and install subsystems remain the code under
// test rather than a protocol client; it is what the CLI and the test
// suite's fixtures both use.
package manifest

import (
	"context"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/threecrickets/resolve/internal/core/domain"
	"go.trai.ch/zerr"
)

// Document is the YAML shape of a manifest file.
type Document struct {
	Modules []ModuleEntry `yaml:"modules"`
}

// ModuleEntry describes one concrete module version.
type ModuleEntry struct {
	Group        string             `yaml:"group"`
	Name         string             `yaml:"name"`
	Version      string             `yaml:"version"`
	Dependencies []DependencyEntry  `yaml:"dependencies"`
	Artifacts    []ArtifactEntry    `yaml:"artifacts"`
}

// DependencyEntry is a dependency specification as declared in a manifest.
type DependencyEntry struct {
	Group      string `yaml:"group"`
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint"`
}

// ArtifactEntry is an artifact as declared in a manifest, with FilePath
// relative to whatever root the installer is configured with.
type ArtifactEntry struct {
	URL      string `yaml:"url"`
	File     string `yaml:"file"`
	Volatile bool   `yaml:"volatile"`
}

// Repository implements domain.Repository by serving modules out of an
// in-memory Document, typically loaded from a YAML file.
type Repository struct {
	id  string
	doc Document

	// index maps group/name to the entries for that module, sorted
	// descending by parsed version, so GetModule can take "the best
	// available" in a single pass.
	index map[domain.GroupName][]ModuleEntry
}

var _ domain.Repository = (*Repository)(nil)

// New builds a Repository named id from an already-parsed document.
func New(id string, doc Document) *Repository {
	r := &Repository{id: id, doc: doc, index: make(map[domain.GroupName][]ModuleEntry)}
	for _, m := range doc.Modules {
		key := domain.GroupName{Group: domain.NewInternedString(m.Group), Name: domain.NewInternedString(m.Name)}
		r.index[key] = append(r.index[key], m)
	}
	for key, entries := range r.index {
		sorted := entries
		sort.Slice(sorted, func(i, j int) bool {
			return domain.NewVersion(sorted[i].Version).Compare(domain.NewVersion(sorted[j].Version)) > 0
		})
		r.index[key] = sorted
	}
	return r
}

// Load reads and parses a manifest file from path.
func Load(id, path string) (*Repository, error) {
	//nolint:gosec // path comes from the engine's own repository configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.Wrap(err, "read manifest file")
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, "parse manifest file")
	}
	return New(id, doc), nil
}

// ID returns the repository's configured name.
func (r *Repository) ID() string {
	return r.id
}

// GetModule returns the highest version matching spec, or nil if none do.
// Specifications of a type this repository does not understand are treated
// as "nothing matches" rather than an error, since a real multi-repository
// setup mixes repositories that each only understand their own
// specification shape.
func (r *Repository) GetModule(_ context.Context, spec domain.Specification) (*domain.ModuleDescriptor, error) {
	s, ok := spec.(Specification)
	if !ok {
		return nil, nil
	}
	key := domain.GroupName{Group: domain.NewInternedString(s.Group), Name: domain.NewInternedString(s.Name)}
	for _, entry := range r.index[key] {
		id := domain.NewIdentifier(r, entry.Group, entry.Name, entry.Version)
		if !s.AllowsIdentifier(id) {
			continue
		}
		deps := make([]domain.Specification, 0, len(entry.Dependencies))
		for _, d := range entry.Dependencies {
			deps = append(deps, NewSpecification(d.Group, d.Name, d.Constraint))
		}
		return &domain.ModuleDescriptor{Identifier: id, Dependencies: deps}, nil
	}
	return nil, nil
}

// GetArtifacts returns the artifact list declared for m's exact identifier.
func (r *Repository) GetArtifacts(_ context.Context, m *domain.Module) ([]domain.Artifact, error) {
	if m == nil || m.Identifier == nil {
		return nil, zerr.Wrap(domain.ErrMalformedModule, "get artifacts")
	}
	key := domain.GroupName{Group: m.Identifier.GroupName.Group, Name: m.Identifier.GroupName.Name}
	for _, entry := range r.index[key] {
		if entry.Version != m.Identifier.Version.String() {
			continue
		}
		artifacts := make([]domain.Artifact, 0, len(entry.Artifacts))
		for _, a := range entry.Artifacts {
			artifacts = append(artifacts, domain.Artifact{
				FilePath:  a.File,
				SourceURL: a.URL,
				Volatile:  a.Volatile,
			})
		}
		return artifacts, nil
	}
	return nil, nil
}
