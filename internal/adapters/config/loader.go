// Package config loads an engine run's configuration from a YAML project
// file, grounded on this engine's own Bobfile/TaskDTO loader (YAML decode,
// zerr-wrapped read/parse errors, reserved/required-field validation) but
// against the run-configuration schema this engine's domain needs:
// specifications, exclusions, repositories, conflict policy, root, and
// state file.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/threecrickets/resolve/internal/adapters/manifest"
	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultFilename is the conventional project configuration file name.
const DefaultFilename = "resolve.yaml"

// Loader implements ports.ConfigLoader over a YAML file, building
// repositories through a registry so that configuration never needs to know
// about concrete repository implementation types.
type Loader struct {
	Registry *ports.RepositoryRegistry
}

var _ ports.ConfigLoader = (*Loader)(nil)

// NewLoader creates a Loader backed by registry. The manifest repository
// type is always registered, since it is this engine's own in-tree
// repository implementation; callers add further types with
// registry.Register before calling Load.
func NewLoader(registry *ports.RepositoryRegistry) *Loader {
	registry.Register(manifest.Type, manifest.Factory)
	return &Loader{Registry: registry}
}

// Load reads and validates the configuration file at path.
func (l *Loader) Load(path string) (*ports.RunConfig, error) {
	//nolint:gosec // path is supplied by the CLI's own --config flag, not remote input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "read configuration file"), "error", err.Error())
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "parse configuration file"), "error", err.Error())
	}

	base := filepath.Dir(path)

	cfg := &ports.RunConfig{
		Root:            resolvePath(base, doc.Root, "."),
		StateFile:       resolvePath(base, doc.StateFile, "resolve.state"),
		DigestAlgorithm: doc.Digest,
	}
	if cfg.DigestAlgorithm == "" {
		cfg.DigestAlgorithm = "SHA-1"
	}

	policy, ok := domain.ParseConflictPolicy(doc.Policy)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "unknown conflict policy"), "policy", doc.Policy)
	}
	cfg.Policy = policy

	for _, s := range doc.Specifications {
		if s.Group == "" || s.Name == "" {
			return nil, zerr.Wrap(domain.ErrConfigInvalid, "specification missing group or name")
		}
		cfg.Specifications = append(cfg.Specifications, ports.SpecificationConfig{
			Specification: manifest.NewSpecification(s.Group, s.Name, s.Constraint),
			Explicit:      s.Explicit,
		})
	}

	for _, e := range doc.Exclusions {
		if e.Group == "" || e.Name == "" {
			return nil, zerr.Wrap(domain.ErrConfigInvalid, "exclusion missing group or name")
		}
		cfg.Exclusions = append(cfg.Exclusions, manifest.NewSpecification(e.Group, e.Name, e.Constraint))
	}

	for i, r := range doc.Repositories {
		if r.Type == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "repository missing type"), "index", i)
		}
		options := resolveRepositoryOptions(r, base)
		repo, registered, err := l.Registry.Build(r.Type, options)
		if err != nil {
			return nil, zerr.With(err, "repository_type", r.Type)
		}
		if !registered {
			return nil, zerr.With(zerr.Wrap(domain.ErrUnknownRepositoryType, "build repository"), "repository_type", r.Type)
		}
		cfg.Repositories = append(cfg.Repositories, repo)
	}

	if len(cfg.Specifications) == 0 {
		return nil, zerr.Wrap(domain.ErrNoTargetsSpecified, "load configuration")
	}

	return cfg, nil
}

// resolveRepositoryOptions resolves a "file" option relative to the
// configuration file's own directory, so repository declarations can use
// paths relative to the project rather than to the process's working
// directory.
func resolveRepositoryOptions(r RepositoryDTO, base string) map[string]any {
	options := make(map[string]any, len(r.Options)+1)
	for k, v := range r.Options {
		options[k] = v
	}
	if file, ok := options["file"].(string); ok && file != "" && !filepath.IsAbs(file) {
		options["file"] = filepath.Join(base, file)
	}
	return options
}

func resolvePath(base, path, fallback string) string {
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
