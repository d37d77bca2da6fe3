package ports

import "github.com/threecrickets/resolve/internal/core/domain"

// RepositoryFactory builds a Repository from its configuration block. config
// holds whatever keys followed "type:" in the declaration.
type RepositoryFactory func(config map[string]any) (domain.Repository, error)

// RepositoryRegistry maps a repository configuration's logical type name to
// the factory that builds it, replacing the reflective
// newInstance(className, config) this engine is modeled on with a registry
// of closures. config.NewLoader registers the manifest type; callers
// register any others with Register.
type RepositoryRegistry struct {
	factories map[string]RepositoryFactory
}

// NewRepositoryRegistry creates an empty registry.
func NewRepositoryRegistry() *RepositoryRegistry {
	return &RepositoryRegistry{factories: make(map[string]RepositoryFactory)}
}

// Register associates name with factory, overwriting any prior registration
// for the same name.
func (r *RepositoryRegistry) Register(name string, factory RepositoryFactory) {
	r.factories[name] = factory
}

// Build looks up name and invokes its factory with config. The caller is
// responsible for translating a missing factory into
// domain.ErrUnknownRepositoryType.
func (r *RepositoryRegistry) Build(name string, config map[string]any) (domain.Repository, bool, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, false, nil
	}
	repo, err := factory(config)
	return repo, true, err
}
