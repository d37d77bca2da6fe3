package config

// Document is the YAML shape of a project's run configuration file (default
// resolve.yaml): what to resolve, where to look, and how to resolve
// conflicts.
type Document struct {
	Root      string             `yaml:"root"`
	StateFile string             `yaml:"stateFile"`
	Policy    string             `yaml:"policy"`
	Digest    string             `yaml:"digest"`

	Specifications []SpecificationDTO `yaml:"specifications"`
	Exclusions     []SpecificationDTO `yaml:"exclusions"`
	Repositories   []RepositoryDTO    `yaml:"repositories"`
}

// SpecificationDTO is one top-level specification or exclusion entry.
type SpecificationDTO struct {
	Group      string `yaml:"group"`
	Name       string `yaml:"name"`
	Constraint string `yaml:"constraint"`
	Explicit   bool   `yaml:"explicit"`
}

// RepositoryDTO is a {type, ...options} repository declaration. Type selects
// the registered factory; the remaining keys are passed through to it
// verbatim.
type RepositoryDTO struct {
	Type    string         `yaml:"type"`
	Options map[string]any `yaml:",inline"`
}
