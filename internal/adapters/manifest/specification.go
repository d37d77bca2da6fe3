package manifest

import (
	mm "github.com/Masterminds/semver/v3"

	"github.com/threecrickets/resolve/internal/core/domain"
)

// Specification is the generic, non-Maven Specification implementation
// used by the manifest repository and by the CLI's configuration file: a
// group/name pair plus an optional semantic version constraint. An empty
// constraint matches any version of the named module (used for "give me
// whatever the repository has").
type Specification struct {
	Group      string
	Name       string
	Constraint string

	constraint *mm.Constraints // nil when Constraint is empty or unparsable
}

var _ domain.Specification = Specification{}

// NewSpecification builds a Specification, parsing constraint
// opportunistically the same way domain.Version does: an unparsable or
// empty constraint matches every version.
func NewSpecification(group, name, constraint string) Specification {
	s := Specification{Group: group, Name: name, Constraint: constraint}
	if constraint != "" {
		if c, err := mm.NewConstraint(constraint); err == nil {
			s.constraint = c
		}
	}
	return s
}

// Equal reports whether two specifications name the same group/name with
// the same constraint text.
func (s Specification) Equal(other domain.Specification) bool {
	o, ok := other.(Specification)
	if !ok {
		return false
	}
	return s.Group == o.Group && s.Name == o.Name && s.Constraint == o.Constraint
}

// AllowsIdentifier reports whether id's group/name matches and, when a
// constraint was given and parsed, whether id's version satisfies it.
func (s Specification) AllowsIdentifier(id *domain.Identifier) bool {
	if id == nil {
		return false
	}
	if id.GroupName.Group.String() != s.Group || id.GroupName.Name.String() != s.Name {
		return false
	}
	if s.constraint == nil {
		return true
	}
	v, err := mm.NewVersion(id.Version.String())
	if err != nil {
		// An unparsable version against a real constraint can never be
		// verified to satisfy it; treat as non-matching rather than
		// optimistically allowing it.
		return false
	}
	return s.constraint.Check(v)
}

// Rewrite returns a specification identical to the receiver except that a
// constraint exactly pinning oldID's version is repointed at newID's
// version. Specifications that used a range, or that did not reference
// oldID, are returned unchanged: their existing constraint still governs
// which identifiers they allow.
func (s Specification) Rewrite(oldID, newID *domain.Identifier) domain.Specification {
	if oldID == nil || newID == nil {
		return s
	}
	if s.Constraint != oldID.Version.String() {
		return s
	}
	return NewSpecification(s.Group, s.Name, newID.Version.String())
}

// String renders "group:name" or "group:name@constraint".
func (s Specification) String() string {
	if s.Constraint == "" {
		return s.Group + ":" + s.Name
	}
	return s.Group + ":" + s.Name + "@" + s.Constraint
}
