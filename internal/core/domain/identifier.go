package domain

import "context"

// GroupName is the logical identity key shared by all versions of the same
// module: two identifiers with the same GroupName are candidates for
// conflict resolution regardless of which repository produced them.
type GroupName struct {
	Group InternedString
	Name  InternedString
}

// String returns the "group/name" display form used in logs and debug
// strings.
func (g GroupName) String() string {
	return g.Group.String() + "/" + g.Name.String()
}

// Equal reports whether g and other name the same module.
func (g GroupName) Equal(other GroupName) bool {
	return g.Group.Value() == other.Group.Value() && g.Name.Value() == other.Name.Value()
}

// CompareResult is the tagged outcome of comparing two identifiers, replacing
// the exception-based comparison of the system this engine is modeled on: an
// "incompatible" result is a normal value, not a thrown error.
type CompareResult int

const (
	// Less means the receiver's version precedes the argument's.
	Less CompareResult = -1
	// Equal means the two identifiers name the same version.
	Equal CompareResult = 0
	// Greater means the receiver's version follows the argument's.
	Greater CompareResult = 1
	// Incompatible means the two identifiers have different logical
	// identities and cannot be ordered against each other.
	Incompatible CompareResult = 2
)

// Identifier is a concrete, totally-ordered name for a module version within
// a specific repository.
type Identifier struct {
	Repository Repository
	GroupName  GroupName
	Version    Version
}

// NewIdentifier constructs an Identifier bound to the repository that
// produced it.
func NewIdentifier(repository Repository, group, name, version string) *Identifier {
	return &Identifier{
		Repository: repository,
		GroupName: GroupName{
			Group: NewInternedString(group),
			Name:  NewInternedString(name),
		},
		Version: NewVersion(version),
	}
}

// Clone returns a value copy of id, used when installing an identifier onto
// a different module (copyIdentificationFrom).
func (id *Identifier) Clone() *Identifier {
	if id == nil {
		return nil
	}
	clone := *id
	return &clone
}

// SameLogicalIdentity reports whether id and other name the same module
// (same group/name), independent of version or producing repository.
func (id *Identifier) SameLogicalIdentity(other *Identifier) bool {
	if id == nil || other == nil {
		return false
	}
	return id.GroupName.Group.Value() == other.GroupName.Group.Value() &&
		id.GroupName.Name.Value() == other.GroupName.Name.Value()
}

// Equal reports full identifier equality: same logical identity, same
// version, and same producing repository.
func (id *Identifier) Equal(other *Identifier) bool {
	if id == nil || other == nil {
		return id == other
	}
	if !id.SameLogicalIdentity(other) {
		return false
	}
	if id.Version.Compare(other.Version) != 0 {
		return false
	}
	idRepo, otherRepo := "", ""
	if id.Repository != nil {
		idRepo = id.Repository.ID()
	}
	if other.Repository != nil {
		otherRepo = other.Repository.ID()
	}
	return idRepo == otherRepo
}

// Compare orders id against other, returning Incompatible instead of an
// error when the two do not share a logical identity.
func (id *Identifier) Compare(other *Identifier) CompareResult {
	if !id.SameLogicalIdentity(other) {
		return Incompatible
	}
	switch id.Version.Compare(other.Version) {
	case -1:
		return Less
	case 1:
		return Greater
	default:
		return Equal
	}
}

// String returns a "group/name@version" display form.
func (id *Identifier) String() string {
	if id == nil {
		return "<nil>"
	}
	return id.GroupName.String() + "@" + id.Version.String()
}

// repositoryID returns the stable id of the producing repository, or "" if
// unset. Used as part of the map key for the identified index.
func (id *Identifier) repositoryID() string {
	if id == nil || id.Repository == nil {
		return ""
	}
	return id.Repository.ID()
}

// Key returns a comparable value usable as a map key for exact identifier
// equality (repository + logical identity + version).
func (id *Identifier) Key() IdentifierKey {
	return IdentifierKey{
		RepositoryID: id.repositoryID(),
		Group:        id.GroupName.Group.String(),
		Name:         id.GroupName.Name.String(),
		Version:      id.Version.String(),
	}
}

// IdentifierKey is a plain comparable projection of an Identifier, used to
// index the identified set without requiring Repository implementations to
// be comparable themselves.
type IdentifierKey struct {
	RepositoryID string
	Group        string
	Name         string
	Version      string
}

// Repository is an external source of modules and their artifacts.
// Implementations are registered with the engine by logical type name (see
// the repository registry) and must be safe to call from many identification
// workers concurrently.
type Repository interface {
	// ID returns a stable identifier for the repository, used in logs, in
	// the declared-order tie-break, and in Identifier equality.
	ID() string

	// GetModule queries the repository for the module satisfying spec. It
	// returns a nil descriptor (and nil error) when the repository has
	// nothing matching; a non-nil error indicates a transport failure,
	// which the identification engine treats as "no answer from this
	// repository." The descriptor is graph-independent: the engine, not
	// the repository, is responsible for allocating graph nodes for its
	// dependency specifications.
	GetModule(ctx context.Context, spec Specification) (*ModuleDescriptor, error)

	// GetArtifacts returns the artifacts that installing m would place on
	// disk. Each artifact's FilePath is relative to the engine's configured
	// root; the installer resolves it to an absolute path before touching
	// the filesystem, mirroring how the source's config constructor joined
	// a declared relative file against a root directory.
	GetArtifacts(ctx context.Context, m *Module) ([]Artifact, error)
}

// Specification is an opaque, repository-technology-tagged descriptor of one
// or more desired modules. The core only ever needs equality, a match
// predicate, and a rewrite operation used to propagate post-resolution
// identity changes; everything else (wire format, constraint syntax) is left
// to the concrete implementation.
type Specification interface {
	// Equal reports whether two specifications are the same query, used for
	// exclusion-list membership tests.
	Equal(other Specification) bool

	// AllowsIdentifier reports whether id would satisfy this specification.
	AllowsIdentifier(id *Identifier) bool

	// Rewrite returns a specification equivalent to the receiver except that
	// any reference to oldID is replaced by newID. Implementations that
	// never referenced oldID may return the receiver unchanged.
	Rewrite(oldID, newID *Identifier) Specification

	// String returns a human-readable form for logs and debug strings.
	String() string
}
