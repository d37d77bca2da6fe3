package domain

import "fmt"

// ModuleID is a stable arena index for a Module. Dependency and supplicant
// edges are stored as ModuleIDs rather than pointers so that replacing a
// module in the graph (see Graph.ReplaceModule) is an O(1) slice-element
// swap in every owner, and so that cycles in the dependency graph never
// become Go reference cycles.
type ModuleID int

// Module holds one node of the dependency graph: either an unidentified
// placeholder carrying only a Specification, or an identified module with a
// concrete Identifier and a list of dependency specifications that were
// filled in by the repository that identified it.
type Module struct {
	ID ModuleID

	// Explicit is true when the module was user-listed at the root, rather
	// than discovered as a dependency.
	Explicit bool

	// Identifier is nil until the identification engine (or a direct
	// GetModule hit) fills it in.
	Identifier *Identifier

	// Specification is the query this module must satisfy.
	Specification Specification

	// Dependencies lists this module's children, in discovery order.
	Dependencies []ModuleID

	// Supplicants lists modules that depend on this one (reverse edges),
	// deduplicated by identifier equality of the supplicant's own
	// identifier once it has one.
	Supplicants []ModuleID
}

// Identified reports whether the module has been resolved to a concrete
// Identifier.
func (m *Module) Identified() bool {
	return m.Identifier != nil
}

// DebugString renders a module the way the original source's
// Module#toString(longForm) did: an explicit/discovered marker, an
// identified/unidentified marker, and dependency/supplicant counts. It is a
// diagnostic rendering only and is never used for equality or ordering.
func (m *Module) DebugString() string {
	explicitMark := "+"
	if m.Explicit {
		explicitMark = "*"
	}
	identifiedMark := "?"
	name := m.Specification.String()
	if m.Identified() {
		identifiedMark = "!"
		name = m.Identifier.String()
	}
	return fmt.Sprintf("%s%s %s (deps=%d, supplicants=%d)", explicitMark, identifiedMark, name, len(m.Dependencies), len(m.Supplicants))
}

// ModuleDescriptor is what a Repository hands back for a satisfied
// specification: a concrete identifier and the specifications of its
// dependencies. It carries no graph references; the identification engine
// is responsible for allocating a Module (and ModuleID) for each dependency
// specification in the graph it owns.
type ModuleDescriptor struct {
	Identifier   *Identifier
	Dependencies []Specification
}

// UnresolvedModule records a module that no repository could identify by
// the end of a run, along with why.
type UnresolvedModule struct {
	Specification Specification
	Cause         error
}

func (u UnresolvedModule) String() string {
	if u.Cause != nil {
		return fmt.Sprintf("%s: %v", u.Specification, u.Cause)
	}
	return u.Specification.String()
}
