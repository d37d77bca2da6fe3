package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/engine/resolver"
)

type stubRepository struct{ id string }

func (r stubRepository) ID() string { return r.id }
func (r stubRepository) GetModule(context.Context, domain.Specification) (*domain.ModuleDescriptor, error) {
	return nil, nil
}
func (r stubRepository) GetArtifacts(context.Context, *domain.Module) ([]domain.Artifact, error) {
	return nil, nil
}

type stubSpecification struct {
	group, name, version string
}

func (s stubSpecification) Equal(other domain.Specification) bool {
	o, ok := other.(stubSpecification)
	return ok && s == o
}
func (s stubSpecification) AllowsIdentifier(id *domain.Identifier) bool {
	if id.GroupName.Group.String() != s.group || id.GroupName.Name.String() != s.name {
		return false
	}
	return s.version == "" || id.Version.String() == s.version
}
func (s stubSpecification) Rewrite(oldID, newID *domain.Identifier) domain.Specification {
	if s.version != oldID.Version.String() {
		return s
	}
	return stubSpecification{group: s.group, name: s.name, version: newID.Version.String()}
}
func (s stubSpecification) String() string { return s.group + ":" + s.name }

func identified(g *domain.Graph, explicit bool, group, name, version string, repo domain.Repository) *domain.Module {
	m := g.AddModule(explicit, stubSpecification{group: group, name: name, version: version})
	m.Identifier = domain.NewIdentifier(repo, group, name, version)
	g.RegisterIdentified(m)
	return m
}

func TestResolver_Resolve_NoConflictWhenSingleVersion(t *testing.T) {
	g := domain.NewGraph()
	identified(g, true, "com.example", "a", "1.0.0", stubRepository{"r1"})

	r := resolver.New(domain.PolicyNewest, nil)
	conflicts := r.Resolve(g)
	assert.Empty(t, conflicts)
}

func TestResolver_Resolve_NewestPolicyChoosesHighestVersion(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}
	older := identified(g, false, "com.example", "a", "1.0.0", repo)
	newer := identified(g, false, "com.example", "a", "2.0.0", repo)

	r := resolver.New(domain.PolicyNewest, nil)
	conflicts := r.Resolve(g)
	require.Len(t, conflicts, 1)
	assert.Equal(t, newer.ID, conflicts[0].Chosen)
	assert.Contains(t, conflicts[0].Rejected, older.ID)
}

func TestResolver_Resolve_OldestPolicy(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}
	older := identified(g, false, "com.example", "a", "1.0.0", repo)
	identified(g, false, "com.example", "a", "2.0.0", repo)

	r := resolver.New(domain.PolicyOldest, nil)
	conflicts := r.Resolve(g)
	require.Len(t, conflicts, 1)
	assert.Equal(t, older.ID, conflicts[0].Chosen)
}

func TestResolver_Resolve_ExplicitWinsPolicy(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}
	explicitOlder := identified(g, true, "com.example", "a", "1.0.0", repo)
	identified(g, false, "com.example", "a", "2.0.0", repo)

	r := resolver.New(domain.PolicyExplicitWins, nil)
	conflicts := r.Resolve(g)
	require.Len(t, conflicts, 1)
	assert.Equal(t, explicitOlder.ID, conflicts[0].Chosen)
}

func TestResolver_Resolve_ExplicitWinsFallsBackToNewestWhenNoneExplicit(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}
	identified(g, false, "com.example", "a", "1.0.0", repo)
	newer := identified(g, false, "com.example", "a", "2.0.0", repo)

	r := resolver.New(domain.PolicyExplicitWins, nil)
	conflicts := r.Resolve(g)
	require.Len(t, conflicts, 1)
	assert.Equal(t, newer.ID, conflicts[0].Chosen)
}

func TestResolver_Resolve_RewritesDependentSpecifications(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}
	root := g.AddModule(true, stubSpecification{group: "com.example", name: "root"})
	root.Identifier = domain.NewIdentifier(repo, "com.example", "root", "1.0.0")
	g.RegisterIdentified(root)

	older := identified(g, false, "com.example", "a", "1.0.0", repo)
	newer := identified(g, false, "com.example", "a", "2.0.0", repo)
	g.AddDependency(root.ID, older.ID)
	g.AddSupplicant(older.ID, root.ID)

	pinned := g.AddModule(false, stubSpecification{group: "com.example", name: "a", version: "1.0.0"})
	g.AddDependency(root.ID, pinned.ID)

	r := resolver.New(domain.PolicyNewest, nil)
	r.Resolve(g)

	assert.Contains(t, g.Get(root.ID).Dependencies, newer.ID)
	assert.NotContains(t, g.Get(root.ID).Dependencies, older.ID)

	rewrittenSpec := g.Get(pinned.ID).Specification.(stubSpecification)
	assert.Equal(t, "2.0.0", rewrittenSpec.version)
}

func TestResolver_Resolve_DiamondConflict(t *testing.T) {
	g := domain.NewGraph()
	repo := stubRepository{"r1"}

	root := g.AddModule(true, stubSpecification{group: "com.example", name: "root"})
	root.Identifier = domain.NewIdentifier(repo, "com.example", "root", "1.0.0")
	g.RegisterIdentified(root)

	left := identified(g, false, "com.example", "left", "1.0.0", repo)
	right := identified(g, false, "com.example", "right", "1.0.0", repo)
	g.AddDependency(root.ID, left.ID)
	g.AddDependency(root.ID, right.ID)

	sharedOld := identified(g, false, "com.example", "shared", "1.0.0", repo)
	sharedNew := identified(g, false, "com.example", "shared", "2.0.0", repo)
	g.AddDependency(left.ID, sharedOld.ID)
	g.AddSupplicant(sharedOld.ID, left.ID)
	g.AddDependency(right.ID, sharedNew.ID)
	g.AddSupplicant(sharedNew.ID, right.ID)

	r := resolver.New(domain.PolicyNewest, nil)
	conflicts := r.Resolve(g)
	require.Len(t, conflicts, 1)
	assert.Equal(t, sharedNew.ID, conflicts[0].Chosen)
	assert.Contains(t, g.Get(left.ID).Dependencies, sharedNew.ID)
	assert.Contains(t, g.Get(right.ID).Dependencies, sharedNew.ID)
}
