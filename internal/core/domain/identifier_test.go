package domain_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threecrickets/resolve/internal/core/domain"
)

type stubRepository struct{ id string }

func (r stubRepository) ID() string { return r.id }
func (r stubRepository) GetModule(context.Context, domain.Specification) (*domain.ModuleDescriptor, error) {
	return nil, nil
}
func (r stubRepository) GetArtifacts(context.Context, *domain.Module) ([]domain.Artifact, error) {
	return nil, nil
}

func TestIdentifier_SameLogicalIdentity(t *testing.T) {
	a := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	b := domain.NewIdentifier(stubRepository{"r2"}, "com.example", "a", "2.0.0")
	c := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "b", "1.0.0")

	assert.True(t, a.SameLogicalIdentity(b))
	assert.False(t, a.SameLogicalIdentity(c))
}

func TestIdentifier_Equal(t *testing.T) {
	a := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	sameRepoSameVersion := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	sameRepoDifferentVersion := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "2.0.0")
	differentRepo := domain.NewIdentifier(stubRepository{"r2"}, "com.example", "a", "1.0.0")

	assert.True(t, a.Equal(sameRepoSameVersion))
	assert.False(t, a.Equal(sameRepoDifferentVersion))
	assert.False(t, a.Equal(differentRepo))
}

func TestIdentifier_Compare(t *testing.T) {
	older := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	newer := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "2.0.0")
	unrelated := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "b", "1.0.0")

	assert.Equal(t, domain.Less, older.Compare(newer))
	assert.Equal(t, domain.Greater, newer.Compare(older))
	assert.Equal(t, domain.Equal, older.Compare(older))
	assert.Equal(t, domain.Incompatible, older.Compare(unrelated))
}

func TestIdentifier_Key_DistinguishesByRepository(t *testing.T) {
	a := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	b := domain.NewIdentifier(stubRepository{"r2"}, "com.example", "a", "1.0.0")

	require.NotEqual(t, a.Key(), b.Key())
}

func TestIdentifier_Clone(t *testing.T) {
	a := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	clone := a.Clone()

	assert.True(t, a.Equal(clone))
	clone.Version = domain.NewVersion("9.9.9")
	assert.False(t, a.Equal(clone))
}

func TestIdentifier_String(t *testing.T) {
	id := domain.NewIdentifier(stubRepository{"r1"}, "com.example", "a", "1.0.0")
	assert.Equal(t, "com.example/a@1.0.0", id.String())
}
