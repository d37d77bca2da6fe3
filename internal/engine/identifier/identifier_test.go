package identifier_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threecrickets/resolve/internal/adapters/manifest"
	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/engine/identifier"
)

func repo(t *testing.T, id string, doc manifest.Document) *manifest.Repository {
	t.Helper()
	return manifest.New(id, doc)
}

func TestEngine_Run_LinearChain(t *testing.T) {
	r := repo(t, "central", manifest.Document{
		Modules: []manifest.ModuleEntry{
			{Group: "com.example", Name: "a", Version: "1.0.0", Dependencies: []manifest.DependencyEntry{
				{Group: "com.example", Name: "b"},
			}},
			{Group: "com.example", Name: "b", Version: "1.0.0"},
		},
	})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	eng := identifier.New([]domain.Repository{r}, nil, 2, nil)
	unresolved, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)
	assert.Empty(t, unresolved)

	var identified int
	for m := range graph.Modules() {
		if m.Identified() {
			identified++
		}
	}
	assert.Equal(t, 2, identified)
}

func TestEngine_Run_DeclaredOrderTieBreak(t *testing.T) {
	first := repo(t, "first", manifest.Document{
		Modules: []manifest.ModuleEntry{{Group: "com.example", Name: "a", Version: "1.0.0"}},
	})
	second := repo(t, "second", manifest.Document{
		Modules: []manifest.ModuleEntry{{Group: "com.example", Name: "a", Version: "2.0.0"}},
	})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	eng := identifier.New([]domain.Repository{first, second}, nil, 2, nil)
	_, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)

	var chosen *domain.Module
	for m := range graph.Modules() {
		chosen = m
	}
	require.NotNil(t, chosen)
	assert.Equal(t, "1.0.0", chosen.Identifier.Version.String())
	assert.Equal(t, "first", chosen.Identifier.Repository.ID())
}

func TestEngine_Run_UnresolvedWhenNoRepositoryMatches(t *testing.T) {
	r := repo(t, "central", manifest.Document{})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "missing", ""))

	eng := identifier.New([]domain.Repository{r}, nil, 2, nil)
	unresolved, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.Equal(t, "com.example:missing", unresolved[0].Specification.String())
}

func TestEngine_Run_ExclusionPrunesDependency(t *testing.T) {
	r := repo(t, "central", manifest.Document{
		Modules: []manifest.ModuleEntry{
			{Group: "com.example", Name: "a", Version: "1.0.0", Dependencies: []manifest.DependencyEntry{
				{Group: "com.example", Name: "b"},
			}},
			{Group: "com.example", Name: "b", Version: "1.0.0"},
		},
	})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	exclusions := []domain.Specification{manifest.NewSpecification("com.example", "b", "")}
	eng := identifier.New([]domain.Repository{r}, exclusions, 2, nil)
	_, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)

	var names []string
	for m := range graph.Modules() {
		names = append(names, m.Specification.String())
	}
	assert.ElementsMatch(t, []string{"com.example:a"}, names)
}

func TestEngine_Run_CycleTerminates(t *testing.T) {
	r := repo(t, "central", manifest.Document{
		Modules: []manifest.ModuleEntry{
			{Group: "com.example", Name: "a", Version: "1.0.0", Dependencies: []manifest.DependencyEntry{
				{Group: "com.example", Name: "b"},
			}},
			{Group: "com.example", Name: "b", Version: "1.0.0", Dependencies: []manifest.DependencyEntry{
				{Group: "com.example", Name: "a"},
			}},
		},
	})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	eng := identifier.New([]domain.Repository{r}, nil, 2, nil)
	unresolved, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)
	assert.Empty(t, unresolved)
}

type erroringRepository struct {
	id  string
	err error
}

func (e erroringRepository) ID() string { return e.id }
func (e erroringRepository) GetModule(context.Context, domain.Specification) (*domain.ModuleDescriptor, error) {
	return nil, e.err
}
func (e erroringRepository) GetArtifacts(context.Context, *domain.Module) ([]domain.Artifact, error) {
	return nil, nil
}

func TestEngine_Run_RepositoryErrorFallsThroughToNextRepository(t *testing.T) {
	failing := erroringRepository{id: "flaky", err: errors.New("transport failure")}
	backup := repo(t, "backup", manifest.Document{
		Modules: []manifest.ModuleEntry{{Group: "com.example", Name: "a", Version: "1.0.0"}},
	})

	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	eng := identifier.New([]domain.Repository{failing, backup}, nil, 2, nil)
	unresolved, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)
	assert.Empty(t, unresolved)
}

type malformedRepository struct{}

func (malformedRepository) ID() string { return "malformed" }
func (malformedRepository) GetModule(context.Context, domain.Specification) (*domain.ModuleDescriptor, error) {
	return &domain.ModuleDescriptor{Identifier: nil}, nil
}
func (malformedRepository) GetArtifacts(context.Context, *domain.Module) ([]domain.Artifact, error) {
	return nil, nil
}

func TestEngine_Run_MalformedModuleReportedAsUnresolved(t *testing.T) {
	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	eng := identifier.New([]domain.Repository{malformedRepository{}}, nil, 2, nil)
	unresolved, err := eng.Run(context.Background(), graph)
	require.NoError(t, err)
	require.Len(t, unresolved, 1)
	assert.ErrorIs(t, unresolved[0].Cause, domain.ErrMalformedModule)
}

func TestEngine_Run_CancelledContext(t *testing.T) {
	r := repo(t, "central", manifest.Document{
		Modules: []manifest.ModuleEntry{{Group: "com.example", Name: "a", Version: "1.0.0"}},
	})
	graph := domain.NewGraph()
	graph.AddModule(true, manifest.NewSpecification("com.example", "a", ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := identifier.New([]domain.Repository{r}, nil, 2, nil)
	_, err := eng.Run(ctx, graph)
	assert.ErrorIs(t, err, domain.ErrCancelled)
}
