// Package app wires the identification, resolution, and installation
// engines into a single blocking run, driven from a loaded configuration
// the way a build tool's top-level App type drives its own task scheduler.
package app

import (
	"context"
	"runtime"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"github.com/threecrickets/resolve/internal/engine/identifier"
	"github.com/threecrickets/resolve/internal/engine/installer"
	"github.com/threecrickets/resolve/internal/engine/resolver"
)

// RunResult reports everything a run produced.
type RunResult struct {
	Identified []*domain.Module
	Chosen     []*domain.Module
	Conflicts  []*domain.Conflict
	Unresolved []domain.UnresolvedModule
	Installed  []domain.Artifact
	Skipped    []domain.Artifact
	Failed     []installer.FailedArtifact
	Removed    []domain.Artifact
}

// Engine holds everything needed to drive one resolution-and-install run.
type Engine struct {
	graph *domain.Graph

	specifications []ports.SpecificationConfig
	repositories   []domain.Repository
	exclusions     []domain.Specification

	policy    domain.ConflictPolicy
	root      string
	stateFile string

	digest      ports.Digest
	state       ports.StateStore
	notifier    ports.Notifier
	concurrency int
	overwrite   bool
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine)

// WithDigest sets the digest adapter. Required: an Engine built without one
// cannot install artifacts.
func WithDigest(d ports.Digest) EngineOption { return func(e *Engine) { e.digest = d } }

// WithStateStore sets the persisted-state adapter. Required for the same
// reason as WithDigest.
func WithStateStore(s ports.StateStore) EngineOption { return func(e *Engine) { e.state = s } }

// WithNotifier sets the progress notifier. Defaults to ports.NullNotifier.
func WithNotifier(n ports.Notifier) EngineOption { return func(e *Engine) { e.notifier = n } }

// WithConcurrency bounds both worker pools. Defaults to runtime.NumCPU().
func WithConcurrency(n int) EngineOption { return func(e *Engine) { e.concurrency = n } }

// WithOverwrite forces every planned artifact to be reinstalled regardless
// of its incremental-skip eligibility, except that a volatile artifact whose
// file already exists is kept and only has its digest recomputed.
func WithOverwrite(overwrite bool) EngineOption { return func(e *Engine) { e.overwrite = overwrite } }

// NewEngine builds an Engine ready for specifications, repositories, and
// exclusions to be added before Run.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		graph:       domain.NewGraph(),
		policy:      domain.PolicyNewest,
		concurrency: runtime.NumCPU(),
		notifier:    ports.NullNotifier{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddModuleSpecification registers a target specification. An excluded
// explicit specification never enters the graph.
func (e *Engine) AddModuleSpecification(spec domain.Specification, explicit bool) {
	e.specifications = append(e.specifications, ports.SpecificationConfig{Specification: spec, Explicit: explicit})
}

// AddRepository appends repo to the declared-order repository list consulted
// during identification.
func (e *Engine) AddRepository(repo domain.Repository) {
	e.repositories = append(e.repositories, repo)
}

// AddExclusion registers spec as never-to-be-added, for itself and
// transitively for anything only reachable through it.
func (e *Engine) AddExclusion(spec domain.Specification) {
	e.exclusions = append(e.exclusions, spec)
}

// SetConflictPolicy sets the policy the resolver uses to pick a winner among
// conflicting modules.
func (e *Engine) SetConflictPolicy(policy domain.ConflictPolicy) { e.policy = policy }

// SetRoot sets the installation root directory.
func (e *Engine) SetRoot(path string) { e.root = path }

// SetStateFile sets the path of the persisted-state file. The path is used
// as given: a relative path is not joined with the root.
func (e *Engine) SetStateFile(path string) { e.stateFile = path }

// Run executes the full pipeline: build the initial graph from explicit
// specifications, identify to closure, resolve conflicts, install
// artifacts, and assemble the result. It blocks until the pipeline
// completes or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	for _, sc := range e.specifications {
		if domain.IsExcluded(sc.Specification, e.exclusions) {
			continue
		}
		e.graph.AddModule(sc.Explicit, sc.Specification)
	}

	idEngine := identifier.New(e.repositories, e.exclusions, e.concurrency, e.notifier)
	unresolved, err := idEngine.Run(ctx, e.graph)
	if err != nil {
		return nil, err
	}

	var identified []*domain.Module
	for m := range e.graph.Modules() {
		if !m.Identified() {
			continue
		}
		identified = append(identified, m)
	}

	res := resolver.New(e.policy, e.notifier)
	conflicts := res.Resolve(e.graph)

	var chosen []*domain.Module
	for m := range e.graph.Modules() {
		if !m.Identified() {
			continue
		}
		chosen = append(chosen, m)
	}

	result := &RunResult{
		Identified: identified,
		Chosen:     chosen,
		Conflicts:  conflicts,
		Unresolved: unresolved,
	}

	inst := installer.New(e.root, e.stateFile, e.concurrency, e.overwrite, e.digest, e.state, e.notifier)
	installResult, err := inst.Run(ctx, chosen)
	if err != nil {
		return result, err
	}

	result.Installed = installResult.Installed
	result.Skipped = installResult.Skipped
	result.Failed = installResult.Failed
	result.Removed = installResult.Removed

	return result, nil
}
