// Package identifier implements the identification engine: an iterative,
// concurrent resolver that drives a domain.Graph from unidentified
// specifications to a fully identified dependency graph, grounded on this
// engine's own bounded errgroup fan-out (parallel repository lookups) with
// a serial integration phase per round, matching the fork-join round
// structure its nix environment factory uses for parallel tool resolution.
package identifier

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
	"go.trai.ch/zerr"
)

// Engine drives identification to closure.
type Engine struct {
	Repositories []domain.Repository
	Exclusions   []domain.Specification
	Concurrency  int
	Notifier     ports.Notifier
}

// New builds an Engine. A concurrency of 0 defaults to the logical CPU
// count, matching this repository's other worker pools.
func New(repositories []domain.Repository, exclusions []domain.Specification, concurrency int, notifier ports.Notifier) *Engine {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	if notifier == nil {
		notifier = ports.NullNotifier{}
	}
	return &Engine{Repositories: repositories, Exclusions: exclusions, Concurrency: concurrency, Notifier: notifier}
}

// queryResult is one worker's answer for one module, written to its own
// slot so the integration phase needs no locking to read it back.
type queryResult struct {
	module     *domain.Module
	descriptor *domain.ModuleDescriptor
	cause      error
}

// Run drives graph to closure, returning the modules no repository could
// identify. It terminates once a round neither changes the identified set
// nor enqueues new unidentified modules.
func (e *Engine) Run(ctx context.Context, graph *domain.Graph) ([]domain.UnresolvedModule, error) {
	processed := make(map[domain.ModuleID]bool)
	var unresolved []domain.UnresolvedModule

	for {
		if err := ctx.Err(); err != nil {
			return unresolved, zerr.Wrap(domain.ErrCancelled, "identification cancelled")
		}

		batch := e.snapshot(graph, processed)
		if len(batch) == 0 {
			break
		}
		for _, m := range batch {
			processed[m.ID] = true
		}

		results, err := e.queryRound(ctx, batch)
		if err != nil {
			return unresolved, err
		}

		for _, r := range results {
			if r.descriptor == nil {
				unresolved = append(unresolved, domain.UnresolvedModule{Specification: r.module.Specification, Cause: r.cause})
				continue
			}
			e.integrate(graph, r.module, r.descriptor)
		}
	}

	return unresolved, nil
}

// snapshot collects every unidentified, not-yet-processed, non-excluded
// module. Repositories are consulted in declared order for each; processed
// modules are never retried, matching "do not retry in subsequent rounds."
func (e *Engine) snapshot(graph *domain.Graph, processed map[domain.ModuleID]bool) []*domain.Module {
	var batch []*domain.Module
	for m := range graph.Modules() {
		if m.Identified() || processed[m.ID] {
			continue
		}
		batch = append(batch, m)
	}
	return batch
}

// queryRound fans out repository queries for batch in parallel, bounded by
// e.Concurrency, then returns one result per module in batch order.
// Mutating the graph here would violate the serial-integration invariant;
// each worker only reads its own module and writes its own result slot.
func (e *Engine) queryRound(ctx context.Context, batch []*domain.Module) ([]queryResult, error) {
	results := make([]queryResult, len(batch))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.Concurrency)

	for i, m := range batch {
		i, m := i, m
		g.Go(func() error {
			descriptor, cause := e.query(groupCtx, m)
			results[i] = queryResult{module: m, descriptor: descriptor, cause: cause}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, zerr.Wrap(err, "identification round")
	}
	return results, nil
}

// query consults every repository in declared order for spec, keeping the
// first non-null result. A transport error from one repository is reported
// as a warning and treated as "no answer from that repository"; the rest
// are still consulted.
func (e *Engine) query(ctx context.Context, m *domain.Module) (*domain.ModuleDescriptor, error) {
	var lastErr error
	for _, repo := range e.Repositories {
		descriptor, err := repo.GetModule(ctx, m.Specification)
		if err != nil {
			e.Notifier.Warn("repository " + repo.ID() + " failed for " + m.Specification.String() + ": " + err.Error())
			lastErr = err
			continue
		}
		if descriptor == nil {
			continue
		}
		if descriptor.Identifier == nil || descriptor.Identifier.GroupName.Group.String() == "" || descriptor.Identifier.GroupName.Name.String() == "" {
			e.Notifier.Warn("repository " + repo.ID() + " returned malformed module for " + m.Specification.String())
			return nil, zerr.With(zerr.Wrap(domain.ErrMalformedModule, "query repository"), "repository", repo.ID())
		}
		return descriptor, nil
	}
	return nil, lastErr
}

// integrate applies one query result to the graph. It runs on the single
// integrator goroutine driving Run, so no synchronization is needed here.
func (e *Engine) integrate(graph *domain.Graph, m *domain.Module, descriptor *domain.ModuleDescriptor) {
	if existing, ok := graph.LookupByIdentifier(descriptor.Identifier); ok && existing.ID != m.ID {
		graph.ReplaceModule(m.ID, existing.ID, false)
		graph.MergeSupplicants(existing.ID, m.ID)
		graph.Remove(m.ID)
		return
	}

	m.Identifier = descriptor.Identifier
	graph.RegisterIdentified(m)

	for _, depSpec := range descriptor.Dependencies {
		if domain.IsExcluded(depSpec, e.Exclusions) {
			continue
		}
		child := graph.AddModule(false, depSpec)
		graph.AddDependency(m.ID, child.ID)
		graph.AddSupplicant(child.ID, m.ID)
	}
}
