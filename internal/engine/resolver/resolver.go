// Package resolver implements the conflict detector and resolver: it
// partitions identified modules by logical identity, picks a winner per
// partition under a configurable policy, and rewrites the graph so no two
// modules share a logical identity afterward.
package resolver

import (
	"fmt"
	"sort"

	"github.com/threecrickets/resolve/internal/core/domain"
	"github.com/threecrickets/resolve/internal/core/ports"
)

// Resolver detects and resolves conflicts over an identified domain.Graph.
type Resolver struct {
	Policy   domain.ConflictPolicy
	Notifier ports.Notifier
}

// New builds a Resolver.
func New(policy domain.ConflictPolicy, notifier ports.Notifier) *Resolver {
	if notifier == nil {
		notifier = ports.NullNotifier{}
	}
	return &Resolver{Policy: policy, Notifier: notifier}
}

// Resolve detects conflicts, picks a winner for each, and rewrites graph in
// place so that afterward no two modules share a logical identity. It
// returns the detected conflicts (for RunResult reporting) in no
// particular order.
func (r *Resolver) Resolve(graph *domain.Graph) []*domain.Conflict {
	groups := r.partition(graph)

	var conflicts []*domain.Conflict
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		r.sortDescending(graph, members)

		chosen := r.choose(graph, members)
		rejected := make([]domain.ModuleID, 0, len(members)-1)
		for _, id := range members {
			if id != chosen {
				rejected = append(rejected, id)
			}
		}

		conflict := &domain.Conflict{Members: members, Chosen: chosen, Rejected: rejected}
		conflicts = append(conflicts, conflict)
		r.rewrite(graph, conflict)
	}
	return conflicts
}

// partition groups every identified module by logical identity. Because the
// grouping key is exactly the pair Compare treats as "logical identity,"
// no member of a partition can ever compare Incompatible against another
// member of the same partition; the source's defensive incompatible-member
// filter at detection time is accordingly structurally unreachable here and
// is not reproduced (see design notes).
func (r *Resolver) partition(graph *domain.Graph) map[domain.GroupName][]domain.ModuleID {
	groups := make(map[domain.GroupName][]domain.ModuleID)
	for m := range graph.Modules() {
		if !m.Identified() {
			continue
		}
		groups[m.Identifier.GroupName] = append(groups[m.Identifier.GroupName], m.ID)
	}
	return groups
}

// sortDescending orders members from newest to oldest identifier version.
func (r *Resolver) sortDescending(graph *domain.Graph, members []domain.ModuleID) {
	sort.Slice(members, func(i, j int) bool {
		a, b := graph.Get(members[i]), graph.Get(members[j])
		return a.Identifier.Compare(b.Identifier) == domain.Greater
	})
}

// choose picks the winning member under the configured policy. members is
// already sorted descending by version.
func (r *Resolver) choose(graph *domain.Graph, members []domain.ModuleID) domain.ModuleID {
	switch r.Policy {
	case domain.PolicyOldest:
		return members[len(members)-1]
	case domain.PolicyExplicitWins:
		for _, id := range members {
			if r.reachableFromExplicit(graph, id) {
				return id
			}
		}
		return members[0]
	case domain.PolicyNewest:
		fallthrough
	default:
		return members[0]
	}
}

// reachableFromExplicit walks m's supplicant chain looking for an explicit
// module, guarding against cycles the same way the graph's own traversal
// helpers do.
func (r *Resolver) reachableFromExplicit(graph *domain.Graph, id domain.ModuleID) bool {
	visited := make(map[domain.ModuleID]bool)
	var visit func(domain.ModuleID) bool
	visit = func(id domain.ModuleID) bool {
		if visited[id] {
			return false
		}
		visited[id] = true
		m := graph.Get(id)
		if m == nil {
			return false
		}
		if m.Explicit {
			return true
		}
		for _, supID := range m.Supplicants {
			if visit(supID) {
				return true
			}
		}
		return false
	}
	return visit(id)
}

// rewrite applies the graph rewrite procedure for a resolved conflict:
// every rejected member is replaced by the chosen one everywhere it is
// depended on, every specification that used to match a rejected member is
// rewritten to match the chosen one, and the conflict is reported.
func (r *Resolver) rewrite(graph *domain.Graph, conflict *domain.Conflict) {
	chosen := graph.Get(conflict.Chosen)

	for _, rejectedID := range conflict.Rejected {
		rejected := graph.Get(rejectedID)
		if rejected == nil {
			continue
		}
		graph.ReplaceModule(rejectedID, conflict.Chosen, true)
		graph.MergeSupplicants(conflict.Chosen, rejectedID)

		for m := range graph.Modules() {
			if m.Specification != nil && m.Specification.AllowsIdentifier(rejected.Identifier) {
				m.Specification = m.Specification.Rewrite(rejected.Identifier, chosen.Identifier)
			}
		}

		graph.Remove(rejectedID)
	}

	repoID := ""
	if chosen.Identifier.Repository != nil {
		repoID = chosen.Identifier.Repository.ID()
	}
	r.Notifier.Info(fmt.Sprintf("Resolved %d-way conflict to %s in %s repository", conflict.Size(), chosen.Identifier.String(), repoID))
}
