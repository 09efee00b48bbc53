package usecase

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/solidity-kit/kitdeploy/internal/domain"
)

// DependencyGraph is the script dependency graph. A dependency names either
// a script ID or a tag; a tag stands for every script carrying it.
type DependencyGraph struct {
	nodes map[string]*Script
	deps  map[string][]string // node -> resolved dependencies
	edges map[string][]string // adjacency list: node -> list of dependents
}

// NewDependencyGraph builds the graph, failing on dependencies nothing provides
// and on cycles
func NewDependencyGraph(scripts []*Script) (*DependencyGraph, error) {
	g := &DependencyGraph{
		nodes: make(map[string]*Script, len(scripts)),
		deps:  make(map[string][]string, len(scripts)),
		edges: make(map[string][]string),
	}

	for _, s := range scripts {
		if s.ID == "" {
			return nil, fmt.Errorf("script without id (tags %v)", s.Tags)
		}
		if _, dup := g.nodes[s.ID]; dup {
			return nil, fmt.Errorf("duplicate script id %q", s.ID)
		}
		g.nodes[s.ID] = s
	}

	ids := g.sortedIDs()
	for _, id := range ids {
		var resolved []string
		for _, dep := range g.nodes[id].Dependencies {
			targets, err := g.resolveDependency(id, dep, ids)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, targets...)
		}
		resolved = lo.Uniq(resolved)
		sort.Strings(resolved)
		g.deps[id] = resolved
		for _, dep := range resolved {
			g.edges[dep] = append(g.edges[dep], id)
		}
	}

	// a cycle anywhere is an error, even among scripts no tag selects
	if _, err := g.TopologicalSort(ids); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *DependencyGraph) resolveDependency(from, dep string, ids []string) ([]string, error) {
	if _, ok := g.nodes[dep]; ok {
		return []string{dep}, nil
	}
	tagged := lo.Filter(ids, func(id string, _ int) bool {
		return id != from && g.nodes[id].HasTag(dep)
	})
	if len(tagged) == 0 && !g.nodes[from].HasTag(dep) {
		return nil, fmt.Errorf("%w: script %q depends on %q, which is neither a script id nor a tag", domain.ErrUnknownDependency, from, dep)
	}
	return tagged, nil
}

// Select returns the IDs of scripts matching any of tags, plus everything they
// transitively depend on. No tags selects every script.
func (g *DependencyGraph) Select(tags []string) []string {
	if len(tags) == 0 {
		return g.sortedIDs()
	}

	selected := make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if selected[id] {
			return
		}
		selected[id] = true
		for _, dep := range g.deps[id] {
			visit(dep)
		}
	}

	for _, id := range g.sortedIDs() {
		s := g.nodes[id]
		if lo.SomeBy(tags, s.HasTag) {
			visit(id)
		}
	}

	return lo.Filter(g.sortedIDs(), func(id string, _ int) bool { return selected[id] })
}

// TopologicalSort orders the given scripts so that dependencies come first.
// Ties are broken by script ID so the order is stable between runs.
func (g *DependencyGraph) TopologicalSort(ids []string) ([]*Script, error) {
	include := lo.SliceToMap(ids, func(id string) (string, bool) { return id, true })

	// Calculate in-degree for each node
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		for _, dep := range g.deps[id] {
			if include[dep] {
				inDegree[id]++
			}
		}
	}

	// Initialize queue with nodes that have no dependencies
	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	result := make([]*Script, 0, len(ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		for _, dependent := range g.edges[current] {
			if !include[dependent] {
				continue
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(ids) {
		var cycle []string
		for _, id := range ids {
			if inDegree[id] > 0 {
				cycle = append(cycle, id)
			}
		}
		sort.Strings(cycle)
		return nil, &domain.CyclicDependencyError{Scripts: cycle}
	}

	return result, nil
}

func (g *DependencyGraph) sortedIDs() []string {
	ids := lo.Keys(g.nodes)
	sort.Strings(ids)
	return ids
}
