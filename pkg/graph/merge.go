package graph

import "github.com/semlattice/lattice/pkg/common"

// MergeGraphs combines per-document graphs into one. Nodes dedupe by token
// string with the first occurrence winning; when the same (source, target,
// type) edge appears in several graphs the heaviest weight is kept, so
// repeated co-occurrence never weakens a relation.
func MergeGraphs(graphs ...common.Graph) common.Graph {
	arena := NewArena()
	for _, g := range graphs {
		for _, n := range g.Nodes {
			arena.AddNode(n)
		}
		for _, e := range g.Edges {
			if arena.AddEdge(e) {
				continue
			}
			key := EdgeKey(e.Source, e.Target, e.Type)
			idx := arena.edgeIdx[key]
			if e.Weight > arena.edges[idx].Weight {
				arena.edges[idx].Weight = e.Weight
			}
		}
	}
	return arena.Graph()
}
