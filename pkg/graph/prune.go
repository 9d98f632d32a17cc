package graph

import (
	"sort"

	"github.com/semlattice/lattice/pkg/common"
)

// PruneOptions bounds the final graph. Zero values take the package defaults.
type PruneOptions struct {
	MaxNodes        int
	MaxEdges        int
	WeightThreshold float64
}

func (o PruneOptions) withDefaults() PruneOptions {
	if o.MaxNodes == 0 {
		o.MaxNodes = DefaultPruneMaxNodes
	}
	if o.MaxEdges == 0 {
		o.MaxEdges = DefaultPruneMaxEdges
	}
	if o.WeightThreshold == 0 {
		o.WeightThreshold = DefaultPruneWeightThreshold
	}
	return o
}

// Prune enforces node and edge budgets by weight-ordered trimming.
//
// Edges are dropped lowest-weight first while the edge count exceeds the cap,
// but an edge whose weight exceeds the threshold is never dropped: meaningful
// edges survive even when that leaves the cap exceeded, and callers must
// tolerate the residual overflow.
//
// Node trimming runs afterward: nodes left without any incident edge go
// first; if the cap is still exceeded the node list is truncated by original
// insertion order (not by score) so the result stays deterministic. Edges
// referencing a truncated node are removed with it.
func Prune(g common.Graph, opts PruneOptions) common.Graph {
	opts = opts.withDefaults()

	edges := append([]common.GraphEdge(nil), g.Edges...)
	if len(edges) > opts.MaxEdges {
		order := make([]int, len(edges))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return edges[order[a]].Weight < edges[order[b]].Weight
		})

		dropped := make(map[int]struct{})
		for _, idx := range order {
			if len(edges)-len(dropped) <= opts.MaxEdges {
				break
			}
			if edges[idx].Weight > opts.WeightThreshold {
				break // everything after this is heavier
			}
			dropped[idx] = struct{}{}
		}
		if len(dropped) > 0 {
			kept := make([]common.GraphEdge, 0, len(edges)-len(dropped))
			for i, e := range edges {
				if _, gone := dropped[i]; !gone {
					kept = append(kept, e)
				}
			}
			edges = kept
		}
	}

	nodes := append([]common.TokenNode(nil), g.Nodes...)
	if len(nodes) > opts.MaxNodes {
		incident := make(map[string]int, len(nodes))
		for _, e := range edges {
			incident[e.Source]++
			incident[e.Target]++
		}

		kept := nodes[:0]
		excess := len(nodes) - opts.MaxNodes
		for _, n := range nodes {
			if excess > 0 && incident[n.Token] == 0 {
				excess--
				continue
			}
			kept = append(kept, n)
		}
		nodes = kept

		if len(nodes) > opts.MaxNodes {
			removed := make(map[string]struct{}, len(nodes)-opts.MaxNodes)
			for _, n := range nodes[opts.MaxNodes:] {
				removed[n.Token] = struct{}{}
			}
			nodes = nodes[:opts.MaxNodes]

			keptEdges := edges[:0]
			for _, e := range edges {
				if _, gone := removed[e.Source]; gone {
					continue
				}
				if _, gone := removed[e.Target]; gone {
					continue
				}
				keptEdges = append(keptEdges, e)
			}
			edges = keptEdges
		}
	}

	return common.Graph{Nodes: nodes, Edges: edges}
}
