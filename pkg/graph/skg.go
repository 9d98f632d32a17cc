package graph

import (
	"github.com/semlattice/lattice/pkg/common"
)

// ExpandSKG iteratively replaces edges with intermediate relation nodes.
// Each pass takes the edge set produced by the previous pass (the original
// edges on the first pass), inserts a midpoint node per edge keyed "s->t"
// that inherits the edge's weight, and emits s->mid and mid->t edges. All
// midpoints introduced within the same pass are then fully cross-connected
// pairwise to capture lateral association among simultaneously discovered
// relations.
//
// Nodes and edges merge into the running graph with stable-key dedupe; the
// level field records the originating pass. Depth 0 is the identity
// transform; negative depth is a contract violation.
func ExpandSKG(g common.Graph, depth int) (common.Graph, error) {
	if depth < 0 {
		return common.Graph{}, common.Violation("depth", "must be >= 0, got %d", depth)
	}
	arena := FromGraph(g)
	if depth == 0 {
		return arena.Graph(), nil
	}

	input := append([]common.GraphEdge(nil), g.Edges...)
	for pass := 1; pass <= depth; pass++ {
		if len(input) == 0 {
			break
		}

		var produced []common.GraphEdge
		var passMids []string
		seenMid := make(map[string]struct{}, len(input))

		addEdge := func(e common.GraphEdge) {
			if arena.AddEdge(e) {
				produced = append(produced, e)
			}
		}

		for _, e := range input {
			mid := MidKey(e.Source, e.Target)
			if _, dup := seenMid[mid]; !dup {
				seenMid[mid] = struct{}{}
				passMids = append(passMids, mid)
			}
			arena.AddNode(common.TokenNode{
				Token:    mid,
				Kind:     "relation",
				RawScore: e.Weight,
				Level:    pass,
			})
			addEdge(common.GraphEdge{
				Source: e.Source, Target: mid, Type: TypeSkgBase, Weight: e.Weight, Level: pass,
			})
			addEdge(common.GraphEdge{
				Source: mid, Target: e.Target, Type: TypeSkgBase, Weight: e.Weight, Level: pass,
			})
		}

		for i := 0; i < len(passMids); i++ {
			for j := i + 1; j < len(passMids); j++ {
				addEdge(common.GraphEdge{
					Source: passMids[i],
					Target: passMids[j],
					Type:   TypeSkgCrossLevel,
					Weight: 0.5,
					Level:  pass,
				})
			}
		}

		input = produced
	}

	return arena.Graph(), nil
}
