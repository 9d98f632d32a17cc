package pipeline

import (
	"sort"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/telemetry"
)

// rankNodes scores every node by the sum of its incident edge weights and
// returns the top k entries, heaviest first. Ties break on token string so
// the ordering is total and runs stay reproducible. Node RawScore fields are
// updated in place as a side effect so the returned graph carries the scores
// too.
func rankNodes(g *common.Graph, k int) []telemetry.RankedEntry {
	scores := make(map[string]float64, len(g.Nodes))
	for _, e := range g.Edges {
		scores[e.Source] += e.Weight
		if e.Source != e.Target {
			scores[e.Target] += e.Weight
		}
	}

	entries := make([]telemetry.RankedEntry, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		n.RawScore = scores[n.Token]
		entries = append(entries, telemetry.RankedEntry{Token: n.Token, Score: n.RawScore})
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].Score != entries[b].Score {
			return entries[a].Score > entries[b].Score
		}
		return entries[a].Token < entries[b].Token
	})

	if len(entries) > k {
		entries = entries[:k]
	}
	return entries
}
