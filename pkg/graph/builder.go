package graph

import (
	"sort"

	"github.com/semlattice/lattice/pkg/common"
)

// BuildAdjacency constructs the bounded token-adjacency edge set for the
// given sequence. The base pass closes the sequence into a cycle so every
// token keeps degree >= 2 and the graph stays connected; the expansion pass
// then walks common-neighbor candidates breadth-first, adding weaker edges
// level by level until depth, degree, or edge budgets stop it.
//
// Traversal order is a fixed function of token index order: identical input
// and config always produce an identical edge set.
//
// Fewer than two tokens yields an empty edge set; that is a policy outcome,
// not an error. Invalid (negative) limits are contract violations.
func BuildAdjacency(tokens []common.Token, cfg Config) ([]common.AdjacencyEdge, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	n := len(tokens)
	if n < 2 {
		return nil, nil
	}
	cfg = cfg.resolve(n)

	edges := make([]common.AdjacencyEdge, 0, cfg.MaxEdges)
	bestLevel := make(map[string]int, cfg.MaxEdges)
	adjacent := make(map[int][]int, n)
	degree := make(map[int]int, n) // non-base edges only

	type frontierPair struct {
		a, b  int
		level int
	}
	var frontier []frontierPair

	addEdge := func(a, b int, edgeType string, weight float64, level, via int) {
		if b < a {
			a, b = b, a
		}
		meta := common.EdgeMeta{
			Level:       level,
			Span:        b - a,
			SourceToken: tokens[a].Text,
			TargetToken: tokens[b].Text,
			ViaIndex:    via,
		}
		if via >= 0 {
			meta.ViaToken = tokens[via].Text
		}
		edges = append(edges, common.AdjacencyEdge{
			Source: a,
			Target: b,
			Type:   edgeType,
			Weight: weight,
			Meta:   meta,
		})
		adjacent[a] = append(adjacent[a], b)
		adjacent[b] = append(adjacent[b], a)
	}

	// Base pass: cycle i -> (i+1) mod n. Exempt from the degree cap but still
	// subject to the edge budget; with MaxEdges < n the cycle stays
	// incomplete, which is accepted policy.
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		key := PairKey(i, j)
		if _, seen := bestLevel[key]; seen {
			continue // n == 2 proposes the same pair twice
		}
		if len(edges) >= cfg.MaxEdges {
			break
		}
		bestLevel[key] = 0
		addEdge(i, j, TypeAdjacencyBase, 1, 0, -1)
		frontier = append(frontier, frontierPair{a: min(i, j), b: max(i, j), level: 0})
	}

	// Expansion pass: for each connected pair (x, y), every neighbor c of y
	// becomes a candidate edge (x, c) one level further out, discovered via y.
	for cursor := 0; cursor < len(frontier); cursor++ {
		if len(edges) >= cfg.MaxEdges {
			break
		}
		p := frontier[cursor]
		if p.level >= cfg.MaxDepth {
			continue
		}
		nextLevel := p.level + 1
		weight := expandedWeight(nextLevel)

		for _, dir := range [2][2]int{{p.a, p.b}, {p.b, p.a}} {
			x, via := dir[0], dir[1]
			neighbors := append([]int(nil), adjacent[via]...)
			sort.Ints(neighbors)
			for _, c := range neighbors {
				if c == x {
					continue
				}
				key := PairKey(x, c)
				if known, seen := bestLevel[key]; seen && known <= nextLevel {
					continue
				}
				bestLevel[key] = nextLevel
				if len(edges) >= cfg.MaxEdges {
					return edges, nil
				}
				if degree[x] >= cfg.MaxDegree || degree[c] >= cfg.MaxDegree {
					continue
				}
				addEdge(x, c, TypeAdjacencyExpanded, weight, nextLevel, via)
				degree[x]++
				degree[c]++
				frontier = append(frontier, frontierPair{a: min(x, c), b: max(x, c), level: nextLevel})
			}
		}
	}

	return edges, nil
}

// expandedWeight decays strictly with traversal depth, floored at 0.1.
func expandedWeight(level int) float64 {
	w := 1 / float64(level+1)
	if w < 0.1 {
		return 0.1
	}
	return w
}
