package graph

import (
	"fmt"
	"hash/fnv"
	"math"

	"github.com/semlattice/lattice/pkg/common"
)

// seedCategories is the fixed label cycle for emergent concept nodes.
var seedCategories = []string{
	"temporal",
	"causal",
	"hierarchical",
	"analogical",
	"constraint",
	"value",
	"communicative",
	"operational",
}

const embeddingDim = 24

// Triangle records one seed/emergent/emergent face of the lattice.
type Triangle struct {
	ID       string    `json:"id"`
	Vertices [3]string `json:"vertices"`
	BaseID   string    `json:"base_id"`
	Level    int       `json:"level"`
}

// SeedExpansionResult is created fresh per call; merging with prior results
// is the caller's job.
type SeedExpansionResult struct {
	Nodes     []common.TokenNode `json:"nodes"`
	Edges     []common.GraphEdge `json:"edges"`
	Triangles []Triangle         `json:"triangles"`
}

// ExpandSeed generates a triangular lattice of synthetic concept nodes around
// the seed token. Dimension expresses desired richness and is floored at 4;
// dimensions too small to yield a triangle return an empty result, which is
// policy, not an error.
//
// Anchor weights decay with triangle index so earlier relations stay
// stronger; lateral edges take 85% of their triangle's anchor weight. All
// generated edge types classify under the Operational family.
func ExpandSeed(seedID string, dimension int, label string, level int) SeedExpansionResult {
	if dimension < 4 {
		dimension = 4
	}
	triangleCount := dimension/2 - 1
	if triangleCount <= 0 {
		return SeedExpansionResult{}
	}
	if label == "" {
		label = seedID
	}

	nodes := make([]common.TokenNode, 0, triangleCount+1)
	for i := 0; i <= triangleCount; i++ {
		category := seedCategories[(level+i)%len(seedCategories)]
		nodeLabel := fmt.Sprintf("%s:%s", label, category)
		nodes = append(nodes, common.TokenNode{
			Token:     fmt.Sprintf("%s:%s:%d", seedID, category, i),
			Kind:      "concept",
			Index:     i,
			Level:     level,
			Embedding: conceptEmbedding(nodeLabel, level),
		})
	}

	arena := NewArena()
	triangles := make([]Triangle, 0, triangleCount)
	for i := 0; i < triangleCount; i++ {
		a := &nodes[i]
		b := &nodes[i+1]
		anchor := 0.55 - 0.05*float64(i)
		if anchor < 0.2 {
			anchor = 0.2
		}
		lateral := anchor * 0.85
		if lateral < 0.18 {
			lateral = 0.18
		}
		if a.RawScore < anchor {
			a.RawScore = anchor
		}
		if b.RawScore < anchor {
			b.RawScore = anchor
		}

		arena.AddEdge(common.GraphEdge{
			Source: seedID, Target: a.Token, Type: TypeSeedAnchor, Weight: anchor, Level: level,
		})
		arena.AddEdge(common.GraphEdge{
			Source: seedID, Target: b.Token, Type: TypeSeedAnchor, Weight: anchor, Level: level,
		})
		arena.AddEdge(common.GraphEdge{
			Source: a.Token, Target: b.Token, Type: TypeSeedLateral, Weight: lateral, Level: level,
		})

		triangles = append(triangles, Triangle{
			ID:       fmt.Sprintf("%s-tri-%d", seedID, i),
			Vertices: [3]string{seedID, a.Token, b.Token},
			BaseID:   seedID,
			Level:    level,
		})
	}

	return SeedExpansionResult{
		Nodes:     nodes,
		Edges:     arena.Graph().Edges,
		Triangles: triangles,
	}
}

// conceptEmbedding derives a deterministic, L2-normalized vector from an
// FNV-32 hash of the label and level. The hash is scaled down before the
// sine so its magnitude stays small enough for float64 to resolve the
// per-dimension phase offset. Identical label+level pairs always produce
// identical embeddings.
func conceptEmbedding(label string, level int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(label))
	h.Write([]byte{byte(level), byte(level >> 8), byte(level >> 16), byte(level >> 24)})
	phase := float64(h.Sum32()) / (1 << 16)

	raw := make([]float64, embeddingDim)
	var norm float64
	for d := range raw {
		raw[d] = math.Sin(phase + float64(d)*2.399963)
		norm += raw[d] * raw[d]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, embeddingDim)
	for d := range raw {
		out[d] = float32(raw[d] / norm)
	}
	return out
}
