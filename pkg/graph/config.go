package graph

import (
	"math"

	"github.com/semlattice/lattice/pkg/common"
)

// Edge and node types emitted by the builders in this package.
const (
	TypeAdjacencyBase     = "adjacency:base"
	TypeAdjacencyExpanded = "adjacency:expanded"
	TypeSelfSymbol        = "self:symbol"
	TypeSeedAnchor        = "seed-expansion"
	TypeSeedLateral       = "seed-expansion:lateral"
	TypeSkgBase           = "skg-base"
	TypeSkgCrossLevel     = "skg-cross-level"
)

const (
	// DefaultMaxDepth bounds how many expansion levels the adjacency builder
	// walks outward from the base cycle.
	DefaultMaxDepth = 4

	// DefaultPruneMaxNodes and DefaultPruneMaxEdges are the final graph
	// budgets applied when the caller does not configure its own.
	DefaultPruneMaxNodes = 512
	DefaultPruneMaxEdges = 2048

	// DefaultPruneWeightThreshold protects edges above this weight from
	// cap-driven trimming.
	DefaultPruneWeightThreshold = 0.25
)

// Config bounds the adjacency builder. Zero values are replaced by the
// derived defaults for the input length; explicit values are used as-is,
// which permits a MaxEdges below N (the documented incomplete-cycle policy).
type Config struct {
	MaxDepth  int
	MaxDegree int
	MaxEdges  int
}

// DefaultConfig derives the documented limits for a sequence of n tokens:
// depth 4, degree max(4, ceil(log2(n)*4)), and an edge budget of
// min(complete-graph size, max(n, requested), n*8) where requested defaults
// to n*8 when zero.
func DefaultConfig(n int) Config {
	return Config{
		MaxDepth:  DefaultMaxDepth,
		MaxDegree: defaultMaxDegree(n),
		MaxEdges:  defaultMaxEdges(n, 0),
	}
}

func defaultMaxDegree(n int) int {
	if n < 2 {
		return 4
	}
	derived := int(math.Ceil(math.Log2(float64(n)) * 4))
	if derived < 4 {
		return 4
	}
	return derived
}

func defaultMaxEdges(n, requested int) int {
	if n < 2 {
		return 0
	}
	complete := n * (n - 1) / 2
	if requested <= 0 {
		requested = n * 8
	}
	lower := requested
	if n > lower {
		lower = n
	}
	budget := complete
	if lower < budget {
		budget = lower
	}
	if cap := n * 8; cap < budget {
		budget = cap
	}
	return budget
}

func (c Config) validate() error {
	if c.MaxDepth < 0 {
		return common.Violation("maxDepth", "must be >= 0, got %d", c.MaxDepth)
	}
	if c.MaxDegree < 0 {
		return common.Violation("maxDegree", "must be >= 0, got %d", c.MaxDegree)
	}
	if c.MaxEdges < 0 {
		return common.Violation("maxEdges", "must be >= 0, got %d", c.MaxEdges)
	}
	return nil
}

// resolve fills zero-valued limits with the defaults for n tokens. MaxDepth 0
// is meaningful (base pass only), so depth is defaulted only when negative
// values were already rejected and the caller asked for DefaultConfig.
func (c Config) resolve(n int) Config {
	out := c
	if out.MaxDegree == 0 {
		out.MaxDegree = defaultMaxDegree(n)
	}
	if out.MaxEdges == 0 {
		out.MaxEdges = defaultMaxEdges(n, 0)
	}
	return out
}
