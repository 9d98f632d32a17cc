package pipeline

import (
	"github.com/semlattice/lattice/pkg/graph"
)

const defaultTopK = 10

// SeedRequest asks for one synthetic concept lattice around a seed token.
type SeedRequest struct {
	SeedID    string `json:"seedId"`
	Dimension int    `json:"dimension"`
	Label     string `json:"label,omitempty"`
	Level     int    `json:"level"`
}

// Options is the recognized configuration surface for one run. Pointer
// fields distinguish "unset" from an explicit zero; unset values fall back
// to the documented defaults.
type Options struct {
	TokenizeSymbols          *bool          `json:"tokenizeSymbols,omitempty"`
	SymbolWeightScale        float64        `json:"symbolWeightScale,omitempty"`
	SymbolEmitMode           graph.EmitMode `json:"symbolEmitMode,omitempty"`
	IncludeSymbolInSummaries *bool          `json:"includeSymbolInSummaries,omitempty"`

	MaxDepth  *int `json:"maxDepth,omitempty"`
	MaxDegree int  `json:"maxDegree,omitempty"`
	MaxEdges  int  `json:"maxEdges,omitempty"`

	MaxNodes             int     `json:"maxNodes,omitempty"`
	PruneWeightThreshold float64 `json:"pruneWeightThreshold,omitempty"`

	Seeds    []SeedRequest `json:"seeds,omitempty"`
	SkgDepth int           `json:"skgDepth,omitempty"`

	TopK int `json:"topK,omitempty"`
}

func (o Options) tokenizeSymbols() bool {
	if o.TokenizeSymbols == nil {
		return true
	}
	return *o.TokenizeSymbols
}

func (o Options) includeSymbolInSummaries() bool {
	if o.IncludeSymbolInSummaries == nil {
		return true
	}
	return *o.IncludeSymbolInSummaries
}

func (o Options) adjacencyConfig() graph.Config {
	cfg := graph.Config{
		MaxDepth:  graph.DefaultMaxDepth,
		MaxDegree: o.MaxDegree,
		MaxEdges:  o.MaxEdges,
	}
	if o.MaxDepth != nil {
		cfg.MaxDepth = *o.MaxDepth
	}
	return cfg
}

func (o Options) pruneOptions() graph.PruneOptions {
	return graph.PruneOptions{
		MaxNodes:        o.MaxNodes,
		MaxEdges:        o.MaxEdges,
		WeightThreshold: o.PruneWeightThreshold,
	}
}

func (o Options) topK() int {
	if o.TopK <= 0 {
		return defaultTopK
	}
	return o.TopK
}
