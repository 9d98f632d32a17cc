package common

// TokenKind distinguishes word tokens from punctuation/symbol tokens.
type TokenKind string

const (
	TokenWord   TokenKind = "word"
	TokenSymbol TokenKind = "symbol"
)

// Token is a single element of the tokenized input stream. Tokens are
// immutable once produced; Index is the stable position in the source
// sequence (0..N-1).
type Token struct {
	Text     string    `json:"text"`
	Kind     TokenKind `json:"kind"`
	Index    int       `json:"index"`
	Category string    `json:"category,omitempty"`
}

// EdgeMeta carries provenance for an adjacency edge. Level records how many
// expansion passes produced the edge (0 for base edges), Span the index
// distance between the endpoints. ViaIndex is set on expanded edges and names
// the common neighbor the edge was discovered through (-1 when absent).
type EdgeMeta struct {
	Level       int    `json:"level"`
	Span        int    `json:"span"`
	SourceToken string `json:"source_token"`
	TargetToken string `json:"target_token"`
	ViaIndex    int    `json:"via_index"`
	ViaToken    string `json:"via_token,omitempty"`
}

// AdjacencyEdge is a typed, weighted relationship between two token positions.
// For structural (adjacency:*) edges Source < Target by convention and
// Source != Target; symbol self edges (self:symbol) are the only permitted
// self-loops.
type AdjacencyEdge struct {
	Source int      `json:"source"`
	Target int      `json:"target"`
	Type   string   `json:"type"`
	Weight float64  `json:"weight"`
	Meta   EdgeMeta `json:"meta"`
}

// TokenNode is a node in an assembled graph value. Nodes are unique by Token
// within a graph; on merge the first occurrence wins. Synthetic nodes created
// by seed expansion carry a deterministic embedding.
type TokenNode struct {
	Token     string    `json:"token"`
	Kind      string    `json:"kind"`
	RawScore  float64   `json:"raw_score"`
	Index     int       `json:"index"`
	Level     int       `json:"level"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// GraphEdge is an edge between two token-keyed nodes in an assembled graph.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
	Level  int     `json:"level"`
}

// Graph is the node/edge value handed to ranking, telemetry, and storage.
// Node and edge order is insertion order and is deterministic for a given
// input and configuration.
type Graph struct {
	Nodes []TokenNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Summary holds the per-run graph metrics exposed to downstream consumers.
type Summary struct {
	TokenCount      int     `json:"token_count"`
	WordCount       int     `json:"word_count"`
	SymbolCount     int     `json:"symbol_count"`
	SymbolDensity   float64 `json:"symbol_density"`
	EdgeCount       int     `json:"edge_count"`
	SymbolEdgeCount int     `json:"symbol_edge_count"`
	WeightSum       float64 `json:"weight_sum"`
}
