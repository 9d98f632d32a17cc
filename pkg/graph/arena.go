package graph

import "github.com/semlattice/lattice/pkg/common"

// Arena accumulates nodes and edges with stable insertion order. Nodes are
// unique by token string (first occurrence wins), edges by
// EdgeKey(source, target, type). Backing the dedupe maps with index-stable
// slices keeps iteration deterministic.
type Arena struct {
	nodes   []common.TokenNode
	nodeIdx map[string]int
	edges   []common.GraphEdge
	edgeIdx map[string]int
}

func NewArena() *Arena {
	return &Arena{
		nodeIdx: make(map[string]int),
		edgeIdx: make(map[string]int),
	}
}

// AddNode inserts the node unless a node with the same token already exists.
// It reports whether the node was inserted.
func (a *Arena) AddNode(n common.TokenNode) bool {
	if _, ok := a.nodeIdx[n.Token]; ok {
		return false
	}
	a.nodeIdx[n.Token] = len(a.nodes)
	a.nodes = append(a.nodes, n)
	return true
}

// AddEdge inserts the edge unless an edge with the same (source, target, type)
// key already exists. It reports whether the edge was inserted.
func (a *Arena) AddEdge(e common.GraphEdge) bool {
	key := EdgeKey(e.Source, e.Target, e.Type)
	if _, ok := a.edgeIdx[key]; ok {
		return false
	}
	a.edgeIdx[key] = len(a.edges)
	a.edges = append(a.edges, e)
	return true
}

// HasNode reports whether a node with the given token exists.
func (a *Arena) HasNode(token string) bool {
	_, ok := a.nodeIdx[token]
	return ok
}

// Node returns the stored node for the token, if present.
func (a *Arena) Node(token string) (common.TokenNode, bool) {
	i, ok := a.nodeIdx[token]
	if !ok {
		return common.TokenNode{}, false
	}
	return a.nodes[i], true
}

// Graph snapshots the arena contents into a Graph value. The returned slices
// are copies; further arena mutation does not affect them.
func (a *Arena) Graph() common.Graph {
	nodes := make([]common.TokenNode, len(a.nodes))
	copy(nodes, a.nodes)
	edges := make([]common.GraphEdge, len(a.edges))
	copy(edges, a.edges)
	return common.Graph{Nodes: nodes, Edges: edges}
}

// FromGraph seeds an arena with an existing graph value, preserving order.
func FromGraph(g common.Graph) *Arena {
	a := NewArena()
	for _, n := range g.Nodes {
		a.AddNode(n)
	}
	for _, e := range g.Edges {
		a.AddEdge(e)
	}
	return a
}
