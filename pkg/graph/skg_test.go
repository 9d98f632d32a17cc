package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/semlattice/lattice/pkg/common"
)

func pathGraph() common.Graph {
	return common.Graph{
		Nodes: []common.TokenNode{
			{Token: "a", Kind: "word"},
			{Token: "b", Kind: "word"},
			{Token: "c", Kind: "word"},
		},
		Edges: []common.GraphEdge{
			{Source: "a", Target: "b", Type: TypeAdjacencyBase, Weight: 1},
			{Source: "b", Target: "c", Type: TypeAdjacencyBase, Weight: 0.5},
		},
	}
}

func TestExpandSKGDepthZeroIsIdentity(t *testing.T) {
	g := pathGraph()
	out, err := ExpandSKG(g, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(out, g) {
		t.Errorf("depth 0 changed the graph:\n got %+v\nwant %+v", out, g)
	}
}

func TestExpandSKGRejectsNegativeDepth(t *testing.T) {
	_, err := ExpandSKG(pathGraph(), -1)
	var cerr *common.ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected contract error, got %v", err)
	}
}

func TestExpandSKGDepthOne(t *testing.T) {
	out, err := ExpandSKG(pathGraph(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mids := make(map[string]common.TokenNode)
	for _, n := range out.Nodes {
		if n.Kind == "relation" {
			mids[n.Token] = n
		}
	}
	for _, want := range []string{"a->b", "b->c"} {
		n, ok := mids[want]
		if !ok {
			t.Fatalf("missing midpoint node %q", want)
		}
		if n.Level != 1 {
			t.Errorf("midpoint %q level = %d, want 1", want, n.Level)
		}
	}
	if mids["a->b"].RawScore != 1 || mids["b->c"].RawScore != 0.5 {
		t.Errorf("midpoints should inherit edge weights, got %v and %v",
			mids["a->b"].RawScore, mids["b->c"].RawScore)
	}

	var base, cross int
	for _, e := range out.Edges {
		switch e.Type {
		case TypeSkgBase:
			base++
		case TypeSkgCrossLevel:
			cross++
			if e.Weight != 0.5 {
				t.Errorf("cross-level edge weight = %v, want 0.5", e.Weight)
			}
		}
	}
	if base != 4 {
		t.Errorf("got %d skg-base edges, want 4", base)
	}
	if cross != 1 {
		t.Errorf("got %d cross-level edges, want 1", cross)
	}
}

func TestExpandSKGOriginalEdgesSurvive(t *testing.T) {
	g := pathGraph()
	out, err := ExpandSKG(g, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	keys := make(map[string]bool, len(out.Edges))
	for _, e := range out.Edges {
		keys[EdgeKey(e.Source, e.Target, e.Type)] = true
	}
	for _, e := range g.Edges {
		if !keys[EdgeKey(e.Source, e.Target, e.Type)] {
			t.Errorf("original edge %s -> %s lost during expansion", e.Source, e.Target)
		}
	}
}

func TestExpandSKGSecondPassConsumesFirstPassOutput(t *testing.T) {
	depth1, err := ExpandSKG(pathGraph(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	depth2, err := ExpandSKG(pathGraph(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(depth2.Nodes) <= len(depth1.Nodes) {
		t.Errorf("depth 2 nodes (%d) should exceed depth 1 (%d)", len(depth2.Nodes), len(depth1.Nodes))
	}

	sawLevel2 := false
	for _, n := range depth2.Nodes {
		if n.Kind == "relation" && n.Level == 2 {
			sawLevel2 = true
			break
		}
	}
	if !sawLevel2 {
		t.Error("expected relation nodes at level 2")
	}
}

func TestExpandSKGEmptyGraph(t *testing.T) {
	out, err := ExpandSKG(common.Graph{}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Nodes) != 0 || len(out.Edges) != 0 {
		t.Errorf("empty graph expanded to %d nodes / %d edges", len(out.Nodes), len(out.Edges))
	}
}
