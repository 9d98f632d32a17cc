package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/semlattice/lattice/pkg/common"
)

func wordTokens(texts ...string) []common.Token {
	tokens := make([]common.Token, len(texts))
	for i, text := range texts {
		tokens[i] = common.Token{Text: text, Kind: common.TokenWord, Index: i}
	}
	return tokens
}

func TestBuildAdjacencyBaseCycle(t *testing.T) {
	for _, n := range []int{2, 3, 5, 9} {
		texts := make([]string, n)
		for i := range texts {
			texts[i] = string(rune('a' + i))
		}
		tokens := wordTokens(texts...)

		edges, err := BuildAdjacency(tokens, Config{MaxDepth: 0, MaxDegree: 4, MaxEdges: n * 8})
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}

		baseNeighbors := make(map[int]map[int]bool, n)
		for _, e := range edges {
			if e.Type != TypeAdjacencyBase {
				t.Fatalf("n=%d: unexpected edge type %q with depth 0", n, e.Type)
			}
			if e.Weight != 1 || e.Meta.Level != 0 {
				t.Errorf("n=%d: base edge (%d,%d) weight=%v level=%d, want 1 and 0", n, e.Source, e.Target, e.Weight, e.Meta.Level)
			}
			if e.Source >= e.Target {
				t.Errorf("n=%d: edge (%d,%d) violates source < target", n, e.Source, e.Target)
			}
			for _, pair := range [][2]int{{e.Source, e.Target}, {e.Target, e.Source}} {
				if baseNeighbors[pair[0]] == nil {
					baseNeighbors[pair[0]] = make(map[int]bool)
				}
				baseNeighbors[pair[0]][pair[1]] = true
			}
		}

		for i := 0; i < n; i++ {
			prev := (i - 1 + n) % n
			next := (i + 1) % n
			want := map[int]bool{prev: true, next: true}
			if !reflect.DeepEqual(baseNeighbors[i], want) {
				t.Errorf("n=%d: token %d base neighbors = %v, want %v", n, i, baseNeighbors[i], want)
			}
		}
	}
}

func TestBuildAdjacencyTinyInput(t *testing.T) {
	for _, tokens := range [][]common.Token{nil, wordTokens("solo")} {
		edges, err := BuildAdjacency(tokens, DefaultConfig(len(tokens)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(edges) != 0 {
			t.Errorf("expected empty edge set for %d tokens, got %d edges", len(tokens), len(edges))
		}
	}
}

func TestBuildAdjacencyRejectsNegativeLimits(t *testing.T) {
	tokens := wordTokens("a", "b", "c")
	for _, cfg := range []Config{
		{MaxDepth: -1},
		{MaxDegree: -2},
		{MaxEdges: -3},
	} {
		_, err := BuildAdjacency(tokens, cfg)
		var cerr *common.ContractError
		if !errors.As(err, &cerr) {
			t.Errorf("config %+v: expected contract error, got %v", cfg, err)
		}
	}
}

func TestBuildAdjacencyCompletesSmallGraph(t *testing.T) {
	tokens := wordTokens("alpha", "beta", "gamma", "delta")
	edges, err := BuildAdjacency(tokens, DefaultConfig(len(tokens)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(edges) != 6 {
		t.Fatalf("expected complete graph on 4 nodes (6 edges), got %d", len(edges))
	}
	pairs := make(map[string]bool, len(edges))
	sawExpanded := false
	sawBaseLevelZero := false
	for _, e := range edges {
		key := PairKey(e.Source, e.Target)
		if pairs[key] {
			t.Errorf("duplicate pair %s", key)
		}
		pairs[key] = true
		if e.Type == TypeAdjacencyExpanded {
			sawExpanded = true
		}
		if e.Type == TypeAdjacencyBase && e.Meta.Level == 0 {
			sawBaseLevelZero = true
		}
	}
	if !sawExpanded {
		t.Error("expected at least one adjacency:expanded edge")
	}
	if !sawBaseLevelZero {
		t.Error("expected at least one base edge at level 0")
	}
}

func TestBuildAdjacencyExpandedWeights(t *testing.T) {
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}
	tokens := wordTokens(texts...)

	edges, err := BuildAdjacency(tokens, DefaultConfig(len(tokens)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range edges {
		if e.Type != TypeAdjacencyExpanded {
			continue
		}
		level := e.Meta.Level
		if level < 1 {
			t.Errorf("expanded edge (%d,%d) at level %d, want >= 1", e.Source, e.Target, level)
		}
		want := 1 / float64(level+1)
		if want < 0.1 {
			want = 0.1
		}
		if e.Weight != want {
			t.Errorf("expanded edge (%d,%d) level %d weight = %v, want %v", e.Source, e.Target, level, e.Weight, want)
		}
		if e.Meta.ViaIndex < 0 {
			t.Errorf("expanded edge (%d,%d) missing via index", e.Source, e.Target)
		}
	}
}

func TestBuildAdjacencyRespectsDegreeCap(t *testing.T) {
	texts := make([]string, 16)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}
	tokens := wordTokens(texts...)

	const maxDegree = 3
	edges, err := BuildAdjacency(tokens, Config{MaxDepth: 4, MaxDegree: maxDegree, MaxEdges: 128})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	degree := make(map[int]int)
	for _, e := range edges {
		if e.Type == TypeAdjacencyBase {
			continue
		}
		degree[e.Source]++
		degree[e.Target]++
	}
	for idx, d := range degree {
		if d > maxDegree {
			t.Errorf("token %d non-base degree %d exceeds cap %d", idx, d, maxDegree)
		}
	}
}

func TestBuildAdjacencyEdgeBudgetBelowN(t *testing.T) {
	tokens := wordTokens("a", "b", "c", "d", "e")
	edges, err := BuildAdjacency(tokens, Config{MaxDepth: 4, MaxDegree: 8, MaxEdges: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Budget below N leaves the cycle incomplete by policy.
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(edges))
	}
	for _, e := range edges {
		if e.Type != TypeAdjacencyBase {
			t.Errorf("expected only base edges under a tiny budget, got %q", e.Type)
		}
	}
}

func TestBuildAdjacencyDeterministic(t *testing.T) {
	texts := make([]string, 10)
	for i := range texts {
		texts[i] = string(rune('a' + i))
	}
	tokens := wordTokens(texts...)
	cfg := DefaultConfig(len(tokens))

	first, err := BuildAdjacency(tokens, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := BuildAdjacency(tokens, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical input and config produced different edge sets")
	}
}

func TestDefaultConfigDerivation(t *testing.T) {
	tests := []struct {
		n          int
		wantDegree int
		wantEdges  int
	}{
		{n: 2, wantDegree: 4, wantEdges: 1},
		{n: 4, wantDegree: 8, wantEdges: 6},
		{n: 16, wantDegree: 16, wantEdges: 120},
		{n: 100, wantDegree: 27, wantEdges: 800},
	}
	for _, tt := range tests {
		cfg := DefaultConfig(tt.n)
		if cfg.MaxDepth != DefaultMaxDepth {
			t.Errorf("n=%d: MaxDepth = %d, want %d", tt.n, cfg.MaxDepth, DefaultMaxDepth)
		}
		if cfg.MaxDegree != tt.wantDegree {
			t.Errorf("n=%d: MaxDegree = %d, want %d", tt.n, cfg.MaxDegree, tt.wantDegree)
		}
		if cfg.MaxEdges != tt.wantEdges {
			t.Errorf("n=%d: MaxEdges = %d, want %d", tt.n, cfg.MaxEdges, tt.wantEdges)
		}
	}
}
