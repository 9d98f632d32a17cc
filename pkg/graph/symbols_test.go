package graph

import (
	"errors"
	"testing"

	"github.com/semlattice/lattice/pkg/common"
)

func TestClassifySymbol(t *testing.T) {
	tests := []struct {
		text string
		want SymbolClass
	}{
		{"!", SymbolEmphasis},
		{"?", SymbolQuery},
		{".", SymbolLeftBind},
		{",", SymbolLeftBind},
		{";", SymbolLeftBind},
		{"(", SymbolRightBind},
		{"«", SymbolRightBind},
		{")", SymbolCloseBind},
		{"”", SymbolCloseBind},
		{"@", SymbolOther},
		{"--", SymbolOther},
		{"", SymbolOther},
	}
	for _, tt := range tests {
		if got := ClassifySymbol(tt.text); got != tt.want {
			t.Errorf("ClassifySymbol(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func helloWorldTokens() ([]common.Token, map[int]WordNeighbors) {
	tokens := []common.Token{
		{Text: "Hello", Kind: common.TokenWord, Index: 0},
		{Text: ",", Kind: common.TokenSymbol, Index: 1},
		{Text: "world", Kind: common.TokenWord, Index: 2},
		{Text: "!", Kind: common.TokenSymbol, Index: 3},
	}
	neighbors := map[int]WordNeighbors{
		1: {Left: 0, Right: 2},
		3: {Left: 2, Right: -1},
	}
	return tokens, neighbors
}

func TestEmitSymbolEdgesPaired(t *testing.T) {
	tokens, neighbors := helloWorldTokens()
	edges, err := EmitSymbolEdges(tokens, neighbors, SymbolOptions{Mode: EmitPaired})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 paired edges, got %d", len(edges))
	}

	comma := edges[0]
	if comma.Source != 0 || comma.Target != 1 || comma.Type != "modifier:left" {
		t.Errorf("comma edge = %+v, want Hello -> ',' as modifier:left", comma)
	}
	if comma.Weight != 1 {
		t.Errorf("comma edge weight = %v, want 1", comma.Weight)
	}

	bang := edges[1]
	if bang.Source != 2 || bang.Target != 3 || bang.Type != "modifier:emphasis" {
		t.Errorf("bang edge = %+v, want world -> '!' as modifier:emphasis", bang)
	}
	if bang.Meta.SourceToken != "world" || bang.Meta.TargetToken != "!" {
		t.Errorf("bang edge meta = %+v, want world/!", bang.Meta)
	}
}

func TestEmitSymbolEdgesModes(t *testing.T) {
	tokens, neighbors := helloWorldTokens()
	tests := []struct {
		mode      EmitMode
		wantTotal int
		wantSelf  int
	}{
		{EmitPaired, 2, 0},
		{EmitStandalone, 2, 2},
		{EmitBoth, 4, 2},
		{"", 4, 2}, // empty mode defaults to both
	}
	for _, tt := range tests {
		edges, err := EmitSymbolEdges(tokens, neighbors, SymbolOptions{Mode: tt.mode})
		if err != nil {
			t.Fatalf("mode %q: unexpected error: %v", tt.mode, err)
		}
		selfCount := 0
		for _, e := range edges {
			if e.Type == TypeSelfSymbol {
				if e.Source != e.Target {
					t.Errorf("mode %q: self edge %d -> %d is not a loop", tt.mode, e.Source, e.Target)
				}
				if e.Weight != 0.01 {
					t.Errorf("mode %q: self edge weight = %v, want 0.01", tt.mode, e.Weight)
				}
				selfCount++
			}
		}
		if len(edges) != tt.wantTotal || selfCount != tt.wantSelf {
			t.Errorf("mode %q: got %d edges (%d self), want %d (%d self)",
				tt.mode, len(edges), selfCount, tt.wantTotal, tt.wantSelf)
		}
	}
}

func TestEmitSymbolEdgesBindingPolicy(t *testing.T) {
	tokens := []common.Token{
		{Text: "(", Kind: common.TokenSymbol, Index: 0},
		{Text: "note", Kind: common.TokenWord, Index: 1},
		{Text: ")", Kind: common.TokenSymbol, Index: 2},
		{Text: "@", Kind: common.TokenSymbol, Index: 3},
		{Text: "tail", Kind: common.TokenWord, Index: 4},
	}
	neighbors := map[int]WordNeighbors{
		0: {Left: -1, Right: 1},
		2: {Left: 1, Right: 4},
		3: {Left: 1, Right: 4},
	}

	edges, err := EmitSymbolEdges(tokens, neighbors, SymbolOptions{Mode: EmitPaired, WeightScale: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 3 {
		t.Fatalf("expected 3 edges, got %d", len(edges))
	}

	open := edges[0]
	if open.Source != 0 || open.Target != 1 || open.Type != "modifier:right" || open.Weight != 0.5 {
		t.Errorf("opener edge = %+v, want '(' -> note at 0.5", open)
	}
	closer := edges[1]
	if closer.Source != 1 || closer.Target != 2 || closer.Type != "modifier:close" || closer.Weight != 0.5*0.9 {
		t.Errorf("closer edge = %+v, want note -> ')' at 0.45", closer)
	}
	other := edges[2]
	if other.Source != 1 || other.Target != 3 || other.Type != "modifier:other" || other.Weight != 0.5*0.8 {
		t.Errorf("other edge = %+v, want note -> '@' at 0.4", other)
	}
}

func TestEmitSymbolEdgesFallbackSide(t *testing.T) {
	tokens := []common.Token{
		{Text: ".", Kind: common.TokenSymbol, Index: 0},
		{Text: "after", Kind: common.TokenWord, Index: 1},
	}
	neighbors := map[int]WordNeighbors{0: {Left: -1, Right: 1}}

	edges, err := EmitSymbolEdges(tokens, neighbors, SymbolOptions{Mode: EmitPaired})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected fallback to the right word, got %d edges", len(edges))
	}
	if edges[0].Source != 1 || edges[0].Target != 0 {
		t.Errorf("fallback edge = %+v, want after -> '.'", edges[0])
	}
}

func TestEmitSymbolEdgesNoNeighbors(t *testing.T) {
	tokens := []common.Token{{Text: "!", Kind: common.TokenSymbol, Index: 0}}
	edges, err := EmitSymbolEdges(tokens, map[int]WordNeighbors{}, SymbolOptions{Mode: EmitPaired})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 0 {
		t.Errorf("symbol with no word neighbors produced %d edges, want 0", len(edges))
	}
}

func TestEmitSymbolEdgesRejectsBadScale(t *testing.T) {
	tokens, neighbors := helloWorldTokens()
	for _, scale := range []float64{-0.5, 1.5} {
		_, err := EmitSymbolEdges(tokens, neighbors, SymbolOptions{WeightScale: scale})
		var cerr *common.ContractError
		if !errors.As(err, &cerr) {
			t.Errorf("scale %v: expected contract error, got %v", scale, err)
		}
	}
}
