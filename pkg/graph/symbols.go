package graph

import (
	"github.com/semlattice/lattice/pkg/common"
)

// SymbolClass buckets a punctuation token by how it binds to neighboring
// words. Classification is a static, case-sensitive character lookup.
type SymbolClass string

const (
	SymbolEmphasis  SymbolClass = "emphasis"
	SymbolQuery     SymbolClass = "query"
	SymbolLeftBind  SymbolClass = "left"
	SymbolRightBind SymbolClass = "right"
	SymbolCloseBind SymbolClass = "close"
	SymbolOther     SymbolClass = "other"
)

// EmitMode selects which symbol edges are produced.
type EmitMode string

const (
	EmitPaired     EmitMode = "paired"
	EmitStandalone EmitMode = "standalone"
	EmitBoth       EmitMode = "both"
)

// WordNeighbors gives, for one symbol token, the index of the nearest word
// token on each side (-1 when there is none).
type WordNeighbors struct {
	Left  int
	Right int
}

// SymbolOptions configures the symbol edge pass.
type SymbolOptions struct {
	WeightScale float64 // (0,1]; 0 means 1
	Mode        EmitMode
}

var symbolClasses = map[rune]SymbolClass{
	'!': SymbolEmphasis,
	'?': SymbolQuery,
	'.': SymbolLeftBind,
	',': SymbolLeftBind,
	':': SymbolLeftBind,
	';': SymbolLeftBind,
	'(': SymbolRightBind,
	'[': SymbolRightBind,
	'{': SymbolRightBind,
	'«': SymbolRightBind,
	'“': SymbolRightBind,
	'‘': SymbolRightBind,
	')': SymbolCloseBind,
	']': SymbolCloseBind,
	'}': SymbolCloseBind,
	'»': SymbolCloseBind,
	'”': SymbolCloseBind,
	'’': SymbolCloseBind,
}

// ClassifySymbol returns the binding class for a symbol token's text. Only
// single-character symbols match the table; everything else is "other".
func ClassifySymbol(text string) SymbolClass {
	runes := []rune(text)
	if len(runes) != 1 {
		return SymbolOther
	}
	if class, ok := symbolClasses[runes[0]]; ok {
		return class
	}
	return SymbolOther
}

// EmitSymbolEdges binds each symbol token to a neighboring word token and,
// depending on the mode, emits a self edge recording the symbol's bare
// presence. Each symbol produces at most one relation edge and at most one
// self edge; a symbol with no word neighbor on either side produces no
// relation edge.
func EmitSymbolEdges(
	tokens []common.Token,
	neighbors map[int]WordNeighbors,
	opts SymbolOptions,
) ([]common.AdjacencyEdge, error) {
	scale := opts.WeightScale
	if scale == 0 {
		scale = 1
	}
	if scale <= 0 || scale > 1 {
		return nil, common.Violation("symbolWeightScale", "must be in (0,1], got %v", scale)
	}
	mode := opts.Mode
	if mode == "" {
		mode = EmitBoth
	}

	var edges []common.AdjacencyEdge
	for _, tok := range tokens {
		if tok.Kind != common.TokenSymbol {
			continue
		}
		nb, ok := neighbors[tok.Index]
		if !ok {
			nb = WordNeighbors{Left: -1, Right: -1}
		}

		if mode == EmitPaired || mode == EmitBoth {
			if e, bound := bindSymbol(tokens, tok, nb, scale); bound {
				edges = append(edges, e)
			}
		}
		if mode == EmitStandalone || mode == EmitBoth {
			edges = append(edges, common.AdjacencyEdge{
				Source: tok.Index,
				Target: tok.Index,
				Type:   TypeSelfSymbol,
				Weight: 0.01,
				Meta: common.EdgeMeta{
					SourceToken: tok.Text,
					TargetToken: tok.Text,
					ViaIndex:    -1,
				},
			})
		}
	}
	return edges, nil
}

// bindSymbol applies the binding policy for one symbol token. Emphasis,
// query, sentence punctuation, and closers attach backward; openers attach
// forward; anything else takes whichever word neighbor exists, preferring
// the left. When the preferred side has no word the other side is used.
func bindSymbol(
	tokens []common.Token,
	sym common.Token,
	nb WordNeighbors,
	scale float64,
) (common.AdjacencyEdge, bool) {
	if nb.Left < 0 && nb.Right < 0 {
		return common.AdjacencyEdge{}, false
	}

	class := ClassifySymbol(sym.Text)
	edgeType := "modifier:" + string(class)
	weight := scale
	wordFirst := true // word -> symbol
	word := nb.Left

	switch class {
	case SymbolEmphasis, SymbolQuery, SymbolLeftBind:
		word = nb.Left
	case SymbolRightBind:
		word = nb.Right
		wordFirst = false // symbol -> word
	case SymbolCloseBind:
		word = nb.Left
		weight = scale * 0.9
	default:
		word = nb.Left
		weight = scale * 0.8
	}
	if word < 0 {
		if wordFirst {
			word = nb.Right
		} else {
			word = nb.Left
			wordFirst = true
		}
	}
	if word < 0 {
		return common.AdjacencyEdge{}, false
	}

	source, target := word, sym.Index
	if !wordFirst {
		source, target = sym.Index, word
	}
	span := source - target
	if span < 0 {
		span = -span
	}
	return common.AdjacencyEdge{
		Source: source,
		Target: target,
		Type:   edgeType,
		Weight: weight,
		Meta: common.EdgeMeta{
			Span:        span,
			SourceToken: tokens[source].Text,
			TargetToken: tokens[target].Text,
			ViaIndex:    -1,
		},
	}, true
}
