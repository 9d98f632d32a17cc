package tokenizer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/graph"
)

// Options controls the split pass. With TokenizeSymbols disabled punctuation
// is discarded entirely and only word tokens appear in the output.
type Options struct {
	TokenizeSymbols bool
}

// Split breaks text into an ordered token stream with stable indices
// 0..N-1. Words are maximal runs of letters, digits, and connecting
// apostrophes; every other non-space rune becomes a single-character symbol
// token. Indices are assigned after filtering, so they are always dense.
func Split(text string, opts Options) []common.Token {
	var tokens []common.Token
	appendToken := func(text string, kind common.TokenKind) {
		tokens = append(tokens, common.Token{
			Text:  text,
			Kind:  kind,
			Index: len(tokens),
		})
	}

	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			appendToken(word.String(), common.TokenWord)
			word.Reset()
		}
	}

	runes := []rune(text)
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			word.WriteRune(r)
		case (r == '\'' || r == '’') && word.Len() > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			// Internal apostrophe (don't, l'eau) stays inside the word.
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			if opts.TokenizeSymbols {
				appendToken(string(r), common.TokenSymbol)
			}
		}
	}
	flush()
	return tokens
}

// WordNeighbors computes, for each symbol token, the index of the nearest
// word token on each side (-1 when none exists). Word tokens do not appear
// in the result.
func WordNeighbors(tokens []common.Token) map[int]graph.WordNeighbors {
	neighbors := make(map[int]graph.WordNeighbors)

	lastWord := -1
	for _, tok := range tokens {
		if tok.Kind == common.TokenWord {
			lastWord = tok.Index
			continue
		}
		neighbors[tok.Index] = graph.WordNeighbors{Left: lastWord, Right: -1}
	}

	nextWord := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		if tok.Kind == common.TokenWord {
			nextWord = tok.Index
			continue
		}
		nb := neighbors[tok.Index]
		nb.Right = nextWord
		neighbors[tok.Index] = nb
	}
	return neighbors
}

// Summarize counts the stream. Symbol density is symbols over total tokens;
// an empty stream has density 0.
func Summarize(tokens []common.Token) common.Summary {
	s := common.Summary{TokenCount: len(tokens)}
	for _, tok := range tokens {
		switch tok.Kind {
		case common.TokenWord:
			s.WordCount++
		case common.TokenSymbol:
			s.SymbolCount++
		}
	}
	if s.TokenCount > 0 {
		s.SymbolDensity = float64(s.SymbolCount) / float64(s.TokenCount)
	}
	return s
}

// PromptTokens counts BPE tokens for budgeting text against model context
// windows. The o200k_base encoding matches current OpenAI-family models.
func PromptTokens(text string) (int, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return 0, fmt.Errorf("get encoding: %w", err)
	}
	return len(enc.Encode(text, nil, nil)), nil
}
