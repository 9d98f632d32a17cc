package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/logger"
)

// ChunkTokenEntry is one exported token inside a chunk file.
type ChunkTokenEntry struct {
	Token         string                    `json:"token"`
	Kind          string                    `json:"kind,omitempty"`
	Score         float64                   `json:"score,omitempty"`
	Relationships map[string][]NeighborEdge `json:"relationships,omitempty"`
}

// Chunk is a prefix-grouped token file.
type Chunk struct {
	Prefix     string            `json:"prefix"`
	TokenCount int               `json:"token_count"`
	Tokens     []ChunkTokenEntry `json:"tokens"`
}

// ChunkEntry is the manifest line for one chunk file.
type ChunkEntry struct {
	Prefix     string `json:"prefix"`
	Href       string `json:"href"`
	TokenCount int    `json:"token_count"`
}

// Metadata is the chunk manifest written next to the chunks directory.
type Metadata struct {
	Version            string       `json:"version"`
	GeneratedAt        string       `json:"generated_at"`
	Source             string       `json:"source"`
	TotalTokens        int          `json:"total_tokens"`
	TotalRelationships int          `json:"total_relationships"`
	ChunkPrefixLength  int          `json:"chunk_prefix_length"`
	Chunks             []ChunkEntry `json:"chunks"`
	TokenIndexHref     string       `json:"token_index_href"`
}

type tokenIndex struct {
	Tokens []string `json:"tokens"`
}

// PrefixForToken returns the single-character chunk prefix: lowercase ASCII
// letter, digit, or "_" for everything else. Symbol tokens are routed to the
// dedicated symbol bucket by the writer, not here.
func PrefixForToken(token string) string {
	if token == "" {
		return "_"
	}
	first := token[0]
	switch {
	case first >= 'a' && first <= 'z':
		return string(first)
	case first >= 'A' && first <= 'Z':
		return string(first + 'a' - 'A')
	case first >= '0' && first <= '9':
		return string(first)
	default:
		return "_"
	}
}

// WriteChunks splits the graph into prefix chunk files under dir/chunks and
// writes metadata.json plus a flat token index. Existing chunk files are
// removed first so the output is a deterministic function of the graph. The
// source string is recorded in the manifest. Returns the number of chunk
// files written.
func WriteChunks(g common.Graph, dir, source string) (int, error) {
	chunksDir := filepath.Join(dir, "chunks")
	if err := clearChunks(chunksDir); err != nil {
		return 0, err
	}

	records := Relationships(g)
	grouped := make(map[string][]ChunkTokenEntry)
	for _, n := range g.Nodes {
		prefix := PrefixForToken(n.Token)
		if n.Kind == "symbol" {
			prefix = SymbolBucket
		}
		grouped[prefix] = append(grouped[prefix], ChunkTokenEntry{
			Token:         n.Token,
			Kind:          n.Kind,
			Score:         n.RawScore,
			Relationships: records[n.Token].Relationships,
		})
	}

	prefixes := make([]string, 0, len(grouped))
	for prefix := range grouped {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var entries []ChunkEntry
	relationships := 0
	for _, prefix := range prefixes {
		tokens := grouped[prefix]
		sort.Slice(tokens, func(a, b int) bool { return tokens[a].Token < tokens[b].Token })
		for _, t := range tokens {
			for _, list := range t.Relationships {
				relationships += len(list)
			}
		}

		path := filepath.Join(chunksDir, prefix+".json")
		chunk := Chunk{Prefix: prefix, TokenCount: len(tokens), Tokens: tokens}
		if err := atomicWriteJSON(path, chunk); err != nil {
			return 0, err
		}
		entries = append(entries, ChunkEntry{
			Prefix:     prefix,
			Href:       "chunks/" + prefix + ".json",
			TokenCount: len(tokens),
		})
	}

	meta := Metadata{
		Version:            "2.1",
		GeneratedAt:        nowISO(),
		Source:             source,
		TotalTokens:        len(g.Nodes),
		TotalRelationships: relationships,
		ChunkPrefixLength:  1,
		Chunks:             entries,
		TokenIndexHref:     "token-index.json",
	}
	if err := atomicWriteJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return 0, err
	}

	index := tokenIndex{Tokens: make([]string, 0, len(g.Nodes))}
	for _, n := range g.Nodes {
		index.Tokens = append(index.Tokens, n.Token)
	}
	sort.Slice(index.Tokens, func(a, b int) bool {
		return strings.ToLower(index.Tokens[a]) < strings.ToLower(index.Tokens[b])
	})
	if err := atomicWriteJSON(filepath.Join(dir, "token-index.json"), index); err != nil {
		return 0, err
	}

	logger.Info("[Export] Wrote chunk files", "dir", chunksDir, "chunks", len(entries), "tokens", len(g.Nodes))
	return len(entries), nil
}

func clearChunks(chunksDir string) error {
	if err := os.MkdirAll(chunksDir, 0o755); err != nil {
		return fmt.Errorf("create chunks dir: %w", err)
	}
	stale, err := filepath.Glob(filepath.Join(chunksDir, "*.json"))
	if err != nil {
		return fmt.Errorf("list chunks dir: %w", err)
	}
	for _, path := range stale {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove stale chunk %s: %w", path, err)
		}
	}
	return nil
}
