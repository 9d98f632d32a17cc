// Package export persists constructed graphs as a prefix-chunked JSON
// layout plus 26x26 bigram shards suitable for static hosting and
// incremental merging.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/semlattice/lattice/pkg/common"
)

const schemaVersion = 1

// SymbolBucket is the reserved chunk prefix for punctuation tokens.
const SymbolBucket = "symbols"

var whitespaceRun = regexp.MustCompile(`\s+`)

// NeighborEdge is one adjacency entry under a relationship type.
type NeighborEdge struct {
	Token  string  `json:"token"`
	Weight float64 `json:"weight"`
}

// TokenRecord is the exported per-token payload: adjacency lists keyed by
// relationship type, plus the last cache timestamp.
type TokenRecord struct {
	Relationships map[string][]NeighborEdge `json:"relationships"`
	CachedAt      string                    `json:"cached_at,omitempty"`
}

// NormalizeToken trims the token and collapses internal whitespace runs to a
// single space.
func NormalizeToken(token string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(token), " ")
}

// nowISO returns a UTC second-precision ISO-8601 timestamp.
func nowISO() string {
	return time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}

// Relationships flattens a graph into per-token records. Every edge
// contributes to both endpoints' adjacency lists under its type; duplicate
// neighbors keep the heaviest weight. Lists are sorted by descending weight,
// then token, so output is stable.
func Relationships(g common.Graph) map[string]TokenRecord {
	cachedAt := nowISO()
	records := make(map[string]TokenRecord, len(g.Nodes))

	ensure := func(token string) TokenRecord {
		rec, ok := records[token]
		if !ok {
			rec = TokenRecord{
				Relationships: make(map[string][]NeighborEdge),
				CachedAt:      cachedAt,
			}
			records[token] = rec
		}
		return rec
	}

	for _, n := range g.Nodes {
		ensure(n.Token)
	}
	for _, e := range g.Edges {
		if e.Source == e.Target {
			continue
		}
		src := ensure(e.Source)
		src.Relationships[e.Type] = append(src.Relationships[e.Type], NeighborEdge{Token: e.Target, Weight: e.Weight})
		dst := ensure(e.Target)
		dst.Relationships[e.Type] = append(dst.Relationships[e.Type], NeighborEdge{Token: e.Source, Weight: e.Weight})
	}

	for _, rec := range records {
		for relType, list := range rec.Relationships {
			rec.Relationships[relType] = mergeNeighborLists(nil, list)
		}
	}
	return records
}

// mergeNeighborLists unions two adjacency lists keyed by neighbor token,
// keeping the maximum weight per neighbor. The result is sorted by
// descending weight with the token string breaking ties.
func mergeNeighborLists(dst, src []NeighborEdge) []NeighborEdge {
	byToken := make(map[string]float64, len(dst)+len(src))
	for _, e := range dst {
		byToken[e.Token] = e.Weight
	}
	for _, e := range src {
		if e.Token == "" {
			continue
		}
		if prev, ok := byToken[e.Token]; !ok || e.Weight > prev {
			byToken[e.Token] = e.Weight
		}
	}

	out := make([]NeighborEdge, 0, len(byToken))
	for token, weight := range byToken {
		out = append(out, NeighborEdge{Token: token, Weight: weight})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Weight != out[b].Weight {
			return out[a].Weight > out[b].Weight
		}
		return out[a].Token < out[b].Token
	})
	return out
}

// mergeTokenRecords combines two token payloads, unioning relationship types
// and keeping the heaviest edge per neighbor. The latest cached_at wins.
func mergeTokenRecords(dst, src TokenRecord) TokenRecord {
	out := TokenRecord{Relationships: make(map[string][]NeighborEdge)}
	for relType, list := range dst.Relationships {
		out.Relationships[relType] = mergeNeighborLists(nil, list)
	}
	for relType, list := range src.Relationships {
		out.Relationships[relType] = mergeNeighborLists(out.Relationships[relType], list)
	}
	out.CachedAt = dst.CachedAt
	if src.CachedAt > out.CachedAt {
		out.CachedAt = src.CachedAt
	}
	return out
}

// atomicWriteJSON writes v as indented JSON through a temp file and rename,
// so readers never observe a partial file.
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
