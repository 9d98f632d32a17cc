package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/logger"
)

// Shard is one AA..ZZ bucket of the 26x26 layout.
type Shard struct {
	SchemaVersion int                    `json:"schema_version"`
	UpdatedAt     string                 `json:"updated_at"`
	Tokens        map[string]TokenRecord `json:"tokens"`
}

func emptyShard() Shard {
	return Shard{
		SchemaVersion: schemaVersion,
		UpdatedAt:     nowISO(),
		Tokens:        make(map[string]TokenRecord),
	}
}

// BigramBucket maps a token to its (folder letter, shard bigram) pair.
// Non-alphabetic characters in the first two positions fall back to the
// given letter, so "3d" with fallback 'Z' lands in Z/ZD.
func BigramBucket(token string, fallback rune) (string, string) {
	norm := []rune(NormalizeToken(token))

	pick := func(i int) rune {
		if i < len(norm) {
			r := norm[i]
			switch {
			case r >= 'a' && r <= 'z':
				return r - 'a' + 'A'
			case r >= 'A' && r <= 'Z':
				return r
			}
		}
		return fallback
	}

	first := pick(0)
	second := pick(1)
	return string(first), string(first) + string(second)
}

// ShardWriter maintains an on-disk bigram shard layout rooted at Root.
type ShardWriter struct {
	Root     string
	Fallback rune
}

func NewShardWriter(root string) *ShardWriter {
	return &ShardWriter{Root: root, Fallback: 'Z'}
}

// EnsureLayout creates the canonical A..Z folder tree with empty shards for
// every bigram that does not exist yet.
func (w *ShardWriter) EnsureLayout() error {
	for a := 'A'; a <= 'Z'; a++ {
		dir := filepath.Join(w.Root, string(a))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create shard dir %s: %w", dir, err)
		}
		for b := 'A'; b <= 'Z'; b++ {
			path := filepath.Join(dir, string(a)+string(b)+".json")
			if _, err := os.Stat(path); err == nil {
				continue
			}
			if err := atomicWriteJSON(path, emptyShard()); err != nil {
				return err
			}
		}
	}
	return nil
}

// Merge folds the graph's token records into the shard layout. Each shard is
// read, merged with the incoming tokens (heaviest edge per neighbor wins),
// and rewritten atomically. Shards without incoming tokens are untouched.
func (w *ShardWriter) Merge(g common.Graph) error {
	records := Relationships(g)

	pending := make(map[string]map[string]TokenRecord)
	for token, rec := range records {
		norm := NormalizeToken(token)
		if norm == "" {
			continue
		}
		_, bigram := BigramBucket(norm, w.fallback())
		if pending[bigram] == nil {
			pending[bigram] = make(map[string]TokenRecord)
		}
		pending[bigram][norm] = rec
	}

	for bigram, tokens := range pending {
		path := filepath.Join(w.Root, bigram[:1], bigram+".json")
		shard, err := w.loadShard(path)
		if err != nil {
			return err
		}
		for token, rec := range tokens {
			shard.Tokens[token] = mergeTokenRecords(shard.Tokens[token], rec)
		}
		shard.UpdatedAt = nowISO()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create shard dir: %w", err)
		}
		if err := atomicWriteJSON(path, shard); err != nil {
			return err
		}
	}

	logger.Info("[Export] Merged tokens into shards", "tokens", len(records), "shards", len(pending))
	return nil
}

func (w *ShardWriter) loadShard(path string) (Shard, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return emptyShard(), nil
	}
	if err != nil {
		return Shard{}, fmt.Errorf("read shard %s: %w", path, err)
	}
	shard := emptyShard()
	if err := json.Unmarshal(data, &shard); err != nil {
		return Shard{}, fmt.Errorf("parse shard %s: %w", path, err)
	}
	if shard.Tokens == nil {
		shard.Tokens = make(map[string]TokenRecord)
	}
	return shard, nil
}

func (w *ShardWriter) fallback() rune {
	if w.Fallback == 0 {
		return 'Z'
	}
	return w.Fallback
}
