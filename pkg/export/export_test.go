package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/semlattice/lattice/pkg/common"
)

func TestNormalizeToken(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello  ", "hello"},
		{"two\t words", "two words"},
		{"a  b   c", "a b c"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeToken(tt.in); got != tt.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBigramBucket(t *testing.T) {
	tests := []struct {
		token  string
		folder string
		bigram string
	}{
		{"hello", "H", "HE"},
		{"Apple", "A", "AP"},
		{"a", "A", "AZ"},
		{"3d", "Z", "ZD"},
		{"--", "Z", "ZZ"},
		{"", "Z", "ZZ"},
	}
	for _, tt := range tests {
		folder, bigram := BigramBucket(tt.token, 'Z')
		if folder != tt.folder || bigram != tt.bigram {
			t.Errorf("BigramBucket(%q) = (%q, %q), want (%q, %q)", tt.token, folder, bigram, tt.folder, tt.bigram)
		}
	}
}

func TestMergeNeighborListsMaxWeightAndOrder(t *testing.T) {
	dst := []NeighborEdge{{Token: "b", Weight: 0.3}, {Token: "a", Weight: 0.5}}
	src := []NeighborEdge{{Token: "b", Weight: 0.9}, {Token: "c", Weight: 0.5}, {Token: "", Weight: 1}}

	got := mergeNeighborLists(dst, src)
	want := []NeighborEdge{
		{Token: "b", Weight: 0.9},
		{Token: "a", Weight: 0.5},
		{Token: "c", Weight: 0.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestPrefixForToken(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hello", "h"},
		{"World", "w"},
		{"3d", "3"},
		{"->", "_"},
		{"", "_"},
		{"éclair", "_"},
	}
	for _, tt := range tests {
		if got := PrefixForToken(tt.in); got != tt.want {
			t.Errorf("PrefixForToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func sampleGraph() common.Graph {
	return common.Graph{
		Nodes: []common.TokenNode{
			{Token: "alpha", Kind: "word", RawScore: 2},
			{Token: "beta", Kind: "word", RawScore: 1},
			{Token: "!", Kind: "symbol"},
		},
		Edges: []common.GraphEdge{
			{Source: "alpha", Target: "beta", Type: "adjacency:base", Weight: 1},
			{Source: "beta", Target: "!", Type: "modifier:emphasis", Weight: 0.8},
		},
	}
}

func TestRelationshipsBidirectional(t *testing.T) {
	records := Relationships(sampleGraph())

	alpha := records["alpha"]
	if len(alpha.Relationships["adjacency:base"]) != 1 || alpha.Relationships["adjacency:base"][0].Token != "beta" {
		t.Errorf("alpha relationships = %+v", alpha.Relationships)
	}
	beta := records["beta"]
	if len(beta.Relationships["adjacency:base"]) != 1 || beta.Relationships["adjacency:base"][0].Token != "alpha" {
		t.Errorf("beta should see the reverse direction: %+v", beta.Relationships)
	}
	if len(beta.Relationships["modifier:emphasis"]) != 1 {
		t.Errorf("beta should carry the symbol edge: %+v", beta.Relationships)
	}
}

func TestWriteChunks(t *testing.T) {
	dir := t.TempDir()
	count, err := WriteChunks(sampleGraph(), dir, "test-run")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a.json, b.json, symbols.json
	if count != 3 {
		t.Fatalf("wrote %d chunks, want 3", count)
	}

	var chunk Chunk
	readJSON(t, filepath.Join(dir, "chunks", "a.json"), &chunk)
	if chunk.Prefix != "a" || chunk.TokenCount != 1 || chunk.Tokens[0].Token != "alpha" {
		t.Errorf("a chunk = %+v", chunk)
	}

	var sym Chunk
	readJSON(t, filepath.Join(dir, "chunks", SymbolBucket+".json"), &sym)
	if sym.TokenCount != 1 || sym.Tokens[0].Token != "!" {
		t.Errorf("symbol chunk = %+v", sym)
	}

	var meta Metadata
	readJSON(t, filepath.Join(dir, "metadata.json"), &meta)
	if meta.TotalTokens != 3 || meta.ChunkPrefixLength != 1 || len(meta.Chunks) != 3 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Source != "test-run" {
		t.Errorf("source = %q, want test-run", meta.Source)
	}

	var index tokenIndex
	readJSON(t, filepath.Join(dir, "token-index.json"), &index)
	if len(index.Tokens) != 3 {
		t.Errorf("token index = %+v", index)
	}
}

func TestWriteChunksClearsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	chunksDir := filepath.Join(dir, "chunks")
	if err := os.MkdirAll(chunksDir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(chunksDir, "zz.json")
	if err := os.WriteFile(stale, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := WriteChunks(sampleGraph(), dir, "run"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale chunk file should have been removed")
	}
}

func TestShardWriterMerge(t *testing.T) {
	dir := t.TempDir()
	writer := NewShardWriter(dir)

	if err := writer.Merge(sampleGraph()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var shard Shard
	readJSON(t, filepath.Join(dir, "A", "AL.json"), &shard)
	rec, ok := shard.Tokens["alpha"]
	if !ok {
		t.Fatalf("alpha missing from shard: %+v", shard.Tokens)
	}
	if rec.Relationships["adjacency:base"][0].Weight != 1 {
		t.Errorf("alpha record = %+v", rec)
	}

	// Second merge with a heavier edge must win; a lighter one must not.
	update := common.Graph{
		Nodes: []common.TokenNode{{Token: "alpha"}, {Token: "beta"}},
		Edges: []common.GraphEdge{
			{Source: "alpha", Target: "beta", Type: "adjacency:base", Weight: 0.2},
		},
	}
	if err := writer.Merge(update); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	readJSON(t, filepath.Join(dir, "A", "AL.json"), &shard)
	if got := shard.Tokens["alpha"].Relationships["adjacency:base"][0].Weight; got != 1 {
		t.Errorf("lighter re-merge overwrote weight: got %v, want 1", got)
	}
}

func TestEnsureLayout(t *testing.T) {
	dir := t.TempDir()
	writer := NewShardWriter(dir)
	if err := writer.EnsureLayout(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var shard Shard
	readJSON(t, filepath.Join(dir, "Q", "QX.json"), &shard)
	if shard.SchemaVersion != 1 || len(shard.Tokens) != 0 {
		t.Errorf("empty shard = %+v", shard)
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
}
