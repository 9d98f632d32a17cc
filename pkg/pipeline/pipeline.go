package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/family"
	"github.com/semlattice/lattice/pkg/graph"
	"github.com/semlattice/lattice/pkg/logger"
	"github.com/semlattice/lattice/pkg/telemetry"
	"github.com/semlattice/lattice/pkg/tokenizer"
)

// ProgressFunc receives stage completion updates; value is in [0,1].
type ProgressFunc func(stage string, value float64)

// Perf captures wall-clock timing for one run.
type Perf struct {
	TotalMS int64            `json:"totalMs"`
	StageMS map[string]int64 `json:"stageMs"`
}

// Result is the full output of one pipeline run.
type Result struct {
	RunID     string                  `json:"runId"`
	Graph     common.Graph            `json:"graph"`
	Summary   common.Summary          `json:"summary"`
	EdgeTypes map[string]int          `json:"edgeTypes"`
	Families  map[string]int          `json:"families"`
	Top       []telemetry.RankedEntry `json:"top"`
	Triangles []graph.Triangle        `json:"triangles,omitempty"`
	Record    telemetry.HistoryRecord `json:"record"`
	Perf      Perf                    `json:"perf"`
}

// NewRunnerParams holds dependencies for a Runner.
type NewRunnerParams struct {
	Tracker *telemetry.Tracker
}

// Runner executes construction runs sequentially. One Runner serves one
// worker; a run builds its whole graph from scratch, so no graph state is
// shared between runs. The telemetry tracker is the only cross-run state.
type Runner struct {
	tracker *telemetry.Tracker
}

func NewRunner(params NewRunnerParams) *Runner {
	tracker := params.Tracker
	if tracker == nil {
		tracker = telemetry.NewTracker()
	}
	return &Runner{tracker: tracker}
}

// Tracker exposes the runner's telemetry service for subscription and
// history reads.
func (r *Runner) Tracker() *telemetry.Tracker {
	return r.tracker
}

// Run executes the full construction pass: tokenize, adjacency, symbol
// edges, seed expansion, SKG expansion, prune, rank, telemetry. The cancel
// token is polled between stages only; a canceled run returns ErrCanceled
// with no partial result and emits no telemetry.
func (r *Runner) Run(runID, text string, opts Options, cancel *CancelToken, progress ProgressFunc) (*Result, error) {
	started := time.Now()
	perf := Perf{StageMS: make(map[string]int64)}
	report := func(stage string, value float64, stageStart time.Time) {
		perf.StageMS[stage] = time.Since(stageStart).Milliseconds()
		if progress != nil {
			progress(stage, value)
		}
	}

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart := time.Now()
	tokens := tokenizer.Split(text, tokenizer.Options{TokenizeSymbols: opts.tokenizeSymbols()})
	if len(tokens) == 0 {
		return nil, common.Violation("input", "text produced no tokens")
	}
	report("tokenize", 0.1, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	adjacency, err := graph.BuildAdjacency(tokens, opts.adjacencyConfig())
	if err != nil {
		return nil, fmt.Errorf("build adjacency: %w", err)
	}
	report("adjacency", 0.3, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	var symbolEdges []common.AdjacencyEdge
	if opts.tokenizeSymbols() {
		symbolEdges, err = graph.EmitSymbolEdges(tokens, tokenizer.WordNeighbors(tokens), graph.SymbolOptions{
			WeightScale: opts.SymbolWeightScale,
			Mode:        opts.SymbolEmitMode,
		})
		if err != nil {
			return nil, fmt.Errorf("emit symbol edges: %w", err)
		}
	}
	report("symbols", 0.45, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	g := assembleGraph(tokens, adjacency, symbolEdges)

	var triangles []graph.Triangle
	for _, seed := range opts.Seeds {
		if seed.SeedID == "" {
			return nil, common.Violation("seedId", "must not be empty")
		}
		res := graph.ExpandSeed(seed.SeedID, seed.Dimension, seed.Label, seed.Level)
		seedGraph := common.Graph{Nodes: res.Nodes, Edges: res.Edges}
		if !hasNode(g, seed.SeedID) {
			seedGraph.Nodes = append([]common.TokenNode{{
				Token: seed.SeedID,
				Kind:  "seed",
				Level: seed.Level,
			}}, seedGraph.Nodes...)
		}
		g = graph.MergeGraphs(g, seedGraph)
		triangles = append(triangles, res.Triangles...)
	}
	report("seed", 0.55, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	g, err = graph.ExpandSKG(g, opts.SkgDepth)
	if err != nil {
		return nil, fmt.Errorf("expand skg: %w", err)
	}
	report("skg", 0.7, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	g = graph.Prune(g, opts.pruneOptions())
	report("prune", 0.8, stageStart)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	top := rankNodes(&g, opts.topK())
	report("rank", 0.9, stageStart)

	summary := buildSummary(tokens, g, opts.includeSymbolInSummaries())
	histogram := edgeTypeHistogram(g.Edges)
	families := familyHistogram(g.Edges)

	if err := cancel.Err(); err != nil {
		return nil, err
	}
	stageStart = time.Now()
	entries := make([]telemetry.RankEntry, len(top))
	for i, e := range top {
		score := e.Score
		entries[i] = telemetry.RankEntry{Token: e.Token, Score: &score}
	}
	record := r.tracker.Emit(telemetry.Record{
		RunID:     runID,
		Metrics:   summary,
		EdgeTypes: histogram,
		Top:       entries,
	})
	report("telemetry", 1, stageStart)

	perf.TotalMS = time.Since(started).Milliseconds()
	logger.Info("[Pipeline] Run complete",
		"run_id", runID,
		"tokens", summary.TokenCount,
		"edges", summary.EdgeCount,
		"duration_ms", perf.TotalMS,
	)

	return &Result{
		RunID:     runID,
		Graph:     g,
		Summary:   summary,
		EdgeTypes: histogram,
		Families:  families,
		Top:       top,
		Triangles: triangles,
		Record:    record,
		Perf:      perf,
	}, nil
}

// assembleGraph lifts index-addressed edges into the string-keyed graph
// value. Node identity is the token text with first occurrence winning;
// edges between repeated tokens therefore collapse onto the first
// occurrence's node.
func assembleGraph(tokens []common.Token, structural, symbol []common.AdjacencyEdge) common.Graph {
	arena := graph.NewArena()
	for _, tok := range tokens {
		arena.AddNode(common.TokenNode{
			Token: tok.Text,
			Kind:  string(tok.Kind),
			Index: tok.Index,
		})
	}

	addEdges := func(edges []common.AdjacencyEdge) {
		for _, e := range edges {
			source := tokens[e.Source].Text
			target := tokens[e.Target].Text
			if source == target && e.Type != graph.TypeSelfSymbol {
				continue
			}
			arena.AddEdge(common.GraphEdge{
				Source: source,
				Target: target,
				Type:   e.Type,
				Weight: e.Weight,
				Level:  e.Meta.Level,
			})
		}
	}
	addEdges(structural)
	addEdges(symbol)
	return arena.Graph()
}

func hasNode(g common.Graph, token string) bool {
	for _, n := range g.Nodes {
		if n.Token == token {
			return true
		}
	}
	return false
}

func buildSummary(tokens []common.Token, g common.Graph, includeSymbols bool) common.Summary {
	s := tokenizer.Summarize(tokens)
	s.EdgeCount = len(g.Edges)
	for _, e := range g.Edges {
		s.WeightSum += e.Weight
		if strings.HasPrefix(e.Type, "modifier:") {
			s.SymbolEdgeCount++
		}
	}
	if !includeSymbols {
		s.TokenCount = s.WordCount
		s.SymbolCount = 0
		s.SymbolDensity = 0
		s.SymbolEdgeCount = 0
	}
	return s
}

func edgeTypeHistogram(edges []common.GraphEdge) map[string]int {
	histogram := make(map[string]int, 8)
	for _, e := range edges {
		histogram[e.Type]++
	}
	return histogram
}

func familyHistogram(edges []common.GraphEdge) map[string]int {
	histogram := make(map[string]int, 8)
	for _, e := range edges {
		histogram[string(family.Classify(e.Type))]++
	}
	return histogram
}
