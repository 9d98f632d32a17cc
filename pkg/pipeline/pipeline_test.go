package pipeline

import (
	"errors"
	"testing"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/graph"
	"github.com/semlattice/lattice/pkg/telemetry"
)

func TestRunHelloWorld(t *testing.T) {
	runner := NewRunner(NewRunnerParams{})
	res, err := runner.Run("r1", "Hello, world!", Options{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := res.Summary
	if s.TokenCount != 4 || s.WordCount != 2 || s.SymbolCount != 2 {
		t.Errorf("counts = %d/%d/%d, want 4/2/2", s.TokenCount, s.WordCount, s.SymbolCount)
	}
	if s.SymbolEdgeCount != 2 {
		t.Errorf("symbolEdgeCount = %d, want 2", s.SymbolEdgeCount)
	}
	if s.EdgeCount != len(res.Graph.Edges) {
		t.Errorf("summary edge count %d != graph edge count %d", s.EdgeCount, len(res.Graph.Edges))
	}

	if res.EdgeTypes[graph.TypeAdjacencyBase] == 0 {
		t.Error("expected base adjacency edges in histogram")
	}
	if res.EdgeTypes["modifier:left"] != 1 || res.EdgeTypes["modifier:emphasis"] != 1 {
		t.Errorf("symbol histogram wrong: %v", res.EdgeTypes)
	}

	if res.Families["communicative"] != 2 {
		t.Errorf("family histogram wrong: %v", res.Families)
	}
	total := 0
	for _, n := range res.Families {
		total += n
	}
	if total != len(res.Graph.Edges) {
		t.Errorf("family histogram covers %d edges, want %d", total, len(res.Graph.Edges))
	}

	if len(res.Top) == 0 {
		t.Fatal("expected ranked entries")
	}
	for i := 1; i < len(res.Top); i++ {
		if res.Top[i].Score > res.Top[i-1].Score {
			t.Errorf("ranking not descending at %d: %+v", i, res.Top)
		}
	}

	history := runner.Tracker().History()
	if len(history) != 1 || history[0].RunID != "r1" {
		t.Errorf("telemetry history = %+v, want one r1 record", history)
	}
}

func TestRunEmptyInputIsContractViolation(t *testing.T) {
	runner := NewRunner(NewRunnerParams{})
	_, err := runner.Run("r1", "   ", Options{}, nil, nil)
	var cerr *common.ContractError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected contract error, got %v", err)
	}
	if len(runner.Tracker().History()) != 0 {
		t.Error("failed run must not emit telemetry")
	}
}

func TestRunCancellationBetweenStages(t *testing.T) {
	runner := NewRunner(NewRunnerParams{})
	cancel := NewCancelToken()

	var stages []string
	progress := func(stage string, value float64) {
		stages = append(stages, stage)
		if stage == "adjacency" {
			cancel.Cancel()
		}
	}

	_, err := runner.Run("r1", "one two three four five", Options{}, cancel, progress)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}

	// The stage that set the flag completes; the next boundary aborts.
	want := []string{"tokenize", "adjacency"}
	if len(stages) != len(want) || stages[0] != want[0] || stages[1] != want[1] {
		t.Errorf("stages run = %v, want %v", stages, want)
	}
	if len(runner.Tracker().History()) != 0 {
		t.Error("canceled run must not emit telemetry")
	}
}

func TestRunPreCanceledToken(t *testing.T) {
	runner := NewRunner(NewRunnerParams{})
	cancel := NewCancelToken()
	cancel.Cancel()
	if _, err := runner.Run("r1", "a b", Options{}, cancel, nil); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	opts := Options{SkgDepth: 1}

	first, err := NewRunner(NewRunnerParams{}).Run("r1", text, opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := NewRunner(NewRunnerParams{}).Run("r1", text, opts, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(first.Graph.Edges) != len(second.Graph.Edges) {
		t.Fatalf("edge counts differ: %d vs %d", len(first.Graph.Edges), len(second.Graph.Edges))
	}
	for i := range first.Graph.Edges {
		if first.Graph.Edges[i] != second.Graph.Edges[i] {
			t.Errorf("edge %d differs: %+v vs %+v", i, first.Graph.Edges[i], second.Graph.Edges[i])
		}
	}
	for i := range first.Top {
		if first.Top[i] != second.Top[i] {
			t.Errorf("rank %d differs: %+v vs %+v", i, first.Top[i], second.Top[i])
		}
	}
}

func TestRunWithSeedsAndSkg(t *testing.T) {
	runner := NewRunner(NewRunnerParams{})
	res, err := runner.Run("r1", "alpha beta", Options{
		Seeds:    []SeedRequest{{SeedID: "alpha", Dimension: 8}},
		SkgDepth: 1,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Triangles) != 3 {
		t.Errorf("got %d triangles, want 3", len(res.Triangles))
	}
	if res.EdgeTypes["seed-expansion"] == 0 || res.EdgeTypes["seed-expansion:lateral"] == 0 {
		t.Errorf("seed edges missing from histogram: %v", res.EdgeTypes)
	}
	if res.EdgeTypes[graph.TypeSkgBase] == 0 {
		t.Errorf("skg edges missing from histogram: %v", res.EdgeTypes)
	}

	found := false
	for _, n := range res.Graph.Nodes {
		if n.Kind == "concept" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected emergent concept nodes in final graph")
	}
}

func TestRunSymbolModesAndSummaryToggle(t *testing.T) {
	off := false
	runner := NewRunner(NewRunnerParams{})
	res, err := runner.Run("r1", "Hello, world!", Options{
		SymbolEmitMode:           graph.EmitStandalone,
		IncludeSymbolInSummaries: &off,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Summary.SymbolCount != 0 || res.Summary.SymbolDensity != 0 || res.Summary.SymbolEdgeCount != 0 {
		t.Errorf("symbol metrics should be suppressed: %+v", res.Summary)
	}
	if res.Summary.TokenCount != res.Summary.WordCount {
		t.Errorf("token count should collapse to word count, got %+v", res.Summary)
	}
	if res.EdgeTypes[graph.TypeSelfSymbol] != 2 {
		t.Errorf("standalone mode should keep self edges in the graph: %v", res.EdgeTypes)
	}
}

func TestRunSharedTrackerAccumulatesDrift(t *testing.T) {
	tracker := telemetry.NewTracker()
	runner := NewRunner(NewRunnerParams{Tracker: tracker})

	if _, err := runner.Run("r1", "alpha beta gamma", Options{}, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := runner.Run("r2", "beta gamma delta", Options{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entered := map[string]bool{}
	for _, tok := range res.Record.Drift.Entered {
		entered[tok] = true
	}
	if !entered["delta"] {
		t.Errorf("expected delta to enter, drift = %+v", res.Record.Drift)
	}
	if len(tracker.History()) != 2 {
		t.Errorf("history length = %d, want 2", len(tracker.History()))
	}
}
