package queue

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/telemetry"
)

func TestRegistryCancelFlipsToken(t *testing.T) {
	registry := NewRegistry()
	token := registry.Register("run_a")

	if token.Canceled() {
		t.Fatal("fresh token should not be canceled")
	}
	if !registry.Cancel("run_a") {
		t.Fatal("Cancel should find the registered request")
	}
	if !token.Canceled() {
		t.Error("token should be canceled after registry cancel")
	}
}

func TestRegistryCancelUnknownRequest(t *testing.T) {
	registry := NewRegistry()
	if registry.Cancel("run_missing") {
		t.Error("Cancel should miss for unregistered requests")
	}
}

func TestRegistryRemove(t *testing.T) {
	registry := NewRegistry()
	registry.Register("run_a")
	registry.Remove("run_a")
	if registry.Cancel("run_a") {
		t.Error("removed request should no longer be cancellable")
	}
}

func TestTelemetryRowSplitsRecord(t *testing.T) {
	recordedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := telemetry.HistoryRecord{
		RunID:      "run_a",
		RecordedAt: recordedAt,
		Metrics:    common.Summary{TokenCount: 4, EdgeCount: 2},
		EdgeTypes:  map[string]int{"adjacency:base": 2},
		Top:        []telemetry.RankedEntry{{Token: "hello", Score: 2}},
		Drift:      telemetry.Drift{Entered: []string{"hello"}},
	}

	row, err := telemetryRow("run_a", rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.RunID != "run_a" {
		t.Errorf("RunID = %q", row.RunID)
	}
	if !row.RecordedAt.Equal(recordedAt) {
		t.Errorf("RecordedAt = %v, want %v", row.RecordedAt, recordedAt)
	}

	var edgeTypes map[string]int
	if err := json.Unmarshal(row.EdgeTypes, &edgeTypes); err != nil {
		t.Fatalf("edge types column is not valid JSON: %v", err)
	}
	if edgeTypes["adjacency:base"] != 2 {
		t.Errorf("edgeTypes = %v", edgeTypes)
	}

	var top []telemetry.RankedEntry
	if err := json.Unmarshal(row.Top, &top); err != nil {
		t.Fatalf("top column is not valid JSON: %v", err)
	}
	if len(top) != 1 || top[0].Token != "hello" {
		t.Errorf("top = %v", top)
	}
}

func TestRunRequestValidation(t *testing.T) {
	p := NewProcessor(NewProcessorParams{})

	missingID := RunRequestMsg{Type: MessageRun, Payload: RunPayload{Text: "hi"}}
	if err := p.validate.Struct(missingID); err == nil {
		t.Error("missing requestId should fail validation")
	}

	missingText := RunRequestMsg{Type: MessageRun, RequestID: "run_a"}
	if err := p.validate.Struct(missingText); err == nil {
		t.Error("missing payload text should fail validation")
	}

	ok := RunRequestMsg{Type: MessageRun, RequestID: "run_a", Payload: RunPayload{Text: "hi"}}
	if err := p.validate.Struct(ok); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
}

func TestFormatLine(t *testing.T) {
	line := formatLine("Run complete", []any{"run_id", "run_a", "edges", 7})
	if line != "Run complete run_id=run_a edges=7" {
		t.Errorf("line = %q", line)
	}
	if got := formatLine("plain", nil); got != "plain" {
		t.Errorf("line = %q", got)
	}
	if got := formatLine("odd", []any{"key"}); !strings.HasPrefix(got, "odd key=") {
		t.Errorf("line = %q", got)
	}
}
