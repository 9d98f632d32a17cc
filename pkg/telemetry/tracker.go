package telemetry

import (
	"time"

	"github.com/semlattice/lattice/pkg/common"
	"github.com/semlattice/lattice/pkg/logger"
)

// historyCap bounds the retained record history; the oldest record is
// evicted once the cap is reached.
const historyCap = 50

// RankEntry is the boundary shape for one ranked token. Producers may supply
// either Score or RawScore (or both); normalization happens once, on emit,
// with Score taking precedence when both are set.
type RankEntry struct {
	Token    string   `json:"token"`
	Score    *float64 `json:"score,omitempty"`
	RawScore *float64 `json:"rawScore,omitempty"`
}

// RankedEntry is the canonical internal shape after normalization.
type RankedEntry struct {
	Token string  `json:"token"`
	Score float64 `json:"score"`
}

// Movement describes a token whose rank changed between consecutive records.
// Ranks are 1-based; Delta = From - To, so a positive delta means the token
// climbed.
type Movement struct {
	Token string `json:"token"`
	From  int    `json:"from"`
	To    int    `json:"to"`
	Delta int    `json:"delta"`
}

// Drift is the rank diff between a record and its immediate predecessor.
type Drift struct {
	Entered []string   `json:"entered"`
	Exited  []string   `json:"exited"`
	Moved   []Movement `json:"moved"`
}

// Record is what pipeline runs emit.
type Record struct {
	RunID     string         `json:"runId"`
	Metrics   common.Summary `json:"metrics"`
	EdgeTypes map[string]int `json:"edgeTypes"`
	Top       []RankEntry    `json:"top"`
}

// HistoryRecord is the stored, normalized form. Values handed to subscribers
// and history readers are deep copies; mutating them never affects the
// tracker.
type HistoryRecord struct {
	RunID      string         `json:"runId"`
	RecordedAt time.Time      `json:"recordedAt"`
	Metrics    common.Summary `json:"metrics"`
	EdgeTypes  map[string]int `json:"edgeTypes"`
	Top        []RankedEntry  `json:"top"`
	Drift      Drift          `json:"drift"`
}

type subscriber struct {
	id int
	fn func(HistoryRecord)
}

// Tracker keeps the bounded run history and fans emissions out to
// subscribers. Construct one per process (or per test) with NewTracker and
// pass it explicitly; there is no package-level instance.
type Tracker struct {
	history     []HistoryRecord
	subscribers []subscriber
	nextSubID   int
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Emit normalizes the record, computes drift against the previous record,
// appends to history (evicting the oldest past capacity), and notifies
// subscribers synchronously in registration order. A panicking subscriber is
// logged and skipped; it never blocks later subscribers or the caller.
//
// Emit is not safe for concurrent use; runs are serialized upstream.
func (t *Tracker) Emit(rec Record) HistoryRecord {
	stored := HistoryRecord{
		RunID:      rec.RunID,
		RecordedAt: time.Now().UTC(),
		Metrics:    rec.Metrics,
		EdgeTypes:  copyHistogram(rec.EdgeTypes),
		Top:        normalizeTop(rec.Top),
	}

	var prev []RankedEntry
	if len(t.history) > 0 {
		prev = t.history[len(t.history)-1].Top
	}
	stored.Drift = computeDrift(prev, stored.Top)

	t.history = append(t.history, stored)
	if len(t.history) > historyCap {
		t.history = t.history[len(t.history)-historyCap:]
	}

	for _, sub := range t.subscribers {
		t.deliver(sub, stored)
	}
	return stored.clone()
}

func (t *Tracker) deliver(sub subscriber, rec HistoryRecord) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[Telemetry] subscriber panicked", "subscriber", sub.id, "panic", r)
		}
	}()
	sub.fn(rec.clone())
}

// Subscribe registers a callback for future emissions and returns its
// unsubscribe function. Unsubscribing is idempotent and never disturbs
// history accumulation or other subscribers.
func (t *Tracker) Subscribe(fn func(HistoryRecord)) func() {
	id := t.nextSubID
	t.nextSubID++
	t.subscribers = append(t.subscribers, subscriber{id: id, fn: fn})

	return func() {
		for i, sub := range t.subscribers {
			if sub.id == id {
				t.subscribers = append(t.subscribers[:i], t.subscribers[i+1:]...)
				return
			}
		}
	}
}

// History returns an ordered (oldest first) deep copy of the record history.
func (t *Tracker) History() []HistoryRecord {
	out := make([]HistoryRecord, len(t.history))
	for i, rec := range t.history {
		out[i] = rec.clone()
	}
	return out
}

// Latest returns a copy of the most recent record, if any. It mirrors only
// the newest state; use History for the full window.
func (t *Tracker) Latest() (HistoryRecord, bool) {
	if len(t.history) == 0 {
		return HistoryRecord{}, false
	}
	return t.history[len(t.history)-1].clone(), true
}

// Reset clears history and subscribers.
func (t *Tracker) Reset() {
	t.history = nil
	t.subscribers = nil
}

func (r HistoryRecord) clone() HistoryRecord {
	out := r
	out.EdgeTypes = copyHistogram(r.EdgeTypes)
	out.Top = append([]RankedEntry(nil), r.Top...)
	out.Drift.Entered = append([]string(nil), r.Drift.Entered...)
	out.Drift.Exited = append([]string(nil), r.Drift.Exited...)
	out.Drift.Moved = append([]Movement(nil), r.Drift.Moved...)
	return out
}

func copyHistogram(h map[string]int) map[string]int {
	if h == nil {
		return nil
	}
	out := make(map[string]int, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// normalizeTop collapses the score/rawScore alternatives into a single score,
// preferring score when both are present. Entries with neither score are kept
// at zero rather than dropped so ranks stay aligned with the producer's
// ordering.
func normalizeTop(entries []RankEntry) []RankedEntry {
	out := make([]RankedEntry, 0, len(entries))
	for _, e := range entries {
		score := 0.0
		switch {
		case e.Score != nil:
			score = *e.Score
		case e.RawScore != nil:
			score = *e.RawScore
		}
		out = append(out, RankedEntry{Token: e.Token, Score: score})
	}
	return out
}

// computeDrift diffs two consecutive top-lists by token. Ranks are 1-based
// list positions. With no predecessor everything is entered.
func computeDrift(prev, now []RankedEntry) Drift {
	prevRank := make(map[string]int, len(prev))
	for i, e := range prev {
		prevRank[e.Token] = i + 1
	}
	nowRank := make(map[string]int, len(now))
	for i, e := range now {
		nowRank[e.Token] = i + 1
	}

	drift := Drift{}
	for i, e := range now {
		from, existed := prevRank[e.Token]
		if !existed {
			drift.Entered = append(drift.Entered, e.Token)
			continue
		}
		to := i + 1
		if from != to {
			drift.Moved = append(drift.Moved, Movement{
				Token: e.Token,
				From:  from,
				To:    to,
				Delta: from - to,
			})
		}
	}
	for _, e := range prev {
		if _, still := nowRank[e.Token]; !still {
			drift.Exited = append(drift.Exited, e.Token)
		}
	}
	return drift
}
