package logger

import (
	"reflect"
	"testing"
)

type recordedCall struct {
	level   string
	message string
	keyvals []any
}

type recordingBackend struct {
	calls []recordedCall
}

func (r *recordingBackend) record(level, message string, keyvals []any) {
	r.calls = append(r.calls, recordedCall{level: level, message: message, keyvals: keyvals})
}

func (r *recordingBackend) Log(m string, kv ...any)   { r.record("log", m, kv) }
func (r *recordingBackend) Debug(m string, kv ...any) { r.record("debug", m, kv) }
func (r *recordingBackend) Info(m string, kv ...any)  { r.record("info", m, kv) }
func (r *recordingBackend) Warn(m string, kv ...any)  { r.record("warn", m, kv) }
func (r *recordingBackend) Error(m string, kv ...any) { r.record("error", m, kv) }
func (r *recordingBackend) Fatal(m string, kv ...any) { r.record("fatal", m, kv) }

func TestFanOutReachesAllBackends(t *testing.T) {
	first := &recordingBackend{}
	second := &recordingBackend{}
	Init(first, second)
	defer Init()

	Info("run accepted", "request_id", "r1")
	Log("raw line", "k", 1)

	for _, backend := range []*recordingBackend{first, second} {
		if len(backend.calls) != 2 {
			t.Fatalf("backend saw %d calls, want 2", len(backend.calls))
		}
		want := recordedCall{level: "info", message: "run accepted", keyvals: []any{"request_id", "r1"}}
		if !reflect.DeepEqual(backend.calls[0], want) {
			t.Errorf("call = %+v, want %+v", backend.calls[0], want)
		}
		if backend.calls[1].level != "log" || len(backend.calls[1].keyvals) != 2 {
			t.Errorf("default-level call dropped keyvals: %+v", backend.calls[1])
		}
	}
}

func TestBackendsRunInInitOrder(t *testing.T) {
	var order []string
	first := &orderedBackend{name: "forwarder", order: &order}
	second := &orderedBackend{name: "console", order: &order}
	Init(first, second)
	defer Init()

	Fatal("boom")
	if !reflect.DeepEqual(order, []string{"forwarder", "console"}) {
		t.Errorf("dispatch order = %v, want forwarder before console", order)
	}
}

type orderedBackend struct {
	name  string
	order *[]string
}

func (o *orderedBackend) mark()                { *o.order = append(*o.order, o.name) }
func (o *orderedBackend) Log(string, ...any)   { o.mark() }
func (o *orderedBackend) Debug(string, ...any) { o.mark() }
func (o *orderedBackend) Info(string, ...any)  { o.mark() }
func (o *orderedBackend) Warn(string, ...any)  { o.mark() }
func (o *orderedBackend) Error(string, ...any) { o.mark() }
func (o *orderedBackend) Fatal(string, ...any) { o.mark() }

func TestCallsWithoutBackendsAreDropped(t *testing.T) {
	Init()
	Info("nobody listening")
	Error("still nobody")
}
