package queue

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rabbitmq/amqp091-go"

	"github.com/semlattice/lattice/pkg/logger"
)

// LogForwarder is a logger backend that mirrors worker log lines onto the
// response exchange as LOG messages, so operators can watch a worker without
// shell access. Publish failures are dropped silently; logging about a failed
// log publish would recurse.
type LogForwarder struct {
	ch *amqp091.Channel
}

var _ logger.LoggerInstance = (*LogForwarder)(nil)

func NewLogForwarder(ch *amqp091.Channel) *LogForwarder {
	return &LogForwarder{ch: ch}
}

func (f *LogForwarder) Log(message string, keyvals ...any) {
	f.forward("info", message, keyvals)
}

func (f *LogForwarder) Debug(message string, keyvals ...any) {
	f.forward("debug", message, keyvals)
}

func (f *LogForwarder) Info(message string, keyvals ...any) {
	f.forward("info", message, keyvals)
}

func (f *LogForwarder) Warn(message string, keyvals ...any) {
	f.forward("warn", message, keyvals)
}

func (f *LogForwarder) Error(message string, keyvals ...any) {
	f.forward("error", message, keyvals)
}

// Fatal forwards the line but never exits; the console backend owns process
// termination.
func (f *LogForwarder) Fatal(message string, keyvals ...any) {
	f.forward("fatal", message, keyvals)
}

func (f *LogForwarder) forward(level, message string, keyvals []any) {
	if f.ch == nil {
		return
	}
	data, err := json.Marshal(LogMsg{
		Type:    MessageLog,
		Level:   level,
		Message: formatLine(message, keyvals),
	})
	if err != nil {
		return
	}
	_ = PublishLog(f.ch, data)
}

func formatLine(message string, keyvals []any) string {
	if len(keyvals) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString(message)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 < len(keyvals) {
			fmt.Fprintf(&b, " %s=%v", key, keyvals[i+1])
		} else {
			fmt.Fprintf(&b, " %s=", key)
		}
	}
	return b.String()
}
