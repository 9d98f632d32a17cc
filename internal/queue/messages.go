package queue

import (
	"encoding/json"

	"github.com/semlattice/lattice/pkg/pipeline"
)

// MessageType tags every message crossing the worker boundary.
type MessageType string

const (
	MessageRun    MessageType = "RUN"
	MessageCancel MessageType = "CANCEL"

	MessageProgress  MessageType = "PROGRESS"
	MessageLog       MessageType = "LOG"
	MessageResult    MessageType = "RESULT"
	MessageError     MessageType = "ERROR"
	MessageCancelled MessageType = "CANCELLED"
)

// RunPayload is the body of a RUN request.
type RunPayload struct {
	Text    string           `json:"text" validate:"required"`
	Options pipeline.Options `json:"options"`
	Export  bool             `json:"export,omitempty"`
}

// RunRequestMsg asks a worker to execute one construction run.
type RunRequestMsg struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId" validate:"required"`
	Payload   RunPayload  `json:"payload"`
}

// CancelRequestMsg asks workers to abort the named run. Delivery is
// broadcast; the worker holding the run flips its cancel token, everyone
// else ignores it.
type CancelRequestMsg struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId" validate:"required"`
}

// ProgressMsg reports stage completion; Value is in [0,1].
type ProgressMsg struct {
	Type      MessageType    `json:"type"`
	RequestID string         `json:"requestId"`
	Stage     string         `json:"stage"`
	Value     float64        `json:"value"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// LogMsg carries a forwarded log line. It is the only response without a
// requestId.
type LogMsg struct {
	Type    MessageType `json:"type"`
	Level   string      `json:"level"`
	Message string      `json:"message"`
}

// ResultMsg delivers the completed run output.
type ResultMsg struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"requestId"`
	Result    json.RawMessage `json:"result"`
	Perf      pipeline.Perf   `json:"perf"`
}

// ErrorBody is the serialized failure shape: errors never cross the message
// boundary as panics or bare strings.
type ErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorMsg reports a failed run.
type ErrorMsg struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId"`
	Error     ErrorBody   `json:"error"`
}

// CancelledMsg reports a run aborted through CANCEL. It is distinct from
// ERROR so callers can tell "aborted" from "failed".
type CancelledMsg struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId"`
}
