package pipeline

import (
	"errors"
	"sync/atomic"
)

// ErrCanceled reports a run aborted through its cancel token. It is a
// distinct outcome, not a failure; worker layers translate it into a
// cancellation signal instead of an error response.
var ErrCanceled = errors.New("run canceled")

// CancelToken carries a cooperative abort flag across the stage functions of
// one run. Stages poll it at their boundaries only: a stage already in
// progress finishes its work, so cancellation latency is bounded by the
// current stage, never instantaneous.
//
// Cancel may be called from any goroutine; a nil token is never canceled.
type CancelToken struct {
	flag atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

func (t *CancelToken) Cancel() {
	if t != nil {
		t.flag.Store(true)
	}
}

func (t *CancelToken) Canceled() bool {
	return t != nil && t.flag.Load()
}

// Err returns ErrCanceled once the token is canceled, nil before.
func (t *CancelToken) Err() error {
	if t.Canceled() {
		return ErrCanceled
	}
	return nil
}
