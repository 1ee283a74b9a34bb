package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrAlreadyStarted is returned by Player.Run when the session's start
// transition has already happened.
var ErrAlreadyStarted = errors.New("player already started")

// ErrQueueClosed ends a consumer loop once a closed queue has drained.
var ErrQueueClosed = errors.New("queue closed")

// StarvationError reports a consumer wait that outlived the pop timeout.
// The producer should never fall that far behind, so it indicates a stalled
// or crashed producer and is fatal.
type StarvationError struct {
	Queue   string
	Timeout time.Duration
}

func (e *StarvationError) Error() string {
	return fmt.Sprintf("%s queue starved for %s", e.Queue, e.Timeout)
}

// SourceExhaustedError reports a source that ended before the producer
// completed its full run of one-second iterations. Fatal, never retried.
type SourceExhaustedError struct {
	Second int    // iteration at which the source ended
	Media  string // "audio" or "video"
	Err    error
}

func (e *SourceExhaustedError) Error() string {
	return fmt.Sprintf("%s source exhausted at second %d", e.Media, e.Second)
}

func (e *SourceExhaustedError) Unwrap() error { return e.Err }
