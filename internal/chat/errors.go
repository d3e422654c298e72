package chat

import (
	"errors"
	"fmt"
)

// HTTPError is returned when the completion API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

var (
	ErrNoMessages      = errors.New("no messages")
	ErrEmptyCompletion = errors.New("empty upstream completion")

	// errStopped ends a stream whose consumer stopped iterating.
	errStopped = errors.New("stream stopped by consumer")
)
