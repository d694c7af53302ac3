package host

import (
	"errors"
	"fmt"
)

var (
	// ErrAborted indicates a queued request was dropped because an
	// earlier request timed out.
	ErrAborted = errors.New("aborted")
	// ErrShortResponse indicates reading past the end of a response.
	ErrShortResponse = errors.New("short response")
	// ErrUnexpectedReply indicates the device replied with unexpected data.
	ErrUnexpectedReply = errors.New("unexpected reply")
)

// TimeoutError indicates a response didn't complete in time.
type TimeoutError struct {
	Command  Command
	Received int
	Expected int
}

// Error implements error.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timeout, received %d of %d bytes", e.Command, e.Received, e.Expected)
}

// Timeout implements net.Error style timeout detection.
func (e *TimeoutError) Timeout() bool {
	return true
}
