package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFrame   = errors.New("bridge: empty frame")
	ErrNotArray     = errors.New("bridge: frame is not an array")
	ErrBadAddress   = errors.New("bridge: address must be a non-empty string")
	ErrBadArg       = errors.New("bridge: unsupported argument")
	ErrShortBundle  = errors.New("bridge: bundle missing timestamp")
	ErrNestedBundle = errors.New("bridge: nested bundles are not supported")
	ErrUnknownEvent = errors.New("bridge: unknown event")

	ErrNotConnected = errors.New("bridge: not connected")
	ErrQueueFull    = errors.New("bridge: send queue full")
	ErrClosed       = errors.New("bridge: closed")
)

// DecodeError reports a frame that matched neither a command nor a bundle.
type DecodeError struct {
	Frame string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bridge: decode %s: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(raw []byte, err error) error {
	const max = 64
	s := string(raw)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return &DecodeError{Frame: s, Err: err}
}
