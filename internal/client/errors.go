package client

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidLimit    = errors.New("invalid limit")
	ErrInvalidPage     = errors.New("invalid page request")
	ErrUnexpectedBatch = errors.New("unexpected result batch")
	ErrChannel         = errors.New("stream channel failed")
	ErrDecode          = errors.New("failed to decode frame")
)

// DecodeError reports a stream frame that is not a single JSON value. It does
// not end the subscription.
type DecodeError struct {
	Frame []byte
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", ErrDecode, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}
