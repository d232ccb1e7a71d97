package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by placeholder senders for channels that
	// have no transport yet. Always permanent: retrying cannot make a
	// transport appear.
	ErrNotImplemented = errors.New("channel transport not implemented")

	// ErrUnknownChannel is returned when no sender is registered for the
	// requested channel.
	ErrUnknownChannel = errors.New("no sender registered for channel")
)

// permanentError marks a failure that no amount of retrying can fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("permanent: %s", e.err)
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err as a non-retryable failure. Senders use it for
// conditions like an invalid recipient or an unimplemented channel where a
// retry would burn queue attempts for nothing.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (anywhere in its chain) was marked
// non-retryable via Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
