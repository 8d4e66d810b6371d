package scrivener

import "errors"

var (
	// ErrOutOfRange is returned when a position argument cannot possibly
	// reference a record: a non-positive read_backward bound, or a wait_for
	// anchor at the maximum representable position.
	ErrOutOfRange = errors.New("scrivener: position out of range")

	// ErrClosed is returned by Tail and WaitFor once the Scrivener has been
	// closed and every buffered record has been delivered.
	ErrClosed = errors.New("scrivener: closed")

	// ErrTimeout is returned by WaitFor when the context's deadline expires
	// before a matching record appears, distinct from caller-initiated
	// cancellation (which surfaces as context.Canceled).
	ErrTimeout = errors.New("scrivener: wait timed out")

	// ErrUnreadable marks a position whose record could not be reconstructed
	// as T. Forward readers (Tail, WaitFor) must block at such a position
	// rather than skip it; only an explicit backward scan may elect to skip.
	// The in-memory Scrivener in this package never produces this error
	// itself (there is no deserialisation step), but the error kind is part
	// of the contract so a file-backed implementation has somewhere to
	// report it.
	ErrUnreadable = errors.New("scrivener: record unreadable at position")
)
