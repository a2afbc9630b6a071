package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = fmt.Errorf("not found")
	ErrInvalidState     = fmt.Errorf("invalid state")
	ErrDeliveryFailure  = fmt.Errorf("delivery failure")
	ErrStoreFailure     = fmt.Errorf("store failure")
	ErrInvalidPayload   = fmt.Errorf("invalid payload")
	ErrSlowConsumer     = fmt.Errorf("slow consumer")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
	ErrUnknownBackend   = fmt.Errorf("unknown backend")
)

// Reason maps an error to the human-readable text sent back to a client.
// Internal details never leak past this point.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Chat not found"
	case errors.Is(err, ErrInvalidState):
		return unwrapReason(err, "Action not allowed in the current state")
	case errors.Is(err, ErrInvalidPayload):
		return unwrapReason(err, "Invalid request")
	case errors.Is(err, ErrStoreFailure):
		return unwrapReason(err, "Chat storage is unavailable, try again later")
	default:
		return "Internal error"
	}
}

// unwrapReason keeps the detail following the sentinel, e.g. "invalid state: set a username first".
func unwrapReason(err error, fallback string) string {
	var detailed *DetailedError
	if errors.As(err, &detailed) {
		return detailed.Detail
	}
	return fallback
}

// DetailedError carries a client-facing detail next to a sentinel.
type DetailedError struct {
	Sentinel error
	Detail   string
}

func (d *DetailedError) Error() string {
	return fmt.Sprintf("%s: %s", d.Sentinel, d.Detail)
}

func (d *DetailedError) Unwrap() error {
	return d.Sentinel
}

func Detailed(sentinel error, detail string) error {
	return &DetailedError{Sentinel: sentinel, Detail: detail}
}
