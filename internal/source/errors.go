package source

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a fetch failure.
type Kind string

// Failure kinds.
const (
	KindConnection  Kind = "connection"
	KindTimeout     Kind = "timeout"
	KindHTTP        Kind = "http_error"
	KindDecode      Kind = "decode_error"
	KindUnknownTool Kind = "unknown_tool"
)

// FetchError reports why a metric family could not be fetched.
type FetchError struct {
	Kind   Kind
	Tool   string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetching %s: %s", e.Tool, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether a later attempt could succeed.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindConnection, KindTimeout:
		return true
	case KindHTTP:
		return e.Status >= 500 || e.Status == 429
	default:
		return false
	}
}

// KindOf returns the kind of a *FetchError anywhere in err's chain, or the
// empty Kind when err carries none.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// transportError classifies an error from the HTTP round trip.
func transportError(tool string, err error) *FetchError {
	kind := KindConnection
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		kind = KindTimeout
	}
	return &FetchError{Kind: kind, Tool: tool, Err: err}
}
