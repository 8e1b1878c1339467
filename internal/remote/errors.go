package remote

import (
	"errors"
	"fmt"
)

// Kind classifies a remote fetch failure.
type Kind int

const (
	NetworkFailure   Kind = iota + 1 // Connectivity problem or timeout.
	NonOkStatus                      // Remote answered with a non-2xx status.
	MalformedPayload                 // Response body lacks the expected structure.
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case NonOkStatus:
		return "non-ok status"
	case MalformedPayload:
		return "malformed payload"
	default:
		return "unknown failure"
	}
}

// Sentinel errors matching each Kind via errors.Is.
var (
	ErrNetworkFailure   = errors.New("remote: network failure")
	ErrNonOkStatus      = errors.New("remote: non-ok status")
	ErrMalformedPayload = errors.New("remote: malformed payload")
)

// FetchError reports a failed read against the remote catalog.
type FetchError struct {
	Kind Kind
	Code int    // HTTP status, set for NonOkStatus.
	URL  string // Request URL.
	Err  error  // Underlying cause, may be nil.
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == NonOkStatus:
		return fmt.Sprintf("remote: GET %s: status %d", e.URL, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("remote: GET %s: %s: %s", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("remote: GET %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is matches the Kind sentinels so callers can write errors.Is(err, ErrNonOkStatus).
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrNetworkFailure:
		return e.Kind == NetworkFailure
	case ErrNonOkStatus:
		return e.Kind == NonOkStatus
	case ErrMalformedPayload:
		return e.Kind == MalformedPayload
	}
	return false
}

// StatusCode returns the HTTP status carried by a NonOkStatus error anywhere
// in err's chain, or 0.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Kind == NonOkStatus {
		return fe.Code
	}
	return 0
}

func malformed(url string, format string, args ...any) *FetchError {
	return &FetchError{Kind: MalformedPayload, URL: url, Err: fmt.Errorf(format, args...)}
}
