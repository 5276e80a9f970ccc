package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport matches any *TransportError via errors.Is
	ErrTransport = errors.New("transport failure")
	// ErrParse matches any *ParseError via errors.Is
	ErrParse = errors.New("parse failure")
)

// TransportError reports that a response could not be obtained: the request
// failed to dial, timed out, was cancelled, or came back with a non-2xx status.
// Retrying may succeed.
type TransportError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ParseError reports that a response was received but its body does not match
// the expected schema. Retrying immediately will reproduce it.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// IsNotFound reports whether err is a TransportError carrying HTTP 404
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == http.StatusNotFound
}
