package upstream

import "fmt"

// StatusError reports a non-2xx response from an upstream feed. Callers treat
// it as a skip condition for the affected asset rather than a fatal failure.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.Code)
}

// MalformedError reports a 2xx response whose body could not be decoded.
// Distinct from StatusError so callers can tell a broken feed from an
// unavailable one.
type MalformedError struct {
	Endpoint string
	Err      error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("upstream %s returned a malformed response: %v", e.Endpoint, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
