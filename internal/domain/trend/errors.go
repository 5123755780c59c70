package trend

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested document does not exist
var ErrNotFound = errors.New("not found")

// UpstreamError reports a failed call to the external trends service
type UpstreamError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream request %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("upstream request %s failed: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ValidationError reports a missing or invalid request parameter
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataError reports a malformed field in a fetched record.
// It is always recoverable.
type DataError struct {
	Field string
	Value string
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("malformed %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
