package domain

import "fmt"

// ErrNoDocuments is the message reported when a query arrives before any upload.
const ErrNoDocuments = "No document has been uploaded and processed yet."

// InputError reports caller-supplied content that cannot be processed.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// NewInputError builds an InputError from a format string.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure from an external service.
// Error returns the upstream message unmodified.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError for the named service. A nil err stays nil.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}

// StateError reports an operation issued against a session that is not ready for it.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return e.Msg }
