package graph

import (
	"github.com/pkg/errors"
)

var (
	// ErrNoParts is returned before any remote call when no usable document
	// parts were supplied.
	ErrNoParts = errors.New("no valid document files provided. Please upload images or text files")

	// ErrTooLarge is returned when the documents exceed the extractor's token budget.
	ErrTooLarge = errors.New("documents exceed the extraction token budget")

	// ErrTransport wraps failures of the remote model call.
	ErrTransport = errors.New("the model request failed")

	// ErrInvalidPayload is returned when the model output cannot be decoded
	// into a graph.
	ErrInvalidPayload = errors.New("the model returned an invalid data structure. Please try again")
)

// ExtractionError attaches an underlying cause to one of the sentinel errors
// above. errors.Is matches both the kind and the cause.
type ExtractionError struct {
	Kind error
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// TransportError reports a failed model call.
func TransportError(err error) error {
	return &ExtractionError{Kind: ErrTransport, Err: err}
}

// PayloadError reports model output that is not a valid graph.
func PayloadError(reason string) error {
	return &ExtractionError{Kind: ErrInvalidPayload, Err: errors.New(reason)}
}
