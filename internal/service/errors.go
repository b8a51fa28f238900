package service

import "errors"

// Sentinel errors for service operations
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates the request failed structural validation
	ErrValidation = errors.New("validation failed")

	// ErrGeneration indicates a document could not be produced
	ErrGeneration = errors.New("document generation failed")

	// ErrFormatNotSupported indicates the requested format is not supported
	ErrFormatNotSupported = errors.New("format not supported")

	// ErrSerialExhausted indicates every allocation attempt lost a race
	ErrSerialExhausted = errors.New("could not allocate a serial number")
)

// RenderError wraps a rendering failure with the step that failed
type RenderError struct {
	Op      string // Operation that failed
	Err     error  // Underlying error
	Message string // User-friendly message
}

func (e *RenderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError creates a new RenderError
func NewRenderError(op string, err error, message string) *RenderError {
	return &RenderError{
		Op:      op,
		Err:     err,
		Message: message,
	}
}
