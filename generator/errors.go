package generator

import "fmt"

// ValidationError means a required form field is missing or out of range.
// Nothing was sent to the model.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ErrorKind classifies a failed model call.
type ErrorKind string

const (
	KindNetwork  ErrorKind = "network"
	KindAuth     ErrorKind = "auth"
	KindQuota    ErrorKind = "quota"
	KindUpstream ErrorKind = "upstream"
	KindEmpty    ErrorKind = "empty"
)

// GenerationError wraps any failure of the remote text-generation call.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
