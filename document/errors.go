package document

import "fmt"

// ExtractionError reports text that could not be read. Page is 1-based;
// Page 0 means the document itself could not be opened.
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page == 0 {
		return fmt.Sprintf("extract pdf: %v", e.Err)
	}
	return fmt.Sprintf("extract pdf page %d: %v", e.Page, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RenderError means no PDF could be produced for the given content.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render pdf: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
