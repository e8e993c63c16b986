package generator

import (
	"bytes"
	"strings"
)

// GenerationRequest is what the book form collects.
type GenerationRequest struct {
	Theme string `json:"theme"`
	Intro string `json:"intro"`
	Pages int    `json:"pages"`
	Genre string `json:"genre"`
}

// Validate reports the first missing field.
func (r GenerationRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Theme) == "":
		return &ValidationError{Field: "theme", Message: "theme is required"}
	case strings.TrimSpace(r.Intro) == "":
		return &ValidationError{Field: "intro", Message: "general introduction is required"}
	case r.Pages < 1:
		return &ValidationError{Field: "pages", Message: "number of pages must be at least 1"}
	case strings.TrimSpace(r.Genre) == "":
		return &ValidationError{Field: "genre", Message: "book type is required"}
	}
	return nil
}

// EditRequest is what the edit form collects. Document holds the raw upload.
type EditRequest struct {
	Document    []byte `json:"-"`
	Filename    string `json:"filename"`
	Instruction string `json:"instruction"`
}

var pdfMagic = []byte("%PDF-")

// Validate checks that a PDF was uploaded and an instruction was given.
func (r EditRequest) Validate() error {
	if len(r.Document) == 0 {
		return &ValidationError{Field: "document", Message: "a PDF document is required"}
	}
	if !bytes.HasPrefix(r.Document, pdfMagic) {
		return &ValidationError{Field: "document", Message: "uploaded file is not a PDF"}
	}
	if strings.TrimSpace(r.Instruction) == "" {
		return &ValidationError{Field: "instruction", Message: "edit instruction is required"}
	}
	return nil
}

// Completion is the model output as shown to the user.
type Completion struct {
	Text string `json:"text"`
	// HTML is a Markdown rendering of Text for display only.
	HTML string `json:"html"`
}
