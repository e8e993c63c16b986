package document

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontFamily  = "Arial"
	lineHeight  = 10.0
	headerSize  = 12.0
	titleSize   = 16.0
	bodySize    = 12.0
	sectionSkip = 10.0
)

// Field is one "Label: value" line of the summary block.
type Field struct {
	Label string
	Value string
}

// Content is everything the fixed page template needs.
type Content struct {
	Title  string
	Fields []Field
	Body   string
}

// Rendered is a finished PDF.
type Rendered struct {
	Data  []byte
	Pages int
}

type RendererOption func(*Renderer)

// WithStrictEncoding makes characters outside the font's encoding a
// RenderError instead of substituting '?'.
func WithStrictEncoding(strict bool) RendererOption {
	return func(r *Renderer) { r.strict = strict }
}

// WithClock sets the source of the embedded creation date.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) { r.now = now }
}

// Renderer lays out a title, an optional field summary and a body on A4
// pages. The same content and clock produce the same bytes.
type Renderer struct {
	strict bool
	now    func() time.Time
}

func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Renderer) Render(c Content) (*Rendered, error) {
	title, err := encodeText(c.Title, r.strict)
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("title: %w", err)}
	}
	lines := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		line, err := encodeText(f.Label+": "+f.Value, r.strict)
		if err != nil {
			return nil, &RenderError{Err: fmt.Errorf("field %s: %w", f.Label, err)}
		}
		lines = append(lines, line)
	}
	body, err := encodeText(c.Body, r.strict)
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("body: %w", err)}
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	now := r.now()
	pdf.SetCreationDate(now)
	pdf.SetModificationDate(now)
	pdf.SetTitle(title, false)
	pdf.SetProducer("book-creator", false)
	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", headerSize)
		pdf.CellFormat(0, lineHeight, title, "", 1, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", titleSize)
	pdf.CellFormat(0, lineHeight, title, "", 1, "C", false, 0, "")
	pdf.Ln(sectionSkip)

	if len(lines) > 0 {
		pdf.SetFont(fontFamily, "B", bodySize)
		for _, line := range lines {
			pdf.MultiCell(0, lineHeight, line, "", "L", false)
		}
		pdf.Ln(sectionSkip)
	}

	pdf.SetFont(fontFamily, "", bodySize)
	pdf.MultiCell(0, lineHeight, body, "", "L", false)

	if err := pdf.Error(); err != nil {
		return nil, &RenderError{Err: err}
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: err}
	}

	pages, err := PageCount(buf.Bytes())
	if err != nil {
		return nil, &RenderError{Err: fmt.Errorf("re-read output: %w", err)}
	}
	if pages < 1 {
		return nil, &RenderError{Err: errors.New("output has no pages")}
	}
	return &Rendered{Data: buf.Bytes(), Pages: pages}, nil
}
