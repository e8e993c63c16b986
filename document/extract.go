package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the text layer of an uploaded PDF.
type Extraction struct {
	Text  string
	Pages int
	// Skipped lists pages whose text could not be decoded; they
	// contributed nothing to Text.
	Skipped []*ExtractionError
}

// Extractor reads the embedded text layer of PDFs. Scanned (image-only)
// pages have no text layer and yield "". No OCR is attempted.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract concatenates the plain text of every page in page order.
// Only a document that cannot be opened at all returns an error.
func (e *Extractor) Extract(data []byte) (ext Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ext = Extraction{}
			err = &ExtractionError{Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Extraction{}, &ExtractionError{Err: err}
	}

	n := reader.NumPage()
	text, skipped := collect(n, func(i int) (string, error) {
		return pageText(reader.Page(i))
	})
	return Extraction{Text: text, Pages: n, Skipped: skipped}, nil
}

// collect reads pages 1..n, skipping the ones that fail.
func collect(n int, read func(page int) (string, error)) (string, []*ExtractionError) {
	var (
		b       strings.Builder
		skipped []*ExtractionError
	)
	for i := 1; i <= n; i++ {
		text, err := read(i)
		if err != nil {
			skipped = append(skipped, &ExtractionError{Page: i, Err: err})
			continue
		}
		b.WriteString(text)
	}
	return b.String(), skipped
}

func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%v", r)
		}
	}()
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}
