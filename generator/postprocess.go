package generator

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// PostProcess keeps the model text as returned (only line endings are
// normalised) and adds an HTML preview. Whitespace-only output is accepted.
func PostProcess(raw string) (Completion, error) {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	html, err := mdToHTML(text)
	if err != nil {
		return Completion{}, err
	}
	return Completion{Text: text, HTML: html}, nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
