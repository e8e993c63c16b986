package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostProcess(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantHTML string
	}{
		{name: "markdown heading", raw: "# Title\n\nBody", wantText: "# Title\n\nBody", wantHTML: "<h1>Title</h1>"},
		{name: "crlf normalised", raw: "a\r\nb", wantText: "a\nb", wantHTML: "<p>a\nb</p>"},
		{name: "raw html is not passed through", raw: "<script>alert(1)</script>", wantText: "<script>alert(1)</script>", wantHTML: "<!-- raw HTML omitted -->"},
		{name: "whitespace only", raw: "   ", wantText: "   ", wantHTML: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostProcess(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, got.Text)
			assert.Contains(t, got.HTML, tt.wantHTML)
		})
	}
}
