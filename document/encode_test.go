package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "ascii", in: "Plain text.", want: "Plain text."},
		{name: "latin1", in: "Café", want: "Caf\xe9"},
		{name: "decomposed accent is composed first", in: "Cafe\u0301", want: "Caf\xe9"},
		{name: "cp1252 punctuation", in: "“quote” — dash", want: "\x93quote\x94 \x97 dash"},
		{name: "cjk substituted", in: "东京", want: "??"},
		{name: "emoji substituted", in: "ok 👍", want: "ok ?"},
		{name: "crlf and tabs", in: "a\r\n\tb", want: "a\n    b"},
		{name: "control characters", in: "a\x00b", want: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeText(tt.in, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeTextStrict(t *testing.T) {
	_, err := encodeText("Tokyo 东京", true)

	var runeErr *UnsupportedRuneError
	require.True(t, errors.As(err, &runeErr))
	assert.Equal(t, '东', runeErr.Rune)

	got, err := encodeText("Café", true)
	require.NoError(t, err)
	assert.Equal(t, "Caf\xe9", got)
}
