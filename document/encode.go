package document

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// The core PDF fonts only cover Windows-1252.
const substitute = '?'

// UnsupportedRuneError names the first rune the core fonts cannot draw.
type UnsupportedRuneError struct {
	Rune rune
}

func (e *UnsupportedRuneError) Error() string {
	return fmt.Sprintf("character %q (U+%04X) is not supported by the PDF font", e.Rune, e.Rune)
}

// encodeText converts s to Windows-1252 bytes held in a Go string, which is
// what gofpdf expects for its core fonts. Unsupported runes become '?'
// unless strict is set; other control characters become spaces.
func encodeText(s string, strict bool) (string, error) {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\t", "    ")

	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r == '\n' {
			out = append(out, '\n')
			continue
		}
		if r < 0x20 || r == 0x7f {
			out = append(out, ' ')
			continue
		}
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			if strict {
				return "", &UnsupportedRuneError{Rune: r}
			}
			b = substitute
		}
		out = append(out, b)
	}
	return string(out), nil
}
