package extractor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// plainText decodes UTF-8 (or BOM-marked UTF-16) and drops invalid byte
// sequences. U+FFFD present in the input is kept.
func plainText(_ context.Context, data []byte) ([]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	decoder := unicode.BOMOverride(encoding.Nop.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	return []string{dropInvalidUTF8(decoded)}, nil
}

func dropInvalidUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size > 1 {
			b.Write(data[:size])
		}
		data = data[size:]
	}
	return b.String()
}
