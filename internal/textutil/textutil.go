// Package textutil holds small helpers for presenting file content as text.
package textutil

import (
	"bytes"
	"unicode/utf8"
)

// sniffLen is how much of a file IsText inspects.
const sniffLen = 8 << 10

// IsText reports whether b looks like text: no NUL byte and valid UTF-8 in
// the first few KiB. A multi-byte rune cut at the sniff boundary is allowed.
func IsText(b []byte) bool {
	if len(b) > sniffLen {
		b = trimPartialRune(b[:sniffLen])
	}
	return bytes.IndexByte(b, 0) < 0 && utf8.Valid(b)
}

func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

// NormalizeUTF8LF converts CRLF to LF and ensures the output is valid UTF-8
// by replacing invalid byte sequences with the Unicode replacement character.
func NormalizeUTF8LF(b []byte) []byte {
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return bytes.ToValidUTF8(b, []byte("\uFFFD"))
}

// EnsureTrailingLF appends a single \n if not already present.
func EnsureTrailingLF(b []byte) []byte {
	if len(b) == 0 || b[len(b)-1] == '\n' {
		return b
	}
	return append(b, '\n')
}
