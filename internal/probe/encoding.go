package probe

import (
	"bytes"
	"unicode/utf8"

	"csvmerge/internal/dialect"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding picks the first encoding, in priority order, that decodes the
// sample cleanly: UTF-8 (with or without BOM), UTF-16, CP1252, then Latin-1,
// which accepts any byte sequence.
//
// UTF-16 without a BOM is recognised by its NUL bytes before the UTF-8 check,
// because ASCII-range UTF-16 is also valid UTF-8.
func DetectEncoding(sample []byte, truncated bool) (enc dialect.Encoding, bom bool) {
	if enc, ok := bomEncoding(sample); ok {
		return enc, true
	}
	if enc, ok := utf16ByNULs(sample); ok {
		return enc, false
	}
	body := sample
	if truncated {
		body = trimPartialRune(body)
	}
	if utf8.Valid(body) {
		return dialect.UTF8, false
	}
	if validCP1252(sample) {
		return dialect.CP1252, false
	}
	return dialect.Latin1, false
}

func bomEncoding(sample []byte) (dialect.Encoding, bool) {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		return dialect.UTF8, true
	case bytes.HasPrefix(sample, bomUTF16LE):
		return dialect.UTF16, true
	case bytes.HasPrefix(sample, bomUTF16BE):
		return dialect.UTF16BE, true
	}
	return "", false
}

// utf16ByNULs looks at the first 512 code units. Mostly-ASCII UTF-16 has a
// NUL in every high byte; LE puts it at odd offsets, BE at even ones.
func utf16ByNULs(sample []byte) (dialect.Encoding, bool) {
	n := len(sample) &^ 1
	if n > 1024 {
		n = 1024
	}
	if n < 4 {
		return "", false
	}
	var even, odd int
	for i := 0; i < n; i++ {
		if sample[i] != 0 {
			continue
		}
		if i%2 == 0 {
			even++
		} else {
			odd++
		}
	}
	units := n / 2
	switch {
	case odd*10 >= units*3 && even*10 < units:
		return dialect.UTF16, true
	case even*10 >= units*3 && odd*10 < units:
		return dialect.UTF16BE, true
	}
	return "", false
}

// validCP1252 rejects the five byte values Windows-1252 leaves undefined.
func validCP1252(b []byte) bool {
	for _, c := range b {
		switch c {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return false
		}
	}
	return true
}

// trimPartialRune drops an incomplete UTF-8 sequence at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < 0x80 {
			return b
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

// trimForDecode makes a truncated sample decodable: no split rune for UTF-8,
// an even length for UTF-16.
func trimForDecode(b []byte, enc dialect.Encoding, truncated bool) []byte {
	switch enc {
	case dialect.UTF16, dialect.UTF16BE:
		return b[:len(b)&^1]
	case dialect.UTF8:
		if truncated {
			return trimPartialRune(b)
		}
	}
	return b
}
