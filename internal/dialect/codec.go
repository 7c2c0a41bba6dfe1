package dialect

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textEncoding maps an Encoding to its x/text implementation. UTF-16 decoders
// honour a BOM of either byte order; encoders always emit one.
func textEncoding(e Encoding) (encoding.Encoding, error) {
	switch e {
	case UTF8:
		return unicode.UTF8, nil
	case UTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case Latin1:
		return charmap.ISO8859_1, nil
	case CP1252:
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unsupported encoding %q", e)
}

func decoder(e Encoding) (*encoding.Decoder, error) {
	switch e {
	case UTF16:
		return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder())}, nil
	case UTF16BE:
		return &encoding.Decoder{Transformer: unicode.BOMOverride(unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder())}, nil
	}
	enc, err := textEncoding(e)
	if err != nil {
		return nil, err
	}
	return enc.NewDecoder(), nil
}

// NewReader returns r decoded to UTF-8. UTF-8 input is passed through as is;
// validating it and stripping a BOM is left to the parser, which knows the
// line a bad byte sits on.
func NewReader(r io.Reader, e Encoding) (io.Reader, error) {
	if e == UTF8 {
		return r, nil
	}
	dec, err := decoder(e)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, dec), nil
}

// Decode converts b to a UTF-8 string. Invalid UTF-8 is an error rather than
// being replaced.
func Decode(b []byte, e Encoding) (string, error) {
	if e == UTF8 {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("decode %s: invalid byte sequence", e)
		}
		return string(b), nil
	}
	dec, err := decoder(e)
	if err != nil {
		return "", err
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e, err)
	}
	return string(out), nil
}

// NewWriter returns a writer that encodes UTF-8 input into e. The caller must
// Close it to flush buffered output; Close does not close w.
func NewWriter(w io.Writer, e Encoding) (io.WriteCloser, error) {
	if e == UTF8 {
		return nopCloser{w}, nil
	}
	enc, err := textEncoding(e)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
