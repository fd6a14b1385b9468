package core

// streaming.go provides the reader stack used to scan dataset files without
// loading them into memory:
//
//   - CountingReader: tracks raw bytes read for scan statistics
//   - decoder: converts the configured encoding to UTF-8, replacing
//     undecodable bytes with U+FFFD
//   - BOMSkippingReader: removes a leading byte order mark
//
// Use NewDatasetReader to apply all transforms in the correct order.

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// encodingAliases maps common non-WHATWG spellings to a known label.
var encodingAliases = map[string]string{
	"utf-8-sig": "utf-8",
	"utf_8":     "utf-8",
	"utf_8_sig": "utf-8",
	"cp-1251":   "windows-1251",
	"win1251":   "windows-1251",
	"koi8_r":    "koi8-r",
	"latin1":    "iso-8859-1",
}

// LookupEncoding resolves an encoding label such as "utf-8" or "cp1251".
func LookupEncoding(label string) (encoding.Encoding, error) {
	name := strings.ToLower(strings.TrimSpace(label))
	if name == "" {
		name = DefaultEncoding
	}
	if alias, ok := encodingAliases[name]; ok {
		name = alias
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return enc, nil
}

// NewDatasetReader wraps r so that reads yield valid UTF-8 text.
//
// The order matters:
//  1. Counting wraps the raw file so statistics report on-disk bytes
//  2. Decoding turns the configured encoding into UTF-8
//  3. The BOM is stripped from the decoded text, whatever the source encoding
func NewDatasetReader(r io.Reader, label string) (io.Reader, *CountingReader, error) {
	enc, err := LookupEncoding(label)
	if err != nil {
		return nil, nil, err
	}
	counter := NewCountingReader(r)
	decoded := transform.NewReader(counter, enc.NewDecoder())
	return NewBOMSkippingReader(decoded), counter, nil
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
// The UTF-8 BOM is 0xEF 0xBB 0xBF and is commonly added by Windows programs.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	pending []byte // Bytes read during the BOM check that belong to the data
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var head [3]byte
		n, err := io.ReadFull(r.reader, head[:])
		switch {
		case n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
			// BOM found - drop it
		case n > 0:
			r.pending = append(r.pending, head[:n]...)
		}

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && (err != io.EOF || len(r.pending) == 0) {
			return 0, err
		}
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}
