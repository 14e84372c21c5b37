package openaicompat

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// acceptEncoding is sent on every backend request. Setting it explicitly
// disables the transport's transparent gzip handling, so decodedBody must
// be used to read response bodies.
const acceptEncoding = "gzip, br"

// decodedBody returns a reader over the decompressed response body.
// Closing it closes the underlying body.
func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return &decodedReader{Reader: gz, closers: []io.Closer{gz, resp.Body}}, nil
	case "br":
		return &decodedReader{Reader: brotli.NewReader(resp.Body), closers: []io.Closer{resp.Body}}, nil
	default:
		return resp.Body, nil
	}
}

type decodedReader struct {
	io.Reader
	closers []io.Closer
}

func (d *decodedReader) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
