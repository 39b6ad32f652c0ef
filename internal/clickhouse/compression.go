package clickhouse

import (
	"fmt"
	"io"
	"strings"

	"github.com/chweb/chweb/internal/config"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// acceptEncoding maps a configured compression method to the
// Accept-Encoding value ClickHouse understands.
func acceptEncoding(method string) string {
	switch method {
	case config.CompressionGzip, config.CompressionDeflate, config.CompressionZstd, config.CompressionLz4:
		return method
	default:
		return ""
	}
}

// decompressedBody wraps a response body with a decoder.
type decompressedBody struct {
	io.Reader
	closeDecoder func()
	body         io.ReadCloser
}

func (b *decompressedBody) Close() error {
	if b.closeDecoder != nil {
		b.closeDecoder()
	}

	return b.body.Close()
}

// decodeBody returns a reader yielding the plain body for the given
// Content-Encoding. The returned ReadCloser owns body.
func decodeBody(contentEncoding string, body io.ReadCloser) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		return body, nil

	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &decompressedBody{Reader: r, closeDecoder: func() { _ = r.Close() }, body: body}, nil

	case "deflate":
		// HTTP deflate is zlib-wrapped
		r, err := zlib.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("create zlib reader: %w", err)
		}
		return &decompressedBody{Reader: r, closeDecoder: func() { _ = r.Close() }, body: body}, nil

	case "zstd":
		r, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}
		return &decompressedBody{Reader: r, closeDecoder: r.Close, body: body}, nil

	case "lz4":
		return &decompressedBody{Reader: lz4.NewReader(body), body: body}, nil

	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
}
