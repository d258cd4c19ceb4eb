package compressor

import (
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"sync"

	"github.com/shopmindai/profitshare/internal/service/compressorservice"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(io.Discard)
	},
}

// compressible lists the media types worth gzipping: JSON listings and the
// Prometheus text exposition.
var compressible = map[string]bool{
	"application/json": true,
	"text/plain":       true,
}

// HTTPGzipAdapter gzips JSON listings for clients that accept it.
type HTTPGzipAdapter struct{}

func NewHTTPGzipAdapter() *HTTPGzipAdapter {
	return &HTTPGzipAdapter{}
}

type compressWriter struct {
	w             http.ResponseWriter
	zw            *gzip.Writer
	headerWritten bool
	compress      bool
}

func (c *compressWriter) Header() http.Header {
	return c.w.Header()
}

func (c *compressWriter) Write(p []byte) (int, error) {
	if !c.headerWritten {
		c.WriteHeader(http.StatusOK)
	}
	if !c.compress {
		return c.w.Write(p)
	}
	return c.zw.Write(p)
}

// WriteHeader only compresses successful replies of a compressible type;
// error bodies from http.Error stay plain.
func (c *compressWriter) WriteHeader(statusCode int) {
	if c.headerWritten {
		return
	}
	c.headerWritten = true
	c.compress = statusCode >= 200 && statusCode < 300 && isCompressible(c.w.Header().Get("Content-Type"))

	if c.compress {
		c.w.Header().Set("Content-Encoding", "gzip")
		c.w.Header().Del("Content-Length")
		c.w.Header().Add("Vary", "Accept-Encoding")
	}
	c.w.WriteHeader(statusCode)
}

func isCompressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && compressible[mediaType]
}

func (c *compressWriter) Close() error {
	if c.zw == nil {
		return nil
	}

	var err error
	if c.compress {
		err = c.zw.Close()
	}
	c.zw.Reset(io.Discard)
	gzipWriterPool.Put(c.zw)
	c.zw = nil
	return err
}

func (g *HTTPGzipAdapter) CompressResponse(w http.ResponseWriter, r *http.Request) http.ResponseWriter {
	if w.Header().Get("Content-Encoding") != "" {
		return w
	}

	if !compressorservice.AcceptsGzip(r.Header.Get("Accept-Encoding")) {
		return w
	}

	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(w)

	return &compressWriter{w: w, zw: zw}
}
