package compressor

import (
	"net/http"
)

// Compressor wraps response writers for clients that accept gzip.
// HTTPGzipAdapter is the only implementation.
type Compressor interface {
	CompressResponse(w http.ResponseWriter, r *http.Request) http.ResponseWriter
}
