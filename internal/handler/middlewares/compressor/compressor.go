package compressor

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Compress gzips eligible responses. The proxy only serves reads, so request
// bodies pass through untouched and HEAD replies are never wrapped.
func Compress(compressor Compressor, log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			cw := compressor.CompressResponse(w, r)
			closer, ok := cw.(io.Closer)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			defer func() {
				if err := closer.Close(); err != nil && !errors.Is(err, http.ErrAbortHandler) {
					log.Warn("failed to finish gzip response", zap.String("path", r.URL.Path), zap.Error(err))
				}
			}()

			next.ServeHTTP(cw, r)
		})
	}
}
