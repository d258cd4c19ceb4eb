package middlewares

import (
	"net/http"
	"sync"
)

// TrackActiveRequests counts in-flight requests so shutdown can wait for
// them. Once shutdownChan is closed new requests get 503 and the connection
// is closed so clients reconnect elsewhere.
func TrackActiveRequests(
	activeRequests *sync.WaitGroup,
	shutdownChan <-chan struct{},
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-shutdownChan:
				w.Header().Set("Connection", "close")
				http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
				return
			default:
			}

			activeRequests.Add(1)
			defer activeRequests.Done()

			next.ServeHTTP(w, r)
		})
	}
}
