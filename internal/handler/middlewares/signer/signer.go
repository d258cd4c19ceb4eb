// Package signer holds the inbound counterpart of the ProfitShare request
// signature: it recomputes X-PS-Auth and rejects requests that don't match.
package signer

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	pssigner "github.com/shopmindai/profitshare/internal/signer"
)

const (
	headerDate   = "Date"
	headerClient = "X-PS-Client"
	headerAuth   = "X-PS-Auth"
)

// KeyLookup returns the API key of apiUser.
type KeyLookup func(apiUser string) (apiKey string, ok bool)

// StaticKeys serves a fixed user->key map.
func StaticKeys(keys map[string]string) KeyLookup {
	return func(apiUser string) (string, bool) {
		key, ok := keys[apiUser]
		return key, ok
	}
}

type Options struct {
	Keys      KeyLookup
	Tolerance time.Duration
	Now       func() time.Time
}

func PSAuthMiddleware(opts Options, log *zap.Logger) func(next http.Handler) http.Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Tolerance == 0 {
		opts.Tolerance = 5 * time.Minute
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiUser := r.Header.Get(headerClient)
			date := r.Header.Get(headerDate)
			signature := r.Header.Get(headerAuth)

			if apiUser == "" || date == "" || signature == "" {
				log.Debug("missing signature headers", zap.String("path", r.URL.Path))
				http.Error(w, "missing signature headers", http.StatusUnauthorized)
				return
			}

			apiKey, ok := opts.Keys(apiUser)
			if !ok {
				log.Debug("unknown api user", zap.String("api_user", apiUser))
				http.Error(w, "unknown api user", http.StatusUnauthorized)
				return
			}

			if err := pssigner.CheckSkew(date, opts.Now(), opts.Tolerance); err != nil {
				log.Debug("rejected request date", zap.String("date", date), zap.Error(err))
				http.Error(w, "request date rejected", http.StatusUnauthorized)
				return
			}

			err := pssigner.Verify(pssigner.SigningRequest{
				Method:    r.Method,
				RoutePath: pssigner.RoutePath(r.URL.Path),
				RawQuery:  r.URL.RawQuery,
				APIUser:   apiUser,
				APIKey:    apiKey,
				Timestamp: date,
			}, signature)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, pssigner.ErrInvalidInput) {
					status = http.StatusBadRequest
				}
				log.Debug("signature verification failed", zap.String("api_user", apiUser), zap.Error(err))
				http.Error(w, "invalid signature", status)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
