package profitshare

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means ProfitShare rejected the signature or the
	// credentials (401/403). Clock skew shows up the same way.
	ErrUnauthorized = errors.New("profitshare: unauthorized")
	ErrRateLimited  = errors.New("profitshare: rate limited")
)

// APIError is a non-2xx reply from ProfitShare.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %s: %s", e.Status, e.Body)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
