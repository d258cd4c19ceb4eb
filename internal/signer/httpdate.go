package signer

import (
	"fmt"
	"time"
)

// HTTPDateLayout is the RFC 7231 IMF-fixdate layout sent in the Date header.
const HTTPDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

// FormatHTTPDate renders t in UTC using HTTPDateLayout.
func FormatHTTPDate(t time.Time) string {
	return t.UTC().Format(HTTPDateLayout)
}

// ParseHTTPDate parses a Date header value.
func ParseHTTPDate(s string) (time.Time, error) {
	t, err := time.Parse(HTTPDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q: %v", ErrInvalidInput, s, err)
	}
	return t, nil
}

// CheckSkew reports ErrClockSkew when ts is further than tolerance from now.
func CheckSkew(ts string, now time.Time, tolerance time.Duration) error {
	t, err := ParseHTTPDate(ts)
	if err != nil {
		return err
	}
	diff := now.Sub(t)
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerance {
		return fmt.Errorf("%w: %s off", ErrClockSkew, diff)
	}
	return nil
}
