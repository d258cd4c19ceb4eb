package signer

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// QueryParam is a single key/value pair of a signed query.
type QueryParam struct {
	Key   string
	Value any
}

// QueryParams is an ordered list of query parameters. Order is significant:
// the remote verifier rebuilds the query exactly as it arrives on the wire.
type QueryParams []QueryParam

// Add appends a parameter and returns the extended list.
func (q QueryParams) Add(key string, value any) QueryParams {
	return append(q, QueryParam{Key: key, Value: value})
}

// Encode joins the parameters as k=v pairs separated by '&'.
//
// Keys and values are NOT percent-encoded. ProfitShare recomputes the
// signature over the raw "filters[advertiser]=35" form, so url.Values or
// url.QueryEscape here would break every signed request. See cmd/linter.
func (q QueryParams) Encode() string {
	if len(q) == 0 {
		return ""
	}

	var encoded string
	bufferPool.Do(func(b *bytes.Buffer) {
		for i, p := range q {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(p.Key)
			b.WriteByte('=')
			b.WriteString(formatValue(p.Value))
		}
		encoded = b.String()
	})
	return encoded
}

// Validate checks that every parameter has a plain key and value.
func (q QueryParams) Validate() error {
	for _, p := range q {
		if p.Key == "" {
			return fmt.Errorf("%w: empty query parameter key", ErrInvalidInput)
		}
		if err := CheckPlain(p.Key); err != nil {
			return fmt.Errorf("key %q: %w", p.Key, err)
		}
		if isNested(p.Value) {
			// no canonical form is defined for nested values
			return fmt.Errorf("%w: unsupported value type %T for %q", ErrInvalidInput, p.Value, p.Key)
		}
		if err := CheckPlain(formatValue(p.Value)); err != nil {
			return fmt.Errorf("value of %q: %w", p.Key, err)
		}
	}
	return nil
}

func isNested(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(fmt.Stringer); ok {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

// CheckPlain reports whether s can be joined into an unencoded query as a
// single key or value. '&' and '=' would split it into other parameters,
// '#' would end the query, and spaces or control bytes cannot travel in a
// request line.
func CheckPlain(s string) error {
	if i := strings.IndexAny(s, "&=#"); i >= 0 {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidInput, s, s[i])
	}
	return checkRaw(s)
}

// checkRaw rejects bytes that cannot be sent literally in a query.
func checkRaw(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c <= ' ' || c == 0x7f || c == '#' {
			return fmt.Errorf("%w: %q contains byte %#x", ErrInvalidInput, s, c)
		}
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// RoutePath converts a URL path into the route form ProfitShare signs:
// no leading slash, exactly one trailing slash.
func RoutePath(path string) string {
	route := strings.TrimLeft(path, "/")
	if !strings.HasSuffix(route, "/") {
		route += "/"
	}
	return route
}
