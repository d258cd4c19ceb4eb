package profitshare

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/observers"
	"github.com/shopmindai/profitshare/internal/signer"
)

const (
	HeaderDate   = "Date"
	HeaderClient = "X-PS-Client"
	HeaderAccept = "X-PS-Accept"
	HeaderAuth   = "X-PS-Auth"
)

// authTransport signs every outgoing request before handing it on. The
// query is signed exactly as it appears in req.URL.RawQuery, so a bare
// "flag" or a trailing '&' is signed as sent.
type authTransport struct {
	signer     *signer.Signer
	underlying http.RoundTripper
	now        func() time.Time
	publisher  observers.EventPublisher
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.now()
	date := signer.FormatHTTPDate(start)
	route := signer.RoutePath(req.URL.Path)

	res, err := t.signer.SignRaw(req.Method, route, req.URL.RawQuery, date)
	if err != nil {
		return nil, fmt.Errorf("signing request: %w", err)
	}

	signed := req.Clone(req.Context())
	signed.Header.Set(HeaderDate, date)
	signed.Header.Set(HeaderClient, t.signer.APIUser())
	signed.Header.Set(HeaderAccept, "json")
	signed.Header.Set(HeaderAuth, res.SignatureHex)

	resp, err := t.underlying.RoundTrip(signed)
	t.audit(req, route, start, resp, err)
	return resp, err
}

func (t *authTransport) audit(req *http.Request, route string, start time.Time, resp *http.Response, err error) {
	if t.publisher == nil {
		return
	}

	event := model.SignedRequestEvent{
		Timestamp:  start,
		Ts:         start.UnixMilli(),
		RequestID:  uuid.NewString(),
		Method:     req.Method,
		Route:      route,
		Query:      req.URL.RawQuery,
		APIUser:    t.signer.APIUser(),
		DurationMs: t.now().Sub(start).Milliseconds(),
	}
	if resp != nil {
		event.StatusCode = resp.StatusCode
	}
	if err != nil {
		event.Error = err.Error()
	}
	t.publisher.Publish(event)
}
