package profitshare

import "net/url"

func endpoint(base *url.URL) string {
	q := url.Values{}
	q.Set("filters[advertiser]", "45,41")
	base.RawQuery = q.Encode() // want `url.Values.Encode percent-encodes the query; package profitshare must sign the plain query`
	return base.String()
}

func unescape(raw string) (string, error) {
	return url.QueryUnescape(raw)
}
