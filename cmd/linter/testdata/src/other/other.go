package other

import "net/url"

func encode(q url.Values) string {
	return q.Encode() + url.QueryEscape("a b")
}
