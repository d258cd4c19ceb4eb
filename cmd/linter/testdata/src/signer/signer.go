package signer

import "net/url"

func canonical(route, query string) string {
	return route + "?" + url.QueryEscape(query) // want `url.QueryEscape percent-encodes the query; package signer must sign the plain query`
}

func route(path string) string {
	return url.PathEscape(path) // want `url.PathEscape percent-encodes the query; package signer must sign the plain query`
}

func plain(query string) string {
	return "?" + query
}
