package signer

import "errors"

var (
	// ErrInvalidInput is returned when a signing request lacks a method,
	// a route path or an API key, or carries a malformed timestamp.
	ErrInvalidInput = errors.New("invalid signing input")
	// ErrSignatureMismatch is returned by Verify when the presented
	// signature does not match the recomputed one.
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrClockSkew is returned by CheckSkew when the request date is too
	// far away from the verifier's clock.
	ErrClockSkew = errors.New("request date outside allowed skew")
)
