// Package signer builds ProfitShare request signatures.
//
// The canonical string is
//
//	METHOD + route + "?" + query + "/" + apiUser + date
//
// and the signature is the lowercase hex HMAC-SHA1 of it keyed with the raw
// API key. The query part is joined unencoded, in caller order.
package signer

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopmindai/profitshare/pkg/objpool"
)

var bufferPool = objpool.New(func() *bytes.Buffer { return &bytes.Buffer{} })

// SigningRequest holds everything that goes into one signature.
//
// RawQuery, when set, is signed verbatim in place of Query. It is meant for
// a query already on the wire; setting both is an error.
type SigningRequest struct {
	Method    string
	RoutePath string
	Query     QueryParams
	RawQuery  string
	APIUser   string
	APIKey    string
	Timestamp string
}

// SigningResult is the canonical string and its digest.
type SigningResult struct {
	CanonicalString string
	SignatureHex    string
}

func (r SigningRequest) validate() error {
	if r.Method == "" {
		return fmt.Errorf("%w: empty method", ErrInvalidInput)
	}
	if r.RoutePath == "" {
		return fmt.Errorf("%w: empty route path", ErrInvalidInput)
	}
	if r.APIKey == "" {
		return fmt.Errorf("%w: empty api key", ErrInvalidInput)
	}
	if r.RawQuery != "" {
		if len(r.Query) > 0 {
			return fmt.Errorf("%w: both query and raw query set", ErrInvalidInput)
		}
		return checkRaw(r.RawQuery)
	}
	return r.Query.Validate()
}

// CanonicalString returns the string that gets signed. It does not validate.
func (r SigningRequest) CanonicalString() string {
	query := r.RawQuery
	if query == "" {
		query = r.Query.Encode()
	}

	var canonical string
	bufferPool.Do(func(b *bytes.Buffer) {
		b.Grow(len(r.Method) + len(r.RoutePath) + len(query) + len(r.APIUser) + len(r.Timestamp) + 2)
		b.WriteString(r.Method)
		b.WriteString(r.RoutePath)
		b.WriteByte('?')
		b.WriteString(query)
		b.WriteByte('/')
		b.WriteString(r.APIUser)
		b.WriteString(r.Timestamp)
		canonical = b.String()
	})
	return canonical
}

// Sign computes the canonical string and its HMAC-SHA1 hex digest.
func Sign(req SigningRequest) (SigningResult, error) {
	if err := req.validate(); err != nil {
		return SigningResult{}, err
	}

	canonical := req.CanonicalString()
	return SigningResult{
		CanonicalString: canonical,
		SignatureHex:    hex.EncodeToString(mac(req.APIKey, canonical)),
	}, nil
}

// Verify recomputes the signature for req and compares it in constant time.
func Verify(req SigningRequest, signatureHex string) error {
	if err := req.validate(); err != nil {
		return err
	}

	given, err := hex.DecodeString(strings.ToLower(signatureHex))
	if err != nil {
		return fmt.Errorf("%w: signature is not hex", ErrSignatureMismatch)
	}
	if !hmac.Equal(given, mac(req.APIKey, req.CanonicalString())) {
		return ErrSignatureMismatch
	}
	return nil
}

func mac(key, message string) []byte {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(message))
	return h.Sum(nil)
}

// Signer carries the API credentials so callers only pass per-request data.
type Signer struct {
	apiUser string
	apiKey  string
}

// NewSigner returns a Signer for the given account.
func NewSigner(apiUser, apiKey string) *Signer {
	return &Signer{apiUser: apiUser, apiKey: apiKey}
}

// APIUser returns the account identifier sent in X-PS-Client.
func (s *Signer) APIUser() string {
	return s.apiUser
}

// SignRequest signs one outgoing request.
func (s *Signer) SignRequest(method, route string, query QueryParams, timestamp string) (SigningResult, error) {
	return Sign(s.request(method, route, query, timestamp))
}

// VerifyRequest checks a signature produced for this account.
func (s *Signer) VerifyRequest(method, route string, query QueryParams, timestamp, signatureHex string) error {
	return Verify(s.request(method, route, query, timestamp), signatureHex)
}

// SignRaw signs a request whose query is already encoded, byte for byte.
func (s *Signer) SignRaw(method, route, rawQuery, timestamp string) (SigningResult, error) {
	req := s.request(method, route, nil, timestamp)
	req.RawQuery = rawQuery
	return Sign(req)
}

func (s *Signer) request(method, route string, query QueryParams, timestamp string) SigningRequest {
	return SigningRequest{
		Method:    method,
		RoutePath: route,
		Query:     query,
		APIUser:   s.apiUser,
		APIKey:    s.apiKey,
		Timestamp: timestamp,
	}
}
