package signer

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUser = "burca_denis_68c9b156822ca"
	testKey  = "fd6f6fe5b514f390d1f73d20c0fd1f3d15641139"
	testDate = "Tue, 15 Nov 1994 08:12:31 GMT"
)

func productsRequest() SigningRequest {
	return SigningRequest{
		Method:    "GET",
		RoutePath: "affiliate-products/",
		Query:     QueryParams{}.Add("page", 1).Add("filters[advertiser]", "35"),
		APIUser:   testUser,
		APIKey:    testKey,
		Timestamp: testDate,
	}
}

func TestSign_KnownVector(t *testing.T) {
	res, err := Sign(productsRequest())
	require.NoError(t, err)

	assert.Equal(t,
		"GETaffiliate-products/?page=1&filters[advertiser]=35/burca_denis_68c9b156822caTue, 15 Nov 1994 08:12:31 GMT",
		res.CanonicalString,
	)
	assert.Equal(t, "7c2a6e0a270ba50d43046b51957acdd330d27b81", res.SignatureHex)
}

func TestSign_Deterministic(t *testing.T) {
	first, err := Sign(productsRequest())
	require.NoError(t, err)
	second, err := Sign(productsRequest())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSign_OrderSensitive(t *testing.T) {
	req := productsRequest()
	req.Query = QueryParams{}.Add("filters[advertiser]", "35").Add("page", 1)

	res, err := Sign(req)
	require.NoError(t, err)

	assert.Equal(t,
		"GETaffiliate-products/?filters[advertiser]=35&page=1/burca_denis_68c9b156822caTue, 15 Nov 1994 08:12:31 GMT",
		res.CanonicalString,
	)
	assert.Equal(t, "abb3e366839d415ea6df69adc44af8a6339bd18a", res.SignatureHex)

	original, err := Sign(productsRequest())
	require.NoError(t, err)
	assert.NotEqual(t, original.SignatureHex, res.SignatureHex)
}

func TestSign_EmptyQueryKeepsQuestionMark(t *testing.T) {
	req := productsRequest()
	req.RoutePath = "affiliate-advertisers/"
	req.Query = nil

	res, err := Sign(req)
	require.NoError(t, err)

	assert.Contains(t, res.CanonicalString, "?/")
	assert.Equal(t, "GETaffiliate-advertisers/?/"+testUser+testDate, res.CanonicalString)
	assert.Equal(t, "edbddde299b7e4d337c5d13cfca92a2be8f39b26", res.SignatureHex)
}

// Brackets and commas stay raw: the remote verifier never decodes them.
func TestSign_QueryIsNotPercentEncoded(t *testing.T) {
	req := productsRequest()
	req.Query = QueryParams{}.
		Add("page", 2).
		Add("filters[advertiser]", "45,41").
		Add("filters[part_no]", "ABC-1")

	res, err := Sign(req)
	require.NoError(t, err)

	assert.NotContains(t, res.CanonicalString, "%5B")
	assert.NotContains(t, res.CanonicalString, "%2C")
	assert.Equal(t, "091f28e6a14822c39b7bcebdb867773ef9332606", res.SignatureHex)
}

func TestSign_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SigningRequest)
	}{
		{"empty method", func(r *SigningRequest) { r.Method = "" }},
		{"empty route", func(r *SigningRequest) { r.RoutePath = "" }},
		{"empty api key", func(r *SigningRequest) { r.APIKey = "" }},
		{"empty query key", func(r *SigningRequest) { r.Query = r.Query.Add("", "x") }},
		{"nested value", func(r *SigningRequest) { r.Query = r.Query.Add("ids", []string{"1", "2"}) }},
		{"int64 slice", func(r *SigningRequest) { r.Query = r.Query.Add("ids", []int64{1, 2}) }},
		{"array", func(r *SigningRequest) { r.Query = r.Query.Add("ids", [2]string{"a", "b"}) }},
		{"map", func(r *SigningRequest) { r.Query = r.Query.Add("ids", map[string]int{"a": 1}) }},
		{"value adds a parameter", func(r *SigningRequest) { r.Query = r.Query.Add("filters[part_no]", "X&page=9") }},
		{"value holds equals", func(r *SigningRequest) { r.Query = r.Query.Add("filters[part_no]", "a=b") }},
		{"value cuts the query", func(r *SigningRequest) { r.Query = r.Query.Add("filters[part_no]", "A#B") }},
		{"value with space", func(r *SigningRequest) { r.Query = r.Query.Add("q", "red shoes") }},
		{"value with control byte", func(r *SigningRequest) { r.Query = r.Query.Add("q", "a\nb") }},
		{"key with ampersand", func(r *SigningRequest) { r.Query = r.Query.Add("a&b", "1") }},
		{"raw and structured query", func(r *SigningRequest) { r.RawQuery = "page=1" }},
		{"raw query with fragment", func(r *SigningRequest) { r.Query = nil; r.RawQuery = "page=1#top" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := productsRequest()
			tt.mutate(&req)

			res, err := Sign(req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, SigningResult{}, res)
		})
	}
}

// referenceHMACSHA1 is RFC 2104 written out by hand on top of crypto/sha1.
func referenceHMACSHA1(key, msg []byte) string {
	const blockSize = 64
	if len(key) > blockSize {
		sum := sha1.Sum(key)
		key = sum[:]
	}
	padded := make([]byte, blockSize)
	copy(padded, key)

	ipad := make([]byte, blockSize)
	opad := make([]byte, blockSize)
	for i := range padded {
		ipad[i] = padded[i] ^ 0x36
		opad[i] = padded[i] ^ 0x5c
	}

	inner := sha1.Sum(append(ipad, msg...))
	outer := sha1.Sum(append(opad, inner[:]...))
	return hex.EncodeToString(outer[:])
}

func TestSign_MatchesReferenceImplementation(t *testing.T) {
	keys := []string{testKey, "k", strings.Repeat("x", 100)}
	for _, key := range keys {
		req := productsRequest()
		req.APIKey = key

		res, err := Sign(req)
		require.NoError(t, err)

		assert.Equal(t, referenceHMACSHA1([]byte(key), []byte(res.CanonicalString)), res.SignatureHex)
	}
}

func TestSign_Concurrent(t *testing.T) {
	want, err := Sign(productsRequest())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]SigningResult, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Sign(productsRequest())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestVerify(t *testing.T) {
	req := productsRequest()

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, Verify(req, "7c2a6e0a270ba50d43046b51957acdd330d27b81"))
	})

	t.Run("upper case hex is accepted", func(t *testing.T) {
		assert.NoError(t, Verify(req, "7C2A6E0A270BA50D43046B51957ACDD330D27B81"))
	})

	t.Run("wrong signature", func(t *testing.T) {
		err := Verify(req, "abb3e366839d415ea6df69adc44af8a6339bd18a")
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("not hex", func(t *testing.T) {
		err := Verify(req, "zzzz")
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("invalid request", func(t *testing.T) {
		bad := req
		bad.APIKey = ""
		assert.ErrorIs(t, Verify(bad, "7c2a6e0a270ba50d43046b51957acdd330d27b81"), ErrInvalidInput)
	})
}

func TestSigner_SignRequest(t *testing.T) {
	s := NewSigner(testUser, testKey)
	q := QueryParams{}.Add("page", 1).Add("filters[advertiser]", "35")

	res, err := s.SignRequest("GET", "affiliate-products/", q, testDate)
	require.NoError(t, err)
	assert.Equal(t, "7c2a6e0a270ba50d43046b51957acdd330d27b81", res.SignatureHex)
	assert.Equal(t, testUser, s.APIUser())

	assert.NoError(t, s.VerifyRequest("GET", "affiliate-products/", q, testDate, res.SignatureHex))
	assert.ErrorIs(t, NewSigner(testUser, "other").VerifyRequest("GET", "affiliate-products/", q, testDate, res.SignatureHex), ErrSignatureMismatch)
}

func TestSigner_SignRaw(t *testing.T) {
	s := NewSigner(testUser, testKey)

	res, err := s.SignRaw("GET", "affiliate-products/", "page=1&filters[advertiser]=35", testDate)
	require.NoError(t, err)
	assert.Equal(t, "7c2a6e0a270ba50d43046b51957acdd330d27b81", res.SignatureHex)

	for _, raw := range []string{"page=1&flag", "page=1&", "page=1&&x=2"} {
		t.Run(raw, func(t *testing.T) {
			res, err := s.SignRaw("GET", "affiliate-products/", raw, testDate)
			require.NoError(t, err)
			assert.Equal(t, "GETaffiliate-products/?"+raw+"/"+testUser+testDate, res.CanonicalString)
		})
	}
}
