package profitshare_test

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/handler/middlewares/signer"
	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/observers"
	"github.com/shopmindai/profitshare/internal/profitshare"
	"github.com/shopmindai/profitshare/internal/service/compressorservice"
	pssigner "github.com/shopmindai/profitshare/internal/signer"
)

const (
	testUser = "burca_denis_68c9b156822ca"
	testKey  = "fd6f6fe5b514f390d1f73d20c0fd1f3d15641139"
)

var fixedNow = time.Date(1994, time.November, 15, 8, 12, 31, 0, time.UTC)

func upstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	auth := signer.PSAuthMiddleware(signer.Options{
		Keys: signer.StaticKeys(map[string]string{testUser: testKey}),
		Now:  func() time.Time { return fixedNow },
	}, zap.NewNop())

	srv := httptest.NewServer(auth(handler))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) *config.ClientFlags {
	return &config.ClientFlags{
		APIUser:     testUser,
		APIKey:      testKey,
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		MaxRetries:  2,
		RetryDelays: []string{"1ms"},
	}
}

func newClient(t *testing.T, cfg *config.ClientFlags, opts ...profitshare.Option) *profitshare.Client {
	t.Helper()
	opts = append([]profitshare.Option{profitshare.WithClock(func() time.Time { return fixedNow })}, opts...)
	c, err := profitshare.NewClient(cfg, zaptest.NewLogger(t), opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListProducts_SignsRequest(t *testing.T) {
	var gotQuery, gotAuth, gotDate, gotAccept string
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get(profitshare.HeaderAuth)
		gotDate = r.Header.Get(profitshare.HeaderDate)
		gotAccept = r.Header.Get(profitshare.HeaderAccept)

		writeJSON(w, model.ProductResponse{Result: model.ProductList{
			CurrentPage: 1,
			TotalPages:  3,
			Products:    []model.Product{{Name: "Telefon", AdvertiserID: 35, PriceVAT: 999.99}},
		}})
	})

	c := newClient(t, testConfig(srv.URL))
	resp, err := c.ListProducts(context.Background(), model.ListProductsParams{Page: 1, Advertisers: "35"})
	require.NoError(t, err)

	assert.Equal(t, "page=1&filters[advertiser]=35", gotQuery)
	assert.Equal(t, "Tue, 15 Nov 1994 08:12:31 GMT", gotDate)
	assert.Equal(t, "7c2a6e0a270ba50d43046b51957acdd330d27b81", gotAuth)
	assert.Equal(t, "json", gotAccept)

	require.Len(t, resp.Result.Products, 1)
	assert.Equal(t, "Telefon", resp.Result.Products[0].Name)
	assert.Equal(t, 3, resp.Result.TotalPages)
}

func TestClient_ListProducts_RejectsUnsafeFilters(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	c := newClient(t, testConfig(srv.URL))

	for _, partNo := range []string{"X&page=9", "A#B", "a=b", "two words"} {
		t.Run(partNo, func(t *testing.T) {
			_, err := c.ListProducts(context.Background(), model.ListProductsParams{Page: 1, PartNo: partNo})
			assert.ErrorIs(t, err, pssigner.ErrInvalidInput)
		})
	}
	assert.Zero(t, calls.Load())
}

func TestClient_ListAdvertisers(t *testing.T) {
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/affiliate-advertisers/", r.URL.Path)
		assert.Equal(t, "edbddde299b7e4d337c5d13cfca92a2be8f39b26", r.Header.Get(profitshare.HeaderAuth))
		writeJSON(w, model.AdvertiserResponse{Result: []model.Advertiser{{ID: 35, Name: "eMAG.ro"}}})
	})

	resp, err := newClient(t, testConfig(srv.URL)).ListAdvertisers(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Result, 1)
	assert.Equal(t, "eMAG.ro", resp.Result[0].Name)
}

func TestClient_WrongKeyIsUnauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	cfg := testConfig(srv.URL)
	cfg.APIKey = "wrong"

	_, err := newClient(t, cfg).ListProducts(context.Background(), model.ListProductsParams{Page: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, profitshare.ErrUnauthorized))

	var apiErr *profitshare.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Zero(t, calls.Load())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, model.ProductResponse{})
	})

	_, err := newClient(t, testConfig(srv.URL)).ListProducts(context.Background(), model.ListProductsParams{})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RateLimitedGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := newClient(t, testConfig(srv.URL)).ListProducts(context.Background(), model.ListProductsParams{})
	assert.ErrorIs(t, err, profitshare.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad filter", http.StatusBadRequest)
	})

	_, err := newClient(t, testConfig(srv.URL)).ListProducts(context.Background(), model.ListProductsParams{PartNo: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad filter")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DecodesGzip(t *testing.T) {
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		body, _ := json.Marshal(model.ProductResponse{Result: model.ProductList{CurrentPage: 7}})
		compressed, err := compressorservice.Compress(body, gzip.BestSpeed)
		require.NoError(t, err)
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressed)
	})

	resp, err := newClient(t, testConfig(srv.URL)).ListProducts(context.Background(), model.ListProductsParams{Page: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Result.CurrentPage)
}

func TestClient_BadJSON(t *testing.T) {
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := newClient(t, testConfig(srv.URL)).ListProducts(context.Background(), model.ListProductsParams{})
	assert.ErrorContains(t, err, "decode")
}

type recorder struct {
	mu     sync.Mutex
	events []model.SignedRequestEvent
}

func (r *recorder) OnSignedRequest(e model.SignedRequestEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestClient_PublishesAuditEvents(t *testing.T) {
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, model.ProductResponse{})
	})

	rec := &recorder{}
	c := newClient(t, testConfig(srv.URL), profitshare.WithPublisher(observers.NewEventPublisher(rec)))

	_, err := c.ListProducts(context.Background(), model.ListProductsParams{Page: 2})
	require.NoError(t, err)

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, http.MethodGet, e.Method)
	assert.Equal(t, "affiliate-products/", e.Route)
	assert.Equal(t, "page=2", e.Query)
	assert.Equal(t, http.StatusOK, e.StatusCode)
	assert.Equal(t, testUser, e.APIUser)
	_, err = uuid.Parse(e.RequestID)
	assert.NoError(t, err)
}

func TestClient_RateLimitBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		writeJSON(w, model.ProductResponse{})
	})

	cfg := testConfig(srv.URL)
	cfg.RateLimit = 2
	c := newClient(t, cfg)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			_, err := c.ListProducts(context.Background(), model.ListProductsParams{Page: page})
			assert.NoError(t, err)
		}(i + 1)
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.APIKey = ""

	_, err := profitshare.NewClient(cfg, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestProductsQuery(t *testing.T) {
	q := profitshare.ProductsQuery(model.ListProductsParams{Page: 2, Advertisers: "45,41", PartNo: "ABC-1"})
	assert.Equal(t, "page=2&filters[advertiser]=45,41&filters[part_no]=ABC-1", q.Encode())
	assert.Empty(t, profitshare.ProductsQuery(model.ListProductsParams{}).Encode())
}
