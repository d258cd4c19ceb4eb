// Package productservice serves ProfitShare listings through a cache.
package productservice

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/profitshare"
	"github.com/shopmindai/profitshare/internal/service"
)

// ProductsAPI is the upstream the service reads through.
type ProductsAPI interface {
	ListProducts(ctx context.Context, params model.ListProductsParams) (*model.ProductResponse, error)
	ListAdvertisers(ctx context.Context) (*model.AdvertiserResponse, error)
}

type ProductService struct {
	api     ProductsAPI
	storage service.Storage
	ttl     time.Duration
	log     *zap.Logger
}

func NewProductService(api ProductsAPI, storage service.Storage, ttl time.Duration, log *zap.Logger) *ProductService {
	return &ProductService{
		api:     api,
		storage: storage,
		ttl:     ttl,
		log:     log,
	}
}

// ProductsKey is the cache key of a listing: the same unencoded query that
// gets signed, so two requests share an entry only if they sign identically.
func ProductsKey(params model.ListProductsParams) string {
	return "products?" + profitshare.ProductsQuery(params).Encode()
}

const advertisersKey = "advertisers"

func (s *ProductService) ListProducts(ctx context.Context, params model.ListProductsParams) (*model.ProductResponse, error) {
	key := ProductsKey(params)

	var cached model.ProductResponse
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	resp, err := s.api.ListProducts(ctx, params)
	if err != nil {
		return nil, err
	}

	s.store(ctx, key, resp)
	return resp, nil
}

func (s *ProductService) ListAdvertisers(ctx context.Context) (*model.AdvertiserResponse, error) {
	var cached model.AdvertiserResponse
	if s.lookup(ctx, advertisersKey, &cached) {
		return &cached, nil
	}

	resp, err := s.api.ListAdvertisers(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, advertisersKey, resp)
	return resp, nil
}

func (s *ProductService) lookup(ctx context.Context, key string, out any) bool {
	if s.ttl <= 0 {
		return false
	}

	payload, err := s.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, service.ErrCacheMiss) {
			s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(payload, out); err != nil {
		s.log.Warn("dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	s.log.Debug("cache hit", zap.String("key", key))
	return true
}

// store never fails the request; the upstream answer is already in hand.
func (s *ProductService) store(ctx context.Context, key string, v any) {
	if s.ttl <= 0 {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.storage.Put(ctx, key, payload, s.ttl); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
