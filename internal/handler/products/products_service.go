package products

import (
	"context"

	"github.com/shopmindai/profitshare/internal/model"
)

// ProductService is the listing source behind the handlers.
type ProductService interface {
	ListProducts(ctx context.Context, params model.ListProductsParams) (*model.ProductResponse, error)
	ListAdvertisers(ctx context.Context) (*model.AdvertiserResponse, error)
}
