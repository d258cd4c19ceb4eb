package handler

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/handler/middlewares"
	"github.com/shopmindai/profitshare/internal/handler/middlewares/compressor"
	"github.com/shopmindai/profitshare/internal/handler/ping"
	"github.com/shopmindai/profitshare/internal/handler/products"
	"github.com/shopmindai/profitshare/internal/service"
)

func SetupHandler(
	storage service.Storage,
	productService products.ProductService,
	gatherer prometheus.Gatherer,
	activeRequests *sync.WaitGroup,
	log *zap.Logger,
	shutdownChan <-chan struct{},
	cfg config.ServerFlags,
) http.Handler {
	r := chi.NewRouter()

	setupMiddlewares(
		r,
		compressor.NewHTTPGzipAdapter(),
		activeRequests,
		shutdownChan,
		cfg.MaxConcurrent,
		log,
	)

	setupPingRoutes(r, ping.NewPingHandler(log, storage))
	setupMetricsRoutes(r, gatherer)
	setupProductRoutes(r, products.NewProductsHandler(productService, log))

	return r
}

func setupMiddlewares(
	r chi.Router,
	compressorService compressor.Compressor,
	activeRequests *sync.WaitGroup,
	shutdownChan <-chan struct{},
	maxConcurrent int,
	log *zap.Logger,
) {
	r.Use(chimiddleware.RequestID)
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.ResponseLogger(log))
	r.Use(middlewares.TrackActiveRequests(activeRequests, shutdownChan))
	r.Use(middlewares.RateLimiter(maxConcurrent, log))
	r.Use(compressor.Compress(compressorService, log))
}

// Ping
func setupPingRoutes(r chi.Router, pingHandler *ping.PingHandler) {
	r.Get("/ping", pingHandler.GetPing)
}

// Metrics. Compression is left to the gzip middleware.
func setupMetricsRoutes(r chi.Router, gatherer prometheus.Gatherer) {
	if gatherer == nil {
		return
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		DisableCompression: true,
	}))
}

// Products
func setupProductRoutes(r chi.Router, productsHandler *products.ProductsHandler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productsHandler.GetProducts)
		r.Get("/advertisers", productsHandler.GetAdvertisers)
	})
}
