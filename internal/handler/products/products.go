// Package products exposes ProfitShare listings over HTTP.
package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/model"
	"github.com/shopmindai/profitshare/internal/profitshare"
	"github.com/shopmindai/profitshare/internal/signer"
)

var ErrBadParams = errors.New("invalid query parameters")

type ProductsHandler struct {
	service ProductService
	log     *zap.Logger
}

func NewProductsHandler(service ProductService, log *zap.Logger) *ProductsHandler {
	return &ProductsHandler{
		service: service,
		log:     log,
	}
}

// GetProducts handles GET /api/v1/products?page=&advertiser=&part_no=.
// advertiser is a comma separated list of numeric ids.
func (h *ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	params, err := parseListParams(r)
	if err != nil {
		h.logAndWriteError(w, err, http.StatusBadRequest, "invalid query parameters",
			zap.String("query", r.URL.RawQuery))
		return
	}

	resp, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		h.logAndWriteError(w, err, statusFor(err), "failed to list products",
			zap.Int("page", params.Page), zap.String("advertiser", params.Advertisers))
		return
	}

	h.writeJSON(w, resp)
}

// GetAdvertisers handles GET /api/v1/advertisers.
func (h *ProductsHandler) GetAdvertisers(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListAdvertisers(r.Context())
	if err != nil {
		h.logAndWriteError(w, err, statusFor(err), "failed to list advertisers")
		return
	}

	h.writeJSON(w, resp)
}

func parseListParams(r *http.Request) (model.ListProductsParams, error) {
	q := r.URL.Query()
	var params model.ListProductsParams

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, fmt.Errorf("%w: page %q", ErrBadParams, raw)
		}
		params.Page = page
	}

	if raw := q.Get("advertiser"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if _, err := strconv.ParseUint(id, 10, 64); err != nil {
				return params, fmt.Errorf("%w: advertiser %q", ErrBadParams, raw)
			}
		}
		params.Advertisers = raw
	}

	if raw := q.Get("part_no"); raw != "" {
		// forwarded unencoded into the signed upstream query
		if err := signer.CheckPlain(raw); err != nil {
			return params, fmt.Errorf("%w: part_no %q", ErrBadParams, raw)
		}
		params.PartNo = raw
	}
	return params, nil
}

// statusFor maps upstream failures onto the status this proxy answers with.
func statusFor(err error) int {
	var apiErr *profitshare.APIError
	switch {
	case errors.Is(err, profitshare.ErrRateLimited):
		return http.StatusServiceUnavailable
	case errors.Is(err, profitshare.ErrUnauthorized):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *ProductsHandler) writeJSON(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.logAndWriteError(w, err, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.log.Debug("failed to write response", zap.Error(err))
	}
}

func (h *ProductsHandler) logAndWriteError(
	w http.ResponseWriter,
	err error,
	statusCode int,
	msg string,
	fields ...zap.Field,
) {
	logEntry := h.log.With(fields...)
	logEntry.Error(msg, zap.Error(err), zap.Int("status", statusCode))
	http.Error(w, msg, statusCode)
}
