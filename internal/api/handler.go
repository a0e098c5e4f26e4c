package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/service"
)

const (
	defaultPage          = 0
	defaultPageSize      = 20
	maxPageSize          = 100
	defaultTrendingLimit = 10
)

// Handler provides HTTP handlers for the market endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the market service
//   - Wrap results in the common response envelope
type Handler struct {
	svc service.MarketService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.MarketService) *Handler {
	return &Handler{svc: svc}
}

// ListInstruments handles GET /api/v1/stocks.
//
// ListInstruments godoc
// @Summary      List instruments
// @Description  Returns one page of the instrument master data (active and inactive) without prices
// @Tags         stocks
// @Produce      json
// @Param        page  query     int  false  "Zero-based page"  default(0)
// @Param        size  query     int  false  "Page size (max 100)"  default(20)
// @Success      200   {object}  dto.BaseResponse{data=[]models.Instrument}  "Success"
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500   {object}  dto.ErrorResponse  "Internal Server Error"
// @Router       /api/v1/stocks [get]
func (h *Handler) ListInstruments(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}

	instruments, err := h.svc.ListInstruments(c.Request.Context(), page, size)
	if err != nil {
		h.fail(c, "failed to list instruments", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(instruments, fmt.Sprintf("%d records", len(instruments))))
}

// GetStocksWithPrices handles GET /api/v1/stocks/prices.
//
// Query Parameters:
//   - page (int, optional): zero-based page number (default 0).
//   - size (int, optional): page size, capped at 100 (default 20).
//
// GetStocksWithPrices godoc
// @Summary      List stocks with live prices
// @Description  Returns one page of eligible active instruments with their latest quote
// @Tags         stocks
// @Produce      json
// @Param        page  query     int  false  "Zero-based page"  default(0)
// @Param        size  query     int  false  "Page size (max 100)"  default(20)
// @Success      200   {object}  dto.BaseResponse{data=[]models.PriceRecord}  "Success"
// @Failure      400   {object}  dto.ErrorResponse  "Bad Request"
// @Failure      504   {object}  dto.ErrorResponse  "Timeout"
// @Router       /api/v1/stocks/prices [get]
func (h *Handler) GetStocksWithPrices(c *gin.Context) {
	page, size, ok := pageQuery(c)
	if !ok {
		return
	}

	records, err := h.svc.GetStocksWithPrices(c.Request.Context(), page, size)
	if err != nil {
		h.fail(c, "failed to fetch stock prices", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(records, fmt.Sprintf("%d records", len(records))))
}

// GetMarketIndices handles GET /api/v1/stocks/indices.
//
// GetMarketIndices godoc
// @Summary      List market indices
// @Description  Returns index snapshots; empty unless index quotes are enabled for the provider tier
// @Tags         stocks
// @Produce      json
// @Success      200  {object}  dto.BaseResponse{data=[]models.IndexRecord}  "Success"
// @Failure      504  {object}  dto.ErrorResponse  "Timeout"
// @Router       /api/v1/stocks/indices [get]
func (h *Handler) GetMarketIndices(c *gin.Context) {
	indices, err := h.svc.GetMarketIndices(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to fetch market indices", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(indices, fmt.Sprintf("%d indices", len(indices))))
}

// GetTrendingStocks handles GET /api/v1/stocks/trending.
//
// GetTrendingStocks godoc
// @Summary      List trending stocks
// @Description  Ranks eligible instruments by volume, then change percent
// @Tags         stocks
// @Produce      json
// @Param        limit  query     int  false  "Maximum records (max 100)"  default(10)
// @Success      200    {object}  dto.BaseResponse{data=[]models.TrendingRecord}  "Success"
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      504    {object}  dto.ErrorResponse  "Timeout"
// @Router       /api/v1/stocks/trending [get]
func (h *Handler) GetTrendingStocks(c *gin.Context) {
	limit, err := intQuery(c, "limit", defaultTrendingLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid limit", err))
		return
	}
	limit = min(limit, maxPageSize)

	trending, err := h.svc.GetTrendingStocks(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "failed to fetch trending stocks", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(trending, fmt.Sprintf("%d trending stocks", len(trending))))
}

// GetMarketSummary handles GET /api/v1/stocks/market-summary.
//
// GetMarketSummary godoc
// @Summary      Market summary
// @Description  Indices, top trending stocks, active instrument count and market status
// @Tags         stocks
// @Produce      json
// @Success      200  {object}  dto.BaseResponse{data=models.MarketSummary}  "Success"
// @Failure      504  {object}  dto.ErrorResponse  "Timeout"
// @Router       /api/v1/stocks/market-summary [get]
func (h *Handler) GetMarketSummary(c *gin.Context) {
	summary, err := h.svc.GetMarketSummary(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to build market summary", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(summary, "market summary"))
}

// fail maps a service error to a status code.
func (h *Handler) fail(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, service.ErrInvalidSize),
		errors.Is(err, service.ErrInvalidLimit):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error().Err(err).Msg(message)
	}
	c.JSON(status, dto.NewErrorResponse(message, err))
}

// pageQuery reads page and size, capping size. It writes the 400 itself and
// reports false on malformed input.
func pageQuery(c *gin.Context) (page, size int, ok bool) {
	page, err := intQuery(c, "page", defaultPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid page", err))
		return 0, 0, false
	}
	size, err = intQuery(c, "size", defaultPageSize)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid size", err))
		return 0, 0, false
	}
	return page, min(size, maxPageSize), true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}
