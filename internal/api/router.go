package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/stockpulse/internal/middleware"
)

// RouterOptions tunes the global middleware chain.
//
// Fields:
//   - RequestTimeout: per-request deadline (default 70s, above the 60s quote batch timeout).
//   - RateLimit: requests per minute per client IP (default 60).
type RouterOptions struct {
	RequestTimeout time.Duration
	RateLimit      int
}

// NewRouter creates a Gin engine with routes configured.
// It receives a Handler instance with all business logic already injected.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, RateLimiter).
//   - Adds the request timeout.
//   - Mounts Swagger docs (/swagger/*any).
//   - Configures API v1 routes (/api/v1/stocks and its market views).
//
// Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 70 * time.Second
	}

	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.RateLimiter(middleware.NewIPRateLimiter(opts.RateLimit)),
	)

	// ─── Timeout ──────────────────────────────────
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Swagger ──────────────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// ─── API v1 ───────────────────────────────────
	stocks := router.Group("/api/v1/stocks")
	{
		stocks.GET("", handler.ListInstruments)
		stocks.GET("/prices", handler.GetStocksWithPrices)
		stocks.GET("/indices", handler.GetMarketIndices)
		stocks.GET("/trending", handler.GetTrendingStocks)
		stocks.GET("/market-summary", handler.GetMarketSummary)
	}

	return router
}
