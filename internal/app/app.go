package app

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/internal/api"
	"github.com/guttosm/stockpulse/internal/logger"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Wires Postgres, the cache store, the quote provider and the market service via Build().
//   - Creates the HTTP handler layer and the Gin router.
//   - Registers health and readiness probes (Postgres and cache store).
//   - Starts the cache warmer when WARMER_SCHEDULE is set.
//   - Provides a cleanup function to stop the warmer and close connections.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	c, release, err := Build(cfg)
	if err != nil {
		return nil, nil, err
	}

	handler := api.NewHandler(c.Service)
	router := api.NewRouter(handler, api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimit:      cfg.Server.RateLimit,
	})

	api.NewHealthHandler(map[string]api.Check{
		"postgres": c.Repo.Ping,
		"cache":    c.Store.Ping,
	}).Register(router)

	if cfg.Warmer.Schedule != "" {
		if err := c.Warmer.Start(cfg.Warmer.Schedule); err != nil {
			release()
			return nil, nil, err
		}
	}

	cleanup := func() {
		c.Warmer.Stop(context.Background())
		release()
		logger.L().Info().Msg("resources released")
	}

	return router, cleanup, nil
}
