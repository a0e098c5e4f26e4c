package main

//
//  @title           stockpulse API
//  @version         1.0
//  @description     Live stock prices, trending stocks and market summary over instrument master data.
//  @termsOfService  https://github.com/guttosm/stockpulse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/stockpulse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        stocks
//  @tag.description Prices, indices, trending stocks and market summary
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guttosm/stockpulse/config"
	_ "github.com/guttosm/stockpulse/docs" // swagger docs
	"github.com/guttosm/stockpulse/internal/app"
	"github.com/guttosm/stockpulse/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// WriteTimeout stays above the router's request timeout so a slow upstream batch
// still gets its response written.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// newRootCmd builds the stockpulse CLI.
//
// Commands:
//   - api:     Starts the REST API (default when no command is given).
//   - migrate: Applies the embedded SQL migrations (up, down, status, ...).
//   - seed:    Loads *_instruments.csv files into the instrument master data.
//   - warm:    Warms the trending and first prices page caches once.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockpulse",
		Short:         "Stock market data aggregation service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			// Load configuration from environment or .env file
			config.LoadConfig()
			// Initialize JSON logger
			logger.Init()
		},
	}

	api := newAPICmd()
	root.RunE = api.RunE
	root.Flags().AddFlagSet(api.Flags())
	root.AddCommand(api, newMigrateCmd(), newSeedCmd(), newWarmCmd())
	return root
}

func newAPICmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Start the REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.L().Info().Msg("starting API server")

			router, cleanup, err := app.InitializeApp()
			if err != nil {
				return err
			}
			if port == "" {
				port = config.AppConfig.Server.Port
			}

			server := startServer(router, port)
			gracefulShutdown(cmd.Context(), server, cleanup)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port for the API server (default SERVER_PORT)")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.L().Fatal().Err(err).Msg("command failed")
	}
}
