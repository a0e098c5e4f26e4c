package main

import (
	"fmt"

	goose "github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/guttosm/stockpulse/config"
	"github.com/guttosm/stockpulse/db"
	"github.com/guttosm/stockpulse/internal/app"
	"github.com/guttosm/stockpulse/internal/logger"
	"github.com/guttosm/stockpulse/internal/seeding"
	"github.com/guttosm/stockpulse/internal/storage"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|redo|reset|version]",
		Short: "Run the embedded database migrations",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}

			conn, err := app.InitPostgres(config.AppConfig)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			goose.SetBaseFS(db.Migrations)
			if err := goose.SetDialect("postgres"); err != nil {
				return fmt.Errorf("goose dialect: %w", err)
			}
			if err := goose.RunContext(cmd.Context(), command, conn, db.MigrationsDir, args[min(1, len(args)):]...); err != nil {
				return fmt.Errorf("migrate %s: %w", command, err)
			}
			logger.L().Info().Str("command", command).Msg("migration completed")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var opts seeding.Options
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load *_instruments.csv files into the instrument master data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := app.InitPostgres(config.AppConfig)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			res, err := seeding.SeedDirectory(cmd.Context(), dir, storage.NewInstrumentRepository(conn), opts)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			logger.L().Info().Int("files", res.Files).Int("skipped", res.Skipped).Int("rows", res.Rows).Msg("seeding completed successfully")

			if res.Rows > 0 {
				n, err := app.InvalidateMarketCaches(cmd.Context(), config.AppConfig)
				if err != nil {
					logger.L().Warn().Err(err).Msg("cached market views not invalidated")
					return nil
				}
				logger.L().Info().Int("entries", n).Msg("cached market views invalidated")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./data/instruments", "Directory with *_instruments.csv files")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 0, "How many files to process concurrently (0=auto, max 4)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Reload files already seeded with the same checksum")
	return cmd
}

func newWarmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warm",
		Short: "Warm the trending and first prices page caches once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, cleanup, err := app.Build(config.AppConfig)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := c.Warmer.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			logger.L().Info().Strs("warmed", res.Warmed).Strs("skipped", res.Skipped).Msg("cache warm completed")
			return nil
		},
	}
}
