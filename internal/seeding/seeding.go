package seeding

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
)

const (
	filePattern      = "*_instruments.csv"
	defaultBatchSize = 5000
	maxParallel      = 4
)

// ErrNoSeedFiles is returned when the seed directory holds no instrument files.
var ErrNoSeedFiles = errors.New("no " + filePattern + " files found")

// Store is the write side of the instrument master data used by seeding.
type Store interface {
	UpsertInstruments(ctx context.Context, instruments []models.Instrument) (int64, error)
	HasSeedFile(ctx context.Context, filename, checksum string) (bool, error)
	RecordSeedFile(ctx context.Context, filename, checksum string, rowCount int) error
}

// Options tunes a seeding run.
//
// Fields:
//   - Parallel: files processed concurrently (default min(4, NumCPU), clamped to 1..4).
//   - Force: reload files already recorded in the seed log with the same checksum.
//   - BatchSize: instruments per upsert (default 5000).
type Options struct {
	Parallel  int
	Force     bool
	BatchSize int
}

// Result summarizes a seeding run.
type Result struct {
	Files   int
	Skipped int
	Rows    int
}

// SeedDirectory loads every "*_instruments.csv" file in dir into the instrument store.
//
// Behavior:
//   - Files are processed concurrently; the first failure cancels the rest.
//   - A file already recorded with the same sha256 is skipped unless opts.Force is set.
//   - A changed file is re-seeded; upserts keep instrument ids stable.
//
// Returns:
//   - Result: counts of processed files, skipped files and seeded rows.
//   - error: first error encountered (if any).
func SeedDirectory(ctx context.Context, dir string, store Store, opts Options) (Result, error) {
	files, err := filepath.Glob(filepath.Join(dir, filePattern))
	if err != nil {
		return Result{}, fmt.Errorf("list seed files: %w", err)
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%s: %w", dir, ErrNoSeedFiles)
	}
	slices.Sort(files)

	parallel := clampParallel(opts.Parallel)
	batch := opts.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	log := logger.FromContext(ctx)
	log.Info().Int("files", len(files)).Str("dir", dir).Int("max_parallel", parallel).Bool("force", opts.Force).Msg("seeding start")

	var (
		mu  sync.Mutex
		res = Result{Files: len(files)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range files {
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(path)
			flog := log.With().Int("idx", i+1).Int("total", len(files)).Str("file", base).Logger()

			parsed, err := parseFile(gctx, path)
			if err != nil {
				flog.Error().Err(err).Msg("parse failed")
				return fmt.Errorf("file %s: %w", base, err)
			}

			seen, err := store.HasSeedFile(gctx, base, parsed.Checksum)
			if err != nil {
				flog.Error().Err(err).Msg("check seed log failed")
				return fmt.Errorf("file %s: check seed log: %w", base, err)
			}
			if seen && !opts.Force {
				flog.Info().Bool("skipped", true).Msg("already seeded")
				mu.Lock()
				res.Skipped++
				mu.Unlock()
				return nil
			}

			rows := 0
			for chunk := range slices.Chunk(parsed.Instruments, batch) {
				n, err := store.UpsertInstruments(gctx, chunk)
				if err != nil {
					flog.Error().Err(err).Msg("upsert failed")
					return fmt.Errorf("file %s: upsert: %w", base, err)
				}
				rows += int(n)
			}

			if err := store.RecordSeedFile(gctx, base, parsed.Checksum, len(parsed.Instruments)); err != nil {
				flog.Error().Err(err).Msg("update seed log failed")
				return fmt.Errorf("file %s: record seed log: %w", base, err)
			}

			mu.Lock()
			res.Rows += rows
			mu.Unlock()
			flog.Info().Int("rows", rows).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}
	log.Info().Int("files", res.Files).Int("skipped", res.Skipped).Int("rows", res.Rows).Msg("seeding done")
	return res, nil
}

func clampParallel(n int) int {
	if n <= 0 {
		n = min(maxParallel, runtime.NumCPU())
	}
	return max(1, min(n, maxParallel))
}
