package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// InstrumentRepository defines contract for instrument master-data operations.
type InstrumentRepository interface {
	ListActive(ctx context.Context) ([]models.Instrument, error)
	ListPage(ctx context.Context, limit, offset int) ([]models.Instrument, error)
	CountActive(ctx context.Context) (int64, error)
	UpsertInstruments(ctx context.Context, instruments []models.Instrument) (int64, error)
	HasSeedFile(ctx context.Context, filename, checksum string) (bool, error)
	RecordSeedFile(ctx context.Context, filename, checksum string, rowCount int) error
	Ping(ctx context.Context) error
}

type instrumentRepository struct {
	db *sql.DB
}

func NewInstrumentRepository(db *sql.DB) InstrumentRepository {
	return &instrumentRepository{db: db}
}

// ListActive returns active instruments ordered by id, which fixes the page order.
func (r *instrumentRepository) ListActive(ctx context.Context) ([]models.Instrument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, name, exchange, COALESCE(sector, ''), is_active, last_verified_at
		FROM masterdata.instruments
		WHERE is_active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list active instruments: %w", err)
	}
	return scanInstruments(rows)
}

// ListPage returns one page of all instruments, active or not, ordered by id.
func (r *instrumentRepository) ListPage(ctx context.Context, limit, offset int) ([]models.Instrument, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, symbol, name, exchange, COALESCE(sector, ''), is_active, last_verified_at
		FROM masterdata.instruments
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list instruments page: %w", err)
	}
	return scanInstruments(rows)
}

func scanInstruments(rows *sql.Rows) ([]models.Instrument, error) {
	defer rows.Close()

	out := []models.Instrument{}
	for rows.Next() {
		var (
			inst     models.Instrument
			verified sql.NullTime
		)
		if err := rows.Scan(&inst.ID, &inst.Symbol, &inst.Name, &inst.Exchange, &inst.Sector, &inst.Active, &verified); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		if verified.Valid {
			t := verified.Time
			inst.LastVerifiedAt = &t
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instruments: %w", err)
	}
	return out, nil
}

// CountActive returns the number of active instruments.
func (r *instrumentRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM masterdata.instruments WHERE is_active = TRUE`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active instruments: %w", err)
	}
	return n, nil
}

// UpsertInstruments loads instruments into a transaction-scoped staging table with COPY,
// then merges them into masterdata.instruments keyed by symbol. Later rows win when a
// symbol repeats. Returns the number of rows inserted or updated.
func (r *instrumentRepository) UpsertInstruments(ctx context.Context, instruments []models.Instrument) (int64, error) {
	if len(instruments) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE instruments_staging (
			seq       INTEGER,
			symbol    TEXT,
			name      TEXT,
			exchange  TEXT,
			sector    TEXT,
			is_active BOOLEAN
		) ON COMMIT DROP
	`); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("create staging table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("instruments_staging", "seq", "symbol", "name", "exchange", "sector", "is_active"))
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	toNullString := func(s string) interface{} {
		if s == "" {
			return nil
		}
		return s
	}

	for i, inst := range instruments {
		if _, err := stmt.ExecContext(ctx, i, inst.Symbol, inst.Name, inst.Exchange, toNullString(inst.Sector), inst.Active); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return 0, err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return 0, err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO masterdata.instruments (symbol, name, exchange, sector, is_active)
		SELECT DISTINCT ON (symbol) symbol, name, exchange, sector, is_active
		FROM instruments_staging
		ORDER BY symbol, seq DESC
		ON CONFLICT (symbol)
		DO UPDATE SET name = EXCLUDED.name,
					  exchange = EXCLUDED.exchange,
					  sector = EXCLUDED.sector,
					  is_active = EXCLUDED.is_active,
					  updated_at = NOW()
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("merge staging: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// HasSeedFile reports whether filename was already seeded with the same content checksum.
func (r *instrumentRepository) HasSeedFile(ctx context.Context, filename, checksum string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM masterdata.seed_log WHERE filename = $1 AND checksum = $2)`, filename, checksum).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// RecordSeedFile records (or updates) a seeded file.
func (r *instrumentRepository) RecordSeedFile(ctx context.Context, filename, checksum string, rowCount int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO masterdata.seed_log (filename, checksum, row_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (filename)
		DO UPDATE SET checksum = EXCLUDED.checksum,
					  row_count = EXCLUDED.row_count,
					  seeded_at = NOW()
	`, filename, checksum, rowCount)
	return err
}

// Ping checks database connectivity with a short deadline.
func (r *instrumentRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
