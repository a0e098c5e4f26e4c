package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*instrumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &instrumentRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

func TestListActive_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	verified := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "symbol", "name", "exchange", "sector", "is_active", "last_verified_at"}).
		AddRow(int64(1), "AAPL", "Apple Inc.", "NASDAQ", "Technology", true, verified).
		AddRow(int64(2), "VOD", "Vodafone Group", "LSE", "", true, nil)
	mock.ExpectQuery(`SELECT id, symbol, name, exchange, COALESCE\(sector, ''\), is_active, last_verified_at\s+FROM masterdata.instruments\s+WHERE is_active = TRUE\s+ORDER BY id`).
		WillReturnRows(rows)

	out, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(out) != 2 || out[0].Symbol != "AAPL" || out[1].Exchange != "LSE" {
		t.Fatalf("unexpected instruments %+v", out)
	}
	if out[0].LastVerifiedAt == nil || !out[0].LastVerifiedAt.Equal(verified) || out[1].LastVerifiedAt != nil {
		t.Fatalf("unexpected last_verified_at mapping %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListActive_QueryError(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`FROM masterdata.instruments`).WillReturnError(dummyErr{})
	if _, err := repo.ListActive(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestListPage_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "symbol", "name", "exchange", "sector", "is_active", "last_verified_at"}).
		AddRow(int64(21), "TWTR", "Twitter Inc.", "NYSE", "Communication Services", false, nil)
	mock.ExpectQuery(`FROM masterdata.instruments\s+ORDER BY id\s+LIMIT \$1 OFFSET \$2`).
		WithArgs(20, 20).
		WillReturnRows(rows)

	out, err := repo.ListPage(context.Background(), 20, 20)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if len(out) != 1 || out[0].Symbol != "TWTR" || out[0].Active {
		t.Fatalf("unexpected page %+v", out)
	}

	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).WithArgs(20, 1000).
		WillReturnRows(sqlmock.NewRows([]string{"id", "symbol", "name", "exchange", "sector", "is_active", "last_verified_at"}))
	out, err = repo.ListPage(context.Background(), 20, 1000)
	if err != nil || out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil page, got %v %v", out, err)
	}

	mock.ExpectQuery(`LIMIT`).WillReturnError(dummyErr{})
	if _, err := repo.ListPage(context.Background(), 20, 0); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountActive_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM masterdata.instruments WHERE is_active = TRUE`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))
	n, err := repo.CountActive(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("CountActive: n=%d err=%v", n, err)
	}
}

func TestSeedLog_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM masterdata.seed_log WHERE filename = $1 AND checksum = $2)`)).
		WithArgs("us_instruments.csv", "abc").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.HasSeedFile(ctx, "us_instruments.csv", "abc")
	if err != nil || !ok {
		t.Fatalf("HasSeedFile: ok=%v err=%v", ok, err)
	}

	mock.ExpectExec(`INSERT INTO masterdata.seed_log \(filename, checksum, row_count\)`).
		WithArgs("us_instruments.csv", "abc", 10).
		WillReturnResult(sqlmock.NewResult(1, 1))
	if err := repo.RecordSeedFile(ctx, "us_instruments.csv", "abc", 10); err != nil {
		t.Fatalf("RecordSeedFile: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNewInstrumentRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if r := NewInstrumentRepository(db); r == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestUpsertInstruments_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE instruments_staging`).WillReturnResult(sqlmock.NewResult(0, 0))
	// pq.CopyIn is driver specific; sqlmock only sees a prepared statement executed per row
	// plus the final flush.
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO masterdata.instruments .* ON CONFLICT \(symbol\)`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.UpsertInstruments(context.Background(), []models.Instrument{
		{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Sector: "Technology", Active: true},
		{Symbol: "IBM", Name: "IBM", Exchange: "NYSE", Active: true},
	})
	if err != nil || n != 2 {
		t.Fatalf("UpsertInstruments: n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertInstruments_Empty(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	n, err := repo.UpsertInstruments(context.Background(), nil)
	if err != nil || n != 0 {
		t.Fatalf("expected no-op, got n=%d err=%v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected db calls: %v", err)
	}
}

func TestUpsertInstruments_ErrorOnBegin(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin().WillReturnError(dummyErr{})
	if _, err := repo.UpsertInstruments(context.Background(), []models.Instrument{{Symbol: "X"}}); err == nil {
		t.Fatalf("expected error on begin")
	}
}

func TestUpsertInstruments_ErrorOnRowExec(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE instruments_staging`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnError(dummyErr{})
	mock.ExpectRollback()

	if _, err := repo.UpsertInstruments(context.Background(), []models.Instrument{{Symbol: "X"}}); err == nil {
		t.Fatalf("expected error on row exec")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertInstruments_ErrorOnMerge(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE instruments_staging`).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO masterdata.instruments`).WillReturnError(dummyErr{})
	mock.ExpectRollback()

	if _, err := repo.UpsertInstruments(context.Background(), []models.Instrument{{Symbol: "X"}}); err == nil {
		t.Fatalf("expected merge error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPing_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectPing()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mock.ExpectPing().WillReturnError(dummyErr{})
	if err := repo.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
}
