package seeding

import (
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// expectedHeaders enforces strict column ordering for instrument seed files.
// If the header doesn't match EXACTLY (order + count), seeding must fail.
var expectedHeaders = []string{
	"symbol",
	"name",
	"exchange",
	"sector",
	"active",
}

// parsedFile is the content of one seed file plus the sha256 of its bytes.
type parsedFile struct {
	Instruments []models.Instrument
	Checksum    string
}

// parseFile opens, validates and parses one seed file.
// It fails on:
//   - header not matching expected order/length
//   - a row without symbol, name or exchange
//   - a malformed active flag
//
// It tolerates:
//   - empty sector (stored as NULL)
//   - empty active flag (defaults to true)
func parseFile(ctx context.Context, path string) (parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedFile{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	instruments, err := parseInstruments(ctx, io.TeeReader(f, h))
	if err != nil {
		return parsedFile{}, err
	}
	// drain anything the csv reader did not consume so the checksum covers the whole file
	if _, err := io.Copy(h, f); err != nil {
		return parsedFile{}, fmt.Errorf("checksum: %w", err)
	}
	return parsedFile{Instruments: instruments, Checksum: hex.EncodeToString(h.Sum(nil))}, nil
}

func parseInstruments(ctx context.Context, src io.Reader) ([]models.Instrument, error) {
	r := csv.NewReader(src)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1 // checked explicitly below

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(expectedHeaders) {
		return nil, fmt.Errorf("invalid header length: expected %d, got %d", len(expectedHeaders), len(header))
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")), expectedHeaders[i]) {
			return nil, fmt.Errorf("invalid header at col %d: expected %q, got %q", i+1, expectedHeaders[i], col)
		}
	}

	var out []models.Instrument
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line after %d: %w", line, err)
		}
		line++

		if len(rec) != len(expectedHeaders) {
			return nil, fmt.Errorf("invalid column count on line %d: expected %d got %d", line, len(expectedHeaders), len(rec))
		}
		inst, err := recordToInstrument(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// recordToInstrument converts one CSV row into an Instrument.
// Symbol and exchange are normalized to upper case.
func recordToInstrument(rec []string) (models.Instrument, error) {
	inst := models.Instrument{
		Symbol:   strings.ToUpper(strings.TrimSpace(rec[0])),
		Name:     strings.TrimSpace(rec[1]),
		Exchange: strings.ToUpper(strings.TrimSpace(rec[2])),
		Sector:   strings.TrimSpace(rec[3]),
		Active:   true,
	}
	switch {
	case inst.Symbol == "":
		return models.Instrument{}, errors.New("symbol is required")
	case inst.Name == "":
		return models.Instrument{}, fmt.Errorf("name is required for %s", inst.Symbol)
	case inst.Exchange == "":
		return models.Instrument{}, fmt.Errorf("exchange is required for %s", inst.Symbol)
	}
	if raw := strings.TrimSpace(rec[4]); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return models.Instrument{}, fmt.Errorf("active %q: %w", raw, err)
		}
		inst.Active = active
	}
	return inst, nil
}
