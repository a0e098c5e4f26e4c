package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
)

// DefaultFinnhubBaseURL is the public Finnhub REST endpoint.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub talks to the Finnhub REST API (/quote and /stock/profile2).
type Finnhub struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewFinnhub creates a Finnhub provider. timeout bounds every HTTP call.
func NewFinnhub(baseURL, apiKey string, timeout time.Duration) *Finnhub {
	if baseURL == "" {
		baseURL = DefaultFinnhubBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Finnhub{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// finnhubQuote mirrors the /quote payload.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// finnhubProfile mirrors the /stock/profile2 payload.
type finnhubProfile struct {
	Name      string  `json:"name"`
	Ticker    string  `json:"ticker"`
	Currency  string  `json:"currency"`
	Exchange  string  `json:"exchange"`
	MarketCap float64 `json:"marketCapitalization"`
}

func (f *Finnhub) Name() string { return "finnhub" }

// Quote fetches the latest quote. Finnhub answers unknown symbols with an all-zero
// payload, which is reported as ErrNoData.
func (f *Finnhub) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	var payload finnhubQuote
	if err := f.get(ctx, "/quote", symbol, &payload); err != nil {
		return models.Quote{}, err
	}
	if payload.Current == 0 && payload.PreviousClose == 0 {
		return models.Quote{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return models.Quote{
		Symbol:        symbol,
		CurrentPrice:  payload.Current,
		PreviousClose: payload.PreviousClose,
		DayHigh:       payload.High,
		DayLow:        payload.Low,
		FetchedAt:     f.now().UTC(),
	}, nil
}

// Profile fetches company metadata. Finnhub reports marketCapitalization in millions.
func (f *Finnhub) Profile(ctx context.Context, symbol string) (models.Profile, error) {
	var payload finnhubProfile
	if err := f.get(ctx, "/stock/profile2", symbol, &payload); err != nil {
		return models.Profile{}, err
	}
	if payload.Name == "" && payload.Ticker == "" {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return models.Profile{
		Symbol:    symbol,
		Name:      payload.Name,
		Currency:  payload.Currency,
		MarketCap: payload.MarketCap,
	}, nil
}

func (f *Finnhub) get(ctx context.Context, path, symbol string, out any) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("token", f.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s %s", ErrRateLimited, path, symbol)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("finnhub %s: status=%d body=%s", path, resp.StatusCode, truncate(body, 200))
	}

	if len(body) == 0 || string(body) == "{}" {
		return fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
