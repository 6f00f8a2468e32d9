package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
	drepo "StockInsight/internal/domain/repository"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/util"
)

// DefaultBaseURL is the Alpha Vantage query endpoint.
const DefaultBaseURL = "https://www.alphavantage.co/query"

// ErrInvalidResponse means the expected time-series block was missing. The
// API answers an unknown symbol and an exhausted key the same way.
var ErrInvalidResponse = errors.New("invalid API response or API limit reached")

// Upstream fields that carry an explanation when the series is absent.
var upstreamMessageKeys = []string{"Error Message", "Note", "Information"}

// Client implements BarFetcher against TIME_SERIES_INTRADAY.
type Client struct {
	baseURL    string
	outputSize string
	loc        *time.Location
	http       *xhttp.Client
	now        func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint (tests point it at httptest).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithOutputSize selects "compact" (latest 100 bars) or "full".
func WithOutputSize(s string) Option {
	return func(c *Client) {
		if s != "" {
			c.outputSize = s
		}
	}
}

// WithLocation sets the timezone the upstream timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(h *xhttp.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithClock sets the clock used to stamp FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an Alpha Vantage client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		outputSize: "full",
		loc:        time.UTC,
		http:       xhttp.NewClient(xhttp.WithTimeout(30 * time.Second)),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.BarFetcher = (*Client)(nil)

// FetchIntraday downloads the intraday series for symbol and returns it
// sorted by ascending time.
func (c *Client) FetchIntraday(ctx context.Context, symbol, apiKey string, interval drepo.Interval) (*models.Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !drepo.IsValidInterval(interval) {
		return nil, fmt.Errorf("unsupported interval %q", interval)
	}

	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: map[string][]string{
			"function":   {"TIME_SERIES_INTRADAY"},
			"symbol":     {symbol},
			"interval":   {string(interval)},
			"outputsize": {c.outputSize},
			"apikey":     {apiKey},
		},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, err)
	}

	series, err := ParseIntraday(body, symbol, interval, c.loc)
	if err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", symbol, err)
	}
	series.FetchedAt = c.now()
	return series, nil
}

// ParseIntraday decodes a TIME_SERIES_INTRADAY document. Values that fail
// numeric coercion become NaN; entries with unreadable timestamps are skipped.
func ParseIntraday(body []byte, symbol string, interval drepo.Interval, loc *time.Location) (*models.Series, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	raw, ok := doc[fmt.Sprintf("Time Series (%s)", interval)]
	if !ok {
		return nil, upstreamError(doc)
	}

	var entries map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	bars := make([]models.Bar, 0, len(entries))
	for ts, fields := range entries {
		t, err := util.ParseMarketTime(ts, loc)
		if err != nil {
			continue
		}
		bars = append(bars, models.Bar{
			Time:   t,
			Open:   number(fields["1. open"]),
			High:   number(fields["2. high"]),
			Low:    number(fields["3. low"]),
			Close:  number(fields["4. close"]),
			Volume: number(fields["5. volume"]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	return &models.Series{
		Symbol:   symbol,
		Interval: string(interval),
		Bars:     bars,
	}, nil
}

func upstreamError(doc map[string]json.RawMessage) error {
	for _, k := range upstreamMessageKeys {
		raw, ok := doc[k]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return fmt.Errorf("%w: %s", ErrInvalidResponse, msg)
		}
	}
	return ErrInvalidResponse
}

// number coerces a JSON string or number to float64, NaN when impossible.
func number(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return math.NaN()
	}
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsInf(f, 0) {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
