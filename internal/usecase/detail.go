package usecase

import (
	"context"
	"errors"
	"fmt"

	"StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	"StockInsight/pkg/util"
)

// ErrUnknownSymbol is returned for symbols outside the configured list.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Detail builds the single-symbol view: latest figures plus a forecast.
type Detail struct {
	data       *MarketData
	forecaster *Forecaster
	symbols    map[string]struct{}
}

func NewDetail(data *MarketData, forecaster *Forecaster, symbols []string) *Detail {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range normalizeSymbols(symbols) {
		set[s] = struct{}{}
	}
	return &Detail{data: data, forecaster: forecaster, symbols: set}
}

// Known reports whether symbol is one of the configured symbols.
func (d *Detail) Known(symbol string) bool {
	_, ok := d.symbols[normalizeSymbol(symbol)]
	return ok
}

// Build loads symbol at the default interval.
func (d *Detail) Build(ctx context.Context, symbol string) (*models.Detail, error) {
	return d.BuildInterval(ctx, symbol, d.data.Interval())
}

// BuildInterval loads symbol and forecasts its next close. When the series
// is too short to forecast, the detail without a forecast is returned
// together with ErrInsufficientHistory so callers can still show prices.
func (d *Detail) BuildInterval(ctx context.Context, symbol string, iv domrepo.Interval) (*models.Detail, error) {
	symbol = normalizeSymbol(symbol)
	if !d.Known(symbol) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	s, fromCache, err := d.data.LoadInterval(ctx, symbol, iv)
	if err != nil {
		return nil, err
	}
	last, ok := s.Last()
	if !ok {
		return nil, fmt.Errorf("%w: %s returned no bars", ErrInsufficientHistory, symbol)
	}

	res := &models.Detail{
		Symbol:      symbol,
		LastUpdated: util.FormatMinute(last.Time),
		LastClose:   last.Close,
		PeakToday:   PeakToday(s.Bars),
		FetchedAt:   s.FetchedAt,
		FromCache:   fromCache,
		Series:      s,
	}

	fc, err := d.forecaster.Run(ctx, s)
	if err != nil {
		return res, err
	}
	res.Forecast = fc
	return res, nil
}
