package collector

import (
	"context"
	"errors"
	"time"

	"StockLens/internal/model"
)

// ErrNoData is returned when a provider yields nothing usable for a request.
var ErrNoData = errors.New("no data")

// Fetcher retrieves daily bars for one symbol over [start, end].
type Fetcher interface {
	Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) (*model.PriceSeries, error)
	Name() string
}

// NewFetcher picks the provider by name: "yahoo", "csv" (reading csvDir) or
// "mock".
func NewFetcher(provider, csvDir, proxyURL string) (Fetcher, error) {
	switch provider {
	case "", "yahoo":
		return NewYahooFetcher(proxyURL), nil
	case "csv":
		return NewFileFetcher(csvDir), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	}
	return nil, model.NewConfigurationError("provider", provider)
}
