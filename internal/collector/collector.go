package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/cache"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV // used verbatim when set
	Err   error
	calls atomic.Int64
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times Fetch ran.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

func (m *MockFetcher) Fetch(ctx context.Context, symbol model.Symbol, start, end time.Time) (*model.PriceSeries, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		s, err := model.NewPriceSeries(symbol, m.Bars)
		if err != nil {
			return nil, err
		}
		return s.Between(start, end), nil
	}
	bars := generateMockBars(m.Price, start, end)
	if len(bars) == 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, ErrNoData)
	}
	return model.NewPriceSeries(symbol, bars)
}

// generateMockBars produces one weekday bar per day in [start, end] following
// a slow sine wave around basePrice.
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	var bars []model.OHLCV
	i := 0
	for d := model.NormalizeDate(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/10) + float64(i)*0.0005)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Collector loads price series through a cache in front of a Fetcher.
type Collector struct {
	Fetcher Fetcher
	cache   cache.Cache
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, c cache.Cache, m *metrics.Metrics, log zerolog.Logger) *Collector {
	if c == nil {
		c = cache.Nop{}
	}
	return &Collector{
		Fetcher: fetcher,
		cache:   c,
		metrics: m,
		log:     log.With().Str("component", "collector").Str("source", fetcher.Name()).Logger(),
	}
}

// Load returns the daily series of symbol over [start, end]. Provider
// failures, empty results and unparsable payloads all surface as ErrNoData
// with the cause attached; invalid ranges stay configuration errors.
func (c *Collector) Load(ctx context.Context, symbol model.Symbol, start, end time.Time) (*model.PriceSeries, error) {
	key := cache.NewKey(symbol, start, end)

	cached, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.metrics.ObserveCache("error")
		c.log.Warn().Err(err).Str("symbol", string(symbol)).Msg("cache read failed")
	case ok:
		c.metrics.ObserveCache("hit")
		return cached, nil
	default:
		c.metrics.ObserveCache("miss")
	}

	series, err := c.Fetcher.Fetch(ctx, symbol, start, end)
	if err == nil {
		err = usable(series)
	}
	c.metrics.ObserveFetch(c.Fetcher.Name(), err)
	if err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			return nil, err
		}
		c.log.Warn().Err(err).Str("symbol", string(symbol)).Msg("fetch failed")
		if errors.Is(err, ErrNoData) {
			return nil, fmt.Errorf("load %s: %w", symbol, err)
		}
		return nil, fmt.Errorf("load %s: %w: %w", symbol, ErrNoData, err)
	}

	if err := c.cache.Set(ctx, key, series); err != nil {
		c.log.Warn().Err(err).Str("symbol", string(symbol)).Msg("cache write failed")
	}
	c.log.Debug().Str("symbol", string(symbol)).Int("bars", series.Len()).Msg("series loaded")
	return series, nil
}

func usable(s *model.PriceSeries) error {
	if s == nil || s.Len() == 0 {
		return ErrNoData
	}
	for _, c := range s.Closes() {
		if model.IsDefined(c) {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", ErrNoData, model.ErrEmptySeries)
}

// LoadMany loads every symbol concurrently. Symbols that fail are left out of
// the map and reported together in the returned error.
func (c *Collector) LoadMany(ctx context.Context, symbols []model.Symbol, start, end time.Time) (map[model.Symbol]*model.PriceSeries, error) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		out  = make(map[model.Symbol]*model.PriceSeries, len(symbols))
		errs = make([]error, len(symbols))
	)
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym model.Symbol) {
			defer wg.Done()
			s, err := c.Load(ctx, sym, start, end)
			if err != nil {
				errs[i] = err
				return
			}
			mu.Lock()
			out[sym] = s
			mu.Unlock()
		}(i, sym)
	}
	wg.Wait()
	return out, errors.Join(errs...)
}
