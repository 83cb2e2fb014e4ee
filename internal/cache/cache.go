// Package cache stores fetched price series keyed by symbol and date range.
// Entries expire after a fixed TTL; callers own the cache and pass it in.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"StockLens/internal/model"
)

// DefaultTTL matches the hourly refresh of the upstream quote data.
const DefaultTTL = time.Hour

// Key identifies one fetch.
type Key struct {
	Symbol model.Symbol
	Start  time.Time
	End    time.Time
}

// NewKey normalizes both dates to calendar days.
func NewKey(symbol model.Symbol, start, end time.Time) Key {
	return Key{Symbol: symbol, Start: model.NormalizeDate(start), End: model.NormalizeDate(end)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Symbol, k.Start.Format(model.DateLayout), k.End.Format(model.DateLayout))
}

// Cache is a TTL-bounded store of price series. Implementations are safe for
// concurrent use and never hand out memory shared with the stored entry.
type Cache interface {
	Get(ctx context.Context, key Key) (*model.PriceSeries, bool, error)
	Set(ctx context.Context, key Key, series *model.PriceSeries) error
	Name() string
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, Key) (*model.PriceSeries, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, Key, *model.PriceSeries) error { return nil }
func (Nop) Name() string { return "none" }

// JSON cannot carry NaN, so undefined prices travel as null.
type barDTO struct {
	Date   string   `json:"date"`
	Open   *float64 `json:"open"`
	High   *float64 `json:"high"`
	Low    *float64 `json:"low"`
	Close  *float64 `json:"close"`
	Volume *float64 `json:"volume"`
}

type entryDTO struct {
	Symbol   string    `json:"symbol"`
	StoredAt time.Time `json:"stored_at"`
	Bars     []barDTO  `json:"bars"`
}

func encode(s *model.PriceSeries, storedAt time.Time) ([]byte, error) {
	e := entryDTO{Symbol: string(s.Symbol), StoredAt: storedAt, Bars: make([]barDTO, len(s.Bars))}
	for i, b := range s.Bars {
		e.Bars[i] = barDTO{
			Date:   b.Time.Format(model.DateLayout),
			Open:   ptr(b.Open),
			High:   ptr(b.High),
			Low:    ptr(b.Low),
			Close:  ptr(b.Close),
			Volume: ptr(b.Volume),
		}
	}
	return json.Marshal(e)
}

func decode(data []byte) (*model.PriceSeries, time.Time, error) {
	var e entryDTO
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cache entry: %w", err)
	}
	bars := make([]model.OHLCV, len(e.Bars))
	for i, b := range e.Bars {
		t, err := time.Parse(model.DateLayout, b.Date)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("decode cache entry: %w", err)
		}
		bars[i] = model.OHLCV{Time: t, Open: val(b.Open), High: val(b.High), Low: val(b.Low), Close: val(b.Close), Volume: val(b.Volume)}
	}
	s, err := model.NewPriceSeries(model.Symbol(e.Symbol), bars)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cache entry: %w", err)
	}
	return s, e.StoredAt, nil
}

func ptr(v float64) *float64 {
	if !model.IsDefined(v) {
		return nil
	}
	return &v
}

func val(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// Options selects and configures a backend for Open.
type Options struct {
	Backend       string // memory | redis | file | none
	TTL           time.Duration
	Dir           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the configured backend. A Redis backend is pinged first so a
// bad address fails at startup rather than on every lookup.
func Open(ctx context.Context, o Options) (Cache, error) {
	switch o.Backend {
	case "", "memory":
		return NewMemory(o.TTL), nil
	case "file":
		return NewFile(o.Dir, o.TTL)
	case "redis":
		r := NewRedis(o.RedisAddr, o.RedisPassword, o.RedisDB, o.TTL)
		if err := r.Ping(ctx); err != nil {
			r.Close()
			return nil, fmt.Errorf("redis %s: %w", o.RedisAddr, err)
		}
		return r, nil
	case "none":
		return Nop{}, nil
	}
	return nil, model.NewConfigurationError("cache_backend", o.Backend)
}
