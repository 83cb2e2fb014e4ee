// Package analysis runs the load, compute, detect, interpret pipeline for
// one or more symbols and assembles reports for rendering.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"StockLens/internal/anomaly"
	"StockLens/internal/calculator"
	"StockLens/internal/collector"
	"StockLens/internal/compare"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/news"
	"StockLens/internal/recorder"
	"StockLens/internal/strategy"
)

// Headliner returns recent articles for a symbol.
type Headliner interface {
	Headlines(ctx context.Context, symbol model.Symbol) ([]news.Article, error)
}

// Options controls what every analysis computes.
type Options struct {
	Indicators   []calculator.Request
	Strategy     anomaly.Strategy
	Anomaly      anomaly.Params
	LookbackDays int
}

// DefaultOptions uses the standard overlays, z-score detection and one year
// of history.
func DefaultOptions() Options {
	return Options{
		Indicators:   calculator.StandardRequests(),
		Strategy:     anomaly.StrategyZScore,
		Anomaly:      anomaly.DefaultParams(),
		LookbackDays: 365,
	}
}

// Report is the full outcome of analysing one symbol.
type Report struct {
	RunID          string
	Symbol         model.Symbol
	Start, End     time.Time
	Series         *model.PriceSeries
	Derived        *model.DerivedSeries
	Strategy       anomaly.Strategy
	Anomalies      []model.Anomaly
	Latest         strategy.LatestValues
	Interpretation model.Interpretation
	YearRange      calculator.PriceRange // zero Days when unavailable
	Headlines      []news.Article
}

// Service wires the collector to the computation core.
type Service struct {
	collector *collector.Collector
	news      Headliner
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	log       zerolog.Logger
	opts      Options
	now       func() time.Time
}

// NewService creates a Service. hl and rec may be nil.
func NewService(col *collector.Collector, hl Headliner, rec recorder.Recorder, m *metrics.Metrics, log zerolog.Logger, opts Options) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if len(opts.Indicators) == 0 {
		opts.Indicators = calculator.StandardRequests()
	}
	if opts.Strategy == "" {
		opts.Strategy = anomaly.StrategyZScore
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 365
	}
	return &Service{
		collector: col,
		news:      hl,
		recorder:  rec,
		metrics:   m,
		log:       log.With().Str("component", "analysis").Logger(),
		opts:      opts,
		now:       time.Now,
	}
}

// Range returns the default [start, end] window ending today.
func (s *Service) Range() (time.Time, time.Time) {
	end := model.NormalizeDate(s.now())
	return end.AddDate(0, 0, -s.opts.LookbackDays), end
}

// Strategy returns the configured anomaly strategy.
func (s *Service) Strategy() anomaly.Strategy { return s.opts.Strategy }

// Analyze loads symbol over [start, end], computes the configured indicators,
// detects anomalies, interprets the latest values and records the run.
// Headline failures are logged and leave Headlines empty.
func (s *Service) Analyze(ctx context.Context, symbol model.Symbol, start, end time.Time) (*Report, error) {
	series, err := s.collector.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	rep, err := s.compute(series, s.opts.Strategy, s.opts.Anomaly)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	rep.Start, rep.End = start, end

	if s.news != nil {
		headlines, err := s.news.Headlines(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", string(symbol)).Msg("headlines unavailable")
		}
		rep.Headlines = headlines
	}

	s.record(rep)
	s.log.Info().
		Str("symbol", string(symbol)).
		Str("run_id", rep.RunID).
		Int("bars", series.Len()).
		Int("anomalies", len(rep.Anomalies)).
		Str("rsi", string(rep.Interpretation.RSI)).
		Str("macd", string(rep.Interpretation.MACD)).
		Str("trend", string(rep.Interpretation.Trend)).
		Msg("analysis complete")
	return rep, nil
}

// Anomalies runs only the detection step with an explicit strategy.
func (s *Service) Anomalies(ctx context.Context, symbol model.Symbol, start, end time.Time, strat anomaly.Strategy) (*model.PriceSeries, []model.Anomaly, error) {
	series, err := s.collector.Load(ctx, symbol, start, end)
	if err != nil {
		return nil, nil, err
	}
	pts, err := s.detect(series, strat, s.opts.Anomaly)
	if err != nil {
		return nil, nil, fmt.Errorf("anomalies %s: %w", symbol, err)
	}
	return series, pts, nil
}

// Headlines proxies to the news provider.
func (s *Service) Headlines(ctx context.Context, symbol model.Symbol) ([]news.Article, error) {
	if s.news == nil {
		return nil, errors.New("news provider not configured")
	}
	return s.news.Headlines(ctx, symbol)
}

// History returns recorded runs of symbol, newest first.
func (s *Service) History(symbol model.Symbol, limit int) ([]recorder.Snapshot, error) {
	return s.recorder.History(symbol, limit)
}

func (s *Service) compute(series *model.PriceSeries, strat anomaly.Strategy, p anomaly.Params) (*Report, error) {
	start := time.Now()
	derived, err := calculator.ComputeAll(series, withTrendOverlays(s.opts.Indicators))
	s.metrics.ObserveCompute("indicators", start)
	if err != nil {
		return nil, err
	}

	pts, err := s.detect(series, strat, p)
	if err != nil {
		return nil, err
	}

	latest := strategy.LatestFrom(series, derived)
	rep := &Report{
		RunID:          uuid.NewString(),
		Symbol:         series.Symbol,
		Series:         series,
		Derived:        derived,
		Strategy:       strat,
		Anomalies:      pts,
		Latest:         latest,
		Interpretation: strategy.Interpret(latest),
	}
	if r, err := calculator.CalculateRange(series.Bars, calculator.YearTradingDays); err == nil {
		rep.YearRange = r
	}
	return rep, nil
}

func (s *Service) detect(series *model.PriceSeries, strat anomaly.Strategy, p anomaly.Params) ([]model.Anomaly, error) {
	start := time.Now()
	d, err := anomaly.Detect(series, strat, p)
	s.metrics.ObserveCompute("anomaly", start)
	if err != nil {
		return nil, err
	}
	pts := anomaly.Points(series, d)
	s.metrics.ObserveAnomalies(string(strat), len(pts))
	return pts, nil
}

func (s *Service) record(rep *Report) {
	snap := &recorder.Snapshot{
		RunID:          rep.RunID,
		Symbol:         rep.Symbol,
		CreatedAt:      s.now(),
		Start:          rep.Start,
		End:            rep.End,
		Close:          rep.Latest.Price,
		RSI:            rep.Latest.RSI,
		MACD:           rep.Latest.MACD,
		Signal:         rep.Latest.Signal,
		MA20:           rep.Latest.MA20,
		MA50:           rep.Latest.MA50,
		Interpretation: rep.Interpretation,
		Strategy:       string(rep.Strategy),
		AnomalyCount:   len(rep.Anomalies),
		Anomalies:      rep.Anomalies,
	}
	if last, ok := rep.Series.Last(); ok {
		snap.AsOf = last.Time
	}
	if err := s.recorder.RecordAnalysis(snap); err != nil {
		s.log.Error().Err(err).Str("symbol", string(rep.Symbol)).Msg("record analysis failed")
	}
}

// withTrendOverlays appends MA20 and MA50 when the requests lack them so the
// trend rule always has its inputs.
func withTrendOverlays(reqs []calculator.Request) []calculator.Request {
	have := map[int]bool{}
	for _, r := range reqs {
		if r.Kind == calculator.KindSMA {
			have[r.Params.Window] = true
		}
	}
	out := append([]calculator.Request(nil), reqs...)
	for _, w := range []int{20, 50} {
		if !have[w] {
			out = append(out, calculator.Request{Kind: calculator.KindSMA, Params: calculator.Params{Window: w}})
		}
	}
	return out
}

// Summary is the per-symbol line of a comparison.
type Summary struct {
	Symbol         model.Symbol
	First, Last    float64
	ChangePct      float64
	Interpretation model.Interpretation
}

// Comparison aligns several symbols on one date axis.
type Comparison struct {
	Start, End time.Time
	Frame      *model.MultiSeriesFrame
	Tails      []compare.SymbolTail
	Summaries  []Summary
	// Failed holds the load errors of symbols left out of the frame.
	Failed error
}

// Compare loads every symbol, aligns them on the union of their dates and
// summarizes each one in parallel. Symbols that fail to load are reported in
// Failed; the call errors only when none loaded.
func (s *Service) Compare(ctx context.Context, symbols []model.Symbol, start, end time.Time) (*Comparison, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("compare: at least one symbol is required")
	}
	loaded, loadErr := s.collector.LoadMany(ctx, symbols, start, end)
	if len(loaded) == 0 {
		return nil, fmt.Errorf("compare: %w", loadErr)
	}

	frame, err := compare.Align(loaded)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	reqs := withTrendOverlays(s.opts.Indicators)
	results, err := compare.Each(loaded, func(sym model.Symbol, series *model.PriceSeries) (Summary, error) {
		derived, err := calculator.ComputeAll(series, reqs)
		if err != nil {
			return Summary{}, err
		}
		sum := Summary{Symbol: sym, Interpretation: strategy.Interpret(strategy.LatestFrom(series, derived))}
		sum.First, sum.Last = firstLastClose(series)
		if model.IsDefined(sum.First) && sum.First != 0 {
			sum.ChangePct = (sum.Last - sum.First) / sum.First * 100
		}
		return sum, nil
	})
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	cmp := &Comparison{
		Start:  start,
		End:    end,
		Frame:  frame,
		Tails:  compare.Tail(frame, compare.DefaultTail),
		Failed: loadErr,
	}
	for _, r := range results {
		cmp.Summaries = append(cmp.Summaries, r.Value)
	}
	if loadErr != nil {
		s.log.Warn().Err(loadErr).Int("loaded", len(loaded)).Int("requested", len(symbols)).Msg("comparison is partial")
	}
	return cmp, nil
}

func firstLastClose(series *model.PriceSeries) (float64, float64) {
	closes := series.Closes()
	first, last := closes[0], closes[len(closes)-1]
	for _, c := range closes {
		if model.IsDefined(c) {
			first = c
			break
		}
	}
	for i := len(closes) - 1; i >= 0; i-- {
		if model.IsDefined(closes[i]) {
			last = closes[i]
			break
		}
	}
	return first, last
}
