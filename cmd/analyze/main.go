// Command analyze prints a one-shot report for one or more symbols: the last
// rows of each series, the latest indicator values, their interpretation and
// the flagged anomalies.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"StockLens/internal/analysis"
	"StockLens/internal/anomaly"
	"StockLens/internal/cache"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/logger"
	"StockLens/internal/model"
)

func main() {
	var (
		cfgPath  = flag.String("config", "configs/config.yaml", "config file")
		symbols  = flag.String("symbols", "", "comma separated tickers (default: config symbols)")
		from     = flag.String("start", "", "start date YYYY-MM-DD (default: end - lookback)")
		to       = flag.String("end", "", "end date YYYY-MM-DD (default: today)")
		provider = flag.String("provider", "", "yahoo | csv | mock (default: config)")
		csvDir   = flag.String("csv-dir", "", "directory of <SYMBOL>.csv files")
		backend  = flag.String("cache", "file", "memory | file | redis | none")
		strat    = flag.String("strategy", "", "zscore | isolation (default: config)")
		tail     = flag.Int("tail", 5, "rows of each series to print")
		verbose  = flag.Bool("v", false, "log to stderr")
	)
	flag.Parse()

	log := zerolog.Nop()
	if *verbose {
		log = logger.NewWriter(os.Stderr, "debug")
	}
	if err := run(log, *cfgPath, *symbols, *from, *to, *provider, *csvDir, *backend, *strat, *tail, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(log zerolog.Logger, cfgPath, symbols, from, to, provider, csvDir, backend, strat string, tail int, out io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if symbols != "" {
		cfg.Symbols = strings.Split(symbols, ",")
	}
	if provider != "" {
		cfg.DataSource.Provider = provider
	}
	if csvDir != "" {
		cfg.DataSource.CSVDir = csvDir
	}
	if strat != "" {
		cfg.Anomaly.Strategy = strat
	}
	cfg.Cache.Backend = backend
	if err := cfg.Validate(); err != nil {
		return err
	}
	syms, _ := cfg.SymbolList()
	s, params, _ := cfg.AnomalyParams()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.CSVDir, cfg.Proxy)
	if err != nil {
		return err
	}
	store, err := cache.Open(ctx, cache.Options{
		Backend:       cfg.Cache.Backend,
		TTL:           cfg.Cache.TTL,
		Dir:           cfg.Cache.Dir,
		RedisAddr:     cfg.Cache.Redis.Addr,
		RedisPassword: cfg.Cache.Redis.Password,
		RedisDB:       cfg.Cache.Redis.DB,
	})
	if err != nil {
		return err
	}

	svc := analysis.NewService(collector.NewCollector(fetcher, store, nil, log), nil, nil, nil, log, analysis.Options{
		Indicators:   cfg.IndicatorRequests(),
		Strategy:     s,
		Anomaly:      params,
		LookbackDays: cfg.LookbackDays,
	})

	start, end := svc.Range()
	if to != "" {
		if end, err = time.Parse(model.DateLayout, to); err != nil {
			return fmt.Errorf("-end: %w", err)
		}
		start = end.AddDate(0, 0, -cfg.LookbackDays)
	}
	if from != "" {
		if start, err = time.Parse(model.DateLayout, from); err != nil {
			return fmt.Errorf("-start: %w", err)
		}
	}

	for i, sym := range syms {
		if i > 0 {
			fmt.Fprintln(out)
		}
		rep, err := svc.Analyze(ctx, sym, start, end)
		if err != nil {
			return err
		}
		printReport(out, rep, tail)
	}

	if len(syms) > 1 {
		cmp, err := svc.Compare(ctx, syms, start, end)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		printComparison(out, cmp)
	}
	return nil
}

func printReport(out io.Writer, rep *analysis.Report, tail int) {
	fmt.Fprintf(out, "== %s  %s .. %s  (%d bars)\n\n", rep.Symbol,
		rep.Start.Format(model.DateLayout), rep.End.Format(model.DateLayout), rep.Series.Len())

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Date\tOpen\tHigh\tLow\tClose\tVolume\t")
	for _, b := range rep.Series.Tail(tail) {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", b.Time.Format(model.DateLayout),
			num(b.Open), num(b.High), num(b.Low), num(b.Close), num0(b.Volume))
	}
	w.Flush()

	fmt.Fprintln(out, "\nIndicators (latest defined value):")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range rep.Derived.Names() {
		v, at, ok := rep.Derived.Latest(name)
		if !ok {
			fmt.Fprintf(w, "  %s\tn/a\t\n", name)
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", name, num(v), at.Format(model.DateLayout))
	}
	w.Flush()

	if r := rep.YearRange; r.Days > 0 {
		fmt.Fprintf(out, "\n%d-day range: %s .. %s (position %.0f%%)\n", r.Days, num(r.Low), num(r.High), r.Position*100)
	}

	in := rep.Interpretation
	fmt.Fprintf(out, "\nRSI: %s | MACD: %s | Trend: %s\n", in.RSI, in.MACD, in.Trend)
	printAnomalies(out, rep.Strategy, rep.Anomalies)
}

func printAnomalies(out io.Writer, s anomaly.Strategy, pts []model.Anomaly) {
	fmt.Fprintf(out, "Anomalies (%s): %d\n", s, len(pts))
	for _, p := range pts {
		if model.IsDefined(p.Score) {
			fmt.Fprintf(out, "  %s  %s  score=%.3f\n", p.Date.Format(model.DateLayout), num(p.Close), p.Score)
		} else {
			fmt.Fprintf(out, "  %s  %s\n", p.Date.Format(model.DateLayout), num(p.Close))
		}
	}
}

func printComparison(out io.Writer, cmp *analysis.Comparison) {
	fmt.Fprintln(out, "== Comparison")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Symbol\tFirst\tLast\tChange\tRSI\tMACD\tTrend\t")
	for _, s := range cmp.Summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%+.2f%%\t%s\t%s\t%s\t\n", s.Symbol, num(s.First), num(s.Last), s.ChangePct,
			s.Interpretation.RSI, s.Interpretation.MACD, s.Interpretation.Trend)
	}
	w.Flush()
	if cmp.Failed != nil {
		fmt.Fprintf(out, "partial: %v\n", cmp.Failed)
	}
}

func num(v float64) string {
	if !model.IsDefined(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

func num0(v float64) string {
	if !model.IsDefined(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.0f", v)
}
