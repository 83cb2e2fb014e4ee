package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"StockLens/internal/analysis"
	"StockLens/internal/anomaly"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/notifier"
)

// Sender delivers rendered reports.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the periodic reports and answers chat commands.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *analysis.Service
	Notifier Sender
	Symbols  []model.Symbol
	Ctx      context.Context

	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

// NewScheduler creates a new Scheduler reporting on symbols.
func NewScheduler(ctx context.Context, svc *analysis.Service, n Sender, symbols []model.Symbol, m *metrics.Metrics, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Notifier: n,
		Symbols:  symbols,
		Ctx:      ctx,
		metrics:  m,
		log:      log.With().Str("component", "scheduler").Logger(),
		now:      time.Now,
	}
}

// RegisterAll registers the daily report and the weekly comparison.
func (s *Scheduler) RegisterAll(dailyCron, weeklyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunDailyNow executes the daily task immediately (for RUN_ON_START).
func (s *Scheduler) RunDailyNow() {
	s.dailyTask()
}

func (s *Scheduler) dailyTask() {
	s.log.Info().Int("symbols", len(s.Symbols)).Msg("running daily report")
	for _, sym := range s.Symbols {
		s.trySend(s.analyze(s.Ctx, sym))
	}
}

func (s *Scheduler) weeklyTask() {
	s.log.Info().Msg("running weekly comparison")
	if len(s.Symbols) < 2 {
		for _, sym := range s.Symbols {
			s.trySend(s.analyze(s.Ctx, sym))
		}
		return
	}
	s.trySend(s.compare(s.Ctx, s.Symbols))
}

// HandleCommand processes a chat command and returns the reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i] // "/analyze@StockLensBot"
	}
	args := fields[1:]

	switch name {
	case "/analyze", "/a":
		sym, err := s.symbolArg(args)
		if err != nil {
			return notifier.FormatError("分析", err)
		}
		return s.analyze(ctx, sym)

	case "/compare", "/c":
		syms, err := model.ParseSymbols(strings.Join(args, ","))
		if err == nil && len(syms) < 2 {
			err = fmt.Errorf("至少需要两个标的, 例如 /compare AAPL,MSFT")
		}
		if err != nil {
			return notifier.FormatError("对比", err)
		}
		return s.compare(ctx, syms)

	case "/anomalies", "/anomaly":
		sym, err := s.symbolArg(args)
		if err != nil {
			return notifier.FormatError("异常检测", err)
		}
		strat := s.Service.Strategy()
		if len(args) > 1 {
			if strat, err = anomaly.ParseStrategy(args[1]); err != nil {
				return notifier.FormatError("异常检测", err)
			}
		}
		start, end := s.Service.Range()
		series, pts, err := s.Service.Anomalies(ctx, sym, start, end, strat)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", string(sym)).Msg("anomaly detection failed")
			return notifier.FormatError("异常检测", err)
		}
		return notifier.FormatAnomalies(sym, strat, series, pts)

	case "/news":
		sym, err := s.symbolArg(args)
		if err != nil {
			return notifier.FormatError("新闻", err)
		}
		articles, err := s.Service.Headlines(ctx, sym)
		if err != nil {
			return notifier.FormatError("新闻", err)
		}
		return notifier.FormatNews(sym, articles, s.now())

	case "/history":
		sym, err := s.symbolArg(args)
		if err != nil {
			return notifier.FormatError("历史", err)
		}
		runs, err := s.Service.History(sym, 10)
		if err != nil {
			return notifier.FormatError("历史", err)
		}
		return notifier.FormatHistory(sym, runs, s.now())

	default:
		return notifier.FormatHelp()
	}
}

// symbolArg parses the first argument, falling back to the first configured symbol.
func (s *Scheduler) symbolArg(args []string) (model.Symbol, error) {
	if len(args) == 0 {
		if len(s.Symbols) == 0 {
			return "", fmt.Errorf("请指定标的, 例如 /analyze AAPL")
		}
		return s.Symbols[0], nil
	}
	return model.ParseSymbol(args[0])
}

func (s *Scheduler) analyze(ctx context.Context, sym model.Symbol) string {
	start, end := s.Service.Range()
	rep, err := s.Service.Analyze(ctx, sym, start, end)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", string(sym)).Msg("analysis failed")
		return notifier.FormatError(string(sym)+" 分析", err)
	}
	return notifier.FormatAnalysisReport(rep)
}

func (s *Scheduler) compare(ctx context.Context, syms []model.Symbol) string {
	start, end := s.Service.Range()
	cmp, err := s.Service.Compare(ctx, syms, start, end)
	if err != nil {
		s.log.Error().Err(err).Msg("comparison failed")
		return notifier.FormatError("对比", err)
	}
	return notifier.FormatComparison(cmp)
}

func (s *Scheduler) trySend(text string) {
	err := s.Notifier.SendWithRetry(s.Ctx, text, 3)
	s.metrics.ObserveReport(err)
	if err != nil {
		s.log.Error().Err(err).Msg("send notification failed")
	}
}
