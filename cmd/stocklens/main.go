package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"StockLens/internal/analysis"
	"StockLens/internal/cache"
	"StockLens/internal/collector"
	"StockLens/internal/config"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/news"
	"StockLens/internal/notifier"
	"StockLens/internal/recorder"
	"StockLens/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.New("info").Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel)
	log.Info().Str("config", cfgPath).Msg("StockLens starting")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	symbols, _ := cfg.SymbolList()
	strat, params, _ := cfg.AnomalyParams()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	health := metrics.NewHealth()

	// Data source and cache
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.CSVDir, cfg.Proxy)
	if err != nil {
		log.Fatal().Err(err).Msg("init fetcher")
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
		log.Warn().Err(err).Str("backend", cfg.Cache.Backend).Msg("init cache failed, using memory")
		store = cache.NewMemory(cfg.Cache.TTL)
		health.Set("cache", false)
	} else {
		health.Set("cache", true)
	}
	if r, ok := store.(*cache.Redis); ok {
		defer r.Close()
	}
	log.Info().Str("source", fetcher.Name()).Str("cache", store.Name()).Msg("data layer ready")
	col := collector.NewCollector(fetcher, store, m, log)

	// Recorder
	rec, err := recorder.Open(cfg.Database.Driver, cfg.Database.SQLitePath, cfg.Database.PostgresDSN, log)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Database.Driver).Msg("init recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
		health.Set("recorder", false)
	} else {
		health.Set("recorder", true)
	}
	defer rec.Close()

	// News
	var headlines analysis.Headliner
	if cfg.News.APIKey != "" {
		headlines = news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Limit, cfg.Proxy)
	} else {
		log.Info().Msg("news api key not set, headlines disabled")
	}

	svc := analysis.NewService(col, headlines, rec, m, log, analysis.Options{
		Indicators:   cfg.IndicatorRequests(),
		Strategy:     strat,
		Anomaly:      params,
		LookbackDays: cfg.LookbackDays,
	})

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	sched := scheduler.NewScheduler(ctx, svc, tn, symbols, m, log)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.WeeklyCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	srv := metrics.NewServer(cfg.MetricsAddr, reg, health, log)
	srv.Start()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info().Msg("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, executing daily report now")
		go sched.RunDailyNow()
	}

	log.Info().Strs("symbols", cfg.Symbols).Msg("StockLens is running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
	log.Info().Msg("StockLens stopped")
}
