package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"StockLens/internal/anomaly"
	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`
	Indicators   struct {
		MAWindows       []int   `yaml:"ma_windows"`
		EMASpan         int     `yaml:"ema_span"`
		RSIWindow       int     `yaml:"rsi_window"`
		BollingerWindow int     `yaml:"bollinger_window"`
		BollingerK      float64 `yaml:"bollinger_k"`
		MACDFast        int     `yaml:"macd_fast"`
		MACDSlow        int     `yaml:"macd_slow"`
		MACDSignal      int     `yaml:"macd_signal"`
	} `yaml:"indicators"`
	Anomaly struct {
		Strategy      string  `yaml:"strategy"`
		Threshold     float64 `yaml:"threshold"`
		Contamination float64 `yaml:"contamination"`
		Trees         int     `yaml:"trees"`
		SampleSize    int     `yaml:"sample_size"`
		Seed          *uint64 `yaml:"seed"` // nil: DefaultSeed; 0 is a valid seed
	} `yaml:"anomaly"`
	DataSource struct {
		Provider string `yaml:"provider"` // yahoo | csv | mock
		CSVDir   string `yaml:"csv_dir"`
	} `yaml:"data_source"`
	Cache struct {
		Backend string        `yaml:"backend"` // memory | redis | file | none
		TTL     time.Duration `yaml:"ttl"`
		Dir     string        `yaml:"dir"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Database struct {
		Driver      string `yaml:"driver"` // sqlite | postgres | none
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	News struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Limit   int    `yaml:"limit"`
	} `yaml:"news"`
	Schedule struct {
		DailyCron  string `yaml:"daily_cron"`
		WeeklyCron string `yaml:"weekly_cron"`
	} `yaml:"schedule"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	Proxy       string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A .env file next to the config is loaded first;
// variables already set in the process win over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(filepath.Dir(path), ".env")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	str := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &c.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &c.Telegram.ChatID,
		"NEWS_API_KEY":       &c.News.APIKey,
		"HTTPS_PROXY":        &c.Proxy,
		"DATA_PROVIDER":      &c.DataSource.Provider,
		"CSV_DIR":            &c.DataSource.CSVDir,
		"CACHE_BACKEND":      &c.Cache.Backend,
		"REDIS_ADDR":         &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":     &c.Cache.Redis.Password,
		"DB_DRIVER":          &c.Database.Driver,
		"SQLITE_PATH":        &c.Database.SQLitePath,
		"DATABASE_URL":       &c.Database.PostgresDSN,
		"CRON_DAILY":         &c.Schedule.DailyCron,
		"CRON_WEEKLY":        &c.Schedule.WeeklyCron,
		"METRICS_ADDR":       &c.MetricsAddr,
		"LOG_LEVEL":          &c.LogLevel,
		"ANOMALY_STRATEGY":   &c.Anomaly.Strategy,
	}
	for name, dst := range str {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("STOCKLENS_SYMBOLS"); v != "" {
		c.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LookbackDays = n
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Redis.DB = n
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
}

func (c *Config) applyDefaults() {
	if len(c.Symbols) == 0 {
		c.Symbols = []string{"AAPL"}
	}
	if c.LookbackDays == 0 {
		c.LookbackDays = 365
	}
	ind := &c.Indicators
	if len(ind.MAWindows) == 0 {
		ind.MAWindows = []int{20, 50}
	}
	if ind.EMASpan == 0 {
		ind.EMASpan = 20
	}
	if ind.RSIWindow == 0 {
		ind.RSIWindow = 14
	}
	if ind.BollingerWindow == 0 {
		ind.BollingerWindow = 20
	}
	if ind.BollingerK == 0 {
		ind.BollingerK = calculator.DefaultBandWidth
	}
	if ind.MACDFast == 0 {
		ind.MACDFast = calculator.DefaultMACDFast
	}
	if ind.MACDSlow == 0 {
		ind.MACDSlow = calculator.DefaultMACDSlow
	}
	if ind.MACDSignal == 0 {
		ind.MACDSignal = calculator.DefaultMACDSignal
	}

	an := &c.Anomaly
	if an.Strategy == "" {
		an.Strategy = string(anomaly.StrategyZScore)
	}
	if an.Threshold == 0 {
		an.Threshold = anomaly.DefaultThreshold
	}
	if an.Contamination == 0 {
		an.Contamination = anomaly.DefaultContamination
	}
	if an.Trees == 0 {
		an.Trees = anomaly.DefaultTrees
	}
	if an.SampleSize == 0 {
		an.SampleSize = anomaly.DefaultSampleSize
	}
	if an.Seed == nil {
		seed := uint64(anomaly.DefaultSeed)
		an.Seed = &seed
	}

	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.CSVDir == "" {
		c.DataSource.CSVDir = "data/csv"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data/cache"
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stocklens.db"
	}
	if c.News.BaseURL == "" {
		c.News.BaseURL = "https://newsapi.org"
	}
	if c.News.Limit == 0 {
		c.News.Limit = 5
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.WeeklyCron == "" {
		c.Schedule.WeeklyCron = "0 0 8 * * 1"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks value ranges and backend names.
func (c *Config) Validate() error {
	if _, err := c.SymbolList(); err != nil {
		return fmt.Errorf("symbols: %w", err)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("lookback_days must be positive")
	}
	for _, w := range c.Indicators.MAWindows {
		if w <= 0 {
			return fmt.Errorf("indicators.ma_windows: %w", model.NewConfigurationError("window", w))
		}
	}
	if c.Indicators.EMASpan <= 0 || c.Indicators.RSIWindow <= 0 || c.Indicators.BollingerWindow <= 0 ||
		c.Indicators.MACDFast <= 0 || c.Indicators.MACDSlow <= 0 || c.Indicators.MACDSignal <= 0 {
		return fmt.Errorf("indicators: windows and spans must be positive: %w", model.ErrConfiguration)
	}
	if c.Indicators.BollingerK <= 0 {
		return fmt.Errorf("indicators.bollinger_k: %w", model.NewConfigurationError("k", c.Indicators.BollingerK))
	}
	if _, _, err := c.AnomalyParams(); err != nil {
		return fmt.Errorf("anomaly: %w", err)
	}
	switch c.DataSource.Provider {
	case "yahoo", "csv", "mock":
	default:
		return fmt.Errorf("data_source.provider %q: must be yahoo, csv or mock", c.DataSource.Provider)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "file", "none":
	default:
		return fmt.Errorf("cache.backend %q: must be memory, redis, file or none", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	switch c.Database.Driver {
	case "sqlite", "none":
	case "postgres":
		if c.Database.PostgresDSN == "" {
			return fmt.Errorf("database.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q: must be sqlite, postgres or none", c.Database.Driver)
	}
	return nil
}

// RequireTelegram checks the fields the bot daemon cannot run without.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

// SymbolList parses the configured tickers.
func (c *Config) SymbolList() ([]model.Symbol, error) {
	syms, err := model.ParseSymbols(strings.Join(c.Symbols, ","))
	if err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	return syms, nil
}

// IndicatorRequests turns the indicator section into calculator requests.
func (c *Config) IndicatorRequests() []calculator.Request {
	ind := c.Indicators
	var reqs []calculator.Request
	for _, w := range ind.MAWindows {
		reqs = append(reqs, calculator.Request{Kind: calculator.KindSMA, Params: calculator.Params{Window: w}})
	}
	return append(reqs,
		calculator.Request{Kind: calculator.KindEMA, Params: calculator.Params{Span: ind.EMASpan}},
		calculator.Request{Kind: calculator.KindRSI, Params: calculator.Params{Window: ind.RSIWindow}},
		calculator.Request{Kind: calculator.KindMACD, Params: calculator.Params{Fast: ind.MACDFast, Slow: ind.MACDSlow, Signal: ind.MACDSignal}},
		calculator.Request{Kind: calculator.KindBollinger, Params: calculator.Params{Window: ind.BollingerWindow, K: ind.BollingerK}},
	)
}

// AnomalyParams returns the configured strategy and its parameters.
func (c *Config) AnomalyParams() (anomaly.Strategy, anomaly.Params, error) {
	s, err := anomaly.ParseStrategy(c.Anomaly.Strategy)
	if err != nil {
		return "", anomaly.Params{}, err
	}
	p := anomaly.Params{
		Threshold:     c.Anomaly.Threshold,
		Contamination: c.Anomaly.Contamination,
		Trees:         c.Anomaly.Trees,
		SampleSize:    c.Anomaly.SampleSize,
		Seed:          anomaly.DefaultSeed,
	}
	if c.Anomaly.Seed != nil {
		p.Seed = *c.Anomaly.Seed
	}
	if !(p.Threshold > 0) {
		return "", p, model.NewConfigurationError("threshold", p.Threshold)
	}
	if !(p.Contamination > 0 && p.Contamination <= 0.5) {
		return "", p, model.NewConfigurationError("contamination", p.Contamination)
	}
	if p.Trees <= 0 {
		return "", p, model.NewConfigurationError("trees", p.Trees)
	}
	if p.SampleSize <= 0 {
		return "", p, model.NewConfigurationError("sample_size", p.SampleSize)
	}
	return s, p, nil
}
