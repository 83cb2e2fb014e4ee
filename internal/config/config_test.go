package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockLens/internal/anomaly"
	"StockLens/internal/calculator"
	"StockLens/internal/model"
)

const sampleYAML = `
symbols: [aapl, msft, aapl]
lookback_days: 180
indicators:
  ma_windows: [10, 30]
  rsi_window: 7
anomaly:
  strategy: isolation
  contamination: 0.1
cache:
  backend: file
  ttl: 30m
database:
  driver: none
telegram:
  bot_token: "from-yaml"
  chat_id: "42"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	syms, _ := cfg.SymbolList()
	if len(syms) != 2 || syms[0] != "AAPL" || syms[1] != "MSFT" {
		t.Errorf("symbols = %v, want [AAPL MSFT]", syms)
	}
	if cfg.LookbackDays != 180 || cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("lookback=%d ttl=%v", cfg.LookbackDays, cfg.Cache.TTL)
	}
	if cfg.Indicators.MACDSlow != 26 || cfg.Indicators.BollingerK != 2 {
		t.Errorf("defaults not applied: %+v", cfg.Indicators)
	}
	if cfg.DataSource.Provider != "yahoo" || cfg.News.Limit != 5 {
		t.Errorf("defaults not applied: provider=%s limit=%d", cfg.DataSource.Provider, cfg.News.Limit)
	}

	reqs := cfg.IndicatorRequests()
	if len(reqs) != 6 || reqs[0].Params.Window != 10 || reqs[1].Params.Window != 30 {
		t.Errorf("unexpected requests: %+v", reqs)
	}
	var rsi calculator.Request
	for _, r := range reqs {
		if r.Kind == calculator.KindRSI {
			rsi = r
		}
	}
	if rsi.Params.Window != 7 {
		t.Errorf("rsi window = %d, want 7", rsi.Params.Window)
	}

	s, p, err := cfg.AnomalyParams()
	if err != nil || s != anomaly.StrategyIsolation || p.Contamination != 0.1 || p.Seed != 42 {
		t.Errorf("anomaly = %s %+v %v", s, p, err)
	}
}

func TestLoad_SeedZeroIsKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, "anomaly:\n  strategy: isolation\n  seed: 0\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	_, p, err := cfg.AnomalyParams()
	if err != nil {
		t.Fatalf("anomaly params: %v", err)
	}
	if p.Seed != 0 {
		t.Errorf("seed = %d, want explicit 0", p.Seed)
	}

	cfg, _ = Load(writeConfig(t, "anomaly:\n  seed: 7\n"))
	if _, p, _ := cfg.AnomalyParams(); p.Seed != 7 {
		t.Errorf("seed = %d, want 7", p.Seed)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "from-env")
	t.Setenv("STOCKLENS_SYMBOLS", "nvda,tsla")
	t.Setenv("CACHE_TTL", "5m")

	cfg, err := Load(writeConfig(t, sampleYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.BotToken != "from-env" {
		t.Errorf("token = %q, want env value", cfg.Telegram.BotToken)
	}
	syms, _ := cfg.SymbolList()
	if len(syms) != 2 || syms[0] != "NVDA" {
		t.Errorf("symbols = %v", syms)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	// registered so the value godotenv sets is cleaned up afterwards
	t.Setenv("NEWS_API_KEY", "")
	os.Unsetenv("NEWS_API_KEY")
	t.Setenv("TELEGRAM_CHAT_ID", "process-wins")

	path := writeConfig(t, "symbols: [SPY]\n")
	env := "NEWS_API_KEY=dotenv-key\nTELEGRAM_CHAT_ID=dotenv-chat\n"
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), ".env"), []byte(env), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.News.APIKey != "dotenv-key" {
		t.Errorf("news key = %q, want value from .env", cfg.News.APIKey)
	}
	if cfg.Telegram.ChatID != "process-wins" {
		t.Errorf("chat id = %q, process env must win over .env", cfg.Telegram.ChatID)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if err := cfg.RequireTelegram(); err == nil && os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		t.Error("expected missing telegram token to be reported")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, sampleYAML))
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	cfg := base()
	cfg.Indicators.MAWindows = []int{20, 0}
	if err := cfg.Validate(); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("zero MA window: expected ErrConfiguration, got %v", err)
	}

	cfg = base()
	cfg.Anomaly.Strategy = "lof"
	if err := cfg.Validate(); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("unknown strategy: expected ErrConfiguration, got %v", err)
	}

	cfg = base()
	cfg.Anomaly.Threshold = -1
	if err := cfg.Validate(); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("negative threshold: expected ErrConfiguration, got %v", err)
	}

	cfg = base()
	cfg.Cache.Backend = "memcached"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown cache backend accepted")
	}

	cfg = base()
	cfg.Database.Driver = "postgres"
	cfg.Database.PostgresDSN = ""
	if err := cfg.Validate(); err == nil {
		t.Error("postgres without DSN accepted")
	}

	cfg = base()
	cfg.Symbols = []string{"BAD SYMBOL"}
	if err := cfg.Validate(); !errors.Is(err, model.ErrMalformedInput) {
		t.Errorf("bad symbol: expected ErrMalformedInput, got %v", err)
	}
}
