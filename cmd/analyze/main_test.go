package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRun_MockProvider(t *testing.T) {
	var out bytes.Buffer
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	err := run(zerolog.Nop(), cfg, "aapl,msft", "2024-01-01", "2024-06-28", "mock", "", "none", "isolation", 3, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"== AAPL  2024-01-01 .. 2024-06-28", "== MSFT",
		"Date", "2024-06-28", "MA_20", "RSI", "MACD_Signal", "Upper",
		"Trend:", "-day range:", "Anomalies (ISOLATION)", "== Comparison",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_BadInput(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	var out bytes.Buffer
	if err := run(zerolog.Nop(), cfg, "AAPL", "01/02/2024", "", "mock", "", "none", "", 5, &out); err == nil {
		t.Error("expected error for malformed start date")
	}
	if err := run(zerolog.Nop(), cfg, "AAPL", "", "", "mock", "", "none", "lof", 5, &out); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
