package anomaly

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockLens/internal/model"
)

func seriesOf(t *testing.T, closes ...float64) *model.PriceSeries {
	t.Helper()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	s, err := model.NewPriceSeries("TEST", bars)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}

// spiky returns 100 closes cycling 100..102 with one spike of 500 at index 60.
func spiky(t *testing.T) *model.PriceSeries {
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 100 + float64(i%5)*0.5
	}
	closes[60] = 500
	return seriesOf(t, closes...)
}

func TestZScore_Symmetric(t *testing.T) {
	// 16 closes at 100 plus 110 and 90: mean 100, σ = sqrt(200/18) → both tails at z = 3
	closes := make([]float64, 0, 18)
	for i := 0; i < 16; i++ {
		closes = append(closes, 100)
	}
	closes = append(closes, 110, 90)

	d, err := ZScore{Threshold: 2}.Detect(seriesOf(t, closes...))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags, _ := d.Channel(model.ChannelAnomaly)
	if flags[16] != 110 || flags[17] != 90 {
		t.Errorf("expected both tails flagged with their close, got %v / %v", flags[16], flags[17])
	}
	for i := 0; i < 16; i++ {
		if !math.IsNaN(flags[i]) {
			t.Errorf("flags[%d] = %v, want NaN", i, flags[i])
		}
	}
	if Count(d) != 2 {
		t.Errorf("Count = %d, want 2", Count(d))
	}
}

func TestZScore_ZeroVarianceFlagsNothing(t *testing.T) {
	d, err := ZScore{Threshold: 0.1}.Detect(seriesOf(t, 42, 42, 42, 42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Count(d) != 0 {
		t.Errorf("Count = %d, want 0 for constant series", Count(d))
	}
}

func TestZScore_SkipsNaNClose(t *testing.T) {
	d, _ := ZScore{Threshold: 1}.Detect(seriesOf(t, 1, math.NaN(), 1, 1, 1, 1, 1, 1, 1, 50))
	flags, _ := d.Channel(model.ChannelAnomaly)
	if !math.IsNaN(flags[1]) {
		t.Errorf("NaN close flagged: %v", flags[1])
	}
	if flags[9] != 50 {
		t.Errorf("expected spike flagged, got %v", flags[9])
	}
}

func TestZScore_RejectsThreshold(t *testing.T) {
	for _, th := range []float64{0, -1, math.NaN()} {
		if _, err := (ZScore{Threshold: th}).Detect(seriesOf(t, 1, 2)); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("threshold %v: expected ErrConfiguration, got %v", th, err)
		}
	}
}

func TestIsolationForest_FlagsSpike(t *testing.T) {
	d, err := Detect(spiky(t), StrategyIsolation, DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flags, _ := d.Channel(model.ChannelAnomaly)
	if flags[60] != 1 {
		t.Fatalf("spike not flagged: %v", flags[60])
	}
	if n := Count(d); n < 1 || n > 5 {
		t.Errorf("Count = %d, want between 1 and ceil(0.05*100)=5", n)
	}
	scores, _ := d.Channel(model.ChannelAnomalyScore)
	for i, s := range scores {
		if s <= 0 || s > 1 {
			t.Errorf("score[%d] = %v outside (0,1]", i, s)
		}
		if i != 60 && s >= scores[60] {
			t.Errorf("score[%d] = %v not below spike score %v", i, s, scores[60])
		}
	}
}

func TestIsolationForest_Reproducible(t *testing.T) {
	p := DefaultParams()
	p.Seed = 7
	a, _ := Detect(spiky(t), StrategyIsolation, p)
	b, _ := Detect(spiky(t), StrategyIsolation, p)
	sa, _ := a.Channel(model.ChannelAnomalyScore)
	sb, _ := b.Channel(model.ChannelAnomalyScore)
	for i := range sa {
		if math.Float64bits(sa[i]) != math.Float64bits(sb[i]) {
			t.Fatalf("score[%d] differs across runs: %v vs %v", i, sa[i], sb[i])
		}
	}
}

func TestIsolationForest_ConstantSeries(t *testing.T) {
	d, err := IsolationForest{Contamination: 0.1, Trees: 10, SampleSize: 16, Seed: 1}.Detect(seriesOf(t, 5, 5, 5, 5, 5, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Count(d) != 0 {
		t.Errorf("Count = %d, want 0 when every close is equal", Count(d))
	}
}

func TestIsolationForest_NaNClose(t *testing.T) {
	d, _ := IsolationForest{Contamination: 0.2, Trees: 20, SampleSize: 8, Seed: 3}.Detect(seriesOf(t, 10, math.NaN(), 11, 10, 12, 90))
	flags, _ := d.Channel(model.ChannelAnomaly)
	scores, _ := d.Channel(model.ChannelAnomalyScore)
	if !math.IsNaN(flags[1]) || !math.IsNaN(scores[1]) {
		t.Errorf("NaN close must stay undefined, got flag %v score %v", flags[1], scores[1])
	}
	if flags[0] != 0 && flags[0] != 1 {
		t.Errorf("flag must be 0 or 1, got %v", flags[0])
	}
}

func TestIsolationForest_Validation(t *testing.T) {
	cases := []struct {
		name  string
		f     IsolationForest
		param string
	}{
		{"zero contamination", IsolationForest{Contamination: 0, Trees: 1, SampleSize: 1}, "contamination"},
		{"over half", IsolationForest{Contamination: 0.6, Trees: 1, SampleSize: 1}, "contamination"},
		{"no trees", IsolationForest{Contamination: 0.1, Trees: 0, SampleSize: 1}, "trees"},
		{"no samples", IsolationForest{Contamination: 0.1, Trees: 1, SampleSize: 0}, "sample_size"},
	}
	for _, c := range cases {
		_, err := c.f.Detect(seriesOf(t, 1, 2, 3))
		var cfgErr *model.ConfigurationError
		if !errors.As(err, &cfgErr) || cfgErr.Param != c.param {
			t.Errorf("%s: expected ConfigurationError on %s, got %v", c.name, c.param, err)
		}
	}
}

func TestStrategiesStayIndependent(t *testing.T) {
	s := spiky(t)
	z, _ := Detect(s, StrategyZScore, DefaultParams())
	iso, _ := Detect(s, StrategyIsolation, DefaultParams())
	if z.Has(model.ChannelAnomalyScore) {
		t.Error("z-score output must not carry an isolation score channel")
	}
	zf, _ := z.Channel(model.ChannelAnomaly)
	if zf[60] != 500 {
		t.Errorf("z-score overlay should carry the close, got %v", zf[60])
	}
	if Count(z) < 1 || Count(iso) < 1 {
		t.Errorf("both strategies should flag the spike: z=%d iso=%d", Count(z), Count(iso))
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"zscore": StrategyZScore, "Isolation": StrategyIsolation, " iforest ": StrategyIsolation} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("lof"); !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestPoints(t *testing.T) {
	s := spiky(t)
	z, _ := Detect(s, StrategyZScore, DefaultParams())
	pts := Points(s, z)
	if len(pts) != 1 || pts[0].Close != 500 || !pts[0].Date.Equal(s.Bars[60].Time) {
		t.Fatalf("unexpected z-score points: %+v", pts)
	}
	if !math.IsNaN(pts[0].Score) {
		t.Errorf("z-score point score = %v, want NaN", pts[0].Score)
	}

	iso, _ := Detect(s, StrategyIsolation, DefaultParams())
	for _, p := range Points(s, iso) {
		if !(p.Score > 0 && p.Score <= 1) {
			t.Errorf("isolation point %v has score %v", p.Date, p.Score)
		}
	}
}
