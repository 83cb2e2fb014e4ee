// Package metrics exposes Prometheus counters for fetches, cache lookups,
// indicator computation and report delivery.
package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics holds the StockLens collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec   // labels: source, result
	CacheRequests    *prometheus.CounterVec   // labels: result=hit|miss|error
	ComputeDuration  *prometheus.HistogramVec // labels: op
	AnomaliesFlagged *prometheus.CounterVec   // labels: strategy
	ReportsSent      *prometheus.CounterVec   // labels: result
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_fetch_total",
			Help: "Price series fetches by source and result",
		}, []string{"source", "result"}),
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_cache_requests_total",
			Help: "Price cache lookups by result",
		}, []string{"result"}),
		ComputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stocklens_compute_duration_seconds",
			Help:    "Indicator and anomaly computation latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"op"}),
		AnomaliesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_anomalies_flagged_total",
			Help: "Points flagged as anomalies by strategy",
		}, []string{"strategy"}),
		ReportsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stocklens_reports_sent_total",
			Help: "Telegram reports by delivery result",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.FetchTotal,
		m.CacheRequests,
		m.ComputeDuration,
		m.AnomaliesFlagged,
		m.ReportsSent,
	)
	return m
}

func (m *Metrics) ObserveFetch(source string, err error) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, result(err)).Inc()
}

func (m *Metrics) ObserveCache(outcome string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(outcome).Inc()
}

// ObserveCompute records the time elapsed since start under op.
func (m *Metrics) ObserveCompute(op string, start time.Time) {
	if m == nil {
		return
	}
	m.ComputeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveAnomalies(strategy string, n int) {
	if m == nil {
		return
	}
	m.AnomaliesFlagged.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) ObserveReport(err error) {
	if m == nil {
		return
	}
	m.ReportsSent.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Health tracks named dependency checks for /healthz.
type Health struct {
	mu        sync.RWMutex
	checks    map[string]bool
	startedAt time.Time
}

// NewHealth returns a Health with no checks registered.
func NewHealth() *Health {
	return &Health{checks: make(map[string]bool), startedAt: time.Now()}
}

// Set records the state of one dependency.
func (h *Health) Set(name string, ok bool) {
	h.mu.Lock()
	h.checks[name] = ok
	h.mu.Unlock()
}

// ServeHTTP reports 200 when every check passes and 503 otherwise.
func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	for _, ok := range h.checks {
		if !ok {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(struct {
		Status string          `json:"status"`
		Uptime string          `json:"uptime"`
		Checks map[string]bool `json:"checks"`
	}{
		Status: status,
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
		Checks: h.checks,
	})
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer builds the HTTP server for gatherer and health.
func NewServer(addr string, gatherer prometheus.Gatherer, health *Health, log zerolog.Logger) *Server {
	return &Server{srv: &http.Server{Addr: addr, Handler: Handler(gatherer, health)}, log: log}
}

// Handler routes /metrics and /healthz.
func Handler(gatherer prometheus.Gatherer, health *Health) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return mux
}

// Start listens in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
