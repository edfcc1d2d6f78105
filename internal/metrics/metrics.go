package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the analysis engine. Metrics
// register against their own registry so parallel test instances never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal       prometheus.Counter
	IndicatorsComputed  *prometheus.CounterVec // labels: backend
	IndicatorsSkipped   *prometheus.CounterVec // labels: reason_class
	ComputeDur          prometheus.Histogram
	RedisWriteDur       prometheus.Histogram
	SQLiteCommitDur     prometheus.Histogram
	RowsAnalyzed        prometheus.Histogram
	HistoryRingOverflow prometheus.Counter
}

// NewMetrics builds and registers all analyzer metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_analyses_total",
			Help: "Total analysis requests processed",
		}),
		IndicatorsComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_indicators_computed_total",
			Help: "Indicators computed successfully (by backend)",
		}, []string{"backend"}),
		IndicatorsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analyzer_indicators_skipped_total",
			Help: "Indicators skipped (by reason class)",
		}, []string{"reason_class"}),
		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_compute_duration_seconds",
			Help:    "Full dispatch latency per analysis request",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		RedisWriteDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_redis_write_duration_seconds",
			Help:    "Redis outcome write latency",
			Buckets: prometheus.DefBuckets,
		}),
		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_sqlite_commit_duration_seconds",
			Help:    "SQLite snapshot commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		RowsAnalyzed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyzer_rows_analyzed",
			Help:    "Bar counts per analysis request",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
		}),
		HistoryRingOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analyzer_history_ring_overflow_total",
			Help: "History ring buffer overwrites of unread results",
		}),
	}

	m.registry.MustRegister(
		m.AnalysesTotal,
		m.IndicatorsComputed,
		m.IndicatorsSkipped,
		m.ComputeDur,
		m.RedisWriteDur,
		m.SQLiteCommitDur,
		m.RowsAnalyzed,
		m.HistoryRingOverflow,
	)
	return m
}

// ReasonClass buckets a skip reason into a low-cardinality metric label.
func ReasonClass(reason string) string {
	switch {
	case reason == "unknown indicator":
		return "unknown"
	case len(reason) >= 17 && reason[:17] == "insufficient data":
		return "insufficient_data"
	case len(reason) >= 7 && reason[:7] == "Missing":
		return "missing_columns"
	default:
		return "backend_failure"
	}
}

// HealthStatus represents the analyzer's dependency health.
type HealthStatus struct {
	mu sync.RWMutex

	RedisConnected bool `json:"redis_connected"`
	SQLiteOK       bool `json:"sqlite_ok"`
	BackendsUsable int  `json:"backends_usable"`

	LastAnalysisAt  time.Time `json:"last_analysis_at"`
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetBackendsUsable(n int) {
	h.mu.Lock()
	h.BackendsUsable = n
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastAnalysisAt(t time.Time) {
	h.mu.Lock()
	h.LastAnalysisAt = t
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite runs a trivial query and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if sqlDB != nil {
					h.CheckSQLite(probeCtx, sqlDB)
				}
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint. Stores are optional, so health
// degrades rather than fails when a persistence dependency is down.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.RedisConnected || !h.SQLiteOK {
		overallStatus = "degraded"
	}
	if h.BackendsUsable == 0 {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	lastAnalysis := ""
	if !h.LastAnalysisAt.IsZero() {
		lastAnalysis = h.LastAnalysisAt.Format(time.RFC3339)
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		BackendsUsable  int     `json:"backends_usable"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		LastAnalysisAt  string  `json:"last_analysis_at"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		BackendsUsable:  h.BackendsUsable,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		LastAnalysisAt:  lastAnalysis,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server bound to m's registry.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
