// Package analysis wires the catalog, dispatcher, and stores into the
// engine's public service: take bars and indicator names in, hand a
// JSON-safe payload back, and persist the outcome on the side.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"analysis-systemv1/internal/backend"
	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/dispatch"
	"analysis-systemv1/internal/frame"
	"analysis-systemv1/internal/metrics"
	"analysis-systemv1/internal/model"
	"analysis-systemv1/internal/notification"
	"analysis-systemv1/internal/ringbuf"
	"analysis-systemv1/internal/sanitize"
)

// OutcomeWriter persists a result with its full payload to Redis.
type OutcomeWriter interface {
	WriteAnalysis(res *model.AnalysisResult, payload []byte) error
}

// SnapshotWriter persists a result with its full payload to SQLite.
type SnapshotWriter interface {
	SaveSnapshot(res *model.AnalysisResult, payload []byte) error
}

// Request is one analysis call: a bar table plus the indicator names to
// compute over it. An empty Indicators list selects the default set.
type Request struct {
	Symbol     string      `json:"symbol"`
	Bars       []model.Bar `json:"bars"`
	Indicators []string    `json:"indicators"`
}

// Options configures a Service. Store fields are optional: a nil store
// means that persistence layer is disabled and failures in either are
// logged, never surfaced to the caller.
type Options struct {
	DefaultIndicators []string
	HistorySize       int
	Redis             OutcomeWriter
	SQLite            SnapshotWriter
	Notifier          notification.Notifier
}

// Service is the analysis engine facade. Safe for concurrent use: Analyze
// and History may be called from any goroutine. The history window is a
// single-producer ring, so histMu serializes every access to it.
type Service struct {
	dispatcher *dispatch.Dispatcher
	caps       backend.Capabilities
	metrics    *metrics.Metrics
	log        *slog.Logger
	defaults   []string
	redis      OutcomeWriter
	sqlite     SnapshotWriter
	notifier   notification.Notifier

	histMu  sync.Mutex
	history *ringbuf.Ring
}

// NewService builds the service around a catalog and capability set.
func NewService(cat *catalog.Catalog, caps backend.Capabilities, m *metrics.Metrics, log *slog.Logger, opts Options) *Service {
	defaults := opts.DefaultIndicators
	if len(defaults) == 0 {
		defaults = []string{"sma", "ema", "rsi", "bbands", "macd", "atr", "vwap", "ichimoku"}
	}
	size := opts.HistorySize
	if size <= 0 {
		size = 64
	}
	return &Service{
		dispatcher: dispatch.New(cat, backend.NewAdapters(), caps),
		caps:       caps,
		metrics:    m,
		log:        log,
		defaults:   defaults,
		redis:      opts.Redis,
		sqlite:     opts.SQLite,
		notifier:   opts.Notifier,
		history:    ringbuf.New(size),
	}
}

// Analyze computes the requested indicators over the request's bars and
// returns the sanitized payload plus the compact result. Per-indicator
// failures are reported inside the payload; only an unusable bar table is
// an error.
func (s *Service) Analyze(ctx context.Context, req Request) (map[string]any, *model.AnalysisResult, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(req.Bars) == 0 {
		return nil, nil, fmt.Errorf("analysis: no bars for %q", req.Symbol)
	}

	f, err := frame.New(req.Bars)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis: bad bars for %q: %w", req.Symbol, err)
	}

	names := req.Indicators
	if len(names) == 0 {
		names = s.defaults
	}

	out, err := s.dispatcher.Compute(f, names)
	if err != nil {
		return nil, nil, err
	}

	res := &model.AnalysisResult{
		Symbol:   req.Symbol,
		Rows:     out.Frame.Len(),
		Computed: out.Computed,
		Skipped:  out.Skipped,
		Took:     time.Since(start),
		TS:       time.Now().UTC(),
	}

	payload := map[string]any{
		"symbol":              req.Symbol,
		"rows":                out.Frame.Len(),
		"data":                out.Frame.Records(),
		"computed_indicators": out.Computed,
		"skipped_indicators":  out.Skipped,
	}
	clean, _ := sanitize.Value(payload).(map[string]any)

	s.observe(out, res)
	s.persist(res, clean)
	s.notify(res)
	s.record(*res)

	s.log.Info("analysis complete",
		slog.String("symbol", req.Symbol),
		slog.Int("rows", res.Rows),
		slog.Int("computed", len(res.Computed)),
		slog.Int("skipped", len(res.Skipped)),
		slog.Duration("took", res.Took),
	)
	return clean, res, nil
}

// Describe reports the catalog and backend availability snapshot.
func (s *Service) Describe() dispatch.Description {
	return s.dispatcher.Describe()
}

// History returns recent results, oldest first.
func (s *Service) History() []model.AnalysisResult {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	return s.history.Snapshot()
}

// record appends the result to the history window under histMu and counts
// the eviction when the window was full.
func (s *Service) record(res model.AnalysisResult) {
	s.histMu.Lock()
	evicted := s.history.PushEvict(res)
	s.histMu.Unlock()
	if evicted && s.metrics != nil {
		s.metrics.HistoryRingOverflow.Inc()
	}
}

func (s *Service) observe(out *dispatch.Outcome, res *model.AnalysisResult) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysesTotal.Inc()
	s.metrics.ComputeDur.Observe(res.Took.Seconds())
	s.metrics.RowsAnalyzed.Observe(float64(res.Rows))
	for _, name := range out.Computed {
		s.metrics.IndicatorsComputed.WithLabelValues(out.Libraries[name]).Inc()
	}
	for _, sk := range out.Skipped {
		s.metrics.IndicatorsSkipped.WithLabelValues(metrics.ReasonClass(sk.Reason)).Inc()
	}
}

// notify raises an alert for outcomes with skipped indicators. Delivery
// happens off the caller's goroutine and failures are only logged.
func (s *Service) notify(res *model.AnalysisResult) {
	if s.notifier == nil {
		return
	}
	alert, ok := notification.FromResult(res)
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Send(ctx, alert); err != nil {
			s.log.Warn("alert delivery failed", slog.String("symbol", res.Symbol), slog.Any("err", err))
		}
	}()
}

// persist writes the outcome to the optional stores. Store trouble is an
// operational concern, not a caller error.
func (s *Service) persist(res *model.AnalysisResult, payload map[string]any) {
	if s.redis == nil && s.sqlite == nil {
		return
	}
	raw := sanitize.Marshal(payload)

	if s.redis != nil {
		start := time.Now()
		if err := s.redis.WriteAnalysis(res, raw); err != nil {
			s.log.Warn("redis write failed", slog.String("symbol", res.Symbol), slog.Any("err", err))
		} else if s.metrics != nil {
			s.metrics.RedisWriteDur.Observe(time.Since(start).Seconds())
		}
	}
	if s.sqlite != nil {
		start := time.Now()
		if err := s.sqlite.SaveSnapshot(res, raw); err != nil {
			s.log.Warn("sqlite write failed", slog.String("symbol", res.Symbol), slog.Any("err", err))
		} else if s.metrics != nil {
			s.metrics.SQLiteCommitDur.Observe(time.Since(start).Seconds())
		}
	}
}
