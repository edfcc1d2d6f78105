package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"analysis-systemv1/internal/analysis"
	"analysis-systemv1/internal/backend"
	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/metrics"
	"analysis-systemv1/internal/model"
)

func testMux(t *testing.T, snapshots SnapshotReader, latest LatestReader) *http.ServeMux {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := analysis.NewService(catalog.Default(), backend.Detect(), metrics.NewMetrics(), log, analysis.Options{})
	mux := http.NewServeMux()
	RegisterRoutes(mux, svc, snapshots, latest, nil, log)
	return mux
}

func analyzeBody(n int) string {
	base := time.Date(2024, 1, 2, 9, 15, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = model.Bar{TS: base.Add(time.Duration(i) * time.Minute), Open: c, High: c + 2, Low: c - 2, Close: c, Volume: 1000}
	}
	req := analysis.Request{Symbol: "BTCUSDT", Bars: bars, Indicators: []string{"sma", "vwap"}}
	raw, _ := json.Marshal(req)
	return string(raw)
}

func TestAnalyzeEndpoint(t *testing.T) {
	mux := testMux(t, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(analyzeBody(30))))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["symbol"] != "BTCUSDT" || payload["rows"] != 30.0 {
		t.Errorf("unexpected payload header: symbol=%v rows=%v", payload["symbol"], payload["rows"])
	}
	if _, ok := payload["data"]; !ok {
		t.Error("payload missing data")
	}
}

func TestAnalyzeEndpoint_MethodAndBodyErrors(t *testing.T) {
	mux := testMux(t, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader("not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d", rec.Code)
	}

	// Empty bar table is the one fatal analysis error.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"symbol":"X"}`)))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty bars status = %d", rec.Code)
	}
}

func TestDescribeEndpoint(t *testing.T) {
	mux := testMux(t, nil, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/describe", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var desc struct {
		Backends  []struct{ Kind string } `json:"backends"`
		Total     int                     `json:"total"`
		Available int                     `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &desc); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(desc.Backends) != 4 || desc.Total == 0 || desc.Available != desc.Total {
		t.Errorf("unexpected describe: %+v", desc)
	}
}

func TestStoreEndpoints_DisabledStores(t *testing.T) {
	mux := testMux(t, nil, nil)
	for _, path := range []string{"/api/v1/symbols", "/api/v1/outcomes?symbol=X", "/api/v1/latest?symbol=X"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, rec.Code)
		}
	}
}

type fakeStores struct {
	outcomes []model.AnalysisResult
	stream   []model.AnalysisResult
	payload  []byte
}

func (f *fakeStores) ReadOutcomes(symbol string, limit int) ([]model.AnalysisResult, error) {
	return f.outcomes, nil
}

func (f *fakeStores) Symbols() ([]string, error) { return []string{"BTCUSDT"}, nil }

func (f *fakeStores) LatestPayload(ctx context.Context, symbol string) ([]byte, error) {
	return f.payload, nil
}

func (f *fakeStores) RecentOutcomes(ctx context.Context, symbol string, count int64) ([]model.AnalysisResult, error) {
	return f.stream, nil
}

func TestStoreEndpoints_Wired(t *testing.T) {
	stores := &fakeStores{
		outcomes: []model.AnalysisResult{{Symbol: "BTCUSDT", Rows: 30}},
		payload:  []byte(`{"symbol":"BTCUSDT"}`),
	}
	mux := testMux(t, stores, stores)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "BTCUSDT") {
		t.Errorf("symbols: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/outcomes?symbol=BTCUSDT", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("outcomes: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/latest?symbol=BTCUSDT", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != `{"symbol":"BTCUSDT"}` {
		t.Errorf("latest: %d %s", rec.Code, rec.Body.String())
	}

	// Missing symbol parameter.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/latest", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("latest without symbol: %d", rec.Code)
	}

	// Unknown symbol from the latest store yields 404.
	stores.payload = nil
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/latest?symbol=NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("latest unknown symbol: %d", rec.Code)
	}
}

func TestOutcomesEndpoint_RedisFallback(t *testing.T) {
	// With the snapshot store disabled, outcomes come from the Redis
	// outcome stream instead of answering 503.
	stores := &fakeStores{stream: []model.AnalysisResult{{Symbol: "ETHUSDT", Rows: 30}}}
	mux := testMux(t, nil, stores)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/outcomes?symbol=ETHUSDT", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ETHUSDT") {
		t.Fatalf("fallback outcomes: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/outcomes", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("outcomes without symbol: %d", rec.Code)
	}
}
