// Package api provides the HTTP surface of the analysis engine: submit a
// bar table for analysis, inspect the indicator catalog, and read back
// persisted outcomes.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"analysis-systemv1/internal/analysis"
	"analysis-systemv1/internal/model"
	"analysis-systemv1/internal/sanitize"
	"analysis-systemv1/internal/stream"
)

// SnapshotReader reads persisted outcomes from SQLite.
type SnapshotReader interface {
	ReadOutcomes(symbol string, limit int) ([]model.AnalysisResult, error)
	Symbols() ([]string, error)
}

// LatestReader reads persisted outcomes back from Redis: the most recent
// full payload and the per-symbol outcome stream.
type LatestReader interface {
	LatestPayload(ctx context.Context, symbol string) ([]byte, error)
	RecentOutcomes(ctx context.Context, symbol string, count int64) ([]model.AnalysisResult, error)
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux. snapshots
// and latest may be nil when the corresponding store is disabled; their
// endpoints then answer 503. A non-nil hub adds /ws and receives every
// successful outcome.
func RegisterRoutes(mux *http.ServeMux, svc *analysis.Service, snapshots SnapshotReader, latest LatestReader, hub *stream.Hub, log *slog.Logger) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	if hub != nil {
		mux.HandleFunc("/ws", hub.ServeWS)
	}

	// POST: run an analysis over a submitted bar table
	mux.HandleFunc("/api/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, `{"error":"POST only"}`, http.StatusMethodNotAllowed)
			return
		}
		var req analysis.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
			return
		}
		payload, res, err := svc.Analyze(r.Context(), req)
		if err != nil {
			log.Warn("analyze request failed", slog.String("symbol", req.Symbol), slog.Any("err", err))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		raw := sanitize.Marshal(payload)
		if hub != nil {
			hub.Broadcast(res, raw)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	})

	// REST: catalog and backend availability
	mux.HandleFunc("/api/v1/describe", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		writeJSON(w, http.StatusOK, svc.Describe())
	})

	// REST: recent in-memory results, oldest first
	mux.HandleFunc("/api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		writeJSON(w, http.StatusOK, svc.History())
	})

	// REST: symbols with persisted snapshots
	mux.HandleFunc("/api/v1/symbols", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if snapshots == nil {
			http.Error(w, `{"error":"snapshot store disabled"}`, http.StatusServiceUnavailable)
			return
		}
		syms, err := snapshots.Symbols()
		if err != nil {
			log.Warn("symbols read failed", slog.Any("err", err))
			http.Error(w, `{"error":"read failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, syms)
	})

	// REST: persisted outcomes for one symbol, newest first. SQLite is the
	// primary source, the Redis outcome stream covers for a disabled one.
	mux.HandleFunc("/api/v1/outcomes", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if snapshots == nil && latest == nil {
			http.Error(w, `{"error":"outcome stores disabled"}`, http.StatusServiceUnavailable)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			http.Error(w, `{"error":"symbol required"}`, http.StatusBadRequest)
			return
		}
		limit := 20
		if s := r.URL.Query().Get("limit"); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				limit = n
			}
		}
		var (
			outcomes []model.AnalysisResult
			err      error
		)
		if snapshots != nil {
			outcomes, err = snapshots.ReadOutcomes(symbol, limit)
		} else {
			outcomes, err = latest.RecentOutcomes(r.Context(), symbol, int64(limit))
		}
		if err != nil {
			log.Warn("outcomes read failed", slog.String("symbol", symbol), slog.Any("err", err))
			http.Error(w, `{"error":"read failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, outcomes)
	})

	// REST: latest full payload for one symbol, straight from Redis
	mux.HandleFunc("/api/v1/latest", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		if latest == nil {
			http.Error(w, `{"error":"latest store disabled"}`, http.StatusServiceUnavailable)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			http.Error(w, `{"error":"symbol required"}`, http.StatusBadRequest)
			return
		}
		raw, err := latest.LatestPayload(r.Context(), symbol)
		if err != nil {
			log.Warn("latest read failed", slog.String("symbol", symbol), slog.Any("err", err))
			http.Error(w, `{"error":"read failed"}`, http.StatusInternalServerError)
			return
		}
		if raw == nil {
			http.Error(w, `{"error":"no payload for symbol"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(raw)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(sanitize.Marshal(v))
}
