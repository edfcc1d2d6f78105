package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"analysis-systemv1/internal/model"
)

func TestFromResult_NoSkipsNoAlert(t *testing.T) {
	res := &model.AnalysisResult{Symbol: "BTCUSDT", Computed: []string{"sma"}}
	if _, ok := FromResult(res); ok {
		t.Fatal("clean outcome should not alert")
	}
}

func TestFromResult_SkipsRaiseWarning(t *testing.T) {
	res := &model.AnalysisResult{
		Symbol:   "BTCUSDT",
		Computed: []string{"sma"},
		Skipped: []model.Skip{
			{Name: "atr", Reason: "insufficient data (need 14)", Library: "none"},
		},
	}
	alert, ok := FromResult(res)
	if !ok {
		t.Fatal("skips should alert")
	}
	if alert.Level != AlertWarning {
		t.Errorf("level = %s, want WARNING", alert.Level)
	}
	if alert.Symbol != "BTCUSDT" {
		t.Errorf("symbol = %q", alert.Symbol)
	}
	if !strings.Contains(alert.Message, "insufficient data (need 14)") {
		t.Errorf("message should carry the skip reason: %q", alert.Message)
	}
}

func TestFromResult_NothingComputedIsCritical(t *testing.T) {
	res := &model.AnalysisResult{
		Symbol:  "X",
		Skipped: []model.Skip{{Name: "sma", Reason: "unknown indicator", Library: "none"}},
	}
	alert, ok := FromResult(res)
	if !ok {
		t.Fatal("expected an alert")
	}
	if alert.Level != AlertCritical {
		t.Errorf("level = %s, want CRITICAL", alert.Level)
	}
}

func TestWebhookNotifier_Send(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{
		Level: AlertWarning, Title: "test", Message: "body", Symbol: "BTCUSDT",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if received["level"] != "WARNING" || received["symbol"] != "BTCUSDT" {
		t.Errorf("unexpected payload: %v", received)
	}
}

func TestWebhookNotifier_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Title: "x"}); err == nil {
		t.Fatal("expected error on 502")
	}
}
