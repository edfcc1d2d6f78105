// Package notification provides alert delivery to external channels
// (Telegram, webhooks) for analysis events such as skipped indicators
// and backend degradation.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"analysis-systemv1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	Symbol  string     `json:"symbol,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// FromResult builds an alert for an analysis outcome. It returns false when
// the outcome needs no alert, which is the common case of zero skips.
func FromResult(res *model.AnalysisResult) (Alert, bool) {
	if len(res.Skipped) == 0 {
		return Alert{}, false
	}
	lines := make([]string, len(res.Skipped))
	for i, sk := range res.Skipped {
		lines[i] = fmt.Sprintf("%s: %s (%s)", sk.Name, sk.Reason, sk.Library)
	}
	level := AlertWarning
	if len(res.Computed) == 0 {
		// Nothing was computed at all, the analysis effectively failed.
		level = AlertCritical
	}
	return Alert{
		Level:   level,
		Title:   fmt.Sprintf("%d indicator(s) skipped for %s", len(res.Skipped), res.Symbol),
		Message: strings.Join(lines, "\n"),
		Symbol:  res.Symbol,
	}, true
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}
