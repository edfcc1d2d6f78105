package model

import (
	"encoding/json"
	"time"
)

// Bar represents a single OHLCV bar for an instrument at one timestamp.
// Prices and volume are float64 to match the computation backends.
type Bar struct {
	TS     time.Time `json:"ts"` // bar timestamp (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// JSON returns the JSON-encoded bar (ignoring errors for hot-path usage).
func (b *Bar) JSON() []byte {
	out, _ := json.Marshal(b)
	return out
}
