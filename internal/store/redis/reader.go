package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"analysis-systemv1/internal/model"
)

// Reader provides read-only access to stored analysis outcomes.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a Reader over an existing client. The client lifetime
// belongs to the caller.
func NewReader(client *goredis.Client) *Reader {
	return &Reader{client: client}
}

// LatestPayload returns the latest full analysis payload for a symbol.
// Returns (nil, nil) when no payload is stored.
func (r *Reader) LatestPayload(ctx context.Context, symbol string) ([]byte, error) {
	data, err := r.client.Get(ctx, "analysis:latest:"+symbol).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis GET latest %s: %w", symbol, err)
	}
	return data, nil
}

// RecentOutcomes returns up to count most recent compact outcomes for a
// symbol, newest first.
func (r *Reader) RecentOutcomes(ctx context.Context, symbol string, count int64) ([]model.AnalysisResult, error) {
	msgs, err := r.client.XRevRangeN(ctx, "analysis:outcomes:"+symbol, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("redis XREVRANGE %s: %w", symbol, err)
	}

	results := make([]model.AnalysisResult, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var res model.AnalysisResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
