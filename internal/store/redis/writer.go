package redis

import (
	"context"
	"fmt"
	"log"
	"time"
	"unsafe"

	"analysis-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	// Stream trimming: enough history for dashboards without unbounded growth.
	outcomeStreamMaxLen = 1000
	defaultLatestTTL    = 30 * time.Minute
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Writer writes analysis outcomes to Redis.
type Writer struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client}, nil
}

// OutcomeWrite pairs a result with its sanitized payload for batch writes.
type OutcomeWrite struct {
	Res     model.AnalysisResult
	Payload []byte
}

// WriteAnalysis writes one result plus its full sanitized payload in a
// single pipeline: SET latest payload with TTL, XADD the compact result to
// the per-symbol outcome stream, PUBLISH for live subscribers.
func (w *Writer) WriteAnalysis(ctx context.Context, res *model.AnalysisResult, payload []byte) error {
	pipe := w.client.Pipeline()

	// Zero-copy []byte→string (safe: payload is not mutated after this)
	payloadStr := *(*string)(unsafe.Pointer(&payload))
	resBytes := res.JSON()
	resStr := *(*string)(unsafe.Pointer(&resBytes))

	pipe.Set(ctx, "analysis:latest:"+res.Symbol, payloadStr, defaultLatestTTL)
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: "analysis:outcomes:" + res.Symbol,
		MaxLen: outcomeStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": resStr},
	})
	pipe.Publish(ctx, "pub:analysis:"+res.Symbol, resStr)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("redis analysis pipeline for %s: %w", res.Symbol, err)
	}
	return nil
}

// WriteBatch replays multiple outcome writes in a single Redis pipeline.
// Each write lands exactly as WriteAnalysis would have landed it: latest
// payload SET, compact result XADD, PUBLISH.
func (w *Writer) WriteBatch(ctx context.Context, writes []OutcomeWrite) error {
	if len(writes) == 0 {
		return nil
	}

	pipe := w.client.Pipeline()
	for i := range writes {
		res := &writes[i].Res
		payload := writes[i].Payload
		payloadStr := *(*string)(unsafe.Pointer(&payload))
		resBytes := res.JSON()
		resStr := *(*string)(unsafe.Pointer(&resBytes))

		pipe.Set(ctx, "analysis:latest:"+res.Symbol, payloadStr, defaultLatestTTL)
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: "analysis:outcomes:" + res.Symbol,
			MaxLen: outcomeStreamMaxLen,
			Approx: true,
			Values: map[string]interface{}{"data": resStr},
		})
		pipe.Publish(ctx, "pub:analysis:"+res.Symbol, resStr)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis batch pipeline (%d writes): %w", len(writes), err)
	}
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
