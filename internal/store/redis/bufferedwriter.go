package redis

import (
	"context"
	"log"
	"sync"

	"analysis-systemv1/internal/model"
)

// outcomeSink is the write surface the buffer replays into. *Writer is the
// production implementation; tests substitute their own.
type outcomeSink interface {
	WriteAnalysis(ctx context.Context, res *model.AnalysisResult, payload []byte) error
	WriteBatch(ctx context.Context, writes []OutcomeWrite) error
}

// BufferedWriter wraps the Redis writer with a circuit breaker. While the
// circuit is open, outcome writes are buffered locally and replayed when it
// closes again, so a Redis outage loses at most the oldest entries past the
// buffer cap.
type BufferedWriter struct {
	sink outcomeSink
	cb   *CircuitBreaker
	ctx  context.Context

	mu      sync.Mutex
	buffer  []OutcomeWrite
	maxBuf  int
	dropped uint64

	// Callbacks for metrics
	OnBuffer func()          // called when a write is buffered
	OnFlush  func(count int) // called after replaying buffered writes
}

// NewBufferedWriter wraps sink with cb. maxBufferSize caps the number of
// buffered writes; zero selects the default of 10000.
func NewBufferedWriter(ctx context.Context, sink outcomeSink, cb *CircuitBreaker, maxBufferSize int) *BufferedWriter {
	if maxBufferSize <= 0 {
		maxBufferSize = 10000
	}
	bw := &BufferedWriter{
		sink:   sink,
		cb:     cb,
		ctx:    ctx,
		buffer: make([]OutcomeWrite, 0, 256),
		maxBuf: maxBufferSize,
	}

	// Chain onto any existing transition callback and flush on close.
	prev := cb.OnStateChange
	cb.OnStateChange = func(from, to State) {
		if prev != nil {
			prev(from, to)
		}
		if to == StateClosed {
			go bw.flush()
		}
	}
	return bw
}

// WriteAnalysis writes one outcome through the circuit breaker. If the
// circuit is open the write is buffered and nil is returned; the caller's
// outcome is not lost, only deferred.
func (bw *BufferedWriter) WriteAnalysis(res *model.AnalysisResult, payload []byte) error {
	err := bw.cb.Execute(func() error {
		return bw.sink.WriteAnalysis(bw.ctx, res, payload)
	})
	if err == ErrCircuitOpen {
		bw.bufferWrite(res, payload)
		return nil
	}
	return err
}

func (bw *BufferedWriter) bufferWrite(res *model.AnalysisResult, payload []byte) {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	if len(bw.buffer) >= bw.maxBuf {
		bw.buffer = bw.buffer[1:]
		bw.dropped++
	}
	bw.buffer = append(bw.buffer, OutcomeWrite{Res: *res, Payload: payload})

	if bw.OnBuffer != nil {
		bw.OnBuffer()
	}
}

// flush replays all buffered writes through the sink's batch pipeline. A
// failed replay goes back into the buffer for the next close transition.
func (bw *BufferedWriter) flush() {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return
	}
	toFlush := bw.buffer
	bw.buffer = make([]OutcomeWrite, 0, 256)
	bw.mu.Unlock()

	if err := bw.sink.WriteBatch(bw.ctx, toFlush); err != nil {
		log.Printf("[buffered-writer] replay error (%d writes): %v", len(toFlush), err)
		bw.mu.Lock()
		if room := bw.maxBuf - len(bw.buffer); len(toFlush) > room {
			bw.dropped += uint64(len(toFlush) - room)
			toFlush = toFlush[len(toFlush)-room:]
		}
		bw.buffer = append(toFlush, bw.buffer...)
		bw.mu.Unlock()
		return
	}

	log.Printf("[buffered-writer] flushed %d buffered writes", len(toFlush))
	if bw.OnFlush != nil {
		bw.OnFlush(len(toFlush))
	}
}

// PendingCount returns the number of buffered writes waiting to be flushed.
func (bw *BufferedWriter) PendingCount() int {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return len(bw.buffer)
}

// Dropped returns how many buffered writes were evicted by the cap.
func (bw *BufferedWriter) Dropped() uint64 {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	return bw.dropped
}
