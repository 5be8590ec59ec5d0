package stream

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/BaSui01/uiflow/llm"
)

var (
	ErrBufferFull   = errors.New("buffer full, backpressure applied")
	ErrStreamClosed = errors.New("stream closed")
)

// BufferConfig configures the chunk buffer between the decoder task and the
// extraction/validation task.
type BufferConfig struct {
	Size          int           `json:"size"`
	HighWaterMark float64       `json:"high_water_mark"` // 0.0-1.0
	PushPolicy    PushPolicy    `json:"push_policy"`
	IdleTTL       time.Duration `json:"idle_ttl"`
}

// PushPolicy defines producer behavior when the buffer is full. Dropping
// chunks is deliberately not offered: a dropped delta would garble the JSON
// being accumulated downstream, so producers either wait or fail.
type PushPolicy int

const (
	PushPolicyBlock PushPolicy = iota // block producer until space frees
	PushPolicyError                   // fail fast with ErrBufferFull
)

// DefaultBufferConfig returns defaults sized for token-rate streams.
func DefaultBufferConfig() BufferConfig {
	return BufferConfig{
		Size:          256,
		HighWaterMark: 0.8,
		PushPolicy:    PushPolicyBlock,
		IdleTTL:       30 * time.Second,
	}
}

// Buffer is a bounded, order-preserving queue of StreamChunks with
// backpressure toward the producing decoder goroutine.
type Buffer struct {
	config BufferConfig
	ch     chan llm.StreamChunk
	done   chan struct{}
	closed atomic.Bool

	produced atomic.Int64
	consumed atomic.Int64
	blocked  atomic.Int64
}

// NewBuffer creates a chunk buffer.
func NewBuffer(config BufferConfig) *Buffer {
	if config.Size <= 0 {
		config.Size = DefaultBufferConfig().Size
	}
	return &Buffer{
		config: config,
		ch:     make(chan llm.StreamChunk, config.Size),
		done:   make(chan struct{}),
	}
}

// Push enqueues a chunk, applying the configured policy when the buffer is
// at its high water mark.
func (b *Buffer) Push(ctx context.Context, chunk llm.StreamChunk) error {
	if b.closed.Load() {
		return ErrStreamClosed
	}

	level := float64(len(b.ch)) / float64(b.config.Size)
	if level >= b.config.HighWaterMark {
		b.blocked.Add(1)
		if b.config.PushPolicy == PushPolicyError {
			return ErrBufferFull
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return ErrStreamClosed
	case b.ch <- chunk:
		b.produced.Add(1)
		return nil
	}
}

// Pop dequeues the next chunk, blocking until one is available or the
// buffer is closed and drained.
func (b *Buffer) Pop(ctx context.Context) (llm.StreamChunk, error) {
	select {
	case <-ctx.Done():
		return llm.StreamChunk{}, ctx.Err()
	case chunk, ok := <-b.ch:
		if !ok {
			return llm.StreamChunk{}, ErrStreamClosed
		}
		b.consumed.Add(1)
		return chunk, nil
	}
}

// Out exposes the consumer side as a channel. Buffered chunks remain
// readable after Close.
func (b *Buffer) Out() <-chan llm.StreamChunk {
	return b.ch
}

// Close marks the producer side finished. Idempotent.
//
// Close must be called from the producing goroutine, after its final Push
// has returned: a Push racing Close could send on the closed channel.
func (b *Buffer) Close() {
	if b.closed.Swap(true) {
		return
	}
	close(b.done)
	close(b.ch)
}

// Stats returns producer/consumer counters.
func (b *Buffer) Stats() BufferStats {
	return BufferStats{
		Produced: b.produced.Load(),
		Consumed: b.consumed.Load(),
		Blocked:  b.blocked.Load(),
		Len:      len(b.ch),
		Cap:      b.config.Size,
	}
}

// BufferStats contains buffer counters.
type BufferStats struct {
	Produced int64 `json:"produced"`
	Consumed int64 `json:"consumed"`
	Blocked  int64 `json:"blocked"`
	Len      int   `json:"len"`
	Cap      int   `json:"cap"`
}
