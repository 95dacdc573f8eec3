package compress

import (
	"sync"
	"time"
)

// BatchConfig tunes a per-destination batch accumulator.
type BatchConfig struct {
	BatchSize     int
	MaxBatchBytes int
	BatchTimeout  time.Duration
}

func (c *BatchConfig) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 32
	}
	if c.MaxBatchBytes <= 0 {
		c.MaxBatchBytes = 64 * 1024
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 50 * time.Millisecond
	}
}

// Batcher accumulates messages for a single destination and flushes
// when message count, total bytes, or age crosses a threshold, per
// spec.md §4.4.
type Batcher struct {
	cfg   BatchConfig
	flush func([][]byte)

	mu       sync.Mutex
	messages [][]byte
	bytes    int
	opened   time.Time
	timer    *time.Timer
}

// NewBatcher constructs a batcher that calls flush whenever a batch is
// ready to go out.
func NewBatcher(cfg BatchConfig, flush func([][]byte)) *Batcher {
	cfg.setDefaults()
	return &Batcher{cfg: cfg, flush: flush}
}

// Add appends msg to the pending batch, flushing immediately if a
// threshold is crossed.
func (b *Batcher) Add(msg []byte) {
	b.mu.Lock()

	if len(b.messages) == 0 {
		b.opened = time.Now()
		b.armTimeoutLocked()
	}
	b.messages = append(b.messages, msg)
	b.bytes += len(msg)

	full := len(b.messages) >= b.cfg.BatchSize || b.bytes >= b.cfg.MaxBatchBytes
	if full {
		batch := b.drainLocked()
		b.mu.Unlock()
		b.flush(batch)
		return
	}
	b.mu.Unlock()
}

func (b *Batcher) armTimeoutLocked() {
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.cfg.BatchTimeout, b.onTimeout)
}

func (b *Batcher) onTimeout() {
	b.mu.Lock()
	if len(b.messages) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.drainLocked()
	b.mu.Unlock()
	b.flush(batch)
}

// drainLocked must be called with b.mu held; it returns and clears the
// pending batch.
func (b *Batcher) drainLocked() [][]byte {
	batch := b.messages
	b.messages = nil
	b.bytes = 0
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return batch
}

// Flush forces out any pending partial batch immediately.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if len(b.messages) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.drainLocked()
	b.mu.Unlock()
	b.flush(batch)
}
