package compress

import (
	"sync"
	"time"
)

// ema tracks an exponential moving average of (compression_ratio,
// throughput_MBps) per algorithm, per spec.md §4.4.
type ema struct {
	ratio      float64
	throughput float64
	seen       bool
}

const smoothingAlpha = 0.1

func (e *ema) observe(ratio, throughputMBps float64) {
	if !e.seen {
		e.ratio, e.throughput, e.seen = ratio, throughputMBps, true
		return
	}
	e.ratio = smoothingAlpha*ratio + (1-smoothingAlpha)*e.ratio
	e.throughput = smoothingAlpha*throughputMBps + (1-smoothingAlpha)*e.throughput
}

func (e *ema) score() float64 {
	t := e.throughput / 100.0
	if t > 1.0 {
		t = 1.0
	}
	return 0.5*e.ratio + 0.5*t
}

// AdaptiveManager ranks candidate algorithms from observed throughput
// and compression ratio, re-scoring every 30s and promoting the winner
// on change, per spec.md §4.4.
type AdaptiveManager struct {
	mu         sync.Mutex
	candidates []Algorithm
	stats      map[Algorithm]*ema
	best       Algorithm

	stop     chan struct{}
	stopOnce sync.Once
}

// NewAdaptiveManager constructs a manager over the given candidate
// algorithms and starts its 30s rescoring loop.
func NewAdaptiveManager(candidates ...Algorithm) *AdaptiveManager {
	m := &AdaptiveManager{
		candidates: candidates,
		stats:      make(map[Algorithm]*ema, len(candidates)),
		stop:       make(chan struct{}),
	}
	for _, a := range candidates {
		m.stats[a] = &ema{}
	}
	if len(candidates) > 0 {
		m.best = candidates[0]
	}

	go m.loop()
	return m
}

// Record logs one compression observation for algorithm a.
func (m *AdaptiveManager) Record(a Algorithm, originalLen, compressedLen int, elapsed time.Duration) {
	if originalLen == 0 || elapsed <= 0 {
		return
	}
	ratio := 1.0 - float64(compressedLen)/float64(originalLen)
	if ratio < 0 {
		ratio = 0
	}
	mbps := (float64(originalLen) / (1024 * 1024)) / elapsed.Seconds()

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.stats[a]; ok {
		e.observe(ratio, mbps)
	}
}

// Best returns the currently-ranked-best algorithm.
func (m *AdaptiveManager) Best() Algorithm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.best
}

func (m *AdaptiveManager) loop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.rescore()
		case <-m.stop:
			return
		}
	}
}

func (m *AdaptiveManager) rescore() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var winner Algorithm
	bestScore := -1.0
	for _, a := range m.candidates {
		s := m.stats[a].score()
		if s > bestScore {
			bestScore = s
			winner = a
		}
	}
	if winner != m.best {
		m.best = winner
	}
}

// Close stops the rescoring loop.
func (m *AdaptiveManager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}
