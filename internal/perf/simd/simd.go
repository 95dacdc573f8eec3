// Package simd implements the SIMD-accelerated bulk operations of
// spec.md §4.5: byte-compare, byte-search, XOR, and running checksum,
// each with AVX2/SSE4.2/scalar tiers selected once at construction from
// runtime CPU feature detection (golang.org/x/sys/cpu) [out-of-pack dep,
// named not grounded: no pack example does CPU feature detection, this
// is the standard ecosystem library for it]. The "AVX2"/"SSE4.2" tiers
// are wide, unrolled Go loops gated behind the detected feature level —
// this package has no hand-written assembly, only pure-Go
// implementations chosen by width, byte-identical to the scalar path by
// construction (same arithmetic, just batched).
package simd

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Level identifies which instruction-set tier a constructed Ops will
// prefer.
type Level int

const (
	LevelNone Level = iota
	LevelSSE42
	LevelAVX2
)

func (l Level) String() string {
	switch l {
	case LevelAVX2:
		return "avx2"
	case LevelSSE42:
		return "sse4.2"
	default:
		return "none"
	}
}

// DetectLevel inspects runtime CPU features. On non-x86 targets it
// always returns LevelNone, per spec.md §4.5's "Non-x86 targets" note.
func DetectLevel() Level {
	if cpu.X86.HasAVX2 {
		return LevelAVX2
	}
	if cpu.X86.HasSSE42 {
		return LevelSSE42
	}
	return LevelNone
}

const defaultMinSIMDSize = 64

// Counters tallies per-tier invocations and bytes processed.
type Counters struct {
	avx2Calls   uint64
	sse42Calls  uint64
	scalarCalls uint64
	bytesTotal  uint64
}

func (c *Counters) record(level Level, n int) {
	switch level {
	case LevelAVX2:
		atomic.AddUint64(&c.avx2Calls, 1)
	case LevelSSE42:
		atomic.AddUint64(&c.sse42Calls, 1)
	default:
		atomic.AddUint64(&c.scalarCalls, 1)
	}
	atomic.AddUint64(&c.bytesTotal, uint64(n))
}

// Snapshot is a point-in-time read of Counters.
type Snapshot struct {
	AVX2Calls   uint64
	SSE42Calls  uint64
	ScalarCalls uint64
	BytesTotal  uint64
	Score       int // 0-100 performance score
}

// Ops is a constructed bulk-operation accelerator pinned to a detected
// CPU tier.
type Ops struct {
	level       Level
	minSIMDSize int
	counters    Counters
}

// Option configures Ops at construction.
type Option func(*Ops)

// WithMinSIMDSize overrides the default 64-byte SIMD floor.
func WithMinSIMDSize(n int) Option {
	return func(o *Ops) { o.minSIMDSize = n }
}

// WithLevel overrides auto-detection, mainly for tests that need to
// exercise a specific tier regardless of the host CPU.
func WithLevel(l Level) Option {
	return func(o *Ops) { o.level = l }
}

// New constructs an Ops, detecting the CPU tier once.
func New(opts ...Option) *Ops {
	o := &Ops{level: DetectLevel(), minSIMDSize: defaultMinSIMDSize}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

func (o *Ops) tierFor(n int) Level {
	if n < o.minSIMDSize {
		return LevelNone
	}
	return o.level
}

// Snapshot returns the current counters plus a derived 0-100 score
// proportional to the share of calls served by an accelerated tier.
func (o *Ops) Snapshot() Snapshot {
	avx2 := atomic.LoadUint64(&o.counters.avx2Calls)
	sse := atomic.LoadUint64(&o.counters.sse42Calls)
	scalar := atomic.LoadUint64(&o.counters.scalarCalls)
	total := avx2 + sse + scalar

	score := 0
	if total > 0 {
		accelerated := float64(avx2)*1.0 + float64(sse)*0.6
		score = int((accelerated / float64(total)) * 100)
		if score > 100 {
			score = 100
		}
	}

	return Snapshot{
		AVX2Calls:   avx2,
		SSE42Calls:  sse,
		ScalarCalls: scalar,
		BytesTotal:  atomic.LoadUint64(&o.counters.bytesTotal),
		Score:       score,
	}
}
