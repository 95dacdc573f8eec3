package compress

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"time"
)

// Config tunes the adaptive compression pipeline.
type Config struct {
	Threshold    int // below this length, payloads pass through uncompressed
	CacheSize    int
	Adaptive     bool // when true, ask the adaptive manager for the best algorithm
	StaticDefault Algorithm
}

func (c *Config) setDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = 128
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 100
	}
	if c.StaticDefault == AlgorithmNone {
		c.StaticDefault = AlgorithmZlib
	}
}

// Pipeline implements the adaptive outbound compression flow of
// spec.md §4.4.
type Pipeline struct {
	cfg     Config
	cache   *lruCache
	adapt   *AdaptiveManager
}

// NewPipeline constructs a compression pipeline. Pass an AdaptiveManager
// when cfg.Adaptive is true; nil is fine when it is false.
func NewPipeline(cfg Config, adapt *AdaptiveManager) *Pipeline {
	cfg.setDefaults()
	return &Pipeline{
		cfg:   cfg,
		cache: newLRUCache(cfg.CacheSize),
		adapt: adapt,
	}
}

// Result is the outcome of compressing one payload.
type Result struct {
	Bytes     []byte
	Algorithm Algorithm
}

// Compress runs the five-step pipeline from spec.md §4.4: pass-through
// below threshold, LRU lookup, algorithm selection, compression, and
// caching of the result.
func (p *Pipeline) Compress(payload []byte) (Result, error) {
	if len(payload) < p.cfg.Threshold {
		return Result{Bytes: payload, Algorithm: AlgorithmNone}, nil
	}

	key := hashPayload(payload)
	if cached, ok := p.cache.get(key); ok {
		return Result{Bytes: cached.bytes, Algorithm: cached.algorithm}, nil
	}

	algo := p.cfg.StaticDefault
	if p.cfg.Adaptive && p.adapt != nil {
		algo = p.adapt.Best()
	}

	codec := codecFor(algo)
	if codec == nil {
		return Result{Bytes: payload, Algorithm: AlgorithmNone}, nil
	}

	start := time.Now()
	out, err := codec.Compress(payload)
	if err != nil {
		return Result{}, fmt.Errorf("compress: %s: %w", algo, err)
	}
	elapsed := time.Since(start)

	if p.adapt != nil {
		p.adapt.Record(algo, len(payload), len(out), elapsed)
	}

	p.cache.put(key, cachedResult{bytes: out, algorithm: algo})
	return Result{Bytes: out, Algorithm: algo}, nil
}

// Decompress mirrors the algorithm tag recorded at compress time.
func Decompress(bytes []byte, algo Algorithm) ([]byte, error) {
	if algo == AlgorithmNone {
		return bytes, nil
	}
	codec := codecFor(algo)
	if codec == nil {
		return nil, fmt.Errorf("decompress: unknown algorithm tag %d", algo)
	}
	return codec.Decompress(bytes)
}

func hashPayload(payload []byte) uint64 {
	h := fnv.New64a()
	h.Write(payload)
	return h.Sum64()
}

// EncodeBatch writes the wire batch format of spec.md §4.4:
// u32 message_count then for each message u32 length || bytes.
func EncodeBatch(messages [][]byte) []byte {
	total := 4
	for _, m := range messages {
		total += 4 + len(m)
	}
	out := make([]byte, total)
	binary.BigEndian.PutUint32(out[0:4], uint32(len(messages)))

	offset := 4
	for _, m := range messages {
		binary.BigEndian.PutUint32(out[offset:offset+4], uint32(len(m)))
		offset += 4
		copy(out[offset:], m)
		offset += len(m)
	}
	return out
}

// DecodeBatch parses the batch wire format back into individual messages.
func DecodeBatch(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("decode batch: truncated header")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	offset := 4

	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if offset+4 > len(data) {
			return nil, fmt.Errorf("decode batch: truncated length at message %d", i)
		}
		l := binary.BigEndian.Uint32(data[offset : offset+4])
		offset += 4
		if offset+int(l) > len(data) {
			return nil, fmt.Errorf("decode batch: truncated payload at message %d", i)
		}
		out = append(out, data[offset:offset+int(l)])
		offset += int(l)
	}
	return out, nil
}
