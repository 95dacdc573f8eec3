// Package shardmap implements the high-throughput keyed storage contract
// of spec.md §4.1: a power-of-two sharded concurrent map used for
// sessions, rooms, players and per-key counters. It generalizes the
// sharded-map pattern seen across the pack (dashmap-style partitioning)
// with Go 1.21 generics so one implementation backs every fabric store.
package shardmap

import (
	"hash/maphash"
	"runtime"
	"sync"
	"sync/atomic"
)

// goldenSeed is XORed into every key hash before shard selection, per
// spec.md §4.1's "mixed hash (hash(key) XOR GOLDEN_SEED)" design.
const goldenSeed = 0x9E3779B97F4A7C15

// shardCounters holds per-shard read/write/conflict tallies, each padded
// to a 64-byte cache line so hot counters on adjacent shards never false
// share, exactly as spec.md §4.1 prescribes.
type shardCounters struct {
	reads     uint64
	writes    uint64
	conflicts uint64
	_         [64 - 3*8]byte
}

type shard[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
	ctr  shardCounters
}

// ShardedMap is a generic, fixed-shard-count concurrent map.
type ShardedMap[K comparable, V any] struct {
	shards []*shard[K, V]
	mask   uint64
	seed   maphash.Seed
}

// Option configures a ShardedMap at construction.
type Option func(*options)

type options struct {
	expectedEntries int
	shardCount      int
}

// WithExpectedEntries sizes shard capacity from an expected total entry
// count at a 1000-entries-per-shard target, per spec.md §4.1.
func WithExpectedEntries(n int) Option {
	return func(o *options) { o.expectedEntries = n }
}

// WithShardCount overrides the automatic vCPU-derived shard count. It is
// rounded up to the next power of two.
func WithShardCount(n int) Option {
	return func(o *options) { o.shardCount = n }
}

// New builds a ShardedMap sized to a power of two near 2x vCPU, upper
// bounded by 8x vCPU, per spec.md §4.1. Dynamic resharding is disabled:
// the shard count is fixed for the lifetime of the map.
func New[K comparable, V any](opts ...Option) *ShardedMap[K, V] {
	o := options{expectedEntries: 0, shardCount: 0}
	for _, fn := range opts {
		fn(&o)
	}

	n := o.shardCount
	if n <= 0 {
		cpu := runtime.NumCPU()
		n = nextPowerOfTwo(cpu * 2)
		max := nextPowerOfTwo(cpu * 8)
		if n > max {
			n = max
		}
		if n < 1 {
			n = 1
		}
	} else {
		n = nextPowerOfTwo(n)
	}

	perShardCap := 0
	if o.expectedEntries > 0 {
		perShardCap = o.expectedEntries/n + 1
		if perShardCap > 1000 {
			perShardCap = 1000
		}
	}

	sm := &ShardedMap[K, V]{
		shards: make([]*shard[K, V], n),
		mask:   uint64(n - 1),
		seed:   maphash.MakeSeed(),
	}
	for i := range sm.shards {
		sm.shards[i] = &shard[K, V]{data: make(map[K]V, perShardCap)}
	}
	return sm
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (sm *ShardedMap[K, V]) shardFor(key K) *shard[K, V] {
	h := hashKey(sm.seed, key)
	idx := (h ^ goldenSeed) & sm.mask
	return sm.shards[idx]
}

// Get returns the value for key and whether it was present. The read
// lock is held only for the duration of the map lookup and the value
// copy, never beyond, per spec.md §4.1's "no exclusive lock held beyond
// the guard's lifetime".
func (sm *ShardedMap[K, V]) Get(key K) (V, bool) {
	s := sm.shardFor(key)
	s.mu.RLock()
	v, ok := s.data[key]
	atomic.AddUint64(&s.ctr.reads, 1)
	s.mu.RUnlock()
	return v, ok
}

// Insert stores value under key, overwriting any existing entry.
func (sm *ShardedMap[K, V]) Insert(key K, value V) {
	s := sm.shardFor(key)
	s.mu.Lock()
	if _, exists := s.data[key]; exists {
		atomic.AddUint64(&s.ctr.conflicts, 1)
	}
	s.data[key] = value
	atomic.AddUint64(&s.ctr.writes, 1)
	s.mu.Unlock()
}

// Remove deletes key, returning the removed value if present.
func (sm *ShardedMap[K, V]) Remove(key K) (V, bool) {
	s := sm.shardFor(key)
	s.mu.Lock()
	v, ok := s.data[key]
	if ok {
		delete(s.data, key)
	}
	atomic.AddUint64(&s.ctr.writes, 1)
	s.mu.Unlock()
	return v, ok
}

// UpdateWith exclusively locks key's shard and applies fn to the current
// value (zero value if absent). fn returns the new value and whether it
// should be stored; returning false removes the key.
func (sm *ShardedMap[K, V]) UpdateWith(key K, fn func(V, bool) (V, bool)) {
	s := sm.shardFor(key)
	s.mu.Lock()
	cur, ok := s.data[key]
	next, keep := fn(cur, ok)
	if keep {
		s.data[key] = next
	} else if ok {
		delete(s.data, key)
	}
	atomic.AddUint64(&s.ctr.writes, 1)
	s.mu.Unlock()
}

// Len returns the total entry count across all shards.
func (sm *ShardedMap[K, V]) Len() int {
	total := 0
	for _, s := range sm.shards {
		s.mu.RLock()
		total += len(s.data)
		s.mu.RUnlock()
	}
	return total
}

// Range calls fn for every entry. fn must not call back into the map: it
// runs under the shard's read lock.
func (sm *ShardedMap[K, V]) Range(fn func(K, V) bool) {
	for _, s := range sm.shards {
		s.mu.RLock()
		cont := true
		for k, v := range s.data {
			if !fn(k, v) {
				cont = false
				break
			}
		}
		s.mu.RUnlock()
		if !cont {
			return
		}
	}
}

// BatchRead groups keys by shard and processes each shard's batch under
// one read guard, returning results in the same order as the input keys,
// per spec.md §4.1.
func (sm *ShardedMap[K, V]) BatchRead(keys []K) []V {
	out := make([]V, len(keys))

	byShard := make(map[*shard[K, V]][]int, len(sm.shards))
	for i, k := range keys {
		s := sm.shardFor(k)
		byShard[s] = append(byShard[s], i)
	}

	for s, idxs := range byShard {
		s.mu.RLock()
		for _, i := range idxs {
			out[i] = s.data[keys[i]]
		}
		atomic.AddUint64(&s.ctr.reads, uint64(len(idxs)))
		s.mu.RUnlock()
	}

	return out
}

// Stats is a snapshot of aggregate shard counters.
type Stats struct {
	Shards    int
	Entries   int
	Reads     uint64
	Writes    uint64
	Conflicts uint64
}

// Stats returns a point-in-time snapshot of monotonic counters. The
// counters are read with atomic loads and no shard lock; Entries comes
// from Len, which takes each shard's read lock in turn.
func (sm *ShardedMap[K, V]) Stats() Stats {
	st := Stats{Shards: len(sm.shards)}
	for _, s := range sm.shards {
		st.Reads += atomic.LoadUint64(&s.ctr.reads)
		st.Writes += atomic.LoadUint64(&s.ctr.writes)
		st.Conflicts += atomic.LoadUint64(&s.ctr.conflicts)
	}
	st.Entries = sm.Len()
	return st
}

func hashKey[K comparable](seed maphash.Seed, key K) uint64 {
	switch k := any(key).(type) {
	case string:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString(k)
		return h.Sum64()
	case int:
		return mix64(uint64(k))
	case int32:
		return mix64(uint64(k))
	case int64:
		return mix64(uint64(k))
	case uint32:
		return mix64(uint64(k))
	case uint64:
		return mix64(k)
	default:
		var h maphash.Hash
		h.SetSeed(seed)
		h.WriteString(anyToString(key))
		return h.Sum64()
	}
}

// mix64 is a splitmix64-style finalizer used for integer keys so that
// sequential ids (snowflakes, room counters) still spread across shards.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func anyToString(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return "" // unreachable for the key types this package is used with
}
