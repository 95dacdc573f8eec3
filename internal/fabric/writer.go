package fabric

import (
	"sync"
	"time"
)

// SafeWriter serializes every write to a session's transport behind one
// mutex, per spec.md §3's session invariant ("writes are serialized
// through a per-session mutex") and §5's ordering guarantee that
// messages to a single peer are delivered in submission order.
type SafeWriter struct {
	mu      sync.Mutex
	w       Writer
	timeout time.Duration
}

// NewSafeWriter wraps w with a per-session write mutex and a default
// per-write timeout (spec.md §4.6 broadcast default of 5s).
func NewSafeWriter(w Writer, timeout time.Duration) *SafeWriter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SafeWriter{w: w, timeout: timeout}
}

// Write serializes payload to the underlying transport. The timeout
// itself is enforced by the caller's transport (deadline set on the
// socket); SafeWriter only guarantees exclusivity and ordering.
func (sw *SafeWriter) Write(payload []byte) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.WriteMessage(payload)
}

// Close closes the underlying transport.
func (sw *SafeWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Close()
}
