package udp

import (
	"sync"
	"time"
)

// windowSize bounds how far ahead of the next expected sequence number a
// packet may arrive before it is dropped outright, per spec.md §4.8
// ("packets beyond the window are dropped with a counter increment").
const windowSize = 1024

// baseRTO is the initial retransmit timeout before any RTT sample exists.
const baseRTO = 150 * time.Millisecond

// maxRetries bounds the exponential backoff, per spec.md §4.8's
// "retransmit after an RTT-derived timeout (exponential backoff,
// bounded)".
const maxRetries = 6

type pendingSend struct {
	seq      uint32
	data     []byte
	sentAt   time.Time
	attempts int
}

// reliability is one session's sliding-window ACK + retransmit state,
// grounded on the per-client ReliableMessages map of
// _examples/Ancillary-AGI-foundry/networking/server/server.go, rebuilt
// with explicit reorder buffering and RTT-derived backoff.
type reliability struct {
	mu sync.Mutex

	sendSeq uint32
	pending map[uint32]*pendingSend

	recvNext   uint32
	recvBuffer map[uint32][]byte
	dropped    uint64

	rtt time.Duration
}

func newReliability() *reliability {
	return &reliability{
		pending:    make(map[uint32]*pendingSend),
		recvBuffer: make(map[uint32][]byte),
		rtt:        baseRTO,
	}
}

// Reserve assigns and returns the next outbound sequence number.
func (r *reliability) Reserve() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.sendSeq
	r.sendSeq++
	return seq
}

// TrackPending records the fully-encoded datagram for seq for
// retransmit tracking. Call only for reliable sends.
func (r *reliability) TrackPending(seq uint32, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[seq] = &pendingSend{seq: seq, data: data, sentAt: time.Now()}
}

// OnAck clears a pending reliable send and folds the observed RTT into
// the retransmit-timeout estimate (simple EWMA, alpha=1/8, matching the
// classic TCP RTO smoothing this module's backoff timing is modeled on).
func (r *reliability) OnAck(seq uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pending[seq]
	if !ok {
		return
	}
	sample := time.Since(p.sentAt)
	r.rtt = r.rtt + (sample-r.rtt)/8
	delete(r.pending, seq)
}

// DueRetransmits returns pending sends whose backoff timeout has
// elapsed, advancing their attempt counter and send time. Sends that
// exceed maxRetries are dropped and excluded from the result.
func (r *reliability) DueRetransmits(now time.Time) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var due [][]byte
	for seq, p := range r.pending {
		timeout := r.rtt << uint(p.attempts)
		if timeout > 2*time.Second {
			timeout = 2 * time.Second
		}
		if now.Sub(p.sentAt) < timeout {
			continue
		}
		if p.attempts >= maxRetries {
			delete(r.pending, seq)
			continue
		}
		p.attempts++
		p.sentAt = now
		due = append(due, p.data)
	}
	return due
}

// Deliver admits an inbound sequence number into the reorder buffer and
// returns, in order, every payload now deliverable (the contiguous run
// starting at recvNext). Sequence numbers already delivered are
// discarded as duplicates; sequence numbers beyond the window are
// dropped and counted.
func (r *reliability) Deliver(seq uint32, payload []byte) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.recvNext {
		return nil // duplicate/old, already delivered
	}
	if seq-r.recvNext >= windowSize {
		r.dropped++
		return nil
	}

	r.recvBuffer[seq] = payload

	var out [][]byte
	for {
		p, ok := r.recvBuffer[r.recvNext]
		if !ok {
			break
		}
		out = append(out, p)
		delete(r.recvBuffer, r.recvNext)
		r.recvNext++
	}
	return out
}

// Dropped returns the count of packets rejected for falling outside the
// receive window.
func (r *reliability) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
