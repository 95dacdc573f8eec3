package udp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReliabilityReserveIsSequential(t *testing.T) {
	r := newReliability()
	require.Equal(t, uint32(0), r.Reserve())
	require.Equal(t, uint32(1), r.Reserve())
	require.Equal(t, uint32(2), r.Reserve())
}

func TestReliabilityAckClearsPending(t *testing.T) {
	r := newReliability()
	seq := r.Reserve()
	r.TrackPending(seq, []byte("payload"))

	r.OnAck(seq)

	due := r.DueRetransmits(time.Now().Add(time.Hour))
	require.Empty(t, due, "acked sends must not be retransmitted")
}

func TestReliabilityRetransmitsAfterTimeout(t *testing.T) {
	r := newReliability()
	seq := r.Reserve()
	r.TrackPending(seq, []byte("payload"))

	due := r.DueRetransmits(time.Now())
	require.Empty(t, due, "nothing is due immediately after send")

	due = r.DueRetransmits(time.Now().Add(2 * time.Second))
	require.Len(t, due, 1)
	require.Equal(t, []byte("payload"), due[0])
}

func TestReliabilityDropsAfterMaxRetries(t *testing.T) {
	r := newReliability()
	seq := r.Reserve()
	r.TrackPending(seq, []byte("payload"))

	now := time.Now()
	for i := 0; i <= maxRetries; i++ {
		now = now.Add(3 * time.Second)
		r.DueRetransmits(now)
	}

	due := r.DueRetransmits(now.Add(3 * time.Second))
	require.Empty(t, due, "send must be evicted once maxRetries is exceeded")
}

func TestReliabilityDeliverInOrder(t *testing.T) {
	r := newReliability()

	out := r.Deliver(0, []byte("a"))
	require.Equal(t, [][]byte{[]byte("a")}, out)

	out = r.Deliver(2, []byte("c"))
	require.Empty(t, out, "sequence 2 buffers until 1 arrives")

	out = r.Deliver(1, []byte("b"))
	require.Equal(t, [][]byte{[]byte("b"), []byte("c")}, out, "arrival of 1 flushes the contiguous run")
}

func TestReliabilityDeliverDuplicateIgnored(t *testing.T) {
	r := newReliability()
	r.Deliver(0, []byte("a"))

	out := r.Deliver(0, []byte("a-again"))
	require.Empty(t, out)
}

func TestReliabilityDeliverBeyondWindowDropped(t *testing.T) {
	r := newReliability()

	out := r.Deliver(windowSize+1, []byte("future"))
	require.Empty(t, out)
	require.Equal(t, uint64(1), r.Dropped())
}
