// Package tcp implements the length-prefixed TCP pipeline of spec.md
// §4.7: accept loop, per-connection read/write halves, heartbeat sweep,
// and scheduler-dispatched handlers. The connection lifecycle shape
// (open -> identify/authenticate -> heartbeat ticker -> closed, write
// half behind a mutex reachable by the broadcaster) is grounded on the
// teacher's own session.go/gateway/shard.go, re-targeted from Discord
// gateway frames to the length-prefixed frame format of spec.md §6.
package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameSize is the spec's 1 MiB frame ceiling (spec.md §6/§4.7).
const DefaultMaxFrameSize = 1 << 20

// ErrFrameTooLarge is a Protocol-class error (spec.md §7): the session
// that triggers it is terminated, the listener keeps running.
var ErrFrameTooLarge = errors.New("tcp: frame exceeds max frame size")

// ReadFrame reads one length-prefixed frame: a big-endian u32 length
// followed by that many payload bytes, per spec.md §6.
func ReadFrame(r io.Reader, maxFrameSize int) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(lenBuf[:])
	if int(length) > maxFrameSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, maxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
