// Package udp implements the single-socket UDP pipeline of spec.md §4.8:
// session demultiplexing over one listening socket, a per-session
// sliding-window reliability layer, and the 60 TPS authoritative tick
// loop. Grounded on the single-socket client-table demux of
// _examples/Ancillary-AGI-foundry/networking/server/server.go, adapted
// from that repo's raw map+mutex client table onto the shardmap/
// scheduler primitives the rest of this module already built.
package udp

import (
	"encoding/binary"
	"errors"
)

// Flag bits, per spec.md §6's UDP wire format.
const (
	FlagReliable byte = 0x01
	FlagAck      byte = 0x02
	FlagFin      byte = 0x04
)

// headerSize is u64 session_id + u32 sequence + u8 flags + u16 length.
const headerSize = 8 + 4 + 1 + 2

// MaxPayloadSize keeps packets under the common safe UDP MTU budget,
// matching _examples/Ancillary-AGI-foundry's MAX_UDP_PAYLOAD constant.
const MaxPayloadSize = 1472 - headerSize

var (
	ErrPacketTooShort = errors.New("udp: packet shorter than header")
	ErrPayloadTooLong = errors.New("udp: payload exceeds max size")
	ErrLengthMismatch = errors.New("udp: declared length does not match payload")
)

// Packet is a decoded datagram per spec.md §6:
// u64 session_id || u32 sequence || u8 flags || u16 length || payload.
type Packet struct {
	SessionID int64
	Sequence  uint32
	Flags     byte
	Payload   []byte
}

// Reliable reports whether the sender requested delivery guarantees.
func (p Packet) Reliable() bool { return p.Flags&FlagReliable != 0 }

// IsAck reports whether this datagram is an acknowledgement.
func (p Packet) IsAck() bool { return p.Flags&FlagAck != 0 }

// IsFin reports whether this datagram closes the session.
func (p Packet) IsFin() bool { return p.Flags&FlagFin != 0 }

// Decode parses a raw datagram into a Packet.
func Decode(buf []byte) (Packet, error) {
	if len(buf) < headerSize {
		return Packet{}, ErrPacketTooShort
	}
	sessionID := int64(binary.BigEndian.Uint64(buf[0:8]))
	seq := binary.BigEndian.Uint32(buf[8:12])
	flags := buf[12]
	length := binary.BigEndian.Uint16(buf[13:15])
	payload := buf[15:]
	if int(length) != len(payload) {
		return Packet{}, ErrLengthMismatch
	}
	return Packet{SessionID: sessionID, Sequence: seq, Flags: flags, Payload: payload}, nil
}

// Encode serializes a Packet into a raw datagram.
func Encode(p Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLong
	}
	buf := make([]byte, headerSize+len(p.Payload))
	binary.BigEndian.PutUint64(buf[0:8], uint64(p.SessionID))
	binary.BigEndian.PutUint32(buf[8:12], p.Sequence)
	buf[12] = p.Flags
	binary.BigEndian.PutUint16(buf[13:15], uint16(len(p.Payload)))
	copy(buf[15:], p.Payload)
	return buf, nil
}
