package udp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketRoundTrip(t *testing.T) {
	p := Packet{SessionID: 12345, Sequence: 7, Flags: FlagReliable, Payload: []byte("hello")}
	buf, err := Encode(p)
	require.NoError(t, err)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, p.SessionID, got.SessionID)
	require.Equal(t, p.Sequence, got.Sequence)
	require.Equal(t, p.Flags, got.Flags)
	require.Equal(t, p.Payload, got.Payload)
	require.True(t, got.Reliable())
	require.False(t, got.IsAck())
}

func TestPacketTooShort(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrPacketTooShort)
}

func TestPacketPayloadTooLong(t *testing.T) {
	_, err := Encode(Packet{Payload: make([]byte, MaxPayloadSize+1)})
	require.ErrorIs(t, err, ErrPayloadTooLong)
}

func TestPacketLengthMismatch(t *testing.T) {
	buf, err := Encode(Packet{Payload: []byte("abc")})
	require.NoError(t, err)
	buf = append(buf, 0xFF) // trailing garbage byte inflates len(payload) past the declared length
	_, err = Decode(buf)
	require.ErrorIs(t, err, ErrLengthMismatch)
}
