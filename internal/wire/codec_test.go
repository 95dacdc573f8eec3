package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeJSON(t *testing.T) {
	env := &Envelope{Kind: KindKickUser, KickUser: &KickUser{RoomID: 1, KickerID: 100, TargetID: 200, Reason: "spam"}}

	encoded, err := Encode(env, false)
	require.NoError(t, err)
	require.Less(t, encoded[0], byte(0x80))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, KindKickUser, decoded.Kind)
	require.Equal(t, env.KickUser, decoded.KickUser)
}

func TestEncodeDecodeMsgpack(t *testing.T) {
	env := &Envelope{Kind: KindMove, Move: &Move{VelocityX: 1, VelocityY: 0, VelocityZ: 0}}

	encoded, err := Encode(env, true)
	require.NoError(t, err)
	require.GreaterOrEqual(t, encoded[0], byte(0x80))

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, KindMove, decoded.Kind)
	require.Equal(t, env.Move, decoded.Move)
}
