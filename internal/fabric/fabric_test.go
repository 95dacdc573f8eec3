package fabric

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages [][]byte
}

func (w *recordingWriter) WriteMessage(p []byte) error {
	w.messages = append(w.messages, append([]byte{}, p...))
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestFabric() *Fabric {
	return New(zerolog.Nop(), 64)
}

func bindPlayer(t *testing.T, f *Fabric, sessionID, playerID int64, name string) (*Player, *recordingWriter) {
	t.Helper()
	rw := &recordingWriter{}
	f.RegisterSession(sessionID, "127.0.0.1:0", NewSafeWriter(rw, 0))
	p, err := f.Bind(sessionID, playerID, name)
	require.NoError(t, err)
	return p, rw
}

func setupRoom(t *testing.T, f *Fabric) (roomID uint32) {
	t.Helper()
	roomID = 1
	_, err := f.CreateRoom(roomID, "room-1", 100, 10, DefaultGameArea)
	require.NoError(t, err)

	for _, sid := range []int64{100, 200, 300} {
		_, _ = bindPlayer(t, f, sid, sid, "player")
		require.NoError(t, f.JoinRoom(sid, roomID))
	}
	return roomID
}

// TestKickFlow exercises spec.md §8 scenario 1 literally: room 1,
// owner=100, members [100,200,300], kicker=100 kicks target=200.
func TestKickFlow(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	result, err := f.Kick(roomID, 100, 200, "spam")
	require.NoError(t, err)
	require.Equal(t, roomID, result.RoomID)
	require.Equal(t, int64(200), result.TargetPlayerID)
	require.Equal(t, 2, result.RemainingUsers)

	room, ok := f.Room(roomID)
	require.True(t, ok)
	var ids []int64
	for _, m := range room.Members {
		ids = append(ids, m.PlayerID)
	}
	require.ElementsMatch(t, []int64{100, 300}, ids)

	target, ok := f.Player(200)
	require.True(t, ok)
	require.False(t, target.HasRoom)
}

// TestKickAuthorization exercises spec.md §8 scenario 2: a non-owner
// attempting to kick must fail with no state change.
func TestKickAuthorization(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	_, err := f.Kick(roomID, 200, 300, "nope")
	require.ErrorIs(t, err, ErrNotRoomOwner)

	room, ok := f.Room(roomID)
	require.True(t, ok)
	require.Len(t, room.Members, 3)
}

func TestSelfKickRejected(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	_, err := f.Kick(roomID, 100, 100, "x")
	require.ErrorIs(t, err, ErrSelfKick)
}

func TestKickNonMemberRejected(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	_, err := f.Kick(roomID, 100, 999, "x")
	require.ErrorIs(t, err, ErrNotAMember)
}

func TestOwnershipTransferOnLeave(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	require.NoError(t, f.LeaveRoom(100))

	room, ok := f.Room(roomID)
	require.True(t, ok)
	require.Equal(t, int64(200), room.Owner, "ownership transfers to the earliest-joined remaining player")
}

func TestRoomDestroyedWhenEmpty(t *testing.T) {
	f := newTestFabric()
	roomID := uint32(42)
	_, err := f.CreateRoom(roomID, "solo", 1, 10, DefaultGameArea)
	require.NoError(t, err)
	_, _ = bindPlayer(t, f, 1, 1, "p")
	require.NoError(t, f.JoinRoom(1, roomID))

	require.NoError(t, f.LeaveRoom(1))

	_, ok := f.Room(roomID)
	require.False(t, ok)
}

func TestRoleAssignmentPolicy(t *testing.T) {
	f := newTestFabric()
	roomID := uint32(7)
	_, err := f.CreateRoom(roomID, "roles", 1, 10, DefaultGameArea)
	require.NoError(t, err)

	roleOf := func(playerID int64) Role {
		room, _ := f.Room(roomID)
		idx := room.MemberIndex(playerID)
		require.GreaterOrEqual(t, idx, 0)
		return room.Members[idx].Role
	}

	for i := int64(1); i <= 5; i++ {
		_, _ = bindPlayer(t, f, i, i, "p")
		require.NoError(t, f.JoinRoom(i, roomID))
	}

	require.Equal(t, RolePolice, roleOf(1), "first member is always police")
}

func TestAdvanceStateRequiresTwoPlayers(t *testing.T) {
	f := newTestFabric()
	roomID := uint32(9)
	_, err := f.CreateRoom(roomID, "solo-start", 1, 10, DefaultGameArea)
	require.NoError(t, err)
	_, _ = bindPlayer(t, f, 1, 1, "p")
	require.NoError(t, f.JoinRoom(1, roomID))

	err = f.AdvanceState(roomID, StateStarting)
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
}

func TestAdvanceStateNoRegress(t *testing.T) {
	f := newTestFabric()
	roomID := setupRoom(t, f)

	require.NoError(t, f.AdvanceState(roomID, StateStarting))
	require.NoError(t, f.AdvanceState(roomID, StatePlaying))

	err := f.AdvanceState(roomID, StateWaiting)
	require.ErrorIs(t, err, ErrInvalidStateProgress)
}
