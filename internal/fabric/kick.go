package fabric

// KickResult carries everything a handler needs to build the
// KickUserResponse / UserKicked wire messages of spec.md §8 scenario 1,
// without the fabric package knowing about the wire format itself.
type KickResult struct {
	RoomID         uint32
	TargetPlayerID int64
	RemainingUsers int
}

// Kick implements spec.md §4.6's authorization and notification flow:
// the requester must be the room owner, must not target themselves, and
// the target must be a member. On success the target is removed via
// LeaveRoom and the caller is handed back enough to notify the room.
// Notification dispatch itself (UserKicked broadcast + direct notify) is
// the caller's job, done via Fabric.Broadcast/SendDirect once this
// returns, keeping fabric free of wire-format knowledge.
func (f *Fabric) Kick(roomID uint32, requesterPlayerID, targetPlayerID int64, reason string) (KickResult, error) {
	if requesterPlayerID == targetPlayerID {
		return KickResult{}, WithRoom(ErrSelfKick, 0, requesterPlayerID, roomID)
	}

	room, ok := f.rooms.Get(roomID)
	if !ok {
		return KickResult{}, WithRoom(ErrRoomNotFound, 0, requesterPlayerID, roomID)
	}
	if room.Owner != requesterPlayerID {
		return KickResult{}, WithRoom(ErrNotRoomOwner, 0, requesterPlayerID, roomID)
	}
	if room.MemberIndex(targetPlayerID) < 0 {
		return KickResult{}, WithRoom(ErrNotAMember, 0, requesterPlayerID, roomID)
	}

	target, ok := f.players.Get(targetPlayerID)
	if !ok {
		return KickResult{}, WithRoom(ErrPlayerNotFound, 0, requesterPlayerID, roomID)
	}

	if err := f.LeaveRoom(target.SessionID); err != nil {
		return KickResult{}, err
	}

	remaining := 0
	if r, ok := f.rooms.Get(roomID); ok {
		remaining = len(r.Members)
	}

	return KickResult{RoomID: roomID, TargetPlayerID: targetPlayerID, RemainingUsers: remaining}, nil
}
