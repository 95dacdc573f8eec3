package fabric

import (
	"math/rand"
	"time"
)

const defaultCapacity = 10

// DefaultGameArea is the world rectangle new rooms get when the caller
// doesn't specify one.
var DefaultGameArea = Rect{MinX: 0, MinY: 0, MaxX: 10000, MaxY: 10000}

// CreateRoom creates a room owned by the given player, per spec.md
// §3's "created on demand by a player's create-room request".
func (f *Fabric) CreateRoom(roomID uint32, name string, ownerPlayerID int64, capacity int, area Rect) (*Room, error) {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	room := &Room{
		RoomID:    roomID,
		Name:      name,
		Owner:     ownerPlayerID,
		CreatedAt: time.Now(),
		Capacity:  capacity,
		Area:      area,
		State:     StateWaiting,
	}
	f.rooms.Insert(roomID, room)
	return room, nil
}

// JoinRoom adds the session's bound player to roomID: capacity check,
// role auto-assignment, spawn-position assignment, per spec.md §4.6.
func (f *Fabric) JoinRoom(sessionID int64, roomID uint32) error {
	sess, ok := f.sessions.Get(sessionID)
	if !ok {
		return WithSession(ErrSessionNotFound, sessionID)
	}
	if !sess.HasPlayer {
		return WithSession(ErrPlayerNotFound, sessionID)
	}

	room, ok := f.rooms.Get(roomID)
	if !ok {
		return WithPlayer(ErrRoomNotFound, sessionID, sess.PlayerID)
	}
	if len(room.Members) >= room.Capacity {
		return WithRoom(ErrRoomFull, sessionID, sess.PlayerID, roomID)
	}

	role := assignRole(room)
	pos := spawnPosition(room.Area, role)

	f.rooms.UpdateWith(roomID, func(r *Room, ok bool) (*Room, bool) {
		if !ok {
			return nil, false
		}
		r.Members = append(r.Members, RoomMember{PlayerID: sess.PlayerID, Role: role, JoinedAt: time.Now()})
		return r, true
	})

	f.players.UpdateWith(sess.PlayerID, func(p *Player, ok bool) (*Player, bool) {
		if !ok {
			return nil, false
		}
		p.RoomID = roomID
		p.HasRoom = true
		p.Position = pos
		p.Mode = ModeIdle
		return p, true
	})

	f.sessions.UpdateWith(sessionID, func(s *Session, ok bool) (*Session, bool) {
		if !ok {
			return nil, false
		}
		s.State = SessionRoomJoined
		return s, true
	})

	return nil
}

// assignRole implements spec.md §4.6's role policy: first member is
// Police; thereafter Police if there are none yet or thieves/police >=
// 3, else Thief.
func assignRole(r *Room) Role {
	if len(r.Members) == 0 {
		return RolePolice
	}
	police := r.policeCount()
	thieves := r.thiefCount()
	if police == 0 || thieves/police >= 3 {
		return RolePolice
	}
	return RoleThief
}

// spawnPosition implements spec.md §4.6's spawn-at-join policy.
func spawnPosition(area Rect, role Role) Vec3 {
	center := area.Center()
	switch role {
	case RolePolice:
		return Vec3{
			X: center.X + (rand.Float64()*100 - 50),
			Y: center.Y + (rand.Float64()*100 - 50),
		}
	case RoleThief:
		switch rand.Intn(4) {
		case 0:
			return Vec3{X: area.MinX, Y: center.Y}
		case 1:
			return Vec3{X: area.MaxX, Y: center.Y}
		case 2:
			return Vec3{X: center.X, Y: area.MinY}
		default:
			return Vec3{X: center.X, Y: area.MaxY}
		}
	default:
		return center
	}
}

// LeaveRoom removes the session's bound player from its room. If the
// leaver was owner and players remain, ownership transfers to the
// earliest-joined remaining member, per spec.md §4.6. A room left empty
// is removed at once; it is not kept around for an idle timeout.
func (f *Fabric) LeaveRoom(sessionID int64) error {
	sess, ok := f.sessions.Get(sessionID)
	if !ok {
		return WithSession(ErrSessionNotFound, sessionID)
	}
	if !sess.HasPlayer {
		return WithSession(ErrPlayerNotFound, sessionID)
	}

	player, ok := f.players.Get(sess.PlayerID)
	if !ok || !player.HasRoom {
		return WithPlayer(ErrPlayerNotFound, sessionID, sess.PlayerID)
	}
	roomID := player.RoomID

	var destroyable bool
	f.rooms.UpdateWith(roomID, func(r *Room, ok bool) (*Room, bool) {
		if !ok {
			return nil, false
		}
		idx := r.MemberIndex(player.PlayerID)
		if idx >= 0 {
			r.Members = append(r.Members[:idx], r.Members[idx+1:]...)
		}
		if r.Owner == player.PlayerID && len(r.Members) > 0 {
			earliest := r.Members[0]
			for _, m := range r.Members[1:] {
				if m.JoinedAt.Before(earliest.JoinedAt) {
					earliest = m
				}
			}
			r.Owner = earliest.PlayerID
		}
		destroyable = len(r.Members) == 0
		return r, true
	})

	f.players.UpdateWith(player.PlayerID, func(p *Player, ok bool) (*Player, bool) {
		if !ok {
			return nil, false
		}
		p.HasRoom = false
		p.RoomID = 0
		return p, true
	})

	if destroyable {
		f.rooms.Remove(roomID)
	}

	return nil
}

// AdvanceState moves a room's GameState forward, enforcing the
// monotonic progression and the Waiting->Starting player-count
// invariant of spec.md §3.
func (f *Fabric) AdvanceState(roomID uint32, next GameState) error {
	room, ok := f.rooms.Get(roomID)
	if !ok {
		return WithRoom(ErrRoomNotFound, 0, 0, roomID)
	}
	if next <= room.State {
		return WithRoom(ErrInvalidStateProgress, 0, 0, roomID)
	}
	if room.State == StateWaiting && next == StateStarting && len(room.Members) < 2 {
		return WithRoom(ErrNotEnoughPlayers, 0, 0, roomID)
	}

	f.rooms.UpdateWith(roomID, func(r *Room, ok bool) (*Room, bool) {
		if !ok {
			return nil, false
		}
		r.State = next
		if next == StateFinished {
			r.FinishedAt = time.Now()
		}
		return r, true
	})
	return nil
}

// DestroyableRooms returns rooms eligible for reaping: empty for longer
// than idleTimeout, or Finished for longer than 1h, per spec.md §3.
func (f *Fabric) DestroyableRooms(now time.Time, idleTimeout time.Duration) []uint32 {
	var out []uint32
	f.rooms.Range(func(id uint32, r *Room) bool {
		if len(r.Members) == 0 && now.Sub(r.CreatedAt) > idleTimeout {
			out = append(out, id)
			return true
		}
		if r.State == StateFinished && !r.FinishedAt.IsZero() && now.Sub(r.FinishedAt) > time.Hour {
			out = append(out, id)
		}
		return true
	})
	return out
}

// DestroyRoom unconditionally removes a room, used by the reaper.
func (f *Fabric) DestroyRoom(roomID uint32) {
	f.rooms.Remove(roomID)
}
