package fabric

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/wqdsca/police-thief/internal/perf/shardmap"
)

// Fabric is the authoritative in-memory model described by spec.md
// §4.6: sharded maps of sessions, players and rooms, plus the member
// index each room's broadcast and membership operations use. Every
// mutation goes through a Fabric method — callers never reach into a
// shardmap directly, matching spec.md §9's ownership design note.
type Fabric struct {
	sessions *shardmap.ShardedMap[int64, *Session]
	players  *shardmap.ShardedMap[int64, *Player]
	rooms    *shardmap.ShardedMap[uint32, *Room]

	events *eventQueue
	log    zerolog.Logger
}

// New constructs a Fabric sized for expectedSessions concurrent
// connections.
func New(log zerolog.Logger, expectedSessions int) *Fabric {
	return &Fabric{
		sessions: shardmap.New[int64, *Session](shardmap.WithExpectedEntries(expectedSessions)),
		players:  shardmap.New[int64, *Player](shardmap.WithExpectedEntries(expectedSessions)),
		rooms:    shardmap.New[uint32, *Room](shardmap.WithExpectedEntries(expectedSessions / 8)),
		events:   &eventQueue{},
		log:      log,
	}
}

// RegisterSession inserts a newly-accepted session in Authenticating
// state, per spec.md §3's session lifecycle ("created on accept/first
// packet").
func (f *Fabric) RegisterSession(sessionID int64, peerAddr string, w *SafeWriter) *Session {
	s := &Session{
		SessionID:     sessionID,
		PeerAddr:      peerAddr,
		BindTime:      time.Now(),
		State:         SessionAuthenticating,
		LastHeartbeat: time.Now(),
		Writer:        w,
	}
	f.sessions.Insert(sessionID, s)
	return s
}

// Session returns the session for id, if present.
func (f *Fabric) Session(id int64) (*Session, bool) { return f.sessions.Get(id) }

// Player returns the player for id, if present.
func (f *Fabric) Player(id int64) (*Player, bool) { return f.players.Get(id) }

// Room returns the room for id, if present.
func (f *Fabric) Room(id uint32) (*Room, bool) { return f.rooms.Get(id) }

// SessionCount reports the number of tracked sessions.
func (f *Fabric) SessionCount() int { return f.sessions.Len() }

// RoomCount reports the number of tracked rooms.
func (f *Fabric) RoomCount() int { return f.rooms.Len() }

// Touch updates a session's last-heartbeat instant.
func (f *Fabric) Touch(sessionID int64) {
	f.sessions.UpdateWith(sessionID, func(s *Session, ok bool) (*Session, bool) {
		if !ok {
			return nil, false
		}
		s.LastHeartbeat = time.Now()
		return s, true
	})
}

// RemoveSession tears down a session. If it held a player bound to a
// room, the player is first removed from that room (see LeaveRoom).
func (f *Fabric) RemoveSession(sessionID int64) {
	sess, ok := f.sessions.Get(sessionID)
	if !ok {
		return
	}

	if sess.HasPlayer {
		if p, ok := f.players.Get(sess.PlayerID); ok && p.HasRoom {
			f.LeaveRoom(sessionID)
		}
		f.players.Remove(sess.PlayerID)
	}

	f.sessions.Remove(sessionID)
}

// ExpiredSessions returns the ids of every session whose last heartbeat
// predates the cutoff, for the TCP heartbeat sweep of spec.md §4.7.
func (f *Fabric) ExpiredSessions(cutoff time.Time) []int64 {
	var out []int64
	f.sessions.Range(func(id int64, s *Session) bool {
		if s.LastHeartbeat.Before(cutoff) {
			out = append(out, id)
		}
		return true
	})
	return out
}
