package tcp

import (
	"time"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/wire"
)

// heartbeatLoop scans sessions every HeartbeatInterval and closes any
// session whose last heartbeat predates 3x the interval, per spec.md
// §4.7 and the literal scenario in §8 (Timeout close + UserLeft
// broadcast to remaining members).
func (s *Server) heartbeatLoop() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *Server) sweepExpired() {
	cutoff := time.Now().Add(-3 * s.cfg.HeartbeatInterval)
	for _, sessionID := range s.fab.ExpiredSessions(cutoff) {
		s.evict(sessionID)
	}
}

// evict closes a timed-out session, removing its player from any room
// and notifying remaining members, per spec.md §8 scenario 6.
func (s *Server) evict(sessionID int64) {
	sess, ok := s.fab.Session(sessionID)
	if !ok {
		return
	}

	var roomID uint32
	var playerID int64
	var hadRoom bool
	if sess.HasPlayer {
		if p, ok := s.fab.Player(sess.PlayerID); ok && p.HasRoom {
			roomID, playerID, hadRoom = p.RoomID, p.PlayerID, true
		}
	}

	s.fab.RemoveSession(sessionID)
	if sess.Writer != nil {
		sess.Writer.Close()
	}

	if hadRoom {
		env := &wire.Envelope{Kind: wire.KindUserLeft, UserLeft: &wire.UserLeft{RoomID: roomID, PlayerID: playerID, Reason: "heartbeat_timeout"}}
		if encoded, err := wire.Encode(env, false); err == nil {
			s.fab.Broadcast(roomID, encoded, 0, fabric.BroadcastConfig{})
		}
	}

	s.log.Debug().Int64("session_id", sessionID).Msg("session closed: heartbeat timeout")
}
