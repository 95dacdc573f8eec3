package udp

import (
	"context"
	"time"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/wire"
)

// dispatch decodes one deliverable payload and submits its handling to
// the scheduler at the message kind's priority, mirroring the TCP
// pipeline's submit() so both transports share the same backpressure
// and ordering semantics (spec.md §5).
func (s *Server) dispatch(p *peer, payload []byte) {
	env, err := wire.Decode(payload)
	if err != nil {
		s.log.Debug().Err(err).Msg("udp decode failed")
		return
	}

	priority := wire.PriorityOf(env.Kind)
	s.sched.Submit(priority, time.Time{}, func(ctx context.Context) {
		s.fab.Touch(p.sessionID)
		s.handle(ctx, p, env)
	})
}

func (s *Server) handle(ctx context.Context, p *peer, env *wire.Envelope) {
	switch env.Kind {
	case wire.KindHeartBeat:
		// Touch already ran in dispatch; no reply needed.

	case wire.KindAuthenticate:
		s.handleAuthenticate(p, env.Authenticate)

	case wire.KindMove:
		if env.Move == nil {
			return
		}
		s.withBoundPlayer(p, func(playerID int64) {
			s.fab.SetVelocity(playerID, fabric.Vec3{X: env.Move.VelocityX, Y: env.Move.VelocityY, Z: env.Move.VelocityZ})
		})

	case wire.KindAttack:
		if env.Attack == nil {
			return
		}
		s.withBoundPlayer(p, func(playerID int64) {
			s.fab.QueueAttack(playerID, env.Attack.TargetID)
		})

	case wire.KindCastSkill:
		if env.CastSkill == nil {
			return
		}
		s.withBoundPlayer(p, func(playerID int64) {
			s.fab.QueueCastSkill(playerID, env.CastSkill.SkillID, env.CastSkill.TargetID,
				fabric.Vec3{X: env.CastSkill.TargetX, Y: env.CastSkill.TargetY, Z: env.CastSkill.TargetZ})
		})

	case wire.KindRespawn:
		s.withBoundPlayer(p, func(playerID int64) {
			s.fab.QueueRespawn(playerID)
		})
	}
}

// handleAuthenticate promotes a pending peer to Authenticated, per
// spec.md §4.8's grace-window promotion, binding the session to a
// player the same way the TCP pipeline does.
func (s *Server) handleAuthenticate(p *peer, auth *wire.Authenticate) {
	if auth == nil || s.verify == nil {
		return
	}
	playerID, nickname, err := s.verify(auth.AccessToken)
	if err != nil {
		s.log.Debug().Int64("session_id", p.sessionID).Err(err).Msg("udp authenticate failed")
		return
	}

	name := nickname
	if auth.PlayerName != "" {
		name = auth.PlayerName
	}
	if _, err := s.fab.Bind(p.sessionID, playerID, name); err != nil {
		s.log.Debug().Int64("session_id", p.sessionID).Err(err).Msg("udp bind failed")
		return
	}

	p.state = stateAuthenticated
	resp, err := wire.Encode(&wire.Envelope{Kind: wire.KindAuthenticateOK}, false)
	if err == nil {
		s.fab.SendToSession(p.sessionID, resp, 2*time.Second)
	}
}

// withBoundPlayer resolves the peer's session to its bound player id
// and runs fn, a no-op if the session hasn't authenticated yet.
func (s *Server) withBoundPlayer(p *peer, fn func(playerID int64)) {
	sess, ok := s.fab.Session(p.sessionID)
	if !ok || !sess.HasPlayer {
		return
	}
	fn(sess.PlayerID)
}
