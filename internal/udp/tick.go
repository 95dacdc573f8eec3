package udp

import (
	"time"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/wire"
)

// sustainedLowTPSWindow is how many consecutive slow ticks (below 50
// TPS equivalent) are tolerated before raising an alert, per spec.md
// §4.8.1 ("if sustained TPS drops below 50, raise an alert").
const sustainedLowTPSWindow = 30

// tickLoop drives the authoritative simulation at cfg.TickRate Hz,
// publishing per-room deltas and death notifications, per spec.md
// §4.8.1. Grounded on the fixed-rate game loop in
// _examples/Ancillary-AGI-foundry/networking/server/server.go's
// TICK_RATE constant, rebuilt against this module's Fabric/scheduler
// substrate instead of that repo's raw maps.
func (s *Server) tickLoop() {
	interval := time.Second / time.Duration(s.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()
	lowTPSBudget := time.Second / 50 // a tick longer than this holds the loop below 50 TPS
	lowTPSStreak := 0

	for {
		select {
		case <-ticker.C:
			result := s.fab.Tick(dt, s.skills)
			s.tickCount++

			if s.metrics != nil {
				s.metrics.TickDuration.Observe(result.TickTime.Seconds())
			}

			if result.TickTime > interval {
				s.log.Warn().Dur("tick_time", result.TickTime).Dur("budget", interval).Msg("tick exceeded budget")
			}
			if result.TickTime > lowTPSBudget {
				lowTPSStreak++
			} else {
				lowTPSStreak = 0
			}
			if lowTPSStreak >= sustainedLowTPSWindow {
				s.log.Error().Int("consecutive_slow_ticks", lowTPSStreak).Msg("sustained TPS below 50, alerting")
			}

			s.publishTick(result)

		case <-s.stop:
			return
		}
	}
}

func (s *Server) publishTick(result fabric.TickResult) {
	for roomID, deltas := range result.Deltas {
		states := make([]wire.PlayerState, len(deltas))
		for i, d := range deltas {
			states[i] = wire.PlayerState{
				PlayerID: d.PlayerID,
				X:        d.Position.X, Y: d.Position.Y, Z: d.Position.Z,
				VX: d.Velocity.X, VY: d.Velocity.Y, VZ: d.Velocity.Z,
				CurrentHealth: d.CurrentHealth, CurrentMana: d.CurrentMana,
				Mode: int(d.Mode),
			}
		}
		env := &wire.Envelope{Kind: wire.KindTickUpdate, TickUpdate: &wire.TickUpdate{RoomID: roomID, Tick: s.tickCount, Players: states}}
		encoded, err := wire.Encode(env, true)
		if err != nil {
			continue
		}
		s.fab.Broadcast(roomID, encoded, 0, fabric.BroadcastConfig{})
	}

	for _, death := range result.Deaths {
		env := &wire.Envelope{Kind: wire.KindPlayerDied, PlayerDied: &wire.PlayerDied{RoomID: death.RoomID, VictimID: death.VictimID, AttackerID: death.AttackerID}}
		encoded, err := wire.Encode(env, false)
		if err != nil {
			continue
		}
		s.fab.Broadcast(death.RoomID, encoded, 0, fabric.BroadcastConfig{})
	}
}
