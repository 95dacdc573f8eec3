package fabric

import "time"

// Bind attaches playerID to sessionID, requiring the session to be in
// Authenticating state and not already bound, per spec.md §4.6.
func (f *Fabric) Bind(sessionID, playerID int64, name string) (*Player, error) {
	sess, ok := f.sessions.Get(sessionID)
	if !ok {
		return nil, WithSession(ErrSessionNotFound, sessionID)
	}
	if sess.State != SessionAuthenticating {
		return nil, WithSession(ErrNotAuthenticating, sessionID)
	}
	if sess.HasPlayer {
		return nil, WithSession(ErrAlreadyBound, sessionID)
	}

	player := &Player{
		PlayerID:       playerID,
		Name:           name,
		SessionID:      sessionID,
		MaxHealth:      100,
		CurrentHealth:  100,
		MaxMana:        100,
		CurrentMana:    100,
		Attack:         10,
		Defense:        5,
		AttackSpeed:    1,
		CritChance:     0.05,
		CritMultiplier: 2,
		MoveSpeed:      5,
		VisionRadius:   500,
		AttackRadius:   50,
		Mode:           ModeIdle,
		LastUpdate:     time.Now(),
		SkillCooldowns: make(map[string]time.Time),
	}
	f.players.Insert(playerID, player)

	f.sessions.UpdateWith(sessionID, func(s *Session, ok bool) (*Session, bool) {
		if !ok {
			return nil, false
		}
		s.State = SessionAuthenticated
		s.PlayerID = playerID
		s.HasPlayer = true
		return s, true
	})

	return player, nil
}
