package fabric

import "errors"

// Sentinel errors for the fabric's operations, one per relevant class
// of spec.md §7's error taxonomy (Protocol, Authorization, Capacity,
// Logic).
var (
	ErrSessionNotFound      = errors.New("fabric: session not found")
	ErrPlayerNotFound       = errors.New("fabric: player not found")
	ErrRoomNotFound         = errors.New("fabric: room not found")
	ErrAlreadyBound         = errors.New("fabric: session already bound to a player")
	ErrNotAuthenticating    = errors.New("fabric: session is not in Authenticating state")
	ErrRoomFull             = errors.New("fabric: room is full")
	ErrNotRoomOwner         = errors.New("fabric: 방장만 사용할 수 있는 기능입니다")
	ErrSelfKick             = errors.New("fabric: cannot kick yourself")
	ErrNotAMember           = errors.New("fabric: target is not a member of the room")
	ErrPlayerDead           = errors.New("fabric: player is dead")
	ErrPlayerOutOfRange     = errors.New("fabric: target out of range")
	ErrAttackOnCooldown     = errors.New("fabric: attack on cooldown")
	ErrInvalidStateProgress = errors.New("fabric: room state cannot regress")
	ErrNotEnoughPlayers     = errors.New("fabric: room needs at least 2 players to start")
)

// Error wraps a sentinel with the session/player/room context spec.md
// §7 requires every surfaced error to carry.
type Error struct {
	Err       error
	SessionID int64
	PlayerID  int64
	RoomID    uint32
	HasPlayer bool
	HasRoom   bool
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// WithSession annotates err with a session id.
func WithSession(err error, sessionID int64) *Error {
	return &Error{Err: err, SessionID: sessionID}
}

// WithPlayer annotates err with session and player ids.
func WithPlayer(err error, sessionID, playerID int64) *Error {
	return &Error{Err: err, SessionID: sessionID, PlayerID: playerID, HasPlayer: true}
}

// WithRoom annotates err with session, player and room ids.
func WithRoom(err error, sessionID, playerID int64, roomID uint32) *Error {
	return &Error{Err: err, SessionID: sessionID, PlayerID: playerID, RoomID: roomID, HasPlayer: true, HasRoom: true}
}
