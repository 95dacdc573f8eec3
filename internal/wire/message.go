// Package wire defines the inbound/outbound message shapes carried over
// the TCP and UDP pipelines (spec.md §6), and the scheduler priority
// each inbound kind maps to (spec.md §4.7). Messages are tagged unions:
// the JSON tag deserializes into Kind, then a single dispatch switch
// picks the handler — no per-message vtables in the hot path, per
// spec.md §9.
package wire

import (
	"github.com/wqdsca/police-thief/internal/perf/scheduler"
)

// Kind identifies an inbound or outbound message's shape.
type Kind string

const (
	KindHeartBeat      Kind = "heart_beat"
	KindConnectionAck  Kind = "connection_ack"
	KindAuthenticate   Kind = "authenticate"
	KindAuthenticateOK Kind = "authenticate_ok"
	KindJoinRoom       Kind = "join_room"
	KindJoinRoomOK     Kind = "join_room_ok"
	KindLeaveRoom      Kind = "leave_room"
	KindKickUser       Kind = "kick_user"
	KindKickUserResp   Kind = "kick_user_response"
	KindUserKicked     Kind = "user_kicked"
	KindUserLeft       Kind = "user_left"
	KindMove           Kind = "move"
	KindAttack         Kind = "attack"
	KindCastSkill      Kind = "cast_skill"
	KindRespawn        Kind = "respawn"
	KindChat           Kind = "chat"
	KindTickUpdate     Kind = "tick_update"
	KindPlayerDied     Kind = "player_died"
	KindErrorResponse  Kind = "error"
	KindHistory        Kind = "history"
)

// PriorityOf implements spec.md §4.7's message-kind -> scheduler
// priority mapping.
func PriorityOf(k Kind) scheduler.Priority {
	switch k {
	case KindHeartBeat, KindConnectionAck:
		return scheduler.Critical
	case KindAuthenticate, KindJoinRoom, KindLeaveRoom, KindKickUser:
		return scheduler.High
	case KindMove, KindAttack, KindCastSkill, KindRespawn, KindChat:
		return scheduler.Normal
	case KindHistory:
		return scheduler.Low
	default:
		return scheduler.Normal
	}
}

// Envelope is the outer tagged-union frame: Kind selects which of the
// optional payload fields is populated. Encoded either as JSON (tag byte
// 0x00-0x7F) or msgpack (0x80-0xFF) per spec.md §6.
type Envelope struct {
	Kind Kind `json:"kind" msgpack:"kind"`

	Authenticate   *Authenticate   `json:"authenticate,omitempty" msgpack:"authenticate,omitempty"`
	JoinRoom       *JoinRoom       `json:"join_room,omitempty" msgpack:"join_room,omitempty"`
	KickUser       *KickUser       `json:"kick_user,omitempty" msgpack:"kick_user,omitempty"`
	KickUserResp   *KickUserResponse `json:"kick_user_response,omitempty" msgpack:"kick_user_response,omitempty"`
	UserKicked     *UserKicked     `json:"user_kicked,omitempty" msgpack:"user_kicked,omitempty"`
	UserLeft       *UserLeft       `json:"user_left,omitempty" msgpack:"user_left,omitempty"`
	Move           *Move           `json:"move,omitempty" msgpack:"move,omitempty"`
	Attack         *Attack         `json:"attack,omitempty" msgpack:"attack,omitempty"`
	CastSkill      *CastSkill      `json:"cast_skill,omitempty" msgpack:"cast_skill,omitempty"`
	Respawn        *Respawn        `json:"respawn,omitempty" msgpack:"respawn,omitempty"`
	Chat           *Chat           `json:"chat,omitempty" msgpack:"chat,omitempty"`
	TickUpdate     *TickUpdate     `json:"tick_update,omitempty" msgpack:"tick_update,omitempty"`
	PlayerDied     *PlayerDied     `json:"player_died,omitempty" msgpack:"player_died,omitempty"`
	ErrorResponse  *ErrorResponse  `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Authenticate is the client's login request carrying a gRPC-minted
// access token.
type Authenticate struct {
	AccessToken string `json:"access_token" msgpack:"access_token"`
	PlayerName  string `json:"player_name" msgpack:"player_name"`
}

// JoinRoom requests membership in a room. When Create is true or RoomID
// is zero, the TCP handler first creates a new room under a fresh id and
// joins that one.
type JoinRoom struct {
	RoomID uint32 `json:"room_id" msgpack:"room_id"`
	Create bool   `json:"create" msgpack:"create"`
	Name   string `json:"name,omitempty" msgpack:"name,omitempty"`
}

// KickUser is spec.md §8 scenario 1/2's literal request shape.
type KickUser struct {
	RoomID   uint32 `json:"room_id" msgpack:"room_id"`
	KickerID int64  `json:"kicker_id" msgpack:"kicker_id"`
	TargetID int64  `json:"target_id" msgpack:"target_id"`
	Reason   string `json:"reason" msgpack:"reason"`
}

// KickUserResponse is sent back to the requester.
type KickUserResponse struct {
	Success  bool   `json:"success" msgpack:"success"`
	RoomID   uint32 `json:"room_id" msgpack:"room_id"`
	TargetID int64  `json:"target_id" msgpack:"target_id"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// UserKicked is broadcast to remaining members and sent directly to the
// kicked player.
type UserKicked struct {
	RoomID         uint32 `json:"room_id" msgpack:"room_id"`
	KickedUserID   int64  `json:"kicked_user_id" msgpack:"kicked_user_id"`
	KickerID       int64  `json:"kicker_id" msgpack:"kicker_id"`
	Reason         string `json:"reason" msgpack:"reason"`
	RemainingUsers int    `json:"remaining_users" msgpack:"remaining_users"`
}

// UserLeft is broadcast when a member leaves (including via heartbeat
// timeout eviction, spec.md §8 scenario 6).
type UserLeft struct {
	RoomID   uint32 `json:"room_id" msgpack:"room_id"`
	PlayerID int64  `json:"player_id" msgpack:"player_id"`
	Reason   string `json:"reason" msgpack:"reason"`
}

// Move carries a velocity update for the tick loop.
type Move struct {
	VelocityX float64 `json:"vx" msgpack:"vx"`
	VelocityY float64 `json:"vy" msgpack:"vy"`
	VelocityZ float64 `json:"vz" msgpack:"vz"`
}

// Attack requests an attack on TargetID.
type Attack struct {
	TargetID int64 `json:"target_id" msgpack:"target_id"`
}

// CastSkill requests a skill cast, optionally targeted at a player
// and/or a world-space area (for AOE skills).
type CastSkill struct {
	SkillID    string  `json:"skill_id" msgpack:"skill_id"`
	TargetID   int64   `json:"target_id,omitempty" msgpack:"target_id,omitempty"`
	TargetX    float64 `json:"target_x,omitempty" msgpack:"target_x,omitempty"`
	TargetY    float64 `json:"target_y,omitempty" msgpack:"target_y,omitempty"`
	TargetZ    float64 `json:"target_z,omitempty" msgpack:"target_z,omitempty"`
}

// Respawn requests the dead sender be restored, per spec.md §4.8.1
// step 4.
type Respawn struct{}

// Chat is an unstructured room-scoped chat line.
type Chat struct {
	Text string `json:"text" msgpack:"text"`
}

// PlayerState is one player's snapshot within a TickUpdate.
type PlayerState struct {
	PlayerID      int64   `json:"player_id" msgpack:"player_id"`
	X             float64 `json:"x" msgpack:"x"`
	Y             float64 `json:"y" msgpack:"y"`
	Z             float64 `json:"z" msgpack:"z"`
	VX            float64 `json:"vx" msgpack:"vx"`
	VY            float64 `json:"vy" msgpack:"vy"`
	VZ            float64 `json:"vz" msgpack:"vz"`
	CurrentHealth float64 `json:"current_health" msgpack:"current_health"`
	CurrentMana   float64 `json:"current_mana" msgpack:"current_mana"`
	Mode          int     `json:"mode" msgpack:"mode"`
}

// TickUpdate is the per-tick room snapshot the UDP pipeline publishes to
// every member, per spec.md §4.8.1 step 5.
type TickUpdate struct {
	RoomID  uint32        `json:"room_id" msgpack:"room_id"`
	Tick    uint64        `json:"tick" msgpack:"tick"`
	Players []PlayerState `json:"players" msgpack:"players"`
}

// PlayerDied announces a kill for score attribution, per spec.md
// §4.8.1 step 3.
type PlayerDied struct {
	RoomID     uint32 `json:"room_id" msgpack:"room_id"`
	VictimID   int64  `json:"victim_id" msgpack:"victim_id"`
	AttackerID int64  `json:"attacker_id" msgpack:"attacker_id"`
}

// ErrorResponse is the typed error envelope of spec.md §7.
type ErrorResponse struct {
	Code    string `json:"code" msgpack:"code"`
	Message string `json:"message" msgpack:"message"`
}
