package tcp

import (
	"context"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/wire"
)

// TokenVerifier validates a gRPC-minted access token, returning the
// authenticated player's id and nickname. Injected rather than imported
// from authgrpc directly, so the transport packages never depend on the
// control-plane package.
type TokenVerifier func(accessToken string) (playerID int64, nickname string, err error)

// RegisterHandlers wires every inbound message kind spec.md §9 lists for
// the TCP pipeline to the corresponding Fabric operation, building the
// literal wire responses spec.md §8's scenarios describe.
func RegisterHandlers(r *Router, fab *fabric.Fabric, verify TokenVerifier, ids func() uint32) {
	r.Handle(wire.KindAuthenticate, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		if env.Authenticate == nil || verify == nil {
			return nil, fabric.WithSession(fabric.ErrNotAuthenticating, sessionID)
		}
		playerID, nickname, err := verify(env.Authenticate.AccessToken)
		if err != nil {
			return nil, err
		}
		name := nickname
		if env.Authenticate.PlayerName != "" {
			name = env.Authenticate.PlayerName
		}
		if _, err := fab.Bind(sessionID, playerID, name); err != nil {
			return nil, err
		}
		return &wire.Envelope{Kind: wire.KindAuthenticateOK}, nil
	})

	r.Handle(wire.KindJoinRoom, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		if env.JoinRoom == nil {
			return nil, fabric.WithSession(fabric.ErrRoomNotFound, sessionID)
		}
		roomID := env.JoinRoom.RoomID
		if env.JoinRoom.Create || roomID == 0 {
			sess, ok := fab.Session(sessionID)
			if !ok || !sess.HasPlayer {
				return nil, fabric.WithSession(fabric.ErrPlayerNotFound, sessionID)
			}
			roomID = ids()
			if _, err := fab.CreateRoom(roomID, env.JoinRoom.Name, sess.PlayerID, 0, fabric.DefaultGameArea); err != nil {
				return nil, err
			}
		}
		if err := fab.JoinRoom(sessionID, roomID); err != nil {
			return nil, err
		}
		return &wire.Envelope{Kind: wire.KindJoinRoomOK, JoinRoom: &wire.JoinRoom{RoomID: roomID}}, nil
	})

	r.Handle(wire.KindLeaveRoom, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		if err := fab.LeaveRoom(sessionID); err != nil {
			return nil, err
		}
		return nil, nil
	})

	r.Handle(wire.KindKickUser, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		if env.KickUser == nil {
			return nil, fabric.WithSession(fabric.ErrNotAMember, sessionID)
		}
		req := env.KickUser
		result, err := fab.Kick(req.RoomID, req.KickerID, req.TargetID, req.Reason)
		if err != nil {
			return &wire.Envelope{Kind: wire.KindKickUserResp, KickUserResp: &wire.KickUserResponse{
				Success: false, RoomID: req.RoomID, TargetID: req.TargetID, Error: err.Error(),
			}}, nil
		}

		notice := &wire.Envelope{Kind: wire.KindUserKicked, UserKicked: &wire.UserKicked{
			RoomID: result.RoomID, KickedUserID: result.TargetPlayerID, KickerID: req.KickerID,
			Reason: req.Reason, RemainingUsers: result.RemainingUsers,
		}}
		if encoded, err := wire.Encode(notice, false); err == nil {
			fab.Broadcast(result.RoomID, encoded, 0, fabric.BroadcastConfig{})
			fab.SendDirect(result.TargetPlayerID, encoded, 0)
		}

		return &wire.Envelope{Kind: wire.KindKickUserResp, KickUserResp: &wire.KickUserResponse{
			Success: true, RoomID: result.RoomID, TargetID: result.TargetPlayerID,
		}}, nil
	})

	r.Handle(wire.KindChat, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		if env.Chat == nil {
			return nil, nil
		}
		sess, ok := fab.Session(sessionID)
		if !ok || !sess.HasPlayer {
			return nil, fabric.WithSession(fabric.ErrPlayerNotFound, sessionID)
		}
		player, ok := fab.Player(sess.PlayerID)
		if !ok || !player.HasRoom {
			return nil, fabric.WithPlayer(fabric.ErrRoomNotFound, sessionID, sess.PlayerID)
		}
		if encoded, err := wire.Encode(env, false); err == nil {
			fab.Broadcast(player.RoomID, encoded, 0, fabric.BroadcastConfig{})
		}
		return nil, nil
	})

	r.Handle(wire.KindHeartBeat, func(ctx context.Context, sessionID int64, env *wire.Envelope) (*wire.Envelope, error) {
		return &wire.Envelope{Kind: wire.KindConnectionAck}, nil
	})
}
