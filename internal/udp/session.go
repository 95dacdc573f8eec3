package udp

import (
	"net"
	"time"
)

// lifecycleState is a UDP peer's own pre-fabric-session lifecycle, per
// spec.md §4.8 ("first packet from a new peer creates a pending
// session; authentication message promotes it to Authenticated within
// a grace window (default 10s) or the session is evicted").
type lifecycleState int

const (
	statePending lifecycleState = iota
	stateAuthenticated
)

// peer tracks one UDP client: the address its first packet came from,
// reliability state, and lifecycle. The address is never updated: later
// packets carrying the peer's session id are accepted from any address,
// but replies and retransmits always go to this one.
type peer struct {
	sessionID int64
	addr      *net.UDPAddr
	rel       *reliability
	state     lifecycleState
	createdAt time.Time
	lastSeen  time.Time
}

func newPeer(sessionID int64, addr *net.UDPAddr) *peer {
	now := time.Now()
	return &peer{sessionID: sessionID, addr: addr, rel: newReliability(), state: statePending, createdAt: now, lastSeen: now}
}
