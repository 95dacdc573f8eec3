package udp

// peerWriter adapts a peer to fabric.Writer, so the fabric broadcaster
// can address UDP peers exactly like TCP connections. Every write is
// sent reliable (retransmit-tracked): per-tick snapshots are frequent
// enough that a dropped one is superseded moments later, but the
// control-plane-shaped messages (UserKicked, UserLeft, PlayerDied) that
// also flow over this same Writer need delivery guarantees, so this
// package does not distinguish the two and always asks for an ack.
type peerWriter struct {
	server *Server
	peer   *peer
}

func (w *peerWriter) WriteMessage(payload []byte) error {
	seq := w.peer.rel.Reserve()
	buf, err := Encode(Packet{SessionID: w.peer.sessionID, Sequence: seq, Flags: FlagReliable, Payload: payload})
	if err != nil {
		return err
	}
	w.peer.rel.TrackPending(seq, buf)
	_, err = w.server.conn.WriteToUDP(buf, w.peer.addr)
	return err
}

func (w *peerWriter) Close() error { return nil }
