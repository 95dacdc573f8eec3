package tcp

import "net"

// connWriter adapts a net.Conn to fabric.Writer by framing every write.
// The fabric wraps this in a SafeWriter, so no locking is needed here.
type connWriter struct {
	conn         net.Conn
	writeTimeout func() // set per-write deadline, injected by Server
}

func (w *connWriter) WriteMessage(payload []byte) error {
	if w.writeTimeout != nil {
		w.writeTimeout()
	}
	return WriteFrame(w.conn, payload)
}

func (w *connWriter) Close() error {
	return w.conn.Close()
}
