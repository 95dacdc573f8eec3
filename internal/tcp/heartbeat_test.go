package tcp

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/idgen"
	"github.com/wqdsca/police-thief/internal/perf/scheduler"
)

type fakeConn struct {
	closed bool
}

func (c *fakeConn) WriteMessage(p []byte) error { return nil }
func (c *fakeConn) Close() error                { c.closed = true; return nil }

func newTestServer(t *testing.T) (*Server, *fabric.Fabric) {
	t.Helper()
	fab := fabric.New(zerolog.Nop(), 16)
	sched := scheduler.New(scheduler.Config{})
	srv := New(Config{HeartbeatInterval: 30 * time.Second}, fab, sched, NewRouter(), idgen.NewGenerator(), zerolog.Nop())
	return srv, fab
}

// TestHeartbeatSweepEvictsExpiredSession exercises spec.md §8 scenario 6:
// a session whose last heartbeat predates 3x the interval is removed and
// its transport closed. The session holds no room, so the UserLeft
// broadcast to remaining members is not exercised here.
func TestHeartbeatSweepEvictsExpiredSession(t *testing.T) {
	srv, fab := newTestServer(t)

	conn := &fakeConn{}
	fab.RegisterSession(1, "127.0.0.1:0", fabric.NewSafeWriter(conn, time.Second))
	sess, ok := fab.Session(1)
	require.True(t, ok)
	sess.LastHeartbeat = time.Now().Add(-time.Hour)

	srv.sweepExpired()

	_, ok = fab.Session(1)
	require.False(t, ok, "expired session must be removed")
	require.True(t, conn.closed, "expired session's transport must be closed")
}

func TestHeartbeatSweepLeavesFreshSessions(t *testing.T) {
	srv, fab := newTestServer(t)

	conn := &fakeConn{}
	fab.RegisterSession(2, "127.0.0.1:0", fabric.NewSafeWriter(conn, time.Second))

	srv.sweepExpired()

	_, ok := fab.Session(2)
	require.True(t, ok, "recently-active session must survive the sweep")
	require.False(t, conn.closed)
}
