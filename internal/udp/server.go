package udp

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/wqdsca/police-thief/internal/fabric"
	"github.com/wqdsca/police-thief/internal/idgen"
	"github.com/wqdsca/police-thief/internal/perf/metrics"
	"github.com/wqdsca/police-thief/internal/perf/scheduler"
	"github.com/wqdsca/police-thief/internal/perf/shardmap"
)

// GraceWindow is how long a pending (unauthenticated) UDP peer is kept
// before eviction, per spec.md §4.8.
const GraceWindow = 10 * time.Second

// TokenVerifier validates an access token minted by the gRPC auth
// control plane and returns the authenticated player's id and nickname.
// Both protocol servers take this as an injected dependency rather than
// importing the authgrpc package directly, keeping the transport and
// control-plane packages decoupled.
type TokenVerifier func(accessToken string) (playerID int64, nickname string, err error)

// Config tunes the UDP server.
type Config struct {
	Host        string
	Port        int
	GraceWindow time.Duration
	TickRate    int // ticks per second, default 60 per spec.md §4.8.1
}

func (c *Config) setDefaults() {
	if c.GraceWindow <= 0 {
		c.GraceWindow = GraceWindow
	}
	if c.TickRate <= 0 {
		c.TickRate = 60
	}
}

// Server is the UDP pipeline of spec.md §4.8: one socket shared by every
// peer, demultiplexed by session id, backed by a per-session reliability
// record and the authoritative tick loop.
type Server struct {
	cfg     Config
	fab     *fabric.Fabric
	sched   *scheduler.Scheduler
	ids     *idgen.Generator
	skills  *fabric.SkillCatalog
	metrics *metrics.Registry
	verify  TokenVerifier
	log     zerolog.Logger

	conn *net.UDPConn
	stop chan struct{}

	peers      *shardmap.ShardedMap[int64, *peer]
	addrToPeer *shardmap.ShardedMap[string, int64]

	tickCount uint64
}

// New constructs a Server. Call Serve to bind and start the read and
// tick loops.
func New(cfg Config, fab *fabric.Fabric, sched *scheduler.Scheduler, ids *idgen.Generator, skills *fabric.SkillCatalog, m *metrics.Registry, verify TokenVerifier, log zerolog.Logger) *Server {
	cfg.setDefaults()
	return &Server{
		cfg: cfg, fab: fab, sched: sched, ids: ids, skills: skills, metrics: m, verify: verify, log: log,
		stop:       make(chan struct{}),
		peers:      shardmap.New[int64, *peer](),
		addrToPeer: shardmap.New[string, int64](),
	}
}

// Serve binds the socket and runs the read loop, grace-window sweep, and
// tick loop until Close is called.
func (s *Server) Serve() error {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(s.cfg.Host, itoa(s.cfg.Port)))
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	s.conn = conn

	go s.graceSweepLoop()
	go s.retransmitLoop()
	go s.tickLoop()

	buf := make([]byte, 2048)
	for {
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stop:
				return nil
			default:
				s.log.Debug().Err(err).Msg("udp read failed")
				continue
			}
		}
		pkt, err := Decode(buf[:n])
		if err != nil {
			s.log.Debug().Err(err).Msg("udp decode failed")
			continue
		}
		s.handlePacket(pkt, raddr)
	}
}

// Close stops all loops and releases the socket.
func (s *Server) Close() error {
	close(s.stop)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Server) handlePacket(pkt Packet, raddr *net.UDPAddr) {
	p := s.resolvePeer(pkt, raddr)
	if p == nil {
		return
	}
	p.lastSeen = time.Now()

	if pkt.IsFin() {
		s.removePeer(p.sessionID)
		return
	}
	if pkt.IsAck() {
		p.rel.OnAck(pkt.Sequence)
		return
	}

	deliverable := p.rel.Deliver(pkt.Sequence, pkt.Payload)
	if pkt.Reliable() {
		s.sendAck(p, pkt.Sequence)
	}

	for _, payload := range deliverable {
		s.dispatch(p, payload)
	}
}

// resolvePeer maps an inbound datagram to its peer record, minting a new
// pending peer for session_id 0 (first-contact) packets.
func (s *Server) resolvePeer(pkt Packet, raddr *net.UDPAddr) *peer {
	if pkt.SessionID != 0 {
		p, ok := s.peers.Get(pkt.SessionID)
		if !ok {
			return nil
		}
		return p
	}

	key := raddr.String()
	if id, ok := s.addrToPeer.Get(key); ok {
		if p, ok := s.peers.Get(id); ok {
			return p
		}
	}

	sessionID := s.ids.Next()
	p := newPeer(sessionID, raddr)
	s.peers.Insert(sessionID, p)
	s.addrToPeer.Insert(key, sessionID)
	s.fab.RegisterSession(sessionID, key, fabric.NewSafeWriter(&peerWriter{server: s, peer: p}, 2*time.Second))
	s.log.Debug().Int64("session_id", sessionID).Str("addr", key).Msg("udp peer created")
	return p
}

func (s *Server) removePeer(sessionID int64) {
	if p, ok := s.peers.Remove(sessionID); ok {
		s.addrToPeer.Remove(p.addr.String())
	}
	s.fab.RemoveSession(sessionID)
}

func (s *Server) sendAck(p *peer, seq uint32) {
	buf, err := Encode(Packet{SessionID: p.sessionID, Sequence: seq, Flags: FlagAck})
	if err != nil {
		return
	}
	s.conn.WriteToUDP(buf, p.addr)
}

// graceSweepLoop evicts pending peers that never authenticated within
// the grace window, per spec.md §4.8.
func (s *Server) graceSweepLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.GraceWindow)
			var expired []int64
			s.peers.Range(func(id int64, p *peer) bool {
				if p.state == statePending && p.createdAt.Before(cutoff) {
					expired = append(expired, id)
				}
				return true
			})
			for _, id := range expired {
				s.log.Debug().Int64("session_id", id).Msg("udp peer evicted: grace window expired")
				s.removePeer(id)
			}
		case <-s.stop:
			return
		}
	}
}

// retransmitLoop resends datagrams whose retransmit timeout elapsed, per
// spec.md §4.8.
func (s *Server) retransmitLoop() {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			s.peers.Range(func(id int64, p *peer) bool {
				for _, data := range p.rel.DueRetransmits(now) {
					if s.metrics != nil {
						s.metrics.UDPRetransmits.Inc()
					}
					s.conn.WriteToUDP(data, p.addr)
				}
				return true
			})
		case <-s.stop:
			return
		}
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
