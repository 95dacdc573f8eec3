package fabric

import (
	"sync"
	"time"
)

const (
	defaultBatchSize    = 100
	defaultWriteTimeout = 5 * time.Second
)

// BroadcastConfig tunes the parallel broadcaster of spec.md §4.6.
type BroadcastConfig struct {
	BatchSize    int
	WriteTimeout time.Duration
	MaxInFlight  int // semaphore cap on concurrent batches, per spec.md §5
}

func (c *BroadcastConfig) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 8
	}
}

// membersOf returns the member player ids of a room, or nil if absent.
func (f *Fabric) membersOf(roomID uint32) []int64 {
	room, ok := f.rooms.Get(roomID)
	if !ok {
		return nil
	}
	ids := make([]int64, len(room.Members))
	for i, m := range room.Members {
		ids[i] = m.PlayerID
	}
	return ids
}

// Broadcast partitions room roomID's members into equal-size batches
// and dispatches each concurrently, writing under each peer's per-
// session mutex with a bounded per-write timeout. A failed write never
// aborts the rest of the broadcast, per spec.md §4.6/§8.
func (f *Fabric) Broadcast(roomID uint32, payload []byte, exclude int64, cfg BroadcastConfig) {
	cfg.setDefaults()

	members := f.membersOf(roomID)
	if len(members) == 0 {
		return
	}

	batches := batch(members, cfg.BatchSize)
	sem := make(chan struct{}, cfg.MaxInFlight)
	var wg sync.WaitGroup

	for _, b := range batches {
		b := b
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			f.sendBatch(b, payload, exclude, cfg.WriteTimeout)
		}()
	}

	wg.Wait()
}

func (f *Fabric) sendBatch(playerIDs []int64, payload []byte, exclude int64, timeout time.Duration) {
	for _, pid := range playerIDs {
		if pid == exclude {
			continue
		}
		f.sendToPlayer(pid, payload, timeout)
	}
}

// sendToPlayer resolves a player to its session's SafeWriter and writes
// under a bounded timeout. A timeout or write failure only affects this
// recipient.
func (f *Fabric) sendToPlayer(playerID int64, payload []byte, timeout time.Duration) {
	player, ok := f.players.Get(playerID)
	if !ok {
		return
	}
	sess, ok := f.sessions.Get(player.SessionID)
	if !ok || sess.Writer == nil {
		return
	}

	done := make(chan error, 1)
	go func() { done <- sess.Writer.Write(payload) }()

	select {
	case err := <-done:
		if err != nil {
			f.log.Debug().Int64("player_id", playerID).Err(err).Msg("broadcast write failed")
		}
	case <-time.After(timeout):
		f.log.Debug().Int64("player_id", playerID).Msg("broadcast write timed out")
	}
}

// SendDirect writes payload to exactly one player's session, used for
// direct notifications (e.g. the kicked player's UserKicked message).
func (f *Fabric) SendDirect(playerID int64, payload []byte, timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	f.sendToPlayer(playerID, payload, timeout)
}

// SendToSession writes payload directly to a session's transport,
// bypassing player resolution. Used for replies before a session has
// bound a player (e.g. the Authenticate response).
func (f *Fabric) SendToSession(sessionID int64, payload []byte, timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	sess, ok := f.sessions.Get(sessionID)
	if !ok || sess.Writer == nil {
		return
	}

	done := make(chan error, 1)
	go func() { done <- sess.Writer.Write(payload) }()

	select {
	case err := <-done:
		if err != nil {
			f.log.Debug().Int64("session_id", sessionID).Err(err).Msg("direct write failed")
		}
	case <-time.After(timeout):
		f.log.Debug().Int64("session_id", sessionID).Msg("direct write timed out")
	}
}

func batch(ids []int64, size int) [][]int64 {
	var out [][]int64
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}
