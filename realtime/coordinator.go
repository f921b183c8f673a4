// Package realtime implements the per-room session coordinator: connection
// admission, presence, message authorization and fan-out, peer-signaling
// relay and forced eviction.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stowroom/contract"
	"stowroom/domain"
	"stowroom/errors"
	"stowroom/observability"
	"stowroom/protocol"
)

// Coordinator is the single logical owner of one room's live session.
//
// A per-coordinator mutex serializes admission, message handling,
// disconnection and eviction: no two handlers for the same room ever run
// concurrently, so the enumerate-then-broadcast sequences need no further
// locking. Different rooms are fully independent.
//
// No state other than the durable counter survives between messages by
// contract: identity is read from the metadata attached to each live
// connection, and presence is recomputed by enumeration on every use.
type Coordinator struct {
	roomID string

	mu    sync.Mutex
	seq   uint64
	conns map[string]contract.Conn

	sequences  contract.ISequenceRepository
	log        *slog.Logger
	monitoring *observability.MonitoringManager
}

// newCoordinator loads the room's persisted counter before the coordinator
// is handed out. The directory calls this inside its own critical section,
// which is the construction-time barrier: no admission can proceed until
// the load completed.
func newCoordinator(roomID string, sequences contract.ISequenceRepository,
	log *slog.Logger, monitoring *observability.MonitoringManager) (*Coordinator, error) {
	seq, err := sequences.Load(roomID)
	if err != nil {
		return nil, fmt.Errorf("loading sequence for room %s: %w", roomID, err)
	}
	return &Coordinator{
		roomID:     roomID,
		seq:        seq,
		conns:      make(map[string]contract.Conn),
		sequences:  sequences,
		log:        log,
		monitoring: monitoring,
	}, nil
}

func (c *Coordinator) RoomID() string { return c.roomID }

// Admit registers an upgraded connection for an already-authorized
// collaborator. It mints a connection id from the durable counter, attaches
// the metadata before anything else can observe the connection, tells the
// newcomer who is already present, and announces the user to the room only
// on their first simultaneous connection.
func (c *Coordinator) Admit(conn contract.Conn, identity domain.Identity) (domain.ConnectionMetadata, error) {
	if !identity.Complete() {
		return domain.ConnectionMetadata{}, errors.ErrMissingIdentity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// The persisted counter is the correctness guarantee against restarts;
	// the timestamp suffix only keeps ids human-readable.
	next := c.seq + 1
	if err := c.sequences.Store(c.roomID, next); err != nil {
		return domain.ConnectionMetadata{}, fmt.Errorf("persisting sequence for room %s: %w", c.roomID, err)
	}
	c.seq = next

	now := time.Now()
	meta := domain.ConnectionMetadata{
		ConnectionID: fmt.Sprintf("%d-%d", next, now.UnixMilli()),
		UserID:       identity.UserID,
		Username:     identity.Username,
		Role:         identity.Role,
		ConnectedAt:  now,
	}
	if err := conn.Attach(meta); err != nil {
		return domain.ConnectionMetadata{}, err
	}

	// Welcome unicasts: one synthetic user_joined per distinct user already
	// present, so the newcomer can initiate peer signaling with each of them.
	for _, present := range domain.DistinctPresent(c.metadataLocked()) {
		if present.UserID == identity.UserID {
			continue
		}
		payload, err := protocol.UserJoined(present.UserID, present.Username)
		if err != nil {
			return domain.ConnectionMetadata{}, err
		}
		c.write(meta.ConnectionID, conn, payload)
	}

	firstConnection := !c.userHasConnectionLocked(identity.UserID)
	c.conns[meta.ConnectionID] = conn

	// Other participants already know a multi-tab user is present.
	if firstConnection {
		payload, err := protocol.UserJoined(identity.UserID, identity.Username)
		if err != nil {
			return domain.ConnectionMetadata{}, err
		}
		c.broadcastLocked(payload, meta.ConnectionID)
	}

	c.monitoring.AddAdmission()
	c.log.Info("Collaborator connection admitted",
		"room", c.roomID, "connection", meta.ConnectionID,
		"user", identity.UserID, "role", identity.Role, "first", firstConnection)
	return meta, nil
}

// HandleMessage authorizes and dispatches one inbound text frame.
func (c *Coordinator) HandleMessage(conn contract.Conn, data []byte) {
	meta, ok := conn.Metadata()
	if !ok {
		// Frame raced ahead of admission; identity cannot be resolved.
		return
	}

	env, err := protocol.Parse(data)
	if err != nil {
		c.monitoring.AddInvalid()
		c.write(meta.ConnectionID, conn, protocol.InvalidFormatReply())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	route, _ := protocol.RouteOf(env.Type)
	if route == protocol.RouteRelay {
		// Signaling is never subject to room-edit permissions.
		c.relayLocked(meta, env)
		return
	}

	if !protocol.Allowed(meta.Role, env.Type) {
		c.monitoring.AddDenied()
		c.log.Debug("Message denied by role policy",
			"room", c.roomID, "user", meta.UserID, "type", env.Type)
		c.write(meta.ConnectionID, conn, protocol.PermissionDeniedReply())
		return
	}

	// Excluded per connection, not per user: the sender's other open tabs
	// must still see the edit.
	c.broadcastLocked(env.Raw(), meta.ConnectionID)
	c.monitoring.AddBroadcast()
}

// relayLocked delivers a signaling message to every connection of the
// addressed user and nobody else. An absent target is silently discarded.
func (c *Coordinator) relayLocked(sender domain.ConnectionMetadata, env *protocol.Envelope) {
	target := env.TargetUserID()
	if target == "" {
		return
	}

	var delivered bool
	var forwarded []byte
	for id, conn := range c.conns {
		meta, ok := conn.Metadata()
		if !ok || meta.UserID != target {
			continue
		}
		if forwarded == nil {
			payload, err := env.Forward(sender.UserID, sender.Username)
			if err != nil {
				c.log.Error("Failed to build forwarded signal",
					"room", c.roomID, "type", env.Type, "err", err)
				return
			}
			forwarded = payload
		}
		c.write(id, conn, forwarded)
		delivered = true
	}
	if delivered {
		c.monitoring.AddRelay()
	}
}

// HandleClose recomputes presence for the departing user. Announcing
// user_left happens only on the 1->0 edge; a connection never admitted, or
// one already removed by an eviction, announces nothing.
func (c *Coordinator) HandleClose(conn contract.Conn) {
	meta, ok := conn.Metadata()
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, registered := c.conns[meta.ConnectionID]; !registered {
		return
	}
	delete(c.conns, meta.ConnectionID)
	c.monitoring.AddClosure()

	if c.userHasConnectionLocked(meta.UserID) {
		return
	}
	payload, err := protocol.UserLeft(meta.UserID)
	if err != nil {
		c.log.Error("Failed to build user_left", "room", c.roomID, "err", err)
		return
	}
	c.broadcastLocked(payload, meta.ConnectionID)
	c.log.Info("Collaborator left room", "room", c.roomID, "user", meta.UserID)
}

// Evict force-closes every connection of a user, notifying each of them
// first, then announces the departure to the remaining room immediately
// rather than waiting for the transport's close callbacks. Evicting a user
// with no open connections is a no-op.
func (c *Coordinator) Evict(userID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := protocol.MemberRemoved(userID, c.roomID)
	if err != nil {
		return 0, err
	}

	var evicted int
	for id, conn := range c.conns {
		meta, ok := conn.Metadata()
		if !ok || meta.UserID != userID {
			continue
		}
		c.write(id, conn, removed)
		if err := conn.Close(contract.CloseNormalClosure, "removed from room"); err != nil {
			c.log.Warn("Failed to close evicted connection",
				"room", c.roomID, "connection", id, "err", err)
		}
		delete(c.conns, id)
		evicted++
	}
	if evicted == 0 {
		return 0, nil
	}

	payload, err := protocol.UserLeft(userID)
	if err != nil {
		return evicted, err
	}
	c.broadcastLocked(payload, "")
	c.monitoring.AddEviction()
	c.log.Info("Collaborator evicted", "room", c.roomID, "user", userID, "connections", evicted)
	return evicted, nil
}

// Present returns the distinct users with at least one open connection.
func (c *Coordinator) Present() []domain.PresentUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.DistinctPresent(c.metadataLocked())
}

// ConnectionCount reports the number of open connections, all tabs counted.
func (c *Coordinator) ConnectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conns)
}

// broadcastLocked writes one already-serialized payload to every open
// connection except the excluded one. A failed write is logged and skipped;
// it never aborts delivery to the remaining connections.
func (c *Coordinator) broadcastLocked(payload []byte, excludeConnectionID string) {
	for id, conn := range c.conns {
		if id == excludeConnectionID {
			continue
		}
		c.write(id, conn, payload)
	}
}

func (c *Coordinator) write(id string, conn contract.Conn, payload []byte) {
	if err := conn.Write(payload); err != nil {
		// The transport reaps the connection through its own close handling.
		c.log.Warn("Dropping undeliverable frame",
			"room", c.roomID, "connection", id, "err", err)
	}
}

// metadataLocked derives the registry view by asking each live connection
// for its attached metadata.
func (c *Coordinator) metadataLocked() []domain.ConnectionMetadata {
	metas := make([]domain.ConnectionMetadata, 0, len(c.conns))
	for _, conn := range c.conns {
		if meta, ok := conn.Metadata(); ok {
			metas = append(metas, meta)
		}
	}
	return metas
}

func (c *Coordinator) userHasConnectionLocked(userID string) bool {
	for _, conn := range c.conns {
		if meta, ok := conn.Metadata(); ok && meta.UserID == userID {
			return true
		}
	}
	return false
}
