package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// AudienceChangeHandler is called when a group's membership size changes
// (e.g. to broadcast the audience count).
type AudienceChangeHandler func(group string, count int)

// Hub maps named groups ("presentation:{id}", "presenter:{id}") to their
// connections and fans events out to them. It is a pure routing table: no
// ownership or validation logic lives here, callers validate before Join.
// Redis pub/sub keeps the group interface shard-ready: with Redis configured,
// events are published once and delivered by each instance's subscriber.
type Hub struct {
	// group -> map[clientID]*Client
	groups     map[string]map[string]*Client
	subs       map[string]func() // cancel Redis subscription per group
	mu         sync.RWMutex
	logger     *zap.Logger
	redis      RedisPublisher
	redisSub   RedisSubscriber
	onAudience AudienceChangeHandler
}

// RedisPublisher publishes group events for cross-instance broadcast.
type RedisPublisher interface {
	PublishGroupEvent(group, event string, payload []byte) error
}

// RedisSubscriber subscribes to a group's channel and invokes handler for
// incoming events.
type RedisSubscriber interface {
	SubscribeGroup(group string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a
// purely local hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		groups:   make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetAudienceChangeHandler sets the callback for group membership changes.
func (h *Hub) SetAudienceChangeHandler(fn AudienceChangeHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAudience = fn
}

// Join adds a client to a group. The first member triggers the Redis
// subscription for that group's channel.
func (h *Hub) Join(c *Client, group string) {
	h.mu.Lock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeGroup(group, func(event string, payload []byte) {
				h.broadcastLocal(group, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[group] = cancel
			}
		}
	}
	h.groups[group][c.ID] = c
	c.groups[group] = struct{}{}
	count := len(h.groups[group])
	onAudience := h.onAudience
	h.mu.Unlock()
	if onAudience != nil {
		onAudience(group, count)
	}
	h.logger.Debug("client joined group", zap.String("client_id", c.ID), zap.String("group", group))
}

// Leave removes a client from a group. Best-effort: leaving a group the
// client is not in is a no-op. The last member leaving cancels the group's
// Redis subscription.
func (h *Hub) Leave(c *Client, group string) {
	h.mu.Lock()
	count, removed := h.removeLocked(c, group)
	onAudience := h.onAudience
	h.mu.Unlock()
	if onAudience != nil && removed {
		onAudience(group, count)
	}
	h.logger.Debug("client left group", zap.String("client_id", c.ID), zap.String("group", group))
}

// LeaveAll removes a client from every group it joined. Called on disconnect;
// committed state is never rolled back.
func (h *Hub) LeaveAll(c *Client) {
	type change struct {
		group string
		count int
	}
	h.mu.Lock()
	var changes []change
	for group := range c.groups {
		if count, removed := h.removeLocked(c, group); removed {
			changes = append(changes, change{group, count})
		}
	}
	onAudience := h.onAudience
	h.mu.Unlock()
	if onAudience != nil {
		for _, ch := range changes {
			onAudience(ch.group, ch.count)
		}
	}
}

// removeLocked removes the client from one group. Caller holds h.mu.
func (h *Hub) removeLocked(c *Client, group string) (count int, removed bool) {
	m, ok := h.groups[group]
	if !ok {
		return 0, false
	}
	if _, ok := m[c.ID]; !ok {
		return len(m), false
	}
	delete(m, c.ID)
	delete(c.groups, group)
	count = len(m)
	if count == 0 {
		delete(h.groups, group)
		if cancel, ok := h.subs[group]; ok {
			cancel()
			delete(h.subs, group)
		}
	}
	return count, true
}

// Count returns the number of connections currently in a group.
func (h *Hub) Count(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

// Broadcast fans an event out to every member of a group. With Redis
// configured the event is published once and each instance's subscriber
// performs the local fan-out, so local members are never served twice;
// without Redis the fan-out is local. Sends never block: a member with a full
// buffer is skipped rather than stalling the caller.
func (h *Hub) Broadcast(group, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("broadcast marshal failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishGroupEvent(group, event, data); err == nil {
			return
		}
		// Publish failed; fall back to local delivery so this instance's
		// members still see the event.
	}
	h.broadcastLocal(group, event, json.RawMessage(data))
}

func (h *Hub) broadcastLocal(group, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.groups[group]))
	for _, c := range h.groups[group] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
