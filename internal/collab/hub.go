package collab

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fieldsight/fieldsight/pkg/logger"
	"github.com/fieldsight/fieldsight/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MiB

	defaultBufferSize = 64
)

// PresenceUser describes one active subscriber of an entity key.
type PresenceUser struct {
	UserID   string    `json:"userId"`
	UserName string    `json:"userName,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Hub coordinates entity-keyed collaboration channels: subscriptions,
// chat history replay, presence, and best-effort broadcast. One Hub is
// constructed at process start and shared by the socket handler and the
// REST handlers that emit update broadcasts.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*connection]time.Time // key -> conn -> joinedAt
	history     map[string]*historyRing
	upgrader    websocket.Upgrader
	log         *zap.Logger
	now         func() time.Time
}

// NewHub constructs a collaboration hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*connection]time.Time),
		history:     make(map[string]*historyRing),
		log:         logger.WithModule("collab"),
		now:         time.Now,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Allow same-origin requests and explicit localhost development.
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and runs its read loop.
// userID and userName may be empty; the client can identify itself later
// with an in-band auth message.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID, userName string) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{
		hub:      h,
		socket:   socket,
		userID:   strings.TrimSpace(userID),
		userName: strings.TrimSpace(userName),
		subs:     make(map[string]struct{}),
		send:     make(chan Message, defaultBufferSize),
	}

	metrics.CollabConnections.Inc()

	conn.enqueue(h.stamp(Message{
		Type:    TypeInfo,
		Message: "connected to collaboration channel",
	}))

	go conn.writeLoop()
	conn.readLoop()
}

// Broadcast delivers a message to every connection subscribed to the
// entity key. Chat messages are appended to the key's history first so
// replay and live delivery see the same stamped record. Delivery is
// best-effort: slow or dead peers are dropped, never waited on.
func (h *Hub) Broadcast(entity, entityID string, msg Message) {
	msg.Entity = normalizeToken(entity)
	msg.EntityID = normalizeToken(entityID)
	if msg.Entity == "" || msg.EntityID == "" {
		return
	}
	msg = h.stamp(msg)
	key := msg.key()

	var overflow []*connection

	h.mu.Lock()
	if msg.Type == TypeChat {
		ring := h.history[key]
		if ring == nil {
			ring = &historyRing{}
			h.history[key] = ring
		}
		ring.append(msg, h.now())
	}
	for conn := range h.subscribers[key] {
		if !conn.tryEnqueue(msg) {
			overflow = append(overflow, conn)
		}
	}
	h.mu.Unlock()

	metrics.CollabBroadcasts.WithLabelValues(msg.Type).Inc()

	// Closing takes the hub lock, so it must happen outside the critical
	// section above.
	for _, conn := range overflow {
		metrics.CollabDroppedClients.Inc()
		h.log.Warn("dropping backpressured client", zap.String("user_id", conn.userID))
		conn.close()
	}
}

// ActiveUsers reports the presence roster for an entity key using the
// join timestamps recorded at subscription time.
func (h *Hub) ActiveUsers(entity, entityID string) []PresenceUser {
	key := Key(entity, entityID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rosterLocked(key)
}

func (h *Hub) rosterLocked(key string) []PresenceUser {
	conns := h.subscribers[key]
	users := make([]PresenceUser, 0, len(conns))
	for conn, joinedAt := range conns {
		if conn.userID == "" {
			continue
		}
		users = append(users, PresenceUser{
			UserID:   conn.userID,
			UserName: conn.userName,
			JoinedAt: joinedAt,
		})
	}
	return users
}

// History returns the buffered chat messages for an entity key in
// arrival order.
func (h *Hub) History(entity, entityID string) []Message {
	key := Key(entity, entityID)

	h.mu.RLock()
	defer h.mu.RUnlock()

	ring := h.history[key]
	if ring == nil {
		return nil
	}
	return ring.snapshot()
}

// PruneIdle drops history for keys that have no subscribers and no chat
// activity within maxIdle. Returns the number of keys reclaimed.
func (h *Hub) PruneIdle(maxIdle time.Duration) int {
	cutoff := h.now().Add(-maxIdle)

	h.mu.Lock()
	defer h.mu.Unlock()

	pruned := 0
	for key, ring := range h.history {
		if len(h.subscribers[key]) > 0 {
			continue
		}
		if ring.lastActive.After(cutoff) {
			continue
		}
		delete(h.history, key)
		pruned++
	}
	return pruned
}

// ConnectionCount reports the number of distinct connections holding at
// least one subscription.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*connection]struct{})
	for _, conns := range h.subscribers {
		for conn := range conns {
			seen[conn] = struct{}{}
		}
	}
	return len(seen)
}

// stamp fills the message ID and timestamp when the sender omitted them.
func (h *Hub) stamp(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = h.now().UnixMilli()
	}
	return msg
}

// setIdentity records the authenticated user on the connection. Identity
// is guarded by the hub lock because presence rosters read it from other
// goroutines.
func (h *Hub) setIdentity(conn *connection, userID, userName string) {
	h.mu.Lock()
	conn.userID = strings.TrimSpace(userID)
	conn.userName = strings.TrimSpace(userName)
	h.mu.Unlock()
}

func (h *Hub) identityOf(conn *connection) (string, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return conn.userID, conn.userName
}

func (h *Hub) subscribe(conn *connection, key string) {
	h.mu.Lock()

	if _, exists := conn.subs[key]; !exists {
		conn.subs[key] = struct{}{}
		if h.subscribers[key] == nil {
			h.subscribers[key] = make(map[*connection]time.Time)
		}
		h.subscribers[key][conn] = h.now()
	}

	var history []Message
	if ring := h.history[key]; ring != nil {
		history = ring.snapshot()
	}
	roster := h.rosterLocked(key)
	h.mu.Unlock()

	entity, entityID := SplitKey(key)

	// Replay order matters: history first so the client renders past
	// messages before the current roster.
	conn.enqueue(h.stamp(Message{Type: TypeSubscribed, Entity: entity, EntityID: entityID}))
	conn.enqueue(h.stamp(Message{Type: TypeHistory, Entity: entity, EntityID: entityID, Data: history}))
	conn.enqueue(h.stamp(Message{Type: TypeUsers, Entity: entity, EntityID: entityID, Data: roster}))
}

func (h *Hub) unsubscribe(conn *connection, key string) {
	h.mu.Lock()
	delete(conn.subs, key)
	h.removeSubscriberLocked(conn, key)
	h.mu.Unlock()

	entity, entityID := SplitKey(key)
	conn.enqueue(h.stamp(Message{Type: TypeUnsubscribed, Entity: entity, EntityID: entityID}))
}

func (h *Hub) removeSubscriberLocked(conn *connection, key string) {
	conns := h.subscribers[key]
	if conns == nil {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.subscribers, key)
	}
}

// unregister drops every subscription held by the connection and returns
// the keys it was subscribed to so leave notices can be broadcast.
func (h *Hub) unregister(conn *connection) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(conn.subs))
	for key := range conn.subs {
		keys = append(keys, key)
		h.removeSubscriberLocked(conn, key)
	}
	conn.subs = make(map[string]struct{})
	return keys
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
