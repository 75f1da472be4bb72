package collab

import (
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fieldsight/fieldsight/pkg/metrics"
)

// connection owns one live socket. All reads happen on the readLoop
// goroutine; all writes are funnelled through the send channel into the
// writeLoop goroutine.
type connection struct {
	hub      *Hub
	socket   *websocket.Conn
	userID   string
	userName string
	subs     map[string]struct{} // guarded by hub.mu

	send   chan Message
	sendMu sync.Mutex
	closed bool
	once   sync.Once
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			break
		}

		if len(payload) == 0 {
			continue
		}

		msg, err := decodeInbound(payload)
		if err != nil {
			c.hub.log.Debug("rejected inbound frame", zap.String("user_id", c.userID), zap.Error(err))
			c.enqueue(c.hub.stamp(Message{Type: TypeError, Message: err.Error()}))
			continue
		}

		c.handle(msg)
	}
}

func (c *connection) handle(msg Message) {
	switch msg.Type {
	case TypeAuth:
		c.hub.setIdentity(c, msg.UserID, msg.UserName)
		c.enqueue(c.hub.stamp(Message{Type: TypeAuthenticated, UserID: c.userID, UserName: c.userName}))

	case TypeSubscribe:
		c.hub.subscribe(c, msg.key())

	case TypeUnsubscribe:
		c.hub.unsubscribe(c, msg.key())

	case TypeChat, TypePresence, TypeBroadcast:
		if strings.TrimSpace(msg.UserID) == "" {
			msg.UserID = c.userID
		}
		if strings.TrimSpace(msg.UserName) == "" {
			msg.UserName = c.userName
		}
		c.hub.Broadcast(msg.Entity, msg.EntityID, msg)
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues a message for delivery, silently dropping on overflow.
func (c *connection) enqueue(msg Message) {
	_ = c.tryEnqueue(msg)
}

// tryEnqueue reports false only when the send buffer is full; a closed
// connection swallows the message since cleanup is already underway.
func (c *connection) tryEnqueue(msg Message) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return true
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close tears the connection down exactly once: deregisters every
// subscription, then notifies remaining subscribers that this user left.
func (c *connection) close() {
	c.once.Do(func() {
		keys := c.hub.unregister(c)

		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()

		_ = c.socket.Close()
		metrics.CollabConnections.Dec()

		userID, userName := c.hub.identityOf(c)
		if userID == "" {
			return
		}
		for _, key := range keys {
			entity, entityID := SplitKey(key)
			c.hub.Broadcast(entity, entityID, Message{
				Type:     TypePresence,
				Action:   ActionLeave,
				UserID:   userID,
				UserName: userName,
			})
		}
	})
}
