package collab

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Inbound message types accepted from clients.
const (
	TypeAuth        = "auth"
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeChat        = "chat"
	TypePresence    = "presence"
	TypeBroadcast   = "broadcast"
)

// Outbound message types produced by the hub.
const (
	TypeInfo          = "info"
	TypeAuthenticated = "authenticated"
	TypeSubscribed    = "subscribed"
	TypeUnsubscribed  = "unsubscribed"
	TypeHistory       = "history"
	TypeUsers         = "users"
	TypeError         = "error"
)

// Presence actions.
const (
	ActionJoin  = "join"
	ActionLeave = "leave"
)

// Message is the JSON envelope exchanged over the collaboration socket.
// Entity-routed messages must carry both Entity and EntityID.
type Message struct {
	Type      string `json:"type"`
	Entity    string `json:"entity,omitempty"`
	EntityID  string `json:"entityId,omitempty"`
	Action    string `json:"action,omitempty"`
	Data      any    `json:"data,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	Message   string `json:"message,omitempty"`
	ID        string `json:"id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Key builds the canonical subscription key for an entity record.
func Key(entity, entityID string) string {
	return normalizeToken(entity) + ":" + normalizeToken(entityID)
}

// SplitKey is the inverse of Key; the second return is the entity ID.
func SplitKey(key string) (string, string) {
	entity, id, _ := strings.Cut(key, ":")
	return entity, id
}

func (m Message) key() string {
	return Key(m.Entity, m.EntityID)
}

// decodeInbound parses a raw frame and validates the per-type required fields.
// Validation failures are returned to the sender as explicit error replies
// rather than silently dropped.
func decodeInbound(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, fmt.Errorf("invalid JSON payload")
	}

	msg.Type = normalizeToken(msg.Type)
	msg.Entity = normalizeToken(msg.Entity)
	msg.EntityID = normalizeToken(msg.EntityID)
	msg.Action = normalizeToken(msg.Action)

	switch msg.Type {
	case TypeAuth:
		if strings.TrimSpace(msg.UserID) == "" {
			return Message{}, fmt.Errorf("auth requires userId")
		}
	case TypeSubscribe, TypeUnsubscribe:
		if msg.Entity == "" || msg.EntityID == "" {
			return Message{}, fmt.Errorf("%s requires entity and entityId", msg.Type)
		}
	case TypeChat:
		if msg.Entity == "" || msg.EntityID == "" {
			return Message{}, fmt.Errorf("chat requires entity and entityId")
		}
		if strings.TrimSpace(msg.Message) == "" {
			return Message{}, fmt.Errorf("chat requires message")
		}
	case TypePresence:
		if msg.Entity == "" || msg.EntityID == "" {
			return Message{}, fmt.Errorf("presence requires entity and entityId")
		}
		if msg.Action != ActionJoin && msg.Action != ActionLeave {
			return Message{}, fmt.Errorf("presence action must be join or leave")
		}
	case TypeBroadcast:
		if msg.Entity == "" || msg.EntityID == "" {
			return Message{}, fmt.Errorf("broadcast requires entity and entityId")
		}
	case "":
		return Message{}, fmt.Errorf("message type is required")
	default:
		return Message{}, fmt.Errorf("unsupported message type %q", msg.Type)
	}

	return msg, nil
}

func normalizeToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
