package collab

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, r.URL.Query().Get("user"), r.URL.Query().Get("name"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialClient(t *testing.T, srv *httptest.Server, userID, userName string) *websocket.Conn {
	t.Helper()

	url := strings.Replace(srv.URL, "http", "ws", 1)
	if userID != "" {
		url += "?user=" + userID + "&name=" + userName
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// Every connection greets with an info frame.
	first := readMessage(t, conn)
	require.Equal(t, TypeInfo, first.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(250*time.Millisecond)))
	var msg Message
	err := conn.ReadJSON(&msg)
	require.Error(t, err, "expected no message, got %+v", msg)
}

func sendMessage(t *testing.T, conn *websocket.Conn, msg Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func subscribeTo(t *testing.T, conn *websocket.Conn, entity, entityID string) (Message, Message) {
	t.Helper()

	sendMessage(t, conn, Message{Type: TypeSubscribe, Entity: entity, EntityID: entityID})
	sub := readMessage(t, conn)
	require.Equal(t, TypeSubscribed, sub.Type)
	history := readMessage(t, conn)
	require.Equal(t, TypeHistory, history.Type)
	users := readMessage(t, conn)
	require.Equal(t, TypeUsers, users.Type)
	return history, users
}

func decodeData(t *testing.T, data any, dest any) {
	t.Helper()

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dest))
}

func TestSubscribeReplaysHistoryBeforeRoster(t *testing.T) {
	_, srv := newTestHub(t)

	alice := dialClient(t, srv, "user-a", "Alice")
	subscribeTo(t, alice, "investigation", "inv-1")

	for i := 0; i < 3; i++ {
		sendMessage(t, alice, Message{
			Type: TypeChat, Entity: "investigation", EntityID: "inv-1",
			Message: fmt.Sprintf("note %d", i),
		})
		echo := readMessage(t, alice)
		require.Equal(t, TypeChat, echo.Type)
	}

	bob := dialClient(t, srv, "user-b", "Bob")
	history, users := subscribeTo(t, bob, "investigation", "inv-1")

	var replayed []Message
	decodeData(t, history.Data, &replayed)
	require.Len(t, replayed, 3)
	for i, msg := range replayed {
		require.Equal(t, fmt.Sprintf("note %d", i), msg.Message)
		require.NotEmpty(t, msg.ID)
		require.NotZero(t, msg.Timestamp)
	}

	var roster []PresenceUser
	decodeData(t, users.Data, &roster)
	ids := make([]string, 0, len(roster))
	for _, user := range roster {
		ids = append(ids, user.UserID)
	}
	require.ElementsMatch(t, []string{"user-a", "user-b"}, ids)
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	_, srv := newTestHub(t)

	alice := dialClient(t, srv, "user-a", "Alice")
	bob := dialClient(t, srv, "user-b", "Bob")
	carol := dialClient(t, srv, "user-c", "Carol")

	subscribeTo(t, alice, "inspection", "42")
	subscribeTo(t, bob, "inspection", "42")
	subscribeTo(t, carol, "inspection", "99")

	sendMessage(t, alice, Message{
		Type: TypeChat, Entity: "inspection", EntityID: "42", Message: "on site now",
	})

	got := readMessage(t, bob)
	require.Equal(t, TypeChat, got.Type)
	require.Equal(t, "on site now", got.Message)
	require.Equal(t, "user-a", got.UserID)

	expectSilence(t, carol)
}

func TestSubscribeIsIdempotent(t *testing.T) {
	hub, srv := newTestHub(t)

	alice := dialClient(t, srv, "user-a", "Alice")
	subscribeTo(t, alice, "brief", "b-1")
	subscribeTo(t, alice, "brief", "b-1")

	require.Len(t, hub.ActiveUsers("brief", "b-1"), 1)

	bob := dialClient(t, srv, "user-b", "Bob")
	subscribeTo(t, bob, "brief", "b-1")

	sendMessage(t, bob, Message{Type: TypeChat, Entity: "brief", EntityID: "b-1", Message: "ready"})

	got := readMessage(t, alice)
	require.Equal(t, TypeChat, got.Type)
	expectSilence(t, alice)
}

func TestDisconnectBroadcastsLeaveAndClearsPresence(t *testing.T) {
	hub, srv := newTestHub(t)

	alice := dialClient(t, srv, "user-a", "Alice")
	bob := dialClient(t, srv, "user-b", "Bob")
	subscribeTo(t, alice, "schedule", "s-1")
	subscribeTo(t, bob, "schedule", "s-1")

	require.NoError(t, alice.Close())

	got := readMessage(t, bob)
	require.Equal(t, TypePresence, got.Type)
	require.Equal(t, ActionLeave, got.Action)
	require.Equal(t, "user-a", got.UserID)

	require.Eventually(t, func() bool {
		users := hub.ActiveUsers("schedule", "s-1")
		return len(users) == 1 && users[0].UserID == "user-b"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMalformedAndUnknownFramesGetErrorReplies(t *testing.T) {
	_, srv := newTestHub(t)

	conn := dialClient(t, srv, "user-a", "Alice")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	reply := readMessage(t, conn)
	require.Equal(t, TypeError, reply.Type)

	sendMessage(t, conn, Message{Type: "teleport"})
	reply = readMessage(t, conn)
	require.Equal(t, TypeError, reply.Type)
	require.Contains(t, reply.Message, "unsupported")

	sendMessage(t, conn, Message{Type: TypeSubscribe, Entity: "inspection"})
	reply = readMessage(t, conn)
	require.Equal(t, TypeError, reply.Type)

	// The connection survives validation failures.
	subscribeTo(t, conn, "inspection", "7")
}

func TestAuthMessageSetsIdentity(t *testing.T) {
	hub, srv := newTestHub(t)

	conn := dialClient(t, srv, "", "")

	sendMessage(t, conn, Message{Type: TypeAuth, UserID: "user-z", UserName: "Zed"})
	reply := readMessage(t, conn)
	require.Equal(t, TypeAuthenticated, reply.Type)
	require.Equal(t, "user-z", reply.UserID)

	subscribeTo(t, conn, "inspection", "5")

	users := hub.ActiveUsers("inspection", "5")
	require.Len(t, users, 1)
	require.Equal(t, "user-z", users[0].UserID)
	require.Equal(t, "Zed", users[0].UserName)
	require.False(t, users[0].JoinedAt.IsZero())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	_, srv := newTestHub(t)

	alice := dialClient(t, srv, "user-a", "Alice")
	bob := dialClient(t, srv, "user-b", "Bob")
	subscribeTo(t, alice, "offence", "o-1")
	subscribeTo(t, bob, "offence", "o-1")

	sendMessage(t, alice, Message{Type: TypeUnsubscribe, Entity: "offence", EntityID: "o-1"})
	reply := readMessage(t, alice)
	require.Equal(t, TypeUnsubscribed, reply.Type)

	sendMessage(t, bob, Message{Type: TypeChat, Entity: "offence", EntityID: "o-1", Message: "update"})
	readMessage(t, bob) // own echo
	expectSilence(t, alice)
}
