package collab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyNormalizesEntityTokens(t *testing.T) {
	require.Equal(t, "investigation:abc-123", Key(" Investigation ", "ABC-123"))

	entity, id := SplitKey("investigation:abc-123")
	require.Equal(t, "investigation", entity)
	require.Equal(t, "abc-123", id)
}

func TestDecodeInboundValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"not json", `{broken`, "invalid JSON"},
		{"missing type", `{"entity":"case","entityId":"1"}`, "type is required"},
		{"unknown type", `{"type":"teleport"}`, "unsupported message type"},
		{"auth without user", `{"type":"auth"}`, "auth requires userId"},
		{"subscribe without id", `{"type":"subscribe","entity":"case"}`, "entity and entityId"},
		{"chat without body", `{"type":"chat","entity":"case","entityId":"1"}`, "chat requires message"},
		{"presence bad action", `{"type":"presence","entity":"case","entityId":"1","action":"hover"}`, "join or leave"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeInbound([]byte(tc.payload))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestDecodeInboundNormalizesTokens(t *testing.T) {
	msg, err := decodeInbound([]byte(`{"type":" CHAT ","entity":"Inspection","entityId":"X9","message":"hi"}`))
	require.NoError(t, err)
	require.Equal(t, TypeChat, msg.Type)
	require.Equal(t, "inspection", msg.Entity)
	require.Equal(t, "x9", msg.EntityID)
	require.Equal(t, "inspection:x9", msg.key())
}

func TestDecodeInboundAcceptsValidFrames(t *testing.T) {
	for _, payload := range []string{
		`{"type":"auth","userId":"u1","userName":"Ana"}`,
		`{"type":"subscribe","entity":"brief","entityId":"b1"}`,
		`{"type":"unsubscribe","entity":"brief","entityId":"b1"}`,
		`{"type":"presence","entity":"brief","entityId":"b1","action":"join"}`,
		`{"type":"broadcast","entity":"brief","entityId":"b1","data":{"field":"status"}}`,
	} {
		_, err := decodeInbound([]byte(payload))
		require.NoError(t, err)
	}
}
