package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeSession records delivered frames in order
type fakeSession struct {
	id     string
	userID string

	mu     sync.Mutex
	frames [][]byte
	full   bool
	closed bool
}

func newFakeSession(id, userID string) *fakeSession {
	return &fakeSession{id: id, userID: userID}
}

func (f *fakeSession) ID() string     { return f.id }
func (f *fakeSession) UserID() string { return f.userID }

func (f *fakeSession) Deliver(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSession) messages(t *testing.T) []map[string]interface{} {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]interface{}, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeSession) last(t *testing.T) map[string]interface{} {
	t.Helper()
	msgs := f.messages(t)
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestConnectJoinsUserRoom(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")

	hub.Connect(s)

	assert.True(t, hub.InRoom(s, UserRoom("alice")))
	assert.True(t, hub.IsUserOnline("alice"))
	assert.Equal(t, 1, hub.SessionCount())
}

func TestPublishToEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)

	assert.Equal(t, 0, hub.Publish("nobody-here", MessageTypeNewNotification, map[string]string{"x": "y"}))
	assert.Empty(t, s.messages(t))
}

func TestPublishReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub()
	a := newFakeSession("s1", "alice")
	b := newFakeSession("s2", "bob")
	c := newFakeSession("s3", "carol")
	for _, s := range []*fakeSession{a, b, c} {
		hub.Connect(s)
	}
	require.True(t, hub.Join(a, "g1"))
	require.True(t, hub.Join(b, "g1"))

	n := hub.Publish("g1", MessageTypeReceiveGroupMessage, map[string]string{"text": "hi"})

	assert.Equal(t, 2, n)
	assert.Len(t, a.messages(t), 1)
	assert.Len(t, b.messages(t), 1)
	assert.Empty(t, c.messages(t))
	assert.Equal(t, MessageTypeReceiveGroupMessage, a.last(t)["type"])
}

func TestPublishPreservesOrderPerRoom(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)
	hub.Join(s, "g1")

	for i := 0; i < 50; i++ {
		hub.Publish("g1", MessageTypeReceiveGroupMessage, map[string]int{"seq": i})
	}

	msgs := s.messages(t)
	require.Len(t, msgs, 50)
	for i, m := range msgs {
		payload := m["payload"].(map[string]interface{})
		assert.Equal(t, float64(i), payload["seq"])
	}
}

func TestDisconnectRemovesFromAllRooms(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)
	hub.Join(s, "g1")
	hub.Join(s, "alice_bob")

	hub.Disconnect(s)
	hub.Disconnect(s)

	assert.Equal(t, 0, hub.RoomSize("g1"))
	assert.Equal(t, 0, hub.RoomSize("alice_bob"))
	assert.False(t, hub.IsUserOnline("alice"))
	assert.Equal(t, 0, hub.Publish("g1", MessageTypeReceiveGroupMessage, nil))
	assert.False(t, hub.Join(s, "g2"), "disconnected sessions cannot join rooms")
}

func TestLeaveRoom(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)
	hub.Join(s, "g1")

	hub.Leave(s, "g1")

	assert.False(t, hub.InRoom(s, "g1"))
	assert.True(t, hub.InRoom(s, UserRoom("alice")))
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	full := newFakeSession("s1", "alice")
	full.full = true
	ok := newFakeSession("s2", "alice")
	hub.Connect(full)
	hub.Connect(ok)

	n := hub.PublishToUser("alice", MessageTypeNewNotification, nil)

	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), hub.GetStats()["frames_dropped"])
}

func TestConcurrentJoinPublishDisconnect(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := newFakeSession(fmt.Sprintf("s%d", i), fmt.Sprintf("u%d", i))
			hub.Connect(s)
			hub.Join(s, "shared")
			hub.Publish("shared", MessageTypeReceiveGroupMessage, i)
			hub.Disconnect(s)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.SessionCount())
	assert.Equal(t, 0, hub.RoomSize("shared"))
}

func TestDispatchRoutesToHandler(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)

	var got *Message
	hub.RegisterHandler(MessageTypeJoinGroup, func(ctx context.Context, sess Session, msg *Message) error {
		got = msg
		return nil
	})

	hub.Dispatch(context.Background(), s, []byte(`{"type":"join_group","payload":{"groupId":"g1"}}`))

	require.NotNil(t, got)
	var p JoinGroupPayload
	require.NoError(t, got.ParsePayload(&p))
	assert.Equal(t, "g1", p.GroupID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestDispatchErrors(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)
	hub.RegisterHandler("forbidden_thing", func(ctx context.Context, sess Session, msg *Message) error {
		return apperrors.Forbidden("Not a member of this group")
	})
	hub.RegisterHandler("broken_thing", func(ctx context.Context, sess Session, msg *Message) error {
		return errors.New("db down")
	})

	tests := []struct {
		name    string
		frame   string
		code    string
		message string
	}{
		{"malformed json", `{"type":`, "BAD_REQUEST", "Failed to parse message"},
		{"unknown type", `{"type":"nope"}`, "BAD_REQUEST", "Unknown message type: nope"},
		{"api error", `{"type":"forbidden_thing","id":"m1"}`, "FORBIDDEN", "Not a member of this group"},
		{"internal error", `{"type":"broken_thing"}`, "INTERNAL_ERROR", "Failed to process broken_thing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub.Dispatch(context.Background(), s, []byte(tt.frame))
			last := s.last(t)
			assert.Equal(t, MessageTypeError, last["type"])
			payload := last["payload"].(map[string]interface{})
			assert.Equal(t, tt.code, payload["code"])
			assert.Equal(t, tt.message, payload["message"])
		})
	}

	assert.Equal(t, "m1", s.messages(t)[2]["reply_to"])
}

func TestDispatchPing(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)

	hub.Dispatch(context.Background(), s, []byte(`{"type":"ping","id":"p1","payload":{"client_time":1000}}`))

	last := s.last(t)
	assert.Equal(t, MessageTypePong, last["type"])
	assert.Equal(t, "p1", last["reply_to"])
}

func TestShutdownClosesSessions(t *testing.T) {
	hub := NewHub()
	s := newFakeSession("s1", "alice")
	hub.Connect(s)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, hub.Shutdown(ctx))

	assert.True(t, s.closed)
	assert.Equal(t, 0, hub.SessionCount())
	assert.Equal(t, "shutdown", s.last(t)["payload"].(map[string]interface{})["event"])

	late := newFakeSession("s2", "bob")
	hub.Connect(late)
	assert.True(t, late.closed)
}

func TestFlexibleTimeUnmarshal(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ping","timestamp":1700000000000}`), &m))
	assert.Equal(t, int64(1700000000000), m.Timestamp.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`{"type":"ping","timestamp":"2024-01-02T03:04:05Z"}`), &m))
	assert.Equal(t, 2024, m.Timestamp.Year())

	assert.Error(t, json.Unmarshal([]byte(`{"type":"ping","timestamp":true}`), &m))
}

type staticAuth map[string]string

func (a staticAuth) ValidateToken(token string) (string, error) {
	if id, ok := a[token]; ok {
		return id, nil
	}
	return "", errors.New("invalid token")
}

func TestHandleWebSocketEndToEnd(t *testing.T) {
	hub := NewHub()
	handler := NewHandler(hub, staticAuth{"tok-alice": "alice"}, []string{"*"})

	router := gin.New()
	router.GET("/api/ws", handler.HandleWebSocket)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	t.Run("rejects missing token", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, resp, err := websocket.Dial(ctx, wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 401, resp.StatusCode)
	})

	t.Run("delivers room events", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, _, err := websocket.Dial(ctx, wsURL+"?token=tok-alice", nil)
		require.NoError(t, err)
		defer conn.Close(websocket.StatusNormalClosure, "")

		readFrame := func() map[string]interface{} {
			_, data, err := conn.Read(ctx)
			require.NoError(t, err)
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &m))
			return m
		}

		welcome := readFrame()
		assert.Equal(t, MessageTypeSystem, welcome["type"])

		require.Eventually(t, func() bool { return hub.IsUserOnline("alice") }, time.Second, 10*time.Millisecond)
		hub.PublishToUser("alice", MessageTypeNewNotification, map[string]string{"message": "hello"})

		event := readFrame()
		assert.Equal(t, MessageTypeNewNotification, event["type"])

		require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"ping","id":"p"}`)))
		pong := readFrame()
		assert.Equal(t, MessageTypePong, pong["type"])

		conn.Close(websocket.StatusNormalClosure, "bye")
		assert.Eventually(t, func() bool { return !hub.IsUserOnline("alice") }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestHijackableWriterUnwrapsGin(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	w := hijackableWriter(c.Writer)
	assert.Equal(t, rec, w)
}
