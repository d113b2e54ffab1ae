package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/require"
	ws "github.com/uniconnect/backend/internal/websocket"
)

type socket struct {
	conn *websocket.Conn
	ctx  context.Context
}

func (suite *HandlersTestSuite) dial(ctx context.Context, srv *httptest.Server, token string) *socket {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	s := &socket{conn: conn, ctx: ctx}
	welcome := s.next(suite)
	suite.Require().Equal(ws.MessageTypeSystem, welcome["type"])
	return s
}

func (s *socket) send(suite *HandlersTestSuite, frame string) {
	require.NoError(suite.T(), s.conn.Write(s.ctx, websocket.MessageText, []byte(frame)))
}

func (s *socket) next(suite *HandlersTestSuite) map[string]interface{} {
	_, data, err := s.conn.Read(s.ctx)
	require.NoError(suite.T(), err)
	var m map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(data, &m))
	return m
}

// until reads frames until one of type typ arrives
func (s *socket) until(suite *HandlersTestSuite, typ string) map[string]interface{} {
	for {
		m := s.next(suite)
		if m["type"] == typ {
			return m
		}
	}
}

func (suite *HandlersTestSuite) TestGroupChatOverSockets() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")
	groupID := suite.createGroup(aliceToken, "Study", "public")
	w := suite.do(http.MethodPost, "/api/groups/join-public", bobToken, map[string]string{"groupId": groupID})
	suite.Require().Equal(http.StatusOK, w.Code)

	// warm the history cache so the send has something to invalidate
	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/messages", aliceToken, nil)
	suite.JSONEq(`[]`, w.Body.String())
	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/messages", aliceToken, nil)
	suite.Equal("HIT", suite.cacheStatus(w))

	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	alice := suite.dial(ctx, srv, aliceToken)
	bobSock := suite.dial(ctx, srv, bobToken)

	alice.send(suite, `{"type":"join_group","payload":{"groupId":"`+groupID+`"}}`)
	alice.until(suite, ws.MessageTypeJoined)
	bobSock.send(suite, `{"type":"join_group","payload":"`+groupID+`"}`)
	bobSock.until(suite, ws.MessageTypeJoined)

	bobSock.send(suite, `{"type":"send_group_message","payload":{"groupId":"`+groupID+`","text":"anyone up?"}}`)

	for _, s := range []*socket{alice, bobSock} {
		event := s.until(suite, ws.MessageTypeReceiveGroupMessage)
		payload := event["payload"].(map[string]interface{})
		suite.Equal("anyone up?", payload["text"])
		suite.Equal(bob.ID, payload["sender"].(map[string]interface{})["_id"])
	}

	w = suite.do(http.MethodGet, "/api/groups/"+groupID+"/messages", aliceToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	var history []map[string]interface{}
	suite.decode(w, &history)
	suite.Require().Len(history, 1)
	suite.Equal("anyone up?", history[0]["text"])
}

func (suite *HandlersTestSuite) TestNotificationPushedToRecipient() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, aliceToken := suite.createUser("alice", "MIT")
	bob, bobToken := suite.createUser("bob", "MIT")

	w := suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))

	srv := httptest.NewServer(suite.router)
	defer srv.Close()
	bobSock := suite.dial(ctx, srv, bobToken)
	suite.Require().Eventually(func() bool {
		return suite.kernel.Hub().IsUserOnline(bob.ID)
	}, time.Second, 10*time.Millisecond)

	w = suite.do(http.MethodPost, "/api/dashboard/connect", aliceToken, map[string]string{"receiverId": bob.ID})
	suite.Require().Equal(http.StatusOK, w.Code)

	event := bobSock.until(suite, ws.MessageTypeNewNotification)
	payload := event["payload"].(map[string]interface{})
	suite.Equal("connection_request", payload["type"])
	suite.Equal("alice", payload["sender"].(map[string]interface{})["name"])

	w = suite.do(http.MethodGet, "/api/notifications", bobToken, nil)
	suite.Equal("MISS", suite.cacheStatus(w))
	var list []map[string]interface{}
	suite.decode(w, &list)
	suite.Len(list, 1)
}

func (suite *HandlersTestSuite) TestSocketRequiresToken() {
	srv := httptest.NewServer(suite.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	suite.Error(err)
	suite.Require().NotNil(resp)
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (suite *HandlersTestSuite) TestChatProxyStreams() {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		suite.Equal("/stream_chat", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "text/plain")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"You said: ", body["message"]} {
			_, _ = io.WriteString(w, chunk)
			flusher.Flush()
		}
	}))
	defer upstream.Close()

	suite.handlers.SetChatbot(upstream.URL, upstream.Client())

	w := suite.do(http.MethodPost, "/api/chat", "", map[string]string{"message": "hi"})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("You said: hi", w.Body.String())
	suite.Contains(w.Header().Get("Content-Type"), "text/plain")
}

func (suite *HandlersTestSuite) TestChatProxyUpstreamDown() {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	suite.handlers.SetChatbot(url, nil)

	w := suite.do(http.MethodPost, "/api/chat", "", map[string]string{"message": "hi"})
	suite.Equal(http.StatusInternalServerError, w.Code)
	suite.JSONEq(`{"code":"INTERNAL_ERROR","message":"Failed to connect to AI service"}`, w.Body.String())

	w = suite.do(http.MethodPost, "/api/chat", "", map[string]string{})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("BAD_REQUEST", suite.errorBody(w)["code"])
	suite.Equal("message", suite.errorBody(w)["field"])
}
