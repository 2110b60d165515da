package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveyassist/internal/service"
)

func receive(t *testing.T, conn *Connection) Message {
	t.Helper()
	select {
	case data := <-conn.Send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestHub_BroadcastFiltersBySession(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	all := &Connection{OperatorID: "op1", Send: make(chan []byte, 4), Hub: hub}
	one := &Connection{OperatorID: "op2", SessionID: "s2", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(all)
	hub.Register(one)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToMonitors(service.EventAnswerRecorded, service.SessionEvent{SessionID: "s1", QuestionID: "q1"})
	hub.BroadcastToMonitors(service.EventSessionCompleted, service.SessionEvent{SessionID: "s2"})

	msg := receive(t, all)
	assert.Equal(t, MsgAnswerRecorded, msg.Type)
	assert.Contains(t, string(msg.Payload), `"questionId":"q1"`)
	assert.Equal(t, MsgSessionCompleted, receive(t, all).Type)

	assert.Equal(t, MsgSessionCompleted, receive(t, one).Type)
	assert.Empty(t, one.Send)
}

func TestHub_UnscopedPayloadSkipsFilteredMonitors(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	all := &Connection{OperatorID: "op1", Send: make(chan []byte, 4), Hub: hub}
	one := &Connection{OperatorID: "op2", SessionID: "s1", Send: make(chan []byte, 4), Hub: hub}
	hub.Register(all)
	hub.Register(one)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	// a map carrying sessionId is not SessionScoped, so it is not routed by it
	hub.BroadcastToMonitors(service.EventGatewayFailed, map[string]string{"sessionId": "s1"})
	hub.BroadcastToMonitors(service.EventSessionStarted, &service.SessionEvent{SessionID: "s1"})

	assert.Equal(t, MsgGatewayFailed, receive(t, all).Type)
	assert.Equal(t, MsgSessionStarted, receive(t, all).Type)
	assert.Equal(t, MsgSessionStarted, receive(t, one).Type)
	assert.Empty(t, one.Send)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Close()

	conn := &Connection{OperatorID: "op1", Send: make(chan []byte, 1), Hub: hub}
	hub.Register(conn)
	hub.Unregister(conn)

	_, open := <-conn.Send
	assert.False(t, open)
	assert.Zero(t, hub.Count())
}

func TestMonitorWS(t *testing.T) {
	auth := service.NewAuthService("admin", "secret", "test-secret")
	hub := NewHub(nil)
	defer hub.Close()

	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/monitor", NewHandler(hub, auth, nil).MonitorWS)
	srv := httptest.NewServer(r)
	defer srv.Close()
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/monitor"

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	respondent, err := auth.GenerateRespondentToken("s1", "r1")
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(base+"?token="+respondent, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	login, err := auth.Login("admin", "secret")
	require.NoError(t, err)
	client, _, err := websocket.DefaultDialer.Dial(base+"?token="+login.Token, nil)
	require.NoError(t, err)
	defer client.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToMonitors(service.EventSessionStarted, service.SessionEvent{SessionID: "s1"})

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, MsgSessionStarted, msg.Type)
}
