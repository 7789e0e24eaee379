package signal

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/dialnet/internal/app"
	"github.com/dkeye/dialnet/internal/app/orch"
	"github.com/dkeye/dialnet/internal/core"
	"github.com/dkeye/dialnet/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type wireEvent struct {
	Type core.EventType `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := app.NewRegistry()
	o := &orch.Orchestrator{
		Registry: reg,
		Rooms: app.NewRoomManager(
			[]app.PublicRoom{{ID: "general", Name: "Général"}, {ID: "tech", Name: "Technologie"}},
			app.RoomManagerOptions{
				HistoryCapacity: core.DefaultHistoryCapacity,
				Filter:          core.NewContentFilter([]string{"spam"}, core.DefaultMask),
				PasswordCost:    bcrypt.MinCost,
			},
		),
		Policy: app.TolerantPolicy{},
		Events: &app.Broadcaster{Registry: reg},
	}

	ctx, cancel := context.WithCancel(context.Background())
	ctl := NewSignalWSController(o, opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return srv, o
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, typ string, data any) {
	t.Helper()
	b, err := json.Marshal(map[string]any{"type": typ, "data": data})
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, b))
}

func next(t *testing.T, ws *websocket.Conn) wireEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := ws.ReadMessage()
	require.NoError(t, err)
	var ev wireEvent
	require.NoError(t, json.Unmarshal(b, &ev))
	return ev
}

func expect(t *testing.T, ws *websocket.Conn, typ core.EventType) wireEvent {
	t.Helper()
	ev := next(t, ws)
	require.Equal(t, typ, ev.Type, "payload: %s", ev.Data)
	return ev
}

func TestSignal_JoinAndChat(t *testing.T) {
	srv, _ := newTestServer(t, Options{OriginMode: OriginNone})

	alice := dial(t, srv)
	send(t, alice, "join-room", map[string]string{"username": "alice", "room": "general"})

	joined := expect(t, alice, core.EventRoomJoined)
	assert.JSONEq(t, `{"room":"general","name":"Général","kind":"public"}`, string(joined.Data))
	history := expect(t, alice, core.EventRoomMessages)
	assert.JSONEq(t, `[]`, string(history.Data))
	users := expect(t, alice, core.EventUsersList)
	assert.JSONEq(t, `["alice"]`, string(users.Data))

	bob := dial(t, srv)
	send(t, bob, "join-room", map[string]string{"username": "bob", "room": "general", "department": "75"})
	expect(t, bob, core.EventRoomJoined)
	expect(t, bob, core.EventRoomMessages)
	expect(t, bob, core.EventUsersList)

	presence := expect(t, alice, core.EventUserJoined)
	assert.JSONEq(t, `{"username":"bob","userCount":2}`, string(presence.Data))
	users = expect(t, alice, core.EventUsersList)
	assert.JSONEq(t, `["alice","bob"]`, string(users.Data))

	send(t, bob, "send-message", map[string]string{"message": "no SPAM here"})
	for _, ws := range []*websocket.Conn{alice, bob} {
		ev := expect(t, ws, core.EventNewMessage)
		var msg domain.Message
		require.NoError(t, json.Unmarshal(ev.Data, &msg))
		assert.Equal(t, "bob", msg.Username)
		assert.Equal(t, "no **** here", msg.Content)
		assert.Equal(t, domain.RoomID("general"), msg.Room)
	}

	send(t, bob, "leave", nil)
	left := expect(t, alice, core.EventUserLeft)
	assert.JSONEq(t, `{"username":"bob","userCount":1}`, string(left.Data))
	users = expect(t, alice, core.EventUsersList)
	assert.JSONEq(t, `["alice"]`, string(users.Data))
}

func TestSignal_JoinErrors(t *testing.T) {
	tests := []struct {
		name    string
		unify   bool
		payload map[string]string
		want    string
	}{
		{
			name:    "unknown room",
			payload: map[string]string{"username": "alice", "room": "nowhere"},
			want:    "room not found",
		},
		{
			name:    "unknown room unified",
			unify:   true,
			payload: map[string]string{"username": "alice", "room": "nowhere"},
			want:    "unable to join room",
		},
		{
			name:    "username too short",
			payload: map[string]string{"username": "a", "room": "general"},
			want:    "invalid join request",
		},
		{
			name:    "missing room",
			payload: map[string]string{"username": "alice"},
			want:    "invalid join request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, Options{OriginMode: OriginNone, UnifyJoinErrors: tt.unify})
			ws := dial(t, srv)
			send(t, ws, "join-room", tt.payload)
			ev := expect(t, ws, core.EventJoinError)
			assert.JSONEq(t, `{"message":"`+tt.want+`"}`, string(ev.Data))
		})
	}
}

func TestSignal_PrivateRoomPassword(t *testing.T) {
	srv, o := newTestServer(t, Options{OriginMode: OriginNone})
	id, err := o.CreatePrivateRoom("secret club", "hunter2", "alice")
	require.NoError(t, err)

	ws := dial(t, srv)
	send(t, ws, "join-room", map[string]string{"username": "bob", "room": string(id), "password": "nope"})
	ev := expect(t, ws, core.EventJoinError)
	assert.JSONEq(t, `{"message":"invalid room password"}`, string(ev.Data))

	send(t, ws, "join-room", map[string]string{"username": "bob", "room": string(id), "password": "hunter2"})
	joined := expect(t, ws, core.EventRoomJoined)
	assert.Contains(t, string(joined.Data), `"kind":"private"`)
}

func TestSignal_Ping(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	ws := dial(t, srv)
	send(t, ws, "ping", nil)
	expect(t, ws, core.EventPong)
}

func TestSignal_OriginEvictionClosesOlderSocket(t *testing.T) {
	srv, o := newTestServer(t, Options{OriginMode: OriginIP})

	first := dial(t, srv)
	send(t, first, "join-room", map[string]string{"username": "alice", "room": "general"})
	expect(t, first, core.EventRoomJoined)
	expect(t, first, core.EventRoomMessages)
	expect(t, first, core.EventUsersList)

	second := dial(t, srv)
	send(t, second, "join-room", map[string]string{"username": "alice2", "room": "tech"})
	expect(t, second, core.EventRoomJoined)

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return o.Registry.Count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestSignal_MessageLimits(t *testing.T) {
	srv, _ := newTestServer(t, Options{OriginMode: OriginNone, MaxMessageLen: 5, RateLimit: 1, RateInterval: time.Minute})
	ws := dial(t, srv)
	send(t, ws, "join-room", map[string]string{"username": "alice", "room": "general"})
	expect(t, ws, core.EventRoomJoined)
	expect(t, ws, core.EventRoomMessages)
	expect(t, ws, core.EventUsersList)

	send(t, ws, "send-message", map[string]string{"message": "way too long"})
	send(t, ws, "send-message", map[string]string{"message": "hi"})
	send(t, ws, "send-message", map[string]string{"message": "again"})
	send(t, ws, "ping", nil)

	ev := expect(t, ws, core.EventNewMessage)
	assert.Contains(t, string(ev.Data), `"content":"hi"`)
	expect(t, ws, core.EventPong)
}
