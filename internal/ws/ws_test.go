package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cups_webapp/internal/rgs"
	"cups_webapp/internal/round"
	"cups_webapp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRouter struct {
	sessions map[string]bool
	picks    chan int
	err      error
}

func (r *fakeRouter) HasSession(key string) bool { return r.sessions[key] }

func (r *fakeRouter) Pick(_ string, cup int) error {
	r.picks <- cup
	return r.err
}

type noWait struct{}

func (noWait) Sleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func startServer(t *testing.T, hub *Hub, router Router) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret")

	r := gin.New()
	r.GET("/ws", HandleWS(hub, router, ""))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, base, session string) *websocket.Conn {
	t.Helper()
	token, err := service.GenerateSessionToken(session, time.Minute)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(base+"?token="+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := read(t, conn)
	require.Equal(t, MsgReady, msg.Type)
	return conn
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func read(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestRendererEvents(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, &fakeRouter{sessions: map[string]bool{"s1": true, "s2": true}})
	conn := dial(t, base, "s1")
	other := dial(t, base, "s2")

	r := NewRenderer(hub, "s1", noWait{}, DefaultCupMove)
	require.NoError(t, r.Lift(context.Background(), 1))
	r.ShowMarker(1)
	require.NoError(t, r.Swap(context.Background(), 0, 2))
	r.BalanceUpdated(decimal.RequireFromString("12.5"), &rgs.EndRoundResponse{Balance: rgs.Balance{Amount: new(int64)}})
	r.Error(&rgs.Error{Kind: rgs.KindProtocol, Code: "ERR_IS", Message: "invalid session"})

	msg := read(t, conn)
	assert.Equal(t, MsgLift, msg.Type)
	assert.JSONEq(t, `{"cup":1}`, string(msg.Payload))

	msg = read(t, conn)
	assert.Equal(t, MsgShowMarker, msg.Type)

	msg = read(t, conn)
	assert.Equal(t, MsgSwap, msg.Type)
	assert.JSONEq(t, `{"a":0,"b":2}`, string(msg.Payload))

	msg = read(t, conn)
	assert.Equal(t, MsgBalance, msg.Type)
	var bal BalancePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &bal))
	assert.True(t, bal.Balance.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, round.PhaseRest, bal.Phase)

	msg = read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, string(msg.Payload), `"code":"ERR_IS"`)

	// renderers of other sessions see nothing
	require.NoError(t, other.SetReadDeadline(time.Now().Add(50*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestPickRouted(t *testing.T) {
	hub := NewHub()
	router := &fakeRouter{sessions: map[string]bool{"s1": true}, picks: make(chan int, 1)}
	conn := dial(t, startServer(t, hub, router), "s1")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pick", "cup": 2}))
	select {
	case cup := <-router.picks:
		assert.Equal(t, 2, cup)
	case <-time.After(2 * time.Second):
		t.Fatal("pick not routed")
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pick"}))
	msg := read(t, conn)
	assert.Equal(t, MsgError, msg.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	assert.Equal(t, MsgPong, read(t, conn).Type)
}

func TestRefusedPickReported(t *testing.T) {
	hub := NewHub()
	router := &fakeRouter{sessions: map[string]bool{"s1": true}, picks: make(chan int, 2), err: round.ErrPickNotOpen}
	conn := dial(t, startServer(t, hub, router), "s1")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pick", "cup": 0}))
	msg := read(t, conn)
	assert.Equal(t, MsgError, msg.Type)
	assert.Contains(t, string(msg.Payload), round.ErrPickNotOpen.Error())
}

func TestHandshakeRejected(t *testing.T) {
	hub := NewHub()
	base := startServer(t, hub, &fakeRouter{sessions: map[string]bool{}})

	_, resp, err := websocket.DefaultDialer.Dial(base, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := service.GenerateSessionToken("gone", time.Minute)
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(base+"?token="+token, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCloseSessionDisconnects(t *testing.T) {
	hub := NewHub()
	conn := dial(t, startServer(t, hub, &fakeRouter{sessions: map[string]bool{"s1": true}}), "s1")
	require.Equal(t, 1, hub.Count("s1"))

	hub.CloseSession("s1")
	assert.Zero(t, hub.Count("s1"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	assert.True(t, errors.As(err, &closeErr), "expected close frame, got %v", err)
}
