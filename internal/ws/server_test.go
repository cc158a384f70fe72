package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Salehnexta/Rahallah10.13/internal/config"
	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/hub"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
	"github.com/Salehnexta/Rahallah10.13/internal/orchestrator"
	"github.com/Salehnexta/Rahallah10.13/internal/protocol"
	"github.com/Salehnexta/Rahallah10.13/internal/router"
	"github.com/Salehnexta/Rahallah10.13/internal/store"
)

type testEnv struct {
	server *httptest.Server
	store  *store.MemoryStore
}

func newTestEnv(t *testing.T, handlers map[domain.Intent]orchestrator.Handler) *testEnv {
	t.Helper()
	cfg := &config.Config{
		PingInterval:   30 * time.Second,
		WriteTimeout:   5 * time.Second,
		ReadTimeout:    30 * time.Second,
		MaxMessageSize: 65536,
	}
	st := store.NewMemoryStore()
	notifier := notify.NewNotifier()
	connectionHub := hub.NewHub()
	go connectionHub.Run()

	wsServer := NewServer(cfg, connectionHub, notifier)
	orch := orchestrator.New(st, router.New(notifier), handlers, wsServer, notifier, nil)
	wsServer.SetOrchestrator(orch)

	e := echo.New()
	e.GET("/ws", wsServer.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testEnv{server: srv, store: st}
}

func (env *testEnv) dial(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var base protocol.BaseMessage
	require.NoError(t, json.Unmarshal(data, &base))
	return base.Type, data
}

func sendMessage(t *testing.T, conn *websocket.Conn, sessionID, content string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(protocol.MessageEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeMessage,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Content: content,
	}))
}

func uniformHandlers(h orchestrator.Handler) map[domain.Intent]orchestrator.Handler {
	return map[domain.Intent]orchestrator.Handler{
		domain.IntentFlight:   h,
		domain.IntentHotel:    h,
		domain.IntentTrip:     h,
		domain.IntentContinue: h,
	}
}

func replyHandler(text string) orchestrator.Handler {
	return orchestrator.HandlerFunc(func(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
		return &domain.GenerationResult{Text: text, DetectedLanguage: lang}, nil
	})
}

func TestConnectDeliversExactlyOneInitialState(t *testing.T) {
	env := newTestEnv(t, uniformHandlers(replyHandler("ok")))
	conn := env.dial(t, "s1")

	eventType, data := readEvent(t, conn)
	require.Equal(t, protocol.TypeInitialState, eventType)

	var initial protocol.InitialStateEvent
	require.NoError(t, json.Unmarshal(data, &initial))
	assert.Equal(t, "s1", initial.Session.SessionID)
	assert.Equal(t, domain.LanguageEnglish, initial.Session.Language)
	assert.Empty(t, initial.Session.Turns)

	// A completed turn comes back as a response, never as another snapshot.
	sendMessage(t, conn, "s1", "hello")
	eventType, data = readEvent(t, conn)
	require.Equal(t, protocol.TypeResponse, eventType)

	var resp protocol.ResponseEvent
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "ok", resp.Turn.Content)
	assert.Equal(t, 2, resp.TurnCount)

	// Nothing else is pushed unprompted.
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestConcurrentSendGetsSessionBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	blocking := orchestrator.HandlerFunc(func(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
		once.Do(func() { close(started) })
		<-release
		return &domain.GenerationResult{Text: "done", DetectedLanguage: lang}, nil
	})
	env := newTestEnv(t, uniformHandlers(blocking))
	conn := env.dial(t, "s1")

	eventType, _ := readEvent(t, conn)
	require.Equal(t, protocol.TypeInitialState, eventType)

	sendMessage(t, conn, "s1", "first")
	<-started
	sendMessage(t, conn, "s1", "second")

	eventType, data := readEvent(t, conn)
	require.Equal(t, protocol.TypeError, eventType)
	var errEvent protocol.ErrorEvent
	require.NoError(t, json.Unmarshal(data, &errEvent))
	assert.Equal(t, protocol.ErrorCodeSessionBusy, errEvent.Code)

	// The in-flight turn is unaffected by the rejected send.
	close(release)
	eventType, data = readEvent(t, conn)
	require.Equal(t, protocol.TypeResponse, eventType)
	var resp protocol.ResponseEvent
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.Equal(t, "done", resp.Turn.Content)
}

func TestReconnectAfterMidTurnDisconnect(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	waiting := orchestrator.HandlerFunc(func(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
		once.Do(func() { close(started) })
		<-ctx.Done()
		return nil, ctx.Err()
	})
	env := newTestEnv(t, uniformHandlers(waiting))

	conn := env.dial(t, "s1")
	eventType, _ := readEvent(t, conn)
	require.Equal(t, protocol.TypeInitialState, eventType)

	sendMessage(t, conn, "s1", "hello")
	<-started
	conn.Close()

	// The disconnect cancels the dispatch; the turn cycle still completes
	// with an error turn so the user turn is never orphaned.
	require.Eventually(t, func() bool {
		sess, err := env.store.Get("s1")
		return err == nil && len(sess.Turns) == 2
	}, 2*time.Second, 10*time.Millisecond)

	// The reconnecting client catches up from the snapshot alone.
	conn2 := env.dial(t, "s1")
	eventType, data := readEvent(t, conn2)
	require.Equal(t, protocol.TypeInitialState, eventType)

	var initial protocol.InitialStateEvent
	require.NoError(t, json.Unmarshal(data, &initial))
	require.Len(t, initial.Session.Turns, 2)
	assert.Equal(t, domain.RoleUser, initial.Session.Turns[0].Role)
	assert.True(t, initial.Session.Turns[1].IsError)
	assert.Equal(t, 2, initial.Session.TurnCount)
}

func TestValidationErrorIsLocalizedForClient(t *testing.T) {
	env := newTestEnv(t, uniformHandlers(replyHandler("ok")))
	conn := env.dial(t, "s1")

	eventType, _ := readEvent(t, conn)
	require.Equal(t, protocol.TypeInitialState, eventType)

	sendMessage(t, conn, "s1", "   ")
	eventType, data := readEvent(t, conn)
	require.Equal(t, protocol.TypeError, eventType)

	var errEvent protocol.ErrorEvent
	require.NoError(t, json.Unmarshal(data, &errEvent))
	assert.Equal(t, protocol.ErrorCodeClassified, errEvent.Code)
	assert.Equal(t, "validation", errEvent.Kind)
	assert.Equal(t, "Please enter a message so I can help you.", errEvent.Message,
		"the client sees the localized template, not internal failure detail")
}

func TestUnknownMessageTypeRejected(t *testing.T) {
	env := newTestEnv(t, uniformHandlers(replyHandler("ok")))
	conn := env.dial(t, "s1")

	eventType, _ := readEvent(t, conn)
	require.Equal(t, protocol.TypeInitialState, eventType)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"telemetry"}`)))
	eventType, data := readEvent(t, conn)
	require.Equal(t, protocol.TypeError, eventType)

	var errEvent protocol.ErrorEvent
	require.NoError(t, json.Unmarshal(data, &errEvent))
	assert.Equal(t, protocol.ErrorCodeInvalidMessage, errEvent.Code)
}
