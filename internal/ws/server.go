// Package ws implements the realtime sync channel: a WebSocket server that
// pushes session snapshots and completed turns to connected clients.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Salehnexta/Rahallah10.13/internal/config"
	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/fault"
	"github.com/Salehnexta/Rahallah10.13/internal/hub"
	"github.com/Salehnexta/Rahallah10.13/internal/language"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
	"github.com/Salehnexta/Rahallah10.13/internal/orchestrator"
	"github.com/Salehnexta/Rahallah10.13/internal/protocol"
	"github.com/Salehnexta/Rahallah10.13/internal/store"
)

// Server handles WebSocket connections and doubles as the orchestrator's
// emission sink, so events reach every connection of a session in the order
// the turn cycles produced them.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	orch     *orchestrator.Orchestrator
	notifier *notify.Notifier
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, h *hub.Hub, notifier *notify.Notifier) *Server {
	return &Server{
		cfg:      cfg,
		hub:      h,
		notifier: notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// SetOrchestrator wires the turn orchestrator. Separate from the constructor
// because the orchestrator needs the server as its sink.
func (s *Server) SetOrchestrator(o *orchestrator.Orchestrator) {
	s.orch = o
}

// EmitResponse implements orchestrator.Sink.
func (s *Server) EmitResponse(session *domain.Session, turn domain.Turn) {
	event := protocol.ResponseEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeResponse,
			Ts:        time.Now().UnixMilli(),
			SessionID: session.SessionID,
		},
		Turn:      turn,
		Draft:     session.Draft,
		Language:  session.Language,
		TurnCount: session.TurnCount,
	}
	if err := s.hub.BroadcastJSON(session.SessionID, event); err != nil {
		log.Printf("ERROR: failed to broadcast response: %v", err)
	}
}

// EmitReset implements orchestrator.Sink. The client clears its local state
// on receipt; no snapshot follows.
func (s *Server) EmitReset(sessionID string) {
	event := protocol.SessionResetEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeSessionReset,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
	}
	if err := s.hub.BroadcastJSON(sessionID, event); err != nil {
		log.Printf("ERROR: failed to broadcast session_reset: %v", err)
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle. The
// session identifier travels in the connection query string.
func (s *Server) HandleWebSocket(c echo.Context) error {
	if s.cfg.APIKey != "" && c.QueryParam("api_key") != s.cfg.APIKey {
		if te, err := fault.New(fault.KindAuth, fault.CategoryAuth, fault.SeverityWarning,
			"websocket connect with invalid api key", nil); err == nil {
			s.notifier.Publish(te)
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid api_key")
	}

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:8]
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return err
	}

	conn := s.hub.NewConnection(ws, sessionID)
	s.hub.Register(conn)
	ws.SetReadLimit(s.cfg.MaxMessageSize)

	// One initial_state per connect. A reconnecting client catches up to the
	// latest snapshot here; missed intermediate events are never replayed.
	s.sendInitialState(conn, sessionID)

	// The connection context cancels any in-flight dispatch when the client
	// goes away; the orchestrator still completes the cycle with a synthetic
	// error turn.
	ctx, cancel := context.WithCancel(context.Background())

	go s.writePump(conn)
	go s.readPump(ctx, cancel, conn)

	return nil
}

func (s *Server) sendInitialState(conn *hub.Connection, sessionID string) {
	snapshot := s.orch.Snapshot(sessionID)
	event := protocol.InitialStateEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeInitialState,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Session: protocol.SessionSnapshot{
			SessionID: snapshot.SessionID,
			Language:  snapshot.Language,
			Direction: language.Direction(snapshot.Language),
			Turns:     snapshot.Turns,
			Draft:     snapshot.Draft,
			TurnCount: snapshot.TurnCount,
		},
	}
	if err := s.hub.SendJSON(conn, event); err != nil {
		log.Printf("ERROR: failed to send initial_state to %s: %v", conn.ID, err)
	}
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(ctx context.Context, cancel context.CancelFunc, conn *hub.Connection) {
	defer func() {
		cancel()
		s.hub.Unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
				// Transport failures are classified and forwarded, never
				// thrown past the channel boundary.
				if te, nerr := fault.New(fault.KindNetwork, fault.CategoryUI,
					fault.SeverityWarning, "websocket transport failure", err); nerr == nil {
					s.notifier.Publish(te)
				}
			}
			return
		}
		s.handleMessage(ctx, conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Failed to write message: %v", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming client events.
func (s *Server) handleMessage(ctx context.Context, conn *hub.Connection, data []byte) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendErrorCode(conn, protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case protocol.TypeMessage:
		s.handleChatMessage(ctx, conn, data)
	case protocol.TypeSearchResults:
		s.handleSearchResults(ctx, conn, data)
	default:
		s.sendErrorCode(conn, protocol.ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// handleChatMessage submits one conversational turn. Processing runs off the
// read loop; the completed turn comes back through the sink broadcast.
func (s *Server) handleChatMessage(ctx context.Context, conn *hub.Connection, data []byte) {
	var msg protocol.MessageEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendErrorCode(conn, protocol.ErrorCodeInvalidMessage, "invalid message event")
		return
	}

	go func() {
		_, err := s.orch.ProcessTurn(ctx, conn.SessionID, msg.Content)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, store.ErrBusy):
			// Not a failure: the caller should retry after a short delay.
			s.sendErrorCode(conn, protocol.ErrorCodeSessionBusy, "a turn is already being processed")
		default:
			s.sendTypedError(conn, fault.Classify(err, fault.CategoryChat))
		}
	}()
}

// handleSearchResults processes a structured search as an independent draft.
func (s *Server) handleSearchResults(ctx context.Context, conn *hub.Connection, data []byte) {
	var msg protocol.SearchResultsEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendErrorCode(conn, protocol.ErrorCodeInvalidMessage, "invalid search_results event")
		return
	}

	var req orchestrator.SearchRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		s.sendErrorCode(conn, protocol.ErrorCodeInvalidMessage, "invalid search payload")
		return
	}

	go func() {
		res, err := s.orch.ProcessSearch(ctx, conn.SessionID, req)
		if err != nil {
			s.sendTypedError(conn, fault.Classify(err, fault.CategoryTripPlanner))
			return
		}
		event := protocol.ResponseEvent{
			BaseMessage: protocol.BaseMessage{
				Type:      protocol.TypeResponse,
				Ts:        time.Now().UnixMilli(),
				SessionID: conn.SessionID,
			},
			Turn:      res.Reply,
			Draft:     req.Draft,
			Language:  res.Language,
			TurnCount: res.Session.TurnCount,
		}
		if err := s.hub.SendJSON(conn, event); err != nil {
			log.Printf("ERROR: failed to send search response: %v", err)
		}
	}()
}

func (s *Server) sendErrorCode(conn *hub.Connection, code, message string) {
	event := protocol.ErrorEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			SessionID: conn.SessionID,
		},
		Code:    code,
		Message: message,
	}
	if err := s.hub.SendJSON(conn, event); err != nil {
		log.Printf("ERROR: failed to send error event: %v", err)
	}
}

func (s *Server) sendTypedError(conn *hub.Connection, te *fault.TypedError) {
	// Raw failure detail stays in the server log; the client only ever sees
	// the localized template for the session's language.
	log.Printf("ERROR: session %s: %v", conn.SessionID, te)
	lang := s.orch.Snapshot(conn.SessionID).Language
	event := protocol.ErrorEvent{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeError,
			Ts:        time.Now().UnixMilli(),
			SessionID: conn.SessionID,
		},
		Code:     protocol.ErrorCodeClassified,
		Kind:     string(te.Kind),
		Category: string(te.Category),
		Severity: string(te.Severity),
		Message:  fault.UserMessage(te, lang),
	}
	if err := s.hub.SendJSON(conn, event); err != nil {
		log.Printf("ERROR: failed to send error event: %v", err)
	}
}
