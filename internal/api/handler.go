// Package api provides the stateless request/response boundary: chat, reset,
// health, and language listing, mirroring the realtime channel's semantics.
package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Salehnexta/Rahallah10.13/internal/config"
	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/fault"
	"github.com/Salehnexta/Rahallah10.13/internal/hub"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
	"github.com/Salehnexta/Rahallah10.13/internal/orchestrator"
	"github.com/Salehnexta/Rahallah10.13/internal/store"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Handler holds the REST handlers.
type Handler struct {
	cfg       *config.Config
	orch      *orchestrator.Orchestrator
	hub       *hub.Hub
	notifier  *notify.Notifier
	llmStatus func() string
}

// NewHandler creates the REST handler. llmStatus reports the generation
// backend's health; the in-process mock generators are always connected.
func NewHandler(cfg *config.Config, orch *orchestrator.Orchestrator, h *hub.Hub, notifier *notify.Notifier, llmStatus func() string) *Handler {
	if llmStatus == nil {
		llmStatus = func() string { return "connected" }
	}
	return &Handler{cfg: cfg, orch: orch, hub: h, notifier: notifier, llmStatus: llmStatus}
}

// Register wires the routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	g := e.Group("/api", h.requireAPIKey)
	g.POST("/chat", h.Chat)
	g.POST("/reset", h.Reset)
	g.GET("/health", h.Health)
	g.GET("/languages", h.Languages)
}

// requireAPIKey rejects requests without the configured key. Disabled when no
// key is configured.
func (h *Handler) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.cfg.APIKey == "" || c.Path() == "/api/health" {
			return next(c)
		}
		if c.Request().Header.Get("X-API-Key") != h.cfg.APIKey {
			if te, err := fault.New(fault.KindAuth, fault.CategoryAuth, fault.SeverityWarning,
				"request with invalid api key", nil); err == nil {
				h.notifier.Publish(te)
			}
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
		}
		return next(c)
	}
}

// ChatRequest is the synchronous chat request body.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the synchronous chat response body.
type ChatResponse struct {
	SessionID string          `json:"session_id"`
	Response  string          `json:"response"`
	Language  domain.Language `json:"language"`
	Intent    domain.Intent   `json:"intent"`
}

// Chat runs one full turn cycle synchronously. It contends on the same
// per-session turnstile as the realtime channel.
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	res, err := h.orch.ProcessTurn(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		var te *fault.TypedError
		switch {
		case errors.Is(err, store.ErrBusy):
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "a turn is already being processed for this session",
			})
		case errors.As(err, &te) && te.Kind == fault.KindValidation:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":    fault.UserMessage(te, domain.DefaultLanguage),
				"kind":     te.Kind,
				"category": te.Category,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "An error occurred processing your request",
			})
		}
	}

	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: req.SessionID,
		Response:  res.Reply.Content,
		Language:  res.Language,
		Intent:    res.Intent,
	})
}

// ResetRequest is the reset request body.
type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset clears a session's history and draft.
func (h *Handler) Reset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	if _, err := h.orch.Reset(c.Request().Context(), req.SessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"status":  "error",
				"message": "Invalid session ID",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "An error occurred resetting the session",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Session reset successfully",
	})
}

// Health reports service and generation-backend status.
func (h *Handler) Health(c echo.Context) error {
	resp := map[string]interface{}{
		"status":     "healthy",
		"version":    Version,
		"llm_status": h.llmStatus(),
	}
	if h.hub != nil {
		resp["connections"] = h.hub.ConnectionCount()
		resp["sessions"] = h.hub.SessionCount()
	}
	return c.JSON(http.StatusOK, resp)
}

// Languages lists the supported conversation languages.
func (h *Handler) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"supported_languages": domain.SupportedLanguages(),
		"default_language":    domain.DefaultLanguage,
	})
}
