// Package orchestrator drives one request/response cycle per turn: it accepts
// input, classifies intent, dispatches to the selected specialized handler,
// updates the session, and emits the result over the realtime channel.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/fault"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
	"github.com/Salehnexta/Rahallah10.13/internal/router"
	"github.com/Salehnexta/Rahallah10.13/internal/store"
)

// Handler is a specialized response generator (flight, hotel, trip, or open
// conversation). It may take arbitrarily long and may fail; the orchestrator
// treats every handler failure uniformly.
type Handler interface {
	Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error)

// Generate implements Handler.
func (f HandlerFunc) Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
	return f(ctx, history, lang, draft)
}

// WithTimeout bounds a handler call. Timeout policy belongs to the
// collaborator boundary, not to the turn cycle; an expired deadline surfaces
// as an ordinary server-kind failure.
func WithTimeout(h Handler, d time.Duration) Handler {
	return HandlerFunc(func(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return h.Generate(ctx, history, lang, draft)
	})
}

// Sink receives completed turn cycles for delivery over the realtime channel.
type Sink interface {
	EmitResponse(session *domain.Session, turn domain.Turn)
	EmitReset(sessionID string)
}

// Recorder is an optional durable transcript consumer.
type Recorder interface {
	RecordSession(ctx context.Context, s *domain.Session) error
	RecordTurn(ctx context.Context, sessionID string, seq int, t domain.Turn) error
	ResetSession(ctx context.Context, sessionID string) error
}

// TurnResult is the outcome of one completed turn cycle.
type TurnResult struct {
	Session  *domain.Session
	Reply    domain.Turn
	Intent   domain.Intent
	Language domain.Language
}

// Orchestrator runs the per-turn state machine. One cycle per session is ever
// in flight; the store's turnstile enforces that.
type Orchestrator struct {
	store    *store.MemoryStore
	router   *router.Router
	handlers map[domain.Intent]Handler
	sink     Sink
	notifier *notify.Notifier
	recorder Recorder // may be nil
}

// New creates an orchestrator. recorder may be nil when no durable transcript
// is configured.
func New(st *store.MemoryStore, rt *router.Router, handlers map[domain.Intent]Handler, sink Sink, notifier *notify.Notifier, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		store:    st,
		router:   rt,
		handlers: handlers,
		sink:     sink,
		notifier: notifier,
		recorder: recorder,
	}
}

// ProcessTurn runs one full Receiving -> Classifying -> Dispatching ->
// Updating cycle for the utterance. It returns store.ErrBusy when a cycle is
// already in flight for the session and a validation TypedError for empty
// input, without touching the session in either case.
func (o *Orchestrator) ProcessTurn(ctx context.Context, sessionID, content string) (*TurnResult, error) {
	// Receiving: reject empty input before any session mutation.
	if strings.TrimSpace(content) == "" {
		te, err := fault.New(fault.KindValidation, fault.CategoryChat, fault.SeverityWarning,
			"empty message content", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build validation error: %w", err)
		}
		return nil, te
	}

	sess, created := o.store.GetOrCreate(sessionID)
	if created {
		log.Printf("Created new session: %s", sessionID)
		o.record(func(r Recorder) error { return r.RecordSession(context.Background(), sess) })
	}

	if err := o.store.BeginTurn(sessionID); err != nil {
		return nil, err
	}
	defer o.store.EndTurn(sessionID)

	// The user turn is appended optimistically; it is never dropped even if
	// everything after this point fails.
	userTurn := domain.Turn{
		TurnID:    "turn_" + uuid.New().String()[:8],
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
	sess, err := o.store.Append(sessionID, userTurn)
	if err != nil {
		return nil, fmt.Errorf("failed to append user turn: %w", err)
	}
	o.record(func(r Recorder) error {
		return r.RecordTurn(context.Background(), sessionID, sess.TurnCount, userTurn)
	})

	// Classifying never fails the turn; the router degrades internally.
	intent := o.router.Classify(sess, content)
	if _, err := o.store.MergeDraft(sessionID, sess.Draft); err != nil {
		return nil, fmt.Errorf("failed to persist draft: %w", err)
	}
	log.Printf("Session %s: classified turn as %s", sessionID, intent)

	// Dispatching: the slow external call. No store lock is held here; the
	// turnstile alone keeps the session serialized.
	handler, ok := o.handlers[intent]
	if !ok {
		handler = o.handlers[domain.IntentContinue]
	}
	result, dispatchErr := handler.Generate(ctx, sess.Turns, sess.Language, sess.Draft)

	if dispatchErr != nil {
		return o.finishErrored(sessionID, intent, sess.Language, dispatchErr)
	}

	return o.finishUpdated(sessionID, intent, result)
}

// finishUpdated runs the Updating state for a successful dispatch.
func (o *Orchestrator) finishUpdated(sessionID string, intent domain.Intent, result *domain.GenerationResult) (*TurnResult, error) {
	sess, err := o.store.MergeDraft(sessionID, result.DraftFields)
	if err != nil {
		return nil, fmt.Errorf("failed to merge handler draft fields: %w", err)
	}

	// Language flips only here, at the turn boundary, never mid-turn.
	lang := sess.Language
	if result.DetectedLanguage.Valid() && result.DetectedLanguage != lang {
		if err := o.store.SetLanguage(sessionID, result.DetectedLanguage); err != nil {
			return nil, fmt.Errorf("failed to update language: %w", err)
		}
		log.Printf("Session %s: language changed %s -> %s", sessionID, lang, result.DetectedLanguage)
		lang = result.DetectedLanguage
	}

	reply := domain.Turn{
		TurnID:    "turn_" + uuid.New().String()[:8],
		Role:      domain.RoleAssistant,
		Content:   result.Text,
		Intent:    intent,
		CreatedAt: time.Now(),
	}
	sess, err = o.store.Append(sessionID, reply)
	if err != nil {
		return nil, fmt.Errorf("failed to append assistant turn: %w", err)
	}
	o.record(func(r Recorder) error {
		return r.RecordTurn(context.Background(), sessionID, sess.TurnCount, reply)
	})

	if o.sink != nil {
		o.sink.EmitResponse(sess, reply)
	}
	return &TurnResult{Session: sess, Reply: reply, Intent: intent, Language: lang}, nil
}

// finishErrored runs the Errored -> Updating path: the failure is classified,
// an error-turn is appended so the user turn is never left orphaned, and the
// cycle completes normally. No automatic retry: a silent retry of a
// generation call could duplicate billable work and confuse the user.
func (o *Orchestrator) finishErrored(sessionID string, intent domain.Intent, lang domain.Language, cause error) (*TurnResult, error) {
	te := fault.Classify(cause, fault.CategoryChat)
	if te.Kind == fault.KindUnknown {
		// Handler failures are uniformly server-kind; only cancellation and
		// timeout keep their own classification.
		if serverTE, nerr := fault.New(fault.KindServer, fault.CategoryChat, fault.SeverityError,
			"handler dispatch failed", cause); nerr == nil {
			te = serverTE
		}
	}
	log.Printf("ERROR: dispatch failed for session %s (%s): %v", sessionID, intent, te)
	o.notifier.Publish(te)

	errTurn := domain.Turn{
		TurnID:    "turn_" + uuid.New().String()[:8],
		Role:      domain.RoleAssistant,
		Content:   fault.UserMessage(te, lang),
		Intent:    intent,
		IsError:   true,
		CreatedAt: time.Now(),
	}
	sess, err := o.store.Append(sessionID, errTurn)
	if err != nil {
		return nil, fmt.Errorf("failed to append error turn: %w", err)
	}
	o.record(func(r Recorder) error {
		return r.RecordTurn(context.Background(), sessionID, sess.TurnCount, errTurn)
	})

	if o.sink != nil {
		o.sink.EmitResponse(sess, errTurn)
	}
	return &TurnResult{Session: sess, Reply: errTurn, Intent: intent, Language: lang}, nil
}

// Reset clears the session's history and draft atomically. It waits for any
// in-flight turn to complete first and is idempotent.
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := o.store.Reset(sessionID)
	if err != nil {
		return nil, err
	}
	o.record(func(r Recorder) error { return r.ResetSession(ctx, sessionID) })
	log.Printf("Reset session: %s", sessionID)

	if o.sink != nil {
		o.sink.EmitReset(sessionID)
	}
	return sess, nil
}

// Snapshot returns the current session state, creating the session if needed.
// Used by the realtime channel to build initial_state events.
func (o *Orchestrator) Snapshot(sessionID string) *domain.Session {
	sess, created := o.store.GetOrCreate(sessionID)
	if created {
		log.Printf("Created new session: %s", sessionID)
		o.record(func(r Recorder) error { return r.RecordSession(context.Background(), sess) })
	}
	return sess
}

// SearchRequest is a client-submitted structured search. It is an independent
// draft: it never mutates the session's conversational TripDraft and does not
// contend on the session turnstile.
type SearchRequest struct {
	Kind  string           `json:"kind"` // "flight" or "hotel"
	Draft domain.TripDraft `json:"draft"`
}

// ProcessSearch dispatches a structured search to the matching handler using
// a fresh draft. The resulting turn is ephemeral: it is returned for delivery
// but never appended to the session history.
func (o *Orchestrator) ProcessSearch(ctx context.Context, sessionID string, req SearchRequest) (*TurnResult, error) {
	var intent domain.Intent
	switch req.Kind {
	case "flight":
		intent = domain.IntentFlight
	case "hotel":
		intent = domain.IntentHotel
	case "trip":
		intent = domain.IntentTrip
	default:
		te, err := fault.New(fault.KindValidation, fault.CategoryTripPlanner, fault.SeverityWarning,
			fmt.Sprintf("unknown search kind %q", req.Kind), nil)
		if err != nil {
			return nil, err
		}
		return nil, te
	}

	sess, _ := o.store.GetOrCreate(sessionID)
	handler := o.handlers[intent]
	result, err := handler.Generate(ctx, nil, sess.Language, req.Draft)
	if err != nil {
		te := fault.Classify(err, fault.CategoryTripPlanner)
		o.notifier.Publish(te)
		return nil, te
	}

	reply := domain.Turn{
		TurnID:    "turn_" + uuid.New().String()[:8],
		Role:      domain.RoleAssistant,
		Content:   result.Text,
		Intent:    intent,
		CreatedAt: time.Now(),
	}
	return &TurnResult{Session: sess, Reply: reply, Intent: intent, Language: sess.Language}, nil
}

func (o *Orchestrator) record(fn func(Recorder) error) {
	if o.recorder == nil {
		return
	}
	if err := fn(o.recorder); err != nil {
		log.Printf("WARN: transcript archive write failed: %v", err)
	}
}
