// Package mirror reconstructs UI-relevant session state on the client from
// pushed snapshots and turn results, resolving the two possible event
// orderings: a full snapshot always brings the client to the latest state,
// while a stale incremental result is discarded.
package mirror

import (
	"encoding/json"
	"fmt"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/language"
	"github.com/Salehnexta/Rahallah10.13/internal/protocol"
)

// Mirror is the client-side state reconstruction.
type Mirror struct {
	SessionID string
	Language  domain.Language
	Direction string
	Turns     []domain.Turn
	Draft     domain.TripDraft
	TurnCount int
	LastError *protocol.ErrorEvent
}

// New creates an empty mirror.
func New() *Mirror {
	return &Mirror{Language: domain.DefaultLanguage, Direction: "ltr"}
}

// Apply decodes one server event and folds it into the mirror. It returns the
// event type and whether the event changed the state; a stale event is
// reported as applied=false, not as an error.
func (m *Mirror) Apply(data []byte) (eventType string, applied bool, err error) {
	var base protocol.BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		return "", false, fmt.Errorf("failed to decode event: %w", err)
	}

	switch base.Type {
	case protocol.TypeInitialState:
		var event protocol.InitialStateEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return base.Type, false, fmt.Errorf("failed to decode initial_state: %w", err)
		}
		return base.Type, m.applySnapshot(event.Session), nil

	case protocol.TypeResponse:
		var event protocol.ResponseEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return base.Type, false, fmt.Errorf("failed to decode response: %w", err)
		}
		return base.Type, m.applyResponse(event), nil

	case protocol.TypeSessionReset:
		m.Turns = nil
		m.Draft = domain.TripDraft{}
		m.TurnCount = 0
		m.LastError = nil
		return base.Type, true, nil

	case protocol.TypeError:
		var event protocol.ErrorEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return base.Type, false, fmt.Errorf("failed to decode error event: %w", err)
		}
		m.LastError = &event
		return base.Type, true, nil

	default:
		return base.Type, false, fmt.Errorf("unknown event type %q", base.Type)
	}
}

// applySnapshot replaces local state with the snapshot unless the snapshot is
// older than what the mirror already holds.
func (m *Mirror) applySnapshot(s protocol.SessionSnapshot) bool {
	if s.SessionID == m.SessionID && s.TurnCount < m.TurnCount {
		return false
	}
	m.SessionID = s.SessionID
	m.Language = s.Language
	m.Direction = s.Direction
	m.Turns = s.Turns
	m.Draft = s.Draft
	m.TurnCount = s.TurnCount
	return true
}

// applyResponse appends an incremental turn result. A result the snapshot
// already covered (turn count not ahead of ours) is ignored; state sync is
// document-level, so the client never replays history gaps.
func (m *Mirror) applyResponse(e protocol.ResponseEvent) bool {
	if e.TurnCount <= m.TurnCount {
		return false
	}
	m.Turns = append(m.Turns, e.Turn)
	m.Draft = e.Draft
	m.Language = e.Language
	m.Direction = language.Direction(e.Language)
	m.TurnCount = e.TurnCount
	return true
}
