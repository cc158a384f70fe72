package domain

import "time"

// Turn is one user utterance or its paired assistant response.
type Turn struct {
	TurnID    string    `json:"turn_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Intent    Intent    `json:"intent,omitempty"` // empty until classified
	IsError   bool      `json:"is_error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one user's ongoing conversation plus accumulated trip facts.
type Session struct {
	SessionID string    `json:"session_id"`
	Language  Language  `json:"language"`
	Turns     []Turn    `json:"turns"`
	Draft     TripDraft `json:"draft"`
	TurnCount int       `json:"turn_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the session. The store hands out clones only,
// so callers can never mutate shared state behind the store's back.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Turns = make([]Turn, len(s.Turns))
	copy(cp.Turns, s.Turns)
	cp.Draft = s.Draft.Clone()
	return &cp
}

// LastUserContent returns the content of the most recent user turn, if any.
func (s *Session) LastUserContent() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleUser {
			return s.Turns[i].Content
		}
	}
	return ""
}

// GenerationResult is what a specialized handler produces for one turn.
type GenerationResult struct {
	Text             string
	DetectedLanguage Language
	DraftFields      TripDraft
}
