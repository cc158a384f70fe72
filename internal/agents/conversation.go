package agents

import (
	"context"
	"strings"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// ConversationAgent keeps the open dialogue moving when no specialized intent
// is resolvable yet. It asks for whichever trip facts are still missing.
type ConversationAgent struct{}

// NewConversationAgent creates a conversation agent.
func NewConversationAgent() *ConversationAgent {
	return &ConversationAgent{}
}

// Generate produces a prompting reply based on what the draft still lacks.
func (a *ConversationAgent) Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detected := detectFromHistory(history, lang)

	var b strings.Builder
	switch {
	case draft.Destination == "":
		if detected == domain.LanguageArabic {
			b.WriteString("أهلاً بك! أنا مساعد السفر الخاص بك داخل المملكة العربية السعودية. إلى أي مدينة تود السفر؟")
		} else {
			b.WriteString("Welcome! I'm your travel assistant for trips within Saudi Arabia. Which city would you like to visit?")
		}
	case draft.Dates.Empty():
		if detected == domain.LanguageArabic {
			b.WriteString("رائع، وجهة جميلة! متى تخطط للسفر تقريباً؟")
		} else {
			b.WriteString("Great choice! Roughly when are you planning to travel?")
		}
	default:
		if detected == domain.LanguageArabic {
			b.WriteString("هل تريد مساعدة في حجز طيران، فندق، أو تخطيط رحلة كاملة؟")
		} else {
			b.WriteString("Would you like help with a flight, a hotel, or planning the full trip?")
		}
	}

	return &domain.GenerationResult{
		Text:             b.String(),
		DetectedLanguage: detected,
	}, nil
}
