package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// FlightAgent generates fictional but realistic flight options with Saudi
// airlines. The options are never real bookings.
type FlightAgent struct{}

// NewFlightAgent creates a flight agent.
func NewFlightAgent() *FlightAgent {
	return &FlightAgent{}
}

// Generate produces 3 flight options for the drafted route.
func (a *FlightAgent) Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detected := detectFromHistory(history, lang)
	dest := cityOrDefault(draft.Destination)
	origin := cityOrDefault(draft.Origin)
	if origin.Code == dest.Code {
		origin = airports["Jeddah"]
		if dest.Code == origin.Code {
			origin = airports["Riyadh"]
		}
	}

	var b strings.Builder
	if detected == domain.LanguageArabic {
		fmt.Fprintf(&b, "إليك خيارات الطيران من %s إلى %s:\n\n", origin.City, dest.City)
	} else {
		fmt.Fprintf(&b, "Here are flight options from %s (%s) to %s (%s):\n\n",
			origin.City, origin.Code, dest.City, dest.Code)
	}

	for i := 0; i < 3; i++ {
		al := airlines[i%len(airlines)]
		price := al.BasePrice + randomN(400)
		if draft.FlightClass == "business" {
			price *= 3
		}
		flightNo := fmt.Sprintf("%s%d", al.Code, 100+randomN(800))
		depHour := 6 + i*5 + randomN(3)

		if detected == domain.LanguageArabic {
			fmt.Fprintf(&b, "%d. %s %s — الإقلاع %02d:00 — السعر %d ريال سعودي\n",
				i+1, al.NameAR, flightNo, depHour, price)
		} else {
			fmt.Fprintf(&b, "%d. %s %s — departs %02d:00 — %d SAR\n",
				i+1, al.Name, flightNo, depHour, price)
		}
	}

	if detected == domain.LanguageArabic {
		b.WriteString("\nهذه أمثلة توضيحية وليست رحلات حقيقية. هل تريد تفاصيل أحد الخيارات؟")
	} else {
		b.WriteString("\nThese are illustrative examples, not real flights. Would you like details on any option?")
	}

	return &domain.GenerationResult{
		Text:             b.String(),
		DetectedLanguage: detected,
		DraftFields:      domain.TripDraft{Destination: dest.City, Origin: origin.City},
	}, nil
}
