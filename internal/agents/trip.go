package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// TripAgent plans a complete package: flight, hotel, and a day-by-day
// itinerary for the drafted destination.
type TripAgent struct{}

// NewTripAgent creates a trip planning agent.
func NewTripAgent() *TripAgent {
	return &TripAgent{}
}

var activities = map[string][]string{
	"Riyadh": {"Diriyah historical district", "Kingdom Centre Sky Bridge", "National Museum", "Boulevard Riyadh City"},
	"Jeddah": {"Al-Balad old town", "Jeddah Corniche", "King Fahd Fountain", "Red Sea diving"},
	"Abha":   {"Asir National Park", "Jabal Sawda cable car", "Habala hanging village", "Art Street"},
}

var activitiesAR = map[string][]string{
	"Riyadh": {"حي الدرعية التاريخي", "جسر المملكة المعلق", "المتحف الوطني", "بوليفارد رياض سيتي"},
	"Jeddah": {"البلد التاريخية", "كورنيش جدة", "نافورة الملك فهد", "الغوص في البحر الأحمر"},
	"Abha":   {"منتزه عسير الوطني", "تلفريك جبل السودة", "قرية الحبلة المعلقة", "شارع الفن"},
}

// Generate produces a full trip plan combining a flight, a hotel, and
// activities over the drafted duration.
func (a *TripAgent) Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detected := detectFromHistory(history, lang)
	dest := cityOrDefault(draft.Destination)
	days := draft.DurationDays
	if days <= 0 {
		days = 3
	}

	al := airlines[randomN(len(airlines))]
	flightPrice := al.BasePrice + randomN(400)
	hotel := hotelNames[randomN(len(hotelNames))]
	nightly := 500 + randomN(400)
	total := flightPrice*2 + nightly*days

	var b strings.Builder
	if detected == domain.LanguageArabic {
		fmt.Fprintf(&b, "خطة رحلتك إلى %s لمدة %d أيام:\n\n", dest.City, days)
		fmt.Fprintf(&b, "الطيران: %s ذهاباً وإياباً — %d ريال سعودي\n", al.NameAR, flightPrice*2)
		fmt.Fprintf(&b, "الإقامة: %s — %d ريال سعودي لليلة\n\n", hotel, nightly)
	} else {
		fmt.Fprintf(&b, "Your %d-day trip plan for %s:\n\n", days, dest.City)
		fmt.Fprintf(&b, "Flight: %s round trip — %d SAR\n", al.Name, flightPrice*2)
		fmt.Fprintf(&b, "Hotel: %s %s — %d SAR per night\n\n", hotel, dest.City, nightly)
	}

	acts := activities[dest.City]
	actsAR := activitiesAR[dest.City]
	if len(acts) == 0 {
		acts = activities["Riyadh"]
		actsAR = activitiesAR["Riyadh"]
	}
	for d := 0; d < days && d < len(acts); d++ {
		if detected == domain.LanguageArabic {
			fmt.Fprintf(&b, "اليوم %d: %s\n", d+1, actsAR[d])
		} else {
			fmt.Fprintf(&b, "Day %d: %s\n", d+1, acts[d])
		}
	}

	if detected == domain.LanguageArabic {
		fmt.Fprintf(&b, "\nالتكلفة التقديرية الإجمالية: %d ريال سعودي. هذه خطة توضيحية وليست حجزاً فعلياً.", total)
	} else {
		fmt.Fprintf(&b, "\nEstimated total: %d SAR. This is an illustrative plan, not a real booking.", total)
	}

	return &domain.GenerationResult{
		Text:             b.String(),
		DetectedLanguage: detected,
		DraftFields:      domain.TripDraft{Destination: dest.City, DurationDays: days, WantsPackage: true},
	}, nil
}
