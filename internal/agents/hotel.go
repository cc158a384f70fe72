package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// HotelAgent generates fictional hotel options in the drafted city.
type HotelAgent struct{}

// NewHotelAgent creates a hotel agent.
func NewHotelAgent() *HotelAgent {
	return &HotelAgent{}
}

// Generate produces 3 hotel options with nightly SAR prices.
func (a *HotelAgent) Generate(ctx context.Context, history []domain.Turn, lang domain.Language, draft domain.TripDraft) (*domain.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detected := detectFromHistory(history, lang)
	city := draft.Destination
	if city == "" {
		city = "Riyadh"
	}

	var b strings.Builder
	if detected == domain.LanguageArabic {
		fmt.Fprintf(&b, "إليك خيارات الفنادق في %s:\n\n", city)
	} else {
		fmt.Fprintf(&b, "Here are hotel options in %s:\n\n", city)
	}

	start := randomN(len(hotelNames))
	for i := 0; i < 3; i++ {
		name := hotelNames[(start+i)%len(hotelNames)]
		stars := 4 + (i % 2)
		price := 400 + randomN(600)

		if detected == domain.LanguageArabic {
			fmt.Fprintf(&b, "%d. %s %s — %d نجوم — %d ريال سعودي لليلة\n",
				i+1, name, city, stars, price)
		} else {
			fmt.Fprintf(&b, "%d. %s %s — %d stars — %d SAR per night\n",
				i+1, name, city, stars, price)
		}
	}

	if detected == domain.LanguageArabic {
		b.WriteString("\nهذه أمثلة توضيحية فقط. هل تريد معرفة المزيد عن أي فندق؟")
	} else {
		b.WriteString("\nThese are illustrative examples only. Want more detail on any of them?")
	}

	return &domain.GenerationResult{
		Text:             b.String(),
		DetectedLanguage: detected,
		DraftFields:      domain.TripDraft{Destination: city},
	}, nil
}
