package router

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// Facts are the structured cues pulled out of one utterance.
type Facts struct {
	Draft     domain.TripDraft
	FlightCue bool
	HotelCue  bool
	TripCue   bool
	HasDates  bool
}

// Saudi cities the assistant knows, with their Arabic spellings.
var cities = map[string]string{
	"Riyadh":    "الرياض",
	"Jeddah":    "جدة",
	"Dammam":    "الدمام",
	"Medina":    "المدينة",
	"Mecca":     "مكة",
	"Al Khobar": "الخبر",
	"Tabuk":     "تبوك",
	"Abha":      "أبها",
	"Taif":      "الطائف",
	"Yanbu":     "ينبع",
	"Jubail":    "الجبيل",
	"Dhahran":   "الظهران",
}

var flightCues = []string{
	"flight", "fly", "plane", "airport", "airline", "airways", "ticket",
	"طيران", "مطار", "طائرة", "تذكرة",
}

var hotelCues = []string{
	"hotel", "stay", "room", "accommodation", "resort", "night", "motel",
	"فندق", "إقامة", "غرفة", "سكن", "منتجع",
}

var tripCues = []string{
	"trip", "vacation", "holiday", "itinerary", "package", "full trip",
	"complete", "tour", "plan my", "whole trip",
	"رحلة كاملة", "خطة", "إجازة", "عطلة", "حزمة", "جولة",
}

var dateCues = []string{
	"today", "tomorrow", "next week", "next month", "this weekend",
	"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december",
	"اليوم", "غدا", "غداً", "الأسبوع القادم", "الشهر القادم",
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var (
	numericDatePattern = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`)
	durationPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(days?|nights?|أيام|يوم|ليال|ليلة)`)
	weeksPattern       = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(weeks?|أسابيع|أسبوع)`)
	budgetPattern      = regexp.MustCompile(`(?i)\b(\d{3,6})\s*(sar|sr|riyals?|ريال)`)
)

// ExtractFunc pulls structured facts out of an utterance. It is a variable so
// tests can substitute a failing extractor; classification must degrade, not
// abort, when extraction errors.
type ExtractFunc func(utterance string) (Facts, error)

// Extract is the default fact extractor: keyword and pattern matching over
// the bilingual vocabulary above.
func Extract(utterance string) (Facts, error) {
	var f Facts
	lower := strings.ToLower(utterance)

	for en, ar := range cities {
		lowerCity := strings.ToLower(en)
		if !containsWord(lower, lowerCity) && !strings.Contains(utterance, ar) {
			continue
		}
		// "from X" marks an origin rather than a destination.
		if strings.Contains(lower, "from "+lowerCity) || strings.Contains(utterance, "من "+ar) {
			f.Draft.Origin = en
		} else {
			f.Draft.Destination = en
		}
	}

	for _, cue := range dateCues {
		if strings.Contains(lower, cue) || strings.Contains(utterance, cue) {
			f.HasDates = true
			f.Draft.Dates.Start = cue
			break
		}
	}
	if m := numericDatePattern.FindString(utterance); m != "" {
		f.HasDates = true
		if f.Draft.Dates.Start == "" {
			f.Draft.Dates.Start = m
		} else {
			f.Draft.Dates.End = m
		}
	}

	if m := durationPattern.FindStringSubmatch(utterance); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Draft.DurationDays = n
		}
	} else if m := weeksPattern.FindStringSubmatch(utterance); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Draft.DurationDays = n * 7
		}
	}

	if m := budgetPattern.FindStringSubmatch(utterance); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			f.Draft.Budget = &domain.BudgetRange{Max: n, Currency: "SAR"}
		}
	}

	switch {
	case strings.Contains(lower, "business class") || strings.Contains(utterance, "درجة رجال الأعمال"):
		f.Draft.FlightClass = "business"
	case strings.Contains(lower, "economy") || strings.Contains(utterance, "الدرجة السياحية"):
		f.Draft.FlightClass = "economy"
	}

	f.FlightCue = matchesAny(utterance, lower, flightCues)
	f.HotelCue = matchesAny(utterance, lower, hotelCues)
	f.TripCue = matchesAny(utterance, lower, tripCues)
	if f.TripCue {
		f.Draft.WantsPackage = true
	}

	return f, nil
}

func matchesAny(original, lower string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(lower, cue) || strings.Contains(original, cue) {
			return true
		}
	}
	return false
}

func containsWord(haystack, word string) bool {
	idx := strings.Index(haystack, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(haystack[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(haystack) || !isLetter(haystack[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(haystack[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
