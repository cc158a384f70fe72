// Package router classifies each user utterance into an intent and merges
// newly extracted trip facts into the session draft.
package router

import (
	"log"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/fault"
	"github.com/Salehnexta/Rahallah10.13/internal/notify"
)

// Router decides which specialized handler owns the next turn.
type Router struct {
	extract  ExtractFunc
	notifier *notify.Notifier
}

// New creates a router publishing degradation warnings to the notifier.
func New(notifier *notify.Notifier) *Router {
	return &Router{extract: Extract, notifier: notifier}
}

// NewWithExtractor creates a router with a custom fact extractor.
func NewWithExtractor(extract ExtractFunc, notifier *notify.Notifier) *Router {
	return &Router{extract: extract, notifier: notifier}
}

// Classify inspects the session's draft plus the new utterance and returns
// the intent owning the next turn. Newly extracted facts are merged into
// session.Draft as a side effect; the caller persists them inside the same
// turn cycle, so classification and draft update are atomic with respect to
// the per-session serialization.
//
// Classification never fails the turn: if extraction errors, the router
// degrades to continue_conversation and publishes a system warning.
func (r *Router) Classify(session *domain.Session, utterance string) domain.Intent {
	facts, err := r.extract(utterance)
	if err != nil {
		log.Printf("WARN: fact extraction failed for session %s: %v", session.SessionID, err)
		if te, nerr := fault.New(fault.KindSystem, fault.CategoryTripPlanner, fault.SeverityWarning,
			"fact extraction degraded to open conversation", err); nerr == nil {
			r.notifier.Publish(te)
		}
		return domain.IntentContinue
	}

	session.Draft.Merge(facts.Draft)
	draft := session.Draft

	// Minimum fact sets per intent, evaluated over draft plus utterance cues.
	hasDates := facts.HasDates || !draft.Dates.Empty()
	tripOK := draft.Destination != "" && (draft.DurationDays > 0 || draft.WantsPackage)
	flightOK := (facts.FlightCue || draft.FlightClass != "") &&
		(draft.Destination != "" || draft.Origin != "") && hasDates
	hotelOK := facts.HotelCue && draft.Destination != "" && hasDates

	// Tie-break order: trip > flight > hotel. A full trip subsumes flight
	// and hotel, so it wins when several sets are satisfied.
	switch {
	case tripOK:
		return domain.IntentTrip
	case flightOK:
		return domain.IntentFlight
	case hotelOK:
		return domain.IntentHotel
	default:
		return domain.IntentContinue
	}
}
