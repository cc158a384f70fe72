// Package domain defines the core domain models for the trip-planning assistant.
package domain

// Language is a supported conversation language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// DefaultLanguage is the language assigned to new sessions.
const DefaultLanguage = LanguageEnglish

// Valid reports whether the language is one of the supported codes.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// SupportedLanguages lists the languages the assistant speaks.
func SupportedLanguages() []Language {
	return []Language{LanguageEnglish, LanguageArabic}
}

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Intent is the classified purpose of a turn.
type Intent string

const (
	IntentFlight   Intent = "flight"
	IntentHotel    Intent = "hotel"
	IntentTrip     Intent = "trip"
	IntentContinue Intent = "continue_conversation"
)

// Valid reports whether the intent is a member of the closed enumeration.
func (i Intent) Valid() bool {
	switch i {
	case IntentFlight, IntentHotel, IntentTrip, IntentContinue:
		return true
	}
	return false
}
