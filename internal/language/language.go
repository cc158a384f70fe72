// Package language provides Arabic/English detection for user utterances.
package language

import (
	"regexp"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
)

// Arabic character ranges in Unicode: Arabic, Arabic Supplement, and
// Arabic Extended-A.
var arabicPattern = regexp.MustCompile(`[\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}]`)

// Detect returns Arabic if the text contains any Arabic-range characters,
// English otherwise.
func Detect(text string) domain.Language {
	if arabicPattern.MatchString(text) {
		return domain.LanguageArabic
	}
	return domain.LanguageEnglish
}

// Direction returns the text direction for a language.
func Direction(lang domain.Language) string {
	if lang == domain.LanguageArabic {
		return "rtl"
	}
	return "ltr"
}
