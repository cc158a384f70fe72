package fault

import "github.com/Salehnexta/Rahallah10.13/internal/domain"

// Fixed user-facing templates per kind. Raw failure detail never reaches the
// user; it is logged server-side only.
var userMessagesEN = map[Kind]string{
	KindNetwork:    "Connection problem. Please check your network and try again.",
	KindValidation: "Please enter a message so I can help you.",
	KindServer:     "I'm sorry, I encountered an error processing your request. Please try again.",
	KindAuth:       "Your session could not be authorized. Please reconnect.",
	KindSystem:     "Something went wrong on our side. Please try again in a moment.",
	KindUnknown:    "An unexpected error occurred. Please try again.",
}

var userMessagesAR = map[Kind]string{
	KindNetwork:    "حدثت مشكلة في الاتصال. يرجى التحقق من الشبكة والمحاولة مرة أخرى.",
	KindValidation: "يرجى إدخال رسالة حتى أتمكن من مساعدتك.",
	KindServer:     "عذراً، واجهت خطأ أثناء معالجة طلبك. يرجى المحاولة مرة أخرى.",
	KindAuth:       "تعذر التحقق من جلستك. يرجى إعادة الاتصال.",
	KindSystem:     "حدث خلل من جهتنا. يرجى المحاولة بعد قليل.",
	KindUnknown:    "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى.",
}

// UserMessage renders a localized, non-technical message for the error. It is
// total: any unrecognized kind or language falls back to the unknown/English
// template rather than failing.
func UserMessage(e *TypedError, lang domain.Language) string {
	messages := userMessagesEN
	if lang == domain.LanguageArabic {
		messages = userMessagesAR
	}
	if e == nil {
		return messages[KindUnknown]
	}
	if msg, ok := messages[e.Kind]; ok {
		return msg
	}
	return messages[KindUnknown]
}
