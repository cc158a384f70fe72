// Package agents provides the specialized response generators: open
// conversation, flight search, hotel search, and full trip planning. All
// content is fictional but realistic, Saudi-focused, and bilingual.
package agents

import (
	"math/rand"
	"sync"

	"github.com/Salehnexta/Rahallah10.13/internal/domain"
	"github.com/Salehnexta/Rahallah10.13/internal/language"
)

type airline struct {
	Name      string
	NameAR    string
	Code      string
	BasePrice int
}

var airlines = []airline{
	{Name: "Saudia", NameAR: "الخطوط السعودية", Code: "SV", BasePrice: 800},
	{Name: "flynas", NameAR: "طيران ناس", Code: "XY", BasePrice: 600},
	{Name: "flyadeal", NameAR: "طيران أديل", Code: "F3", BasePrice: 500},
}

type airport struct {
	City string
	Code string
	Name string
}

var airports = map[string]airport{
	"Riyadh": {City: "Riyadh", Code: "RUH", Name: "King Khalid International Airport"},
	"Jeddah": {City: "Jeddah", Code: "JED", Name: "King Abdulaziz International Airport"},
	"Dammam": {City: "Dammam", Code: "DMM", Name: "King Fahd International Airport"},
	"Medina": {City: "Medina", Code: "MED", Name: "Prince Mohammad Bin Abdulaziz International Airport"},
	"Abha":   {City: "Abha", Code: "AHB", Name: "Abha International Airport"},
	"Tabuk":  {City: "Tabuk", Code: "TUU", Name: "Tabuk Regional Airport"},
}

var hotelNames = []string{
	"Al Faisaliah Hotel",
	"Ritz-Carlton",
	"Four Seasons Hotel",
	"JW Marriott Hotel",
	"Fairmont",
	"Hilton",
	"Pullman",
	"Sheraton",
}

// rng is shared by the generators; guarded because handlers run concurrently
// across sessions.
var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(42))
)

func randomN(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}

// detectFromHistory returns the language of the newest user turn, falling
// back to the session language when history is empty.
func detectFromHistory(history []domain.Turn, fallback domain.Language) domain.Language {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return language.Detect(history[i].Content)
		}
	}
	return fallback
}

func cityOrDefault(city string) airport {
	if a, ok := airports[city]; ok {
		return a
	}
	return airports["Riyadh"]
}
