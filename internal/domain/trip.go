package domain

// DateRange holds approximate travel dates as the user phrased them.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Empty reports whether no date information has been collected.
func (d DateRange) Empty() bool {
	return d.Start == "" && d.End == ""
}

// BudgetRange holds an approximate budget in Saudi Riyals.
type BudgetRange struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// TripDraft accumulates structured trip facts extracted across turns. It is
// owned by the session and mutated only inside a turn cycle.
type TripDraft struct {
	Destination  string       `json:"destination,omitempty"`
	Origin       string       `json:"origin,omitempty"`
	Dates        DateRange    `json:"dates,omitempty"`
	DurationDays int          `json:"duration_days,omitempty"`
	Budget       *BudgetRange `json:"budget,omitempty"`
	FlightClass  string       `json:"flight_class,omitempty"`
	Preferences  []string     `json:"preferences,omitempty"`
	WantsPackage bool         `json:"wants_package,omitempty"`
}

// Clone returns a deep copy of the draft.
func (d TripDraft) Clone() TripDraft {
	cp := d
	if d.Budget != nil {
		b := *d.Budget
		cp.Budget = &b
	}
	cp.Preferences = make([]string, len(d.Preferences))
	copy(cp.Preferences, d.Preferences)
	return cp
}

// Merge copies every non-zero field of src into the draft. Existing facts are
// overwritten by newer ones; absent fields in src leave the draft untouched.
func (d *TripDraft) Merge(src TripDraft) {
	if src.Destination != "" {
		d.Destination = src.Destination
	}
	if src.Origin != "" {
		d.Origin = src.Origin
	}
	if src.Dates.Start != "" {
		d.Dates.Start = src.Dates.Start
	}
	if src.Dates.End != "" {
		d.Dates.End = src.Dates.End
	}
	if src.DurationDays > 0 {
		d.DurationDays = src.DurationDays
	}
	if src.Budget != nil {
		b := *src.Budget
		d.Budget = &b
	}
	if src.FlightClass != "" {
		d.FlightClass = src.FlightClass
	}
	if src.WantsPackage {
		d.WantsPackage = true
	}
	for _, p := range src.Preferences {
		if !containsString(d.Preferences, p) {
			d.Preferences = append(d.Preferences, p)
		}
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
