package selection

import (
	"sort"
	"time"
)

// TotalHours is the number of selected slots. One slot counts as one hour;
// use Coverage when the slot length differs.
func (s Selection) TotalHours() int {
	total := 0
	for _, slots := range s {
		total += len(slots)
	}
	return total
}

// DayCount is the number of distinct dates.
func (s Selection) DayCount() int {
	return len(s)
}

// Dates returns the selected dates ascending. Zero-padded ISO dates sort
// chronologically as strings.
func (s Selection) Dates() []string {
	dates := make([]string, 0, len(s))
	for date := range s {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// SlotsFor returns a copy of the slots selected on date, ascending.
func (s Selection) SlotsFor(date string) []string {
	slots := append([]string(nil), s[date]...)
	sort.Strings(slots)
	return slots
}

// Coverage converts the slot count into a duration.
func (s Selection) Coverage(slotDuration time.Duration) time.Duration {
	return time.Duration(s.TotalHours()) * slotDuration
}

// Day is one date of a summary.
type Day struct {
	Date  string
	Slots []string
}

// Summary is the display projection of a selection.
type Summary struct {
	TotalSlots int
	TotalHours float64
	DayCount   int
	Days       []Day
}

// Summarize builds the display projection. slotDuration <= 0 means one hour.
func Summarize(s Selection, slotDuration time.Duration) Summary {
	if slotDuration <= 0 {
		slotDuration = time.Hour
	}
	summary := Summary{
		TotalSlots: s.TotalHours(),
		TotalHours: s.Coverage(slotDuration).Hours(),
		DayCount:   s.DayCount(),
		Days:       make([]Day, 0, len(s)),
	}
	for _, date := range s.Dates() {
		summary.Days = append(summary.Days, Day{Date: date, Slots: s.SlotsFor(date)})
	}
	return summary
}
