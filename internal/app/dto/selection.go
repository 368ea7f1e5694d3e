package dto

import "vendorbook/internal/domain/selection"

type SelectionDay struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// SelectionSummary is what the booking screen shows for a shopper's picks.
type SelectionSummary struct {
	HourlyData string         `json:"hourly_data"`
	Query      string         `json:"query"`
	TotalSlots int            `json:"total_slots"`
	TotalHours float64        `json:"total_hours"`
	DayCount   int            `json:"day_count"`
	Days       []SelectionDay `json:"days"`
}

func MapSelectionSummary(sel selection.Selection, summary selection.Summary) SelectionSummary {
	out := SelectionSummary{
		HourlyData: selection.Encode(sel),
		Query:      sel.Query().Encode(),
		TotalSlots: summary.TotalSlots,
		TotalHours: summary.TotalHours,
		DayCount:   summary.DayCount,
		Days:       make([]SelectionDay, 0, len(summary.Days)),
	}
	for _, d := range summary.Days {
		out.Days = append(out.Days, SelectionDay{Date: d.Date, Slots: d.Slots})
	}
	return out
}
