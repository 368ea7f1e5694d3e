package dto

import (
	domainavailability "vendorbook/internal/domain/availability"
	"vendorbook/internal/domain/shared/daterange"
)

type AvailabilityDay struct {
	Date        string   `json:"date"`
	Weekday     string   `json:"weekday"`
	State       string   `json:"state"`
	OpenSlots   []string `json:"open_slots,omitempty"`
	BookedSlots []string `json:"booked_slots,omitempty"`
}

// AvailabilityCalendar is the per-date view of a listing. Warning is set when
// bookings could not be read and the days reflect the weekly template only.
type AvailabilityCalendar struct {
	ListingID string            `json:"listing_id"`
	From      string            `json:"from"`
	To        string            `json:"to"`
	Mode      string            `json:"mode"`
	States    map[string]string `json:"states"`
	Days      []AvailabilityDay `json:"days"`
	Warning   string            `json:"warning,omitempty"`
}

func MapAvailabilityCalendar(listingID, mode string, cal domainavailability.Calendar) AvailabilityCalendar {
	out := AvailabilityCalendar{
		ListingID: listingID,
		From:      daterange.Key(cal.Range.From),
		To:        daterange.Key(cal.Range.To),
		Mode:      mode,
		States:    make(map[string]string, len(cal.Days)),
		Days:      make([]AvailabilityDay, 0, len(cal.Days)),
	}
	for _, d := range cal.Days {
		out.States[d.Date] = string(d.State)
		out.Days = append(out.Days, AvailabilityDay{
			Date:        d.Date,
			Weekday:     string(d.Weekday),
			State:       string(d.State),
			OpenSlots:   d.OpenSlots,
			BookedSlots: d.BookedSlots,
		})
	}
	return out
}
