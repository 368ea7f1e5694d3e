package booking

import (
	"time"

	"vendorbook/internal/domain/listings"
)

// BookingRequested is handed to the booking subsystem that adjudicates
// conflicts and owns payment.
type BookingRequested struct {
	BookingID   BookingID          `json:"booking_id"`
	ListingID   listings.ListingID `json:"listing_id"`
	RequesterID string             `json:"requester_id"`
	HourlyData  string             `json:"hourly_data,omitempty"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	TotalSlots  int                `json:"total_slots"`
	At          time.Time          `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID BookingID          `json:"booking_id"`
	ListingID listings.ListingID `json:"listing_id"`
	From      Status             `json:"from"`
	To        Status             `json:"to"`
	Reason    string             `json:"reason,omitempty"`
	At        time.Time          `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking." + string(e.To) }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
