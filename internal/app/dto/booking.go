package dto

import (
	"time"

	domainbooking "vendorbook/internal/domain/booking"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

type Booking struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	RequesterID string    `json:"requester_id"`
	Status      string    `json:"status"`
	HourlyData  string    `json:"hourly_data,omitempty"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	TotalSlots  int       `json:"total_slots,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	return Booking{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		RequesterID: b.RequesterID,
		Status:      string(b.Status),
		HourlyData:  selection.Encode(b.Selection),
		From:        dateOrEmpty(b.Days.From),
		To:          dateOrEmpty(b.Days.To),
		TotalSlots:  b.Selection.TotalHours(),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return daterange.Key(t)
}
