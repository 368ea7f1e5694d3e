package mongo

import (
	"reflect"
	"testing"
	"time"

	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

func TestListingDocumentRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &domainlistings.Listing{
		ID:       "lst-1",
		Host:     "host-1",
		Title:    "Taco truck",
		Category: domainlistings.CategoryTruck,
		Mode:     domainlistings.ModeHourly,
		Address:  domainlistings.Address{Line1: "1 Main", City: "Austin", Country: "US", Lat: 30.1, Lon: -97.7},
		WeeklyAvailability: map[string]any{
			"Monday": map[string]any{"open": "09:00", "close": "17:00"},
			"tue":    true,
		},
		AvailableFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		State:         domainlistings.ListingActive,
		Version:       3,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	doc, err := newListingDocument(l)
	if err != nil {
		t.Fatalf("newListingDocument: %v", err)
	}
	if doc.AvailableFrom != "2024-03-01" || doc.AvailableTo != "" {
		t.Fatalf("window = %q..%q", doc.AvailableFrom, doc.AvailableTo)
	}
	back, err := doc.toAggregate()
	if err != nil {
		t.Fatalf("toAggregate: %v", err)
	}
	if !reflect.DeepEqual(back.WeeklyAvailability, l.WeeklyAvailability) {
		t.Fatalf("weekly = %#v", back.WeeklyAvailability)
	}
	if !back.AvailableFrom.Equal(l.AvailableFrom) || !back.AvailableTo.IsZero() {
		t.Fatalf("window = %v..%v", back.AvailableFrom, back.AvailableTo)
	}
	if back.Location() != l.Location() || back.State != l.State || back.Version != 3 {
		t.Fatalf("listing = %+v", back)
	}
}

func TestBookingDocumentRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	b, err := domainbooking.NewHourly(domainbooking.CreateParams{
		ID:          "bk-1",
		ListingID:   "lst-1",
		RequesterID: "u-1",
		Selection:   selection.ParseHourlyData("2024-03-04:10:00,09:00|2024-03-02:12:00"),
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("NewHourly: %v", err)
	}
	doc := newBookingDocument(b)
	if doc.From != "2024-03-02" || doc.To != "2024-03-04" {
		t.Fatalf("span = %s..%s", doc.From, doc.To)
	}
	back, err := doc.toAggregate()
	if err != nil {
		t.Fatalf("toAggregate: %v", err)
	}
	if !back.Selection.Equal(b.Selection) || back.Status != domainbooking.StatusPending {
		t.Fatalf("booking = %+v", back)
	}

	days, _ := daterange.Parse("2024-03-10", "2024-03-11")
	daily, _ := domainbooking.NewDaily(domainbooking.CreateParams{ID: "bk-2", ListingID: "lst-1", RequesterID: "u", Days: days, CreatedAt: now})
	back, err = newBookingDocument(daily).toAggregate()
	if err != nil {
		t.Fatalf("toAggregate daily: %v", err)
	}
	if back.Hourly() || !back.Days.From.Equal(days.From) || !back.Days.To.Equal(days.To) {
		t.Fatalf("daily booking = %+v", back)
	}
}
