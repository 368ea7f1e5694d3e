package listings

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"vendorbook/internal/domain/schedule"
)

func newTestListing(t *testing.T) *Listing {
	t.Helper()
	l, err := NewListing(CreateListingParams{
		ID:       "lst-1",
		Host:     "host-1",
		Title:    "  Taco truck  ",
		Category: "Truck",
		Address:  Address{Line1: "1 Main St", City: "Austin", Country: "US", Lat: 30.27, Lon: -97.74},
		WeeklyAvailability: map[string]any{
			"Monday": map[string]any{"open": "09:00", "close": "17:00"},
			"SUN":    false,
		},
		Now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	return l
}

func TestNewListingDefaultsAndEvents(t *testing.T) {
	l := newTestListing(t)
	if l.Title != "Taco truck" || l.Category != CategoryTruck || l.Mode != ModeHourly {
		t.Fatalf("unexpected listing %+v", l)
	}
	if l.State != ListingDraft {
		t.Fatalf("state = %s", l.State)
	}
	evs := l.PendingEvents()
	if len(evs) != 1 || evs[0].EventName() != "listing.created" {
		t.Fatalf("events = %v", evs)
	}
	if _, ok := l.WeeklyAvailability["Monday"]; !ok {
		t.Fatal("raw weekly record must keep host casing")
	}
	tmpl := l.WeeklyTemplate()
	if _, ok := tmpl[schedule.Mon]; !ok {
		t.Fatalf("template missing mon: %v", tmpl)
	}
	if v, ok := tmpl[schedule.Sun]; !ok || v != false {
		t.Fatalf("template sun = %v", v)
	}
}

func TestNewListingValidation(t *testing.T) {
	base := CreateListingParams{ID: "x", Host: "h", Title: "t", Category: "lot"}

	bad := base
	bad.Category = "boat"
	if _, err := NewListing(bad); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("category error = %v", err)
	}
	bad = base
	bad.Mode = "weekly"
	if _, err := NewListing(bad); !errors.Is(err, ErrInvalidMode) {
		t.Errorf("mode error = %v", err)
	}
	bad = base
	bad.AvailableFrom = time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	bad.AvailableTo = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	if _, err := NewListing(bad); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("window error = %v", err)
	}
}

func TestUpdateAvailability(t *testing.T) {
	l := newTestListing(t)
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := l.UpdateAvailability("someone-else", nil, time.Time{}, time.Time{}, now); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := l.UpdateAvailability("host-1", []any{"monday"}, time.Time{}, time.Time{}, now); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if l.HasTemplate() || l.WeeklyTemplate() != nil {
		t.Fatal("non-mapping weekly input must clear the template")
	}
	from := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	if err := l.UpdateAvailability("host-1", map[string]bool{"friday": true}, from, time.Time{}, now); err != nil {
		t.Fatalf("UpdateAvailability: %v", err)
	}
	if !l.HasWindow() || l.AvailableFrom.Hour() != 0 {
		t.Fatalf("window not stored as a day: %v", l.AvailableFrom)
	}
}

func TestParseDayHours(t *testing.T) {
	tests := []struct {
		raw  any
		want DayHours
		ok   bool
	}{
		{true, DayHours{}, true},
		{false, DayHours{Closed: true}, true},
		{map[string]any{"open": "08:00", "close": "12:00"}, DayHours{Open: "08:00", Close: "12:00"}, true},
		{map[string]any{"closed": true}, DayHours{Closed: true}, true},
		{map[string]any{"open": false}, DayHours{Closed: true}, true},
		{map[string]any{"open": true, "closed": true}, DayHours{Closed: true}, true},
		{map[string]any{"open": false, "closed": false}, DayHours{}, true},
		{map[string]any{"closed": "yes"}, DayHours{}, false},
		{DayHours{Open: "10:00"}, DayHours{Open: "10:00"}, true},
		{"monday", DayHours{}, false},
		{nil, DayHours{}, false},
	}
	for _, tc := range tests {
		// map iteration order varies; repeat to catch order dependence
		for i := 0; i < 20; i++ {
			got, ok := ParseDayHours(tc.raw)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParseDayHours(%#v) = %+v, %v; expected %+v, %v", tc.raw, got, ok, tc.want, tc.ok)
			}
		}
	}
}

func TestDayHoursSlots(t *testing.T) {
	defaults := DayHours{Open: "00:00", Close: "24:00"}
	slots, err := DayHours{Open: "09:00", Close: "12:00"}.Slots(defaults, time.Hour)
	if err != nil {
		t.Fatalf("Slots: %v", err)
	}
	if !reflect.DeepEqual(slots, []string{"09:00", "10:00", "11:00"}) {
		t.Fatalf("Slots = %v", slots)
	}
	all, _ := DayHours{}.Slots(defaults, time.Hour)
	if len(all) != 24 || all[23] != "23:00" {
		t.Fatalf("default day slots = %v", all)
	}
	half, _ := DayHours{Open: "09:00", Close: "10:00"}.Slots(defaults, 30*time.Minute)
	if !reflect.DeepEqual(half, []string{"09:00", "09:30"}) {
		t.Fatalf("30m slots = %v", half)
	}
	closed, _ := DayHours{Closed: true}.Slots(defaults, time.Hour)
	if len(closed) != 0 {
		t.Fatalf("closed day slots = %v", closed)
	}
	if _, err := (DayHours{Open: "25:00"}).Slots(defaults, time.Hour); !errors.Is(err, ErrInvalidClock) {
		t.Fatalf("expected ErrInvalidClock, got %v", err)
	}
}
