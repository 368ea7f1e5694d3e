package booking

import (
	"errors"
	"testing"
	"time"

	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

var now = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func hourly(t *testing.T) *Booking {
	t.Helper()
	b, err := NewHourly(CreateParams{
		ID:          "bk-1",
		ListingID:   "lst-1",
		RequesterID: "shopper-1",
		Selection:   selection.Parse(selection.Request{HourlyData: "2024-01-05:09:00,08:00|2024-01-03:10:00"}),
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("NewHourly: %v", err)
	}
	return b
}

func TestNewHourlyRecordsRequest(t *testing.T) {
	b := hourly(t)
	if b.Status != StatusPending {
		t.Fatalf("status = %s", b.Status)
	}
	if daterange.Key(b.Days.From) != "2024-01-03" || daterange.Key(b.Days.To) != "2024-01-05" {
		t.Fatalf("span = %v..%v", b.Days.From, b.Days.To)
	}
	evs := b.PendingEvents()
	if len(evs) != 1 {
		t.Fatalf("events = %v", evs)
	}
	req, ok := evs[0].(BookingRequested)
	if !ok {
		t.Fatalf("unexpected event %T", evs[0])
	}
	if req.HourlyData != "2024-01-03:10:00|2024-01-05:08:00,09:00" || req.TotalSlots != 3 {
		t.Fatalf("requested event = %+v", req)
	}
}

func TestNewBookingValidation(t *testing.T) {
	if _, err := NewHourly(CreateParams{RequesterID: "x"}); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("empty selection error = %v", err)
	}
	if _, err := NewHourly(CreateParams{Selection: selection.Selection{"2024-01-01": {"09:00"}}}); !errors.Is(err, ErrRequesterRequired) {
		t.Errorf("requester error = %v", err)
	}
	if _, err := NewHourly(CreateParams{RequesterID: "x", Selection: selection.Selection{"not-a-date": {"09:00"}}}); !errors.Is(err, daterange.ErrInvalidDate) {
		t.Errorf("bad date error = %v", err)
	}
	if _, err := NewDaily(CreateParams{RequesterID: "x"}); !errors.Is(err, daterange.ErrInvalidRange) {
		t.Errorf("daily without range error = %v", err)
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		name  string
		steps []Status
		ok    bool
	}{
		{"approve then complete", []Status{StatusApproved, StatusCompleted}, true},
		{"decline", []Status{StatusDeclined}, true},
		{"cancel approved", []Status{StatusApproved, StatusCancelled}, true},
		{"complete pending", []Status{StatusCompleted}, false},
		{"approve declined", []Status{StatusDeclined, StatusApproved}, false},
		{"back to pending", []Status{StatusApproved, StatusPending}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := hourly(t)
			var err error
			for _, step := range tc.steps {
				if err = b.Transition(step, "", now); err != nil {
					break
				}
			}
			if tc.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
		})
	}
}

func TestStatusChangedEventName(t *testing.T) {
	b := hourly(t)
	b.ClearEvents()
	if err := b.Approve(now); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	evs := b.PendingEvents()
	if len(evs) != 1 || evs[0].EventName() != "booking.approved" {
		t.Fatalf("events = %v", evs)
	}
}

func TestClaims(t *testing.T) {
	b := hourly(t)
	claims := b.Claims()
	if len(claims) != 2 || claims[0].Date != "2024-01-03" || len(claims[1].Slots) != 2 {
		t.Fatalf("hourly claims = %+v", claims)
	}

	if err := b.Cancel("changed plans", now); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got := b.Claims(); len(got) != 0 {
		t.Fatalf("cancelled booking must not claim, got %+v", got)
	}

	days, _ := daterange.Parse("2024-01-10", "2024-01-12")
	daily, err := NewDaily(CreateParams{ID: "bk-2", ListingID: "lst-2", RequesterID: "s", Days: days, CreatedAt: now})
	if err != nil {
		t.Fatalf("NewDaily: %v", err)
	}
	claims = ClaimsOf([]*Booking{daily, nil, b})
	if len(claims) != 3 || !claims[0].WholeDay || claims[2].Date != "2024-01-12" {
		t.Fatalf("daily claims = %+v", claims)
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := ParseStatus(" Approved "); err != nil || s != StatusApproved {
		t.Fatalf("ParseStatus = %s, %v", s, err)
	}
	if _, err := ParseStatus("lost"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
	for _, s := range []Status{StatusCancelled, StatusDeclined} {
		if s.Blocks() {
			t.Errorf("%s must not block", s)
		}
	}
}
