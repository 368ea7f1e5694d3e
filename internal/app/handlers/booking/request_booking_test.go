package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendorbook/internal/app/outbox"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/infra/storage/memory"
)

var now = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) // a Monday

type fixture struct {
	listings *memory.ListingRepository
	bookings *memory.BookingRepository
	box      *memory.Outbox
	request  *RequestBookingHandler
	status   *UpdateBookingStatusHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		listings: memory.NewListingRepository(),
		bookings: memory.NewBookingRepository(),
		box:      memory.NewOutbox(),
	}
	factory := memory.Factory{ListingsRepo: f.listings, BookingsRepo: f.bookings}
	clock := func() time.Time { return now }
	f.request = &RequestBookingHandler{UoWFactory: factory, Outbox: f.box, Encoder: outbox.JSONEventEncoder{}, Clock: clock}
	f.status = &UpdateBookingStatusHandler{UoWFactory: factory, Outbox: f.box, Encoder: outbox.JSONEventEncoder{}, Clock: clock}

	f.addListing(t, "hourly", "hourly", true, map[string]any{"monday": map[string]any{"open": "09:00", "close": "12:00"}})
	f.addListing(t, "daily", "daily", true, map[string]any{"mon": true, "tue": true, "wed": true})
	f.addListing(t, "draft", "hourly", false, nil)
	return f
}

func (f *fixture) addListing(t *testing.T, id, mode string, active bool, weekly map[string]any) {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:                 domainlistings.ListingID(id),
		Host:               "host-1",
		Title:              id,
		Category:           "trailer",
		Mode:               mode,
		Address:            domainlistings.Address{Line1: "1 Main", City: "Austin", Country: "US"},
		WeeklyAvailability: weekly,
		Now:                now,
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if active {
		if err := l.Activate(now); err != nil {
			t.Fatalf("Activate: %v", err)
		}
	}
	if err := f.listings.Save(context.Background(), l); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestRequestHourlyBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.request.Handle(ctx, RequestBookingCommand{CommandID: "bk-1", ListingID: "hourly", RequesterID: "u-1", HourlyData: "2024-01-01:10:00,09:00"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got.ID != "bk-1" || got.HourlyData != "2024-01-01:09:00,10:00" || got.TotalSlots != 2 {
		t.Fatalf("booking = %+v", got)
	}
	if records := f.box.Records(); len(records) != 1 || records[0].Message.Name != "booking.requested" {
		t.Fatalf("outbox = %+v", records)
	}

	_, err = f.request.Handle(ctx, RequestBookingCommand{ListingID: "hourly", RequesterID: "u-2", StartDate: "2024-01-01", TimeSlots: "10:00,11:00"})
	if !errors.Is(err, domainbooking.ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
	if err.Error() != "booking: selected time is not available: 2024-01-01 10:00" {
		t.Fatalf("conflict detail = %q", err.Error())
	}

	second, err := f.request.Handle(ctx, RequestBookingCommand{ListingID: "hourly", RequesterID: "u-2", StartDate: "2024-01-01", TimeSlots: "11:00"})
	if err != nil {
		t.Fatalf("free slot: %v", err)
	}
	if second.ID == "" {
		t.Fatal("generated booking id missing")
	}
}

func TestRequestBookingRejections(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		cmd  RequestBookingCommand
		want error
	}{
		{"not active", RequestBookingCommand{ListingID: "draft", RequesterID: "u", HourlyData: "2024-01-01:09:00"}, ErrListingNotBookable},
		{"unknown listing", RequestBookingCommand{ListingID: "nope", RequesterID: "u"}, domainlistings.ErrListingNotFound},
		{"empty selection", RequestBookingCommand{ListingID: "hourly", RequesterID: "u", HourlyData: "garbage"}, domainbooking.ErrEmptySelection},
		{"closed weekday", RequestBookingCommand{ListingID: "hourly", RequesterID: "u", HourlyData: "2024-01-02:09:00"}, domainbooking.ErrSlotUnavailable},
		{"outside hours", RequestBookingCommand{ListingID: "hourly", RequesterID: "u", HourlyData: "2024-01-01:13:00"}, domainbooking.ErrSlotUnavailable},
		{"daily without start", RequestBookingCommand{ListingID: "daily", RequesterID: "u"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.request.Handle(context.Background(), tc.cmd)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if len(f.box.Records()) != 0 {
		t.Fatalf("rejected requests must not emit events: %+v", f.box.Records())
	}
}

func TestRequestDailyBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	got, err := f.request.Handle(ctx, RequestBookingCommand{ListingID: "daily", RequesterID: "u", StartDate: "2024-01-01", EndDate: "2024-01-02"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got.From != "2024-01-01" || got.To != "2024-01-02" || got.HourlyData != "" {
		t.Fatalf("booking = %+v", got)
	}
	if _, err := f.request.Handle(ctx, RequestBookingCommand{ListingID: "daily", RequesterID: "v", StartDate: "2024-01-02"}); !errors.Is(err, domainbooking.ErrSlotUnavailable) {
		t.Fatalf("overlapping day: %v", err)
	}
	if _, err := f.request.Handle(ctx, RequestBookingCommand{ListingID: "daily", RequesterID: "v", StartDate: "2024-01-03", EndDate: "2024-01-04"}); !errors.Is(err, domainbooking.ErrSlotUnavailable) {
		t.Fatalf("thursday is not in the template: %v", err)
	}
}

func TestUpdateStatusFreesSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cmd := RequestBookingCommand{CommandID: "bk-1", ListingID: "hourly", RequesterID: "u", HourlyData: "2024-01-01:09:00"}
	if _, err := f.request.Handle(ctx, cmd); err != nil {
		t.Fatalf("request: %v", err)
	}

	got, err := f.status.Handle(ctx, UpdateBookingStatusCommand{BookingID: "bk-1", Status: "declined", Reason: "maintenance"})
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if got.Status != "declined" {
		t.Fatalf("status = %s", got.Status)
	}
	if _, err := f.status.Handle(ctx, UpdateBookingStatusCommand{BookingID: "bk-1", Status: "approved"}); !errors.Is(err, domainbooking.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.status.Handle(ctx, UpdateBookingStatusCommand{BookingID: "bk-1", Status: "maybe"}); !errors.Is(err, domainbooking.ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}

	cmd.CommandID = "bk-2"
	if _, err := f.request.Handle(ctx, cmd); err != nil {
		t.Fatalf("declined booking should free its slot: %v", err)
	}
	names := []string{}
	for _, rec := range f.box.Records() {
		names = append(names, rec.Message.Name)
	}
	if len(names) != 3 || names[1] != "booking.declined" {
		t.Fatalf("events = %v", names)
	}
}

func TestHostStatusRequiresListingHost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.request.Handle(ctx, RequestBookingCommand{CommandID: "bk-1", ListingID: "hourly", RequesterID: "u", HourlyData: "2024-01-01:09:00"}); err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err := f.status.HandleHost(ctx, HostBookingStatusCommand{BookingID: "bk-1", HostID: "host-2", Status: "cancelled"})
	if !errors.Is(err, domainlistings.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	stored, err := f.bookings.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Status != domainbooking.StatusPending {
		t.Fatalf("foreign host changed the booking to %s", stored.Status)
	}

	got, err := f.status.HandleHost(ctx, HostBookingStatusCommand{BookingID: "bk-1", HostID: "host-1", Status: "approved"})
	if err != nil {
		t.Fatalf("HandleHost: %v", err)
	}
	if got.Status != "approved" {
		t.Fatalf("status = %s", got.Status)
	}
}
