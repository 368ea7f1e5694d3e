package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	availabilityapp "vendorbook/internal/app/handlers/availability"
	"vendorbook/internal/app/handlers/support"
	"vendorbook/internal/app/middleware"
	"vendorbook/internal/app/outbox"
	"vendorbook/internal/app/uow"
	domainavailability "vendorbook/internal/domain/availability"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

var ErrListingNotBookable = errors.New("booking: listing is not accepting bookings")

// RequestBookingCommand asks for the slots in HourlyData (or StartDate plus
// TimeSlots) of an hourly listing, or the days StartDate..EndDate of a daily
// one.
type RequestBookingCommand struct {
	CommandID       string
	ListingID       string `json:"listing_id" validate:"required"`
	RequesterID     string `json:"requester_id"`
	HourlyData      string `json:"hourly_data"`
	StartDate       string `json:"start_date"`
	TimeSlots       string `json:"time_slots"`
	EndDate         string `json:"end_date"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string            { return requestBookingKey }
func (c RequestBookingCommand) Actor() string          { return c.RequesterID }
func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c RequestBookingCommand) ResultPrototype() any   { return &dto.Booking{} }

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Calendars  *availabilityapp.CalendarService
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = finish(false)
		}
	}()

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if listing.State != domainlistings.ListingActive {
		return nil, ErrListingNotBookable
	}

	now := h.now().UTC()
	params := domainbooking.CreateParams{
		ID:          domainbooking.BookingID(cmd.CommandID),
		ListingID:   listing.ID,
		RequesterID: cmd.RequesterID,
		CreatedAt:   now,
	}
	if params.ID == "" {
		params.ID = domainbooking.BookingID(uuid.NewString())
	}

	var booking *domainbooking.Booking
	if listing.Hourly() {
		sel := selection.Parse(selection.Request{HourlyData: cmd.HourlyData, StartDate: cmd.StartDate, TimeSlots: cmd.TimeSlots})
		params.Selection = sel
		booking, err = domainbooking.NewHourly(params)
		if err != nil {
			return nil, err
		}
		cal, err := h.calendars().Strict(ctx, unit, listing, booking.Days)
		if err != nil {
			return nil, err
		}
		if conflicts := cal.Conflicts(sel); len(conflicts) > 0 {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrSlotUnavailable, strings.Join(conflicts, ", "))
		}
	} else {
		days, err := dailyRange(cmd.StartDate, cmd.EndDate)
		if err != nil {
			return nil, err
		}
		params.Days = days
		booking, err = domainbooking.NewDaily(params)
		if err != nil {
			return nil, err
		}
		cal, err := h.calendars().Strict(ctx, unit, listing, days)
		if err != nil {
			return nil, err
		}
		if blocked := cal.BlockedDays(); len(blocked) > 0 {
			return nil, fmt.Errorf("%w: %s", domainbooking.ErrSlotUnavailable, strings.Join(blocked, ", "))
		}
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.Drain()); err != nil {
		return nil, err
	}
	if err := finish(true); err != nil {
		return nil, err
	}
	committed = true
	out := dto.MapBooking(booking)
	return &out, nil
}

// dailyRange parses a whole-day request; a blank end means a single day.
func dailyRange(start, end string) (daterange.DateRange, error) {
	if strings.TrimSpace(end) == "" {
		end = start
	}
	return daterange.Parse(start, end)
}

func (h *RequestBookingHandler) calendars() *availabilityapp.CalendarService {
	if h.Calendars != nil {
		return h.Calendars
	}
	return &availabilityapp.CalendarService{Options: domainavailability.DefaultOptions()}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

var (
	_ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                          = RequestBookingCommand{}
	_ middleware.ActorCommand                               = RequestBookingCommand{}
)
