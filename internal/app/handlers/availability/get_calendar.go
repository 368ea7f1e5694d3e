package availability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vendorbook/internal/app/dto"
	"vendorbook/internal/app/handlers/support"
	"vendorbook/internal/app/queries"
	"vendorbook/internal/app/uow"
	domainavailability "vendorbook/internal/domain/availability"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/shared/daterange"
)

const getAvailabilityKey = "availability.calendar"

// DefaultWindowDays is the span shown when the caller gives no end date.
const DefaultWindowDays = 30

type GetAvailabilityQuery struct {
	ListingID string `json:"listing_id" validate:"required"`
	From      time.Time
	To        time.Time
}

func (q GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type GetAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Calendars  *CalendarService
	Clock      func() time.Time
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, q GetAvailabilityQuery) (dto.AvailabilityCalendar, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	dr, err := DefaultRange(q.From, q.To, h.now())
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	cal, warning, err := h.calendars().Resolve(ctx, unit, listing, dr)
	if err != nil {
		return dto.AvailabilityCalendar{}, err
	}
	out := dto.MapAvailabilityCalendar(string(listing.ID), string(listing.Mode), cal)
	out.Warning = warning
	return out, nil
}

func (h *GetAvailabilityHandler) calendars() *CalendarService {
	if h.Calendars != nil {
		return h.Calendars
	}
	return &CalendarService{Options: domainavailability.DefaultOptions()}
}

func (h *GetAvailabilityHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// DefaultRange fills a zero from with today and a zero to with from plus
// DefaultWindowDays.
func DefaultRange(from, to, now time.Time) (daterange.DateRange, error) {
	if from.IsZero() {
		from = now
	}
	if to.IsZero() {
		to = daterange.Day(from).AddDate(0, 0, DefaultWindowDays)
	}
	return daterange.New(from, to)
}

// CalendarService resolves listing calendars from the repositories of a unit.
type CalendarService struct {
	Options domainavailability.Options
	Logger  *slog.Logger
}

// Resolve builds the calendar of listing over dr. When bookings cannot be
// read the template-only view is returned with a warning instead of an error.
func (s *CalendarService) Resolve(ctx context.Context, unit uow.UnitOfWork, listing *domainlistings.Listing, dr daterange.DateRange) (domainavailability.Calendar, string, error) {
	if err := domainavailability.CheckRange(dr, s.Options); err != nil {
		return domainavailability.Calendar{}, "", err
	}
	rules := domainavailability.RulesFor(listing)
	bookings, err := unit.Bookings().ForListing(ctx, listing.ID, dr, domainbooking.BlockingStatuses)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WarnContext(ctx, "bookings unavailable, serving template-only calendar", "listing_id", listing.ID, "error", err)
		}
		warning := fmt.Sprintf("bookings unavailable, showing weekly availability only: %v", err)
		return domainavailability.Resolve(rules, dr, nil, s.Options), warning, nil
	}
	return domainavailability.Resolve(rules, dr, domainbooking.ClaimsOf(bookings), s.Options), "", nil
}

// Strict resolves like Resolve but fails when bookings cannot be read.
func (s *CalendarService) Strict(ctx context.Context, unit uow.UnitOfWork, listing *domainlistings.Listing, dr daterange.DateRange) (domainavailability.Calendar, error) {
	if err := domainavailability.CheckRange(dr, s.Options); err != nil {
		return domainavailability.Calendar{}, err
	}
	bookings, err := unit.Bookings().ForListing(ctx, listing.ID, dr, domainbooking.BlockingStatuses)
	if err != nil {
		return domainavailability.Calendar{}, fmt.Errorf("availability: load bookings: %w", err)
	}
	return domainavailability.Resolve(domainavailability.RulesFor(listing), dr, domainbooking.ClaimsOf(bookings), s.Options), nil
}

var _ queries.Handler[GetAvailabilityQuery, dto.AvailabilityCalendar] = (*GetAvailabilityHandler)(nil)
