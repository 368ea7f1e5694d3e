package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendorbook/internal/domain/availability"
	"vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
	"vendorbook/internal/domain/shared/events"
)

var (
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrUnknownStatus     = errors.New("booking: unknown status")
	ErrEmptySelection    = errors.New("booking: at least one slot must be selected")
	ErrRequesterRequired = errors.New("booking: requester id required")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrSlotUnavailable   = errors.New("booking: selected time is not available")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDeclined  Status = "declined"
)

// BlockingStatuses are the statuses whose bookings occupy calendar time.
var BlockingStatuses = []Status{StatusPending, StatusApproved, StatusCompleted}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusDeclined, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusCancelled},
}

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusApproved, StatusCompleted, StatusCancelled, StatusDeclined:
		return s, nil
	}
	return "", ErrUnknownStatus
}

// Blocks reports whether a booking in this status occupies its slots.
func (s Status) Blocks() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Booking is the local record of a booking request. Hourly bookings carry a
// Selection; daily bookings carry an inclusive Days span.
type Booking struct {
	ID          BookingID
	ListingID   listings.ListingID
	RequesterID string
	Status      Status
	Selection   selection.Selection
	Days        daterange.DateRange
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ForListing returns bookings of the listing touching the range whose
	// status is one of statuses.
	ForListing(ctx context.Context, id listings.ListingID, dr daterange.DateRange, statuses []Status) ([]*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	ListingID   listings.ListingID
	RequesterID string
	Selection   selection.Selection
	Days        daterange.DateRange
	CreatedAt   time.Time
}

// NewHourly records a pending request for the selected slots.
func NewHourly(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.RequesterID) == "" {
		return nil, ErrRequesterRequired
	}
	if params.Selection.IsEmpty() {
		return nil, ErrEmptySelection
	}
	sel := params.Selection.Clone()
	dates := sel.Dates()
	first, err := daterange.ParseDate(dates[0])
	if err != nil {
		return nil, err
	}
	last, err := daterange.ParseDate(dates[len(dates)-1])
	if err != nil {
		return nil, err
	}
	span, err := daterange.New(first, last)
	if err != nil {
		return nil, err
	}
	return newBooking(params, sel, span), nil
}

// NewDaily records a pending request for whole days.
func NewDaily(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.RequesterID) == "" {
		return nil, ErrRequesterRequired
	}
	if err := params.Days.Validate(); err != nil {
		return nil, err
	}
	return newBooking(params, nil, params.Days), nil
}

func newBooking(params CreateParams, sel selection.Selection, span daterange.DateRange) *Booking {
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		ListingID:   params.ListingID,
		RequesterID: strings.TrimSpace(params.RequesterID),
		Status:      StatusPending,
		Selection:   sel,
		Days:        span,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		ListingID:   b.ListingID,
		RequesterID: b.RequesterID,
		HourlyData:  selection.Encode(sel),
		From:        span.From.Format(daterange.Layout),
		To:          span.To.Format(daterange.Layout),
		TotalSlots:  sel.TotalHours(),
		At:          now,
	})
	return b
}

// Clone returns an independent copy of the booking. Pending events are not
// carried over.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.EventRecorder = events.EventRecorder{}
	if b.Selection != nil {
		c.Selection = b.Selection.Clone()
	}
	return &c
}

// Hourly reports whether the booking claims individual slots.
func (b *Booking) Hourly() bool {
	return len(b.Selection) > 0
}

// Transition moves the booking to next if the lifecycle allows it.
func (b *Booking) Transition(next Status, reason string, now time.Time) error {
	allowed := false
	for _, candidate := range transitions[b.Status] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}
	prev := b.Status
	b.Status = next
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{BookingID: b.ID, ListingID: b.ListingID, From: prev, To: next, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Approve(now time.Time) error { return b.Transition(StatusApproved, "", now) }

func (b *Booking) Decline(reason string, now time.Time) error {
	return b.Transition(StatusDeclined, reason, now)
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	return b.Transition(StatusCancelled, reason, now)
}

func (b *Booking) Complete(now time.Time) error { return b.Transition(StatusCompleted, "", now) }

// Claims lists what the booking occupies on the calendar. Non-blocking
// bookings claim nothing.
func (b *Booking) Claims() []availability.Claim {
	if !b.Status.Blocks() {
		return nil
	}
	if b.Hourly() {
		out := make([]availability.Claim, 0, len(b.Selection))
		for _, date := range b.Selection.Dates() {
			out = append(out, availability.Claim{Date: date, Slots: b.Selection.SlotsFor(date)})
		}
		return out
	}
	keys := b.Days.Keys()
	out := make([]availability.Claim, 0, len(keys))
	for _, date := range keys {
		out = append(out, availability.Claim{Date: date, WholeDay: true})
	}
	return out
}

// ClaimsOf flattens the claims of many bookings.
func ClaimsOf(bookings []*Booking) []availability.Claim {
	var out []availability.Claim
	for _, b := range bookings {
		if b == nil {
			continue
		}
		out = append(out, b.Claims()...)
	}
	return out
}
