package booking

import (
	"context"
	"time"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	"vendorbook/internal/app/handlers/support"
	"vendorbook/internal/app/middleware"
	"vendorbook/internal/app/outbox"
	"vendorbook/internal/app/uow"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
)

const (
	updateBookingStatusKey = "booking.update_status"
	hostBookingStatusKey   = "booking.host_update_status"
)

// UpdateBookingStatusCommand applies a lifecycle transition decided by the
// booking subsystem. It is only dispatched from the trusted status consumer.
type UpdateBookingStatusCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Reason    string `json:"reason"`
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }

// HostBookingStatusCommand is the same transition requested by a host over
// HTTP. Only the host of the booked listing may apply it.
type HostBookingStatusCommand struct {
	BookingID string `json:"booking_id" validate:"required"`
	HostID    string `json:"host_id"`
	Status    string `json:"status" validate:"required"`
	Reason    string `json:"reason"`
}

func (c HostBookingStatusCommand) Key() string   { return hostBookingStatusKey }
func (c HostBookingStatusCommand) Actor() string { return c.HostID }

type UpdateBookingStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.Status, cmd.Reason, "")
}

func (h *UpdateBookingStatusHandler) HandleHost(ctx context.Context, cmd HostBookingStatusCommand) (*dto.Booking, error) {
	return h.apply(ctx, cmd.BookingID, cmd.Status, cmd.Reason, domainlistings.HostID(cmd.HostID))
}

// apply loads the booking and transitions it. A non-empty host must own the
// booked listing.
func (h *UpdateBookingStatusHandler) apply(ctx context.Context, bookingID, rawStatus, reason string, host domainlistings.HostID) (*dto.Booking, error) {
	status, err := domainbooking.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
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

	booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	if host != "" {
		listing, err := unit.Listings().ByID(ctx, booking.ListingID)
		if err != nil {
			return nil, err
		}
		if listing.Host != host {
			return nil, domainlistings.ErrNotHost
		}
	}
	now := time.Now()
	if h.Clock != nil {
		now = h.Clock()
	}
	if err := booking.Transition(status, reason, now); err != nil {
		return nil, err
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

// Register attaches the trusted and the host-scoped status commands to bus.
func (h *UpdateBookingStatusHandler) Register(bus *commands.InMemoryBus) {
	commands.RegisterHandler[UpdateBookingStatusCommand, *dto.Booking](bus, updateBookingStatusKey, h)
	commands.RegisterHandler[HostBookingStatusCommand, *dto.Booking](bus, hostBookingStatusKey, commands.HandlerFunc[HostBookingStatusCommand, *dto.Booking](h.HandleHost))
}

var (
	_ commands.Handler[UpdateBookingStatusCommand, *dto.Booking] = (*UpdateBookingStatusHandler)(nil)
	_ middleware.ActorCommand                                    = HostBookingStatusCommand{}
)
