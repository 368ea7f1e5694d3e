package inbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	bookingapp "vendorbook/internal/app/handlers/booking"
	domainbooking "vendorbook/internal/domain/booking"
)

// Deduper is the inbox port used by the projector.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

var ErrMalformedEvent = errors.New("inbox: malformed booking status event")

// cloudEvent is the subset of a CloudEvents JSON envelope the projector reads.
type cloudEvent struct {
	ID   string            `json:"id"`
	Type string            `json:"type"`
	Data statusUpdateEvent `json:"data"`
}

type statusUpdateEvent struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

// BookingStatusProjector applies booking status decisions published by the
// booking subsystem to the local booking records.
type BookingStatusProjector struct {
	Inbox    Deduper
	Commands commands.Bus
	Logger   *slog.Logger
}

func (p *BookingStatusProjector) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	evt, err := decodeStatusEvent(msg.Value)
	if err != nil {
		p.warn(ctx, "dropping booking status event", msg, err)
		return nil
	}
	seen, err := p.Inbox.Seen(ctx, evt.ID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}
	cmd := bookingapp.UpdateBookingStatusCommand{BookingID: evt.Data.BookingID, Status: evt.Data.Status, Reason: evt.Data.Reason}
	_, err = commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *dto.Booking](ctx, p.Commands, cmd)
	if err == nil {
		return nil
	}
	if permanent(err) {
		p.warn(ctx, "booking status event rejected", msg, err)
		return nil
	}
	if forgetErr := p.Inbox.Forget(ctx, evt.ID); forgetErr != nil {
		return errors.Join(err, forgetErr)
	}
	return err
}

func decodeStatusEvent(raw []byte) (cloudEvent, error) {
	var evt cloudEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return cloudEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if strings.TrimSpace(evt.ID) == "" || strings.TrimSpace(evt.Data.BookingID) == "" || strings.TrimSpace(evt.Data.Status) == "" {
		return cloudEvent{}, ErrMalformedEvent
	}
	return evt, nil
}

// permanent errors will fail the same way on redelivery.
func permanent(err error) bool {
	return errors.Is(err, domainbooking.ErrInvalidTransition) ||
		errors.Is(err, domainbooking.ErrUnknownStatus) ||
		errors.Is(err, domainbooking.ErrBookingNotFound)
}

func (p *BookingStatusProjector) warn(ctx context.Context, msg string, m *sarama.ConsumerMessage, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.WarnContext(ctx, msg, "topic", m.Topic, "offset", m.Offset, "error", err)
}
