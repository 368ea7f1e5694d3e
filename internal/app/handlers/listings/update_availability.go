package listings

import (
	"context"
	"time"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	"vendorbook/internal/app/handlers/support"
	"vendorbook/internal/app/middleware"
	"vendorbook/internal/app/outbox"
	"vendorbook/internal/app/uow"
	domainlistings "vendorbook/internal/domain/listings"
)

const updateWeeklyAvailabilityKey = "listings.update_weekly_availability"

// UpdateWeeklyAvailabilityCommand replaces a listing's weekly record and
// booking window. Weekly is stored as authored.
type UpdateWeeklyAvailabilityCommand struct {
	ListingID     string `json:"listing_id" validate:"required"`
	HostID        string `json:"host_id"`
	Weekly        any
	AvailableFrom time.Time
	AvailableTo   time.Time
}

func (c UpdateWeeklyAvailabilityCommand) Key() string   { return updateWeeklyAvailabilityKey }
func (c UpdateWeeklyAvailabilityCommand) Actor() string { return c.HostID }

type UpdateWeeklyAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *UpdateWeeklyAvailabilityHandler) Handle(ctx context.Context, cmd UpdateWeeklyAvailabilityCommand) (*dto.WeeklyAvailabilityPreview, error) {
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
	now := time.Now()
	if h.Clock != nil {
		now = h.Clock()
	}
	if err := listing.UpdateAvailability(domainlistings.HostID(cmd.HostID), cmd.Weekly, cmd.AvailableFrom, cmd.AvailableTo, now); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing.Drain()); err != nil {
		return nil, err
	}
	if err := finish(true); err != nil {
		return nil, err
	}
	committed = true

	tmpl := listing.WeeklyTemplate()
	preview := &dto.WeeklyAvailabilityPreview{
		ListingID:     string(listing.ID),
		Normalized:    dto.TemplateMap(listing),
		AvailableFrom: dateOrEmpty(listing.AvailableFrom),
		AvailableTo:   dateOrEmpty(listing.AvailableTo),
		UpdatedAt:     listing.UpdatedAt.Format(time.RFC3339),
	}
	for _, key := range tmpl.Unrecognized() {
		preview.Unrecognized = append(preview.Unrecognized, string(key))
	}
	return preview, nil
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

var (
	_ commands.Handler[UpdateWeeklyAvailabilityCommand, *dto.WeeklyAvailabilityPreview] = (*UpdateWeeklyAvailabilityHandler)(nil)
	_ middleware.ActorCommand                                                            = UpdateWeeklyAvailabilityCommand{}
)
