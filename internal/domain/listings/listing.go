package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"vendorbook/internal/domain/geo"
	"vendorbook/internal/domain/schedule"
	"vendorbook/internal/domain/shared/events"
)

var (
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrInvalidCategory = errors.New("listings: unknown category")
	ErrInvalidMode     = errors.New("listings: unknown booking mode")
	ErrInvalidRate     = errors.New("listings: rates must be non-negative")
	ErrInvalidWindow   = errors.New("listings: available_to must not be before available_from")
	ErrInvalidState    = errors.New("listings: invalid state transition")
	ErrAddressRequired = errors.New("listings: address must be provided when activating")
	ErrNotHost         = errors.New("listings: caller is not the listing host")
	ErrListingNotFound = errors.New("listings: not found")
)

type ListingID string
type HostID string

type ListingState string

const (
	ListingDraft     ListingState = "DRAFT"
	ListingActive    ListingState = "ACTIVE"
	ListingSuspended ListingState = "SUSPENDED"
)

// Category is the kind of equipment or space being offered.
type Category string

const (
	CategoryTruck   Category = "truck"
	CategoryTrailer Category = "trailer"
	CategoryKitchen Category = "kitchen"
	CategoryLot     Category = "lot"
)

// BookingMode tells whether a listing is booked by hourly slots or whole days.
type BookingMode string

const (
	ModeHourly BookingMode = "hourly"
	ModeDaily  BookingMode = "daily"
)

func ParseCategory(raw string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryTruck, CategoryTrailer, CategoryKitchen, CategoryLot:
		return c, nil
	}
	return "", ErrInvalidCategory
}

func ParseMode(raw string) (BookingMode, error) {
	switch m := BookingMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeHourly, ModeDaily:
		return m, nil
	case "":
		return ModeHourly, nil
	}
	return "", ErrInvalidMode
}

type Address struct {
	Line1   string
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != "" && strings.TrimSpace(a.Country) != ""
}

// Listing is a bookable asset. WeeklyAvailability is kept exactly as the host
// authored it; read it through WeeklyTemplate.
type Listing struct {
	ID              ListingID
	Host            HostID
	Title           string
	Description     string
	Category        Category
	Address         Address
	Mode            BookingMode
	HourlyRateCents int64
	DailyRateCents  int64

	WeeklyAvailability map[string]any
	AvailableFrom      time.Time
	AvailableTo        time.Time

	State     ListingState
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Nearby(ctx context.Context, params NearbyParams) ([]*Listing, error)
}

type CreateListingParams struct {
	ID                 ListingID
	Host               HostID
	Title              string
	Description        string
	Category           string
	Address            Address
	Mode               string
	HourlyRateCents    int64
	DailyRateCents     int64
	WeeklyAvailability any
	AvailableFrom      time.Time
	AvailableTo        time.Time
	Now                time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("listings: id is required")
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, errors.New("listings: host is required")
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	category, err := ParseCategory(params.Category)
	if err != nil {
		return nil, err
	}
	mode, err := ParseMode(params.Mode)
	if err != nil {
		return nil, err
	}
	if params.HourlyRateCents < 0 || params.DailyRateCents < 0 {
		return nil, ErrInvalidRate
	}
	if err := validateWindow(params.AvailableFrom, params.AvailableTo); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	listing := &Listing{
		ID:                 params.ID,
		Host:               params.Host,
		Title:              strings.TrimSpace(params.Title),
		Description:        strings.TrimSpace(params.Description),
		Category:           category,
		Address:            params.Address,
		Mode:               mode,
		HourlyRateCents:    params.HourlyRateCents,
		DailyRateCents:     params.DailyRateCents,
		WeeklyAvailability: RawWeekly(params.WeeklyAvailability),
		AvailableFrom:      dayOrZero(params.AvailableFrom),
		AvailableTo:        dayOrZero(params.AvailableTo),
		State:              ListingDraft,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, HostID: listing.Host, At: now})
	return listing, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingActive {
		return nil
	}
	if !l.Address.Valid() {
		return ErrAddressRequired
	}
	l.State = ListingActive
	l.UpdatedAt = now.UTC()
	l.Record(ListingActivatedEvent{ListingID: l.ID, HostID: l.Host, At: l.UpdatedAt})
	return nil
}

func (l *Listing) Suspend(reason string, now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSuspended
	l.UpdatedAt = now.UTC()
	l.Record(ListingSuspendedEvent{ListingID: l.ID, Reason: reason, At: l.UpdatedAt})
	return nil
}

// UpdateAvailability replaces the weekly record and the booking window. A
// weekly value that is not a string-keyed mapping clears the template.
func (l *Listing) UpdateAvailability(host HostID, weekly any, from, to time.Time, now time.Time) error {
	if host != l.Host {
		return ErrNotHost
	}
	if err := validateWindow(from, to); err != nil {
		return err
	}
	l.WeeklyAvailability = RawWeekly(weekly)
	l.AvailableFrom = dayOrZero(from)
	l.AvailableTo = dayOrZero(to)
	l.UpdatedAt = now.UTC()
	l.Record(AvailabilityUpdatedEvent{ListingID: l.ID, At: l.UpdatedAt})
	return nil
}

// WeeklyTemplate normalizes the stored weekly record.
func (l *Listing) WeeklyTemplate() schedule.Template[any] {
	return schedule.NormalizeAny(l.WeeklyAvailability)
}

// HasTemplate reports whether the host authored any weekly rule.
func (l *Listing) HasTemplate() bool {
	return len(l.WeeklyAvailability) > 0
}

// HasWindow reports whether either window bound is set.
func (l *Listing) HasWindow() bool {
	return !l.AvailableFrom.IsZero() || !l.AvailableTo.IsZero()
}

func (l *Listing) Location() geo.Point {
	return geo.Point{Lat: l.Address.Lat, Lon: l.Address.Lon}
}

func (l *Listing) Hourly() bool {
	return l.Mode != ModeDaily
}

// RawWeekly keeps host input as authored when it is a string-keyed mapping.
func RawWeekly(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		if v == nil {
			return nil
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = copyValue(val)
		}
		return out
	case map[string]DayHours:
		if v == nil {
			return nil
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	case map[string]bool:
		if v == nil {
			return nil
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	}
	return nil
}

// copyValue deep-copies the JSON-shaped containers a weekly record may hold.
func copyValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, val := range typed {
			out[k] = copyValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = copyValue(val)
		}
		return out
	case *DayHours:
		if typed == nil {
			return typed
		}
		c := *typed
		return &c
	}
	return v
}

// Clone returns an independent copy of the listing. Pending events are not
// carried over.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.EventRecorder = events.EventRecorder{}
	c.WeeklyAvailability = RawWeekly(l.WeeklyAvailability)
	return &c
}

func validateWindow(from, to time.Time) error {
	if !from.IsZero() && !to.IsZero() && dayOrZero(to).Before(dayOrZero(from)) {
		return ErrInvalidWindow
	}
	return nil
}

func dayOrZero(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
