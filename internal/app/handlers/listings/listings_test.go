package listings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	availabilityapp "vendorbook/internal/app/handlers/availability"
	"vendorbook/internal/app/outbox"
	"vendorbook/internal/app/policies"
	domainavailability "vendorbook/internal/domain/availability"
	"vendorbook/internal/domain/geo"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/infra/storage/memory"
)

var (
	now    = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	austin = geo.Point{Lat: 30.2672, Lon: -97.7431}
)

type stubGeocoder struct {
	point geo.Point
	err   error
	calls int
}

func (g *stubGeocoder) Geocode(ctx context.Context, query string) (geo.Point, error) {
	g.calls++
	return g.point, g.err
}

func seed(t *testing.T, repo *memory.ListingRepository, id, category string, at geo.Point, active bool) {
	t.Helper()
	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:       domainlistings.ListingID(id),
		Host:     "host-1",
		Title:    id,
		Category: category,
		Address:  domainlistings.Address{Line1: "1 Main", City: "Austin", Country: "US", Lat: at.Lat, Lon: at.Lon},
		Now:      now,
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if active {
		if err := l.Activate(now); err != nil {
			t.Fatalf("Activate: %v", err)
		}
	}
	l.ClearEvents()
	if err := repo.Save(context.Background(), l); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func nearbyFixture(t *testing.T) (*SearchNearbyHandler, *stubGeocoder) {
	t.Helper()
	repo := memory.NewListingRepository()
	seed(t, repo, "b-truck", "truck", austin, true)
	seed(t, repo, "a-trailer", "trailer", austin, true)
	seed(t, repo, "c-kitchen", "kitchen", geo.Point{Lat: austin.Lat + 0.0145, Lon: austin.Lon}, true)
	seed(t, repo, "d-draft", "truck", austin, false)
	seed(t, repo, "e-dallas", "truck", geo.Point{Lat: 32.7767, Lon: -96.797}, true)
	g := &stubGeocoder{point: austin}
	factory := memory.Factory{ListingsRepo: repo, BookingsRepo: memory.NewBookingRepository()}
	return &SearchNearbyHandler{UoWFactory: factory, Geocoder: g}, g
}

func TestSearchNearbyOrdering(t *testing.T) {
	h, g := nearbyFixture(t)
	res, err := h.Handle(context.Background(), SearchNearbyQuery{Lat: austin.Lat, Lon: austin.Lon, HasOrigin: true})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	var got []string
	for _, item := range res.Items {
		got = append(got, item.ID)
	}
	if strings.Join(got, ",") != "a-trailer,b-truck,c-kitchen" {
		t.Fatalf("items = %v", got)
	}
	if res.Total != 3 || res.RadiusMiles != 25 {
		t.Fatalf("total = %d radius = %v", res.Total, res.RadiusMiles)
	}
	if d := res.Items[2].DistanceMiles; d < 0.9 || d > 1.1 {
		t.Fatalf("kitchen distance = %v", d)
	}
	if g.calls != 0 {
		t.Fatalf("coordinates must not be geocoded, calls = %d", g.calls)
	}
}

func TestSearchNearbyFilters(t *testing.T) {
	h, g := nearbyFixture(t)
	ctx := context.Background()

	res, err := h.Handle(ctx, SearchNearbyQuery{Location: "Austin, TX", Category: "truck", RadiusMiles: 300, Limit: 1})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if g.calls != 1 {
		t.Fatalf("geocoder calls = %d", g.calls)
	}
	if res.Total != 2 || len(res.Items) != 1 || res.Items[0].ID != "b-truck" {
		t.Fatalf("result = %+v", res)
	}

	if _, err := h.Handle(ctx, SearchNearbyQuery{Category: "boat", HasOrigin: true}); !errors.Is(err, domainlistings.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := h.Handle(ctx, SearchNearbyQuery{Location: "  "}); !errors.Is(err, ErrOriginRequired) {
		t.Fatalf("expected ErrOriginRequired, got %v", err)
	}
	g.err = policies.ErrLocationNotFound
	if _, err := h.Handle(ctx, SearchNearbyQuery{Location: "Atlantis"}); !errors.Is(err, policies.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestUpdateWeeklyAvailability(t *testing.T) {
	repo := memory.NewListingRepository()
	seed(t, repo, "lst-1", "truck", austin, true)
	box := memory.NewOutbox()
	h := &UpdateWeeklyAvailabilityHandler{
		UoWFactory: memory.Factory{ListingsRepo: repo, BookingsRepo: memory.NewBookingRepository()},
		Outbox:     box,
		Encoder:    outbox.JSONEventEncoder{},
		Clock:      func() time.Time { return now },
	}
	ctx := context.Background()
	weekly := map[string]any{"Tuesday": map[string]any{"open": "08:00", "close": "10:00"}, "someday": true}

	if _, err := h.Handle(ctx, UpdateWeeklyAvailabilityCommand{ListingID: "lst-1", HostID: "intruder", Weekly: weekly}); !errors.Is(err, domainlistings.ErrNotHost) {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if len(box.Records()) != 0 {
		t.Fatalf("rejected update emitted events")
	}

	from := time.Date(2024, 2, 1, 15, 0, 0, 0, time.UTC)
	preview, err := h.Handle(ctx, UpdateWeeklyAvailabilityCommand{ListingID: "lst-1", HostID: "host-1", Weekly: weekly, AvailableFrom: from})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if _, ok := preview.Normalized["tue"]; !ok {
		t.Fatalf("normalized = %v", preview.Normalized)
	}
	if len(preview.Unrecognized) != 1 || preview.Unrecognized[0] != "someday" {
		t.Fatalf("unrecognized = %v", preview.Unrecognized)
	}
	if preview.AvailableFrom != "2024-02-01" || preview.AvailableTo != "" {
		t.Fatalf("window = %q..%q", preview.AvailableFrom, preview.AvailableTo)
	}
	if records := box.Records(); len(records) != 1 || records[0].Message.Name != "listing.availability_updated" {
		t.Fatalf("outbox = %+v", records)
	}

	stored, err := repo.ByID(ctx, "lst-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !stored.HasTemplate() {
		t.Fatal("stored listing lost its template")
	}

	bad := UpdateWeeklyAvailabilityCommand{ListingID: "lst-1", HostID: "host-1", AvailableFrom: from, AvailableTo: from.AddDate(0, 0, -1)}
	if _, err := h.Handle(ctx, bad); !errors.Is(err, domainlistings.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestGetListing(t *testing.T) {
	repo := memory.NewListingRepository()
	seed(t, repo, "lst-1", "kitchen", austin, true)
	h := &GetListingHandler{UoWFactory: memory.Factory{ListingsRepo: repo, BookingsRepo: memory.NewBookingRepository()}}
	got, err := h.Handle(context.Background(), GetListingQuery{ListingID: "lst-1"})
	if err != nil || got.ID != "lst-1" {
		t.Fatalf("Handle = %+v, %v", got, err)
	}
	if _, err := h.Handle(context.Background(), GetListingQuery{ListingID: "missing"}); !errors.Is(err, domainlistings.ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound, got %v", err)
	}
}

func TestConcurrentEditsAndReads(t *testing.T) {
	repo := memory.NewListingRepository()
	seed(t, repo, "lst-1", "truck", austin, true)
	factory := memory.Factory{ListingsRepo: repo, BookingsRepo: memory.NewBookingRepository()}
	update := &UpdateWeeklyAvailabilityHandler{
		UoWFactory: factory,
		Outbox:     memory.NewOutbox(),
		Encoder:    outbox.JSONEventEncoder{},
		Clock:      func() time.Time { return now },
	}
	read := &availabilityapp.GetAvailabilityHandler{
		UoWFactory: factory,
		Calendars:  &availabilityapp.CalendarService{Options: domainavailability.DefaultOptions()},
		Clock:      func() time.Time { return now },
	}
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			weekly := map[string]any{"monday": map[string]any{"open": "09:00", "close": "12:00"}}
			if i%2 == 0 {
				weekly["tuesday"] = true
			}
			if _, err := update.Handle(ctx, UpdateWeeklyAvailabilityCommand{ListingID: "lst-1", HostID: "host-1", Weekly: weekly}); err != nil {
				errs <- err
			}
		}(i)
		go func() {
			defer wg.Done()
			if _, err := read.Handle(ctx, availabilityapp.GetAvailabilityQuery{ListingID: "lst-1", From: from, To: from.AddDate(0, 0, 6)}); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}
}
