package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	availabilityapp "vendorbook/internal/app/handlers/availability"
	bookingapp "vendorbook/internal/app/handlers/booking"
	listingsapp "vendorbook/internal/app/handlers/listings"
	selectionapp "vendorbook/internal/app/handlers/selection"
	"vendorbook/internal/app/middleware"
	"vendorbook/internal/app/outbox"
	"vendorbook/internal/app/queries"
	domainavailability "vendorbook/internal/domain/availability"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/infra/obs"
	"vendorbook/internal/infra/storage/memory"
)

var testNow = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) // a Monday

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	listingsRepo := memory.NewListingRepository()
	bookingsRepo := memory.NewBookingRepository()
	box := memory.NewOutbox()
	factory := memory.Factory{ListingsRepo: listingsRepo, BookingsRepo: bookingsRepo}
	clock := func() time.Time { return testNow }
	calendars := &availabilityapp.CalendarService{Options: domainavailability.DefaultOptions()}

	l, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:       "lst-1",
		Host:     "host-1",
		Title:    "Taco truck",
		Category: "truck",
		Address:  domainlistings.Address{Line1: "1 Main St", City: "Austin", Country: "US", Lat: 30.2672, Lon: -97.7431},
		WeeklyAvailability: map[string]any{
			"monday": map[string]any{"open": "09:00", "close": "12:00"},
		},
		Now: testNow,
	})
	if err != nil {
		t.Fatalf("NewListing: %v", err)
	}
	if err := l.Activate(testNow); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := listingsRepo.Save(ctx, l); err != nil {
		t.Fatalf("Save: %v", err)
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: factory, Calendars: calendars, Outbox: box, Encoder: outbox.JSONEventEncoder{}, Clock: clock,
	})
	(&bookingapp.UpdateBookingStatusHandler{
		UoWFactory: factory, Outbox: box, Encoder: outbox.JSONEventEncoder{}, Clock: clock,
	}).Register(commandBus)
	commands.RegisterHandler(commandBus, listingsapp.UpdateWeeklyAvailabilityCommand{}.Key(), &listingsapp.UpdateWeeklyAvailabilityHandler{
		UoWFactory: factory, Outbox: box, Encoder: outbox.JSONEventEncoder{}, Clock: clock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.GetAvailabilityQuery{}.Key(), &availabilityapp.GetAvailabilityHandler{
		UoWFactory: factory, Calendars: calendars, Clock: clock,
	})
	queries.RegisterHandler(queryBus, listingsapp.GetListingQuery{}.Key(), &listingsapp.GetListingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingsapp.SearchNearbyQuery{}.Key(), &listingsapp.SearchNearbyHandler{UoWFactory: factory})
	(&selectionapp.Handler{SlotDuration: time.Hour}).Register(queryBus)

	validator := middleware.NewStructValidator()
	cmds := middleware.ChainCommands(commandBus,
		middleware.Validation(validator),
		middleware.Authorization(middleware.ActorRequired{}),
		middleware.Idempotency(memory.NewIdempotencyStore(), nil, time.Hour),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box, nil),
	)
	qs := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	return NewRouter(obs.Middleware{}, obs.HealthHandlers{}, nil, Handlers{
		Availability: AvailabilityHandler{Queries: qs},
		Listing:      ListingHandler{Queries: qs, Commands: cmds},
		Selection:    SelectionHandler{Queries: qs},
		Booking:      BookingHandler{Commands: cmds},
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func TestAvailabilityEndpoint(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"range", "/api/v1/listings/lst-1/availability?from=2024-01-01&to=2024-01-02", http.StatusOK},
		{"default range", "/api/v1/listings/lst-1/availability", http.StatusOK},
		{"bad date", "/api/v1/listings/lst-1/availability?from=January", http.StatusBadRequest},
		{"inverted", "/api/v1/listings/lst-1/availability?from=2024-01-05&to=2024-01-01", http.StatusBadRequest},
		{"unknown listing", "/api/v1/listings/missing/availability", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, r, http.MethodGet, tc.path, nil, nil)
			if rec.Code != tc.status {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
		})
	}

	rec := do(t, r, http.MethodGet, "/api/v1/listings/lst-1/availability?from=2024-01-01&to=2024-01-02", nil, nil)
	cal := decode[dto.AvailabilityCalendar](t, rec)
	if cal.States["2024-01-01"] != "open" || cal.States["2024-01-02"] != "unavailable" {
		t.Fatalf("states = %v", cal.States)
	}
}

func TestBookingFlow(t *testing.T) {
	r := newTestRouter(t)
	body := map[string]string{"listing_id": "lst-1", "hourly_data": "2024-01-01:09:00,10:00"}

	if rec := do(t, r, http.MethodPost, "/api/v1/bookings", body, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous booking status = %d", rec.Code)
	}

	headers := map[string]string{headerUserID: "shopper-1", "Idempotency-Key": "k-1"}
	rec := do(t, r, http.MethodPost, "/api/v1/bookings", body, headers)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("booking status = %d body=%s", rec.Code, rec.Body.String())
	}
	first := decode[dto.Booking](t, rec)
	if first.Status != "pending" || first.HourlyData != "2024-01-01:09:00,10:00" {
		t.Fatalf("booking = %+v", first)
	}

	replay := decode[dto.Booking](t, do(t, r, http.MethodPost, "/api/v1/bookings", body, headers))
	if replay.ID != first.ID {
		t.Fatalf("replay returned %s, expected %s", replay.ID, first.ID)
	}

	headers["Idempotency-Key"] = "k-2"
	if rec := do(t, r, http.MethodPost, "/api/v1/bookings", body, headers); rec.Code != http.StatusConflict {
		t.Fatalf("double booking status = %d", rec.Code)
	}

	cal := decode[dto.AvailabilityCalendar](t, do(t, r, http.MethodGet, "/api/v1/listings/lst-1/availability?from=2024-01-01&to=2024-01-01", nil, nil))
	if cal.States["2024-01-01"] != "partial" {
		t.Fatalf("state after booking = %v", cal.States)
	}

	statusPath := "/api/v1/bookings/" + first.ID + "/status"
	host := map[string]string{headerHostID: "host-1"}
	if rec := do(t, r, http.MethodPost, statusPath, map[string]string{"status": "cancelled"}, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status change = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, statusPath, map[string]string{"status": "cancelled"}, map[string]string{headerHostID: "intruder"}); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign host status change = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, statusPath, map[string]string{"status": "approved"}, host); rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := do(t, r, http.MethodPost, statusPath, map[string]string{"status": "pending"}, host); rec.Code != http.StatusConflict {
		t.Fatalf("invalid transition status = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, statusPath, map[string]string{"status": "lost"}, host); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown status = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/api/v1/bookings/nope/status", map[string]string{"status": "approved"}, host); rec.Code != http.StatusNotFound {
		t.Fatalf("missing booking status = %d", rec.Code)
	}
}

func TestHostAvailabilityUpdate(t *testing.T) {
	r := newTestRouter(t)
	body := map[string]any{"weekly_availability": map[string]any{"Tue": true, "someday": true}}

	if rec := do(t, r, http.MethodPut, "/api/v1/host/listings/lst-1/availability", body, map[string]string{headerHostID: "intruder"}); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign host status = %d", rec.Code)
	}
	rec := do(t, r, http.MethodPut, "/api/v1/host/listings/lst-1/availability", body, map[string]string{headerHostID: "host-1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body.String())
	}
	preview := decode[dto.WeeklyAvailabilityPreview](t, rec)
	if _, ok := preview.Normalized["tue"]; !ok || len(preview.Unrecognized) != 1 {
		t.Fatalf("preview = %+v", preview)
	}

	cal := decode[dto.AvailabilityCalendar](t, do(t, r, http.MethodGet, "/api/v1/listings/lst-1/availability?from=2024-01-01&to=2024-01-02", nil, nil))
	if cal.States["2024-01-01"] != "unavailable" || cal.States["2024-01-02"] != "open" {
		t.Fatalf("states after update = %v", cal.States)
	}
}

func TestSelectionEndpoints(t *testing.T) {
	r := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/api/v1/selection?startDate=2024-01-02&timeSlots=10:00,09:00", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	summary := decode[dto.SelectionSummary](t, rec)
	if summary.HourlyData != "2024-01-02:09:00,10:00" || summary.TotalSlots != 2 {
		t.Fatalf("summary = %+v", summary)
	}

	rec = do(t, r, http.MethodPost, "/api/v1/selection/encode", map[string]any{"days": map[string][]string{"2024-01-03": {"12:00"}, "2024-01-02": {}}}, nil)
	summary = decode[dto.SelectionSummary](t, rec)
	if summary.HourlyData != "2024-01-03:12:00" || summary.DayCount != 1 {
		t.Fatalf("encoded = %+v", summary)
	}
}

func TestListingEndpoints(t *testing.T) {
	r := newTestRouter(t)
	if rec := do(t, r, http.MethodGet, "/api/v1/listings/lst-1", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/api/v1/listings/nearby", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("nearby without origin = %d", rec.Code)
	}
	if rec := do(t, r, http.MethodGet, "/api/v1/listings/nearby?lat=abc&lon=1", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("nearby bad lat = %d", rec.Code)
	}
	rec := do(t, r, http.MethodGet, "/api/v1/listings/nearby?lat=30.27&lon=-97.74&radius=5", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("nearby status = %d body=%s", rec.Code, rec.Body.String())
	}
	res := decode[dto.NearbyResult](t, rec)
	if res.Total != 1 || res.Items[0].ID != "lst-1" {
		t.Fatalf("nearby = %+v", res)
	}
}

func TestStatusFor(t *testing.T) {
	if got := statusFor(context.Canceled); got != http.StatusInternalServerError {
		t.Fatalf("unknown error status = %d", got)
	}
	if got := statusFor(middleware.ErrValidation); got != http.StatusBadRequest {
		t.Fatalf("validation status = %d", got)
	}
}
