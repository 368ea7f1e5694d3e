package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"vendorbook/internal/app/policies"
	"vendorbook/internal/domain/geo"
)

func TestClientGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("q") {
		case "Austin, TX":
			_, _ = w.Write([]byte(`[{"lat":"30.2672","lon":"-97.7431"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, err := c.Geocode(context.Background(), "  Austin, TX ")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if p.Lat != 30.2672 || p.Lon != -97.7431 {
		t.Fatalf("point = %+v", p)
	}
	if _, err := c.Geocode(context.Background(), "Atlantis"); !errors.Is(err, policies.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestClientUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	if _, err := NewClient(srv.URL).Geocode(context.Background(), "x"); err == nil || errors.Is(err, policies.ErrLocationNotFound) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

type countingGeocoder struct {
	calls atomic.Int32
	point geo.Point
	err   error
}

func (g *countingGeocoder) Geocode(context.Context, string) (geo.Point, error) {
	g.calls.Add(1)
	return g.point, g.err
}

func TestCachedGeocoder(t *testing.T) {
	up := &countingGeocoder{point: geo.Point{Lat: 1, Lon: 2}}
	g := &CachedGeocoder{Upstream: up, Cache: NewMemoryCache(), TTL: time.Minute}
	ctx := context.Background()

	for _, q := range []string{"Austin TX", "  austin   tx"} {
		p, err := g.Geocode(ctx, q)
		if err != nil || p != up.point {
			t.Fatalf("Geocode(%q) = %+v, %v", q, p, err)
		}
	}
	if got := up.calls.Load(); got != 1 {
		t.Fatalf("upstream called %d times", got)
	}

	miss := &countingGeocoder{err: policies.ErrLocationNotFound}
	g = &CachedGeocoder{Upstream: miss, Cache: NewMemoryCache()}
	for i := 0; i < 2; i++ {
		if _, err := g.Geocode(ctx, "nowhere"); !errors.Is(err, policies.ErrLocationNotFound) {
			t.Fatalf("expected ErrLocationNotFound, got %v", err)
		}
	}
	if miss.calls.Load() != 2 {
		t.Fatalf("failures must not be cached")
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.Set(ctx, "k", geo.Point{Lat: 1}, time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("fresh entry missing")
	}
	now = now.Add(time.Minute)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
}
