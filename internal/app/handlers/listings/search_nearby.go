package listings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"vendorbook/internal/app/dto"
	"vendorbook/internal/app/handlers/support"
	"vendorbook/internal/app/policies"
	"vendorbook/internal/app/queries"
	"vendorbook/internal/app/uow"
	"vendorbook/internal/domain/geo"
	domainlistings "vendorbook/internal/domain/listings"
)

const searchNearbyKey = "listings.nearby"

var ErrOriginRequired = errors.New("listings: coordinates or location required")

// SearchNearbyQuery finds active listings within RadiusMiles of an origin
// given either as coordinates or as free text.
type SearchNearbyQuery struct {
	Lat         float64 `json:"lat" validate:"omitempty,latitude"`
	Lon         float64 `json:"lon" validate:"omitempty,longitude"`
	HasOrigin   bool
	Location    string
	RadiusMiles float64 `json:"radius" validate:"gte=0"`
	Category    string
	Limit       int `json:"limit" validate:"gte=0"`
}

func (q SearchNearbyQuery) Key() string { return searchNearbyKey }

type SearchNearbyHandler struct {
	UoWFactory uow.UoWFactory
	Geocoder   policies.Geocoder
}

func (h *SearchNearbyHandler) Handle(ctx context.Context, q SearchNearbyQuery) (dto.NearbyResult, error) {
	origin, err := h.origin(ctx, q)
	if err != nil {
		return dto.NearbyResult{}, err
	}
	params := domainlistings.NearbyParams{
		Origin:      origin,
		RadiusMiles: q.RadiusMiles,
		OnlyActive:  true,
		Limit:       q.Limit,
	}
	if strings.TrimSpace(q.Category) != "" {
		category, err := domainlistings.ParseCategory(q.Category)
		if err != nil {
			return dto.NearbyResult{}, err
		}
		params.Category = category
	}
	params = params.Normalized()

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.NearbyResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	candidates, err := unit.Listings().Nearby(ctx, params)
	if err != nil {
		return dto.NearbyResult{}, err
	}

	items := make([]dto.NearbyListing, 0, len(candidates))
	for _, l := range candidates {
		if !params.Matches(l) || !geo.Within(origin, l.Location(), params.RadiusMiles) {
			continue
		}
		items = append(items, dto.NearbyListing{Listing: dto.MapListing(l), DistanceMiles: geo.Distance(origin, l.Location())})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].DistanceMiles == items[j].DistanceMiles {
			return items[i].ID < items[j].ID
		}
		return items[i].DistanceMiles < items[j].DistanceMiles
	})
	total := len(items)
	if len(items) > params.Limit {
		items = items[:params.Limit]
	}
	return dto.NearbyResult{
		Origin:      dto.Point{Lat: origin.Lat, Lon: origin.Lon},
		RadiusMiles: params.RadiusMiles,
		Items:       items,
		Total:       total,
	}, nil
}

func (h *SearchNearbyHandler) origin(ctx context.Context, q SearchNearbyQuery) (geo.Point, error) {
	if q.HasOrigin {
		return geo.Point{Lat: q.Lat, Lon: q.Lon}, nil
	}
	location := strings.TrimSpace(q.Location)
	if location == "" || h.Geocoder == nil {
		return geo.Point{}, ErrOriginRequired
	}
	point, err := h.Geocoder.Geocode(ctx, location)
	if err != nil {
		return geo.Point{}, fmt.Errorf("geocode %q: %w", location, err)
	}
	return point, nil
}

var _ queries.Handler[SearchNearbyQuery, dto.NearbyResult] = (*SearchNearbyHandler)(nil)
