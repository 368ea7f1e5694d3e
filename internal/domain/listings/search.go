package listings

import (
	"errors"

	"vendorbook/internal/domain/geo"
)

const (
	defaultNearbyLimit = 24
	maxNearbyLimit     = 100
	defaultRadiusMiles = 25.0
	maxRadiusMiles     = 500.0
)

var ErrInvalidRadius = errors.New("listings: radius must be positive")

// NearbyParams describe a radius search around an origin.
type NearbyParams struct {
	Origin      geo.Point
	RadiusMiles float64
	Category    Category
	OnlyActive  bool
	Limit       int
}

// Normalized returns a sanitized copy of params.
func (p NearbyParams) Normalized() NearbyParams {
	out := p
	if out.RadiusMiles <= 0 {
		out.RadiusMiles = defaultRadiusMiles
	}
	if out.RadiusMiles > maxRadiusMiles {
		out.RadiusMiles = maxRadiusMiles
	}
	if out.Limit <= 0 {
		out.Limit = defaultNearbyLimit
	}
	if out.Limit > maxNearbyLimit {
		out.Limit = maxNearbyLimit
	}
	return out
}

// Box is the coarse prefilter rectangle stores may use.
func (p NearbyParams) Box() geo.Box {
	return geo.BoundingBox(p.Origin, p.RadiusMiles)
}

// Matches applies the non-geographic filters.
func (p NearbyParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.OnlyActive && l.State != ListingActive {
		return false
	}
	if p.Category != "" && l.Category != p.Category {
		return false
	}
	return true
}
