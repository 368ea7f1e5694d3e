package policies

import (
	"context"
	"errors"

	"vendorbook/internal/domain/geo"
)

var ErrLocationNotFound = errors.New("policies: location not found")

// Geocoder resolves a free-text location to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (geo.Point, error)
}
