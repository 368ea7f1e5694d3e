package geo

import "math"

// EarthRadiusMiles is the mean Earth radius used by the distance filter.
const EarthRadiusMiles = 3959.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// DistanceMiles returns the haversine great-circle distance between two
// coordinates. Inputs are not validated.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// Distance is DistanceMiles over points.
func Distance(a, b Point) float64 {
	return DistanceMiles(a.Lat, a.Lon, b.Lat, b.Lon)
}

// Within reports whether p lies at most radius miles from origin.
func Within(origin, p Point, radiusMiles float64) bool {
	return Distance(origin, p) <= radiusMiles
}

// Box is a latitude/longitude rectangle.
type Box struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// BoundingBox returns a rectangle that contains every point within radius
// miles of origin. It is a coarse prefilter for stores; callers still apply
// Within. A circle reaching a pole, or crossing the antimeridian, gets the
// full longitude range.
func BoundingBox(origin Point, radiusMiles float64) Box {
	angular := radiusMiles / EarthRadiusMiles
	latDelta := angular * 180 / math.Pi
	box := Box{
		MinLat: math.Max(origin.Lat-latDelta, -90),
		MaxLat: math.Min(origin.Lat+latDelta, 90),
		MinLon: -180,
		MaxLon: 180,
	}
	if origin.Lat+latDelta >= 90 || origin.Lat-latDelta <= -90 || angular >= math.Pi/2 {
		return box
	}
	ratio := math.Sin(angular) / math.Cos(toRadians(origin.Lat))
	if ratio >= 1 {
		return box
	}
	lonDelta := math.Asin(ratio) * 180 / math.Pi
	if origin.Lon-lonDelta < -180 || origin.Lon+lonDelta > 180 {
		return box
	}
	box.MinLon = origin.Lon - lonDelta
	box.MaxLon = origin.Lon + lonDelta
	return box
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
