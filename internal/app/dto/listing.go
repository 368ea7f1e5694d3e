package dto

import domainlistings "vendorbook/internal/domain/listings"

type Address struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Region  string  `json:"region,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type Listing struct {
	ID                 string         `json:"id"`
	HostID             string         `json:"host_id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Category           string         `json:"category"`
	Mode               string         `json:"mode"`
	Address            Address        `json:"address"`
	HourlyRateCents    int64          `json:"hourly_rate_cents"`
	DailyRateCents     int64          `json:"daily_rate_cents"`
	WeeklyAvailability map[string]any `json:"weekly_availability,omitempty"`
	NormalizedWeekly   map[string]any `json:"normalized_weekly,omitempty"`
	AvailableFrom      string         `json:"available_from,omitempty"`
	AvailableTo        string         `json:"available_to,omitempty"`
	State              string         `json:"state"`
	Version            int64          `json:"version"`
}

type NearbyListing struct {
	Listing
	DistanceMiles float64 `json:"distance_miles"`
}

type NearbyResult struct {
	Origin      Point           `json:"origin"`
	RadiusMiles float64         `json:"radius_miles"`
	Items       []NearbyListing `json:"items"`
	Total       int             `json:"total"`
}

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WeeklyAvailabilityPreview echoes what the calendar will read after a host
// edit. Unrecognized lists keys that matched no weekday.
type WeeklyAvailabilityPreview struct {
	ListingID     string         `json:"listing_id"`
	Normalized    map[string]any `json:"normalized"`
	Unrecognized  []string       `json:"unrecognized,omitempty"`
	AvailableFrom string         `json:"available_from,omitempty"`
	AvailableTo   string         `json:"available_to,omitempty"`
	UpdatedAt     string         `json:"updated_at"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:          string(l.ID),
		HostID:      string(l.Host),
		Title:       l.Title,
		Description: l.Description,
		Category:    string(l.Category),
		Mode:        string(l.Mode),
		Address: Address{
			Line1:   l.Address.Line1,
			City:    l.Address.City,
			Region:  l.Address.Region,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		HourlyRateCents:    l.HourlyRateCents,
		DailyRateCents:     l.DailyRateCents,
		WeeklyAvailability: l.WeeklyAvailability,
		NormalizedWeekly:   TemplateMap(l),
		AvailableFrom:      dateOrEmpty(l.AvailableFrom),
		AvailableTo:        dateOrEmpty(l.AvailableTo),
		State:              string(l.State),
		Version:            l.Version,
	}
}

// TemplateMap renders the normalized weekly template with string keys.
func TemplateMap(l *domainlistings.Listing) map[string]any {
	tmpl := l.WeeklyTemplate()
	if tmpl == nil {
		return nil
	}
	out := make(map[string]any, len(tmpl))
	for k, v := range tmpl {
		out[string(k)] = v
	}
	return out
}
