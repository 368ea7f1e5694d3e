package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/shared/daterange"
)

type listingFixture struct {
	ID                 string         `json:"id"`
	Host               string         `json:"host"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Category           string         `json:"category"`
	Mode               string         `json:"mode"`
	Address            fixtureAddress `json:"address"`
	HourlyRateCents    int64          `json:"hourly_rate_cents"`
	DailyRateCents     int64          `json:"daily_rate_cents"`
	WeeklyAvailability any            `json:"weekly_availability"`
	AvailableFrom      string         `json:"available_from"`
	AvailableTo        string         `json:"available_to"`
}

type fixtureAddress struct {
	Line1   string  `json:"line1"`
	City    string  `json:"city"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// loadListingFixtures seeds active listings. Listings that already exist are
// left untouched so restarts against Mongo keep host edits.
func (a *application) loadListingFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []listingFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		if _, err := a.listings.ByID(ctx, domainlistings.ListingID(fx.ID)); err == nil {
			continue
		} else if !errors.Is(err, domainlistings.ErrListingNotFound) {
			return fmt.Errorf("lookup fixture %s: %w", fx.ID, err)
		}
		listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
			ID:          domainlistings.ListingID(fx.ID),
			Host:        domainlistings.HostID(fx.Host),
			Title:       fx.Title,
			Description: fx.Description,
			Category:    fx.Category,
			Mode:        fx.Mode,
			Address: domainlistings.Address{
				Line1:   fx.Address.Line1,
				City:    fx.Address.City,
				Region:  fx.Address.Region,
				Country: fx.Address.Country,
				Lat:     fx.Address.Lat,
				Lon:     fx.Address.Lon,
			},
			HourlyRateCents:    fx.HourlyRateCents,
			DailyRateCents:     fx.DailyRateCents,
			WeeklyAvailability: fx.WeeklyAvailability,
			AvailableFrom:      parseFixtureDate(fx.AvailableFrom),
			AvailableTo:        parseFixtureDate(fx.AvailableTo),
			Now:                now,
		})
		if err != nil {
			logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := listing.Activate(now); err != nil {
			logger.Error("fixture activation failed", "listing_id", fx.ID, "error", err)
			continue
		}
		listing.ClearEvents()
		if err := a.listings.Save(ctx, listing); err != nil {
			logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("listing fixtures loaded", "path", path, "imported", imported, "total", len(fixtures))
	return nil
}

func parseFixtureDate(value string) time.Time {
	if strings.TrimSpace(value) == "" {
		return time.Time{}
	}
	t, err := daterange.ParseDate(value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func fixturesPath(configured string) string {
	if configured != "" {
		return configured
	}
	candidates := []string{
		filepath.Join("data", "listings.json"),
		filepath.Join("..", "..", "data", "listings.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
