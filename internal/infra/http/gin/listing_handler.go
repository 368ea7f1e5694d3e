package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	listingsapp "vendorbook/internal/app/handlers/listings"
	"vendorbook/internal/app/queries"
)

type ListingHandler struct {
	Queries  queries.Bus
	Commands commands.Bus
}

func (h ListingHandler) Get(c *gin.Context) {
	result, err := queries.Ask[listingsapp.GetListingQuery, dto.Listing](c.Request.Context(), h.Queries, listingsapp.GetListingQuery{ListingID: c.Param("id")})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ListingHandler) Nearby(c *gin.Context) {
	lat, hasLat, err := optionalFloat(c, "lat")
	if err != nil {
		writeError(c, err)
		return
	}
	lon, hasLon, err := optionalFloat(c, "lon")
	if err != nil {
		writeError(c, err)
		return
	}
	radius, _, err := optionalFloat(c, "radius")
	if err != nil {
		writeError(c, err)
		return
	}
	limit, err := optionalInt(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	query := listingsapp.SearchNearbyQuery{
		Lat:         lat,
		Lon:         lon,
		HasOrigin:   hasLat && hasLon,
		Location:    c.Query("location"),
		RadiusMiles: radius,
		Category:    c.Query("category"),
		Limit:       limit,
	}
	result, err := queries.Ask[listingsapp.SearchNearbyQuery, dto.NearbyResult](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateAvailabilityRequest struct {
	WeeklyAvailability any    `json:"weekly_availability"`
	AvailableFrom      string `json:"available_from"`
	AvailableTo        string `json:"available_to"`
}

func (h ListingHandler) UpdateAvailability(c *gin.Context) {
	var req updateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	from, err := optionalBodyDate("available_from", req.AvailableFrom)
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := optionalBodyDate("available_to", req.AvailableTo)
	if err != nil {
		writeError(c, err)
		return
	}
	cmd := listingsapp.UpdateWeeklyAvailabilityCommand{
		ListingID:     c.Param("id"),
		HostID:        c.GetHeader(headerHostID),
		Weekly:        req.WeeklyAvailability,
		AvailableFrom: from,
		AvailableTo:   to,
	}
	result, err := commands.Dispatch[listingsapp.UpdateWeeklyAvailabilityCommand, *dto.WeeklyAvailabilityPreview](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ListingHTTP = ListingHandler{}
