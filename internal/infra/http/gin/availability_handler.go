package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/app/dto"
	availabilityapp "vendorbook/internal/app/handlers/availability"
	"vendorbook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := optionalDate(c, "from")
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := optionalDate(c, "to")
	if err != nil {
		writeError(c, err)
		return
	}
	query := availabilityapp.GetAvailabilityQuery{ListingID: c.Param("id"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetAvailabilityQuery, dto.AvailabilityCalendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
