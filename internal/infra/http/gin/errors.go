package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/app/commands"
	bookingapp "vendorbook/internal/app/handlers/booking"
	listingsapp "vendorbook/internal/app/handlers/listings"
	"vendorbook/internal/app/middleware"
	"vendorbook/internal/app/policies"
	"vendorbook/internal/app/queries"
	domainavailability "vendorbook/internal/domain/availability"
	domainbooking "vendorbook/internal/domain/booking"
	domainlistings "vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/shared/daterange"
	mongostore "vendorbook/internal/infra/db/mongo"
)

var statusTable = []struct {
	status int
	errs   []error
}{
	{http.StatusBadRequest, []error{
		middleware.ErrValidation,
		daterange.ErrInvalidDate,
		daterange.ErrInvalidRange,
		domainavailability.ErrRangeTooLong,
		domainbooking.ErrEmptySelection,
		domainbooking.ErrRequesterRequired,
		domainbooking.ErrUnknownStatus,
		domainlistings.ErrInvalidCategory,
		domainlistings.ErrInvalidWindow,
		domainlistings.ErrInvalidRadius,
		listingsapp.ErrOriginRequired,
		errBadParam,
	}},
	{http.StatusUnauthorized, []error{middleware.ErrActorRequired}},
	{http.StatusForbidden, []error{domainlistings.ErrNotHost}},
	{http.StatusNotFound, []error{
		domainlistings.ErrListingNotFound,
		domainbooking.ErrBookingNotFound,
		policies.ErrLocationNotFound,
	}},
	{http.StatusConflict, []error{
		domainbooking.ErrSlotUnavailable,
		domainbooking.ErrInvalidTransition,
		bookingapp.ErrListingNotBookable,
		mongostore.ErrConcurrentUpdate,
	}},
	{http.StatusInternalServerError, []error{commands.ErrHandlerNotFound, queries.ErrHandlerNotFound}},
}

func statusFor(err error) int {
	for _, row := range statusTable {
		for _, target := range row.errs {
			if errors.Is(err, target) {
				return row.status
			}
		}
	}
	return http.StatusInternalServerError
}

// writeError answers with the mapped status. Internal failures are attached
// to the context for the request logger and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
