package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vendorbook/internal/app/commands"
	"vendorbook/internal/app/dto"
	bookingapp "vendorbook/internal/app/handlers/booking"
)

type BookingHandler struct {
	Commands commands.Bus
}

type createBookingRequest struct {
	ListingID  string `json:"listing_id"`
	HourlyData string `json:"hourly_data"`
	StartDate  string `json:"start_date"`
	TimeSlots  string `json:"time_slots"`
	EndDate    string `json:"end_date"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       generateCommandID(),
		ListingID:       req.ListingID,
		RequesterID:     c.GetHeader(headerUserID),
		HourlyData:      req.HourlyData,
		StartDate:       req.StartDate,
		TimeSlots:       req.TimeSlots,
		EndDate:         req.EndDate,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := bookingapp.HostBookingStatusCommand{
		BookingID: c.Param("id"),
		HostID:    c.GetHeader(headerHostID),
		Status:    req.Status,
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.HostBookingStatusCommand, *dto.Booking](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func generateCommandID() string {
	return uuid.NewString()
}

var _ BookingHTTP = BookingHandler{}
