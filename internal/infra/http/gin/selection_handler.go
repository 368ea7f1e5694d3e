package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/app/dto"
	selectionapp "vendorbook/internal/app/handlers/selection"
	"vendorbook/internal/app/queries"
)

type SelectionHandler struct {
	Queries queries.Bus
}

// Summary reads hourlyData, or startDate with timeSlots, exactly as the
// booking links carry them.
func (h SelectionHandler) Summary(c *gin.Context) {
	query := selectionapp.SummarizeSelectionQuery{
		HourlyData: c.Query("hourlyData"),
		StartDate:  c.Query("startDate"),
		TimeSlots:  c.Query("timeSlots"),
	}
	result, err := queries.Ask[selectionapp.SummarizeSelectionQuery, dto.SelectionSummary](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h SelectionHandler) Encode(c *gin.Context) {
	var query selectionapp.EncodeSelectionQuery
	if !bindJSON(c, &query) {
		return
	}
	result, err := queries.Ask[selectionapp.EncodeSelectionQuery, dto.SelectionSummary](c.Request.Context(), h.Queries, query)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ SelectionHTTP = SelectionHandler{}
