package selection

import (
	"context"
	"time"

	"vendorbook/internal/app/dto"
	"vendorbook/internal/app/queries"
	domainselection "vendorbook/internal/domain/selection"
)

const (
	summarizeKey = "selection.summarize"
	encodeKey    = "selection.encode"
)

// SummarizeSelectionQuery carries the wire form of a shopper's picks.
type SummarizeSelectionQuery struct {
	HourlyData string
	StartDate  string
	TimeSlots  string
}

func (q SummarizeSelectionQuery) Key() string { return summarizeKey }

// EncodeSelectionQuery carries picks as a date to slots mapping.
type EncodeSelectionQuery struct {
	Days map[string][]string `json:"days"`
}

func (q EncodeSelectionQuery) Key() string { return encodeKey }

type Handler struct {
	SlotDuration time.Duration
}

func (h *Handler) Summarize(_ context.Context, q SummarizeSelectionQuery) (dto.SelectionSummary, error) {
	sel := domainselection.Parse(domainselection.Request{
		HourlyData: q.HourlyData,
		StartDate:  q.StartDate,
		TimeSlots:  q.TimeSlots,
	})
	return h.summary(sel), nil
}

func (h *Handler) Encode(_ context.Context, q EncodeSelectionQuery) (dto.SelectionSummary, error) {
	return h.summary(domainselection.New(q.Days)), nil
}

func (h *Handler) summary(sel domainselection.Selection) dto.SelectionSummary {
	return dto.MapSelectionSummary(sel, domainselection.Summarize(sel, h.SlotDuration))
}

// Register attaches both selection queries to bus.
func (h *Handler) Register(bus *queries.InMemoryBus) {
	queries.RegisterHandler(bus, summarizeKey, queries.HandlerFunc[SummarizeSelectionQuery, dto.SelectionSummary](h.Summarize))
	queries.RegisterHandler(bus, encodeKey, queries.HandlerFunc[EncodeSelectionQuery, dto.SelectionSummary](h.Encode))
}
