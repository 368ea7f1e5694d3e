package selection

import (
	"net/url"
	"strings"
)

// Query string parameter names of the wire format.
const (
	ParamHourlyData = "hourlyData"
	ParamStartDate  = "startDate"
	ParamTimeSlots  = "timeSlots"
)

const (
	daySeparator  = "|"
	dateSeparator = ":"
	slotSeparator = ","
)

// Request carries the raw wire values of a selection. HourlyData takes
// priority over the single-day StartDate/TimeSlots pair.
type Request struct {
	StartDate  string
	HourlyData string
	TimeSlots  string
}

// Parse decodes a selection. Malformed segments are dropped, never reported.
func Parse(req Request) Selection {
	if req.HourlyData != "" {
		return ParseHourlyData(req.HourlyData)
	}
	out := Selection{}
	if req.StartDate != "" && req.TimeSlots != "" {
		out.set(req.StartDate, strings.Split(req.TimeSlots, slotSeparator))
	}
	return out
}

// ParseHourlyData decodes the multi-day compact form
// "<date>:<slot,slot>|<date>:<slot>". Only the first colon of a segment
// separates the date so slot labels may carry colons.
func ParseHourlyData(raw string) Selection {
	out := Selection{}
	for _, segment := range strings.Split(raw, daySeparator) {
		date, slots, ok := strings.Cut(segment, dateSeparator)
		if !ok {
			continue
		}
		if strings.TrimSpace(date) == "" {
			continue
		}
		out.set(date, strings.Split(slots, slotSeparator))
	}
	return out
}

// FromQuery reads a selection out of URL query values.
func FromQuery(values url.Values) Selection {
	return Parse(Request{
		StartDate:  values.Get(ParamStartDate),
		HourlyData: values.Get(ParamHourlyData),
		TimeSlots:  values.Get(ParamTimeSlots),
	})
}

// Encode renders the multi-day compact form, dates ascending.
func Encode(s Selection) string {
	var b strings.Builder
	for i, date := range s.Dates() {
		if i > 0 {
			b.WriteString(daySeparator)
		}
		b.WriteString(date)
		b.WriteString(dateSeparator)
		b.WriteString(strings.Join(canonicalSlots(s[date]), slotSeparator))
	}
	return b.String()
}

// String implements fmt.Stringer with the compact form.
func (s Selection) String() string {
	return Encode(s)
}

// Query returns the selection as URL query values in the multi-day form.
func (s Selection) Query() url.Values {
	values := url.Values{}
	if len(s) > 0 {
		values.Set(ParamHourlyData, Encode(s))
	}
	return values
}
