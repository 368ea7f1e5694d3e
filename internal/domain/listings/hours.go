package listings

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("listings: invalid HH:MM clock value")

// DayHours is the day-schedule payload hosts author per weekday. Empty Open or
// Close fall back to service-wide default hours.
type DayHours struct {
	Closed bool   `json:"closed" bson:"closed"`
	Open   string `json:"open,omitempty" bson:"open,omitempty"`
	Close  string `json:"close,omitempty" bson:"close,omitempty"`
}

// ParseDayHours interprets a raw payload: a bool (true means open with default
// hours), a DayHours value, or a map with closed/open/close fields. Payloads
// that cannot be understood report ok=false.
func ParseDayHours(raw any) (DayHours, bool) {
	switch v := raw.(type) {
	case nil:
		return DayHours{}, false
	case bool:
		return DayHours{Closed: !v}, true
	case DayHours:
		return v, true
	case *DayHours:
		if v == nil {
			return DayHours{}, false
		}
		return *v, true
	case map[string]any:
		return dayHoursFromMap(v)
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return DayHours{}, false
		}
		return ParseDayHours(decoded)
	}
	return DayHours{}, false
}

// dayHoursFromMap reads closed/open/close fields. An explicit closed flag
// takes precedence over a boolean open flag.
func dayHoursFromMap(m map[string]any) (DayHours, bool) {
	var out DayHours
	var closed, openFlag *bool
	for key, value := range m {
		switch strings.ToLower(key) {
		case "closed":
			b, ok := value.(bool)
			if !ok {
				return DayHours{}, false
			}
			closed = &b
		case "open":
			switch typed := value.(type) {
			case string:
				out.Open = strings.TrimSpace(typed)
			case bool:
				openFlag = &typed
			default:
				return DayHours{}, false
			}
		case "close":
			s, ok := value.(string)
			if !ok {
				return DayHours{}, false
			}
			out.Close = strings.TrimSpace(s)
		}
	}
	switch {
	case closed != nil:
		out.Closed = *closed
	case openFlag != nil:
		out.Closed = !*openFlag
	}
	return out, true
}

// Slots lists the slot labels from Open (inclusive) to Close (exclusive) in
// steps of step. Missing bounds are taken from defaults. A closed day has no
// slots.
func (h DayHours) Slots(defaults DayHours, step time.Duration) ([]string, error) {
	if h.Closed {
		return nil, nil
	}
	if step <= 0 {
		step = time.Hour
	}
	openRaw, closeRaw := h.Open, h.Close
	if openRaw == "" {
		openRaw = defaults.Open
	}
	if closeRaw == "" {
		closeRaw = defaults.Close
	}
	start, err := ParseClock(openRaw)
	if err != nil {
		return nil, err
	}
	end, err := ParseClock(closeRaw)
	if err != nil {
		return nil, err
	}
	var out []string
	for at := start; at < end; at += step {
		out = append(out, FormatClock(at))
	}
	return out, nil
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(raw string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, raw)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock renders an offset from midnight as zero-padded HH:MM.
func FormatClock(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
