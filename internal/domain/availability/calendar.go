package availability

import (
	"errors"
	"sort"
	"strings"
	"time"

	"vendorbook/internal/domain/listings"
	"vendorbook/internal/domain/schedule"
	"vendorbook/internal/domain/selection"
	"vendorbook/internal/domain/shared/daterange"
)

var (
	ErrRangeTooLong  = errors.New("availability: date range too long")
	ErrInvalidPolicy = errors.New("availability: unknown no-template policy")
)

// DayState is the derived booking state of one calendar day.
type DayState string

const (
	StateOpen    DayState = "open"
	StatePartial DayState = "partial"
	StateBooked  DayState = "booked"
	// StateUnavailable marks days closed by the weekly template or outside the
	// listing window. It blocks like StateBooked.
	StateUnavailable DayState = "unavailable"
)

// Blocked reports whether nothing can be booked on the day.
func (s DayState) Blocked() bool {
	return s == StateBooked || s == StateUnavailable
}

// NoTemplatePolicy decides what a listing without any weekly rule and without
// a window offers.
type NoTemplatePolicy string

const (
	NoTemplateOpen   NoTemplatePolicy = "open"
	NoTemplateClosed NoTemplatePolicy = "closed"
)

func ParseNoTemplatePolicy(raw string) (NoTemplatePolicy, error) {
	switch p := NoTemplatePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case NoTemplateOpen, NoTemplateClosed:
		return p, nil
	case "":
		return NoTemplateOpen, nil
	}
	return "", ErrInvalidPolicy
}

// Options tune calendar resolution.
type Options struct {
	SlotDuration time.Duration
	DefaultHours listings.DayHours
	NoTemplate   NoTemplatePolicy
	MaxDays      int
}

func DefaultOptions() Options {
	return Options{
		SlotDuration: time.Hour,
		DefaultHours: listings.DayHours{Open: "00:00", Close: "24:00"},
		NoTemplate:   NoTemplateOpen,
		MaxDays:      366,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.SlotDuration <= 0 {
		o.SlotDuration = def.SlotDuration
	}
	if o.DefaultHours.Open == "" {
		o.DefaultHours.Open = def.DefaultHours.Open
	}
	if o.DefaultHours.Close == "" {
		o.DefaultHours.Close = def.DefaultHours.Close
	}
	if o.NoTemplate == "" {
		o.NoTemplate = def.NoTemplate
	}
	if o.MaxDays <= 0 {
		o.MaxDays = def.MaxDays
	}
	return o
}

// Claim is what one booking occupies on one date.
type Claim struct {
	Date     string
	Slots    []string
	WholeDay bool
}

// Rules are the host-authored inputs of a listing's calendar.
type Rules struct {
	Template    schedule.Template[any]
	HasTemplate bool
	From        time.Time
	To          time.Time
	Hourly      bool
}

// RulesFor derives the calendar rules of a listing.
func RulesFor(l *listings.Listing) Rules {
	tmpl := l.WeeklyTemplate()
	return Rules{
		Template:    tmpl,
		HasTemplate: len(tmpl) > 0,
		From:        l.AvailableFrom,
		To:          l.AvailableTo,
		Hourly:      l.Hourly(),
	}
}

func (r Rules) hasWindow() bool {
	return !r.From.IsZero() || !r.To.IsZero()
}

func (r Rules) inWindow(day time.Time) bool {
	if !r.From.IsZero() && day.Before(daterange.Day(r.From)) {
		return false
	}
	if !r.To.IsZero() && day.After(daterange.Day(r.To)) {
		return false
	}
	return true
}

// Day is the resolved state of one date.
type Day struct {
	Date        string
	Weekday     schedule.DayKey
	State       DayState
	OpenSlots   []string
	BookedSlots []string
}

// Calendar is the resolved view of a date range, days ascending.
type Calendar struct {
	Range daterange.DateRange
	Days  []Day
}

// States returns the date to state mapping.
func (c Calendar) States() map[string]DayState {
	out := make(map[string]DayState, len(c.Days))
	for _, d := range c.Days {
		out[d.Date] = d.State
	}
	return out
}

// Day looks up a date.
func (c Calendar) Day(date string) (Day, bool) {
	i := sort.Search(len(c.Days), func(i int) bool { return c.Days[i].Date >= date })
	if i < len(c.Days) && c.Days[i].Date == date {
		return c.Days[i], true
	}
	return Day{}, false
}

// Conflicts lists the "date slot" pairs of sel that are not open. Dates
// outside the calendar range count as conflicts.
func (c Calendar) Conflicts(sel selection.Selection) []string {
	var out []string
	for _, date := range sel.Dates() {
		day, ok := c.Day(date)
		for _, slot := range sel.SlotsFor(date) {
			if !ok || day.State.Blocked() || !containsSorted(day.OpenSlots, slot) {
				out = append(out, date+" "+slot)
			}
		}
	}
	return out
}

// BlockedDays lists the days of the calendar that are not fully open.
func (c Calendar) BlockedDays() []string {
	var out []string
	for _, d := range c.Days {
		if d.State != StateOpen {
			out = append(out, d.Date)
		}
	}
	return out
}

// CheckRange validates a query range against opts.
func CheckRange(dr daterange.DateRange, opts Options) error {
	if err := dr.Validate(); err != nil {
		return err
	}
	if dr.Len() > opts.normalized().MaxDays {
		return ErrRangeTooLong
	}
	return nil
}

// Resolve combines the listing rules with booking claims into per-date
// states. Passing no claims yields the template-only view.
func Resolve(rules Rules, dr daterange.DateRange, claims []Claim, opts Options) Calendar {
	opts = opts.normalized()
	index := indexClaims(claims)
	cal := Calendar{Range: dr, Days: make([]Day, 0, dr.Len())}
	for _, day := range dr.Days() {
		cal.Days = append(cal.Days, resolveDay(rules, day, index, opts))
	}
	return cal
}

type dayClaims struct {
	wholeDay bool
	slots    map[string]struct{}
}

func indexClaims(claims []Claim) map[string]*dayClaims {
	out := make(map[string]*dayClaims, len(claims))
	for _, c := range claims {
		date := strings.TrimSpace(c.Date)
		if date == "" {
			continue
		}
		entry, ok := out[date]
		if !ok {
			entry = &dayClaims{slots: map[string]struct{}{}}
			out[date] = entry
		}
		if c.WholeDay {
			entry.wholeDay = true
		}
		for _, slot := range c.Slots {
			entry.slots[strings.TrimSpace(slot)] = struct{}{}
		}
	}
	return out
}

func resolveDay(rules Rules, day time.Time, index map[string]*dayClaims, opts Options) Day {
	out := Day{Date: day.Format(daterange.Layout), Weekday: schedule.DayKeyFor(day), State: StateUnavailable}
	if !rules.inWindow(day) {
		return out
	}

	hours, ok := dayHours(rules, day, opts)
	if !ok {
		return out
	}
	nominal, err := hours.Slots(opts.DefaultHours, opts.SlotDuration)
	if err != nil || len(nominal) == 0 {
		return out
	}

	claimed := index[out.Date]
	if !rules.Hourly {
		if claimed != nil && (claimed.wholeDay || len(claimed.slots) > 0) {
			out.State = StateBooked
			return out
		}
		out.State = StateOpen
		return out
	}

	if claimed != nil && claimed.wholeDay {
		out.State = StateBooked
		out.BookedSlots = nominal
		return out
	}
	for _, slot := range nominal {
		if claimed != nil {
			if _, taken := claimed.slots[slot]; taken {
				out.BookedSlots = append(out.BookedSlots, slot)
				continue
			}
		}
		out.OpenSlots = append(out.OpenSlots, slot)
	}
	switch {
	case len(out.BookedSlots) == 0:
		out.State = StateOpen
	case len(out.OpenSlots) == 0:
		out.State = StateBooked
	default:
		out.State = StatePartial
	}
	return out
}

// dayHours picks the hours that apply to day, or ok=false when the day is
// closed.
func dayHours(rules Rules, day time.Time, opts Options) (listings.DayHours, bool) {
	if !rules.HasTemplate {
		if !rules.hasWindow() && opts.NoTemplate == NoTemplateClosed {
			return listings.DayHours{}, false
		}
		return opts.DefaultHours, true
	}
	raw, ok := rules.Template.Lookup(day.Weekday())
	if !ok {
		return listings.DayHours{}, false
	}
	hours, ok := listings.ParseDayHours(raw)
	if !ok || hours.Closed {
		return listings.DayHours{}, false
	}
	return hours, true
}

func containsSorted(values []string, v string) bool {
	i := sort.SearchStrings(values, v)
	return i < len(values) && values[i] == v
}
