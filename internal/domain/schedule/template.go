package schedule

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// DayKey is a weekly template key. Canonical keys are the three-letter
// lower-case abbreviations; anything else is a pass-through of the host input.
type DayKey string

const (
	Mon DayKey = "mon"
	Tue DayKey = "tue"
	Wed DayKey = "wed"
	Thu DayKey = "thu"
	Fri DayKey = "fri"
	Sat DayKey = "sat"
	Sun DayKey = "sun"
)

// CanonicalKeys lists the canonical day keys starting from Monday.
var CanonicalKeys = []DayKey{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

var fullNames = map[string]DayKey{
	"monday":    Mon,
	"tuesday":   Tue,
	"wednesday": Wed,
	"thursday":  Thu,
	"friday":    Fri,
	"saturday":  Sat,
	"sunday":    Sun,
}

var byWeekday = map[time.Weekday]DayKey{
	time.Monday:    Mon,
	time.Tuesday:   Tue,
	time.Wednesday: Wed,
	time.Thursday:  Thu,
	time.Friday:    Fri,
	time.Saturday:  Sat,
	time.Sunday:    Sun,
}

// Template maps day keys to opaque day-schedule payloads.
type Template[V any] map[DayKey]V

// Normalize canonicalizes the keys of a host-authored weekly record.
// Keys are lower-cased and full English day names are abbreviated; other keys
// pass through lower-cased. Values are copied as is. A nil map yields nil.
func Normalize[V any](raw map[string]V) Template[V] {
	if raw == nil {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// colliding keys resolve in byte order, last one wins
	sort.Strings(keys)
	out := make(Template[V], len(raw))
	for _, k := range keys {
		out[CanonicalKey(k)] = raw[k]
	}
	return out
}

// NormalizeAny accepts loosely typed input such as decoded JSON. Anything that
// is not a map keyed by strings yields nil.
func NormalizeAny(raw any) Template[any] {
	switch typed := raw.(type) {
	case nil:
		return nil
	case map[string]any:
		return Normalize(typed)
	case Template[any]:
		return Normalize(stringKeyed(typed))
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	if rv.IsNil() {
		return nil
	}
	plain := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		plain[iter.Key().String()] = iter.Value().Interface()
	}
	return Normalize(plain)
}

func stringKeyed(t Template[any]) map[string]any {
	out := make(map[string]any, len(t))
	for k, v := range t {
		out[string(k)] = v
	}
	return out
}

// CanonicalKey maps a single raw key to its template key.
func CanonicalKey(raw string) DayKey {
	lower := strings.ToLower(raw)
	if key, ok := fullNames[lower]; ok {
		return key
	}
	return DayKey(lower)
}

// IsCanonical reports whether key is one of the seven canonical keys.
func IsCanonical(key DayKey) bool {
	switch key {
	case Mon, Tue, Wed, Thu, Fri, Sat, Sun:
		return true
	}
	return false
}

// KeyForWeekday returns the canonical key of a weekday.
func KeyForWeekday(day time.Weekday) DayKey {
	return byWeekday[day]
}

// DayKeyFor returns the canonical key of the calendar day of t.
func DayKeyFor(t time.Time) DayKey {
	return byWeekday[t.Weekday()]
}

// Lookup returns the entry for the given weekday.
func (t Template[V]) Lookup(day time.Weekday) (V, bool) {
	v, ok := t[KeyForWeekday(day)]
	return v, ok
}

// Canonical returns a copy restricted to the seven canonical keys.
func (t Template[V]) Canonical() Template[V] {
	if t == nil {
		return nil
	}
	out := make(Template[V], len(CanonicalKeys))
	for _, key := range CanonicalKeys {
		if v, ok := t[key]; ok {
			out[key] = v
		}
	}
	return out
}

// Unrecognized returns the pass-through keys, sorted.
func (t Template[V]) Unrecognized() []DayKey {
	var out []DayKey
	for key := range t {
		if !IsCanonical(key) {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
