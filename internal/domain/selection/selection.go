package selection

import (
	"sort"
	"strings"
)

// Selection holds the hourly slots picked by a shopper, keyed by calendar date
// (YYYY-MM-DD). Each day's slots are sorted and unique and no day is ever
// stored without slots.
type Selection map[string][]string

// New builds a canonical selection from loosely ordered input.
func New(days map[string][]string) Selection {
	out := Selection{}
	for date, slots := range days {
		out.set(date, slots)
	}
	return out
}

func (s Selection) set(date string, slots []string) {
	date = strings.TrimSpace(date)
	if date == "" {
		return
	}
	merged := make([]string, 0, len(s[date])+len(slots))
	merged = append(merged, s[date]...)
	merged = append(merged, slots...)
	clean := canonicalSlots(merged)
	if len(clean) == 0 {
		delete(s, date)
		return
	}
	s[date] = clean
}

// Add puts a slot on date.
func (s Selection) Add(date, slot string) {
	s.set(date, []string{slot})
}

// Remove drops a slot from date, dropping the day once it is empty.
func (s Selection) Remove(date, slot string) {
	date = strings.TrimSpace(date)
	slot = strings.TrimSpace(slot)
	current, ok := s[date]
	if !ok {
		return
	}
	kept := make([]string, 0, len(current))
	for _, existing := range current {
		if existing != slot {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		delete(s, date)
		return
	}
	s[date] = kept
}

// Toggle flips a slot and reports whether it is selected afterwards.
func (s Selection) Toggle(date, slot string) bool {
	if s.Has(date, slot) {
		s.Remove(date, slot)
		return false
	}
	s.Add(date, slot)
	return s.Has(date, slot)
}

// Has reports whether slot is selected on date.
func (s Selection) Has(date, slot string) bool {
	slots := s[strings.TrimSpace(date)]
	slot = strings.TrimSpace(slot)
	i := sort.SearchStrings(slots, slot)
	return i < len(slots) && slots[i] == slot
}

// Clone returns a deep copy.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for date, slots := range s {
		out[date] = append([]string(nil), slots...)
	}
	return out
}

// Equal compares two selections day by day.
func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for date, slots := range s {
		theirs, ok := other[date]
		if !ok || len(theirs) != len(slots) {
			return false
		}
		for i := range slots {
			if slots[i] != theirs[i] {
				return false
			}
		}
	}
	return true
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s) == 0
}

// canonicalSlots trims, drops blanks, deduplicates and sorts.
func canonicalSlots(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, slot := range raw {
		slot = strings.TrimSpace(slot)
		if slot == "" {
			continue
		}
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		out = append(out, slot)
	}
	sort.Strings(out)
	return out
}
