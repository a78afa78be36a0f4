package scheduling

import "time"

const (
	// HorizonDays is how far ahead slots are offered.
	HorizonDays = 14

	// BreakMinutes is the fixed buffer between consecutive slots.
	BreakMinutes = 60
)

// GenerateSlots expands a practitioner's weekly windows into concrete
// candidate slots for every day in [today, today+horizonDays). Slots start at
// the window's start time and advance in steps of duration+break, so two
// consecutive slots can never overlap. A step that would start at or after the
// window's end produces nothing; a window shorter than one step simply yields
// an empty day.
//
// The result is a pure function of its inputs. now is only used for its
// calendar day and location; past slots are dropped later by FilterSlots.
func GenerateSlots(windows []AvailabilityWindow, durationMinutes, horizonDays int, now time.Time) []Slot {
	if durationMinutes <= 0 || horizonDays <= 0 {
		return nil
	}

	// One window per weekday; a later entry for the same day wins, matching
	// the upsert semantics of the availability store.
	byDay := make(map[string]AvailabilityWindow, len(windows))
	for _, w := range windows {
		byDay[w.DayOfWeek] = w
	}

	step := durationMinutes + BreakMinutes
	today := DateOf(now)

	var slots []Slot
	for i := 0; i < horizonDays; i++ {
		date := today.AddDate(0, 0, i)
		w, ok := byDay[DayLabel(date.Weekday())]
		if !ok {
			continue
		}
		for t := w.Start; t.Before(w.End); t = t.Add(step) {
			slots = append(slots, Slot{Date: date, Time: t})
		}
	}

	return slots
}

type slotKey struct {
	year  int
	month time.Month
	day   int
	tod   TimeOfDay
}

func keyOf(s Slot) slotKey {
	y, m, d := s.Date.Date()
	return slotKey{year: y, month: m, day: d, tod: s.Time}
}

// FilterSlots removes candidates that are already booked or whose instant is
// not strictly after now. Order is preserved. Past slots disappear silently;
// this is a live booking view, not a report.
func FilterSlots(candidates, booked []Slot, now time.Time) []Slot {
	taken := make(map[slotKey]struct{}, len(booked))
	for _, b := range booked {
		taken[keyOf(b)] = struct{}{}
	}

	loc := now.Location()
	kept := make([]Slot, 0, len(candidates))
	for _, s := range candidates {
		if !s.Time.On(s.Date, loc).After(now) {
			continue
		}
		if _, ok := taken[keyOf(s)]; ok {
			continue
		}
		kept = append(kept, s)
	}

	return kept
}
