package scheduling

import (
	"testing"
	"time"
)

// 2026-03-09 is a Monday.
func mondayMorning(loc *time.Location) time.Time {
	return time.Date(2026, time.March, 9, 8, 0, 0, 0, loc)
}

func window(day string, start, end TimeOfDay) AvailabilityWindow {
	return AvailabilityWindow{PractitionerID: 1, DayOfWeek: day, Start: start, End: end}
}

func TestGenerateSlotsSingleWindow(t *testing.T) {
	now := mondayMorning(time.UTC)

	// 09:00-12:00 with 30 minute sessions and the fixed 60 minute break:
	// slots step by 90 minutes and the start must lie strictly inside the
	// window, so only 09:00 and 10:30 fit.
	windows := []AvailabilityWindow{window("Mon", 9 * 60, 12 * 60)}

	got := GenerateSlots(windows, 30, 7, now)

	want := []Slot{
		{Date: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), Time: 9 * 60},
		{Date: time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC), Time: 10*60 + 30},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d slots %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Time != want[i].Time {
			t.Errorf("slot %d = {%v %v}, want {%v %v}", i, got[i].Date, got[i].Time, want[i].Date, want[i].Time)
		}
	}
}

func TestGenerateSlotsRepeatsWeekly(t *testing.T) {
	now := mondayMorning(time.UTC)
	windows := []AvailabilityWindow{window("Mon", 9 * 60, 11 * 60)}

	// Horizon of 14 days starting on a Monday covers exactly two Mondays.
	got := GenerateSlots(windows, 30, 14, now)

	var days []time.Time
	for _, s := range got {
		if len(days) == 0 || !days[len(days)-1].Equal(s.Date) {
			days = append(days, s.Date)
		}
	}
	if len(days) != 2 {
		t.Fatalf("expected slots on 2 Mondays, got days %v", days)
	}
	first := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	second := first.AddDate(0, 0, 7)
	if !days[0].Equal(first) || !days[1].Equal(second) {
		t.Fatalf("days = %v, want [%v %v]", days, first, second)
	}
}

func TestGenerateSlotsNoOverlap(t *testing.T) {
	now := mondayMorning(time.UTC)
	windows := []AvailabilityWindow{window("Mon", 8 * 60, 18 * 60)}
	duration := 45

	got := GenerateSlots(windows, duration, 7, now)
	if len(got) == 0 {
		t.Fatal("expected slots")
	}
	for i := 1; i < len(got); i++ {
		prevEnd := got[i-1].Time.Add(duration)
		if got[i].Time.Before(prevEnd) {
			t.Fatalf("slot %d at %v overlaps previous session ending %v", i, got[i].Time, prevEnd)
		}
		if gap := int(got[i].Time) - int(prevEnd); gap != BreakMinutes {
			t.Fatalf("gap between sessions = %d minutes, want %d", gap, BreakMinutes)
		}
	}
}

func TestGenerateSlotsWindowTooShort(t *testing.T) {
	now := mondayMorning(time.UTC)

	// A zero-length window yields nothing; a window shorter than one session
	// still yields its start slot because only the start needs to fit.
	if got := GenerateSlots([]AvailabilityWindow{window("Mon", 9 * 60, 9 * 60)}, 30, 7, now); len(got) != 0 {
		t.Fatalf("zero-length window produced %v", got)
	}
	got := GenerateSlots([]AvailabilityWindow{window("Mon", 9 * 60, 9*60 + 10)}, 30, 7, now)
	if len(got) != 1 || got[0].Time != 9*60 {
		t.Fatalf("short window = %v, want single 09:00 slot", got)
	}
}

func TestGenerateSlotsLastWindowPerDayWins(t *testing.T) {
	now := mondayMorning(time.UTC)
	windows := []AvailabilityWindow{
		window("Mon", 9 * 60, 12 * 60),
		window("Mon", 14 * 60, 16 * 60),
	}

	got := GenerateSlots(windows, 30, 7, now)
	for _, s := range got {
		if s.Time < 14*60 {
			t.Fatalf("slot %v comes from the overwritten window", s.Time)
		}
	}
}

func TestGenerateSlotsInvalidInputs(t *testing.T) {
	now := mondayMorning(time.UTC)
	windows := []AvailabilityWindow{window("Mon", 9 * 60, 12 * 60)}

	if got := GenerateSlots(windows, 0, 7, now); got != nil {
		t.Fatalf("duration 0 produced %v", got)
	}
	if got := GenerateSlots(windows, 30, 0, now); got != nil {
		t.Fatalf("horizon 0 produced %v", got)
	}
	if got := GenerateSlots(nil, 30, 7, now); len(got) != 0 {
		t.Fatalf("no windows produced %v", got)
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	now := mondayMorning(time.UTC)
	windows := []AvailabilityWindow{
		window("Mon", 9 * 60, 12 * 60),
		window("Wed", 10 * 60, 15 * 60),
	}

	a := GenerateSlots(windows, 40, 14, now)
	b := GenerateSlots(windows, 40, 14, now)
	if len(a) != len(b) {
		t.Fatalf("runs disagree: %d vs %d slots", len(a), len(b))
	}
	for i := range a {
		if !a[i].Date.Equal(b[i].Date) || a[i].Time != b[i].Time {
			t.Fatalf("slot %d differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestFilterSlotsDropsPastAndBooked(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, time.March, 9, 10, 0, 0, 0, loc)
	day := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)

	candidates := []Slot{
		{Date: day, Time: 9 * 60},       // past
		{Date: day, Time: 10 * 60},      // exactly now, not strictly future
		{Date: day, Time: 10*60 + 30},   // open
		{Date: day, Time: 12 * 60},      // booked
		{Date: day.AddDate(0, 0, 1), Time: 9 * 60}, // open, tomorrow
	}
	booked := []Slot{{Date: day, Time: 12 * 60}}

	got := FilterSlots(candidates, booked, now)

	want := []Slot{
		{Date: day, Time: 10*60 + 30},
		{Date: day.AddDate(0, 0, 1), Time: 9 * 60},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Date.Equal(want[i].Date) || got[i].Time != want[i].Time {
			t.Errorf("slot %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFilterSlotsBookedDateInDifferentZone(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now := time.Date(2026, time.March, 9, 8, 0, 0, 0, loc)

	// Candidate dates live in the deployment zone; a DATE column scans back
	// as UTC midnight. The same calendar day must still match.
	local := time.Date(2026, time.March, 9, 0, 0, 0, 0, loc)
	utc := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	candidates := []Slot{{Date: local, Time: 9 * 60}, {Date: local, Time: 11 * 60}}
	booked := []Slot{{Date: utc, Time: 9 * 60}}

	got := FilterSlots(candidates, booked, now)
	if len(got) != 1 || got[0].Time != 11*60 {
		t.Fatalf("got %v, want only the 11:00 slot", got)
	}
}

func TestFilterSlotsEmptyResultIsNotNil(t *testing.T) {
	now := time.Date(2026, time.March, 9, 20, 0, 0, 0, time.UTC)
	day := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)

	got := FilterSlots([]Slot{{Date: day, Time: 9 * 60}}, nil, now)
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}
