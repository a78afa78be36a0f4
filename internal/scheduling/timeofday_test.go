package scheduling

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "09:30", want: 9*60 + 30},
		{in: "00:00", want: 0},
		{in: "23:59", want: 23*60 + 59},
		{in: "14:15:30", want: 14*60 + 15}, // seconds discarded
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "nope", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	tests := []struct {
		in   TimeOfDay
		want string
	}{
		{0, "00:00"},
		{9 * 60, "09:00"},
		{9*60 + 5, "09:05"},
		{23*60 + 59, "23:59"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("TimeOfDay(%d).String() = %q, want %q", int(tc.in), got, tc.want)
		}
	}
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// The date carries a UTC midnight, as a DATE column scan would; On must
	// still produce the wall-clock instant in the given location.
	date := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	tod := TimeOfDay(10*60 + 30)

	got := tod.On(date, loc)
	want := time.Date(2026, time.March, 9, 10, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("On() = %v, want %v", got, want)
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	in := time.Date(2026, time.June, 3, 17, 45, 12, 999, loc)
	got := DateOf(in)
	want := time.Date(2026, time.June, 3, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("DateOf(%v) = %v, want %v", in, got, want)
	}
	if got.Location() != loc {
		t.Fatalf("DateOf dropped the location: got %v", got.Location())
	}
}

func TestDayLabel(t *testing.T) {
	tests := []struct {
		day  time.Weekday
		want string
	}{
		{time.Monday, "Mon"},
		{time.Tuesday, "Tue"},
		{time.Saturday, "Sat"},
		{time.Sunday, "Sun"},
	}
	for _, tc := range tests {
		if got := DayLabel(tc.day); got != tc.want {
			t.Errorf("DayLabel(%v) = %q, want %q", tc.day, got, tc.want)
		}
	}
}

func TestValidDayLabel(t *testing.T) {
	for _, d := range []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"} {
		if !ValidDayLabel(d) {
			t.Errorf("ValidDayLabel(%q) = false", d)
		}
	}
	for _, d := range []string{"", "mon", "Monday", "Mo", "Mon "} {
		if ValidDayLabel(d) {
			t.Errorf("ValidDayLabel(%q) = true", d)
		}
	}
}
