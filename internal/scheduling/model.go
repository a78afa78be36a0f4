package scheduling

import "time"

type BookingStatus string

const (
	StatusBooked    BookingStatus = "booked"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// BookingFilter selects which bookings a practitioner sees.
type BookingFilter string

const (
	FilterUpcoming  BookingFilter = "upcoming"
	FilterCompleted BookingFilter = "completed"
	FilterMissed    BookingFilter = "missed"
	FilterCancelled BookingFilter = "cancelled"
	FilterAll       BookingFilter = "all"
)

func (f BookingFilter) Valid() bool {
	switch f {
	case FilterUpcoming, FilterCompleted, FilterMissed, FilterCancelled, FilterAll:
		return true
	}
	return false
}

type Service struct {
	ID              int64
	Name            string
	Price           float64
	DurationMinutes int
}

type User struct {
	ID       int64
	FullName string
	Email    string
	Role     string
}

type Practitioner struct {
	ID        int64
	UserID    int64
	ServiceID int64
	Bio       string
}

// PractitionerListing is the joined row shown on admin and booking screens.
type PractitionerListing struct {
	ID          int64
	Name        string
	ServiceID   int64
	ServiceName string
}

// PractitionerProfile carries everything the booking flow needs to know about
// a practitioner in one read: display names for the confirmation email and the
// service linkage for cache invalidation.
type PractitionerProfile struct {
	ID              int64
	UserID          int64
	ServiceID       int64
	Name            string
	ServiceName     string
	DurationMinutes int
}

// AvailabilityWindow is one recurring weekly working interval. At most one
// window exists per (practitioner, day); writing a second one for the same day
// overwrites the first.
type AvailabilityWindow struct {
	ID             int64
	PractitionerID int64
	DayOfWeek      string // "Mon" .. "Sun"
	Start          TimeOfDay
	End            TimeOfDay
}

type Booking struct {
	ID             int64
	PatientID      int64
	PractitionerID int64
	Date           time.Time // calendar date, midnight
	Time           TimeOfDay
	Status         BookingStatus
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingDetail is a booking joined with the display names around it.
type BookingDetail struct {
	Booking
	Patient      string
	Practitioner string
	Service      string
}

// Slot is a single bookable (date, time) candidate for one practitioner.
type Slot struct {
	Date time.Time
	Time TimeOfDay
}

// PractitionerSlots groups the open slots of one practitioner, in
// chronological order. Slots is never nil, it is empty when everything is
// taken or past.
type PractitionerSlots struct {
	PractitionerID int64
	Practitioner   string
	Slots          []Slot
}

// ScheduleRow is the flattened (practitioner, window, duration) row used as
// input to slot generation for a whole service.
type ScheduleRow struct {
	PractitionerID   int64
	PractitionerName string
	DurationMinutes  int
	Window           AvailabilityWindow
}

type DashboardStats struct {
	Today     int
	Upcoming  int
	Completed int
}

// ReminderRow is one booking that is due an upcoming-appointment email.
type ReminderRow struct {
	BookingID        int64
	PatientName      string
	PatientEmail     string
	PractitionerName string
	ServiceName      string
	Date             time.Time
	Time             TimeOfDay
}
