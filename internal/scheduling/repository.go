package scheduling

import (
	"context"
	"errors"
	"time"
)

var (
	ErrServiceNotFound      = errors.New("service not found")
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrWindowNotFound       = errors.New("availability window not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrUserNotFound         = errors.New("user not found")
)

// Repository contains all store interactions needed by the service.
type Repository interface {
	// Services
	ListServices(ctx context.Context) ([]Service, error)
	GetServiceByID(ctx context.Context, id int64) (*Service, error)
	CreateService(ctx context.Context, s *Service) error
	DeleteService(ctx context.Context, id int64) error

	// Practitioners and users
	ListPractitioners(ctx context.Context) ([]PractitionerListing, error)
	GetPractitionerProfile(ctx context.Context, id int64) (*PractitionerProfile, error)
	GetUser(ctx context.Context, id int64) (*User, error)

	// Availability windows
	ListWindows(ctx context.Context, practitionerID int64) ([]AvailabilityWindow, error)
	ListWindowsByService(ctx context.Context, serviceID int64) ([]ScheduleRow, error)
	GetWindowByID(ctx context.Context, id int64) (*AvailabilityWindow, error)
	UpsertWindow(ctx context.Context, w *AvailabilityWindow) error
	DeleteWindow(ctx context.Context, id int64) error

	// Booked-slot reads for filtering and conflict checks
	ListBookedSlots(ctx context.Context, practitionerID int64, from, to time.Time) ([]Slot, error)
	ExistsBookedSlot(ctx context.Context, practitionerID int64, date time.Time, t TimeOfDay) (bool, error)
	HasBookedOnDate(ctx context.Context, patientID int64, date time.Time) (bool, error)
	CountFutureBooked(ctx context.Context, practitionerID int64, from time.Time) (int, error)

	// Booking writes. CreateBooking must surface a violation of the active
	// slot uniqueness as ErrSlotAlreadyTaken; the store, not the caller, is
	// what serializes two racing creates for the same slot.
	CreateBooking(ctx context.Context, b *Booking) error
	GetBookingForPatient(ctx context.Context, id, patientID int64) (*Booking, error)
	DeleteBooking(ctx context.Context, id, patientID int64) (int64, error)
	UpdateBookingStatus(ctx context.Context, id, practitionerID int64, status BookingStatus) (int64, error)
	SetBookingNotes(ctx context.Context, id, practitionerID int64, notes string) (int64, error)

	// Booking views
	ListBookingsByPatient(ctx context.Context, patientID int64, now time.Time) ([]BookingDetail, error)
	ListBookingsByPractitioner(ctx context.Context, practitionerID int64, f BookingFilter, now time.Time) ([]BookingDetail, error)
	PractitionerStats(ctx context.Context, practitionerID int64, now time.Time) (*DashboardStats, error)

	// Reminder worker
	FindDueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]ReminderRow, error)
	MarkReminderSent(ctx context.Context, bookingID int64, at time.Time) error
}
