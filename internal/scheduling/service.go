package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MinCancelNotice is how long before the scheduled start a patient may still
// cancel. Exactly MinCancelNotice ahead is allowed.
const MinCancelNotice = 4 * time.Hour

var (
	ErrSlotExpired             = errors.New("slot is already in the past")
	ErrSlotAlreadyTaken        = errors.New("slot already has an active booking")
	ErrDuplicateSameDayBooking = errors.New("patient already has a booking on that day")
	ErrTooLateToCancel         = errors.New("booking starts in less than the cancellation notice")
	ErrWindowInUse             = errors.New("availability window has future booked appointments")
	ErrInvalidWindow           = errors.New("invalid availability window")
	ErrInvalidService          = errors.New("invalid service")
	ErrInvalidStatus           = errors.New("invalid booking status transition")
)

// Confirmation is the payload of the booking emails.
type Confirmation struct {
	Patient      string
	Service      string
	Practitioner string
	Date         time.Time
	Time         TimeOfDay
}

// Notifier delivers booking emails. Delivery is best effort everywhere: a
// failed send is logged and never turns a committed booking into an error.
type Notifier interface {
	BookingConfirmed(ctx context.Context, to string, c Confirmation) error
	BookingReminder(ctx context.Context, to string, c Confirmation) error
}

// SlotCache holds computed slot lists per service. May be absent.
type SlotCache interface {
	Get(ctx context.Context, serviceID int64) ([]PractitionerSlots, bool)
	Set(ctx context.Context, serviceID int64, slots []PractitionerSlots)
	Invalidate(ctx context.Context, serviceID int64)
}

// Scheduler is the scheduling core: slot listing, the booking conflict guard,
// the cancellation policy and the practitioner-side transitions. It is
// stateless per call and safe for concurrent use; the store's unique
// active-slot constraint is what serializes racing bookings.
type Scheduler struct {
	repo     Repository
	notifier Notifier
	cache    SlotCache
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler wires the scheduling core. notifier and cache may be nil; loc
// is the deployment's local time zone, the one all date+time comparisons
// happen in.
func NewScheduler(repo Repository, notifier Notifier, cache SlotCache, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		loc:      loc,
		logger:   logger,
	}
	s.now = func() time.Time { return time.Now().In(loc) }
	return s
}

// GetAvailableSlots returns, per practitioner offering the service, every
// still-open slot over the horizon. Practitioners whose slots are all taken
// or past appear with an empty list.
func (s *Scheduler) GetAvailableSlots(ctx context.Context, serviceID int64) ([]PractitionerSlots, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, serviceID); ok {
			return cached, nil
		}
	}

	rows, err := s.repo.ListWindowsByService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list windows by service: %w", err)
	}

	now := s.now()
	today := DateOf(now)

	// Group windows per practitioner, keeping the store's ordering.
	var order []int64
	windows := make(map[int64][]AvailabilityWindow)
	names := make(map[int64]string)
	durations := make(map[int64]int)
	for _, row := range rows {
		if _, seen := windows[row.PractitionerID]; !seen {
			order = append(order, row.PractitionerID)
			names[row.PractitionerID] = row.PractitionerName
			durations[row.PractitionerID] = row.DurationMinutes
		}
		windows[row.PractitionerID] = append(windows[row.PractitionerID], row.Window)
	}

	result := make([]PractitionerSlots, 0, len(order))
	for _, pid := range order {
		candidates := GenerateSlots(windows[pid], durations[pid], HorizonDays, now)

		booked, err := s.repo.ListBookedSlots(ctx, pid, today, today.AddDate(0, 0, HorizonDays))
		if err != nil {
			return nil, fmt.Errorf("list booked slots: %w", err)
		}

		result = append(result, PractitionerSlots{
			PractitionerID: pid,
			Practitioner:   names[pid],
			Slots:          FilterSlots(candidates, booked, now),
		})
	}

	if s.cache != nil {
		s.cache.Set(ctx, serviceID, result)
	}

	return result, nil
}

// CreateBooking validates and commits one booking. Preconditions run in a
// fixed order and the first failure wins: expired slot, same-day duplicate,
// taken slot. The taken-slot pre-check is only a fast path; the store's
// unique active-slot constraint is what resolves two racing requests, and
// its violation surfaces here as ErrSlotAlreadyTaken.
func (s *Scheduler) CreateBooking(ctx context.Context, patientID, practitionerID int64, date time.Time, t TimeOfDay) (*Booking, error) {
	now := s.now()

	if !t.On(date, s.loc).After(now) {
		return nil, ErrSlotExpired
	}

	dup, err := s.repo.HasBookedOnDate(ctx, patientID, date)
	if err != nil {
		return nil, fmt.Errorf("check same-day booking: %w", err)
	}
	if dup {
		return nil, ErrDuplicateSameDayBooking
	}

	taken, err := s.repo.ExistsBookedSlot(ctx, practitionerID, date, t)
	if err != nil {
		return nil, fmt.Errorf("check slot taken: %w", err)
	}
	if taken {
		return nil, ErrSlotAlreadyTaken
	}

	booking := &Booking{
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Date:           DateOf(date),
		Time:           t,
		Status:         StatusBooked,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		// The partial unique index catches the race the pre-check missed.
		if errors.Is(err, ErrSlotAlreadyTaken) {
			return nil, ErrSlotAlreadyTaken
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking created",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("patient_id", patientID),
		zap.Int64("practitioner_id", practitionerID),
		zap.String("date", booking.Date.Format("2006-01-02")),
		zap.String("time", t.String()),
	)

	s.invalidateForPractitioner(ctx, practitionerID)
	s.sendConfirmation(booking)

	return booking, nil
}

// sendConfirmation dispatches the confirmation email off the request path.
// The booking is already committed; nothing that happens here may undo it.
func (s *Scheduler) sendConfirmation(b *Booking) {
	if s.notifier == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		patient, err := s.repo.GetUser(ctx, b.PatientID)
		if err != nil {
			s.logger.Error("confirmation lookup failed", zap.Int64("booking_id", b.ID), zap.Error(err))
			return
		}
		profile, err := s.repo.GetPractitionerProfile(ctx, b.PractitionerID)
		if err != nil {
			s.logger.Error("confirmation lookup failed", zap.Int64("booking_id", b.ID), zap.Error(err))
			return
		}

		c := Confirmation{
			Patient:      patient.FullName,
			Service:      profile.ServiceName,
			Practitioner: profile.Name,
			Date:         b.Date,
			Time:         b.Time,
		}
		if err := s.notifier.BookingConfirmed(ctx, patient.Email, c); err != nil {
			s.logger.Error("confirmation email failed",
				zap.Int64("booking_id", b.ID),
				zap.String("to", patient.Email),
				zap.Error(err),
			)
		}
	}()
}

// CancelBooking is the patient self-cancel path: the row is deleted outright
// so the slot reopens immediately. Practitioner-side cancellation keeps the
// row, see SetBookingStatus.
func (s *Scheduler) CancelBooking(ctx context.Context, bookingID, patientID int64) error {
	b, err := s.repo.GetBookingForPatient(ctx, bookingID, patientID)
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("load booking: %w", err)
	}

	now := s.now()
	if b.Time.On(b.Date, s.loc).Sub(now) < MinCancelNotice {
		return ErrTooLateToCancel
	}

	if _, err := s.repo.DeleteBooking(ctx, bookingID, patientID); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	s.logger.Info("booking cancelled by patient",
		zap.Int64("booking_id", bookingID),
		zap.Int64("patient_id", patientID),
	)

	s.invalidateForPractitioner(ctx, b.PractitionerID)
	return nil
}

// SetBookingStatus performs the practitioner-side one-way transitions
// booked→completed and booked→cancelled. A booking that does not belong to
// the practitioner, or is not in booked state, results in a zero-row update
// and is reported as success.
func (s *Scheduler) SetBookingStatus(ctx context.Context, bookingID, practitionerID int64, status BookingStatus) error {
	if status != StatusCompleted && status != StatusCancelled {
		return ErrInvalidStatus
	}

	n, err := s.repo.UpdateBookingStatus(ctx, bookingID, practitionerID, status)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if n > 0 {
		s.logger.Info("booking status updated",
			zap.Int64("booking_id", bookingID),
			zap.Int64("practitioner_id", practitionerID),
			zap.String("status", string(status)),
		)
		s.invalidateForPractitioner(ctx, practitionerID)
	}
	return nil
}

// SetBookingNotes updates the notes of a booking owned by the practitioner.
// Zero rows affected is a silent no-op.
func (s *Scheduler) SetBookingNotes(ctx context.Context, bookingID, practitionerID int64, notes string) error {
	if _, err := s.repo.SetBookingNotes(ctx, bookingID, practitionerID, notes); err != nil {
		return fmt.Errorf("set booking notes: %w", err)
	}
	return nil
}

// UpsertWindow creates or replaces the practitioner's window for one weekday.
func (s *Scheduler) UpsertWindow(ctx context.Context, w *AvailabilityWindow) error {
	if !ValidDayLabel(w.DayOfWeek) {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidWindow, w.DayOfWeek)
	}
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidWindow, w.Start, w.End)
	}

	if err := s.repo.UpsertWindow(ctx, w); err != nil {
		return fmt.Errorf("upsert window: %w", err)
	}

	s.invalidateForPractitioner(ctx, w.PractitionerID)
	return nil
}

// DeleteWindow removes a weekly window unless its practitioner still has any
// future booked appointment. The check is deliberately practitioner-wide
// rather than per weekday; coarser but safe.
func (s *Scheduler) DeleteWindow(ctx context.Context, windowID int64) error {
	w, err := s.repo.GetWindowByID(ctx, windowID)
	if err != nil {
		if errors.Is(err, ErrWindowNotFound) {
			return ErrWindowNotFound
		}
		return fmt.Errorf("load window: %w", err)
	}

	n, err := s.repo.CountFutureBooked(ctx, w.PractitionerID, DateOf(s.now()))
	if err != nil {
		return fmt.Errorf("count future bookings: %w", err)
	}
	if n > 0 {
		return ErrWindowInUse
	}

	if err := s.repo.DeleteWindow(ctx, windowID); err != nil {
		return fmt.Errorf("delete window: %w", err)
	}

	s.invalidateForPractitioner(ctx, w.PractitionerID)
	return nil
}

func (s *Scheduler) ListWindows(ctx context.Context, practitionerID int64) ([]AvailabilityWindow, error) {
	return s.repo.ListWindows(ctx, practitionerID)
}

// Service catalogue

func (s *Scheduler) ListServices(ctx context.Context) ([]Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *Scheduler) CreateService(ctx context.Context, svc *Service) error {
	if svc.Name == "" || svc.DurationMinutes <= 0 || svc.Price < 0 {
		return ErrInvalidService
	}
	return s.repo.CreateService(ctx, svc)
}

func (s *Scheduler) DeleteService(ctx context.Context, id int64) error {
	return s.repo.DeleteService(ctx, id)
}

func (s *Scheduler) ListPractitioners(ctx context.Context) ([]PractitionerListing, error) {
	return s.repo.ListPractitioners(ctx)
}

// Booking views

func (s *Scheduler) ListPatientBookings(ctx context.Context, patientID int64) ([]BookingDetail, error) {
	return s.repo.ListBookingsByPatient(ctx, patientID, s.now())
}

func (s *Scheduler) ListPractitionerBookings(ctx context.Context, practitionerID int64, f BookingFilter) ([]BookingDetail, error) {
	if f == "" {
		f = FilterUpcoming
	}
	if !f.Valid() {
		return nil, fmt.Errorf("unknown booking filter %q", f)
	}
	return s.repo.ListBookingsByPractitioner(ctx, practitionerID, f, s.now())
}

func (s *Scheduler) PractitionerDashboard(ctx context.Context, practitionerID int64) (*DashboardStats, error) {
	return s.repo.PractitionerStats(ctx, practitionerID, s.now())
}

// SendDueReminders mails every patient whose booked appointment starts within
// lead and has not been reminded yet. Individual failures are logged and the
// sweep carries on; the worker calls this periodically.
func (s *Scheduler) SendDueReminders(ctx context.Context, lead time.Duration) error {
	now := s.now()

	due, err := s.repo.FindDueReminders(ctx, now, lead)
	if err != nil {
		return fmt.Errorf("find due reminders: %w", err)
	}

	for _, r := range due {
		if s.notifier != nil {
			c := Confirmation{
				Patient:      r.PatientName,
				Service:      r.ServiceName,
				Practitioner: r.PractitionerName,
				Date:         r.Date,
				Time:         r.Time,
			}
			if err := s.notifier.BookingReminder(ctx, r.PatientEmail, c); err != nil {
				s.logger.Error("reminder email failed",
					zap.Int64("booking_id", r.BookingID),
					zap.String("to", r.PatientEmail),
					zap.Error(err),
				)
				continue
			}
		}
		if err := s.repo.MarkReminderSent(ctx, r.BookingID, now); err != nil {
			s.logger.Error("mark reminder sent failed", zap.Int64("booking_id", r.BookingID), zap.Error(err))
		}
	}

	return nil
}

// invalidateForPractitioner drops the cached slot list of the practitioner's
// service. Best effort; a stale cache only lives until its TTL.
func (s *Scheduler) invalidateForPractitioner(ctx context.Context, practitionerID int64) {
	if s.cache == nil {
		return
	}
	profile, err := s.repo.GetPractitionerProfile(ctx, practitionerID)
	if err != nil {
		s.logger.Warn("slot cache invalidation skipped", zap.Int64("practitioner_id", practitionerID), zap.Error(err))
		return
	}
	s.cache.Invalidate(ctx, profile.ServiceID)
}
