package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PgRepository)(nil)

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

// pgTime converts a TimeOfDay to the wire representation of a TIME column.
func pgTime(t TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: int64(t) * 60 * 1_000_000, Valid: true}
}

func fromPgTime(v pgtype.Time) TimeOfDay {
	return TimeOfDay(v.Microseconds / 60_000_000)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var start, end pgtype.Time

	err := row.Scan(&w.ID, &w.PractitionerID, &w.DayOfWeek, &start, &end)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Start = fromPgTime(start)
	w.End = fromPgTime(end)
	return &w, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var t pgtype.Time
	var notes *string

	err := row.Scan(
		&b.ID,
		&b.PatientID,
		&b.PractitionerID,
		&b.Date,
		&t,
		&b.Status,
		&notes,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	b.Time = fromPgTime(t)
	if notes != nil {
		b.Notes = *notes
	}
	return &b, nil
}

// Services

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, price, duration_minutes
		FROM services
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id int64) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price, duration_minutes
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) CreateService(ctx context.Context, s *Service) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO services (name, price, duration_minutes)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.Name, s.Price, s.DurationMinutes).Scan(&s.ID)
}

func (r *PgRepository) DeleteService(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return err
}

// Practitioners and users

func (r *PgRepository) ListPractitioners(ctx context.Context) ([]PractitionerListing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, u.full_name, s.id, s.name
		FROM practitioners p
		JOIN users u ON p.user_id = u.id
		JOIN services s ON p.service_id = s.id
		ORDER BY u.full_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PractitionerListing
	for rows.Next() {
		var l PractitionerListing
		if err := rows.Scan(&l.ID, &l.Name, &l.ServiceID, &l.ServiceName); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetPractitionerProfile(ctx context.Context, id int64) (*PractitionerProfile, error) {
	var p PractitionerProfile
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.user_id, p.service_id, u.full_name, s.name, s.duration_minutes
		FROM practitioners p
		JOIN users u ON p.user_id = u.id
		JOIN services s ON p.service_id = s.id
		WHERE p.id = $1
	`, id).Scan(&p.ID, &p.UserID, &p.ServiceID, &p.Name, &p.ServiceName, &p.DurationMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPractitionerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PgRepository) GetUser(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `
		SELECT id, full_name, email, role
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Availability windows

func (r *PgRepository) ListWindows(ctx context.Context, practitionerID int64) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, practitioner_id, day_of_week, start_time, end_time
		FROM availability
		WHERE practitioner_id = $1
		ORDER BY id
	`, practitionerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListWindowsByService(ctx context.Context, serviceID int64) ([]ScheduleRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT
			p.id,
			u.full_name,
			s.duration_minutes,
			a.id,
			a.day_of_week,
			a.start_time,
			a.end_time
		FROM practitioners p
		JOIN users u ON p.user_id = u.id
		JOIN services s ON p.service_id = s.id
		JOIN availability a ON a.practitioner_id = p.id
		WHERE p.service_id = $1
		ORDER BY u.full_name, p.id, a.id
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduleRow
	for rows.Next() {
		var sr ScheduleRow
		var start, end pgtype.Time
		if err := rows.Scan(
			&sr.PractitionerID,
			&sr.PractitionerName,
			&sr.DurationMinutes,
			&sr.Window.ID,
			&sr.Window.DayOfWeek,
			&start,
			&end,
		); err != nil {
			return nil, err
		}
		sr.Window.PractitionerID = sr.PractitionerID
		sr.Window.Start = fromPgTime(start)
		sr.Window.End = fromPgTime(end)
		result = append(result, sr)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetWindowByID(ctx context.Context, id int64) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, practitioner_id, day_of_week, start_time, end_time
		FROM availability
		WHERE id = $1
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) UpsertWindow(ctx context.Context, w *AvailabilityWindow) error {
	if w.ID != 0 {
		_, err := r.pool.Exec(ctx, `
			UPDATE availability
			SET practitioner_id = $2, day_of_week = $3, start_time = $4, end_time = $5
			WHERE id = $1
		`, w.ID, w.PractitionerID, w.DayOfWeek, pgTime(w.Start), pgTime(w.End))
		return err
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO availability (practitioner_id, day_of_week, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (practitioner_id, day_of_week)
		DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time
		RETURNING id
	`, w.PractitionerID, w.DayOfWeek, pgTime(w.Start), pgTime(w.End)).Scan(&w.ID)
}

func (r *PgRepository) DeleteWindow(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	return err
}

// Booked-slot reads

func (r *PgRepository) ListBookedSlots(ctx context.Context, practitionerID int64, from, to time.Time) ([]Slot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT booking_date, booking_time
		FROM bookings
		WHERE practitioner_id = $1
		  AND status = 'booked'
		  AND booking_date >= $2::date
		  AND booking_date < $3::date
		ORDER BY booking_date, booking_time
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		var s Slot
		var t pgtype.Time
		if err := rows.Scan(&s.Date, &t); err != nil {
			return nil, err
		}
		s.Time = fromPgTime(t)
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *PgRepository) ExistsBookedSlot(ctx context.Context, practitionerID int64, date time.Time, t TimeOfDay) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1
		FROM bookings
		WHERE practitioner_id = $1
		  AND booking_date = $2::date
		  AND booking_time = $3
		  AND status = 'booked'
		LIMIT 1
	`, practitionerID, date, pgTime(t)).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PgRepository) HasBookedOnDate(ctx context.Context, patientID int64, date time.Time) (bool, error) {
	var one int
	err := r.pool.QueryRow(ctx, `
		SELECT 1
		FROM bookings
		WHERE patient_id = $1
		  AND booking_date = $2::date
		  AND status = 'booked'
		LIMIT 1
	`, patientID, date).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PgRepository) CountFutureBooked(ctx context.Context, practitionerID int64, from time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE practitioner_id = $1
		  AND booking_date >= $2::date
		  AND status = 'booked'
	`, practitionerID, from).Scan(&n)
	return n, err
}

// Booking writes

func (r *PgRepository) CreateBooking(ctx context.Context, b *Booking) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (patient_id, practitioner_id, booking_date, booking_time, status)
		VALUES ($1, $2, $3::date, $4, $5)
		RETURNING id, created_at, updated_at
	`, b.PatientID, b.PractitionerID, b.Date, pgTime(b.Time), b.Status).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotAlreadyTaken
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *PgRepository) GetBookingForPatient(ctx context.Context, id, patientID int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, patient_id, practitioner_id, booking_date, booking_time, status, notes, created_at, updated_at
		FROM bookings
		WHERE id = $1 AND patient_id = $2
	`, id, patientID)
	return scanBooking(row)
}

func (r *PgRepository) DeleteBooking(ctx context.Context, id, patientID int64) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM bookings
		WHERE id = $1 AND patient_id = $2
	`, id, patientID)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgRepository) UpdateBookingStatus(ctx context.Context, id, practitionerID int64, status BookingStatus) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET status = $3,
		    updated_at = now()
		WHERE id = $1
		  AND practitioner_id = $2
		  AND status = 'booked'
	`, id, practitionerID, status)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgRepository) SetBookingNotes(ctx context.Context, id, practitionerID int64, notes string) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET notes = $3,
		    updated_at = now()
		WHERE id = $1
		  AND practitioner_id = $2
	`, id, practitionerID, notes)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// Booking views

const bookingDetailColumns = `
	b.id, b.patient_id, b.practitioner_id, b.booking_date, b.booking_time,
	b.status, b.notes, b.created_at, b.updated_at,
	pu.full_name, prau.full_name, s.name
`

const bookingDetailJoins = `
	FROM bookings b
	JOIN users pu ON b.patient_id = pu.id
	JOIN practitioners p ON b.practitioner_id = p.id
	JOIN users prau ON p.user_id = prau.id
	JOIN services s ON p.service_id = s.id
`

func scanBookingDetail(rows pgx.Rows) (*BookingDetail, error) {
	var d BookingDetail
	var t pgtype.Time
	var notes *string

	err := rows.Scan(
		&d.ID,
		&d.PatientID,
		&d.PractitionerID,
		&d.Date,
		&t,
		&d.Status,
		&notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.Patient,
		&d.Practitioner,
		&d.Service,
	)
	if err != nil {
		return nil, err
	}

	d.Time = fromPgTime(t)
	if notes != nil {
		d.Notes = *notes
	}
	return &d, nil
}

func (r *PgRepository) collectBookingDetails(ctx context.Context, query string, args ...any) ([]BookingDetail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListBookingsByPatient(ctx context.Context, patientID int64, now time.Time) ([]BookingDetail, error) {
	return r.collectBookingDetails(ctx, `
		SELECT `+bookingDetailColumns+bookingDetailJoins+`
		WHERE b.patient_id = $1
		  AND (b.booking_date + b.booking_time) >= $2::timestamp
		ORDER BY b.booking_date, b.booking_time
	`, patientID, now)
}

func (r *PgRepository) ListBookingsByPractitioner(ctx context.Context, practitionerID int64, f BookingFilter, now time.Time) ([]BookingDetail, error) {
	var condition string
	args := []any{practitionerID}
	switch f {
	case FilterUpcoming:
		condition = `AND b.status = 'booked' AND (b.booking_date + b.booking_time) >= $2::timestamp`
		args = append(args, now)
	case FilterMissed:
		condition = `AND b.status = 'booked' AND (b.booking_date + b.booking_time) < $2::timestamp`
		args = append(args, now)
	case FilterCompleted:
		condition = `AND b.status = 'completed'`
	case FilterCancelled:
		condition = `AND b.status = 'cancelled'`
	default: // FilterAll
	}

	return r.collectBookingDetails(ctx, `
		SELECT `+bookingDetailColumns+bookingDetailJoins+`
		WHERE b.practitioner_id = $1
		`+condition+`
		ORDER BY b.booking_date, b.booking_time
	`, args...)
}

func (r *PgRepository) PractitionerStats(ctx context.Context, practitionerID int64, now time.Time) (*DashboardStats, error) {
	var st DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'booked' AND booking_date = $2::date),
			COUNT(*) FILTER (WHERE status = 'booked' AND (booking_date + booking_time) > $3::timestamp),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM bookings
		WHERE practitioner_id = $1
	`, practitionerID, now, now).Scan(&st.Today, &st.Upcoming, &st.Completed)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Reminder worker

func (r *PgRepository) FindDueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]ReminderRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT b.id, pu.full_name, pu.email, prau.full_name, s.name, b.booking_date, b.booking_time
		`+bookingDetailJoins+`
		WHERE b.status = 'booked'
		  AND b.reminder_sent_at IS NULL
		  AND (b.booking_date + b.booking_time) > $1::timestamp
		  AND (b.booking_date + b.booking_time) <= $1::timestamp + make_interval(secs => $2)
		ORDER BY b.booking_date, b.booking_time
	`, now, lead.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReminderRow
	for rows.Next() {
		var rr ReminderRow
		var t pgtype.Time
		if err := rows.Scan(&rr.BookingID, &rr.PatientName, &rr.PatientEmail, &rr.PractitionerName, &rr.ServiceName, &rr.Date, &t); err != nil {
			return nil, err
		}
		rr.Time = fromPgTime(t)
		result = append(result, rr)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkReminderSent(ctx context.Context, bookingID int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET reminder_sent_at = $2
		WHERE id = $1
	`, bookingID, at)
	return err
}
