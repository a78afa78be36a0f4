package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medibook/appointment-scheduling/internal/scheduling"
)

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func toSlotResponses(slots []scheduling.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{
			Date: s.Date.Format("2006-01-02"),
			Time: s.Time.String(),
		})
	}
	return out
}

func toBookingDetailResponses(details []scheduling.BookingDetail) []BookingDetailResponse {
	out := make([]BookingDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, BookingDetailResponse{
			ID:           d.ID,
			Date:         d.Date.Format("2006-01-02"),
			Time:         d.Time.String(),
			Status:       string(d.Status),
			Notes:        d.Notes,
			Patient:      d.Patient,
			Practitioner: d.Practitioner,
			Service:      d.Service,
		})
	}
	return out
}

// Slots

func listSlotsHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a positive integer")
			return
		}

		grouped, err := svc.GetAvailableSlots(r.Context(), serviceID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PractitionerSlotsResponse, 0, len(grouped))
		for _, g := range grouped {
			resp = append(resp, PractitionerSlotsResponse{
				PractitionerID: g.PractitionerID,
				Practitioner:   g.Practitioner,
				Slots:          toSlotResponses(g.Slots),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// Bookings

func createBookingHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.PatientID <= 0 || req.PractitionerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "patient_id and practitioner_id are required")
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		tod, err := scheduling.ParseTimeOfDay(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		booking, err := svc.CreateBooking(r.Context(), req.PatientID, req.PractitionerID, date, tod)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookingResponse{
			ID:             booking.ID,
			PatientID:      booking.PatientID,
			PractitionerID: booking.PractitionerID,
			Date:           booking.Date.Format("2006-01-02"),
			Time:           booking.Time.String(),
			Status:         string(booking.Status),
		})
	}
}

func cancelBookingHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a positive integer")
			return
		}

		var req CancelBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "patient_id is required")
			return
		}

		if err := svc.CancelBooking(r.Context(), bookingID, req.PatientID); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func bookingStatusHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a positive integer")
			return
		}

		var req BookingStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PractitionerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "practitioner_id is required")
			return
		}

		err := svc.SetBookingStatus(r.Context(), bookingID, req.PractitionerID, scheduling.BookingStatus(req.Status))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func bookingNotesHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a positive integer")
			return
		}

		var req BookingNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PractitionerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "practitioner_id is required")
			return
		}

		if err := svc.SetBookingNotes(r.Context(), bookingID, req.PractitionerID, req.Notes); err != nil {
			handleBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func patientBookingsHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patientID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a positive integer")
			return
		}

		details, err := svc.ListPatientBookings(r.Context(), patientID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toBookingDetailResponses(details))
	}
}

func practitionerBookingsHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a positive integer")
			return
		}

		filter := scheduling.BookingFilter(r.URL.Query().Get("filter"))
		details, err := svc.ListPractitionerBookings(r.Context(), practitionerID, filter)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toBookingDetailResponses(details))
	}
}

func practitionerDashboardHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a positive integer")
			return
		}

		stats, err := svc.PractitionerDashboard(r.Context(), practitionerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DashboardResponse{
			Today:     stats.Today,
			Upcoming:  stats.Upcoming,
			Completed: stats.Completed,
		})
	}
}

// Services

func listServicesHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := svc.ListServices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID:              s.ID,
				Name:            s.Name,
				Price:           s.Price,
				DurationMinutes: s.DurationMinutes,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createServiceHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		s := scheduling.Service{
			Name:            req.Name,
			Price:           req.Price,
			DurationMinutes: req.DurationMinutes,
		}
		if err := svc.CreateService(r.Context(), &s); err != nil {
			handleAdminError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ServiceResponse{
			ID:              s.ID,
			Name:            s.Name,
			Price:           s.Price,
			DurationMinutes: s.DurationMinutes,
		})
	}
}

func deleteServiceHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a positive integer")
			return
		}

		if err := svc.DeleteService(r.Context(), serviceID); err != nil {
			handleAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Practitioners and availability

func listPractitionersHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := svc.ListPractitioners(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PractitionerResponse, 0, len(listings))
		for _, p := range listings {
			resp = append(resp, PractitionerResponse{
				ID:          p.ID,
				Name:        p.Name,
				ServiceID:   p.ServiceID,
				ServiceName: p.ServiceName,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listWindowsHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a positive integer")
			return
		}

		windows, err := svc.ListWindows(r.Context(), practitionerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]WindowResponse, 0, len(windows))
		for _, win := range windows {
			resp = append(resp, WindowResponse{
				ID:        win.ID,
				DayOfWeek: win.DayOfWeek,
				StartTime: win.Start.String(),
				EndTime:   win.End.String(),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func upsertWindowHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "id must be a positive integer")
			return
		}

		var req WindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := scheduling.ParseTimeOfDay(req.StartTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start_time", "start_time must be HH:MM")
			return
		}
		end, err := scheduling.ParseTimeOfDay(req.EndTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end_time", "end_time must be HH:MM")
			return
		}

		win := scheduling.AvailabilityWindow{
			PractitionerID: practitionerID,
			DayOfWeek:      req.DayOfWeek,
			Start:          start,
			End:            end,
		}
		if err := svc.UpsertWindow(r.Context(), &win); err != nil {
			handleAdminError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, WindowResponse{
			ID:        win.ID,
			DayOfWeek: win.DayOfWeek,
			StartTime: win.Start.String(),
			EndTime:   win.End.String(),
		})
	}
}

func deleteWindowHandler(svc *scheduling.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windowID, ok := urlID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "id must be a positive integer")
			return
		}

		if err := svc.DeleteWindow(r.Context(), windowID); err != nil {
			handleAdminError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Error mapping

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotExpired):
		writeError(w, http.StatusConflict, "slot_passed", err.Error())
	case errors.Is(err, scheduling.ErrDuplicateSameDayBooking):
		writeError(w, http.StatusConflict, "already_booked_same_day", err.Error())
	case errors.Is(err, scheduling.ErrSlotAlreadyTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, scheduling.ErrTooLateToCancel):
		writeError(w, http.StatusConflict, "too_late_to_cancel", err.Error())
	case errors.Is(err, scheduling.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAdminError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrWindowInUse):
		writeError(w, http.StatusConflict, "window_in_use", err.Error())
	case errors.Is(err, scheduling.ErrWindowNotFound):
		writeError(w, http.StatusNotFound, "window_not_found", err.Error())
	case errors.Is(err, scheduling.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())
	case errors.Is(err, scheduling.ErrInvalidWindow), errors.Is(err, scheduling.ErrInvalidService):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
