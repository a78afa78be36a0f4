package api

// Request and response shapes. Dates travel as "2006-01-02", times of day as
// "15:04".

type CreateBookingRequest struct {
	PatientID      int64  `json:"patient_id"`
	PractitionerID int64  `json:"practitioner_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

type CancelBookingRequest struct {
	PatientID int64 `json:"patient_id"`
}

type BookingStatusRequest struct {
	PractitionerID int64  `json:"practitioner_id"`
	Status         string `json:"status"`
}

type BookingNotesRequest struct {
	PractitionerID int64  `json:"practitioner_id"`
	Notes          string `json:"notes"`
}

type BookingResponse struct {
	ID             int64  `json:"id"`
	PatientID      int64  `json:"patient_id"`
	PractitionerID int64  `json:"practitioner_id"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Status         string `json:"status"`
}

type BookingDetailResponse struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
	Patient      string `json:"patient"`
	Practitioner string `json:"practitioner"`
	Service      string `json:"service"`
}

type SlotResponse struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type PractitionerSlotsResponse struct {
	PractitionerID int64          `json:"practitioner_id"`
	Practitioner   string         `json:"practitioner"`
	Slots          []SlotResponse `json:"slots"`
}

type ServiceResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type CreateServiceRequest struct {
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type PractitionerResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ServiceID   int64  `json:"service_id"`
	ServiceName string `json:"service"`
}

type WindowRequest struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WindowResponse struct {
	ID        int64  `json:"id"`
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type DashboardResponse struct {
	Today     int `json:"today"`
	Upcoming  int `json:"upcoming"`
	Completed int `json:"completed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
