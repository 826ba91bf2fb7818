package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	ClientID   string  `json:"client_id"`
	EmployeeID string  `json:"employee_id"`
	ServiceID  string  `json:"service_id"`
	Start      string  `json:"scheduled_start"` // RFC 3339
	Notes      *string `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	ActorRole string `json:"actor_role"` // client or admin
	ActorID   string `json:"actor_id"`
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	EmployeeID     uuid.UUID `json:"employee_id"`
	ServiceID      uuid.UUID `json:"service_id"`
	ScheduledStart time.Time `json:"scheduled_start"`
	ScheduledEnd   time.Time `json:"scheduled_end"`
	Status         string    `json:"status"`
	Notes          *string   `json:"notes,omitempty"`
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	ServiceName  string `json:"service_name"`
	EmployeeName string `json:"employee_name"`
	ClientName   string `json:"client_name"`
	Price        int64  `json:"price"`
}

type SlotResponse struct {
	Start string `json:"start"` // HH:MM wall clock
	End   string `json:"end"`
}

type AvailabilityResponse struct {
	Date         string         `json:"date"`
	EmployeeID   uuid.UUID      `json:"employee_id"`
	ServiceID    uuid.UUID      `json:"service_id"`
	Availability []SlotResponse `json:"availability"`
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Price           int64     `json:"price"`
	IsActive        bool      `json:"is_active"`
}

type CreateServiceRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           int64   `json:"price"`
}

type ScheduleWindow struct {
	DayOfWeek string `json:"day_of_week"`
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`
}

type ReplaceScheduleRequest struct {
	Schedule []ScheduleWindow `json:"schedule"`
}

type EmployeeResponse struct {
	ID        uuid.UUID        `json:"id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Email     *string          `json:"email,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	Bio       *string          `json:"bio,omitempty"`
	IsActive  bool             `json:"is_active"`
	Schedule  []ScheduleWindow `json:"schedule"`
}

type DashboardTotals struct {
	Appointments int64 `json:"appointments"`
	Clients      int64 `json:"clients"`
}

type DashboardResponse struct {
	Totals           DashboardTotals        `json:"totals"`
	TopServices      []TopServiceEntry      `json:"top_services"`
	EmployeeActivity []EmployeeActivityItem `json:"employee_activity"`
}

type TopServiceEntry struct {
	ServiceID uuid.UUID `json:"service_id"`
	Name      string    `json:"name"`
	Count     int64     `json:"count"`
}

type EmployeeActivityItem struct {
	EmployeeID   uuid.UUID `json:"employee_id"`
	Name         string    `json:"name"`
	Appointments int64     `json:"appointments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
