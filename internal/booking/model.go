package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/byvoula/salon-booking-service/internal/availability"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Occupies reports whether an appointment in this status blocks time on the
// employee's calendar. Cancelled appointments never block a slot. This is the
// one place the active-status set is defined; the SQL filter in the
// repository mirrors it via occupyingStatuses.
func (s Status) Occupies() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	default:
		return false
	}
}

func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

type Service struct {
	ID              uuid.UUID
	Name            string
	Description     *string
	DurationMinutes int
	Price           int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Employee struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	Bio       *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EmployeeDetail struct {
	Employee
	Schedule []WorkingWindow
}

type Client struct {
	ID        uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkingWindow is a recurring weekly availability interval for one employee:
// the half-open wall-clock range [StartMinute, EndMinute) on Weekday, in
// minutes since midnight. An employee may have any number of windows per
// weekday.
type WorkingWindow struct {
	EmployeeID  uuid.UUID
	Weekday     string
	StartMinute int
	EndMinute   int
}

// IntervalOn anchors the window onto a concrete calendar date.
func (w WorkingWindow) IntervalOn(date time.Time) availability.Interval {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return availability.Interval{
		Start: midnight.Add(time.Duration(w.StartMinute) * time.Minute),
		End:   midnight.Add(time.Duration(w.EndMinute) * time.Minute),
	}
}

type Appointment struct {
	ID             uuid.UUID
	ClientID       uuid.UUID
	EmployeeID     uuid.UUID
	ServiceID      uuid.UUID
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Status         Status
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AppointmentDetail carries the display names the list endpoints join in.
type AppointmentDetail struct {
	Appointment
	ServiceName  string
	EmployeeName string
	ClientName   string
	Price        int64
}

type DashboardSummary struct {
	TotalAppointments int64
	TotalClients      int64
	TopServices       []ServiceCount
	EmployeeActivity  []EmployeeCount
}

type ServiceCount struct {
	ServiceID uuid.UUID
	Name      string
	Count     int64
}

type EmployeeCount struct {
	EmployeeID   uuid.UUID
	Name         string
	Appointments int64
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", raw)
	}
	return h*60 + m, nil
}

// Clock formats minutes since midnight as "HH:MM".
func Clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
