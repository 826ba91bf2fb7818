package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound     = errors.New("service not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// ListFilter narrows appointment listings. Nil fields mean no filtering.
type ListFilter struct {
	ClientID   *uuid.UUID
	EmployeeID *uuid.UUID
	Date       *time.Time
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	CreateService(ctx context.Context, svc Service) (*Service, error)

	GetEmployeeByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	ListEmployees(ctx context.Context) ([]EmployeeDetail, error)
	ReplaceSchedule(ctx context.Context, employeeID uuid.UUID, windows []WorkingWindow) error

	// Weekday/window resolution: the WorkingWindows for one employee and
	// lowercase weekday name.
	GetWindowsForWeekday(ctx context.Context, employeeID uuid.UUID, weekday string) ([]WorkingWindow, error)

	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// ListOccupyingAppointments returns the appointments that block time on
	// date for the employee: status in (pending, confirmed, completed).
	ListOccupyingAppointments(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]Appointment, error)

	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	ListAppointments(ctx context.Context, filter ListFilter) ([]AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error)

	// Completion worker
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)

	DashboardSummary(ctx context.Context) (*DashboardSummary, error)
}
