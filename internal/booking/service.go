package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/byvoula/salon-booking-service/internal/availability"
	redisclient "github.com/byvoula/salon-booking-service/internal/redis"
)

var (
	// ErrPastAppointment rejects bookings for a start time that has already
	// elapsed, and client cancellations of appointments that already started.
	ErrPastAppointment = errors.New("appointment time is in the past")

	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrForbidden covers actor rule violations: clients acting on someone
	// else's appointment, or setting any status other than cancelled.
	ErrForbidden = errors.New("operation not allowed for this actor")

	// ErrSlotBeingBooked is returned when another request holds the booking
	// lock for the same employee and day.
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")

	ErrInvalidSchedule = errors.New("invalid schedule window")
)

const dayFormat = "2006-01-02"

type Scheduler struct {
	repo   Repository
	locker redisclient.Locker
	now    func() time.Time
}

func NewScheduler(repo Repository, locker redisclient.Locker) *Scheduler {
	return &Scheduler{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// busyIntervals projects occupying appointments onto engine intervals. The
// repository already filters statuses in SQL; the Occupies predicate is
// re-applied here so in-memory callers (and tests) get the same behavior.
func busyIntervals(appts []Appointment) []availability.Interval {
	busy := make([]availability.Interval, 0, len(appts))
	for _, a := range appts {
		if !a.Status.Occupies() {
			continue
		}
		busy = append(busy, availability.Interval{Start: a.ScheduledStart, End: a.ScheduledEnd})
	}
	return busy
}

// ComputeAvailability returns the free slots for one employee, service and
// date. An employee with no working hours that weekday yields an empty
// result, not an error.
func (s *Scheduler) ComputeAvailability(ctx context.Context, employeeID, serviceID uuid.UUID, date time.Time) ([]availability.Slot, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	if _, err := s.repo.GetEmployeeByID(ctx, employeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}

	weekday := availability.WeekdayName(date)
	windows, err := s.repo.GetWindowsForWeekday(ctx, employeeID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if len(windows) == 0 {
		return []availability.Slot{}, nil
	}

	appts, err := s.repo.ListOccupyingAppointments(ctx, employeeID, date)
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	intervals := make([]availability.Interval, 0, len(windows))
	for _, w := range windows {
		intervals = append(intervals, w.IntervalOn(date))
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	return availability.Slots(intervals, busyIntervals(appts), duration, availability.DefaultStep)
}

type CreateRequest struct {
	ClientID   uuid.UUID
	EmployeeID uuid.UUID
	ServiceID  uuid.UUID
	Start      time.Time
	Notes      *string
}

// CreateAppointment books a slot for a client. The conflict check runs inside
// a per-(employee, day) lock so that concurrent requests cannot both validate
// against the same snapshot; the overlap exclusion constraint in Postgres
// remains the authoritative backstop if the lock is ever bypassed.
func (s *Scheduler) CreateAppointment(ctx context.Context, req CreateRequest) (*Appointment, error) {
	if _, err := s.repo.GetClientByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, ErrClientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	svc, err := s.repo.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load service: %w", err)
	}

	if _, err := s.repo.GetEmployeeByID(ctx, req.EmployeeID); err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}

	if !req.Start.After(s.now()) {
		return nil, ErrPastAppointment
	}

	duration := time.Duration(svc.DurationMinutes) * time.Minute
	if duration <= 0 {
		return nil, availability.ErrInvalidDuration
	}
	end := req.Start.Add(duration)

	var created *Appointment

	day := req.Start.Format(dayFormat)
	err = s.locker.WithBookingLock(ctx, req.EmployeeID, day, func(lockCtx context.Context) error {
		// Re-read inside the critical section: only appointments committed
		// before the lock was taken can conflict now.
		existing, err := s.repo.ListOccupyingAppointments(lockCtx, req.EmployeeID, req.Start)
		if err != nil {
			return fmt.Errorf("load appointments: %w", err)
		}

		if err := availability.CheckConflict(req.Start, duration, busyIntervals(existing)); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ClientID:       req.ClientID,
			EmployeeID:     req.EmployeeID,
			ServiceID:      req.ServiceID,
			ScheduledStart: req.Start,
			ScheduledEnd:   end,
			Status:         StatusPending,
			Notes:          req.Notes,
		})
		if err != nil {
			return err
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// UpdateStatus applies the actor rules from the appointment lifecycle:
// admins may set any status at any time; clients may only cancel their own
// appointments, and only before the scheduled start.
func (s *Scheduler) UpdateStatus(ctx context.Context, id uuid.UUID, rawStatus string, actor Role, actorID uuid.UUID) (*Appointment, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor != RoleAdmin {
		if appt.ClientID != actorID {
			return nil, fmt.Errorf("%w: appointment belongs to another client", ErrForbidden)
		}
		if status != StatusCancelled {
			return nil, fmt.Errorf("%w: clients can only cancel appointments", ErrForbidden)
		}
		if !appt.ScheduledStart.After(s.now()) {
			return nil, ErrPastAppointment
		}
	}

	return s.repo.UpdateAppointmentStatus(ctx, id, status)
}

func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Scheduler) ListAppointments(ctx context.Context, filter ListFilter) ([]AppointmentDetail, error) {
	return s.repo.ListAppointments(ctx, filter)
}

func (s *Scheduler) ListServices(ctx context.Context) ([]Service, error) {
	return s.repo.ListServices(ctx)
}

func (s *Scheduler) CreateService(ctx context.Context, svc Service) (*Service, error) {
	if svc.Name == "" {
		return nil, errors.New("service name is required")
	}
	if svc.DurationMinutes <= 0 {
		return nil, availability.ErrInvalidDuration
	}
	return s.repo.CreateService(ctx, svc)
}

func (s *Scheduler) ListEmployees(ctx context.Context) ([]EmployeeDetail, error) {
	return s.repo.ListEmployees(ctx)
}

// ReplaceSchedule swaps the full weekly schedule of one employee.
func (s *Scheduler) ReplaceSchedule(ctx context.Context, employeeID uuid.UUID, windows []WorkingWindow) error {
	if _, err := s.repo.GetEmployeeByID(ctx, employeeID); err != nil {
		return err
	}
	for _, w := range windows {
		if !availability.KnownWeekday(w.Weekday) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, w.Weekday)
		}
		if w.StartMinute >= w.EndMinute {
			return fmt.Errorf("%w: window must start before it ends", ErrInvalidSchedule)
		}
	}
	return s.repo.ReplaceSchedule(ctx, employeeID, windows)
}

// CompletePastAppointments is called periodically by the completion worker:
// confirmed appointments whose end time has passed become completed.
func (s *Scheduler) CompletePastAppointments(ctx context.Context) (int64, error) {
	return s.repo.CompleteElapsed(ctx, s.now())
}

func (s *Scheduler) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	return s.repo.DashboardSummary(ctx)
}
