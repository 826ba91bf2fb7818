package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byvoula/salon-booking-service/internal/availability"
	redisclient "github.com/byvoula/salon-booking-service/internal/redis"
)

// fakeRepo is an in-memory Repository good enough for service-level tests.
type fakeRepo struct {
	services  map[uuid.UUID]Service
	employees map[uuid.UUID]Employee
	clients   map[uuid.UUID]Client
	windows   []WorkingWindow
	appts     []Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		services:  make(map[uuid.UUID]Service),
		employees: make(map[uuid.UUID]Employee),
		clients:   make(map[uuid.UUID]Client),
	}
}

func (f *fakeRepo) GetServiceByID(_ context.Context, id uuid.UUID) (*Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (f *fakeRepo) ListServices(_ context.Context) ([]Service, error) {
	var out []Service
	for _, s := range f.services {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepo) CreateService(_ context.Context, svc Service) (*Service, error) {
	svc.ID = uuid.New()
	f.services[svc.ID] = svc
	return &svc, nil
}

func (f *fakeRepo) GetEmployeeByID(_ context.Context, id uuid.UUID) (*Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &e, nil
}

func (f *fakeRepo) ListEmployees(_ context.Context) ([]EmployeeDetail, error) {
	var out []EmployeeDetail
	for _, e := range f.employees {
		out = append(out, EmployeeDetail{Employee: e})
	}
	return out, nil
}

func (f *fakeRepo) ReplaceSchedule(_ context.Context, employeeID uuid.UUID, windows []WorkingWindow) error {
	kept := f.windows[:0]
	for _, w := range f.windows {
		if w.EmployeeID != employeeID {
			kept = append(kept, w)
		}
	}
	f.windows = append(kept, windows...)
	return nil
}

func (f *fakeRepo) GetWindowsForWeekday(_ context.Context, employeeID uuid.UUID, weekday string) ([]WorkingWindow, error) {
	var out []WorkingWindow
	for _, w := range f.windows {
		if w.EmployeeID == employeeID && w.Weekday == weekday {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetClientByID(_ context.Context, id uuid.UUID) (*Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (f *fakeRepo) ListOccupyingAppointments(_ context.Context, employeeID uuid.UUID, date time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appts {
		if a.EmployeeID == employeeID && sameDay(a.ScheduledStart, date) && a.Status.Occupies() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(_ context.Context, appt Appointment) (*Appointment, error) {
	appt.ID = uuid.New()
	f.appts = append(f.appts, appt)
	return &appt, nil
}

func (f *fakeRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	for _, a := range f.appts {
		if a.ID == id {
			return &AppointmentDetail{Appointment: a}, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) ListAppointments(_ context.Context, filter ListFilter) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for _, a := range f.appts {
		if filter.ClientID != nil && a.ClientID != *filter.ClientID {
			continue
		}
		if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Date != nil && !sameDay(a.ScheduledStart, *filter.Date) {
			continue
		}
		out = append(out, AppointmentDetail{Appointment: a})
	}
	return out, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	for i, a := range f.appts {
		if a.ID == id {
			f.appts[i].Status = to
			updated := f.appts[i]
			return &updated, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeRepo) CompleteElapsed(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for i, a := range f.appts {
		if a.Status == StatusConfirmed && a.ScheduledEnd.Before(now) {
			f.appts[i].Status = StatusCompleted
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) DashboardSummary(_ context.Context) (*DashboardSummary, error) {
	return &DashboardSummary{TotalAppointments: int64(len(f.appts))}, nil
}

// fakeLocker runs the critical section inline; when contended is set it
// simulates a concurrent holder.
type fakeLocker struct {
	contended bool
	calls     int
}

func (l *fakeLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ string, fn func(ctx context.Context) error) error {
	l.calls++
	if l.contended {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

// Fixtures

var testNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local) // Sunday morning

func newTestScheduler(t *testing.T) (*Scheduler, *fakeRepo, *fakeLocker, uuid.UUID, uuid.UUID, uuid.UUID) {
	t.Helper()

	repo := newFakeRepo()
	locker := &fakeLocker{}

	sched := NewScheduler(repo, locker)
	sched.now = func() time.Time { return testNow }

	serviceID := uuid.New()
	repo.services[serviceID] = Service{ID: serviceID, Name: "Coiffure Express", DurationMinutes: 30, Price: 5000, IsActive: true}

	employeeID := uuid.New()
	repo.employees[employeeID] = Employee{ID: employeeID, FirstName: "Sophie", LastName: "Martin", IsActive: true}
	repo.windows = []WorkingWindow{
		{EmployeeID: employeeID, Weekday: availability.Monday, StartMinute: 9 * 60, EndMinute: 12 * 60},
	}

	clientID := uuid.New()
	repo.clients[clientID] = Client{ID: clientID, FirstName: "Ana", LastName: "Costa", Email: "ana@example.com"}

	return sched, repo, locker, serviceID, employeeID, clientID
}

// monday returns 2026-03-02 (a Monday) at the given clock time.
func monday(clock string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04", "2026-03-02 "+clock, time.Local)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeAvailability_ServiceNotFound(t *testing.T) {
	sched, _, _, _, employeeID, _ := newTestScheduler(t)

	_, err := sched.ComputeAvailability(context.Background(), employeeID, uuid.New(), monday("00:00"))
	require.ErrorIs(t, err, ErrServiceNotFound)
}

func TestComputeAvailability_NoWindowsIsEmptyNotError(t *testing.T) {
	sched, _, _, serviceID, employeeID, _ := newTestScheduler(t)

	sunday := monday("00:00").AddDate(0, 0, 6)
	slots, err := sched.ComputeAvailability(context.Background(), employeeID, serviceID, sunday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeAvailability_ExcludesBookedIntervals(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	repo.appts = append(repo.appts, Appointment{
		ID:             uuid.New(),
		ClientID:       clientID,
		EmployeeID:     employeeID,
		ServiceID:      serviceID,
		ScheduledStart: monday("10:00"),
		ScheduledEnd:   monday("10:45"),
		Status:         StatusConfirmed,
	})

	slots, err := sched.ComputeAvailability(context.Background(), employeeID, serviceID, monday("00:00"))
	require.NoError(t, err)

	wantStarts := []string{"09:00", "09:15", "09:30", "10:45", "11:00", "11:15", "11:30"}
	require.Len(t, slots, len(wantStarts))
	for i, want := range wantStarts {
		assert.Equal(t, want, slots[i].Start.Format("15:04"), "slot %d", i)
	}
}

func TestComputeAvailability_CancelledAppointmentDoesNotBlock(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	repo.appts = append(repo.appts, Appointment{
		ID:             uuid.New(),
		ClientID:       clientID,
		EmployeeID:     employeeID,
		ServiceID:      serviceID,
		ScheduledStart: monday("09:00"),
		ScheduledEnd:   monday("12:00"),
		Status:         StatusCancelled,
	})

	slots, err := sched.ComputeAvailability(context.Background(), employeeID, serviceID, monday("00:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
	assert.Equal(t, "09:00", slots[0].Start.Format("15:04"))
}

func TestCreateAppointment_Success(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	appt, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID:   clientID,
		EmployeeID: employeeID,
		ServiceID:  serviceID,
		Start:      monday("09:00"),
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, monday("09:30"), appt.ScheduledEnd)
	assert.Len(t, repo.appts, 1)
}

func TestCreateAppointment_PastStart(t *testing.T) {
	sched, _, _, serviceID, employeeID, clientID := newTestScheduler(t)

	_, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID:   clientID,
		EmployeeID: employeeID,
		ServiceID:  serviceID,
		Start:      testNow.Add(-time.Hour),
	})
	require.ErrorIs(t, err, ErrPastAppointment)
}

func TestCreateAppointment_OverlapRejected(t *testing.T) {
	sched, _, _, serviceID, employeeID, clientID := newTestScheduler(t)

	_, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:00"),
	})
	require.NoError(t, err)

	// 09:15-09:45 straddles the existing 09:00-09:30 booking.
	_, err = sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:15"),
	})
	require.ErrorIs(t, err, availability.ErrSlotUnavailable)
}

func TestCreateAppointment_TouchingBoundaryAccepted(t *testing.T) {
	sched, _, _, serviceID, employeeID, clientID := newTestScheduler(t)

	_, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:00"),
	})
	require.NoError(t, err)

	// Starts exactly where the existing booking ends.
	_, err = sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:30"),
	})
	require.NoError(t, err)
}

func TestCreateAppointment_LockContention(t *testing.T) {
	sched, _, locker, serviceID, employeeID, clientID := newTestScheduler(t)
	locker.contended = true

	_, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:00"),
	})
	require.ErrorIs(t, err, ErrSlotBeingBooked)
	assert.Equal(t, 1, locker.calls)
}

func TestCreateAppointment_BookedSlotDisappearsFromAvailability(t *testing.T) {
	sched, _, _, serviceID, employeeID, clientID := newTestScheduler(t)

	before, err := sched.ComputeAvailability(context.Background(), employeeID, serviceID, monday("00:00"))
	require.NoError(t, err)
	require.NotEmpty(t, before)

	booked := before[0]
	_, err = sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: booked.Start,
	})
	require.NoError(t, err)

	after, err := sched.ComputeAvailability(context.Background(), employeeID, serviceID, monday("00:00"))
	require.NoError(t, err)
	for _, s := range after {
		assert.False(t, availability.Overlaps(s.Start, s.End, booked.Start, booked.End),
			"slot %s still overlaps booked interval", s.Start.Format("15:04"))
	}
}

func TestUpdateStatus_ClientCancelsOwnFutureAppointment(t *testing.T) {
	sched, _, _, serviceID, employeeID, clientID := newTestScheduler(t)

	appt, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:00"),
	})
	require.NoError(t, err)

	updated, err := sched.UpdateStatus(context.Background(), appt.ID, "cancelled", RoleClient, clientID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestUpdateStatus_ClientRules(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	appt, err := sched.CreateAppointment(context.Background(), CreateRequest{
		ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID, Start: monday("09:00"),
	})
	require.NoError(t, err)

	t.Run("cannot confirm", func(t *testing.T) {
		_, err := sched.UpdateStatus(context.Background(), appt.ID, "confirmed", RoleClient, clientID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("cannot touch another client's appointment", func(t *testing.T) {
		_, err := sched.UpdateStatus(context.Background(), appt.ID, "cancelled", RoleClient, uuid.New())
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := sched.UpdateStatus(context.Background(), appt.ID, "postponed", RoleClient, clientID)
		require.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("cannot cancel after start", func(t *testing.T) {
		past := Appointment{
			ID: uuid.New(), ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID,
			ScheduledStart: testNow.Add(-2 * time.Hour),
			ScheduledEnd:   testNow.Add(-90 * time.Minute),
			Status:         StatusConfirmed,
		}
		repo.appts = append(repo.appts, past)

		_, err := sched.UpdateStatus(context.Background(), past.ID, "cancelled", RoleClient, clientID)
		require.ErrorIs(t, err, ErrPastAppointment)
	})
}

func TestUpdateStatus_AdminMayCancelPastAppointment(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	past := Appointment{
		ID: uuid.New(), ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID,
		ScheduledStart: testNow.Add(-2 * time.Hour),
		ScheduledEnd:   testNow.Add(-90 * time.Minute),
		Status:         StatusConfirmed,
	}
	repo.appts = append(repo.appts, past)

	updated, err := sched.UpdateStatus(context.Background(), past.ID, "cancelled", RoleAdmin, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
}

func TestCompletePastAppointments(t *testing.T) {
	sched, repo, _, serviceID, employeeID, clientID := newTestScheduler(t)

	elapsed := Appointment{
		ID: uuid.New(), ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID,
		ScheduledStart: testNow.Add(-2 * time.Hour),
		ScheduledEnd:   testNow.Add(-90 * time.Minute),
		Status:         StatusConfirmed,
	}
	upcoming := Appointment{
		ID: uuid.New(), ClientID: clientID, EmployeeID: employeeID, ServiceID: serviceID,
		ScheduledStart: testNow.Add(2 * time.Hour),
		ScheduledEnd:   testNow.Add(150 * time.Minute),
		Status:         StatusConfirmed,
	}
	repo.appts = append(repo.appts, elapsed, upcoming)

	n, err := sched.CompletePastAppointments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, StatusCompleted, repo.appts[0].Status)
	assert.Equal(t, StatusConfirmed, repo.appts[1].Status)
}

func TestReplaceSchedule_Validation(t *testing.T) {
	sched, _, _, _, employeeID, _ := newTestScheduler(t)

	err := sched.ReplaceSchedule(context.Background(), employeeID, []WorkingWindow{
		{EmployeeID: employeeID, Weekday: "someday", StartMinute: 9 * 60, EndMinute: 17 * 60},
	})
	require.ErrorIs(t, err, ErrInvalidSchedule)

	err = sched.ReplaceSchedule(context.Background(), employeeID, []WorkingWindow{
		{EmployeeID: employeeID, Weekday: availability.Monday, StartMinute: 17 * 60, EndMinute: 9 * 60},
	})
	require.ErrorIs(t, err, ErrInvalidSchedule)

	err = sched.ReplaceSchedule(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, min)
	assert.Equal(t, "09:30", Clock(min))

	for _, bad := range []string{"", "9h30", "25:00", "10:75"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
