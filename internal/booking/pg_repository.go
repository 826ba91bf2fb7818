package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byvoula/salon-booking-service/internal/availability"
)

// occupyingStatuses is the SQL mirror of Status.Occupies.
const occupyingStatuses = "('pending','confirmed','completed')"

// exclusionViolation is the Postgres error code raised by the
// appointments_no_overlap constraint, the authoritative backstop for the
// check-then-insert race.
const exclusionViolation = "23P01"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.DurationMinutes,
		&s.Price,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(
		&e.ID,
		&e.FirstName,
		&e.LastName,
		&e.Email,
		&e.Phone,
		&e.Bio,
		&e.IsActive,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	return &e, nil
}

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.EmployeeID,
		&a.ServiceID,
		&a.ScheduledStart,
		&a.ScheduledEnd,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAppointmentDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&d.EmployeeID,
		&d.ServiceID,
		&d.ScheduledStart,
		&d.ScheduledEnd,
		&d.Status,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.ServiceName,
		&d.EmployeeName,
		&d.ClientName,
		&d.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

const appointmentDetailQuery = `
	SELECT a.id, a.client_id, a.employee_id, a.service_id,
	       a.scheduled_start, a.scheduled_end, a.status, a.notes,
	       a.created_at, a.updated_at,
	       s.name,
	       e.first_name || ' ' || e.last_name,
	       c.first_name || ' ' || c.last_name,
	       s.price
	FROM appointments a
	JOIN services s ON s.id = a.service_id
	JOIN employees e ON e.id = a.employee_id
	JOIN clients c ON c.id = a.client_id
`

// Interface methods

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, duration_minutes, price, is_active, created_at, updated_at
		FROM services
		ORDER BY created_at DESC
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

func (r *PgRepository) CreateService(ctx context.Context, svc Service) (*Service, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, duration_minutes, price, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, description, duration_minutes, price, is_active, created_at, updated_at
	`, id, svc.Name, svc.Description, svc.DurationMinutes, svc.Price, svc.IsActive)

	return scanService(row)
}

func (r *PgRepository) GetEmployeeByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, bio, is_active, created_at, updated_at
		FROM employees
		WHERE id = $1
	`, id)
	return scanEmployee(row)
}

func (r *PgRepository) ListEmployees(ctx context.Context) ([]EmployeeDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, phone, bio, is_active, created_at, updated_at
		FROM employees
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EmployeeDetail
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		index[e.ID] = len(result)
		result = append(result, EmployeeDetail{Employee: *e, Schedule: []WorkingWindow{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	schedRows, err := r.pool.Query(ctx, `
		SELECT employee_id, day_of_week, start_minute, end_minute
		FROM employee_schedule
		ORDER BY CASE day_of_week
			WHEN 'monday' THEN 1
			WHEN 'tuesday' THEN 2
			WHEN 'wednesday' THEN 3
			WHEN 'thursday' THEN 4
			WHEN 'friday' THEN 5
			WHEN 'saturday' THEN 6
			WHEN 'sunday' THEN 7
		END, start_minute
	`)
	if err != nil {
		return nil, err
	}
	defer schedRows.Close()

	for schedRows.Next() {
		var w WorkingWindow
		if err := schedRows.Scan(&w.EmployeeID, &w.Weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		if i, ok := index[w.EmployeeID]; ok {
			result[i].Schedule = append(result[i].Schedule, w)
		}
	}
	return result, schedRows.Err()
}

func (r *PgRepository) ReplaceSchedule(ctx context.Context, employeeID uuid.UUID, windows []WorkingWindow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM employee_schedule WHERE employee_id = $1`, employeeID); err != nil {
		return fmt.Errorf("clear schedule: %w", err)
	}

	for _, w := range windows {
		_, err := tx.Exec(ctx, `
			INSERT INTO employee_schedule (employee_id, day_of_week, start_minute, end_minute)
			VALUES ($1, $2, $3, $4)
		`, employeeID, w.Weekday, w.StartMinute, w.EndMinute)
		if err != nil {
			return fmt.Errorf("insert schedule row: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgRepository) GetWindowsForWeekday(ctx context.Context, employeeID uuid.UUID, weekday string) ([]WorkingWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT employee_id, day_of_week, start_minute, end_minute
		FROM employee_schedule
		WHERE employee_id = $1 AND day_of_week = $2
		ORDER BY start_minute
	`, employeeID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []WorkingWindow
	for rows.Next() {
		var w WorkingWindow
		if err := rows.Scan(&w.EmployeeID, &w.Weekday, &w.StartMinute, &w.EndMinute); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) ListOccupyingAppointments(ctx context.Context, employeeID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, employee_id, service_id, scheduled_start, scheduled_end,
		       status, notes, created_at, updated_at
		FROM appointments
		WHERE employee_id = $1
		  AND scheduled_start::date = $2::date
		  AND status IN `+occupyingStatuses+`
		ORDER BY scheduled_start
	`, employeeID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, employee_id, service_id,
		                          scheduled_start, scheduled_end, status, notes,
		                          created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7, now(), now())
		RETURNING id, client_id, employee_id, service_id, scheduled_start, scheduled_end,
		          status, notes, created_at, updated_at
	`, id, appt.ClientID, appt.EmployeeID, appt.ServiceID,
		appt.ScheduledStart, appt.ScheduledEnd, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == exclusionViolation {
			return nil, availability.ErrSlotUnavailable
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, appointmentDetailQuery+`WHERE a.id = $1`, id)
	return scanAppointmentDetail(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, filter ListFilter) ([]AppointmentDetail, error) {
	query := appointmentDetailQuery + `WHERE 1=1`
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		query += fmt.Sprintf(" AND a.client_id = $%d", len(args))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		query += fmt.Sprintf(" AND a.employee_id = $%d", len(args))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		query += fmt.Sprintf(" AND a.scheduled_start::date = $%d::date", len(args))
	}
	query += " ORDER BY a.scheduled_start DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanAppointmentDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, client_id, employee_id, service_id, scheduled_start, scheduled_end,
		          status, notes, created_at, updated_at
	`, id, to)
	return scanAppointment(row)
}

func (r *PgRepository) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    updated_at = now()
		WHERE status = 'confirmed'
		  AND scheduled_end < $1
	`, now)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed appointments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var summary DashboardSummary

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&summary.TotalAppointments); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM clients`).Scan(&summary.TotalClients); err != nil {
		return nil, fmt.Errorf("count clients: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, COUNT(a.id)
		FROM services s
		LEFT JOIN appointments a ON a.service_id = s.id
		GROUP BY s.id, s.name
		ORDER BY COUNT(a.id) DESC
		LIMIT 5
	`)
	if err != nil {
		return nil, fmt.Errorf("top services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc ServiceCount
		if err := rows.Scan(&sc.ServiceID, &sc.Name, &sc.Count); err != nil {
			return nil, err
		}
		summary.TopServices = append(summary.TopServices, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	actRows, err := r.pool.Query(ctx, `
		SELECT e.id, e.first_name || ' ' || e.last_name, COUNT(a.id)
		FROM employees e
		LEFT JOIN appointments a ON a.employee_id = e.id AND a.status IN `+occupyingStatuses+`
		GROUP BY e.id, e.first_name, e.last_name
		ORDER BY COUNT(a.id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("employee activity: %w", err)
	}
	defer actRows.Close()

	for actRows.Next() {
		var ec EmployeeCount
		if err := actRows.Scan(&ec.EmployeeID, &ec.Name, &ec.Appointments); err != nil {
			return nil, err
		}
		summary.EmployeeActivity = append(summary.EmployeeActivity, ec)
	}
	return &summary, actRows.Err()
}
