package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/byvoula/salon-booking-service/internal/availability"
	"github.com/byvoula/salon-booking-service/internal/booking"
)

const dateParamFormat = "2006-01-02"

func appointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		ClientID:       a.ClientID,
		EmployeeID:     a.EmployeeID,
		ServiceID:      a.ServiceID,
		ScheduledStart: a.ScheduledStart,
		ScheduledEnd:   a.ScheduledEnd,
		Status:         string(a.Status),
		Notes:          a.Notes,
	}
}

func appointmentDetailResponse(d *booking.AppointmentDetail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: appointmentResponse(&d.Appointment),
		ServiceName:         d.ServiceName,
		EmployeeName:        d.EmployeeName,
		ClientName:          d.ClientName,
		Price:               d.Price,
	}
}

func availabilityHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_employee_id", "id must be a valid UUID")
			return
		}

		serviceID, err := uuid.Parse(r.URL.Query().Get("serviceId"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "serviceId must be a valid UUID")
			return
		}

		date, err := time.ParseInLocation(dateParamFormat, r.URL.Query().Get("date"), time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := sched.ComputeAvailability(r.Context(), employeeID, serviceID, date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := AvailabilityResponse{
			Date:         date.Format(dateParamFormat),
			EmployeeID:   employeeID,
			ServiceID:    serviceID,
			Availability: make([]SlotResponse, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Availability = append(resp.Availability, SlotResponse{
				Start: s.Start.Format("15:04"),
				End:   s.End.Format("15:04"),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}
		employeeID, err := uuid.Parse(req.EmployeeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_employee_id", "employee_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		start, err := time.ParseInLocation(time.RFC3339, req.Start, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_start", "scheduled_start must be RFC 3339")
			return
		}

		appt, err := sched.CreateAppointment(r.Context(), booking.CreateRequest{
			ClientID:   clientID,
			EmployeeID: employeeID,
			ServiceID:  serviceID,
			Start:      start,
			Notes:      req.Notes,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func listAppointmentsHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter booking.ListFilter

		if v := r.URL.Query().Get("client_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
				return
			}
			filter.ClientID = &id
		}
		if v := r.URL.Query().Get("employee_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_employee_id", "employee_id must be a valid UUID")
				return
			}
			filter.EmployeeID = &id
		}
		if v := r.URL.Query().Get("date"); v != "" {
			date, err := time.ParseInLocation(dateParamFormat, v, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			filter.Date = &date
		}

		appts, err := sched.ListAppointments(r.Context(), filter)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, appointmentDetailResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": resp})
	}
}

func getAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := sched.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentDetailResponse(detail))
	}
}

func updateStatusHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		actorID, err := uuid.Parse(req.ActorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_actor_id", "actor_id must be a valid UUID")
			return
		}
		role := booking.Role(req.ActorRole)
		if role != booking.RoleClient && role != booking.RoleAdmin {
			writeError(w, http.StatusBadRequest, "invalid_actor_role", "actor_role must be client or admin")
			return
		}

		appt, err := sched.UpdateStatus(r.Context(), id, req.Status, role, actorID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func listServicesHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := sched.ListServices(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for _, s := range services {
			resp = append(resp, ServiceResponse{
				ID:              s.ID,
				Name:            s.Name,
				Description:     s.Description,
				DurationMinutes: s.DurationMinutes,
				Price:           s.Price,
				IsActive:        s.IsActive,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"services": resp})
	}
}

func createServiceHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := sched.CreateService(r.Context(), booking.Service{
			Name:            req.Name,
			Description:     req.Description,
			DurationMinutes: req.DurationMinutes,
			Price:           req.Price,
			IsActive:        true,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, ServiceResponse{
			ID:              created.ID,
			Name:            created.Name,
			Description:     created.Description,
			DurationMinutes: created.DurationMinutes,
			Price:           created.Price,
			IsActive:        created.IsActive,
		})
	}
}

func listEmployeesHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employees, err := sched.ListEmployees(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]EmployeeResponse, 0, len(employees))
		for _, e := range employees {
			er := EmployeeResponse{
				ID:        e.ID,
				FirstName: e.FirstName,
				LastName:  e.LastName,
				Email:     e.Email,
				Phone:     e.Phone,
				Bio:       e.Bio,
				IsActive:  e.IsActive,
				Schedule:  make([]ScheduleWindow, 0, len(e.Schedule)),
			}
			for _, win := range e.Schedule {
				er.Schedule = append(er.Schedule, ScheduleWindow{
					DayOfWeek: win.Weekday,
					StartTime: booking.Clock(win.StartMinute),
					EndTime:   booking.Clock(win.EndMinute),
				})
			}
			resp = append(resp, er)
		}
		writeJSON(w, http.StatusOK, map[string]any{"employees": resp})
	}
}

func replaceScheduleHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		employeeID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_employee_id", "id must be a valid UUID")
			return
		}

		var req ReplaceScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		windows := make([]booking.WorkingWindow, 0, len(req.Schedule))
		for _, item := range req.Schedule {
			start, err := booking.ParseClock(item.StartTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
				return
			}
			end, err := booking.ParseClock(item.EndTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
				return
			}
			windows = append(windows, booking.WorkingWindow{
				EmployeeID:  employeeID,
				Weekday:     item.DayOfWeek,
				StartMinute: start,
				EndMinute:   end,
			})
		}

		if err := sched.ReplaceSchedule(r.Context(), employeeID, windows); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "employee schedule updated"})
	}
}

func dashboardHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := sched.DashboardSummary(r.Context())
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := DashboardResponse{
			Totals: DashboardTotals{
				Appointments: summary.TotalAppointments,
				Clients:      summary.TotalClients,
			},
			TopServices:      make([]TopServiceEntry, 0, len(summary.TopServices)),
			EmployeeActivity: make([]EmployeeActivityItem, 0, len(summary.EmployeeActivity)),
		}
		for _, s := range summary.TopServices {
			resp.TopServices = append(resp.TopServices, TopServiceEntry{
				ServiceID: s.ServiceID, Name: s.Name, Count: s.Count,
			})
		}
		for _, e := range summary.EmployeeActivity {
			resp.EmployeeActivity = append(resp.EmployeeActivity, EmployeeActivityItem{
				EmployeeID: e.EmployeeID, Name: e.Name, Appointments: e.Appointments,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
	case errors.Is(err, booking.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, availability.ErrSlotUnavailable):
		writeError(w, http.StatusBadRequest, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrPastAppointment):
		writeError(w, http.StatusBadRequest, "past_appointment", err.Error())
	case errors.Is(err, availability.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, booking.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, booking.ErrInvalidSchedule):
		writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
	case errors.Is(err, booking.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
