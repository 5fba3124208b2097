package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wardsuite/clinic-desk/internal/authz"
	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/pkg/ctxlog"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
)

// Handler handles HTTP requests for the record resources.
type Handler struct {
	repo      Repository
	validator *validator.Validate
}

// NewHandler creates a new records handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:      repo,
		validator: validator.New(),
	}
}

// RegisterRoutes registers the record routes, each wrapped with its policy
// table action.
func (h *Handler) RegisterRoutes(r chi.Router, enforcer *authz.Enforcer) {
	r.With(enforcer.Require(authz.StaffList)).Get("/staff", h.ListStaff)
	r.With(enforcer.Require(authz.StaffCreate)).Post("/staff", h.CreateStaff)

	r.With(enforcer.Require(authz.PatientsList)).Get("/patients", h.ListPatients)
	r.With(enforcer.Require(authz.PatientsCreate)).Post("/patients", h.CreatePatient)

	r.With(enforcer.Require(authz.AppointmentsList)).Get("/appointments", h.ListAppointments)
	r.With(enforcer.Require(authz.AppointmentsReschedule)).
		Patch("/appointments/{id}/schedule", h.RescheduleAppointment)

	r.With(enforcer.Require(authz.BillingList)).Get("/billing", h.ListBilling)
}

// ListStaff handles GET /staff.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.repo.ListStaff(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]interface{}{"data": staff})
}

// CreateStaffRequest represents the request body for creating a staff record.
type CreateStaffRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Position string `json:"position" validate:"required,min=1,max=255"`
}

// CreateStaff handles POST /staff.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if !h.decode(w, r, &req) {
		return
	}

	member := &domain.StaffMember{
		ID:       uuid.NewString(),
		FullName: req.FullName,
		Position: req.Position,
	}
	if err := h.repo.CreateStaff(r.Context(), member); err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusCreated, map[string]interface{}{"data": member})
}

// ListPatients handles GET /patients.
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := h.repo.ListPatients(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]interface{}{"data": patients})
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	FullName    string `json:"full_name" validate:"required,min=1,max=255"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
}

// CreatePatient handles POST /patients.
func (h *Handler) CreatePatient(w http.ResponseWriter, r *http.Request) {
	var req CreatePatientRequest
	if !h.decode(w, r, &req) {
		return
	}

	patient := &domain.Patient{
		ID:          uuid.NewString(),
		FullName:    req.FullName,
		DateOfBirth: req.DateOfBirth,
		Phone:       req.Phone,
	}
	if err := h.repo.CreatePatient(r.Context(), patient); err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusCreated, map[string]interface{}{"data": patient})
}

// ListAppointments handles GET /appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	appointments, err := h.repo.ListAppointments(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]interface{}{"data": appointments})
}

// RescheduleRequest represents the request body for moving an appointment.
type RescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// RescheduleAppointment handles PATCH /appointments/{id}/schedule.
func (h *Handler) RescheduleAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var req RescheduleRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.repo.RescheduleAppointment(r.Context(), id, req.ScheduledAt); err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			httputil.Error(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, nil)
}

// ListBilling handles GET /billing.
func (h *Handler) ListBilling(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.repo.ListInvoices(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]interface{}{"data": invoices})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
	httputil.Error(w, http.StatusInternalServerError, "server error")
}
