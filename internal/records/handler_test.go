package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardsuite/clinic-desk/internal/authz"
	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
)

type mockRepository struct {
	staff        []domain.StaffMember
	patients     []domain.Patient
	appointments []domain.Appointment
	invoices     []domain.Invoice

	rescheduledID string
	rescheduledAt time.Time
}

func (m *mockRepository) ListStaff(_ context.Context) ([]domain.StaffMember, error) {
	return m.staff, nil
}

func (m *mockRepository) CreateStaff(_ context.Context, member *domain.StaffMember) error {
	m.staff = append(m.staff, *member)
	return nil
}

func (m *mockRepository) ListPatients(_ context.Context) ([]domain.Patient, error) {
	return m.patients, nil
}

func (m *mockRepository) CreatePatient(_ context.Context, patient *domain.Patient) error {
	m.patients = append(m.patients, *patient)
	return nil
}

func (m *mockRepository) ListAppointments(_ context.Context) ([]domain.Appointment, error) {
	return m.appointments, nil
}

func (m *mockRepository) RescheduleAppointment(_ context.Context, id string, scheduledAt time.Time) error {
	for _, a := range m.appointments {
		if a.ID == id {
			m.rescheduledID = id
			m.rescheduledAt = scheduledAt
			return nil
		}
	}
	return ErrAppointmentNotFound
}

func (m *mockRepository) ListInvoices(_ context.Context) ([]domain.Invoice, error) {
	return m.invoices, nil
}

// asRole injects an identity ahead of the authorization middleware, standing
// in for the session layer.
func asRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if role != "" {
				ctx := httputil.WithIdentity(r.Context(), &domain.Identity{ID: 1, Identifier: "tester", Role: role})
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(repo *mockRepository, role domain.Role) chi.Router {
	router := chi.NewRouter()
	router.Use(asRole(role))
	NewHandler(repo).RegisterRoutes(router, authz.NewEnforcer(nil))
	return router
}

func do(router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListStaff(t *testing.T) {
	repo := &mockRepository{staff: []domain.StaffMember{
		{ID: uuid.NewString(), FullName: "Greg House", Position: "Diagnostician"},
	}}

	rec := do(newRouter(repo, domain.RoleAdmin), http.MethodGet, "/staff", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}

func TestCreateStaff(t *testing.T) {
	repo := &mockRepository{}
	router := newRouter(repo, domain.RoleAdmin)

	rec := do(router, http.MethodPost, "/staff", `{"full_name":"Lisa Cuddy","position":"Dean of Medicine"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, repo.staff, 1)
	assert.Equal(t, "Lisa Cuddy", repo.staff[0].FullName)
	assert.NotEmpty(t, repo.staff[0].ID)

	// Missing fields are rejected before the repository is touched.
	rec = do(router, http.MethodPost, "/staff", `{"full_name":"No Position"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, repo.staff, 1)
}

func TestCreatePatient_DateValidation(t *testing.T) {
	repo := &mockRepository{}
	router := newRouter(repo, domain.RoleReceptionist)

	rec := do(router, http.MethodPost, "/patients", `{"full_name":"John Doe","date_of_birth":"1990-04-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.patients, 1)

	rec = do(router, http.MethodPost, "/patients", `{"full_name":"Jane Doe","date_of_birth":"02/04/1990"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, repo.patients, 1)
}

func TestRescheduleAppointment(t *testing.T) {
	id := uuid.NewString()
	repo := &mockRepository{appointments: []domain.Appointment{{ID: id}}}
	router := newRouter(repo, domain.RoleReceptionist)

	rec := do(router, http.MethodPatch, "/appointments/"+id+"/schedule", `{"scheduled_at":"2026-10-01T09:30:00Z"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, repo.rescheduledID)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC), repo.rescheduledAt)

	// Unknown appointment.
	rec = do(router, http.MethodPatch, "/appointments/"+uuid.NewString()+"/schedule", `{"scheduled_at":"2026-10-01T09:30:00Z"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed id short-circuits before the body is read.
	rec = do(router, http.MethodPatch, "/appointments/not-a-uuid/schedule", `{"scheduled_at":"2026-10-01T09:30:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthorization(t *testing.T) {
	repo := &mockRepository{}

	// A nurse may read the public listings but not the restricted ones.
	nurse := newRouter(repo, domain.RoleNurse)
	assert.Equal(t, http.StatusOK, do(nurse, http.MethodGet, "/patients", "").Code)
	assert.Equal(t, http.StatusOK, do(nurse, http.MethodGet, "/appointments", "").Code)

	for _, path := range []string{"/staff", "/billing"} {
		rec := do(nurse, http.MethodGet, path, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		body := decodeBody(t, rec)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "Forbidden: insufficient permissions", body["message"])
	}

	// Anonymous callers see the public listings only.
	anon := newRouter(repo, "")
	assert.Equal(t, http.StatusOK, do(anon, http.MethodGet, "/patients", "").Code)
	assert.Equal(t, http.StatusForbidden, do(anon, http.MethodGet, "/staff", "").Code)
	assert.Equal(t, http.StatusForbidden, do(anon, http.MethodPost, "/patients", `{"full_name":"X"}`).Code)
}

func TestListBilling(t *testing.T) {
	repo := &mockRepository{invoices: []domain.Invoice{
		{ID: uuid.NewString(), Amount: "120.00"},
	}}

	rec := do(newRouter(repo, domain.RoleReceptionist), http.MethodGet, "/billing", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)
}
