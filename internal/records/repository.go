// Package records provides the thin resource dispatchers for staff,
// patients, appointments, and billing. Each action is a parameterized query
// plus row serialization; the interesting behavior is the authorization
// wrapping, which the handler takes from the policy table.
package records

import (
	"context"
	"errors"
	"time"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

// ErrAppointmentNotFound is returned when rescheduling an unknown appointment.
var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository defines the data operations behind the record dispatchers.
type Repository interface {
	ListStaff(ctx context.Context) ([]domain.StaffMember, error)
	CreateStaff(ctx context.Context, member *domain.StaffMember) error

	ListPatients(ctx context.Context) ([]domain.Patient, error)
	CreatePatient(ctx context.Context, patient *domain.Patient) error

	ListAppointments(ctx context.Context) ([]domain.Appointment, error)
	RescheduleAppointment(ctx context.Context, id string, scheduledAt time.Time) error

	ListInvoices(ctx context.Context) ([]domain.Invoice, error)
}
