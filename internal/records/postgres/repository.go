// Package postgres provides the PostgreSQL implementation of the records repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/records"
)

// Repository implements the records.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL records repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListStaff returns all staff records ordered by name.
func (r *Repository) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	query := `
		SELECT id, full_name, position, created_at
		FROM staff
		ORDER BY full_name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	staff := make([]domain.StaffMember, 0)
	for rows.Next() {
		var m domain.StaffMember
		if err := rows.Scan(&m.ID, &m.FullName, &m.Position, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// CreateStaff inserts a staff record.
func (r *Repository) CreateStaff(ctx context.Context, member *domain.StaffMember) error {
	query := `
		INSERT INTO staff (id, full_name, position)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, member.ID, member.FullName, member.Position).
		Scan(&member.CreatedAt)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// ListPatients returns all patient records ordered by name.
func (r *Repository) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	query := `
		SELECT id, full_name, COALESCE(date_of_birth::text, ''), COALESCE(phone, ''), created_at
		FROM patients
		ORDER BY full_name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := make([]domain.Patient, 0)
	for rows.Next() {
		var p domain.Patient
		if err := rows.Scan(&p.ID, &p.FullName, &p.DateOfBirth, &p.Phone, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// CreatePatient inserts a patient record.
func (r *Repository) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	query := `
		INSERT INTO patients (id, full_name, date_of_birth, phone)
		VALUES ($1, $2, NULLIF($3, '')::date, NULLIF($4, ''))
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query, patient.ID, patient.FullName, patient.DateOfBirth, patient.Phone).
		Scan(&patient.CreatedAt)
	if err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	return nil
}

// ListAppointments returns all appointments ordered by schedule.
func (r *Repository) ListAppointments(ctx context.Context) ([]domain.Appointment, error) {
	query := `
		SELECT id, patient_id, COALESCE(staff_id::text, ''), scheduled_at, status, created_at
		FROM appointments
		ORDER BY scheduled_at
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		var a domain.Appointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.StaffID, &a.ScheduledAt, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// RescheduleAppointment moves an appointment to a new time.
func (r *Repository) RescheduleAppointment(ctx context.Context, id string, scheduledAt time.Time) error {
	query := `
		UPDATE appointments
		SET scheduled_at = $1, status = 'rescheduled'
		WHERE id = $2
	`
	tag, err := r.db.Exec(ctx, query, scheduledAt, id)
	if err != nil {
		return fmt.Errorf("reschedule appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return records.ErrAppointmentNotFound
	}
	return nil
}

// ListInvoices returns all billing records, newest first.
func (r *Repository) ListInvoices(ctx context.Context) ([]domain.Invoice, error) {
	query := `
		SELECT id, patient_id, amount::text, status, issued_at
		FROM billing
		ORDER BY issued_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0)
	for rows.Next() {
		var inv domain.Invoice
		if err := rows.Scan(&inv.ID, &inv.PatientID, &inv.Amount, &inv.Status, &inv.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	return invoices, nil
}
