package domain

import "time"

// StaffMember is a clinic staff record.
type StaffMember struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// Patient is a registered patient record.
type Patient struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Appointment schedules a patient with a staff member.
type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	StaffID     string    `json:"staff_id,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Invoice is a billing record for a patient.
type Invoice struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patient_id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	IssuedAt  time.Time `json:"issued_at"`
}
