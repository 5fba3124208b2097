// Package authz makes role-based authorization decisions against a single
// declarative policy table. Endpoints never hard-code role checks; they name
// an action and the table decides.
package authz

import "github.com/wardsuite/clinic-desk/internal/domain"

// Action names a protected resource operation.
type Action string

// Protected actions.
const (
	StaffList              Action = "staff.list"
	StaffCreate            Action = "staff.create"
	PatientsList           Action = "patients.list"
	PatientsCreate         Action = "patients.create"
	AppointmentsList       Action = "appointments.list"
	AppointmentsReschedule Action = "appointments.reschedule"
	BillingList            Action = "billing.list"
)

// policy maps each action to the roles allowed to perform it. A nil role
// set means the action is public. Actions absent from the table are denied
// outright.
var policy = map[Action][]domain.Role{
	StaffList:              {domain.RoleAdmin, domain.RoleReceptionist},
	StaffCreate:            {domain.RoleAdmin},
	PatientsList:           nil, // public
	PatientsCreate:         {domain.RoleReceptionist, domain.RoleAdmin},
	AppointmentsList:       nil, // public
	AppointmentsReschedule: {domain.RoleAdmin, domain.RoleReceptionist},
	BillingList:            {domain.RoleAdmin, domain.RoleReceptionist},
}

// Decision is the outcome of an authorization check.
type Decision int

// Decisions.
const (
	Deny Decision = iota
	Allow
)

// Authorize decides whether the identity may perform an operation limited
// to the given roles. An empty role set means the operation is public. Role
// comparison is case-insensitive.
func Authorize(identity *domain.Identity, allowed ...domain.Role) Decision {
	if len(allowed) == 0 {
		return Allow
	}
	if identity == nil {
		return Deny
	}
	for _, role := range allowed {
		if identity.Role.Equal(role) {
			return Allow
		}
	}
	return Deny
}

// AllowedRoles returns the role set for an action. ok is false for actions
// missing from the policy table.
func AllowedRoles(action Action) (roles []domain.Role, ok bool) {
	roles, ok = policy[action]
	return roles, ok
}
