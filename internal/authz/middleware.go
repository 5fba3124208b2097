package authz

import (
	"net/http"

	"github.com/wardsuite/clinic-desk/internal/audit"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
)

// Enforcer wraps handlers with policy-table decisions.
type Enforcer struct {
	recorder audit.Recorder
}

// NewEnforcer creates an enforcer. The recorder may be nil, disabling
// denial auditing.
func NewEnforcer(recorder audit.Recorder) *Enforcer {
	return &Enforcer{recorder: recorder}
}

// Require creates middleware enforcing the policy table for the action.
// On Deny the request is terminated with a Forbidden envelope; handlers
// never see it and cannot degrade to partial data.
func (e *Enforcer) Require(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := httputil.IdentityFromContext(r.Context())

			allowed, known := AllowedRoles(action)
			if !known || Authorize(identity, allowed...) == Deny {
				if e.recorder != nil {
					actor := ""
					if identity != nil {
						actor = identity.Identifier
					}
					e.recorder.Record(r.Context(), audit.Entry{
						Actor:   actor,
						Action:  audit.ActionAccess,
						Outcome: audit.OutcomeDenied,
						Detail:  string(action),
					})
				}
				httputil.Error(w, http.StatusForbidden, "Forbidden: insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
