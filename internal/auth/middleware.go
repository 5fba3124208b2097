package auth

import (
	"net/http"
	"strings"

	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
	"github.com/wardsuite/clinic-desk/internal/session"
)

// Middleware resolves the request credential (session cookie or bearer
// token) and attaches the identity to the request context. Requests without
// a valid credential pass through unauthenticated; the authorization layer
// decides downstream whether that matters.
func Middleware(sessions *session.Manager, tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if identity := resolveIdentity(r, sessions, tokens); identity != nil {
				ctx = httputil.WithIdentity(ctx, identity)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveIdentity(r *http.Request, sessions *session.Manager, tokens *TokenIssuer) *domain.Identity {
	if header := r.Header.Get("Authorization"); header != "" && tokens != nil {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if identity, err := tokens.Validate(parts[1]); err == nil {
				return identity
			}
		}
		// An invalid bearer token falls through to the cookie path; a
		// destroyed or unknown credential is treated as no credential.
	}

	cookie, err := r.Cookie(httputil.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	identity, err := sessions.Current(r.Context(), cookie.Value)
	if err != nil || identity == nil {
		return nil
	}
	return identity
}
