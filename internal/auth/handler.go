package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/wardsuite/clinic-desk/internal/domain"
	"github.com/wardsuite/clinic-desk/internal/pkg/ctxlog"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
	"github.com/wardsuite/clinic-desk/internal/session"
)

// CookieSettings contains settings for the session cookie.
type CookieSettings struct {
	Secure bool
	Domain string
}

// Handler handles HTTP requests for the auth module.
type Handler struct {
	service        *Service
	sessions       *session.Manager
	tokens         *TokenIssuer
	validator      *validator.Validate
	cookieSettings CookieSettings
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, sessions *session.Manager, tokens *TokenIssuer, cookieSettings CookieSettings) *Handler {
	return &Handler{
		service:        service,
		sessions:       sessions,
		tokens:         tokens,
		validator:      validator.New(),
		cookieSettings: cookieSettings,
	}
}

// RegisterRoutes registers auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/token", h.Token)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.Session)
	})
}

// Credentials is the login request body, accepted as JSON or form encoding.
type Credentials struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required"`
	Password   string `json:"password" form:"password" validate:"required"`
	Role       string `json:"role" form:"role"`
}

// Login handles POST /auth/login. A successful login replaces any session
// the request already carried.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}

	identity, err := h.service.Authenticate(r.Context(), creds.Identifier, creds.Password, domain.Role(creds.Role))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	// Exactly one session per client token: destroy the one the request
	// carried before issuing a replacement.
	if cookie, err := r.Cookie(httputil.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			ctxlog.FromContext(r.Context()).Warn("failed to destroy prior session", "error", err)
		}
	}

	token, err := h.sessions.Create(r.Context(), *identity)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to create session", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "server error")
		return
	}

	h.setSessionCookie(w, token)

	httputil.Success(w, http.StatusOK, map[string]interface{}{
		"identifier": identity.Identifier,
		"role":       identity.Role.Canonical(),
	})
}

// Token handles POST /auth/token. Same credential checks as login, but the
// result is a signed bearer token for non-browser clients instead of a
// cookie session.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.credentials(w, r)
	if !ok {
		return
	}

	identity, err := h.service.Authenticate(r.Context(), creds.Identifier, creds.Password, domain.Role(creds.Role))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	signed, err := h.tokens.Issue(identity)
	if err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to issue token", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "server error")
		return
	}

	httputil.Success(w, http.StatusOK, map[string]interface{}{
		"token":      signed,
		"expires_in": int(h.tokens.TTL().Seconds()),
	})
}

// Session handles GET /auth/session, the "who am I" probe. The UI polls
// this endpoint, so a missing session is reported with HTTP 200, not 401.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	identity := httputil.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.Error(w, http.StatusOK, "Not authenticated")
		return
	}

	httputil.Success(w, http.StatusOK, map[string]interface{}{
		"user": identity,
	})
}

// Logout handles POST /auth/logout. Always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(httputil.SessionCookie); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			ctxlog.FromContext(r.Context()).Warn("logout error", "error", err)
		}
	}

	h.clearSessionCookie(w)

	httputil.Success(w, http.StatusOK, nil)
}

// credentials decodes the request body (JSON or form) and validates it.
// Writes the error response and returns false when the body is unusable.
func (h *Handler) credentials(w http.ResponseWriter, r *http.Request) (*Credentials, bool) {
	var creds Credentials

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			httputil.Error(w, http.StatusBadRequest, "Missing credentials")
			return nil, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			httputil.Error(w, http.StatusBadRequest, "Missing credentials")
			return nil, false
		}
		creds.Identifier = r.PostFormValue("identifier")
		creds.Password = r.PostFormValue("password")
		creds.Role = r.PostFormValue("role")
	}

	if err := h.validator.Struct(creds); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Missing credentials")
		return nil, false
	}

	return &creds, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     httputil.SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieSettings.Domain,
		HttpOnly: true,
		Secure:   h.cookieSettings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie invalidates the client credential by replacing it with
// an already-expired value.
func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     httputil.SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieSettings.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSettings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrMissingCredentials):
		httputil.Error(w, http.StatusBadRequest, "Missing credentials")
	case errors.Is(err, ErrInvalidCredentials):
		httputil.Error(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, ErrRoleMismatch):
		httputil.Error(w, http.StatusForbidden, "Selected role does not match account role")
	case errors.Is(err, ErrTooManyAttempts):
		httputil.Error(w, http.StatusTooManyRequests, "Too many login attempts")
	default:
		ctxlog.FromContext(r.Context()).Error("internal error", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "server error")
	}
}
