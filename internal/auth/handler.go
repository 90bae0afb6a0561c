package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devport-app/devport/internal/platform/httpx"
)

// VerificationIssuer issues and dispatches an email-verification capability
// for a freshly registered principal. Implemented by the verify package.
type VerificationIssuer interface {
	IssueAndDispatch(ctx context.Context, principal *Principal) error
}

// Handler wires HTTP endpoints for registration and login.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	issuer    VerificationIssuer
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, issuer VerificationIssuer) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		issuer:    issuer,
		validator: validator.New(),
	}
}

// MountRoutes registers credential endpoints on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// MountAuthenticatedRoutes registers endpoints requiring a principal.
func (h *Handler) MountAuthenticatedRoutes(r chi.Router) {
	r.Put("/email", h.handleUpdateEmail)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateEmailRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type principalResponse struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Roles      []string   `json:"roles"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

type credentialResponse struct {
	Principal     principalResponse `json:"principal"`
	APICredential string            `json:"api_credential"`
}

func toPrincipalResponse(p *Principal) principalResponse {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return principalResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Roles:      roles,
		VerifiedAt: p.VerifiedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal, rawCredential, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
			return
		}
		h.logger.Error("register principal", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	if h.issuer != nil {
		if err := h.issuer.IssueAndDispatch(r.Context(), principal); err != nil {
			// Registration already succeeded; the capability can be re-issued
			// through the resend endpoint.
			h.logger.Warn("dispatch verification", slog.Int64("principal", principal.ID), slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusCreated, credentialResponse{
		Principal:     toPrincipalResponse(principal),
		APICredential: rawCredential,
	})
}

func (h *Handler) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	var req updateEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	changed := strings.ToLower(strings.TrimSpace(req.Email)) != principal.Email
	updated, err := h.service.UpdateEmail(r.Context(), principal, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredential):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		case errors.Is(err, ErrDuplicateEmail):
			httpx.Problem(w, http.StatusConflict, "Duplicate", "email already registered")
		default:
			h.logger.Error("update email", slog.Int64("principal", principal.ID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	if changed && h.issuer != nil {
		if err := h.issuer.IssueAndDispatch(r.Context(), updated); err != nil {
			h.logger.Warn("dispatch verification", slog.Int64("principal", updated.ID), slog.Any("error", err))
		}
	}

	httpx.JSON(w, http.StatusOK, map[string]any{"principal": toPrincipalResponse(updated)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal, rawCredential, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredential) {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, credentialResponse{
		Principal:     toPrincipalResponse(principal),
		APICredential: rawCredential,
	})
}
