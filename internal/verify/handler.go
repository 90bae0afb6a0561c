package verify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devport-app/devport/internal/auth"
	"github.com/devport-app/devport/internal/platform/httpx"
)

// Handler exposes the redemption and resend endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountPublicRoutes registers the unauthenticated redemption endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/email/verify", h.handleRedeem)
}

// MountAuthenticatedRoutes registers endpoints requiring a principal.
func (h *Handler) MountAuthenticatedRoutes(r chi.Router) {
	r.Post("/email/resend", h.handleResend)
}

type redeemRequest struct {
	PrincipalID int64  `json:"principal_id" validate:"required,gt=0"`
	ContentHash string `json:"content_hash" validate:"required"`
	ExpiresAt   int64  `json:"expires_at" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

func (h *Handler) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	capability := Capability{
		PrincipalID: req.PrincipalID,
		ContentHash: req.ContentHash,
		ExpiresAt:   time.Unix(req.ExpiresAt, 0).UTC(),
		Signature:   req.Signature,
	}

	if err := h.service.Redeem(r.Context(), capability); err != nil {
		if Rejected(err) {
			// The response stays at the coarse category; the specific check
			// that failed is only visible in logs.
			h.logger.Warn("capability rejected", slog.Int64("principal", req.PrincipalID), slog.Any("reason", err))
			httpx.Problem(w, http.StatusUnprocessableEntity, "Verification Failed", "")
			return
		}
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	principal := auth.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	if principal.Verified() {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "already_verified"})
		return
	}
	if err := h.service.IssueAndDispatch(r.Context(), principal); err != nil {
		h.logger.Error("resend verification", slog.Int64("principal", principal.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}
