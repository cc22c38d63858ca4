package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwell/inkwell/internal/handler/dto"
	"github.com/inkwell/inkwell/internal/model"
	"github.com/inkwell/inkwell/internal/service"
)

// SubscriptionHandler handles HTTP requests for the subscription workflow.
type SubscriptionHandler struct {
	svc    *service.SubscriptionService
	logger *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc:    svc,
		logger: logger,
	}
}

// Subscribe handles POST /subscriptions.
//
// The request body is application/x-www-form-urlencoded with name and
// email fields. A structurally missing field is 422; a present field
// that fails validation is 400.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FORM", "Could not parse form data")
		return
	}

	if !r.PostForm.Has("name") {
		h.writeError(w, http.StatusUnprocessableEntity, "MISSING_FIELD", "Missing field: name")
		return
	}
	if !r.PostForm.Has("email") {
		h.writeError(w, http.StatusUnprocessableEntity, "MISSING_FIELD", "Missing field: email")
		return
	}

	input := service.SubscribeInput{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
	}

	if err := h.svc.Subscribe(r.Context(), input); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("subscription_accepted")

	writeJSON(w, http.StatusOK, dto.SubscribeResponse{
		Status: string(model.StatusPendingConfirmation),
	})
}

// Confirm handles GET /subscriptions/confirm.
//
// The subscription_token query parameter carries the token delivered in
// the confirmation email. Replaying a valid token succeeds.
func (h *SubscriptionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")
	if token == "" {
		h.writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Missing subscription_token parameter")
		return
	}

	if err := h.svc.Confirm(r.Context(), token); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConfirmResponse{
		Status: string(model.StatusConfirmed),
	})
}

// handleServiceError maps service errors to HTTP responses.
func (h *SubscriptionHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid name or email")
	case errors.Is(err, service.ErrUnknownToken):
		h.writeError(w, http.StatusBadRequest, "UNKNOWN_TOKEN", "Unknown subscription token")
	default:
		h.logger.Error("internal_error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// writeError writes an error response.
func (h *SubscriptionHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
