package handlers

import (
	"errors"
	"net/http"

	"pam-backend/internal/logger"
	"pam-backend/internal/middleware"
	"pam-backend/internal/models"
	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

// currentUser pulls the authenticated user out of the request context. A
// missing user means the route was wired without the auth middleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	var bufferErr *services.BufferExceededError

	switch {
	case errors.As(err, &validationErr):
		utils.Error(w, http.StatusBadRequest, validationErr.Msg)
	case errors.As(err, &bufferErr):
		utils.Error(w, http.StatusBadRequest, bufferErr.Error())
	case errors.Is(err, services.ErrInsufficientStock):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrBadCredentials):
		utils.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrInvalidTOTPCode),
		errors.Is(err, services.ErrNoTOTPSecret),
		errors.Is(err, services.ErrTOTPNotEnabled):
		utils.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("handlers", "writeServiceError", err)
		utils.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
