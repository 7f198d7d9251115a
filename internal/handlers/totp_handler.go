package handlers

import (
	"encoding/json"
	"net/http"

	"pam-backend/internal/models"
	"pam-backend/internal/services"
	"pam-backend/pkg/utils"
)

type TOTPHandler struct {
	TOTP *services.TOTPService
}

func NewTOTPHandler(totp *services.TOTPService) *TOTPHandler {
	return &TOTPHandler{TOTP: totp}
}

// Setup generates a fresh secret and provisioning URL for the caller.
func (h *TOTPHandler) Setup(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	resp, err := h.TOTP.GenerateSetup(r.Context(), user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

// VerifyEnable confirms the first code and turns two-factor on.
func (h *TOTPHandler) VerifyEnable(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req models.TOTPVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.TOTP.VerifyAndEnable(r.Context(), user.ID, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "two-factor enabled"})
}

func (h *TOTPHandler) Status(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	enabled, err := h.TOTP.Status(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}
