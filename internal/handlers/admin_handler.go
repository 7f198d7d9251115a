package handlers

import (
	"net/http"
	"strconv"

	"pam-backend/internal/access"
	"pam-backend/internal/repositories"
	"pam-backend/pkg/utils"
)

type AdminHandler struct {
	EmailLogs *repositories.EmailLogRepository
}

func NewAdminHandler(emailLogs *repositories.EmailLogRepository) *AdminHandler {
	return &AdminHandler{EmailLogs: emailLogs}
}

// RecentEmailLogs lists the latest outbound notification attempts.
func (h *AdminHandler) RecentEmailLogs(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if access.Role(user.RoleID) != access.RoleAdmin {
		utils.Error(w, http.StatusForbidden, "admin access required")
		return
	}
	limit := 100
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 500 {
		limit = n
	}
	logs, err := h.EmailLogs.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}
